package detector

import (
	"math"

	"github.com/onsetlab/syllabledet/algorithms/common"
)

const (
	ringCapacity = 16
	ringMask     = ringCapacity - 1
)

// ringEntry is one buffered, finalized-but-unscored event plus the
// extra state needed to score it once its trailing context exists.
type ringEntry struct {
	event         Event
	semitoneBonus float64 // f0-level bonus ingredient, captured at push time
}

// prominenceRing is the fixed power-of-two event ring buffer described
// in §3/§4.7/§4.8: events enter FIFO, and an event only leaves once at
// least contextSize newer events have been accepted (0 in realtime
// mode), or unconditionally during flush. On overflow the oldest
// pending event is silently dropped and the read index advances, which
// is the documented (not "fixed") behavior; dropped is exposed so a
// caller can observe it.
type prominenceRing struct {
	slots [ringCapacity]ringEntry
	ready [ringCapacity]bool

	head, tail int
	count      int
	dropped    uint64

	contextSize int
}

func newProminenceRing(contextSize int) *prominenceRing {
	return &prominenceRing{contextSize: contextSize}
}

func (r *prominenceRing) reset() {
	for i := range r.ready {
		r.ready[i] = false
	}
	r.head, r.tail, r.count = 0, 0, 0
	r.dropped = 0
}

// push admits a finalized event, dropping the oldest if the buffer is full.
func (r *prominenceRing) push(entry ringEntry) {
	if r.count == ringCapacity {
		r.ready[r.tail] = false
		r.tail = (r.tail + 1) & ringMask
		r.count--
		r.dropped++
	}
	r.slots[r.head] = entry
	r.ready[r.head] = true
	r.head = (r.head + 1) & ringMask
	r.count++
}

// requiredContext is how many newer events must exist before the oldest
// pending one becomes eligible for emission: 0 in realtime mode (emit
// immediately on finalize), contextSize otherwise.
func (r *prominenceRing) requiredContext(realtime bool) int {
	if realtime {
		return 0
	}
	return r.contextSize
}

// drain scores and emits every event eligible under requiredContext, up
// to the capacity of out, returning how many were written. If flush is
// true every buffered event is drained unconditionally regardless of
// context, using the asymmetric >1.2 accent threshold per §9.
func (r *prominenceRing) drain(out []Event, realtime bool, flush bool) int {
	written := 0
	needed := r.requiredContext(realtime)

	for written < len(out) && r.count > 0 {
		if !flush && r.count <= needed {
			break
		}
		ev := r.scoreAndPop(flush)
		out[written] = ev
		written++
	}
	return written
}

func (r *prominenceRing) contextAfter(n int) []ringEntry {
	ctx := make([]ringEntry, 0, n)
	pos := r.tail
	for i := 0; i < n; i++ {
		pos = (pos + 1) & ringMask
		if pos == r.head || !r.ready[pos] {
			break
		}
		ctx = append(ctx, r.slots[pos])
	}
	return ctx
}

func (r *prominenceRing) scoreAndPop(flush bool) Event {
	target := r.slots[r.tail]
	ctx := r.contextAfter(r.contextSize)

	ev := target.event
	ev.Prominence, ev.DeltaF0 = scoreProminence(target, ctx)

	threshold := 0.9
	if flush {
		threshold = 1.2
	}
	ev.Accented = ev.Prominence > threshold

	r.ready[r.tail] = false
	r.tail = (r.tail + 1) & ringMask
	r.count--

	return ev
}

const prominenceEps = 1e-6

func ratioScore(target float64, ctx []ringEntry, pick func(ringEntry) float64) float64 {
	if len(ctx) == 0 {
		return 1.0
	}
	sum := 0.0
	for _, e := range ctx {
		sum += pick(e)
	}
	mean := sum / float64(len(ctx))
	return target / (mean + prominenceEps)
}

// scoreProminence returns the blended prominence score together with
// the event's deltaF0: its f0 minus the median f0 of its contextual
// neighbors (signed, positive when the event sits above its neighbors).
func scoreProminence(target ringEntry, ctx []ringEntry) (float64, float64) {
	ev := target.event

	sE := ratioScore(ev.Energy, ctx, func(e ringEntry) float64 { return e.event.Energy })
	sP := ratioScore(ev.PeakRate, ctx, func(e ringEntry) float64 { return e.event.PeakRate })
	sD := ratioScore(ev.DurationS, ctx, func(e ringEntry) float64 { return e.event.DurationS })
	sSlope := ratioScore(ev.RiseSlope, ctx, func(e ringEntry) float64 { return e.event.RiseSlope })
	sFusion := ratioScore(ev.FusionScore, ctx, func(e ringEntry) float64 { return e.event.FusionScore })

	stressTarget := ev.FusionScore * ev.DurationS
	stressRatio := 1.0
	if len(ctx) > 0 {
		sum := 0.0
		for _, e := range ctx {
			sum += e.event.FusionScore * e.event.DurationS
		}
		mean := sum / float64(len(ctx))
		stressRatio = stressTarget / (mean + prominenceEps)
	}
	stressRatio = common.Clamp(stressRatio, 0, 3)

	medianF0 := ev.F0
	if len(ctx) > 0 {
		f0s := make([]float64, len(ctx))
		for i, e := range ctx {
			f0s[i] = e.event.F0
		}
		medianF0 = median(f0s)
	}
	deltaF0 := ev.F0 - medianF0
	f0Bonus := math.Min(1.0, math.Abs(deltaF0)/50.0)

	f0LevelBonus := target.semitoneBonus

	prominence := 0.10*sE + 0.10*sP + 0.18*sD + 0.08*sSlope + 0.18*sFusion +
		0.13*stressRatio + 0.10*(1+f0Bonus) + 0.13*(1+f0LevelBonus)
	return prominence, deltaF0
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1] > sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
