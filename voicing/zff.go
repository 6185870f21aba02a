// Package voicing implements the causal voicing front-end: a
// zero-frequency resonator that tracks glottal closure epochs and the
// instantaneous pitch between them.
package voicing

import (
	"github.com/onsetlab/syllabledet/algorithms/common"
)

// ZFF is a zero-frequency resonator voicing detector. It integrates the
// input signal twice with a leaky accumulator, removes the slow trend
// with a trailing moving average, and reports a glottal closure epoch on
// every positive-going zero crossing of the residual.
//
// A ZFF carries its own state and nothing else; running N detectors
// concurrently means constructing N of these, never sharing one.
type ZFF struct {
	sampleRate int
	leak       float64

	int1, int2 float64
	trend      *common.CircularBuffer

	prevResidual float64
	haveResidual bool

	sampleIndex     uint64
	lastEpochSample uint64
	haveLastEpoch   bool

	smoothedF0    float64
	candidateF0   float64
	candidateHits int

	voicedHoldSamples uint64
	samplesSinceEpoch uint64
	voiced            bool
}

const (
	zffLeak          = 0.999
	f0Min            = 50.0
	f0Max            = 600.0
	octaveGuardRatio = 0.20
	octaveGuardHits  = 3
)

// NewZFF creates a zero-frequency resonator tuned to sampleRate, with a
// trend (mean removal) window of trendWindowMs and a voiced-hold window
// of voicedHoldMs: once an epoch fires, voicing stays asserted for that
// long even if the next epoch is late or missing.
func NewZFF(sampleRate int, trendWindowMs, voicedHoldMs float64) *ZFF {
	trendSamples := int(float64(sampleRate) * trendWindowMs * 0.001)
	if trendSamples < 1 {
		trendSamples = 1
	}
	return &ZFF{
		sampleRate:        sampleRate,
		leak:              zffLeak,
		trend:             common.NewCircularBuffer(trendSamples),
		voicedHoldSamples: uint64(float64(sampleRate) * voicedHoldMs * 0.001),
	}
}

// Reset clears all integrator, trend, and pitch-tracking state.
func (z *ZFF) Reset() {
	z.int1, z.int2 = 0, 0
	z.trend.Clear()
	z.prevResidual = 0
	z.haveResidual = false
	z.sampleIndex = 0
	z.lastEpochSample = 0
	z.haveLastEpoch = false
	z.smoothedF0 = 0
	z.candidateF0 = 0
	z.candidateHits = 0
	z.samplesSinceEpoch = 0
	z.voiced = false
}

// Result is the per-sample voicing state returned by Process.
type Result struct {
	Epoch  bool    // a glottal closure epoch fired on this sample
	F0     float64 // current smoothed pitch estimate in Hz, 0 if none yet
	Voiced bool    // voicing is currently asserted (epoch or within hold window)
}

// Process advances the resonator by one sample and returns the current
// voicing state.
func (z *ZFF) Process(sample float64) Result {
	z.int1 = z.int1*z.leak + sample
	z.int2 = z.int2*z.leak + z.int1

	z.trend.Write([]float64{z.int2})
	mean := z.trendMean()
	residual := z.int2 - mean

	epoch := false
	if z.haveResidual && z.prevResidual <= 0 && residual > 0 {
		epoch = true
		z.onEpoch()
	}
	z.prevResidual = residual
	z.haveResidual = true

	if z.samplesSinceEpoch < z.voicedHoldSamples {
		z.samplesSinceEpoch++
	} else {
		z.voiced = false
	}
	z.sampleIndex++

	return Result{Epoch: epoch, F0: z.smoothedF0, Voiced: z.voiced}
}

func (z *ZFF) trendMean() float64 {
	n := z.trend.Available()
	if n == 0 {
		return 0
	}
	buf := make([]float64, n)
	z.trend.Peek(buf)
	sum := 0.0
	for _, v := range buf {
		sum += v
	}
	return sum / float64(n)
}

func (z *ZFF) onEpoch() {
	z.voiced = true
	z.samplesSinceEpoch = 0

	if !z.haveLastEpoch {
		z.lastEpochSample = z.sampleIndex
		z.haveLastEpoch = true
		return
	}

	distance := z.sampleIndex - z.lastEpochSample
	z.lastEpochSample = z.sampleIndex
	if distance == 0 {
		return
	}

	f0 := float64(z.sampleRate) / float64(distance)
	if f0 < f0Min || f0 >= f0Max {
		return
	}

	if z.smoothedF0 == 0 {
		z.smoothedF0 = f0
		return
	}

	deviation := (f0 - z.smoothedF0) / z.smoothedF0
	if deviation < 0 {
		deviation = -deviation
	}

	if deviation <= octaveGuardRatio {
		z.smoothedF0 = f0
		z.candidateHits = 0
		return
	}

	// Candidate pitch jumped by more than the guard ratio: only accept it
	// after octaveGuardHits consecutive epochs confirm the new value.
	if z.candidateHits > 0 {
		candDeviation := (f0 - z.candidateF0) / z.candidateF0
		if candDeviation < 0 {
			candDeviation = -candDeviation
		}
		if candDeviation > octaveGuardRatio {
			z.candidateF0 = f0
			z.candidateHits = 1
			return
		}
	} else {
		z.candidateF0 = f0
	}

	z.candidateHits++
	if z.candidateHits >= octaveGuardHits {
		z.smoothedF0 = z.candidateF0
		z.candidateHits = 0
	}
}
