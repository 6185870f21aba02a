package detector

import (
	"math"
	"testing"
)

func TestWeightVectorRenormalizesOverEnabledFeatures(t *testing.T) {
	cfg := DefaultConfig(16000)
	cfg.EnableSpectralFlux = false
	cfg.EnableWavelet = false

	d, err := New(cfg)
	if err != nil {
		t.Fatalf("New(cfg) failed: %v", err)
	}

	weights := d.weightVector()
	if weights[featSpectralFlux] != 0 {
		t.Errorf("a disabled feature must carry zero weight, got %v", weights[featSpectralFlux])
	}
	if weights[featWavelet] != 0 {
		t.Errorf("a disabled feature must carry zero weight, got %v", weights[featWavelet])
	}

	var sum float64
	for _, w := range weights {
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("enabled-feature weights must renormalize to sum to 1, got %v", sum)
	}
}

func TestWeightVectorAllEnabledSumsToOne(t *testing.T) {
	cfg := DefaultConfig(16000)
	d, err := New(cfg)
	if err != nil {
		t.Fatalf("New(cfg) failed: %v", err)
	}

	weights := d.weightVector()
	var sum float64
	for _, w := range weights {
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("expected weights to sum to 1, got %v", sum)
	}
}

func TestCalibrationBufferDiagnosticRangeTracksMinMax(t *testing.T) {
	cb := newCalibrationBuffer(16000, 2000)
	cb.start()
	for i := 0; i < calibrationCapacity; i++ {
		v := [numFusedFeatures]float64{}
		v[featEnergy] = float64(i) * 0.01
		cb.push(v)
	}
	cb.finalize(6.0)

	min, max := cb.diagnosticRange(featEnergy)
	if min != 0 {
		t.Errorf("expected min 0, got %v", min)
	}
	if want := float64(calibrationCapacity-1) * 0.01; max != want {
		t.Errorf("expected max %v, got %v", want, max)
	}
}

func TestProminenceRingEvictsOldestOnOverflow(t *testing.T) {
	r := newProminenceRing(2)
	for i := 0; i < ringCapacity+3; i++ {
		r.push(ringEntry{event: Event{OnsetSamples: uint64(i)}})
	}
	if r.dropped != 3 {
		t.Errorf("expected 3 dropped events, got %d", r.dropped)
	}
	if r.count != ringCapacity {
		t.Errorf("expected ring to stay at capacity %d, got %d", ringCapacity, r.count)
	}

	oldest := r.slots[r.tail]
	if oldest.event.OnsetSamples != 3 {
		t.Errorf("expected the oldest surviving entry to be index 3, got %d", oldest.event.OnsetSamples)
	}
}

func TestProminenceRingRequiredContext(t *testing.T) {
	r := newProminenceRing(2)
	if got := r.requiredContext(false); got != 2 {
		t.Errorf("offline mode: expected required context 2, got %d", got)
	}
	if got := r.requiredContext(true); got != 0 {
		t.Errorf("realtime mode: expected required context 0, got %d", got)
	}
}

func TestProminenceRingDrainRespectsContextSize(t *testing.T) {
	r := newProminenceRing(2)
	for i := 0; i < 2; i++ {
		r.push(ringEntry{event: Event{OnsetSamples: uint64(i)}})
	}
	out := make([]Event, 4)
	if n := r.drain(out, false, false); n != 0 {
		t.Fatalf("with only 2 events buffered and context_size 2, nothing should be eligible yet, got %d", n)
	}

	r.push(ringEntry{event: Event{OnsetSamples: 2}})
	n := r.drain(out, false, false)
	if n != 1 {
		t.Fatalf("expected exactly 1 event eligible once a third event arrived, got %d", n)
	}
	if out[0].OnsetSamples != 0 {
		t.Errorf("expected the oldest event (0) to be emitted first, got %d", out[0].OnsetSamples)
	}
}

func TestProminenceRingFlushDrainsEverythingRegardlessOfContext(t *testing.T) {
	r := newProminenceRing(2)
	r.push(ringEntry{event: Event{OnsetSamples: 0}})
	out := make([]Event, 4)
	if n := r.drain(out, false, true); n != 1 {
		t.Errorf("flush must drain buffered events even without trailing context, got %d", n)
	}
}

func TestProminenceScoringSetsDeltaF0AgainstContextMedian(t *testing.T) {
	r := newProminenceRing(3)
	r.push(ringEntry{event: Event{OnsetSamples: 0, F0: 220}})
	r.push(ringEntry{event: Event{OnsetSamples: 1, F0: 100}})
	r.push(ringEntry{event: Event{OnsetSamples: 2, F0: 100}})
	r.push(ringEntry{event: Event{OnsetSamples: 3, F0: 100}})

	out := make([]Event, 1)
	if n := r.drain(out, false, false); n != 1 {
		t.Fatalf("expected exactly 1 event eligible, got %d", n)
	}

	// Context is the three f0=100 neighbors that followed the f0=220
	// event, so deltaF0 must be 220 - median(100,100,100) = 120.
	if got := out[0].DeltaF0; got != 120 {
		t.Errorf("expected DeltaF0 120 against the context median, got %v", got)
	}
}

func TestProminenceScoringDeltaF0IsSignedBelowNeighbors(t *testing.T) {
	r := newProminenceRing(2)
	r.push(ringEntry{event: Event{OnsetSamples: 0, F0: 80}})
	r.push(ringEntry{event: Event{OnsetSamples: 1, F0: 200}})
	r.push(ringEntry{event: Event{OnsetSamples: 2, F0: 200}})

	out := make([]Event, 1)
	if n := r.drain(out, false, false); n != 1 {
		t.Fatalf("expected exactly 1 event eligible, got %d", n)
	}
	if got := out[0].DeltaF0; got != -120 {
		t.Errorf("expected a negative DeltaF0 for an event below its neighbors, got %v", got)
	}
}
