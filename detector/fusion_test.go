package detector

import (
	"math"
	"testing"
)

func TestFuseOfflineGatesOnLowEnergy(t *testing.T) {
	fb := newFeatureBank(16000, 0.5)
	weights := [numFusedFeatures]float64{featPeakRate: 1.0}

	in := fusionInputs{
		envelope:   1e-9,
		noiseFloor: 0,
	}
	if got := fuseOffline(fb, weights, 0.6, in, 8000); got != 0 {
		t.Errorf("expected fusion 0 below the energy gate, got %v", got)
	}
}

func TestFuseOfflinePassesEnergyGateAndBlends(t *testing.T) {
	fb := newFeatureBank(16000, 0.5)
	// Give the running statistics a nonzero spread directly, rather than
	// warming them through enough samples for the EMA to settle there.
	fb.stats[featPeakRate].mean = 0.01
	fb.stats[featPeakRate].var_ = 0.0001 // std = 0.01

	weights := [numFusedFeatures]float64{featPeakRate: 1.0}
	enabled := [numFusedFeatures]bool{featPeakRate: true}
	in := fusionInputs{
		values:     [numFusedFeatures]float64{featPeakRate: 0.05},
		enabled:    enabled,
		envelope:   1.0,
		noiseFloor: 0,
	}
	fusion := fuseOffline(fb, weights, 0.6, in, 8000)
	if fusion <= 0 {
		t.Errorf("expected fusion > 0 once past the energy gate, got %v", fusion)
	}
	if fusion > 1.0 {
		t.Errorf("expected fusion <= 1.0, got %v", fusion)
	}
}

func TestFuseRealtimeReturnsZeroWhenNothingExceedsThreshold(t *testing.T) {
	cal := newCalibrationBuffer(16000, 2000)
	cal.start()
	for i := 0; i < calibrationCapacity; i++ {
		cal.push([numFusedFeatures]float64{featPeakRate: 0.01})
	}
	cal.finalize(6.0)

	enabled := [numFusedFeatures]bool{featPeakRate: true}
	in := fusionInputs{
		values:  [numFusedFeatures]float64{featPeakRate: 0.001}, // below threshold
		enabled: enabled,
	}
	if got := fuseRealtime(cal, in); got != 0 {
		t.Errorf("expected 0 when nothing exceeds threshold, got %v", got)
	}
}

func TestFuseRealtimeSaturatesBetweenZeroAndOne(t *testing.T) {
	cal := newCalibrationBuffer(16000, 2000)
	cal.start()
	for i := 0; i < calibrationCapacity; i++ {
		cal.push([numFusedFeatures]float64{featPeakRate: 0.01})
	}
	cal.finalize(0.0) // gamma = 1

	enabled := [numFusedFeatures]bool{featPeakRate: true}
	in := fusionInputs{
		values:  [numFusedFeatures]float64{featPeakRate: 100.0}, // far above threshold
		enabled: enabled,
	}
	fusion := fuseRealtime(cal, in)
	if fusion <= 0 || fusion >= 1.0 {
		t.Errorf("expected fusion strictly between 0 and 1, got %v", fusion)
	}
}

func TestFuseRealtimeIncludesVoicingPseudoFeature(t *testing.T) {
	cal := newCalibrationBuffer(16000, 2000)
	cal.start()
	for i := 0; i < calibrationCapacity; i++ {
		cal.push([numFusedFeatures]float64{})
	}
	cal.finalize(6.0)

	in := fusionInputs{
		voicingConf: 0.9, // > 0.5: contributes (1+0.9) as a pseudo-feature ratio
	}
	if fusion := fuseRealtime(cal, in); fusion <= 0 {
		t.Errorf("expected the voicing pseudo-feature alone to produce fusion > 0, got %v", fusion)
	}
}

func TestFuseRealtimeEnergyIsACalibratedRatioFeature(t *testing.T) {
	// Energy must be one of the six calibrated features, not just an
	// input to a separate gate: below its threshold it contributes
	// nothing, above it it contributes a ratio like any other feature.
	cal := newCalibrationBuffer(16000, 2000)
	cal.start()
	for i := 0; i < calibrationCapacity; i++ {
		cal.push([numFusedFeatures]float64{featEnergy: 0.01})
	}
	cal.finalize(6.0)

	enabled := [numFusedFeatures]bool{featEnergy: true}

	below := fusionInputs{values: [numFusedFeatures]float64{featEnergy: 0.001}, enabled: enabled}
	if got := fuseRealtime(cal, below); got != 0 {
		t.Errorf("expected 0 with energy below its calibrated threshold, got %v", got)
	}

	above := fusionInputs{values: [numFusedFeatures]float64{featEnergy: 1.0}, enabled: enabled}
	if got := fuseRealtime(cal, above); got <= 0 {
		t.Errorf("expected energy above its calibrated threshold to contribute, got %v", got)
	}
}

func TestFuseRealtimeVoicingNeverOccupiesACalibratedSlot(t *testing.T) {
	// Calibration runs against a quiet, unvoiced window, so every
	// threshold (including energy's) floors at 1e-6. A loud, voiced
	// sample must not be able to smuggle voicing into the ratio loop
	// through any slot: its only path into the score is the dedicated
	// voicingConf pseudo-feature, which this production-shaped
	// fusionInputs (all six slots enabled, as detector.go always sets
	// them) must reproduce exactly.
	cal := newCalibrationBuffer(16000, 2000)
	cal.start()
	for i := 0; i < calibrationCapacity; i++ {
		cal.push([numFusedFeatures]float64{})
	}
	cal.finalize(6.0)

	enabled := [numFusedFeatures]bool{
		featPeakRate: true, featSpectralFlux: true, featHighFreq: true,
		featMFCCDelta: true, featWavelet: true, featEnergy: true,
	}
	production := fusionInputs{
		values:      [numFusedFeatures]float64{}, // nothing exceeds the floored thresholds
		enabled:     enabled,
		voicingConf: 0.9,
	}
	voicingOnly := fusionInputs{voicingConf: 0.9}

	got := fuseRealtime(cal, production)
	want := fuseRealtime(cal, voicingOnly)
	if got != want {
		t.Errorf("expected a fully-enabled but otherwise-zero fusionInputs to score identically to a bare voicing pseudo-feature, got %v want %v", got, want)
	}
}

func TestComputeF0LevelBonusIsClampedAndMonotonic(t *testing.T) {
	if got := computeF0LevelBonus(0, 100); got != 0 {
		t.Errorf("expected 0 for zero f0, got %v", got)
	}
	if got := computeF0LevelBonus(100, 0); got != 0 {
		t.Errorf("expected 0 for zero baseline, got %v", got)
	}
	if got := computeF0LevelBonus(90, 100); got != 0 {
		t.Errorf("expected 0 below baseline, got %v", got)
	}

	low := computeF0LevelBonus(110, 100)
	high := computeF0LevelBonus(200, 100)
	if low <= 0 {
		t.Errorf("expected a positive bonus above baseline, got %v", low)
	}
	if high <= low {
		t.Errorf("expected the bonus to grow with f0, got low=%v high=%v", low, high)
	}
	if high > 0.15 {
		t.Errorf("expected the bonus to clamp at 0.15, got %v", high)
	}
}

func TestFeatureStatConfidenceRampsToOne(t *testing.T) {
	fs := newFeatureStat(16000, 0.5)
	if got := fs.confidence(100); got != 0 {
		t.Errorf("expected 0 confidence with no samples, got %v", got)
	}
	for i := 0; i < 50; i++ {
		fs.update(1.0)
	}
	if got := fs.confidence(100); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("expected confidence 0.5 at half the target count, got %v", got)
	}
	for i := 0; i < 50; i++ {
		fs.update(1.0)
	}
	if got := fs.confidence(100); got != 1.0 {
		t.Errorf("expected confidence to saturate at 1.0, got %v", got)
	}
}

func TestFeatureStatRejectsNaNAndInf(t *testing.T) {
	fs := newFeatureStat(16000, 0.5)
	fs.update(math.NaN())
	fs.update(math.Inf(1))
	if fs.mean != 0 {
		t.Errorf("expected mean to stay 0 after NaN/Inf updates, got %v", fs.mean)
	}
	if fs.count != 0 {
		t.Errorf("expected count to stay 0 after NaN/Inf updates, got %d", fs.count)
	}
}
