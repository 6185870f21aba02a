// Package features implements the closed set of parallel feature
// extractors that feed the detector's fusion rule. Each extractor is a
// distinct concrete type with its own Process method; there is no
// shared interface because the set is closed and the extractors differ
// in output rate (per-sample vs per-hop).
package features

import (
	"math"

	"github.com/onsetlab/syllabledet/algorithms/filters"
	"github.com/onsetlab/syllabledet/algorithms/temporal"
)

// PeakRate tracks the bandpassed amplitude envelope's rate of rise: a
// biquad bandpass centered on the vowel-formant band, an asymmetric
// envelope follower, and a half-wave-rectified first difference. One
// value per sample.
type PeakRate struct {
	bandpass *filters.BandpassFilter
	envelope *temporal.EnvelopeFollower
	prevEnv  float64
}

// NewPeakRate builds the peak-rate pipeline for [minHz, maxHz] at sampleRate.
func NewPeakRate(sampleRate int, minHz, maxHz float64) *PeakRate {
	center := (minHz + maxHz) / 2.0
	bandwidth := maxHz - minHz
	if bandwidth < 1.0 {
		bandwidth = 1.0
	}
	return &PeakRate{
		bandpass: filters.NewBandpassFilter(sampleRate, center, bandwidth),
		envelope: temporal.NewEnvelopeFollower(sampleRate, 5.0, 20.0),
	}
}

// Process advances the pipeline by one sample and returns the peak-rate value.
func (pr *PeakRate) Process(sample float64) float64 {
	filtered := pr.bandpass.Process(sample)
	env := pr.envelope.Process(math.Abs(filtered))

	diff := env - pr.prevEnv
	pr.prevEnv = env

	if diff < 0 {
		return 0
	}
	return diff
}

// Reset clears all filter and envelope state.
func (pr *PeakRate) Reset() {
	pr.bandpass.Reset()
	pr.envelope.Reset()
	pr.prevEnv = 0
}
