// Package temporal holds per-sample streaming temporal-domain primitives.
package temporal

import "math"

// EnvelopeFollower is a one-pole asymmetric attack/release envelope
// follower: it tracks a signal's magnitude with a fast attack and a
// slower release, the standard shape for peak/energy envelopes that must
// react quickly to onsets but decay gracefully afterward.
type EnvelopeFollower struct {
	attackCoeff  float64
	releaseCoeff float64
	value        float64
}

// NewEnvelopeFollower builds a follower for the given sample rate with
// attack and release time constants in milliseconds.
func NewEnvelopeFollower(sampleRate int, attackMs, releaseMs float64) *EnvelopeFollower {
	return &EnvelopeFollower{
		attackCoeff:  coeffFromMs(sampleRate, attackMs),
		releaseCoeff: coeffFromMs(sampleRate, releaseMs),
	}
}

func coeffFromMs(sampleRate int, ms float64) float64 {
	if ms <= 0 {
		return 1.0
	}
	tau := ms * 0.001
	return 1.0 - math.Exp(-1.0/(tau*float64(sampleRate)))
}

// Process updates the envelope with one input sample and returns the
// new envelope value. Input is expected to already be non-negative
// (callers rectify or square before calling).
func (ef *EnvelopeFollower) Process(input float64) float64 {
	coeff := ef.releaseCoeff
	if input > ef.value {
		coeff = ef.attackCoeff
	}
	ef.value += coeff * (input - ef.value)
	return ef.value
}

// Value returns the current envelope value without advancing it.
func (ef *EnvelopeFollower) Value() float64 {
	return ef.value
}

// Reset clears the envelope to zero.
func (ef *EnvelopeFollower) Reset() {
	ef.value = 0
}
