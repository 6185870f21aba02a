package features

import (
	"github.com/onsetlab/syllabledet/algorithms/filters"
	"github.com/onsetlab/syllabledet/algorithms/temporal"
)

// HighFreqEnergy tracks energy above a high-pass cutoff: a 2nd-order
// Butterworth high-pass, squared output, and an asymmetric envelope
// (fast 1ms attack, window-length release). One value per sample.
type HighFreqEnergy struct {
	hp       *filters.HighpassFilter
	envelope *temporal.EnvelopeFollower
}

// NewHighFreqEnergy builds the HFE pipeline at cutoffHz with a release
// time constant equal to the framed extractors' hop length.
func NewHighFreqEnergy(sampleRate int, cutoffHz, hopSizeMs float64) *HighFreqEnergy {
	return &HighFreqEnergy{
		hp:       filters.NewHighpassFilter(sampleRate, cutoffHz),
		envelope: temporal.NewEnvelopeFollower(sampleRate, 1.0, hopSizeMs),
	}
}

// Process advances the pipeline by one sample.
func (h *HighFreqEnergy) Process(sample float64) float64 {
	filtered := h.hp.Process(sample)
	return h.envelope.Process(filtered * filtered)
}

// Reset clears filter and envelope state.
func (h *HighFreqEnergy) Reset() {
	h.hp.Reset()
	h.envelope.Reset()
}
