package features

import "math"

// LocalEnergyRatio tracks the ratio of short-term to long-term signal
// energy, clamped at 10. It rises sharply when a loud event breaks out
// of a quiet background and decays back to 1 as the long-term average
// catches up.
type LocalEnergyRatio struct {
	shortAlpha, longAlpha float64
	shortEnergy, longEnergy float64
}

// NewLocalEnergyRatio builds the dual-EMA ratio with the given short
// and long time constants, in seconds.
func NewLocalEnergyRatio(sampleRate int, shortTauS, longTauS float64) *LocalEnergyRatio {
	return &LocalEnergyRatio{
		shortAlpha: 1.0 - math.Exp(-1.0/(shortTauS*float64(sampleRate))),
		longAlpha:  1.0 - math.Exp(-1.0/(longTauS*float64(sampleRate))),
	}
}

// Process advances by one sample and returns the current energy ratio.
func (l *LocalEnergyRatio) Process(sample float64) float64 {
	energy := sample * sample
	l.shortEnergy += l.shortAlpha * (energy - l.shortEnergy)
	l.longEnergy += l.longAlpha * (energy - l.longEnergy)

	if l.longEnergy < 1e-10 {
		return 1.0
	}
	ratio := l.shortEnergy / l.longEnergy
	if ratio > 10.0 {
		ratio = 10.0
	}
	return ratio
}

// Reset clears both energy trackers.
func (l *LocalEnergyRatio) Reset() {
	l.shortEnergy = 0
	l.longEnergy = 0
}
