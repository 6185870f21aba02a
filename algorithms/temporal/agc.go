package temporal

import "math"

// AGC is an automatic gain control front-end: an asymmetric envelope
// follower drives a target-gain estimate, which is itself smoothed
// before being applied, to avoid zipper noise on fast gain changes.
type AGC struct {
	targetLevel float64
	maxGain     float64
	currentGain float64

	envelope     float64
	attackCoeff  float64
	releaseCoeff float64

	gainCoeff float64
}

// NewAGC builds an AGC targeting targetDB RMS with gain capped at maxGainDB.
func NewAGC(sampleRate int, targetDB, maxGainDB float64) *AGC {
	return &AGC{
		targetLevel:  math.Pow(10, targetDB/20.0),
		maxGain:      math.Pow(10, maxGainDB/20.0),
		currentGain:  1.0,
		attackCoeff:  1.0 - math.Exp(-1.0/(0.005*float64(sampleRate))),
		releaseCoeff: 1.0 - math.Exp(-1.0/(0.500*float64(sampleRate))),
		gainCoeff:    1.0 - math.Exp(-1.0/(0.100*float64(sampleRate))),
	}
}

// Reset restores unity gain and a silent envelope.
func (a *AGC) Reset() {
	a.currentGain = 1.0
	a.envelope = 0.0
}

// Process applies the current gain to sample and updates all state.
func (a *AGC) Process(sample float64) float64 {
	absSample := math.Abs(sample)
	if absSample > a.envelope {
		a.envelope += a.attackCoeff * (absSample - a.envelope)
	} else {
		a.envelope += a.releaseCoeff * (absSample - a.envelope)
	}

	envSafe := a.envelope
	if envSafe < 1e-6 {
		envSafe = 1e-6
	}
	targetGain := a.targetLevel / envSafe
	if targetGain > a.maxGain {
		targetGain = a.maxGain
	}
	if targetGain < 0.1 {
		targetGain = 0.1
	}

	a.currentGain += a.gainCoeff * (targetGain - a.currentGain)
	return sample * a.currentGain
}

// Gain returns the current linear gain.
func (a *AGC) Gain() float64 {
	return a.currentGain
}
