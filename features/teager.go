package features

import "math"

// Teager applies the Teager-Kaiser energy operator and z-scores the
// result against a running mean/variance, giving an auxiliary signal
// that is sensitive to sudden amplitude-and-frequency changes rather
// than amplitude alone.
type Teager struct {
	alpha float64
	xPrev1, xPrev2 float64
	have1, have2   bool

	mean, variance float64
	count          uint64
}

// NewTeager builds a Teager-energy z-scorer with an EMA time constant
// of tauSeconds.
func NewTeager(sampleRate int, tauSeconds float64) *Teager {
	return &Teager{
		alpha: 1.0 - math.Exp(-1.0/(tauSeconds*float64(sampleRate))),
	}
}

// Process advances by one sample and returns the z-scored, half-wave
// rectified Teager energy.
func (t *Teager) Process(sample float64) float64 {
	var energy float64
	if t.have2 {
		energy = t.xPrev1*t.xPrev1 - t.xPrev2*sample
		if energy < 0 {
			energy = 0
		}
	}

	t.xPrev2 = t.xPrev1
	t.xPrev1 = sample
	t.have2 = t.have1
	t.have1 = true

	t.count++
	delta := energy - t.mean
	t.mean += t.alpha * delta
	t.variance = (1 - t.alpha) * (t.variance + t.alpha*delta*delta)

	std := math.Sqrt(t.variance)
	if std < 1e-10 {
		return 0
	}
	return (energy - t.mean) / std
}

// Reset clears sample history and running statistics.
func (t *Teager) Reset() {
	t.xPrev1, t.xPrev2 = 0, 0
	t.have1, t.have2 = false, false
	t.mean, t.variance = 0, 0
	t.count = 0
}
