package detector

import (
	"math"

	"github.com/onsetlab/syllabledet/algorithms/common"
)

// featureStat tracks a single feature's running mean and variance with
// an exponential moving average, the same update rule the teacher's
// batch Moments code approximates in the limit of a single decaying
// window, but computed online and in O(1) per sample.
type featureStat struct {
	alpha float64
	count uint64
	mean  float64
	var_  float64
}

// newFeatureStat builds a tracker whose EMA time constant is tauSeconds,
// expressed at the given sample rate.
func newFeatureStat(sampleRate int, tauSeconds float64) *featureStat {
	alpha := 1.0 - math.Exp(-1.0/(tauSeconds*float64(sampleRate)))
	return &featureStat{alpha: alpha}
}

func (fs *featureStat) update(x float64) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return
	}
	delta := x - fs.mean
	fs.mean += fs.alpha * delta
	fs.var_ = (1.0-fs.alpha)*(fs.var_+fs.alpha*delta*delta)
	fs.count++
}

func (fs *featureStat) std() float64 {
	if fs.var_ <= 0 {
		return 0
	}
	return math.Sqrt(fs.var_)
}

// confidence returns min(1, count/targetSamples): how much we trust
// this running estimate given how many samples fed it.
func (fs *featureStat) confidence(targetSamples uint64) float64 {
	if targetSamples == 0 {
		return 1.0
	}
	c := float64(fs.count) / float64(targetSamples)
	if c > 1.0 {
		c = 1.0
	}
	return c
}

func (fs *featureStat) reset() {
	fs.count = 0
	fs.mean = 0
	fs.var_ = 0
}

// featureBank holds one featureStat per fused feature, in a fixed,
// known order so the rest of the detector can address them by index
// without a map lookup on the hot path.
type featureBank struct {
	stats [numFusedFeatures]*featureStat
}

// featureIndex names the slots of featureBank / calibration records.
type featureIndex int

const (
	featPeakRate featureIndex = iota
	featSpectralFlux
	featHighFreq
	featMFCCDelta
	featWavelet
	featEnergy
	numFusedFeatures
)

func newFeatureBank(sampleRate int, tauSeconds float64) *featureBank {
	fb := &featureBank{}
	for i := range fb.stats {
		fb.stats[i] = newFeatureStat(sampleRate, tauSeconds)
	}
	return fb
}

func (fb *featureBank) update(values [numFusedFeatures]float64) {
	for i, v := range values {
		fb.stats[i].update(v)
	}
}

// updateMasked updates only the features that produced a new value this
// sample/hop, per invariant (f): framed extractors (flux, MFCC delta)
// hold their last value between hops and must not dilute their own
// running statistics with repeated samples of the same number.
func (fb *featureBank) updateMasked(values [numFusedFeatures]float64, hasNew [numFusedFeatures]bool) {
	for i, v := range values {
		if hasNew[i] {
			fb.stats[i].update(v)
		}
	}
}

func (fb *featureBank) reset() {
	for _, s := range fb.stats {
		s.reset()
	}
}

// normalizeLegacy applies the legacy clamped z-score scheme. Neither
// fusion rule calls it; offline fusion uses normalizeSigmoid.
func (fb *featureBank) normalizeLegacy(i featureIndex, x float64) float64 {
	s := fb.stats[i]
	return common.ScalarZScoreClamp(x, s.mean, s.std())
}

// normalizeSigmoid applies the saturating sigmoid scheme used by the
// offline fusion rule's blended term.
func (fb *featureBank) normalizeSigmoid(i featureIndex, x float64) float64 {
	s := fb.stats[i]
	return common.ScalarSigmoidNormalize(x, s.mean, s.std())
}
