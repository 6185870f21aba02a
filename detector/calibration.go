package detector

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const calibrationCapacity = 100

// calibrationBuffer accumulates raw (pre-normalization) feature vectors
// during the calibration window that realtime mode runs before it trusts
// its thresholds. It is a fixed-capacity circular buffer: once full,
// new samples overwrite the oldest, so calibration always reflects the
// most recent calibrationCapacity samples rather than growing unbounded.
type calibrationBuffer struct {
	records  [calibrationCapacity][numFusedFeatures]float64
	writePos int
	count    int

	durationSamples uint64
	samplesSeen     uint64
	active          bool

	thresholds [numFusedFeatures]float64
	mins, maxs [numFusedFeatures]float64
}

func newCalibrationBuffer(sampleRate int, durationMs float64) *calibrationBuffer {
	return &calibrationBuffer{
		durationSamples: uint64(float64(sampleRate) * durationMs * 0.001),
	}
}

func (cb *calibrationBuffer) start() {
	cb.writePos = 0
	cb.count = 0
	cb.samplesSeen = 0
	cb.active = true
}

// push records one sample's feature vector. Returns true once the
// calibration window has elapsed and finalize() should be called.
func (cb *calibrationBuffer) push(values [numFusedFeatures]float64) bool {
	if !cb.active {
		return false
	}
	cb.records[cb.writePos] = values
	cb.writePos = (cb.writePos + 1) % calibrationCapacity
	if cb.count < calibrationCapacity {
		cb.count++
	}
	cb.samplesSeen++
	return cb.samplesSeen >= cb.durationSamples
}

// finalize computes per-feature thresholds from the accumulated window
// and marks calibration as complete: theta_k = mean_k + gamma*std_k,
// gamma = 10^(snrDB/10), floored so a silent feature never produces a
// zero threshold that would trivially saturate the realtime fusion rule.
func (cb *calibrationBuffer) finalize(snrDB float64) {
	gamma := math.Pow(10, snrDB/10.0)

	for k := 0; k < int(numFusedFeatures); k++ {
		col := make([]float64, cb.count)
		for i := 0; i < cb.count; i++ {
			col[i] = cb.records[i][k]
		}
		mean := stat.Mean(col, nil)
		var std float64
		if cb.count > 1 {
			std = math.Sqrt(stat.Variance(col, nil))
		}
		theta := mean + gamma*std
		if theta < 1e-6 {
			theta = 1e-6
		}
		cb.thresholds[k] = theta
		cb.mins[k] = floats.Min(col)
		cb.maxs[k] = floats.Max(col)
	}
	cb.active = false
}

// diagnosticRange returns the [min, max] of feature i observed across the
// calibration window, for logging alongside its threshold.
func (cb *calibrationBuffer) diagnosticRange(i featureIndex) (min, max float64) {
	return cb.mins[i], cb.maxs[i]
}

func (cb *calibrationBuffer) isCalibrating() bool {
	return cb.active
}

func (cb *calibrationBuffer) threshold(i featureIndex) float64 {
	return cb.thresholds[i]
}
