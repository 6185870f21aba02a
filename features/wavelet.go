package features

import "math"

// waveletScale is one Morlet-wavelet analysis channel: a fixed complex
// kernel convolved against a circular history of raw samples.
type waveletScale struct {
	kernelR, kernelI []float64
	history          []float64
	historyIdx       int

	prevEnergy float64
}

func newWaveletScale(sampleRate int, freqHz float64) *waveletScale {
	const w0 = 6.0
	scale := w0 / (2.0 * math.Pi * freqHz)
	dt := 1.0 / float64(sampleRate)

	duration := 6.0 * scale
	kernelSize := int(duration * float64(sampleRate))
	if kernelSize%2 == 0 {
		kernelSize++
	}
	if kernelSize > 128 {
		kernelSize = 128
	}
	if kernelSize < 5 {
		kernelSize = 5
	}

	center := kernelSize / 2
	kr := make([]float64, kernelSize)
	ki := make([]float64, kernelSize)
	energyNorm := 0.0
	for i := 0; i < kernelSize; i++ {
		t := float64(i-center) * dt
		tScaled := t / scale
		envelope := math.Exp(-0.5 * tScaled * tScaled)
		phase := 2.0 * math.Pi * freqHz * t
		kr[i] = envelope * math.Cos(phase)
		ki[i] = envelope * math.Sin(phase)
		energyNorm += kr[i]*kr[i] + ki[i]*ki[i]
	}
	energyNorm = math.Sqrt(energyNorm)
	for i := range kr {
		kr[i] /= energyNorm
		ki[i] /= energyNorm
	}

	return &waveletScale{
		kernelR: kr,
		kernelI: ki,
		history: make([]float64, kernelSize),
	}
}

// process convolves the newest sample against the kernel and returns
// the response energy (squared magnitude).
func (ws *waveletScale) process(sample float64) float64 {
	ws.history[ws.historyIdx] = sample
	currentIdx := ws.historyIdx
	kSize := len(ws.history)
	ws.historyIdx = (ws.historyIdx + 1) % kSize

	var rSum, iSum float64
	for k := 0; k < kSize; k++ {
		hIdx := currentIdx - k
		if hIdx < 0 {
			hIdx += kSize
		}
		val := ws.history[hIdx]
		rSum += val * ws.kernelR[k]
		iSum += val * ws.kernelI[k]
	}

	energy := rSum*rSum + iSum*iSum
	ws.prevEnergy = energy
	return energy
}

func (ws *waveletScale) reset() {
	for i := range ws.history {
		ws.history[i] = 0
	}
	ws.historyIdx = 0
	ws.prevEnergy = 0
}

// Wavelet is a bank of log-spaced Morlet-wavelet scales whose per-scale
// energy jumps (Weber's law) are averaged into a single transient
// score. It complements the bandpass-driven PeakRate feature by
// catching unvoiced, high-frequency bursts that a 500-3200Hz band
// misses entirely.
type Wavelet struct {
	scales []*waveletScale
}

// NewWavelet builds a wavelet bank with numScales log-spaced centers
// between minHz and maxHz.
func NewWavelet(sampleRate int, minHz, maxHz float64, numScales int) *Wavelet {
	if numScales < 1 {
		numScales = 1
	}
	logMin := math.Log(minHz)
	logMax := math.Log(maxHz)
	denom := float64(numScales - 1)
	if denom < 1 {
		denom = 1
	}
	logStep := (logMax - logMin) / denom

	scales := make([]*waveletScale, numScales)
	for i := 0; i < numScales; i++ {
		freq := math.Exp(logMin + float64(i)*logStep)
		scales[i] = newWaveletScale(sampleRate, freq)
	}
	return &Wavelet{scales: scales}
}

// Process advances every scale by one sample and returns the mean
// relative energy increase across scales, matching the original
// division-by-total-scales normalization exactly (not just by the
// scales that rose this sample).
func (w *Wavelet) Process(sample float64) float64 {
	var total float64
	for _, ws := range w.scales {
		prevEnergy := ws.prevEnergy
		energy := ws.process(sample)
		diff := energy - prevEnergy
		if diff > 0 {
			total += diff / (prevEnergy + 1e-6)
		}
	}
	return total / float64(len(w.scales))
}

// Reset clears all per-scale history.
func (w *Wavelet) Reset() {
	for _, ws := range w.scales {
		ws.reset()
	}
}
