package features

import (
	"math"
	"math/cmplx"

	"github.com/onsetlab/syllabledet/algorithms/common"
	"github.com/onsetlab/syllabledet/algorithms/spectral"
	"github.com/onsetlab/syllabledet/algorithms/windowing"
)

// MFCCDelta frames incoming samples the same way SpectralFlux does and,
// once per hop, emits the L2 norm of the frame-to-frame MFCC delta — a
// cheap proxy for how much the spectral envelope (not just its energy)
// is changing.
type MFCCDelta struct {
	window *common.SlidingWindow
	hann   *windowing.Hann
	fft    *spectral.FFT
	mfcc   *spectral.MFCC

	prevCoeffs []float64
	havePrev   bool
}

// NewMFCCDelta builds the framed MFCC-delta extractor. Liftering is
// disabled: only the shape of the delta vector matters here, not its
// perceptual weighting.
func NewMFCCDelta(sampleRate, fftSize, hopSize int) *MFCCDelta {
	fftSize = common.NextPowerOfTwo(fftSize)
	m := spectral.NewMFCCWithParams(sampleRate, spectral.MFCCParams{
		NumCoefficients: 13,
		NumMelFilters:   26,
		LowFreq:         80.0,
		HighFreq:        float64(sampleRate) / 2.0,
		UseLiftering:    false,
	})
	return &MFCCDelta{
		window: common.NewSlidingWindow(fftSize, hopSize),
		hann:   windowing.NewHann(fftSize, true),
		fft:    spectral.NewFFT(),
		mfcc:   m,
	}
}

// Process feeds one sample and returns the most recent hop's delta
// norm, if a hop boundary was crossed this sample.
func (m *MFCCDelta) Process(sample float64) (float64, bool) {
	frames := m.window.AddSamples([]float64{sample})
	if len(frames) == 0 {
		return 0, false
	}

	var result float64
	for _, frame := range frames {
		result = m.processFrame(frame)
	}
	return result, true
}

func (m *MFCCDelta) processFrame(frame []float64) float64 {
	windowed := make([]float64, len(frame))
	copy(windowed, frame)
	_ = m.hann.ApplyInPlace(windowed)

	spectrum := m.fft.Compute(windowed)
	halfBins := len(spectrum)/2 + 1
	mag := make([]float64, halfBins)
	for k := 0; k < halfBins; k++ {
		mag[k] = cmplx.Abs(spectrum[k])
	}

	res, err := m.mfcc.Compute(mag)
	if err != nil {
		return 0
	}

	var delta float64
	if m.havePrev {
		sum := 0.0
		for k, c := range res.MFCC {
			d := c - m.prevCoeffs[k]
			sum += d * d
		}
		delta = math.Sqrt(sum)
	}
	m.prevCoeffs = res.MFCC
	m.havePrev = true
	return delta
}

// Reset clears framing and coefficient history.
func (m *MFCCDelta) Reset() {
	m.window.Reset()
	m.havePrev = false
}
