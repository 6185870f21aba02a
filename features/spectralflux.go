package features

import (
	"math/cmplx"

	"github.com/onsetlab/syllabledet/algorithms/common"
	"github.com/onsetlab/syllabledet/algorithms/spectral"
	"github.com/onsetlab/syllabledet/algorithms/windowing"
)

// SpectralFluxResult is what SpectralFlux.Process emits on hop boundaries.
type SpectralFluxResult struct {
	NewFrame      bool
	Flux          float64
	Flatness      float64
	FlatnessWeber float64
}

// SpectralFlux accumulates samples into overlapping Hann-windowed FFT
// frames and, once per hop, computes spectral flux, spectral flatness,
// and the Weber ratio of flatness against the previous hop.
type SpectralFlux struct {
	window   *common.SlidingWindow
	hann     *windowing.Hann
	fft      *spectral.FFT
	flatness *spectral.SpectralFlatness

	prevMag      []float64
	havePrevMag  bool
	prevFlatness float64
	haveFlatness bool
}

// NewSpectralFlux builds the framed flux/flatness extractor for the
// given FFT size (samples, rounded up to a power of two) and hop size.
func NewSpectralFlux(fftSize, hopSize int) *SpectralFlux {
	fftSize = common.NextPowerOfTwo(fftSize)
	return &SpectralFlux{
		window:   common.NewSlidingWindow(fftSize, hopSize),
		hann:     windowing.NewHann(fftSize, true),
		fft:      spectral.NewFFT(),
		flatness: spectral.NewSpectralFlatness(),
	}
}

// Process feeds one sample and returns the most recent hop's result, if
// a hop boundary was crossed this sample.
func (sf *SpectralFlux) Process(sample float64) SpectralFluxResult {
	frames := sf.window.AddSamples([]float64{sample})
	var result SpectralFluxResult
	for _, frame := range frames {
		result = sf.processFrame(frame)
	}
	return result
}

func (sf *SpectralFlux) processFrame(frame []float64) SpectralFluxResult {
	windowed := make([]float64, len(frame))
	copy(windowed, frame)
	_ = sf.hann.ApplyInPlace(windowed)

	spectrum := sf.fft.Compute(windowed)
	halfBins := len(spectrum)/2 + 1

	// Magnitude spectrum with the DC bin discarded.
	mag := make([]float64, halfBins-1)
	for k := 1; k < halfBins; k++ {
		mag[k-1] = cmplx.Abs(spectrum[k])
	}

	var flux float64
	if sf.havePrevMag {
		sum := 0.0
		for k := range mag {
			diff := mag[k] - sf.prevMag[k]
			if diff > 0 {
				sum += diff * diff
			}
		}
		flux = sum / float64(len(mag))
	}
	sf.prevMag = mag
	sf.havePrevMag = true

	flat := sf.flatness.Compute(mag)
	var weber float64
	if sf.haveFlatness {
		weber = (flat - sf.prevFlatness) / (sf.prevFlatness + 0.01)
	}
	sf.prevFlatness = flat
	sf.haveFlatness = true

	return SpectralFluxResult{
		NewFrame:      true,
		Flux:          flux,
		Flatness:      flat,
		FlatnessWeber: weber,
	}
}

// Reset clears framing and history state.
func (sf *SpectralFlux) Reset() {
	sf.window.Reset()
	sf.havePrevMag = false
	sf.haveFlatness = false
	sf.prevFlatness = 0
}
