package detector

import "fmt"

// Config holds every tunable parameter of the detector. It is immutable
// for the lifetime of a Detector: construct a new Detector to change it,
// except for the handful of fields exposed through dedicated setters
// (SetRealtimeMode, SetSNRThresholdDB, Recalibrate).
type Config struct {
	SampleRate int `json:"sample_rate"`

	PeakRateBandMinHz float64 `json:"peak_rate_band_min_hz"`
	PeakRateBandMaxHz float64 `json:"peak_rate_band_max_hz"`

	MinSyllableDistMs float64 `json:"min_syllable_dist_ms"`
	ThresholdPeakRate float64 `json:"threshold_peak_rate"`

	AdaptivePeakRateK      float64 `json:"adaptive_peak_rate_k"`
	AdaptivePeakRateTauMs  float64 `json:"adaptive_peak_rate_tau_ms"`

	VoicedHoldMs float64 `json:"voiced_hold_ms"`

	HysteresisOnFactor  float64 `json:"hysteresis_on_factor"`
	HysteresisOffFactor float64 `json:"hysteresis_off_factor"`

	ContextSize int `json:"context_size"`

	EnableSpectralFlux   bool `json:"enable_spectral_flux"`
	EnableHighFreqEnergy bool `json:"enable_high_freq_energy"`
	EnableMFCCDelta      bool `json:"enable_mfcc_delta"`
	EnableWavelet        bool `json:"enable_wavelet"`
	EnableTeager         bool `json:"enable_teager"`
	EnableLocalEnergy    bool `json:"enable_local_energy"`

	FFTSizeMs float64 `json:"fft_size_ms"`
	HopSizeMs float64 `json:"hop_size_ms"`

	HighFreqCutoffHz float64 `json:"high_freq_cutoff_hz"`

	WeightPeakRate      float64 `json:"weight_peak_rate"`
	WeightSpectralFlux  float64 `json:"weight_spectral_flux"`
	WeightHighFreq      float64 `json:"weight_high_freq"`
	WeightMFCCDelta     float64 `json:"weight_mfcc_delta"`
	WeightWavelet       float64 `json:"weight_wavelet"`
	WeightEnergy        float64 `json:"weight_energy"`
	FusionBlendAlpha    float64 `json:"fusion_blend_alpha"`

	UnvoicedOnsetThreshold float64 `json:"unvoiced_onset_threshold"`
	AllowUnvoicedOnsets    bool    `json:"allow_unvoiced_onsets"`

	EnableAGC    bool `json:"enable_agc"`
	RealtimeMode bool `json:"realtime_mode"`

	CalibrationDurationMs float64 `json:"calibration_duration_ms"`
	SNRThresholdDB        float64 `json:"snr_threshold_db"`

	ZFFTrendWindowMs float64 `json:"zff_trend_window_ms"`
}

// DefaultConfig returns a Config tuned for sampleRate with the same
// defaults the original C detector shipped.
func DefaultConfig(sampleRate int) Config {
	return Config{
		SampleRate: sampleRate,

		PeakRateBandMinHz: 500.0,
		PeakRateBandMaxHz: 3200.0,

		MinSyllableDistMs: 100.0,
		ThresholdPeakRate: 0.0003,

		AdaptivePeakRateK:     4.0,
		AdaptivePeakRateTauMs: 500.0,

		VoicedHoldMs: 30.0,

		HysteresisOnFactor:  1.3,
		HysteresisOffFactor: 0.7,

		ContextSize: 2,

		EnableSpectralFlux:   true,
		EnableHighFreqEnergy: true,
		EnableMFCCDelta:      true,
		EnableWavelet:        true,
		EnableTeager:         true,
		EnableLocalEnergy:    true,

		FFTSizeMs: 32.0,
		HopSizeMs: 16.0,

		HighFreqCutoffHz: 2000.0,

		WeightPeakRate:     0.25,
		WeightSpectralFlux: 0.20,
		WeightHighFreq:     0.15,
		WeightMFCCDelta:    0.10,
		WeightWavelet:      0.20,
		WeightEnergy:       0.10,
		FusionBlendAlpha:   0.6,

		UnvoicedOnsetThreshold: 0.5,
		AllowUnvoicedOnsets:    true,

		EnableAGC:    true,
		RealtimeMode: false,

		CalibrationDurationMs: 2000.0,
		SNRThresholdDB:        6.0,

		ZFFTrendWindowMs: 10.0,
	}
}

// Validate checks that cfg describes a constructible detector.
func (cfg Config) Validate() error {
	if cfg.SampleRate <= 0 {
		return fmt.Errorf("syllabledet: sample rate must be positive, got %d", cfg.SampleRate)
	}
	if cfg.PeakRateBandMinHz <= 0 || cfg.PeakRateBandMaxHz <= cfg.PeakRateBandMinHz {
		return fmt.Errorf("syllabledet: peak rate band must satisfy 0 < min < max, got [%g, %g]",
			cfg.PeakRateBandMinHz, cfg.PeakRateBandMaxHz)
	}
	nyquist := float64(cfg.SampleRate) / 2.0
	if cfg.PeakRateBandMaxHz >= nyquist {
		return fmt.Errorf("syllabledet: peak rate band max (%g Hz) must be below Nyquist (%g Hz)",
			cfg.PeakRateBandMaxHz, nyquist)
	}
	if cfg.ContextSize < 0 {
		return fmt.Errorf("syllabledet: context size must be non-negative, got %d", cfg.ContextSize)
	}
	if cfg.FusionBlendAlpha < 0 || cfg.FusionBlendAlpha > 1 {
		return fmt.Errorf("syllabledet: fusion blend alpha must be in [0,1], got %g", cfg.FusionBlendAlpha)
	}
	if cfg.FFTSizeMs <= 0 || cfg.HopSizeMs <= 0 {
		return fmt.Errorf("syllabledet: fft_size_ms and hop_size_ms must be positive")
	}
	if cfg.HighFreqCutoffHz <= 0 || cfg.HighFreqCutoffHz >= nyquist {
		return fmt.Errorf("syllabledet: high_freq_cutoff_hz must be in (0, Nyquist)")
	}
	if cfg.MinSyllableDistMs <= 0 {
		return fmt.Errorf("syllabledet: min_syllable_dist_ms must be positive")
	}
	return nil
}
