package detector

import "testing"

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig(16000)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig(16000) should validate, got: %v", err)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }},
		{"negative sample rate", func(c *Config) { c.SampleRate = -16000 }},
		{"inverted band", func(c *Config) { c.PeakRateBandMinHz, c.PeakRateBandMaxHz = 4000, 1000 }},
		{"band above nyquist", func(c *Config) { c.PeakRateBandMaxHz = 9000 }},
		{"negative context size", func(c *Config) { c.ContextSize = -1 }},
		{"blend alpha above 1", func(c *Config) { c.FusionBlendAlpha = 1.5 }},
		{"blend alpha below 0", func(c *Config) { c.FusionBlendAlpha = -0.1 }},
		{"zero fft size", func(c *Config) { c.FFTSizeMs = 0 }},
		{"zero hop size", func(c *Config) { c.HopSizeMs = 0 }},
		{"high freq cutoff above nyquist", func(c *Config) { c.HighFreqCutoffHz = 9000 }},
		{"zero min syllable distance", func(c *Config) { c.MinSyllableDistMs = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig(16000)
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected Validate() to reject config mutated by %q, got nil error", tc.name)
			}
		})
	}
}
