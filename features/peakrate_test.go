package features

import (
	"math"
	"testing"
)

func TestPeakRateIsNeverNegative(t *testing.T) {
	pr := NewPeakRate(16000, 500, 3200)
	for i := 0; i < 16000; i++ {
		tSec := float64(i) / 16000.0
		sample := 0.0
		switch {
		case i < 4000:
			sample = 0
		case i < 8000:
			sample = 0.6 * math.Sin(2*math.Pi*1800*tSec)
		default:
			sample = 0.1 * math.Sin(2*math.Pi*1800*tSec)
		}
		v := pr.Process(sample)
		if v < 0 {
			t.Fatalf("sample %d: peak rate is half-wave rectified and must never go negative, got %v", i, v)
		}
	}
}

func TestPeakRateSilenceIsZero(t *testing.T) {
	pr := NewPeakRate(16000, 500, 3200)
	for i := 0; i < 1000; i++ {
		if got := pr.Process(0); got != 0 {
			t.Fatalf("sample %d: expected 0 on silence, got %v", i, got)
		}
	}
}

func TestPeakRateResetClearsEnvelopeHistory(t *testing.T) {
	pr := NewPeakRate(16000, 500, 3200)
	for i := 0; i < 4000; i++ {
		tSec := float64(i) / 16000.0
		pr.Process(0.6 * math.Sin(2*math.Pi*1800*tSec))
	}
	pr.Reset()
	if got := pr.Process(0); got != 0 {
		t.Errorf("expected 0 immediately after reset, got %v", got)
	}
}
