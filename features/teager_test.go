package features

import "testing"

func TestTeagerSilenceIsAlwaysZero(t *testing.T) {
	tg := NewTeager(16000, 0.5)
	for i := 0; i < 1000; i++ {
		if got := tg.Process(0); got != 0 {
			t.Fatalf("sample %d: expected 0 on silence, got %v", i, got)
		}
	}
}

func TestTeagerResetClearsHistory(t *testing.T) {
	tg := NewTeager(16000, 0.5)
	for i := 0; i < 500; i++ {
		tg.Process(float64(i%7) * 0.1)
	}
	tg.Reset()
	// Right after reset there is no sample history, so the operator
	// cannot yet produce a nonzero energy term.
	if got := tg.Process(0.3); got != 0 {
		t.Errorf("expected 0 immediately after reset, got %v", got)
	}
}
