package detector_test

import (
	"math"
	"reflect"
	"testing"

	"github.com/onsetlab/syllabledet/detector"
)

const testSampleRate = 16000

func silence(n int) []float64 {
	return make([]float64, n)
}

// burstTrain builds a sequence of short broadband-ish bursts separated
// by silence: each burst is a sum of a few harmonically unrelated tones
// ramped on and off, which gives the spectral-flux/high-frequency-energy
// extractors something to react to without relying on any RNG.
func burstTrain(sampleRate int, totalSeconds float64, burstEveryMs, burstDurMs, amplitude float64) []float64 {
	n := int(totalSeconds * float64(sampleRate))
	out := make([]float64, n)
	period := int(burstEveryMs * 0.001 * float64(sampleRate))
	dur := int(burstDurMs * 0.001 * float64(sampleRate))
	freqs := []float64{900, 2200, 3700, 5300}
	for start := 0; start+dur < n; start += period {
		for i := 0; i < dur; i++ {
			tSec := float64(i) / float64(sampleRate)
			ramp := math.Sin(math.Pi * float64(i) / float64(dur)) // 0 -> 1 -> 0 envelope
			var v float64
			for _, f := range freqs {
				v += math.Sin(2 * math.Pi * f * tSec)
			}
			out[start+i] += amplitude * ramp * v / float64(len(freqs))
		}
	}
	return out
}

func newTestDetector(t *testing.T, mutate func(*detector.Config)) *detector.Detector {
	t.Helper()
	cfg := detector.DefaultConfig(testSampleRate)
	if mutate != nil {
		mutate(&cfg)
	}
	d, err := detector.New(cfg)
	if err != nil {
		t.Fatalf("New(cfg) failed: %v", err)
	}
	return d
}

func drainAll(d *detector.Detector, samples []float64, chunkSize int) []detector.Event {
	var events []detector.Event
	out := make([]detector.Event, 64)
	for offset := 0; offset < len(samples); offset += chunkSize {
		end := offset + chunkSize
		if end > len(samples) {
			end = len(samples)
		}
		n := d.Process(samples[offset:end], out)
		events = append(events, out[:n]...)
	}
	n := d.Flush(out)
	events = append(events, out[:n]...)
	return events
}

func TestSilenceProducesNoEvents(t *testing.T) {
	d := newTestDetector(t, nil)
	events := drainAll(d, silence(testSampleRate), 512)
	if len(events) != 0 {
		t.Errorf("expected no events on silence, got %d", len(events))
	}
}

func TestCalibrationQuiescence(t *testing.T) {
	d := newTestDetector(t, func(c *detector.Config) {
		c.RealtimeMode = true
		c.CalibrationDurationMs = 2000
	})
	if !d.IsCalibrating() {
		t.Fatal("expected a freshly constructed realtime-mode detector to be calibrating")
	}

	loud := burstTrain(testSampleRate, 0.5, 100, 50, 0.8)
	out := make([]detector.Event, 64)
	n := d.Process(loud, out)
	if n != 0 {
		t.Errorf("expected 0 events while calibrating, got %d", n)
	}
	if !d.IsCalibrating() {
		t.Error("0.5s of a 2s calibration window should not have elapsed yet")
	}
}

func TestResetIdempotence(t *testing.T) {
	input := burstTrain(testSampleRate, 2.0, 250, 50, 0.6)

	d := newTestDetector(t, nil)
	first := drainAll(d, input, 400)

	d.Reset()
	second := drainAll(d, input, 400)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical input after Reset() must reproduce identical output:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestDeterminismAcrossChunking(t *testing.T) {
	input := burstTrain(testSampleRate, 1.5, 250, 50, 0.6)

	events1 := drainAll(newTestDetector(t, nil), input, 300)
	events2 := drainAll(newTestDetector(t, nil), input, 777)

	if !reflect.DeepEqual(events1, events2) {
		t.Errorf("same config and input must yield identical events regardless of chunking")
	}
}

func TestChunkInvariance(t *testing.T) {
	input := burstTrain(testSampleRate, 2.0, 250, 50, 0.6)

	whole := drainAll(newTestDetector(t, nil), input, len(input))
	chunked := drainAll(newTestDetector(t, nil), input, 97) // deliberately awkward chunk size

	if !reflect.DeepEqual(whole, chunked) {
		t.Errorf("chunking must not change the emitted event sequence")
	}
}

func TestMonotonicTimestampsAndMinimumSeparation(t *testing.T) {
	input := burstTrain(testSampleRate, 3.0, 300, 50, 0.7)
	d := newTestDetector(t, nil)
	events := drainAll(d, input, 512)

	cfg := detector.DefaultConfig(testSampleRate)
	minSamples := uint64(cfg.MinSyllableDistMs * 0.001 * float64(testSampleRate))

	for i := 1; i < len(events); i++ {
		if events[i].OnsetSamples <= events[i-1].OnsetSamples {
			t.Errorf("event %d onset (%d) is not strictly after event %d (%d)",
				i, events[i].OnsetSamples, i-1, events[i-1].OnsetSamples)
		}
		if gap := events[i].OnsetSamples - events[i-1].OnsetSamples; gap < minSamples {
			t.Errorf("event %d is only %d samples after event %d, want >= %d", i, gap, i-1, minSamples)
		}
	}
}

func TestFlushIsIdempotentOnceDrained(t *testing.T) {
	input := burstTrain(testSampleRate, 2.0, 250, 50, 0.6)
	d := newTestDetector(t, nil)
	_ = drainAll(d, input, 512)

	out := make([]detector.Event, 16)
	if n := d.Flush(out); n != 0 {
		t.Errorf("a second flush with nothing new processed must drain nothing further, got %d", n)
	}
}

func TestDroppedEventsStartsAtZero(t *testing.T) {
	d := newTestDetector(t, nil)
	if got := d.DroppedEvents(); got != 0 {
		t.Errorf("expected 0 dropped events on a fresh detector, got %d", got)
	}
}
