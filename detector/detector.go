// Package detector implements the end-to-end streaming syllable-onset
// and prominence detector: AGC and voicing front-end, the six parallel
// feature extractors, running statistics and calibration, the fusion
// rule, the onset/nucleus/cooldown state machine, and the bounded
// look-ahead prominence ring buffer.
package detector

import (
	"math"

	"github.com/onsetlab/syllabledet/algorithms/common"
	"github.com/onsetlab/syllabledet/algorithms/temporal"
	"github.com/onsetlab/syllabledet/features"
	"github.com/onsetlab/syllabledet/logging"
	"github.com/onsetlab/syllabledet/voicing"
)

// Detector is the single-threaded, exclusively-owned aggregate of every
// sub-component's state. It must never be shared between goroutines;
// run one Detector per concurrent stream.
type Detector struct {
	cfg Config
	log logging.Logger

	agc *temporal.AGC
	zff *voicing.ZFF

	peakRate     *features.PeakRate
	spectralFlux *features.SpectralFlux
	highFreq     *features.HighFreqEnergy
	mfccDelta    *features.MFCCDelta
	wavelet      *features.Wavelet
	teager       *features.Teager
	localEnergy  *features.LocalEnergyRatio

	bank *featureBank
	cal  *calibrationBuffer

	sm   *stateMachine
	ring *prominenceRing

	sampleIndex uint64

	heldSpectralFlux, heldFlatnessWeber float64
	heldMFCCDelta                      float64

	noiseFloor  *featureStat
	thetaEnergy float64

	f0Baseline *featureStat

	droppedEvents uint64
}

// New constructs a Detector for cfg. It returns an error if cfg does
// not describe a constructible detector.
func New(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sr := cfg.SampleRate
	fftSize := int(cfg.FFTSizeMs * 0.001 * float64(sr))
	hopSize := int(cfg.HopSizeMs * 0.001 * float64(sr))
	if hopSize < 1 {
		hopSize = 1
	}

	d := &Detector{
		cfg: cfg,
		log: logging.WithFields(logging.Fields{
			"component":   "detector",
			"sample_rate": sr,
		}),
		zff:          voicing.NewZFF(sr, cfg.ZFFTrendWindowMs, cfg.VoicedHoldMs),
		peakRate:     features.NewPeakRate(sr, cfg.PeakRateBandMinHz, cfg.PeakRateBandMaxHz),
		spectralFlux: features.NewSpectralFlux(fftSize, hopSize),
		highFreq:     features.NewHighFreqEnergy(sr, cfg.HighFreqCutoffHz, cfg.HopSizeMs),
		mfccDelta:    features.NewMFCCDelta(sr, fftSize, hopSize),
		wavelet:      features.NewWavelet(sr, 2000.0, 6000.0, 3),
		teager:       features.NewTeager(sr, 0.5),
		localEnergy:  features.NewLocalEnergyRatio(sr, 0.020, 0.500),
		bank:         newFeatureBank(sr, cfg.AdaptivePeakRateTauMs*0.001),
		cal:          newCalibrationBuffer(sr, cfg.CalibrationDurationMs),
		sm:           newStateMachine(cfg),
		ring:         newProminenceRing(cfg.ContextSize),
		noiseFloor:   newFeatureStat(sr, cfg.AdaptivePeakRateTauMs*0.001),
		f0Baseline:   newFeatureStat(sr, 1.0),
	}

	if cfg.EnableAGC {
		d.agc = temporal.NewAGC(sr, -20.0, 30.0)
	}
	if cfg.RealtimeMode {
		d.cal.start()
	}

	d.log.Debug("detector constructed", logging.Fields{
		"realtime_mode": cfg.RealtimeMode,
		"context_size":  cfg.ContextSize,
	})

	return d, nil
}

const confidenceTargetMs = 500.0

func (d *Detector) confidenceTargetSamples() uint64 {
	return uint64(confidenceTargetMs * 0.001 * float64(d.cfg.SampleRate))
}

// Process advances the detector by len(samples) samples, writing
// finalized, context-scored events into out (up to its capacity) and
// returning how many were written. Excess finalized events remain
// buffered in the ring and surface on a later Process/Flush call.
func (d *Detector) Process(samples []float64, out []Event) int {
	for _, s := range samples {
		d.processSample(s)
	}
	written := d.ring.drain(out, d.cfg.RealtimeMode, false)
	d.syncDroppedEvents()
	return written
}

// Flush drains every remaining event in the ring, ignoring the
// trailing-context requirement, and returns how many were written.
func (d *Detector) Flush(out []Event) int {
	written := d.ring.drain(out, d.cfg.RealtimeMode, true)
	d.syncDroppedEvents()
	return written
}

func (d *Detector) syncDroppedEvents() {
	if d.ring.dropped != d.droppedEvents {
		d.log.Warn("prominence ring overflow dropped an event", logging.Fields{
			"total_dropped": d.ring.dropped,
		})
	}
	d.droppedEvents = d.ring.dropped
}

// DroppedEvents returns the total count of finalized events silently
// overwritten by ring-buffer overflow (§9 open question).
func (d *Detector) DroppedEvents() uint64 {
	return d.droppedEvents
}

// Reset returns the detector to its post-construction state: counters,
// buffers, statistics, and the state machine are cleared; filter
// coefficients (derived purely from Config) are preserved because they
// never change.
func (d *Detector) Reset() {
	d.sampleIndex = 0
	d.heldSpectralFlux, d.heldFlatnessWeber, d.heldMFCCDelta = 0, 0, 0
	d.thetaEnergy = 0
	d.droppedEvents = 0

	d.zff.Reset()
	d.peakRate.Reset()
	d.spectralFlux.Reset()
	d.highFreq.Reset()
	d.mfccDelta.Reset()
	d.wavelet.Reset()
	d.teager.Reset()
	d.localEnergy.Reset()
	if d.agc != nil {
		d.agc.Reset()
	}

	d.bank.reset()
	d.noiseFloor.reset()
	d.f0Baseline.reset()
	d.sm.reset()
	d.ring.reset()

	if d.cfg.RealtimeMode {
		d.cal.start()
	}

	d.log.Debug("detector reset", nil)
}

// SetRealtimeMode switches the fusion rule and emission latency.
// Enabling realtime mode always triggers a fresh calibration phase.
func (d *Detector) SetRealtimeMode(enabled bool) {
	d.cfg.RealtimeMode = enabled
	d.ring.contextSize = d.cfg.ContextSize
	if enabled {
		d.cal.start()
	}
	d.log.Debug("realtime mode changed", logging.Fields{"enabled": enabled})
}

// Recalibrate restarts the realtime-mode calibration phase.
func (d *Detector) Recalibrate() {
	d.cal.start()
	d.log.Debug("calibration restarted", nil)
}

// IsCalibrating reports whether the detector is in its dormant
// calibration phase; while true, Process emits no events.
func (d *Detector) IsCalibrating() bool {
	return d.cfg.RealtimeMode && d.cal.isCalibrating()
}

// SetSNRThresholdDB updates the calibration SNR margin used on the next
// finalize(): the end of the running calibration phase if one is in
// progress, otherwise the end of the next one.
func (d *Detector) SetSNRThresholdDB(db float64) {
	d.cfg.SNRThresholdDB = db
}

func (d *Detector) processSample(raw float64) {
	sample := raw
	if d.agc != nil {
		sample = d.agc.Process(sample)
	}

	energy := sample * sample

	voicing := d.zff.Process(sample)
	if voicing.F0 > 0 {
		d.f0Baseline.update(voicing.F0)
	}

	peakRate := d.peakRate.Process(sample)
	highFreq := d.highFreq.Process(sample)

	teagerZ := d.teager.Process(sample)
	if !d.cfg.EnableTeager {
		teagerZ = 0
	}
	ler := d.localEnergy.Process(sample)
	if !d.cfg.EnableLocalEnergy {
		ler = 0
	}

	hasNewFlux := false
	fluxResult := d.spectralFlux.Process(sample)
	if fluxResult.NewFrame {
		d.heldSpectralFlux = fluxResult.Flux
		d.heldFlatnessWeber = fluxResult.FlatnessWeber
		hasNewFlux = true
	}

	hasNewMFCC := false
	if delta, ok := d.mfccDelta.Process(sample); ok {
		d.heldMFCCDelta = delta
		hasNewMFCC = true
	}

	waveletScore := d.wavelet.Process(sample)

	voicedBonus := 0.0
	if voicing.Voiced {
		voicedBonus = 1.0
	}

	values := [numFusedFeatures]float64{
		featPeakRate:     peakRate,
		featSpectralFlux: d.heldSpectralFlux,
		featHighFreq:     highFreq,
		featMFCCDelta:    d.heldMFCCDelta,
		featWavelet:      waveletScore,
		featEnergy:       energy,
	}
	hasNew := [numFusedFeatures]bool{
		featPeakRate:     true,
		featSpectralFlux: hasNewFlux,
		featHighFreq:     true,
		featMFCCDelta:    hasNewMFCC,
		featWavelet:      true,
		featEnergy:       true,
	}

	d.noiseFloor.update(energy)
	d.bank.updateMasked(values, hasNew)

	calibrating := d.cfg.RealtimeMode && d.cal.isCalibrating()
	if calibrating {
		if d.cal.push(values) {
			d.cal.finalize(d.cfg.SNRThresholdDB)
			d.thetaEnergy = d.cal.threshold(featEnergy)
			energyMin, energyMax := d.cal.diagnosticRange(featEnergy)
			d.log.Debug("calibration finalized", logging.Fields{
				"snr_threshold_db": d.cfg.SNRThresholdDB,
				"theta_energy":     d.thetaEnergy,
				"energy_min":       energyMin,
				"energy_max":       energyMax,
			})
		}
		d.sampleIndex++
		return
	}

	enabled := [numFusedFeatures]bool{
		featPeakRate:     true,
		featSpectralFlux: d.cfg.EnableSpectralFlux,
		featHighFreq:     d.cfg.EnableHighFreqEnergy,
		featMFCCDelta:    d.cfg.EnableMFCCDelta,
		featWavelet:      d.cfg.EnableWavelet,
		featEnergy:       true,
	}

	fusionIn := fusionInputs{
		values:      values,
		enabled:     enabled,
		voicingConf: voicedBonus,
		envelope:    energy,
		noiseFloor:  d.noiseFloor.mean,
	}

	var fusion float64
	if d.cfg.RealtimeMode {
		fusion = fuseRealtime(d.cal, fusionIn)
	} else {
		fusion = fuseOffline(d.bank, d.weightVector(), d.cfg.FusionBlendAlpha, fusionIn, d.confidenceTargetSamples())
	}

	thetaPeakRate := math.Max(d.cfg.ThresholdPeakRate, d.bank.stats[featPeakRate].mean+d.cfg.AdaptivePeakRateK*d.bank.stats[featPeakRate].std())

	ctx := sampleContext{
		sampleIndex:    d.sampleIndex,
		seconds:        float64(d.sampleIndex) / float64(d.cfg.SampleRate),
		energy:         energy,
		voiced:         voicing.Voiced,
		f0:             voicing.F0,
		peakRate:       peakRate,
		spectralFlux:   d.heldSpectralFlux,
		highFreq:       highFreq,
		mfccDelta:      d.heldMFCCDelta,
		wavelet:        waveletScore,
		fusion:         fusion,
		sfNorm:         d.bank.normalizeSigmoid(featSpectralFlux, d.heldSpectralFlux),
		hfNorm:         d.bank.normalizeSigmoid(featHighFreq, highFreq),
		flatnessWeber:  d.heldFlatnessWeber,
		teagerZ:        teagerZ,
		ler:            ler,
		thetaPeakRate:  thetaPeakRate,
		thetaEnergy:    d.thetaEnergy,
		noiseFloor:     d.noiseFloor.mean,
		realtime:       d.cfg.RealtimeMode,
	}

	if ev, ok := d.sm.step(ctx); ok {
		bonus := computeF0LevelBonus(ev.F0, d.f0Baseline.mean)
		d.ring.push(ringEntry{event: ev, semitoneBonus: bonus})
	}

	d.sampleIndex++
}

// weightVector assembles the per-feature fusion weights, renormalized
// over only the enabled features (§4.8: a disabled feature removes
// both its contribution and its weight from the normalization).
func (d *Detector) weightVector() [numFusedFeatures]float64 {
	raw := [numFusedFeatures]float64{
		featPeakRate:     d.cfg.WeightPeakRate,
		featSpectralFlux: pick(d.cfg.EnableSpectralFlux, d.cfg.WeightSpectralFlux),
		featHighFreq:     pick(d.cfg.EnableHighFreqEnergy, d.cfg.WeightHighFreq),
		featMFCCDelta:    pick(d.cfg.EnableMFCCDelta, d.cfg.WeightMFCCDelta),
		featWavelet:      pick(d.cfg.EnableWavelet, d.cfg.WeightWavelet),
		featEnergy:       d.cfg.WeightEnergy,
	}
	sum := 0.0
	for _, w := range raw {
		sum += w
	}
	if sum <= 0 {
		return raw
	}
	for i := range raw {
		raw[i] /= sum
	}
	return raw
}

func pick(enabled bool, w float64) float64 {
	if !enabled {
		return 0
	}
	return w
}

// computeF0LevelBonus maps how far f0 sits above a slow EMA baseline,
// in semitones, onto [0, 0.15] — the secondary-accent bonus used by
// prominence scoring (§4.1, §4.7).
func computeF0LevelBonus(f0, baseline float64) float64 {
	if f0 <= 0 || baseline <= 0 || f0 <= baseline {
		return 0
	}
	semitones := 12.0 * math.Log2(f0/baseline)
	return common.Clamp(semitones/40.0, 0, 0.15)
}
