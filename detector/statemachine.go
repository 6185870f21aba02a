package detector

// syllableState is one of the four phases of the onset/nucleus/cooldown
// cycle described in §4.6.
type syllableState int

const (
	stateIdle syllableState = iota
	stateOnsetRising
	stateNucleus
	stateCooldown
)

// sampleContext is everything the state machine needs to decide a
// transition for the current sample; the detector assembles it fresh
// every sample/hop from its extractors, statistics, and calibration.
type sampleContext struct {
	sampleIndex uint64
	seconds     float64

	energy float64 // instantaneous post-AGC sample energy

	voiced bool
	f0     float64

	peakRate, spectralFlux, highFreq, mfccDelta, wavelet float64
	fusion                                               float64

	sfNorm, hfNorm float64 // sigmoid-normalized, used for gating/classification
	flatnessWeber  float64
	teagerZ        float64
	ler            float64

	thetaPeakRate float64
	thetaEnergy   float64
	noiseFloor    float64

	realtime bool
}

// stateMachine owns the in-flight event under construction and the
// hysteresis/gate bookkeeping that drives it through
// IDLE -> ONSET_RISING -> NUCLEUS -> COOLDOWN -> IDLE.
type stateMachine struct {
	cfg        Config
	sampleRate int

	state syllableState
	timer uint64 // samples since the current state was entered

	inFlight     Event
	onsetSamples uint64 // sample index the in-flight event started at

	peakRateMax, fusionMax float64
	energyPeak             float64
	energySum              float64

	minF0      float64
	haveMinF0  bool
	f0HasRisen bool

	haveLastEvent    bool
	lastEventSamples uint64
}

func newStateMachine(cfg Config) *stateMachine {
	return &stateMachine{cfg: cfg, sampleRate: cfg.SampleRate, state: stateIdle}
}

func (sm *stateMachine) reset() {
	sm.state = stateIdle
	sm.timer = 0
	sm.inFlight = Event{}
	sm.peakRateMax, sm.fusionMax = 0, 0
	sm.energyPeak, sm.energySum = 0, 0
	sm.minF0 = 0
	sm.haveMinF0 = false
	sm.f0HasRisen = false
	sm.haveLastEvent = false
	sm.lastEventSamples = 0
}

func (sm *stateMachine) hysteresisThresholds(thetaPeakRate float64) (onPR, offPR, onFusion, offFusion float64) {
	onPR = thetaPeakRate * sm.cfg.HysteresisOnFactor
	offPR = thetaPeakRate * sm.cfg.HysteresisOffFactor
	onFusion = 0.6 * sm.cfg.HysteresisOnFactor
	offFusion = 0.4 * sm.cfg.HysteresisOffFactor
	return
}

// step advances the machine by one sample/hop. It returns a finalized
// event when NUCLEUS -> COOLDOWN fires this sample; the caller is
// responsible for pushing it into the prominence ring.
func (sm *stateMachine) step(ctx sampleContext) (Event, bool) {
	sm.updateF0Gate(ctx)

	switch sm.state {
	case stateIdle:
		sm.stepIdle(ctx)
	case stateOnsetRising:
		sm.stepOnsetRising(ctx)
	case stateNucleus:
		if ev, ok := sm.stepNucleus(ctx); ok {
			return ev, true
		}
	case stateCooldown:
		sm.stepCooldown(ctx)
	}

	sm.timer++
	return Event{}, false
}

func (sm *stateMachine) updateF0Gate(ctx sampleContext) {
	if !ctx.voiced {
		sm.f0HasRisen = true
		return
	}
	if ctx.f0 <= 0 {
		return
	}
	if !sm.haveMinF0 || ctx.f0 < sm.minF0 {
		sm.minF0 = ctx.f0
		sm.haveMinF0 = true
	}
	if sm.haveMinF0 && ctx.f0 > 1.05*sm.minF0 {
		sm.f0HasRisen = true
	}
}

func (sm *stateMachine) f0GateBypassed(ctx sampleContext) bool {
	if ctx.realtime {
		return true
	}
	if ctx.fusion > 0.85 {
		return true
	}
	if ctx.teagerZ > 3.0 {
		return true
	}
	if ctx.ler > 2.0 {
		return true
	}
	if ctx.flatnessWeber < -0.3 {
		return true
	}
	if sm.haveLastEvent {
		elapsed := ctx.sampleIndex - sm.lastEventSamples
		if float64(elapsed) > 2.0*sm.cfg.minSyllableDistSamples() {
			return true
		}
	}
	return false
}

func (sm *stateMachine) energyGatePassed(ctx sampleContext) bool {
	if !ctx.realtime {
		return true
	}
	const absoluteFloor = 1e-6 // ~-60dB in power terms
	return ctx.energy > 3.0*ctx.thetaEnergy && ctx.energy > absoluteFloor
}

func (sm *stateMachine) stepIdle(ctx sampleContext) {
	onPR, _, onFusion, _ := sm.hysteresisThresholds(ctx.thetaPeakRate)

	voicedTrigger := ctx.peakRate > onPR && ctx.voiced
	fusionTrigger := ctx.fusion > onFusion && (sm.cfg.AllowUnvoicedOnsets || ctx.voiced)
	unvoicedTrigger := sm.cfg.AllowUnvoicedOnsets && !ctx.voiced &&
		(ctx.sfNorm > sm.cfg.UnvoicedOnsetThreshold || ctx.hfNorm > sm.cfg.UnvoicedOnsetThreshold)

	if !voicedTrigger && !fusionTrigger && !unvoicedTrigger {
		return
	}
	if !sm.f0HasRisen && !sm.f0GateBypassed(ctx) {
		return
	}
	if !sm.energyGatePassed(ctx) {
		return
	}

	sm.enterOnsetRising(ctx)
}

func (sm *stateMachine) enterOnsetRising(ctx sampleContext) {
	sm.state = stateOnsetRising
	sm.timer = 0
	sm.onsetSamples = ctx.sampleIndex

	var onsetType OnsetType
	switch {
	case ctx.voiced && ctx.hfNorm <= 0.5:
		onsetType = Voiced
	case ctx.voiced && ctx.hfNorm > 0.5:
		onsetType = Mixed
	default:
		onsetType = Unvoiced
	}

	sm.inFlight = Event{
		OnsetSamples:   ctx.sampleIndex,
		OnsetSeconds:   ctx.seconds,
		PeakRate:       ctx.peakRate,
		SpectralFlux:   ctx.spectralFlux,
		HighFreqEnergy: ctx.highFreq,
		MFCCDelta:      ctx.mfccDelta,
		WaveletScore:   ctx.wavelet,
		FusionScore:    ctx.fusion,
		F0:             ctx.f0,
		OnsetType:      onsetType,
	}
	sm.peakRateMax = ctx.peakRate
	sm.fusionMax = ctx.fusion
	sm.energyPeak = ctx.energy
	sm.energySum = ctx.energy

	sm.minF0 = ctx.f0
	sm.haveMinF0 = ctx.f0 > 0
	sm.f0HasRisen = false
}

func (sm *stateMachine) stepOnsetRising(ctx sampleContext) {
	if ctx.peakRate > sm.peakRateMax {
		sm.peakRateMax = ctx.peakRate
		sm.inFlight.PeakRate = ctx.peakRate
	}
	if ctx.fusion > sm.fusionMax {
		sm.fusionMax = ctx.fusion
		sm.inFlight.FusionScore = ctx.fusion
	}
	if ctx.spectralFlux > sm.inFlight.SpectralFlux {
		sm.inFlight.SpectralFlux = ctx.spectralFlux
	}
	if ctx.highFreq > sm.inFlight.HighFreqEnergy {
		sm.inFlight.HighFreqEnergy = ctx.highFreq
	}
	if ctx.mfccDelta > sm.inFlight.MFCCDelta {
		sm.inFlight.MFCCDelta = ctx.mfccDelta
	}
	if ctx.wavelet > sm.inFlight.WaveletScore {
		sm.inFlight.WaveletScore = ctx.wavelet
	}
	if ctx.energy > sm.energyPeak {
		sm.energyPeak = ctx.energy
	}
	sm.energySum += ctx.energy

	riseExpired := float64(sm.timer) > 0.050*float64(sm.sampleRate)
	voicingLost := !ctx.voiced && sm.inFlight.OnsetType == Voiced

	if ctx.peakRate < 0.5*sm.peakRateMax ||
		ctx.fusion < 0.6*sm.fusionMax ||
		riseExpired ||
		voicingLost {

		riseTimeS := float64(sm.timer) / float64(sm.sampleRate)
		sm.inFlight.RiseSlope = sm.peakRateMax / (riseTimeS + 1e-9)

		sm.state = stateNucleus
		sm.timer = 0
	}
}

func (sm *stateMachine) stepNucleus(ctx sampleContext) (Event, bool) {
	if ctx.energy > sm.energyPeak {
		sm.energyPeak = ctx.energy
	}
	sm.energySum += ctx.energy

	_, _, _, offFusion := sm.hysteresisThresholds(ctx.thetaPeakRate)

	energyRatio := 0.10
	if ctx.realtime {
		energyRatio = 0.20
	}
	energyFell := ctx.energy < energyRatio*sm.energyPeak
	voicingLost := !ctx.voiced && sm.inFlight.OnsetType == Voiced
	fusionLow := ctx.fusion < offFusion
	nucleusExpired := float64(sm.timer) > 0.100*float64(sm.sampleRate)

	if !(energyFell || voicingLost || fusionLow || nucleusExpired) {
		return Event{}, false
	}

	durationSamples := ctx.sampleIndex - sm.onsetSamples
	sm.inFlight.DurationS = float64(durationSamples) / float64(sm.sampleRate)
	sm.inFlight.Energy = sm.energySum

	sm.haveLastEvent = true
	sm.lastEventSamples = ctx.sampleIndex

	finished := sm.inFlight
	sm.state = stateCooldown
	sm.timer = 0
	sm.inFlight = Event{}
	return finished, true
}

func (sm *stateMachine) stepCooldown(ctx sampleContext) {
	if float64(sm.timer) > sm.cfg.minSyllableDistSamples() {
		sm.state = stateIdle
		sm.timer = 0
	}
}

// minSyllableDistSamples converts the configured minimum syllable
// distance from milliseconds to samples.
func (cfg Config) minSyllableDistSamples() float64 {
	return cfg.MinSyllableDistMs * 0.001 * float64(cfg.SampleRate)
}
