package detector

// OnsetType classifies the leading portion of a detected syllable.
type OnsetType int

const (
	Voiced OnsetType = iota
	Unvoiced
	Mixed
)

func (t OnsetType) String() string {
	switch t {
	case Voiced:
		return "voiced"
	case Unvoiced:
		return "unvoiced"
	case Mixed:
		return "mixed"
	default:
		return "unknown"
	}
}

// Event is one emitted syllable record: the onset time, the feature
// snapshot taken at peak salience, the fusion and prominence scores,
// and the accent flag.
type Event struct {
	OnsetSamples uint64
	OnsetSeconds float64

	PeakRate       float64
	SpectralFlux   float64
	HighFreqEnergy float64
	MFCCDelta      float64
	WaveletScore   float64
	FusionScore    float64

	F0      float64
	DeltaF0 float64

	RiseSlope float64
	DurationS float64
	Energy    float64

	OnsetType  OnsetType
	Prominence float64
	Accented   bool
}
