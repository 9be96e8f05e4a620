package effects

import "time"

// StageTiming records one executed stage.
type StageTiming struct {
	Name     string
	Duration time.Duration
}

// FrameStats describes what the last Apply did.
type FrameStats struct {
	Frame  uint64
	Stages []StageTiming

	TAASample     int
	TAAReset      bool
	TAARerendered bool

	PyramidBuilt bool
	SSRRays      int

	VolumetricColored bool

	BloomDownsamples int
	BloomUpsamples   int

	// DOFNearDownsampled is set when depth of field downsampled its own
	// near-field input; DOFNearShared when it read the shared half-res buffer.
	DOFNearDownsampled bool
	DOFNearShared      bool
	// SharedDownsamples counts fills of the shared half-res buffer.
	SharedDownsamples int
	// ColorDownsamples counts full-res to half-res color passes of any stage.
	ColorDownsamples int
}

// Ran reports whether the named stage executed.
func (s FrameStats) Ran(name string) bool {
	for _, st := range s.Stages {
		if st.Name == name {
			return true
		}
	}
	return false
}

// StageNames lists the executed stages in order.
func (s FrameStats) StageNames() []string {
	out := make([]string, len(s.Stages))
	for i, st := range s.Stages {
		out[i] = st.Name
	}
	return out
}
