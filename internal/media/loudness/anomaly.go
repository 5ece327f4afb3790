package loudness

// Thresholds calibrates Classify.
type Thresholds struct {
	// BalanceDB is the mean volume gap that marks a channel as silent
	// relative to the other, or a merge as cancelling.
	BalanceDB float64
	// QuietDB is the Original mean volume at or below which a track is too quiet.
	QuietDB float64
	// CeilingDB is the Original max volume that marks a track as too loud.
	CeilingDB float64
}

// DefaultThresholds returns the standard calibration.
func DefaultThresholds() Thresholds {
	return Thresholds{BalanceDB: 10, QuietDB: -30, CeilingDB: 0}
}

// Flags are anomalies derived from Metrics. The stereo flags are only set
// for two-channel tracks and at most one of them holds.
type Flags struct {
	Inverted  bool `json:"inverted"`
	LeftOnly  bool `json:"left_only"`
	RightOnly bool `json:"right_only"`
	TooLoud   bool `json:"too_loud"`
	TooQuiet  bool `json:"too_quiet"`
}

// Classify derives anomaly flags for a track with the given channel count.
func Classify(m Metrics, channels int, th Thresholds) Flags {
	var flags Flags
	original := m.Volume[Original]
	if channels == 2 {
		left, right := m.Volume[Channel(0)], m.Volume[Channel(1)]
		switch {
		case right.MeanDB <= left.MeanDB-th.BalanceDB:
			flags.LeftOnly = true
		case left.MeanDB <= right.MeanDB-th.BalanceDB:
			flags.RightOnly = true
		case m.Volume[Merged].MeanDB <= original.MeanDB-th.BalanceDB:
			flags.Inverted = true
		}
	}
	flags.TooLoud = original.MaxDB == th.CeilingDB
	flags.TooQuiet = original.MeanDB <= th.QuietDB
	return flags
}
