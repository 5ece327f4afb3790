package loudness

import (
	"math"
	"strconv"
)

// Remap selects the source channel fed to both output channels.
type Remap uint8

const (
	RemapNone Remap = iota
	RemapLeft
	RemapRight
)

func (r Remap) String() string {
	switch r {
	case RemapLeft:
		return "left"
	case RemapRight:
		return "right"
	default:
		return "none"
	}
}

// Variant returns the branch whose measurements describe the remapped output.
func (r Remap) Variant() Variant {
	switch r {
	case RemapLeft:
		return Channel(0)
	case RemapRight:
		return Channel(1)
	default:
		return Original
	}
}

// Gain calibrates the gain decision in LUFS.
type Gain struct {
	TargetLUFS float64
	UpperLUFS  float64
	LowerLUFS  float64
}

// DefaultGain returns the standard loudness window.
func DefaultGain() Gain {
	return Gain{TargetLUFS: -14, UpperLUFS: -12, LowerLUFS: -16}
}

// Directive is the adjustment to apply when serving the track.
type Directive struct {
	Remap  Remap
	GainDB *float64
}

// Compose chooses the channel remap from flags and the gain from the chosen
// variant's loudness. Boosts never raise the peak above 0 dB.
func Compose(m Metrics, flags Flags, channels int, g Gain) Directive {
	var d Directive
	switch {
	case flags.LeftOnly, flags.Inverted, channels != 2:
		d.Remap = RemapLeft
	case flags.RightOnly:
		d.Remap = RemapRight
	}

	chosen := d.Remap.Variant()
	if _, ok := m.Loudness[chosen]; !ok {
		chosen = Original
	}
	lufs := m.Loudness[chosen].IntegratedLUFS
	peak := m.Volume[chosen].MaxDB

	switch {
	case lufs > g.UpperLUFS:
		gain := roundGain(g.TargetLUFS - lufs)
		d.GainDB = &gain
	case lufs < g.LowerLUFS:
		gain := roundGain(math.Min(g.TargetLUFS-lufs, -peak))
		d.GainDB = &gain
	}
	return d
}

// roundGain trims float noise such as 1.9899999999999984.
func roundGain(v float64) float64 {
	return math.Round(v*100) / 100
}

// Filters renders the directive as ffmpeg audio filters, remap first.
func (d Directive) Filters() []string {
	filters := make([]string, 0, 2)
	switch d.Remap {
	case RemapLeft:
		filters = append(filters, "pan=stereo|c0=c0|c1=c0")
	case RemapRight:
		filters = append(filters, "pan=stereo|c0=c1|c1=c1")
	}
	if d.GainDB != nil {
		filters = append(filters, "volume="+strconv.FormatFloat(*d.GainDB, 'f', -1, 64)+"dB")
	}
	return filters
}
