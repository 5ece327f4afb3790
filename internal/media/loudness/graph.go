package loudness

import (
	"fmt"
	"strconv"
	"strings"
)

// Stage is a measurement filter of a branch.
type Stage uint8

const (
	StageNone Stage = iota
	StageVolume
	StageLoudness
)

func (s Stage) String() string {
	switch s {
	case StageVolume:
		return "volume"
	case StageLoudness:
		return "loudness"
	default:
		return "none"
	}
}

// Filter is one filter instance of the graph.
type Filter struct {
	Name    string
	Options string
	Variant Variant
	Stage   Stage
}

func (f Filter) render() string {
	if f.Options == "" {
		return f.Name
	}
	return f.Name + "=" + f.Options
}

// Slot is a measurement the Plan expects back.
type Slot struct {
	Variant Variant
	Stage   Stage
}

func (s Slot) String() string {
	return s.Variant.String() + "/" + s.Stage.String()
}

// Plan is the analysis request for one track.
type Plan struct {
	TrackIndex int
	Channels   int
	Duration   float64
	variants   []Variant
	filters    []Filter
}

// NewPlan lays out the analysis graph for the stream at trackIndex. A track
// with unknown or zero channels is analyzed as the Original branch only.
func NewPlan(trackIndex, channels int, duration float64) Plan {
	if channels < 0 {
		channels = 0
	}
	plan := Plan{TrackIndex: trackIndex, Channels: channels, Duration: duration}
	plan.variants = Variants(channels)
	for _, v := range plan.variants {
		if pan := panOptions(v); pan != "" {
			plan.filters = append(plan.filters, Filter{Name: "pan", Options: pan, Variant: v})
		}
		plan.filters = append(plan.filters,
			Filter{Name: "volumedetect", Variant: v, Stage: StageVolume},
			Filter{Name: "ebur128", Variant: v, Stage: StageLoudness},
		)
	}
	return plan
}

func panOptions(v Variant) string {
	switch v.kind {
	case kindChannel:
		return fmt.Sprintf("mono|c0=c%d", v.channel)
	case kindMerged:
		return "mono|c0=0.5*c0+0.5*c1"
	default:
		return ""
	}
}

// Variants returns the analyzed variants in branch order.
func (p Plan) Variants() []Variant {
	return append([]Variant(nil), p.variants...)
}

// Filters returns the filter instances in graph order.
func (p Plan) Filters() []Filter {
	return append([]Filter(nil), p.filters...)
}

// Slots returns every (Variant, Stage) measurement in graph order.
func (p Plan) Slots() []Slot {
	slots := make([]Slot, 0, 2*len(p.variants))
	for _, f := range p.filters {
		if f.Stage != StageNone {
			slots = append(slots, Slot{Variant: f.Variant, Stage: f.Stage})
		}
	}
	return slots
}

// filterAt returns the filter ffmpeg reports as Parsed_<name>_<n>.
func (p Plan) filterAt(n int, name string) (Filter, bool) {
	if n < 0 || n >= len(p.filters) || p.filters[n].Name != name {
		return Filter{}, false
	}
	return p.filters[n], true
}

// Graph renders the -filter_complex argument.
func (p Plan) Graph() string {
	input := fmt.Sprintf("[0:%d]", p.TrackIndex)
	chains := make([]string, 0, len(p.variants))
	var chain []string
	var current Variant
	flush := func() {
		if len(chain) > 0 {
			chains = append(chains, input+strings.Join(chain, ",")+"["+current.label()+"]")
		}
		chain = chain[:0]
	}
	for i, f := range p.filters {
		if i > 0 && f.Variant != current {
			flush()
		}
		current = f.Variant
		chain = append(chain, f.render())
	}
	flush()
	return strings.Join(chains, ";")
}

// Invocation describes the ffmpeg command for a Plan.
type Invocation struct {
	Binary       string
	URL          string
	InputOptions []string
}

// Args renders the full ffmpeg command line. Every branch output is mapped
// to the null muxer so all filters run.
func (p Plan) Args(inv Invocation) []string {
	binary := strings.TrimSpace(inv.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	args := []string{binary, "-nostdin", "-hide_banner", "-nostats", "-t", FormatSeconds(p.Duration)}
	args = append(args, inv.InputOptions...)
	args = append(args, "-i", inv.URL, "-filter_complex", p.Graph())
	for _, v := range p.variants {
		args = append(args, "-map", "["+v.label()+"]", "-f", "null", "-")
	}
	return args
}

// FormatSeconds renders a duration in seconds without trailing zeros.
func FormatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}

// ClampDuration returns the analysis duration for a track: at least minLen,
// and for network sources at most maxLen. Unknown (negative) durations become
// minLen.
func ClampDuration(duration, minLen, maxLen float64, local bool) float64 {
	if duration < minLen {
		duration = minLen
	}
	if !local && maxLen > 0 && duration > maxLen {
		duration = maxLen
	}
	return duration
}
