package audio

import (
	"fmt"
	"strings"

	"auprobe/internal/media/ffprobe"
)

// Unknown marks a numeric track field that ffprobe did not report.
const Unknown = -1

// Track describes one audio stream exposed by a source.
type Track struct {
	Index      int     `json:"index"`
	Codec      string  `json:"codec"`
	Profile    string  `json:"profile"`
	BitRate    int64   `json:"bit_rate"`
	SampleRate int64   `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Duration   float64 `json:"duration"`
	FormatName string  `json:"format_name"`
}

// Label returns a compact human-readable summary of the track.
func (t Track) Label() string {
	parts := []string{fmt.Sprintf("#%d", t.Index)}
	if t.Codec != "" {
		parts = append(parts, t.Codec)
	}
	if t.Profile != "" {
		parts = append(parts, t.Profile)
	}
	if t.Channels > 0 {
		parts = append(parts, fmt.Sprintf("%dch", t.Channels))
	}
	if t.BitRate > 0 {
		parts = append(parts, fmt.Sprintf("%dkbps", t.BitRate/1000))
	}
	if t.Duration >= 0 {
		parts = append(parts, fmt.Sprintf("%.1fs", t.Duration))
	}
	return strings.Join(parts, " ")
}

// Catalog returns the audio tracks of result keyed by stream index. Streams
// sharing an index keep the first occurrence; a stream without an index is
// keyed by Unknown.
func Catalog(result ffprobe.Result) map[int]Track {
	tracks := make(map[int]Track)
	formatDuration := floatOrUnknown(result.Format.Duration)
	for _, stream := range result.AudioStreams() {
		track := Track{
			Index:      Unknown,
			Codec:      strings.TrimSpace(stream.CodecName),
			Profile:    strings.TrimSpace(stream.Profile),
			BitRate:    intOrUnknown(stream.BitRate),
			SampleRate: intOrUnknown(stream.SampleRate),
			Channels:   int(intOrUnknown(stream.Channels)),
			Duration:   floatOrUnknown(stream.Duration),
			FormatName: strings.TrimSpace(result.Format.FormatName),
		}
		if stream.Index != nil {
			track.Index = *stream.Index
		}
		if track.Duration == Unknown {
			track.Duration = formatDuration
		}
		if _, exists := tracks[track.Index]; exists {
			continue
		}
		tracks[track.Index] = track
	}
	return tracks
}

func intOrUnknown(n ffprobe.Number) int64 {
	value, ok := n.Int()
	if !ok {
		return Unknown
	}
	return value
}

func floatOrUnknown(n ffprobe.Number) float64 {
	value, ok := n.Float()
	if !ok {
		return Unknown
	}
	return value
}
