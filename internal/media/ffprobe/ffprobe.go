package ffprobe

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index      *int   `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Profile    string `json:"profile"`
	Duration   Number `json:"duration"`
	BitRate    Number `json:"bit_rate"`
	SampleRate Number `json:"sample_rate"`
	Channels   Number `json:"channels"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	FormatName string `json:"format_name"`
	Duration   Number `json:"duration"`
	BitRate    Number `json:"bit_rate"`
}

// Number holds the textual form of a numeric ffprobe field. ffprobe prints
// most numbers as JSON strings ("44100", "12.345000") but some as bare
// numbers; both decode here. An absent field is the empty Number.
type Number string

// UnmarshalJSON accepts a JSON string, number, or null.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		*n = ""
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Number(strings.TrimSpace(s))
		return nil
	default:
		var num json.Number
		if err := json.Unmarshal(data, &num); err != nil {
			return fmt.Errorf("ffprobe number: %w", err)
		}
		*n = Number(num.String())
		return nil
	}
}

// Present reports whether the field carried a value.
func (n Number) Present() bool {
	return strings.TrimSpace(string(n)) != ""
}

// Float returns the parsed value, or ok=false when absent or unparseable.
func (n Number) Float() (float64, bool) {
	cleaned := strings.TrimSpace(string(n))
	if cleaned == "" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0, false
	}
	return parsed, true
}

// Int returns the value truncated toward zero, so "128000.7" yields 128000.
func (n Number) Int() (int64, bool) {
	value, ok := n.Float()
	if !ok {
		return 0, false
	}
	return int64(value), true
}

// AudioStreams returns the streams whose codec type is audio, in probe order.
func (r Result) AudioStreams() []Stream {
	streams := make([]Stream, 0, len(r.Streams))
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			streams = append(streams, stream)
		}
	}
	return streams
}

// Parse decodes ffprobe JSON output. Output without a streams array is
// rejected; an empty array is valid.
func Parse(data []byte) (Result, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Result{}, errors.New("ffprobe parse: empty output")
	}
	var envelope struct {
		Streams *[]Stream `json:"streams"`
		Format  Format    `json:"format"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	if envelope.Streams == nil {
		return Result{}, errors.New("ffprobe parse: missing streams array")
	}
	return Result{Streams: *envelope.Streams, Format: envelope.Format}, nil
}

// Args builds the ffprobe command line that reports format and stream
// metadata for url as JSON. The url follows "--" so a path starting with a
// dash is never read as an option.
func Args(binary string, url string, inputOptions []string) []string {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	args := make([]string, 0, len(inputOptions)+8)
	args = append(args, binary, "-v", "error", "-hide_banner", "-show_entries", "format:stream", "-print_format", "json")
	args = append(args, inputOptions...)
	args = append(args, "--", url)
	return args
}
