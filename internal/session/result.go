package session

import (
	"auprobe/internal/media/audio"
	"auprobe/internal/media/loudness"
)

// Result is the record a session produces. Analysis fields are empty for a
// select-only run.
type Result struct {
	audio.Track

	SessionID           string   `json:"session_id"`
	Source              string   `json:"source"`
	URL                 string   `json:"url"`
	SelectedProtocol    string   `json:"selected_protocol"`
	AverageResponseTime float64  `json:"average_response_time"`
	InputOptions        []string `json:"input_options"`

	TestedDuration   float64                                `json:"tested_duration,omitempty"`
	OutputDirectives []string                               `json:"output_directives,omitempty"`
	Volume           map[loudness.Variant]loudness.Volume   `json:"volume,omitempty"`
	Loudness         map[loudness.Variant]loudness.Loudness `json:"loudness,omitempty"`
	AnomalyFlags     *loudness.Flags                        `json:"anomaly_flags,omitempty"`
}

// Analyzed reports whether the loudness pass ran.
func (r Result) Analyzed() bool {
	return r.AnomalyFlags != nil
}
