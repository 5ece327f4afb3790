package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidSource marks a session that cannot continue: the local path is
	// missing or no protocol candidate yielded a usable track set.
	ErrInvalidSource = errors.New("invalid source")
	// ErrProbeFailure marks a single failed or timed-out probe attempt.
	ErrProbeFailure = errors.New("probe failure")
	// ErrMalformedProbeOutput marks ffprobe output that does not decode.
	ErrMalformedProbeOutput = errors.New("malformed probe output")
	// ErrEmptyTrackSet marks a selected protocol that exposes no audio streams.
	ErrEmptyTrackSet = errors.New("empty track set")
	// ErrIncompleteMetrics marks analysis output missing one or more measurements.
	ErrIncompleteMetrics = errors.New("incomplete metrics")
	ErrConfiguration     = errors.New("configuration error")
)

// Wrap builds an error message that includes operation context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, operation, message string, err error) error {
	detail := buildDetail(operation, message)
	if marker == nil {
		marker = ErrProbeFailure
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether err ends a probing session.
func IsFatal(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrProbeFailure), errors.Is(err, ErrMalformedProbeOutput):
		return false
	default:
		return true
	}
}

func buildDetail(operation, message string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "probe failure"
	}
	return strings.Join(parts, ": ")
}
