// Package ffprobe provides a typed model of ffprobe JSON output and the
// command line used to obtain it.
//
// This package has no auprobe-specific dependencies and could be extracted
// as a standalone library.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual elementary stream properties
//   - Format: container-level metadata (duration, bitrate, format name)
//   - Number: a numeric field that ffprobe may emit as a string or a number
//
// Primary entry points:
//   - Args: builds the ffprobe invocation for a URL
//   - Parse: decodes ffprobe JSON into a Result
package ffprobe
