// Package audio extracts audio track catalogs from ffprobe output and ranks
// them by quality.
//
// This package depends only on internal/media/ffprobe and could be extracted
// as a standalone library alongside ffprobe.
//
// Ranking favours bit rate, weighted 1.2 for aac and vorbis. Tracks that end
// at least a second before the longest track are treated as truncated and
// score -1 so they only win when nothing else exists.
//
// Key types:
//   - Track: one audio stream's metadata with Unknown (-1) for missing numbers
//
// Primary entry points:
//   - Catalog: builds the index-keyed track map from an ffprobe Result
//   - SelectBest: picks the highest scoring track deterministically
package audio
