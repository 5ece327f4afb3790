// Package loudness builds the ffmpeg analysis graph for one audio track and
// interprets its output into per-channel volume and loudness, anomaly flags,
// and output directives.
//
// A Plan is an ordered list of filter instances. ffmpeg names parsed filters
// Parsed_<name>_<n> with n the filter's position in the graph, so the same
// Plan that renders the request also maps every volumedetect and ebur128
// report back to its Variant.
//
// Key types:
//   - Variant: Original, Channel(i) or Merged
//   - Plan: filter graph plus (Variant, Stage) slots
//   - Metrics: parsed Volume and Loudness maps
//   - Flags: stereo and level anomalies
//   - Directive: channel remap and gain to apply downstream
package loudness
