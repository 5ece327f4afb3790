// Command auprobe selects the best protocol and audio track of a media
// source and measures its volume and loudness.
//
// Commands:
//   - probe: full session with loudness analysis and output directives
//   - select: protocol race and best track only
//   - batch: many sources from a file, written as JSON lines
//   - deps: report ffprobe/ffmpeg availability
//   - config: init, show, and validate configuration
//
// Results go to stdout as a table on a terminal and as JSON otherwise; logs
// go to stderr.
package main
