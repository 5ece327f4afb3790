// Package source parses media source locations and enumerates the transport
// protocols worth racing for them.
//
// A location without "://" is a local file. Network locations are split into
// a scheme and a remainder so the same stream can be re-addressed over an
// equivalent protocol (rtsp and mmsh for mms streams, http and mmsh for http).
package source
