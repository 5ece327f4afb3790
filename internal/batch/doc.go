// Package batch runs independent probing sessions for many sources with a
// bounded worker pool and a paced session start rate, and writes their
// outcomes as JSON lines.
package batch
