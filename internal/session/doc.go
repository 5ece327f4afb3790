// Package session orchestrates one probing session for a single source:
// protocol race, best track selection, and the loudness analysis pass.
//
// A Session caches its protocol selection, best track index, and analysis
// report until Invalidate is called. Sessions are not safe for concurrent
// use; run one Session per source and parallelize across sessions.
package session
