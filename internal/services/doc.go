// Package services defines shared utilities consumed by the probing session
// and its collaborators.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, source URLs, and protocol names
//     for logging and tracing.
//   - Structured error markers plus the Wrap helper so callers can tell a
//     fatal source failure from a recoverable per-protocol failure.
//
// Use these helpers when wiring new probing logic so operational behaviour
// (error classification, observability) stays uniform across components.
package services
