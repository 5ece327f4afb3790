// Package config loads, normalizes, and validates auprobe configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads an optional .env file, and honours
// AUPROBE_* environment overrides. The Config type centralizes every knob the
// CLI and probing sessions need: probe racing, loudness analysis, batch
// throughput, and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized values, canonical log formats, and clear validation errors.
package config
