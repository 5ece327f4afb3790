package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeProbe()
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	if c.Batch.Concurrency <= 0 {
		c.Batch.Concurrency = defaultBatchConcurrency
	}
	return nil
}

func (c *Config) normalizeProbe() {
	c.Probe.FFprobeBinary = strings.TrimSpace(c.Probe.FFprobeBinary)
	if c.Probe.FFprobeBinary == "" {
		c.Probe.FFprobeBinary = defaultFFprobeBinary
	}
	c.Probe.FFmpegBinary = strings.TrimSpace(c.Probe.FFmpegBinary)
	if c.Probe.FFmpegBinary == "" {
		c.Probe.FFmpegBinary = defaultFFmpegBinary
	}
	opts := make([]string, 0, len(c.Probe.InputOptions))
	for _, opt := range c.Probe.InputOptions {
		if trimmed := strings.TrimSpace(opt); trimmed != "" {
			opts = append(opts, trimmed)
		}
	}
	c.Probe.InputOptions = opts
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	var err error
	if c.Logging.Dir, err = expandPath(strings.TrimSpace(c.Logging.Dir)); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	return nil
}
