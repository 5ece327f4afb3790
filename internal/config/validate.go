package config

import (
	"fmt"

	"auprobe/internal/media/runner"
	"auprobe/internal/services"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateProbe(); err != nil {
		return err
	}
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateProbe() error {
	if err := ensurePositiveMap(map[string]int{
		"probe.repeat_times": c.Probe.RepeatTimes,
		"probe.retry_times":  c.Probe.RetryTimes,
	}); err != nil {
		return err
	}
	if c.Probe.TimeoutSeconds <= 0 {
		return invalid("probe.timeout_seconds must be positive")
	}
	if c.Probe.TimeoutGrowth < 0 {
		return invalid("probe.timeout_growth must not be negative")
	}
	// The slowest successful repetition times out on every retry but the last.
	budget := runner.RetryBudget(c.ProbeTimeout(), c.Probe.TimeoutGrowth, c.Probe.RetryTimes)
	if c.FailurePenalty() <= budget {
		return invalid(fmt.Sprintf("probe.failure_penalty_seconds must be greater than %gs, the longest successful repetition", budget.Seconds()))
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	a := c.Analysis
	if a.MinLen <= 0 {
		return invalid("analysis.min_len must be positive")
	}
	if a.MaxLen < a.MinLen {
		return invalid("analysis.max_len must be at least analysis.min_len")
	}
	if a.TimeoutSeconds < 0 {
		return invalid("analysis.timeout_seconds must not be negative")
	}
	if a.LowerLUFS > a.UpperLUFS {
		return invalid("analysis.lower_lufs must not exceed analysis.upper_lufs")
	}
	if a.TargetLUFS < a.LowerLUFS || a.TargetLUFS > a.UpperLUFS {
		return invalid("analysis.target_lufs must lie between analysis.lower_lufs and analysis.upper_lufs")
	}
	if a.BalanceDB <= 0 {
		return invalid("analysis.balance_db must be positive")
	}
	return nil
}

func (c *Config) validateBatch() error {
	if c.Batch.StartsPerSecond < 0 {
		return invalid("batch.starts_per_second must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return invalid(fmt.Sprintf("logging.level: unsupported value %q", c.Logging.Level))
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return invalid(key + " must be positive")
		}
	}
	return nil
}

func invalid(message string) error {
	return services.Wrap(services.ErrConfiguration, "validate config", message, nil)
}
