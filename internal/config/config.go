package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Probe contains settings for protocol racing with ffprobe.
type Probe struct {
	FFprobeBinary         string   `toml:"ffprobe_binary" env:"AUPROBE_FFPROBE"`
	FFmpegBinary          string   `toml:"ffmpeg_binary" env:"AUPROBE_FFMPEG"`
	InputOptions          []string `toml:"input_options"`
	RepeatTimes           int      `toml:"repeat_times" env:"AUPROBE_REPEAT_TIMES"`
	TimeoutSeconds        float64  `toml:"timeout_seconds" env:"AUPROBE_TIMEOUT"`
	RetryTimes            int      `toml:"retry_times" env:"AUPROBE_RETRY_TIMES"`
	TimeoutGrowth         float64  `toml:"timeout_growth"`
	FailurePenaltySeconds float64  `toml:"failure_penalty_seconds"`
	ForceProto            bool     `toml:"force_proto" env:"AUPROBE_FORCE_PROTO"`
}

// Analysis contains settings for the volume and loudness measurement pass.
type Analysis struct {
	Enabled        bool    `toml:"enabled"`
	MinLen         float64 `toml:"min_len"`
	MaxLen         float64 `toml:"max_len"`
	TimeoutSeconds float64 `toml:"timeout_seconds"`
	TargetLUFS     float64 `toml:"target_lufs"`
	UpperLUFS      float64 `toml:"upper_lufs"`
	LowerLUFS      float64 `toml:"lower_lufs"`
	BalanceDB      float64 `toml:"balance_db"`
	QuietDB        float64 `toml:"quiet_db"`
	CeilingDB      float64 `toml:"ceiling_db"`
}

// Batch contains settings for running many sessions at once.
type Batch struct {
	Concurrency     int     `toml:"concurrency" env:"AUPROBE_BATCH_CONCURRENCY"`
	StartsPerSecond float64 `toml:"starts_per_second"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format" env:"AUPROBE_LOG_FORMAT"`
	Level  string `toml:"level" env:"AUPROBE_LOG_LEVEL"`
	Dir    string `toml:"dir" env:"AUPROBE_LOG_DIR"`
}

// Config encapsulates all configuration values for auprobe.
//
// Configuration sections by subsystem:
//   - Probe: ffprobe/ffmpeg binaries and protocol racing knobs
//   - Analysis: duration clamping, loudness targets, anomaly thresholds
//   - Batch: session-level concurrency and start rate
//   - Logging: log format, level, and optional log directory
type Config struct {
	Probe    Probe    `toml:"probe"`
	Analysis Analysis `toml:"analysis"`
	Batch    Batch    `toml:"batch"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. Environment
// overrides are applied after the file. The returned config has all path
// fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func applyEnv(cfg *Config) error {
	if info, err := os.Stat(dotEnvFile); err == nil && !info.IsDir() {
		if err := godotenv.Load(dotEnvFile); err != nil {
			return fmt.Errorf("load %s: %w", dotEnvFile, err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigFile)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// ProbeTimeout returns the base per-attempt probe timeout.
func (c *Config) ProbeTimeout() time.Duration {
	return seconds(c.Probe.TimeoutSeconds)
}

// FailurePenalty returns the timing recorded for a repetition whose attempts all failed.
func (c *Config) FailurePenalty() time.Duration {
	return seconds(c.Probe.FailurePenaltySeconds)
}

// AnalysisTimeout returns the configured analysis timeout, or zero when it
// should be derived from the tested duration.
func (c *Config) AnalysisTimeout() time.Duration {
	return seconds(c.Analysis.TimeoutSeconds)
}

func seconds(value float64) time.Duration {
	if value <= 0 {
		return 0
	}
	return time.Duration(value * float64(time.Second))
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}
