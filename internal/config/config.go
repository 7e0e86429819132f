// Package config loads the single Config struct this runtime is driven
// from: pool sizing, engine timeouts, resilience tuning, persisted-state
// paths, profile/artifact directories, the approval cascade, and logging.
// Modelled on the teacher's internal/config: YAML via gopkg.in/yaml.v3 with
// os.ExpandEnv pre-expansion, env var overrides applied after the YAML
// decode, defaults filled in afterward, and a Validate pass before the
// caller is handed a usable *Config.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for the browser-automation runtime.
type Config struct {
	Pool       PoolConfig       `yaml:"pool"`
	Engine     EngineConfig     `yaml:"engine"`
	Resilience ResilienceConfig `yaml:"resilience"`
	Store      StoreConfig      `yaml:"store"`
	Artifacts  ArtifactsConfig  `yaml:"artifacts"`
	Profiles   ProfilesConfig   `yaml:"profiles"`
	Approval   ApprovalConfig   `yaml:"approval"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// PoolConfig mirrors internal/pool.Config's spec-facing knobs.
type PoolConfig struct {
	MaxContexts        int           `yaml:"max_contexts"`
	HealthInterval     time.Duration `yaml:"health_interval"`
	HealthProbeTimeout time.Duration `yaml:"health_probe_timeout"`
	MaxFailures        int           `yaml:"max_failures"`
	NavTimeout         time.Duration `yaml:"nav_timeout"`
}

// EngineConfig tunes the Action Engine's default retry/timeout behaviour.
type EngineConfig struct {
	DefaultRetries     int           `yaml:"default_retries"`
	ShortTimeout       time.Duration `yaml:"short_timeout"`
	MediumTimeout      time.Duration `yaml:"medium_timeout"`
	LongTimeout        time.Duration `yaml:"long_timeout"`
	ScreenshotOnFailure *bool        `yaml:"screenshot_on_failure"`
}

// ResilienceConfig tunes DOM-stability waits and backoff.
type ResilienceConfig struct {
	StabilityIdleWindow   time.Duration `yaml:"stability_idle_window"`
	StabilityHardDeadline time.Duration `yaml:"stability_hard_deadline"`
	BackoffBase           time.Duration `yaml:"backoff_base"`
	BackoffMax            time.Duration `yaml:"backoff_max"`
}

// StoreConfig configures session/action-log persistence.
type StoreConfig struct {
	// Driver selects "sqlite" (persisted, via BROWSER_STORE_PATH) or "memory".
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// ArtifactsConfig configures screenshot/PDF/artifact retention.
type ArtifactsConfig struct {
	Dir         string `yaml:"dir"`
	MaxSessions int    `yaml:"max_sessions"`
}

// ProfilesConfig configures where persistent browser profile snapshots live.
type ProfilesConfig struct {
	Dir string `yaml:"dir"`
}

// ApprovalConfig configures the request_approval resolution cascade.
type ApprovalConfig struct {
	AutoApprove bool `yaml:"auto_approve"`
}

// LoggingConfig configures internal/logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`

	// Dir is the log output directory. It has no YAML key: spec.md names
	// BROWSER_LOG_DIR as an env-only setting, so it is only ever populated
	// by applyEnvOverrides, never by the config file.
	Dir string `yaml:"-"`
}

// Load reads path, expands environment variables, decodes strict YAML,
// applies env var overrides, fills defaults, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	decoder := yaml.NewDecoder(strings.NewReader(expanded))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := decoder.Decode(new(struct{})); err != io.EOF {
		return nil, fmt.Errorf("parse config: expected a single YAML document")
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides applies the six environment variables spec.md §6 names,
// each taking precedence over whatever the YAML file set.
func applyEnvOverrides(cfg *Config) {
	if value := strings.TrimSpace(os.Getenv("BROWSER_AUTO_APPROVE")); value != "" {
		cfg.Approval.AutoApprove = value == "1"
	}
	if value := strings.TrimSpace(os.Getenv("BROWSER_PROFILES_DIR")); value != "" {
		cfg.Profiles.Dir = value
	}
	if value := strings.TrimSpace(os.Getenv("BROWSER_ARTIFACTS_DIR")); value != "" {
		cfg.Artifacts.Dir = value
	}
	if value := strings.TrimSpace(os.Getenv("BROWSER_STORE_PATH")); value != "" {
		cfg.Store.Path = value
	}
	if value := strings.TrimSpace(os.Getenv("BROWSER_LOG_DIR")); value != "" {
		cfg.Logging.Dir = value
	}
	if value := strings.TrimSpace(os.Getenv("LOG_LEVEL")); value != "" {
		cfg.Logging.Level = value
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Pool.MaxContexts == 0 {
		cfg.Pool.MaxContexts = 5
	}
	if cfg.Pool.HealthInterval == 0 {
		cfg.Pool.HealthInterval = 30 * time.Second
	}
	if cfg.Pool.HealthProbeTimeout == 0 {
		cfg.Pool.HealthProbeTimeout = 5 * time.Second
	}
	if cfg.Pool.MaxFailures == 0 {
		cfg.Pool.MaxFailures = 3
	}
	if cfg.Pool.NavTimeout == 0 {
		cfg.Pool.NavTimeout = 30 * time.Second
	}

	if cfg.Engine.DefaultRetries == 0 {
		cfg.Engine.DefaultRetries = 3
	}
	if cfg.Engine.ShortTimeout == 0 {
		cfg.Engine.ShortTimeout = 5 * time.Second
	}
	if cfg.Engine.MediumTimeout == 0 {
		cfg.Engine.MediumTimeout = 15 * time.Second
	}
	if cfg.Engine.LongTimeout == 0 {
		cfg.Engine.LongTimeout = 45 * time.Second
	}
	if cfg.Engine.ScreenshotOnFailure == nil {
		enabled := true
		cfg.Engine.ScreenshotOnFailure = &enabled
	}

	if cfg.Resilience.StabilityIdleWindow == 0 {
		cfg.Resilience.StabilityIdleWindow = 200 * time.Millisecond
	}
	if cfg.Resilience.StabilityHardDeadline == 0 {
		cfg.Resilience.StabilityHardDeadline = 5 * time.Second
	}
	if cfg.Resilience.BackoffBase == 0 {
		cfg.Resilience.BackoffBase = 100 * time.Millisecond
	}
	if cfg.Resilience.BackoffMax == 0 {
		cfg.Resilience.BackoffMax = 10 * time.Second
	}

	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "sqlite"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "browseragent.db"
	}

	if cfg.Artifacts.Dir == "" {
		cfg.Artifacts.Dir = "artifacts"
	}
	if cfg.Artifacts.MaxSessions == 0 {
		cfg.Artifacts.MaxSessions = 100
	}

	if cfg.Profiles.Dir == "" {
		cfg.Profiles.Dir = "profiles"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// ValidationError collects every validation failure so a misconfigured
// deployment reports everything wrong in one pass, not one field at a time.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return "config validation failed:\n- " + strings.Join(e.Issues, "\n- ")
}

// Validate checks invariants that applyDefaults cannot enforce by itself
// (ranges, enums, cross-field constraints).
func (cfg *Config) Validate() error {
	var issues []string

	if cfg.Pool.MaxContexts <= 0 {
		issues = append(issues, "pool.max_contexts must be > 0")
	}
	if cfg.Pool.MaxFailures <= 0 {
		issues = append(issues, "pool.max_failures must be > 0")
	}
	if cfg.Engine.DefaultRetries < 0 {
		issues = append(issues, "engine.default_retries must be >= 0")
	}
	if cfg.Artifacts.MaxSessions <= 0 {
		issues = append(issues, "artifacts.max_sessions must be > 0")
	}
	if !validStoreDriver(cfg.Store.Driver) {
		issues = append(issues, `store.driver must be "sqlite" or "memory"`)
	}
	if !validLogLevel(cfg.Logging.Level) {
		issues = append(issues, `logging.level must be "debug", "info", "warn", or "error"`)
	}
	if !validLogFormat(cfg.Logging.Format) {
		issues = append(issues, `logging.format must be "json" or "text"`)
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

func validStoreDriver(s string) bool {
	return s == "sqlite" || s == "memory"
}

func validLogLevel(s string) bool {
	switch strings.ToLower(s) {
	case "debug", "info", "warn", "warning", "error":
		return true
	default:
		return false
	}
}

func validLogFormat(s string) bool {
	return s == "json" || s == "text"
}

