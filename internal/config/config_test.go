package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_AppliesDefaultsWhenFieldsOmitted(t *testing.T) {
	path := writeConfig(t, "pool:\n  max_contexts: 2\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, cfg.Pool.MaxContexts)
	require.Equal(t, 30*time.Second, cfg.Pool.HealthInterval)
	require.Equal(t, 3, cfg.Pool.MaxFailures)
	require.Equal(t, "sqlite", cfg.Store.Driver)
	require.Equal(t, 100, cfg.Artifacts.MaxSessions)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_ExpandsEnvVarsInYAML(t *testing.T) {
	t.Setenv("TEST_STORE_PATH", "/tmp/custom.db")
	path := writeConfig(t, "store:\n  path: ${TEST_STORE_PATH}\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/custom.db", cfg.Store.Path)
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "pool:\n  bogus_field: 1\n")

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_EnvOverridesWinOverYAML(t *testing.T) {
	t.Setenv("BROWSER_AUTO_APPROVE", "1")
	t.Setenv("BROWSER_PROFILES_DIR", "/override/profiles")
	path := writeConfig(t, "approval:\n  auto_approve: false\nprofiles:\n  dir: /yaml/profiles\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.True(t, cfg.Approval.AutoApprove)
	require.Equal(t, "/override/profiles", cfg.Profiles.Dir)
}

func TestLoad_LogLevelEnvOverride(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	path := writeConfig(t, "logging:\n  level: info\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidate_RejectsZeroMaxContexts(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Pool.MaxContexts = 0

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "pool.max_contexts")
}

func TestValidate_RejectsUnknownStoreDriver(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Store.Driver = "postgres"

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "store.driver")
}

func TestValidate_CollectsMultipleIssues(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Pool.MaxContexts = 0
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Issues, 2)
}

func TestLoad_MissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
}
