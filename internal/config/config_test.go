package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "triage.db", cfg.Store.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "anthropic", cfg.Evaluator.Provider)
	assert.Equal(t, 120, cfg.Evaluator.TimeoutSecs)
	assert.Equal(t, 5, cfg.Evaluator.BatchSize)
	assert.Equal(t, 2, cfg.Evaluator.PersonaDelaySecs)
	assert.Equal(t, 14, cfg.Intake.RecencyDays)
	assert.Empty(t, cfg.Intake.Exclusions)
	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.Model)
	assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta", cfg.Gemini.BaseURL)
	assert.Equal(t, 4096, cfg.Telegram.MaxMessageLen)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/triage
log:
  level: debug
  format: console
evaluator:
  provider: gemini
  batch_size: 3
intake:
  feeds:
    - feeds/idealista.json
  exclusions:
    - nuda propiedad
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "gemini", cfg.Evaluator.Provider)
	assert.Equal(t, 3, cfg.Evaluator.BatchSize)
	assert.Equal(t, []string{"feeds/idealista.json"}, cfg.Intake.Feeds)
	assert.Equal(t, []string{"nuda propiedad"}, cfg.Intake.Exclusions)
	// Defaults still apply for unset values
	assert.Equal(t, 120, cfg.Evaluator.TimeoutSecs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
log:
  level: debug
evaluator:
  provider: anthropic
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("CASAWATCH_LOG_LEVEL", "warn")
	t.Setenv("CASAWATCH_EVALUATOR_PROVIDER", "gemini")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "gemini", cfg.Evaluator.Provider)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("CASAWATCH_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config matching the shipped defaults for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.Path = "triage.db"
	cfg.Evaluator.Provider = "anthropic"
	cfg.Evaluator.BatchSize = 5
	cfg.Evaluator.TimeoutSecs = 120
	cfg.Intake.Feeds = []string{"feeds/idealista.json"}
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateEvaluate_AllPresent(t *testing.T) {
	cfg := validDefaults()
	cfg.Anthropic.Key = "sk-ant-key"

	assert.NoError(t, cfg.Validate("evaluate"))
}

func TestValidateEvaluate_MissingProviderKey(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("evaluate")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")

	cfg.Evaluator.Provider = "gemini"
	err = cfg.Validate("evaluate")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "gemini.key is required")
}

func TestValidateEvaluate_UnknownProvider(t *testing.T) {
	cfg := validDefaults()
	cfg.Evaluator.Provider = "openai"

	err := cfg.Validate("evaluate")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "evaluator.provider must be anthropic or gemini")
}

func TestValidateEvaluate_NoFeeds(t *testing.T) {
	cfg := validDefaults()
	cfg.Anthropic.Key = "sk-ant-key"
	cfg.Intake.Feeds = nil

	err := cfg.Validate("evaluate")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "intake.feeds")
}

func TestValidateStore_PostgresNeedsURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Anthropic.Key = "sk-ant-key"
	cfg.Store.Driver = "postgres"
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("evaluate")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.DatabaseURL = "postgres://localhost/triage"
	assert.NoError(t, cfg.Validate("evaluate"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
