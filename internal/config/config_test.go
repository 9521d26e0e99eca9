package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp isolates Load from any config/ or .env in the package directory.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv(EnvConfigPath, "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, 3*time.Second, cfg.Status.RecheckInterval)
	assert.False(t, cfg.Generation.TestMode)
}

func TestLoadLayersYAMLThenEnv(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "mystery.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: ":9090"
db:
  driver: SQLite
generation:
  test_mode: true
  webhook_url: https://gen.example.com/hook
status:
  recheck_interval: 10s
app_base_url: https://party.example.com/
`), 0o600))
	t.Setenv(EnvConfigPath, path)
	t.Setenv("GENERATION_WEBHOOK_URL", "https://override.example.com/hook")
	t.Setenv("STATUS_POLL_INTERVAL", "2s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.True(t, cfg.Generation.TestMode)
	assert.Equal(t, "https://override.example.com/hook", cfg.Generation.WebhookURL)
	assert.Equal(t, 10*time.Second, cfg.Status.RecheckInterval)
	assert.Equal(t, 2*time.Second, cfg.Status.PollInterval)
	assert.Equal(t, "https://party.example.com", cfg.AppBaseURL)
	assert.False(t, cfg.PushAvailable())
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GENERATION_TEST_MODE=true\n"), 0o600))
	t.Setenv(EnvConfigPath, "")
	// godotenv never overrides variables that are already set.
	t.Cleanup(func() { _ = os.Unsetenv("GENERATION_TEST_MODE") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Generation.TestMode)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	chdirTemp(t)
	t.Setenv(EnvConfigPath, "/does/not/exist.yaml")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "empty addr", mutate: func(c *Config) { c.HTTP.Addr = "" }},
		{name: "unknown driver", mutate: func(c *Config) { c.DB.Driver = "mysql" }},
		{name: "zero recheck", mutate: func(c *Config) { c.Status.RecheckInterval = 0 }},
		{name: "negative poll", mutate: func(c *Config) { c.Status.PollInterval = -time.Second }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}
