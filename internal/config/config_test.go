package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(LoadOptions{Dir: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, DefaultWorkers, cfg.Workers)
	assert.Equal(t, 0, cfg.RPM)
	assert.Equal(t, DefaultBatchSize, cfg.BatchSize)
	assert.Equal(t, DefaultModel, cfg.Model)
	assert.Equal(t, DefaultAPIBase, cfg.APIBase)
	assert.Equal(t, DefaultAPIKeyEnv, cfg.APIKeyEnv)
	assert.Equal(t, DefaultResponsePath, cfg.ResponsePath)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, "window", cfg.Pacing)
	assert.Equal(t, 3, cfg.Retry.Attempts)
	assert.Equal(t, time.Second, cfg.Retry.InitialInterval)
	assert.Equal(t, 30*time.Second, cfg.Retry.MaxInterval)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.File)
	assert.Empty(t, cfg.Validate())
}

func TestLoad_ConfigFile(t *testing.T) {
	tests := []struct {
		file    string
		content string
	}{
		{
			file:    "rohan.config.json",
			content: `{"target": "http://api.local:9000", "model": "gpt-4o", "workers": 8, "retry": {"attempts": 5, "initial_interval": "250ms"}}`,
		},
		{
			file: "rohan.config.yaml",
			content: `target: http://api.local:9000
model: gpt-4o
workers: 8
retry:
  attempts: 5
  initial_interval: 250ms
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, tt.file), []byte(tt.content), 0o644))

			cfg, err := Load(LoadOptions{Dir: dir})
			require.NoError(t, err)
			assert.Equal(t, "http://api.local:9000", cfg.Target)
			assert.Equal(t, "gpt-4o", cfg.Model)
			assert.Equal(t, 8, cfg.Workers)
			assert.Equal(t, 5, cfg.Retry.Attempts)
			assert.Equal(t, 250*time.Millisecond, cfg.Retry.InitialInterval)
			assert.Equal(t, 30*time.Second, cfg.Retry.MaxInterval, "unset nested keys keep defaults")
			assert.Equal(t, DefaultBatchSize, cfg.BatchSize)
			assert.Equal(t, tt.file, filepath.Base(cfg.File))
		})
	}
}

func TestLoad_ExplicitConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yml")
	require.NoError(t, os.WriteFile(path, []byte("rpm: 30\npacing: Smooth\n"), 0o644))

	cfg, err := Load(LoadOptions{ConfigFile: path})
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.RPM)
	assert.Equal(t, "smooth", cfg.Pacing)

	_, err = Load(LoadOptions{ConfigFile: filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rohan.config.json"), []byte(`{"workers": `), 0o644))

	_, err := Load(LoadOptions{Dir: dir})
	assert.Error(t, err)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rohan.config.json"),
		[]byte(`{"workers": 8, "rpm": 10, "model": "from-file", "batch_size": 2}`), 0o644))

	t.Setenv("ROHAN_WORKERS", "6")
	t.Setenv("ROHAN_RPM", "20")
	t.Setenv("ROHAN_RETRY_ATTEMPTS", "7")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("workers", 4, "")
	flags.Int("rpm", 0, "")
	flags.String("model", "", "")
	require.NoError(t, flags.Parse([]string{"--workers", "2"}))

	cfg, err := Load(LoadOptions{Dir: dir, Flags: flags})
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Workers, "flag beats env and file")
	assert.Equal(t, 20, cfg.RPM, "env beats file")
	assert.Equal(t, "from-file", cfg.Model, "unset flag does not override file")
	assert.Equal(t, 2, cfg.BatchSize)
	assert.Equal(t, 7, cfg.Retry.Attempts, "nested keys read ROHAN_RETRY_*")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()

	loaded, err := LoadDotEnv(filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.False(t, loaded)

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("ROHAN_TEST_DOTENV_KEY=sk-from-file\nROHAN_TEST_DOTENV_KEEP=file\n"), 0o644))
	t.Setenv("ROHAN_TEST_DOTENV_KEEP", "process")
	t.Cleanup(func() { os.Unsetenv("ROHAN_TEST_DOTENV_KEY") })

	loaded, err = LoadDotEnv(path)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, "sk-from-file", os.Getenv("ROHAN_TEST_DOTENV_KEY"))
	assert.Equal(t, "process", os.Getenv("ROHAN_TEST_DOTENV_KEEP"), "existing variables win")
}

func TestConfig_APIKey(t *testing.T) {
	t.Setenv("ROHAN_TEST_API_KEY", "sk-123")
	cfg := &Config{APIKeyEnv: "ROHAN_TEST_API_KEY"}
	assert.Equal(t, "sk-123", cfg.APIKey())

	cfg.APIKeyEnv = ""
	assert.Empty(t, cfg.APIKey())
}
