package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() Config {
	var cfg Config
	cfg.App.Port = 48620
	cfg.App.DataDir = "/tmp/vb"
	cfg.Feed.URL = "https://feeds.example.org/jobs.json"
	return cfg
}

func TestNormalizeDefaults(t *testing.T) {
	out, res := NormalizeAndValidate(baseConfig())
	require.True(t, res.OK(), "errors: %v", res.Errors)

	assert.Equal(t, 15, out.Feed.TimeoutSeconds)
	assert.Equal(t, 1500, out.Feed.RetryDelayMS)
	assert.Equal(t, 300, out.Refresh.IntervalSeconds)
	assert.Equal(t, 5, out.Outbox.WritesPerSecond)
	assert.Equal(t, 10, out.Undo.WindowSeconds)
	assert.Equal(t, "/v1/state", out.Sink.StatePath)
	assert.Equal(t, "/v1/events", out.Sink.EventsPath)
}

func TestValidationErrors(t *testing.T) {
	cfg := baseConfig()
	cfg.App.Port = 0
	cfg.Feed.URL = "not a url"
	cfg.Sink.BaseURL = "ftp://wrong"

	_, res := NormalizeAndValidate(cfg)
	require.False(t, res.OK())
	assert.Len(t, res.Errors, 3)
}

func TestEmptySinkIsWarningOnly(t *testing.T) {
	_, res := NormalizeAndValidate(baseConfig())
	assert.True(t, res.OK())
	assert.NotEmpty(t, res.Warnings)
}

func TestSaveAtomicRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")

	cfg := baseConfig()
	require.NoError(t, SaveAtomic(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.App.Port, loaded.App.Port)
	assert.Equal(t, cfg.Feed.URL, loaded.Feed.URL)

	// second save keeps the previous file as .bak
	cfg.App.Port = 48621
	require.NoError(t, SaveAtomic(path, cfg))
	_, err = os.Stat(path + ".bak")
	assert.NoError(t, err)

	// invalid config never reaches disk
	bad := cfg
	bad.App.Port = -1
	require.Error(t, SaveAtomic(path, bad))
	loaded, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 48621, loaded.App.Port)
}

func TestEnsureUserConfigSeedsOnce(t *testing.T) {
	dir := t.TempDir()
	def := filepath.Join(dir, "default.yml")
	require.NoError(t, os.WriteFile(def, []byte("app:\n  port: 48620\n"), 0o644))

	dataDir := filepath.Join(dir, "data")
	p, err := EnsureUserConfig(dataDir, def)
	require.NoError(t, err)

	// user edits survive later bootstraps
	require.NoError(t, os.WriteFile(p, []byte("app:\n  port: 1234\n"), 0o644))
	p2, err := EnsureUserConfig(dataDir, def)
	require.NoError(t, err)
	require.Equal(t, p, p2)

	cfg, err := Load(p2)
	require.NoError(t, err)
	assert.Equal(t, 1234, cfg.App.Port)
}
