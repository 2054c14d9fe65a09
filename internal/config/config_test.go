package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 30*time.Second, cfg.Preview.LengthDuration())
	assert.Equal(t, "speaker", cfg.Audio.Backend)
}

func TestLoadFromAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[preview]
default_start = 12.5

[audio]
backend = "headless"

[log]
level = "debug"
format = "json"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Preview.Length)
	assert.Equal(t, 12500*time.Millisecond, cfg.Preview.DefaultStartDuration())
	assert.Equal(t, "headless", cfg.Audio.Backend)
	assert.Equal(t, 44100, cfg.Audio.SampleRate)
	assert.Equal(t, 15, cfg.Storage.HTTPTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[audio]\nbackend = \"speaker\"\n"), 0o644))

	t.Setenv("PRELISTEN_AUDIO_BACKEND", "headless")
	t.Setenv("PRELISTEN_PREVIEW_LENGTH", "45")
	t.Setenv("PRELISTEN_CATALOG_PATH", "/tmp/tracks.yaml")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "headless", cfg.Audio.Backend)
	assert.Equal(t, 45*time.Second, cfg.Preview.LengthDuration())
	assert.Equal(t, "/tmp/tracks.yaml", cfg.Catalog.Path)
}

func TestLoadSearchesXDG(t *testing.T) {
	home := t.TempDir()
	xdg := filepath.Join(home, "xdg")
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", xdg)

	require.NoError(t, os.MkdirAll(filepath.Join(xdg, "prelisten"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(xdg, "prelisten", "config.toml"),
		[]byte("[tui]\ntheme = \"dark\"\n"), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dark", cfg.TUI.Theme)
	assert.Equal(t, filepath.Join(xdg, "prelisten", "config.toml"), Path())

	// ~/.prelistenrc wins over the XDG file.
	require.NoError(t, os.WriteFile(filepath.Join(home, ".prelistenrc"), []byte("[tui]\ntheme = \"light\"\n"), 0o644))
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "light", cfg.TUI.Theme)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.Preview.Length = 20
	cfg.Storage.GCSCredentialsFile = "/secrets/sa.json"

	require.NoError(t, Save(cfg, path))
	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 20, loaded.Preview.Length)
	assert.Equal(t, "/secrets/sa.json", loaded.Storage.GCSCredentialsFile)
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := Default()
	cfg.Audio.Backend = "cassette"
	cfg.Log.Level = "loud"
	cfg.Preview.Length = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "audio: invalid backend: cassette")
	assert.Contains(t, err.Error(), "log: invalid log level: loud")
	assert.Contains(t, err.Error(), "preview: length must be positive")
}
