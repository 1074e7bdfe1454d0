package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sant0-9/promptfmt/internal/theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromMissing(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.SetPath(path)
	cfg.Provider = "groq"
	cfg.APIKey = "gsk-test"
	cfg.Model = "llama-3.1-8b-instant"
	cfg.ContextStyle = "Technical"
	require.NoError(t, cfg.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "groq", loaded.Provider)
	assert.Equal(t, "gsk-test", loaded.APIKey)
	assert.Equal(t, "llama-3.1-8b-instant", loaded.Model)
	assert.Equal(t, "Technical", loaded.ContextStyle)
	assert.Equal(t, 0.2, loaded.Temperature)
	assert.Equal(t, 8192, loaded.MaxTokens)
}

func TestLoadFromFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: ollama\n"), 0600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.Model)
	assert.Equal(t, "Professional", cfg.ContextStyle)
}

func TestLoadFromKeepsZeroTemperature(t *testing.T) {
	dir := t.TempDir()

	explicit := filepath.Join(dir, "explicit.yaml")
	require.NoError(t, os.WriteFile(explicit, []byte("provider: ollama\ntemperature: 0\n"), 0600))
	cfg, err := LoadFrom(explicit)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.Temperature)

	cfg.SetPath(filepath.Join(dir, "saved.yaml"))
	require.NoError(t, cfg.Save())
	saved, err := LoadFrom(filepath.Join(dir, "saved.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 0.0, saved.Temperature)

	unset := filepath.Join(dir, "unset.yaml")
	require.NoError(t, os.WriteFile(unset, []byte("provider: ollama\n"), 0600))
	cfg, err = LoadFrom(unset)
	require.NoError(t, err)
	assert.Equal(t, 0.2, cfg.Temperature)
}

func TestLoadFromEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: gemini\napi_key: from-file\n"), 0600))
	t.Setenv("PROMPTFMT_API_KEY", "from-env")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.APIKey)
}

func TestSaveTheme(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.SetPath(path)

	var store theme.Store = cfg
	m := theme.NewManager(theme.Light, store)

	for _, want := range []theme.Theme{theme.Dark, theme.Light} {
		got, err := m.Toggle()
		require.NoError(t, err)
		assert.Equal(t, want, got)

		loaded, err := LoadFrom(path)
		require.NoError(t, err)
		assert.Equal(t, string(want), loaded.Theme)
	}
}

func TestFormatsPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FormatsDir = "/srv/formats"
	got, err := cfg.FormatsPath()
	require.NoError(t, err)
	assert.Equal(t, "/srv/formats", got)

	t.Setenv("HOME", t.TempDir())
	cfg.FormatsDir = ""
	got, err = cfg.FormatsPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(os.Getenv("HOME"), ".config", "promptfmt", "formats"), got)
}

func TestGetProvider(t *testing.T) {
	p := GetProvider("gemini")
	require.NotNil(t, p)
	assert.True(t, p.NeedsAPIKey)
	assert.Equal(t, "gemini-2.5-flash", p.DefaultModel)

	assert.Nil(t, GetProvider("nope"))
	assert.Equal(t, 0, ProviderIndex("nope"))
	assert.Equal(t, 1, ProviderIndex("ollama"))
}
