package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	content := "base_url: https://advisor.example.com\ntimeout: 10s\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://advisor.example.com", cfg.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	content := "base_url: https://file.example.com\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))

	t.Setenv("CARDADVISOR_BASE_URL", "https://env.example.com")
	t.Setenv("CARDADVISOR_TIMEOUT", "5s")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(":\tnot yaml"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := &Config{BaseURL: "https://advisor.example.com", Timeout: 42 * time.Second}
	require.NoError(t, Save(dir, want))

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, want.BaseURL, got.BaseURL)
	assert.Equal(t, want.Timeout, got.Timeout)
}
