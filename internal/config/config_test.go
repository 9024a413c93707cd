package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("AMQKILL_HOME_DIR", t.TempDir())
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeoutSeconds, cfg.Jolokia.TimeoutSeconds)
	assert.Equal(t, DefaultVaultBackend, cfg.Vault.Backend)
	assert.Empty(t, cfg.Problems())
}

func TestLoad_MergesFileOverDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("AMQKILL_HOME_DIR", home)
	body := "jolokia:\n  username: admin\n  password_secret: broker-admin\n  timeout_seconds: 5\n"
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte(body), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "admin", cfg.Jolokia.Username)
	assert.Equal(t, "broker-admin", cfg.Jolokia.PasswordSecret)
	assert.Equal(t, 5*time.Second, cfg.Jolokia.Timeout())
	assert.Equal(t, DefaultVaultBackend, cfg.Vault.Backend)
}

func TestLoad_InvalidYAML(t *testing.T) {
	home := t.TempDir()
	t.Setenv("AMQKILL_HOME_DIR", home)
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte("jolokia: ["), 0o600))
	_, err := Load()
	require.Error(t, err)
}

func TestSave_RoundTrip(t *testing.T) {
	t.Setenv("AMQKILL_HOME_DIR", filepath.Join(t.TempDir(), "nested"))
	cfg := defaults()
	cfg.Jolokia.Username = "ops"
	p, err := Save(cfg)
	require.NoError(t, err)
	assert.FileExists(t, p)

	got, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ops", got.Jolokia.Username)
}

func TestProblems(t *testing.T) {
	cfg := defaults()
	cfg.Jolokia.Password = "x"
	cfg.Jolokia.PasswordSecret = "y"
	cfg.Vault.Backend = "yubikey"
	problems := cfg.Problems()
	assert.Len(t, problems, 3)
}
