package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modcalc/config"
	"modcalc/modulation"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8073", cfg.Server.Listen)
	assert.True(t, cfg.MetricsEnabled())
	assert.Equal(t, "BPSK", cfg.Session.DefaultVariant)
	assert.False(t, cfg.FEC.Enabled)
	assert.Equal(t, 188, cfg.FEC.DataBytes)
	assert.Equal(t, 16, cfg.FEC.ParityBytes)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  listen: ":9000"
  metrics: false
session:
  default_variant: FSK
fec:
  enabled: true
`)
	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Listen)
	assert.False(t, cfg.MetricsEnabled())
	assert.Equal(t, "FSK", cfg.Session.DefaultVariant)
	assert.True(t, cfg.FEC.Enabled)
	assert.Equal(t, 188, cfg.FEC.DataBytes)
	assert.Equal(t, 16, cfg.FEC.ParityBytes)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = config.LoadConfig(writeConfig(t, "server: [unterminated"))
	assert.Error(t, err)

	_, err = config.LoadConfig(writeConfig(t, "session:\n  default_variant: QAM\n"))
	assert.ErrorIs(t, err, modulation.ErrUnknownVariant)

	_, err = config.LoadConfig(writeConfig(t, "fec:\n  parity_bytes: -2\n"))
	assert.Error(t, err)

	_, err = config.LoadConfig(writeConfig(t, "fec:\n  data_bytes: 250\n  parity_bytes: 16\n"))
	assert.Error(t, err)
}
