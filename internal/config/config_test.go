package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Server.Listen)
	assert.Equal(t, Duration(time.Second), cfg.Send.PacingInterval)
	assert.Equal(t, "uploads", cfg.Send.UploadDir)
	assert.Equal(t, int64(25*1024*1024), cfg.Send.MaxUploadSize)
	assert.Equal(t, 100, cfg.Send.SessionCapacity)
	assert.Equal(t, "none", cfg.Report.Provider)
	assert.False(t, cfg.ReportConfigured())
}

func TestLoadFromFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  listen: ":8080"
  frontend_endpoint: "https://app.example.com"
send:
  pacing_interval: 2s
report:
  provider: ses
  sender: reports@example.com
  aws_region: eu-west-1
`), 0o644))

	t.Setenv("LISTEN_PORT", ":9090")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	// env wins over file, file wins over defaults
	assert.Equal(t, ":9090", cfg.Server.Listen)
	assert.Equal(t, "https://app.example.com", cfg.Server.FrontendEndpoint)
	assert.Equal(t, Duration(2*time.Second), cfg.Send.PacingInterval)
	assert.True(t, cfg.ReportConfigured())
	assert.Equal(t, "eu-west-1", cfg.Report.AWSRegion)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFromFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}
