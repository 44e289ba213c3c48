package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1144, cfg.Benchmark.Port)
	assert.Equal(t, 1144, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Benchmark.TranscodeTime.Duration)
	assert.Equal(t, "checksum", cfg.Server.Mode)
	assert.Equal(t, 0, cfg.Server.MaxConnections)
	assert.Equal(t, "ffmpeg", cfg.Transcode.FFmpegPath)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
benchmark:
  files:
    - "media/**/*.mkv"
  iterations: 10
  transcode_time: 1m30s
  remote_addr: "192.168.1.20"
server:
  port: 2288
  mode: echo
  max_connections: 64
  metrics_addr: ":9090"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"media/**/*.mkv"}, cfg.Benchmark.Files)
	assert.Equal(t, 10, cfg.Benchmark.Iterations)
	assert.Equal(t, 90*time.Second, cfg.Benchmark.TranscodeTime.Duration)
	assert.Equal(t, "192.168.1.20", cfg.Benchmark.RemoteAddr)
	assert.Equal(t, 2288, cfg.Server.Port)
	assert.Equal(t, "echo", cfg.Server.Mode)
	assert.Equal(t, 64, cfg.Server.MaxConnections)
	assert.Equal(t, ":9090", cfg.Server.MetricsAddr)

	// Untouched sections keep defaults.
	assert.Equal(t, 1144, cfg.Benchmark.Port)
	assert.Equal(t, "ffmpeg", cfg.Transcode.FFmpegPath)
}

func TestLoadInvalidDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("benchmark:\n  transcode_time: nonsense\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
