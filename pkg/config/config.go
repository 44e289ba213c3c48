// Kunhua Huang 2026

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Benchmark BenchmarkConfig `yaml:"benchmark"`
	Server    ServerConfig    `yaml:"server"`
	Transcode TranscodeConfig `yaml:"transcode"`
}

type BenchmarkConfig struct {
	// Files may contain glob patterns (doublestar syntax).
	Files         []string `yaml:"files"`
	Iterations    int      `yaml:"iterations"`
	TranscodeTime Duration `yaml:"transcode_time"`
	Port          int      `yaml:"port"`
	RemoteAddr    string   `yaml:"remote_addr"`
	Protocol      string   `yaml:"protocol"`
}

type ServerConfig struct {
	Port           int    `yaml:"port"`
	Mode           string `yaml:"mode"`
	MaxConnections int    `yaml:"max_connections"`
	MetricsAddr    string `yaml:"metrics_addr"`
}

type TranscodeConfig struct {
	FFmpegPath string `yaml:"ffmpeg_path"`
}

type Duration struct{ time.Duration }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dd, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = dd
	return nil
}

// Default mirrors the original tool's built-in defaults.
func Default() *Config {
	return &Config{
		Benchmark: BenchmarkConfig{
			Iterations:    5,
			TranscodeTime: Duration{30 * time.Second},
			Port:          1144,
			Protocol:      "checksum",
		},
		Server: ServerConfig{
			Port:           1144,
			Mode:           "checksum",
			MaxConnections: 0,
		},
		Transcode: TranscodeConfig{
			FFmpegPath: "ffmpeg",
		},
	}
}

// Load reads path over the defaults; absent fields keep their default
// values.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
