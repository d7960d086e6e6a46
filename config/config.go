package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

type Config struct {
	LogLines       int    `json:"log_lines"`
	PacketLines    int    `json:"packet_lines"`
	LogsDir        string `json:"logs_dir"`
	RecentDir      string `json:"recent_dir"`
	CapturesDir    string `json:"captures_dir"`
	PollIntervalMs int    `json:"poll_interval_ms"`
	BufferSize     int    `json:"buffer_size"`
	DefaultProfile string `json:"default_profile"`
}

func Default() *Config {
	return &Config{
		LogLines:       1000,
		PacketLines:    200,
		LogsDir:        "logs",
		RecentDir:      "recent",
		CapturesDir:    "captures",
		PollIntervalMs: 200,
		BufferSize:     2048,
	}
}

// PollInterval is the receive loop's read deadline.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		// Try default locations
		defaultPaths := []string{
			"netassist.json",
			".netassist.json",
			filepath.Join(os.Getenv("HOME"), ".config", "netassist", "config.json"),
		}

		for _, p := range defaultPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}

		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Apply defaults for any zero values
	def := Default()
	if cfg.LogLines <= 0 {
		cfg.LogLines = def.LogLines
	}
	if cfg.PacketLines <= 0 {
		cfg.PacketLines = def.PacketLines
	}
	if cfg.LogsDir == "" {
		cfg.LogsDir = def.LogsDir
	}
	if cfg.RecentDir == "" {
		cfg.RecentDir = def.RecentDir
	}
	if cfg.CapturesDir == "" {
		cfg.CapturesDir = def.CapturesDir
	}
	if cfg.PollIntervalMs <= 0 {
		cfg.PollIntervalMs = def.PollIntervalMs
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}

	return cfg, nil
}
