package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		want    Config
		wantErr bool
	}{
		{
			name:    "empty_object_gets_defaults",
			content: `{}`,
			want:    *Default(),
		},
		{
			name:    "overrides",
			content: `{"log_lines": 50, "logs_dir": "/tmp/x", "buffer_size": 9000, "default_profile": "lab.lua"}`,
			want: Config{
				LogLines:       50,
				PacketLines:    200,
				LogsDir:        "/tmp/x",
				RecentDir:      "recent",
				CapturesDir:    "captures",
				PollIntervalMs: 200,
				BufferSize:     9000,
				DefaultProfile: "lab.lua",
			},
		},
		{
			name:    "negative_values_fall_back",
			content: `{"log_lines": -1, "poll_interval_ms": -5}`,
			want:    *Default(),
		},
		{
			name:    "bad_json",
			content: `{"log_lines": `,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".json")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}

			cfg, err := Load(path)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Load() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() unexpected error: %v", err)
			}
			if *cfg != tt.want {
				t.Errorf("Load() = %+v, want %+v", *cfg, tt.want)
			}
		})
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("Load() = %+v, want defaults", *cfg)
	}
}

func TestPollInterval(t *testing.T) {
	c := Default()
	if got := c.PollInterval(); got != 200*time.Millisecond {
		t.Errorf("PollInterval() = %v, want 200ms", got)
	}
}
