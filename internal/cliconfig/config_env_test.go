package cliconfig

import (
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"KEYFRAMER_SOURCE":      "/env/video.mp4",
				"KEYFRAMER_DESTINATION": "/env/kf",
				"KEYFRAMER_METHOD":      "dhash",
				"KEYFRAMER_DISTANCE":    "4",
				"KEYFRAMER_CROPPING":    "10",
				"KEYFRAMER_WORKERS":     "8",
				"KEYFRAMER_DEBOUNCE":    "2s",
				"KEYFRAMER_SAVE_IMAGES": "true",
				"KEYFRAMER_RECURSIVE":   "0",
			},
			changed: map[string]bool{},
			initial: Config{Recursive: true},
			expected: Config{
				Source:          "/env/video.mp4",
				Destination:     "/env/kf",
				Method:          "dhash",
				Distance:        4,
				CroppingPercent: 10,
				Workers:         8,
				Debounce:        2 * time.Second,
				SaveImages:      true,
				Recursive:       false,
			},
		},
		{
			name: "zero distance and cropping are applied",
			envVars: map[string]string{
				"KEYFRAMER_DISTANCE": "0",
				"KEYFRAMER_CROPPING": "0",
			},
			changed:  map[string]bool{},
			initial:  Config{Distance: 5, CroppingPercent: 33},
			expected: Config{Distance: 0, CroppingPercent: 0},
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"KEYFRAMER_METHOD":   "phash",
				"KEYFRAMER_DISTANCE": "9",
			},
			changed:  map[string]bool{"method": true},
			initial:  Config{Method: "average"},
			expected: Config{Method: "average", Distance: 9},
		},
		{
			name: "non-positive workers ignored",
			envVars: map[string]string{
				"KEYFRAMER_WORKERS": "0",
			},
			changed:  map[string]bool{},
			initial:  Config{Workers: 3},
			expected: Config{Workers: 3},
		},
		{
			name:    "invalid distance",
			envVars: map[string]string{"KEYFRAMER_DISTANCE": "far"},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name:    "invalid cropping",
			envVars: map[string]string{"KEYFRAMER_CROPPING": "a third"},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name:    "invalid debounce",
			envVars: map[string]string{"KEYFRAMER_DEBOUNCE": "soon"},
			changed: map[string]bool{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)

			if tt.wantErr && err == nil {
				t.Error("ApplyEnvConfig() expected error but got nil")
				return
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ApplyEnvConfig() unexpected error: %v", err)
				return
			}
			if tt.wantErr {
				return
			}

			if cfg.Source != tt.expected.Source {
				t.Errorf("Source = %v, want %v", cfg.Source, tt.expected.Source)
			}
			if cfg.Destination != tt.expected.Destination {
				t.Errorf("Destination = %v, want %v", cfg.Destination, tt.expected.Destination)
			}
			if cfg.Method != tt.expected.Method {
				t.Errorf("Method = %v, want %v", cfg.Method, tt.expected.Method)
			}
			if cfg.Distance != tt.expected.Distance {
				t.Errorf("Distance = %v, want %v", cfg.Distance, tt.expected.Distance)
			}
			if cfg.CroppingPercent != tt.expected.CroppingPercent {
				t.Errorf("CroppingPercent = %v, want %v", cfg.CroppingPercent, tt.expected.CroppingPercent)
			}
			if cfg.Workers != tt.expected.Workers {
				t.Errorf("Workers = %v, want %v", cfg.Workers, tt.expected.Workers)
			}
			if cfg.Debounce != tt.expected.Debounce {
				t.Errorf("Debounce = %v, want %v", cfg.Debounce, tt.expected.Debounce)
			}
			if cfg.SaveImages != tt.expected.SaveImages {
				t.Errorf("SaveImages = %v, want %v", cfg.SaveImages, tt.expected.SaveImages)
			}
			if cfg.Recursive != tt.expected.Recursive {
				t.Errorf("Recursive = %v, want %v", cfg.Recursive, tt.expected.Recursive)
			}
		})
	}
}

// Integration test: precedence order (CLI > Env > File)
func TestConfigPrecedence(t *testing.T) {
	trueVal := true
	fileDistance := 3.0

	fileConf := FileConfig{
		Source:     "/file/video.mp4",
		Method:     "phash",
		Distance:   &fileDistance,
		SaveImages: &trueVal,
	}

	t.Setenv("KEYFRAMER_SOURCE", "/env/video.mp4")
	t.Setenv("KEYFRAMER_METHOD", "dhash")
	t.Setenv("KEYFRAMER_DESTINATION", "/env/kf")

	// Simulate CLI flags
	changed := map[string]bool{
		"source": true,
	}

	cfg := DefaultConfig()
	cfg.Source = "/cli/video.mp4"

	if err := ApplyFileConfig(&cfg, fileConf, changed); err != nil {
		t.Fatalf("ApplyFileConfig failed: %v", err)
	}
	if err := ApplyEnvConfig(&cfg, changed); err != nil {
		t.Fatalf("ApplyEnvConfig failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if cfg.Source != "/cli/video.mp4" {
		t.Errorf("Source = %v, want /cli/video.mp4 (CLI should win)", cfg.Source)
	}
	if cfg.Method != "dhash" {
		t.Errorf("Method = %v, want dhash (env should override file)", cfg.Method)
	}
	if cfg.Destination != "/env/kf" {
		t.Errorf("Destination = %v, want /env/kf (env should set)", cfg.Destination)
	}
	if cfg.Distance != 3 {
		t.Errorf("Distance = %v, want 3 (file should set)", cfg.Distance)
	}
	if !cfg.SaveImages {
		t.Error("SaveImages = false, want true (file should set)")
	}
	if cfg.ImagesDir != "/env/kf" {
		t.Errorf("ImagesDir = %v, want /env/kf (derived from destination)", cfg.ImagesDir)
	}
}
