package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
// Numeric fields where zero is meaningful are pointers.
type FileConfig struct {
	Source      string `toml:"source"`
	Destination string `toml:"destination"`
	ImagesDir   string `toml:"images_dir"`

	Method   string   `toml:"method"`
	Distance *float64 `toml:"distance"`
	Cropping *int     `toml:"cropping"`

	SaveImages    *bool `toml:"save_images"`
	Check         *bool `toml:"check"`
	FlushTrailing *bool `toml:"flush_trailing"`

	KeyframesPath string `toml:"keyframes_path"`
	Recursive     *bool  `toml:"recursive"`
	Workers       int    `toml:"workers"`

	Catalog  string `toml:"catalog"`
	Listen   string `toml:"listen"`
	Debounce string `toml:"debounce"`

	FFmpegPath  string `toml:"ffmpeg_path"`
	FFprobePath string `toml:"ffprobe_path"`

	LogLevel string `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.keyframer/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".keyframer", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
// keyframes_path is an alias for destination, as both name the store directory.
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("source", fc.Source, &cfg.Source)
	s.setString("destination", fc.KeyframesPath, &cfg.Destination)
	s.setString("destination", fc.Destination, &cfg.Destination)
	s.setString("images-dir", fc.ImagesDir, &cfg.ImagesDir)
	s.setString("method", fc.Method, &cfg.Method)
	s.setString("catalog", fc.Catalog, &cfg.Catalog)
	s.setString("listen", fc.Listen, &cfg.Listen)
	s.setString("ffmpeg", fc.FFmpegPath, &cfg.FFmpegPath)
	s.setString("ffprobe", fc.FFprobePath, &cfg.FFprobePath)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	s.setFloatPtr("distance", fc.Distance, &cfg.Distance)
	s.setIntPtr("cropping", fc.Cropping, &cfg.CroppingPercent)
	s.setInt("workers", fc.Workers, &cfg.Workers)

	if err := s.setDuration("debounce", fc.Debounce, &cfg.Debounce); err != nil {
		return err
	}

	s.setBool("save-images", fc.SaveImages, &cfg.SaveImages)
	s.setBool("check", fc.Check, &cfg.Check)
	s.setBool("flush-trailing", fc.FlushTrailing, &cfg.FlushTrailing)
	s.setBool("recursive", fc.Recursive, &cfg.Recursive)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
