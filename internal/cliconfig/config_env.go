package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (KEYFRAMER_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("source", os.Getenv("KEYFRAMER_SOURCE"), &cfg.Source)
	s.setString("destination", os.Getenv("KEYFRAMER_DESTINATION"), &cfg.Destination)
	s.setString("images-dir", os.Getenv("KEYFRAMER_IMAGES_DIR"), &cfg.ImagesDir)
	s.setString("method", os.Getenv("KEYFRAMER_METHOD"), &cfg.Method)
	s.setString("catalog", os.Getenv("KEYFRAMER_CATALOG"), &cfg.Catalog)
	s.setString("listen", os.Getenv("KEYFRAMER_LISTEN"), &cfg.Listen)
	s.setString("ffmpeg", os.Getenv("KEYFRAMER_FFMPEG"), &cfg.FFmpegPath)
	s.setString("ffprobe", os.Getenv("KEYFRAMER_FFPROBE"), &cfg.FFprobePath)
	s.setString("log-level", os.Getenv("KEYFRAMER_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setAnyFloatFromString("distance", os.Getenv("KEYFRAMER_DISTANCE"), &cfg.Distance); err != nil {
		return err
	}
	if err := s.setAnyIntFromString("cropping", os.Getenv("KEYFRAMER_CROPPING"), &cfg.CroppingPercent); err != nil {
		return err
	}
	if err := s.setIntFromString("workers", os.Getenv("KEYFRAMER_WORKERS"), &cfg.Workers); err != nil {
		return err
	}
	if err := s.setDuration("debounce", os.Getenv("KEYFRAMER_DEBOUNCE"), &cfg.Debounce); err != nil {
		return err
	}

	s.setBoolFromString("save-images", os.Getenv("KEYFRAMER_SAVE_IMAGES"), &cfg.SaveImages)
	s.setBoolFromString("check", os.Getenv("KEYFRAMER_CHECK"), &cfg.Check)
	s.setBoolFromString("flush-trailing", os.Getenv("KEYFRAMER_FLUSH_TRAILING"), &cfg.FlushTrailing)
	s.setBoolFromString("recursive", os.Getenv("KEYFRAMER_RECURSIVE"), &cfg.Recursive)

	return nil
}
