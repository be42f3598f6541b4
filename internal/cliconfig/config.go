package cliconfig

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/keyframer/internal/domain"
)

const (
	// DefaultDestination is where store documents are written when no
	// destination is given.
	DefaultDestination = "keyframes"

	// DefaultListen is the address the HTTP API binds to.
	DefaultListen = "127.0.0.1:8080"
)

// Config holds CLI configuration for keyframer.
type Config struct {
	Source      string
	Destination string
	ImagesDir   string

	Method          string
	Distance        float64
	CroppingPercent int

	SaveImages    bool
	Check         bool
	FlushTrailing bool

	Hash        string
	Image       string
	QueryRecord string
	QueryIndex  int
	Recursive   bool
	Workers     int

	Catalog  string
	Listen   string
	Debounce time.Duration

	FFmpegPath  string
	FFprobePath string

	LogLevel string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Destination:     DefaultDestination,
		Method:          string(domain.MethodAverage),
		Distance:        0,
		CroppingPercent: 33,
		Recursive:       true,
		Workers:         1,
		Listen:          DefaultListen,
		Debounce:        500 * time.Millisecond,
		FFmpegPath:      "ffmpeg",
		FFprobePath:     "ffprobe",
		LogLevel:        "info",
	}
}

// HashMethod returns the parsed Method. Call after Validate.
func (c *Config) HashMethod() domain.Method {
	m, _ := domain.ParseMethod(c.Method)
	return m
}

// Validate checks the configuration for errors and sets derived defaults.
// Cropping is not checked here: out-of-range values fall back to the
// default percentage when a video is processed.
func (c *Config) Validate() error {
	m, err := domain.ParseMethod(c.Method)
	if err != nil {
		return err
	}
	c.Method = string(m)

	if c.Distance < 0 {
		return fmt.Errorf("%w: distance must be non-negative, got %v", domain.ErrInvalidConfig, c.Distance)
	}
	if m.IsBitHash() && c.Distance != float64(int64(c.Distance)) {
		return fmt.Errorf("%w: distance for %s must be an integer, got %v", domain.ErrInvalidConfig, m, c.Distance)
	}

	if c.Destination == "" {
		c.Destination = DefaultDestination
	}
	if c.ImagesDir == "" {
		c.ImagesDir = c.Destination
	}

	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.Debounce <= 0 {
		return fmt.Errorf("%w: debounce must be positive", domain.ErrInvalidConfig)
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	c.LogLevel = strings.ToLower(c.LogLevel)

	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setIntPtr sets an int value from a pointer, so zero can be configured.
func (s *configSetter) setIntPtr(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setFloatPtr sets a float64 value from a pointer, so zero can be configured.
func (s *configSetter) setFloatPtr(flag string, value *float64, dst *float64) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if positive.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setAnyIntFromString is setIntFromString without the positive check.
func (s *configSetter) setAnyIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = i
	return nil
}

// setAnyFloatFromString parses a string to float64 and sets the destination.
// Range checks are left to Validate.
func (s *configSetter) setAnyFloatFromString(flag, value string, dst *float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = f
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
