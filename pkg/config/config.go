// Package config holds termtip's settings and reads overrides from the
// environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/japaniel/termtip/pkg/tooltip"
)

// ColorMode selects when terminal output is styled.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode parses auto, always or never, case-insensitively.
func ParseColorMode(s string) (ColorMode, error) {
	switch m := ColorMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ColorAuto, ColorAlways, ColorNever:
		return m, nil
	}
	return "", fmt.Errorf("invalid color mode %q (want auto, always or never)", s)
}

// Config holds all settings for the CLI and viewer.
type Config struct {
	// Threshold is the placement threshold in pixels for HTML consumers.
	Threshold float64
	// TerminalThreshold is the placement threshold in rows for the viewer.
	TerminalThreshold float64
	Workers           int
	GlossaryPath      string
	Verbose           bool
	Color             ColorMode
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Threshold:         tooltip.DefaultThreshold,
		TerminalThreshold: 4,
		Workers:           4,
		Color:             ColorAuto,
	}
}

// LoadConfig reads configuration from environment variables,
// falling back to defaults for any unset or invalid values.
func LoadConfig() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("TERMTIP_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			cfg.Threshold = f
		}
	}
	if v := os.Getenv("TERMTIP_TERMINAL_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			cfg.TerminalThreshold = f
		}
	}
	if v := os.Getenv("TERMTIP_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Workers = n
		}
	}
	if v := os.Getenv("TERMTIP_GLOSSARY"); v != "" {
		cfg.GlossaryPath = v
	}
	if v := os.Getenv("TERMTIP_VERBOSE"); v != "" {
		cfg.Verbose, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("TERMTIP_COLOR"); v != "" {
		if m, err := ParseColorMode(v); err == nil {
			cfg.Color = m
		}
	}

	return cfg
}
