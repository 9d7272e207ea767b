package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/bamsammich/ferry/internal/units"
)

// Config represents the optional ferry configuration file.
type Config struct {
	Defaults DefaultsConfig `toml:"defaults"`
	Theme    ThemeConfig    `toml:"theme"`
}

// DefaultsConfig holds persistent flag defaults. A nil field is unset.
type DefaultsConfig struct {
	ContinueOnFailure *bool   `toml:"continue_on_failure"`
	Contents          *bool   `toml:"contents"`
	Interval          *string `toml:"interval"`
	Units             *string `toml:"units"`
	Decimals          *int    `toml:"decimals"`
	Restartable       *bool   `toml:"restartable"`
	WriteThrough      *bool   `toml:"write_through"`
	BWLimit           *string `toml:"bwlimit"`
}

// ThemeConfig holds optional color overrides for the summary line.
type ThemeConfig struct {
	Green  *string `toml:"green"`
	Yellow *string `toml:"yellow"`
	Red    *string `toml:"red"`
	Muted  *string `toml:"muted"`
}

// Path returns the resolved path to the config file.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "ferry", "config.toml")
}

// Load reads the config file from the XDG path. Returns a zero Config
// (no error) if the file does not exist. Config is always optional.
func Load() (Config, error) {
	path := Path()
	if path == "" {
		return Config{}, nil
	}
	return LoadFile(path)
}

// LoadFile reads and validates the config file at path. A missing file
// yields a zero Config.
func LoadFile(path string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	if err := cfg.Defaults.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that every set value parses.
func (d DefaultsConfig) Validate() error {
	if d.Interval != nil {
		if _, err := time.ParseDuration(*d.Interval); err != nil {
			return fmt.Errorf("defaults.interval: %w", err)
		}
	}
	if d.Units != nil {
		if _, err := units.ParseStyle(*d.Units); err != nil {
			return fmt.Errorf("defaults.units: %w", err)
		}
	}
	if d.Decimals != nil && *d.Decimals < 0 {
		return fmt.Errorf("defaults.decimals: must not be negative, got %d", *d.Decimals)
	}
	if d.BWLimit != nil {
		if _, err := units.ParseSize(*d.BWLimit); err != nil {
			return fmt.Errorf("defaults.bwlimit: %w", err)
		}
	}
	return nil
}
