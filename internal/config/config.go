package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Load reads configuration from standard locations with environment overrides.
// Search order: ~/.prelistenrc, $XDG_CONFIG_HOME/prelisten/config.toml, ~/.config/prelisten/config.toml
func Load() (*Config, error) {
	cfg := &Config{}

	// Try loading from file
	path := findConfigFile()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	// Apply defaults, then environment variable overrides
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Path returns the config file that Load would read, or the preferred
// location for a new one when none exists.
func Path() string {
	if p := findConfigFile(); p != "" {
		return p
	}
	return filepath.Join(configDir(), "config.toml")
}

// Save writes cfg as TOML to path, creating parent directories.
func Save(cfg *Config, path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func configDir() string {
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "."
		}
		xdgConfig = filepath.Join(home, ".config")
	}
	return filepath.Join(xdgConfig, "prelisten")
}

// findConfigFile returns the first existing config file path.
func findConfigFile() string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".prelistenrc"))
	}
	paths = append(paths, filepath.Join(configDir(), "config.toml"))

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	// Preview
	if v := os.Getenv("PRELISTEN_PREVIEW_LENGTH"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Preview.Length = i
		}
	}
	if v := os.Getenv("PRELISTEN_PREVIEW_DEFAULT_START"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Preview.DefaultStart = f
		}
	}

	// Audio
	if v := os.Getenv("PRELISTEN_AUDIO_BACKEND"); v != "" {
		cfg.Audio.Backend = v
	}
	if v := os.Getenv("PRELISTEN_AUDIO_SAMPLE_RATE"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Audio.SampleRate = i
		}
	}

	// Storage
	if v := os.Getenv("PRELISTEN_STORAGE_GCS_CREDENTIALS_FILE"); v != "" {
		cfg.Storage.GCSCredentialsFile = v
	}
	if v := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); v != "" && cfg.Storage.GCSCredentialsFile == "" {
		cfg.Storage.GCSCredentialsFile = v
	}
	if v := os.Getenv("PRELISTEN_STORAGE_HTTP_TIMEOUT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Storage.HTTPTimeout = i
		}
	}

	// Catalog
	if v := os.Getenv("PRELISTEN_CATALOG_PATH"); v != "" {
		cfg.Catalog.Path = v
	}

	// TUI
	if v := os.Getenv("PRELISTEN_TUI_THEME"); v != "" {
		cfg.TUI.Theme = v
	}

	// Log
	if v := os.Getenv("PRELISTEN_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("PRELISTEN_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("PRELISTEN_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}
