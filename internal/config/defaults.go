package config

import (
	"os"
	"path/filepath"
)

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Preview: PreviewConfig{
			Length: 30,
		},
		Audio: AudioConfig{
			Backend:    "speaker",
			SampleRate: 44100,
			BufferMS:   100,
			TickMS:     250,
		},
		Storage: StorageConfig{
			HTTPTimeout: 15,
		},
		Catalog: CatalogConfig{
			Path: defaultCatalogPath(),
		},
		Tail: TailConfig{
			Emoji:      true,
			Timestamps: true,
		},
		TUI: TUIConfig{
			Theme:           "auto",
			RefreshInterval: 250,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	// Preview
	if c.Preview.Length == 0 {
		c.Preview.Length = d.Preview.Length
	}

	// Audio
	if c.Audio.Backend == "" {
		c.Audio.Backend = d.Audio.Backend
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = d.Audio.SampleRate
	}
	if c.Audio.BufferMS == 0 {
		c.Audio.BufferMS = d.Audio.BufferMS
	}
	if c.Audio.TickMS == 0 {
		c.Audio.TickMS = d.Audio.TickMS
	}

	// Storage
	if c.Storage.HTTPTimeout == 0 {
		c.Storage.HTTPTimeout = d.Storage.HTTPTimeout
	}

	// Catalog
	if c.Catalog.Path == "" {
		c.Catalog.Path = d.Catalog.Path
	}

	// TUI
	if c.TUI.Theme == "" {
		c.TUI.Theme = d.TUI.Theme
	}
	if c.TUI.RefreshInterval == 0 {
		c.TUI.RefreshInterval = d.TUI.RefreshInterval
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// defaultCatalogPath returns $XDG_DATA_HOME/prelisten/catalog.yaml.
func defaultCatalogPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "catalog.yaml"
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "prelisten", "catalog.yaml")
}
