package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Preview.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("preview: %w", err))
	}
	if err := c.Audio.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("audio: %w", err))
	}
	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("storage: %w", err))
	}
	if err := c.TUI.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tui: %w", err))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}

	return errors.Join(errs...)
}

// Validate checks PreviewConfig for errors.
func (c *PreviewConfig) Validate() error {
	if c.Length < 0 {
		return errors.New("length must be positive")
	}
	if c.DefaultStart < 0 {
		return errors.New("default_start must be non-negative")
	}
	return nil
}

// Validate checks AudioConfig for errors.
func (c *AudioConfig) Validate() error {
	switch c.Backend {
	case "", "speaker", "headless":
		// valid
	default:
		return fmt.Errorf("invalid backend: %s (must be speaker or headless)", c.Backend)
	}
	if c.SampleRate < 0 || (c.SampleRate > 0 && c.SampleRate < 8000) {
		return errors.New("sample_rate must be at least 8000")
	}
	if c.BufferMS < 0 || c.TickMS < 0 {
		return errors.New("buffer_ms and tick_ms must be non-negative")
	}
	return nil
}

// Validate checks StorageConfig for errors.
func (c *StorageConfig) Validate() error {
	if c.HTTPTimeout < 0 {
		return errors.New("http_timeout must be non-negative")
	}
	return nil
}

// Validate checks TUIConfig for errors.
func (c *TUIConfig) Validate() error {
	switch c.Theme {
	case "", "auto", "dark", "light":
		// valid
	default:
		return fmt.Errorf("invalid theme: %s (must be auto, dark, or light)", c.Theme)
	}
	if c.RefreshInterval < 0 {
		return errors.New("refresh_interval must be non-negative")
	}
	return nil
}

// Validate checks LogConfig for errors.
func (c *LogConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}
	switch c.Format {
	case "", "text", "json":
		// valid
	default:
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Format)
	}
	return nil
}
