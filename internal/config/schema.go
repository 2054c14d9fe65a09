package config

import "time"

// Config is the root configuration structure.
type Config struct {
	Preview PreviewConfig `toml:"preview"`
	Audio   AudioConfig   `toml:"audio"`
	Storage StorageConfig `toml:"storage"`
	Catalog CatalogConfig `toml:"catalog"`
	Tail    TailConfig    `toml:"tail"`
	TUI     TUIConfig     `toml:"tui"`
	Log     LogConfig     `toml:"log"`
}

// PreviewConfig holds preview window settings.
type PreviewConfig struct {
	Length       int     `toml:"length"`
	DefaultStart float64 `toml:"default_start"`
}

// LengthDuration returns the preview length.
func (c PreviewConfig) LengthDuration() time.Duration {
	return time.Duration(c.Length) * time.Second
}

// DefaultStartDuration returns the start used for tracks without one.
func (c PreviewConfig) DefaultStartDuration() time.Duration {
	return time.Duration(c.DefaultStart * float64(time.Second))
}

// AudioConfig holds output backend settings.
type AudioConfig struct {
	Backend    string `toml:"backend"`
	SampleRate int    `toml:"sample_rate"`
	BufferMS   int    `toml:"buffer_ms"`
	TickMS     int    `toml:"tick_ms"`
}

// StorageConfig holds settings for remote track locators.
type StorageConfig struct {
	GCSCredentialsFile string `toml:"gcs_credentials_file"`
	HTTPTimeout        int    `toml:"http_timeout"`
}

// CatalogConfig holds the track catalog location.
type CatalogConfig struct {
	Path string `toml:"path"`
}

// TailConfig holds settings for event follow output.
type TailConfig struct {
	Emoji      bool `toml:"emoji"`
	Timestamps bool `toml:"timestamps"`
	Positions  bool `toml:"positions"`
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	Theme           string `toml:"theme"`
	RefreshInterval int    `toml:"refresh_interval"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	File   string `toml:"file"`
	Format string `toml:"format"`
}
