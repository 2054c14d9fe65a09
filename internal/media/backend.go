// Package media provides MediaPlayable backends and the locator opener
// they read tracks through.
package media

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/tessro/prelisten/internal/core"
	perrors "github.com/tessro/prelisten/internal/errors"
)

// Backend names.
const (
	BackendSpeaker  = "speaker"
	BackendHeadless = "headless"
)

// Defaults for Config fields left zero.
const (
	DefaultSampleRate = 44100
	DefaultBuffer     = 100 * time.Millisecond
	DefaultTick       = 250 * time.Millisecond
)

// Config selects and tunes a backend.
type Config struct {
	Backend    string
	SampleRate int
	Buffer     time.Duration
	Tick       time.Duration
}

func (c Config) withDefaults() Config {
	if c.Backend == "" {
		c.Backend = BackendSpeaker
	}
	if c.SampleRate <= 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.Buffer <= 0 {
		c.Buffer = DefaultBuffer
	}
	if c.Tick <= 0 {
		c.Tick = DefaultTick
	}
	return c
}

// New builds the backend named in cfg.
func New(cfg Config, opener *Opener, logger *slog.Logger) (core.MediaPlayable, error) {
	cfg = cfg.withDefaults()
	switch cfg.Backend {
	case BackendSpeaker:
		return NewSpeaker(opener, cfg, logger), nil
	case BackendHeadless:
		return NewHeadless(opener, core.SystemClock(), cfg.Tick, logger), nil
	default:
		return nil, perrors.WithSuggestion(
			fmt.Errorf("%w: unknown audio backend %q", perrors.ErrInvalidConfig, cfg.Backend),
			"Set audio.backend to \"speaker\" or \"headless\"",
		)
	}
}
