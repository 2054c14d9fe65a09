package preview

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tessro/prelisten/internal/core"
)

// LoadResult is the outcome of a metadata load for one bind generation.
type LoadResult struct {
	Gen      uint64
	Locator  string
	Duration time.Duration
	Err      error
}

// Binder owns the AudioSource bound to a media handle. Every Bind discards
// the previous source and starts a new generation; results from older
// generations are ignored by Resolve.
//
// Binder is not safe for concurrent use. The controller calls it only from
// its event loop; the load itself runs on a separate goroutine.
type Binder struct {
	media  core.MediaPlayable
	logger *slog.Logger

	source core.AudioSource
	gen    uint64
	cancel context.CancelFunc
}

// NewBinder returns a binder with nothing bound.
func NewBinder(media core.MediaPlayable, logger *slog.Logger) *Binder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Binder{media: media, logger: logger}
}

// Source returns a copy of the current source.
func (b *Binder) Source() core.AudioSource {
	return b.source
}

// Generation returns the current bind generation.
func (b *Binder) Generation() uint64 {
	return b.gen
}

// Bind releases the current source and starts loading locator. notify is
// called exactly once, from another goroutine, with the load outcome unless
// the locator is empty. The returned generation identifies the new source.
func (b *Binder) Bind(locator string, notify func(LoadResult)) uint64 {
	b.release()
	b.gen++
	gen := b.gen

	if locator == "" {
		b.source = core.AudioSource{ReadyState: core.Unloaded}
		return gen
	}
	b.source = core.AudioSource{Locator: locator, ReadyState: core.MetadataPending}

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.logger.Debug("loading metadata", "locator", locator, "gen", gen)

	go func() {
		d, err := b.media.Load(ctx, locator)
		if err == nil && d <= 0 {
			err = errors.New("duration unavailable")
		}
		notify(LoadResult{Gen: gen, Locator: locator, Duration: d, Err: err})
	}()
	return gen
}

// Resolve applies a load result. It returns false, changing nothing, when
// the result belongs to an older generation or was already applied.
func (b *Binder) Resolve(res LoadResult) (core.AudioSource, bool) {
	if res.Gen != b.gen || b.source.ReadyState != core.MetadataPending {
		return b.source, false
	}
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}

	if res.Err != nil {
		b.logger.Warn("metadata load failed", "locator", res.Locator, "error", res.Err)
		b.source.ReadyState = core.LoadError
		b.source.Duration = 0
		return b.source, true
	}

	b.source.Duration = res.Duration
	b.source.ReadyState = core.Ready
	return b.source, true
}

// Reset releases the source entirely.
func (b *Binder) Reset() {
	b.release()
	b.gen++
	b.source = core.AudioSource{}
}

func (b *Binder) release() {
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	b.media.Pause()
}
