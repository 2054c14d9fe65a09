package media

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tessro/prelisten/internal/core"
)

// Headless is a MediaPlayable without an audio device. It probes the real
// track duration and advances a virtual playhead from a clock, which is
// enough to drive a preview end to end on machines without sound.
type Headless struct {
	opener *Opener
	clock  core.Clock
	tick   time.Duration
	logger *slog.Logger

	mu        sync.Mutex
	duration  time.Duration
	loaded    bool
	playing   bool
	base      time.Duration
	startedAt time.Time
	timer     core.Timer
	run       uint64

	positions observers[time.Duration]
	ended     observers[struct{}]
}

// NewHeadless returns a Headless backend reporting positions every tick.
func NewHeadless(opener *Opener, clock core.Clock, tick time.Duration, logger *slog.Logger) *Headless {
	if clock == nil {
		clock = core.SystemClock()
	}
	if tick <= 0 {
		tick = DefaultTick
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Headless{opener: opener, clock: clock, tick: tick, logger: logger}
}

// Load probes the track duration.
func (h *Headless) Load(ctx context.Context, locator string) (time.Duration, error) {
	format, err := FormatOf(locator)
	if err != nil {
		return 0, err
	}
	data, err := h.opener.ReadAll(ctx, locator)
	if err != nil {
		return 0, err
	}
	d, err := ProbeDurationFunc(bytes.NewReader(data), format)
	if err != nil {
		return 0, err
	}

	h.mu.Lock()
	// A load superseded while probing must not replace the newer track.
	if err := ctx.Err(); err != nil {
		h.mu.Unlock()
		return 0, err
	}
	h.stopLocked()
	h.duration = d
	h.loaded = true
	h.base = 0
	h.mu.Unlock()

	h.logger.Debug("track probed", "locator", locator, "duration", d)
	return d, nil
}

// Play starts the virtual playhead.
func (h *Headless) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.loaded {
		return errors.New("no track loaded")
	}
	if h.playing {
		return nil
	}
	h.playing = true
	h.startedAt = h.clock.Now()
	h.run++
	h.scheduleLocked(h.run)
	return nil
}

func (h *Headless) scheduleLocked(run uint64) {
	h.timer = h.clock.AfterFunc(h.tick, func() { h.onTick(run) })
}

func (h *Headless) onTick(run uint64) {
	h.mu.Lock()
	if !h.playing || run != h.run {
		h.mu.Unlock()
		return
	}
	pos := h.positionLocked()
	done := pos >= h.duration
	if done {
		h.base = h.duration
		h.playing = false
		h.timer = nil
	} else {
		h.scheduleLocked(run)
	}
	h.mu.Unlock()

	h.positions.notify(min(pos, h.duration))
	if done {
		h.ended.notify(struct{}{})
	}
}

// Pause freezes the playhead.
func (h *Headless) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopLocked()
}

func (h *Headless) stopLocked() {
	if h.playing {
		h.base = h.positionLocked()
		h.playing = false
	}
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	h.run++
}

// Position returns the virtual playhead.
func (h *Headless) Position() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.positionLocked()
}

func (h *Headless) positionLocked() time.Duration {
	pos := h.base
	if h.playing {
		pos += h.clock.Now().Sub(h.startedAt)
	}
	return core.Clamp(pos, 0, h.duration)
}

// SetPosition moves the virtual playhead.
func (h *Headless) SetPosition(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.base = core.Clamp(d, 0, h.duration)
	h.startedAt = h.clock.Now()
}

// OnPositionUpdate registers fn for position reports while playing.
func (h *Headless) OnPositionUpdate(fn func(time.Duration)) func() {
	return h.positions.add(fn)
}

// OnEnded registers fn for the end of the track.
func (h *Headless) OnEnded(fn func()) func() {
	return h.ended.add(func(struct{}) { fn() })
}

// Close stops the playhead.
func (h *Headless) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopLocked()
	h.loaded = false
	return nil
}

var _ core.MediaPlayable = (*Headless)(nil)
