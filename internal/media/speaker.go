package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/tessro/prelisten/internal/core"
	perrors "github.com/tessro/prelisten/internal/errors"
)

var (
	speakerOnce sync.Once
	speakerErr  error
	speakerRate beep.SampleRate
)

// initSpeaker opens the audio device once per process.
func initSpeaker(rate beep.SampleRate, buffer time.Duration) (beep.SampleRate, error) {
	speakerOnce.Do(func() {
		speakerRate = rate
		if err := speaker.Init(rate, rate.N(buffer)); err != nil {
			speakerErr = fmt.Errorf("%w: %w", perrors.ErrNoAudioDevice, err)
		}
	})
	return speakerRate, speakerErr
}

// trackState bundles the decoder and playback chain for one loaded track.
type trackState struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	queued   bool
}

func (t *trackState) position() time.Duration {
	return t.format.SampleRate.D(t.streamer.Position())
}

// Speaker plays tracks on the system audio device.
type Speaker struct {
	opener *Opener
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	track    *trackState
	stopTick chan struct{}

	positions observers[time.Duration]
	ended     observers[struct{}]
}

// NewSpeaker returns a Speaker that reads tracks through opener.
func NewSpeaker(opener *Opener, cfg Config, logger *slog.Logger) *Speaker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Speaker{opener: opener, cfg: cfg.withDefaults(), logger: logger}
}

// Load reads and decodes the track, replacing any loaded one, and returns
// its duration.
func (s *Speaker) Load(ctx context.Context, locator string) (time.Duration, error) {
	format, err := FormatOf(locator)
	if err != nil {
		return 0, err
	}
	data, err := s.opener.ReadAll(ctx, locator)
	if err != nil {
		return 0, err
	}

	streamer, f, err := decode(data, format)
	if err != nil {
		return 0, err
	}
	t := &trackState{streamer: streamer, format: f}
	rate := beep.SampleRate(s.cfg.SampleRate)
	var out beep.Streamer = streamer
	if f.SampleRate != rate {
		out = beep.Resample(4, f.SampleRate, rate, streamer)
	}
	t.ctrl = &beep.Ctrl{Streamer: out, Paused: true}

	s.mu.Lock()
	// A load superseded while decoding must not replace the newer track.
	if err := ctx.Err(); err != nil {
		s.mu.Unlock()
		streamer.Close()
		return 0, err
	}
	old := s.track
	s.track = t
	s.stopTickerLocked()
	s.mu.Unlock()

	if old != nil {
		speaker.Lock()
		old.ctrl.Paused = true
		old.ctrl.Streamer = nil
		speaker.Unlock()
		old.streamer.Close()
	}

	d := f.SampleRate.D(streamer.Len())
	s.logger.Debug("track decoded", "locator", locator, "duration", d, "rate", int(f.SampleRate))
	return d, nil
}

// Play starts output at the current position.
func (s *Speaker) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := initSpeaker(beep.SampleRate(s.cfg.SampleRate), s.cfg.Buffer); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.track
	if t == nil {
		return errors.New("no track loaded")
	}

	speaker.Lock()
	t.ctrl.Paused = false
	speaker.Unlock()

	if !t.queued {
		t.queued = true
		speaker.Play(beep.Seq(t.ctrl, beep.Callback(func() {
			// Runs on the speaker goroutine with the speaker lock held.
			go s.finished(t)
		})))
	}
	s.startTickerLocked(t)
	return nil
}

func (s *Speaker) finished(t *trackState) {
	s.mu.Lock()
	if s.track != t {
		s.mu.Unlock()
		return
	}
	t.queued = false
	s.stopTickerLocked()
	s.mu.Unlock()

	s.ended.notify(struct{}{})
}

// Pause stops output, keeping the position.
func (s *Speaker) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTickerLocked()
	if s.track == nil {
		return
	}
	speaker.Lock()
	s.track.ctrl.Paused = true
	speaker.Unlock()
}

// Position returns the playhead of the loaded track.
func (s *Speaker) Position() time.Duration {
	s.mu.Lock()
	t := s.track
	s.mu.Unlock()
	if t == nil {
		return 0
	}
	speaker.Lock()
	defer speaker.Unlock()
	return t.position()
}

// SetPosition moves the playhead, clamped to the track.
func (s *Speaker) SetPosition(d time.Duration) {
	s.mu.Lock()
	t := s.track
	s.mu.Unlock()
	if t == nil {
		return
	}

	speaker.Lock()
	defer speaker.Unlock()
	n := t.format.SampleRate.N(d)
	n = max(0, min(n, t.streamer.Len()))
	if err := t.streamer.Seek(n); err != nil {
		s.logger.Warn("seek failed", "position", d, "error", err)
	}
}

// OnPositionUpdate registers fn for periodic position reports while playing.
func (s *Speaker) OnPositionUpdate(fn func(time.Duration)) func() {
	return s.positions.add(fn)
}

// OnEnded registers fn for the end of the track.
func (s *Speaker) OnEnded(fn func()) func() {
	return s.ended.add(func(struct{}) { fn() })
}

// Close stops output and releases the decoder.
func (s *Speaker) Close() error {
	s.mu.Lock()
	t := s.track
	s.track = nil
	s.stopTickerLocked()
	s.mu.Unlock()

	if t == nil {
		return nil
	}
	speaker.Lock()
	t.ctrl.Paused = true
	t.ctrl.Streamer = nil
	speaker.Unlock()
	return t.streamer.Close()
}

func (s *Speaker) startTickerLocked(t *trackState) {
	if s.stopTick != nil {
		return
	}
	stop := make(chan struct{})
	s.stopTick = stop

	go func() {
		ticker := time.NewTicker(s.cfg.Tick)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				speaker.Lock()
				pos := t.position()
				speaker.Unlock()
				s.positions.notify(pos)
			}
		}
	}()
}

func (s *Speaker) stopTickerLocked() {
	if s.stopTick != nil {
		close(s.stopTick)
		s.stopTick = nil
	}
}

var _ core.MediaPlayable = (*Speaker)(nil)
