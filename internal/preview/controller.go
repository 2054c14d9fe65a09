// Package preview implements bounded preview playback: a controller that
// plays a fixed-length window of a track, the binder that loads the track,
// the selector that places the window and the progress reporter.
package preview

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tessro/prelisten/internal/core"
	perrors "github.com/tessro/prelisten/internal/errors"
)

const inboxSize = 64

// Controller drives a MediaPlayable so that playback never leaves the
// committed preview window.
//
// All state is owned by the goroutine running Run. Public methods send a
// request to that goroutine and wait for the resulting Snapshot. Media
// callbacks, deadlines and play outcomes are posted back tagged with the
// epoch they were issued under; anything tagged with an older epoch is
// dropped without changing state.
type Controller struct {
	media  core.MediaPlayable
	binder *Binder
	clock  core.Clock
	logger *slog.Logger

	inbox   chan envelope
	stop    chan struct{}
	done    chan struct{}
	started atomic.Bool
	once    sync.Once

	// owned by the Run goroutine
	state   core.PlaybackState
	window  core.PreviewWindow
	epoch   uint64
	intent  bool
	lease   *lease
	pending []Event

	lmu       sync.RWMutex
	nextID    int
	listeners map[int]func(Event)
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for transitions and dropped continuations.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithClock sets the clock used for boundary deadlines.
func WithClock(clock core.Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithWindow sets the initial preview window.
func WithWindow(w core.PreviewWindow) Option {
	return func(c *Controller) {
		c.window = normalizeWindow(w)
	}
}

// NewController returns a controller for media. Run must be called before
// any request is answered.
func NewController(media core.MediaPlayable, opts ...Option) *Controller {
	c := &Controller{
		media:     media,
		clock:     core.SystemClock(),
		logger:    slog.Default(),
		inbox:     make(chan envelope, inboxSize),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		window:    core.NewPreviewWindow(0),
		listeners: make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.binder = NewBinder(media, c.logger)
	return c
}

// Subscribe registers fn for every event. Listeners run on the controller
// goroutine and must not call the controller's request methods.
func (c *Controller) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.lmu.Lock()
	defer c.lmu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() {
		c.lmu.Lock()
		defer c.lmu.Unlock()
		delete(c.listeners, id)
	}
}

// Run processes requests and completions until ctx is done or Close is
// called. On return the source is released and the state is Idle.
func (c *Controller) Run(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return perrors.ErrClosed
	}
	defer close(c.done)
	defer c.teardown()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stop:
			return nil
		case env := <-c.inbox:
			c.dispatch(env)
		}
	}
}

// Close stops Run and waits for teardown to finish.
func (c *Controller) Close() error {
	c.once.Do(func() { close(c.stop) })
	if c.started.CompareAndSwap(false, true) {
		c.teardown()
		close(c.done)
		return nil
	}
	<-c.done
	return nil
}

// Done is closed once the controller has torn down.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Toggle starts playback of the window, or pauses it when active.
func (c *Controller) Toggle(ctx context.Context) (Snapshot, error) {
	return c.request(ctx, toggleMsg{})
}

// Pause stops playback. Pausing while not playing changes nothing.
func (c *Controller) Pause(ctx context.Context) (Snapshot, error) {
	return c.request(ctx, pauseMsg{})
}

// Seek moves the cursor to ratio of the window. ratio is clamped to [0, 1].
func (c *Controller) Seek(ctx context.Context, ratio float64) (Snapshot, error) {
	return c.request(ctx, seekMsg{ratio: ratio})
}

// Bind replaces the audio source with locator and resets to Idle. An empty
// locator unbinds.
func (c *Controller) Bind(ctx context.Context, locator string) (Snapshot, error) {
	return c.request(ctx, bindMsg{locator: locator})
}

// CommitWindow applies a committed preview window.
func (c *Controller) CommitWindow(ctx context.Context, w core.PreviewWindow) (Snapshot, error) {
	return c.request(ctx, windowMsg{start: w.Start, length: w.Length})
}

// Snapshot returns the current state.
func (c *Controller) Snapshot(ctx context.Context) (Snapshot, error) {
	return c.request(ctx, snapshotMsg{})
}

func (c *Controller) request(ctx context.Context, m message) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	select {
	case c.inbox <- envelope{msg: m, reply: reply}:
	case <-c.done:
		return Snapshot{}, perrors.ErrClosed
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}

	select {
	case s := <-reply:
		return s, nil
	case <-c.done:
		select {
		case s := <-reply:
			return s, nil
		default:
			return Snapshot{}, perrors.ErrClosed
		}
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// post delivers a completion. It gives up once the controller is done.
func (c *Controller) post(m message) {
	select {
	case c.inbox <- envelope{msg: m}:
	case <-c.done:
	}
}

// tryPost delivers a completion unless the inbox is full.
func (c *Controller) tryPost(m message) {
	select {
	case c.inbox <- envelope{msg: m}:
	default:
	}
}

func (c *Controller) dispatch(env envelope) {
	prevState, prevWindow := c.state, c.window

	switch m := env.msg.(type) {
	case toggleMsg:
		c.toggle()
	case pauseMsg:
		c.pause()
	case seekMsg:
		c.seek(m.ratio)
	case bindMsg:
		c.bind(m.locator)
	case windowMsg:
		c.commitWindow(core.PreviewWindow{Start: m.start, Length: m.length})
	case snapshotMsg:
	case metadataMsg:
		c.metadata(m.res)
	case playSettledMsg:
		c.playSettled(m.epoch, m.err)
	case deadlineMsg:
		if c.current(m.epoch, "deadline") {
			c.end()
		}
	case positionMsg:
		c.position(m.epoch, m.pos)
	case endedMsg:
		if c.current(m.epoch, "media ended") {
			c.end()
		}
	default:
		c.logger.Warn("unknown controller message", "type", fmt.Sprintf("%T", m))
	}

	c.flush(prevState, prevWindow)
	if env.reply != nil {
		env.reply <- c.snapshot()
	}
}

func (c *Controller) snapshot() Snapshot {
	s := Snapshot{State: c.state, Window: c.window, Source: c.binder.Source()}
	if c.state.Err != nil {
		e := *c.state.Err
		s.State.Err = &e
	}
	return s
}

// current reports whether a continuation issued under epoch may still
// mutate state. Stale continuations are traced and dropped.
func (c *Controller) current(epoch uint64, what string) bool {
	if epoch == c.epoch && c.state.Status == core.StatusPlaying {
		return true
	}
	c.stale(what, epoch)
	return false
}

func (c *Controller) stale(what string, epoch uint64) {
	detail := fmt.Sprintf("%s from epoch %d dropped (epoch %d, %s)", what, epoch, c.epoch, c.state.Status)
	c.logger.Debug("stale continuation", "what", what, "epoch", epoch, "current", c.epoch, "status", c.state.Status)
	c.pending = append(c.pending, Event{Type: EventStale, Detail: detail})
}

func (c *Controller) toggle() {
	switch c.state.Status {
	case core.StatusIdle, core.StatusPaused, core.StatusEnded:
		c.requestPlay()
	case core.StatusAwaitingMetadata:
		c.intent = false
		c.state.Status = core.StatusIdle
	case core.StatusSeeking, core.StatusPlaying:
		c.pause()
	case core.StatusError:
		// LoadFailure persists until a new locator is bound.
	}
}

func (c *Controller) requestPlay() {
	src := c.binder.Source()
	switch src.ReadyState {
	case core.Ready:
		c.startPlay(src)
	case core.MetadataPending:
		c.intent = true
		c.state.Err = nil
		c.state.Status = core.StatusAwaitingMetadata
	default:
		c.logger.Debug("toggle ignored: no source bound")
	}
}

func (c *Controller) startPlay(src core.AudioSource) {
	c.releaseLease()
	c.epoch++
	c.intent = false

	c.state.Cursor = core.Clamp(c.window.Start, 0, src.Duration)
	c.state.Err = nil
	c.state.Status = core.StatusSeeking
	c.media.SetPosition(c.state.Cursor)

	ctx, cancel := context.WithCancel(context.Background())
	c.lease = &lease{epoch: c.epoch, cancel: cancel}

	epoch := c.epoch
	go func() {
		err := c.media.Play(ctx)
		c.post(playSettledMsg{epoch: epoch, err: err})
	}()
}

func (c *Controller) playSettled(epoch uint64, err error) {
	if epoch != c.epoch || c.state.Status != core.StatusSeeking {
		c.stale("play outcome", epoch)
		// The host may have started output for a request nobody wants anymore.
		if err == nil && !c.state.IsActive() {
			c.media.Pause()
		}
		return
	}

	if err != nil {
		c.logger.Warn("playback rejected", "error", err)
		c.releaseLease()
		c.epoch++
		c.state.Status = core.StatusPaused
		c.state.Err = &core.ErrorState{Kind: core.PlaybackRejected, Message: err.Error()}
		return
	}

	c.state.Status = core.StatusPlaying
	c.arm()
}

// arm registers the boundary deadline and media observers for the current
// epoch on the active lease.
func (c *Controller) arm() {
	remaining := c.window.Length - c.state.ElapsedInWindow(c.window)
	if remaining <= 0 {
		c.end()
		return
	}
	if c.lease == nil {
		c.lease = &lease{epoch: c.epoch}
	}

	epoch := c.epoch
	c.lease.deadline = c.clock.AfterFunc(remaining, func() {
		c.post(deadlineMsg{epoch: epoch})
	})
	c.lease.unsubPos = c.media.OnPositionUpdate(func(pos time.Duration) {
		c.tryPost(positionMsg{epoch: epoch, pos: pos})
	})
	c.lease.unsubEnd = c.media.OnEnded(func() {
		c.post(endedMsg{epoch: epoch})
	})
	c.logger.Debug("boundary armed", "epoch", epoch, "remaining", remaining)
}

func (c *Controller) releaseLease() {
	if c.lease == nil {
		return
	}
	c.lease.release()
	c.lease = nil
}

func (c *Controller) pause() {
	switch c.state.Status {
	case core.StatusSeeking, core.StatusPlaying:
		if c.state.Status == core.StatusPlaying {
			c.state.Cursor = core.Clamp(c.media.Position(), c.window.Start, c.window.End())
		}
		c.releaseLease()
		c.epoch++
		c.media.Pause()
		c.state.Err = nil
		c.state.Status = core.StatusPaused
	case core.StatusAwaitingMetadata:
		c.intent = false
		c.state.Status = core.StatusIdle
	}
}

func (c *Controller) seek(ratio float64) {
	if c.state.Status == core.StatusError {
		return
	}
	if math.IsNaN(ratio) {
		ratio = 0
	}
	ratio = math.Max(0, math.Min(1, ratio))
	c.state.Cursor = c.window.Start + time.Duration(ratio*float64(c.window.Length))

	if c.binder.Source().ReadyState == core.Ready {
		c.media.SetPosition(c.state.Cursor)
	}

	// A pending play keeps its epoch and picks the new cursor up when it settles.
	if c.state.Status == core.StatusSeeking {
		return
	}
	c.releaseLease()
	c.epoch++
	if c.state.Status == core.StatusPlaying {
		c.arm()
	}
}

func (c *Controller) commitWindow(w core.PreviewWindow) {
	c.window = normalizeWindow(w)

	switch c.state.Status {
	case core.StatusPlaying, core.StatusPaused, core.StatusSeeking:
	default:
		return
	}

	cursor := core.Clamp(c.state.Cursor, c.window.Start, c.window.End())
	if cursor != c.state.Cursor && c.binder.Source().ReadyState == core.Ready {
		c.media.SetPosition(cursor)
	}
	c.state.Cursor = cursor

	if c.state.Status == core.StatusPlaying {
		c.releaseLease()
		c.epoch++
		c.arm()
	}
}

func (c *Controller) bind(locator string) {
	c.releaseLease()
	c.epoch++
	c.intent = false
	c.state = core.PlaybackState{Status: core.StatusIdle}
	c.binder.Bind(locator, func(res LoadResult) {
		c.post(metadataMsg{res: res})
	})
}

func (c *Controller) metadata(res LoadResult) {
	src, ok := c.binder.Resolve(res)
	if !ok {
		c.stale("metadata", res.Gen)
		return
	}

	if src.ReadyState == core.LoadError {
		c.intent = false
		c.state.Status = core.StatusError
		c.state.Err = &core.ErrorState{Kind: core.LoadFailure, Message: res.Err.Error()}
		return
	}

	c.pending = append(c.pending, Event{Type: EventSourceReady})
	// The window must fit inside the track before a queued intent plays it.
	c.window.Start = c.window.ClampStart(c.window.Start, src.Duration)
	if c.intent && c.state.Status == core.StatusAwaitingMetadata {
		c.startPlay(src)
	}
}

func (c *Controller) position(epoch uint64, pos time.Duration) {
	if !c.current(epoch, "position update") {
		return
	}
	c.state.Cursor = pos
	if pos-c.window.Start >= c.window.Length {
		c.end()
	}
}

// end pins the cursor to the window end so elapsed is exactly the window
// length.
func (c *Controller) end() {
	c.releaseLease()
	c.epoch++
	c.media.Pause()
	c.state.Cursor = c.window.End()
	c.state.Status = core.StatusEnded
}

func (c *Controller) teardown() {
	prevState, prevWindow := c.state, c.window
	c.releaseLease()
	c.epoch++
	c.intent = false
	c.binder.Reset()
	c.state = core.PlaybackState{Status: core.StatusIdle}
	c.flush(prevState, prevWindow)
}

// flush emits queued events followed by the diff between prev and the
// current state.
func (c *Controller) flush(prev core.PlaybackState, prevWindow core.PreviewWindow) {
	events := c.pending
	c.pending = nil

	if c.window != prevWindow {
		events = append(events, Event{Type: EventWindowChange})
	}
	switch {
	case c.state.Status != prev.Status:
		c.logger.Debug("preview transition", "from", prev.Status, "to", c.state.Status, "cursor", c.state.Cursor)
		events = append(events, Event{Type: EventStateChange})
	case c.state.Cursor != prev.Cursor:
		events = append(events, Event{Type: EventPosition})
	}
	if c.state.Err != nil && c.state.Err != prev.Err {
		events = append(events, Event{Type: EventError})
	}
	if len(events) == 0 {
		return
	}

	now := c.clock.Now()
	src := c.binder.Source()
	elapsed := c.state.ElapsedInWindow(c.window)

	c.lmu.RLock()
	defer c.lmu.RUnlock()
	for _, e := range events {
		e.Time = now
		e.Status = c.state.Status
		e.Previous = prev.Status
		e.Elapsed = elapsed
		e.Window = c.window
		e.Source = src
		if c.state.Err != nil {
			errState := *c.state.Err
			e.Err = &errState
		}
		for _, fn := range c.listeners {
			fn(e)
		}
	}
}

func normalizeWindow(w core.PreviewWindow) core.PreviewWindow {
	if w.Length <= 0 {
		w.Length = core.DefaultPreviewLength
	}
	w.Start = max(0, w.Start)
	return w
}
