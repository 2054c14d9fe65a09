package coretest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tessro/prelisten/internal/core"
)

// ErrUnknownLocator is returned by Media.Load for locators without a duration.
var ErrUnknownLocator = errors.New("unknown locator")

// PlayCall is a pending Media.Play invocation.
type PlayCall struct {
	result chan error
}

// Resolve completes the Play call with err.
func (p *PlayCall) Resolve(err error) {
	p.result <- err
}

// LoadCall is a pending Media.Load invocation when loads are held.
type LoadCall struct {
	Locator string
	result  chan loadResult
}

type loadResult struct {
	d   time.Duration
	err error
}

// Resolve completes the Load call.
func (l *LoadCall) Resolve(d time.Duration, err error) {
	l.result <- loadResult{d: d, err: err}
}

// Media is a scriptable core.MediaPlayable. Play calls block until the test
// resolves them and, like a browser play promise, ignore cancellation.
type Media struct {
	// Durations maps locators to their total duration.
	Durations map[string]time.Duration
	// HoldLoads makes Load wait for LoadCall.Resolve.
	HoldLoads bool
	// AutoPlay resolves every Play call immediately with nil.
	AutoPlay bool

	mu        sync.Mutex
	position  time.Duration
	playing   bool
	pauses    int
	loaded    string
	nextObsID int
	posObs    map[int]func(time.Duration)
	endObs    map[int]func()
	closed    bool

	plays chan *PlayCall
	loads chan *LoadCall
}

// NewMedia returns a Media that knows the given locator durations.
func NewMedia(durations map[string]time.Duration) *Media {
	return &Media{
		Durations: durations,
		posObs:    make(map[int]func(time.Duration)),
		endObs:    make(map[int]func()),
		plays:     make(chan *PlayCall, 16),
		loads:     make(chan *LoadCall, 16),
	}
}

// Load resolves the locator's duration.
func (m *Media) Load(ctx context.Context, locator string) (time.Duration, error) {
	m.mu.Lock()
	m.loaded = locator
	m.playing = false
	m.position = 0
	hold := m.HoldLoads
	d, ok := m.Durations[locator]
	m.mu.Unlock()

	if hold {
		call := &LoadCall{Locator: locator, result: make(chan loadResult, 1)}
		m.loads <- call
		res := <-call.result
		return res.d, res.err
	}
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownLocator, locator)
	}
	return d, nil
}

// Play blocks until the matching PlayCall is resolved.
func (m *Media) Play(ctx context.Context) error {
	if m.AutoPlay {
		m.setPlaying(true)
		return nil
	}
	call := &PlayCall{result: make(chan error, 1)}
	m.plays <- call
	err := <-call.result
	if err == nil {
		m.setPlaying(true)
	}
	return err
}

func (m *Media) setPlaying(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = v
}

// Pause stops output.
func (m *Media) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = false
	m.pauses++
}

// Position returns the last position set or ticked.
func (m *Media) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

// SetPosition moves the playhead.
func (m *Media) SetPosition(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = d
}

// OnPositionUpdate registers a position observer.
func (m *Media) OnPositionUpdate(fn func(time.Duration)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextObsID
	m.nextObsID++
	m.posObs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.posObs, id)
	}
}

// OnEnded registers an end-of-media observer.
func (m *Media) OnEnded(fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextObsID
	m.nextObsID++
	m.endObs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.endObs, id)
	}
}

// Close marks the media closed.
func (m *Media) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.playing = false
	return nil
}

// Tick moves the playhead and notifies position observers.
func (m *Media) Tick(pos time.Duration) {
	m.mu.Lock()
	m.position = pos
	obs := make([]func(time.Duration), 0, len(m.posObs))
	for _, fn := range m.posObs {
		obs = append(obs, fn)
	}
	m.mu.Unlock()
	for _, fn := range obs {
		fn(pos)
	}
}

// End notifies ended observers.
func (m *Media) End() {
	m.mu.Lock()
	m.playing = false
	obs := make([]func(), 0, len(m.endObs))
	for _, fn := range m.endObs {
		obs = append(obs, fn)
	}
	m.mu.Unlock()
	for _, fn := range obs {
		fn()
	}
}

// NextPlay waits for the next Play call.
func (m *Media) NextPlay(timeout time.Duration) (*PlayCall, error) {
	select {
	case c := <-m.plays:
		return c, nil
	case <-time.After(timeout):
		return nil, errors.New("no play call")
	}
}

// NextLoad waits for the next held Load call.
func (m *Media) NextLoad(timeout time.Duration) (*LoadCall, error) {
	select {
	case c := <-m.loads:
		return c, nil
	case <-time.After(timeout):
		return nil, errors.New("no load call")
	}
}

// Playing reports whether output is running.
func (m *Media) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

// Pauses returns how many times Pause was called.
func (m *Media) Pauses() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauses
}

// Observers returns the number of registered position and ended observers.
func (m *Media) Observers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.posObs) + len(m.endObs)
}

// Loaded returns the last locator passed to Load.
func (m *Media) Loaded() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

var _ core.MediaPlayable = (*Media)(nil)
