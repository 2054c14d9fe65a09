package tail

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessro/prelisten/internal/core"
	"github.com/tessro/prelisten/internal/preview"
)

type fakeSource struct {
	mu  sync.Mutex
	fns map[int]func(preview.Event)
	n   int
}

func (s *fakeSource) Subscribe(fn func(preview.Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]func(preview.Event))
	}
	id := s.n
	s.n++
	s.fns[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.fns, id)
	}
}

func (s *fakeSource) emit(e preview.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, fn := range s.fns {
		fn(e)
	}
}

func (s *fakeSource) subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fns)
}

func TestWatcherRelaysAndFilters(t *testing.T) {
	src := &fakeSource{}
	w := NewWatcher(src)

	errc := make(chan error, 1)
	go func() { errc <- w.Start(context.Background()) }()
	require.Eventually(t, func() bool { return src.subscribers() == 1 }, time.Second, time.Millisecond)

	src.emit(preview.Event{Type: preview.EventPosition})
	src.emit(preview.Event{Type: preview.EventStale})
	src.emit(preview.Event{Type: preview.EventStateChange, Status: core.StatusPlaying})

	e := <-w.Events()
	assert.Equal(t, preview.EventStateChange, e.Type)

	w.Stop()
	require.NoError(t, <-errc)
	_, open := <-w.Events()
	assert.False(t, open)
	assert.Equal(t, 0, src.subscribers())
}

func TestWatcherDropsWhenFull(t *testing.T) {
	src := &fakeSource{}
	w := NewWatcher(src, WithBuffer(1), WithPositions(true))

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- w.Start(ctx) }()
	require.Eventually(t, func() bool { return src.subscribers() == 1 }, time.Second, time.Millisecond)

	for i := 0; i < 3; i++ {
		src.emit(preview.Event{Type: preview.EventPosition})
	}
	assert.Equal(t, int64(2), w.Dropped())

	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
}

func TestWatcherKeepsStateChangesWhenFull(t *testing.T) {
	src := &fakeSource{}
	w := NewWatcher(src, WithBuffer(1), WithPositions(true))

	errc := make(chan error, 1)
	go func() { errc <- w.Start(context.Background()) }()
	require.Eventually(t, func() bool { return src.subscribers() == 1 }, time.Second, time.Millisecond)

	src.emit(preview.Event{Type: preview.EventPosition})
	emitted := make(chan struct{})
	go func() {
		src.emit(preview.Event{Type: preview.EventStateChange, Status: core.StatusEnded})
		close(emitted)
	}()

	assert.Equal(t, preview.EventPosition, (<-w.Events()).Type)
	e := <-w.Events()
	assert.Equal(t, preview.EventStateChange, e.Type)
	assert.Equal(t, core.StatusEnded, e.Status)
	<-emitted
	assert.Equal(t, int64(0), w.Dropped())

	w.Stop()
	require.NoError(t, <-errc)
}

func TestWatcherStopReleasesWaitingRelay(t *testing.T) {
	src := &fakeSource{}
	w := NewWatcher(src, WithBuffer(1))

	errc := make(chan error, 1)
	go func() { errc <- w.Start(context.Background()) }()
	require.Eventually(t, func() bool { return src.subscribers() == 1 }, time.Second, time.Millisecond)

	src.emit(preview.Event{Type: preview.EventStateChange})
	emitted := make(chan struct{})
	go func() {
		src.emit(preview.Event{Type: preview.EventError})
		close(emitted)
	}()

	w.Stop()
	require.NoError(t, <-errc)
	<-emitted
	assert.Equal(t, 0, src.subscribers())
}

func TestFormatLine(t *testing.T) {
	at := time.Date(2026, 5, 1, 21, 4, 5, 0, time.UTC)
	w := core.NewPreviewWindow(170 * time.Second)

	tests := []struct {
		name string
		e    preview.Event
		want string
	}{
		{
			name: "playing",
			e:    preview.Event{Type: preview.EventStateChange, Time: at, Status: core.StatusPlaying, Window: w, Elapsed: 5 * time.Second},
			want: "21:04:05 ▶️ Playing 0:05 / 0:30",
		},
		{
			name: "ended",
			e:    preview.Event{Type: preview.EventStateChange, Time: at, Status: core.StatusEnded, Window: w, Elapsed: 30 * time.Second},
			want: "21:04:05 ✅ Preview finished (0:30)",
		},
		{
			name: "window",
			e:    preview.Event{Type: preview.EventWindowChange, Time: at, Window: w},
			want: "21:04:05 ✂️ Window 2:50 - 3:20",
		},
		{
			name: "error",
			e: preview.Event{Type: preview.EventError, Time: at,
				Err: &core.ErrorState{Kind: core.PlaybackRejected, Message: "NotAllowedError"}},
			want: "21:04:05 ❌ Error (playback_rejected): NotAllowedError",
		},
	}

	f := NewFormatter(WithTimestamp(true))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Format(tt.e))
		})
	}
}

func TestFormatTemplate(t *testing.T) {
	f := NewFormatter(WithTemplate("{{.Status}} {{.Elapsed}} {{.Remaining}}"))
	e := preview.Event{
		Type:    preview.EventPosition,
		Status:  core.StatusPlaying,
		Window:  core.NewPreviewWindow(0),
		Elapsed: 12 * time.Second,
	}
	assert.Equal(t, "playing 0:12 -0:18", f.Format(e))

	plain := NewFormatter(WithEmoji(false), WithTemplate("{{.Broken"))
	assert.Equal(t, "0:12 -0:18 (40%)", plain.Format(e))
}
