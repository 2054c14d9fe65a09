package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessro/prelisten/internal/catalog"
	"github.com/tessro/prelisten/internal/config"
	"github.com/tessro/prelisten/internal/core"
	perrors "github.com/tessro/prelisten/internal/errors"
	"github.com/tessro/prelisten/internal/media"
	"github.com/tessro/prelisten/internal/preview"
	"github.com/tessro/prelisten/internal/tail"
)

func useConfig(t *testing.T) *config.Config {
	t.Helper()
	prev := cfg
	cfg = config.Default()
	cfg.Catalog.Path = filepath.Join(t.TempDir(), "catalog.yaml")
	t.Cleanup(func() { cfg = prev })
	return cfg
}

func ptr(d time.Duration) *time.Duration { return &d }

func TestPlaceWindow(t *testing.T) {
	w := core.PreviewWindow{Start: 10 * time.Second, Length: 30 * time.Second}

	tests := []struct {
		name       string
		total      time.Duration
		candidate  *time.Duration
		start      time.Duration
		adjustable bool
		clamped    bool
	}{
		{"keeps stored start", 3 * time.Minute, nil, 10 * time.Second, true, false},
		{"accepts candidate", 3 * time.Minute, ptr(45 * time.Second), 45 * time.Second, true, false},
		{"clamps past end", 100 * time.Second, ptr(90 * time.Second), 70 * time.Second, true, true},
		{"short track pins to zero", 20 * time.Second, ptr(5 * time.Second), 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := placeWindow(w, tt.total, tt.candidate)
			assert.Equal(t, tt.start, res.Window.Start)
			assert.Equal(t, tt.start+w.Length, res.End)
			assert.Equal(t, tt.adjustable, res.Adjustable)
			assert.Equal(t, tt.clamped, res.Clamped)
			assert.Equal(t, tt.total, res.Total)
		})
	}
}

type recordRenderer struct {
	events []preview.Event
}

func (r *recordRenderer) Render(e preview.Event) { r.events = append(r.events, e) }
func (r *recordRenderer) Finish()                {}

func TestAwaitEndStopsOnEnded(t *testing.T) {
	events := make(chan preview.Event, 3)
	events <- preview.Event{Type: preview.EventStateChange, Status: core.StatusPlaying}
	events <- preview.Event{Type: preview.EventPosition, Status: core.StatusPlaying, Elapsed: time.Second}
	events <- preview.Event{Type: preview.EventStateChange, Status: core.StatusEnded}

	r := &recordRenderer{}
	require.NoError(t, awaitEnd(context.Background(), events, r))
	assert.Len(t, r.events, 3)
}

func TestAwaitEndReportsFailure(t *testing.T) {
	events := make(chan preview.Event, 1)
	events <- preview.Event{
		Type:   preview.EventError,
		Status: core.StatusError,
		Err:    &core.ErrorState{Kind: core.LoadFailure, Message: "404"},
	}

	err := awaitEnd(context.Background(), events, nopRenderer{})
	require.Error(t, err)
	assert.ErrorIs(t, err, perrors.ErrLoadFailure)
	assert.Contains(t, err.Error(), "404")
}

func TestAwaitEndClosedChannel(t *testing.T) {
	events := make(chan preview.Event)
	close(events)
	assert.ErrorIs(t, awaitEnd(context.Background(), events, nopRenderer{}), perrors.ErrClosed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, awaitEnd(ctx, make(chan preview.Event), nopRenderer{}), context.Canceled)
}

func TestPreviewFailure(t *testing.T) {
	err := previewFailure(&core.ErrorState{Kind: core.PlaybackRejected, Message: "device busy"})
	assert.ErrorIs(t, err, perrors.ErrPlaybackRejected)
	assert.Equal(t, "playback rejected: device busy", err.Error())
}

func TestLineRendererSkipsPositions(t *testing.T) {
	var buf bytes.Buffer
	r := &lineRenderer{out: &buf, format: tail.NewFormatter()}

	r.Render(preview.Event{Type: preview.EventPosition, Status: core.StatusPlaying})
	assert.Empty(t, buf.String())

	r.Render(preview.Event{Type: preview.EventStateChange, Status: core.StatusPlaying, Previous: core.StatusSeeking})
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))

	r.positions = true
	r.Render(preview.Event{Type: preview.EventPosition, Status: core.StatusPlaying})
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "?:??"},
		{-time.Second, "?:??"},
		{59 * time.Second, "0:59"},
		{3*time.Minute + 5*time.Second, "3:05"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
		{1500 * time.Millisecond, "0:02"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.in), "FormatDuration(%v)", tt.in)
	}
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "Nig...", TruncateString("Night Drive", 6))
	assert.Equal(t, "Über", TruncateString("Über", 4))
	assert.Equal(t, "ab", TruncateString("abcdef", 2))
}

func TestResolveTrack(t *testing.T) {
	c := useConfig(t)
	c.Preview.DefaultStart = 12

	cat, err := catalog.Load(c.Catalog.Path)
	require.NoError(t, err)
	added, err := cat.Add(core.Track{Title: "Night Drive", Locator: "gs://bucket/night.mp3"})
	require.NoError(t, err)

	track, inCatalog, err := resolveTrack(cat, "Night Drive")
	require.NoError(t, err)
	assert.True(t, inCatalog)
	assert.Equal(t, added.ID, track.ID)

	file := filepath.Join(t.TempDir(), "demo.mp3")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	track, inCatalog, err = resolveTrack(cat, file)
	require.NoError(t, err)
	assert.False(t, inCatalog)
	assert.Equal(t, "demo", track.Title)
	assert.Equal(t, file, track.Locator)
	assert.Equal(t, 12*time.Second, track.PreviewStart)

	track, _, err = resolveTrack(cat, "https://example.com/a.mp3")
	require.NoError(t, err)
	assert.Equal(t, "a", track.Title)

	_, _, err = resolveTrack(cat, filepath.Join(t.TempDir(), "missing.mp3"))
	assert.ErrorIs(t, err, perrors.ErrTrackNotFound)
}

func TestPreviewWindowOverrides(t *testing.T) {
	useConfig(t)
	track := core.Track{PreviewStart: 20 * time.Second}

	w, err := previewWindow(track, "", 0)
	require.NoError(t, err)
	assert.Equal(t, core.PreviewWindow{Start: 20 * time.Second, Length: 30 * time.Second}, w)

	w, err = previewWindow(track, "1:30", 15*time.Second)
	require.NoError(t, err)
	assert.Equal(t, core.PreviewWindow{Start: 90 * time.Second, Length: 15 * time.Second}, w)

	_, err = previewWindow(track, "soon", 0)
	assert.ErrorIs(t, err, perrors.ErrInvalidWindow)
}

func TestPlayStartPastEndIsClamped(t *testing.T) {
	c := useConfig(t)
	c.Audio.Backend = media.BackendHeadless

	orig := media.ProbeDurationFunc
	t.Cleanup(func() { media.ProbeDurationFunc = orig })
	media.ProbeDurationFunc = func(io.ReadSeeker, string) (time.Duration, error) {
		return 200 * time.Second, nil
	}

	file := filepath.Join(t.TempDir(), "set.mp3")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	track := core.Track{Title: "Set", Locator: file}

	for _, start := range []string{"185", "500"} {
		t.Run(start, func(t *testing.T) {
			window, err := previewWindow(track, start, 0)
			require.NoError(t, err)

			s, err := startSession("", window)
			require.NoError(t, err)
			defer func() { _ = s.close() }()

			sel := preview.NewSelector(window)
			unlink := preview.Link(s.ctrl, sel)
			defer unlink()

			ctx := context.Background()
			_, err = s.ctrl.Bind(ctx, track.Locator)
			require.NoError(t, err)
			_, err = s.ctrl.Toggle(ctx)
			require.NoError(t, err)

			var snap preview.Snapshot
			require.Eventually(t, func() bool {
				got, serr := s.ctrl.Snapshot(ctx)
				snap = got
				return serr == nil && got.State.Status == core.StatusPlaying
			}, 2*time.Second, 5*time.Millisecond)

			assert.Equal(t, 170*time.Second, snap.Window.Start)
			assert.GreaterOrEqual(t, snap.State.Cursor, 170*time.Second)
			assert.Less(t, snap.State.Cursor, 175*time.Second)
			require.Eventually(t, func() bool {
				return sel.Window().Start == 170*time.Second
			}, 2*time.Second, 5*time.Millisecond)
		})
	}
}

func TestParseConfigValue(t *testing.T) {
	v, err := parseConfigValue("int", "45")
	require.NoError(t, err)
	assert.Equal(t, 45, v)

	v, err = parseConfigValue("bool", "true")
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = parseConfigValue("float", "12.5")
	require.NoError(t, err)
	assert.Equal(t, 12.5, v)

	_, err = parseConfigValue("int", "many")
	assert.Error(t, err)
}

func TestConfigSetValidates(t *testing.T) {
	useConfig(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, config.Save(config.Default(), path))

	prevFile := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = prevFile })

	var out bytes.Buffer
	configSetCmd.SetOut(&out)

	require.NoError(t, runConfigSet(configSetCmd, []string{"preview.length", "45"}))
	loaded, err := config.LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 45, loaded.Preview.Length)

	assert.Error(t, runConfigSet(configSetCmd, []string{"audio.backend", "cassette"}))
	assert.Error(t, runConfigSet(configSetCmd, []string{"nope.key", "1"}))

	loaded, err = config.LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "speaker", loaded.Audio.Backend)
}
