package preview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessro/prelisten/internal/core"
	perrors "github.com/tessro/prelisten/internal/errors"
)

func newSelector(t *testing.T, total time.Duration) (*Selector, *[]core.PreviewWindow) {
	t.Helper()
	sel := NewSelector(core.NewPreviewWindow(0))
	sel.SetTotal(total)
	var commits []core.PreviewWindow
	sel.OnCommit(func(w core.PreviewWindow) { commits = append(commits, w) })
	return sel, &commits
}

func TestSetStartClamps(t *testing.T) {
	tests := []struct {
		name      string
		total     time.Duration
		candidate time.Duration
		want      time.Duration
	}{
		{"negative", 200 * time.Second, -5 * time.Second, 0},
		{"zero", 200 * time.Second, 0, 0},
		{"inside", 200 * time.Second, 100 * time.Second, 100 * time.Second},
		{"last valid", 200 * time.Second, 170 * time.Second, 170 * time.Second},
		{"past end", 200 * time.Second, 185 * time.Second, 170 * time.Second},
		{"far past end", 200 * time.Second, time.Hour, 170 * time.Second},
		{"exact length", 30 * time.Second, 10 * time.Second, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, _ := newSelector(t, tt.total)
			got, ok := sel.SetStart(tt.candidate)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)

			w := sel.Window()
			assert.GreaterOrEqual(t, w.Start, time.Duration(0))
			assert.LessOrEqual(t, w.End(), tt.total)
		})
	}
}

func TestSetStartDisabledForShortTrack(t *testing.T) {
	sel, commits := newSelector(t, 20*time.Second)
	assert.False(t, sel.Enabled())

	got, ok := sel.SetStart(5 * time.Second)
	assert.False(t, ok)
	assert.Equal(t, time.Duration(0), got)
	assert.Empty(t, *commits)
	assert.False(t, sel.BeginDrag())
}

func TestSetStartBeforeTotalKnown(t *testing.T) {
	sel := NewSelector(core.NewPreviewWindow(0))
	got, ok := sel.SetStart(185 * time.Second)
	require.True(t, ok)
	assert.Equal(t, 185*time.Second, got)

	// Learning the duration pulls the window back inside the track.
	sel.SetTotal(200 * time.Second)
	assert.Equal(t, 170*time.Second, sel.Window().Start)
}

func TestDragCommitsOnlyOnRelease(t *testing.T) {
	sel, commits := newSelector(t, 200*time.Second)

	require.True(t, sel.BeginDrag())
	assert.Equal(t, 50*time.Second, sel.DragTo(0.25))
	assert.Equal(t, 170*time.Second, sel.DragTo(0.925))
	assert.Empty(t, *commits)
	assert.Equal(t, time.Duration(0), sel.Window().Start)

	got, ok := sel.Release()
	require.True(t, ok)
	assert.Equal(t, 170*time.Second, got)
	require.Len(t, *commits, 1)
	assert.Equal(t, 170*time.Second, (*commits)[0].Start)
	assert.False(t, sel.Dragging())

	_, ok = sel.Release()
	assert.False(t, ok, "release without a drag does nothing")
}

func TestTextCommitsOnSubmitAndBlur(t *testing.T) {
	sel, commits := newSelector(t, 200*time.Second)

	sel.Input("4")
	sel.Input("45")
	assert.Empty(t, *commits)
	assert.Equal(t, 45*time.Second, sel.Draft())

	got, ok := sel.Submit()
	require.True(t, ok)
	assert.Equal(t, 45*time.Second, got)

	sel.Input("1:10")
	got, ok = sel.Blur()
	require.True(t, ok)
	assert.Equal(t, 70*time.Second, got)
	assert.Len(t, *commits, 2)
}

func TestInvalidTextReverts(t *testing.T) {
	sel, commits := newSelector(t, 200*time.Second)
	_, _ = sel.SetStart(40 * time.Second)
	*commits = nil

	sel.Input("abc")
	got, ok := sel.Submit()
	assert.False(t, ok)
	assert.Equal(t, 40*time.Second, got)
	assert.Equal(t, "40", sel.Text())
	assert.Equal(t, 40*time.Second, sel.Draft())
	assert.Empty(t, *commits)
}

func TestDragAndTextAgree(t *testing.T) {
	tests := []struct {
		ratio float64
		text  string
	}{
		{0, "0"},
		{0.25, "50"},
		{0.5, "1:40"},
		{0.925, "185"},
		{1, "200"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			drag, _ := newSelector(t, 200*time.Second)
			require.True(t, drag.BeginDrag())
			drag.DragTo(tt.ratio)
			byDrag, ok := drag.Release()
			require.True(t, ok)

			text, _ := newSelector(t, 200*time.Second)
			text.Input(tt.text)
			byText, ok := text.Submit()
			require.True(t, ok)

			assert.Equal(t, byDrag, byText)
		})
	}
}

func TestSetTotalCommitsMovedStart(t *testing.T) {
	sel := NewSelector(core.NewPreviewWindow(90 * time.Second))
	var commits []core.PreviewWindow
	sel.OnCommit(func(w core.PreviewWindow) { commits = append(commits, w) })

	sel.SetTotal(300 * time.Second)
	assert.Empty(t, commits)

	sel.SetTotal(100 * time.Second)
	require.Len(t, commits, 1)
	assert.Equal(t, 70*time.Second, commits[0].Start)
}

func TestResetForgetsTotal(t *testing.T) {
	sel, commits := newSelector(t, 200*time.Second)
	sel.SetStart(120 * time.Second)
	require.Len(t, *commits, 1)

	sel.Reset("b.mp3", core.PreviewWindow{Start: 45 * time.Second})

	_, known := sel.Total()
	assert.False(t, known)
	assert.True(t, sel.Enabled())
	assert.Equal(t, core.PreviewWindow{Start: 45 * time.Second, Length: core.DefaultPreviewLength}, sel.Window())
	assert.Equal(t, "45", sel.Text())
	require.Len(t, *commits, 2)
	assert.Equal(t, 45*time.Second, (*commits)[1].Start)

	assert.False(t, sel.BeginDrag(), "drag needs a known duration")
}

func TestSourceTotalIgnoresPreviousTrack(t *testing.T) {
	sel := NewSelector(core.NewPreviewWindow(0))
	var commits []core.PreviewWindow
	sel.OnCommit(func(w core.PreviewWindow) { commits = append(commits, w) })

	sel.Reset("b.mp3", core.PreviewWindow{Start: 150 * time.Second})
	require.Len(t, commits, 1)

	assert.False(t, sel.SetSourceTotal("a.mp3", 40*time.Second))
	_, known := sel.Total()
	assert.False(t, known)
	assert.Equal(t, 150*time.Second, sel.Window().Start)
	assert.Len(t, commits, 1)

	assert.True(t, sel.SetSourceTotal("b.mp3", 160*time.Second))
	total, known := sel.Total()
	assert.True(t, known)
	assert.Equal(t, 160*time.Second, total)
	assert.Equal(t, 130*time.Second, sel.Window().Start)
	require.Len(t, commits, 2)
}

func TestSourceTotalBeforeAnyReset(t *testing.T) {
	sel := NewSelector(core.NewPreviewWindow(185 * time.Second))
	assert.True(t, sel.SetSourceTotal("set.mp3", 200*time.Second))
	assert.Equal(t, 170*time.Second, sel.Window().Start)
}

func TestParseStart(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"90", 90 * time.Second, false},
		{" 12.5 ", 12500 * time.Millisecond, false},
		{"1:30", 90 * time.Second, false},
		{"0:05.25", 5250 * time.Millisecond, false},
		{"", 0, true},
		{"-3", 0, true},
		{"1:75", 0, true},
		{"1:3", 0, true},
		{"a:10", 0, true},
		{"1:2:3", 0, true},
		{"NaN", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseStart(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, perrors.ErrInvalidWindow, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}
