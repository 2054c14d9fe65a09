package wizard

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessro/prelisten/internal/core"
)

func pickerTracks() []core.Track {
	return []core.Track{
		{ID: "a", Title: "Alpha", Artist: "A", PreviewStart: 10 * time.Second},
		{ID: "b", Title: "Beta", Artist: "B", Duration: 200 * time.Second, BPM: 124},
	}
}

func press(t *testing.T, m TrackModel, msg tea.KeyMsg) (TrackModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(TrackModel)
	require.True(t, ok)
	return out, cmd
}

func TestTrackPickerSelects(t *testing.T) {
	m := NewTrackModel(pickerTracks())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	require.NotNil(t, m.Selected())
	assert.Equal(t, "b", m.Selected().ID)
}

func TestTrackPickerCancel(t *testing.T) {
	m := NewTrackModel(pickerTracks())
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Nil(t, m.Selected())
}

func TestTrackPickerView(t *testing.T) {
	view := NewTrackModel(pickerTracks()).View()
	assert.Contains(t, view, "Alpha — A")
	assert.Contains(t, view, "preview @ 0:10")
	assert.Contains(t, view, "of 3:20, 124 bpm")

	assert.Contains(t, NewTrackModel(nil).View(), "No tracks in the catalog")
}

func TestNeedsTrack(t *testing.T) {
	assert.True(t, NeedsTrack(nil))
	assert.False(t, NeedsTrack([]string{"alpha"}))
}
