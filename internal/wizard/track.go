package wizard

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/prelisten/internal/core"
	"github.com/tessro/prelisten/internal/preview"
)

// TrackModel is the bubbletea model for the track picker.
type TrackModel struct {
	tracks   []core.Track
	cursor   int
	selected *core.Track
	width    int
	height   int
}

// Styles for track picker
var (
	trackTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	trackItemStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	trackSelectedStyle = lipgloss.NewStyle().
				PaddingLeft(2).
				Background(lipgloss.Color("237"))

	trackInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

// NewTrackModel creates a new track picker model.
func NewTrackModel(tracks []core.Track) TrackModel {
	return TrackModel{
		tracks: tracks,
		width:  80,
		height: 20,
	}
}

// Init initializes the model.
func (m TrackModel) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m TrackModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			return m, tea.Quit

		case "enter", " ":
			if len(m.tracks) > 0 && m.cursor < len(m.tracks) {
				m.selected = &m.tracks[m.cursor]
				return m, tea.Quit
			}

		case "up", "k", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j", "ctrl+n":
			if m.cursor < len(m.tracks)-1 {
				m.cursor++
			}

		case "home", "g":
			m.cursor = 0

		case "end", "G":
			m.cursor = max(0, len(m.tracks)-1)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

// View renders the model.
func (m TrackModel) View() string {
	var b strings.Builder

	b.WriteString(trackTitleStyle.Render("🎧 Select Track"))
	b.WriteString("\n\n")

	if len(m.tracks) == 0 {
		b.WriteString(trackInfoStyle.Render("No tracks in the catalog"))
		b.WriteString("\n\n")
		b.WriteString(trackInfoStyle.Render("Add one with 'prelisten catalog add <file|url>'."))
	} else {
		for i, track := range m.tracks {
			line := track.Title
			if track.Artist != "" {
				line += " — " + track.Artist
			}

			info := fmt.Sprintf("preview @ %s", preview.FormatClock(track.PreviewStart))
			if track.Duration > 0 {
				info += " of " + preview.FormatClock(track.Duration)
			}
			if track.BPM > 0 {
				info += fmt.Sprintf(", %d bpm", track.BPM)
			}
			line += " " + trackInfoStyle.Render("("+info+")")

			if i == m.cursor {
				b.WriteString(trackSelectedStyle.Render("▸ " + line))
			} else {
				b.WriteString(trackItemStyle.Render("  " + line))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(trackInfoStyle.Render("↑/↓ navigate • enter select • esc quit"))

	return b.String()
}

// Selected returns the selected track, or nil if none.
func (m TrackModel) Selected() *core.Track {
	return m.selected
}

// RunTrackPicker runs the track picker and returns the selected track.
func RunTrackPicker(tracks []core.Track) (*core.Track, error) {
	model := NewTrackModel(tracks)
	p := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}
	return finalModel.(TrackModel).Selected(), nil
}
