package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/tessro/prelisten/internal/core"
	"github.com/tessro/prelisten/internal/preview"
	"github.com/tessro/prelisten/internal/tui/styles"
)

// Tracks displays the catalog with a movable cursor.
type Tracks struct {
	offset   int
	selected int
}

// NewTracks creates a new Tracks component
func NewTracks() *Tracks {
	return &Tracks{}
}

// SelectNext moves the cursor down
func (t *Tracks) SelectNext(count int) {
	if t.selected < count-1 {
		t.selected++
	}
}

// SelectPrev moves the cursor up
func (t *Tracks) SelectPrev() {
	if t.selected > 0 {
		t.selected--
	}
}

// Selected returns the selected index
func (t *Tracks) Selected() int {
	return t.selected
}

// SelectID moves the cursor to the track with the given id.
func (t *Tracks) SelectID(tracks []core.Track, id string) {
	for i, tr := range tracks {
		if tr.ID == id {
			t.selected = i
			return
		}
	}
}

// Render renders the tracks panel
func (t *Tracks) Render(tracks []core.Track, current string, width, height int, focused bool) string {
	title := styles.PanelTitle("Tracks", focused)

	var content string
	if len(tracks) == 0 {
		content = styles.Muted.Render("Catalog is empty. Add tracks with 'prelisten catalog add'")
	} else {
		content = t.renderTracks(tracks, current, width-4, height-1)
	}

	panel := styles.Panel(focused).
		Width(width - 2).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		content,
	))
}

func (t *Tracks) renderTracks(tracks []core.Track, current string, width, maxLines int) string {
	if t.selected >= len(tracks) {
		t.selected = len(tracks) - 1
	}

	visible := max(1, maxLines-1)
	if t.selected < t.offset {
		t.offset = t.selected
	}
	if t.selected >= t.offset+visible {
		t.offset = t.selected - visible + 1
	}

	end := min(len(tracks), t.offset+visible)
	lines := make([]string, 0, end-t.offset+1)

	for i := t.offset; i < end; i++ {
		track := tracks[i]

		length := "?:??"
		if track.Duration > 0 {
			length = preview.FormatClock(track.Duration)
		}
		uploaded := ""
		if !track.UploadedAt.IsZero() {
			uploaded = humanize.Time(track.UploadedAt)
		}
		right := fmt.Sprintf("%s  @%s  %s", length, preview.FormatClock(track.PreviewStart), uploaded)

		label := track.Title
		if track.Artist != "" {
			label += " — " + track.Artist
		}
		label = truncate(label, width-len([]rune(right))-5)
		pad := max(1, width-4-len([]rune(label))-len([]rune(right)))

		marker := "  "
		if track.ID == current {
			marker = styles.Playing.Render("▶ ")
		}
		line := fmt.Sprintf("%s%s%s%s", marker, label, styles.Repeat(" ", pad), styles.Dim.Render(right))
		if i == t.selected {
			line = styles.Selected.Render(line)
		}
		lines = append(lines, line)
	}

	if end < len(tracks) {
		lines = append(lines, styles.Dim.Render(fmt.Sprintf("    ... and %d more", len(tracks)-end)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
