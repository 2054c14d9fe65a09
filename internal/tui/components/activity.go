package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/prelisten/internal/tui/styles"
)

// ActivityEntry is one formatted controller event.
type ActivityEntry struct {
	Line string
	At   time.Time
}

// Activity displays the most recent controller events, newest first.
type Activity struct{}

// NewActivity creates a new Activity component
func NewActivity() *Activity {
	return &Activity{}
}

// Render renders the activity panel
func (a *Activity) Render(entries []ActivityEntry, width, height int, focused bool) string {
	title := styles.PanelTitle("Activity", focused)

	var content string
	if len(entries) == 0 {
		content = styles.Muted.Render("Nothing yet")
	} else {
		content = a.renderEntries(entries, width-4, height-1)
	}

	panel := styles.Panel(focused).
		Width(width - 2).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		content,
	))
}

func (a *Activity) renderEntries(entries []ActivityEntry, width, maxLines int) string {
	lines := make([]string, 0, maxLines)

	for i, entry := range entries {
		if i >= maxLines {
			break
		}
		ago := formatTimeAgo(entry.At)
		text := truncate(entry.Line, width-len(ago)-1)
		pad := max(1, width-len([]rune(text))-len(ago))
		lines = append(lines, fmt.Sprintf("%s%s%s", text, styles.Repeat(" ", pad), styles.Dim.Render(ago)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func formatTimeAgo(t time.Time) string {
	d := time.Since(t)

	if d < time.Minute {
		return "now"
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return t.Format("Jan 2")
}
