package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/prelisten/internal/core"
	"github.com/tessro/prelisten/internal/preview"
	"github.com/tessro/prelisten/internal/tui/styles"
)

// TimelineRows is the number of content rows inside the timeline panel,
// counting the title.
const TimelineRows = 5

// TimelineRow is the content row holding the timeline bar.
const TimelineRow = 1

// TimelineView is what the timeline panel shows.
type TimelineView struct {
	Window   core.PreviewWindow
	Draft    time.Duration
	Total    time.Duration
	Known    bool
	Enabled  bool
	Dragging bool
	Editing  bool
	Input    string
}

// Timeline shows the full track with the preview window highlighted and
// the start editor below it.
type Timeline struct{}

// NewTimeline creates a new Timeline component
func NewTimeline() *Timeline {
	return &Timeline{}
}

// Render renders the timeline panel. width is the outer width including
// the border.
func (t *Timeline) Render(v TimelineView, width int, focused bool) string {
	inner := max(1, width-4)
	title := styles.PanelTitle("Preview window", focused)

	start := v.Window.Start
	if v.Dragging || v.Editing {
		start = v.Draft
	}

	var bar string
	if v.Known && v.Total > 0 {
		from := cell(start, v.Total, inner)
		to := cell(start+v.Window.Length, v.Total, inner)
		bar = styles.Timeline(inner, from, to, v.Dragging)
	} else {
		bar = styles.Dim.Render(styles.Repeat("┄", inner))
	}

	total := "?:??"
	if v.Known {
		total = preview.FormatClock(v.Total)
	}
	span := fmt.Sprintf("%s → %s of %s",
		preview.FormatClock(start),
		preview.FormatClock(start+v.Window.Length),
		total)

	editor := styles.Dim.Render(truncate("e: edit start   drag the bar to move the window", inner))
	if v.Editing {
		editor = "start " + v.Input
	}

	var note string
	switch {
	case !v.Known:
		note = styles.Dim.Render("waiting for track duration")
	case !v.Enabled:
		note = styles.Paused.Render("track is shorter than the preview")
	case v.Dragging:
		note = styles.Highlight.Render("release to commit")
	}

	panel := styles.Panel(focused).
		Width(width - 2).
		Height(TimelineRows)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		bar,
		styles.Muted.Render(truncate(span, inner)),
		editor,
		note,
	))
}

func cell(d, total time.Duration, width int) int {
	if total <= 0 {
		return 0
	}
	return int(float64(d) / float64(total) * float64(width))
}
