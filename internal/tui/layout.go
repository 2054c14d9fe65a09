package tui

import "github.com/tessro/prelisten/internal/tui/components"

// bar is a one-row clickable region on screen.
type bar struct {
	x, y, width int
}

func (b bar) contains(x, y int) bool {
	return y == b.y && x >= b.x && x < b.x+b.width
}

// ratioAt maps a column to [0, 1] across the bar. Columns outside the bar
// clamp to its ends.
func (b bar) ratioAt(x int) float64 {
	if b.width <= 1 {
		return 0
	}
	r := float64(x-b.x) / float64(b.width-1)
	return max(0, min(1, r))
}

// screen is where the interactive regions of the current frame are.
type screen struct {
	progress bar
	timeline bar
	listTop  int
	listRows int
}

// layout mirrors View: a one-row header, the preview and timeline panels
// at full width, then the list panels and a one-row status bar. Panels
// draw a one-cell border and one column of padding.
func (m Model) layout() screen {
	inner := max(0, m.width-4)

	previewTop := 1
	timelineTop := previewTop + components.PreviewRows + 2
	listTop := timelineTop + components.TimelineRows + 2

	return screen{
		progress: bar{x: 2, y: previewTop + 1 + components.ProgressRow, width: inner},
		timeline: bar{x: 2, y: timelineTop + 1 + components.TimelineRow, width: inner},
		listTop:  listTop,
		listRows: max(3, m.height-listTop-3),
	}
}
