package preview

import (
	"fmt"
	"time"

	"github.com/tessro/prelisten/internal/core"
)

// Progress is the display-ready position inside a preview window.
type Progress struct {
	Percent        float64       `json:"percent"`
	Elapsed        time.Duration `json:"elapsed"`
	Remaining      time.Duration `json:"remaining"`
	Length         time.Duration `json:"length"`
	ElapsedLabel   string        `json:"elapsed_label"`
	RemainingLabel string        `json:"remaining_label"`
}

// Report derives display progress from a playback state and its window.
// It has no side effects and may be called on every position tick.
func Report(state core.PlaybackState, w core.PreviewWindow) Progress {
	if w.Length <= 0 {
		return Progress{ElapsedLabel: FormatClock(0), RemainingLabel: "-" + FormatClock(0)}
	}

	elapsed := state.ElapsedInWindow(w)
	if state.Status == core.StatusEnded {
		elapsed = w.Length
	}
	remaining := w.Length - elapsed

	return Progress{
		Percent:        100 * float64(elapsed) / float64(w.Length),
		Elapsed:        elapsed,
		Remaining:      remaining,
		Length:         w.Length,
		ElapsedLabel:   FormatClock(elapsed),
		RemainingLabel: "-" + FormatClock(remaining),
	}
}

// FormatClock formats d as m:ss, truncating to whole seconds.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
