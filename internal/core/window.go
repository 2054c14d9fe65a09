package core

import "time"

// DefaultPreviewLength is the fixed excerpt length offered to listeners.
const DefaultPreviewLength = 30 * time.Second

// PreviewWindow is the [Start, Start+Length) excerpt of a track exposed for preview.
type PreviewWindow struct {
	Start  time.Duration `json:"start"`
	Length time.Duration `json:"length"`
}

// NewPreviewWindow returns a window at start with the default length.
func NewPreviewWindow(start time.Duration) PreviewWindow {
	return PreviewWindow{Start: start, Length: DefaultPreviewLength}
}

// End returns the absolute end offset of the window.
func (w PreviewWindow) End() time.Duration {
	return w.Start + w.Length
}

// Adjustable reports whether the window start can move inside a track of
// the given total duration.
func (w PreviewWindow) Adjustable(total time.Duration) bool {
	return total >= w.Length
}

// MaxStart returns the largest start that keeps the window inside total.
func (w PreviewWindow) MaxStart(total time.Duration) time.Duration {
	return max(0, total-w.Length)
}

// ClampStart returns candidate clamped to [0, MaxStart(total)].
func (w PreviewWindow) ClampStart(candidate, total time.Duration) time.Duration {
	return Clamp(candidate, 0, w.MaxStart(total))
}

// Clamp bounds d to [lo, hi]. When hi < lo, lo wins.
func Clamp(d, lo, hi time.Duration) time.Duration {
	if d > hi {
		d = hi
	}
	if d < lo {
		d = lo
	}
	return d
}
