package preview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tessro/prelisten/internal/core"
)

func TestReport(t *testing.T) {
	w := core.NewPreviewWindow(10 * time.Second)

	tests := []struct {
		name      string
		state     core.PlaybackState
		percent   float64
		elapsed   string
		remaining string
	}{
		{"idle before window", core.PlaybackState{Status: core.StatusIdle}, 0, "0:00", "-0:30"},
		{"halfway", core.PlaybackState{Status: core.StatusPlaying, Cursor: 25 * time.Second}, 50, "0:15", "-0:15"},
		{"fractional second truncates", core.PlaybackState{Status: core.StatusPlaying, Cursor: 12900 * time.Millisecond}, 100 * 2.9 / 30, "0:02", "-0:27"},
		{"past window", core.PlaybackState{Status: core.StatusPlaying, Cursor: time.Minute}, 100, "0:30", "-0:00"},
		{"ended", core.PlaybackState{Status: core.StatusEnded, Cursor: 20 * time.Second}, 100, "0:30", "-0:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Report(tt.state, w)
			assert.InDelta(t, tt.percent, p.Percent, 0.001)
			assert.Equal(t, tt.elapsed, p.ElapsedLabel)
			assert.Equal(t, tt.remaining, p.RemainingLabel)
			assert.Equal(t, p.Length, p.Elapsed+p.Remaining)
		})
	}
}

func TestReportZeroLengthWindow(t *testing.T) {
	p := Report(core.PlaybackState{Status: core.StatusPlaying, Cursor: time.Second}, core.PreviewWindow{})
	assert.Zero(t, p.Percent)
	assert.Equal(t, "0:00", p.ElapsedLabel)
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "0:00", FormatClock(-time.Second))
	assert.Equal(t, "1:30", FormatClock(90900*time.Millisecond))
	assert.Equal(t, "61:01", FormatClock(time.Hour+61*time.Second))
}
