package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/prelisten/internal/core"
	"github.com/tessro/prelisten/internal/preview"
	"github.com/tessro/prelisten/internal/tui/styles"
)

// PreviewRows is the number of content rows inside the preview panel,
// counting the title.
const PreviewRows = 6

// ProgressRow is the content row holding the progress bar.
const ProgressRow = 4

// Preview displays the bound track and the playback progress inside its
// preview window.
type Preview struct{}

// NewPreview creates a new Preview component
func NewPreview() *Preview {
	return &Preview{}
}

// Render renders the preview panel. width is the outer width including
// the border.
func (p *Preview) Render(track *core.Track, snap preview.Snapshot, width int, focused bool) string {
	inner := max(1, width-4)
	title := styles.PanelTitle("Preview", focused)

	var lines []string
	if track == nil {
		lines = []string{
			styles.Muted.Render("No track selected"),
			styles.Dim.Render(truncate("Pick a track below and press enter", inner)),
			"",
			styles.ProgressBar(0, inner),
			"",
		}
	} else {
		lines = p.renderTrack(track, snap, inner)
	}

	panel := styles.Panel(focused).
		Width(width - 2).
		Height(PreviewRows)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		append([]string{title}, lines...)...,
	))
}

func (p *Preview) renderTrack(track *core.Track, snap preview.Snapshot, width int) []string {
	progress := snap.Progress()

	icon := styles.StatusIcon(snap.State.Status)
	name := styles.Title.Render(truncate(track.Title, width-2))

	meta := []string{}
	if track.Artist != "" {
		meta = append(meta, track.Artist)
	}
	if track.BPM > 0 {
		meta = append(meta, fmt.Sprintf("%d bpm", track.BPM))
	}
	meta = append(meta, snap.State.Status.String())
	subtitle := styles.Subtitle.Render(truncate(strings.Join(meta, " · "), width))

	bar := styles.ProgressBar(progress.Percent, width)

	labels := fmt.Sprintf("%s / %s   %s   %3.0f%%",
		progress.ElapsedLabel,
		preview.FormatClock(progress.Length),
		progress.RemainingLabel,
		progress.Percent)
	footer := styles.Muted.Render(labels)
	if snap.State.Err != nil {
		footer = styles.Failed.Render(truncate(snap.State.Err.Message, width))
	}

	return []string{
		icon + " " + name,
		subtitle,
		"",
		bar,
		footer,
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 {
		return ""
	}
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
