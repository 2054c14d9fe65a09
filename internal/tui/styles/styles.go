package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/prelisten/internal/core"
)

// Colors
var (
	// Primary colors
	Primary   = lipgloss.Color("#7C3AED") // Purple
	Secondary = lipgloss.Color("#10B981") // Green
	Accent    = lipgloss.Color("#F59E0B") // Amber

	// Status colors
	Success = lipgloss.Color("#10B981") // Green
	Warning = lipgloss.Color("#F59E0B") // Amber
	Error   = lipgloss.Color("#EF4444") // Red
	Info    = lipgloss.Color("#3B82F6") // Blue

	// Neutral colors
	Surface   = lipgloss.Color("#374151") // Medium gray
	Border    = lipgloss.Color("#4B5563") // Light gray
	Text      = lipgloss.AdaptiveColor{Light: "#111827", Dark: "#F9FAFB"}
	TextMuted = lipgloss.Color("#9CA3AF") // Gray
	TextDim   = lipgloss.Color("#6B7280") // Darker gray
)

// Text styles
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Text)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextMuted)

	Label = lipgloss.NewStyle().
		Foreground(TextDim)

	Highlight = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary)

	Muted = lipgloss.NewStyle().
		Foreground(TextMuted)

	Dim = lipgloss.NewStyle().
		Foreground(TextDim)

	Playing = lipgloss.NewStyle().
		Foreground(Success)

	Paused = lipgloss.NewStyle().
		Foreground(Warning)

	Failed = lipgloss.NewStyle().
		Foreground(Error)

	Selected = lipgloss.NewStyle().
			Background(Surface)
)

// Border styles
var (
	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border)

	FocusedBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary)
)

// Panel returns the bordered panel style.
func Panel(focused bool) lipgloss.Style {
	if focused {
		return FocusedBorder.Padding(0, 1)
	}
	return BorderStyle.Padding(0, 1)
}

// PanelTitle creates a styled panel title
func PanelTitle(title string, focused bool) string {
	style := Label
	if focused {
		style = Highlight
	}
	return style.Render(" " + title + " ")
}

// ProgressBar creates a progress bar string
func ProgressBar(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	filled = max(0, min(filled, width))

	filledStyle := lipgloss.NewStyle().Foreground(Primary)
	emptyStyle := lipgloss.NewStyle().Foreground(Border)

	return filledStyle.Render(strings.Repeat("━", filled)) +
		emptyStyle.Render(strings.Repeat("─", width-filled))
}

// Timeline renders the whole track as a bar of width cells with the
// preview window [from, to) highlighted. Cells are indexes into the bar.
func Timeline(width, from, to int, dragging bool) string {
	if width <= 0 {
		return ""
	}
	from = max(0, min(from, width))
	to = max(from, min(to, width))
	if to == from && from < width {
		to = from + 1
	}

	window := lipgloss.NewStyle().Foreground(Accent)
	if dragging {
		window = window.Bold(true).Foreground(Primary)
	}
	rest := lipgloss.NewStyle().Foreground(Border)

	return rest.Render(strings.Repeat("─", from)) +
		window.Render(strings.Repeat("█", to-from)) +
		rest.Render(strings.Repeat("─", width-to))
}

// StatusIcon returns an icon for a playback status.
func StatusIcon(s core.Status) string {
	switch s {
	case core.StatusPlaying:
		return Playing.Render("▶")
	case core.StatusSeeking, core.StatusAwaitingMetadata:
		return Paused.Render("…")
	case core.StatusPaused:
		return Paused.Render("⏸")
	case core.StatusEnded:
		return Muted.Render("■")
	case core.StatusError:
		return Failed.Render("!")
	default:
		return Dim.Render("·")
	}
}

// SetTheme forces a dark or light palette. "auto" keeps terminal detection.
func SetTheme(theme string) {
	switch theme {
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	case "light":
		lipgloss.SetHasDarkBackground(false)
	}
}

// Repeat repeats a string n times
func Repeat(s string, n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(s, n)
}
