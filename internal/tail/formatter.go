package tail

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/tessro/prelisten/internal/core"
	"github.com/tessro/prelisten/internal/preview"
)

// Formatter formats events for output.
type Formatter struct {
	showEmoji     bool
	showTimestamp bool
	template      *template.Template
}

// FormatterOption configures a Formatter.
type FormatterOption func(*Formatter)

// WithEmoji enables emoji output.
func WithEmoji(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showEmoji = enabled
	}
}

// WithTimestamp enables timestamp output.
func WithTimestamp(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showTimestamp = enabled
	}
}

// WithTemplate sets a custom format template. An unparseable template is
// ignored.
func WithTemplate(tmpl string) FormatterOption {
	return func(f *Formatter) {
		if tmpl != "" {
			t, err := template.New("format").Parse(tmpl)
			if err == nil {
				f.template = t
			}
		}
	}
}

// NewFormatter creates a new formatter with the given options.
func NewFormatter(opts ...FormatterOption) *Formatter {
	f := &Formatter{
		showEmoji: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format formats an event as a string.
func (f *Formatter) Format(e preview.Event) string {
	if f.template != nil {
		return f.formatTemplate(e)
	}
	return f.formatLine(e)
}

func (f *Formatter) formatLine(e preview.Event) string {
	var parts []string

	if f.showTimestamp {
		parts = append(parts, e.Time.Format("15:04:05"))
	}
	if f.showEmoji {
		parts = append(parts, eventEmoji(e))
	}
	parts = append(parts, describe(e))

	return strings.Join(parts, " ")
}

type templateData struct {
	Type      string
	Emoji     string
	Timestamp time.Time
	Time      string
	Status    string
	Previous  string
	Elapsed   string
	Remaining string
	Percent   float64
	Start     string
	Locator   string
	Error     string
	Detail    string
}

func (f *Formatter) formatTemplate(e preview.Event) string {
	p := e.Progress()
	data := templateData{
		Type:      e.Type.String(),
		Emoji:     eventEmoji(e),
		Timestamp: e.Time,
		Time:      e.Time.Format("15:04:05"),
		Status:    e.Status.String(),
		Previous:  e.Previous.String(),
		Elapsed:   p.ElapsedLabel,
		Remaining: p.RemainingLabel,
		Percent:   p.Percent,
		Start:     preview.FormatClock(e.Window.Start),
		Locator:   e.Source.Locator,
		Detail:    e.Detail,
	}
	if e.Err != nil {
		data.Error = e.Err.Message
	}

	var buf bytes.Buffer
	if err := f.template.Execute(&buf, data); err != nil {
		return f.formatLine(e)
	}
	return buf.String()
}

// describe returns a human-readable description of the event.
func describe(e preview.Event) string {
	p := e.Progress()

	switch e.Type {
	case preview.EventStateChange:
		switch e.Status {
		case core.StatusAwaitingMetadata:
			return "Waiting for track metadata"
		case core.StatusSeeking:
			return fmt.Sprintf("Starting preview at %s", preview.FormatClock(e.Window.Start+e.Elapsed))
		case core.StatusPlaying:
			return fmt.Sprintf("Playing %s / %s", p.ElapsedLabel, preview.FormatClock(e.Window.Length))
		case core.StatusPaused:
			return fmt.Sprintf("Paused at %s", p.ElapsedLabel)
		case core.StatusEnded:
			return fmt.Sprintf("Preview finished (%s)", preview.FormatClock(e.Window.Length))
		case core.StatusError:
			return "Preview unavailable"
		default:
			return "Stopped"
		}

	case preview.EventPosition:
		return fmt.Sprintf("%s %s (%.0f%%)", p.ElapsedLabel, p.RemainingLabel, p.Percent)

	case preview.EventError:
		if e.Err != nil {
			return fmt.Sprintf("Error (%s): %s", e.Err.Kind, e.Err.Message)
		}
		return "Error"

	case preview.EventWindowChange:
		return fmt.Sprintf("Window %s - %s",
			preview.FormatClock(e.Window.Start),
			preview.FormatClock(e.Window.End()))

	case preview.EventSourceReady:
		return fmt.Sprintf("Loaded %s (%s)", e.Source.Locator, preview.FormatClock(e.Source.Duration))

	case preview.EventStale:
		return "Dropped " + e.Detail

	default:
		return "Unknown event"
	}
}

// eventEmoji returns an emoji for the event.
func eventEmoji(e preview.Event) string {
	switch e.Type {
	case preview.EventStateChange:
		switch e.Status {
		case core.StatusPlaying:
			return "▶️"
		case core.StatusPaused:
			return "⏸️"
		case core.StatusEnded:
			return "✅"
		case core.StatusAwaitingMetadata, core.StatusSeeking:
			return "⏳"
		case core.StatusError:
			return "⚠️"
		default:
			return "⏹️"
		}
	case preview.EventPosition:
		return "🎵"
	case preview.EventError:
		return "❌"
	case preview.EventWindowChange:
		return "✂️"
	case preview.EventSourceReady:
		return "📀"
	case preview.EventStale:
		return "👻"
	default:
		return "❓"
	}
}
