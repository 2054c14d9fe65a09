package preview

import (
	"time"

	"github.com/tessro/prelisten/internal/core"
)

// EventType identifies what changed in the controller.
type EventType int

const (
	// EventStateChange is emitted when the playback status changes.
	EventStateChange EventType = iota
	// EventPosition is emitted when only the cursor moved.
	EventPosition
	// EventError is emitted when an ErrorState is attached.
	EventError
	// EventWindowChange is emitted when a committed window reaches the controller.
	EventWindowChange
	// EventSourceReady is emitted once metadata for the bound source resolved.
	EventSourceReady
	// EventStale is emitted when an outdated continuation was dropped.
	EventStale
)

func (t EventType) String() string {
	switch t {
	case EventStateChange:
		return "state"
	case EventPosition:
		return "position"
	case EventError:
		return "error"
	case EventWindowChange:
		return "window"
	case EventSourceReady:
		return "source_ready"
	case EventStale:
		return "stale"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Event describes one observable change.
type Event struct {
	Type     EventType          `json:"type"`
	Time     time.Time          `json:"time"`
	Status   core.Status        `json:"status"`
	Previous core.Status        `json:"previous"`
	Elapsed  time.Duration      `json:"elapsed"`
	Window   core.PreviewWindow `json:"window"`
	Source   core.AudioSource   `json:"source"`
	Err      *core.ErrorState   `json:"error,omitempty"`
	Detail   string             `json:"detail,omitempty"`
}

// Snapshot is a consistent copy of the controller's state.
type Snapshot struct {
	State  core.PlaybackState `json:"state"`
	Window core.PreviewWindow `json:"window"`
	Source core.AudioSource   `json:"source"`
}

// Progress reports display progress for the snapshot.
func (s Snapshot) Progress() Progress {
	return Report(s.State, s.Window)
}

// Progress reports display progress at the time of the event.
func (e Event) Progress() Progress {
	return Report(core.PlaybackState{Status: e.Status, Cursor: e.Window.Start + e.Elapsed}, e.Window)
}
