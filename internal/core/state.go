package core

import (
	"fmt"
	"time"
)

// Status is the state of the preview playback state machine.
type Status int

const (
	StatusIdle Status = iota
	StatusAwaitingMetadata
	StatusSeeking
	StatusPlaying
	StatusPaused
	StatusEnded
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusAwaitingMetadata:
		return "awaiting_metadata"
	case StatusSeeking:
		return "seeking"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusEnded:
		return "ended"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ErrorKind classifies preview failures.
type ErrorKind int

const (
	// LoadFailure means the resource was unreachable or unsupported.
	LoadFailure ErrorKind = iota + 1
	// PlaybackRejected means the host refused to start playback.
	PlaybackRejected
	// InvalidWindow is clamped silently and never attached to a state.
	InvalidWindow
)

func (k ErrorKind) String() string {
	switch k {
	case LoadFailure:
		return "load_failure"
	case PlaybackRejected:
		return "playback_rejected"
	case InvalidWindow:
		return "invalid_window"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ErrorState is attached to a PlaybackState after a failure.
type ErrorState struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *ErrorState) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// PlaybackState represents the current preview playback state.
type PlaybackState struct {
	Status Status        `json:"status"`
	Cursor time.Duration `json:"cursor"`
	Err    *ErrorState   `json:"error,omitempty"`
}

// IsActive returns true while audio is playing or about to play.
func (s *PlaybackState) IsActive() bool {
	return s != nil && (s.Status == StatusSeeking || s.Status == StatusPlaying)
}

// ElapsedInWindow returns the cursor's offset into w, clamped to [0, w.Length].
func (s *PlaybackState) ElapsedInWindow(w PreviewWindow) time.Duration {
	if s == nil {
		return 0
	}
	return Clamp(s.Cursor-w.Start, 0, w.Length)
}
