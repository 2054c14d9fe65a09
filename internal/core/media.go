package core

import (
	"context"
	"time"
)

// MediaPlayable is the host capability a preview controller drives.
//
// Load resolves once metadata is available and returns the total duration.
// Play may block until the host has actually started output; callers run it
// off their event loop. Observer registrations return a cancel func.
type MediaPlayable interface {
	Load(ctx context.Context, locator string) (time.Duration, error)
	Play(ctx context.Context) error
	Pause()

	Position() time.Duration
	SetPosition(d time.Duration)

	OnPositionUpdate(fn func(time.Duration)) (cancel func())
	OnEnded(fn func()) (cancel func())

	Close() error
}
