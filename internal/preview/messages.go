package preview

import (
	"context"
	"time"

	"github.com/tessro/prelisten/internal/core"
)

// Requests carry a reply channel and are answered with a Snapshot once
// handled. Completions are posted by other goroutines without a reply.
type message any

type envelope struct {
	msg   message
	reply chan Snapshot
}

type (
	toggleMsg   struct{}
	pauseMsg    struct{}
	snapshotMsg struct{}
	seekMsg     struct{ ratio float64 }
	bindMsg     struct{ locator string }
	windowMsg   struct{ start, length time.Duration }
)

type (
	metadataMsg    struct{ res LoadResult }
	playSettledMsg struct {
		epoch uint64
		err   error
	}
	deadlineMsg struct{ epoch uint64 }
	positionMsg struct {
		epoch uint64
		pos   time.Duration
	}
	endedMsg struct{ epoch uint64 }
)

// lease bundles everything issued under one epoch so it can be released
// together.
type lease struct {
	epoch    uint64
	cancel   context.CancelFunc
	deadline core.Timer
	unsubPos func()
	unsubEnd func()
}

func (l *lease) release() {
	if l.cancel != nil {
		l.cancel()
	}
	if l.deadline != nil {
		l.deadline.Stop()
	}
	if l.unsubPos != nil {
		l.unsubPos()
	}
	if l.unsubEnd != nil {
		l.unsubEnd()
	}
}
