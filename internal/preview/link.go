package preview

import "github.com/tessro/prelisten/internal/core"

// Link connects a selector to a controller. Windows committed on sel are
// forwarded to ctrl without waiting, and the selector learns the track
// duration whenever a source becomes ready, unless it was reset for a
// different track in the meantime. The returned func disconnects
// both directions.
func Link(ctrl *Controller, sel *Selector) (unlink func()) {
	forward := func(w core.PreviewWindow) {
		ctrl.post(windowMsg{start: w.Start, length: w.Length})
	}
	forward(sel.Window())

	cancelCommit := sel.OnCommit(forward)
	cancelEvents := ctrl.Subscribe(func(e Event) {
		if e.Type != EventSourceReady {
			return
		}
		// SetSourceTotal may commit, which posts back into the controller inbox.
		go sel.SetSourceTotal(e.Source.Locator, e.Source.Duration)
	})

	return func() {
		cancelCommit()
		cancelEvents()
	}
}
