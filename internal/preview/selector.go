package preview

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tessro/prelisten/internal/core"
	perrors "github.com/tessro/prelisten/internal/errors"
)

// DragStep is the granularity of timeline drag positions.
const DragStep = time.Second

// Selector edits the start of a preview window. It is owned by the UI
// context that renders the timeline; the controller only sees windows that
// were committed through OnCommit listeners.
//
// Only SetStart, Release, Submit and Blur commit. DragTo and Input move a
// draft that is shown while editing and is discarded or committed later.
type Selector struct {
	mu sync.Mutex

	window  core.PreviewWindow
	total   time.Duration
	known   bool
	locator string

	draft    time.Duration
	dragging bool
	text     string
	editing  bool

	nextID    int
	listeners map[int]func(core.PreviewWindow)
}

// NewSelector returns a selector holding w. The track duration is unknown
// until SetTotal is called.
func NewSelector(w core.PreviewWindow) *Selector {
	if w.Length <= 0 {
		w.Length = core.DefaultPreviewLength
	}
	w.Start = max(0, w.Start)
	return &Selector{
		window:    w,
		draft:     w.Start,
		text:      FormatSeconds(w.Start),
		listeners: make(map[int]func(core.PreviewWindow)),
	}
}

// OnCommit registers fn to receive every committed window change.
func (s *Selector) OnCommit(fn func(core.PreviewWindow)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Window returns the committed window.
func (s *Selector) Window() core.PreviewWindow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.window
}

// Total returns the track duration and whether it is known.
func (s *Selector) Total() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total, s.known
}

// Enabled reports whether the start can be edited. A track shorter than
// the preview length has nothing to choose.
func (s *Selector) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabledLocked()
}

func (s *Selector) enabledLocked() bool {
	return !s.known || s.window.Adjustable(s.total)
}

// SetTotal records the track duration and re-clamps the committed start.
// A start that moves as a result is committed.
func (s *Selector) SetTotal(total time.Duration) {
	s.mu.Lock()
	start := s.setTotalLocked(total)
	s.mu.Unlock()

	s.commit(start)
}

// SetSourceTotal is SetTotal for a duration measured on locator. It is
// ignored, returning false, when the selector was reset for another track
// since.
func (s *Selector) SetSourceTotal(locator string, total time.Duration) bool {
	s.mu.Lock()
	if s.locator != "" && s.locator != locator {
		s.mu.Unlock()
		return false
	}
	start := s.setTotalLocked(total)
	s.mu.Unlock()

	s.commit(start)
	return true
}

func (s *Selector) setTotalLocked(total time.Duration) time.Duration {
	s.total = max(0, total)
	s.known = true
	return s.window.ClampStart(s.window.Start, s.total)
}

// Reset replaces the committed window for a newly selected track at
// locator and forgets the track duration. Listeners are notified when the
// start moved.
func (s *Selector) Reset(locator string, w core.PreviewWindow) {
	s.mu.Lock()
	if w.Length <= 0 {
		w.Length = s.window.Length
	}
	w.Start = max(0, w.Start)
	s.window.Length = w.Length
	s.total = 0
	s.known = false
	s.locator = locator
	s.mu.Unlock()

	s.commit(w.Start)
}

// SetStart clamps candidate into the track and commits it. When the
// window is not adjustable the current start is returned with false.
func (s *Selector) SetStart(candidate time.Duration) (time.Duration, bool) {
	s.mu.Lock()
	if !s.enabledLocked() {
		start := s.window.Start
		s.mu.Unlock()
		return start, false
	}
	start := s.clampLocked(candidate)
	s.mu.Unlock()

	return s.commit(start), true
}

func (s *Selector) clampLocked(candidate time.Duration) time.Duration {
	if !s.known {
		return max(0, candidate)
	}
	return s.window.ClampStart(candidate, s.total)
}

// commit stores start, resets editing state and notifies listeners when the
// start changed. Listeners run on the caller's goroutine without the lock.
func (s *Selector) commit(start time.Duration) time.Duration {
	s.mu.Lock()
	changed := start != s.window.Start
	s.window.Start = start
	s.draft = start
	s.dragging = false
	s.editing = false
	s.text = FormatSeconds(start)
	w := s.window
	var fns []func(core.PreviewWindow)
	if changed {
		fns = make([]func(core.PreviewWindow), 0, len(s.listeners))
		for _, fn := range s.listeners {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(w)
	}
	return start
}

// BeginDrag starts a drag gesture on the timeline.
func (s *Selector) BeginDrag() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.known || !s.enabledLocked() {
		return false
	}
	s.dragging = true
	s.draft = s.window.Start
	return true
}

// DragTo moves the draft to ratio of the full track timeline and returns
// the clamped draft start. Nothing is committed.
func (s *Selector) DragTo(ratio float64) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dragging {
		return s.draft
	}
	s.draft = s.clampLocked(RatioToOffset(ratio, s.total))
	return s.draft
}

// Release ends the drag and commits the draft.
func (s *Selector) Release() (time.Duration, bool) {
	s.mu.Lock()
	if !s.dragging {
		start := s.window.Start
		s.mu.Unlock()
		return start, false
	}
	draft := s.draft
	s.mu.Unlock()

	return s.SetStart(draft)
}

// Dragging reports whether a drag gesture is in progress.
func (s *Selector) Dragging() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dragging
}

// Draft returns the start shown while editing.
func (s *Selector) Draft() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Input replaces the text field contents. Parseable text moves the draft.
func (s *Selector) Input(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
	s.editing = true
	if d, err := ParseStart(text); err == nil {
		s.draft = s.clampLocked(d)
	}
}

// Text returns the text field contents.
func (s *Selector) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// Submit commits the text field. Unparseable text is discarded and the
// field reverts to the committed start.
func (s *Selector) Submit() (time.Duration, bool) {
	s.mu.Lock()
	text, editing := s.text, s.editing
	s.mu.Unlock()

	if !editing {
		return s.Window().Start, false
	}
	d, err := ParseStart(text)
	if err != nil {
		s.revert()
		return s.Window().Start, false
	}
	start, ok := s.SetStart(d)
	if !ok {
		s.revert()
	}
	return start, ok
}

// Blur commits the text field like Submit when focus leaves it.
func (s *Selector) Blur() (time.Duration, bool) {
	return s.Submit()
}

func (s *Selector) revert() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = s.window.Start
	s.text = FormatSeconds(s.window.Start)
	s.editing = false
}

// RatioToOffset maps a timeline ratio in [0, 1] to an offset in total,
// rounded to DragStep.
func RatioToOffset(ratio float64, total time.Duration) time.Duration {
	if math.IsNaN(ratio) {
		ratio = 0
	}
	ratio = math.Max(0, math.Min(1, ratio))
	d := time.Duration(ratio * float64(total))
	return d.Round(DragStep)
}

// ParseStart parses a start offset typed by a user. It accepts plain
// seconds ("90", "90.5") and minutes:seconds ("1:30", "1:30.5").
func ParseStart(text string) (time.Duration, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, fmt.Errorf("%w: empty start", perrors.ErrInvalidWindow)
	}

	var mins float64
	secPart := text
	m, sec, clock := strings.Cut(text, ":")
	if clock {
		n, err := strconv.Atoi(m)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: invalid minutes %q", perrors.ErrInvalidWindow, m)
		}
		if strings.Contains(sec, ":") || len(sec) < 2 {
			return 0, fmt.Errorf("%w: invalid start %q", perrors.ErrInvalidWindow, text)
		}
		mins = float64(n)
		secPart = sec
	}

	secs, err := strconv.ParseFloat(secPart, 64)
	if err != nil || math.IsNaN(secs) || math.IsInf(secs, 0) || secs < 0 {
		return 0, fmt.Errorf("%w: invalid seconds %q", perrors.ErrInvalidWindow, secPart)
	}
	if clock && secs >= 60 {
		return 0, fmt.Errorf("%w: seconds out of range in %q", perrors.ErrInvalidWindow, text)
	}

	total := mins*60 + secs
	return time.Duration(total * float64(time.Second)).Round(time.Millisecond), nil
}

// FormatSeconds formats d as seconds for a text field, dropping a zero
// fractional part.
func FormatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Round(time.Millisecond).Seconds(), 'f', -1, 64)
}
