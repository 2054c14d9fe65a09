package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/prelisten/internal/catalog"
	"github.com/tessro/prelisten/internal/core"
	"github.com/tessro/prelisten/internal/preview"
	"github.com/tessro/prelisten/internal/tail"
	"github.com/tessro/prelisten/internal/tui/components"
	"github.com/tessro/prelisten/internal/tui/styles"
)

// Panel represents which panel is focused
type Panel int

const (
	PanelPreview Panel = iota
	PanelTimeline
	PanelTracks
	PanelActivity
)

const (
	panelCount     = 4
	requestTimeout = 5 * time.Second
	errorLifetime  = 5 * time.Second
	maxActivity    = 50
)

// Player is the preview controller surface the UI drives.
type Player interface {
	Toggle(ctx context.Context) (preview.Snapshot, error)
	Pause(ctx context.Context) (preview.Snapshot, error)
	Seek(ctx context.Context, ratio float64) (preview.Snapshot, error)
	Bind(ctx context.Context, locator string) (preview.Snapshot, error)
	Snapshot(ctx context.Context) (preview.Snapshot, error)
	Subscribe(fn func(preview.Event)) (unsubscribe func())
}

// Options configures the UI.
type Options struct {
	Player    Player
	Selector  *preview.Selector
	Catalog   *catalog.Catalog
	Length    time.Duration
	Refresh   time.Duration
	Theme     string
	Initial   string // track to bind on startup
	Formatter *tail.Formatter
	Logger    *slog.Logger
}

// Model is the main TUI model
type Model struct {
	ctx     context.Context
	player  Player
	sel     *preview.Selector
	cat     *catalog.Catalog
	format  *tail.Formatter
	logger  *slog.Logger
	length  time.Duration
	refresh time.Duration
	initial string
	events  <-chan preview.Event

	width        int
	height       int
	focusedPanel Panel

	// State
	snap     preview.Snapshot
	tracks   []core.Track
	current  string
	activity []components.ActivityEntry

	// Components
	previewView  *components.Preview
	timelineView *components.Timeline
	tracksView   *components.Tracks
	activityView *components.Activity

	// Start editor
	input   textinput.Model
	editing bool

	// Overlays
	showHelp bool

	// Error handling
	lastError   error
	errorExpiry time.Time

	quitting bool
}

// NewModel creates a new TUI model reading controller events from events.
func NewModel(ctx context.Context, opts Options, events <-chan preview.Event) Model {
	ti := textinput.New()
	ti.Placeholder = "seconds or m:ss"
	ti.CharLimit = 12
	ti.Width = 12

	if opts.Length <= 0 {
		opts.Length = core.DefaultPreviewLength
	}
	if opts.Refresh <= 0 {
		opts.Refresh = time.Second
	}
	if opts.Formatter == nil {
		opts.Formatter = tail.NewFormatter(tail.WithEmoji(false))
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return Model{
		ctx:          ctx,
		player:       opts.Player,
		sel:          opts.Selector,
		cat:          opts.Catalog,
		format:       opts.Formatter,
		logger:       opts.Logger,
		length:       opts.Length,
		refresh:      opts.Refresh,
		initial:      opts.Initial,
		events:       events,
		focusedPanel: PanelTracks,
		snap:         preview.Snapshot{Window: opts.Selector.Window()},
		previewView:  components.NewPreview(),
		timelineView: components.NewTimeline(),
		tracksView:   components.NewTracks(),
		activityView: components.NewActivity(),
		input:        ti,
	}
}

// Messages
type tickMsg time.Time
type eventMsg preview.Event
type eventsClosedMsg struct{}
type snapshotMsg preview.Snapshot
type catalogMsg *catalog.Catalog
type persistedMsg core.Track
type errMsg error

type boundMsg struct {
	track core.Track
	snap  preview.Snapshot
}

// Commands
func (m Model) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(e)
	}
}

// request runs a controller call off the update loop.
func (m Model) request(call func(ctx context.Context) (preview.Snapshot, error)) tea.Cmd {
	parent := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, requestTimeout)
		defer cancel()

		snap, err := call(ctx)
		if err != nil {
			return errMsg(err)
		}
		return snapshotMsg(snap)
	}
}

func (m Model) fetchSnapshot() tea.Cmd {
	return m.request(m.player.Snapshot)
}

func (m Model) togglePlayPause() tea.Cmd {
	return m.request(m.player.Toggle)
}

func (m Model) pause() tea.Cmd {
	return m.request(m.player.Pause)
}

func (m Model) seek(ratio float64) tea.Cmd {
	return m.request(func(ctx context.Context) (preview.Snapshot, error) {
		return m.player.Seek(ctx, ratio)
	})
}

func (m Model) bindTrack(track core.Track) tea.Cmd {
	parent, player, sel, length := m.ctx, m.player, m.sel, m.length
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, requestTimeout)
		defer cancel()

		sel.Reset(track.Locator, track.Window(length))
		snap, err := player.Bind(ctx, track.Locator)
		if err != nil {
			return errMsg(err)
		}
		return boundMsg{track: track, snap: snap}
	}
}

func (m Model) reloadCatalog() tea.Cmd {
	path := m.cat.Path()
	return func() tea.Msg {
		cat, err := catalog.Load(path)
		if err != nil {
			return errMsg(err)
		}
		return catalogMsg(cat)
	}
}

func (m Model) persistWindow(id string, w core.PreviewWindow) tea.Cmd {
	cat := m.cat
	return func() tea.Msg {
		track, err := cat.SetPreviewStart(id, w)
		if err != nil {
			return errMsg(err)
		}
		if err := cat.Save(); err != nil {
			return errMsg(err)
		}
		return persistedMsg(track)
	}
}

func (m Model) persistDuration(id string, d time.Duration) tea.Cmd {
	cat := m.cat
	return func() tea.Msg {
		track, err := cat.SetDuration(id, d)
		if err != nil {
			return errMsg(err)
		}
		if err := cat.Save(); err != nil {
			return errMsg(err)
		}
		return persistedMsg(track)
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	cat := m.cat
	return tea.Batch(
		m.tick(),
		m.waitForEvent(),
		m.fetchSnapshot(),
		func() tea.Msg { return catalogMsg(cat) },
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		if m.lastError != nil && time.Now().After(m.errorExpiry) {
			m.lastError = nil
		}
		return m, tea.Batch(m.tick(), m.fetchSnapshot())

	case eventMsg:
		return m.handleEvent(preview.Event(msg))

	case eventsClosedMsg:
		m.quitting = true
		return m, tea.Quit

	case snapshotMsg:
		m.snap = preview.Snapshot(msg)
		return m, nil

	case boundMsg:
		m.snap = msg.snap
		m.tracksView.SelectID(m.tracks, msg.track.ID)
		return m, nil

	case catalogMsg:
		return m.loadTracks((*catalog.Catalog)(msg))

	case persistedMsg:
		track := core.Track(msg)
		for i := range m.tracks {
			if m.tracks[i].ID == track.ID {
				m.tracks[i] = track
			}
		}
		return m, nil

	case errMsg:
		m.setError(msg)
		return m, nil
	}

	if m.editing {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) loadTracks(cat *catalog.Catalog) (tea.Model, tea.Cmd) {
	m.cat = cat
	m.tracks = cat.List()
	if m.tracks == nil {
		m.tracks = []core.Track{}
	}

	if m.initial == "" {
		return m, nil
	}
	ref := m.initial
	m.initial = ""
	track, err := cat.Find(ref)
	if err != nil {
		m.setError(err)
		return m, nil
	}
	m.tracksView.SelectID(m.tracks, track.ID)
	m.current = track.ID
	return m, m.bindTrack(track)
}

func (m Model) handleEvent(e preview.Event) (tea.Model, tea.Cmd) {
	m.snap = preview.Snapshot{
		State: core.PlaybackState{
			Status: e.Status,
			Cursor: e.Window.Start + e.Elapsed,
			Err:    e.Err,
		},
		Window: e.Window,
		Source: e.Source,
	}

	cmds := []tea.Cmd{m.waitForEvent()}

	if e.Type != preview.EventPosition {
		m.addActivity(m.format.Format(e), e.Time)
	}

	// Only events about the bound track's own source are persisted.
	track := m.currentTrack()
	if track != nil && e.Source.Locator != track.Locator {
		track = nil
	}
	switch e.Type {
	case preview.EventWindowChange:
		if track != nil && track.PreviewStart != e.Window.Start {
			cmds = append(cmds, m.persistWindow(track.ID, e.Window))
		}
	case preview.EventSourceReady:
		if track != nil && track.Duration != e.Source.Duration {
			cmds = append(cmds, m.persistDuration(track.ID, e.Source.Duration))
		}
	case preview.EventError:
		if e.Err != nil {
			m.setError(e.Err)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys (always work)
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}

	// Help overlay
	if m.showHelp {
		switch msg.String() {
		case "?", "esc":
			m.showHelp = false
		}
		return m, nil
	}

	// Start editor
	if m.editing {
		return m.handleEditKeyPress(msg)
	}

	// Normal mode
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "?":
		m.showHelp = true
		return m, nil

	case "tab":
		m.focusedPanel = (m.focusedPanel + 1) % panelCount
		return m, nil

	case "shift+tab":
		m.focusedPanel = (m.focusedPanel + panelCount - 1) % panelCount
		return m, nil

	case "r":
		return m, m.reloadCatalog()
	}

	// Playback controls
	switch key := msg.String(); key {
	case " ":
		return m, m.togglePlayPause()
	case "p":
		return m, m.pause()
	case "0", "1", "2", "3", "4", "5", "6", "7", "8", "9":
		return m, m.seek(float64(key[0]-'0') / 10)
	}

	// Window controls
	switch msg.String() {
	case "[":
		m.nudge(-time.Second)
		return m, nil
	case "]":
		m.nudge(time.Second)
		return m, nil
	case "{":
		m.nudge(-10 * time.Second)
		return m, nil
	case "}":
		m.nudge(10 * time.Second)
		return m, nil
	case "e":
		if !m.sel.Enabled() {
			return m, nil
		}
		m.editing = true
		m.focusedPanel = PanelTimeline
		m.input.SetValue(m.sel.Text())
		m.input.CursorEnd()
		return m, m.input.Focus()
	}

	// Panel-specific keys
	switch m.focusedPanel {
	case PanelTracks:
		switch msg.String() {
		case "j", "down":
			m.tracksView.SelectNext(len(m.tracks))
		case "k", "up":
			m.tracksView.SelectPrev()
		case "enter":
			if i := m.tracksView.Selected(); i >= 0 && i < len(m.tracks) {
				m.current = m.tracks[i].ID
				return m, m.bindTrack(m.tracks[i])
			}
		}
	case PanelTimeline:
		switch msg.String() {
		case "h", "left":
			m.nudge(-time.Second)
		case "l", "right":
			m.nudge(time.Second)
		}
	}

	return m, nil
}

func (m Model) handleEditKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.sel.Input(m.input.Value())
		m.sel.Submit()
		m.stopEditing()
		return m, nil

	case "esc":
		m.sel.Input(m.input.Value())
		m.sel.Blur()
		m.stopEditing()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.sel.Input(m.input.Value())
	return m, cmd
}

func (m *Model) stopEditing() {
	m.editing = false
	m.input.Blur()
	m.input.SetValue(m.sel.Text())
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.showHelp || m.editing {
		return m, nil
	}
	lay := m.layout()

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		switch {
		case lay.timeline.contains(msg.X, msg.Y):
			m.focusedPanel = PanelTimeline
			if m.sel.BeginDrag() {
				m.sel.DragTo(lay.timeline.ratioAt(msg.X))
			}
		case lay.progress.contains(msg.X, msg.Y):
			m.focusedPanel = PanelPreview
			return m, m.seek(lay.progress.ratioAt(msg.X))
		}

	case tea.MouseActionMotion:
		if m.sel.Dragging() {
			m.sel.DragTo(lay.timeline.ratioAt(msg.X))
		}

	case tea.MouseActionRelease:
		if m.sel.Dragging() {
			m.sel.Release()
		}
	}

	return m, nil
}

func (m *Model) nudge(delta time.Duration) {
	if !m.sel.Enabled() {
		return
	}
	m.sel.SetStart(m.sel.Window().Start + delta)
}

func (m *Model) setError(err error) {
	m.lastError = err
	m.errorExpiry = time.Now().Add(errorLifetime)
	m.logger.Debug("ui error", "error", err)
}

func (m *Model) addActivity(line string, at time.Time) {
	if at.IsZero() {
		at = time.Now()
	}
	entry := components.ActivityEntry{Line: line, At: at}

	// Add to front, keep max entries
	m.activity = append([]components.ActivityEntry{entry}, m.activity...)
	if len(m.activity) > maxActivity {
		m.activity = m.activity[:maxActivity]
	}
}

func (m Model) currentTrack() *core.Track {
	for i := range m.tracks {
		if m.tracks[i].ID == m.current {
			return &m.tracks[i]
		}
	}
	return nil
}

func (m Model) timelineState() components.TimelineView {
	total, known := m.sel.Total()
	value := m.input.Value()
	if m.editing {
		value = m.input.View()
	}
	return components.TimelineView{
		Window:   m.sel.Window(),
		Draft:    m.sel.Draft(),
		Total:    total,
		Known:    known,
		Enabled:  m.sel.Enabled(),
		Dragging: m.sel.Dragging(),
		Editing:  m.editing,
		Input:    value,
	}
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.width == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	lay := m.layout()

	// Layout: header, preview, timeline, then tracks and activity side by side
	header := m.renderHeader()
	previewPanel := m.previewView.Render(m.currentTrack(), m.snap, m.width, m.focusedPanel == PanelPreview)
	timelinePanel := m.timelineView.Render(m.timelineState(), m.width, m.focusedPanel == PanelTimeline)

	leftWidth := m.width * 60 / 100
	rightWidth := m.width - leftWidth
	tracksPanel := m.tracksView.Render(m.tracks, m.current, leftWidth, lay.listRows, m.focusedPanel == PanelTracks)
	activityPanel := m.activityView.Render(m.activity, rightWidth, lay.listRows, m.focusedPanel == PanelActivity)
	bottom := lipgloss.JoinHorizontal(lipgloss.Top, tracksPanel, activityPanel)

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		previewPanel,
		timelinePanel,
		bottom,
		m.renderStatusBar(),
	)
}

func (m Model) renderHeader() string {
	title := styles.Highlight.Render("prelisten")
	info := styles.Muted.Render(fmt.Sprintf("%d tracks", len(m.tracks)))
	if track := m.currentTrack(); track != nil {
		info = styles.StatusIcon(m.snap.State.Status) + " " + styles.Subtitle.Render(track.Title)
	}
	return lipgloss.NewStyle().
		Width(m.width).
		MaxHeight(1).
		Padding(0, 1).
		Render(title + "  " + info)
}

func (m Model) renderStatusBar() string {
	status := styles.Dim.Render("q:quit  ?:help  enter:load  space:play/pause  0-9:seek  [/]:move window  e:edit start  tab:switch panel")

	if m.lastError != nil {
		status = styles.Paused.Render("Error: " + m.lastError.Error())
	}

	return lipgloss.NewStyle().
		Width(m.width).
		MaxHeight(1).
		Padding(0, 1).
		Render(status)
}

func (m Model) renderHelp() string {
	title := "prelisten - Keyboard Shortcuts"
	divider := styles.Repeat("═", len(title))

	help := `
  ` + title + `
  ` + divider + `

  Global
  ──────
  q, Ctrl+C    Quit
  ?            Toggle help
  Tab          Next panel
  Shift+Tab    Previous panel
  r            Reload catalog

  Playback
  ────────
  Space        Play/Pause preview
  p            Pause
  0-9          Seek to 0%-90% of the preview
  Click bar    Seek inside the preview

  Preview Window
  ──────────────
  [ / ]        Move start by 1s
  { / }        Move start by 10s
  e            Type a start (90, 1:30)
  Drag         Move the window on the timeline

  Tracks Panel
  ────────────
  j/↓          Select next
  k/↑          Select previous
  Enter        Load selected track

  Press ? or Esc to close
`

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.BorderStyle.Render(help))
}

// Run starts the TUI application and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, opts Options) error {
	styles.SetTheme(opts.Theme)

	watcher := tail.NewWatcher(opts.Player, tail.WithPositions(true), tail.WithBuffer(256))
	go func() { _ = watcher.Start(ctx) }()
	defer watcher.Stop()

	model := NewModel(ctx, opts, watcher.Events())
	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
