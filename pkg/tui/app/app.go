package teaui

import (
	"context"
	"fmt"
	"log"
	"strings"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"tableflip.dev/taskboard/pkg/app"
	"tableflip.dev/taskboard/pkg/store"
	"tableflip.dev/taskboard/pkg/task"
	"tableflip.dev/taskboard/pkg/timeline"
	"tableflip.dev/taskboard/pkg/tui/cache"
	"tableflip.dev/taskboard/pkg/tui/components/gantt"
	"tableflip.dev/taskboard/pkg/tui/components/help"
	"tableflip.dev/taskboard/pkg/tui/components/overlaypane"
	"tableflip.dev/taskboard/pkg/tui/components/taskdetail"
	"tableflip.dev/taskboard/pkg/tui/events"
	"tableflip.dev/taskboard/pkg/tui/theme"
	"tableflip.dev/taskboard/pkg/tui/ui"
)

const (
	headerHeight = 1
	footerHeight = 1

	// weekDays is how far h and l scroll.
	weekDays = 7
)

// Board is the part of the application service the UI drives.
type Board interface {
	cache.Loader
	UpdateTask(ctx context.Context, id int64, p task.Patch) (task.Task, error)
	Watch(ctx context.Context) (<-chan store.Event, error)
	SyncFromCache(board int64) (bool, error)
}

// Store is the live task list the timeline reads and drags write to.
type Store interface {
	cache.Source
	timeline.Updater
	Errors() <-chan store.WriteError
}

var (
	_ Board = (*app.Service)(nil)
	_ Store = (*store.TaskStore)(nil)
)

// Options configure the UI.
type Options struct {
	Board    int64
	GroupBy  task.GroupBy
	Statuses []task.Status
	DayWidth int
	Gutter   int
	Today    func() task.Date
	// Theme names the colour theme, "light" or "dark".
	Theme string
}

// themeSaver remembers the theme picked with the toggle key.
type themeSaver interface {
	SetTheme(name string) error
}

type boardLoadedMsg struct {
	settings task.Settings
	err      error
}

type settingsLoadedMsg struct {
	settings task.Settings
	err      error
}

type taskSavedMsg struct {
	ref  events.TaskRef
	task task.Task
	err  error
}

// Model is the root Bubble Tea model: a header line, the timeline with an
// optional overlay on top, and a status bar.
type Model struct {
	svc    Board
	store  Store
	board  int64
	ctx    context.Context
	cancel context.CancelFunc
	detach func()

	cache *cache.Cache
	gantt *gantt.Model
	pane  *overlaypane.Model
	theme     theme.Theme
	themeName string

	termWidth  int
	termHeight int

	loading   bool
	status    string
	statusErr bool

	watchCh     <-chan store.Event
	watchCancel context.CancelFunc
}

// New wires the UI to svc and the task store st. A nil svc gives a read
// only view of st.
func New(svc Board, st Store, opts Options) *Model {
	ctx, cancel := context.WithCancel(context.Background())
	themeName := opts.Theme
	if themeName != theme.NameLight {
		themeName = theme.NameDark
	}
	th := theme.Named(themeName)
	c := cache.New(events.ComponentID("board"))

	m := &Model{
		svc:    svc,
		store:  st,
		board:  opts.Board,
		ctx:    ctx,
		cancel: cancel,
		cache:  c,
		pane:   overlaypane.New(1, 1),
		theme:  th,

		themeName: themeName,
	}
	if st != nil {
		m.detach = c.Attach(st)
	}
	styles := th.Timeline
	m.gantt = gantt.New(st, func() []task.Task { return c.Snapshot().Tasks }, gantt.Options{
		DayWidth: opts.DayWidth,
		Gutter:   opts.Gutter,
		Styles:   &styles,
		GroupBy:  opts.GroupBy,
		Statuses: opts.Statuses,
		Today:    opts.Today,
	})
	return m
}

// Init starts loading the board, watching the cache and forwarding failed
// writes.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.cache.Next(), m.gantt.Init()}
	if m.store != nil {
		go m.cache.Pump(m.ctx, m.store.Errors())
	}
	if m.svc != nil {
		m.loading = true
		cmds = append(cmds, m.loadBoard(true), startWatchCmd(m.ctx, m.svc))
	}
	return tea.Batch(cmds...)
}

// Close stops the background work started by Init.
func (m *Model) Close() {
	m.stopWatch()
	m.cancel()
	if m.detach != nil {
		m.detach()
		m.detach = nil
	}
}

func (m *Model) loadBoard(refresh bool) tea.Cmd {
	if m.svc == nil {
		return nil
	}
	svc, ctx, board := m.svc, m.ctx, m.board
	return func() tea.Msg {
		settings, err := cache.LoadBoard(ctx, svc, board, refresh)
		return boardLoadedMsg{settings: settings, err: err}
	}
}

func (m *Model) loadSettings() tea.Cmd {
	if m.svc == nil {
		return nil
	}
	svc := m.svc
	return func() tea.Msg {
		s, err := svc.Settings()
		return settingsLoadedMsg{settings: s, err: err}
	}
}

func (m *Model) saveTask(req events.TaskSaveRequestMsg) tea.Cmd {
	if m.svc == nil {
		return nil
	}
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		t, err := svc.UpdateTask(ctx, req.Task.ID, req.Patch)
		return taskSavedMsg{ref: req.Task, task: t, err: err}
	}
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(s string) {
	m.status = s
	m.statusErr = true
	log.Printf("tui: %s", s)
}

// Update routes messages to the timeline, the overlay and the cache.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.termWidth = msg.Width
		m.termHeight = msg.Height
		cmds = append(cmds, m.applySizes())
	case boardLoadedMsg:
		m.loading = false
		m.cache.SetSettings(msg.settings)
		m.gantt.Refresh()
		if msg.err != nil {
			m.setError("refresh failed, showing cached board: " + msg.err.Error())
		} else {
			m.setStatus(fmt.Sprintf("Loaded %d tasks", len(m.cache.Snapshot().Tasks)))
		}
	case settingsLoadedMsg:
		if msg.err != nil {
			m.setError("settings: " + msg.err.Error())
			break
		}
		m.cache.SetSettings(msg.settings)
	case events.BoardChangedMsg:
		m.gantt.Refresh()
		cmds = append(cmds, m.cache.Next())
	case events.TaskChangeMsg:
		log.Printf("tui: task change %s", msg.Describe())
		cmds = append(cmds, m.cache.Next())
	case events.WriteFailedMsg:
		text := fmt.Sprintf("task #%d not saved: %v", msg.TaskID, msg.Err)
		if msg.RolledBack {
			text += " (reverted)"
		}
		m.setError(text)
		m.gantt.Refresh()
		cmds = append(cmds, m.cache.Next())
	case events.TaskEditRequestMsg:
		cmds = append(cmds, m.openEditor(msg.Task.ID))
	case events.TaskSaveRequestMsg:
		cmds = append(cmds, m.saveTask(msg))
	case taskSavedMsg:
		if msg.err != nil {
			m.setError(fmt.Sprintf("save %s: %v", msg.ref.Label(), msg.err))
			break
		}
		m.setStatus("Saved " + events.RefFromTask(msg.task).Label())
	case events.OverlayCloseMsg:
		log.Printf("tui: overlay closed %s", msg.Describe())
	case watchStartedMsg:
		if msg.err != nil {
			m.setError("watch: " + msg.err.Error())
			break
		}
		m.stopWatch()
		m.watchCh = msg.ch
		m.watchCancel = msg.cancel
		cmds = append(cmds, m.waitForWatch())
	case watchEventMsg:
		cmds = append(cmds, m.handleWatchEvent(msg.event), m.waitForWatch())
	case watchStoppedMsg:
		m.stopWatch()
		if m.ctx.Err() == nil {
			cmds = append(cmds, startWatchCmd(m.ctx, m.svc))
		}
	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			m.Close()
			return m, tea.Quit
		}
		if m.pane.HasOverlay() {
			cmds = append(cmds, m.pane.Update(msg))
			break
		}
		cmd, quit := m.handleKey(msg)
		if quit {
			m.Close()
			return m, tea.Quit
		}
		cmds = append(cmds, cmd)
	case tea.MouseClickMsg:
		cmds = append(cmds, m.routeMouse(msg, func(mouse tea.Mouse) tea.Msg { return tea.MouseClickMsg(mouse) }))
	case tea.MouseMotionMsg:
		cmds = append(cmds, m.routeMouse(msg, func(mouse tea.Mouse) tea.Msg { return tea.MouseMotionMsg(mouse) }))
	case tea.MouseReleaseMsg:
		cmds = append(cmds, m.routeMouse(msg, func(mouse tea.Mouse) tea.Msg { return tea.MouseReleaseMsg(mouse) }))
	case tea.MouseWheelMsg:
		cmds = append(cmds, m.routeMouse(msg, func(mouse tea.Mouse) tea.Msg { return tea.MouseWheelMsg(mouse) }))
	default:
		cmds = append(cmds, m.gantt.Update(msg))
		if m.pane.HasOverlay() {
			cmds = append(cmds, m.pane.Update(msg))
		}
	}
	return m, tea.Batch(cmds...)
}

// routeMouse sends pointer input to the overlay when one is open and to the
// timeline otherwise, translated to timeline coordinates.
func (m *Model) routeMouse(msg tea.MouseMsg, rebuild func(tea.Mouse) tea.Msg) tea.Cmd {
	if m.pane.HasOverlay() {
		return m.pane.Update(msg)
	}
	mouse := msg.Mouse()
	mouse.Y -= headerHeight
	if mouse.Y < 0 {
		if _, dragging := m.gantt.Engine().Dragging(); !dragging {
			return nil
		}
	}
	return m.gantt.Update(rebuild(mouse))
}

func (m *Model) handleKey(k tea.KeyPressMsg) (tea.Cmd, bool) {
	key := k.String()
	switch key {
	case "q":
		return nil, true
	case "?":
		return m.openHelp(), false
	case "t":
		return m.gantt.ScrollToToday(), false
	case "g":
		m.gantt.CycleGroupBy()
		m.setStatus("Grouped by " + string(m.gantt.GroupBy()))
	case "0":
		m.gantt.ClearStatuses()
		m.setStatus("Showing all statuses")
	case "h", "left":
		return m.gantt.ScrollDays(-weekDays), false
	case "l", "right":
		return m.gantt.ScrollDays(weekDays), false
	case "j", "down":
		m.gantt.ScrollRows(1)
	case "k", "up":
		m.gantt.ScrollRows(-1)
	case "T":
		m.toggleTheme()
	case "r":
		m.loading = true
		m.setStatus("Reloading board")
		return m.loadBoard(true), false
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			all := task.AllStatuses()
			if n := int(key[0] - '1'); n < len(all) {
				m.gantt.ToggleStatus(all[n])
				m.setStatus("Filter: " + m.filterLabel())
			}
		}
	}
	return nil, false
}

func (m *Model) toggleTheme() {
	name := theme.NameLight
	if m.themeName == theme.NameLight {
		name = theme.NameDark
	}
	m.themeName = name
	m.theme = theme.Named(name)
	m.gantt.Engine().SetStyles(m.theme.Timeline)
	if ts, ok := m.svc.(themeSaver); ok {
		if err := ts.SetTheme(name); err != nil {
			m.setError("theme not saved: " + err.Error())
			return
		}
	}
	m.setStatus("Theme: " + name)
}

func (m *Model) openEditor(id int64) tea.Cmd {
	t, ok := m.cache.Task(id)
	if !ok {
		m.setError(fmt.Sprintf("task #%d is gone", id))
		return nil
	}
	return m.pane.SetOverlay(taskdetail.New(t, m.theme.Modal), ui.OverlayPlacement{
		Width:      64,
		Height:     14,
		Horizontal: lipgloss.Center,
		Vertical:   lipgloss.Center,
	})
}

func (m *Model) openHelp() tea.Cmd {
	w, h := m.bodySize()
	width := min(76, max(w-4, 32))
	height := max(h-2, 8)
	return m.pane.SetOverlay(help.New(width, height), ui.OverlayPlacement{
		Width:      width,
		Height:     height,
		Horizontal: lipgloss.Center,
		Vertical:   lipgloss.Center,
	})
}

func (m *Model) bodySize() (int, int) {
	return max(m.termWidth, 1), max(m.termHeight-headerHeight-footerHeight, 1)
}

func (m *Model) applySizes() tea.Cmd {
	if m.termWidth == 0 || m.termHeight == 0 {
		return nil
	}
	w, h := m.bodySize()
	m.pane.SetSize(w, h)
	return m.gantt.SetSize(w, h)
}

func (m *Model) filterLabel() string {
	statuses := m.gantt.Statuses()
	if len(statuses) == 0 {
		return "all"
	}
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// View renders the header, the timeline with any overlay, and the status bar.
func (m *Model) View() string {
	if m.termWidth == 0 || m.termHeight == 0 {
		return "loading board…"
	}
	m.pane.SetBackground(m.gantt.View())
	body, _ := m.pane.View()
	return strings.Join([]string{m.renderHeader(), body, m.renderFooter()}, "\n")
}

func (m *Model) renderHeader() string {
	h := m.theme.Header
	parts := []string{
		h.Title.Render(fmt.Sprintf("Board #%d", m.board)),
		h.Muted.Render("group: ") + h.Filter.Render(string(m.gantt.GroupBy())),
		h.Muted.Render("filter: ") + h.Filter.Render(m.filterLabel()),
	}
	if m.loading {
		parts = append(parts, h.Muted.Render("loading…"))
	}
	return ansi.Truncate(strings.Join(parts, h.Muted.Render(" · ")), m.termWidth, "…")
}

func (m *Model) renderFooter() string {
	f := m.theme.Footer
	hints := f.Key.Render("?") + f.Help.Render(" help · ") + f.Key.Render("q") + f.Help.Render(" quit")
	status := f.Status.Render(m.status)
	if m.statusErr {
		status = f.Error.Render(m.status)
	}
	gap := m.termWidth - ansi.StringWidth(status) - ansi.StringWidth(hints)
	if gap < 1 {
		return ansi.Truncate(status, m.termWidth, "…")
	}
	return status + strings.Repeat(" ", gap) + hints
}

// Run launches the interactive timeline for opts.Board.
func Run(ctx context.Context, svc *app.Service, opts Options) error {
	m := New(svc, svc.Store, opts)
	defer m.Close()
	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err := p.Run()
	return err
}
