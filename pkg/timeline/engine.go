package timeline

import (
	"log"
	"strings"

	"tableflip.dev/taskboard/pkg/task"
)

// EmptyMessage is shown when no task has both dates.
const EmptyMessage = "No tasks with dates to display"

// RulerHeight is the number of lines the ruler occupies.
const RulerHeight = 2

// Props are the inputs a caller hands the engine on every change.
type Props struct {
	// Tasks are already filtered and sorted by the caller.
	Tasks   []task.Task
	Colors  map[task.Status]string
	GroupBy task.GroupBy
	// OnEdit is invoked when a bar or label is clicked rather than dragged.
	OnEdit func(task.Task)
}

// Options fix the engine's scale and collaborators.
type Options struct {
	DayWidth int
	Gutter   int
	Calendar *Calendar
	Styles   *Styles
	// Today defaults to task.Today.
	Today func() task.Date
}

// Engine ties the range resolver, mapper, drag state machine, scroll
// synchroniser and renderer together for one timeline instance.
type Engine struct {
	opts    Options
	props   Props
	loaded  bool
	hub     *PointerHub
	drag    *Drag
	scroll  *ScrollSync
	width   int
	cal     Calendar
	styles  Styles
	updater Updater

	rng      Range
	rngKey   string
	layout   Layout
	layoutOK bool
}

// New builds an engine that routes date changes to updater.
func New(updater Updater, opts Options) *Engine {
	if opts.DayWidth <= 0 {
		opts.DayWidth = DefaultDayWidth
	}
	if opts.Gutter < 0 {
		opts.Gutter = DefaultGutter
	}
	if opts.Today == nil {
		opts.Today = task.Today
	}
	e := &Engine{
		opts:    opts,
		hub:     NewPointerHub(),
		scroll:  NewScrollSync(),
		cal:     DefaultCalendar(),
		styles:  DefaultStyles(),
		updater: updater,
	}
	if opts.Calendar != nil {
		e.cal = *opts.Calendar
	}
	if opts.Styles != nil {
		e.styles = *opts.Styles
	}
	e.drag = NewDrag(e.hub, updater, opts.DayWidth)
	e.drag.OnRelease(e.released)
	return e
}

// SetProps replaces the engine inputs.
func (e *Engine) SetProps(p Props) {
	e.props = p
	e.loaded = true
	e.layoutOK = false
}

// SetStyles swaps the palette used by Render.
func (e *Engine) SetStyles(s Styles) {
	e.styles = s
}

// Props returns the current inputs.
func (e *Engine) Props() Props {
	return e.props
}

// Today is the engine's notion of the current day.
func (e *Engine) Today() task.Date {
	return e.opts.Today()
}

// Range returns the visible date range, recomputed only when task dates or
// today changed.
func (e *Engine) Range() Range {
	today := e.Today()
	key := rangeKey(e.props.Tasks, today)
	if key != e.rngKey || e.rng.Min.IsZero() {
		e.rng = ResolveRange(e.props.Tasks, today)
		e.rngKey = key
		e.layoutOK = false
		log.Printf("timeline: range %s..%s", e.rng.Min, e.rng.Max)
	}
	return e.rng
}

// Mapper returns the mapper for the current range.
func (e *Engine) Mapper() Mapper {
	return NewMapper(e.Range(), e.opts.DayWidth, e.opts.Gutter)
}

// Layout returns the positioned rows for the current props.
func (e *Engine) Layout() Layout {
	m := e.Mapper()
	if !e.layoutOK {
		e.layout = BuildLayout(task.Group(e.props.Tasks, e.props.GroupBy), e.props.GroupBy, m)
		e.layoutOK = true
		e.scroll.Resize(m.BodyWidth(), e.bodyViewport())
	}
	return e.layout
}

// Hub exposes the pointer hub, mostly so tests can check for leaks.
func (e *Engine) Hub() *PointerHub {
	return e.hub
}

// Dragging reports whether a drag session is active.
func (e *Engine) Dragging() (Session, bool) {
	return e.drag.Session()
}

// PointerDown handles a press at body offset x on row index row. Presses on
// a bar or its handles start a drag; presses on a task label count as an
// edit click. It reports whether the press was consumed.
func (e *Engine) PointerDown(x, row int) bool {
	r, zone := e.Layout().HitTest(x, row)
	if r.Kind != RowTask {
		return false
	}
	if zone == ZoneLabel {
		if e.props.OnEdit != nil {
			e.props.OnEdit(r.Task)
		}
		return true
	}
	mode, ok := zone.Mode()
	if !ok {
		return false
	}
	return e.drag.Begin(r.Task, mode, x)
}

// PointerMove forwards a move at body offset x to the active session.
func (e *Engine) PointerMove(x int) {
	e.hub.Move(x)
}

// PointerUp ends the active session, wherever the pointer is.
func (e *Engine) PointerUp(x int) {
	e.hub.Up(x)
}

func (e *Engine) released(rel Release) {
	log.Printf("timeline: %s task %d by %d days (%d writes)", rel.Mode, rel.Task.ID, rel.DeltaDays, rel.Writes)
	if rel.Click() && e.props.OnEdit != nil {
		e.props.OnEdit(rel.Task)
	}
}

// SetWidth records the full width available to the timeline, gutter
// included.
func (e *Engine) SetWidth(w int) {
	e.width = w
	e.scroll.Resize(e.Mapper().BodyWidth(), e.bodyViewport())
}

func (e *Engine) bodyViewport() int {
	v := e.width - e.opts.Gutter
	if v < 0 {
		return 0
	}
	return v
}

// Scroll returns the offset of pane p.
func (e *Engine) Scroll(p Pane) int {
	return e.scroll.Offset(p)
}

// Syncing reports whether a scroll copy awaits its frame tick.
func (e *Engine) Syncing() bool {
	return e.scroll.Syncing()
}

// OnScroll reports that pane p scrolled to offset. The return value tells
// the caller to schedule a frame tick and call Frame.
func (e *Engine) OnScroll(p Pane, offset int) bool {
	return e.scroll.OnScroll(p, offset)
}

// ScrollBy scrolls the body by dx.
func (e *Engine) ScrollBy(dx int) bool {
	return e.scroll.ScrollBy(dx)
}

// Frame is the animation frame tick that ends a sync.
func (e *Engine) Frame() bool {
	return e.scroll.Frame()
}

// ScrollToToday centres today in the body.
func (e *Engine) ScrollToToday() bool {
	m := e.Mapper()
	e.Layout()
	return e.scroll.CenterOn(m.DateToX(e.Today()))
}

// AutoScroll centres today once, as soon as tasks have been supplied and the
// width is known.
func (e *Engine) AutoScroll() bool {
	m := e.Mapper()
	e.Layout()
	return e.scroll.AutoScroll(m.DateToX(e.Today()), e.loaded)
}

// RowAt converts a line index below the ruler, plus the vertical row
// offset, into a row index.
func RowAt(line, rowOffset int) int {
	return line - RulerHeight + rowOffset
}

// BodyX converts a screen column into a body offset given the gutter and
// the body scroll. Columns inside the gutter come back negative.
func (e *Engine) BodyX(col int) int {
	if col < e.opts.Gutter {
		return col - e.opts.Gutter
	}
	return col - e.opts.Gutter + e.scroll.Offset(PaneBody)
}

// Gutter is the label column width.
func (e *Engine) Gutter() int {
	return e.opts.Gutter
}

// Render draws the ruler and up to height-RulerHeight rows starting at
// rowOffset.
func (e *Engine) Render(height, rowOffset int) string {
	layout := e.Layout()
	m := layout.Mapper
	vw := e.bodyViewport()

	r := Renderer{
		Styles:   e.styles,
		Calendar: e.cal,
		Colors:   e.props.Colors,
		Today:    e.Today(),
	}
	if s, ok := e.drag.Session(); ok {
		r.Active = s.Task.ID
	}

	gutter := strings.Repeat(" ", e.opts.Gutter)
	ruler := strings.Split(r.Ruler(m, e.scroll.Offset(PaneRuler), vw), "\n")
	lines := make([]string, 0, height)
	for _, l := range ruler {
		lines = append(lines, gutter+l)
	}

	if len(layout.Rows) == 0 {
		lines = append(lines, e.styles.Empty.Render(" "+EmptyMessage))
		return strings.Join(lines, "\n")
	}

	if rowOffset < 0 {
		rowOffset = 0
	}
	bodyOffset := e.scroll.Offset(PaneBody)
	for i := rowOffset; i < len(layout.Rows) && len(lines) < height; i++ {
		row := layout.Rows[i]
		lines = append(lines, r.Label(row, e.opts.Gutter)+r.Body(m, row, bodyOffset, vw))
	}
	return strings.Join(lines, "\n")
}
