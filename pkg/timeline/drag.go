package timeline

import (
	"math"

	"tableflip.dev/taskboard/pkg/task"
)

// Mode is what a drag session changes.
type Mode int

const (
	// ModeMove shifts both dates.
	ModeMove Mode = iota
	// ModeResizeLeft shifts only the start date.
	ModeResizeLeft
	// ModeResizeRight shifts only the end date.
	ModeResizeRight
)

func (m Mode) String() string {
	switch m {
	case ModeMove:
		return "move"
	case ModeResizeLeft:
		return "resize-left"
	case ModeResizeRight:
		return "resize-right"
	default:
		return "unknown"
	}
}

// ParseMode is the inverse of Mode.String.
func ParseMode(raw string) (Mode, bool) {
	for _, m := range []Mode{ModeMove, ModeResizeLeft, ModeResizeRight} {
		if m.String() == raw {
			return m, true
		}
	}
	return ModeMove, false
}

// Updater receives the date changes a drag produces. Calls happen in the
// order the changes were computed and must not block.
type Updater interface {
	UpdateTask(id int64, p task.Patch)
}

// UpdaterFunc adapts a func to Updater.
type UpdaterFunc func(id int64, p task.Patch)

// UpdateTask calls f.
func (f UpdaterFunc) UpdateTask(id int64, p task.Patch) { f(id, p) }

// Reschedule computes the patch that shifting start/end by delta days in the
// given mode produces. A resize that would make start reach or pass end is
// rejected with ok=false.
func Reschedule(start, end task.Date, mode Mode, delta int) (p task.Patch, ok bool) {
	switch mode {
	case ModeMove:
		s, e := start.AddDays(delta), end.AddDays(delta)
		return task.Patch{StartDate: &s, EndDate: &e}, true
	case ModeResizeLeft:
		s := start.AddDays(delta)
		if !s.Before(end) {
			return task.Patch{}, false
		}
		return task.Patch{StartDate: &s}, true
	case ModeResizeRight:
		e := end.AddDays(delta)
		if !e.After(start) {
			return task.Patch{}, false
		}
		return task.Patch{EndDate: &e}, true
	}
	return task.Patch{}, false
}

// Session is the state of an active drag.
type Session struct {
	Task        task.Task
	Mode        Mode
	AnchorX     int
	AnchorStart task.Date
	AnchorEnd   task.Date

	lastDelta int
	writes    int
	cancel    func()
}

// Release summarises a finished drag session.
type Release struct {
	Task      task.Task
	Mode      Mode
	DeltaDays int
	Writes    int
}

// Click reports whether the session counts as a click on the bar: it was a
// move that ended where it started and wrote nothing. Releases on the edge
// handles are never clicks.
func (r Release) Click() bool {
	return r.Mode == ModeMove && r.DeltaDays == 0 && r.Writes == 0
}

// Drag is the Idle -> Dragging(mode) -> Idle state machine. It listens to a
// PointerHub only while a session is active.
type Drag struct {
	hub       *PointerHub
	updater   Updater
	dayWidth  int
	session   *Session
	onRelease func(Release)
}

// NewDrag builds an idle state machine.
func NewDrag(hub *PointerHub, updater Updater, dayWidth int) *Drag {
	if dayWidth <= 0 {
		dayWidth = DefaultDayWidth
	}
	return &Drag{hub: hub, updater: updater, dayWidth: dayWidth}
}

// SetDayWidth changes the scale used for the next session.
func (d *Drag) SetDayWidth(w int) {
	if w > 0 {
		d.dayWidth = w
	}
}

// OnRelease registers a callback invoked once per finished session.
func (d *Drag) OnRelease(fn func(Release)) {
	d.onRelease = fn
}

// Active reports whether a session is in progress.
func (d *Drag) Active() bool {
	return d.session != nil
}

// Session returns a copy of the active session, if any.
func (d *Drag) Session() (Session, bool) {
	if d.session == nil {
		return Session{}, false
	}
	return *d.session, true
}

// Begin starts a session anchored at x. Tasks without both dates are
// ignored. Beginning while a session is active ends the old one first.
func (d *Drag) Begin(t task.Task, mode Mode, x int) bool {
	if !t.HasDates() {
		return false
	}
	if d.session != nil {
		d.end(x)
	}
	s := &Session{
		Task:        t.Clone(),
		Mode:        mode,
		AnchorX:     x,
		AnchorStart: *t.StartDate,
		AnchorEnd:   *t.EndDate,
	}
	d.session = s
	s.cancel = d.hub.Subscribe(PointerListener{
		Move: d.move,
		Up:   d.end,
	})
	return true
}

func (d *Drag) deltaDays(x int) int {
	dx := float64(x - d.session.AnchorX)
	return int(math.Floor(dx/float64(d.dayWidth) + 0.5))
}

func (d *Drag) move(x int) {
	s := d.session
	if s == nil {
		return
	}
	delta := d.deltaDays(x)
	if delta == s.lastDelta {
		return
	}
	s.lastDelta = delta

	p, ok := Reschedule(s.AnchorStart, s.AnchorEnd, s.Mode, delta)
	if !ok {
		return
	}
	s.writes++
	if d.updater != nil {
		d.updater.UpdateTask(s.Task.ID, p)
	}
}

func (d *Drag) end(x int) {
	s := d.session
	if s == nil {
		return
	}
	d.session = nil
	if s.cancel != nil {
		s.cancel()
	}
	rel := Release{
		Task:      s.Task,
		Mode:      s.Mode,
		DeltaDays: s.lastDelta,
		Writes:    s.writes,
	}
	if d.onRelease != nil {
		d.onRelease(rel)
	}
}
