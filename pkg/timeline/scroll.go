package timeline

// Pane identifies one of the two horizontally scrolling containers.
type Pane int

const (
	// PaneRuler is the slim date ruler above the body.
	PaneRuler Pane = iota
	// PaneBody is the main task body.
	PaneBody
)

func (p Pane) other() Pane {
	if p == PaneRuler {
		return PaneBody
	}
	return PaneRuler
}

type syncState int

const (
	syncIdle syncState = iota
	syncSyncing
)

// ScrollSync keeps the ruler and body at the same horizontal offset. A copy
// from one pane to the other puts the synchroniser into the syncing state
// until the next Frame, so the scroll event the copy itself produces is not
// echoed back.
type ScrollSync struct {
	offsets  [2]int
	state    syncState
	last     Pane
	content  int
	viewport int

	autoScrolled bool
}

// NewScrollSync returns an idle synchroniser at offset zero.
func NewScrollSync() *ScrollSync {
	return &ScrollSync{}
}

// Offset returns the current offset of pane p.
func (s *ScrollSync) Offset(p Pane) int {
	return s.offsets[p]
}

// Syncing reports whether a copy is in flight.
func (s *ScrollSync) Syncing() bool {
	return s.state == syncSyncing
}

// Resize records the scrollable content width and the visible width.
// Offsets are re-clamped.
func (s *ScrollSync) Resize(content, viewport int) {
	s.content = content
	s.viewport = viewport
	for i := range s.offsets {
		s.offsets[i] = s.clamp(s.offsets[i])
	}
}

// Viewport is the visible width last given to Resize.
func (s *ScrollSync) Viewport() int {
	return s.viewport
}

// MaxOffset is the largest offset that still fills the viewport.
func (s *ScrollSync) MaxOffset() int {
	if s.content <= s.viewport {
		return 0
	}
	return s.content - s.viewport
}

func (s *ScrollSync) clamp(x int) int {
	if x < 0 {
		return 0
	}
	if m := s.MaxOffset(); s.viewport > 0 && x > m {
		return m
	}
	return x
}

// OnScroll records that source scrolled to offset. While idle the offset is
// copied to the other pane and the synchroniser enters the syncing state;
// the caller must then schedule a frame tick and call Frame. While syncing
// only the source pane moves. The return value reports whether a frame tick
// is needed.
func (s *ScrollSync) OnScroll(source Pane, offset int) bool {
	offset = s.clamp(offset)
	s.offsets[source] = offset
	s.last = source
	if s.state == syncSyncing {
		return false
	}
	s.offsets[source.other()] = offset
	s.state = syncSyncing
	return true
}

// Frame clears the syncing state. If the last scrolled pane drifted from its
// follower while syncing, the follower catches up and Frame reports that
// another tick is needed.
func (s *ScrollSync) Frame() bool {
	if s.state != syncSyncing {
		return false
	}
	s.state = syncIdle
	if s.offsets[s.last] != s.offsets[s.last.other()] {
		return s.OnScroll(s.last, s.offsets[s.last])
	}
	return false
}

// ScrollBy moves the body by dx.
func (s *ScrollSync) ScrollBy(dx int) bool {
	return s.OnScroll(PaneBody, s.offsets[PaneBody]+dx)
}

// CenterOn scrolls the body so body offset x sits in the middle of the
// viewport.
func (s *ScrollSync) CenterOn(x int) bool {
	return s.OnScroll(PaneBody, x-s.viewport/2)
}

// AutoScroll centres x once per synchroniser, after the viewport size is
// known and ready is true. It reports whether it scrolled.
func (s *ScrollSync) AutoScroll(x int, ready bool) bool {
	if s.autoScrolled || !ready || s.viewport <= 0 {
		return false
	}
	s.autoScrolled = true
	s.CenterOn(x)
	return true
}

// ResetAutoScroll allows AutoScroll to fire again, as on a fresh mount.
func (s *ScrollSync) ResetAutoScroll() {
	s.autoScrolled = false
}
