package timeline

import (
	"tableflip.dev/taskboard/pkg/task"
)

const (
	// DefaultDayWidth is the horizontal size of one day.
	DefaultDayWidth = 40
	// DefaultGutter is the width reserved for task labels left of the body.
	DefaultGutter = 200
)

// Mapper converts between calendar days and horizontal offsets within the
// timeline body. Offsets exclude the gutter.
type Mapper struct {
	Range    Range
	DayWidth int
	Gutter   int
}

// NewMapper builds a mapper, substituting defaults for non-positive widths.
// A zero gutter is kept as is.
func NewMapper(r Range, dayWidth, gutter int) Mapper {
	if dayWidth <= 0 {
		dayWidth = DefaultDayWidth
	}
	if gutter < 0 {
		gutter = DefaultGutter
	}
	return Mapper{Range: r, DayWidth: dayWidth, Gutter: gutter}
}

// DateToX returns the body offset of the left edge of day d.
func (m Mapper) DateToX(d task.Date) int {
	return d.DaysSince(m.Range.Min) * m.DayWidth
}

// XToDate returns the day whose column contains body offset x.
func (m Mapper) XToDate(x int) task.Date {
	return m.Range.Min.AddDays(floorDiv(x, m.DayWidth))
}

// TotalDays is the whole number of days between the range bounds.
func (m Mapper) TotalDays() int {
	return m.Range.Days()
}

// BodyWidth is the width of the day columns, Min through Max inclusive.
func (m Mapper) BodyWidth() int {
	return (m.TotalDays() + 1) * m.DayWidth
}

// ChartWidth is the full chart width including the gutter.
func (m Mapper) ChartWidth() int {
	return m.BodyWidth() + m.Gutter
}

// Days lists every day in the range in order.
func (m Mapper) Days() []task.Date {
	n := m.TotalDays() + 1
	if n <= 0 {
		return nil
	}
	out := make([]task.Date, n)
	for i := range out {
		out[i] = m.Range.Min.AddDays(i)
	}
	return out
}

// BarSpan returns the body offsets [start, end) of a bar covering the task's
// dates. The end day is drawn in full.
func (m Mapper) BarSpan(start, end task.Date) (int, int) {
	return m.DateToX(start), m.DateToX(end) + m.DayWidth
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
