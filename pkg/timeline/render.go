package timeline

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"

	"tableflip.dev/taskboard/pkg/task"
)

// Styles controls how the timeline is drawn.
type Styles struct {
	Ruler       lipgloss.Style
	Month       lipgloss.Style
	NonWorking  lipgloss.Style
	Today       lipgloss.Style
	Group       lipgloss.Style
	GroupLine   lipgloss.Style
	Label       lipgloss.Style
	LabelActive lipgloss.Style
	Empty       lipgloss.Style
}

// DefaultStyles returns the stock palette.
func DefaultStyles() Styles {
	return Styles{
		Ruler:       lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Month:       lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true),
		NonWorking:  lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Background(lipgloss.Color("236")),
		Today:       lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true),
		Group:       lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true),
		GroupLine:   lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		Label:       lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		LabelActive: lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true),
		Empty:       lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true),
	}
}

// Renderer draws rulers and rows as terminal text. Offsets and widths are in
// body units; one unit is one cell.
type Renderer struct {
	Styles   Styles
	Calendar Calendar
	Colors   map[task.Status]string
	Today    task.Date
	// Active is the id of the task being dragged, if any.
	Active int64
}

type cell struct {
	r     rune
	style int
}

// canvas is one line of cells plus the styles they refer to. Style 0 is
// unstyled.
type canvas struct {
	cells  []cell
	styles []lipgloss.Style
	keys   map[string]int
}

func newCanvas(width int) *canvas {
	c := &canvas{
		cells:  make([]cell, width),
		styles: []lipgloss.Style{lipgloss.NewStyle()},
		keys:   map[string]int{},
	}
	for i := range c.cells {
		c.cells[i].r = ' '
	}
	return c
}

func (c *canvas) style(key string, s lipgloss.Style) int {
	if i, ok := c.keys[key]; ok {
		return i
	}
	c.styles = append(c.styles, s)
	c.keys[key] = len(c.styles) - 1
	return len(c.styles) - 1
}

// cont marks the cell covered by the right half of a wide rune.
const cont rune = 0

func (c *canvas) set(col int, r rune, style int) {
	if col < 0 || col >= len(c.cells) {
		return
	}
	c.split(col)
	c.cells[col] = cell{r: r, style: style}
}

// split blanks the other half of a wide rune that col is about to overwrite.
func (c *canvas) split(col int) {
	if c.cells[col].r == cont && col > 0 {
		c.cells[col-1].r = ' '
	}
	if col+1 < len(c.cells) && c.cells[col+1].r == cont {
		c.cells[col+1].r = ' '
	}
}

// text writes s from col on, advancing by each rune's display width. Wide
// runes that do not fit whole become blanks.
func (c *canvas) text(col int, s string, style int) {
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if w > 1 && (col < 0 || col+w > len(c.cells)) {
			for k := 0; k < w; k++ {
				c.set(col+k, ' ', style)
			}
			col += w
			continue
		}
		c.set(col, r, style)
		for k := 1; k < w; k++ {
			c.cells[col+k].r = ' '
			c.set(col+k, ' ', style)
			c.cells[col+k].r = cont
		}
		col += w
	}
}

func (c *canvas) String() string {
	var b strings.Builder
	start := 0
	for i := 1; i <= len(c.cells); i++ {
		if i < len(c.cells) && c.cells[i].style == c.cells[start].style {
			continue
		}
		run := make([]rune, 0, i-start)
		for _, cl := range c.cells[start:i] {
			if cl.r != cont {
				run = append(run, cl.r)
			}
		}
		if c.cells[start].style == 0 {
			b.WriteString(string(run))
		} else {
			b.WriteString(c.styles[c.cells[start].style].Render(string(run)))
		}
		start = i
	}
	return b.String()
}

// visibleDays calls fn for every day with at least one column inside
// [offset, offset+width), passing the day and its column relative to offset.
func visibleDays(m Mapper, offset, width int, fn func(d task.Date, col int)) {
	first := floorDiv(offset, m.DayWidth)
	if first < 0 {
		first = 0
	}
	last := floorDiv(offset+width-1, m.DayWidth)
	if total := m.TotalDays(); last > total {
		last = total
	}
	for i := first; i <= last; i++ {
		d := m.Range.Min.AddDays(i)
		fn(d, i*m.DayWidth-offset)
	}
}

// Ruler draws the two ruler lines: month names, then day numbers.
func (r Renderer) Ruler(m Mapper, offset, width int) string {
	if width <= 0 {
		return "\n"
	}
	months := newCanvas(width)
	days := newCanvas(width)
	monthStyle := months.style("month", r.Styles.Month)
	rulerStyle := days.style("ruler", r.Styles.Ruler)
	offStyle := days.style("off", r.Styles.NonWorking)
	todayStyle := days.style("today", r.Styles.Today)

	labelled := false
	visibleDays(m, offset, width, func(d task.Date, col int) {
		if d.Day() == 1 || !labelled {
			months.text(max(col, 0), d.Time().Format("Jan 2006"), monthStyle)
			labelled = true
		}

		style := rulerStyle
		switch {
		case d.Equal(r.Today):
			style = todayStyle
		case r.Calendar.NonWorking(d):
			style = offStyle
		}
		for i := 0; i < m.DayWidth; i++ {
			days.set(col+i, ' ', style)
		}
		label := strconv.Itoa(d.Day())
		if len(label) >= m.DayWidth && !WeekStart(d) && !d.Equal(r.Today) {
			return
		}
		days.text(col, label, style)
	})
	return months.String() + "\n" + days.String()
}

// Body draws the body part of a single row.
func (r Renderer) Body(m Mapper, row Row, offset, width int) string {
	if width <= 0 {
		return ""
	}
	c := newCanvas(width)
	offStyle := c.style("off", r.Styles.NonWorking)
	todayStyle := c.style("today", r.Styles.Today)

	if row.Kind == RowGroup {
		line := c.style("line", r.Styles.GroupLine)
		for col := 0; col < width && offset+col < m.BodyWidth(); col++ {
			c.set(col, '─', line)
		}
		return c.String()
	}

	visibleDays(m, offset, width, func(d task.Date, col int) {
		switch {
		case d.Equal(r.Today):
			c.set(col, '│', todayStyle)
		case r.Calendar.NonWorking(d):
			for i := 0; i < m.DayWidth; i++ {
				c.set(col+i, ' ', offStyle)
			}
		}
	})

	r.bar(c, m, row, offset)
	return c.String()
}

func (r Renderer) bar(c *canvas, m Mapper, row Row, offset int) {
	fill := r.color(row.Task.Status)
	base, err := colorful.Hex(fill)
	if err != nil {
		base, _ = colorful.Hex(task.FallbackColor)
	}
	handle := base.BlendLab(colorful.Color{}, 0.4)

	fg := "#F9FAFB"
	if l, _, _ := base.Lab(); l > 0.65 {
		fg = "#111827"
	}
	barStyle := c.style("bar", lipgloss.NewStyle().
		Background(lipgloss.Color(base.Hex())).
		Foreground(lipgloss.Color(fg)))
	handleStyle := c.style("handle", lipgloss.NewStyle().
		Background(lipgloss.Color(handle.Hex())).
		Foreground(lipgloss.Color(fg)))

	hw := HandleWidth(m.DayWidth)
	for x := row.Start; x < row.End; x++ {
		style := barStyle
		if x < row.Start+hw || x >= row.End-hw {
			style = handleStyle
		}
		c.set(x-offset, ' ', style)
	}

	inner := row.End - row.Start - 2*hw
	if inner <= 0 {
		return
	}
	title := truncate.StringWithTail(row.Task.Title, uint(inner), "…")
	c.text(row.Start+hw-offset, title, barStyle)
}

func (r Renderer) color(s task.Status) string {
	if c, ok := r.Colors[s]; ok && c != "" {
		return c
	}
	return s.Color()
}

// Label draws the gutter cell of a row, exactly width cells wide.
func (r Renderer) Label(row Row, width int) string {
	if width <= 0 {
		return ""
	}
	var (
		text  string
		style lipgloss.Style
	)
	switch {
	case row.Kind == RowGroup:
		text = "▾ " + row.Group + " (" + strconv.Itoa(row.Count) + ")"
		style = r.Styles.Group
	case r.Active != 0 && row.Task.ID == r.Active:
		text = " " + row.Task.Title
		style = r.Styles.LabelActive
	default:
		text = " " + row.Task.Title
		style = r.Styles.Label
	}
	text = truncate.StringWithTail(text, uint(width-1), "…")
	return style.Width(width).MaxWidth(width).Render(text)
}
