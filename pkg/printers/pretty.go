package printers

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/taskboard/pkg/history"
	"tableflip.dev/taskboard/pkg/task"
)

type PrettyPrint struct {
	ShowID bool
	Out    io.Writer
}

var (
	spacing = strings.Repeat(" ", len("10001  "))
)

func (pp *PrettyPrint) out() io.Writer {
	if pp.Out == nil {
		return color.Output
	}
	return pp.Out
}

func (pp *PrettyPrint) NewLine() {
	_, _ = fmt.Fprintln(pp.out(), "")
}

func (pp *PrettyPrint) Title(title string) {
	t := color.New(color.Bold, color.Underline)

	if pp.ShowID {
		_, _ = t.Fprint(pp.out(), spacing)
	}
	_, _ = t.Fprintln(pp.out(), title)
}

func (pp *PrettyPrint) TitleWithCount(title string, count int, noun string) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)

	if pp.ShowID {
		_, _ = t.Fprint(pp.out(), spacing)
	}
	_, _ = t.Fprint(pp.out(), title)
	_, _ = c.Fprintf(pp.out(), " - %d", count)

	switch count {
	case 1:
		_, _ = c.Fprintf(pp.out(), " %s\n", noun)
	default:
		_, _ = c.Fprintf(pp.out(), " %ss\n", noun)
	}
}

func (pp *PrettyPrint) none() {
	f := color.New(color.Faint, color.Italic)
	if pp.ShowID {
		_, _ = f.Fprint(pp.out(), spacing)
	}
	_, _ = f.Fprint(pp.out(), " none\n\n")
}

// Tasks prints tasks in buckets, one table per bucket.
func (pp *PrettyPrint) Tasks(tasks []task.Task, by task.GroupBy) {
	if len(tasks) == 0 {
		pp.none()
		return
	}
	for _, b := range task.Group(tasks, by) {
		if by != task.GroupNone && by != "" {
			pp.TitleWithCount(b.Name, len(b.Tasks), "task")
		}
		pp.taskTable(b.Tasks)
	}
}

func (pp *PrettyPrint) taskTable(tasks []task.Task) {
	y := color.New(color.FgHiYellow, color.Italic, color.Faint)
	faint := color.New(color.Faint)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 48
	for _, t := range tasks {
		row := []interface{}{}
		if pp.ShowID {
			row = append(row, y.Sprint(t.ID))
		}
		row = append(row,
			statusColor(t.Status).Sprint(t.Status),
			priorityColor(t.Priority).Sprint(t.Priority),
			t.Title,
			faint.Sprint(span(t)),
			faint.Sprint(assignee(t)),
		)
		if len(t.Tags) > 0 {
			row = append(row, faint.Sprint("#"+strings.Join(t.Tags, " #")))
		}
		tbl.AddRow(row...)
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
	_, _ = fmt.Fprintln(pp.out(), "")
}

func span(t task.Task) string {
	if !t.HasDates() {
		return "undated"
	}
	return fmt.Sprintf("%s → %s (%dd)", t.StartDate, t.EndDate, t.Duration())
}

func assignee(t task.Task) string {
	if t.AssigneeName != "" {
		return "@" + t.AssigneeName
	}
	if t.AssigneeID != nil {
		return "@" + strconv.FormatInt(*t.AssigneeID, 10)
	}
	return ""
}

func statusColor(s task.Status) *color.Color {
	switch s {
	case task.StatusDone:
		return color.New(color.FgGreen)
	case task.StatusNotStarted:
		return color.New(color.Faint)
	case task.StatusReview, task.StatusApproval:
		return color.New(color.FgMagenta)
	case task.StatusDevelopment:
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgBlue)
	}
}

func priorityColor(p task.Priority) *color.Color {
	switch p {
	case task.PriorityHigh:
		return color.New(color.FgRed, color.Bold)
	case task.PriorityLow:
		return color.New(color.Faint)
	default:
		return color.New(color.FgYellow)
	}
}

func (pp *PrettyPrint) Boards(boards []task.Board, active int64) {
	if len(boards) == 0 {
		pp.none()
		return
	}
	bold := color.New(color.Bold)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("   ID"), bold.Sprint("Board"))
	for _, b := range boards {
		mark := " "
		if b.ID == active {
			mark = "*"
		}
		tbl.AddRow(fmt.Sprintf("%s %d", mark, b.ID), b.Title)
	}
	tbl.RightAlign(0)
	_, _ = fmt.Fprintln(pp.out(), tbl)
}

func (pp *PrettyPrint) Tags(tags []task.Tag) {
	if len(tags) == 0 {
		pp.none()
		return
	}
	bold := color.New(color.Bold)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("ID"), bold.Sprint("Tag"), bold.Sprint("Color"))
	for _, t := range tags {
		tbl.AddRow(t.ID, t.Title, t.Color)
	}
	tbl.RightAlign(0)
	_, _ = fmt.Fprintln(pp.out(), tbl)
}

func (pp *PrettyPrint) Users(users []task.User) {
	if len(users) == 0 {
		pp.none()
		return
	}
	bold := color.New(color.Bold)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("ID"), bold.Sprint("Login"), bold.Sprint("Name"), bold.Sprint("Role"))
	for _, u := range users {
		role := u.Role
		if u.SuperAdmin {
			role += " (admin)"
		}
		tbl.AddRow(u.ID, u.Login, u.Name, role)
	}
	tbl.RightAlign(0)
	_, _ = fmt.Fprintln(pp.out(), tbl)
}

func (pp *PrettyPrint) User(u task.User) {
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)
	_, _ = bold.Fprint(pp.out(), u.Name)
	_, _ = faint.Fprintf(pp.out(), " (%s, id %d)\n", u.Login, u.ID)
}

// History prints the status breakdown and the event log of one task.
func (pp *PrettyPrint) History(r history.Report) {
	pp.Title("Time in status")
	if len(r.Totals) == 0 {
		pp.none()
	} else {
		tbl := uitable.New()
		tbl.Separator = "  "
		for _, s := range r.Segments {
			tbl.AddRow(s.Label(), bar(s.Percent), fmt.Sprintf("%.0f%%", s.Percent))
		}
		_, _ = fmt.Fprintln(pp.out(), tbl)

		faint := color.New(color.Faint)
		_, _ = faint.Fprintf(pp.out(), "longest: %s, status changes: %d, date changes: %d\n\n",
			r.Longest.Label, r.Changes, len(r.Dates))
	}

	pp.TitleWithCount("Events", len(r.Events), "event")
	if len(r.Events) == 0 {
		pp.none()
		return
	}
	faint := color.New(color.Faint)
	tbl := uitable.New()
	tbl.Separator = "  "
	for _, e := range r.Events {
		tbl.AddRow(faint.Sprint(e.At.Local().Format("2006-01-02 15:04")), e.Title, e.Detail, faint.Sprint(e.Duration))
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
	_, _ = fmt.Fprintln(pp.out(), "")
}

const barWidth = 20

func bar(percent float64) string {
	n := int(percent/100*barWidth + 0.5)
	n = min(max(n, 0), barWidth)
	return strings.Repeat("█", n) + strings.Repeat("·", barWidth-n)
}
