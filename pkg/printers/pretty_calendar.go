package printers

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"tableflip.dev/taskboard/pkg/task"
)

const width = len("11 12 13 14 15 16 17") // an example week

// Calendar prints a month grid. Days covered by at least one task are bold.
func (pp *PrettyPrint) Calendar(month task.Date, today task.Date, tasks []task.Task) {
	days := daysIn(month.Time())
	count := make([]int, days)
	first := task.NewDate(month.Year(), month.Month(), 1)
	last := first.AddDays(days - 1)

	for _, t := range tasks {
		if !t.HasDates() {
			continue
		}
		from := task.MaxDate(*t.StartDate, first)
		to := task.MinDate(*t.EndDate, last)
		for d := from; !d.After(to); d = d.AddDays(1) {
			count[d.Day()-1]++
		}
	}

	pp.printMonthCount(first, today, count)
}

func (pp *PrettyPrint) printMonthCount(then task.Date, today task.Date, count []int) {
	d := startDay(then.Time())

	tf := color.New(color.FgWhite, color.Italic)

	m := fmt.Sprintf("%s %d", then.Month(), then.Year())
	mid := (width - len(m)) / 2
	_, _ = tf.Fprintf(pp.out(), "%s%s%s\n", strings.Repeat(" ", mid), m, strings.Repeat(" ", max(0, width-mid-len(m))))

	days := daysIn(then.Time())

	// Pad out the start of the month.
	for i := time.Sunday; i < d; i++ {
		_, _ = fmt.Fprint(pp.out(), "   ")
	}

	l1 := color.New(color.Faint, color.FgWhite)
	l2 := color.New(color.Bold, color.FgHiWhite)
	l3 := color.New(color.Bold, color.Underline, color.FgHiYellow)

	for i := 0; i < days; i++ {
		printer := l1
		if i < len(count) && count[i] > 0 {
			printer = l2
		}
		if today.Year() == then.Year() && today.Month() == then.Month() && today.Day() == i+1 {
			printer = l3
		}
		_, _ = printer.Fprintf(pp.out(), "%2d ", i+1)

		d++
		if d > time.Saturday {
			d = time.Sunday
			_, _ = fmt.Fprint(pp.out(), "\n")
		}
	}
	_, _ = fmt.Fprint(pp.out(), "\n\n")
}

// NextMonth is the first day of the month after then.
func NextMonth(then task.Date) task.Date {
	return task.NewDate(then.Year(), then.Month(), 1).AddMonths(1)
}

func daysIn(then time.Time) int {
	return time.Date(then.UTC().Year(), then.UTC().Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func startDay(then time.Time) time.Weekday {
	return time.Date(then.UTC().Year(), then.UTC().Month(), 1, 1, 0, 0, 0, time.UTC).Weekday()
}
