package timeline

import (
	"fmt"
	"time"

	"tableflip.dev/taskboard/pkg/task"
)

// DefaultHolidays are month-day keys of fixed public holidays.
var DefaultHolidays = []string{
	"1-1", "1-2", "1-3", "1-4", "1-5", "1-6", "1-7", "1-8",
	"2-23", "3-8", "5-1", "5-9", "6-12", "11-4",
}

// Calendar decides which days are working days. It only affects shading,
// never coordinates.
type Calendar struct {
	holidays map[string]struct{}
}

// NewCalendar builds a calendar from "month-day" keys such as "5-1".
func NewCalendar(holidays []string) Calendar {
	set := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		set[h] = struct{}{}
	}
	return Calendar{holidays: set}
}

// DefaultCalendar uses DefaultHolidays.
func DefaultCalendar() Calendar {
	return NewCalendar(DefaultHolidays)
}

// Holiday reports whether d matches a fixed holiday key.
func (c Calendar) Holiday(d task.Date) bool {
	_, ok := c.holidays[holidayKey(d)]
	return ok
}

// NonWorking reports whether d is a weekend day or a holiday.
func (c Calendar) NonWorking(d task.Date) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday || c.Holiday(d)
}

// WeekStart reports whether d is a Monday.
func WeekStart(d task.Date) bool {
	return d.Weekday() == time.Monday
}

func holidayKey(d task.Date) string {
	return fmt.Sprintf("%d-%d", int(d.Month()), d.Day())
}
