package holiday

import (
	"time"

	"github.com/taskline/backend/domain"
)

type fixedRule struct {
	month time.Month
	day   int
	name  string
}

type floatingRule struct {
	month   time.Month
	weekday time.Weekday
	ordinal int // 1..n, or -1 for the last occurrence
	name    string
}

var usFixed = []fixedRule{
	{time.January, 1, "New Year's Day"},
	{time.June, 19, "Juneteenth"},
	{time.July, 4, "Independence Day"},
	{time.November, 11, "Veterans Day"},
	{time.December, 25, "Christmas Day"},
}

var usFloating = []floatingRule{
	{time.January, time.Monday, 3, "Martin Luther King Jr. Day"},
	{time.February, time.Monday, 3, "Presidents' Day"},
	{time.May, time.Monday, -1, "Memorial Day"},
	{time.September, time.Monday, 1, "Labor Day"},
	{time.October, time.Monday, 2, "Columbus Day"},
	{time.November, time.Thursday, 4, "Thanksgiving Day"},
}

// NewUS returns the federal holiday calendar. Rules are evaluated on the
// fly; wrap with Memoize (or the Redis month cache) for hot paths.
func NewUS() Lookup {
	return Func(func(date time.Time) *domain.Holiday {
		day := domain.DayOf(date)
		for _, r := range usFixed {
			if day.Month() == r.month && day.Day() == r.day {
				return &domain.Holiday{Date: day, Name: r.name}
			}
		}
		for _, r := range usFloating {
			if day.Month() != r.month || day.Weekday() != r.weekday {
				continue
			}
			if r.ordinal == -1 {
				if domain.IsLastWeekdayOfMonth(day) {
					return &domain.Holiday{Date: day, Name: r.name}
				}
				continue
			}
			if domain.WeekdayOrdinal(day) == r.ordinal {
				return &domain.Holiday{Date: day, Name: r.name}
			}
		}
		return nil
	})
}
