package domain

import "time"

// DateLayout is the wire format for calendar days.
const DateLayout = "2006-01-02"

// DayOf strips the time-of-day component, keeping the location.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether two instants fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// DaysInMonth returns the number of days in the month containing t.
func DaysInMonth(t time.Time) int {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return first.AddDate(0, 1, -1).Day()
}

// WeekdayOrdinal returns which occurrence of its weekday the date is within
// its month (1 for the first Tuesday, 2 for the second, and so on).
func WeekdayOrdinal(t time.Time) int {
	return (t.Day()-1)/7 + 1
}

// IsLastWeekdayOfMonth reports whether the date is the final occurrence of
// its weekday in its month.
func IsLastWeekdayOfMonth(t time.Time) bool {
	return t.Day()+7 > DaysInMonth(t)
}

// IsBusinessDay reports whether the date falls Monday through Friday.
func IsBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// WeekStart returns the Sunday beginning the week that contains t.
func WeekStart(t time.Time) time.Time {
	d := DayOf(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// MonthStart returns the first day of the month containing t.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// ParseDay parses a calendar day in DateLayout or RFC3339, returning nil for
// empty or unparsable input. Callers decide whether the failure deserves a
// warning; a bad date on one record must never blank a whole view.
func ParseDay(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(DateLayout, raw); err == nil {
		d := DayOf(t)
		return &d
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		d := DayOf(t)
		return &d
	}
	return nil
}
