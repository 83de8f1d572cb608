package recurrence

import (
	"testing"
	"time"

	"github.com/taskline/backend/domain"
	"github.com/taskline/backend/holiday"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dayStrings(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(domain.DateLayout)
	}
	return out
}

func assertDates(t *testing.T, got []time.Time, want ...string) {
	t.Helper()
	gotStr := dayStrings(got)
	if len(gotStr) != len(want) {
		t.Fatalf("got %v, want %v", gotStr, want)
	}
	for i := range want {
		if gotStr[i] != want[i] {
			t.Fatalf("got %v, want %v", gotStr, want)
		}
	}
}

func baseTemplate(rec domain.Recurrence) *domain.RecurringTemplate {
	return &domain.RecurringTemplate{
		ID:              "tpl-1",
		UserID:          "u1",
		Title:           "standup",
		Recurrence:      rec,
		HolidayHandling: domain.HolidayShow,
		StartDate:       day(2024, 1, 1),
		IsActive:        true,
	}
}

func TestExpandDaily(t *testing.T) {
	e := NewExpander(nil, nil)
	tpl := baseTemplate(domain.RecurDaily)

	got := e.Expand(tpl, day(2024, 3, 1), day(2024, 3, 4))
	assertDates(t, got, "2024-03-01", "2024-03-02", "2024-03-03", "2024-03-04")
}

func TestExpandClampsToTemplateWindow(t *testing.T) {
	e := NewExpander(nil, nil)
	tpl := baseTemplate(domain.RecurDaily)
	tpl.StartDate = day(2024, 3, 3)
	end := day(2024, 3, 5)
	tpl.EndDate = &end

	got := e.Expand(tpl, day(2024, 3, 1), day(2024, 3, 31))
	assertDates(t, got, "2024-03-03", "2024-03-04", "2024-03-05")
}

func TestExpandInactiveTemplate(t *testing.T) {
	e := NewExpander(nil, nil)
	tpl := baseTemplate(domain.RecurDaily)
	tpl.IsActive = false

	if got := e.Expand(tpl, day(2024, 3, 1), day(2024, 3, 31)); got != nil {
		t.Fatalf("inactive template expanded to %v", dayStrings(got))
	}
}

func TestExpandWeekly(t *testing.T) {
	e := NewExpander(nil, nil)
	tpl := baseTemplate(domain.RecurWeekly)
	tpl.Weekly = &domain.WeeklyRule{Weekday: time.Tuesday}

	got := e.Expand(tpl, day(2024, 3, 1), day(2024, 3, 31))
	assertDates(t, got, "2024-03-05", "2024-03-12", "2024-03-19", "2024-03-26")
}

func TestExpandWeeklyWeekOfMonth(t *testing.T) {
	e := NewExpander(nil, nil)
	cases := []struct {
		name string
		week domain.WeekOfMonth
		want []string
	}{
		{"first", domain.WeekFirst, []string{"2024-03-05"}},
		{"third", domain.WeekThird, []string{"2024-03-19"}},
		{"last", domain.WeekLast, []string{"2024-03-26"}},
		{"except_first", domain.WeekExceptFirst, []string{"2024-03-12", "2024-03-19", "2024-03-26"}},
		{"except_last", domain.WeekExceptLast, []string{"2024-03-05", "2024-03-12", "2024-03-19"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tpl := baseTemplate(domain.RecurWeekly)
			tpl.Weekly = &domain.WeeklyRule{Weekday: time.Tuesday, Week: tc.week}
			got := e.Expand(tpl, day(2024, 3, 1), day(2024, 3, 31))
			assertDates(t, got, tc.want...)
		})
	}
}

func TestExpandMonthlyLastDay(t *testing.T) {
	e := NewExpander(nil, nil)
	tpl := baseTemplate(domain.RecurMonthly)
	tpl.Monthly = &domain.MonthlyRule{Type: domain.MonthlyByDate, Day: domain.MonthDayLast}

	// 2024 is a leap year: February contributes the 29th.
	got := e.Expand(tpl, day(2024, 1, 1), day(2024, 4, 30))
	assertDates(t, got, "2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30")
}

func TestExpandMonthlyByDateSkipsShortMonths(t *testing.T) {
	e := NewExpander(nil, nil)
	tpl := baseTemplate(domain.RecurMonthly)
	tpl.Monthly = &domain.MonthlyRule{Type: domain.MonthlyByDate, Day: 31}

	got := e.Expand(tpl, day(2024, 1, 1), day(2024, 4, 30))
	// February and April have no 31st and contribute nothing.
	assertDates(t, got, "2024-01-31", "2024-03-31")
}

func TestExpandMonthlyBusinessDaySentinels(t *testing.T) {
	e := NewExpander(nil, nil)

	t.Run("first business day", func(t *testing.T) {
		tpl := baseTemplate(domain.RecurMonthly)
		tpl.Monthly = &domain.MonthlyRule{Type: domain.MonthlyByDate, Day: domain.MonthDayFirstBusiness}
		// June 1 2024 is a Saturday, so the first business day is Monday the 3rd.
		got := e.Expand(tpl, day(2024, 6, 1), day(2024, 6, 30))
		assertDates(t, got, "2024-06-03")
	})

	t.Run("last business day", func(t *testing.T) {
		tpl := baseTemplate(domain.RecurMonthly)
		tpl.Monthly = &domain.MonthlyRule{Type: domain.MonthlyByDate, Day: domain.MonthDayLastBusiness}
		// March 31 2024 is a Sunday; the last business day is Friday the 29th.
		got := e.Expand(tpl, day(2024, 3, 1), day(2024, 3, 31))
		assertDates(t, got, "2024-03-29")
	})
}

func TestExpandMonthlyNthWeekday(t *testing.T) {
	e := NewExpander(nil, nil)
	tpl := baseTemplate(domain.RecurMonthly)
	tpl.Monthly = &domain.MonthlyRule{
		Type:    domain.MonthlyByWeekday,
		Weekday: time.Friday,
		Ordinal: 2,
	}

	got := e.Expand(tpl, day(2024, 3, 1), day(2024, 4, 30))
	assertDates(t, got, "2024-03-08", "2024-04-12")
}

func TestExpandMonthlyLastWeekday(t *testing.T) {
	e := NewExpander(nil, nil)
	tpl := baseTemplate(domain.RecurMonthly)
	tpl.Monthly = &domain.MonthlyRule{
		Type:    domain.MonthlyByWeekday,
		Weekday: time.Monday,
		Ordinal: domain.OrdinalLast,
	}

	got := e.Expand(tpl, day(2024, 3, 1), day(2024, 3, 31))
	assertDates(t, got, "2024-03-25")
}

func TestExpandYearly(t *testing.T) {
	e := NewExpander(nil, nil)
	tpl := baseTemplate(domain.RecurYearly)
	tpl.StartDate = day(2023, 7, 4)

	got := e.Expand(tpl, day(2024, 1, 1), day(2026, 12, 31))
	assertDates(t, got, "2024-07-04", "2025-07-04", "2026-07-04")
}

func TestExpandYearlyLeapAnchor(t *testing.T) {
	e := NewExpander(nil, nil)
	tpl := baseTemplate(domain.RecurYearly)
	tpl.StartDate = day(2024, 2, 29)

	// Non-leap years contribute nothing instead of drifting to Mar 1.
	got := e.Expand(tpl, day(2024, 1, 1), day(2028, 12, 31))
	assertDates(t, got, "2024-02-29", "2028-02-29")
}

func holidayOn(dates ...time.Time) holiday.Lookup {
	table := make([]domain.Holiday, len(dates))
	for i, d := range dates {
		table[i] = domain.Holiday{Date: d, Name: "closed"}
	}
	return holiday.NewTable(table)
}

func TestExpandHolidayShift(t *testing.T) {
	lookup := holidayOn(day(2024, 3, 15))

	t.Run("before", func(t *testing.T) {
		e := NewExpander(lookup, nil)
		tpl := baseTemplate(domain.RecurMonthly)
		tpl.Monthly = &domain.MonthlyRule{Type: domain.MonthlyByDate, Day: 15}
		tpl.HolidayHandling = domain.HolidayBefore
		got := e.Expand(tpl, day(2024, 3, 1), day(2024, 3, 31))
		assertDates(t, got, "2024-03-14")
	})

	t.Run("after", func(t *testing.T) {
		e := NewExpander(lookup, nil)
		tpl := baseTemplate(domain.RecurMonthly)
		tpl.Monthly = &domain.MonthlyRule{Type: domain.MonthlyByDate, Day: 15}
		tpl.HolidayHandling = domain.HolidayAfter
		got := e.Expand(tpl, day(2024, 3, 1), day(2024, 3, 31))
		assertDates(t, got, "2024-03-16")
	})

	t.Run("show keeps the holiday date", func(t *testing.T) {
		e := NewExpander(lookup, nil)
		tpl := baseTemplate(domain.RecurMonthly)
		tpl.Monthly = &domain.MonthlyRule{Type: domain.MonthlyByDate, Day: 15}
		got := e.Expand(tpl, day(2024, 3, 1), day(2024, 3, 31))
		assertDates(t, got, "2024-03-15")
	})
}

func TestExpandHolidayShiftWalksConsecutiveHolidays(t *testing.T) {
	lookup := holidayOn(day(2024, 3, 15), day(2024, 3, 16), day(2024, 3, 17))
	e := NewExpander(lookup, nil)
	tpl := baseTemplate(domain.RecurMonthly)
	tpl.Monthly = &domain.MonthlyRule{Type: domain.MonthlyByDate, Day: 15}
	tpl.HolidayHandling = domain.HolidayAfter

	got := e.Expand(tpl, day(2024, 3, 1), day(2024, 3, 31))
	assertDates(t, got, "2024-03-18")
}

func TestExpandHolidayShiftExhaustedKeepsDate(t *testing.T) {
	everyDay := holiday.Func(func(d time.Time) *domain.Holiday {
		return &domain.Holiday{Date: d, Name: "always"}
	})
	e := NewExpander(everyDay, nil)
	tpl := baseTemplate(domain.RecurMonthly)
	tpl.Monthly = &domain.MonthlyRule{Type: domain.MonthlyByDate, Day: 15}
	tpl.HolidayHandling = domain.HolidayAfter

	got := e.Expand(tpl, day(2024, 3, 1), day(2024, 3, 31))
	assertDates(t, got, "2024-03-15")
}

func TestExpandDropsShiftedOutOfRange(t *testing.T) {
	lookup := holidayOn(day(2024, 3, 31))
	e := NewExpander(lookup, nil)
	tpl := baseTemplate(domain.RecurMonthly)
	tpl.Monthly = &domain.MonthlyRule{Type: domain.MonthlyByDate, Day: domain.MonthDayLast}
	tpl.HolidayHandling = domain.HolidayAfter

	// The shift lands on April 1, outside the requested range: dropped.
	got := e.Expand(tpl, day(2024, 3, 1), day(2024, 3, 31))
	assertDates(t, got)
}

func TestExpandExceptions(t *testing.T) {
	e := NewExpander(nil, nil)

	t.Run("by date", func(t *testing.T) {
		tpl := baseTemplate(domain.RecurDaily)
		tpl.Exceptions = []domain.ExceptionRule{
			{Type: domain.ExceptionDate, Dates: []time.Time{day(2024, 3, 2)}},
		}
		got := e.Expand(tpl, day(2024, 3, 1), day(2024, 3, 3))
		assertDates(t, got, "2024-03-01", "2024-03-03")
	})

	t.Run("by weekday", func(t *testing.T) {
		tpl := baseTemplate(domain.RecurDaily)
		tpl.Exceptions = []domain.ExceptionRule{
			{Type: domain.ExceptionWeekday, Values: []int{int(time.Saturday), int(time.Sunday)}},
		}
		// March 1 2024 is a Friday.
		got := e.Expand(tpl, day(2024, 3, 1), day(2024, 3, 5))
		assertDates(t, got, "2024-03-01", "2024-03-04", "2024-03-05")
	})

	t.Run("by week of month", func(t *testing.T) {
		tpl := baseTemplate(domain.RecurWeekly)
		tpl.Weekly = &domain.WeeklyRule{Weekday: time.Tuesday}
		tpl.Exceptions = []domain.ExceptionRule{
			{Type: domain.ExceptionWeek, Values: []int{1}},
		}
		got := e.Expand(tpl, day(2024, 3, 1), day(2024, 3, 31))
		assertDates(t, got, "2024-03-12", "2024-03-19", "2024-03-26")
	})

	t.Run("by month", func(t *testing.T) {
		tpl := baseTemplate(domain.RecurMonthly)
		tpl.Monthly = &domain.MonthlyRule{Type: domain.MonthlyByDate, Day: 15}
		tpl.Exceptions = []domain.ExceptionRule{
			{Type: domain.ExceptionMonth, Values: []int{int(time.February)}},
		}
		got := e.Expand(tpl, day(2024, 1, 1), day(2024, 3, 31))
		assertDates(t, got, "2024-01-15", "2024-03-15")
	})
}

func TestExpandExceptionAppliesToShiftedDate(t *testing.T) {
	lookup := holidayOn(day(2024, 3, 15))
	e := NewExpander(lookup, nil)
	tpl := baseTemplate(domain.RecurMonthly)
	tpl.Monthly = &domain.MonthlyRule{Type: domain.MonthlyByDate, Day: 15}
	tpl.HolidayHandling = domain.HolidayAfter
	tpl.Exceptions = []domain.ExceptionRule{
		{Type: domain.ExceptionDate, Dates: []time.Time{day(2024, 3, 16)}},
	}

	// The candidate shifts onto the exception date and gets suppressed.
	got := e.Expand(tpl, day(2024, 3, 1), day(2024, 3, 31))
	assertDates(t, got)
}
