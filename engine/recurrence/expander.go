// Package recurrence expands a repeating-task template into the concrete
// calendar dates it occurs on within a range. Expansion is deterministic and
// pure; the only collaborator is the injected holiday lookup.
package recurrence

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/taskline/backend/domain"
	"github.com/taskline/backend/holiday"
)

// maxHolidayShift bounds the business-day walk so corrupt holiday data (for
// example a lookup that flags every day) cannot loop forever.
const maxHolidayShift = 14

// Expander produces occurrence dates for templates.
type Expander struct {
	holidays holiday.Lookup
	logger   *zap.Logger
}

// NewExpander builds an expander around the given holiday lookup.
func NewExpander(holidays holiday.Lookup, logger *zap.Logger) *Expander {
	if holidays == nil {
		holidays = holiday.None
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Expander{holidays: holidays, logger: logger}
}

// Expand returns the ascending, deduplicated occurrence dates of tpl within
// [rangeStart, rangeEnd], clamped to the template's own start/end window.
// Inactive templates expand to nothing. Candidates whose holiday shift lands
// outside the requested range are dropped, not clamped.
func (e *Expander) Expand(tpl *domain.RecurringTemplate, rangeStart, rangeEnd time.Time) []time.Time {
	if tpl == nil || !tpl.IsActive {
		return nil
	}

	rangeStart = domain.DayOf(rangeStart)
	rangeEnd = domain.DayOf(rangeEnd)

	from := rangeStart
	if tplStart := domain.DayOf(tpl.StartDate); tplStart.After(from) {
		from = tplStart
	}
	to := rangeEnd
	if tpl.EndDate != nil {
		if tplEnd := domain.DayOf(*tpl.EndDate); tplEnd.Before(to) {
			to = tplEnd
		}
	}
	if to.Before(from) {
		return nil
	}

	candidates := e.rawCandidates(tpl, from, to)

	seen := make(map[string]struct{}, len(candidates))
	var out []time.Time
	for _, c := range candidates {
		date := e.applyHolidayShift(tpl, c)
		if date.Before(rangeStart) || date.After(rangeEnd) {
			continue
		}
		if matchesException(tpl.Exceptions, date) {
			continue
		}
		key := date.Format(domain.DateLayout)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, date)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func (e *Expander) rawCandidates(tpl *domain.RecurringTemplate, from, to time.Time) []time.Time {
	switch tpl.Recurrence {
	case domain.RecurDaily:
		var dates []time.Time
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			dates = append(dates, d)
		}
		return dates
	case domain.RecurWeekly:
		return weeklyCandidates(tpl.Weekly, from, to)
	case domain.RecurMonthly:
		return monthlyCandidates(tpl.Monthly, from, to)
	case domain.RecurYearly:
		return yearlyCandidates(tpl.StartDate, from, to)
	}
	e.logger.Warn("unknown recurrence cadence",
		zap.String("template_id", tpl.ID),
		zap.String("recurrence", string(tpl.Recurrence)))
	return nil
}

func weeklyCandidates(rule *domain.WeeklyRule, from, to time.Time) []time.Time {
	if rule == nil {
		return nil
	}
	// Jump to the first matching weekday, then step by whole weeks.
	d := from
	for d.Weekday() != rule.Weekday {
		d = d.AddDate(0, 0, 1)
	}
	var dates []time.Time
	for ; !d.After(to); d = d.AddDate(0, 0, 7) {
		if matchesWeekOfMonth(rule.Week, d) {
			dates = append(dates, d)
		}
	}
	return dates
}

func matchesWeekOfMonth(week domain.WeekOfMonth, d time.Time) bool {
	ordinal := domain.WeekdayOrdinal(d)
	last := domain.IsLastWeekdayOfMonth(d)
	switch week {
	case domain.WeekAny:
		return true
	case domain.WeekFirst:
		return ordinal == 1
	case domain.WeekSecond:
		return ordinal == 2
	case domain.WeekThird:
		return ordinal == 3
	case domain.WeekFourth:
		return ordinal == 4
	case domain.WeekLast:
		return last
	case domain.WeekExceptFirst:
		return ordinal != 1
	case domain.WeekExceptLast:
		return !last
	}
	return true
}

func monthlyCandidates(rule *domain.MonthlyRule, from, to time.Time) []time.Time {
	if rule == nil {
		return nil
	}
	var dates []time.Time
	for month := domain.MonthStart(from); !month.After(to); month = month.AddDate(0, 1, 0) {
		var d time.Time
		var ok bool
		switch rule.Type {
		case domain.MonthlyByDate:
			d, ok = resolveMonthDay(rule.Day, month)
		case domain.MonthlyByWeekday:
			d, ok = nthWeekdayOfMonth(rule.Weekday, rule.Ordinal, month)
		default:
			continue
		}
		// A month with no matching day (Feb 30th, a fifth Tuesday that does
		// not exist) simply contributes nothing.
		if !ok || d.Before(from) || d.After(to) {
			continue
		}
		dates = append(dates, d)
	}
	return dates
}

func resolveMonthDay(day domain.MonthDay, month time.Time) (time.Time, bool) {
	days := domain.DaysInMonth(month)
	switch day {
	case domain.MonthDayLast:
		return month.AddDate(0, 0, days-1), true
	case domain.MonthDayFirstBusiness:
		for d := month; d.Month() == month.Month(); d = d.AddDate(0, 0, 1) {
			if domain.IsBusinessDay(d) {
				return d, true
			}
		}
		return time.Time{}, false
	case domain.MonthDayLastBusiness:
		for d := month.AddDate(0, 0, days-1); d.Month() == month.Month(); d = d.AddDate(0, 0, -1) {
			if domain.IsBusinessDay(d) {
				return d, true
			}
		}
		return time.Time{}, false
	}
	if day < 1 || int(day) > days {
		return time.Time{}, false
	}
	return month.AddDate(0, 0, int(day)-1), true
}

func nthWeekdayOfMonth(weekday time.Weekday, ordinal int, month time.Time) (time.Time, bool) {
	days := domain.DaysInMonth(month)
	if ordinal == domain.OrdinalLast {
		for d := month.AddDate(0, 0, days-1); d.Month() == month.Month(); d = d.AddDate(0, 0, -1) {
			if d.Weekday() == weekday {
				return d, true
			}
		}
		return time.Time{}, false
	}
	if ordinal < 1 {
		return time.Time{}, false
	}
	count := 0
	for d := month; d.Month() == month.Month(); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == weekday {
			count++
			if count == ordinal {
				return d, true
			}
		}
	}
	return time.Time{}, false
}

func yearlyCandidates(anchor time.Time, from, to time.Time) []time.Time {
	anchor = domain.DayOf(anchor)
	var dates []time.Time
	for year := from.Year(); year <= to.Year(); year++ {
		d := time.Date(year, anchor.Month(), anchor.Day(), 0, 0, 0, 0, anchor.Location())
		// Feb 29 anchors normalize to Mar 1 in non-leap years; treat that
		// as an unsatisfiable month rather than silently moving the date.
		if d.Month() != anchor.Month() || d.Day() != anchor.Day() {
			continue
		}
		if d.Before(from) || d.After(to) {
			continue
		}
		dates = append(dates, d)
	}
	return dates
}

// applyHolidayShift walks the candidate off holidays one day at a time in
// the configured direction. The walk is bounded; on exhaustion the unshifted
// date is kept and a warning logged.
func (e *Expander) applyHolidayShift(tpl *domain.RecurringTemplate, date time.Time) time.Time {
	step := 0
	switch tpl.HolidayHandling {
	case domain.HolidayBefore:
		step = -1
	case domain.HolidayAfter:
		step = 1
	default:
		return date
	}
	if e.holidays.Lookup(date) == nil {
		return date
	}
	shifted := date
	for i := 0; i < maxHolidayShift; i++ {
		shifted = shifted.AddDate(0, 0, step)
		if e.holidays.Lookup(shifted) == nil {
			return shifted
		}
	}
	e.logger.Warn("holiday shift exhausted, keeping unshifted date",
		zap.String("template_id", tpl.ID),
		zap.String("date", date.Format(domain.DateLayout)))
	return date
}

func matchesException(rules []domain.ExceptionRule, date time.Time) bool {
	for _, rule := range rules {
		switch rule.Type {
		case domain.ExceptionDate:
			for _, d := range rule.Dates {
				if domain.SameDay(d, date) {
					return true
				}
			}
		case domain.ExceptionWeekday:
			for _, v := range rule.Values {
				if int(date.Weekday()) == v {
					return true
				}
			}
		case domain.ExceptionWeek:
			for _, v := range rule.Values {
				if v == domain.OrdinalLast {
					if domain.IsLastWeekdayOfMonth(date) {
						return true
					}
					continue
				}
				if domain.WeekdayOrdinal(date) == v {
					return true
				}
			}
		case domain.ExceptionMonth:
			for _, v := range rule.Values {
				if int(date.Month()) == v {
					return true
				}
			}
		}
	}
	return false
}
