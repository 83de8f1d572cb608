package template

import (
	"testing"
	"time"

	"github.com/taskline/backend/domain"
)

func baseTemplate() *domain.RecurringTemplate {
	return &domain.RecurringTemplate{
		UserID:     "u1",
		Title:      "standup",
		Recurrence: domain.RecurDaily,
		StartDate:  time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		IsActive:   true,
	}
}

func TestValidateDefaults(t *testing.T) {
	tpl := baseTemplate()
	if err := validate(tpl); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if tpl.HolidayHandling != domain.HolidayShow {
		t.Error("holiday handling must default to show")
	}
	if tpl.Priority != domain.PriorityMedium || tpl.Type != domain.TypeSimple {
		t.Error("priority and type must receive defaults")
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*domain.RecurringTemplate)
	}{
		{"missing title", func(tpl *domain.RecurringTemplate) { tpl.Title = "" }},
		{"missing user", func(tpl *domain.RecurringTemplate) { tpl.UserID = "" }},
		{"missing start date", func(tpl *domain.RecurringTemplate) { tpl.StartDate = time.Time{} }},
		{"weekly without rule", func(tpl *domain.RecurringTemplate) { tpl.Recurrence = domain.RecurWeekly }},
		{"monthly without rule", func(tpl *domain.RecurringTemplate) { tpl.Recurrence = domain.RecurMonthly }},
		{"unknown cadence", func(tpl *domain.RecurringTemplate) { tpl.Recurrence = "fortnightly" }},
		{"unknown holiday handling", func(tpl *domain.RecurringTemplate) { tpl.HolidayHandling = "skip" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tpl := baseTemplate()
			tc.mut(tpl)
			err := validate(tpl)
			if !domain.IsDomainError(err, domain.ErrCodeInvalid) {
				t.Fatalf("validate = %v, want invalid-payload error", err)
			}
		})
	}
}

func TestValidateAcceptsRuledCadences(t *testing.T) {
	weekly := baseTemplate()
	weekly.Recurrence = domain.RecurWeekly
	weekly.Weekly = &domain.WeeklyRule{Weekday: time.Monday}
	if err := validate(weekly); err != nil {
		t.Fatalf("weekly with rule: %v", err)
	}

	monthly := baseTemplate()
	monthly.Recurrence = domain.RecurMonthly
	monthly.Monthly = &domain.MonthlyRule{Type: domain.MonthlyByDate, Day: domain.MonthDayLast}
	if err := validate(monthly); err != nil {
		t.Fatalf("monthly with rule: %v", err)
	}
}
