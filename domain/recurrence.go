package domain

import (
	"time"

	"github.com/google/uuid"
)

// Recurrence is the base cadence of a template.
type Recurrence string

const (
	RecurDaily   Recurrence = "daily"
	RecurWeekly  Recurrence = "weekly"
	RecurMonthly Recurrence = "monthly"
	RecurYearly  Recurrence = "yearly"
)

// WeekOfMonth optionally restricts a weekly rule to particular weeks.
type WeekOfMonth string

const (
	WeekAny         WeekOfMonth = ""
	WeekFirst       WeekOfMonth = "first"
	WeekSecond      WeekOfMonth = "second"
	WeekThird       WeekOfMonth = "third"
	WeekFourth      WeekOfMonth = "fourth"
	WeekLast        WeekOfMonth = "last"
	WeekExceptFirst WeekOfMonth = "except_first"
	WeekExceptLast  WeekOfMonth = "except_last"
)

// WeeklyRule fires on a fixed weekday, optionally limited by week-of-month.
type WeeklyRule struct {
	Weekday time.Weekday `json:"weekday"`
	Week    WeekOfMonth  `json:"week,omitempty"`
}

// MonthDay is a day-of-month selector. Positive values are literal days;
// the named sentinels replace the raw -1/-2/-3 encodings so month-end and
// business-day rules cannot be misread as real dates.
type MonthDay int

const (
	MonthDayLast          MonthDay = -1
	MonthDayFirstBusiness MonthDay = -2
	MonthDayLastBusiness  MonthDay = -3
)

// MonthlyRuleType selects how a monthly rule picks its day.
type MonthlyRuleType string

const (
	MonthlyByDate    MonthlyRuleType = "by_date"
	MonthlyByWeekday MonthlyRuleType = "by_weekday"
)

// OrdinalLast selects the final occurrence of a weekday within a month.
const OrdinalLast = -1

// MonthlyRule fires either on a fixed day-of-month or on the Nth weekday.
type MonthlyRule struct {
	Type    MonthlyRuleType `json:"type"`
	Day     MonthDay        `json:"day,omitempty"`
	Weekday time.Weekday    `json:"weekday,omitempty"`
	Ordinal int             `json:"ordinal,omitempty"`
}

// HolidayHandling decides what happens when an occurrence lands on a holiday.
type HolidayHandling string

const (
	HolidayBefore HolidayHandling = "before"
	HolidayAfter  HolidayHandling = "after"
	HolidayShow   HolidayHandling = "show"
)

// ExceptionType classifies a suppression rule.
type ExceptionType string

const (
	ExceptionDate    ExceptionType = "date"
	ExceptionWeekday ExceptionType = "weekday"
	ExceptionWeek    ExceptionType = "week"
	ExceptionMonth   ExceptionType = "month"
)

// ExceptionRule suppresses occurrences whose (shifted) date matches.
// Dates is used by ExceptionDate rules; Values carries weekday indexes
// (0=Sunday), ordinal weeks (1..4, OrdinalLast) or calendar months (1..12).
type ExceptionRule struct {
	Type   ExceptionType `json:"type"`
	Dates  []time.Time   `json:"dates,omitempty"`
	Values []int         `json:"values,omitempty"`
}

// RecurringTemplate is the master definition of a repeating task.
type RecurringTemplate struct {
	ID          string   `json:"id"`
	UserID      string   `json:"user_id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Priority    Priority `json:"priority"`
	Type        TaskType `json:"type"`
	Tags        []string `json:"tags,omitempty"`
	Project     string   `json:"project,omitempty"`
	DueTime     string   `json:"due_time,omitempty"`

	Recurrence      Recurrence      `json:"recurrence"`
	Weekly          *WeeklyRule     `json:"weekly,omitempty"`
	Monthly         *MonthlyRule    `json:"monthly,omitempty"`
	HolidayHandling HolidayHandling `json:"holiday_handling"`
	StartDate       time.Time       `json:"start_date"`
	EndDate         *time.Time      `json:"end_date,omitempty"`
	Exceptions      []ExceptionRule `json:"exceptions,omitempty"`
	IsActive        bool            `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InstanceOverrides lets one occurrence diverge from its template without
// mutating the template itself. Nil pointers mean "inherit".
type InstanceOverrides struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	DueTime     *string   `json:"due_time,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
}

// RecurringInstance is one materialized occurrence of a template. At most
// one instance exists per (TemplateID, InstanceDate); InstanceID makes that
// naturally idempotent under concurrent reconciliation.
type RecurringInstance struct {
	ID           string             `json:"id"`
	TemplateID   string             `json:"template_id"`
	UserID       string             `json:"user_id"`
	InstanceDate time.Time          `json:"instance_date"`
	Completed    bool               `json:"completed"`
	CompletedAt  *time.Time         `json:"completed_at,omitempty"`
	Skipped      bool               `json:"skipped"`
	SkipReason   string             `json:"skip_reason,omitempty"`
	Overrides    *InstanceOverrides `json:"overrides,omitempty"`
	Retired      bool               `json:"retired"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

var instanceNamespace = uuid.MustParse("6f1cc2a4-9d7b-4b5e-8a0e-3d2f14c9b8e1")

// InstanceID derives the deterministic identity of an occurrence from its
// template and date, so two concurrent reconciliation runs that race on the
// same occurrence produce the same row instead of duplicates.
func InstanceID(templateID string, date time.Time) string {
	return uuid.NewSHA1(instanceNamespace, []byte(templateID+":"+DayOf(date).Format(DateLayout))).String()
}

// TaskIDPrefix marks projected recurring occurrences in the unified pool.
const TaskIDPrefix = "rec:"

// ProjectTask renders the instance as a Task for the query surface, laying
// the instance's overrides over the template fields. The projection is
// derived state and is never persisted.
func (i *RecurringInstance) ProjectTask(tpl *RecurringTemplate) Task {
	day := DayOf(i.InstanceDate)
	task := Task{
		ID:          TaskIDPrefix + i.TemplateID + ":" + day.Format(DateLayout),
		UserID:      i.UserID,
		Title:       tpl.Title,
		Description: tpl.Description,
		StartDate:   &day,
		DueDate:     &day,
		DueTime:     tpl.DueTime,
		Completed:   i.Completed,
		CompletedAt: i.CompletedAt,
		Priority:    tpl.Priority,
		Type:        tpl.Type,
		Tags:        tpl.Tags,
		Project:     tpl.Project,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
	if o := i.Overrides; o != nil {
		if o.Title != nil {
			task.Title = *o.Title
		}
		if o.Description != nil {
			task.Description = *o.Description
		}
		if o.Priority != nil {
			task.Priority = *o.Priority
		}
		if o.DueTime != nil {
			task.DueTime = *o.DueTime
		}
		if o.Tags != nil {
			task.Tags = o.Tags
		}
	}
	return task
}
