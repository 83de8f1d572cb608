// Package occurrence decides, for a single task and calendar date, whether
// the task belongs on that date's view. The resolver is pure: all state
// comes in through arguments and every comparison happens at day
// granularity.
package occurrence

import (
	"time"

	"go.uber.org/zap"

	"github.com/taskline/backend/domain"
)

// Policy carries the view-level knobs that are intentionally not resolver
// invariants. IncludeOverdue extends due-date-only visibility past the due
// date ("still overdue") for callers that want it; the strict default shows
// such tasks on their due date only.
type Policy struct {
	IncludeOverdue bool
}

// Resolver evaluates per-date visibility.
type Resolver struct {
	policy Policy
	logger *zap.Logger
}

// NewResolver builds a resolver with the given policy.
func NewResolver(policy Policy, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{policy: policy, logger: logger}
}

// VisibleOn reports whether the task is visible on target, given the current
// day. The decision order is fixed:
//
//  1. Completed tasks appear on their completion day and nowhere else,
//     regardless of start/due dates.
//  2. Start and due both set: inclusive span membership.
//  3. Start only: visible on the start day, then rolled forward onto every
//     day up to today. Never onto a day after today, even when the probe
//     window extends into the future.
//  4. Due only: the due day itself; with IncludeOverdue, also every day the
//     task remains overdue.
//  5. Undated: always visible.
func (r *Resolver) VisibleOn(task *domain.Task, target, today time.Time) bool {
	if task == nil {
		return false
	}
	target = domain.DayOf(target)
	today = domain.DayOf(today)

	if task.Completed {
		day, inconsistent := task.CompletionDay()
		if inconsistent {
			r.logger.Warn("completed task missing completed_at, using updated_at",
				zap.String("task_id", task.ID))
		}
		return day.Equal(target)
	}

	start := dayPtr(task.StartDate)
	due := dayPtr(task.DueDate)

	switch {
	case start != nil && due != nil:
		return !target.Before(*start) && !target.After(*due)
	case start != nil:
		if target.Equal(*start) {
			return true
		}
		// Rollover: unfinished work follows the calendar forward, but the
		// future is never pre-populated.
		return target.After(*start) && !target.After(today)
	case due != nil:
		if target.Equal(*due) {
			return true
		}
		if r.policy.IncludeOverdue {
			// Overdue carry mirrors rollover: the missed deadline follows
			// the calendar forward until it is dealt with.
			return target.After(*due) && !target.After(today)
		}
		return false
	default:
		return true
	}
}

func dayPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := domain.DayOf(*t)
	return &d
}
