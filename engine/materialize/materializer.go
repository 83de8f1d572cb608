// Package materialize reconciles expanded occurrence dates against the
// instances already in storage. Reconcile itself is a pure function; the
// returned plan is the only thing in the engine that instructs writes.
package materialize

import (
	"time"

	"github.com/taskline/backend/domain"
)

// Plan describes the storage work a reconciliation run requires.
//
// ToCreate holds fresh default-state instances plus previously retired ones
// whose date reappeared in the pattern (revived with their state intact).
// ToRetain is untouched. ToRetire holds future instances whose date fell out
// of the pattern; past instances are never retired so history survives
// pattern edits.
type Plan struct {
	ToCreate []domain.RecurringInstance
	ToRetain []domain.RecurringInstance
	ToRetire []domain.RecurringInstance
}

// Empty reports whether the plan requires no writes.
func (p Plan) Empty() bool {
	return len(p.ToCreate) == 0 && len(p.ToRetire) == 0
}

// Reconcile computes the instance plan for one template. Running the output
// back through Reconcile produces an empty plan: creation is keyed on
// (template, date), so repeated runs never duplicate an occurrence or
// clobber per-instance completion state and overrides.
func Reconcile(tpl *domain.RecurringTemplate, dates []time.Time, existing []domain.RecurringInstance, today time.Time) Plan {
	var plan Plan
	if tpl == nil {
		return plan
	}
	today = domain.DayOf(today)

	wanted := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		wanted[domain.DayOf(d).Format(domain.DateLayout)] = struct{}{}
	}

	matched := make(map[string]struct{}, len(existing))
	for _, inst := range existing {
		key := domain.DayOf(inst.InstanceDate).Format(domain.DateLayout)
		if _, ok := wanted[key]; ok {
			matched[key] = struct{}{}
			if inst.Retired {
				// The pattern changed back: revive the occurrence without
				// touching its completion state or overrides.
				inst.Retired = false
				plan.ToCreate = append(plan.ToCreate, inst)
			} else {
				plan.ToRetain = append(plan.ToRetain, inst)
			}
			continue
		}
		if inst.Retired {
			continue
		}
		if domain.DayOf(inst.InstanceDate).After(today) {
			plan.ToRetire = append(plan.ToRetire, inst)
		} else {
			// A past occurrence that no longer matches the pattern stays:
			// retroactively deleting user history is never acceptable.
			plan.ToRetain = append(plan.ToRetain, inst)
		}
	}

	for _, d := range dates {
		day := domain.DayOf(d)
		if _, ok := matched[day.Format(domain.DateLayout)]; ok {
			continue
		}
		plan.ToCreate = append(plan.ToCreate, domain.RecurringInstance{
			ID:           domain.InstanceID(tpl.ID, day),
			TemplateID:   tpl.ID,
			UserID:       tpl.UserID,
			InstanceDate: day,
		})
	}

	return plan
}
