// Package query composes one-off tasks and materialized recurring instances
// into the filtered, sorted lists the calendar views consume. Filtering and
// sorting are pure functions of (pool, filters, date); the Service only adds
// repository access for pool assembly.
package query

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/taskline/backend/domain"
	"github.com/taskline/backend/engine/materialize"
	"github.com/taskline/backend/engine/occurrence"
	"github.com/taskline/backend/engine/recurrence"
	"github.com/taskline/backend/holiday"
	"github.com/taskline/backend/repository"
)

// Sharing scopes for the visibility filter.
const (
	SharingAll          = "all"
	SharingPersonal     = "personal"
	SharingSharedByMe   = "shared_by_me"
	SharingSharedWithMe = "shared_with_me"
	SharingGroup        = "group"
)

// Completion-date buckets, applied only to completed items.
const (
	BucketToday     = "today"
	BucketYesterday = "yesterday"
	BucketThisWeek  = "this_week"
	BucketLastWeek  = "last_week"
	BucketThisMonth = "this_month"
)

// Filters narrows the task pool. Every dimension is optional, and an
// unrecognized value degrades to "no filter" for that dimension: these
// filters back interactive UI controls that must never hard-fail.
type Filters struct {
	Search   string
	Priority string
	Type     string
	Project  string
	Tags     []string
	Sharing  string
	GroupID  string
	Bucket   string
}

// Service is the query surface behind all calendar views.
type Service struct {
	tasks     repository.TaskRepository
	templates repository.TemplateRepository
	instances repository.InstanceRepository
	resolver  *occurrence.Resolver
	logger    *zap.Logger
	now       func() time.Time
}

// New builds the query service. The resolver decides per-date visibility;
// passing nil installs one with the strict due-date-only policy.
func New(
	tasks repository.TaskRepository,
	templates repository.TemplateRepository,
	instances repository.InstanceRepository,
	resolver *occurrence.Resolver,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if resolver == nil {
		resolver = occurrence.NewResolver(occurrence.Policy{}, logger)
	}
	return &Service{
		tasks:     tasks,
		templates: templates,
		instances: instances,
		resolver:  resolver,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the service clock, used by tests and anything that
// replays a fixed "today".
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Pool loads the user's one-off tasks and projects their recurring instances
// within [from, to] into the same Task shape, deduplicated by id with the
// first occurrence winning.
func (s *Service) Pool(ctx context.Context, userID string, from, to time.Time) ([]domain.Task, error) {
	tasks, err := s.tasks.List(ctx, repository.TaskFilter{UserID: userID})
	if err != nil {
		return nil, err
	}

	templates, err := s.templates.List(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.RecurringTemplate, len(templates))
	for i := range templates {
		byID[templates[i].ID] = &templates[i]
	}

	instances, err := s.instances.ListByUser(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	for _, inst := range instances {
		if inst.Retired || inst.Skipped {
			continue
		}
		tpl, ok := byID[inst.TemplateID]
		if !ok {
			s.logger.Warn("instance references unknown template",
				zap.String("instance_id", inst.ID),
				zap.String("template_id", inst.TemplateID))
			continue
		}
		tasks = append(tasks, inst.ProjectTask(tpl))
	}

	return Dedupe(tasks), nil
}

// QueryTasks filters and sorts the pool.
func (s *Service) QueryTasks(pool []domain.Task, f Filters) []domain.Task {
	out := s.applyFilters(Dedupe(pool), f)
	SortTasks(out)
	return out
}

// ResolveVisible returns the pool members visible on a single date, sorted.
func (s *Service) ResolveVisible(pool []domain.Task, date time.Time) []domain.Task {
	today := domain.DayOf(s.now())
	var out []domain.Task
	for i := range pool {
		if s.resolver.VisibleOn(&pool[i], date, today) {
			out = append(out, pool[i])
		}
	}
	SortTasks(out)
	return out
}

// Today returns tasks visible on the given day.
func (s *Service) Today(pool []domain.Task, date time.Time) []domain.Task {
	return s.ResolveVisible(pool, date)
}

// Tomorrow returns tasks visible on the day after date.
func (s *Service) Tomorrow(pool []domain.Task, date time.Time) []domain.Task {
	return s.ResolveVisible(pool, domain.DayOf(date).AddDate(0, 0, 1))
}

// YesterdayIncomplete returns the unfinished tasks that were visible on the
// day before date.
func (s *Service) YesterdayIncomplete(pool []domain.Task, date time.Time) []domain.Task {
	visible := s.ResolveVisible(pool, domain.DayOf(date).AddDate(0, 0, -1))
	out := visible[:0]
	for _, t := range visible {
		if !t.Completed {
			out = append(out, t)
		}
	}
	return out
}

// Week returns the union of tasks visible on any day of the week (starting
// Sunday) containing date.
func (s *Service) Week(pool []domain.Task, date time.Time) []domain.Task {
	start := domain.WeekStart(date)
	return s.visibleInSpan(pool, start, start.AddDate(0, 0, 6))
}

// Month returns the union of tasks visible on any day of the month
// containing date.
func (s *Service) Month(pool []domain.Task, date time.Time) []domain.Task {
	start := domain.MonthStart(date)
	return s.visibleInSpan(pool, start, start.AddDate(0, 1, -1))
}

// ExpandRecurrence projects a template's occurrence dates over [from, to]
// through the supplied holiday lookup.
func (s *Service) ExpandRecurrence(tpl *domain.RecurringTemplate, holidays holiday.Lookup, from, to time.Time) []time.Time {
	return recurrence.NewExpander(holidays, s.logger).Expand(tpl, from, to)
}

// ReconcileInstances computes the materialization plan for a template's
// expanded dates against the instances already stored, relative to the
// service clock's today.
func (s *Service) ReconcileInstances(tpl *domain.RecurringTemplate, dates []time.Time, existing []domain.RecurringInstance) materialize.Plan {
	return materialize.Reconcile(tpl, dates, existing, domain.DayOf(s.now()))
}

func (s *Service) visibleInSpan(pool []domain.Task, from, to time.Time) []domain.Task {
	today := domain.DayOf(s.now())
	seen := make(map[string]struct{}, len(pool))
	var out []domain.Task
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		for i := range pool {
			if _, dup := seen[pool[i].ID]; dup {
				continue
			}
			if s.resolver.VisibleOn(&pool[i], d, today) {
				seen[pool[i].ID] = struct{}{}
				out = append(out, pool[i])
			}
		}
	}
	SortTasks(out)
	return out
}

func (s *Service) applyFilters(pool []domain.Task, f Filters) []domain.Task {
	priority, priorityOK := domain.ParsePriority(f.Priority)
	if f.Priority != "" && !priorityOK {
		s.logger.Debug("ignoring unknown priority filter", zap.String("value", f.Priority))
	}
	taskType, typeOK := domain.ParseTaskType(f.Type)
	if f.Type != "" && !typeOK {
		s.logger.Debug("ignoring unknown type filter", zap.String("value", f.Type))
	}
	bucketFrom, bucketTo, bucketOK := s.bucketBounds(f.Bucket)

	search := strings.ToLower(strings.TrimSpace(f.Search))

	var out []domain.Task
	for _, t := range pool {
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		if priorityOK && t.Priority != priority {
			continue
		}
		if typeOK && t.Type != taskType {
			continue
		}
		if f.Project != "" && t.Project != f.Project {
			continue
		}
		if len(f.Tags) > 0 && !anyTagMatches(t.Tags, f.Tags) {
			continue
		}
		if !matchesSharing(&t, f.Sharing, f.GroupID) {
			continue
		}
		if bucketOK && t.Completed {
			day, _ := t.CompletionDay()
			if day.Before(bucketFrom) || day.After(bucketTo) {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

func (s *Service) bucketBounds(bucket string) (from, to time.Time, ok bool) {
	today := domain.DayOf(s.now())
	switch bucket {
	case BucketToday:
		return today, today, true
	case BucketYesterday:
		y := today.AddDate(0, 0, -1)
		return y, y, true
	case BucketThisWeek:
		start := domain.WeekStart(today)
		return start, start.AddDate(0, 0, 6), true
	case BucketLastWeek:
		start := domain.WeekStart(today).AddDate(0, 0, -7)
		return start, start.AddDate(0, 0, 6), true
	case BucketThisMonth:
		start := domain.MonthStart(today)
		return start, start.AddDate(0, 1, -1), true
	case "":
		return time.Time{}, time.Time{}, false
	}
	s.logger.Debug("ignoring unknown completion bucket", zap.String("value", bucket))
	return time.Time{}, time.Time{}, false
}

// anyTagMatches implements OR semantics: one shared tag is enough.
func anyTagMatches(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

func matchesSharing(t *domain.Task, sharing, groupID string) bool {
	switch sharing {
	case "", SharingAll:
		return true
	case SharingPersonal:
		return !t.SharedByMe && !t.SharedWithMe
	case SharingSharedByMe:
		return t.SharedByMe
	case SharingSharedWithMe:
		return t.SharedWithMe
	case SharingGroup:
		return groupID != "" && t.GroupID == groupID
	}
	// Unknown scope: no filter.
	return true
}

// Dedupe removes duplicate ids, first occurrence winning. It is defensive
// against upstream duplication (a task arriving both standalone and as a
// projection).
func Dedupe(pool []domain.Task) []domain.Task {
	seen := make(map[string]struct{}, len(pool))
	out := make([]domain.Task, 0, len(pool))
	for _, t := range pool {
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}

// SortTasks orders tasks by priority rank, then explicit order (items that
// define one come first), then due date (dated items first), then newest
// creation time.
func SortTasks(tasks []domain.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := &tasks[i], &tasks[j]

		if ra, rb := a.Priority.Rank(), b.Priority.Rank(); ra != rb {
			return ra < rb
		}

		switch {
		case a.Order != nil && b.Order != nil:
			if *a.Order != *b.Order {
				return *a.Order < *b.Order
			}
		case a.Order != nil:
			return true
		case b.Order != nil:
			return false
		}

		switch {
		case a.DueDate != nil && b.DueDate != nil:
			if !a.DueDate.Equal(*b.DueDate) {
				return a.DueDate.Before(*b.DueDate)
			}
		case a.DueDate != nil:
			return true
		case b.DueDate != nil:
			return false
		}

		return a.CreatedAt.After(b.CreatedAt)
	})
}
