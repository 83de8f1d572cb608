package query

import (
	"context"
	"testing"
	"time"

	"github.com/taskline/backend/domain"
	"github.com/taskline/backend/engine/occurrence"
	"github.com/taskline/backend/repository"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dayPtr(t time.Time) *time.Time { return &t }

func intPtr(v int) *int { return &v }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type fakeTaskRepo struct {
	tasks []domain.Task
}

func (f *fakeTaskRepo) GetByID(context.Context, string) (*domain.Task, error) { return nil, nil }
func (f *fakeTaskRepo) List(context.Context, repository.TaskFilter) ([]domain.Task, error) {
	return f.tasks, nil
}
func (f *fakeTaskRepo) Create(_ context.Context, t *domain.Task) (*domain.Task, error) {
	return t, nil
}
func (f *fakeTaskRepo) Update(context.Context, *domain.Task) error { return nil }
func (f *fakeTaskRepo) Delete(context.Context, string) error       { return nil }

type fakeTemplateRepo struct {
	templates []domain.RecurringTemplate
}

func (f *fakeTemplateRepo) GetByID(context.Context, string) (*domain.RecurringTemplate, error) {
	return nil, nil
}
func (f *fakeTemplateRepo) List(context.Context, string, bool) ([]domain.RecurringTemplate, error) {
	return f.templates, nil
}
func (f *fakeTemplateRepo) ListActive(context.Context) ([]domain.RecurringTemplate, error) {
	return f.templates, nil
}
func (f *fakeTemplateRepo) Create(_ context.Context, tpl *domain.RecurringTemplate) (*domain.RecurringTemplate, error) {
	return tpl, nil
}
func (f *fakeTemplateRepo) Update(context.Context, *domain.RecurringTemplate) error { return nil }
func (f *fakeTemplateRepo) Delete(context.Context, string) error                    { return nil }

type fakeInstanceRepo struct {
	instances []domain.RecurringInstance
}

func (f *fakeInstanceRepo) GetByID(context.Context, string) (*domain.RecurringInstance, error) {
	return nil, nil
}
func (f *fakeInstanceRepo) ListByTemplate(context.Context, string, time.Time, time.Time) ([]domain.RecurringInstance, error) {
	return f.instances, nil
}
func (f *fakeInstanceRepo) ListByUser(context.Context, string, time.Time, time.Time) ([]domain.RecurringInstance, error) {
	return f.instances, nil
}
func (f *fakeInstanceRepo) Upsert(context.Context, *domain.RecurringInstance) error { return nil }
func (f *fakeInstanceRepo) Update(context.Context, *domain.RecurringInstance) error { return nil }
func (f *fakeInstanceRepo) Retire(context.Context, string) error                    { return nil }

func newService(tasks []domain.Task, templates []domain.RecurringTemplate, instances []domain.RecurringInstance, today time.Time) *Service {
	return New(
		&fakeTaskRepo{tasks: tasks},
		&fakeTemplateRepo{templates: templates},
		&fakeInstanceRepo{instances: instances},
		occurrence.NewResolver(occurrence.Policy{}, nil),
		nil,
	).WithClock(fixedClock(today))
}

func ids(tasks []domain.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func assertIDs(t *testing.T, got []domain.Task, want ...string) {
	t.Helper()
	gotIDs := ids(got)
	if len(gotIDs) != len(want) {
		t.Fatalf("got %v, want %v", gotIDs, want)
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("got %v, want %v", gotIDs, want)
		}
	}
}

func TestPoolProjectsInstances(t *testing.T) {
	today := day(2026, 6, 10)
	tpl := domain.RecurringTemplate{
		ID:       "tpl-1",
		UserID:   "u1",
		Title:    "standup",
		Priority: domain.PriorityHigh,
		Type:     domain.TypeSimple,
		IsActive: true,
	}
	instances := []domain.RecurringInstance{
		{ID: "i1", TemplateID: "tpl-1", UserID: "u1", InstanceDate: day(2026, 6, 10)},
		{ID: "i2", TemplateID: "tpl-1", UserID: "u1", InstanceDate: day(2026, 6, 11), Skipped: true},
		{ID: "i3", TemplateID: "tpl-1", UserID: "u1", InstanceDate: day(2026, 6, 12), Retired: true},
		{ID: "i4", TemplateID: "ghost", UserID: "u1", InstanceDate: day(2026, 6, 13)},
	}
	tasks := []domain.Task{{ID: "t1", UserID: "u1", Title: "one-off"}}

	svc := newService(tasks, []domain.RecurringTemplate{tpl}, instances, today)
	pool, err := svc.Pool(context.Background(), "u1", day(2026, 6, 1), day(2026, 6, 30))
	if err != nil {
		t.Fatalf("Pool: %v", err)
	}

	// One-off plus the single live instance; skipped, retired and orphaned
	// instances are excluded.
	if len(pool) != 2 {
		t.Fatalf("pool = %v, want 2 entries", ids(pool))
	}
	projected := pool[1]
	if projected.ID != domain.TaskIDPrefix+"tpl-1:2026-06-10" {
		t.Errorf("projected id = %s", projected.ID)
	}
	if projected.Title != "standup" || projected.Priority != domain.PriorityHigh {
		t.Error("projection must inherit template fields")
	}
	if projected.StartDate == nil || !projected.StartDate.Equal(day(2026, 6, 10)) {
		t.Error("projection must pin both dates to the instance date")
	}
}

func TestPoolAppliesOverrides(t *testing.T) {
	today := day(2026, 6, 10)
	tpl := domain.RecurringTemplate{
		ID: "tpl-1", UserID: "u1", Title: "standup", Priority: domain.PriorityLow, IsActive: true,
	}
	title := "standup (moved)"
	prio := domain.PriorityUrgent
	instances := []domain.RecurringInstance{{
		ID: "i1", TemplateID: "tpl-1", UserID: "u1", InstanceDate: day(2026, 6, 10),
		Overrides: &domain.InstanceOverrides{Title: &title, Priority: &prio},
	}}

	svc := newService(nil, []domain.RecurringTemplate{tpl}, instances, today)
	pool, err := svc.Pool(context.Background(), "u1", day(2026, 6, 1), day(2026, 6, 30))
	if err != nil {
		t.Fatalf("Pool: %v", err)
	}
	if len(pool) != 1 || pool[0].Title != title || pool[0].Priority != domain.PriorityUrgent {
		t.Fatalf("overrides not applied: %+v", pool)
	}
}

func TestSortTasks(t *testing.T) {
	tasks := []domain.Task{
		{ID: "low", Priority: domain.PriorityLow},
		{ID: "urgent-late", Priority: domain.PriorityUrgent, CreatedAt: day(2026, 1, 1)},
		{ID: "urgent-new", Priority: domain.PriorityUrgent, CreatedAt: day(2026, 5, 1)},
		{ID: "high-order2", Priority: domain.PriorityHigh, Order: intPtr(2)},
		{ID: "high-order1", Priority: domain.PriorityHigh, Order: intPtr(1)},
		{ID: "high-due", Priority: domain.PriorityHigh, DueDate: dayPtr(day(2026, 6, 1))},
		{ID: "high-plain", Priority: domain.PriorityHigh},
	}

	SortTasks(tasks)
	assertIDs(t, tasks,
		"urgent-new", "urgent-late",
		"high-order1", "high-order2", "high-due", "high-plain",
		"low")
}

func TestSortUnknownPriorityLast(t *testing.T) {
	tasks := []domain.Task{
		{ID: "mystery", Priority: domain.Priority("??")},
		{ID: "low", Priority: domain.PriorityLow},
	}
	SortTasks(tasks)
	assertIDs(t, tasks, "low", "mystery")
}

func TestQueryTasksFilters(t *testing.T) {
	today := day(2026, 6, 10)
	svc := newService(nil, nil, nil, today)
	pool := []domain.Task{
		{ID: "a", Title: "Write Report", Priority: domain.PriorityHigh, Type: domain.TypeSimple,
			Project: "work", Tags: []string{"writing", "q2"}},
		{ID: "b", Title: "buy groceries", Priority: domain.PriorityLow, Type: domain.TypeSimple,
			Tags: []string{"errand"}},
		{ID: "c", Title: "Quarterly report review", Description: "review the report draft",
			Priority: domain.PriorityHigh, Type: domain.TypeProject, Project: "work"},
	}

	t.Run("search is case-insensitive over title and description", func(t *testing.T) {
		got := svc.QueryTasks(pool, Filters{Search: "report"})
		assertIDs(t, got, "a", "c")
	})

	t.Run("priority", func(t *testing.T) {
		got := svc.QueryTasks(pool, Filters{Priority: "high"})
		assertIDs(t, got, "a", "c")
	})

	t.Run("type", func(t *testing.T) {
		got := svc.QueryTasks(pool, Filters{Type: "project"})
		assertIDs(t, got, "c")
	})

	t.Run("project", func(t *testing.T) {
		got := svc.QueryTasks(pool, Filters{Project: "work"})
		assertIDs(t, got, "a", "c")
	})

	t.Run("tags OR", func(t *testing.T) {
		got := svc.QueryTasks(pool, Filters{Tags: []string{"errand", "q2"}})
		assertIDs(t, got, "a", "b")
	})

	t.Run("unknown priority degrades to no filter", func(t *testing.T) {
		got := svc.QueryTasks(pool, Filters{Priority: "critical"})
		assertIDs(t, got, "a", "c", "b")
	})

	t.Run("unknown type degrades to no filter", func(t *testing.T) {
		got := svc.QueryTasks(pool, Filters{Type: "epic"})
		assertIDs(t, got, "a", "c", "b")
	})
}

func TestQueryTasksSharing(t *testing.T) {
	svc := newService(nil, nil, nil, day(2026, 6, 10))
	pool := []domain.Task{
		{ID: "mine"},
		{ID: "out", SharedByMe: true},
		{ID: "in", SharedWithMe: true},
		{ID: "grp", SharedByMe: true, GroupID: "g1"},
	}

	cases := []struct {
		name    string
		filters Filters
		want    []string
	}{
		{"personal", Filters{Sharing: SharingPersonal}, []string{"mine"}},
		{"shared_by_me", Filters{Sharing: SharingSharedByMe}, []string{"out", "grp"}},
		{"shared_with_me", Filters{Sharing: SharingSharedWithMe}, []string{"in"}},
		{"group", Filters{Sharing: SharingGroup, GroupID: "g1"}, []string{"grp"}},
		{"all", Filters{Sharing: SharingAll}, []string{"mine", "out", "in", "grp"}},
		{"unknown scope is no filter", Filters{Sharing: "friends"}, []string{"mine", "out", "in", "grp"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := svc.QueryTasks(pool, tc.filters)
			assertIDs(t, got, tc.want...)
		})
	}
}

func TestQueryTasksCompletionBucket(t *testing.T) {
	today := day(2026, 6, 10) // a Wednesday
	svc := newService(nil, nil, nil, today)
	doneAt := func(d time.Time) *time.Time { t := d.Add(12 * time.Hour); return &t }
	pool := []domain.Task{
		{ID: "done-today", Completed: true, CompletedAt: doneAt(day(2026, 6, 10))},
		{ID: "done-yesterday", Completed: true, CompletedAt: doneAt(day(2026, 6, 9))},
		{ID: "done-last-week", Completed: true, CompletedAt: doneAt(day(2026, 6, 3))},
		{ID: "open"},
	}

	t.Run("today", func(t *testing.T) {
		got := svc.QueryTasks(pool, Filters{Bucket: BucketToday})
		assertIDs(t, got, "done-today", "open")
	})

	t.Run("yesterday", func(t *testing.T) {
		got := svc.QueryTasks(pool, Filters{Bucket: BucketYesterday})
		assertIDs(t, got, "done-yesterday", "open")
	})

	t.Run("this_week spans Sunday to Saturday", func(t *testing.T) {
		got := svc.QueryTasks(pool, Filters{Bucket: BucketThisWeek})
		assertIDs(t, got, "done-today", "done-yesterday", "open")
	})

	t.Run("last_week", func(t *testing.T) {
		got := svc.QueryTasks(pool, Filters{Bucket: BucketLastWeek})
		assertIDs(t, got, "done-last-week", "open")
	})

	t.Run("unknown bucket is no filter", func(t *testing.T) {
		got := svc.QueryTasks(pool, Filters{Bucket: "fortnight"})
		if len(got) != len(pool) {
			t.Fatalf("got %v, want all", ids(got))
		}
	})
}

func TestDedupeFirstWins(t *testing.T) {
	pool := []domain.Task{
		{ID: "a", Title: "first"},
		{ID: "b"},
		{ID: "a", Title: "second"},
	}
	got := Dedupe(pool)
	if len(got) != 2 || got[0].Title != "first" {
		t.Fatalf("dedupe must keep the first occurrence, got %+v", got)
	}
}

func TestResolveVisibleSpan(t *testing.T) {
	today := day(2026, 6, 11)
	svc := newService(nil, nil, nil, today)
	pool := []domain.Task{
		{ID: "span", StartDate: dayPtr(day(2026, 6, 10)), DueDate: dayPtr(day(2026, 6, 12))},
		{ID: "elsewhere", StartDate: dayPtr(day(2026, 6, 20)), DueDate: dayPtr(day(2026, 6, 21))},
	}

	for _, d := range []time.Time{day(2026, 6, 10), day(2026, 6, 11), day(2026, 6, 12)} {
		got := svc.ResolveVisible(pool, d)
		assertIDs(t, got, "span")
	}
	if got := svc.ResolveVisible(pool, day(2026, 6, 13)); len(got) != 0 {
		t.Fatalf("span leaked past its due date: %v", ids(got))
	}
}

func TestYesterdayIncomplete(t *testing.T) {
	today := day(2026, 6, 11)
	svc := newService(nil, nil, nil, today)
	doneYesterday := day(2026, 6, 10).Add(10 * time.Hour)
	pool := []domain.Task{
		{ID: "unfinished", StartDate: dayPtr(day(2026, 6, 10))},
		{ID: "finished", Completed: true, CompletedAt: &doneYesterday},
		{ID: "unrelated", StartDate: dayPtr(day(2026, 6, 11))},
	}

	got := svc.YesterdayIncomplete(pool, today)
	assertIDs(t, got, "unfinished")
}

func TestWeekUnion(t *testing.T) {
	// June 10 2026 is a Wednesday; its week runs June 7 (Sunday) to June 13.
	today := day(2026, 6, 10)
	svc := newService(nil, nil, nil, today)
	pool := []domain.Task{
		{ID: "sunday", StartDate: dayPtr(day(2026, 6, 7)), DueDate: dayPtr(day(2026, 6, 7))},
		{ID: "saturday", StartDate: dayPtr(day(2026, 6, 13)), DueDate: dayPtr(day(2026, 6, 13))},
		{ID: "next-week", StartDate: dayPtr(day(2026, 6, 14)), DueDate: dayPtr(day(2026, 6, 14))},
	}

	got := svc.Week(pool, today)
	assertIDs(t, got, "sunday", "saturday")
}

func TestMonthUnion(t *testing.T) {
	today := day(2026, 6, 10)
	svc := newService(nil, nil, nil, today)
	pool := []domain.Task{
		{ID: "june", StartDate: dayPtr(day(2026, 6, 1)), DueDate: dayPtr(day(2026, 6, 1))},
		{ID: "july", StartDate: dayPtr(day(2026, 7, 1)), DueDate: dayPtr(day(2026, 7, 1))},
	}

	got := svc.Month(pool, today)
	assertIDs(t, got, "june")
}

func TestTomorrowNeverRollsOver(t *testing.T) {
	today := day(2026, 6, 10)
	svc := newService(nil, nil, nil, today)
	pool := []domain.Task{
		{ID: "rolling", StartDate: dayPtr(day(2026, 6, 1))},
		{ID: "tomorrow", StartDate: dayPtr(day(2026, 6, 11)), DueDate: dayPtr(day(2026, 6, 11))},
	}

	// The start-only task rolls up to today but is never pre-populated
	// onto tomorrow.
	got := svc.Tomorrow(pool, today)
	assertIDs(t, got, "tomorrow")
}

func TestExpandAndReconcilePassThrough(t *testing.T) {
	today := day(2026, 6, 10)
	svc := newService(nil, nil, nil, today)
	tpl := &domain.RecurringTemplate{
		ID:         "tpl-1",
		UserID:     "u1",
		Title:      "daily",
		Recurrence: domain.RecurDaily,
		StartDate:  day(2026, 6, 1),
		IsActive:   true,
	}

	dates := svc.ExpandRecurrence(tpl, nil, day(2026, 6, 9), day(2026, 6, 11))
	if len(dates) != 3 {
		t.Fatalf("dates = %v, want 3 days", dates)
	}

	plan := svc.ReconcileInstances(tpl, dates, nil)
	if len(plan.ToCreate) != 3 || len(plan.ToRetire) != 0 {
		t.Fatalf("plan = %+v, want 3 creates", plan)
	}
	replay := svc.ReconcileInstances(tpl, dates, plan.ToCreate)
	if !replay.Empty() {
		t.Fatalf("replay plan = %+v, want empty", replay)
	}
}
