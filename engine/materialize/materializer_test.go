package materialize

import (
	"testing"
	"time"

	"github.com/taskline/backend/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var tpl = &domain.RecurringTemplate{
	ID:     "tpl-1",
	UserID: "u1",
	Title:  "weekly report",
}

func instance(date time.Time, mut ...func(*domain.RecurringInstance)) domain.RecurringInstance {
	inst := domain.RecurringInstance{
		ID:           domain.InstanceID(tpl.ID, date),
		TemplateID:   tpl.ID,
		UserID:       tpl.UserID,
		InstanceDate: date,
	}
	for _, m := range mut {
		m(&inst)
	}
	return inst
}

func TestReconcileCreatesMissing(t *testing.T) {
	dates := []time.Time{day(2026, 6, 1), day(2026, 6, 8)}
	plan := Reconcile(tpl, dates, nil, day(2026, 6, 1))

	if len(plan.ToCreate) != 2 || len(plan.ToRetain) != 0 || len(plan.ToRetire) != 0 {
		t.Fatalf("plan = create:%d retain:%d retire:%d, want 2/0/0",
			len(plan.ToCreate), len(plan.ToRetain), len(plan.ToRetire))
	}
	for i, d := range dates {
		got := plan.ToCreate[i]
		if got.ID != domain.InstanceID(tpl.ID, d) {
			t.Errorf("instance %d id = %s, want deterministic id", i, got.ID)
		}
		if got.Completed || got.Skipped || got.Retired {
			t.Errorf("instance %d not created in default state", i)
		}
	}
}

func TestReconcileRetainsMatched(t *testing.T) {
	d := day(2026, 6, 1)
	completedAt := d.Add(10 * time.Hour)
	existing := []domain.RecurringInstance{
		instance(d, func(i *domain.RecurringInstance) {
			i.Completed = true
			i.CompletedAt = &completedAt
		}),
	}

	plan := Reconcile(tpl, []time.Time{d}, existing, day(2026, 6, 2))
	if len(plan.ToCreate) != 0 || len(plan.ToRetire) != 0 {
		t.Fatalf("matched instance must not be recreated or retired")
	}
	if len(plan.ToRetain) != 1 || !plan.ToRetain[0].Completed {
		t.Fatal("matched instance must be retained with state intact")
	}
}

func TestReconcileRetiresFutureOnly(t *testing.T) {
	today := day(2026, 6, 10)
	past := instance(day(2026, 6, 3))
	future := instance(day(2026, 6, 17))

	// The pattern no longer produces either date.
	plan := Reconcile(tpl, nil, []domain.RecurringInstance{past, future}, today)

	if len(plan.ToRetire) != 1 || !plan.ToRetire[0].InstanceDate.Equal(future.InstanceDate) {
		t.Fatalf("only the future instance may be retired, got %+v", plan.ToRetire)
	}
	if len(plan.ToRetain) != 1 || !plan.ToRetain[0].InstanceDate.Equal(past.InstanceDate) {
		t.Fatal("past instances must survive pattern edits")
	}
}

func TestReconcileTodayIsNotFuture(t *testing.T) {
	today := day(2026, 6, 10)
	onToday := instance(today)

	plan := Reconcile(tpl, nil, []domain.RecurringInstance{onToday}, today)
	if len(plan.ToRetire) != 0 {
		t.Fatal("an instance dated today must not be retired")
	}
}

func TestReconcileRevivesRetired(t *testing.T) {
	d := day(2026, 6, 15)
	completedAt := d.Add(8 * time.Hour)
	existing := []domain.RecurringInstance{
		instance(d, func(i *domain.RecurringInstance) {
			i.Retired = true
			i.Completed = true
			i.CompletedAt = &completedAt
		}),
	}

	plan := Reconcile(tpl, []time.Time{d}, existing, day(2026, 6, 1))
	if len(plan.ToCreate) != 1 {
		t.Fatalf("retired instance whose date reappeared must be revived")
	}
	revived := plan.ToCreate[0]
	if revived.Retired {
		t.Error("revived instance still marked retired")
	}
	if !revived.Completed || revived.CompletedAt == nil {
		t.Error("revival must preserve completion state")
	}
}

func TestReconcileIgnoresAlreadyRetired(t *testing.T) {
	gone := instance(day(2026, 6, 20), func(i *domain.RecurringInstance) { i.Retired = true })

	plan := Reconcile(tpl, nil, []domain.RecurringInstance{gone}, day(2026, 6, 1))
	if !plan.Empty() {
		t.Fatal("an already-retired unmatched instance requires no writes")
	}
}

func TestReconcileIdempotent(t *testing.T) {
	today := day(2026, 6, 10)
	dates := []time.Time{day(2026, 6, 8), day(2026, 6, 15), day(2026, 6, 22)}
	existing := []domain.RecurringInstance{
		instance(day(2026, 6, 8), func(i *domain.RecurringInstance) { i.Completed = true }),
		instance(day(2026, 6, 12)), // future, fell out of the pattern
	}

	first := Reconcile(tpl, dates, existing, today)

	// Apply the plan the way the reconciler would.
	var applied []domain.RecurringInstance
	applied = append(applied, first.ToRetain...)
	applied = append(applied, first.ToCreate...)
	for _, inst := range first.ToRetire {
		inst.Retired = true
		applied = append(applied, inst)
	}

	second := Reconcile(tpl, dates, applied, today)
	if !second.Empty() {
		t.Fatalf("second run must be a no-op, got create:%d retire:%d",
			len(second.ToCreate), len(second.ToRetire))
	}
}

func TestReconcileNilTemplate(t *testing.T) {
	plan := Reconcile(nil, []time.Time{day(2026, 6, 1)}, nil, day(2026, 6, 1))
	if !plan.Empty() {
		t.Fatal("nil template must produce an empty plan")
	}
}

func TestInstanceIDDeterministic(t *testing.T) {
	a := domain.InstanceID("tpl-1", day(2026, 6, 1))
	b := domain.InstanceID("tpl-1", day(2026, 6, 1).Add(13*time.Hour))
	if a != b {
		t.Fatal("instance id must ignore time of day")
	}
	if a == domain.InstanceID("tpl-2", day(2026, 6, 1)) {
		t.Fatal("instance id must differ across templates")
	}
}
