package holiday

import (
	"testing"
	"time"

	"github.com/taskline/backend/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestChainFirstNonNilWins(t *testing.T) {
	custom := NewTable([]domain.Holiday{{Date: day(2026, 7, 4), Name: "company picnic"}})
	lookup := Chain(custom, NewUS())

	got := lookup.Lookup(day(2026, 7, 4))
	if got == nil || got.Name != "company picnic" {
		t.Fatalf("custom calendar must shadow the public one, got %+v", got)
	}
}

func TestChainSkipsNilLookups(t *testing.T) {
	lookup := Chain(nil, NewUS())
	if lookup.Lookup(day(2026, 12, 25)) == nil {
		t.Fatal("chain with nil member must still consult later lookups")
	}
}

func TestTableLookup(t *testing.T) {
	table := NewTable([]domain.Holiday{
		{Date: day(2026, 3, 15).Add(9 * time.Hour), Name: "offsite"},
	})

	got := table.Lookup(day(2026, 3, 15).Add(22 * time.Hour))
	if got == nil || got.Name != "offsite" || !got.Custom {
		t.Fatalf("table lookup must match at day granularity, got %+v", got)
	}
	if table.Lookup(day(2026, 3, 16)) != nil {
		t.Fatal("unexpected hit on a regular day")
	}
}

func TestMemoizeCachesResults(t *testing.T) {
	calls := 0
	counted := Func(func(d time.Time) *domain.Holiday {
		calls++
		if d.Equal(day(2026, 1, 1)) {
			return &domain.Holiday{Date: d, Name: "new year"}
		}
		return nil
	})

	m := Memoize(counted)
	for i := 0; i < 3; i++ {
		if m.Lookup(day(2026, 1, 1)) == nil {
			t.Fatal("memoized hit lost")
		}
		if m.Lookup(day(2026, 1, 2)) != nil {
			t.Fatal("memoized miss became a hit")
		}
	}
	if calls != 2 {
		t.Fatalf("inner lookup called %d times, want 2", calls)
	}
}

func TestUSFixedHolidays(t *testing.T) {
	us := NewUS()
	cases := []struct {
		date time.Time
		want string
	}{
		{day(2026, 1, 1), "New Year's Day"},
		{day(2026, 6, 19), "Juneteenth"},
		{day(2026, 7, 4), "Independence Day"},
		{day(2026, 11, 11), "Veterans Day"},
		{day(2026, 12, 25), "Christmas Day"},
	}
	for _, tc := range cases {
		got := us.Lookup(tc.date)
		if got == nil || got.Name != tc.want {
			t.Errorf("Lookup(%s) = %+v, want %q",
				tc.date.Format(domain.DateLayout), got, tc.want)
		}
	}
}

func TestUSFloatingHolidays(t *testing.T) {
	us := NewUS()
	cases := []struct {
		date time.Time
		want string
	}{
		{day(2026, 1, 19), "Martin Luther King Jr. Day"}, // 3rd Monday of January
		{day(2026, 5, 25), "Memorial Day"},               // last Monday of May
		{day(2026, 9, 7), "Labor Day"},                   // 1st Monday of September
		{day(2026, 11, 26), "Thanksgiving Day"},          // 4th Thursday of November
	}
	for _, tc := range cases {
		got := us.Lookup(tc.date)
		if got == nil || got.Name != tc.want {
			t.Errorf("Lookup(%s) = %+v, want %q",
				tc.date.Format(domain.DateLayout), got, tc.want)
		}
	}

	if us.Lookup(day(2026, 1, 12)) != nil {
		t.Error("2nd Monday of January is not a holiday")
	}
}
