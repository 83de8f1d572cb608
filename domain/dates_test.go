package domain

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDaysInMonth(t *testing.T) {
	cases := []struct {
		in   time.Time
		want int
	}{
		{day(2024, 2, 10), 29}, // leap year
		{day(2025, 2, 10), 28},
		{day(2026, 1, 1), 31},
		{day(2026, 4, 30), 30},
	}
	for _, tc := range cases {
		if got := DaysInMonth(tc.in); got != tc.want {
			t.Errorf("DaysInMonth(%s) = %d, want %d", tc.in.Format(DateLayout), got, tc.want)
		}
	}
}

func TestWeekdayOrdinal(t *testing.T) {
	cases := []struct {
		in   time.Time
		want int
	}{
		{day(2024, 3, 1), 1},
		{day(2024, 3, 7), 1},
		{day(2024, 3, 8), 2},
		{day(2024, 3, 29), 5},
	}
	for _, tc := range cases {
		if got := WeekdayOrdinal(tc.in); got != tc.want {
			t.Errorf("WeekdayOrdinal(%s) = %d, want %d", tc.in.Format(DateLayout), got, tc.want)
		}
	}
}

func TestIsLastWeekdayOfMonth(t *testing.T) {
	if !IsLastWeekdayOfMonth(day(2024, 3, 26)) {
		t.Error("Mar 26 2024 is the last Tuesday of its month")
	}
	if IsLastWeekdayOfMonth(day(2024, 3, 19)) {
		t.Error("Mar 19 2024 is not the last Tuesday of its month")
	}
}

func TestWeekStartIsSunday(t *testing.T) {
	cases := []struct {
		in   time.Time
		want time.Time
	}{
		{day(2026, 6, 10), day(2026, 6, 7)}, // Wednesday
		{day(2026, 6, 7), day(2026, 6, 7)},  // Sunday maps to itself
		{day(2026, 6, 13), day(2026, 6, 7)}, // Saturday
	}
	for _, tc := range cases {
		if got := WeekStart(tc.in); !got.Equal(tc.want) {
			t.Errorf("WeekStart(%s) = %s, want %s",
				tc.in.Format(DateLayout), got.Format(DateLayout), tc.want.Format(DateLayout))
		}
	}
}

func TestParseDay(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want *time.Time
	}{
		{"plain date", "2026-06-10", ptr(day(2026, 6, 10))},
		{"rfc3339", "2026-06-10T15:04:05Z", ptr(day(2026, 6, 10))},
		{"empty", "", nil},
		{"garbage", "next tuesday", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseDay(tc.in)
			switch {
			case tc.want == nil && got != nil:
				t.Errorf("ParseDay(%q) = %v, want nil", tc.in, got)
			case tc.want != nil && (got == nil || !got.Equal(*tc.want)):
				t.Errorf("ParseDay(%q) = %v, want %s", tc.in, got, tc.want.Format(DateLayout))
			}
		})
	}
}

func TestInstanceIDStable(t *testing.T) {
	id := InstanceID("tpl-9", day(2026, 6, 10))
	if id != InstanceID("tpl-9", day(2026, 6, 10).Add(6*time.Hour)) {
		t.Fatal("instance id must be a pure function of template and day")
	}
}

func TestProjectTaskOverrides(t *testing.T) {
	tpl := &RecurringTemplate{
		ID: "tpl-1", UserID: "u1", Title: "report", Priority: PriorityMedium,
		Tags: []string{"work"},
	}
	title := "report (short week)"
	inst := &RecurringInstance{
		ID: "i1", TemplateID: "tpl-1", UserID: "u1",
		InstanceDate: day(2026, 6, 10),
		Overrides:    &InstanceOverrides{Title: &title, Tags: []string{"work", "short"}},
	}

	task := inst.ProjectTask(tpl)
	if task.Title != title {
		t.Errorf("title override not applied: %s", task.Title)
	}
	if len(task.Tags) != 2 {
		t.Errorf("tag override not applied: %v", task.Tags)
	}
	if task.Priority != PriorityMedium {
		t.Error("unset override fields must inherit from the template")
	}
	if task.ID != "rec:tpl-1:2026-06-10" {
		t.Errorf("unexpected projected id %s", task.ID)
	}
}

func ptr(t time.Time) *time.Time { return &t }
