package calendar

import (
	"testing"
	"time"

	"trainmate/platform/internal/domain"
)

func TestDayKey(t *testing.T) {
	morning := time.Date(2025, 6, 10, 6, 30, 0, 0, time.UTC)
	evening := time.Date(2025, 6, 10, 23, 59, 0, 0, time.UTC)

	if DayKey(morning) != DayKey(evening) {
		t.Errorf("same-day timestamps map to different keys: %s vs %s", DayKey(morning), DayKey(evening))
	}
	if got, want := DayKey(morning), "2025-06-10"; got != want {
		t.Errorf("DayKey = %s, want %s", got, want)
	}
}

func TestGroupByDay(t *testing.T) {
	day := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	sessions := []domain.Session{
		{Name: "Morning run", ScheduledDate: day.Add(7 * time.Hour)},
		{Name: "Evening strength", ScheduledDate: day.Add(19 * time.Hour)},
		{Name: "Next day tempo", ScheduledDate: day.AddDate(0, 0, 1)},
	}

	buckets := GroupByDay(sessions)
	if len(buckets) != 2 {
		t.Fatalf("got %d buckets, want 2", len(buckets))
	}
	if got := len(buckets["2025-06-10"]); got != 2 {
		t.Errorf("2025-06-10 has %d sessions, want 2", got)
	}
	if got := len(buckets["2025-06-11"]); got != 1 {
		t.Errorf("2025-06-11 has %d sessions, want 1", got)
	}
}

func TestStartOfDay(t *testing.T) {
	evening := time.Date(2025, 6, 9, 18, 30, 45, 12, time.UTC)
	want := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	if got := StartOfDay(evening); !got.Equal(want) {
		t.Errorf("StartOfDay(%v) = %v, want %v", evening, got, want)
	}
	if got := StartOfDay(want); !got.Equal(want) {
		t.Errorf("StartOfDay at midnight moved to %v", got)
	}
}

func TestWeekBounds(t *testing.T) {
	tests := []struct {
		name      string
		day       time.Time
		wantStart string
		wantEnd   string
	}{
		{name: "monday is its own week start", day: time.Date(2025, 6, 9, 15, 0, 0, 0, time.UTC), wantStart: "2025-06-09", wantEnd: "2025-06-15"},
		{name: "wednesday", day: time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC), wantStart: "2025-06-09", wantEnd: "2025-06-15"},
		{name: "sunday belongs to the preceding monday", day: time.Date(2025, 6, 15, 23, 0, 0, 0, time.UTC), wantStart: "2025-06-09", wantEnd: "2025-06-15"},
		{name: "across month boundary", day: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), wantStart: "2025-06-30", wantEnd: "2025-07-06"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DayKey(WeekStart(tt.day)); got != tt.wantStart {
				t.Errorf("WeekStart = %s, want %s", got, tt.wantStart)
			}
			if got := DayKey(WeekEnd(tt.day)); got != tt.wantEnd {
				t.Errorf("WeekEnd = %s, want %s", got, tt.wantEnd)
			}
		})
	}
}

func TestWeekSummary(t *testing.T) {
	monday := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	planned := 8.0
	actual := 10.0

	completed := domain.Session{
		Status:          domain.SessionCompleted,
		ScheduledDate:   monday,
		DurationMinutes: 60,
		DistanceKm:      &planned,
		Completion:      &domain.CompletionRecord{ActualDurationMinutes: 75, ActualDistanceKm: &actual},
	}
	completedNoActualDistance := domain.Session{
		Status:          domain.SessionCompleted,
		ScheduledDate:   monday.AddDate(0, 0, 2),
		DurationMinutes: 45,
		DistanceKm:      &planned,
		Completion:      &domain.CompletionRecord{ActualDurationMinutes: 50},
	}
	plannedSession := domain.Session{
		Status:          domain.SessionPlanned,
		ScheduledDate:   monday.AddDate(0, 0, 4),
		DurationMinutes: 30,
	}
	skipped := domain.Session{
		Status:          domain.SessionSkipped,
		ScheduledDate:   monday.AddDate(0, 0, 5),
		DurationMinutes: 40,
	}
	outsideWeek := domain.Session{
		Status:          domain.SessionPlanned,
		ScheduledDate:   monday.AddDate(0, 0, 7),
		DurationMinutes: 90,
	}

	sum := WeekSummary(monday, []domain.Session{completed, completedNoActualDistance, plannedSession, skipped, outsideWeek})

	if sum.TotalSessions != 4 {
		t.Errorf("TotalSessions = %d, want 4 (next week's session excluded)", sum.TotalSessions)
	}
	if sum.CompletedSessions != 2 {
		t.Errorf("CompletedSessions = %d, want 2", sum.CompletedSessions)
	}
	// Actual minutes for completed (75+50), planned for the rest (30+40).
	if sum.TotalMinutes != 195 {
		t.Errorf("TotalMinutes = %d, want 195", sum.TotalMinutes)
	}
	// Actual 10.0, then planned fallback 8.0.
	if sum.TotalDistanceKm != 18.0 {
		t.Errorf("TotalDistanceKm = %v, want 18.0", sum.TotalDistanceKm)
	}
	if sum.CompletionRate != 50.0 {
		t.Errorf("CompletionRate = %v, want 50.0", sum.CompletionRate)
	}
}

func TestWeekSummaryEmptyWeek(t *testing.T) {
	monday := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)

	sum := WeekSummary(monday, nil)
	if sum.CompletionRate != 0 {
		t.Errorf("CompletionRate for empty week = %v, want 0", sum.CompletionRate)
	}
	if sum.TotalSessions != 0 || sum.TotalMinutes != 0 || sum.TotalDistanceKm != 0 {
		t.Errorf("empty week must be all zeros, got %+v", sum)
	}
}

func TestCompletionRate(t *testing.T) {
	today := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	sessions := []domain.Session{
		{Status: domain.SessionCompleted, ScheduledDate: today.AddDate(0, 0, -3)},
		{Status: domain.SessionSkipped, ScheduledDate: today.AddDate(0, 0, -2)},
		{Status: domain.SessionCompleted, ScheduledDate: today}, // Today counts
		{Status: domain.SessionPlanned, ScheduledDate: today.AddDate(0, 0, -1)},
		{Status: domain.SessionPlanned, ScheduledDate: today.AddDate(0, 0, 5)}, // Future, excluded
	}

	if got := CompletionRate(sessions, today); got != 50.0 {
		t.Errorf("CompletionRate = %v, want 50.0", got)
	}

	if got := CompletionRate(nil, today); got != 0 {
		t.Errorf("CompletionRate with no sessions = %v, want 0", got)
	}

	onlyFuture := []domain.Session{{Status: domain.SessionPlanned, ScheduledDate: today.AddDate(0, 0, 1)}}
	if got := CompletionRate(onlyFuture, today); got != 0 {
		t.Errorf("CompletionRate with only future sessions = %v, want 0", got)
	}
}
