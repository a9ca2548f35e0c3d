package domain

import (
	"testing"
	"time"
)

func TestUserPlanCurrentWeek(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC) // a Monday

	tests := []struct {
		name  string
		today time.Time
		weeks int
		want  int
	}{
		{name: "start day is week 1", today: start, weeks: 8, want: 1},
		{name: "sixth day still week 1", today: start.AddDate(0, 0, 6), weeks: 8, want: 1},
		{name: "seventh day rolls to week 2", today: start.AddDate(0, 0, 7), weeks: 8, want: 2},
		{name: "mid-plan", today: start.AddDate(0, 0, 25), weeks: 8, want: 4},
		{name: "clamped to plan duration", today: start.AddDate(0, 0, 365), weeks: 8, want: 8},
		{name: "before start clamps to week 1", today: start.AddDate(0, 0, -10), weeks: 8, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := &UserPlan{StartDate: start, DurationWeeks: tt.weeks}
			if got := up.CurrentWeek(tt.today); got != tt.want {
				t.Errorf("CurrentWeek(%s) = %d, want %d", tt.today.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}
