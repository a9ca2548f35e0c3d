// Package calendar buckets training sessions by calendar day and rolls up
// weekly completion metrics. Everything here is pure aggregation over
// sessions that were already fetched; no side effects.
package calendar

import (
	"time"

	"trainmate/platform/internal/domain"
)

const dayKeyFormat = "2006-01-02"

// DayKey returns the local calendar date of t as a YYYY-MM-DD key. Two
// timestamps on the same local day map to the same key regardless of
// time-of-day.
func DayKey(t time.Time) string {
	return t.Format(dayKeyFormat)
}

// GroupByDay buckets sessions by local calendar day for grid rendering.
// A session scheduled at any time on day D lands only in D's bucket.
func GroupByDay(sessions []domain.Session) map[string][]domain.Session {
	buckets := make(map[string][]domain.Session)
	for _, s := range sessions {
		key := DayKey(s.ScheduledDate)
		buckets[key] = append(buckets[key], s)
	}
	return buckets
}

// StartOfDay returns midnight of t's calendar day, in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// WeekStart returns midnight of the Monday of the week containing t, in
// t's location. Weeks are Monday-start.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7 // Monday = 0 .. Sunday = 6
	return StartOfDay(t).AddDate(0, 0, -offset)
}

// WeekEnd returns midnight of the Sunday of the same week. The week range
// [WeekStart, WeekEnd] is inclusive of both endpoints at day granularity.
func WeekEnd(t time.Time) time.Time {
	return WeekStart(t).AddDate(0, 0, 6)
}

// Summary is the weekly rollup shown on the dashboard.
type Summary struct {
	CompletedSessions int     `json:"completedSessions"`
	TotalSessions     int     `json:"totalSessions"`
	TotalMinutes      int     `json:"totalMinutes"`
	TotalDistanceKm   float64 `json:"totalDistanceKm"`
	CompletionRate    float64 `json:"completionRate"` // 0-100, defined as 0 for an empty week
}

// WeekSummary aggregates the sessions falling in the Monday-start week
// containing weekStart. Minutes and distance use the actual figures for
// completed sessions and fall back to the planned figures otherwise.
func WeekSummary(weekStart time.Time, sessions []domain.Session) Summary {
	startKey := DayKey(WeekStart(weekStart))
	endKey := DayKey(WeekEnd(weekStart))

	var sum Summary
	for _, s := range sessions {
		key := DayKey(s.ScheduledDate)
		if key < startKey || key > endKey {
			continue
		}
		sum.TotalSessions++

		if s.Status == domain.SessionCompleted && s.Completion != nil {
			sum.CompletedSessions++
			sum.TotalMinutes += s.Completion.ActualDurationMinutes
			if s.Completion.ActualDistanceKm != nil {
				sum.TotalDistanceKm += *s.Completion.ActualDistanceKm
			} else if s.DistanceKm != nil {
				sum.TotalDistanceKm += *s.DistanceKm
			}
			continue
		}

		sum.TotalMinutes += s.DurationMinutes
		if s.DistanceKm != nil {
			sum.TotalDistanceKm += *s.DistanceKm
		}
	}

	if sum.TotalSessions > 0 {
		sum.CompletionRate = float64(sum.CompletedSessions) / float64(sum.TotalSessions) * 100
	}
	return sum
}

// CompletionRate computes the percentage of completed sessions among those
// scheduled up to and including today. Used for a plan's progress figure.
func CompletionRate(sessions []domain.Session, today time.Time) float64 {
	todayKey := DayKey(today)
	scheduled, completed := 0, 0
	for _, s := range sessions {
		if DayKey(s.ScheduledDate) > todayKey {
			continue
		}
		scheduled++
		if s.Status == domain.SessionCompleted {
			completed++
		}
	}
	if scheduled == 0 {
		return 0
	}
	return float64(completed) / float64(scheduled) * 100
}
