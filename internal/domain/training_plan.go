package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TemplateSession is one templated session inside a plan week. DayOfWeek is
// the offset within a Monday-start week: 0 = Monday .. 6 = Sunday.
type TemplateSession struct {
	DayOfWeek       int         `bson:"dayOfWeek" json:"dayOfWeek"`
	Name            string      `bson:"name" json:"name"`
	Type            SessionType `bson:"type" json:"type"`
	DurationMinutes int         `bson:"durationMinutes,omitempty" json:"durationMinutes,omitempty"`
	DistanceKm      *float64    `bson:"distanceKm,omitempty" json:"distanceKm,omitempty"`
	Intensity       string      `bson:"intensity,omitempty" json:"intensity,omitempty"`
	Instructions    string      `bson:"instructions,omitempty" json:"instructions,omitempty"`
}

// PlanWeek is one ordered week of a training plan.
type PlanWeek struct {
	WeekNumber int               `bson:"weekNumber" json:"weekNumber"` // 1-based
	Sessions   []TemplateSession `bson:"sessions" json:"sessions"`
}

// TrainingPlan is a multi-week catalog program. Plans are immutable once
// published; the service only ever reads them.
type TrainingPlan struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	Sport           Sport              `bson:"sport" json:"sport"`
	TargetLevel     Level              `bson:"targetLevel" json:"targetLevel"`
	DurationWeeks   int                `bson:"durationWeeks" json:"durationWeeks"`
	SessionsPerWeek int                `bson:"sessionsPerWeek" json:"sessionsPerWeek"`
	IsFree          bool               `bson:"isFree" json:"isFree"`
	Price           *float64           `bson:"price,omitempty" json:"price,omitempty"` // Set only on paid plans
	Weeks           []PlanWeek         `bson:"weeks" json:"weeks"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// TotalSessions counts every templated session across all weeks.
func (p *TrainingPlan) TotalSessions() int {
	total := 0
	for _, w := range p.Weeks {
		total += len(w.Sessions)
	}
	return total
}
