package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserPlanStatus type for plan assignment lifecycle
type UserPlanStatus string

const (
	UserPlanActive    UserPlanStatus = "Active"
	UserPlanCompleted UserPlanStatus = "Completed"
)

// UserPlan links a user to a TrainingPlan they started. Plan name and
// duration are denormalized so dashboard queries avoid a second lookup.
type UserPlan struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	TrainingPlanID primitive.ObjectID `bson:"trainingPlanId" json:"trainingPlanId"`
	PlanName       string             `bson:"planName" json:"planName"`
	DurationWeeks  int                `bson:"durationWeeks" json:"durationWeeks"`
	StartDate      time.Time          `bson:"startDate" json:"startDate"`
	Status         UserPlanStatus     `bson:"status" json:"status"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CurrentWeek derives the 1-based week the plan is in on the given day,
// clamped to [1, DurationWeeks]. A start date far in the past never grows
// the result past the plan duration.
func (up *UserPlan) CurrentWeek(today time.Time) int {
	days := int(today.Sub(up.StartDate).Hours() / 24)
	week := days/7 + 1
	if week < 1 {
		week = 1
	}
	if up.DurationWeeks > 0 && week > up.DurationWeeks {
		week = up.DurationWeeks
	}
	return week
}
