package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CoachProfile is the public profile of a coach user, one-to-one with the
// user record. Absent rates mean coaching is not offered at that billing
// granularity.
type CoachProfile struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	Bio             string             `bson:"bio,omitempty" json:"bio,omitempty"`
	Specialties     []string           `bson:"specialties,omitempty" json:"specialties,omitempty"`
	YearsExperience int                `bson:"yearsExperience" json:"yearsExperience"`
	MonthlyRate     *float64           `bson:"monthlyRate,omitempty" json:"monthlyRate,omitempty"`
	SessionRate     *float64           `bson:"sessionRate,omitempty" json:"sessionRate,omitempty"`
	AvatarObjectKey string             `bson:"avatarObjectKey,omitempty" json:"-"` // S3 key, presigned on read
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CoachStats are aggregate figures computed by the service, never stored.
type CoachStats struct {
	TotalAthletes int      `json:"totalAthletes"`
	TotalGroups   int      `json:"totalGroups"`
	AverageRating *float64 `json:"averageRating,omitempty"`
}
