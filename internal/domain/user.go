package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleAthlete Role = "athlete"
	RoleCoach   Role = "coach"
)

// Sport enumerates the sports the platform supports.
type Sport string

const (
	SportRunning Sport = "Running"
	SportCycling Sport = "Cycling"
	SportBoth    Sport = "Both"
)

// Level enumerates athlete experience levels.
type Level string

const (
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
	LevelAdvanced     Level = "Advanced"
	LevelExpert       Level = "Expert"
)

// AthleteProfile holds the onboarding preferences of an athlete.
// Fields stay empty until onboarding completes.
type AthleteProfile struct {
	PrimarySport             Sport  `bson:"primarySport,omitempty" json:"primarySport,omitempty"`
	Level                    Level  `bson:"level,omitempty" json:"level,omitempty"`
	Goal                     string `bson:"goal,omitempty" json:"goal,omitempty"`
	WeeklyAvailableHours     int    `bson:"weeklyAvailableHours,omitempty" json:"weeklyAvailableHours,omitempty"`
	PreferredSessionsPerWeek int    `bson:"preferredSessionsPerWeek,omitempty" json:"preferredSessionsPerWeek,omitempty"`
	HasGps                   bool   `bson:"hasGps" json:"hasGps"`
	HasHeartRateMonitor      bool   `bson:"hasHeartRateMonitor" json:"hasHeartRateMonitor"`
	HasPowerMeter            bool   `bson:"hasPowerMeter" json:"hasPowerMeter"`
	HasIndoorTrainer         bool   `bson:"hasIndoorTrainer" json:"hasIndoorTrainer"`
}

// User represents a user in the system (either an Athlete or a Coach).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName    string             `bson:"firstName" json:"firstName"`
	LastName     string             `bson:"lastName" json:"lastName"`
	Email        string             `bson:"email" json:"email"`    // Should be unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	Profile      *AthleteProfile    `bson:"profile,omitempty" json:"profile,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) IsCoach() bool {
	return u.Role == RoleCoach
}

func (u *User) IsAthlete() bool {
	return u.Role == RoleAthlete
}
