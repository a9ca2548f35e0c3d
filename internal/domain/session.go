package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionType categorizes a training session.
type SessionType string

const (
	SessionEndurance SessionType = "Endurance"
	SessionInterval  SessionType = "Interval"
	SessionTempo     SessionType = "Tempo"
	SessionLongRun   SessionType = "LongRun"
	SessionRecovery  SessionType = "Recovery"
	SessionRest      SessionType = "Rest"
	SessionStrength  SessionType = "Strength"
)

// SessionStatus type for the session lifecycle
type SessionStatus string

const (
	SessionPlanned   SessionStatus = "Planned"
	SessionCompleted SessionStatus = "Completed" // Athlete logged an actual performance
	SessionSkipped   SessionStatus = "Skipped"   // Athlete skipped the session
)

// CompletionRecord stores the actual performance an athlete reports when
// completing a session. Present on a Session only when its status is
// Completed.
type CompletionRecord struct {
	ActualDurationMinutes int       `bson:"actualDurationMinutes" json:"actualDurationMinutes"`
	ActualDistanceKm      *float64  `bson:"actualDistanceKm,omitempty" json:"actualDistanceKm,omitempty"`
	FeelRating            *int      `bson:"feelRating,omitempty" json:"feelRating,omitempty"` // 1 (terrible) to 5 (great)
	Notes                 string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CompletedAt           time.Time `bson:"completedAt" json:"completedAt"`
}

// Session is a single scheduled training activity belonging to a user,
// materialized from a TrainingPlan when the plan is assigned.
type Session struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID  `bson:"userId" json:"userId"`
	UserPlanID      *primitive.ObjectID `bson:"userPlanId,omitempty" json:"userPlanId,omitempty"` // Plan assignment this session came from
	Name            string              `bson:"name" json:"sessionName"`
	Type            SessionType         `bson:"type" json:"sessionType"`
	ScheduledDate   time.Time           `bson:"scheduledDate" json:"scheduledDate"`
	DurationMinutes int                 `bson:"durationMinutes,omitempty" json:"durationMinutes,omitempty"`
	DistanceKm      *float64            `bson:"distanceKm,omitempty" json:"distanceKm,omitempty"`
	Intensity       string              `bson:"intensity,omitempty" json:"intensity,omitempty"`
	Instructions    string              `bson:"instructions,omitempty" json:"instructions,omitempty"`
	Status          SessionStatus       `bson:"status" json:"status"`
	Completion      *CompletionRecord   `bson:"completion,omitempty" json:"completion,omitempty"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// ValidateCompletionRecord checks the athlete-supplied fields of a
// performance record. Shared by personal sessions and group session
// completion.
func ValidateCompletionRecord(rec CompletionRecord) error {
	if rec.ActualDurationMinutes <= 0 {
		return ValidationError("actualDurationMinutes must be a positive integer")
	}
	if rec.FeelRating != nil && (*rec.FeelRating < 1 || *rec.FeelRating > 5) {
		return ValidationError("feelRating must be between 1 and 5")
	}
	return nil
}

// IsTerminal reports whether the session can no longer be mutated.
// Completed and Skipped are both terminal states.
func (s *Session) IsTerminal() bool {
	return s.Status == SessionCompleted || s.Status == SessionSkipped
}

// Complete transitions the session from Planned to Completed, attaching the
// supplied record. The completion timestamp is assigned here (server time),
// not taken from the caller.
func (s *Session) Complete(rec CompletionRecord, now time.Time) error {
	if s.Status != SessionPlanned {
		return &TransitionError{Entity: "session", From: string(s.Status), To: string(SessionCompleted)}
	}
	if err := ValidateCompletionRecord(rec); err != nil {
		return err
	}
	rec.CompletedAt = now
	s.Status = SessionCompleted
	s.Completion = &rec
	return nil
}

// Skip transitions the session from Planned to Skipped. No payload.
func (s *Session) Skip() error {
	if s.Status != SessionPlanned {
		return &TransitionError{Entity: "session", From: string(s.Status), To: string(SessionSkipped)}
	}
	s.Status = SessionSkipped
	return nil
}
