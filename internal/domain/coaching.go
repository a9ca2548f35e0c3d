package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CoachingType type for the billing granularity of a relationship
type CoachingType string

const (
	CoachingFree       CoachingType = "Free"
	CoachingPerSession CoachingType = "PerSession"
	CoachingMonthly    CoachingType = "Monthly"
)

// RelationshipStatus type for the coaching relationship lifecycle
type RelationshipStatus string

const (
	RelationshipPending  RelationshipStatus = "Pending"
	RelationshipActive   RelationshipStatus = "Active"
	RelationshipRejected RelationshipStatus = "Rejected"
	RelationshipEnded    RelationshipStatus = "Ended"
)

// CoachingRelationship is the link between one athlete and one coach. It is
// created as a Pending request and moves through
// Pending -> Active -> Ended, or Pending -> Rejected. Rejected and Ended
// are terminal.
type CoachingRelationship struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AthleteID   primitive.ObjectID `bson:"athleteId" json:"athleteId"`
	CoachID     primitive.ObjectID `bson:"coachId" json:"coachId"`
	Type        CoachingType       `bson:"type" json:"type"`
	Status      RelationshipStatus `bson:"status" json:"status"`
	Message     string             `bson:"message,omitempty" json:"message,omitempty"` // Athlete's request message
	AgreedRate  *float64           `bson:"agreedRate,omitempty" json:"agreedRate,omitempty"`
	RequestedAt time.Time          `bson:"requestedAt" json:"requestedAt"`
	RespondedAt *time.Time         `bson:"respondedAt,omitempty" json:"respondedAt,omitempty"`
	EndedAt     *time.Time         `bson:"endedAt,omitempty" json:"endedAt,omitempty"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Approve moves a Pending request to Active. For paid coaching types the
// agreed rate is required and becomes the binding rate; for Free requests
// any supplied rate is discarded.
func (r *CoachingRelationship) Approve(agreedRate *float64, now time.Time) error {
	if r.Status != RelationshipPending {
		return &TransitionError{Entity: "coachingRelationship", From: string(r.Status), To: string(RelationshipActive)}
	}
	if r.Type != CoachingFree {
		if agreedRate == nil || *agreedRate <= 0 {
			return ValidationError("a positive agreedRate is required for paid coaching types")
		}
		r.AgreedRate = agreedRate
	} else {
		r.AgreedRate = nil
	}
	r.Status = RelationshipActive
	r.RespondedAt = &now
	return nil
}

// Reject moves a Pending request to Rejected. No rate is ever recorded.
func (r *CoachingRelationship) Reject(now time.Time) error {
	if r.Status != RelationshipPending {
		return &TransitionError{Entity: "coachingRelationship", From: string(r.Status), To: string(RelationshipRejected)}
	}
	r.Status = RelationshipRejected
	r.RespondedAt = &now
	return nil
}

// End terminates an Active relationship. Either party may call it; it is
// irreversible.
func (r *CoachingRelationship) End(now time.Time) error {
	if r.Status != RelationshipActive {
		return &TransitionError{Entity: "coachingRelationship", From: string(r.Status), To: string(RelationshipEnded)}
	}
	r.Status = RelationshipEnded
	r.EndedAt = &now
	return nil
}
