package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AttendanceStatus type for per-member RSVP/outcome state on a group session
type AttendanceStatus string

const (
	AttendanceUnset     AttendanceStatus = "Unset"
	AttendanceConfirmed AttendanceStatus = "Confirmed"
	AttendanceMaybe     AttendanceStatus = "Maybe"
	AttendanceAbsent    AttendanceStatus = "Absent"
	AttendanceCompleted AttendanceStatus = "Completed"
)

// GroupSession is a scheduled activity on a group's calendar. Aggregate
// counts are recomputed by the service after every attendance mutation,
// never by clients.
type GroupSession struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID         primitive.ObjectID `bson:"groupId" json:"groupId"`
	CoachID         primitive.ObjectID `bson:"coachId" json:"coachId"` // Denormalized for auth checks
	Name            string             `bson:"name" json:"name"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	ScheduledDate   time.Time          `bson:"scheduledDate" json:"scheduledDate"`
	Location        string             `bson:"location,omitempty" json:"location,omitempty"`
	DurationMinutes int                `bson:"durationMinutes,omitempty" json:"durationMinutes,omitempty"`
	DistanceKm      *float64           `bson:"distanceKm,omitempty" json:"distanceKm,omitempty"`
	IsCancelled     bool               `bson:"isCancelled" json:"isCancelled"`
	CancelReason    string             `bson:"cancelReason,omitempty" json:"cancelReason,omitempty"`
	ConfirmedCount  int                `bson:"confirmedCount" json:"confirmedCount"`
	MaybeCount      int                `bson:"maybeCount" json:"maybeCount"`
	AbsentCount     int                `bson:"absentCount" json:"absentCount"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Attendance is the RSVP/outcome record of one member for one group session.
// A missing record means AttendanceUnset.
type Attendance struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupSessionID primitive.ObjectID `bson:"groupSessionId" json:"groupSessionId"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	Status         AttendanceStatus   `bson:"status" json:"status"`
	Completion     *CompletionRecord  `bson:"completion,omitempty" json:"completion,omitempty"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CanSetAttendance validates an RSVP change (to Confirmed, Maybe or Absent)
// from the member's current state. RSVPs are only accepted while the session
// is in the future and not cancelled; a member who already completed the
// session cannot RSVP again.
func (gs *GroupSession) CanSetAttendance(current, to AttendanceStatus, now time.Time) error {
	if to != AttendanceConfirmed && to != AttendanceMaybe && to != AttendanceAbsent {
		return ValidationError("attendance status must be Confirmed, Maybe or Absent")
	}
	if gs.IsCancelled {
		return &TransitionError{Entity: "groupSession", From: string(current), To: string(to)}
	}
	if !gs.ScheduledDate.After(now) {
		return ValidationError("attendance can no longer be changed once the session has started")
	}
	if current == AttendanceCompleted {
		return &TransitionError{Entity: "attendance", From: string(current), To: string(to)}
	}
	return nil
}

// CanComplete validates moving a member from Confirmed to Completed. Only
// allowed after the scheduled time has passed, on a non-cancelled session.
func (gs *GroupSession) CanComplete(current AttendanceStatus, now time.Time) error {
	if gs.IsCancelled {
		return &TransitionError{Entity: "groupSession", From: string(current), To: string(AttendanceCompleted)}
	}
	if current != AttendanceConfirmed {
		return &TransitionError{Entity: "attendance", From: string(current), To: string(AttendanceCompleted)}
	}
	if gs.ScheduledDate.After(now) {
		return ValidationError("session cannot be completed before its scheduled time")
	}
	return nil
}

// Cancel marks the session cancelled. Cancellation is absorbing: it freezes
// every attendance action regardless of prior per-member state.
func (gs *GroupSession) Cancel(reason string) error {
	if gs.IsCancelled {
		return &TransitionError{Entity: "groupSession", From: "Cancelled", To: "Cancelled"}
	}
	gs.IsCancelled = true
	gs.CancelReason = reason
	return nil
}
