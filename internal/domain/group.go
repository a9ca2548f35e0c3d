package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MembershipStatus type for group membership lifecycle
type MembershipStatus string

const (
	MembershipPending MembershipStatus = "Pending" // Join request awaiting coach approval
	MembershipActive  MembershipStatus = "Active"
)

// Group is a coach-led roster of athletes training together.
type Group struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CoachID        primitive.ObjectID `bson:"coachId" json:"coachId"`
	Name           string             `bson:"name" json:"name"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	Sport          Sport              `bson:"sport" json:"sport"`
	TargetLevel    Level              `bson:"targetLevel" json:"targetLevel"`
	MaxMembers     int                `bson:"maxMembers" json:"maxMembers"`
	CurrentMembers int                `bson:"currentMembers" json:"currentMembers"`
	City           string             `bson:"city,omitempty" json:"city,omitempty"`
	MeetingPoint   string             `bson:"meetingPoint,omitempty" json:"meetingPoint,omitempty"`
	IsPrivate      bool               `bson:"isPrivate" json:"isPrivate"`
	IsFree         bool               `bson:"isFree" json:"isFree"`
	MonthlyFee     *float64           `bson:"monthlyFee,omitempty" json:"monthlyFee,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsFull reports whether the roster reached capacity. Capacity is enforced
// at join-approval time; concurrent approvals can still be rejected by the
// conditional update in the repository.
func (g *Group) IsFull() bool {
	return g.MaxMembers > 0 && g.CurrentMembers >= g.MaxMembers
}

// GroupMember is one athlete's membership in a group.
type GroupMember struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID   primitive.ObjectID `bson:"groupId" json:"groupId"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Status    MembershipStatus   `bson:"status" json:"status"`
	JoinedAt  *time.Time         `bson:"joinedAt,omitempty" json:"joinedAt,omitempty"` // Set when the coach approves
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
