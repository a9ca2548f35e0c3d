package repository

import (
	"context"
	"time"

	"trainmate/platform/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
	ErrDuplicate    = RepositoryError("duplicate record")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error)
	UpdateProfile(ctx context.Context, userID primitive.ObjectID, profile *domain.AthleteProfile) error
}

// PlanFilter narrows the training-plan catalog listing.
type PlanFilter struct {
	Sport    domain.Sport
	Level    domain.Level
	FreeOnly bool
}

// TrainingPlanRepository reads the (immutable) plan catalog.
type TrainingPlanRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainingPlan, error)
	List(ctx context.Context, filter PlanFilter) ([]domain.TrainingPlan, error)
}

// UserPlanRepository defines the interface for plan assignments.
type UserPlanRepository interface {
	Create(ctx context.Context, plan *domain.UserPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.UserPlan, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.UserPlan, error)
	GetActiveByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.UserPlan, error)
	Update(ctx context.Context, plan *domain.UserPlan) error
}

// SessionRepository defines the interface for personal training sessions.
type SessionRepository interface {
	CreateMany(ctx context.Context, sessions []domain.Session) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Session, error)
	GetByUserAndRange(ctx context.Context, userID primitive.ObjectID, start, end time.Time) ([]domain.Session, error)
	GetByUserPlanID(ctx context.Context, userPlanID primitive.ObjectID) ([]domain.Session, error)
	Update(ctx context.Context, session *domain.Session) error
}

// GroupFilter narrows the public group listing.
type GroupFilter struct {
	City  string
	Sport domain.Sport
}

// GroupRepository defines the interface for coach-led groups.
type GroupRepository interface {
	Create(ctx context.Context, group *domain.Group) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Group, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Group, error)
	GetByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.Group, error)
	ListPublic(ctx context.Context, filter GroupFilter) ([]domain.Group, error)
	Update(ctx context.Context, group *domain.Group) error
	SetMemberCount(ctx context.Context, groupID primitive.ObjectID, count int) error
}

// GroupMemberRepository defines the interface for group memberships.
type GroupMemberRepository interface {
	Create(ctx context.Context, member *domain.GroupMember) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.GroupMember, error)
	GetByGroupAndUser(ctx context.Context, groupID, userID primitive.ObjectID) (*domain.GroupMember, error)
	GetByGroupID(ctx context.Context, groupID primitive.ObjectID) ([]domain.GroupMember, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID, status domain.MembershipStatus) ([]domain.GroupMember, error)
	CountByGroup(ctx context.Context, groupID primitive.ObjectID, status domain.MembershipStatus) (int, error)
	Update(ctx context.Context, member *domain.GroupMember) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// GroupSessionRepository defines the interface for group session data.
type GroupSessionRepository interface {
	Create(ctx context.Context, session *domain.GroupSession) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.GroupSession, error)
	GetByGroupID(ctx context.Context, groupID primitive.ObjectID) ([]domain.GroupSession, error)
	GetUpcomingByGroupIDs(ctx context.Context, groupIDs []primitive.ObjectID, after time.Time) ([]domain.GroupSession, error)
	Update(ctx context.Context, session *domain.GroupSession) error
}

// AttendanceRepository defines the interface for per-member attendance
// records on group sessions.
type AttendanceRepository interface {
	Upsert(ctx context.Context, att *domain.Attendance) error
	GetBySessionAndUser(ctx context.Context, sessionID, userID primitive.ObjectID) (*domain.Attendance, error)
	GetBySessionID(ctx context.Context, sessionID primitive.ObjectID) ([]domain.Attendance, error)
	CountByStatus(ctx context.Context, sessionID primitive.ObjectID) (map[domain.AttendanceStatus]int, error)
}

// CoachingRepository defines the interface for coaching relationships.
type CoachingRepository interface {
	Create(ctx context.Context, rel *domain.CoachingRelationship) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.CoachingRelationship, error)
	GetByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.CoachingRelationship, error)
	GetByAthleteID(ctx context.Context, athleteID primitive.ObjectID) ([]domain.CoachingRelationship, error)
	GetOpenByPair(ctx context.Context, athleteID, coachID primitive.ObjectID) (*domain.CoachingRelationship, error)
	CountActiveByCoach(ctx context.Context, coachID primitive.ObjectID) (int, error)
	Update(ctx context.Context, rel *domain.CoachingRelationship) error
}

// CoachProfileRepository defines the interface for coach profiles.
type CoachProfileRepository interface {
	Create(ctx context.Context, profile *domain.CoachProfile) (primitive.ObjectID, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.CoachProfile, error)
	List(ctx context.Context, specialty string) ([]domain.CoachProfile, error)
	Update(ctx context.Context, profile *domain.CoachProfile) error
}
