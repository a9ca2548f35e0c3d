package service

import (
	"context"
	"errors"
	"time"

	"trainmate/platform/internal/domain"
	"trainmate/platform/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrGroupNotFound        = errors.New("group not found")
	ErrGroupAccessDenied    = errors.New("only the group's coach can perform this action")
	ErrGroupFull            = errors.New("group has reached its member capacity")
	ErrAlreadyMember        = errors.New("a membership or join request already exists for this group")
	ErrMembershipNotFound   = errors.New("membership not found")
	ErrNotGroupMember       = errors.New("user is not an active member of this group")
	ErrGroupSessionNotFound = errors.New("group session not found")
)

// MemberDetail is a membership record enriched with the member's name.
type MemberDetail struct {
	domain.GroupMember
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// GroupSessionDetail is a group session enriched with the requesting
// member's own attendance state.
type GroupSessionDetail struct {
	domain.GroupSession
	UserAttendanceStatus domain.AttendanceStatus `json:"userAttendanceStatus"`
}

// --- Service Interface ---
type GroupService interface {
	// Group management
	CreateGroup(ctx context.Context, coachID primitive.ObjectID, group *domain.Group) (*domain.Group, error)
	UpdateGroup(ctx context.Context, coachID, groupID primitive.ObjectID, updated *domain.Group) (*domain.Group, error)
	GetGroup(ctx context.Context, groupID primitive.ObjectID) (*domain.Group, error)
	ListPublicGroups(ctx context.Context, filter repository.GroupFilter) ([]domain.Group, error)
	GetMyGroups(ctx context.Context, userID primitive.ObjectID) ([]domain.Group, error)
	GetCoachGroups(ctx context.Context, coachID primitive.ObjectID) ([]domain.Group, error)

	// Membership
	GetMembers(ctx context.Context, groupID primitive.ObjectID) ([]MemberDetail, error)
	Join(ctx context.Context, userID, groupID primitive.ObjectID) (*domain.GroupMember, error)
	ApproveJoin(ctx context.Context, coachID, membershipID primitive.ObjectID) (*domain.GroupMember, error)
	Leave(ctx context.Context, userID, groupID primitive.ObjectID) error
	RemoveMember(ctx context.Context, coachID, membershipID primitive.ObjectID) error

	// Group sessions
	CreateSession(ctx context.Context, coachID primitive.ObjectID, session *domain.GroupSession) (*domain.GroupSession, error)
	GetGroupSessions(ctx context.Context, groupID primitive.ObjectID) ([]domain.GroupSession, error)
	GetUpcomingSessions(ctx context.Context, userID primitive.ObjectID) ([]domain.GroupSession, error)
	GetSessionDetail(ctx context.Context, userID, sessionID primitive.ObjectID) (*GroupSessionDetail, error)
	CancelSession(ctx context.Context, coachID, sessionID primitive.ObjectID, reason string) (*domain.GroupSession, error)
	UpdateAttendance(ctx context.Context, userID, sessionID primitive.ObjectID, status domain.AttendanceStatus) (*GroupSessionDetail, error)
	CompleteSession(ctx context.Context, userID, sessionID primitive.ObjectID, rec domain.CompletionRecord) (*GroupSessionDetail, error)
}

// --- Service Implementation ---

type groupService struct {
	groupRepo        repository.GroupRepository
	memberRepo       repository.GroupMemberRepository
	groupSessionRepo repository.GroupSessionRepository
	attendanceRepo   repository.AttendanceRepository
	userRepo         repository.UserRepository
	now              func() time.Time
}

// NewGroupService creates a new instance of groupService.
func NewGroupService(
	groupRepo repository.GroupRepository,
	memberRepo repository.GroupMemberRepository,
	groupSessionRepo repository.GroupSessionRepository,
	attendanceRepo repository.AttendanceRepository,
	userRepo repository.UserRepository,
) GroupService {
	return &groupService{
		groupRepo:        groupRepo,
		memberRepo:       memberRepo,
		groupSessionRepo: groupSessionRepo,
		attendanceRepo:   attendanceRepo,
		userRepo:         userRepo,
		now:              time.Now,
	}
}

// === Group management ===

func (s *groupService) CreateGroup(ctx context.Context, coachID primitive.ObjectID, group *domain.Group) (*domain.Group, error) {
	if group.Name == "" {
		return nil, domain.ValidationError("group name is required")
	}
	if group.MaxMembers <= 0 {
		return nil, domain.ValidationError("maxMembers must be positive")
	}
	if !group.IsFree && (group.MonthlyFee == nil || *group.MonthlyFee <= 0) {
		return nil, domain.ValidationError("a positive monthlyFee is required for paid groups")
	}

	group.CoachID = coachID
	group.CurrentMembers = 0
	groupID, err := s.groupRepo.Create(ctx, group)
	if err != nil {
		return nil, err
	}
	group.ID = groupID
	return group, nil
}

func (s *groupService) UpdateGroup(ctx context.Context, coachID, groupID primitive.ObjectID, updated *domain.Group) (*domain.Group, error) {
	group, err := s.coachOwnedGroup(ctx, coachID, groupID)
	if err != nil {
		return nil, err
	}

	group.Name = updated.Name
	group.Description = updated.Description
	group.Sport = updated.Sport
	group.TargetLevel = updated.TargetLevel
	group.MaxMembers = updated.MaxMembers
	group.City = updated.City
	group.MeetingPoint = updated.MeetingPoint
	group.IsPrivate = updated.IsPrivate
	group.IsFree = updated.IsFree
	group.MonthlyFee = updated.MonthlyFee
	if group.IsFree {
		group.MonthlyFee = nil
	}

	if err := s.groupRepo.Update(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *groupService) GetGroup(ctx context.Context, groupID primitive.ObjectID) (*domain.Group, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return group, nil
}

func (s *groupService) ListPublicGroups(ctx context.Context, filter repository.GroupFilter) ([]domain.Group, error) {
	return s.groupRepo.ListPublic(ctx, filter)
}

// GetMyGroups retrieves the groups the user is an active member of.
func (s *groupService) GetMyGroups(ctx context.Context, userID primitive.ObjectID) ([]domain.Group, error) {
	memberships, err := s.memberRepo.GetByUserID(ctx, userID, domain.MembershipActive)
	if err != nil {
		return nil, err
	}

	groupIDs := make([]primitive.ObjectID, len(memberships))
	for i, m := range memberships {
		groupIDs[i] = m.GroupID
	}
	return s.groupRepo.GetByIDs(ctx, groupIDs)
}

func (s *groupService) GetCoachGroups(ctx context.Context, coachID primitive.ObjectID) ([]domain.Group, error) {
	return s.groupRepo.GetByCoachID(ctx, coachID)
}

// === Membership ===

// GetMembers retrieves the roster with member names resolved.
func (s *groupService) GetMembers(ctx context.Context, groupID primitive.ObjectID) ([]MemberDetail, error) {
	members, err := s.memberRepo.GetByGroupID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	userIDs := make([]primitive.ObjectID, len(members))
	for i, m := range members {
		userIDs[i] = m.UserID
	}
	users, err := s.userRepo.GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	details := make([]MemberDetail, len(members))
	for i, m := range members {
		details[i] = MemberDetail{GroupMember: m}
		if u, ok := byID[m.UserID]; ok {
			details[i].FirstName = u.FirstName
			details[i].LastName = u.LastName
		}
	}
	return details, nil
}

// Join files a membership request. Public groups still require coach
// approval; capacity is checked again at approval time because other joins
// may land concurrently.
func (s *groupService) Join(ctx context.Context, userID, groupID primitive.ObjectID) (*domain.GroupMember, error) {
	group, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.IsFull() {
		return nil, ErrGroupFull
	}

	member := &domain.GroupMember{
		GroupID: groupID,
		UserID:  userID,
		Status:  domain.MembershipPending,
	}
	memberID, err := s.memberRepo.Create(ctx, member)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyMember
		}
		return nil, err
	}
	member.ID = memberID
	return member, nil
}

// ApproveJoin activates a pending membership and recomputes occupancy.
func (s *groupService) ApproveJoin(ctx context.Context, coachID, membershipID primitive.ObjectID) (*domain.GroupMember, error) {
	member, err := s.memberRepo.GetByID(ctx, membershipID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, err
	}

	group, err := s.coachOwnedGroup(ctx, coachID, member.GroupID)
	if err != nil {
		return nil, err
	}
	if group.IsFull() {
		return nil, ErrGroupFull
	}
	if member.Status == domain.MembershipActive {
		return member, nil // Already approved, nothing to do
	}

	now := s.now().UTC()
	member.Status = domain.MembershipActive
	member.JoinedAt = &now
	if err := s.memberRepo.Update(ctx, member); err != nil {
		return nil, err
	}

	if err := s.refreshMemberCount(ctx, group.ID); err != nil {
		return nil, err
	}
	return member, nil
}

func (s *groupService) Leave(ctx context.Context, userID, groupID primitive.ObjectID) error {
	member, err := s.memberRepo.GetByGroupAndUser(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMembershipNotFound
		}
		return err
	}

	if err := s.memberRepo.Delete(ctx, member.ID); err != nil {
		return err
	}
	return s.refreshMemberCount(ctx, groupID)
}

func (s *groupService) RemoveMember(ctx context.Context, coachID, membershipID primitive.ObjectID) error {
	member, err := s.memberRepo.GetByID(ctx, membershipID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMembershipNotFound
		}
		return err
	}

	if _, err := s.coachOwnedGroup(ctx, coachID, member.GroupID); err != nil {
		return err
	}

	if err := s.memberRepo.Delete(ctx, member.ID); err != nil {
		return err
	}
	return s.refreshMemberCount(ctx, member.GroupID)
}

// refreshMemberCount recomputes occupancy from the roster instead of
// incrementing, so concurrent joins and leaves cannot drift the counter.
func (s *groupService) refreshMemberCount(ctx context.Context, groupID primitive.ObjectID) error {
	count, err := s.memberRepo.CountByGroup(ctx, groupID, domain.MembershipActive)
	if err != nil {
		return err
	}
	return s.groupRepo.SetMemberCount(ctx, groupID, count)
}

// === Group sessions ===

func (s *groupService) CreateSession(ctx context.Context, coachID primitive.ObjectID, session *domain.GroupSession) (*domain.GroupSession, error) {
	if session.Name == "" {
		return nil, domain.ValidationError("session name is required")
	}
	if session.ScheduledDate.IsZero() {
		return nil, domain.ValidationError("scheduledDate is required")
	}

	if _, err := s.coachOwnedGroup(ctx, coachID, session.GroupID); err != nil {
		return nil, err
	}

	session.CoachID = coachID
	sessionID, err := s.groupSessionRepo.Create(ctx, session)
	if err != nil {
		return nil, err
	}
	session.ID = sessionID
	return session, nil
}

func (s *groupService) GetGroupSessions(ctx context.Context, groupID primitive.ObjectID) ([]domain.GroupSession, error) {
	if _, err := s.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return s.groupSessionRepo.GetByGroupID(ctx, groupID)
}

// GetUpcomingSessions retrieves future sessions across all groups the user
// is an active member of.
func (s *groupService) GetUpcomingSessions(ctx context.Context, userID primitive.ObjectID) ([]domain.GroupSession, error) {
	memberships, err := s.memberRepo.GetByUserID(ctx, userID, domain.MembershipActive)
	if err != nil {
		return nil, err
	}

	groupIDs := make([]primitive.ObjectID, len(memberships))
	for i, m := range memberships {
		groupIDs[i] = m.GroupID
	}
	return s.groupSessionRepo.GetUpcomingByGroupIDs(ctx, groupIDs, s.now().UTC())
}

// GetSessionDetail returns a session with the caller's own attendance state
// resolved (Unset when no record exists).
func (s *groupService) GetSessionDetail(ctx context.Context, userID, sessionID primitive.ObjectID) (*GroupSessionDetail, error) {
	session, err := s.groupSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionDetail(ctx, session, userID)
}

// CancelSession marks the session cancelled. Absorbing: every subsequent
// attendance or completion action is rejected.
func (s *groupService) CancelSession(ctx context.Context, coachID, sessionID primitive.ObjectID, reason string) (*domain.GroupSession, error) {
	session, err := s.groupSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.CoachID != coachID {
		return nil, ErrGroupAccessDenied
	}

	if err := session.Cancel(reason); err != nil {
		return nil, err
	}
	if err := s.groupSessionRepo.Update(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// UpdateAttendance records the member's RSVP and returns the session with
// freshly recomputed aggregate counts.
func (s *groupService) UpdateAttendance(ctx context.Context, userID, sessionID primitive.ObjectID, status domain.AttendanceStatus) (*GroupSessionDetail, error) {
	session, err := s.groupSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.requireActiveMember(ctx, session.GroupID, userID); err != nil {
		return nil, err
	}

	current, err := s.currentAttendance(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if err := session.CanSetAttendance(current, status, s.now()); err != nil {
		return nil, err
	}

	att := &domain.Attendance{
		GroupSessionID: sessionID,
		UserID:         userID,
		Status:         status,
	}
	if err := s.attendanceRepo.Upsert(ctx, att); err != nil {
		return nil, err
	}

	if err := s.refreshAttendanceCounts(ctx, session); err != nil {
		return nil, err
	}
	return s.sessionDetail(ctx, session, userID)
}

// CompleteSession moves a Confirmed member to Completed once the scheduled
// time has passed, attaching their performance record.
func (s *groupService) CompleteSession(ctx context.Context, userID, sessionID primitive.ObjectID, rec domain.CompletionRecord) (*GroupSessionDetail, error) {
	session, err := s.groupSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.requireActiveMember(ctx, session.GroupID, userID); err != nil {
		return nil, err
	}

	current, err := s.currentAttendance(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if err := session.CanComplete(current, s.now()); err != nil {
		return nil, err
	}
	if err := domain.ValidateCompletionRecord(rec); err != nil {
		return nil, err
	}

	rec.CompletedAt = s.now().UTC()
	att := &domain.Attendance{
		GroupSessionID: sessionID,
		UserID:         userID,
		Status:         domain.AttendanceCompleted,
		Completion:     &rec,
	}
	if err := s.attendanceRepo.Upsert(ctx, att); err != nil {
		return nil, err
	}

	if err := s.refreshAttendanceCounts(ctx, session); err != nil {
		return nil, err
	}
	return s.sessionDetail(ctx, session, userID)
}

// === Helpers ===

func (s *groupService) coachOwnedGroup(ctx context.Context, coachID, groupID primitive.ObjectID) (*domain.Group, error) {
	group, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.CoachID != coachID {
		return nil, ErrGroupAccessDenied
	}
	return group, nil
}

func (s *groupService) groupSession(ctx context.Context, sessionID primitive.ObjectID) (*domain.GroupSession, error) {
	session, err := s.groupSessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGroupSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

func (s *groupService) requireActiveMember(ctx context.Context, groupID, userID primitive.ObjectID) error {
	member, err := s.memberRepo.GetByGroupAndUser(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotGroupMember
		}
		return err
	}
	if member.Status != domain.MembershipActive {
		return ErrNotGroupMember
	}
	return nil
}

// currentAttendance resolves the member's state; no record means Unset.
// Infrastructure failures propagate so they are not mistaken for "no RSVP".
func (s *groupService) currentAttendance(ctx context.Context, sessionID, userID primitive.ObjectID) (domain.AttendanceStatus, error) {
	att, err := s.attendanceRepo.GetBySessionAndUser(ctx, sessionID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.AttendanceUnset, nil
		}
		return domain.AttendanceUnset, err
	}
	return att.Status, nil
}

// refreshAttendanceCounts recomputes the aggregate counters from the
// attendance records so concurrent RSVPs by other members cannot drift them.
func (s *groupService) refreshAttendanceCounts(ctx context.Context, session *domain.GroupSession) error {
	counts, err := s.attendanceRepo.CountByStatus(ctx, session.ID)
	if err != nil {
		return err
	}
	session.ConfirmedCount = counts[domain.AttendanceConfirmed]
	session.MaybeCount = counts[domain.AttendanceMaybe]
	session.AbsentCount = counts[domain.AttendanceAbsent]
	return s.groupSessionRepo.Update(ctx, session)
}

func (s *groupService) sessionDetail(ctx context.Context, session *domain.GroupSession, userID primitive.ObjectID) (*GroupSessionDetail, error) {
	status, err := s.currentAttendance(ctx, session.ID, userID)
	if err != nil {
		return nil, err
	}
	return &GroupSessionDetail{
		GroupSession:         *session,
		UserAttendanceStatus: status,
	}, nil
}
