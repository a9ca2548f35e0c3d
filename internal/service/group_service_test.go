package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"trainmate/platform/internal/domain"
	"trainmate/platform/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- In-memory fakes ---

type fakeGroupRepo struct {
	groups map[primitive.ObjectID]*domain.Group
	counts map[primitive.ObjectID]int
}

func newFakeGroupRepo(groups ...*domain.Group) *fakeGroupRepo {
	f := &fakeGroupRepo{
		groups: map[primitive.ObjectID]*domain.Group{},
		counts: map[primitive.ObjectID]int{},
	}
	for _, g := range groups {
		f.groups[g.ID] = g
	}
	return f
}

func (f *fakeGroupRepo) Create(_ context.Context, g *domain.Group) (primitive.ObjectID, error) {
	g.ID = primitive.NewObjectID()
	f.groups[g.ID] = g
	return g.ID, nil
}

func (f *fakeGroupRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Group, error) {
	if g, ok := f.groups[id]; ok {
		return g, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeGroupRepo) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.Group, error) {
	var out []domain.Group
	for _, id := range ids {
		if g, ok := f.groups[id]; ok {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (f *fakeGroupRepo) GetByCoachID(_ context.Context, coachID primitive.ObjectID) ([]domain.Group, error) {
	var out []domain.Group
	for _, g := range f.groups {
		if g.CoachID == coachID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (f *fakeGroupRepo) ListPublic(_ context.Context, _ repository.GroupFilter) ([]domain.Group, error) {
	var out []domain.Group
	for _, g := range f.groups {
		if !g.IsPrivate {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (f *fakeGroupRepo) Update(_ context.Context, g *domain.Group) error {
	f.groups[g.ID] = g
	return nil
}

func (f *fakeGroupRepo) SetMemberCount(_ context.Context, groupID primitive.ObjectID, count int) error {
	f.counts[groupID] = count
	if g, ok := f.groups[groupID]; ok {
		g.CurrentMembers = count
	}
	return nil
}

type fakeMemberRepo struct {
	members map[primitive.ObjectID]*domain.GroupMember
}

func newFakeMemberRepo(members ...*domain.GroupMember) *fakeMemberRepo {
	f := &fakeMemberRepo{members: map[primitive.ObjectID]*domain.GroupMember{}}
	for _, m := range members {
		f.members[m.ID] = m
	}
	return f
}

func (f *fakeMemberRepo) Create(_ context.Context, m *domain.GroupMember) (primitive.ObjectID, error) {
	for _, existing := range f.members {
		if existing.GroupID == m.GroupID && existing.UserID == m.UserID {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	m.ID = primitive.NewObjectID()
	f.members[m.ID] = m
	return m.ID, nil
}

func (f *fakeMemberRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.GroupMember, error) {
	if m, ok := f.members[id]; ok {
		return m, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeMemberRepo) GetByGroupAndUser(_ context.Context, groupID, userID primitive.ObjectID) (*domain.GroupMember, error) {
	for _, m := range f.members {
		if m.GroupID == groupID && m.UserID == userID {
			return m, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeMemberRepo) GetByGroupID(_ context.Context, groupID primitive.ObjectID) ([]domain.GroupMember, error) {
	var out []domain.GroupMember
	for _, m := range f.members {
		if m.GroupID == groupID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMemberRepo) GetByUserID(_ context.Context, userID primitive.ObjectID, status domain.MembershipStatus) ([]domain.GroupMember, error) {
	var out []domain.GroupMember
	for _, m := range f.members {
		if m.UserID == userID && m.Status == status {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMemberRepo) CountByGroup(_ context.Context, groupID primitive.ObjectID, status domain.MembershipStatus) (int, error) {
	count := 0
	for _, m := range f.members {
		if m.GroupID == groupID && m.Status == status {
			count++
		}
	}
	return count, nil
}

func (f *fakeMemberRepo) Update(_ context.Context, m *domain.GroupMember) error {
	f.members[m.ID] = m
	return nil
}

func (f *fakeMemberRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	delete(f.members, id)
	return nil
}

type fakeGroupSessionRepo struct {
	sessions map[primitive.ObjectID]*domain.GroupSession
}

func newFakeGroupSessionRepo(sessions ...*domain.GroupSession) *fakeGroupSessionRepo {
	f := &fakeGroupSessionRepo{sessions: map[primitive.ObjectID]*domain.GroupSession{}}
	for _, s := range sessions {
		f.sessions[s.ID] = s
	}
	return f
}

func (f *fakeGroupSessionRepo) Create(_ context.Context, s *domain.GroupSession) (primitive.ObjectID, error) {
	s.ID = primitive.NewObjectID()
	f.sessions[s.ID] = s
	return s.ID, nil
}

func (f *fakeGroupSessionRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.GroupSession, error) {
	if s, ok := f.sessions[id]; ok {
		return s, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeGroupSessionRepo) GetByGroupID(_ context.Context, groupID primitive.ObjectID) ([]domain.GroupSession, error) {
	var out []domain.GroupSession
	for _, s := range f.sessions {
		if s.GroupID == groupID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeGroupSessionRepo) GetUpcomingByGroupIDs(_ context.Context, groupIDs []primitive.ObjectID, after time.Time) ([]domain.GroupSession, error) {
	var out []domain.GroupSession
	for _, s := range f.sessions {
		for _, gid := range groupIDs {
			if s.GroupID == gid && s.ScheduledDate.After(after) && !s.IsCancelled {
				out = append(out, *s)
			}
		}
	}
	return out, nil
}

func (f *fakeGroupSessionRepo) Update(_ context.Context, s *domain.GroupSession) error {
	f.sessions[s.ID] = s
	return nil
}

type fakeAttendanceRepo struct {
	records map[string]*domain.Attendance // keyed sessionHex+userHex
	getErr  error                         // returned by GetBySessionAndUser when set
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{records: map[string]*domain.Attendance{}}
}

func attKey(sessionID, userID primitive.ObjectID) string {
	return sessionID.Hex() + "/" + userID.Hex()
}

func (f *fakeAttendanceRepo) Upsert(_ context.Context, att *domain.Attendance) error {
	f.records[attKey(att.GroupSessionID, att.UserID)] = att
	return nil
}

func (f *fakeAttendanceRepo) GetBySessionAndUser(_ context.Context, sessionID, userID primitive.ObjectID) (*domain.Attendance, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if att, ok := f.records[attKey(sessionID, userID)]; ok {
		return att, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAttendanceRepo) GetBySessionID(_ context.Context, sessionID primitive.ObjectID) ([]domain.Attendance, error) {
	var out []domain.Attendance
	for _, att := range f.records {
		if att.GroupSessionID == sessionID {
			out = append(out, *att)
		}
	}
	return out, nil
}

func (f *fakeAttendanceRepo) CountByStatus(_ context.Context, sessionID primitive.ObjectID) (map[domain.AttendanceStatus]int, error) {
	counts := map[domain.AttendanceStatus]int{}
	for _, att := range f.records {
		if att.GroupSessionID == sessionID {
			counts[att.Status]++
		}
	}
	return counts, nil
}

type fakeUserRepo struct {
	users map[primitive.ObjectID]*domain.User
}

func (f *fakeUserRepo) Create(_ context.Context, u *domain.User) (primitive.ObjectID, error) {
	u.ID = primitive.NewObjectID()
	f.users[u.ID] = u
	return u.ID, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.User, error) {
	var out []domain.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) UpdateProfile(_ context.Context, userID primitive.ObjectID, profile *domain.AthleteProfile) error {
	if u, ok := f.users[userID]; ok {
		u.Profile = profile
		return nil
	}
	return repository.ErrNotFound
}

// --- Fixture ---

type groupFixture struct {
	svc         *groupService
	groupRepo   *fakeGroupRepo
	memberRepo  *fakeMemberRepo
	sessionRepo *fakeGroupSessionRepo
	attRepo     *fakeAttendanceRepo

	coachID primitive.ObjectID
	userID  primitive.ObjectID
	group   *domain.Group
	session *domain.GroupSession
	now     time.Time
}

func newGroupFixture(t *testing.T) *groupFixture {
	t.Helper()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	coachID := primitive.NewObjectID()
	userID := primitive.NewObjectID()

	group := &domain.Group{
		ID:         primitive.NewObjectID(),
		CoachID:    coachID,
		Name:       "Morning Runners",
		MaxMembers: 10,
	}
	session := &domain.GroupSession{
		ID:            primitive.NewObjectID(),
		GroupID:       group.ID,
		CoachID:       coachID,
		Name:          "Track intervals",
		ScheduledDate: now.Add(48 * time.Hour),
	}

	fx := &groupFixture{
		groupRepo:   newFakeGroupRepo(group),
		memberRepo:  newFakeMemberRepo(),
		sessionRepo: newFakeGroupSessionRepo(session),
		attRepo:     newFakeAttendanceRepo(),
		coachID:     coachID,
		userID:      userID,
		group:       group,
		session:     session,
		now:         now,
	}
	userRepo := &fakeUserRepo{users: map[primitive.ObjectID]*domain.User{}}
	fx.svc = NewGroupService(fx.groupRepo, fx.memberRepo, fx.sessionRepo, fx.attRepo, userRepo).(*groupService)
	fx.svc.now = func() time.Time { return now }
	return fx
}

func (fx *groupFixture) activateMember(t *testing.T, userID primitive.ObjectID) {
	t.Helper()
	joined := fx.now
	_, err := fx.memberRepo.Create(context.Background(), &domain.GroupMember{
		GroupID:  fx.group.ID,
		UserID:   userID,
		Status:   domain.MembershipActive,
		JoinedAt: &joined,
	})
	if err != nil {
		t.Fatalf("seeding member: %v", err)
	}
}

// --- Tests ---

func TestJoinAndApprove(t *testing.T) {
	fx := newGroupFixture(t)
	ctx := context.Background()

	member, err := fx.svc.Join(ctx, fx.userID, fx.group.ID)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if member.Status != domain.MembershipPending {
		t.Errorf("status after join = %s, want Pending", member.Status)
	}

	// Second join request is a conflict.
	if _, err := fx.svc.Join(ctx, fx.userID, fx.group.ID); !errors.Is(err, ErrAlreadyMember) {
		t.Errorf("second join error = %v, want ErrAlreadyMember", err)
	}

	approved, err := fx.svc.ApproveJoin(ctx, fx.coachID, member.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != domain.MembershipActive || approved.JoinedAt == nil {
		t.Errorf("approved member = %+v, want Active with JoinedAt set", approved)
	}
	if fx.group.CurrentMembers != 1 {
		t.Errorf("CurrentMembers = %d, want 1 after approval", fx.group.CurrentMembers)
	}
}

func TestApproveJoinRequiresOwningCoach(t *testing.T) {
	fx := newGroupFixture(t)
	ctx := context.Background()

	member, err := fx.svc.Join(ctx, fx.userID, fx.group.ID)
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	otherCoach := primitive.NewObjectID()
	if _, err := fx.svc.ApproveJoin(ctx, otherCoach, member.ID); !errors.Is(err, ErrGroupAccessDenied) {
		t.Errorf("error = %v, want ErrGroupAccessDenied", err)
	}
}

func TestJoinFullGroup(t *testing.T) {
	fx := newGroupFixture(t)
	fx.group.MaxMembers = 1
	fx.group.CurrentMembers = 1

	if _, err := fx.svc.Join(context.Background(), fx.userID, fx.group.ID); !errors.Is(err, ErrGroupFull) {
		t.Errorf("error = %v, want ErrGroupFull", err)
	}
}

func TestLeaveRecomputesCount(t *testing.T) {
	fx := newGroupFixture(t)
	ctx := context.Background()
	fx.activateMember(t, fx.userID)
	fx.group.CurrentMembers = 1

	if err := fx.svc.Leave(ctx, fx.userID, fx.group.ID); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if fx.group.CurrentMembers != 0 {
		t.Errorf("CurrentMembers = %d, want 0 after leave", fx.group.CurrentMembers)
	}

	if err := fx.svc.Leave(ctx, fx.userID, fx.group.ID); !errors.Is(err, ErrMembershipNotFound) {
		t.Errorf("second leave error = %v, want ErrMembershipNotFound", err)
	}
}

func TestUpdateAttendanceFlow(t *testing.T) {
	fx := newGroupFixture(t)
	ctx := context.Background()
	fx.activateMember(t, fx.userID)

	detail, err := fx.svc.UpdateAttendance(ctx, fx.userID, fx.session.ID, domain.AttendanceConfirmed)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if detail.UserAttendanceStatus != domain.AttendanceConfirmed {
		t.Errorf("UserAttendanceStatus = %s, want Confirmed", detail.UserAttendanceStatus)
	}
	if detail.ConfirmedCount != 1 {
		t.Errorf("ConfirmedCount = %d, want 1", detail.ConfirmedCount)
	}

	// Changing the answer moves the aggregate, not just adds to it.
	detail, err = fx.svc.UpdateAttendance(ctx, fx.userID, fx.session.ID, domain.AttendanceMaybe)
	if err != nil {
		t.Fatalf("change to maybe: %v", err)
	}
	if detail.ConfirmedCount != 0 || detail.MaybeCount != 1 {
		t.Errorf("counts = confirmed %d maybe %d, want 0/1", detail.ConfirmedCount, detail.MaybeCount)
	}
}

func TestUpdateAttendancePropagatesLookupFailure(t *testing.T) {
	fx := newGroupFixture(t)
	ctx := context.Background()
	fx.activateMember(t, fx.userID)

	// A broken attendance lookup must surface, not read as "no RSVP yet".
	lookupErr := errors.New("connection reset")
	fx.attRepo.getErr = lookupErr

	_, err := fx.svc.UpdateAttendance(ctx, fx.userID, fx.session.ID, domain.AttendanceConfirmed)
	if !errors.Is(err, lookupErr) {
		t.Errorf("UpdateAttendance error = %v, want lookup failure", err)
	}
	if len(fx.attRepo.records) != 0 {
		t.Error("attendance was written despite the failed lookup")
	}

	_, err = fx.svc.CompleteSession(ctx, fx.userID, fx.session.ID, domain.CompletionRecord{ActualDurationMinutes: 40})
	if !errors.Is(err, lookupErr) {
		t.Errorf("CompleteSession error = %v, want lookup failure", err)
	}
}

func TestUpdateAttendanceRequiresMembership(t *testing.T) {
	fx := newGroupFixture(t)

	_, err := fx.svc.UpdateAttendance(context.Background(), fx.userID, fx.session.ID, domain.AttendanceConfirmed)
	if !errors.Is(err, ErrNotGroupMember) {
		t.Errorf("error = %v, want ErrNotGroupMember", err)
	}
}

func TestUpdateAttendanceRejectsPendingMember(t *testing.T) {
	fx := newGroupFixture(t)
	ctx := context.Background()
	if _, err := fx.svc.Join(ctx, fx.userID, fx.group.ID); err != nil {
		t.Fatalf("join: %v", err)
	}

	_, err := fx.svc.UpdateAttendance(ctx, fx.userID, fx.session.ID, domain.AttendanceConfirmed)
	if !errors.Is(err, ErrNotGroupMember) {
		t.Errorf("error = %v, want ErrNotGroupMember for pending member", err)
	}
}

func TestCompleteSessionFlow(t *testing.T) {
	fx := newGroupFixture(t)
	ctx := context.Background()
	fx.activateMember(t, fx.userID)

	// Confirm while the session is in the future.
	if _, err := fx.svc.UpdateAttendance(ctx, fx.userID, fx.session.ID, domain.AttendanceConfirmed); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	// Completing before the session has happened is rejected.
	rec := domain.CompletionRecord{ActualDurationMinutes: 60}
	if _, err := fx.svc.CompleteSession(ctx, fx.userID, fx.session.ID, rec); err == nil {
		t.Fatal("expected error completing a future session")
	}

	// Move time past the session.
	fx.svc.now = func() time.Time { return fx.session.ScheduledDate.Add(2 * time.Hour) }

	detail, err := fx.svc.CompleteSession(ctx, fx.userID, fx.session.ID, rec)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if detail.UserAttendanceStatus != domain.AttendanceCompleted {
		t.Errorf("UserAttendanceStatus = %s, want Completed", detail.UserAttendanceStatus)
	}
	if detail.ConfirmedCount != 0 {
		t.Errorf("ConfirmedCount = %d, want 0 after completion", detail.ConfirmedCount)
	}

	att, err := fx.attRepo.GetBySessionAndUser(ctx, fx.session.ID, fx.userID)
	if err != nil {
		t.Fatalf("attendance record: %v", err)
	}
	if att.Completion == nil || att.Completion.ActualDurationMinutes != 60 {
		t.Errorf("completion record not stored: %+v", att)
	}
}

func TestCancelSessionFreezesAttendance(t *testing.T) {
	fx := newGroupFixture(t)
	ctx := context.Background()
	fx.activateMember(t, fx.userID)

	session, err := fx.svc.CancelSession(ctx, fx.coachID, fx.session.ID, "weather")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !session.IsCancelled || session.CancelReason != "weather" {
		t.Errorf("cancel not recorded: %+v", session)
	}

	if _, err := fx.svc.UpdateAttendance(ctx, fx.userID, fx.session.ID, domain.AttendanceConfirmed); err == nil {
		t.Error("expected RSVP on cancelled session to fail")
	}

	if _, err := fx.svc.CancelSession(ctx, fx.coachID, fx.session.ID, "again"); err == nil {
		t.Error("expected second cancel to fail")
	}
}

func TestCancelSessionRequiresOwningCoach(t *testing.T) {
	fx := newGroupFixture(t)

	_, err := fx.svc.CancelSession(context.Background(), primitive.NewObjectID(), fx.session.ID, "")
	if !errors.Is(err, ErrGroupAccessDenied) {
		t.Errorf("error = %v, want ErrGroupAccessDenied", err)
	}
}

func TestGetSessionDetailUnsetByDefault(t *testing.T) {
	fx := newGroupFixture(t)

	detail, err := fx.svc.GetSessionDetail(context.Background(), fx.userID, fx.session.ID)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail.UserAttendanceStatus != domain.AttendanceUnset {
		t.Errorf("UserAttendanceStatus = %s, want Unset with no record", detail.UserAttendanceStatus)
	}
}
