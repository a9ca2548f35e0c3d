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

type fakeCoachProfileRepo struct {
	profiles map[primitive.ObjectID]*domain.CoachProfile // keyed by user ID
}

func (f *fakeCoachProfileRepo) Create(_ context.Context, p *domain.CoachProfile) (primitive.ObjectID, error) {
	if _, ok := f.profiles[p.UserID]; ok {
		return primitive.NilObjectID, repository.ErrDuplicate
	}
	p.ID = primitive.NewObjectID()
	f.profiles[p.UserID] = p
	return p.ID, nil
}

func (f *fakeCoachProfileRepo) GetByUserID(_ context.Context, userID primitive.ObjectID) (*domain.CoachProfile, error) {
	if p, ok := f.profiles[userID]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCoachProfileRepo) List(_ context.Context, specialty string) ([]domain.CoachProfile, error) {
	var out []domain.CoachProfile
	for _, p := range f.profiles {
		if specialty != "" {
			match := false
			for _, s := range p.Specialties {
				if s == specialty {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeCoachProfileRepo) Update(_ context.Context, p *domain.CoachProfile) error {
	f.profiles[p.UserID] = p
	return nil
}

type fakeCoachingRepo struct {
	rels map[primitive.ObjectID]*domain.CoachingRelationship
}

func (f *fakeCoachingRepo) Create(_ context.Context, r *domain.CoachingRelationship) (primitive.ObjectID, error) {
	r.ID = primitive.NewObjectID()
	f.rels[r.ID] = r
	return r.ID, nil
}

func (f *fakeCoachingRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.CoachingRelationship, error) {
	if r, ok := f.rels[id]; ok {
		return r, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCoachingRepo) GetByCoachID(_ context.Context, coachID primitive.ObjectID) ([]domain.CoachingRelationship, error) {
	var out []domain.CoachingRelationship
	for _, r := range f.rels {
		if r.CoachID == coachID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeCoachingRepo) GetByAthleteID(_ context.Context, athleteID primitive.ObjectID) ([]domain.CoachingRelationship, error) {
	var out []domain.CoachingRelationship
	for _, r := range f.rels {
		if r.AthleteID == athleteID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeCoachingRepo) GetOpenByPair(_ context.Context, athleteID, coachID primitive.ObjectID) (*domain.CoachingRelationship, error) {
	for _, r := range f.rels {
		if r.AthleteID == athleteID && r.CoachID == coachID &&
			(r.Status == domain.RelationshipPending || r.Status == domain.RelationshipActive) {
			return r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCoachingRepo) CountActiveByCoach(_ context.Context, coachID primitive.ObjectID) (int, error) {
	count := 0
	for _, r := range f.rels {
		if r.CoachID == coachID && r.Status == domain.RelationshipActive {
			count++
		}
	}
	return count, nil
}

func (f *fakeCoachingRepo) Update(_ context.Context, r *domain.CoachingRelationship) error {
	f.rels[r.ID] = r
	return nil
}

type fakeFileStorage struct{}

func (fakeFileStorage) GeneratePresignedUploadURL(_ context.Context, objectKey, _ string, _ time.Duration) (string, error) {
	return "https://storage.test/upload/" + objectKey, nil
}

func (fakeFileStorage) GeneratePresignedDownloadURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://storage.test/get/" + objectKey, nil
}

func (fakeFileStorage) DeleteObject(_ context.Context, _ string) error { return nil }

// --- Fixture ---

type coachFixture struct {
	svc          *coachService
	profileRepo  *fakeCoachProfileRepo
	coachingRepo *fakeCoachingRepo
	userRepo     *fakeUserRepo

	coachID   primitive.ObjectID
	athleteID primitive.ObjectID
}

func newCoachFixture(t *testing.T) *coachFixture {
	t.Helper()
	fx := &coachFixture{
		profileRepo:  &fakeCoachProfileRepo{profiles: map[primitive.ObjectID]*domain.CoachProfile{}},
		coachingRepo: &fakeCoachingRepo{rels: map[primitive.ObjectID]*domain.CoachingRelationship{}},
		userRepo:     &fakeUserRepo{users: map[primitive.ObjectID]*domain.User{}},
		coachID:      primitive.NewObjectID(),
		athleteID:    primitive.NewObjectID(),
	}
	fx.userRepo.users[fx.coachID] = &domain.User{ID: fx.coachID, FirstName: "Casey", LastName: "Hill", Role: domain.RoleCoach}
	fx.userRepo.users[fx.athleteID] = &domain.User{ID: fx.athleteID, FirstName: "Alex", LastName: "Reed", Role: domain.RoleAthlete}
	fx.profileRepo.profiles[fx.coachID] = &domain.CoachProfile{
		ID:     primitive.NewObjectID(),
		UserID: fx.coachID,
		Bio:    "Distance running",
	}

	groupRepo := newFakeGroupRepo()
	fx.svc = NewCoachService(fx.profileRepo, fx.coachingRepo, groupRepo, fx.userRepo, fakeFileStorage{}).(*coachService)
	return fx
}

// --- Tests ---

func TestRequestCoachingLifecycle(t *testing.T) {
	fx := newCoachFixture(t)
	ctx := context.Background()
	rate := 90.0

	rel, err := fx.svc.RequestCoaching(ctx, fx.athleteID, fx.coachID, domain.CoachingMonthly, "help me train")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if rel.Status != domain.RelationshipPending {
		t.Errorf("status = %s, want Pending", rel.Status)
	}

	// A second open request for the same pair is rejected.
	if _, err := fx.svc.RequestCoaching(ctx, fx.athleteID, fx.coachID, domain.CoachingFree, ""); !errors.Is(err, ErrDuplicateCoachingReq) {
		t.Errorf("duplicate request error = %v, want ErrDuplicateCoachingReq", err)
	}

	approved, err := fx.svc.RespondToRequest(ctx, fx.coachID, rel.ID, true, &rate)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != domain.RelationshipActive || approved.AgreedRate == nil || *approved.AgreedRate != rate {
		t.Errorf("approved = %+v, want Active at rate %v", approved, rate)
	}

	ended, err := fx.svc.EndCoaching(ctx, fx.athleteID, rel.ID)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if ended.Status != domain.RelationshipEnded {
		t.Errorf("status = %s, want Ended", ended.Status)
	}

	// The pair may start over once the relationship is terminal.
	if _, err := fx.svc.RequestCoaching(ctx, fx.athleteID, fx.coachID, domain.CoachingFree, ""); err != nil {
		t.Errorf("re-request after ended: %v", err)
	}
}

func TestRespondToRequestOnlyNamedCoach(t *testing.T) {
	fx := newCoachFixture(t)
	ctx := context.Background()

	rel, err := fx.svc.RequestCoaching(ctx, fx.athleteID, fx.coachID, domain.CoachingFree, "")
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	stranger := primitive.NewObjectID()
	if _, err := fx.svc.RespondToRequest(ctx, stranger, rel.ID, true, nil); !errors.Is(err, ErrRelationshipForbidden) {
		t.Errorf("error = %v, want ErrRelationshipForbidden", err)
	}
}

func TestRequestCoachingValidation(t *testing.T) {
	fx := newCoachFixture(t)
	ctx := context.Background()

	if _, err := fx.svc.RequestCoaching(ctx, fx.coachID, fx.coachID, domain.CoachingFree, ""); !errors.Is(err, ErrCannotCoachSelf) {
		t.Errorf("self request error = %v, want ErrCannotCoachSelf", err)
	}

	noProfile := primitive.NewObjectID()
	if _, err := fx.svc.RequestCoaching(ctx, fx.athleteID, noProfile, domain.CoachingFree, ""); !errors.Is(err, ErrCoachNotFound) {
		t.Errorf("unknown coach error = %v, want ErrCoachNotFound", err)
	}

	if _, err := fx.svc.RequestCoaching(ctx, fx.athleteID, fx.coachID, domain.CoachingType("Hourly"), ""); err == nil {
		t.Error("expected error for invalid coaching type")
	}
}

func TestEndCoachingOnlyParties(t *testing.T) {
	fx := newCoachFixture(t)
	ctx := context.Background()

	rel, err := fx.svc.RequestCoaching(ctx, fx.athleteID, fx.coachID, domain.CoachingFree, "")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := fx.svc.RespondToRequest(ctx, fx.coachID, rel.ID, true, nil); err != nil {
		t.Fatalf("approve: %v", err)
	}

	stranger := primitive.NewObjectID()
	if _, err := fx.svc.EndCoaching(ctx, stranger, rel.ID); !errors.Is(err, ErrRelationshipForbidden) {
		t.Errorf("error = %v, want ErrRelationshipForbidden", err)
	}
}

func TestGetMyProfileMissing(t *testing.T) {
	fx := newCoachFixture(t)

	_, err := fx.svc.GetMyProfile(context.Background(), primitive.NewObjectID())
	if !errors.Is(err, ErrCoachProfileNotFound) {
		t.Errorf("error = %v, want ErrCoachProfileNotFound", err)
	}
}

func TestListCoachesBuildsStats(t *testing.T) {
	fx := newCoachFixture(t)
	ctx := context.Background()

	// One active athlete for the coach.
	rel, err := fx.svc.RequestCoaching(ctx, fx.athleteID, fx.coachID, domain.CoachingFree, "")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := fx.svc.RespondToRequest(ctx, fx.coachID, rel.ID, true, nil); err != nil {
		t.Fatalf("approve: %v", err)
	}

	listings, err := fx.svc.ListCoaches(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("got %d listings, want 1", len(listings))
	}
	l := listings[0]
	if l.FirstName != "Casey" || l.LastName != "Hill" {
		t.Errorf("name = %s %s, want Casey Hill", l.FirstName, l.LastName)
	}
	if l.Stats.TotalAthletes != 1 {
		t.Errorf("TotalAthletes = %d, want 1", l.Stats.TotalAthletes)
	}
}

func TestConfirmAvatarUpload(t *testing.T) {
	fx := newCoachFixture(t)
	ctx := context.Background()

	target, err := fx.svc.RequestAvatarUploadURL(ctx, fx.coachID, "image/png")
	if err != nil {
		t.Fatalf("upload url: %v", err)
	}
	if target.URL == "" || target.ObjectKey == "" {
		t.Fatalf("incomplete upload target: %+v", target)
	}

	profile, err := fx.svc.ConfirmAvatarUpload(ctx, fx.coachID, target.ObjectKey)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if profile.AvatarObjectKey != target.ObjectKey {
		t.Errorf("AvatarObjectKey = %s, want %s", profile.AvatarObjectKey, target.ObjectKey)
	}
}
