package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"trainmate/platform/internal/domain"
	"trainmate/platform/internal/repository"
	"trainmate/platform/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// --- Error Definitions ---
var (
	ErrCoachNotFound         = errors.New("coach not found")
	ErrCoachProfileNotFound  = errors.New("coach profile not found")
	ErrCoachProfileExists    = errors.New("coach profile already exists")
	ErrRelationshipNotFound  = errors.New("coaching relationship not found")
	ErrRelationshipForbidden = errors.New("user is not a party to this coaching relationship")
	ErrDuplicateCoachingReq  = errors.New("an open coaching request or relationship already exists with this coach")
	ErrCannotCoachSelf       = errors.New("a coach cannot request coaching from themselves")
	ErrUploadURLGeneration   = errors.New("failed to generate upload URL")
)

// CoachListing is a marketplace entry: profile, identity and live stats.
type CoachListing struct {
	domain.CoachProfile
	FirstName string            `json:"firstName"`
	LastName  string            `json:"lastName"`
	AvatarURL string            `json:"avatarUrl,omitempty"`
	Stats     domain.CoachStats `json:"stats"`
}

// RelationshipDetail is a coaching relationship with the counterparty's
// name resolved for display.
type RelationshipDetail struct {
	domain.CoachingRelationship
	CounterpartFirstName string `json:"counterpartFirstName"`
	CounterpartLastName  string `json:"counterpartLastName"`
}

// UploadTarget carries a presigned PUT URL and the object key the client
// should report back after uploading.
type UploadTarget struct {
	URL       string `json:"url"`
	ObjectKey string `json:"objectKey"`
}

// --- Service Interface ---
type CoachService interface {
	// Marketplace & profiles
	ListCoaches(ctx context.Context, specialty string) ([]CoachListing, error)
	GetCoachListing(ctx context.Context, coachUserID primitive.ObjectID) (*CoachListing, error)
	GetMyProfile(ctx context.Context, coachUserID primitive.ObjectID) (*domain.CoachProfile, error)
	CreateMyProfile(ctx context.Context, coachUserID primitive.ObjectID, profile *domain.CoachProfile) (*domain.CoachProfile, error)
	UpdateMyProfile(ctx context.Context, coachUserID primitive.ObjectID, updated *domain.CoachProfile) (*domain.CoachProfile, error)
	RequestAvatarUploadURL(ctx context.Context, coachUserID primitive.ObjectID, contentType string) (*UploadTarget, error)
	ConfirmAvatarUpload(ctx context.Context, coachUserID primitive.ObjectID, objectKey string) (*domain.CoachProfile, error)

	// Relationships
	RequestCoaching(ctx context.Context, athleteID, coachUserID primitive.ObjectID, ctype domain.CoachingType, message string) (*domain.CoachingRelationship, error)
	RespondToRequest(ctx context.Context, coachUserID, relationshipID primitive.ObjectID, accept bool, agreedRate *float64) (*domain.CoachingRelationship, error)
	EndCoaching(ctx context.Context, callerID, relationshipID primitive.ObjectID) (*domain.CoachingRelationship, error)
	GetMyAthletes(ctx context.Context, coachUserID primitive.ObjectID) ([]RelationshipDetail, error)
	GetMyCoaches(ctx context.Context, athleteID primitive.ObjectID) ([]RelationshipDetail, error)
}

// --- Service Implementation ---

type coachService struct {
	profileRepo  repository.CoachProfileRepository
	coachingRepo repository.CoachingRepository
	groupRepo    repository.GroupRepository
	userRepo     repository.UserRepository
	fileStorage  storage.FileStorage
	now          func() time.Time
}

// NewCoachService creates a new instance of coachService.
func NewCoachService(
	profileRepo repository.CoachProfileRepository,
	coachingRepo repository.CoachingRepository,
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
	fileStorage storage.FileStorage,
) CoachService {
	return &coachService{
		profileRepo:  profileRepo,
		coachingRepo: coachingRepo,
		groupRepo:    groupRepo,
		userRepo:     userRepo,
		fileStorage:  fileStorage,
		now:          time.Now,
	}
}

// === Marketplace & profiles ===

// ListCoaches builds the marketplace. Stats for all listed coaches are
// computed concurrently; one slow aggregate should not serialize the page.
func (s *coachService) ListCoaches(ctx context.Context, specialty string) ([]CoachListing, error) {
	profiles, err := s.profileRepo.List(ctx, specialty)
	if err != nil {
		return nil, err
	}

	listings := make([]CoachListing, len(profiles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i := range profiles {
		i := i
		g.Go(func() error {
			listing, err := s.buildListing(gctx, &profiles[i])
			if err != nil {
				return err
			}
			listings[i] = *listing
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return listings, nil
}

func (s *coachService) GetCoachListing(ctx context.Context, coachUserID primitive.ObjectID) (*CoachListing, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, coachUserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCoachNotFound
		}
		return nil, err
	}
	return s.buildListing(ctx, profile)
}

// GetMyProfile returns the caller's own coach profile. A missing profile is
// a distinct condition from a missing user: new coaches have none until they
// create it.
func (s *coachService) GetMyProfile(ctx context.Context, coachUserID primitive.ObjectID) (*domain.CoachProfile, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, coachUserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCoachProfileNotFound
		}
		return nil, err
	}
	return profile, nil
}

func (s *coachService) CreateMyProfile(ctx context.Context, coachUserID primitive.ObjectID, profile *domain.CoachProfile) (*domain.CoachProfile, error) {
	if err := validateCoachRates(profile); err != nil {
		return nil, err
	}

	profile.UserID = coachUserID
	profileID, err := s.profileRepo.Create(ctx, profile)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrCoachProfileExists
		}
		return nil, err
	}
	profile.ID = profileID
	return profile, nil
}

func (s *coachService) UpdateMyProfile(ctx context.Context, coachUserID primitive.ObjectID, updated *domain.CoachProfile) (*domain.CoachProfile, error) {
	if err := validateCoachRates(updated); err != nil {
		return nil, err
	}

	profile, err := s.GetMyProfile(ctx, coachUserID)
	if err != nil {
		return nil, err
	}

	profile.Bio = updated.Bio
	profile.Specialties = updated.Specialties
	profile.YearsExperience = updated.YearsExperience
	profile.MonthlyRate = updated.MonthlyRate
	profile.SessionRate = updated.SessionRate

	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// RequestAvatarUploadURL issues a presigned PUT URL for a fresh object key.
// The client uploads directly to storage and then confirms the key.
func (s *coachService) RequestAvatarUploadURL(ctx context.Context, coachUserID primitive.ObjectID, contentType string) (*UploadTarget, error) {
	if contentType == "" {
		contentType = "image/jpeg"
	}

	objectKey := fmt.Sprintf("avatars/%s/%s", coachUserID.Hex(), uuid.NewString())
	url, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		log.Printf("ERROR: generating avatar upload URL for coach %s: %v", coachUserID.Hex(), err)
		return nil, ErrUploadURLGeneration
	}
	return &UploadTarget{URL: url, ObjectKey: objectKey}, nil
}

// ConfirmAvatarUpload records the uploaded object key on the profile and
// deletes the previous avatar object, if any.
func (s *coachService) ConfirmAvatarUpload(ctx context.Context, coachUserID primitive.ObjectID, objectKey string) (*domain.CoachProfile, error) {
	if objectKey == "" {
		return nil, domain.ValidationError("objectKey is required")
	}

	profile, err := s.GetMyProfile(ctx, coachUserID)
	if err != nil {
		return nil, err
	}

	oldKey := profile.AvatarObjectKey
	profile.AvatarObjectKey = objectKey
	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, err
	}

	if oldKey != "" && oldKey != objectKey {
		if err := s.fileStorage.DeleteObject(ctx, oldKey); err != nil {
			log.Printf("WARN: failed to delete replaced avatar object %s: %v", oldKey, err)
		}
	}
	return profile, nil
}

// === Relationships ===

// RequestCoaching files a Pending request. At most one open (Pending or
// Active) relationship may exist per athlete/coach pair; terminal pairs may
// request again.
func (s *coachService) RequestCoaching(ctx context.Context, athleteID, coachUserID primitive.ObjectID, ctype domain.CoachingType, message string) (*domain.CoachingRelationship, error) {
	if athleteID == coachUserID {
		return nil, ErrCannotCoachSelf
	}
	switch ctype {
	case domain.CoachingFree, domain.CoachingPerSession, domain.CoachingMonthly:
	default:
		return nil, domain.ValidationError("invalid coaching type")
	}

	if _, err := s.profileRepo.GetByUserID(ctx, coachUserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCoachNotFound
		}
		return nil, err
	}

	open, err := s.coachingRepo.GetOpenByPair(ctx, athleteID, coachUserID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if open != nil {
		return nil, ErrDuplicateCoachingReq
	}

	rel := &domain.CoachingRelationship{
		AthleteID:   athleteID,
		CoachID:     coachUserID,
		Type:        ctype,
		Status:      domain.RelationshipPending,
		Message:     message,
		RequestedAt: s.now().UTC(),
	}
	relID, err := s.coachingRepo.Create(ctx, rel)
	if err != nil {
		return nil, err
	}
	rel.ID = relID
	return rel, nil
}

// RespondToRequest approves or rejects a pending request. Only the coach
// named on the relationship may respond.
func (s *coachService) RespondToRequest(ctx context.Context, coachUserID, relationshipID primitive.ObjectID, accept bool, agreedRate *float64) (*domain.CoachingRelationship, error) {
	rel, err := s.relationship(ctx, relationshipID)
	if err != nil {
		return nil, err
	}
	if rel.CoachID != coachUserID {
		return nil, ErrRelationshipForbidden
	}

	now := s.now().UTC()
	if accept {
		err = rel.Approve(agreedRate, now)
	} else {
		err = rel.Reject(now)
	}
	if err != nil {
		return nil, err
	}

	if err := s.coachingRepo.Update(ctx, rel); err != nil {
		return nil, err
	}
	return rel, nil
}

// EndCoaching terminates an Active relationship. Either party may end it.
func (s *coachService) EndCoaching(ctx context.Context, callerID, relationshipID primitive.ObjectID) (*domain.CoachingRelationship, error) {
	rel, err := s.relationship(ctx, relationshipID)
	if err != nil {
		return nil, err
	}
	if rel.CoachID != callerID && rel.AthleteID != callerID {
		return nil, ErrRelationshipForbidden
	}

	if err := rel.End(s.now().UTC()); err != nil {
		return nil, err
	}
	if err := s.coachingRepo.Update(ctx, rel); err != nil {
		return nil, err
	}
	return rel, nil
}

// GetMyAthletes lists the coach's relationships with athlete names resolved.
func (s *coachService) GetMyAthletes(ctx context.Context, coachUserID primitive.ObjectID) ([]RelationshipDetail, error) {
	rels, err := s.coachingRepo.GetByCoachID(ctx, coachUserID)
	if err != nil {
		return nil, err
	}
	return s.withCounterparts(ctx, rels, func(r domain.CoachingRelationship) primitive.ObjectID {
		return r.AthleteID
	})
}

// GetMyCoaches lists the athlete's relationships with coach names resolved.
func (s *coachService) GetMyCoaches(ctx context.Context, athleteID primitive.ObjectID) ([]RelationshipDetail, error) {
	rels, err := s.coachingRepo.GetByAthleteID(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	return s.withCounterparts(ctx, rels, func(r domain.CoachingRelationship) primitive.ObjectID {
		return r.CoachID
	})
}

// === Helpers ===

func validateCoachRates(profile *domain.CoachProfile) error {
	if profile.MonthlyRate != nil && *profile.MonthlyRate <= 0 {
		return domain.ValidationError("monthlyRate must be positive when set")
	}
	if profile.SessionRate != nil && *profile.SessionRate <= 0 {
		return domain.ValidationError("sessionRate must be positive when set")
	}
	if profile.YearsExperience < 0 {
		return domain.ValidationError("yearsExperience cannot be negative")
	}
	return nil
}

func (s *coachService) relationship(ctx context.Context, id primitive.ObjectID) (*domain.CoachingRelationship, error) {
	rel, err := s.coachingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRelationshipNotFound
		}
		return nil, err
	}
	return rel, nil
}

// buildListing assembles one marketplace entry: identity, presigned avatar
// URL and live stats fetched concurrently.
func (s *coachService) buildListing(ctx context.Context, profile *domain.CoachProfile) (*CoachListing, error) {
	listing := &CoachListing{CoachProfile: *profile}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		user, err := s.userRepo.GetByID(gctx, profile.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil // Orphaned profile; list without a name
			}
			return err
		}
		listing.FirstName = user.FirstName
		listing.LastName = user.LastName
		return nil
	})
	g.Go(func() error {
		count, err := s.coachingRepo.CountActiveByCoach(gctx, profile.UserID)
		if err != nil {
			return err
		}
		listing.Stats.TotalAthletes = count
		return nil
	})
	g.Go(func() error {
		groups, err := s.groupRepo.GetByCoachID(gctx, profile.UserID)
		if err != nil {
			return err
		}
		listing.Stats.TotalGroups = len(groups)
		return nil
	})
	if profile.AvatarObjectKey != "" {
		g.Go(func() error {
			url, err := s.fileStorage.GeneratePresignedDownloadURL(gctx, profile.AvatarObjectKey, storage.DefaultPresignedURLExpiry)
			if err != nil {
				log.Printf("WARN: presigning avatar for coach %s: %v", profile.UserID.Hex(), err)
				return nil // Listing is still useful without the avatar
			}
			listing.AvatarURL = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return listing, nil
}

func (s *coachService) withCounterparts(ctx context.Context, rels []domain.CoachingRelationship, counterpart func(domain.CoachingRelationship) primitive.ObjectID) ([]RelationshipDetail, error) {
	ids := make([]primitive.ObjectID, len(rels))
	for i, r := range rels {
		ids[i] = counterpart(r)
	}
	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	details := make([]RelationshipDetail, len(rels))
	for i, r := range rels {
		details[i] = RelationshipDetail{CoachingRelationship: r}
		if u, ok := byID[counterpart(r)]; ok {
			details[i].CounterpartFirstName = u.FirstName
			details[i].CounterpartLastName = u.LastName
		}
	}
	return details, nil
}
