package service

import (
	"context"
	"errors"

	"trainmate/platform/internal/domain"
	"trainmate/platform/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrUserNotFound = errors.New("user not found")
)

// --- Service Interface ---
type ProfileService interface {
	GetProfile(ctx context.Context, userID primitive.ObjectID) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID primitive.ObjectID, profile *domain.AthleteProfile) (*domain.User, error)
	// GetSuggestions returns catalog plans matching the athlete's primary
	// sport and level, for the post-onboarding recommendation screen.
	GetSuggestions(ctx context.Context, userID primitive.ObjectID) ([]domain.TrainingPlan, error)
}

// --- Service Implementation ---

type profileService struct {
	userRepo repository.UserRepository
	planRepo repository.TrainingPlanRepository
}

// NewProfileService creates a new instance of profileService.
func NewProfileService(userRepo repository.UserRepository, planRepo repository.TrainingPlanRepository) ProfileService {
	return &profileService{
		userRepo: userRepo,
		planRepo: planRepo,
	}
}

// GetProfile retrieves the user with their athlete profile.
func (s *profileService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// UpdateProfile replaces the athlete profile (onboarding and edits).
func (s *profileService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, profile *domain.AthleteProfile) (*domain.User, error) {
	if profile == nil {
		return nil, errors.New("profile is required")
	}

	if err := s.userRepo.UpdateProfile(ctx, userID, profile); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return s.GetProfile(ctx, userID)
}

// GetSuggestions matches the catalog against the athlete's sport and level.
// A user without a completed profile gets the unfiltered catalog.
func (s *profileService) GetSuggestions(ctx context.Context, userID primitive.ObjectID) ([]domain.TrainingPlan, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	filter := repository.PlanFilter{}
	if user.Profile != nil {
		filter.Sport = user.Profile.PrimarySport
		filter.Level = user.Profile.Level
	}
	return s.planRepo.List(ctx, filter)
}
