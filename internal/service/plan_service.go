package service

import (
	"context"
	"errors"
	"time"

	"trainmate/platform/internal/calendar"
	"trainmate/platform/internal/domain"
	"trainmate/platform/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrPlanNotFound     = errors.New("training plan not found")
	ErrUserPlanNotFound = errors.New("plan assignment not found")
	ErrStartDateInPast  = errors.New("start date cannot be in the past")
)

// ActivePlanView is the user's active plan enriched with the derived
// progress figures the dashboard renders.
type ActivePlanView struct {
	domain.UserPlan
	CurrentWeek    int     `json:"currentWeek"`
	CompletionRate float64 `json:"completionRate"`
}

// --- Service Interface ---
type PlanService interface {
	// Catalog
	ListPlans(ctx context.Context, filter repository.PlanFilter) ([]domain.TrainingPlan, error)
	GetPlan(ctx context.Context, id primitive.ObjectID) (*domain.TrainingPlan, error)

	// Assignment
	AssignPlan(ctx context.Context, userID, planID primitive.ObjectID, startDate time.Time) (*domain.UserPlan, error)
	GetMyPlans(ctx context.Context, userID primitive.ObjectID) ([]domain.UserPlan, error)
	GetActivePlan(ctx context.Context, userID primitive.ObjectID) (*ActivePlanView, error)
}

// --- Service Implementation ---

type planService struct {
	planRepo     repository.TrainingPlanRepository
	userPlanRepo repository.UserPlanRepository
	sessionRepo  repository.SessionRepository
	now          func() time.Time
}

// NewPlanService creates a new instance of planService.
func NewPlanService(
	planRepo repository.TrainingPlanRepository,
	userPlanRepo repository.UserPlanRepository,
	sessionRepo repository.SessionRepository,
) PlanService {
	return &planService{
		planRepo:     planRepo,
		userPlanRepo: userPlanRepo,
		sessionRepo:  sessionRepo,
		now:          time.Now,
	}
}

// === Catalog ===

func (s *planService) ListPlans(ctx context.Context, filter repository.PlanFilter) ([]domain.TrainingPlan, error) {
	return s.planRepo.List(ctx, filter)
}

func (s *planService) GetPlan(ctx context.Context, id primitive.ObjectID) (*domain.TrainingPlan, error) {
	plan, err := s.planRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

// === Assignment ===

// AssignPlan materializes a UserPlan and one concrete Session per template
// entry, scheduled at startDate + (weekNumber-1)*7 + dayOfWeek days. If
// another plan is still active it is archived first so the dashboard's
// single-active-plan assumption holds.
func (s *planService) AssignPlan(ctx context.Context, userID, planID primitive.ObjectID, startDate time.Time) (*domain.UserPlan, error) {
	if userID == primitive.NilObjectID || planID == primitive.NilObjectID {
		return nil, errors.New("user ID and plan ID are required")
	}

	// Sessions are scheduled at day granularity; any submitted time-of-day
	// would leak into every materialized session and break day-range queries.
	startDate = calendar.StartOfDay(startDate)

	// Day-granularity check: starting today is allowed, yesterday is not.
	if calendar.DayKey(startDate) < calendar.DayKey(s.now()) {
		return nil, ErrStartDateInPast
	}

	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	// Archive a previously active plan, if any.
	if prev, err := s.userPlanRepo.GetActiveByUserID(ctx, userID); err == nil {
		prev.Status = domain.UserPlanCompleted
		if err := s.userPlanRepo.Update(ctx, prev); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	userPlan := &domain.UserPlan{
		UserID:         userID,
		TrainingPlanID: plan.ID,
		PlanName:       plan.Name,
		DurationWeeks:  plan.DurationWeeks,
		StartDate:      startDate,
		Status:         domain.UserPlanActive,
	}
	userPlanID, err := s.userPlanRepo.Create(ctx, userPlan)
	if err != nil {
		return nil, err
	}
	userPlan.ID = userPlanID

	sessions := expandPlan(plan, userPlan, startDate)
	if err := s.sessionRepo.CreateMany(ctx, sessions); err != nil {
		return nil, err
	}

	return userPlan, nil
}

// expandPlan turns every templated session of every plan week into a
// concrete, dated Session in Planned status.
func expandPlan(plan *domain.TrainingPlan, userPlan *domain.UserPlan, startDate time.Time) []domain.Session {
	var sessions []domain.Session
	for _, week := range plan.Weeks {
		for _, tmpl := range week.Sessions {
			offset := (week.WeekNumber-1)*7 + tmpl.DayOfWeek
			sessions = append(sessions, domain.Session{
				UserID:          userPlan.UserID,
				UserPlanID:      &userPlan.ID,
				Name:            tmpl.Name,
				Type:            tmpl.Type,
				ScheduledDate:   startDate.AddDate(0, 0, offset),
				DurationMinutes: tmpl.DurationMinutes,
				DistanceKm:      tmpl.DistanceKm,
				Intensity:       tmpl.Intensity,
				Instructions:    tmpl.Instructions,
				Status:          domain.SessionPlanned,
			})
		}
	}
	return sessions
}

func (s *planService) GetMyPlans(ctx context.Context, userID primitive.ObjectID) ([]domain.UserPlan, error) {
	return s.userPlanRepo.GetByUserID(ctx, userID)
}

// GetActivePlan returns the active assignment with its derived current week
// and completion rate over the sessions scheduled so far.
func (s *planService) GetActivePlan(ctx context.Context, userID primitive.ObjectID) (*ActivePlanView, error) {
	userPlan, err := s.userPlanRepo.GetActiveByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserPlanNotFound
		}
		return nil, err
	}

	sessions, err := s.sessionRepo.GetByUserPlanID(ctx, userPlan.ID)
	if err != nil {
		return nil, err
	}

	today := s.now()
	return &ActivePlanView{
		UserPlan:       *userPlan,
		CurrentWeek:    userPlan.CurrentWeek(today),
		CompletionRate: calendar.CompletionRate(sessions, today),
	}, nil
}
