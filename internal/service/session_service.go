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
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionAccessDenied = errors.New("session does not belong to this user")
)

// --- Service Interface ---
type SessionService interface {
	GetCalendar(ctx context.Context, userID primitive.ObjectID, start, end time.Time) ([]domain.Session, error)
	GetWeekSummary(ctx context.Context, userID primitive.ObjectID, weekStart time.Time) (calendar.Summary, error)
	Complete(ctx context.Context, userID, sessionID primitive.ObjectID, rec domain.CompletionRecord) (*domain.Session, error)
	Skip(ctx context.Context, userID, sessionID primitive.ObjectID) (*domain.Session, error)
}

// --- Service Implementation ---

type sessionService struct {
	sessionRepo repository.SessionRepository
	now         func() time.Time
}

// NewSessionService creates a new instance of sessionService.
func NewSessionService(sessionRepo repository.SessionRepository) SessionService {
	return &sessionService{
		sessionRepo: sessionRepo,
		now:         time.Now,
	}
}

// GetCalendar retrieves the user's sessions scheduled inside [start, end].
// The range is whatever the client's month grid needs, including the
// leading/trailing days that complete full display weeks.
func (s *sessionService) GetCalendar(ctx context.Context, userID primitive.ObjectID, start, end time.Time) ([]domain.Session, error) {
	if end.Before(start) {
		return nil, errors.New("end must not be before start")
	}
	sessions, err := s.sessionRepo.GetByUserAndRange(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = []domain.Session{}
	}
	return sessions, nil
}

// GetWeekSummary rolls up the Monday-start week containing weekStart.
func (s *sessionService) GetWeekSummary(ctx context.Context, userID primitive.ObjectID, weekStart time.Time) (calendar.Summary, error) {
	start := calendar.WeekStart(weekStart)
	end := calendar.WeekEnd(weekStart).Add(24*time.Hour - time.Nanosecond) // End of Sunday

	sessions, err := s.sessionRepo.GetByUserAndRange(ctx, userID, start, end)
	if err != nil {
		return calendar.Summary{}, err
	}
	return calendar.WeekSummary(start, sessions), nil
}

// Complete transitions a Planned session to Completed with the supplied
// performance record. The transition itself is validated by the domain
// model; calling complete on a terminal session is rejected, not duplicated.
func (s *sessionService) Complete(ctx context.Context, userID, sessionID primitive.ObjectID, rec domain.CompletionRecord) (*domain.Session, error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	if err := session.Complete(rec, s.now().UTC()); err != nil {
		return nil, err
	}
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Skip transitions a Planned session to Skipped.
func (s *sessionService) Skip(ctx context.Context, userID, sessionID primitive.ObjectID) (*domain.Session, error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	if err := session.Skip(); err != nil {
		return nil, err
	}
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// ownedSession fetches a session and verifies it belongs to the caller.
func (s *sessionService) ownedSession(ctx context.Context, userID, sessionID primitive.ObjectID) (*domain.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrSessionAccessDenied
	}
	return session, nil
}
