package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trainmate/platform/internal/domain"
	"trainmate/platform/internal/repository"
	"trainmate/platform/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- In-memory repositories ---

type memUserRepo struct {
	users map[primitive.ObjectID]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[primitive.ObjectID]*domain.User{}}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	stored := *user
	stored.ID = primitive.NewObjectID()
	r.users[stored.ID] = &stored
	return stored.ID, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *memUserRepo) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.User, error) {
	var out []domain.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *memUserRepo) UpdateProfile(_ context.Context, userID primitive.ObjectID, profile *domain.AthleteProfile) error {
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Profile = profile
	return nil
}

type memPlanRepo struct {
	plans map[primitive.ObjectID]*domain.TrainingPlan
}

func (r *memPlanRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.TrainingPlan, error) {
	p, ok := r.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (r *memPlanRepo) List(_ context.Context, _ repository.PlanFilter) ([]domain.TrainingPlan, error) {
	var out []domain.TrainingPlan
	for _, p := range r.plans {
		out = append(out, *p)
	}
	return out, nil
}

type memUserPlanRepo struct {
	plans []*domain.UserPlan
}

func (r *memUserPlanRepo) Create(_ context.Context, up *domain.UserPlan) (primitive.ObjectID, error) {
	up.ID = primitive.NewObjectID()
	stored := *up
	r.plans = append(r.plans, &stored)
	return up.ID, nil
}

func (r *memUserPlanRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.UserPlan, error) {
	for _, up := range r.plans {
		if up.ID == id {
			copied := *up
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserPlanRepo) GetByUserID(_ context.Context, userID primitive.ObjectID) ([]domain.UserPlan, error) {
	var out []domain.UserPlan
	for _, up := range r.plans {
		if up.UserID == userID {
			out = append(out, *up)
		}
	}
	return out, nil
}

func (r *memUserPlanRepo) GetActiveByUserID(_ context.Context, userID primitive.ObjectID) (*domain.UserPlan, error) {
	for _, up := range r.plans {
		if up.UserID == userID && up.Status == domain.UserPlanActive {
			copied := *up
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserPlanRepo) Update(_ context.Context, up *domain.UserPlan) error {
	for i, existing := range r.plans {
		if existing.ID == up.ID {
			stored := *up
			r.plans[i] = &stored
			return nil
		}
	}
	return repository.ErrNotFound
}

type memSessionRepo struct {
	sessions []domain.Session
}

func (r *memSessionRepo) CreateMany(_ context.Context, sessions []domain.Session) error {
	for _, s := range sessions {
		s.ID = primitive.NewObjectID()
		r.sessions = append(r.sessions, s)
	}
	return nil
}

func (r *memSessionRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Session, error) {
	for _, s := range r.sessions {
		if s.ID == id {
			copied := s
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memSessionRepo) GetByUserAndRange(_ context.Context, userID primitive.ObjectID, start, end time.Time) ([]domain.Session, error) {
	var out []domain.Session
	for _, s := range r.sessions {
		if s.UserID != userID || s.ScheduledDate.Before(start) || s.ScheduledDate.After(end) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *memSessionRepo) GetByUserPlanID(_ context.Context, userPlanID primitive.ObjectID) ([]domain.Session, error) {
	var out []domain.Session
	for _, s := range r.sessions {
		if s.UserPlanID != nil && *s.UserPlanID == userPlanID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memSessionRepo) Update(_ context.Context, session *domain.Session) error {
	for i, s := range r.sessions {
		if s.ID == session.ID {
			r.sessions[i] = *session
			return nil
		}
	}
	return repository.ErrNotFound
}

// --- Test harness ---

type apiHarness struct {
	router      *gin.Engine
	userRepo    *memUserRepo
	planRepo    *memPlanRepo
	sessionRepo *memSessionRepo
}

func newAPIHarness(t *testing.T, plans ...*domain.TrainingPlan) *apiHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	userRepo := newMemUserRepo()
	planRepo := &memPlanRepo{plans: map[primitive.ObjectID]*domain.TrainingPlan{}}
	for _, p := range plans {
		planRepo.plans[p.ID] = p
	}
	userPlanRepo := &memUserPlanRepo{}
	sessionRepo := &memSessionRepo{}

	const jwtSecret = "e2e-test-secret"
	authService := service.NewAuthService(userRepo, jwtSecret, time.Hour)
	profileService := service.NewProfileService(userRepo, planRepo)
	planService := service.NewPlanService(planRepo, userPlanRepo, sessionRepo)
	sessionService := service.NewSessionService(sessionRepo)

	// Group and coach routes are registered but not exercised by these flows.
	router := gin.New()
	SetupRoutes(router, jwtSecret, authService, profileService, planService, sessionService, nil, nil)

	return &apiHarness{
		router:      router,
		userRepo:    userRepo,
		planRepo:    planRepo,
		sessionRepo: sessionRepo,
	}
}

func (h *apiHarness) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encoding body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decoding response %s: %v", w.Body.String(), err)
	}
}

func fourWeekPlan() *domain.TrainingPlan {
	plan := &domain.TrainingPlan{
		ID:            primitive.NewObjectID(),
		Name:          "Base Builder",
		Sport:         domain.SportRunning,
		TargetLevel:   domain.LevelIntermediate,
		DurationWeeks: 4,
		IsFree:        true,
	}
	for week := 1; week <= 4; week++ {
		sessions := []domain.TemplateSession{
			{DayOfWeek: 0, Name: "Easy run", Type: domain.SessionEndurance, DurationMinutes: 30},
		}
		if week == 1 {
			sessions = append(sessions, domain.TemplateSession{
				DayOfWeek: 3, Name: "Intervals", Type: domain.SessionInterval, DurationMinutes: 40,
			})
		}
		plan.Weeks = append(plan.Weeks, domain.PlanWeek{WeekNumber: week, Sessions: sessions})
	}
	return plan
}

type sessionJSON struct {
	ID            string    `json:"id"`
	Name          string    `json:"sessionName"`
	Status        string    `json:"status"`
	ScheduledDate time.Time `json:"scheduledDate"`
	Completion    *struct {
		ActualDurationMinutes int       `json:"actualDurationMinutes"`
		CompletedAt           time.Time `json:"completedAt"`
	} `json:"completion"`
}

// Walks the athlete's whole first week of product usage through the real
// routes and middleware: register, onboard, assign a plan, read the calendar,
// complete the first session, and watch the plan progress move.
func TestAthleteOnboardingFlow(t *testing.T) {
	plan := fourWeekPlan()
	h := newAPIHarness(t, plan)
	dayKey := func(t time.Time) string { return t.Format("2006-01-02") }

	// Register and log in.
	w := h.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"firstName": "Alex", "lastName": "Rivera",
		"email": "alex@example.com", "password": "secret-pass", "role": "athlete",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}

	w = h.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "alex@example.com", "password": "secret-pass",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}
	var login struct {
		Token string `json:"token"`
	}
	decodeBody(t, w, &login)
	if login.Token == "" {
		t.Fatal("login returned no token")
	}
	token := login.Token

	// The calendar is gated behind the token.
	if w = h.do(t, http.MethodGet, "/api/v1/sessions?start=2025-01-01&end=2025-01-31", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated calendar: %d, want 401", w.Code)
	}

	// Onboarding answers.
	w = h.do(t, http.MethodPut, "/api/v1/profile", token, map[string]interface{}{
		"primarySport": "Running", "level": "Intermediate", "goal": "First half marathon",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update profile: %d %s", w.Code, w.Body.String())
	}

	// Assign the plan starting today; the submitted time-of-day must not
	// leak into the materialized sessions.
	start := time.Now().UTC()
	w = h.do(t, http.MethodPost, "/api/v1/userplans", token, map[string]interface{}{
		"planId": plan.ID.Hex(), "startDate": start.Format(time.RFC3339),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("assign plan: %d %s", w.Code, w.Body.String())
	}

	// The full plan range holds exactly the materialized sessions.
	lastDay := start.AddDate(0, 0, 21) // week 4, Monday offset
	path := fmt.Sprintf("/api/v1/sessions?start=%s&end=%s", dayKey(start), dayKey(lastDay))
	w = h.do(t, http.MethodGet, path, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("calendar: %d %s", w.Code, w.Body.String())
	}
	var sessions []sessionJSON
	decodeBody(t, w, &sessions)
	if len(sessions) != plan.TotalSessions() {
		t.Fatalf("calendar returned %d sessions, want %d", len(sessions), plan.TotalSessions())
	}
	for _, s := range sessions {
		if s.Status != string(domain.SessionPlanned) {
			t.Errorf("%s status = %s, want Planned", s.Name, s.Status)
		}
	}
	if got := dayKey(sessions[1].ScheduledDate); got != dayKey(start.AddDate(0, 0, 3)) {
		t.Errorf("Intervals scheduled %s, want %s", got, dayKey(start.AddDate(0, 0, 3)))
	}

	// Querying just the final day still finds its session.
	path = fmt.Sprintf("/api/v1/sessions?start=%s&end=%s", dayKey(lastDay), dayKey(lastDay))
	w = h.do(t, http.MethodGet, path, token, nil)
	var finalDay []sessionJSON
	decodeBody(t, w, &finalDay)
	if len(finalDay) != 1 {
		t.Fatalf("final day returned %d sessions, want 1", len(finalDay))
	}

	// No progress yet.
	var active struct {
		CurrentWeek    int     `json:"currentWeek"`
		CompletionRate float64 `json:"completionRate"`
	}
	w = h.do(t, http.MethodGet, "/api/v1/userplans/active", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("active plan: %d %s", w.Code, w.Body.String())
	}
	decodeBody(t, w, &active)
	if active.CurrentWeek != 1 || active.CompletionRate != 0 {
		t.Errorf("active plan = week %d rate %.1f, want week 1 rate 0", active.CurrentWeek, active.CompletionRate)
	}

	// Complete today's session.
	firstID := sessions[0].ID
	w = h.do(t, http.MethodPost, "/api/v1/sessions/"+firstID+"/complete", token, map[string]interface{}{
		"actualDurationMinutes": 35,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("complete: %d %s", w.Code, w.Body.String())
	}
	var completed sessionJSON
	decodeBody(t, w, &completed)
	if completed.Status != string(domain.SessionCompleted) {
		t.Errorf("status = %s, want Completed", completed.Status)
	}
	if completed.Completion == nil || completed.Completion.ActualDurationMinutes != 35 {
		t.Errorf("completion = %+v, want 35 minutes recorded", completed.Completion)
	}
	if completed.Completion != nil && completed.Completion.CompletedAt.IsZero() {
		t.Error("completedAt was not set")
	}

	// Completing again is rejected, not duplicated.
	w = h.do(t, http.MethodPost, "/api/v1/sessions/"+firstID+"/complete", token, map[string]interface{}{
		"actualDurationMinutes": 35,
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("second complete: %d, want 409", w.Code)
	}

	// Progress moved: today's session is the only one scheduled so far.
	w = h.do(t, http.MethodGet, "/api/v1/userplans/active", token, nil)
	decodeBody(t, w, &active)
	if active.CompletionRate != 100 {
		t.Errorf("completionRate = %.1f, want 100", active.CompletionRate)
	}
}

// Sessions carrying a time-of-day must still show up when the query range
// ends on their calendar day.
func TestCalendarIncludesEveningSessionOnRangeEnd(t *testing.T) {
	h := newAPIHarness(t)

	w := h.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"firstName": "Alex", "lastName": "Rivera",
		"email": "alex@example.com", "password": "secret-pass", "role": "athlete",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}
	var registered struct {
		ID string `json:"id"`
	}
	decodeBody(t, w, &registered)
	userID, err := primitive.ObjectIDFromHex(registered.ID)
	if err != nil {
		t.Fatalf("parsing user id: %v", err)
	}

	w = h.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "alex@example.com", "password": "secret-pass",
	})
	var login struct {
		Token string `json:"token"`
	}
	decodeBody(t, w, &login)

	day := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	if err := h.sessionRepo.CreateMany(context.Background(), []domain.Session{{
		UserID:        userID,
		Name:          "Evening shakeout",
		Type:          domain.SessionRecovery,
		ScheduledDate: day.Add(19 * time.Hour),
		Status:        domain.SessionPlanned,
	}}); err != nil {
		t.Fatalf("seeding session: %v", err)
	}

	w = h.do(t, http.MethodGet, "/api/v1/sessions?start=2025-06-15&end=2025-06-15", login.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("calendar: %d %s", w.Code, w.Body.String())
	}
	var sessions []sessionJSON
	decodeBody(t, w, &sessions)
	if len(sessions) != 1 || sessions[0].Name != "Evening shakeout" {
		t.Fatalf("sessions = %+v, want the evening session", sessions)
	}
}
