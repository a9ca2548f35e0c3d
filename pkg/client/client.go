// Package client provides a typed HTTP client for the TrainMate API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.StatusCode == http.StatusNotFound
}

// Client talks to a TrainMate server. The zero value is not usable; use New.
// Safe for concurrent use.
type Client struct {
	baseURL string
	httpc   *http.Client

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithToken sets the initial bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a client for the API rooted at baseURL (no trailing slash).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token, e.g. after login.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) bearerToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// --- Wire types ---

type User struct {
	ID        string          `json:"id"`
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName"`
	Email     string          `json:"email"`
	Role      string          `json:"role"`
	Profile   json.RawMessage `json:"profile,omitempty"`
}

type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Completion mirrors the completion record the server nests on a
// Completed session.
type Completion struct {
	ActualDurationMinutes int       `json:"actualDurationMinutes"`
	ActualDistanceKm      *float64  `json:"actualDistanceKm,omitempty"`
	FeelRating            *int      `json:"feelRating,omitempty"`
	Notes                 string    `json:"notes,omitempty"`
	CompletedAt           time.Time `json:"completedAt"`
}

type Session struct {
	ID              string      `json:"id"`
	Name            string      `json:"sessionName"`
	Type            string      `json:"sessionType"`
	Status          string      `json:"status"`
	ScheduledDate   time.Time   `json:"scheduledDate"`
	DurationMinutes int         `json:"durationMinutes,omitempty"`
	DistanceKm      *float64    `json:"distanceKm,omitempty"`
	Completion      *Completion `json:"completion,omitempty"`
}

type WeekSummary struct {
	CompletedSessions int     `json:"completedSessions"`
	TotalSessions     int     `json:"totalSessions"`
	TotalMinutes      int     `json:"totalMinutes"`
	TotalDistanceKm   float64 `json:"totalDistanceKm"`
	CompletionRate    float64 `json:"completionRate"`
}

type CompletionInput struct {
	ActualDurationMinutes int      `json:"actualDurationMinutes"`
	ActualDistanceKm      *float64 `json:"actualDistanceKm,omitempty"`
	FeelRating            *int     `json:"feelRating,omitempty"`
	Notes                 string   `json:"notes,omitempty"`
}

type GroupSession struct {
	ID                   string    `json:"id"`
	GroupID              string    `json:"groupId"`
	Name                 string    `json:"name"`
	ScheduledDate        time.Time `json:"scheduledDate"`
	IsCancelled          bool      `json:"isCancelled"`
	ConfirmedCount       int       `json:"confirmedCount"`
	MaybeCount           int       `json:"maybeCount"`
	AbsentCount          int       `json:"absentCount"`
	UserAttendanceStatus string    `json:"userAttendanceStatus,omitempty"`
}

// --- Auth ---

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	var result LoginResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", nil, body, &result); err != nil {
		return nil, err
	}
	c.SetToken(result.Token)
	return &result, nil
}

// --- Calendar & sessions ---

const dateLayout = "2006-01-02"

// GetCalendar fetches the caller's sessions between two dates, inclusive.
func (c *Client) GetCalendar(ctx context.Context, start, end time.Time) ([]Session, error) {
	q := url.Values{}
	q.Set("start", start.Format(dateLayout))
	q.Set("end", end.Format(dateLayout))
	var sessions []Session
	if err := c.do(ctx, http.MethodGet, "/api/v1/sessions", q, nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetWeekSummary fetches aggregate stats for the week containing day.
func (c *Client) GetWeekSummary(ctx context.Context, day time.Time) (*WeekSummary, error) {
	q := url.Values{}
	q.Set("date", day.Format(dateLayout))
	var summary WeekSummary
	if err := c.do(ctx, http.MethodGet, "/api/v1/sessions/week-summary", q, nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *Client) CompleteSession(ctx context.Context, sessionID string, in CompletionInput) (*Session, error) {
	var session Session
	if err := c.do(ctx, http.MethodPost, "/api/v1/sessions/"+sessionID+"/complete", nil, in, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) SkipSession(ctx context.Context, sessionID string) (*Session, error) {
	var session Session
	if err := c.do(ctx, http.MethodPost, "/api/v1/sessions/"+sessionID+"/skip", nil, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// --- Coach profile ---

type CoachProfile struct {
	ID              string   `json:"id"`
	UserID          string   `json:"userId"`
	Bio             string   `json:"bio,omitempty"`
	Specialties     []string `json:"specialties,omitempty"`
	YearsExperience int      `json:"yearsExperience"`
	MonthlyRate     *float64 `json:"monthlyRate,omitempty"`
	SessionRate     *float64 `json:"sessionRate,omitempty"`
}

// GetMyCoachProfile fetches the caller's own coach profile. A 404 means the
// profile has not been created yet; callers distinguish it with IsNotFound.
func (c *Client) GetMyCoachProfile(ctx context.Context) (*CoachProfile, error) {
	var profile CoachProfile
	if err := c.do(ctx, http.MethodGet, "/api/v1/coaches/me", nil, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// --- Group sessions ---

func (c *Client) GetUpcomingGroupSessions(ctx context.Context) ([]GroupSession, error) {
	var sessions []GroupSession
	if err := c.do(ctx, http.MethodGet, "/api/v1/groups/sessions/upcoming", nil, nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// SetAttendance records an RSVP (Confirmed, Maybe or Absent).
func (c *Client) SetAttendance(ctx context.Context, sessionID, status string) (*GroupSession, error) {
	body := map[string]string{"status": status}
	var session GroupSession
	if err := c.do(ctx, http.MethodPut, "/api/v1/groups/sessions/"+sessionID+"/attendance", nil, body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) CompleteGroupSession(ctx context.Context, sessionID string, in CompletionInput) (*GroupSession, error) {
	var session GroupSession
	if err := c.do(ctx, http.MethodPost, "/api/v1/groups/sessions/"+sessionID+"/complete", nil, in, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// --- Transport ---

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearerToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		if errBody.Error == "" {
			errBody.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: errBody.Error}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
