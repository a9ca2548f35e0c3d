package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"trainmate/platform/internal/domain"
	"trainmate/platform/internal/service"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	sessionService service.SessionService
}

func NewSessionHandler(sessionService service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// CompleteSessionRequest carries the athlete's actual performance figures.
type CompleteSessionRequest struct {
	ActualDurationMinutes int      `json:"actualDurationMinutes" binding:"required,min=1"`
	ActualDistanceKm      *float64 `json:"actualDistanceKm" binding:"omitempty,min=0"`
	FeelRating            *int     `json:"feelRating" binding:"omitempty,min=1,max=5"`
	Notes                 string   `json:"notes"`
}

const dateLayout = "2006-01-02"

// GetCalendar returns the athlete's sessions between the start and end query
// dates (inclusive).
func (h *SessionHandler) GetCalendar(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	start, err := time.Parse(dateLayout, c.Query("start"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "start must be a date in YYYY-MM-DD format")
		return
	}
	end, err := time.Parse(dateLayout, c.Query("end"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "end must be a date in YYYY-MM-DD format")
		return
	}
	if end.Before(start) {
		abortWithError(c, http.StatusBadRequest, "end must not be before start")
		return
	}
	// Both bounds are inclusive days: stretch end to the last instant of its day
	// so sessions carrying a time-of-day still fall inside the range.
	end = end.Add(24*time.Hour - time.Nanosecond)

	sessions, err := h.sessionService.GetCalendar(c.Request.Context(), userID, start, end)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve calendar")
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// GetWeekSummary returns aggregate stats for the Monday-start week containing
// the given date (today when omitted).
func (h *SessionHandler) GetWeekSummary(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	day := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "date must be in YYYY-MM-DD format")
			return
		}
		day = parsed
	}

	summary, err := h.sessionService.GetWeekSummary(c.Request.Context(), userID, day)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to compute week summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// CompleteSession marks a planned session as done with actuals attached.
func (h *SessionHandler) CompleteSession(c *gin.Context) {
	var req CompleteSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	rec := domain.CompletionRecord{
		ActualDurationMinutes: req.ActualDurationMinutes,
		ActualDistanceKm:      req.ActualDistanceKm,
		FeelRating:            req.FeelRating,
		Notes:                 req.Notes,
	}
	session, err := h.sessionService.Complete(c.Request.Context(), userID, sessionID, rec)
	if err != nil {
		h.mapSessionError(c, err, "Failed to complete session")
		return
	}
	c.JSON(http.StatusOK, session)
}

// SkipSession marks a planned session as skipped.
func (h *SessionHandler) SkipSession(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	session, err := h.sessionService.Skip(c.Request.Context(), userID, sessionID)
	if err != nil {
		h.mapSessionError(c, err, "Failed to skip session")
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) mapSessionError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSessionAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	default:
		abortDomainError(c, err, fallback)
	}
}
