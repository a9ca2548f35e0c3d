package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"trainmate/platform/internal/domain"
	"trainmate/platform/internal/repository"
	"trainmate/platform/internal/service"

	"github.com/gin-gonic/gin"
)

type GroupHandler struct {
	groupService service.GroupService
}

func NewGroupHandler(groupService service.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

// --- DTOs ---

type GroupRequest struct {
	Name         string       `json:"name" binding:"required"`
	Description  string       `json:"description"`
	Sport        domain.Sport `json:"sport" binding:"required,oneof=Running Cycling Both"`
	TargetLevel  domain.Level `json:"targetLevel" binding:"required,oneof=Beginner Intermediate Advanced Expert"`
	MaxMembers   int          `json:"maxMembers" binding:"required,min=1"`
	City         string       `json:"city"`
	MeetingPoint string       `json:"meetingPoint"`
	IsPrivate    bool         `json:"isPrivate"`
	IsFree       bool         `json:"isFree"`
	MonthlyFee   *float64     `json:"monthlyFee" binding:"omitempty,gt=0"`
}

type GroupSessionRequest struct {
	Name            string    `json:"name" binding:"required"`
	Description     string    `json:"description"`
	ScheduledDate   time.Time `json:"scheduledDate" binding:"required"`
	Location        string    `json:"location"`
	DurationMinutes int       `json:"durationMinutes" binding:"omitempty,min=1"`
	DistanceKm      *float64  `json:"distanceKm" binding:"omitempty,gt=0"`
}

type AttendanceRequest struct {
	Status domain.AttendanceStatus `json:"status" binding:"required,oneof=Confirmed Maybe Absent"`
}

type CancelSessionRequest struct {
	Reason string `json:"reason"`
}

func (r *GroupRequest) toDomain() *domain.Group {
	return &domain.Group{
		Name:         r.Name,
		Description:  r.Description,
		Sport:        r.Sport,
		TargetLevel:  r.TargetLevel,
		MaxMembers:   r.MaxMembers,
		City:         r.City,
		MeetingPoint: r.MeetingPoint,
		IsPrivate:    r.IsPrivate,
		IsFree:       r.IsFree,
		MonthlyFee:   r.MonthlyFee,
	}
}

// --- Group management ---

// CreateGroup creates a new training group owned by the coach.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	coachID, ok := requireUserID(c)
	if !ok {
		return
	}

	group, err := h.groupService.CreateGroup(c.Request.Context(), coachID, req.toDomain())
	if err != nil {
		abortDomainError(c, err, "Failed to create group")
		return
	}
	c.JSON(http.StatusCreated, group)
}

// UpdateGroup updates a group the coach owns.
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	var req GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	coachID, ok := requireUserID(c)
	if !ok {
		return
	}
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	group, err := h.groupService.UpdateGroup(c.Request.Context(), coachID, groupID, req.toDomain())
	if err != nil {
		h.mapGroupError(c, err, "Failed to update group")
		return
	}
	c.JSON(http.StatusOK, group)
}

// GetGroup returns one group's details.
func (h *GroupHandler) GetGroup(c *gin.Context) {
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	group, err := h.groupService.GetGroup(c.Request.Context(), groupID)
	if err != nil {
		h.mapGroupError(c, err, "Failed to retrieve group")
		return
	}
	c.JSON(http.StatusOK, group)
}

// ListPublicGroups returns joinable groups, optionally filtered by city and
// sport query parameters.
func (h *GroupHandler) ListPublicGroups(c *gin.Context) {
	filter := repository.GroupFilter{
		City:  c.Query("city"),
		Sport: domain.Sport(c.Query("sport")),
	}

	groups, err := h.groupService.ListPublicGroups(c.Request.Context(), filter)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve groups")
		return
	}
	if groups == nil {
		groups = []domain.Group{}
	}
	c.JSON(http.StatusOK, groups)
}

// GetMyGroups returns the groups the athlete is an active member of.
func (h *GroupHandler) GetMyGroups(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	groups, err := h.groupService.GetMyGroups(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve groups")
		return
	}
	if groups == nil {
		groups = []domain.Group{}
	}
	c.JSON(http.StatusOK, groups)
}

// GetCoachGroups returns the groups owned by the authenticated coach.
func (h *GroupHandler) GetCoachGroups(c *gin.Context) {
	coachID, ok := requireUserID(c)
	if !ok {
		return
	}

	groups, err := h.groupService.GetCoachGroups(c.Request.Context(), coachID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve groups")
		return
	}
	if groups == nil {
		groups = []domain.Group{}
	}
	c.JSON(http.StatusOK, groups)
}

// --- Membership ---

// GetMembers returns the group roster with member names.
func (h *GroupHandler) GetMembers(c *gin.Context) {
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	members, err := h.groupService.GetMembers(c.Request.Context(), groupID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve members")
		return
	}
	if members == nil {
		members = []service.MemberDetail{}
	}
	c.JSON(http.StatusOK, members)
}

// Join files a membership request for the authenticated athlete.
func (h *GroupHandler) Join(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	member, err := h.groupService.Join(c.Request.Context(), userID, groupID)
	if err != nil {
		h.mapGroupError(c, err, "Failed to join group")
		return
	}
	c.JSON(http.StatusCreated, member)
}

// ApproveJoin lets the coach approve a pending membership.
func (h *GroupHandler) ApproveJoin(c *gin.Context) {
	coachID, ok := requireUserID(c)
	if !ok {
		return
	}
	membershipID, ok := parseIDParam(c, "memberId")
	if !ok {
		return
	}

	member, err := h.groupService.ApproveJoin(c.Request.Context(), coachID, membershipID)
	if err != nil {
		h.mapGroupError(c, err, "Failed to approve membership")
		return
	}
	c.JSON(http.StatusOK, member)
}

// Leave removes the authenticated athlete from the group.
func (h *GroupHandler) Leave(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.groupService.Leave(c.Request.Context(), userID, groupID); err != nil {
		h.mapGroupError(c, err, "Failed to leave group")
		return
	}
	c.Status(http.StatusNoContent)
}

// RemoveMember lets the coach remove a member or deny a pending request.
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	coachID, ok := requireUserID(c)
	if !ok {
		return
	}
	membershipID, ok := parseIDParam(c, "memberId")
	if !ok {
		return
	}

	if err := h.groupService.RemoveMember(c.Request.Context(), coachID, membershipID); err != nil {
		h.mapGroupError(c, err, "Failed to remove member")
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Group sessions ---

// CreateSession schedules a session on a group the coach owns.
func (h *GroupHandler) CreateSession(c *gin.Context) {
	var req GroupSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	coachID, ok := requireUserID(c)
	if !ok {
		return
	}
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	session := &domain.GroupSession{
		GroupID:         groupID,
		Name:            req.Name,
		Description:     req.Description,
		ScheduledDate:   req.ScheduledDate,
		Location:        req.Location,
		DurationMinutes: req.DurationMinutes,
		DistanceKm:      req.DistanceKm,
	}
	created, err := h.groupService.CreateSession(c.Request.Context(), coachID, session)
	if err != nil {
		h.mapGroupError(c, err, "Failed to create session")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetGroupSessions returns a group's session schedule.
func (h *GroupHandler) GetGroupSessions(c *gin.Context) {
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	sessions, err := h.groupService.GetGroupSessions(c.Request.Context(), groupID)
	if err != nil {
		h.mapGroupError(c, err, "Failed to retrieve sessions")
		return
	}
	if sessions == nil {
		sessions = []domain.GroupSession{}
	}
	c.JSON(http.StatusOK, sessions)
}

// GetUpcomingSessions returns future sessions across the athlete's groups.
func (h *GroupHandler) GetUpcomingSessions(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sessions, err := h.groupService.GetUpcomingSessions(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve upcoming sessions")
		return
	}
	if sessions == nil {
		sessions = []domain.GroupSession{}
	}
	c.JSON(http.StatusOK, sessions)
}

// GetSessionDetail returns one session with the caller's attendance state.
func (h *GroupHandler) GetSessionDetail(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(c, "sessionId")
	if !ok {
		return
	}

	detail, err := h.groupService.GetSessionDetail(c.Request.Context(), userID, sessionID)
	if err != nil {
		h.mapGroupError(c, err, "Failed to retrieve session")
		return
	}
	c.JSON(http.StatusOK, detail)
}

// CancelSession cancels a scheduled session with an optional reason.
func (h *GroupHandler) CancelSession(c *gin.Context) {
	var req CancelSessionRequest
	_ = c.ShouldBindJSON(&req) // Body is optional; reason defaults to empty
	coachID, ok := requireUserID(c)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(c, "sessionId")
	if !ok {
		return
	}

	session, err := h.groupService.CancelSession(c.Request.Context(), coachID, sessionID, req.Reason)
	if err != nil {
		h.mapGroupError(c, err, "Failed to cancel session")
		return
	}
	c.JSON(http.StatusOK, session)
}

// UpdateAttendance records the member's RSVP for a session.
func (h *GroupHandler) UpdateAttendance(c *gin.Context) {
	var req AttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(c, "sessionId")
	if !ok {
		return
	}

	detail, err := h.groupService.UpdateAttendance(c.Request.Context(), userID, sessionID, req.Status)
	if err != nil {
		h.mapGroupError(c, err, "Failed to update attendance")
		return
	}
	c.JSON(http.StatusOK, detail)
}

// CompleteSession records the member's completion of a past session.
func (h *GroupHandler) CompleteSession(c *gin.Context) {
	var req CompleteSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(c, "sessionId")
	if !ok {
		return
	}

	rec := domain.CompletionRecord{
		ActualDurationMinutes: req.ActualDurationMinutes,
		ActualDistanceKm:      req.ActualDistanceKm,
		FeelRating:            req.FeelRating,
		Notes:                 req.Notes,
	}
	detail, err := h.groupService.CompleteSession(c.Request.Context(), userID, sessionID, rec)
	if err != nil {
		h.mapGroupError(c, err, "Failed to complete session")
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *GroupHandler) mapGroupError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrGroupNotFound),
		errors.Is(err, service.ErrGroupSessionNotFound),
		errors.Is(err, service.ErrMembershipNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrGroupAccessDenied),
		errors.Is(err, service.ErrNotGroupMember):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrGroupFull),
		errors.Is(err, service.ErrAlreadyMember):
		abortWithError(c, http.StatusConflict, err.Error())
	default:
		abortDomainError(c, err, fallback)
	}
}
