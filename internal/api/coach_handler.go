package api

import (
	"errors"
	"fmt"
	"net/http"

	"trainmate/platform/internal/domain"
	"trainmate/platform/internal/service"

	"github.com/gin-gonic/gin"
)

type CoachHandler struct {
	coachService service.CoachService
}

func NewCoachHandler(coachService service.CoachService) *CoachHandler {
	return &CoachHandler{coachService: coachService}
}

// --- DTOs ---

type CoachProfileRequest struct {
	Bio             string   `json:"bio"`
	Specialties     []string `json:"specialties"`
	YearsExperience int      `json:"yearsExperience" binding:"omitempty,min=0"`
	MonthlyRate     *float64 `json:"monthlyRate" binding:"omitempty,gt=0"`
	SessionRate     *float64 `json:"sessionRate" binding:"omitempty,gt=0"`
}

type AvatarUploadRequest struct {
	ContentType string `json:"contentType"`
}

type ConfirmAvatarRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
}

type CoachingRequestBody struct {
	CoachID string              `json:"coachId" binding:"required"`
	Type    domain.CoachingType `json:"type" binding:"required,oneof=Free PerSession Monthly"`
	Message string              `json:"message"`
}

type RespondRequestBody struct {
	Accept     bool     `json:"accept"`
	AgreedRate *float64 `json:"agreedRate" binding:"omitempty,gt=0"`
}

func (r *CoachProfileRequest) toDomain() *domain.CoachProfile {
	return &domain.CoachProfile{
		Bio:             r.Bio,
		Specialties:     r.Specialties,
		YearsExperience: r.YearsExperience,
		MonthlyRate:     r.MonthlyRate,
		SessionRate:     r.SessionRate,
	}
}

// --- Marketplace & profiles ---

// ListCoaches returns the coach marketplace, optionally filtered by
// specialty.
func (h *CoachHandler) ListCoaches(c *gin.Context) {
	listings, err := h.coachService.ListCoaches(c.Request.Context(), c.Query("specialty"))
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve coaches")
		return
	}
	if listings == nil {
		listings = []service.CoachListing{}
	}
	c.JSON(http.StatusOK, listings)
}

// GetCoach returns one coach's public listing with live stats.
func (h *CoachHandler) GetCoach(c *gin.Context) {
	coachUserID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	listing, err := h.coachService.GetCoachListing(c.Request.Context(), coachUserID)
	if err != nil {
		h.mapCoachError(c, err, "Failed to retrieve coach")
		return
	}
	c.JSON(http.StatusOK, listing)
}

// GetMyProfile returns the coach's own profile; 404 means they have not
// created one yet.
func (h *CoachHandler) GetMyProfile(c *gin.Context) {
	coachID, ok := requireUserID(c)
	if !ok {
		return
	}

	profile, err := h.coachService.GetMyProfile(c.Request.Context(), coachID)
	if err != nil {
		h.mapCoachError(c, err, "Failed to retrieve coach profile")
		return
	}
	c.JSON(http.StatusOK, profile)
}

// CreateMyProfile creates the coach's public profile.
func (h *CoachHandler) CreateMyProfile(c *gin.Context) {
	var req CoachProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	coachID, ok := requireUserID(c)
	if !ok {
		return
	}

	profile, err := h.coachService.CreateMyProfile(c.Request.Context(), coachID, req.toDomain())
	if err != nil {
		h.mapCoachError(c, err, "Failed to create coach profile")
		return
	}
	c.JSON(http.StatusCreated, profile)
}

// UpdateMyProfile replaces the coach's public profile fields.
func (h *CoachHandler) UpdateMyProfile(c *gin.Context) {
	var req CoachProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	coachID, ok := requireUserID(c)
	if !ok {
		return
	}

	profile, err := h.coachService.UpdateMyProfile(c.Request.Context(), coachID, req.toDomain())
	if err != nil {
		h.mapCoachError(c, err, "Failed to update coach profile")
		return
	}
	c.JSON(http.StatusOK, profile)
}

// RequestAvatarUploadURL returns a presigned PUT URL for a new avatar image.
func (h *CoachHandler) RequestAvatarUploadURL(c *gin.Context) {
	var req AvatarUploadRequest
	_ = c.ShouldBindJSON(&req) // contentType is optional

	coachID, ok := requireUserID(c)
	if !ok {
		return
	}

	target, err := h.coachService.RequestAvatarUploadURL(c.Request.Context(), coachID, req.ContentType)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to generate upload URL")
		return
	}
	c.JSON(http.StatusOK, target)
}

// ConfirmAvatarUpload records the uploaded object key on the profile.
func (h *CoachHandler) ConfirmAvatarUpload(c *gin.Context) {
	var req ConfirmAvatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	coachID, ok := requireUserID(c)
	if !ok {
		return
	}

	profile, err := h.coachService.ConfirmAvatarUpload(c.Request.Context(), coachID, req.ObjectKey)
	if err != nil {
		h.mapCoachError(c, err, "Failed to confirm avatar upload")
		return
	}
	c.JSON(http.StatusOK, profile)
}

// --- Relationships ---

// RequestCoaching files a coaching request from the athlete to a coach.
func (h *CoachHandler) RequestCoaching(c *gin.Context) {
	var req CoachingRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	athleteID, ok := requireUserID(c)
	if !ok {
		return
	}
	coachID, err := parseObjectID(req.CoachID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid coachId format")
		return
	}

	rel, err := h.coachService.RequestCoaching(c.Request.Context(), athleteID, coachID, req.Type, req.Message)
	if err != nil {
		h.mapCoachError(c, err, "Failed to request coaching")
		return
	}
	c.JSON(http.StatusCreated, rel)
}

// RespondToRequest lets the coach approve or reject a pending request.
func (h *CoachHandler) RespondToRequest(c *gin.Context) {
	var req RespondRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	coachID, ok := requireUserID(c)
	if !ok {
		return
	}
	relationshipID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	rel, err := h.coachService.RespondToRequest(c.Request.Context(), coachID, relationshipID, req.Accept, req.AgreedRate)
	if err != nil {
		h.mapCoachError(c, err, "Failed to respond to coaching request")
		return
	}
	c.JSON(http.StatusOK, rel)
}

// EndCoaching terminates an active relationship; either party may call it.
func (h *CoachHandler) EndCoaching(c *gin.Context) {
	callerID, ok := requireUserID(c)
	if !ok {
		return
	}
	relationshipID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	rel, err := h.coachService.EndCoaching(c.Request.Context(), callerID, relationshipID)
	if err != nil {
		h.mapCoachError(c, err, "Failed to end coaching relationship")
		return
	}
	c.JSON(http.StatusOK, rel)
}

// GetMyAthletes lists the coach's coaching relationships.
func (h *CoachHandler) GetMyAthletes(c *gin.Context) {
	coachID, ok := requireUserID(c)
	if !ok {
		return
	}

	rels, err := h.coachService.GetMyAthletes(c.Request.Context(), coachID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve athletes")
		return
	}
	if rels == nil {
		rels = []service.RelationshipDetail{}
	}
	c.JSON(http.StatusOK, rels)
}

// GetMyCoaches lists the athlete's coaching relationships.
func (h *CoachHandler) GetMyCoaches(c *gin.Context) {
	athleteID, ok := requireUserID(c)
	if !ok {
		return
	}

	rels, err := h.coachService.GetMyCoaches(c.Request.Context(), athleteID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve coaches")
		return
	}
	if rels == nil {
		rels = []service.RelationshipDetail{}
	}
	c.JSON(http.StatusOK, rels)
}

func (h *CoachHandler) mapCoachError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrCoachNotFound),
		errors.Is(err, service.ErrCoachProfileNotFound),
		errors.Is(err, service.ErrRelationshipNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrRelationshipForbidden):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrCoachProfileExists),
		errors.Is(err, service.ErrDuplicateCoachingReq):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrCannotCoachSelf):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortDomainError(c, err, fallback)
	}
}
