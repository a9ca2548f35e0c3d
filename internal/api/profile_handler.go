package api

import (
	"errors"
	"fmt"
	"net/http"

	"trainmate/platform/internal/domain"
	"trainmate/platform/internal/service"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profileService service.ProfileService
}

func NewProfileHandler(profileService service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// UpdateProfileRequest carries the athlete's onboarding answers.
type UpdateProfileRequest struct {
	PrimarySport             domain.Sport `json:"primarySport" binding:"required,oneof=Running Cycling Both"`
	Level                    domain.Level `json:"level" binding:"required,oneof=Beginner Intermediate Advanced Expert"`
	Goal                     string       `json:"goal"`
	WeeklyAvailableHours     int          `json:"weeklyAvailableHours" binding:"omitempty,min=0"`
	PreferredSessionsPerWeek int          `json:"preferredSessionsPerWeek" binding:"omitempty,min=0,max=14"`
	HasGps                   bool         `json:"hasGps"`
	HasHeartRateMonitor      bool         `json:"hasHeartRateMonitor"`
	HasPowerMeter            bool         `json:"hasPowerMeter"`
	HasIndoorTrainer         bool         `json:"hasIndoorTrainer"`
}

// GetProfile returns the authenticated user's account and athlete profile.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	user, err := h.profileService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve profile")
		}
		return
	}

	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// UpdateProfile replaces the athlete profile with the submitted answers.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	profile := &domain.AthleteProfile{
		PrimarySport:             req.PrimarySport,
		Level:                    req.Level,
		Goal:                     req.Goal,
		WeeklyAvailableHours:     req.WeeklyAvailableHours,
		PreferredSessionsPerWeek: req.PreferredSessionsPerWeek,
		HasGps:                   req.HasGps,
		HasHeartRateMonitor:      req.HasHeartRateMonitor,
		HasPowerMeter:            req.HasPowerMeter,
		HasIndoorTrainer:         req.HasIndoorTrainer,
	}

	user, err := h.profileService.UpdateProfile(c.Request.Context(), userID, profile)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to update profile")
		}
		return
	}

	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// GetSuggestions returns catalog plans matching the athlete's sport and level.
func (h *ProfileHandler) GetSuggestions(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	plans, err := h.profileService.GetSuggestions(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve suggestions")
		}
		return
	}

	if plans == nil {
		plans = []domain.TrainingPlan{}
	}
	c.JSON(http.StatusOK, plans)
}
