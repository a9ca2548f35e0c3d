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

type PlanHandler struct {
	planService service.PlanService
}

func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// AssignPlanRequest starts a catalog plan for the authenticated athlete.
// StartDate is a calendar day; its time-of-day portion is ignored.
type AssignPlanRequest struct {
	PlanID    string    `json:"planId" binding:"required"`
	StartDate time.Time `json:"startDate" binding:"required"`
}

// ListPlans returns the catalog, optionally filtered by sport, level and
// free-only via query parameters.
func (h *PlanHandler) ListPlans(c *gin.Context) {
	filter := repository.PlanFilter{
		Sport:    domain.Sport(c.Query("sport")),
		Level:    domain.Level(c.Query("level")),
		FreeOnly: c.Query("freeOnly") == "true",
	}

	plans, err := h.planService.ListPlans(c.Request.Context(), filter)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve plans")
		return
	}
	if plans == nil {
		plans = []domain.TrainingPlan{}
	}
	c.JSON(http.StatusOK, plans)
}

// GetPlan returns one catalog plan with its full weekly template.
func (h *PlanHandler) GetPlan(c *gin.Context) {
	planID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	plan, err := h.planService.GetPlan(c.Request.Context(), planID)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve plan")
		}
		return
	}
	c.JSON(http.StatusOK, plan)
}

// AssignPlan activates a plan for the athlete and expands its template into
// concrete calendar sessions.
func (h *PlanHandler) AssignPlan(c *gin.Context) {
	var req AssignPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	planID, err := parseObjectID(req.PlanID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid planId format")
		return
	}

	userPlan, err := h.planService.AssignPlan(c.Request.Context(), userID, planID, req.StartDate)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else if errors.Is(err, service.ErrStartDateInPast) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortDomainError(c, err, "Failed to assign plan")
		}
		return
	}
	c.JSON(http.StatusCreated, userPlan)
}

// GetMyPlans returns all of the athlete's plan assignments, past and present.
func (h *PlanHandler) GetMyPlans(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	userPlans, err := h.planService.GetMyPlans(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve plan assignments")
		return
	}
	if userPlans == nil {
		userPlans = []domain.UserPlan{}
	}
	c.JSON(http.StatusOK, userPlans)
}

// GetActivePlan returns the athlete's active assignment with the derived
// current week and completion rate.
func (h *PlanHandler) GetActivePlan(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	view, err := h.planService.GetActivePlan(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserPlanNotFound) {
			abortWithError(c, http.StatusNotFound, "No active plan")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve active plan")
		}
		return
	}
	c.JSON(http.StatusOK, view)
}
