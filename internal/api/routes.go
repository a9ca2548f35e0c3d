package api

import (
	"net/http"

	"trainmate/platform/internal/domain"
	"trainmate/platform/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	profileService service.ProfileService,
	planService service.PlanService,
	sessionService service.SessionService,
	groupService service.GroupService,
	coachService service.CoachService,
) {
	authHandler := NewAuthHandler(authService)
	profileHandler := NewProfileHandler(profileService)
	planHandler := NewPlanHandler(planService)
	sessionHandler := NewSessionHandler(sessionService)
	groupHandler := NewGroupHandler(groupService)
	coachHandler := NewCoachHandler(coachService)

	authMiddleware := AuthMiddleware(jwtSecret)
	coachOnly := RoleMiddleware(domain.RoleCoach)
	athleteOnly := RoleMiddleware(domain.RoleAthlete)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		// --- Profile & onboarding ---
		profileGroup := protected.Group("/profile")
		{
			profileGroup.GET("", profileHandler.GetProfile)
			profileGroup.PUT("", profileHandler.UpdateProfile)
			profileGroup.GET("/suggestions", profileHandler.GetSuggestions)
		}

		// --- Training plan catalog ---
		planGroup := protected.Group("/plans")
		{
			planGroup.GET("", planHandler.ListPlans)
			planGroup.GET("/:id", planHandler.GetPlan)
		}

		// --- Plan assignments ---
		userPlanGroup := protected.Group("/userplans")
		{
			userPlanGroup.POST("", athleteOnly, planHandler.AssignPlan)
			userPlanGroup.GET("", planHandler.GetMyPlans)
			userPlanGroup.GET("/active", planHandler.GetActivePlan)
		}

		// --- Personal calendar & sessions ---
		sessionGroup := protected.Group("/sessions")
		{
			sessionGroup.GET("", sessionHandler.GetCalendar)
			sessionGroup.GET("/week-summary", sessionHandler.GetWeekSummary)
			sessionGroup.POST("/:id/complete", sessionHandler.CompleteSession)
			sessionGroup.POST("/:id/skip", sessionHandler.SkipSession)
		}

		// --- Groups ---
		groupGroup := protected.Group("/groups")
		{
			groupGroup.GET("/public", groupHandler.ListPublicGroups)
			groupGroup.GET("/my", groupHandler.GetMyGroups)
			groupGroup.GET("/coaching", coachOnly, groupHandler.GetCoachGroups)
			groupGroup.POST("", coachOnly, groupHandler.CreateGroup)
			groupGroup.GET("/:id", groupHandler.GetGroup)
			groupGroup.PUT("/:id", coachOnly, groupHandler.UpdateGroup)
			groupGroup.GET("/:id/members", groupHandler.GetMembers)
			groupGroup.POST("/:id/join", athleteOnly, groupHandler.Join)
			groupGroup.DELETE("/:id/leave", groupHandler.Leave)
			groupGroup.POST("/members/:memberId/approve", coachOnly, groupHandler.ApproveJoin)
			groupGroup.DELETE("/members/:memberId", coachOnly, groupHandler.RemoveMember)

			groupGroup.POST("/:id/sessions", coachOnly, groupHandler.CreateSession)
			groupGroup.GET("/:id/sessions", groupHandler.GetGroupSessions)
			groupGroup.GET("/sessions/upcoming", groupHandler.GetUpcomingSessions)
			groupGroup.GET("/sessions/:sessionId", groupHandler.GetSessionDetail)
			groupGroup.POST("/sessions/:sessionId/cancel", coachOnly, groupHandler.CancelSession)
			groupGroup.PUT("/sessions/:sessionId/attendance", groupHandler.UpdateAttendance)
			groupGroup.POST("/sessions/:sessionId/complete", groupHandler.CompleteSession)
		}

		// --- Coach marketplace & own profile ---
		coachGroup := protected.Group("/coaches")
		{
			coachGroup.GET("", coachHandler.ListCoaches)
			coachGroup.GET("/me", coachOnly, coachHandler.GetMyProfile)
			coachGroup.POST("/me", coachOnly, coachHandler.CreateMyProfile)
			coachGroup.PUT("/me", coachOnly, coachHandler.UpdateMyProfile)
			coachGroup.POST("/me/avatar-upload-url", coachOnly, coachHandler.RequestAvatarUploadURL)
			coachGroup.POST("/me/avatar", coachOnly, coachHandler.ConfirmAvatarUpload)
			coachGroup.GET("/me/athletes", coachOnly, coachHandler.GetMyAthletes)
			coachGroup.GET("/:id", coachHandler.GetCoach)
		}

		// --- Coaching relationships ---
		coachingGroup := protected.Group("/coaching")
		{
			coachingGroup.POST("/requests", athleteOnly, coachHandler.RequestCoaching)
			coachingGroup.POST("/requests/:id/respond", coachOnly, coachHandler.RespondToRequest)
			coachingGroup.POST("/:id/end", coachHandler.EndCoaching)
			coachingGroup.GET("/mine", coachHandler.GetMyCoaches)
		}
	}
}
