package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trainmate/platform/internal/api"
	"trainmate/platform/internal/config"
	"trainmate/platform/internal/repository/mongo"
	"trainmate/platform/internal/service"
	"trainmate/platform/internal/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("Starting TrainMate Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	log.Println("Ensuring database indexes...")
	go func() { // Run index creation concurrently/in background
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureTrainingPlanIndexes(ctx, appDB.Collection("training_plans"))
		mongo.EnsureUserPlanIndexes(ctx, appDB.Collection("user_plans"))
		mongo.EnsureSessionIndexes(ctx, appDB.Collection("sessions"))
		mongo.EnsureGroupIndexes(ctx, appDB.Collection("groups"))
		mongo.EnsureGroupMemberIndexes(ctx, appDB.Collection("group_members"))
		mongo.EnsureGroupSessionIndexes(ctx, appDB.Collection("group_sessions"))
		mongo.EnsureAttendanceIndexes(ctx, appDB.Collection("attendance"))
		mongo.EnsureCoachingIndexes(ctx, appDB.Collection("coaching_relationships"))
		mongo.EnsureCoachProfileIndexes(ctx, appDB.Collection("coach_profiles"))
		log.Println("Index creation process completed.")
	}()

	// --- Initialize Storage ---
	log.Println("Initializing file storage service...")
	fileStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
	}

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	userRepo := mongo.NewMongoUserRepository(appDB)
	trainingPlanRepo := mongo.NewMongoTrainingPlanRepository(appDB)
	userPlanRepo := mongo.NewMongoUserPlanRepository(appDB)
	sessionRepo := mongo.NewMongoSessionRepository(appDB)
	groupRepo := mongo.NewMongoGroupRepository(appDB)
	groupMemberRepo := mongo.NewMongoGroupMemberRepository(appDB)
	groupSessionRepo := mongo.NewMongoGroupSessionRepository(appDB)
	attendanceRepo := mongo.NewMongoAttendanceRepository(appDB)
	coachingRepo := mongo.NewMongoCoachingRepository(appDB)
	coachProfileRepo := mongo.NewMongoCoachProfileRepository(appDB)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	profileService := service.NewProfileService(userRepo, trainingPlanRepo)
	planService := service.NewPlanService(trainingPlanRepo, userPlanRepo, sessionRepo)
	sessionService := service.NewSessionService(sessionRepo)
	groupService := service.NewGroupService(groupRepo, groupMemberRepo, groupSessionRepo, attendanceRepo, userRepo)
	coachService := service.NewCoachService(coachProfileRepo, coachingRepo, groupRepo, userRepo, fileStorage)

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret, authService, profileService, planService, sessionService, groupService, coachService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
