package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/huayu-app/huayu-backend/internal/db"
	"github.com/huayu-app/huayu-backend/internal/handlers"
	"github.com/huayu-app/huayu-backend/internal/logger"
	"github.com/huayu-app/huayu-backend/internal/middleware"
	"github.com/huayu-app/huayu-backend/internal/repos"
	"github.com/huayu-app/huayu-backend/internal/server"
	"github.com/huayu-app/huayu-backend/internal/services"
	"github.com/huayu-app/huayu-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	serverPort := utils.GetEnv("SERVER_PORT", "8080", log)

	quotaLimits := services.DefaultQuotaLimits()
	quotaLimits.DailyConversations = utils.GetEnvAsInt("FREE_TIER_DAILY_CONVERSATION_LIMIT", quotaLimits.DailyConversations, log)
	quotaLimits.DailyTurns = utils.GetEnvAsInt("FREE_TIER_DAILY_TURN_LIMIT", quotaLimits.DailyTurns, log)
	quotaLimits.SavedConversations = utils.GetEnvAsInt("FREE_TIER_SAVED_CONVERSATION_LIMIT", quotaLimits.SavedConversations, log)
	quotaLimits.DailyPreLearning = utils.GetEnvAsInt("FREE_TIER_DAILY_PRELEARN_LIMIT", quotaLimits.DailyPreLearning, log)
	quotaTZ := utils.GetEnv("QUOTA_TIMEZONE", "UTC", log)
	if loc, err := time.LoadLocation(quotaTZ); err != nil {
		log.Warn("Invalid QUOTA_TIMEZONE, falling back to UTC", "value", quotaTZ)
	} else {
		quotaLimits.Location = loc
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	hskLevelRepo := repos.NewHskLevelRepo(thePG, log)
	scenarioRepo := repos.NewScenarioRepo(thePG, log)
	conversationRepo := repos.NewConversationRepo(thePG, log)
	conversationTurnRepo := repos.NewConversationTurnRepo(thePG, log)
	preLearningRepo := repos.NewPreLearningRepo(thePG, log)

	// Seed
	if utils.GetEnv("SEED_ON_BOOT", "true", log) == "true" {
		seeder := db.NewSeeder(log, userRepo, hskLevelRepo, scenarioRepo)
		if err := seeder.Run(context.Background()); err != nil {
			log.Warn("Seed failed", "error", err)
		}
	}

	// Services
	authService := services.NewAuthService(
		thePG, log, userRepo, userTokenRepo,
		jwtSecretKey,
		time.Duration(accessTokenTTL)*time.Second,
		time.Duration(refreshTokenTTL)*time.Second,
	)
	userService := services.NewUserService(thePG, log, userRepo)
	hskLevelService := services.NewHskLevelService(thePG, log, hskLevelRepo)
	scenarioService := services.NewScenarioService(thePG, log, scenarioRepo, hskLevelRepo)
	quotaService := services.NewQuotaService(thePG, log, conversationRepo, conversationTurnRepo, preLearningRepo, quotaLimits)
	dialogueProvider := services.NewScriptedDialogueProvider(log)
	turnScorer := services.NewRandomTurnScorer()
	conversationService := services.NewConversationService(
		thePG, log,
		conversationRepo, conversationTurnRepo, scenarioRepo, hskLevelRepo,
		quotaService, dialogueProvider, turnScorer,
	)
	preLearningService := services.NewPreLearningService(thePG, log, preLearningRepo, scenarioRepo, hskLevelRepo, quotaService)

	// Expired cache entries are unreachable by reads; this just keeps the
	// table from growing without bound.
	purgeInterval := time.Duration(utils.GetEnvAsInt("PRELEARN_PURGE_INTERVAL_SECONDS", 3600, log)) * time.Second
	go func() {
		ticker := time.NewTicker(purgeInterval)
		defer ticker.Stop()
		for range ticker.C {
			if _, err := preLearningService.PurgeExpired(context.Background()); err != nil {
				log.Warn("Pre-learning purge failed", "error", err)
			}
		}
	}()

	// Handlers
	authHandler := handlers.NewAuthHandler(log, authService)
	userHandler := handlers.NewUserHandler(log, userService)
	hskLevelHandler := handlers.NewHskLevelHandler(log, hskLevelService)
	scenarioHandler := handlers.NewScenarioHandler(log, scenarioService)
	conversationHandler := handlers.NewConversationHandler(log, conversationService)
	preLearningHandler := handlers.NewPreLearningHandler(log, preLearningService)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:         authHandler,
		AuthMiddleware:      authMiddleware,
		UserHandler:         userHandler,
		HskLevelHandler:     hskLevelHandler,
		ScenarioHandler:     scenarioHandler,
		ConversationHandler: conversationHandler,
		PreLearningHandler:  preLearningHandler,
	})

	log.Info("Starting server", "port", serverPort)
	if err := router.Run(":" + serverPort); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
