package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/huayu-app/huayu-backend/internal/handlers"
	"github.com/huayu-app/huayu-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler         *handlers.AuthHandler
	AuthMiddleware      *middleware.AuthMiddleware
	UserHandler         *handlers.UserHandler
	HskLevelHandler     *handlers.HskLevelHandler
	ScenarioHandler     *handlers.ScenarioHandler
	ConversationHandler *handlers.ConversationHandler
	PreLearningHandler  *handlers.PreLearningHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)
	router.POST("/refresh", cfg.AuthHandler.Refresh)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/logout", cfg.AuthHandler.Logout)
	// User
	protected.GET("/user", cfg.UserHandler.GetMe)
	protected.PATCH("/user", cfg.UserHandler.UpdateProfile)
	protected.PATCH("/user/settings", cfg.UserHandler.UpdateSettings)
	// HSK levels
	protected.GET("/hsk-levels", cfg.HskLevelHandler.List)
	protected.GET("/hsk-levels/:id", cfg.HskLevelHandler.Get)
	// Scenarios
	protected.GET("/scenarios", cfg.ScenarioHandler.List)
	protected.GET("/scenarios/mine", cfg.ScenarioHandler.ListMine)
	protected.GET("/scenarios/:id", cfg.ScenarioHandler.Get)
	protected.POST("/scenarios", cfg.ScenarioHandler.Create)
	protected.PATCH("/scenarios/:id", cfg.ScenarioHandler.Update)
	protected.DELETE("/scenarios/:id", cfg.ScenarioHandler.Delete)
	// Conversations
	protected.POST("/conversations", cfg.ConversationHandler.Start)
	protected.GET("/conversations", cfg.ConversationHandler.List)
	protected.POST("/conversations/:id/turns", cfg.ConversationHandler.SubmitTurn)
	protected.GET("/conversations/:id/turns", cfg.ConversationHandler.GetTurns)
	protected.POST("/conversations/:id/end", cfg.ConversationHandler.End)
	protected.POST("/conversations/:id/save", cfg.ConversationHandler.Save)
	// Pre-learning
	protected.GET("/pre-learning/:scenarioId/:hskLevelId", cfg.PreLearningHandler.GetContent)

	// ===============
	// || Admin     ||
	// ===============
	admin := router.Group("/admin")
	admin.Use(cfg.AuthMiddleware.RequireAuth(), cfg.AuthMiddleware.RequireAdmin())
	admin.POST("/hsk-levels", cfg.HskLevelHandler.Create)
	admin.PATCH("/hsk-levels/:id", cfg.HskLevelHandler.Update)
	admin.DELETE("/hsk-levels/:id", cfg.HskLevelHandler.Delete)

	return router
}
