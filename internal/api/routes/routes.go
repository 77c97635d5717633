// Package routes wires the HTTP surface: middleware chain, handler
// construction and route registration.
package routes

import (
	"church-attendance-backend/internal/api/handlers"
	"church-attendance-backend/internal/api/middleware"
	"church-attendance-backend/internal/auth"
	"church-attendance-backend/internal/config"
	"church-attendance-backend/internal/projection"
	"church-attendance-backend/internal/service"
	"church-attendance-backend/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRoutes configures all the routes for the application
func SetupRoutes(st store.Store, registry *projection.Registry, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS(cfg))

	// Initialize validator
	validate := validator.New()

	// Initialize services
	memberService := service.NewMemberService(st, registry, validate, cfg.StoreTimeout())
	teamService := service.NewTeamService(st, registry, validate, cfg.StoreTimeout())
	attendanceService := service.NewAttendanceService(st, registry, cfg.StoreTimeout())
	memberService.OnEnrolled(attendanceService.MarkEnrolled)

	authService := auth.NewService(st, cfg.JWTSecret, cfg.JWTExpiry())
	authMiddleware := auth.NewMiddleware(authService)
	authHandler := auth.NewHandler(authService)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(st)
	memberHandler := handlers.NewMemberHandler(memberService)
	teamHandler := handlers.NewTeamHandler(teamService, memberService)
	attendanceHandler := handlers.NewAttendanceHandler(attendanceService)
	exportHandler := handlers.NewExportHandler(registry)

	// Health check routes
	router.GET("/health", healthHandler.Health)
	router.GET("/health/live", healthHandler.Live)

	// Swagger documentation route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Auth routes
	authGroup := router.Group("/api/v1/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	// API v1 routes, all behind authentication
	v1 := router.Group("/api/v1")
	v1.Use(authMiddleware.RequireAuth())
	{
		// Account profile
		v1.GET("/profile", authHandler.GetProfile)
		v1.PUT("/profile", authMiddleware.RequireAdmin(), authHandler.UpdateProfile)

		// Members: reads for every role, mutations for admins
		v1.GET("/members", memberHandler.ListMembers)
		v1.GET("/members/:id", memberHandler.GetMember)
		v1.POST("/members", authMiddleware.RequireAdmin(), memberHandler.CreateMember)
		v1.PUT("/members/:id", authMiddleware.RequireAdmin(), memberHandler.UpdateMember)
		v1.DELETE("/members/:id", authMiddleware.RequireAdmin(), memberHandler.DeleteMember)
		v1.PUT("/members/:id/teams/:teamId", authMiddleware.RequireAdmin(), memberHandler.AssignTeam)
		v1.DELETE("/members/:id/teams/:teamId", authMiddleware.RequireAdmin(), memberHandler.UnassignTeam)

		// Teams
		v1.GET("/teams", teamHandler.ListTeams)
		v1.GET("/teams/:id", teamHandler.GetTeam)
		v1.POST("/teams", authMiddleware.RequireAdmin(), teamHandler.CreateTeam)
		v1.PUT("/teams/:id", authMiddleware.RequireAdmin(), teamHandler.RenameTeam)
		v1.DELETE("/teams/:id", authMiddleware.RequireAdmin(), teamHandler.DeleteTeam)

		// Attendance marking is the ushers' job, so no admin gate here
		v1.GET("/attendance/sheet", attendanceHandler.GetSheet)
		v1.PUT("/attendance/sheet/date/:dateKey", attendanceHandler.SelectDate)
		v1.POST("/attendance/sheet/toggle/:memberId", attendanceHandler.Toggle)
		v1.POST("/attendance/sheet/mark-all", attendanceHandler.MarkAll)
		v1.POST("/attendance/sheet/clear-all", attendanceHandler.ClearAll)
		v1.POST("/attendance/sheet/save", attendanceHandler.Save)
		v1.GET("/attendance/history", attendanceHandler.History)
		v1.GET("/attendance/history/:dateKey", attendanceHandler.DayDetail)
		v1.GET("/dashboard", attendanceHandler.Dashboard)

		// Export
		v1.GET("/export", exportHandler.Download)
	}

	return router
}
