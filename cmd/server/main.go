package main

import (
	"context"
	"log"
	"os"

	"church-attendance-backend/internal/api/routes"
	"church-attendance-backend/internal/config"
	"church-attendance-backend/internal/projection"
	"church-attendance-backend/internal/store"
	"church-attendance-backend/internal/store/firebase"
	"church-attendance-backend/internal/store/memory"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	_ "church-attendance-backend/docs" // This is needed for swag
)

//	@title			Church Attendance Backend API
//	@version		1.0
//	@description	Backend API for church membership and service attendance tracking: member rosters, ministry teams, attendance sheets and statistics.

//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT

//	@host		localhost:7008
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and JWT token.

func main() {
	// Load environment variables from .env file in development
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Set up logging
	setupLogging(cfg.LogLevel)

	// Initialize the external store
	st, err := openStore(cfg)
	if err != nil {
		logrus.Fatal("Failed to initialize store:", err)
	}

	// Start the shared projections
	registry := projection.NewRegistry(st, cfg.StoreTimeout())
	if err := registry.Start(); err != nil {
		logrus.Fatal("Failed to start projections:", err)
	}
	defer registry.Close()

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	router := routes.SetupRoutes(st, registry, cfg)

	// Start server
	port := cfg.Port
	if port == "" {
		port = "7008"
	}

	logrus.Infof("Starting server on port %s", port)
	if err := router.Run(":" + port); err != nil {
		logrus.Fatal("Failed to start server:", err)
	}
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case "firebase":
		client, err := firebase.New(context.Background(), firebase.Options{
			DatabaseURL:     cfg.FirebaseDatabaseURL,
			CredentialsFile: cfg.FirebaseCredentialsFile,
			PollInterval:    cfg.StorePollInterval(),
			RequestTimeout:  cfg.StoreTimeout(),
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		logrus.Warn("Using in-memory store; data is lost on restart")
		return memory.New(), nil
	}
}

func setupLogging(level string) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)

	switch level {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "info":
		logrus.SetLevel(logrus.InfoLevel)
	case "warn":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}
}
