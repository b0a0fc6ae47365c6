package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Vantorrr/influenta-backend/internal/config"
	"github.com/Vantorrr/influenta-backend/internal/database"
	"github.com/Vantorrr/influenta-backend/internal/handlers"
	"github.com/Vantorrr/influenta-backend/internal/middleware"
	"github.com/Vantorrr/influenta-backend/internal/migrations"
	"github.com/Vantorrr/influenta-backend/internal/models"
	"github.com/Vantorrr/influenta-backend/internal/realtime"
	"github.com/Vantorrr/influenta-backend/internal/routes"
	"github.com/Vantorrr/influenta-backend/internal/services"
	"github.com/Vantorrr/influenta-backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// 0. Load Config & Initialize Logger
	config.LoadConfig()

	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}
	logger.Init(env)

	logger.Info().Str("environment", env).Msg("Starting Influenta Backend...")

	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 1. Connect Database & Redis
	database.Connect()
	database.InitRedis()

	// 2. Migrations: tables first, then data/index migrations
	logger.Info().Msg("🔄 Running Database Migrations...")
	if err := database.DB.AutoMigrate(
		&models.User{},
		&models.Offer{},
		&models.Chat{},
		&models.Message{},
	); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate tables")
	}
	if err := migrations.NewMigrator(database.DB).Run(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}
	logger.Info().Msg("✅ Database Migrations Complete")

	// 3. Realtime gateway — constructed here, passed by handle, no
	// package globals
	gateway := realtime.NewGateway()
	go func() {
		if err := gateway.Serve(); err != nil {
			logger.Fatal().Err(err).Msg("Socket server failed")
		}
	}()
	defer gateway.Close()

	offerHandler := handlers.NewOfferHandler(gateway)
	chatHandler := handlers.NewChatHandler(gateway)

	// 4. Offer expiry sweep
	sweepInterval := time.Duration(config.AppConfig.OfferSweepIntervalMin) * time.Minute
	expiryTicker := time.NewTicker(sweepInterval)
	defer expiryTicker.Stop()
	go func() {
		for range expiryTicker.C {
			if _, err := services.ExpireStaleOffers(time.Now(), config.AppConfig.OfferExpiryDays); err != nil {
				logger.Error().Err(err).Msg("Offer expiry sweep failed")
			}
		}
	}()

	// 5. Router
	r := gin.New()
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.ErrorHandlerMiddleware())
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())

	// Exempt /socket.io from rate limiting
	r.Use(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/socket.io/") {
			c.Next()
			return
		}
		middleware.GeneralRateLimit()(c)
	})

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		routes.RegisterAuthRoutes(auth)

		routes.RegisterOfferRoutes(api, offerHandler)
		routes.RegisterChatRoutes(api, chatHandler)
	}

	// Health check with DB and Redis status
	r.GET("/health", func(c *gin.Context) {
		dbStatus := "ok"
		redisStatus := "ok"

		sqlDB, err := database.DB.DB()
		if err != nil || sqlDB.Ping() != nil {
			dbStatus = "error"
		}

		if database.Redis != nil {
			if _, err := database.Redis.Ping(context.Background()).Result(); err != nil {
				redisStatus = "error"
			}
		} else {
			redisStatus = "not configured"
		}

		status := "ok"
		if dbStatus != "ok" || (redisStatus != "ok" && redisStatus != "not configured") {
			status = "degraded"
		}

		c.JSON(200, gin.H{
			"status":  status,
			"message": "Influenta Backend is running 🚀",
			"checks": gin.H{
				"database": dbStatus,
				"redis":    redisStatus,
			},
		})
	})

	// Socket.io endpoints
	r.GET("/socket.io/*any", gateway.Handler())
	r.POST("/socket.io/*any", gateway.Handler())

	// 6. Start Server with graceful shutdown
	port := config.AppConfig.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", port).Str("env", env).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("🛑 Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("✅ Server exited gracefully")
}
