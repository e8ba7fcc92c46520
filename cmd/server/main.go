package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/eldergrove/eldergrove-server/internal/config"
	"github.com/eldergrove/eldergrove-server/internal/database"
	"github.com/eldergrove/eldergrove-server/internal/handlers"
	"github.com/eldergrove/eldergrove-server/internal/jobs"
	"github.com/eldergrove/eldergrove-server/internal/middleware"
	"github.com/eldergrove/eldergrove-server/internal/notify"
	"github.com/eldergrove/eldergrove-server/internal/realtime"
	"github.com/eldergrove/eldergrove-server/internal/repositories"
	"github.com/eldergrove/eldergrove-server/internal/services"
	"github.com/eldergrove/eldergrove-server/pkg/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Initialize logger
	logger.Init()
	defer logger.Sync()

	logger.Info("Starting Eldergrove server...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", err)
	}

	// Validate production security settings
	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProductionSecurity(); err != nil {
			logger.Fatal("Production security validation failed", err)
		}
		logger.Info("Production security validation passed")
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", err)
	}

	// Run GORM auto-migration
	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Repositories
	playerRepo := repositories.NewPlayerRepository(db)
	crystalRepo := repositories.NewCrystalRepository(db)
	covenRepo := repositories.NewCovenRepository(db)
	adRepo := repositories.NewAdRepository(db)
	productionRepo := repositories.NewProductionRepository(db)

	// Realtime hub and optional Telegram bridge
	hub := realtime.NewHub()
	notifier := notify.New(cfg.TelegramBotToken)

	// Services
	covenSvc := services.NewCovenService(covenRepo, playerRepo)
	rewardSvc := services.NewRewardService(playerRepo, hub,
		cfg.DailyRewardCrystals, cfg.DailyStreakBonus, cfg.DailyStreakCap)
	productionSvc := services.NewProductionService(productionRepo, playerRepo,
		crystalRepo, covenSvc, hub, cfg.ToolRepairCost)
	adSvc := services.NewAdService(adRepo, productionSvc, playerRepo,
		services.StubPresenter{}, hub,
		cfg.AdHourlyLimit, cfg.GetAdWindow(), cfg.AdMaxSpeedUpMinutes, cfg.AdEnergyRestore)

	// Maintenance jobs
	scheduler := jobs.NewScheduler(adRepo, productionRepo, playerRepo, notifier, cfg.GetAdWindow())
	if err := scheduler.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", err)
	}

	// HTTP surface
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerPlayer, cfg.RateLimitPerIP, time.Minute)
	manager := handlers.NewHandlerManager(cfg, db, playerRepo, crystalRepo,
		covenSvc, rewardSvc, productionSvc, adSvc, hub, notifier, limiter)

	server := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      manager.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  90 * time.Second,
	}

	go func() {
		logger.Info("Server listening", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
	}

	scheduler.Stop()
	logger.Info("Server stopped")
}
