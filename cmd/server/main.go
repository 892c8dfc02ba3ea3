package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"casa-empenos/internal/adapters/http/middleware"
	"casa-empenos/internal/adapters/http/routes"
	"casa-empenos/internal/adapters/persistence/models"
	"casa-empenos/internal/adapters/persistence/repositories"
	"casa-empenos/internal/config"
	"casa-empenos/internal/core/services"
	"casa-empenos/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"

	_ "casa-empenos/docs" // Swagger docs
)

// @title Casa de Empeños API
// @version 1.0
// @description Pawnshop loan lifecycle API: appraisal, renewals, payments and appointments.

// @contact.name API Support

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.IsDev())
	if err != nil {
		log.Fatalf("❌ Failed to build logger: %v", err)
	}
	defer zl.Sync()

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// Seed the administrator account
	seeder := config.NewSeeder(repositories.NewAdminRepository(db), cfg.Admin)
	if err := seeder.Run(context.Background()); err != nil {
		log.Printf("⚠️ Warning: Failed to seed admin: %v", err)
	}

	svc := routes.NewServices(db, cfg, services.SystemClock{}, zl)

	// Expiry reminders pushed over the LINE Messaging API
	notifier := services.NewNotificationService(cfg.Reminder.LineChannelAccessToken, cfg.Reminder.LineTo, zl)
	if !notifier.IsEnabled() {
		log.Println("⚠️ LINE_CHANNEL_ACCESS_TOKEN or LINE_REMINDER_TO not set, expiry reminders disabled")
	}
	cronService := services.NewCronService(svc.Loans, notifier, cfg.Reminder.Cron, cfg.Reminder.Days, cfg.Schedule.Location, zl)
	if err := cronService.Start(); err != nil {
		log.Fatalf("❌ Failed to start cron: %v", err)
	}
	defer cronService.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Casa de Empeños API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes
	routes.Setup(app, cfg, svc)

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s, DB: %s, POLICY: %s]",
		cfg.Port, cfg.AppMode, cfg.Database.Driver, cfg.Loan.PaymentPolicy)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
