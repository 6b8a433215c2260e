package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/anetioficial/comunidade/internal/adapters/http/middleware"
	"github.com/anetioficial/comunidade/internal/adapters/http/routes"
	"github.com/anetioficial/comunidade/internal/adapters/persistence/models"
	"github.com/anetioficial/comunidade/internal/config"
	"github.com/anetioficial/comunidade/internal/core/services"

	"github.com/gofiber/fiber/v2"

	_ "github.com/anetioficial/comunidade/docs" // Swagger docs
)

// @title ANETI Comunidade API
// @version 1.0
// @description API da comunidade ANETI: cadastro de membros, aprovação e feed

// @contact.name API Support
// @contact.email suporte@aneti.org.br

// @host comunidade.aneti.org.br
// @BasePath /api
// @schemes https

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

	// Seed admin account and default plans
	if err := config.SeedData(db); err != nil {
		log.Printf("⚠️ Warning: Failed to seed data: %v", err)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "ANETI Comunidade API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes (pass db and cfg for dependency injection)
	svcs, err := routes.Setup(app, db, cfg)
	if err != nil {
		log.Fatalf("❌ Failed to setup routes: %v", err)
	}

	// Background jobs: payment reconciliation sweep + email outbox dispatcher
	cronService := services.NewCronService(svcs.Registration, svcs.Email, cfg)
	cronService.Start()
	defer cronService.Stop()

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
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
