package routes

import (
	"time"

	"github.com/anetioficial/comunidade/internal/adapters/http/handlers"
	"github.com/anetioficial/comunidade/internal/adapters/http/middleware"
	"github.com/anetioficial/comunidade/internal/adapters/persistence/repositories"
	"github.com/anetioficial/comunidade/internal/config"
	"github.com/anetioficial/comunidade/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Services bundles the long-lived services the server wires at startup.
// Returned to the caller so background jobs can share the same instances.
type Services struct {
	Registration *services.RegistrationService
	Email        *services.EmailService
}

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) (*Services, error) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	regRepo := repositories.NewRegistrationRepository(db)
	planRepo := repositories.NewPlanRepository(db)
	docRepo := repositories.NewDocumentRepository(db)
	couponRepo := repositories.NewCouponRepository(db)
	approvalRepo := repositories.NewApprovalRepository(db)
	outboxRepo := repositories.NewOutboxRepository(db)
	postRepo := repositories.NewPostRepository(db)

	// Initialize services
	storageService, err := services.NewStorageService(cfg.Storage, docRepo)
	if err != nil {
		return nil, err
	}

	gateway, err := services.NewMercadoPagoGateway(cfg.Payment)
	if err != nil {
		return nil, err
	}

	emailService := services.NewEmailService(outboxRepo, services.NewSMTPSender(cfg.Email), cfg.Reconcile.MaxEmailRetries)

	registrationService := services.NewRegistrationService(
		db,
		regRepo,
		userRepo,
		planRepo,
		docRepo,
		couponRepo,
		approvalRepo,
		outboxRepo,
		gateway,
		storageService,
		cfg,
	)

	authService := services.NewAuthService(userRepo, cfg)
	userService := services.NewUserService(userRepo, docRepo)
	postService := services.NewPostService(postRepo)
	planService := services.NewPlanService(planRepo)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, registrationService)
	userHandler := handlers.NewUserHandler(userService)
	postHandler := handlers.NewPostHandler(postService)
	planHandler := handlers.NewPlanHandler(planService)
	adminHandler := handlers.NewAdminHandler(registrationService)
	paymentHandler := handlers.NewPaymentHandler(registrationService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API group
	api := app.Group("/api")

	// Auth routes (public, rate limited)
	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", middleware.AuthRateLimiter(), authHandler.Register)
	authRoutes.Post("/login", middleware.AuthRateLimiter(), authHandler.Login)
	authRoutes.Get("/me", middleware.AuthMiddleware(cfg), authHandler.Me)

	// Payment webhook (public - called by the gateway)
	api.Post("/payments/webhook/mercadopago", paymentHandler.Webhook)

	// Plan routes (public listing, admin management)
	planRoutes := api.Group("/plans")
	planRoutes.Get("/", middleware.PublicCache(10*time.Minute), planHandler.ListActive)

	planAdminRoutes := planRoutes.Group("/admin")
	planAdminRoutes.Use(middleware.AuthMiddleware(cfg))
	planAdminRoutes.Use(middleware.AdminOnly())
	planAdminRoutes.Get("/", planHandler.ListAll)
	planAdminRoutes.Post("/", planHandler.Create)
	planAdminRoutes.Put("/:id", planHandler.Update)
	planAdminRoutes.Delete("/:id", planHandler.Deactivate)

	// Registered after the admin group so /plans/admin is not captured
	// by the :id parameter.
	planRoutes.Get("/:id", middleware.PublicCache(10*time.Minute), planHandler.Get)

	// Profile routes (authenticated members)
	userRoutes := api.Group("/users")
	userRoutes.Use(middleware.AuthMiddleware(cfg))
	userRoutes.Get("/profile", userHandler.GetProfile)
	userRoutes.Put("/profile", userHandler.UpdateProfile)

	// Feed routes (authenticated members)
	postRoutes := api.Group("/posts")
	postRoutes.Use(middleware.AuthMiddleware(cfg))
	postRoutes.Get("/", postHandler.List)
	postRoutes.Post("/", postHandler.Create)

	// Admin review routes
	adminRoutes := api.Group("/admin")
	adminRoutes.Use(middleware.AuthMiddleware(cfg))
	adminRoutes.Use(middleware.AdminOnly())
	adminRoutes.Use(middleware.NoCacheHeaders())
	adminRoutes.Get("/pending", adminHandler.ListPending)
	adminRoutes.Get("/:id", adminHandler.GetRegistration)
	adminRoutes.Get("/:id/documents/:documentId", adminHandler.GetDocument)
	adminRoutes.Post("/:id/approve", adminHandler.Approve)
	adminRoutes.Post("/:id/reject", adminHandler.Reject)

	return &Services{
		Registration: registrationService,
		Email:        emailService,
	}, nil
}
