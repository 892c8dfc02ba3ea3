package routes

import (
	"time"

	"casa-empenos/internal/adapters/http/handlers"
	"casa-empenos/internal/adapters/http/middleware"
	"casa-empenos/internal/adapters/persistence/repositories"
	"casa-empenos/internal/config"
	"casa-empenos/internal/core/services"
	"casa-empenos/internal/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services groups the core services served over HTTP
type Services struct {
	Auth         *services.AuthService
	Customers    *services.CustomerService
	Loans        *services.LoanService
	Appointments *services.AppointmentService
	Dashboard    *services.DashboardService
	// HealthCheck pings the database; nil skips the check
	HealthCheck func() error
}

// NewServices wires repositories and services on top of db
func NewServices(db *gorm.DB, cfg *config.Config, clock services.Clock, logger *zap.Logger) *Services {
	store := repositories.NewStore(db)

	valuation := services.NewValuationService(
		services.MustDefaultModel(),
		cfg.Loan.ValuationMinRatio,
		cfg.Loan.ValuationMaxRatio,
		logger,
	)

	return &Services{
		Auth:      services.NewAuthService(store, cfg, logger),
		Customers: services.NewCustomerService(store, logger),
		Loans: services.NewLoanService(store, valuation, clock, services.LoanServiceConfig{
			PaymentPolicy: cfg.Loan.PaymentPolicy,
			TermDays:      cfg.Loan.TermDays,
		}, logger),
		Appointments: services.NewAppointmentService(store, clock, cfg.Schedule.Location, logger),
		Dashboard:    services.NewDashboardService(store, logger),
		HealthCheck: func() error {
			return config.HealthCheck(db)
		},
	}
}

// Setup configures all routes for the application
func Setup(app *fiber.App, cfg *config.Config, svc *Services) {
	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.AppMode, svc.HealthCheck)
	authHandler := handlers.NewAuthHandler(svc.Auth, cfg)
	loanHandler := handlers.NewLoanHandler(svc.Loans)
	appointmentHandler := handlers.NewAppointmentHandler(svc.Appointments)
	dashboardHandler := handlers.NewDashboardHandler(svc.Dashboard)
	customerHandler := handlers.NewCustomerHandler(svc.Customers)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Prometheus metrics
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	// Swagger documentation
	app.Get("/swagger/*", middleware.PublicCacheHeaders(time.Hour), swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	setupAuthRoutes(apiV1.Group("/auth"), authHandler, cfg)
	setupLoanRoutes(apiV1.Group("/loans"), loanHandler, cfg)
	setupAppointmentRoutes(apiV1.Group("/appointments"), appointmentHandler, cfg)
	setupAdminRoutes(apiV1.Group("/admin"), loanHandler, appointmentHandler, dashboardHandler, customerHandler, cfg)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, h *handlers.AuthHandler, cfg *config.Config) {
	router.Post("/register", middleware.AuthRateLimiter(), h.Register)
	router.Post("/login", middleware.AuthRateLimiter(), h.Login)
	router.Post("/admin/login", middleware.AuthRateLimiter(), h.AdminLogin)
	router.Post("/logout", h.Logout)

	router.Get("/me", middleware.AuthMiddleware(cfg), middleware.NoCacheHeaders(), h.Me)
}

// setupLoanRoutes configures loan routes; ownership is checked per loan
func setupLoanRoutes(router fiber.Router, h *handlers.LoanHandler, cfg *config.Config) {
	router.Use(middleware.AuthMiddleware(cfg), middleware.NoCacheHeaders())

	router.Post("/quote", h.Quote)
	router.Post("/", middleware.CustomerOnly(), h.Create)
	router.Get("/my", middleware.CustomerOnly(), h.GetMyLoans)
	router.Get("/:id", h.GetByID)
	router.Post("/:id/renew", h.Renew)
}

// setupAppointmentRoutes configures customer appointment routes
func setupAppointmentRoutes(router fiber.Router, h *handlers.AppointmentHandler, cfg *config.Config) {
	router.Use(middleware.AuthMiddleware(cfg), middleware.CustomerOnly(), middleware.NoCacheHeaders())

	router.Post("/", h.Book)
	router.Get("/", h.GetMine)
}

// setupAdminRoutes configures admin-only routes
func setupAdminRoutes(
	router fiber.Router,
	loanHandler *handlers.LoanHandler,
	appointmentHandler *handlers.AppointmentHandler,
	dashboardHandler *handlers.DashboardHandler,
	customerHandler *handlers.CustomerHandler,
	cfg *config.Config,
) {
	router.Use(middleware.AuthMiddleware(cfg), middleware.AdminOnly(), middleware.NoCacheHeaders())

	router.Get("/dashboard", dashboardHandler.GetAdminDashboard)
	router.Get("/customers", customerHandler.GetAll)

	router.Get("/loans", loanHandler.GetAll)
	router.Post("/loans/:id/reject", loanHandler.Reject)
	router.Post("/loans/:id/pay", loanHandler.MarkPaid)
	router.Get("/renewals", loanHandler.GetRenewals)
	router.Get("/payments", loanHandler.GetPayments)

	router.Get("/appointments", appointmentHandler.GetAll)
	router.Post("/appointments/:id/:action", appointmentHandler.Transition)
}
