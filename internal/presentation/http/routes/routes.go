package routes

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/collectra/collectra-api/internal/config"
	domainRepo "github.com/collectra/collectra-api/internal/domain/repository"
	"github.com/collectra/collectra-api/internal/presentation/http/handler"
	"github.com/collectra/collectra-api/internal/presentation/http/middleware"
	"github.com/collectra/collectra-api/pkg/utils"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Auth      *handler.AuthHandler
	Customer  *handler.CustomerHandler
	Contract  *handler.ContractHandler
	Payment   *handler.PaymentHandler
	Ledger    *handler.LedgerHandler
	Dashboard *handler.DashboardHandler
	Report    *handler.ReportHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Public routes (no authentication required)
		registerAuthRoutes(v1, h)

		// Protected routes (authentication required)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))

		// Per-user rate limiter
		rateLimiter := middleware.NewUserRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: float64(deps.Cfg.RateLimit.Requests) / float64(deps.Cfg.RateLimit.Duration),
			BurstSize:         deps.Cfg.RateLimit.Requests,
			CleanupInterval:   5 * time.Minute,
			EntryTTL:          10 * time.Minute,
		})
		protected.Use(rateLimiter.Middleware())

		registerProtectedRoutes(protected, h, deps)
	}

	return router
}

func registerAuthRoutes(v1 *gin.RouterGroup, h *Handlers) {
	auth := v1.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/register", h.Auth.Register)
		auth.POST("/refresh", h.Auth.Refresh)
	}
}

func registerProtectedRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	// Auth/Profile routes
	protected.GET("/auth/me", h.Auth.Me)
	protected.PUT("/auth/password", h.Auth.ChangePassword)

	// Dashboard
	protected.GET("/dashboard", middleware.RequirePermission("view-dashboard"), h.Dashboard.Stats)
	protected.GET("/dashboard/trend", middleware.RequirePermission("view-dashboard"), h.Dashboard.CollectionTrend)

	registerCustomerRoutes(protected, h)
	registerContractRoutes(protected, h)
	registerPaymentRoutes(protected, h, deps)
	registerLedgerRoutes(protected, h)
	registerReportRoutes(protected, h)
}

func registerCustomerRoutes(protected *gin.RouterGroup, h *Handlers) {
	customers := protected.Group("/customers")
	customers.Use(middleware.RequirePermission("manage-customers"))
	{
		customers.GET("", h.Customer.List)
		customers.GET("/:id", h.Customer.Get)
		customers.POST("", h.Customer.Create)
		customers.PUT("/:id", h.Customer.Update)
		customers.DELETE("/:id", h.Customer.Delete)
	}
}

func registerContractRoutes(protected *gin.RouterGroup, h *Handlers) {
	contracts := protected.Group("/contracts")
	contracts.Use(middleware.RequirePermission("manage-contracts"))
	{
		contracts.GET("", h.Contract.List)
		contracts.GET("/:id", h.Contract.Get)
		contracts.POST("", h.Contract.Create)
		contracts.DELETE("/:id", h.Contract.Delete)

		// Lifecycle transitions
		contracts.POST("/:id/activate", h.Contract.Activate)
		contracts.POST("/:id/suspend", h.Contract.Suspend)
		contracts.POST("/:id/resume", h.Contract.Resume)
		contracts.POST("/:id/complete", h.Contract.Complete)
		contracts.POST("/:id/cancel", h.Contract.Cancel)
		contracts.POST("/:id/default", h.Contract.MarkDefaulted)

		// Installment waivers
		contracts.POST("/:id/installments/:installmentId/waive", h.Contract.WaiveInstallment)
		contracts.POST("/:id/installments/:installmentId/unwaive", h.Contract.UnwaiveInstallment)

		// Schedule-vs-ledger audit
		contracts.GET("/:id/consistency", h.Contract.CheckConsistency)

		// Contract ledger view
		contracts.GET("/:id/ledger", h.Ledger.GetByContract)
	}

	// Overdue sweep across all contracts
	protected.POST("/contracts-overdue-sweep",
		middleware.RequirePermission("manage-contracts"), h.Contract.MarkOverdue)
}

func registerPaymentRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	payments := protected.Group("/payments")
	{
		payments.GET("", middleware.RequirePermission("record-payments"), h.Payment.List)
		payments.GET("/:id", middleware.RequirePermission("record-payments"), h.Payment.Get)
		payments.GET("/:id/receipt", middleware.RequirePermission("record-payments"), h.Payment.GetReceipt)

		// Posting endpoints sit behind the idempotency guard so a
		// retried request never records a payment twice.
		idempotent := payments.Group("")
		idempotent.Use(middleware.IdempotencyRequired(middleware.IdempotencyConfig{
			Repo: deps.IdempotencyRepo,
		}))
		{
			idempotent.POST("", middleware.RequirePermission("record-payments"), h.Payment.Process)
			idempotent.POST("/partial", middleware.RequirePermission("record-payments"), h.Payment.ProcessPartial)
			idempotent.POST("/:id/reverse", middleware.RequirePermission("reverse-payments"), h.Payment.Reverse)
		}
	}
}

func registerLedgerRoutes(protected *gin.RouterGroup, h *Handlers) {
	ledger := protected.Group("/ledger")
	ledger.Use(middleware.RequirePermission("manage-ledger"))
	{
		ledger.GET("/entries", h.Ledger.List)
		ledger.POST("/journal-entries", h.Ledger.PostJournalEntry)
		ledger.GET("/balance", h.Ledger.Balance)
		ledger.GET("/trial-balance", h.Ledger.TrialBalance)
		ledger.POST("/reconcile", h.Ledger.Reconcile)
		ledger.GET("/unbalanced", h.Ledger.Unbalanced)
		ledger.GET("/entries/:id/validate", h.Ledger.ValidateIntegrity)
		ledger.POST("/entries/:id/archive", h.Ledger.Archive)
	}
}

func registerReportRoutes(protected *gin.RouterGroup, h *Handlers) {
	reports := protected.Group("/reports")
	reports.Use(middleware.RequirePermission("view-reports"))
	{
		reports.GET("/ledger", h.Report.LedgerExport)
		reports.GET("/contracts/:id/schedule", h.Report.ScheduleExport)
		reports.GET("/receipts/:id/pdf", h.Report.ReceiptPDF)
	}
}
