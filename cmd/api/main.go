package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/collectra/collectra-api/internal/application/service"
	"github.com/collectra/collectra-api/internal/config"
	"github.com/collectra/collectra-api/internal/infrastructure/database"
	"github.com/collectra/collectra-api/internal/infrastructure/repository"
	"github.com/collectra/collectra-api/internal/presentation/http/handler"
	"github.com/collectra/collectra-api/internal/presentation/http/routes"
	"github.com/collectra/collectra-api/pkg/clock"
	"github.com/collectra/collectra-api/pkg/utils"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Seed default data
	if err := database.SeedDefaultData(db); err != nil {
		log.Printf("Warning: Failed to seed default data: %v", err)
	}

	// Initialize JWT manager
	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.ExpiryHours,
		cfg.JWT.RefreshExpiryHours,
	)

	clk := clock.Real()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	contractRepo := repository.NewContractRepository(db)
	installmentRepo := repository.NewInstallmentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	txManager := repository.NewTransactionManager(db)

	// Initialize services
	authService := service.NewAuthService(userRepo, roleRepo, jwtManager)
	customerService := service.NewCustomerService(customerRepo, contractRepo)
	ledgerService := service.NewLedgerService(ledgerRepo, paymentRepo, contractRepo, customerRepo, txManager, cfg.Ledger, clk)
	contractService := service.NewContractService(contractRepo, installmentRepo, customerRepo, paymentRepo, ledgerService, txManager, clk)
	paymentService := service.NewPaymentService(contractRepo, installmentRepo, paymentRepo, receiptRepo, userRepo, ledgerService, txManager, clk)
	dashboardService := service.NewDashboardService(analyticsRepo, ledgerService, clk)
	reportService := service.NewReportService(contractRepo, paymentRepo, receiptRepo, customerRepo, ledgerRepo)

	// Initialize handlers
	handlers := &routes.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Customer:  handler.NewCustomerHandler(customerService),
		Contract:  handler.NewContractHandler(contractService, cfg.Ledger.DefaultCurrency),
		Payment:   handler.NewPaymentHandler(paymentService, cfg.Ledger.DefaultCurrency),
		Ledger:    handler.NewLedgerHandler(ledgerService, cfg.Ledger.DefaultCurrency),
		Dashboard: handler.NewDashboardHandler(dashboardService),
		Report:    handler.NewReportHandler(reportService),
	}

	// Set up router
	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
	})

	// Start server
	addr := ":" + cfg.App.Port
	log.Printf("Starting %s on %s", cfg.App.Name, addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
