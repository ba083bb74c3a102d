package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"income_statement_service/internal/app"
	icaselookup "income_statement_service/internal/infra/caselookup"
	"income_statement_service/internal/infra/config"
	idb "income_statement_service/internal/infra/database"
	"income_statement_service/internal/infra/httpserver"
	"income_statement_service/internal/infra/incomesource"
	"income_statement_service/internal/infra/logger"
	"income_statement_service/internal/infra/portal"
	"income_statement_service/internal/infra/scheduler"
)

func main() {
	fmt.Println("Income Statement Service starting...")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not load application configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg)
	log := logger.Get()
	log.Infof("Configuration loaded. LogLevel: %s, Environment: %s, DialogEnabled: %t", cfg.LogLevel, cfg.Environment, cfg.DialogEnabled)

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully.")

	// Initialize Repositories
	requestRepo := idb.NewPostgresRequestRepository(db)
	log.Info("Request repository initialized.")

	// Initialize external system clients
	portalClient := portal.NewCaseClient(cfg.PortalBaseURL, cfg.PortalAPIToken)
	dialogClient := portal.NewDialogClient(cfg.DialogBaseURL, cfg.DialogAPIToken)
	incomeClient := incomesource.NewClient(cfg.IncomeSourceBaseURL, cfg.IncomeSourceAPIToken)
	caseLookupClient := icaselookup.NewClient(cfg.CaseLookupBaseURL, cfg.CaseLookupAPIToken)
	log.Info("External system clients initialized.")

	// Initialize Services
	coordinator := app.NewPortalCoordinator(portalClient, log)
	lifecycleService := app.NewLifecycleService(
		requestRepo,
		coordinator,
		portalClient,
		dialogClient,
		caseLookupClient,
		log,
		cfg.StatementFormLink,
		cfg.IsProduction(),
		cfg.DialogEnabled,
	)
	log.Info("Lifecycle service initialized.")

	incomeService := app.NewIncomeService(incomeClient, log)
	log.Info("Income service initialized.")

	// Initialize StaleRequestScheduler
	staleScheduler := scheduler.NewStaleRequestScheduler(
		lifecycleService,
		requestRepo,
		log,
		cfg.CronSpecStaleSweep,
		cfg.StaleRequestCutoffDays,
	)
	staleScheduler.Start()

	// Initialize HTTP server
	srv := httpserver.NewServer(incomeService, lifecycleService, log)
	go func() {
		if err := srv.ListenAndServe(cfg.ListenAddr); err != nil {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	log.Info("Application setup complete. Server and scheduler are running.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received

	log.Info("Shutting down application...")
	if err := srv.Shutdown(); err != nil {
		log.Errorf("HTTP server shutdown failed: %v", err)
	}
	staleScheduler.Stop()
	// db.Close() is handled by defer
	log.Info("Application shut down gracefully.")
}
