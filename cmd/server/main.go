package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/Cordycepsers/final-transcript/internal/cleanup"
	"github.com/Cordycepsers/final-transcript/internal/config"
	"github.com/Cordycepsers/final-transcript/internal/events"
	"github.com/Cordycepsers/final-transcript/internal/handlers"
	"github.com/Cordycepsers/final-transcript/internal/logger"
	"github.com/Cordycepsers/final-transcript/internal/media"
	"github.com/Cordycepsers/final-transcript/internal/nlp"
	"github.com/Cordycepsers/final-transcript/internal/observability"
	"github.com/Cordycepsers/final-transcript/internal/orchestrator"
	"github.com/Cordycepsers/final-transcript/internal/retry"
	"github.com/Cordycepsers/final-transcript/internal/revai"
	"github.com/Cordycepsers/final-transcript/internal/storage"
)

func main() {
	// .env is optional; deployments configure through the environment.
	_ = godotenv.Load()

	baseLog := logger.New()
	log := baseLog.WithComponent("server")

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to load config")
	}

	metrics := observability.Default
	var metricsServer *observability.Server
	if cfg.Observability.MetricsAddr != "" {
		metricsServer = observability.NewServer(cfg.Observability.MetricsAddr, baseLog)
		metricsServer.Start()
	}

	// Result store: Google Sheets when credentials are present, a local
	// workbook otherwise.
	var store storage.Store
	if _, err := os.Stat(cfg.Sheets.CredentialsFile); err == nil && cfg.Sheets.SpreadsheetID != "" {
		sheetsStore, err := storage.NewSheetsStore(cfg, baseLog)
		if err != nil {
			log.WithError(err).Warn("Google Sheets not available, falling back to local workbook")
			store = storage.NewWorkbookStore(cfg, baseLog)
		} else {
			log.Info("Google Sheets delivery enabled")
			store = sheetsStore
		}
	} else {
		log.Info("Google Sheets credentials not found, delivering to local workbook")
		store = storage.NewWorkbookStore(cfg, baseLog)
	}

	var ledger *storage.Ledger
	if cfg.Ledger.Database != "" {
		ledger, err = storage.NewLedger(cfg.Ledger.Database)
		if err != nil {
			log.WithError(err).Fatal("Failed to open results ledger")
		}
		defer ledger.Close()

		scheduler := cleanup.NewScheduler(
			ledger,
			time.Duration(cfg.Ledger.IntervalMinutes)*time.Minute,
			time.Duration(cfg.Ledger.MaxAgeDays)*24*time.Hour,
			baseLog,
		)
		scheduler.Start()
		defer scheduler.Stop()
	}

	publisher := events.NewPublisher(cfg, metrics, baseLog)
	defer publisher.Close()

	validator := media.NewValidator(cfg.Media.SupportedFormats)
	estimator := media.NewQualityEstimator(
		time.Duration(cfg.Media.ProbeTimeoutSeconds)*time.Second,
		baseLog,
	)

	client := revai.NewClient(revai.ClientConfig{
		BaseURL:      cfg.Provider.BaseURL,
		AccessToken:  cfg.Provider.AccessToken,
		PollInterval: cfg.PollInterval(),
		Validator:    validator,
		Metrics:      metrics,
		Logger:       baseLog,
	})

	orch := orchestrator.New(orchestrator.Config{
		Client:      client,
		Store:       store,
		Ledger:      ledger,
		Publisher:   publisher,
		Validator:   validator,
		Estimator:   estimator,
		Analyzer:    nlp.NewAnalyzer(),
		Retry:       retry.NewPolicy(cfg.Retry.MaxAttempts, time.Duration(cfg.Retry.InitialIntervalSeconds)*time.Second),
		CallbackURL: cfg.Provider.CallbackURL,
		MaxWait:     cfg.MaxWait(),
		Metrics:     metrics,
		Logger:      baseLog,
	})

	app := fiber.New()

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	webhookHandler := handlers.NewWebhookHandler(orch, baseLog)
	manualHandler := handlers.NewManualHandler(orch, baseLog)
	resultsHandler := handlers.NewResultsHandler(orch, ledger, baseLog)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	app.Post("/webhook", webhookHandler.Handle)
	app.Post("/manual/transcribe", manualHandler.Transcribe)
	app.Get("/manual/status/:job_id", manualHandler.Status)
	app.Post("/manual/batch", manualHandler.Batch)
	app.Get("/results", resultsHandler.List)
	app.Get("/transcript/quality/:job_id", resultsHandler.Quality)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.WithField("addr", addr).Info("Server starting")

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Info("Shutting down gracefully")
		if err := app.Shutdown(); err != nil {
			log.WithError(err).Error("Server shutdown failed")
		}
		if metricsServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				log.WithError(err).Error("Metrics server shutdown failed")
			}
		}
	}()

	if err := app.Listen(addr); err != nil {
		log.WithError(err).Fatal("Server failed")
	}
}
