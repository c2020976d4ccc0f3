package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"

	"github.com/autocredit/cartera-api/internal/config"
	"github.com/autocredit/cartera-api/internal/database"
	"github.com/autocredit/cartera-api/internal/handlers"
	"github.com/autocredit/cartera-api/internal/jobs"
	"github.com/autocredit/cartera-api/internal/middleware"
	"github.com/autocredit/cartera-api/internal/repository"
	"github.com/autocredit/cartera-api/internal/services"
	"github.com/autocredit/cartera-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	// Run migrations and seed the pipeline stages
	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	if err := database.SeedStages(db); err != nil {
		logger.Error("Failed to seed pipeline stages", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(repos, worker, cfg, db)

	// Schedule recurring jobs
	scheduleJobs(worker, svcs, cfg)

	// Initialize handlers
	h := handlers.NewHandlers(svcs)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Shutdown background worker
	worker.Shutdown()
	logger.Info("Background worker stopped")

	// Flush Sentry events before exit
	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check (public)
		v1.GET("/health", h.Health.Index)

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			// Admin-only routes
			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				// User management
				admin.POST("/users", h.User.Create)
				admin.GET("/users", h.User.Index)
				admin.GET("/users/:user_id", h.User.Show)

				// Charge-off (the only path into incobrable)
				admin.POST("/contracts/:contract_id/charge_off", h.Contract.ChargeOff)

				// Audit trail
				admin.GET("/audits", h.Audit.Index)
			}

			// Sales pipeline (sales agents, analysts and admins)
			sales := protected.Group("")
			sales.Use(middleware.RequireRole("admin", "sales", "analyst"))
			{
				sales.GET("/leads", h.Lead.Index)
				sales.POST("/leads", h.Lead.Create)
				sales.GET("/leads/:lead_id", h.Lead.Show)
				sales.POST("/leads/:lead_id/convert", h.Lead.Convert)

				sales.GET("/vehicles", h.Vehicle.Index)
				sales.POST("/vehicles", h.Vehicle.Create)
				sales.GET("/vehicles/:vehicle_id", h.Vehicle.Show)

				sales.GET("/stages", h.Pipeline.Stages)
				sales.GET("/opportunities", h.Pipeline.Index)
				sales.GET("/opportunities/:opportunity_id", h.Pipeline.Show)
				sales.PUT("/opportunities/:opportunity_id/terms", h.Pipeline.UpdateTerms)
				sales.POST("/opportunities/:opportunity_id/advance", h.Pipeline.Advance)
				sales.POST("/opportunities/:opportunity_id/materialize", h.Pipeline.Materialize)
				sales.POST("/opportunities/:opportunity_id/mark_lost", h.Pipeline.MarkLost)
				sales.GET("/opportunities/:opportunity_id/history", h.Pipeline.History)
				sales.GET("/opportunities/:opportunity_id/schedule_preview", h.Pipeline.PreviewSchedule)

				// Credit approval (the service restricts it to analysts and admins)
				sales.POST("/opportunities/:opportunity_id/approve_analysis", h.Pipeline.ApproveAnalysis)
			}

			// Portfolio and collections (collectors and admins)
			cobros := protected.Group("")
			cobros.Use(middleware.RequireRole("admin", "cobros"))
			{
				cobros.GET("/contracts", h.Contract.Index)
				cobros.GET("/contracts/:contract_id", h.Contract.Show)
				cobros.GET("/contracts/:contract_id/schedule", h.Contract.Schedule)
				cobros.POST("/contracts/:contract_id/payments", h.Contract.RegisterPayment)
				cobros.POST("/contracts/:contract_id/reevaluate", h.Contract.Reevaluate)

				cobros.GET("/cases", h.Collections.Index)
				cobros.GET("/cases/:case_id", h.Collections.Show)
				cobros.POST("/cases/:case_id/contacts", h.Collections.RecordContact)
				cobros.GET("/cases/:case_id/contacts", h.Collections.Contacts)
				cobros.PUT("/cases/:case_id/assignment", h.Collections.Reassign)
				cobros.POST("/cases/:case_id/arrangements", h.Collections.CreateArrangement)
				cobros.GET("/cases/:case_id/arrangements", h.Collections.Arrangements)
				cobros.POST("/arrangements/:arrangement_id/payments", h.Collections.RecordArrangementPayment)
				cobros.POST("/arrangements/:arrangement_id/cancel", h.Collections.CancelArrangement)
				cobros.POST("/cases/:case_id/recoveries", h.Collections.OpenRecovery)
				cobros.POST("/recoveries/:recovery_id/complete", h.Collections.CompleteRecovery)
				cobros.POST("/recoveries/:recovery_id/cancel", h.Collections.CancelRecovery)

				cobros.GET("/dashboard/collector", h.Collections.Dashboard)
				cobros.POST("/delinquency/sweep", h.Collections.Sweep)
			}

			// Funnel reporting (any authenticated role)
			protected.GET("/reports/funnel", h.Funnel.Show)
			protected.GET("/reports/funnel_csv", h.Funnel.ExportCSV)
			protected.GET("/reports/funnel_xlsx", h.Funnel.ExportXLSX)
			protected.GET("/reports/cases_xlsx", h.Funnel.ExportCases)
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services, cfg *config.Config) {
	sweepInterval := time.Duration(cfg.DelinquencySweepMinutes) * time.Minute

	// Rebucket the active portfolio on a fixed cadence
	sweepLog := logger.With("job", "delinquency_sweep")
	worker.ScheduleEvery(sweepInterval, func(ctx context.Context) error {
		sweepLog.Info("Running delinquency sweep")
		return svcs.Delinquency.SweepAll(ctx)
	})

	logger.Info("Scheduled recurring jobs")
}
