package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mindhaven/mindhaven/internal/config"
	"github.com/mindhaven/mindhaven/internal/domain/account"
	"github.com/mindhaven/mindhaven/internal/domain/activity"
	"github.com/mindhaven/mindhaven/internal/domain/analytics"
	"github.com/mindhaven/mindhaven/internal/domain/assessment"
	"github.com/mindhaven/mindhaven/internal/domain/content"
	"github.com/mindhaven/mindhaven/internal/domain/practice"
	"github.com/mindhaven/mindhaven/internal/domain/support"
	"github.com/mindhaven/mindhaven/internal/domain/therapist"
	platformanalytics "github.com/mindhaven/mindhaven/internal/platform/analytics"
	"github.com/mindhaven/mindhaven/internal/platform/auth"
	"github.com/mindhaven/mindhaven/internal/platform/db"
	"github.com/mindhaven/mindhaven/internal/platform/middleware"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "mindhaven-server",
		Short: "MindHaven admin API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the admin API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				state := "pending"
				appliedAt := "-"
				if s.Applied {
					state = "applied"
				}
				if s.AppliedAt != nil {
					appliedAt = s.AppliedAt.Format(time.RFC3339)
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, state, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := buildServer(cfg, pool, logger)

	// Graceful shutdown on SIGINT/SIGTERM.
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}
	return nil
}

// buildServer wires middleware, repositories, services, and routes onto a
// fresh echo instance.
func buildServer(cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.JWTIssuer,
			SigningKey: []byte(cfg.JWTSigningKey),
		}))
	}

	// Repositories
	assessmentRepo := assessment.NewRepoPG(pool)
	practiceRepo := practice.NewRepoPG(pool)
	contentRepo := content.NewRepoPG(pool)
	therapistRepo := therapist.NewRepoPG(pool)
	ticketRepo := support.NewTicketRepoPG(pool)
	resourceRepo := support.NewResourceRepoPG(pool)
	faqRepo := support.NewFAQRepoPG(pool)
	accountRepo := account.NewRepoPG(pool)
	activityRepo := activity.NewRepoPG(pool)

	// Services
	runTx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.WithTx(ctx, pool, fn)
	}
	assessmentSvc := assessment.NewService(assessmentRepo, runTx)
	practiceSvc := practice.NewService(practiceRepo)
	contentSvc := content.NewService(contentRepo)
	therapistSvc := therapist.NewService(therapistRepo)
	supportSvc := support.NewService(ticketRepo, resourceRepo, faqRepo)
	accountSvc := account.NewService(accountRepo)
	activitySvc := activity.NewService(activityRepo)
	dashboardSvc := analytics.NewService(
		analytics.NewAssessmentCounts(pool),
		analytics.NewAssessmentCategories(pool),
		analytics.NewPracticeCounts(pool),
		analytics.NewArticleCounts(pool),
		analytics.NewTherapistCounts(pool),
		analytics.NewTicketCounts(pool),
		analytics.NewActivityCounts(pool),
	)

	// Activity recording and usage tracking sit after auth so entries carry
	// actor identity.
	e.Use(middleware.Activity(logger, activitySvc))
	usage := platformanalytics.NewUsageTracker(10000)
	e.Use(platformanalytics.UsageMiddleware(usage))

	e.GET("/health", db.HealthHandler(pool))
	e.GET("/version", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"version": version})
	})

	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Domain routes
	assessment.NewHandler(assessmentSvc).RegisterRoutes(apiV1)
	practice.NewHandler(practiceSvc).RegisterRoutes(apiV1)
	content.NewHandler(contentSvc).RegisterRoutes(apiV1)
	therapist.NewHandler(therapistSvc).RegisterRoutes(apiV1)
	support.NewHandler(supportSvc).RegisterRoutes(apiV1)
	account.NewHandler(accountSvc).RegisterRoutes(apiV1)
	activity.NewHandler(activitySvc).RegisterRoutes(apiV1)
	analytics.NewHandler(dashboardSvc).RegisterRoutes(apiV1)

	usageGroup := apiV1.Group("", auth.RequireRole("admin"))
	platformanalytics.NewUsageHandler(usage).RegisterRoutes(usageGroup)

	return e
}
