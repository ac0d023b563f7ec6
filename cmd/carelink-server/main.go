package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/carelink/carelink/internal/config"
	"github.com/carelink/carelink/internal/domain/antenatal"
	"github.com/carelink/carelink/internal/domain/hospital"
	"github.com/carelink/carelink/internal/domain/messaging"
	"github.com/carelink/carelink/internal/domain/patient"
	"github.com/carelink/carelink/internal/domain/referral"
	"github.com/carelink/carelink/internal/domain/scheduling"
	"github.com/carelink/carelink/internal/platform/auth"
	"github.com/carelink/carelink/internal/platform/db"
	"github.com/carelink/carelink/internal/platform/events"
	"github.com/carelink/carelink/internal/platform/middleware"
	"github.com/carelink/carelink/internal/platform/notification"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "carelink-server",
		Short: "Multi-tenant hospital administration API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(hospitalCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
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
			schema, _ := cmd.Flags().GetString("schema")
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
			fmt.Printf("Running migrations on schema: %s\n", schema)

			count, err := migrator.Up(ctx, schema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("schema", "shared", "Target schema for migrations")
	upCmd.Flags().String("dir", "./migrations/shared", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
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
			statuses, err := migrator.Status(ctx, schema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("Migration status for schema: %s\n", schema)
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("schema", "shared", "Target schema for migrations")
	statusCmd.Flags().String("dir", "./migrations/shared", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func hospitalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hospital",
		Short: "Manage hospitals",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Provision a new hospital with its tenant schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("admin-email")
			password, _ := cmd.Flags().GetString("admin-password")
			plan, _ := cmd.Flags().GetString("plan")
			if name == "" || email == "" || password == "" {
				return fmt.Errorf("--name, --admin-email and --admin-password are required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := hospital.NewService(
				hospital.NewRepoPG(pool),
				hospital.NewSubscriptionRepoPG(pool),
				hospital.NewStatsRepoPG(pool),
				func(ctx context.Context, subdomain string) error {
					return db.CreateHospitalSchema(ctx, pool, subdomain, cfg.MigrationsDir)
				},
				events.NopPublisher{},
				logger,
			)

			h, err := svc.Provision(ctx, hospital.ProvisionInput{
				Name:          name,
				AdminEmail:    email,
				AdminPassword: password,
				Plan:          plan,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Hospital %q provisioned with subdomain %s\n", h.Name, h.Subdomain)
			return nil
		},
	}
	createCmd.Flags().String("name", "", "Hospital name")
	createCmd.Flags().String("admin-email", "", "Hospital admin email")
	createCmd.Flags().String("admin-password", "", "Hospital admin password")
	createCmd.Flags().String("plan", "basic", "Subscription plan (basic|premium|enterprise)")

	cmd.AddCommand(createCmd)
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
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.EventsEnabled() {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer kp.Close()
		publisher = kp
		logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("event publishing enabled")
	}

	notifier := notification.NewManager(
		&notification.LogEmailSender{Logger: logger},
		&notification.LogSMSSender{Logger: logger},
		notification.NewTemplateEngine(),
		cfg.NotifyRPS,
		cfg.NotifyBurst,
	)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "X-Hospital-ID"},
	}))

	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			JWKSURL:    cfg.AuthJWKSURL,
			SigningKey: []byte(cfg.AuthSigningKey),
		}))
	}

	e.Use(db.HospitalMiddleware(pool, cfg.DefaultHospital))
	e.Use(middleware.Audit(logger))

	e.GET("/health", db.HealthHandler(pool))

	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Hospital provisioning
	hospitalRepo := hospital.NewRepoPG(pool)
	hospitalSvc := hospital.NewService(
		hospitalRepo,
		hospital.NewSubscriptionRepoPG(pool),
		hospital.NewStatsRepoPG(pool),
		func(ctx context.Context, subdomain string) error {
			return db.CreateHospitalSchema(ctx, pool, subdomain, cfg.MigrationsDir)
		},
		publisher,
		logger,
	)
	hospital.NewHandler(hospitalSvc).RegisterRoutes(apiV1)

	// Patients and medical records
	patientRepo := patient.NewRepoPG(pool)
	patientSvc := patient.NewService(patientRepo, patient.NewMedicalRecordRepoPG(pool))
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)

	// Antenatal care
	antenatalSvc := antenatal.NewService(
		antenatal.NewPregnancyRepoPG(pool),
		antenatal.NewScheduleRepoPG(pool),
		antenatal.NewRegistrationRepoPG(pool),
		patientRepo,
		notifier,
		publisher,
		logger,
	)
	antenatal.NewHandler(antenatalSvc).RegisterRoutes(apiV1)

	// Inter-hospital referrals
	referralSvc := referral.NewService(
		referral.NewRepoPG(pool),
		hospitalRepo,
		patientRepo,
		notifier,
		publisher,
		logger,
	)
	referral.NewHandler(referralSvc).RegisterRoutes(apiV1)

	// Appointments
	schedulingSvc := scheduling.NewService(
		scheduling.NewRepoPG(pool),
		patientRepo,
		notifier,
		publisher,
		logger,
	)
	scheduling.NewHandler(schedulingSvc).RegisterRoutes(apiV1)

	// Chat threads
	messagingSvc := messaging.NewService(
		messaging.NewThreadRepoPG(pool),
		messaging.NewMessageRepoPG(pool),
		patientRepo,
		logger,
	)
	messaging.NewHandler(messagingSvc).RegisterRoutes(apiV1)

	// Start server with graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
