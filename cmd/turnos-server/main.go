package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sumaargentina/turnos-api/internal/config"
	"github.com/sumaargentina/turnos-api/internal/domain/booking"
	"github.com/sumaargentina/turnos-api/internal/domain/coupon"
	"github.com/sumaargentina/turnos-api/internal/domain/doctor"
	"github.com/sumaargentina/turnos-api/internal/domain/finance"
	"github.com/sumaargentina/turnos-api/internal/platform/auth"
	"github.com/sumaargentina/turnos-api/internal/platform/cache"
	"github.com/sumaargentina/turnos-api/internal/platform/db"
	"github.com/sumaargentina/turnos-api/internal/platform/middleware"
	"github.com/sumaargentina/turnos-api/internal/platform/notification"
	"github.com/sumaargentina/turnos-api/internal/platform/payments"
)

// couponDoctorDirectory adapts the doctor service to the profile lookup the
// coupon engine needs, avoiding a circular import between the two domains.
type couponDoctorDirectory struct {
	doctors *doctor.DomainService
}

func (d *couponDoctorDirectory) ProfileByID(ctx context.Context, id uuid.UUID) (*coupon.DoctorProfile, error) {
	doc, err := d.doctors.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &coupon.DoctorProfile{ID: doc.ID, Specialty: doc.Specialty, City: doc.City}, nil
}

// doctorNameDirectory adapts the doctor service to the name lookup used by
// confirmation emails.
type doctorNameDirectory struct {
	doctors *doctor.DomainService
}

func (d *doctorNameDirectory) DoctorName(ctx context.Context, id uuid.UUID) (string, error) {
	doc, err := d.doctors.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return doc.Name, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "turnos-server",
		Short: "Medical appointment booking API server",
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
		Short: "Start the booking API server",
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
			if dir == "" {
				dir = cfg.MigrationsDir
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
	upCmd.Flags().String("dir", "", "Path to migrations directory")
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
			if dir == "" {
				dir = cfg.MigrationsDir
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
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
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
	statusCmd.Flags().String("dir", "", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Availability cache, optional
	var availCache cache.AvailabilityCache
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Msg("redis unreachable, availability cache disabled")
		} else {
			availCache = cache.NewRedis(client, cfg.AvailabilityTTL, logger)
			logger.Info().Msg("availability cache enabled")
		}
	}

	// Payment gateway, optional
	var gateway payments.Gateway
	if cfg.GatewayBaseURL != "" {
		gateway = payments.NewHTTPGateway(cfg.GatewayBaseURL, cfg.GatewayToken)
		logger.Info().Str("base_url", cfg.GatewayBaseURL).Msg("payment gateway enabled")
	}

	// Repositories
	doctorRepo := doctor.NewRepoPG(pool)
	locationRepo := doctor.NewLocationRepoPG(pool)
	couponRepo := coupon.NewRepoPG(pool)
	bookingRepo := booking.NewRepoPG(pool, couponRepo)
	expenseRepo := finance.NewRepoPG(pool)

	// Services
	doctorSvc := doctor.NewService(doctorRepo, locationRepo)
	couponSvc := coupon.NewService(couponRepo, &couponDoctorDirectory{doctors: doctorSvc})

	notifyMgr := notification.NewManager(&notification.LogSender{Log: logger}, nil, notification.NewTemplateEngine())
	notifier := notification.NewBookingNotifier(notifyMgr, &doctorNameDirectory{doctors: doctorSvc}, nil)

	bookingSvc := booking.NewService(bookingRepo, doctorSvc, couponSvc, availCache, gateway, notifier, logger)
	financeSvc := finance.NewService(expenseRepo, bookingRepo)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth middleware
	var authMW echo.MiddlewareFunc
	if cfg.IsDev() {
		authMW = auth.DevAuthMiddleware()
	} else {
		authMW = auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.JWTIssuer,
			Audience:   cfg.JWTAudience,
			SigningKey: []byte(cfg.JWTSecret),
		})
	}

	// API groups. The webhook group stays outside auth so the payment
	// gateway can reach it.
	apiV1 := e.Group("/api/v1", authMW)
	webhooks := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))
	webhooks.Use(middleware.RateLimit(rateLimitCfg))

	// Handlers
	doctor.NewHandler(doctorSvc).RegisterRoutes(apiV1)
	coupon.NewHandler(couponSvc).RegisterRoutes(apiV1)
	bookingHandler := booking.NewHandler(bookingSvc)
	bookingHandler.RegisterRoutes(apiV1)
	bookingHandler.RegisterWebhook(webhooks)
	finance.NewHandler(financeSvc).RegisterRoutes(apiV1)
	notification.NewHandler(notifyMgr).RegisterRoutes(apiV1.Group("", auth.RequireRole("admin")))

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Graceful shutdown
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

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
