package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
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
	"golang.org/x/crypto/bcrypt"

	"github.com/smarter/er/internal/config"
	"github.com/smarter/er/internal/domain/bed"
	"github.com/smarter/er/internal/domain/display"
	"github.com/smarter/er/internal/domain/patient"
	"github.com/smarter/er/internal/domain/queue"
	"github.com/smarter/er/internal/domain/settings"
	"github.com/smarter/er/internal/domain/user"
	"github.com/smarter/er/internal/platform/auth"
	"github.com/smarter/er/internal/platform/db"
	"github.com/smarter/er/internal/platform/middleware"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "er-server",
		Short: "Emergency room bed and queue management API",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

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
			logger, cfg, pool, err := bootstrap()
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := db.NewMigrator(pool, cfg.MigrationsDir).Up(context.Background())
			if err != nil {
				return fmt.Errorf("migrate up: %w", err)
			}
			logger.Info().Int("applied", applied).Msg("migrations complete")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, pool, err := bootstrap()
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, cfg.MigrationsDir).Status(context.Background())
			if err != nil {
				return fmt.Errorf("migrate status: %w", err)
			}
			for _, s := range statuses {
				state := "pending"
				if s.Applied {
					state = "applied"
				}
				fmt.Printf("%04d  %-40s %s\n", s.Version, s.Name, state)
			}
			return nil
		},
	}

	cmd.AddCommand(upCmd, statusCmd)
	return cmd
}

// seedCmd fills the fixed bed board (1-38) and creates the initial admin
// account. Safe to run repeatedly; existing rows are left alone.
func seedCmd() *cobra.Command {
	var adminPassword string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed beds and the initial admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, _, pool, err := bootstrap()
			if err != nil {
				return err
			}
			defer pool.Close()
			ctx := context.Background()

			for n := bed.FirstBedNumber; n <= bed.LastBedNumber; n++ {
				num := fmt.Sprintf("%d", n)
				_, err := pool.Exec(ctx, `
					INSERT INTO beds (bed_number, zone, status, updated_at)
					VALUES ($1, $2, 'available', NOW())
					ON CONFLICT (bed_number) DO NOTHING`,
					num, bed.ZoneFor(num))
				if err != nil {
					return fmt.Errorf("seed bed %s: %w", num, err)
				}
			}
			logger.Info().Int("beds", bed.LastBedNumber).Msg("bed board seeded")

			generated := false
			if adminPassword == "" {
				raw := make([]byte, 12)
				if _, err := rand.Read(raw); err != nil {
					return fmt.Errorf("generate admin password: %w", err)
				}
				adminPassword = hex.EncodeToString(raw)
				generated = true
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash admin password: %w", err)
			}

			tag, err := pool.Exec(ctx, `
				INSERT INTO users (username, password_hash, full_name, role, is_active, created_at, updated_at)
				VALUES ('admin', $1, 'Administrator', 'admin', TRUE, NOW(), NOW())
				ON CONFLICT (username) DO NOTHING`, string(hash))
			if err != nil {
				return fmt.Errorf("seed admin: %w", err)
			}
			if tag.RowsAffected() == 1 {
				if generated {
					fmt.Printf("admin account created, password: %s\n", adminPassword)
				} else {
					logger.Info().Msg("admin account created")
				}
			} else {
				logger.Info().Msg("admin account already exists")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&adminPassword, "admin-password", "", "password for the initial admin account (random if omitted)")
	return cmd
}

func newLogger() zerolog.Logger {
	if os.Getenv("ENV") == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func bootstrap() (zerolog.Logger, *config.Config, *pgxpool.Pool, error) {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return logger, nil, nil, fmt.Errorf("load config: %w", err)
	}

	pool, err := db.NewPool(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return logger, nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return logger, cfg, pool, nil
}

// hnResolver lets the bed engine look patients up by hospital number while
// keeping the bed package's own error vocabulary.
type hnResolver struct {
	patients interface {
		ResolveHN(ctx context.Context, hn string) (int64, error)
	}
}

func (r hnResolver) ResolveHN(ctx context.Context, hn string) (int64, error) {
	id, err := r.patients.ResolveHN(ctx, hn)
	if errors.Is(err, patient.ErrNotFound) {
		return 0, bed.ErrPatientNotFound
	}
	return id, err
}

// patientChecker gives the queue manager an existence check over the patient
// store. Built on the repository directly so the queue and patient services
// can be constructed in either order.
type patientChecker struct {
	repo patient.Repository
}

func (c patientChecker) Exists(ctx context.Context, patientID int64) (bool, error) {
	_, err := c.repo.GetByID(ctx, patientID)
	if errors.Is(err, patient.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// activityRecorderPG persists mutating staff requests to activity_logs.
type activityRecorderPG struct {
	pool *pgxpool.Pool
}

func (r *activityRecorderPG) RecordActivity(entry middleware.ActivityEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO activity_logs (user_id, action, path, method, ip_address, request_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.UserID, entry.Action, entry.Path, entry.Method,
		entry.IPAddress, entry.RequestID, entry.Status, entry.Timestamp)
	return err
}

func runServer() error {
	logger := newLogger()

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

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)

	// Repositories
	bedRepo := bed.NewRepoPG(pool)
	historyRepo := bed.NewHistoryRepoPG(pool)
	patientRepo := patient.NewRepoPG(pool)
	queueRepo := queue.NewRepoPG(pool)
	displayRepo := display.NewRepoPG(pool)
	settingsRepo := settings.NewRepoPG(pool)
	userRepo := user.NewRepoPG(pool)

	// Services. The queue manager doubles as the patient service's enqueuer
	// and the patient service as the queue's existence check, so the queue
	// service is built against the repo-level checker first.
	queueSvc := queue.NewService(queueRepo, patientChecker{repo: patientRepo})
	patientSvc := patient.NewService(patientRepo, queueSvc, logger)
	inTx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.WithTx(ctx, pool, fn)
	}
	bedSvc := bed.NewService(bedRepo, historyRepo, hnResolver{patients: patientSvc}, inTx)
	displaySvc := display.NewService(displayRepo)
	settingsSvc := settings.NewService(settingsRepo, logger)
	userSvc := user.NewService(userRepo, issuer, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}

	// Public endpoints: wall display polling and staff login.
	public := e.Group("/api/v1")
	public.Use(middleware.RateLimit(rateLimitCfg))

	// Staff endpoints.
	api := e.Group("/api/v1")
	api.Use(middleware.RateLimit(rateLimitCfg))
	if cfg.IsDev() {
		api.Use(auth.DevMiddleware())
	} else {
		api.Use(auth.Middleware(issuer))
	}
	api.Use(middleware.Activity(logger, &activityRecorderPG{pool: pool}))

	bed.NewHandler(bedSvc, logger).RegisterRoutes(api)
	patient.NewHandler(patientSvc, logger).RegisterRoutes(api)
	queue.NewHandler(queueSvc, logger).RegisterRoutes(api, public)
	display.NewHandler(displaySvc, logger).RegisterRoutes(public)
	settings.NewHandler(settingsSvc, logger).RegisterRoutes(api, public)
	user.NewHandler(userSvc, logger).RegisterRoutes(api, public)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
