package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/lalith-99/echohub/internal/api"
	"github.com/lalith-99/echohub/internal/clock"
	"github.com/lalith-99/echohub/internal/config"
	"github.com/lalith-99/echohub/internal/db"
	"github.com/lalith-99/echohub/internal/mail"
	"github.com/lalith-99/echohub/internal/observ"
	"github.com/lalith-99/echohub/internal/photo"
	"github.com/lalith-99/echohub/internal/realtime"
	"github.com/lalith-99/echohub/internal/repository"
	"github.com/lalith-99/echohub/internal/repository/file"
	"github.com/lalith-99/echohub/internal/repository/postgres"
	"github.com/lalith-99/echohub/internal/repository/redis"
	"github.com/lalith-99/echohub/internal/service"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// ---------------------------------------------------------------
	// 1. Load config
	//
	// A .env file is optional; real environment variables win.
	// ---------------------------------------------------------------
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// ---------------------------------------------------------------
	// 2. Create logger
	// ---------------------------------------------------------------
	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---------------------------------------------------------------
	// 3. Open the snapshot backend
	// ---------------------------------------------------------------
	snapshots, health, err := openSnapshots(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer snapshots.Close()

	// ---------------------------------------------------------------
	// 4. Build the service
	// ---------------------------------------------------------------
	var mailer mail.Mailer = mail.LogMailer{Logger: logger}
	if cfg.SMTP.Host != "" {
		mailer = mail.NewSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	}

	hub := realtime.NewHub(logger)
	photos := photo.NewStore(cfg.PhotoDir, cfg.PublicURL, nil)

	svc, err := service.New(ctx, service.Deps{
		Snapshots: snapshots,
		Clock:     clock.Real(),
		Mailer:    mailer,
		Photos:    photos,
		Notifier:  hub,
		Logger:    logger,
		Secret:    cfg.WorkspaceSecret,
	})
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	defer svc.Close()

	// ---------------------------------------------------------------
	// 5. Set up HTTP server
	// ---------------------------------------------------------------
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.RouterDeps{
		Service:      svc,
		Hub:          hub,
		Logger:       logger,
		PhotoDir:     photos.Dir(),
		AllowOrigins: cfg.CORSOrigins,
		Health:       health,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting echohub",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
			zap.String("store", cfg.Store.Backend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// ---------------------------------------------------------------
	// 6. Wait for a signal, then drain
	// ---------------------------------------------------------------
	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openSnapshots returns the configured backend and, where the backend has
// one, a health check for /health.
func openSnapshots(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.SnapshotRepository, func(context.Context) error, error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		database, err := db.New(ctx, cfg.Store.DatabaseURL, cfg.Store.MaxConns, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		pg := postgres.NewSnapshotStore(database.Pool())
		if err := pg.EnsureSchema(ctx); err != nil {
			database.Close()
			return nil, nil, err
		}
		return &pgSnapshots{SnapshotStore: pg, db: database}, database.Health, nil

	case config.BackendRedis:
		rs, err := redis.New(ctx, cfg.Store.RedisURL, cfg.Store.RedisKey)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		return rs, rs.Health, nil

	case config.BackendMemory:
		logger.Warn("using in-memory store, nothing survives a restart")
		return repository.NewMemorySnapshots(), nil, nil

	default:
		return file.NewSnapshotStore(cfg.Store.DataFile), nil, nil
	}
}

// pgSnapshots closes the connection pool along with the store.
type pgSnapshots struct {
	*postgres.SnapshotStore
	db *db.DB
}

func (p *pgSnapshots) Close() error {
	p.db.Close()
	return nil
}
