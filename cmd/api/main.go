package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/oceandrift/fishcrew/internal/api"
	"github.com/oceandrift/fishcrew/internal/cache"
	"github.com/oceandrift/fishcrew/internal/notify"
	"github.com/oceandrift/fishcrew/internal/ports"
	"github.com/oceandrift/fishcrew/internal/profiles"
	"github.com/oceandrift/fishcrew/internal/repository"
	"github.com/oceandrift/fishcrew/internal/service"
	"github.com/oceandrift/fishcrew/migrations"
	"github.com/oceandrift/fishcrew/pkg/config"
	"github.com/oceandrift/fishcrew/pkg/logger"
)

type App struct {
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	db       *pgxpool.Pool
	redis    *redis.Client
	producer *notify.Producer
}

func NewApp(cfg *config.Config, log *zap.Logger) *App {
	return &App{
		config: cfg,
		logger: log,
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.setupDatabase(ctx); err != nil {
		return fmt.Errorf("database setup failed: %w", err)
	}

	if err := a.setupRedis(ctx); err != nil {
		return fmt.Errorf("redis setup failed: %w", err)
	}

	if err := a.setupServer(); err != nil {
		return fmt.Errorf("server setup failed: %w", err)
	}

	return nil
}

func (a *App) setupDatabase(ctx context.Context) error {
	if err := migrations.Up(a.config.Database.URL()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(a.config.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	a.db = pool
	return nil
}

func (a *App) setupRedis(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:     a.config.Redis.Addr,
		Password: a.config.Redis.Password,
		DB:       a.config.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	a.redis = client
	return nil
}

func (a *App) setupServer() error {
	services := a.setupServices()
	router := api.NewRouter(services.BookingService, services.ApprovalService)

	a.server = &http.Server{
		Addr:         a.config.Server.Address,
		Handler:      router,
		WriteTimeout: a.config.Server.WriteTimeout,
		ReadTimeout:  a.config.Server.ReadTimeout,
		IdleTimeout:  a.config.Server.IdleTimeout,
	}

	return nil
}

type Services struct {
	BookingService  ports.BookingService
	ApprovalService ports.ApprovalService
}

func (a *App) setupServices() Services {
	tripRepo := repository.NewTripRepository(a.db,
		repository.WithLockRetries(a.config.Engine.LockRetries),
		repository.WithLockBackoff(a.config.Engine.LockRetryBackoff),
	)
	approvalRepo := repository.NewApprovalRepository(a.db)

	a.producer = notify.NewProducer(a.config.Kafka.Brokers, a.config.Kafka.Topic, a.logger)
	snapshots := cache.NewSnapshotCache(a.redis, a.config.Redis.SnapshotTTL)
	profileClient := profiles.NewClient(
		profiles.WithBaseURL(a.config.Profiles.BaseURL),
	)

	approvalService := service.NewApprovalService(approvalRepo, tripRepo, a.logger)
	bookingService := service.NewBookingService(
		tripRepo,
		approvalRepo,
		profileClient,
		a.producer,
		snapshots,
		approvalService,
		service.Config{
			ReopenOnConfirmedCancel: a.config.Engine.ReopenOnConfirmedCancel,
			DefaultMaxParticipants:  a.config.Engine.DefaultMaxParticipants,
			DefaultMinRequired:      a.config.Engine.DefaultMinRequired,
		},
		a.logger,
	)

	return Services{
		BookingService:  bookingService,
		ApprovalService: approvalService,
	}
}

func (a *App) Run(ctx context.Context) error {
	serverErrors := make(chan error, 1)

	go func() {
		a.logger.Info("starting server", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-shutdown:
		a.logger.Info("starting graceful shutdown")
		return a.Shutdown(ctx)
	case <-ctx.Done():
		return a.Shutdown(ctx)
	}
}

func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("kafka producer close failed", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("redis close failed", zap.Error(err))
		}
	}
	if a.db != nil {
		a.db.Close()
	}

	return nil
}

func main() {
	ctx := context.Background()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	app := NewApp(cfg, zlog)
	if err := app.Initialize(ctx); err != nil {
		zlog.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Run(ctx); err != nil {
		zlog.Fatal("application error", zap.Error(err))
	}
}
