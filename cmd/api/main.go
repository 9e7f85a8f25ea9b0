package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/eigenhq/slowking/internal/app/migrate"
	"github.com/eigenhq/slowking/internal/config"
	"github.com/eigenhq/slowking/internal/domain"
	"github.com/eigenhq/slowking/internal/eigen"
	"github.com/eigenhq/slowking/internal/httpx"
	"github.com/eigenhq/slowking/internal/notify"
	"github.com/eigenhq/slowking/internal/pubsub"
	"github.com/eigenhq/slowking/internal/report"
	"github.com/eigenhq/slowking/internal/repository/postgres"
	"github.com/eigenhq/slowking/internal/service/benchmark"
	"github.com/eigenhq/slowking/pkg/logger"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.New("api", slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	defer runner.Close()
	if err := runner.Ping(ctx); err != nil {
		log.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	if err := runner.Ensure(ctx); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()

	registry := prometheus.NewRegistry()
	svc := newService(pool, redisClient, cfg, log)
	b := benchmark.NewBus(svc, log, registry)

	router := httpx.NewRouter(log, b, pool.Ping, registry)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}

// newService assembles the workflow handler set with its production
// collaborators.
func newService(pool *pgxpool.Pool, redisClient *redis.Client, cfg config.Config, log *slog.Logger) *benchmark.Service {
	repo := postgres.New(pool)
	publisher := pubsub.NewPublisher(redisClient, domain.SubscribeChannels(), log)

	factory := func(ctx context.Context, baseURL, username, password string) (benchmark.Platform, error) {
		return eigen.NewClient(ctx, baseURL, username, password, log)
	}

	var notifier notify.Notifier = notify.NewLogNotifier(log)
	if addr := cfg.SMTPAddr(); addr != "" && cfg.MailTo != "" {
		notifier = notify.NewSMTPNotifier(addr, cfg.MailFrom, []string{cfg.MailTo})
	}

	reporter := report.NewLatencyReport(cfg.ReportsDir, log)
	return benchmark.New(repo, publisher, factory, reporter, notifier, log, benchmark.Options{
		ArtifactsDir:  cfg.ArtifactsDir,
		RetryAttempts: uint64(cfg.DBMaxRetries),
		RetryInterval: cfg.DBRetryInterval,
	})
}
