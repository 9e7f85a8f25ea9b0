package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/eigenhq/slowking/internal/app/migrate"
	"github.com/eigenhq/slowking/internal/config"
	"github.com/eigenhq/slowking/internal/domain"
	"github.com/eigenhq/slowking/internal/eigen"
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
	log := logger.New("consumer", slog.LevelInfo)

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

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()

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

	svc := benchmark.New(repo, publisher, factory, reporter, notifier, log, benchmark.Options{
		ArtifactsDir:  cfg.ArtifactsDir,
		RetryAttempts: uint64(cfg.DBMaxRetries),
		RetryInterval: cfg.DBRetryInterval,
	})
	b := benchmark.NewBus(svc, log, prometheus.NewRegistry())

	consumer := pubsub.NewConsumer(redisClient, domain.SubscribeChannels(), b, log)
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("consumer stopped", "error", err)
		os.Exit(1)
	}
	log.Info("consumer stopped")
}
