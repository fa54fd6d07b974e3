package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kelseyhightower/envconfig"
	_ "github.com/lib/pq"

	"github.com/carelink/telehealth-api/internal/repository/postgres"
	internalworker "github.com/carelink/telehealth-api/internal/worker"
	"github.com/carelink/telehealth-api/pkg/logger"
	"github.com/carelink/telehealth-api/pkg/messaging/redis"
	"github.com/carelink/telehealth-api/pkg/metrics"
	"github.com/carelink/telehealth-api/pkg/worker"
)

// Config is read straight from the environment. The worker runs in the
// same deployment as the API but is configured independently.
type Config struct {
	DatabaseURL        string        `envconfig:"DATABASE_URL" required:"true"`
	RedisURL           string        `envconfig:"REDIS_URL" required:"true"`
	OutboxBatchSize    int           `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
	OutboxPollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"5s"`
	OutboxRetries      int           `envconfig:"OUTBOX_RETRIES" default:"3"`
	OutboxRetryDelay   time.Duration `envconfig:"OUTBOX_RETRY_DELAY" default:"2s"`
	SweepInterval      time.Duration `envconfig:"SWEEP_INTERVAL" default:"30s"`
}

func main() {
	var cfg Config
	if err := envconfig.Process("worker", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	l := logger.NewLogger(&logger.Config{Level: logger.InfoLevel, Service: "worker"})

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		l.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(redis.Config{URL: cfg.RedisURL})
	if err != nil {
		l.Fatal(err, "failed to connect to Redis")
	}
	defer broker.Close()

	outboxRepo := postgres.NewOutboxRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	m := metrics.NewMetrics("telehealth", "worker")

	processor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
		BatchSize:     cfg.OutboxBatchSize,
		PollInterval:  cfg.OutboxPollInterval,
		RetryAttempts: cfg.OutboxRetries,
		RetryDelay:    cfg.OutboxRetryDelay,
	}, l, m)

	sweeper := internalworker.NewStatusSweeper(appointmentRepo, internalworker.StatusSweeperConfig{
		PollInterval: cfg.SweepInterval,
	}, l)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		processor.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		sweeper.Start(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("shutting down worker...")
	cancel()
	wg.Wait()
	l.Info("worker exited properly")
}
