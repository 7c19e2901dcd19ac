package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/account-ledger/internal/config"
	"github.com/sheikh-saqib/account-ledger/internal/events/kafka"
	"github.com/sheikh-saqib/account-ledger/internal/idempotency"
	interfaces "github.com/sheikh-saqib/account-ledger/internal/interfaces"
	"github.com/sheikh-saqib/account-ledger/internal/ledger"
	"github.com/sheikh-saqib/account-ledger/internal/logging"
	"github.com/sheikh-saqib/account-ledger/internal/registry"
	"github.com/sheikh-saqib/account-ledger/internal/server"
	"github.com/sheikh-saqib/account-ledger/internal/storage/breaker"
	"github.com/sheikh-saqib/account-ledger/internal/storage/memory"
	"github.com/sheikh-saqib/account-ledger/internal/storage/postgres"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if !cfg.DotEnvLoaded {
		logger.Warn("no .env file found, relying on environment variables")
	}

	ctx := context.Background()

	store, db, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("storage setup failed", zap.String("storage", cfg.Storage), zap.Error(err))
	}

	reg := registry.New(store, logger)

	opts := []ledger.Option{
		ledger.WithLogger(logger),
		ledger.WithPersistTimeout(cfg.PersistTimeout),
		ledger.WithFailureAudit(cfg.AuditFailedTransactions),
	}

	var publisher *kafka.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher = kafka.NewPublisher(cfg.KafkaBrokers)
		opts = append(opts, ledger.WithPublisher(publisher, cfg.KafkaTopic))
		logger.Info("publishing transaction events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}

	ledgerService := ledger.NewLedger(reg, store, opts...)

	var serverOpts []server.Option
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal("redis connection failed", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		serverOpts = append(serverOpts, server.WithIdempotency(idempotency.NewRedisStore(redisClient), cfg.IdempotencyTTL))
	}

	app := server.NewServer(ledgerService, reg, logger, serverOpts...).App()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("starting server", zap.String("env", cfg.Env), zap.String("port", cfg.Port), zap.String("storage", cfg.Storage))
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("server stopped", zap.Error(err))
		}
	}()

	<-stop
	logger.Info("shutting down server")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka writer close failed", zap.Error(err))
		}
	}
	if redisClient != nil {
		redisClient.Close()
	}
	if db != nil {
		db.Close()
	}
	logger.Info("server exited")
}

// openStore picks the store from config. The postgres store is wrapped in a
// circuit breaker; the returned *sql.DB is nil for the memory store.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (interfaces.LedgerStore, *sql.DB, error) {
	if cfg.Storage != config.StoragePostgres {
		return memory.NewMemoryLedgerStore(), nil, nil
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}

	breakerCfg := breaker.DefaultConfig()
	breakerCfg.ConsecutiveFailures = cfg.BreakerConsecutiveFailures
	breakerCfg.OpenTimeout = cfg.BreakerOpenTimeout

	return breaker.New(postgres.NewPostgresLedgerStore(db), breakerCfg, logger), db, nil
}
