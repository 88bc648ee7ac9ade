package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sheikh-saqib/jobs-ledger/internal/config"
	"github.com/sheikh-saqib/jobs-ledger/internal/events"
	"github.com/sheikh-saqib/jobs-ledger/internal/events/kafka"
	"github.com/sheikh-saqib/jobs-ledger/internal/events/redis"
	"github.com/sheikh-saqib/jobs-ledger/internal/httpapi"
	interfaces "github.com/sheikh-saqib/jobs-ledger/internal/interfaces"
	"github.com/sheikh-saqib/jobs-ledger/internal/ledger"
	"github.com/sheikh-saqib/jobs-ledger/internal/storage/memory"
	"github.com/sheikh-saqib/jobs-ledger/internal/storage/postgres"
	"github.com/sheikh-saqib/jobs-ledger/internal/worker"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load .env (optional)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on system env vars")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("ledger service failed", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(ctx context.Context, cfg config.AppConfig, logger *zap.Logger) error {
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	backend, err := newEventBackend(cfg, logger)
	if err != nil {
		return err
	}
	publisher := events.NewAsyncPublisher(backend, cfg.EventsBuffer, cfg.EventsTimeout, logger.Named("events"))

	ledgerService := ledger.NewLedger(store,
		ledger.WithPublisher(publisher, cfg.EventsTopic),
		ledger.WithLogger(logger.Named("ledger")),
	)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewHandler(ledgerService, logger.Named("http")).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.SealInterval > 0 {
		sealer := worker.NewSealWorker(ledgerService, cfg.SealInterval, logger.Named("sealer"))
		g.Go(func() error {
			sealer.Start(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down gracefully")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		if perr := publisher.Shutdown(shutdownCtx); perr != nil {
			logger.Warn("event publisher shutdown", zap.Error(perr))
		}
		return err
	})

	return g.Wait()
}

func openStore(ctx context.Context, cfg config.AppConfig, logger *zap.Logger) (interfaces.LedgerStore, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Info("DATABASE_URL not set, using in-memory store")
		return memory.NewMemoryLedgerStore(), func() {}, nil
	}

	db, err := config.ConnectDB(ctx, cfg, logger.Named("db"))
	if err != nil {
		return nil, nil, err
	}
	store := postgres.NewPostgresLedgerStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	logger.Info("database initialized")
	return store, func() { db.Close() }, nil
}

func newEventBackend(cfg config.AppConfig, logger *zap.Logger) (interfaces.EventPublisher, error) {
	switch cfg.EventsSink {
	case "kafka":
		logger.Info("publishing events to kafka", zap.Strings("brokers", cfg.KafkaBrokers))
		return kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaCompression)
	case "redis":
		logger.Info("publishing events to redis", zap.String("addr", cfg.RedisAddr))
		return redis.NewPublisher(cfg.RedisAddr, cfg.RedisPass), nil
	default:
		logger.Info("event publishing disabled")
		return events.NoopPublisher{Logger: logger}, nil
	}
}
