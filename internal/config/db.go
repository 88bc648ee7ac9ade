package config

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// ConnectDB opens the Postgres pool described by cfg and waits for it to
// answer a ping, backing off between attempts.
func ConnectDB(ctx context.Context, cfg AppConfig, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBPoolSize + cfg.DBMaxOverflow)
	db.SetMaxIdleConns(cfg.DBPoolSize)
	db.SetConnMaxIdleTime(cfg.DBPoolTimeout)
	db.SetConnMaxLifetime(time.Hour)

	maxRetries := 5
	delay := 2 * time.Second

	for i := 1; i <= maxRetries; i++ {
		logger.Info("connecting to database", zap.Int("attempt", i), zap.Int("max_attempts", maxRetries))

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			logger.Info("connected to database")
			return db, nil
		}

		logger.Warn("database ping failed", zap.Error(err))
		if i < maxRetries {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				db.Close()
				return nil, ctx.Err()
			}
			delay *= 2
		}
	}

	db.Close()
	return nil, fmt.Errorf("failed to connect to DB after %d attempts: %w", maxRetries, err)
}
