package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	_ "github.com/lib/pq"

	"github.com/calmnights/checkout-service/internal/config"
)

// NewPostgresConnection opens the pool and pings it, retrying the ping a
// bounded number of times so the service survives a database that is still
// coming up.
func NewPostgresConnection(cfg config.Postgres) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	err = retry.Do(
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return db.PingContext(ctx)
		},
		retry.Attempts(cfg.RetryConnAttempts),
		retry.Delay(cfg.RetryConnDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("db ping failed: %w", err)
	}

	return db, nil
}
