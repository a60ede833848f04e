package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"taskboard/internal/platform/config"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/sirupsen/logrus"
)

// ConnectPostgres opens the pool and pings it, retrying the ping as configured.
func ConnectPostgres(ctx context.Context, cfg *config.Config, log *logrus.Entry) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DBConnStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	err = connectWithRetry(ctx, log, "postgres", cfg.DBConnectRetries, cfg.DBConnectRetryDelay, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	log.Info("Successfully connected to PostgreSQL database")
	return db, nil
}
