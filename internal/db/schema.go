package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// statements are idempotent and run in order on every boot.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         BIGSERIAL PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL,
		gender     TEXT NOT NULL DEFAULT 'NOT_SPECIFIED'
		           CHECK (gender IN ('MALE','FEMALE','TRANSGENDER','GENDER_NEUTRAL','NON_BINARY','NOT_SPECIFIED')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT users_email_key UNIQUE (email)
	)`,
	`CREATE TABLE IF NOT EXISTS sleep_records (
		id             BIGSERIAL PRIMARY KEY,
		user_id        BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		sleep_duration INTEGER NOT NULL CHECK (sleep_duration >= 1),
		sleep_date     DATE NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS sleep_records_user_date_idx ON sleep_records (user_id, sleep_date)`,
}

// Apply creates the schema if it is missing.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}

// ApplyPool runs Apply over a database/sql view of the pool.
func ApplyPool(ctx context.Context, pool *pgxpool.Pool) error {
	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	return Apply(ctx, sqlDB)
}
