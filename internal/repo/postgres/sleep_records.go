package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/geocoder89/sleephub/internal/domain/sleep"
	"github.com/geocoder89/sleephub/internal/observability"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SleepRecordsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewSleepRecordsRepo(pool *pgxpool.Pool, prom *observability.Prom) *SleepRecordsRepo {
	return &SleepRecordsRepo{pool: pool, prom: prom}
}

func (r *SleepRecordsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// Create always inserts; identical submissions produce separate rows.
func (r *SleepRecordsRepo) Create(ctx context.Context, req sleep.CreateRecordRequest) (sleep.Record, error) {
	var rec sleep.Record

	err := r.observe("sleep_records.create", func() error {
		return r.pool.QueryRow(
			ctx,
			`INSERT INTO sleep_records (user_id, sleep_duration, sleep_date)
			 VALUES ($1, $2, $3)
			 RETURNING id, user_id, sleep_duration, sleep_date, created_at`,
			req.UserID,
			req.SleepDuration,
			req.SleepDate,
		).Scan(&rec.ID, &rec.UserID, &rec.SleepDuration, &rec.SleepDate, &rec.CreatedAt)
	})

	if err != nil {
		return sleep.Record{}, fmt.Errorf("sleep_records.create: %w", err)
	}

	return rec, nil
}

// ListSince returns a user's records dated on or after since, oldest first.
func (r *SleepRecordsRepo) ListSince(ctx context.Context, userID int64, since time.Time) ([]sleep.Record, error) {
	var output []sleep.Record

	err := r.observe("sleep_records.list_since", func() error {
		rows, err := r.pool.Query(
			ctx,
			`SELECT id, user_id, sleep_duration, sleep_date, created_at
			 FROM sleep_records
			 WHERE user_id = $1 AND sleep_date >= $2
			 ORDER BY sleep_date ASC, id ASC`,
			userID,
			since,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var rec sleep.Record
			if err := rows.Scan(&rec.ID, &rec.UserID, &rec.SleepDuration, &rec.SleepDate, &rec.CreatedAt); err != nil {
				return err
			}
			output = append(output, rec)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("sleep_records.list_since: %w", err)
	}

	return output, nil
}
