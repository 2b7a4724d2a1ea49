package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/sleephub/internal/domain/user"
	"github.com/geocoder89/sleephub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_email", func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT id, name, email, gender, created_at
			 FROM users
			 WHERE email = $1`,
			email,
		).Scan(&u.ID, &u.Name, &u.Email, &u.Gender, &u.CreatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, fmt.Errorf("users.get_by_email: %w", err)
	}
	return u, nil
}

// Create inserts a user. A concurrent insert of the same email surfaces as
// user.ErrEmailTaken so callers can fall back to a lookup.
func (r *UsersRepo) Create(ctx context.Context, req user.CreateRequest) (user.User, error) {
	var u user.User

	err := r.observe("users.create", func() error {
		return r.pool.QueryRow(
			ctx,
			`INSERT INTO users (name, email, gender)
			 VALUES ($1, $2, $3)
			 RETURNING id, name, email, gender, created_at`,
			req.Name,
			req.Email,
			string(req.Gender.OrDefault()),
		).Scan(&u.ID, &u.Name, &u.Email, &u.Gender, &u.CreatedAt)
	})

	if err != nil {
		if isConstraintViolation(err, usersEmailKey) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, fmt.Errorf("users.create: %w", err)
	}

	return u, nil
}

// List returns one page of users with their record counts and the total
// number of users, read from a single snapshot so the two agree.
func (r *UsersRepo) List(ctx context.Context, filter user.ListFilter) ([]user.Summary, int, error) {
	output := make([]user.Summary, 0, min(filter.PageSize, 64))
	total := 0

	err := r.observe("users.list", func() error {
		return pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{
			IsoLevel:   pgx.RepeatableRead,
			AccessMode: pgx.ReadOnly,
		}, func(tx pgx.Tx) error {
			rows, err := tx.Query(ctx,
				`SELECT u.id, u.name, u.gender, COUNT(s.id) AS record_count
				 FROM users u
				 LEFT JOIN sleep_records s ON s.user_id = u.id
				 GROUP BY u.id
				 ORDER BY u.id ASC
				 LIMIT $1 OFFSET $2`,
				filter.PageSize,
				filter.Offset(),
			)
			if err != nil {
				return err
			}
			defer rows.Close()

			for rows.Next() {
				var s user.Summary
				if err := rows.Scan(&s.ID, &s.Name, &s.Gender, &s.RecordCount); err != nil {
					return err
				}
				output = append(output, s)
			}

			if err := rows.Err(); err != nil {
				return err
			}

			return tx.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total)
		})
	})

	if err != nil {
		return nil, 0, fmt.Errorf("users.list: %w", err)
	}

	return output, total, nil
}
