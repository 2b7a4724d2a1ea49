// Package service holds the sleep record use cases: resolving users by email,
// ingesting records, and the two read-side aggregations.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/sleephub/internal/cache"
	"github.com/geocoder89/sleephub/internal/domain/sleep"
	"github.com/geocoder89/sleephub/internal/domain/user"
	"github.com/geocoder89/sleephub/internal/observability"
)

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, req user.CreateRequest) (user.User, error)
	List(ctx context.Context, filter user.ListFilter) ([]user.Summary, int, error)
}

type SleepRecordStore interface {
	Create(ctx context.Context, req sleep.CreateRecordRequest) (sleep.Record, error)
	ListSince(ctx context.Context, userID int64, since time.Time) ([]sleep.Record, error)
}

type Options struct {
	// Cache is optional; nil disables listing caching.
	Cache        cache.Store
	Prom         *observability.Prom
	Log          *slog.Logger
	Location     *time.Location
	QueryTimeout time.Duration
	Now          func() time.Time
}

type Service struct {
	users   UserStore
	records SleepRecordStore

	cache        cache.Store
	prom         *observability.Prom
	log          *slog.Logger
	loc          *time.Location
	queryTimeout time.Duration
	now          func() time.Time
}

func New(users UserStore, records SleepRecordStore, opts Options) *Service {
	s := &Service{
		users:        users,
		records:      records,
		cache:        opts.Cache,
		prom:         opts.Prom,
		log:          opts.Log,
		loc:          opts.Location,
		queryTimeout: opts.QueryTimeout,
		now:          opts.Now,
	}

	if s.log == nil {
		s.log = slog.Default()
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.queryTimeout <= 0 {
		s.queryTimeout = 3 * time.Second
	}
	if s.now == nil {
		s.now = time.Now
	}

	return s
}

// withTimeout bounds a single store call.
func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.queryTimeout)
}
