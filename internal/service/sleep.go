package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/sleephub/internal/domain/sleep"
	"github.com/geocoder89/sleephub/internal/domain/user"
	"github.com/geocoder89/sleephub/internal/utils"
)

// ResolveUser returns the user owning req.Email, creating it when absent.
// An existing user is returned unchanged. created reports whether this call
// inserted the row.
func (s *Service) ResolveUser(ctx context.Context, req user.CreateRequest) (u user.User, created bool, err error) {
	u, err = s.lookup(ctx, req.Email)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return user.User{}, false, err
	}

	req.Gender = req.Gender.OrDefault()

	cctx, cancel := s.withTimeout(ctx)
	u, err = s.users.Create(cctx, req)
	cancel()

	switch {
	case err == nil:
		if s.prom != nil {
			s.prom.UsersCreated.Inc()
		}
		return u, true, nil
	case errors.Is(err, user.ErrEmailTaken):
		// lost the insert race; the winner's row is now visible
		s.log.DebugContext(ctx, "user create raced, re-reading", "email", req.Email)
		u, err = s.lookup(ctx, req.Email)
		if err != nil {
			return user.User{}, false, fmt.Errorf("resolve user after conflict: %w", err)
		}
		return u, false, nil
	default:
		return user.User{}, false, err
	}
}

func (s *Service) lookup(ctx context.Context, email string) (user.User, error) {
	cctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.users.GetByEmail(cctx, email)
}

// AddSleepRecord resolves the submitting user and always inserts a new record.
func (s *Service) AddSleepRecord(ctx context.Context, in sleep.CreateRecordInput) (sleep.Record, error) {
	u, created, err := s.ResolveUser(ctx, in.User)
	if err != nil {
		return sleep.Record{}, err
	}

	cctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rec, err := s.records.Create(cctx, sleep.CreateRecordRequest{
		UserID:        u.ID,
		SleepDuration: in.SleepDuration,
		SleepDate:     in.SleepDate,
	})
	if err != nil {
		return sleep.Record{}, err
	}

	if s.prom != nil {
		s.prom.SleepRecordsCreated.Inc()
	}

	s.invalidateListing(ctx)

	s.log.InfoContext(ctx, "sleep record created",
		"record_id", rec.ID,
		"user_id", u.ID,
		"user_created", created,
	)

	return rec, nil
}

// WeeklyChart returns the user's records dated on or after the first day of
// the trailing window, oldest first.
func (s *Service) WeeklyChart(ctx context.Context, rawUserID string) ([]sleep.ChartPoint, error) {
	userID, err := sleep.ParseUserID(rawUserID)
	if err != nil {
		return nil, err
	}

	since := sleep.WindowStart(s.now(), s.loc)

	cctx, cancel := s.withTimeout(ctx)
	defer cancel()

	records, err := s.records.ListSince(cctx, userID, since)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, sleep.ErrNoChartData
	}

	points := make([]sleep.ChartPoint, 0, len(records))
	for _, r := range records {
		points = append(points, sleep.NewChartPoint(r))
	}

	return points, nil
}

func (s *Service) invalidateListing(ctx context.Context) {
	if s.cache == nil {
		return
	}

	if err := s.cache.DeletePrefix(ctx, utils.UsersListCachePrefix); err != nil {
		s.log.WarnContext(ctx, "listing cache invalidation failed", "err", err)
	}
}
