// Package memory is an in-process store with the same contracts as the
// Postgres repositories. It backs STORE_BACKEND=memory and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/sleephub/internal/domain/sleep"
	"github.com/geocoder89/sleephub/internal/domain/user"
)

type Store struct {
	mu      sync.RWMutex
	users   []user.User
	byEmail map[string]int64
	records []sleep.Record

	userSeq   int64
	recordSeq int64
	now       func() time.Time
}

func NewStore() *Store {
	return &Store{
		byEmail: make(map[string]int64),
		now:     time.Now,
	}
}

func (s *Store) Users() *UsersRepo {
	return &UsersRepo{s: s}
}

func (s *Store) SleepRecords() *SleepRecordsRepo {
	return &SleepRecordsRepo{s: s}
}

// DeleteUser removes a user and cascades to their records.
func (s *Store) DeleteUser(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.users[:0]
	for _, u := range s.users {
		if u.ID == id {
			delete(s.byEmail, u.Email)
			continue
		}
		users = append(users, u)
	}
	s.users = users

	records := s.records[:0]
	for _, r := range s.records {
		if r.UserID != id {
			records = append(records, r)
		}
	}
	s.records = records
}

type UsersRepo struct {
	s *Store
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.byEmail[email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	for _, u := range r.s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) Create(ctx context.Context, req user.CreateRequest) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, taken := r.s.byEmail[req.Email]; taken {
		return user.User{}, user.ErrEmailTaken
	}

	r.s.userSeq++
	u := user.User{
		ID:        r.s.userSeq,
		Name:      req.Name,
		Email:     req.Email,
		Gender:    req.Gender.OrDefault(),
		CreatedAt: r.s.now().UTC(),
	}

	r.s.users = append(r.s.users, u)
	r.s.byEmail[u.Email] = u.ID

	return u, nil
}

// List orders by id, which is insertion order here.
func (r *UsersRepo) List(ctx context.Context, filter user.ListFilter) ([]user.Summary, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := make(map[int64]int, len(r.s.users))
	for _, rec := range r.s.records {
		counts[rec.UserID]++
	}

	total := len(r.s.users)
	out := make([]user.Summary, 0)

	start := filter.Offset()
	if start < 0 || start >= total {
		return out, total, nil
	}

	end := total
	if filter.PageSize < total-start {
		end = start + filter.PageSize
	}

	for _, u := range r.s.users[start:end] {
		out = append(out, user.Summary{
			ID:          u.ID,
			Name:        u.Name,
			Gender:      u.Gender,
			RecordCount: counts[u.ID],
		})
	}

	return out, total, nil
}

type SleepRecordsRepo struct {
	s *Store
}

func (r *SleepRecordsRepo) Create(ctx context.Context, req sleep.CreateRecordRequest) (sleep.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.userIndex(req.UserID); !ok {
		return sleep.Record{}, user.ErrNotFound
	}

	r.s.recordSeq++
	rec := sleep.Record{
		ID:            r.s.recordSeq,
		UserID:        req.UserID,
		SleepDuration: req.SleepDuration,
		SleepDate:     req.SleepDate.UTC(),
		CreatedAt:     r.s.now().UTC(),
	}
	r.s.records = append(r.s.records, rec)

	return rec, nil
}

func (r *SleepRecordsRepo) ListSince(ctx context.Context, userID int64, since time.Time) ([]sleep.Record, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []sleep.Record
	for _, rec := range r.s.records {
		if rec.UserID == userID && !rec.SleepDate.Before(since) {
			out = append(out, rec)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SleepDate.Equal(out[j].SleepDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].SleepDate.Before(out[j].SleepDate)
	})

	return out, nil
}

// userIndex expects the caller to hold the lock.
func (s *Store) userIndex(id int64) (int, bool) {
	for i, u := range s.users {
		if u.ID == id {
			return i, true
		}
	}
	return 0, false
}
