package service

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/geocoder89/sleephub/internal/domain/user"
	"github.com/geocoder89/sleephub/internal/utils"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

// ParseListFilter turns raw query values into a usable filter. Missing,
// non-numeric or non-positive values fall back to the defaults; any positive
// size is honored as requested.
func ParseListFilter(rawPage, rawPageSize string) user.ListFilter {
	return user.ListFilter{
		Page:     positiveOr(rawPage, DefaultPage),
		PageSize: positiveOr(rawPageSize, DefaultPageSize),
	}
}

func positiveOr(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func (s *Service) ListUsers(ctx context.Context, filter user.ListFilter) (user.Page, error) {
	key := utils.BuildUsersListCacheKey(filter.Page, filter.PageSize)

	if page, ok := s.cachedPage(ctx, key); ok {
		return page, nil
	}

	cctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, total, err := s.users.List(cctx, filter)
	if err != nil {
		return user.Page{}, err
	}

	if rows == nil {
		rows = []user.Summary{}
	}

	page := user.Page{
		Data: rows,
		Meta: user.PageMeta{
			Page:       filter.Page,
			PageSize:   filter.PageSize,
			TotalUsers: total,
			TotalPages: totalPages(total, filter.PageSize),
		},
	}

	s.storePage(ctx, key, page)

	return page, nil
}

// totalPages is ceil(total / size) without the overflow of total+size-1.
func totalPages(total, size int) int {
	pages := total / size
	if total%size != 0 {
		pages++
	}
	return pages
}

func (s *Service) cachedPage(ctx context.Context, key string) (user.Page, bool) {
	if s.cache == nil {
		return user.Page{}, false
	}

	b, ok, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		s.countCache("error")
		s.log.WarnContext(ctx, "listing cache read failed", "key", key, "err", err)
		return user.Page{}, false
	case !ok:
		s.countCache("miss")
		return user.Page{}, false
	}

	var page user.Page
	if err := json.Unmarshal(b, &page); err != nil {
		s.countCache("error")
		return user.Page{}, false
	}

	s.countCache("hit")
	return page, true
}

func (s *Service) storePage(ctx context.Context, key string, page user.Page) {
	if s.cache == nil {
		return
	}

	b, err := json.Marshal(page)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, key, b); err != nil {
		s.log.WarnContext(ctx, "listing cache write failed", "key", key, "err", err)
	}
}

func (s *Service) countCache(result string) {
	if s.prom != nil {
		s.prom.CacheRequests.WithLabelValues(result).Inc()
	}
}
