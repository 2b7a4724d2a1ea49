package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/geocoder89/sleephub/internal/domain/sleep"
	"github.com/geocoder89/sleephub/internal/domain/user"
	"github.com/geocoder89/sleephub/internal/http/handlers"
)

func TestListUsersHandler(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		wantFilter     user.ListFilter
		listErr        error
		wantStatusCode int
	}{
		{"defaults", "/api/users", user.ListFilter{Page: 1, PageSize: 10}, nil, http.StatusOK},
		{"explicit", "/api/users?page=2&pageSize=5", user.ListFilter{Page: 2, PageSize: 5}, nil, http.StatusOK},
		{"garbage_falls_back", "/api/users?page=abc&pageSize=0", user.ListFilter{Page: 1, PageSize: 10}, nil, http.StatusOK},
		{"large_size_kept", "/api/users?pageSize=500", user.ListFilter{Page: 1, PageSize: 500}, nil, http.StatusOK},
		{"service_error", "/api/users", user.ListFilter{Page: 1, PageSize: 10}, errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			var gotFilter user.ListFilter
			svc := &fakeService{
				listFn: func(ctx context.Context, filter user.ListFilter) (user.Page, error) {
					gotFilter = filter
					if tt.listErr != nil {
						return user.Page{}, tt.listErr
					}
					return user.Page{
						Data: []user.Summary{{ID: 1, Name: "John Doe", Gender: user.GenderMale, RecordCount: 3}},
						Meta: user.PageMeta{Page: filter.Page, PageSize: filter.PageSize, TotalUsers: 1, TotalPages: 1},
					}, nil
				},
			}

			h := handlers.NewUsersHandler(svc)
			r := setupRouter(http.MethodGet, "/api/users", h.ListUsers)

			w := doRequest(r, http.MethodGet, tt.url, "", nil)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if gotFilter != tt.wantFilter {
				t.Fatalf("got filter %+v, want %+v", gotFilter, tt.wantFilter)
			}

			if tt.listErr != nil {
				if !jsonEqual(t, w.Body.Bytes(), `{"error":"Failed to retrieve users"}`) {
					t.Fatalf("unexpected error body: %s", w.Body.String())
				}
				return
			}

			var page user.Page
			if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
				t.Fatalf("failed to unmarshal: %v", err)
			}
			if len(page.Data) != 1 || page.Data[0].RecordCount != 3 {
				t.Fatalf("unexpected page: %+v", page)
			}
		})
	}
}

func TestListUsersHandler_ETagRoundTrip(t *testing.T) {
	h := handlers.NewUsersHandler(&fakeService{})
	r := setupRouter(http.MethodGet, "/api/users", h.ListUsers)

	first := doRequest(r, http.MethodGet, "/api/users", "", nil)
	etag := first.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected ETag header")
	}

	for _, header := range []string{etag, "W/" + etag, `"stale", ` + etag, "*"} {
		second := doRequest(r, http.MethodGet, "/api/users", "", map[string]string{"If-None-Match": header})
		if second.Code != http.StatusNotModified {
			t.Fatalf("If-None-Match %q: got status %d, want 304", header, second.Code)
		}
		if second.Body.Len() != 0 {
			t.Fatalf("304 must have empty body, got %q", second.Body.String())
		}
	}

	stale := doRequest(r, http.MethodGet, "/api/users", "", map[string]string{"If-None-Match": `"stale"`})
	if stale.Code != http.StatusOK {
		t.Fatalf("stale tag: got status %d, want 200", stale.Code)
	}
	if ct := stale.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestSleepChartDataHandler(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		chartErr       error
		wantStatusCode int
		wantBody       string
	}{
		{
			name:           "success",
			url:            "/api/users/1/sleepChartData",
			wantStatusCode: http.StatusOK,
			wantBody:       `[{"date":"2024-08-12","sleepDuration":8},{"date":"2024-08-13","sleepDuration":7}]`,
		},
		{
			name:           "invalid_id",
			url:            "/api/users/abc/sleepChartData",
			chartErr:       sleep.ErrInvalidUserID,
			wantStatusCode: http.StatusBadRequest,
			wantBody:       `{"error":"Invalid user ID"}`,
		},
		{
			name:           "no_data",
			url:            "/api/users/999/sleepChartData",
			chartErr:       sleep.ErrNoChartData,
			wantStatusCode: http.StatusNotFound,
			wantBody:       `{"error":"No sleep data found for this user in the past week"}`,
		},
		{
			name:           "store_error",
			url:            "/api/users/1/sleepChartData",
			chartErr:       errors.New("db down"),
			wantStatusCode: http.StatusInternalServerError,
			wantBody:       `{"error":"Failed to retrieve sleep chart data"}`,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{
				chartFn: func(ctx context.Context, rawUserID string) ([]sleep.ChartPoint, error) {
					if tt.chartErr != nil {
						return nil, tt.chartErr
					}
					if rawUserID != "1" {
						return nil, errors.New("unexpected id " + rawUserID)
					}
					return []sleep.ChartPoint{
						{Date: "2024-08-12", SleepDuration: 8},
						{Date: "2024-08-13", SleepDuration: 7},
					}, nil
				},
			}

			h := handlers.NewUsersHandler(svc)
			r := setupRouter(http.MethodGet, "/api/users/:user_id/sleepChartData", h.SleepChartData)

			w := doRequest(r, http.MethodGet, tt.url, "", nil)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if !jsonEqual(t, w.Body.Bytes(), tt.wantBody) {
				t.Fatalf("got body %s, want %s", w.Body.String(), tt.wantBody)
			}
		})
	}
}
