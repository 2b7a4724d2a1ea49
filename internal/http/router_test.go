package http_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apphttp "github.com/geocoder89/sleephub/internal/http"
	"github.com/geocoder89/sleephub/internal/observability"
	"github.com/geocoder89/sleephub/internal/repo/memory"
	"github.com/geocoder89/sleephub/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func setupTestRouter(t *testing.T, now time.Time) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	store := memory.NewStore()
	svc := service.New(store.Users(), store.SleepRecords(), service.Options{
		Prom: prom,
		Log:  logger,
		Now:  func() time.Time { return now },
	})

	return apphttp.NewRouter(apphttp.RouterDeps{
		Env:                "test",
		Log:                logger,
		Service:            svc,
		Prom:               prom,
		Gatherer:           reg,
		CORSAllowedOrigins: []string{"http://localhost:5173"},
		RateLimitPerMinute: 1000,
	})
}

func send(t *testing.T, r http.Handler, method, url, body string) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSleepRecordFlow(t *testing.T) {
	now := time.Date(2024, 8, 15, 9, 0, 0, 0, time.UTC)
	r := setupTestRouter(t, now)

	body := `{"sleepDuration": 8, "sleepDate": "08/12/2024", "user": {"name": "John Doe", "email": "johndoe@example.com", "gender": "MALE"}}`

	w := send(t, r, http.MethodPost, "/api/sleepRecord", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: got %d, body=%s", w.Code, w.Body.String())
	}

	var rec struct {
		ID            int64  `json:"id"`
		SleepDuration int    `json:"sleepDuration"`
		SleepDate     string `json:"sleepDate"`
		UserID        int64  `json:"userId"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.SleepDate != "2024-08-12" || rec.SleepDuration != 8 || rec.UserID != 1 {
		t.Fatalf("unexpected record %+v", rec)
	}

	// same email again links to the same user
	w = send(t, r, http.MethodPost, "/api/sleepRecord",
		`{"sleepDuration": 6, "sleepDate": "08/14/2024", "user": {"name": "Other", "email": "johndoe@example.com"}}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("second create: got %d, body=%s", w.Code, w.Body.String())
	}

	w = send(t, r, http.MethodGet, "/api/users?page=1&pageSize=10", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list: got %d", w.Code)
	}

	var page struct {
		Data []struct {
			ID          int64  `json:"id"`
			Name        string `json:"name"`
			Gender      string `json:"gender"`
			RecordCount int    `json:"recordCount"`
		} `json:"data"`
		Meta struct {
			Page       int `json:"page"`
			PageSize   int `json:"pageSize"`
			TotalUsers int `json:"totalUsers"`
			TotalPages int `json:"totalPages"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Data) != 1 || page.Data[0].RecordCount != 2 || page.Data[0].Name != "John Doe" {
		t.Fatalf("unexpected listing %+v", page)
	}
	if page.Meta.TotalUsers != 1 || page.Meta.TotalPages != 1 {
		t.Fatalf("unexpected meta %+v", page.Meta)
	}

	w = send(t, r, http.MethodGet, "/api/users/1/sleepChartData", "")
	if w.Code != http.StatusOK {
		t.Fatalf("chart: got %d, body=%s", w.Code, w.Body.String())
	}
	if got, want := strings.TrimSpace(w.Body.String()), `[{"date":"2024-08-12","sleepDuration":8},{"date":"2024-08-14","sleepDuration":6}]`; got != want {
		t.Fatalf("chart body = %s, want %s", got, want)
	}
}

func TestSleepRecordErrors(t *testing.T) {
	r := setupTestRouter(t, time.Now())

	w := send(t, r, http.MethodPost, "/api/sleepRecord",
		`{"sleepDuration": -10, "sleepDate": "invalid-date", "user": {"name": "", "email": "invalid-email"}}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", w.Code)
	}

	var resp struct {
		Errors []struct {
			Path    []string `json:"path"`
			Message string   `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Errors) != 4 {
		t.Fatalf("got %d errors, want 4: %s", len(resp.Errors), w.Body.String())
	}

	req := httptest.NewRequest(http.MethodPost, "/api/sleepRecord", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("got %d, want 415", w.Code)
	}

	w = send(t, r, http.MethodGet, "/api/users/invalid/sleepChartData", "")
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "Invalid user ID") {
		t.Fatalf("invalid id: got %d %s", w.Code, w.Body.String())
	}

	w = send(t, r, http.MethodGet, "/api/users/999/sleepChartData", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown user: got %d, want 404", w.Code)
	}
}

func TestOversizedBodyIsRejected(t *testing.T) {
	r := setupTestRouter(t, time.Now())

	big := `{"sleepDuration": 8, "pad": "` + strings.Repeat("x", 2<<20) + `"}`
	w := send(t, r, http.MethodPost, "/api/sleepRecord", big)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("got %d, want 413", w.Code)
	}
}

func TestOperationalRoutes(t *testing.T) {
	r := setupTestRouter(t, time.Now())

	for _, path := range []string{"/healthz", "/readyz", "/docs", "/docs/openapi.yaml"} {
		if w := send(t, r, http.MethodGet, path, ""); w.Code != http.StatusOK {
			t.Fatalf("%s: got %d", path, w.Code)
		}
	}

	send(t, r, http.MethodGet, "/api/users", "")

	w := send(t, r, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "sleephub_http_requests_total") {
		t.Fatalf("metrics: got %d", w.Code)
	}
}
