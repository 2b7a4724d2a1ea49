package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/geocoder89/sleephub/internal/domain/sleep"
	"github.com/geocoder89/sleephub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeService implements both SleepRecordCreator and UsersReader

type fakeService struct {
	addFn   func(ctx context.Context, in sleep.CreateRecordInput) (sleep.Record, error)
	listFn  func(ctx context.Context, filter user.ListFilter) (user.Page, error)
	chartFn func(ctx context.Context, rawUserID string) ([]sleep.ChartPoint, error)

	addCalls int
}

func (f *fakeService) AddSleepRecord(ctx context.Context, in sleep.CreateRecordInput) (sleep.Record, error) {
	f.addCalls++
	if f.addFn != nil {
		return f.addFn(ctx, in)
	}
	return sleep.Record{}, nil
}

func (f *fakeService) ListUsers(ctx context.Context, filter user.ListFilter) (user.Page, error) {
	if f.listFn != nil {
		return f.listFn(ctx, filter)
	}
	return user.Page{Data: []user.Summary{}}, nil
}

func (f *fakeService) WeeklyChart(ctx context.Context, rawUserID string) ([]sleep.ChartPoint, error) {
	if f.chartFn != nil {
		return f.chartFn(ctx, rawUserID)
	}
	return nil, sleep.ErrNoChartData
}

// small helper function which returns the gin engine to mount one handler per test

func setupRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, h)

	return r
}

func doRequest(r http.Handler, method, url, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
