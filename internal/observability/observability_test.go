package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestClassifyDBErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"email_race", fmt.Errorf("users.create: %w", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}), "unique_violation:users_email_key"},
		{"unnamed_unique", &pgconn.PgError{Code: "23505"}, "unique_violation"},
		{"missing_user_fk", &pgconn.PgError{Code: "23503"}, "foreign_key_violation"},
		{"duration_check", &pgconn.PgError{Code: "23514"}, "check_violation"},
		{"other_pg", &pgconn.PgError{Code: "42P01"}, "pg_42P01"},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), "timeout"},
		{"canceled", context.Canceled, "canceled"},
		{"plain", errors.New("boom"), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyDBErr(tt.err))
		})
	}
}

func TestObserveDB_LabelsEmailRaceAndMisses(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	require.NoError(t, p.ObserveDB("users.list", func() error { return nil }))

	err := p.ObserveDB("users.get_by_email", func() error { return pgx.ErrNoRows })
	require.ErrorIs(t, err, pgx.ErrNoRows)

	err = p.ObserveDB("users.create", func() error {
		return &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	})
	require.Error(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.create", "unique_violation:users_email_key")))
	assert.Equal(t, 1, testutil.CollectAndCount(p.DbErrorsTotal), "a lookup miss is not an error")
	assert.Equal(t, 3, testutil.CollectAndCount(p.DbQueryDuration))
}

func TestSamplerFor(t *testing.T) {
	assert.Contains(t, samplerFor(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, samplerFor(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestLogger_AddsServiceAndTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod", "sleephub-api")

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	log.InfoContext(ctx, "sleep record created", "record_id", 1)
	span.End()

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "sleep record created", line["msg"])
	assert.Equal(t, "sleephub-api", line["service"])
	assert.Equal(t, span.SpanContext().TraceID().String(), line["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), line["span_id"])

	buf.Reset()
	log.Info("no trace")
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.NotContains(t, buf.String(), "trace_id")

	buf.Reset()
	log.Debug("hidden")
	assert.Zero(t, buf.Len(), "debug must be off outside dev")
}
