package sleep

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/sleephub/internal/domain/user"
)

const (
	// SubmissionDateLayout is the MM/DD/YYYY form accepted on ingestion.
	SubmissionDateLayout = "01/02/2006"
	// ChartDateLayout is the ISO 8601 calendar date used in responses.
	ChartDateLayout = time.DateOnly

	WindowDays = 7
)

var (
	ErrInvalidUserID = errors.New("invalid user id")
	ErrNoChartData   = errors.New("no sleep data in window")
)

type Record struct {
	ID            int64     `json:"id"`
	SleepDuration int       `json:"sleepDuration"`
	SleepDate     time.Time `json:"sleepDate"`
	UserID        int64     `json:"userId"`
	CreatedAt     time.Time `json:"-"`
}

// MarshalJSON renders SleepDate as a calendar day; records carry no time of day.
func (r Record) MarshalJSON() ([]byte, error) {
	type alias Record
	return json.Marshal(struct {
		alias
		SleepDate string `json:"sleepDate"`
	}{
		alias:     alias(r),
		SleepDate: r.SleepDate.Format(ChartDateLayout),
	})
}

// CreateRecordInput is the typed result of a valid submission.
type CreateRecordInput struct {
	SleepDuration int
	SleepDate     time.Time
	User          user.CreateRequest
}

type CreateRecordRequest struct {
	UserID        int64
	SleepDuration int
	SleepDate     time.Time
}

type ChartPoint struct {
	Date          string `json:"date"`
	SleepDuration int    `json:"sleepDuration"`
}

func NewChartPoint(r Record) ChartPoint {
	return ChartPoint{
		Date:          r.SleepDate.Format(ChartDateLayout),
		SleepDuration: r.SleepDuration,
	}
}

// ParseSubmissionDate parses MM/DD/YYYY into midnight UTC. Out of range
// components (month 13, Feb 30) are rejected.
func ParseSubmissionDate(s string) (time.Time, error) {
	return time.Parse(SubmissionDateLayout, s)
}

// ParseUserID accepts base-10 positive integers only.
func ParseUserID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidUserID
	}
	return id, nil
}

// WindowStart returns the first calendar day included in the chart window
// for the given instant. The day is taken in loc and returned as midnight UTC,
// the same representation used for stored sleep dates.
func WindowStart(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	d := now.In(loc).AddDate(0, 0, -WindowDays)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}
