package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrInvalidInput marks a query rejected before the pipeline runs.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoClimatology is returned when no month of the series is usable.
	ErrNoClimatology = errors.New("no climatology data")

	// ErrUpstreamUnavailable wraps failures of an external collaborator.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// Supported target year range.
const (
	MinTargetYear = 1950
	MaxTargetYear = 2100
)

// TargetQuery identifies the location and calendar day being assessed.
type TargetQuery struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Location  string  `json:"location,omitempty"`
	Month     int     `json:"month"`
	Day       int     `json:"day"`
	Year      int     `json:"year,omitempty"` // 0 means next calendar year
}

// WithDefaults fills an unset Year with the calendar year after currentYear.
func (q TargetQuery) WithDefaults(currentYear int) TargetQuery {
	if q.Year == 0 {
		q.Year = currentYear + 1
	}
	return q
}

// Validate checks coordinate ranges, the calendar date and the year range.
// Errors wrap ErrInvalidInput.
func (q TargetQuery) Validate() error {
	if math.IsNaN(q.Latitude) || q.Latitude < -90 || q.Latitude > 90 {
		return fmt.Errorf("%w: latitude %.4f out of range [-90, 90]", ErrInvalidInput, q.Latitude)
	}
	if math.IsNaN(q.Longitude) || q.Longitude < -180 || q.Longitude > 180 {
		return fmt.Errorf("%w: longitude %.4f out of range [-180, 180]", ErrInvalidInput, q.Longitude)
	}
	if q.Year < MinTargetYear || q.Year > MaxTargetYear {
		return fmt.Errorf("%w: year %d outside supported range %d-%d", ErrInvalidInput, q.Year, MinTargetYear, MaxTargetYear)
	}
	if q.Month < 1 || q.Month > 12 {
		return fmt.Errorf("%w: month %d", ErrInvalidInput, q.Month)
	}
	if q.Day < 1 || q.Day > daysIn(time.Month(q.Month), q.Year) {
		return fmt.Errorf("%w: day %d for month %d of %d", ErrInvalidInput, q.Day, q.Month, q.Year)
	}
	return nil
}

// daysIn reports the number of days in month for year, accounting for leap years.
func daysIn(month time.Month, year int) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ParseMonthDay parses an "MM-DD" date string into month and day.
func ParseMonthDay(s string) (month, day int, err error) {
	t, err := time.Parse("01-02", s)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: date %q must be MM-DD", ErrInvalidInput, s)
	}
	return int(t.Month()), t.Day(), nil
}

// ConditionKind classifies a recoverable condition reported alongside a result.
type ConditionKind string

const (
	DataIncomplete        ConditionKind = "data_incomplete"
	ComputationDegenerate ConditionKind = "computation_degenerate"
	UpstreamUnavailable   ConditionKind = "upstream_unavailable"
)

// Condition records a degradation the engine recovered from.
type Condition struct {
	Kind   ConditionKind `json:"kind"`
	Detail string        `json:"detail"`
}
