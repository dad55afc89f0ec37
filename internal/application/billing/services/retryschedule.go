// Package services holds the pure billing computations: the retry timetable
// and the retention offer generator.
package services

import (
	"fmt"
	"time"
)

// Default retry offsets in days from failure detection: first retry through
// final attempt.
var DefaultRetryOffsetDays = []int{1, 3, 5, 7, 14, 21, 28}

// DefaultHolidays are the six fixed calendar dates retries avoid, matched
// year-agnostically by month and day.
var DefaultHolidays = []string{
	"01-01", // New Year's Day
	"07-04", // Independence Day
	"11-11", // Veterans Day
	"12-24", // Christmas Eve
	"12-25", // Christmas Day
	"12-31", // New Year's Eve
}

// RetryStep is one entry of the computed retry timetable.
type RetryStep struct {
	Attempt int
	RunAt   time.Time
}

// RetrySchedule computes the deterministic retry timetable for a payment
// failure. Offsets and holidays are injected configuration so tests and
// deployments can override them.
type RetrySchedule struct {
	offsetDays []int
	holidays   map[string]struct{}
}

// NewRetrySchedule builds a schedule from day offsets and "MM-DD" holidays.
func NewRetrySchedule(offsetDays []int, holidays []string) (*RetrySchedule, error) {
	if len(offsetDays) == 0 {
		return nil, fmt.Errorf("at least one retry offset is required")
	}
	prev := 0
	for _, d := range offsetDays {
		if d <= prev {
			return nil, fmt.Errorf("retry offsets must be strictly increasing, got %v", offsetDays)
		}
		prev = d
	}

	holidaySet := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		if _, err := time.Parse("01-02", h); err != nil {
			return nil, fmt.Errorf("invalid holiday date %q: %w", h, err)
		}
		holidaySet[h] = struct{}{}
	}

	return &RetrySchedule{
		offsetDays: append([]int(nil), offsetDays...),
		holidays:   holidaySet,
	}, nil
}

// NewDefaultRetrySchedule builds the production schedule.
func NewDefaultRetrySchedule() *RetrySchedule {
	s, err := NewRetrySchedule(DefaultRetryOffsetDays, DefaultHolidays)
	if err != nil {
		panic(err)
	}
	return s
}

// TotalAttempts returns the number of scheduled attempts.
func (s *RetrySchedule) TotalAttempts() int {
	return len(s.offsetDays)
}

// OffsetDays returns a copy of the configured offsets.
func (s *RetrySchedule) OffsetDays() []int {
	return append([]int(nil), s.offsetDays...)
}

// AdjustRetryDate moves a candidate date off weekends and holidays: weekends
// advance to the next Monday, then a holiday match advances one more day.
// The post-holiday date is intentionally not re-validated; a holiday nudge
// landing on another holiday (or a weekend) is accepted as-is. Changing that
// would silently diverge from the documented contract.
func (s *RetrySchedule) AdjustRetryDate(t time.Time) time.Time {
	switch t.Weekday() {
	case time.Saturday:
		t = t.AddDate(0, 0, 2)
	case time.Sunday:
		t = t.AddDate(0, 0, 1)
	}

	if _, ok := s.holidays[t.Format("01-02")]; ok {
		t = t.AddDate(0, 0, 1)
	}

	return t
}

// Timetable converts the offsets into absolute, adjusted run times for a
// failure detected at failedAt. Attempts are 1-based.
func (s *RetrySchedule) Timetable(failedAt time.Time) []RetryStep {
	steps := make([]RetryStep, 0, len(s.offsetDays))
	for i, offset := range s.offsetDays {
		runAt := s.AdjustRetryDate(failedAt.AddDate(0, 0, offset))
		steps = append(steps, RetryStep{Attempt: i + 1, RunAt: runAt})
	}
	return steps
}

// StepRunAt returns the adjusted run time for a 1-based attempt index.
func (s *RetrySchedule) StepRunAt(failedAt time.Time, attempt int) (time.Time, error) {
	if attempt < 1 || attempt > len(s.offsetDays) {
		return time.Time{}, fmt.Errorf("attempt %d out of range [1, %d]", attempt, len(s.offsetDays))
	}
	return s.AdjustRetryDate(failedAt.AddDate(0, 0, s.offsetDays[attempt-1])), nil
}
