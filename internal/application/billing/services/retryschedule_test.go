package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestNewRetrySchedule(t *testing.T) {
	t.Run("valid offsets and holidays", func(t *testing.T) {
		s, err := NewRetrySchedule([]int{1, 3, 5}, []string{"12-25"})
		require.NoError(t, err)
		assert.Equal(t, 3, s.TotalAttempts())
		assert.Equal(t, []int{1, 3, 5}, s.OffsetDays())
	})

	t.Run("empty offsets", func(t *testing.T) {
		_, err := NewRetrySchedule(nil, nil)
		assert.Error(t, err)
	})

	t.Run("non-increasing offsets", func(t *testing.T) {
		_, err := NewRetrySchedule([]int{1, 3, 3}, nil)
		assert.Error(t, err)

		_, err = NewRetrySchedule([]int{5, 3}, nil)
		assert.Error(t, err)
	})

	t.Run("zero offset", func(t *testing.T) {
		_, err := NewRetrySchedule([]int{0, 1}, nil)
		assert.Error(t, err)
	})

	t.Run("malformed holiday", func(t *testing.T) {
		_, err := NewRetrySchedule([]int{1}, []string{"13-45"})
		assert.Error(t, err)
	})
}

func TestNewDefaultRetrySchedule(t *testing.T) {
	s := NewDefaultRetrySchedule()
	assert.Equal(t, 7, s.TotalAttempts())
	assert.Equal(t, []int{1, 3, 5, 7, 14, 21, 28}, s.OffsetDays())
}

func TestRetrySchedule_AdjustRetryDate(t *testing.T) {
	s := NewDefaultRetrySchedule()

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		// 2025-03-12 is a Wednesday.
		{"weekday unchanged", date(2025, time.March, 12), date(2025, time.March, 12)},
		// 2025-03-08 is a Saturday, 2025-03-09 a Sunday.
		{"saturday moves to monday", date(2025, time.March, 8), date(2025, time.March, 10)},
		{"sunday moves to monday", date(2025, time.March, 9), date(2025, time.March, 10)},
		// 2025-07-04 is a Friday holiday; the nudge lands on Saturday and
		// is accepted as-is, single pass.
		{"holiday nudges one day, not re-validated", date(2025, time.July, 4), date(2025, time.July, 5)},
		// 2025-12-24 nudges onto 12-25, itself a holiday; still accepted.
		{"holiday nudge onto another holiday stays", date(2025, time.December, 24), date(2025, time.December, 25)},
		// 2024-11-09 is a Saturday; Monday 2024-11-11 is a holiday, so the
		// weekend shift gets the one extra holiday day.
		{"weekend shift then holiday nudge", date(2024, time.November, 9), date(2024, time.November, 12)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.AdjustRetryDate(tt.in)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRetrySchedule_Timetable(t *testing.T) {
	s := NewDefaultRetrySchedule()

	// 2025-03-05 is a Wednesday. Offset 3 lands on Saturday 03-08 and is
	// pushed to Monday 03-10, colliding with offset 5 on the same Monday.
	failedAt := date(2025, time.March, 5)
	steps := s.Timetable(failedAt)

	require.Len(t, steps, 7)
	want := []time.Time{
		date(2025, time.March, 6),
		date(2025, time.March, 10),
		date(2025, time.March, 10),
		date(2025, time.March, 12),
		date(2025, time.March, 19),
		date(2025, time.March, 26),
		date(2025, time.April, 2),
	}
	for i, step := range steps {
		assert.Equal(t, i+1, step.Attempt)
		assert.Equal(t, want[i], step.RunAt, "attempt %d", i+1)
	}
}

func TestRetrySchedule_TimetableNeverLandsOnWeekend(t *testing.T) {
	// Without holidays the adjustment is weekend-only, so no run time may
	// fall on a Saturday or Sunday regardless of the anchor weekday.
	s, err := NewRetrySchedule(DefaultRetryOffsetDays, nil)
	require.NoError(t, err)

	anchor := date(2025, time.June, 2)
	for day := 0; day < 14; day++ {
		failedAt := anchor.AddDate(0, 0, day)
		for _, step := range s.Timetable(failedAt) {
			wd := step.RunAt.Weekday()
			assert.NotEqual(t, time.Saturday, wd, "anchor %s attempt %d", failedAt, step.Attempt)
			assert.NotEqual(t, time.Sunday, wd, "anchor %s attempt %d", failedAt, step.Attempt)
		}
	}
}

func TestRetrySchedule_StepRunAt(t *testing.T) {
	s := NewDefaultRetrySchedule()
	failedAt := date(2025, time.March, 5)

	t.Run("matches timetable", func(t *testing.T) {
		steps := s.Timetable(failedAt)
		for _, step := range steps {
			got, err := s.StepRunAt(failedAt, step.Attempt)
			require.NoError(t, err)
			assert.Equal(t, step.RunAt, got)
		}
	})

	t.Run("attempt out of range", func(t *testing.T) {
		_, err := s.StepRunAt(failedAt, 0)
		assert.Error(t, err)

		_, err = s.StepRunAt(failedAt, 8)
		assert.Error(t, err)
	})
}
