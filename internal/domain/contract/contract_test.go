package contract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstallmentDueDates(t *testing.T) {
	t.Run("clamps due day to month end", func(t *testing.T) {
		c := &Contract{
			StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC),
			DueDay:    31,
		}
		dates := c.InstallmentDueDates()
		require.Len(t, dates, 4)
		assert.Equal(t, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), dates[0])
		assert.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), dates[1])
		assert.Equal(t, time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC), dates[3])
	})

	t.Run("skips due days before start", func(t *testing.T) {
		c := &Contract{
			StartDate: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
			DueDay:    5,
		}
		dates := c.InstallmentDueDates()
		require.Len(t, dates, 2)
		assert.Equal(t, time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC), dates[0])
		assert.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), dates[1])
	})

	t.Run("empty when end precedes start", func(t *testing.T) {
		c := &Contract{
			StartDate: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
			DueDay:    1,
		}
		assert.Empty(t, c.InstallmentDueDates())
	})
}
