package cashflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDateRange(t *testing.T) {
	r, err := NewDateRange(time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC), date(2024, 1, 10))
	require.NoError(t, err)
	assert.Equal(t, date(2024, 1, 1), r.Start)
	assert.Equal(t, 10, r.Days())
	assert.Equal(t, "01/01/2024 - 10/01/2024", r.String())

	_, err = NewDateRange(date(2024, 1, 2), date(2024, 1, 1))
	assert.ErrorContains(t, err, "is after")

	_, err = NewDateRange(time.Time{}, date(2024, 1, 1))
	assert.Error(t, err)
}

func TestDateRange_DatesAcrossLeapDay(t *testing.T) {
	r := mustRange(t, date(2024, 2, 27), date(2024, 3, 1))
	assert.Equal(t, []time.Time{date(2024, 2, 27), date(2024, 2, 28), date(2024, 2, 29), date(2024, 3, 1)}, r.Dates())
}

func TestDateRange_Contains(t *testing.T) {
	r := mustRange(t, date(2024, 1, 1), date(2024, 1, 3))
	assert.True(t, r.Contains(date(2024, 1, 1)))
	assert.True(t, r.Contains(time.Date(2024, 1, 3, 23, 59, 0, 0, time.UTC)))
	assert.False(t, r.Contains(date(2023, 12, 31)))
	assert.False(t, r.Contains(date(2024, 1, 4)))
}
