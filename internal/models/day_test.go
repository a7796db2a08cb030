package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayOfDropsTimeOfDay(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	morning := time.Date(2024, 5, 15, 0, 5, 0, 0, loc)
	night := time.Date(2024, 5, 15, 23, 59, 59, 999, loc)

	assert.Equal(t, Day("2024-05-15"), DayOf(morning))
	assert.Equal(t, DayOf(morning), DayOf(night))
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, Day("2024-02-29"), d)

	_, err = ParseDay("2024-02-30")
	assert.Error(t, err)
	_, err = ParseDay("15/05/2024")
	assert.Error(t, err)
}

func TestDayValid(t *testing.T) {
	assert.True(t, Day("2024-05-15").Valid())
	assert.True(t, Day("2024-02-29").Valid())

	for _, d := range []Day{"", "2024-05-15T10:30:00Z", "2024-5-15", "2024-02-30", "garbage", " 2024-05-15"} {
		assert.False(t, d.Valid(), "%q", d)
	}
}

func TestDayArithmetic(t *testing.T) {
	d := Day("2024-12-31")
	assert.Equal(t, Day("2025-01-01"), d.AddDays(1))
	assert.Equal(t, Day("2024-12-30"), d.AddDays(-1))
	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.AddDays(1).After(d))
	assert.False(t, d.After(d))
}

func TestDayWeekday(t *testing.T) {
	assert.Equal(t, Wednesday, Day("2024-05-15").Weekday())
	assert.Equal(t, Sunday, Day("2024-05-19").Weekday())
	assert.Equal(t, Saturday, Day("2024-05-18").Weekday())
}

func TestDayTime(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	got := Day("2024-05-15").Time(loc)
	assert.Equal(t, time.Date(2024, 5, 15, 0, 0, 0, 0, loc), got)
	assert.True(t, Day("garbage").Time(loc).IsZero())
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("")
	require.NoError(t, err)
	assert.Equal(t, FilterAll, f)

	f, err = ParseFilter("Completed")
	require.NoError(t, err)
	assert.Equal(t, FilterCompleted, f)
	assert.True(t, f.Narrows())
	assert.False(t, FilterToday.Narrows())

	_, err = ParseFilter("done")
	assert.Error(t, err)

	assert.Equal(t, FilterAll, FilterIncomplete.Next())
}
