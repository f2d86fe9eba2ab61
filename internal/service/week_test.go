package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/calderhq/rota-api/pkg/errors"
)

func orgLocation(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return loc
}

func TestWeekStartAnchorsOnMonday(t *testing.T) {
	loc := orgLocation(t)
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, loc)

	cases := map[string]time.Time{
		"monday itself":    time.Date(2026, 3, 2, 9, 30, 0, 0, loc),
		"midweek":          time.Date(2026, 3, 4, 23, 0, 0, 0, loc),
		"sunday night":     time.Date(2026, 3, 8, 23, 59, 0, 0, loc),
		"utc instant":      time.Date(2026, 3, 3, 1, 0, 0, 0, time.UTC), // Mon 20:00 local
		"sunday local day": time.Date(2026, 3, 8, 1, 0, 0, 0, loc),
	}
	for name, in := range cases {
		assert.True(t, WeekStart(in, loc).Equal(monday), name)
	}
}

func TestWeekStartSundayBelongsToPriorMonday(t *testing.T) {
	loc := orgLocation(t)
	sunday := time.Date(2026, 3, 1, 12, 0, 0, 0, loc)
	want := time.Date(2026, 2, 23, 0, 0, 0, 0, loc)
	assert.True(t, WeekStart(sunday, loc).Equal(want))
}

func TestParseWeekStartRejectsNonMonday(t *testing.T) {
	loc := orgLocation(t)

	_, err := ParseWeekStart("2026-03-04", loc)
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrWeekBoundary.Code, appErr.Code)

	start, err := ParseWeekStart("2026-03-02", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Monday, start.Weekday())
}

func TestParseWeekStartRejectsGarbage(t *testing.T) {
	_, err := ParseWeekStart("not-a-date", orgLocation(t))
	assert.Error(t, err)
}

func TestWeekDaysEnumeratesSeven(t *testing.T) {
	loc := orgLocation(t)
	days := WeekDays(time.Date(2026, 3, 2, 0, 0, 0, 0, loc))
	require.Len(t, days, 7)
	assert.Equal(t, time.Monday, days[0].Weekday())
	assert.Equal(t, time.Sunday, days[6].Weekday())
}

func TestNormalizeShiftEndRollsOvernightForward(t *testing.T) {
	loc := orgLocation(t)
	start := time.Date(2026, 3, 3, 22, 0, 0, 0, loc)
	end := time.Date(2026, 3, 3, 6, 0, 0, 0, loc)

	got := NormalizeShiftEnd(start, end)
	assert.Equal(t, 4, got.Day())
	assert.Equal(t, 8*time.Hour, got.Sub(start))

	// A same-day end is left alone.
	sameDay := time.Date(2026, 3, 3, 23, 0, 0, 0, loc)
	assert.True(t, NormalizeShiftEnd(start, sameDay).Equal(sameDay))
}

func TestCombineDayAndClockPreservesLocalTimeAcrossDST(t *testing.T) {
	loc := orgLocation(t)
	// 2026-03-08 02:00 is the spring-forward boundary in America/New_York.
	src := time.Date(2026, 3, 4, 9, 0, 0, 0, loc)  // EST, UTC-5
	day := time.Date(2026, 3, 11, 0, 0, 0, 0, loc) // EDT, UTC-4

	got := CombineDayAndClock(day, src, loc)
	assert.Equal(t, 9, got.In(loc).Hour())
	assert.Equal(t, 11, got.In(loc).Day())

	_, srcOffset := src.Zone()
	_, gotOffset := got.Zone()
	assert.NotEqual(t, srcOffset, gotOffset)
}

func TestDayKeyUsesOrganizationalTimezone(t *testing.T) {
	loc := orgLocation(t)
	// 01:00 UTC is still the prior evening in New York.
	instant := time.Date(2026, 3, 4, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-03", DayKey(instant, loc))
}
