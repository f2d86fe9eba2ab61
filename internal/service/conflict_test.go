package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/calderhq/rota-api/internal/models"
)

func allDayOff(loc *time.Location, employeeID string, year int, month time.Month, day int) models.TimeOff {
	start := time.Date(year, month, day, 0, 0, 0, 0, loc)
	return models.TimeOff{
		ID:         "to-" + employeeID,
		EmployeeID: employeeID,
		StartAt:    start,
		EndAt:      start.AddDate(0, 0, 1),
	}
}

func TestDayIndexClassifyBlockedByAllDayTimeOff(t *testing.T) {
	loc := orgLocation(t)
	day := time.Date(2026, 3, 4, 0, 0, 0, 0, loc)

	ix := NewDayIndex([]models.TimeOff{allDayOff(loc, "emp-1", 2026, 3, 4)}, nil, loc)

	assert.Equal(t, DayBlocked, ix.Classify("emp-1", day))
	assert.Equal(t, DayUnavailable, ix.Classify("emp-1", day.AddDate(0, 0, 1)))
	assert.Equal(t, DayUnavailable, ix.Classify("emp-2", day))
}

func TestDayIndexPartialTimeOffIsNotBlocking(t *testing.T) {
	loc := orgLocation(t)
	day := time.Date(2026, 3, 4, 0, 0, 0, 0, loc)

	partial := models.TimeOff{
		EmployeeID: "emp-1",
		StartAt:    time.Date(2026, 3, 4, 9, 0, 0, 0, loc),
		EndAt:      time.Date(2026, 3, 4, 13, 0, 0, 0, loc),
	}
	ix := NewDayIndex([]models.TimeOff{partial}, nil, loc)

	assert.Equal(t, DayOpen, ix.Classify("emp-1", day))
	assert.True(t, ix.HasPartialTimeOff("emp-1", day))
	assert.False(t, ix.HasAllDayTimeOff("emp-1", day))
}

func TestDayIndexNearMidnightEntriesCountAsAllDay(t *testing.T) {
	loc := orgLocation(t)
	day := time.Date(2026, 3, 4, 0, 0, 0, 0, loc)

	// Recorded a couple of minutes off midnight at both ends.
	sloppy := models.TimeOff{
		EmployeeID: "emp-1",
		StartAt:    time.Date(2026, 3, 4, 0, 2, 0, 0, loc),
		EndAt:      time.Date(2026, 3, 4, 23, 58, 0, 0, loc),
	}
	ix := NewDayIndex([]models.TimeOff{sloppy}, nil, loc)
	assert.True(t, ix.HasAllDayTimeOff("emp-1", day))
}

func TestDayIndexAvailabilityOpensTheDay(t *testing.T) {
	loc := orgLocation(t)
	wednesday := time.Date(2026, 3, 4, 0, 0, 0, 0, loc)
	wd := int(time.Wednesday)

	recurring := models.Availability{EmployeeID: "emp-1", Weekday: &wd, StartMinute: 540, EndMinute: 1020}
	dated := time.Date(2026, 3, 6, 0, 0, 0, 0, loc)
	oneOff := models.Availability{EmployeeID: "emp-2", Date: &dated, StartMinute: 540, EndMinute: 1020}

	ix := NewDayIndex(nil, []models.Availability{recurring, oneOff}, loc)

	assert.Equal(t, DayOpen, ix.Classify("emp-1", wednesday))
	assert.Equal(t, DayUnavailable, ix.Classify("emp-1", wednesday.AddDate(0, 0, 1)))
	assert.Equal(t, DayOpen, ix.Classify("emp-2", dated))
	assert.Equal(t, DayUnavailable, ix.Classify("emp-2", wednesday))
}

func TestDayIndexAllDayTimeOffOutranksAvailability(t *testing.T) {
	loc := orgLocation(t)
	wednesday := time.Date(2026, 3, 4, 0, 0, 0, 0, loc)
	wd := int(time.Wednesday)

	ix := NewDayIndex(
		[]models.TimeOff{allDayOff(loc, "emp-1", 2026, 3, 4)},
		[]models.Availability{{EmployeeID: "emp-1", Weekday: &wd, StartMinute: 540, EndMinute: 1020}},
		loc,
	)
	assert.Equal(t, DayBlocked, ix.Classify("emp-1", wednesday))
}

func TestDayIndexMultiDayTimeOffBlocksEachCoveredDay(t *testing.T) {
	loc := orgLocation(t)
	span := models.TimeOff{
		EmployeeID: "emp-1",
		StartAt:    time.Date(2026, 3, 3, 0, 0, 0, 0, loc),
		EndAt:      time.Date(2026, 3, 6, 0, 0, 0, 0, loc),
	}
	ix := NewDayIndex([]models.TimeOff{span}, nil, loc)

	for d := 3; d <= 5; d++ {
		assert.True(t, ix.HasAllDayTimeOff("emp-1", time.Date(2026, 3, d, 0, 0, 0, 0, loc)), "day %d", d)
	}
	assert.False(t, ix.HasAllDayTimeOff("emp-1", time.Date(2026, 3, 6, 0, 0, 0, 0, loc)))
}
