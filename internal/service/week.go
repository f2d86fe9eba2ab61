package service

import (
	"time"

	appErrors "github.com/calderhq/rota-api/pkg/errors"
)

const dayKeyLayout = "2006-01-02"

// WeekStart returns the Monday 00:00 boundary of the week containing t,
// computed in the organizational timezone.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	offset := (int(day.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return day.AddDate(0, 0, -offset)
}

// WeekWindow returns the [from, to) instant window for the week beginning at
// weekStart.
func WeekWindow(weekStart time.Time) (time.Time, time.Time) {
	return weekStart, weekStart.AddDate(0, 0, 7)
}

// WeekDays enumerates the seven calendar days of the week.
func WeekDays(weekStart time.Time) []time.Time {
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = weekStart.AddDate(0, 0, i)
	}
	return days
}

// ParseWeekStart parses a YYYY-MM-DD week identifier and verifies the
// Monday anchor.
func ParseWeekStart(raw string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dayKeyLayout, raw, loc)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid week start date")
	}
	if t.Weekday() != time.Monday {
		return time.Time{}, appErrors.Clone(appErrors.ErrWeekBoundary, "")
	}
	return t, nil
}

// DayKey renders the calendar date of an instant in the organizational
// timezone. Used as the per-day map key in the week read model.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dayKeyLayout)
}

// DayStart truncates an instant to midnight of its calendar day in loc.
func DayStart(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// CombineDayAndClock places the wall-clock time of src onto the calendar
// date of day, in the organizational timezone. This is how a moved or copied
// shift keeps its local start time verbatim across dates and DST changes.
func CombineDayAndClock(day time.Time, src time.Time, loc *time.Location) time.Time {
	local := src.In(loc)
	d := day.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), local.Hour(), local.Minute(), local.Second(), 0, loc)
}

// NormalizeShiftEnd rolls the end instant forward a day when the end clock
// time is not after the start. A 22:00-06:00 shift legitimately wraps past
// midnight and ends the following calendar day.
func NormalizeShiftEnd(start, end time.Time) time.Time {
	if end.After(start) {
		return end
	}
	return end.AddDate(0, 0, 1)
}
