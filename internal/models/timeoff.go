package models

import "time"

// TimeOff represents an approved absence window for an employee.
type TimeOff struct {
	ID         string    `db:"id" json:"id"`
	EmployeeID string    `db:"employee_id" json:"employee_id"`
	StartAt    time.Time `db:"start_at" json:"start_at"`
	EndAt      time.Time `db:"end_at" json:"end_at"`
	Reason     string    `db:"reason" json:"reason"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// allDaySlack tolerates entries recorded a few minutes off midnight, which
// older client versions produced for "all day" selections.
const allDaySlack = 5 * time.Minute

// CoversDay reports whether the absence overlaps any part of the given
// calendar day in the provided location.
func (t *TimeOff) CoversDay(day time.Time, loc *time.Location) bool {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)
	return t.StartAt.Before(dayEnd) && dayStart.Before(t.EndAt)
}

// AllDayOn reports whether the absence spans the entire calendar day in the
// provided location. All-day time off is the only hard scheduling block;
// anything shorter is surfaced as a soft constraint.
func (t *TimeOff) AllDayOn(day time.Time, loc *time.Location) bool {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)
	return !t.StartAt.After(dayStart.Add(allDaySlack)) && !t.EndAt.Before(dayEnd.Add(-allDaySlack))
}

// PartialOn reports whether the absence touches the day without covering it.
func (t *TimeOff) PartialOn(day time.Time, loc *time.Location) bool {
	return t.CoversDay(day, loc) && !t.AllDayOn(day, loc)
}
