package models

import "time"

// Availability declares a window during which an employee may be scheduled.
// Exactly one of Weekday (recurring) or Date (one specific day) is set.
// Window bounds are minutes past midnight in the organizational timezone.
type Availability struct {
	ID          string     `db:"id" json:"id"`
	EmployeeID  string     `db:"employee_id" json:"employee_id"`
	Weekday     *int       `db:"weekday" json:"weekday,omitempty"`
	Date        *time.Time `db:"date" json:"date,omitempty"`
	StartMinute int        `db:"start_minute" json:"start_minute"`
	EndMinute   int        `db:"end_minute" json:"end_minute"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// AppliesOn reports whether the window is in effect on the given calendar
// day. A date-specific entry wins only on its exact date; a recurring entry
// matches by weekday.
func (a *Availability) AppliesOn(day time.Time) bool {
	if a.Date != nil {
		return a.Date.Year() == day.Year() && a.Date.YearDay() == day.YearDay()
	}
	if a.Weekday != nil {
		return time.Weekday(*a.Weekday) == day.Weekday()
	}
	return false
}
