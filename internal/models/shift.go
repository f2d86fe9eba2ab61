package models

import "time"

// Shift status values. A shift is created as a draft and becomes visible to
// staff only once the week it belongs to is published. Any edit to a
// published shift demotes it back to draft.
const (
	ShiftStatusDraft     = "draft"
	ShiftStatusPublished = "published"
)

// Shift represents one scheduled work block. EmployeeID is nil for an
// open/unassigned shift. StartAt and EndAt are absolute instants stored in
// UTC; local clock times are derived in the organizational timezone.
type Shift struct {
	ID         string    `db:"id" json:"id"`
	EmployeeID *string   `db:"employee_id" json:"employee_id"`
	StartAt    time.Time `db:"start_at" json:"start_at"`
	EndAt      time.Time `db:"end_at" json:"end_at"`
	Location   string    `db:"location" json:"location"`
	Role       string    `db:"role" json:"role"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Assigned reports whether the shift belongs to a specific employee.
func (s *Shift) Assigned() bool {
	return s.EmployeeID != nil && *s.EmployeeID != ""
}

// Draft reports whether the shift is still tentative.
func (s *Shift) Draft() bool {
	return s.Status == ShiftStatusDraft
}

// Duration returns the worked span of the shift.
func (s *Shift) Duration() time.Duration {
	return s.EndAt.Sub(s.StartAt)
}

// Overlaps reports whether two shifts share any time.
func (s *Shift) Overlaps(other *Shift) bool {
	return s.StartAt.Before(other.EndAt) && other.StartAt.Before(s.EndAt)
}

// ShiftFilter describes query params for listing shifts.
type ShiftFilter struct {
	EmployeeID string
	Location   string
	Status     string
	From       time.Time
	To         time.Time
}

// PublishConflict identifies why a specific shift blocks a week publish.
type PublishConflict struct {
	ShiftID      string    `json:"shift_id"`
	EmployeeID   string    `json:"employee_id"`
	EmployeeName string    `json:"employee_name"`
	Date         string    `json:"date"`
	Reason       string    `json:"reason"`
	StartAt      time.Time `json:"start_at"`
	EndAt        time.Time `json:"end_at"`
}

// Publish conflict reasons.
const (
	ConflictReasonOverlap = "OVERLAPPING_SHIFTS"
	ConflictReasonTimeOff = "ALL_DAY_TIME_OFF"
)
