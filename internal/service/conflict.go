package service

import (
	"time"

	"github.com/calderhq/rota-api/internal/models"
)

// DayClassification is the eligibility of an (employee, day) cell. It is the
// single source of truth consulted by publish validation, the move
// validator, and the reconciler.
type DayClassification string

const (
	// DayBlocked means an all-day time-off exists: a hard block.
	DayBlocked DayClassification = "blocked"
	// DayUnavailable means no availability window and no partial time-off
	// touch the day: a soft block.
	DayUnavailable DayClassification = "unavailable"
	// DayOpen means the employee may be scheduled.
	DayOpen DayClassification = "open"
)

// DayIndex is an immutable lookup from (employee, day) to time-off and
// availability facts for one week. It is rebuilt from scratch whenever the
// underlying data is refetched; derived state is never patched in place.
type DayIndex struct {
	loc          *time.Location
	timeOffs     map[string][]models.TimeOff
	availability map[string][]models.Availability
}

// NewDayIndex groups the week's time-off and availability entries by
// employee for constant-time day classification.
func NewDayIndex(timeOffs []models.TimeOff, availability []models.Availability, loc *time.Location) *DayIndex {
	ix := &DayIndex{
		loc:          loc,
		timeOffs:     make(map[string][]models.TimeOff),
		availability: make(map[string][]models.Availability),
	}
	for _, t := range timeOffs {
		ix.timeOffs[t.EmployeeID] = append(ix.timeOffs[t.EmployeeID], t)
	}
	for _, a := range availability {
		ix.availability[a.EmployeeID] = append(ix.availability[a.EmployeeID], a)
	}
	return ix
}

// Classify returns the eligibility of the (employee, day) cell. Pure and
// deterministic given the index contents.
func (ix *DayIndex) Classify(employeeID string, day time.Time) DayClassification {
	if ix.HasAllDayTimeOff(employeeID, day) {
		return DayBlocked
	}
	if !ix.HasAvailability(employeeID, day) && !ix.HasPartialTimeOff(employeeID, day) {
		return DayUnavailable
	}
	return DayOpen
}

// HasAllDayTimeOff reports whether an all-day absence covers the day.
func (ix *DayIndex) HasAllDayTimeOff(employeeID string, day time.Time) bool {
	for _, t := range ix.timeOffs[employeeID] {
		if t.AllDayOn(day, ix.loc) {
			return true
		}
	}
	return false
}

// HasPartialTimeOff reports whether an absence touches the day without
// covering it entirely.
func (ix *DayIndex) HasPartialTimeOff(employeeID string, day time.Time) bool {
	for _, t := range ix.timeOffs[employeeID] {
		if t.PartialOn(day, ix.loc) {
			return true
		}
	}
	return false
}

// HasAvailability reports whether any declared window applies to the day.
func (ix *DayIndex) HasAvailability(employeeID string, day time.Time) bool {
	for _, a := range ix.availability[employeeID] {
		if a.AppliesOn(day.In(ix.loc)) {
			return true
		}
	}
	return false
}

// TimeOffsOn returns the absences touching the day for an employee.
func (ix *DayIndex) TimeOffsOn(employeeID string, day time.Time) []models.TimeOff {
	var out []models.TimeOff
	for _, t := range ix.timeOffs[employeeID] {
		if t.CoversDay(day, ix.loc) {
			out = append(out, t)
		}
	}
	return out
}

// AvailabilityOn returns the windows in effect on the day for an employee.
func (ix *DayIndex) AvailabilityOn(employeeID string, day time.Time) []models.Availability {
	var out []models.Availability
	for _, a := range ix.availability[employeeID] {
		if a.AppliesOn(day.In(ix.loc)) {
			out = append(out, a)
		}
	}
	return out
}
