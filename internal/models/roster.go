package models

// WeekView is the week-scoped read model served to scheduling clients. All
// maps are keyed by employee id and then by calendar date (YYYY-MM-DD in the
// organizational timezone). It is rebuilt from scratch on every fetch so no
// stale derived state is ever carried forward.
type WeekView struct {
	WeekStart string `json:"week_start"`
	WeekEnd   string `json:"week_end"`
	Timezone  string `json:"timezone"`

	Employees  []Employee `json:"employees"`
	OpenShifts []Shift    `json:"open_shifts"`

	ShiftsByEmployeeAndDay       map[string]map[string][]Shift        `json:"shifts_by_employee_and_day"`
	TimeOffsByEmployeeAndDay     map[string]map[string][]TimeOff      `json:"time_offs_by_employee_and_day"`
	AvailabilityByEmployeeAndDay map[string]map[string][]Availability `json:"availability_by_employee_and_day"`
	WeeklyHoursByEmployee        map[string]float64                   `json:"weekly_hours_by_employee"`

	IsWeekPublished bool `json:"is_week_published"`
	DraftCount      int  `json:"draft_count"`
}
