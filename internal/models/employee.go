package models

import "time"

// Employee is a rostered staff member. Employee records are maintained by the
// employee-management system; this service reads them only.
type Employee struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Role      string    `db:"role" json:"role"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// EmployeeFilter describes query params for listing employees.
type EmployeeFilter struct {
	Role   string
	Active *bool
}
