package handler

import (
	"github.com/gin-gonic/gin"
)

// Deps bundles the handlers wired into the API route tree.
type Deps struct {
	Roster       *RosterHandler
	Shifts       *ShiftHandler
	Publish      *PublishHandler
	Reconcile    *ReconcileHandler
	Employees    *EmployeeHandler
	TimeOffs     *TimeOffHandler
	Availability *AvailabilityHandler
	Export       *ExportHandler

	ExportEnabled bool
}

// RegisterRoutes mounts the scheduling API under the given prefix.
func RegisterRoutes(r *gin.Engine, prefix string, d Deps) {
	api := r.Group(prefix)

	api.GET("/weeks/:start", d.Roster.Week)
	api.POST("/weeks/:start/publish", d.Publish.Publish)
	api.DELETE("/weeks/:start/drafts", d.Publish.ClearDrafts)
	api.POST("/weeks/:start/repeat-last-week", d.Publish.RepeatLastWeek)
	if d.ExportEnabled && d.Export != nil {
		api.GET("/weeks/:start/export", d.Export.Week)
	}

	api.POST("/shifts", d.Shifts.Create)
	api.GET("/shifts/:id", d.Shifts.Get)
	api.PUT("/shifts/:id", d.Shifts.Update)
	api.DELETE("/shifts/:id", d.Shifts.Delete)
	api.POST("/shifts/:id/duplicate", d.Shifts.Duplicate)
	api.POST("/shifts/:id/move", d.Shifts.Move)

	api.GET("/employees", d.Employees.List)
	api.GET("/employees/:id", d.Employees.Get)

	api.GET("/time-offs", d.TimeOffs.List)
	api.POST("/time-offs", d.TimeOffs.Create)
	api.DELETE("/time-offs/:id", d.TimeOffs.Delete)

	api.GET("/availability", d.Availability.List)
	api.POST("/availability", d.Availability.Create)
	api.DELETE("/availability/:id", d.Availability.Delete)

	api.POST("/reconcile", d.Reconcile.Run)
}
