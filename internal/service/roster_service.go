package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/calderhq/rota-api/internal/models"
	appErrors "github.com/calderhq/rota-api/pkg/errors"
)

type rosterShiftReader interface {
	ListWindow(ctx context.Context, from, to time.Time, status string) ([]models.Shift, error)
}

// RosterService assembles the week-scoped read model served to scheduling
// clients. The view is always rebuilt from the repositories; the cache layer
// only shortcuts repeat reads and is dropped on every mutation.
type RosterService struct {
	shifts       rosterShiftReader
	employees    employeeLister
	timeOffs     timeOffReader
	availability availabilityReader
	cache        *CacheService
	loc          *time.Location
	tzName       string
	logger       *zap.Logger
}

// NewRosterService instantiates RosterService.
func NewRosterService(shifts rosterShiftReader, employees employeeLister, timeOffs timeOffReader, availability availabilityReader, cache *CacheService, loc *time.Location, tzName string, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &RosterService{
		shifts:       shifts,
		employees:    employees,
		timeOffs:     timeOffs,
		availability: availability,
		cache:        cache,
		loc:          loc,
		tzName:       tzName,
		logger:       logger,
	}
}

func weekCacheKey(weekStart time.Time, loc *time.Location) string {
	return fmt.Sprintf("roster:week:%s", DayKey(weekStart, loc))
}

// WeekView returns the read model for the week beginning at weekStart.
func (s *RosterService) WeekView(ctx context.Context, weekStart time.Time) (*models.WeekView, error) {
	key := weekCacheKey(weekStart, s.loc)
	if s.cache.Enabled() {
		var cached models.WeekView
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			return &cached, nil
		}
	}

	view, err := s.buildWeekView(ctx, weekStart)
	if err != nil {
		return nil, err
	}

	if s.cache.Enabled() {
		_ = s.cache.Set(ctx, key, view)
	}
	return view, nil
}

// InvalidateWeek drops the cached read model for one week.
func (s *RosterService) InvalidateWeek(ctx context.Context, weekStart time.Time) {
	if s.cache.Enabled() {
		s.cache.Invalidate(ctx, weekCacheKey(weekStart, s.loc))
	}
}

func (s *RosterService) buildWeekView(ctx context.Context, weekStart time.Time) (*models.WeekView, error) {
	from, to := WeekWindow(weekStart)

	active := true
	employees, err := s.employees.List(ctx, models.EmployeeFilter{Active: &active})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employees")
	}

	shifts, err := s.shifts.ListWindow(ctx, from.UTC(), to.UTC(), "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load shifts")
	}

	timeOffs, err := s.timeOffs.ListWindow(ctx, from.UTC(), to.UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time offs")
	}

	availability, err := s.availability.ListWindow(ctx, from.UTC(), to.UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}

	ix := NewDayIndex(timeOffs, availability, s.loc)
	days := WeekDays(weekStart)

	view := &models.WeekView{
		WeekStart:                    DayKey(from, s.loc),
		WeekEnd:                      DayKey(to.AddDate(0, 0, -1), s.loc),
		Timezone:                     s.tzName,
		Employees:                    employees,
		OpenShifts:                   []models.Shift{},
		ShiftsByEmployeeAndDay:       make(map[string]map[string][]models.Shift),
		TimeOffsByEmployeeAndDay:     make(map[string]map[string][]models.TimeOff),
		AvailabilityByEmployeeAndDay: make(map[string]map[string][]models.Availability),
		WeeklyHoursByEmployee:        make(map[string]float64),
	}

	publishedCount := 0
	conflictedDrafts := 0
	for _, shift := range shifts {
		if shift.Status == models.ShiftStatusPublished {
			publishedCount++
		} else {
			view.DraftCount++
		}

		if !shift.Assigned() {
			view.OpenShifts = append(view.OpenShifts, shift)
			continue
		}

		empID := *shift.EmployeeID
		day := DayKey(shift.StartAt, s.loc)
		if view.ShiftsByEmployeeAndDay[empID] == nil {
			view.ShiftsByEmployeeAndDay[empID] = make(map[string][]models.Shift)
		}
		view.ShiftsByEmployeeAndDay[empID][day] = append(view.ShiftsByEmployeeAndDay[empID][day], shift)
		view.WeeklyHoursByEmployee[empID] += shift.Duration().Hours()

		if shift.Draft() && ix.HasAllDayTimeOff(empID, DayStart(shift.StartAt, s.loc)) {
			conflictedDrafts++
		}
	}

	for _, employee := range employees {
		for _, day := range days {
			key := DayKey(day, s.loc)
			if offs := ix.TimeOffsOn(employee.ID, day); len(offs) > 0 {
				if view.TimeOffsByEmployeeAndDay[employee.ID] == nil {
					view.TimeOffsByEmployeeAndDay[employee.ID] = make(map[string][]models.TimeOff)
				}
				view.TimeOffsByEmployeeAndDay[employee.ID][key] = offs
			}
			if windows := ix.AvailabilityOn(employee.ID, day); len(windows) > 0 {
				if view.AvailabilityByEmployeeAndDay[employee.ID] == nil {
					view.AvailabilityByEmployeeAndDay[employee.ID] = make(map[string][]models.Availability)
				}
				view.AvailabilityByEmployeeAndDay[employee.ID][key] = windows
			}
		}
	}

	view.IsWeekPublished = publishedCount > 0 && conflictedDrafts == 0
	return view, nil
}
