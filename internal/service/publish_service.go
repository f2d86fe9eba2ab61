package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/calderhq/rota-api/internal/models"
	appErrors "github.com/calderhq/rota-api/pkg/errors"
)

type publishShiftStore interface {
	ListWindow(ctx context.Context, from, to time.Time, status string) ([]models.Shift, error)
	PublishWindow(ctx context.Context, from, to time.Time) (int64, error)
	DeleteDraftsWindow(ctx context.Context, from, to time.Time) (int64, error)
}

type employeeLister interface {
	List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, error)
}

// PublishResult reports the outcome of a week publish. Conflicts are a
// structured result, never an exception: a non-empty Conflicts list means
// the week was left entirely unpublished.
type PublishResult struct {
	Success   bool                     `json:"success"`
	Message   string                   `json:"message"`
	Published int64                    `json:"published"`
	Conflicts []models.PublishConflict `json:"conflicts,omitempty"`
}

// ClearDraftsResult reports how many draft shifts a clear removed.
type ClearDraftsResult struct {
	Deleted int64  `json:"deleted"`
	Message string `json:"message"`
}

// PublishService governs the draft/published state machine at week
// granularity. Publishing is strict and all-or-nothing: conflicts are fully
// resolved client-side here before any write is attempted, never delegated
// to the database.
type PublishService struct {
	shifts      publishShiftStore
	employees   employeeLister
	timeOffs    timeOffReader
	invalidator rosterInvalidator
	metrics     *MetricsService
	loc         *time.Location
	logger      *zap.Logger
}

// NewPublishService instantiates PublishService.
func NewPublishService(shifts publishShiftStore, employees employeeLister, timeOffs timeOffReader, invalidator rosterInvalidator, metrics *MetricsService, loc *time.Location, logger *zap.Logger) *PublishService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &PublishService{
		shifts:      shifts,
		employees:   employees,
		timeOffs:    timeOffs,
		invalidator: invalidator,
		metrics:     metrics,
		loc:         loc,
		logger:      logger,
	}
}

// PublishWeek promotes every draft shift in the week to published, or none.
// It rejects the whole week when any employee holds overlapping shifts on
// one day, or when a to-be-published shift lands on an all-day time-off.
// Promotion is an in-place status flip, so no duplicate draft+published
// pairs can remain afterwards.
func (s *PublishService) PublishWeek(ctx context.Context, weekStart time.Time) (*PublishResult, error) {
	from, to := WeekWindow(weekStart)

	shifts, err := s.shifts.ListWindow(ctx, from.UTC(), to.UTC(), "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load week shifts")
	}

	draftCount := 0
	for i := range shifts {
		if shifts[i].Draft() {
			draftCount++
		}
	}
	if draftCount == 0 {
		return &PublishResult{Success: true, Message: "no draft shifts to publish"}, nil
	}

	conflicts, err := s.findConflicts(ctx, shifts, from, to)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		if s.metrics != nil {
			s.metrics.RecordPublish(false)
		}
		return &PublishResult{
			Success:   false,
			Message:   fmt.Sprintf("publish rejected: %d conflicts", len(conflicts)),
			Conflicts: conflicts,
		}, nil
	}

	published, err := s.shifts.PublishWindow(ctx, from.UTC(), to.UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish week")
	}
	if s.metrics != nil {
		s.metrics.RecordPublish(true)
	}
	if s.invalidator != nil {
		s.invalidator.InvalidateWeek(ctx, weekStart)
	}
	s.logger.Info("week published",
		zap.String("week_start", DayKey(weekStart, s.loc)),
		zap.Int64("published", published),
	)
	return &PublishResult{
		Success:   true,
		Message:   fmt.Sprintf("published %d shifts", published),
		Published: published,
	}, nil
}

// ClearDrafts deletes every draft shift in the week. Irreversible; used to
// discard an in-progress edit session.
func (s *PublishService) ClearDrafts(ctx context.Context, weekStart time.Time) (*ClearDraftsResult, error) {
	from, to := WeekWindow(weekStart)
	deleted, err := s.shifts.DeleteDraftsWindow(ctx, from.UTC(), to.UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear drafts")
	}
	if s.invalidator != nil {
		s.invalidator.InvalidateWeek(ctx, weekStart)
	}
	message := fmt.Sprintf("cleared %d draft shifts", deleted)
	if deleted == 0 {
		message = "no draft shifts to clear"
	}
	return &ClearDraftsResult{Deleted: deleted, Message: message}, nil
}

// findConflicts returns one entry per (employee, day, reason) that blocks
// the publish. Open shifts carry no employee and are never checked.
func (s *PublishService) findConflicts(ctx context.Context, shifts []models.Shift, from, to time.Time) ([]models.PublishConflict, error) {
	timeOffs, err := s.timeOffs.ListWindow(ctx, from.UTC(), to.UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time offs")
	}
	ix := NewDayIndex(timeOffs, nil, s.loc)

	names, err := s.employeeNames(ctx)
	if err != nil {
		return nil, err
	}

	type cell struct {
		employeeID string
		day        string
		reason     string
	}
	seen := make(map[cell]bool)
	var conflicts []models.PublishConflict

	add := func(shift models.Shift, reason string) {
		key := cell{employeeID: *shift.EmployeeID, day: DayKey(shift.StartAt, s.loc), reason: reason}
		if seen[key] {
			return
		}
		seen[key] = true
		conflicts = append(conflicts, models.PublishConflict{
			ShiftID:      shift.ID,
			EmployeeID:   key.employeeID,
			EmployeeName: names[key.employeeID],
			Date:         key.day,
			Reason:       reason,
			StartAt:      shift.StartAt,
			EndAt:        shift.EndAt,
		})
	}

	byCell := make(map[string][]models.Shift)
	for _, shift := range shifts {
		if !shift.Assigned() {
			continue
		}
		key := *shift.EmployeeID + "|" + DayKey(shift.StartAt, s.loc)
		byCell[key] = append(byCell[key], shift)
	}
	for _, group := range byCell {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if group[i].Overlaps(&group[j]) {
					add(group[i], models.ConflictReasonOverlap)
				}
			}
		}
	}

	for _, shift := range shifts {
		if !shift.Draft() || !shift.Assigned() {
			continue
		}
		if ix.HasAllDayTimeOff(*shift.EmployeeID, DayStart(shift.StartAt, s.loc)) {
			add(shift, models.ConflictReasonTimeOff)
		}
	}

	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].Date != conflicts[j].Date {
			return conflicts[i].Date < conflicts[j].Date
		}
		return conflicts[i].EmployeeName < conflicts[j].EmployeeName
	})
	return conflicts, nil
}

func (s *PublishService) employeeNames(ctx context.Context) (map[string]string, error) {
	employees, err := s.employees.List(ctx, models.EmployeeFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employees")
	}
	names := make(map[string]string, len(employees))
	for _, e := range employees {
		names[e.ID] = e.Name
	}
	return names, nil
}
