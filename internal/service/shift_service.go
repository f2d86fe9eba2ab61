package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/calderhq/rota-api/internal/models"
	appErrors "github.com/calderhq/rota-api/pkg/errors"
)

type shiftRepository interface {
	ListWindow(ctx context.Context, from, to time.Time, status string) ([]models.Shift, error)
	FindByID(ctx context.Context, id string) (*models.Shift, error)
	Create(ctx context.Context, shift *models.Shift) error
	BulkCreate(ctx context.Context, shifts []models.Shift) error
	Update(ctx context.Context, shift *models.Shift) error
	Delete(ctx context.Context, id string) error
}

type employeeReader interface {
	FindByID(ctx context.Context, id string) (*models.Employee, error)
}

type timeOffReader interface {
	ListWindow(ctx context.Context, from, to time.Time) ([]models.TimeOff, error)
}

type availabilityReader interface {
	ListWindow(ctx context.Context, from, to time.Time) ([]models.Availability, error)
}

// rosterInvalidator drops cached week read models after a mutation.
type rosterInvalidator interface {
	InvalidateWeek(ctx context.Context, weekStart time.Time)
}

// reconcileNotifier wakes the reconciliation loop after data changes.
type reconcileNotifier interface {
	Trigger()
}

// CreateShiftRequest describes payload for creating a shift. A nil
// EmployeeID creates an open shift.
type CreateShiftRequest struct {
	EmployeeID *string   `json:"employee_id"`
	StartAt    time.Time `json:"start_at" validate:"required"`
	EndAt      time.Time `json:"end_at" validate:"required"`
	Location   string    `json:"location" validate:"required"`
	Role       string    `json:"role"`
}

// UpdateShiftRequest updates an existing shift. The persisted result is
// always a draft, whatever the shift's prior status.
type UpdateShiftRequest struct {
	EmployeeID *string   `json:"employee_id"`
	StartAt    time.Time `json:"start_at" validate:"required"`
	EndAt      time.Time `json:"end_at" validate:"required"`
	Location   string    `json:"location" validate:"required"`
	Role       string    `json:"role"`
}

// MoveShiftRequest reassigns a shift to a new (employee, day) cell. A nil
// TargetEmployeeID drops the shift into the open pool for the target day.
type MoveShiftRequest struct {
	TargetEmployeeID *string `json:"target_employee_id"`
	TargetDate       string  `json:"target_date" validate:"required"`
}

// MoveShiftResult reports the outcome of a move. A rejected move is not an
// error: the shift is simply left untouched and Reason says why.
type MoveShiftResult struct {
	Moved  bool          `json:"moved"`
	Reason string        `json:"reason,omitempty"`
	Shift  *models.Shift `json:"shift,omitempty"`
}

// Move rejection reasons.
const (
	MoveReasonBlocked     = "day_blocked"
	MoveReasonUnavailable = "employee_unavailable"
)

// RepeatWeekResult summarises a repeat-last-week copy.
type RepeatWeekResult struct {
	Created int    `json:"created"`
	Message string `json:"message"`
}

// ShiftService owns the shift lifecycle: creation, edits (which demote
// published shifts back to draft), duplication, drag-and-drop moves and the
// repeat-last-week copy.
type ShiftService struct {
	shifts       shiftRepository
	employees    employeeReader
	timeOffs     timeOffReader
	availability availabilityReader
	invalidator  rosterInvalidator
	reconciler   reconcileNotifier
	loc          *time.Location
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewShiftService instantiates ShiftService.
func NewShiftService(shifts shiftRepository, employees employeeReader, timeOffs timeOffReader, availability availabilityReader, invalidator rosterInvalidator, reconciler reconcileNotifier, loc *time.Location, validate *validator.Validate, logger *zap.Logger) *ShiftService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ShiftService{
		shifts:       shifts,
		employees:    employees,
		timeOffs:     timeOffs,
		availability: availability,
		invalidator:  invalidator,
		reconciler:   reconciler,
		loc:          loc,
		validator:    validate,
		logger:       logger,
	}
}

// Get loads a single shift.
func (s *ShiftService) Get(ctx context.Context, id string) (*models.Shift, error) {
	shift, err := s.shifts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "shift not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load shift")
	}
	return shift, nil
}

// Create inserts a new draft shift. An all-day time-off on the target day is
// the only hard block; missing availability is a soft constraint the
// scheduler may deliberately override here.
func (s *ShiftService) Create(ctx context.Context, req CreateShiftRequest) (*models.Shift, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid shift payload")
	}

	shift := models.Shift{
		EmployeeID: normalizeEmployeeID(req.EmployeeID),
		StartAt:    req.StartAt.UTC(),
		EndAt:      NormalizeShiftEnd(req.StartAt, req.EndAt).UTC(),
		Location:   req.Location,
		Role:       req.Role,
		Status:     models.ShiftStatusDraft,
	}

	if shift.Assigned() {
		if err := s.ensureEmployeeExists(ctx, *shift.EmployeeID); err != nil {
			return nil, err
		}
		blocked, err := s.dayBlocked(ctx, *shift.EmployeeID, shift.StartAt)
		if err != nil {
			return nil, err
		}
		if blocked {
			return nil, appErrors.Clone(appErrors.ErrDayBlocked, "")
		}
	}

	if err := s.shifts.Create(ctx, &shift); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create shift")
	}
	s.afterMutation(ctx, shift.StartAt)
	return &shift, nil
}

// Update persists edits to a shift. The result is always a draft: a
// published shift is a contract already visible to staff, so any change must
// be re-reviewed before going live again.
func (s *ShiftService) Update(ctx context.Context, id string, req UpdateShiftRequest) (*models.Shift, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid shift payload")
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := models.Shift{
		ID:         existing.ID,
		EmployeeID: normalizeEmployeeID(req.EmployeeID),
		StartAt:    req.StartAt.UTC(),
		EndAt:      NormalizeShiftEnd(req.StartAt, req.EndAt).UTC(),
		Location:   req.Location,
		Role:       req.Role,
		Status:     models.ShiftStatusDraft,
		CreatedAt:  existing.CreatedAt,
	}

	if updated.Assigned() {
		if err := s.ensureEmployeeExists(ctx, *updated.EmployeeID); err != nil {
			return nil, err
		}
	}

	if err := s.shifts.Update(ctx, &updated); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update shift")
	}
	s.afterMutation(ctx, existing.StartAt)
	if !existing.StartAt.Equal(updated.StartAt) {
		s.afterMutation(ctx, updated.StartAt)
	}
	return &updated, nil
}

// Delete removes a shift.
func (s *ShiftService) Delete(ctx context.Context, id string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.shifts.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete shift")
	}
	s.afterMutation(ctx, existing.StartAt)
	return nil
}

// Duplicate clones a shift as a new draft with identical times, employee,
// location and role.
func (s *ShiftService) Duplicate(ctx context.Context, id string) (*models.Shift, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	clone := models.Shift{
		EmployeeID: existing.EmployeeID,
		StartAt:    existing.StartAt,
		EndAt:      existing.EndAt,
		Location:   existing.Location,
		Role:       existing.Role,
		Status:     models.ShiftStatusDraft,
	}
	if err := s.shifts.Create(ctx, &clone); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to duplicate shift")
	}
	s.afterMutation(ctx, clone.StartAt)
	return &clone, nil
}

// Move validates a drag-and-drop reassignment and applies it when the
// target cell permits. A blocked target is a silent no-op. An unavailable
// target is a no-op unless a partial time-off touches the day, in which case
// the scheduler is assumed to be deliberately working around it. Local
// start and end clock times are preserved verbatim; only the calendar date
// and employee reference change.
func (s *ShiftService) Move(ctx context.Context, id string, req MoveShiftRequest) (*MoveShiftResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid move payload")
	}

	shift, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	targetDay, err := time.ParseInLocation(dayKeyLayout, req.TargetDate, s.loc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid target date")
	}

	targetEmployee := normalizeEmployeeID(req.TargetEmployeeID)
	if targetEmployee != nil {
		ix, err := s.dayIndex(ctx, targetDay)
		if err != nil {
			return nil, err
		}
		switch ix.Classify(*targetEmployee, targetDay) {
		case DayBlocked:
			return &MoveShiftResult{Moved: false, Reason: MoveReasonBlocked}, nil
		case DayUnavailable:
			// A day touched by a partial time-off classifies open, so
			// the waiver described above never reaches this arm.
			return &MoveShiftResult{Moved: false, Reason: MoveReasonUnavailable}, nil
		}
	}

	oldStart := shift.StartAt
	newStart := CombineDayAndClock(targetDay, shift.StartAt, s.loc)
	newEnd := NormalizeShiftEnd(newStart, CombineDayAndClock(targetDay, shift.EndAt, s.loc))

	shift.EmployeeID = targetEmployee
	shift.StartAt = newStart.UTC()
	shift.EndAt = newEnd.UTC()
	// A move is an edit, so a published shift drops back to draft.
	shift.Status = models.ShiftStatusDraft

	if err := s.shifts.Update(ctx, shift); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to move shift")
	}
	s.afterMutation(ctx, oldStart)
	if !oldStart.Equal(shift.StartAt) {
		s.afterMutation(ctx, shift.StartAt)
	}
	return &MoveShiftResult{Moved: true, Shift: shift}, nil
}

// RepeatLastWeek copies every published shift from the prior week into the
// given week as new drafts, shifted forward exactly seven days with local
// times unchanged. Draft leftovers from the prior week are ignored: only
// shifts that actually went live are trustworthy enough to replicate.
func (s *ShiftService) RepeatLastWeek(ctx context.Context, weekStart time.Time) (*RepeatWeekResult, error) {
	prevStart := weekStart.AddDate(0, 0, -7)
	prevFrom, prevTo := WeekWindow(prevStart)

	published, err := s.shifts.ListWindow(ctx, prevFrom.UTC(), prevTo.UTC(), models.ShiftStatusPublished)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prior week shifts")
	}
	if len(published) == 0 {
		return &RepeatWeekResult{Created: 0, Message: "no published shifts in the prior week to copy"}, nil
	}

	copies := make([]models.Shift, 0, len(published))
	for _, src := range published {
		day := DayStart(src.StartAt, s.loc).AddDate(0, 0, 7)
		start := CombineDayAndClock(day, src.StartAt, s.loc)
		end := NormalizeShiftEnd(start, CombineDayAndClock(day, src.EndAt, s.loc))
		copies = append(copies, models.Shift{
			EmployeeID: src.EmployeeID,
			StartAt:    start.UTC(),
			EndAt:      end.UTC(),
			Location:   src.Location,
			Role:       src.Role,
			Status:     models.ShiftStatusDraft,
		})
	}

	if err := s.shifts.BulkCreate(ctx, copies); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to copy prior week shifts")
	}
	s.afterMutation(ctx, weekStart)
	return &RepeatWeekResult{
		Created: len(copies),
		Message: fmt.Sprintf("copied %d published shifts from the prior week", len(copies)),
	}, nil
}

func (s *ShiftService) ensureEmployeeExists(ctx context.Context, id string) error {
	if _, err := s.employees.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "unknown employee")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}
	return nil
}

func (s *ShiftService) dayIndex(ctx context.Context, day time.Time) (*DayIndex, error) {
	from := DayStart(day, s.loc)
	to := from.AddDate(0, 0, 1)
	timeOffs, err := s.timeOffs.ListWindow(ctx, from.UTC(), to.UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time offs")
	}
	availability, err := s.availability.ListWindow(ctx, from.UTC(), to.UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}
	return NewDayIndex(timeOffs, availability, s.loc), nil
}

func (s *ShiftService) dayBlocked(ctx context.Context, employeeID string, at time.Time) (bool, error) {
	ix, err := s.dayIndex(ctx, at.In(s.loc))
	if err != nil {
		return false, err
	}
	return ix.HasAllDayTimeOff(employeeID, DayStart(at, s.loc)), nil
}

func (s *ShiftService) afterMutation(ctx context.Context, at time.Time) {
	if s.invalidator != nil {
		s.invalidator.InvalidateWeek(ctx, WeekStart(at, s.loc))
	}
	if s.reconciler != nil {
		s.reconciler.Trigger()
	}
}

func normalizeEmployeeID(id *string) *string {
	if id == nil || *id == "" {
		return nil
	}
	return id
}
