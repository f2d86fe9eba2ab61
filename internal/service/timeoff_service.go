package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/calderhq/rota-api/internal/models"
	appErrors "github.com/calderhq/rota-api/pkg/errors"
)

type timeOffRepository interface {
	ListWindow(ctx context.Context, from, to time.Time) ([]models.TimeOff, error)
	FindByID(ctx context.Context, id string) (*models.TimeOff, error)
	Create(ctx context.Context, entry *models.TimeOff) error
	Delete(ctx context.Context, id string) error
}

// CreateTimeOffRequest records an approved absence window.
type CreateTimeOffRequest struct {
	EmployeeID string    `json:"employee_id" validate:"required"`
	StartAt    time.Time `json:"start_at" validate:"required"`
	EndAt      time.Time `json:"end_at" validate:"required"`
	Reason     string    `json:"reason"`
}

// TimeOffService manages absence windows. Every write wakes the reconciler,
// since a new all-day absence may invalidate existing draft shifts.
type TimeOffService struct {
	repo        timeOffRepository
	employees   employeeReader
	invalidator rosterInvalidator
	reconciler  reconcileNotifier
	loc         *time.Location
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewTimeOffService instantiates TimeOffService.
func NewTimeOffService(repo timeOffRepository, employees employeeReader, invalidator rosterInvalidator, reconciler reconcileNotifier, loc *time.Location, validate *validator.Validate, logger *zap.Logger) *TimeOffService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &TimeOffService{
		repo:        repo,
		employees:   employees,
		invalidator: invalidator,
		reconciler:  reconciler,
		loc:         loc,
		validator:   validate,
		logger:      logger,
	}
}

// ListWindow returns absences overlapping [from, to).
func (s *TimeOffService) ListWindow(ctx context.Context, from, to time.Time) ([]models.TimeOff, error) {
	entries, err := s.repo.ListWindow(ctx, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list time offs")
	}
	return entries, nil
}

// Create records a new absence and wakes the reconciler.
func (s *TimeOffService) Create(ctx context.Context, req CreateTimeOffRequest) (*models.TimeOff, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time off payload")
	}
	if !req.EndAt.After(req.StartAt) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "time off end must be after start")
	}
	if _, err := s.employees.FindByID(ctx, req.EmployeeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown employee")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}

	entry := models.TimeOff{
		EmployeeID: req.EmployeeID,
		StartAt:    req.StartAt.UTC(),
		EndAt:      req.EndAt.UTC(),
		Reason:     req.Reason,
	}
	if err := s.repo.Create(ctx, &entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create time off")
	}
	s.afterMutation(ctx, entry.StartAt, entry.EndAt)
	return &entry, nil
}

// Delete removes an absence window.
func (s *TimeOffService) Delete(ctx context.Context, id string) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "time off not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time off")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete time off")
	}
	s.afterMutation(ctx, existing.StartAt, existing.EndAt)
	return nil
}

func (s *TimeOffService) afterMutation(ctx context.Context, from, to time.Time) {
	if s.invalidator != nil {
		// An absence may span several weeks; drop each affected view.
		for week := WeekStart(from, s.loc); week.Before(to); week = week.AddDate(0, 0, 7) {
			s.invalidator.InvalidateWeek(ctx, week)
		}
	}
	if s.reconciler != nil {
		s.reconciler.Trigger()
	}
}
