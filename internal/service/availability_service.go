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

type availabilityRepository interface {
	ListWindow(ctx context.Context, from, to time.Time) ([]models.Availability, error)
	FindByID(ctx context.Context, id string) (*models.Availability, error)
	Create(ctx context.Context, entry *models.Availability) error
	Delete(ctx context.Context, id string) error
}

// CreateAvailabilityRequest declares a scheduling window, either recurring
// (weekday) or for a single date.
type CreateAvailabilityRequest struct {
	EmployeeID  string     `json:"employee_id" validate:"required"`
	Weekday     *int       `json:"weekday"`
	Date        *time.Time `json:"date"`
	StartMinute int        `json:"start_minute" validate:"min=0,max=1439"`
	EndMinute   int        `json:"end_minute" validate:"min=1,max=1440"`
}

// AvailabilityService manages declared availability windows.
type AvailabilityService struct {
	repo        availabilityRepository
	employees   employeeReader
	invalidator rosterInvalidator
	loc         *time.Location
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAvailabilityService instantiates AvailabilityService.
func NewAvailabilityService(repo availabilityRepository, employees employeeReader, invalidator rosterInvalidator, loc *time.Location, validate *validator.Validate, logger *zap.Logger) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &AvailabilityService{
		repo:        repo,
		employees:   employees,
		invalidator: invalidator,
		loc:         loc,
		validator:   validate,
		logger:      logger,
	}
}

// ListWindow returns availability windows relevant to [from, to).
func (s *AvailabilityService) ListWindow(ctx context.Context, from, to time.Time) ([]models.Availability, error) {
	entries, err := s.repo.ListWindow(ctx, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list availability")
	}
	return entries, nil
}

// Create stores a new availability window.
func (s *AvailabilityService) Create(ctx context.Context, req CreateAvailabilityRequest) (*models.Availability, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	if (req.Weekday == nil) == (req.Date == nil) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "exactly one of weekday or date is required")
	}
	if req.Weekday != nil && (*req.Weekday < 0 || *req.Weekday > 6) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "weekday must be 0 (Sunday) through 6 (Saturday)")
	}
	if req.EndMinute <= req.StartMinute {
		return nil, appErrors.Clone(appErrors.ErrValidation, "availability end must be after start")
	}
	if _, err := s.employees.FindByID(ctx, req.EmployeeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown employee")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}

	entry := models.Availability{
		EmployeeID:  req.EmployeeID,
		Weekday:     req.Weekday,
		Date:        req.Date,
		StartMinute: req.StartMinute,
		EndMinute:   req.EndMinute,
	}
	if err := s.repo.Create(ctx, &entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create availability")
	}
	s.invalidateFor(ctx, &entry)
	return &entry, nil
}

// Delete removes an availability window and drops the affected week view.
func (s *AvailabilityService) Delete(ctx context.Context, id string) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "availability not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete availability")
	}
	s.invalidateFor(ctx, existing)
	return nil
}

func (s *AvailabilityService) invalidateFor(ctx context.Context, entry *models.Availability) {
	if s.invalidator == nil {
		return
	}
	if entry.Date != nil {
		s.invalidator.InvalidateWeek(ctx, WeekStart(*entry.Date, s.loc))
		return
	}
	// Recurring windows touch every week; the current one matters most.
	s.invalidator.InvalidateWeek(ctx, WeekStart(time.Now(), s.loc))
}
