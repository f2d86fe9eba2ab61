package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/calderhq/rota-api/internal/models"
)

// AvailabilityRepository provides persistence for availability windows.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository creates a new availability repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// ListWindow returns availability relevant to [from, to): every recurring
// weekday entry plus date-specific entries falling inside the window.
func (r *AvailabilityRepository) ListWindow(ctx context.Context, from, to time.Time) ([]models.Availability, error) {
	const query = `SELECT id, employee_id, weekday, date, start_minute, end_minute, created_at FROM availability WHERE weekday IS NOT NULL OR (date >= $1 AND date < $2) ORDER BY employee_id ASC, start_minute ASC`
	var entries []models.Availability
	if err := r.db.SelectContext(ctx, &entries, query, from, to); err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	return entries, nil
}

// FindByID loads an availability window by id.
func (r *AvailabilityRepository) FindByID(ctx context.Context, id string) (*models.Availability, error) {
	const query = `SELECT id, employee_id, weekday, date, start_minute, end_minute, created_at FROM availability WHERE id = $1`
	var entry models.Availability
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Create stores a new availability window.
func (r *AvailabilityRepository) Create(ctx context.Context, entry *models.Availability) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO availability (id, employee_id, weekday, date, start_minute, end_minute, created_at) VALUES (:id, :employee_id, :weekday, :date, :start_minute, :end_minute, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create availability: %w", err)
	}
	return nil
}

// Delete removes an availability window by id.
func (r *AvailabilityRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM availability WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete availability: %w", err)
	}
	return nil
}
