package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/calderhq/rota-api/internal/models"
)

// TimeOffRepository provides persistence for approved absence windows.
type TimeOffRepository struct {
	db *sqlx.DB
}

// NewTimeOffRepository creates a new time-off repository.
func NewTimeOffRepository(db *sqlx.DB) *TimeOffRepository {
	return &TimeOffRepository{db: db}
}

// ListWindow returns time-off entries overlapping [from, to).
func (r *TimeOffRepository) ListWindow(ctx context.Context, from, to time.Time) ([]models.TimeOff, error) {
	const query = `SELECT id, employee_id, start_at, end_at, reason, created_at FROM time_offs WHERE start_at < $2 AND end_at > $1 ORDER BY start_at ASC`
	var entries []models.TimeOff
	if err := r.db.SelectContext(ctx, &entries, query, from, to); err != nil {
		return nil, fmt.Errorf("list time offs: %w", err)
	}
	return entries, nil
}

// FindByID loads a time-off entry by id.
func (r *TimeOffRepository) FindByID(ctx context.Context, id string) (*models.TimeOff, error) {
	const query = `SELECT id, employee_id, start_at, end_at, reason, created_at FROM time_offs WHERE id = $1`
	var entry models.TimeOff
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Create stores a new time-off entry.
func (r *TimeOffRepository) Create(ctx context.Context, entry *models.TimeOff) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO time_offs (id, employee_id, start_at, end_at, reason, created_at) VALUES (:id, :employee_id, :start_at, :end_at, :reason, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create time off: %w", err)
	}
	return nil
}

// Delete removes a time-off entry by id.
func (r *TimeOffRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM time_offs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete time off: %w", err)
	}
	return nil
}
