package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/calderhq/rota-api/internal/models"
)

const shiftColumns = "id, employee_id, start_at, end_at, location, role, status, created_at, updated_at"

// ShiftRepository provides persistence for shifts. It owns no business
// rules; state-machine and conflict decisions live in the service layer.
type ShiftRepository struct {
	db *sqlx.DB
}

// NewShiftRepository creates a new shift repository.
func NewShiftRepository(db *sqlx.DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

// ListWindow returns shifts whose start falls inside [from, to), optionally
// restricted to a status.
func (r *ShiftRepository) ListWindow(ctx context.Context, from, to time.Time, status string) ([]models.Shift, error) {
	query := fmt.Sprintf("SELECT %s FROM shifts WHERE start_at >= $1 AND start_at < $2", shiftColumns)
	args := []interface{}{from, to}
	if status != "" {
		query += " AND status = $3"
		args = append(args, status)
	}
	query += " ORDER BY start_at ASC"

	var shifts []models.Shift
	if err := r.db.SelectContext(ctx, &shifts, query, args...); err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	return shifts, nil
}

// List returns shifts matching the filter.
func (r *ShiftRepository) List(ctx context.Context, filter models.ShiftFilter) ([]models.Shift, error) {
	base := fmt.Sprintf("SELECT %s FROM shifts WHERE 1=1", shiftColumns)
	var conditions []string
	var args []interface{}

	if filter.EmployeeID != "" {
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", len(args)+1))
		args = append(args, filter.EmployeeID)
	}
	if filter.Location != "" {
		conditions = append(conditions, fmt.Sprintf("location = $%d", len(args)+1))
		args = append(args, filter.Location)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, fmt.Sprintf("start_at >= $%d", len(args)+1))
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, fmt.Sprintf("start_at < $%d", len(args)+1))
		args = append(args, filter.To)
	}

	query := base
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_at ASC"

	var shifts []models.Shift
	if err := r.db.SelectContext(ctx, &shifts, query, args...); err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	return shifts, nil
}

// FindByID loads a shift by id.
func (r *ShiftRepository) FindByID(ctx context.Context, id string) (*models.Shift, error) {
	query := fmt.Sprintf("SELECT %s FROM shifts WHERE id = $1", shiftColumns)
	var shift models.Shift
	if err := r.db.GetContext(ctx, &shift, query, id); err != nil {
		return nil, err
	}
	return &shift, nil
}

// Create stores a new shift record.
func (r *ShiftRepository) Create(ctx context.Context, shift *models.Shift) error {
	if shift.ID == "" {
		shift.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if shift.CreatedAt.IsZero() {
		shift.CreatedAt = now
	}
	shift.UpdatedAt = now

	const query = `INSERT INTO shifts (id, employee_id, start_at, end_at, location, role, status, created_at, updated_at) VALUES (:id, :employee_id, :start_at, :end_at, :location, :role, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, shift); err != nil {
		return fmt.Errorf("create shift: %w", err)
	}
	return nil
}

// BulkCreate inserts many shifts within a transaction. Used by the
// repeat-last-week copy so a partial copy is never left behind.
func (r *ShiftRepository) BulkCreate(ctx context.Context, shifts []models.Shift) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk create shifts: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	for i := range shifts {
		payload := shifts[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		payload.UpdatedAt = now

		if _, err = sqlx.NamedExecContext(ctx, tx, `INSERT INTO shifts (id, employee_id, start_at, end_at, location, role, status, created_at, updated_at) VALUES (:id, :employee_id, :start_at, :end_at, :location, :role, :status, :created_at, :updated_at)`, &payload); err != nil {
			return fmt.Errorf("bulk insert shift: %w", err)
		}
		shifts[i] = payload
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk create shifts: %w", err)
	}
	return nil
}

// Update modifies a shift record.
func (r *ShiftRepository) Update(ctx context.Context, shift *models.Shift) error {
	shift.UpdatedAt = time.Now().UTC()
	const query = `UPDATE shifts SET employee_id = :employee_id, start_at = :start_at, end_at = :end_at, location = :location, role = :role, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, shift); err != nil {
		return fmt.Errorf("update shift: %w", err)
	}
	return nil
}

// Unassign moves a shift to the open pool, keeping its draft status.
func (r *ShiftRepository) Unassign(ctx context.Context, id string) error {
	const query = `UPDATE shifts SET employee_id = NULL, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("unassign shift: %w", err)
	}
	return nil
}

// PublishWindow promotes every draft shift starting inside [from, to) to
// published in a single statement, so a week publish is atomic at the store.
func (r *ShiftRepository) PublishWindow(ctx context.Context, from, to time.Time) (int64, error) {
	const query = `UPDATE shifts SET status = $1, updated_at = $2 WHERE status = $3 AND start_at >= $4 AND start_at < $5`
	res, err := r.db.ExecContext(ctx, query, models.ShiftStatusPublished, time.Now().UTC(), models.ShiftStatusDraft, from, to)
	if err != nil {
		return 0, fmt.Errorf("publish shifts: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("publish shifts rows affected: %w", err)
	}
	return count, nil
}

// DeleteDraftsWindow removes every draft shift starting inside [from, to).
func (r *ShiftRepository) DeleteDraftsWindow(ctx context.Context, from, to time.Time) (int64, error) {
	const query = `DELETE FROM shifts WHERE status = $1 AND start_at >= $2 AND start_at < $3`
	res, err := r.db.ExecContext(ctx, query, models.ShiftStatusDraft, from, to)
	if err != nil {
		return 0, fmt.Errorf("delete draft shifts: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete draft shifts rows affected: %w", err)
	}
	return count, nil
}

// Delete removes a shift by id.
func (r *ShiftRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM shifts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete shift: %w", err)
	}
	return nil
}
