package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calderhq/rota-api/internal/models"
)

func newTimeOffRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTimeOffRepositoryListWindowUsesOverlap(t *testing.T) {
	db, mock, cleanup := newTimeOffRepoMock(t)
	defer cleanup()
	repo := NewTimeOffRepository(db)

	from := time.Date(2026, 3, 2, 5, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	rows := sqlmock.NewRows([]string{"id", "employee_id", "start_at", "end_at", "reason", "created_at"}).
		AddRow("to1", "emp-1", from.Add(-2*time.Hour), from.Add(26*time.Hour), "vacation", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, employee_id, start_at, end_at, reason, created_at FROM time_offs WHERE start_at < $2 AND end_at > $1 ORDER BY start_at ASC")).
		WithArgs(from, to).
		WillReturnRows(rows)

	entries, err := repo.ListWindow(context.Background(), from, to)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "emp-1", entries[0].EmployeeID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeOffRepositoryCreateAndDelete(t *testing.T) {
	db, mock, cleanup := newTimeOffRepoMock(t)
	defer cleanup()
	repo := NewTimeOffRepository(db)

	mock.ExpectExec("INSERT INTO time_offs").
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.TimeOff{
		EmployeeID: "emp-1",
		StartAt:    time.Date(2026, 3, 4, 5, 0, 0, 0, time.UTC),
		EndAt:      time.Date(2026, 3, 5, 5, 0, 0, 0, time.UTC),
		Reason:     "vacation",
	}
	require.NoError(t, repo.Create(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM time_offs WHERE id = $1")).
		WithArgs(entry.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), entry.ID))
	assert.NoError(t, mock.ExpectationsWereMet())
}
