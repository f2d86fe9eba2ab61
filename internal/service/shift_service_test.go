package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calderhq/rota-api/internal/models"
	appErrors "github.com/calderhq/rota-api/pkg/errors"
)

type mockShiftRepo struct {
	mu         sync.Mutex
	items      map[string]*models.Shift
	listResult []models.Shift
	listStatus string
	listErr    error
	created    []models.Shift
	bulk       [][]models.Shift
	updated    []models.Shift
	unassigned []string
	published  int64
	pubCalls   int
	deleted    []string
	delDrafts  int64
}

func (m *mockShiftRepo) ListWindow(ctx context.Context, from, to time.Time, status string) ([]models.Shift, error) {
	m.listStatus = status
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.Shift
	for _, s := range m.listResult {
		if !s.StartAt.Before(from) && s.StartAt.Before(to) && (status == "" || s.Status == status) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockShiftRepo) FindByID(ctx context.Context, id string) (*models.Shift, error) {
	if s, ok := m.items[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockShiftRepo) Create(ctx context.Context, shift *models.Shift) error {
	if shift.ID == "" {
		shift.ID = "generated"
	}
	m.created = append(m.created, *shift)
	return nil
}

func (m *mockShiftRepo) BulkCreate(ctx context.Context, shifts []models.Shift) error {
	m.bulk = append(m.bulk, shifts)
	return nil
}

func (m *mockShiftRepo) Update(ctx context.Context, shift *models.Shift) error {
	m.updated = append(m.updated, *shift)
	if m.items == nil {
		m.items = make(map[string]*models.Shift)
	}
	cp := *shift
	m.items[shift.ID] = &cp
	return nil
}

func (m *mockShiftRepo) Unassign(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unassigned = append(m.unassigned, id)
	return nil
}

func (m *mockShiftRepo) unassignedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.unassigned...)
}

func (m *mockShiftRepo) PublishWindow(ctx context.Context, from, to time.Time) (int64, error) {
	m.pubCalls++
	return m.published, nil
}

func (m *mockShiftRepo) DeleteDraftsWindow(ctx context.Context, from, to time.Time) (int64, error) {
	return m.delDrafts, nil
}

func (m *mockShiftRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type mockEmployeeDir struct {
	items   map[string]*models.Employee
	listErr error
}

func (m *mockEmployeeDir) FindByID(ctx context.Context, id string) (*models.Employee, error) {
	if e, ok := m.items[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEmployeeDir) List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]models.Employee, 0, len(m.items))
	for _, e := range m.items {
		out = append(out, *e)
	}
	return out, nil
}

type mockTimeOffReader struct {
	entries []models.TimeOff
	err     error
}

func (m *mockTimeOffReader) ListWindow(ctx context.Context, from, to time.Time) ([]models.TimeOff, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.entries, nil
}

type mockAvailabilityReader struct {
	entries []models.Availability
}

func (m *mockAvailabilityReader) ListWindow(ctx context.Context, from, to time.Time) ([]models.Availability, error) {
	return m.entries, nil
}

type mockInvalidator struct {
	weeks []time.Time
}

func (m *mockInvalidator) InvalidateWeek(ctx context.Context, weekStart time.Time) {
	m.weeks = append(m.weeks, weekStart)
}

type mockNotifier struct {
	triggers int
}

func (m *mockNotifier) Trigger() { m.triggers++ }

func strptr(s string) *string { return &s }

func newShiftServiceFixture(t *testing.T) (*ShiftService, *mockShiftRepo, *mockEmployeeDir, *mockTimeOffReader, *mockAvailabilityReader, *mockInvalidator, *mockNotifier) {
	t.Helper()
	loc := orgLocation(t)
	shifts := &mockShiftRepo{items: map[string]*models.Shift{}}
	employees := &mockEmployeeDir{items: map[string]*models.Employee{
		"emp-1": {ID: "emp-1", Name: "Alex", Role: "server", Active: true},
		"emp-2": {ID: "emp-2", Name: "Billie", Role: "cook", Active: true},
	}}
	timeOffs := &mockTimeOffReader{}
	availability := &mockAvailabilityReader{}
	invalidator := &mockInvalidator{}
	notifier := &mockNotifier{}
	svc := NewShiftService(shifts, employees, timeOffs, availability, invalidator, notifier, loc, nil, nil)
	return svc, shifts, employees, timeOffs, availability, invalidator, notifier
}

func TestShiftServiceCreateDraft(t *testing.T) {
	svc, shifts, _, _, _, invalidator, notifier := newShiftServiceFixture(t)
	loc := orgLocation(t)

	created, err := svc.Create(context.Background(), CreateShiftRequest{
		EmployeeID: strptr("emp-1"),
		StartAt:    time.Date(2026, 3, 3, 14, 0, 0, 0, loc),
		EndAt:      time.Date(2026, 3, 3, 22, 0, 0, 0, loc),
		Location:   "Front",
		Role:       "server",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ShiftStatusDraft, created.Status)
	require.Len(t, shifts.created, 1)
	assert.Len(t, invalidator.weeks, 1)
	assert.Equal(t, 1, notifier.triggers)
}

func TestShiftServiceCreateRejectsBlockedDay(t *testing.T) {
	svc, shifts, _, timeOffs, _, _, _ := newShiftServiceFixture(t)
	loc := orgLocation(t)
	timeOffs.entries = []models.TimeOff{allDayOff(loc, "emp-1", 2026, 3, 3)}

	_, err := svc.Create(context.Background(), CreateShiftRequest{
		EmployeeID: strptr("emp-1"),
		StartAt:    time.Date(2026, 3, 3, 14, 0, 0, 0, loc),
		EndAt:      time.Date(2026, 3, 3, 22, 0, 0, 0, loc),
		Location:   "Front",
	})
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrDayBlocked.Code, appErr.Code)
	assert.Empty(t, shifts.created)
}

func TestShiftServiceCreateOpenShiftSkipsEmployeeChecks(t *testing.T) {
	svc, shifts, _, timeOffs, _, _, _ := newShiftServiceFixture(t)
	loc := orgLocation(t)
	timeOffs.entries = []models.TimeOff{allDayOff(loc, "emp-1", 2026, 3, 3)}

	created, err := svc.Create(context.Background(), CreateShiftRequest{
		StartAt:  time.Date(2026, 3, 3, 14, 0, 0, 0, loc),
		EndAt:    time.Date(2026, 3, 3, 22, 0, 0, 0, loc),
		Location: "Front",
	})
	require.NoError(t, err)
	assert.Nil(t, created.EmployeeID)
	assert.Len(t, shifts.created, 1)
}

func TestShiftServiceCreateWrapsOvernightEnd(t *testing.T) {
	svc, _, _, _, _, _, _ := newShiftServiceFixture(t)
	loc := orgLocation(t)

	created, err := svc.Create(context.Background(), CreateShiftRequest{
		EmployeeID: strptr("emp-1"),
		StartAt:    time.Date(2026, 3, 3, 22, 0, 0, 0, loc),
		EndAt:      time.Date(2026, 3, 3, 6, 0, 0, 0, loc),
		Location:   "Front",
	})
	require.NoError(t, err)
	assert.Equal(t, 8*time.Hour, created.EndAt.Sub(created.StartAt))
}

func TestShiftServiceUpdateDemotesPublishedToDraft(t *testing.T) {
	svc, shifts, _, _, _, _, _ := newShiftServiceFixture(t)
	loc := orgLocation(t)

	start := time.Date(2026, 3, 3, 14, 0, 0, 0, loc).UTC()
	shifts.items["s1"] = &models.Shift{
		ID: "s1", EmployeeID: strptr("emp-1"),
		StartAt: start, EndAt: start.Add(8 * time.Hour),
		Location: "Front", Status: models.ShiftStatusPublished,
	}

	updated, err := svc.Update(context.Background(), "s1", UpdateShiftRequest{
		EmployeeID: strptr("emp-1"),
		StartAt:    start,
		EndAt:      start.Add(9 * time.Hour),
		Location:   "Front",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ShiftStatusDraft, updated.Status)
	require.Len(t, shifts.updated, 1)
	assert.Equal(t, models.ShiftStatusDraft, shifts.updated[0].Status)
}

func TestShiftServiceUpdateUnknownShift(t *testing.T) {
	svc, _, _, _, _, _, _ := newShiftServiceFixture(t)
	loc := orgLocation(t)

	_, err := svc.Update(context.Background(), "missing", UpdateShiftRequest{
		StartAt:  time.Date(2026, 3, 3, 14, 0, 0, 0, loc),
		EndAt:    time.Date(2026, 3, 3, 22, 0, 0, 0, loc),
		Location: "Front",
	})
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestShiftServiceDuplicateCreatesDraftClone(t *testing.T) {
	svc, shifts, _, _, _, _, _ := newShiftServiceFixture(t)
	loc := orgLocation(t)

	start := time.Date(2026, 3, 3, 14, 0, 0, 0, loc).UTC()
	shifts.items["s1"] = &models.Shift{
		ID: "s1", EmployeeID: strptr("emp-1"),
		StartAt: start, EndAt: start.Add(8 * time.Hour),
		Location: "Front", Role: "server", Status: models.ShiftStatusPublished,
	}

	clone, err := svc.Duplicate(context.Background(), "s1")
	require.NoError(t, err)
	assert.NotEqual(t, "s1", clone.ID)
	assert.Equal(t, models.ShiftStatusDraft, clone.Status)
	assert.True(t, clone.StartAt.Equal(start))
	assert.Equal(t, "Front", clone.Location)
}

func TestShiftServiceMoveBlockedDayIsSilentNoOp(t *testing.T) {
	svc, shifts, _, timeOffs, _, _, _ := newShiftServiceFixture(t)
	loc := orgLocation(t)
	timeOffs.entries = []models.TimeOff{allDayOff(loc, "emp-2", 2026, 3, 5)}

	start := time.Date(2026, 3, 3, 14, 0, 0, 0, loc).UTC()
	shifts.items["s1"] = &models.Shift{
		ID: "s1", EmployeeID: strptr("emp-1"),
		StartAt: start, EndAt: start.Add(8 * time.Hour),
		Location: "Front", Status: models.ShiftStatusDraft,
	}

	res, err := svc.Move(context.Background(), "s1", MoveShiftRequest{
		TargetEmployeeID: strptr("emp-2"),
		TargetDate:       "2026-03-05",
	})
	require.NoError(t, err)
	assert.False(t, res.Moved)
	assert.Equal(t, MoveReasonBlocked, res.Reason)
	assert.Empty(t, shifts.updated)
}

func TestShiftServiceMoveUnavailableDayIsNoOp(t *testing.T) {
	svc, shifts, _, _, availability, _, _ := newShiftServiceFixture(t)
	loc := orgLocation(t)
	// Billie is only available on Wednesdays.
	wd := int(time.Wednesday)
	availability.entries = []models.Availability{{EmployeeID: "emp-2", Weekday: &wd, StartMinute: 540, EndMinute: 1020}}

	start := time.Date(2026, 3, 3, 14, 0, 0, 0, loc).UTC()
	shifts.items["s1"] = &models.Shift{
		ID: "s1", EmployeeID: strptr("emp-1"),
		StartAt: start, EndAt: start.Add(8 * time.Hour),
		Location: "Front", Status: models.ShiftStatusDraft,
	}

	res, err := svc.Move(context.Background(), "s1", MoveShiftRequest{
		TargetEmployeeID: strptr("emp-2"),
		TargetDate:       "2026-03-05", // a Thursday
	})
	require.NoError(t, err)
	assert.False(t, res.Moved)
	assert.Equal(t, MoveReasonUnavailable, res.Reason)
	assert.Empty(t, shifts.updated)
}

func TestShiftServiceMovePartialTimeOffWaivesAvailability(t *testing.T) {
	svc, shifts, _, timeOffs, _, _, _ := newShiftServiceFixture(t)
	loc := orgLocation(t)
	// No availability declared, but a partial absence touches the target day.
	timeOffs.entries = []models.TimeOff{{
		EmployeeID: "emp-2",
		StartAt:    time.Date(2026, 3, 5, 9, 0, 0, 0, loc),
		EndAt:      time.Date(2026, 3, 5, 12, 0, 0, 0, loc),
	}}

	start := time.Date(2026, 3, 3, 14, 0, 0, 0, loc).UTC()
	shifts.items["s1"] = &models.Shift{
		ID: "s1", EmployeeID: strptr("emp-1"),
		StartAt: start, EndAt: start.Add(8 * time.Hour),
		Location: "Front", Status: models.ShiftStatusDraft,
	}

	res, err := svc.Move(context.Background(), "s1", MoveShiftRequest{
		TargetEmployeeID: strptr("emp-2"),
		TargetDate:       "2026-03-05",
	})
	require.NoError(t, err)
	assert.True(t, res.Moved)
	require.Len(t, shifts.updated, 1)
	assert.Equal(t, "emp-2", *shifts.updated[0].EmployeeID)
}

func TestShiftServiceMovePreservesLocalClockTimes(t *testing.T) {
	svc, shifts, _, _, availability, _, _ := newShiftServiceFixture(t)
	loc := orgLocation(t)
	wd := int(time.Thursday)
	availability.entries = []models.Availability{{EmployeeID: "emp-2", Weekday: &wd, StartMinute: 540, EndMinute: 1020}}

	start := time.Date(2026, 3, 3, 14, 0, 0, 0, loc)
	shifts.items["s1"] = &models.Shift{
		ID: "s1", EmployeeID: strptr("emp-1"),
		StartAt: start.UTC(), EndAt: start.Add(8 * time.Hour).UTC(),
		Location: "Front", Status: models.ShiftStatusPublished,
	}

	res, err := svc.Move(context.Background(), "s1", MoveShiftRequest{
		TargetEmployeeID: strptr("emp-2"),
		TargetDate:       "2026-03-05",
	})
	require.NoError(t, err)
	require.True(t, res.Moved)

	moved := res.Shift
	assert.Equal(t, 14, moved.StartAt.In(loc).Hour())
	assert.Equal(t, 5, moved.StartAt.In(loc).Day())
	assert.Equal(t, 22, moved.EndAt.In(loc).Hour())
	// A move is an edit: the published shift is a draft again.
	assert.Equal(t, models.ShiftStatusDraft, moved.Status)
}

func TestShiftServiceMoveToOpenPoolSkipsEligibility(t *testing.T) {
	svc, shifts, _, timeOffs, _, _, _ := newShiftServiceFixture(t)
	loc := orgLocation(t)
	timeOffs.entries = []models.TimeOff{allDayOff(loc, "emp-1", 2026, 3, 5)}

	start := time.Date(2026, 3, 3, 14, 0, 0, 0, loc).UTC()
	shifts.items["s1"] = &models.Shift{
		ID: "s1", EmployeeID: strptr("emp-1"),
		StartAt: start, EndAt: start.Add(8 * time.Hour),
		Location: "Front", Status: models.ShiftStatusDraft,
	}

	res, err := svc.Move(context.Background(), "s1", MoveShiftRequest{TargetDate: "2026-03-05"})
	require.NoError(t, err)
	assert.True(t, res.Moved)
	assert.Nil(t, res.Shift.EmployeeID)
}

func TestShiftServiceRepeatLastWeekCopiesPublishedOnly(t *testing.T) {
	svc, shifts, _, _, _, _, _ := newShiftServiceFixture(t)
	loc := orgLocation(t)

	prevMon := time.Date(2026, 2, 23, 0, 0, 0, 0, loc)
	mkShift := func(id string, day int, hour int, status string) models.Shift {
		start := time.Date(2026, 2, day, hour, 0, 0, 0, loc).UTC()
		return models.Shift{
			ID: id, EmployeeID: strptr("emp-1"),
			StartAt: start, EndAt: start.Add(8 * time.Hour),
			Location: "Front", Role: "server", Status: status,
		}
	}
	shifts.listResult = []models.Shift{
		mkShift("p1", 24, 9, models.ShiftStatusPublished),
		mkShift("p2", 26, 14, models.ShiftStatusPublished),
		mkShift("d1", 25, 9, models.ShiftStatusDraft),
	}

	res, err := svc.RepeatLastWeek(context.Background(), prevMon.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	require.Len(t, shifts.bulk, 1)
	copies := shifts.bulk[0]
	require.Len(t, copies, 2)
	for _, c := range copies {
		assert.Equal(t, models.ShiftStatusDraft, c.Status)
	}
	// Tue Feb 24 09:00 becomes Tue Mar 3 09:00 local.
	assert.Equal(t, 3, copies[0].StartAt.In(loc).Day())
	assert.Equal(t, 9, copies[0].StartAt.In(loc).Hour())
}

func TestShiftServiceRepeatLastWeekEmptyPriorWeek(t *testing.T) {
	svc, shifts, _, _, _, _, _ := newShiftServiceFixture(t)
	loc := orgLocation(t)

	res, err := svc.RepeatLastWeek(context.Background(), time.Date(2026, 3, 2, 0, 0, 0, 0, loc))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, "no published shifts in the prior week to copy", res.Message)
	assert.Empty(t, shifts.bulk)
}

func TestShiftServiceDelete(t *testing.T) {
	svc, shifts, _, _, _, invalidator, _ := newShiftServiceFixture(t)
	loc := orgLocation(t)

	start := time.Date(2026, 3, 3, 14, 0, 0, 0, loc).UTC()
	shifts.items["s1"] = &models.Shift{ID: "s1", StartAt: start, EndAt: start.Add(time.Hour), Location: "Front", Status: models.ShiftStatusDraft}

	require.NoError(t, svc.Delete(context.Background(), "s1"))
	assert.Equal(t, []string{"s1"}, shifts.deleted)
	assert.Len(t, invalidator.weeks, 1)
}
