package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calderhq/rota-api/internal/models"
	appErrors "github.com/calderhq/rota-api/pkg/errors"
)

type memoryCacheRepo struct {
	store   map[string][]byte
	gets    int
	sets    int
	deletes []string
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{store: make(map[string][]byte)}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.gets++
	raw, ok := m.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.sets++
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.store[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.deletes = append(m.deletes, pattern)
	for k := range m.store {
		delete(m.store, k)
	}
	return nil
}

func newRosterFixture(t *testing.T, cache *CacheService) (*RosterService, *mockShiftRepo, *mockEmployeeDir, *mockTimeOffReader, *mockAvailabilityReader) {
	t.Helper()
	loc := orgLocation(t)
	shifts := &mockShiftRepo{}
	employees := &mockEmployeeDir{items: map[string]*models.Employee{
		"emp-1": {ID: "emp-1", Name: "Alex", Role: "server", Active: true},
		"emp-2": {ID: "emp-2", Name: "Billie", Role: "cook", Active: true},
	}}
	timeOffs := &mockTimeOffReader{}
	availability := &mockAvailabilityReader{}
	svc := NewRosterService(shifts, employees, timeOffs, availability, cache, loc, "America/New_York", nil)
	return svc, shifts, employees, timeOffs, availability
}

func TestRosterWeekViewGroupsShifts(t *testing.T) {
	svc, shifts, _, _, _ := newRosterFixture(t, nil)
	loc := orgLocation(t)

	shifts.listResult = []models.Shift{
		weekShift(loc, "s1", "emp-1", 3, 9, 17, models.ShiftStatusPublished),
		weekShift(loc, "s2", "emp-1", 5, 9, 13, models.ShiftStatusDraft),
		weekShift(loc, "s3", "", 4, 9, 17, models.ShiftStatusDraft),
	}

	view, err := svc.WeekView(context.Background(), time.Date(2026, 3, 2, 0, 0, 0, 0, loc))
	require.NoError(t, err)

	assert.Equal(t, "2026-03-02", view.WeekStart)
	assert.Equal(t, "2026-03-08", view.WeekEnd)
	assert.Equal(t, "America/New_York", view.Timezone)
	assert.Len(t, view.Employees, 2)

	require.Len(t, view.OpenShifts, 1)
	assert.Equal(t, "s3", view.OpenShifts[0].ID)

	assert.Len(t, view.ShiftsByEmployeeAndDay["emp-1"]["2026-03-03"], 1)
	assert.Len(t, view.ShiftsByEmployeeAndDay["emp-1"]["2026-03-05"], 1)
	assert.InDelta(t, 12.0, view.WeeklyHoursByEmployee["emp-1"], 0.001)
	assert.Equal(t, 2, view.DraftCount)
}

func TestRosterWeekViewIncludesTimeOffAndAvailability(t *testing.T) {
	svc, _, _, timeOffs, availability := newRosterFixture(t, nil)
	loc := orgLocation(t)

	timeOffs.entries = []models.TimeOff{allDayOff(loc, "emp-1", 2026, 3, 4)}
	wd := int(time.Friday)
	availability.entries = []models.Availability{{EmployeeID: "emp-2", Weekday: &wd, StartMinute: 540, EndMinute: 1020}}

	view, err := svc.WeekView(context.Background(), time.Date(2026, 3, 2, 0, 0, 0, 0, loc))
	require.NoError(t, err)

	assert.Len(t, view.TimeOffsByEmployeeAndDay["emp-1"]["2026-03-04"], 1)
	assert.Len(t, view.AvailabilityByEmployeeAndDay["emp-2"]["2026-03-06"], 1)
	assert.Empty(t, view.AvailabilityByEmployeeAndDay["emp-2"]["2026-03-05"])
}

func TestRosterWeekViewPublishedFlag(t *testing.T) {
	svc, shifts, _, timeOffs, _ := newRosterFixture(t, nil)
	loc := orgLocation(t)
	weekStart := time.Date(2026, 3, 2, 0, 0, 0, 0, loc)

	// No shifts at all: not published.
	view, err := svc.WeekView(context.Background(), weekStart)
	require.NoError(t, err)
	assert.False(t, view.IsWeekPublished)

	// Published shifts and clean drafts: published.
	shifts.listResult = []models.Shift{
		weekShift(loc, "s1", "emp-1", 3, 9, 17, models.ShiftStatusPublished),
		weekShift(loc, "s2", "emp-2", 4, 9, 17, models.ShiftStatusDraft),
	}
	view, err = svc.WeekView(context.Background(), weekStart)
	require.NoError(t, err)
	assert.True(t, view.IsWeekPublished)

	// A draft sitting on an all-day time-off flags the week as dirty.
	timeOffs.entries = []models.TimeOff{allDayOff(loc, "emp-2", 2026, 3, 4)}
	view, err = svc.WeekView(context.Background(), weekStart)
	require.NoError(t, err)
	assert.False(t, view.IsWeekPublished)
}

func TestRosterWeekViewUsesCache(t *testing.T) {
	repo := newMemoryCacheRepo()
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	svc, shifts, _, _, _ := newRosterFixture(t, cache)
	loc := orgLocation(t)
	weekStart := time.Date(2026, 3, 2, 0, 0, 0, 0, loc)

	shifts.listResult = []models.Shift{
		weekShift(loc, "s1", "emp-1", 3, 9, 17, models.ShiftStatusPublished),
	}

	first, err := svc.WeekView(context.Background(), weekStart)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.sets)

	// A second read is served from the cache even though the store changed.
	shifts.listResult = nil
	second, err := svc.WeekView(context.Background(), weekStart)
	require.NoError(t, err)
	assert.Equal(t, first.WeekStart, second.WeekStart)
	assert.Len(t, second.ShiftsByEmployeeAndDay["emp-1"]["2026-03-03"], 1)

	// Invalidation forces a rebuild.
	svc.InvalidateWeek(context.Background(), weekStart)
	assert.Equal(t, []string{"roster:week:2026-03-02"}, repo.deletes)
	third, err := svc.WeekView(context.Background(), weekStart)
	require.NoError(t, err)
	assert.Empty(t, third.ShiftsByEmployeeAndDay["emp-1"])
}

func TestExportRenderWeekCSV(t *testing.T) {
	svc, shifts, _, _, _ := newRosterFixture(t, nil)
	loc := orgLocation(t)

	shifts.listResult = []models.Shift{
		weekShift(loc, "s1", "emp-1", 3, 9, 17, models.ShiftStatusPublished),
		weekShift(loc, "s2", "emp-1", 5, 9, 13, models.ShiftStatusDraft),
		weekShift(loc, "s3", "", 4, 9, 17, models.ShiftStatusPublished),
	}

	exporter := NewExportService(svc, loc, nil)
	file, err := exporter.RenderWeek(context.Background(), time.Date(2026, 3, 2, 0, 0, 0, 0, loc), ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, "rota-2026-03-02.csv", file.Filename)

	body := string(file.Content)
	assert.Contains(t, body, "Employee")
	assert.Contains(t, body, "Alex")
	assert.Contains(t, body, "Open shifts")
	assert.Contains(t, body, "09:00-17:00 Front")
	// Drafts never appear on the handout.
	assert.NotContains(t, body, "09:00-13:00")
}

func TestExportRenderWeekPDF(t *testing.T) {
	svc, shifts, _, _, _ := newRosterFixture(t, nil)
	loc := orgLocation(t)
	shifts.listResult = []models.Shift{
		weekShift(loc, "s1", "emp-1", 3, 9, 17, models.ShiftStatusPublished),
	}

	exporter := NewExportService(svc, loc, nil)
	file, err := exporter.RenderWeek(context.Background(), time.Date(2026, 3, 2, 0, 0, 0, 0, loc), ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, len(file.Content) > 0)
}

func TestExportRenderWeekUnknownFormat(t *testing.T) {
	svc, _, _, _, _ := newRosterFixture(t, nil)
	loc := orgLocation(t)

	exporter := NewExportService(svc, loc, nil)
	_, err := exporter.RenderWeek(context.Background(), time.Date(2026, 3, 2, 0, 0, 0, 0, loc), "xlsx")
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
