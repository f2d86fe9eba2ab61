package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/calderhq/rota-api/internal/models"
	appErrors "github.com/calderhq/rota-api/pkg/errors"
	"github.com/calderhq/rota-api/pkg/jobs"
)

type reconcileShiftStore interface {
	ListWindow(ctx context.Context, from, to time.Time, status string) ([]models.Shift, error)
	Unassign(ctx context.Context, id string) error
}

// reconcileHorizonWeeks bounds the scan window: the current week plus the
// weeks a schedule is realistically drafted ahead.
const reconcileHorizonWeeks = 4

type kickPayload struct {
	ShiftID    string
	EmployeeID string
	Day        string
}

// ReconcileService keeps shift assignment consistent with time-off truth
// without explicit user action. A pass moves every draft shift whose
// employee has gained an all-day time-off on that day back to the open
// pool. Published shifts are never touched: publishing is a human decision
// that a human must explicitly undo.
type ReconcileService struct {
	shifts      reconcileShiftStore
	timeOffs    timeOffReader
	invalidator rosterInvalidator
	metrics     *MetricsService
	loc         *time.Location
	interval    time.Duration
	logger      *zap.Logger

	queue   *jobs.Queue
	trigger chan struct{}
	now     func() time.Time
}

// NewReconcileService instantiates ReconcileService. With a zero worker
// count the kicks run inline instead of through the queue.
func NewReconcileService(shifts reconcileShiftStore, timeOffs timeOffReader, invalidator rosterInvalidator, metrics *MetricsService, loc *time.Location, interval time.Duration, queueCfg jobs.QueueConfig, logger *zap.Logger) *ReconcileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	if interval <= 0 {
		interval = time.Minute
	}

	s := &ReconcileService{
		shifts:      shifts,
		timeOffs:    timeOffs,
		invalidator: invalidator,
		metrics:     metrics,
		loc:         loc,
		interval:    interval,
		logger:      logger,
		trigger:     make(chan struct{}, 1),
		now:         time.Now,
	}
	if queueCfg.Workers > 0 {
		if queueCfg.Logger == nil {
			queueCfg.Logger = logger
		}
		s.queue = jobs.NewQueue("reconcile-kicks", s.handleKick, queueCfg)
	}
	return s
}

// Trigger wakes the loop after a shift or time-off mutation. Non-blocking;
// a pending wake-up is enough.
func (s *ReconcileService) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Run drives passes until the context is cancelled: one immediately, then
// on every interval tick and every trigger.
func (s *ReconcileService) Run(ctx context.Context) {
	if s.queue != nil {
		s.queue.Start(ctx)
		defer s.queue.Stop()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runPassLogged(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runPassLogged(ctx)
		case <-s.trigger:
			s.runPassLogged(ctx)
		}
	}
}

func (s *ReconcileService) runPassLogged(ctx context.Context) {
	kicked, err := s.RunPass(ctx)
	if err != nil {
		s.logger.Warn("reconcile pass failed", zap.Error(err))
		return
	}
	if kicked > 0 {
		s.logger.Info("reconcile pass complete", zap.Int("kicked", kicked))
	}
}

// RunPass scans the horizon once and kicks every draft shift sitting on an
// all-day time-off. Each kick is independent: a failure is logged and
// skipped, and the drift self-heals on the next pass. The returned count is
// the number of shifts scheduled for a kick; a queued kick can still fail
// after RunPass returns and is picked up again on the next pass.
func (s *ReconcileService) RunPass(ctx context.Context) (int, error) {
	from := WeekStart(s.now(), s.loc)
	to := from.AddDate(0, 0, 7*reconcileHorizonWeeks)

	drafts, err := s.shifts.ListWindow(ctx, from.UTC(), to.UTC(), models.ShiftStatusDraft)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load draft shifts")
	}

	timeOffs, err := s.timeOffs.ListWindow(ctx, from.UTC(), to.UTC())
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time offs")
	}
	ix := NewDayIndex(timeOffs, nil, s.loc)

	kicked := 0
	for i := range drafts {
		shift := drafts[i]
		if !shift.Assigned() {
			continue
		}
		day := DayStart(shift.StartAt, s.loc)
		if !ix.HasAllDayTimeOff(*shift.EmployeeID, day) {
			continue
		}

		payload := kickPayload{
			ShiftID:    shift.ID,
			EmployeeID: *shift.EmployeeID,
			Day:        DayKey(shift.StartAt, s.loc),
		}
		job := jobs.Job{ID: shift.ID, Type: "kick", Payload: payload}
		enqueued := false
		if s.queue != nil {
			if err := s.queue.Enqueue(job); err == nil {
				enqueued = true
			}
		}
		// Unstarted queue (manual pass with the loop disabled) falls back
		// to running the kick inline.
		if !enqueued {
			if err := s.handleKick(ctx, job); err != nil {
				s.logger.Warn("kick failed", zap.String("shift_id", shift.ID), zap.Error(err))
				continue
			}
		}
		kicked++
	}
	return kicked, nil
}

func (s *ReconcileService) handleKick(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(kickPayload)
	if !ok {
		s.logger.Error("unexpected kick payload", zap.String("job_id", job.ID))
		return nil
	}

	if err := s.shifts.Unassign(ctx, payload.ShiftID); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.RecordReconcileKick()
	}
	if s.invalidator != nil {
		day, err := time.ParseInLocation(dayKeyLayout, payload.Day, s.loc)
		if err == nil {
			s.invalidator.InvalidateWeek(ctx, WeekStart(day, s.loc))
		}
	}
	s.logger.Info("shift moved to open pool",
		zap.String("shift_id", payload.ShiftID),
		zap.String("employee_id", payload.EmployeeID),
		zap.String("day", payload.Day),
	)
	return nil
}
