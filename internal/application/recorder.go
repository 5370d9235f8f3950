package application

import (
	"context"
	"fmt"
	"time"

	"lof-premium-service/internal/domain"

	"go.uber.org/zap"
)

// StateFunc observes the recorder moving through fetching and writing.
type StateFunc func(domain.RunState)

// DailyRecorder persists the full unfiltered snapshot for one calendar day.
type DailyRecorder struct {
	source SnapshotSource
	store  HistoryStore
	uow    UnitOfWork
	lock   RunLock
	clock  Clock
	idgen  IDGen
	log    *zap.Logger
}

type RecorderOption func(*DailyRecorder)

func WithRecorderClock(c Clock) RecorderOption        { return func(r *DailyRecorder) { r.clock = c } }
func WithRecorderIDGen(g IDGen) RecorderOption        { return func(r *DailyRecorder) { r.idgen = g } }
func WithRecorderLogger(l *zap.Logger) RecorderOption { return func(r *DailyRecorder) { r.log = l } }
func WithUnitOfWork(u UnitOfWork) RecorderOption      { return func(r *DailyRecorder) { r.uow = u } }
func WithRunLock(l RunLock) RecorderOption            { return func(r *DailyRecorder) { r.lock = l } }

func NewDailyRecorder(source SnapshotSource, store HistoryStore, opts ...RecorderOption) *DailyRecorder {
	r := &DailyRecorder{source: source, store: store}
	for _, opt := range opts {
		opt(r)
	}
	if r.uow == nil {
		r.uow = NoopUoW{}
	}
	if r.lock == nil {
		r.lock = NoopRunLock{}
	}
	if r.clock == nil {
		r.clock = realClock{}
	}
	if r.idgen == nil {
		r.idgen = defaultIDGen{}
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	return r
}

// NeedsRecordingToday proxies the durable guard of the store.
func (r *DailyRecorder) NeedsRecordingToday(ctx context.Context, today time.Time) (bool, error) {
	return r.store.NeedsRecordingToday(ctx, today)
}

// RecordIfNeeded runs Record only when the store has nothing for today yet. It is the
// entry point for manual and catch-up runs.
func (r *DailyRecorder) RecordIfNeeded(ctx context.Context, today time.Time, onState StateFunc) (domain.DailyRun, error) {
	needs, err := r.store.NeedsRecordingToday(ctx, today)
	if err != nil {
		return domain.DailyRun{}, fmt.Errorf("check recording guard: %w", err)
	}
	if !needs {
		r.log.Info("daily_record.already_recorded", zap.String("date", domain.DateOf(today).Format(domain.DateLayout)))
		return domain.DailyRun{RecordDate: domain.DateOf(today), Skipped: true}, nil
	}
	return r.Record(ctx, today, onState)
}

// Record fetches every endpoint and upserts the result under today's date.
func (r *DailyRecorder) Record(ctx context.Context, today time.Time, onState StateFunc) (domain.DailyRun, error) {
	if onState == nil {
		onState = func(domain.RunState) {}
	}
	run := domain.DailyRun{
		ID:         r.idgen.NewID(),
		RecordDate: domain.DateOf(today),
		StartedAt:  r.clock.Now(),
	}
	date := run.RecordDate.Format(domain.DateLayout)
	log := r.log.With(zap.String("run_id", run.ID), zap.String("date", date))

	key := "daily_record:" + date
	ok, err := r.lock.TryAcquire(ctx, key)
	if err != nil {
		return run, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		log.Warn("daily_record.locked")
		return run, ErrRunInProgress
	}
	defer func() {
		if err := r.lock.Release(context.WithoutCancel(ctx), key); err != nil {
			log.Warn("daily_record.release_failed", zap.Error(err))
		}
	}()

	log.Info("daily_record.start")
	onState(domain.RunStateFetching)
	records := r.source.GetAll(ctx)
	run.Fetched = len(records)
	if len(records) == 0 {
		log.Warn("daily_record.empty_snapshot")
	}

	onState(domain.RunStateWriting)
	err = r.uow.Do(ctx, func(ctx context.Context) error {
		n, err := r.store.UpsertDaily(ctx, records, today)
		run.Written = n
		return err
	})
	run.FinishedAt = r.clock.Now()
	if err != nil {
		return run, fmt.Errorf("upsert daily: %w", err)
	}
	log.Info("daily_record.done",
		zap.Int("fetched", run.Fetched),
		zap.Int("written", run.Written),
		zap.Duration("took", run.FinishedAt.Sub(run.StartedAt)),
	)
	return run, nil
}
