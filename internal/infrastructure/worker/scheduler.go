package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"lof-premium-service/internal/application"
	"lof-premium-service/internal/domain"

	"go.uber.org/zap"
)

var _ application.Worker = (*DailyScheduler)(nil)

// Recorder is the write flow the scheduler drives; *application.DailyRecorder implements it.
type Recorder interface {
	Record(ctx context.Context, today time.Time, onState application.StateFunc) (domain.DailyRun, error)
	RecordIfNeeded(ctx context.Context, today time.Time, onState application.StateFunc) (domain.DailyRun, error)
}

// RunObserver receives run outcomes and state changes; *metrics.Metrics implements it.
type RunObserver interface {
	RecordRun(result string, written int, at time.Time)
	SetSchedulerState(current string, states ...string)
}

var allStates = []string{
	string(domain.RunStateIdle),
	string(domain.RunStateTriggered),
	string(domain.RunStateFetching),
	string(domain.RunStateWriting),
}

// DailyScheduler fires the daily record once per day at Hour:Minute in Location.
// A failed run is logged and abandoned; the next trigger is the following day.
type DailyScheduler struct {
	Recorder Recorder
	Hour     int
	Minute   int
	Location *time.Location
	// CatchUp runs a guarded record at start when today's trigger already passed.
	CatchUp  bool
	Observer RunObserver
	Log      *zap.Logger

	Now   func() time.Time
	After func(time.Duration) <-chan time.Time

	mu    sync.Mutex
	state domain.RunState
}

func (s *DailyScheduler) Start(ctx context.Context) {
	s.defaults()
	log := s.Log.With(zap.String("worker", "daily_scheduler"))
	s.setState(domain.RunStateIdle)

	if s.CatchUp {
		now := s.Now().In(s.Location)
		if !now.Before(triggerOn(now, s.Hour, s.Minute)) {
			s.fire(ctx, "catch_up")
		}
	}

	// last fired trigger; the wall clock may step backward while waiting
	var last time.Time
	for {
		now := s.Now().In(s.Location)
		from := now
		if from.Before(last) {
			from = last
		}
		next := NextRun(from, s.Hour, s.Minute, s.Location)
		log.Info("scheduler.next_run", zap.Time("at", next))
		select {
		case <-ctx.Done():
			log.Info("scheduler.stop")
			return
		case <-s.After(next.Sub(now)):
			last = next
			s.fire(ctx, "scheduled")
		}
	}
}

// RunOnce performs one guarded run; it backs out-of-band invocations.
func (s *DailyScheduler) RunOnce(ctx context.Context) (domain.DailyRun, error) {
	s.defaults()
	return s.run(ctx, "manual")
}

func (s *DailyScheduler) State() domain.RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == "" {
		return domain.RunStateIdle
	}
	return s.state
}

func (s *DailyScheduler) fire(ctx context.Context, reason string) {
	_, _ = s.run(ctx, reason)
}

func (s *DailyScheduler) run(ctx context.Context, reason string) (run domain.DailyRun, err error) {
	log := s.Log.With(zap.String("worker", "daily_scheduler"), zap.String("reason", reason))
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			log.Error("scheduler.run_panic", zap.Any("r", r), zap.Time("at", s.Now()))
			s.observe("error", 0)
		}
		s.setState(domain.RunStateIdle)
	}()

	s.setState(domain.RunStateTriggered)
	today := s.Now().In(s.Location)
	if reason == "scheduled" {
		run, err = s.Recorder.Record(ctx, today, s.setState)
	} else {
		run, err = s.Recorder.RecordIfNeeded(ctx, today, s.setState)
	}

	switch {
	case errors.Is(err, application.ErrRunInProgress):
		log.Warn("scheduler.run_locked", zap.Time("at", s.Now()))
		s.observe("locked", 0)
	case err != nil:
		log.Error("scheduler.run_failed", zap.Error(err), zap.Time("at", s.Now()))
		s.observe("error", 0)
	case run.Skipped:
		s.observe("skipped", 0)
	default:
		log.Info("scheduler.run_done", zap.String("run_id", run.ID), zap.Int("written", run.Written))
		s.observe("ok", run.Written)
	}
	return run, err
}

func (s *DailyScheduler) setState(st domain.RunState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	if s.Observer != nil {
		s.Observer.SetSchedulerState(string(st), allStates...)
	}
}

func (s *DailyScheduler) observe(result string, written int) {
	if s.Observer != nil {
		s.Observer.RecordRun(result, written, s.Now())
	}
}

func (s *DailyScheduler) defaults() {
	if s.Location == nil {
		s.Location = time.Local
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	if s.After == nil {
		s.After = time.After
	}
	if s.Log == nil {
		s.Log = zap.NewNop()
	}
}

// NextRun returns the first hour:minute in loc strictly after now.
func NextRun(now time.Time, hour, minute int, loc *time.Location) time.Time {
	now = now.In(loc)
	next := triggerOn(now, hour, minute)
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, hour, minute, 0, 0, loc)
	}
	return next
}

func triggerOn(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

// ParseClock reads an "HH:MM" time of day.
func ParseClock(s string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, 0, fmt.Errorf("time of day %q: want HH:MM", s)
	}
	hour, err = strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("time of day %q: bad hour", s)
	}
	minute, err = strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time of day %q: bad minute", s)
	}
	return hour, minute, nil
}
