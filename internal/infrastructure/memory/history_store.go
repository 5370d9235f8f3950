package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"lof-premium-service/internal/application"
	"lof-premium-service/internal/domain"
	"lof-premium-service/internal/infrastructure/logx"

	"go.uber.org/zap"
)

// HistoryStore keeps daily points in process memory. It backs STORAGE=memory and tests.
type HistoryStore struct {
	mu     sync.RWMutex
	points map[string]domain.HistoryPoint
	latest time.Time
	now    func() time.Time
}

var _ application.HistoryStore = (*HistoryStore)(nil)

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{points: make(map[string]domain.HistoryPoint), now: time.Now}
}

// WithNow overrides the clock used for RecordedAt.
func (s *HistoryStore) WithNow(now func() time.Time) *HistoryStore {
	s.now = now
	return s
}

func key(id string, date time.Time) string {
	return fmt.Sprintf("%s|%s", id, date.Format(domain.DateLayout))
}

func (s *HistoryStore) UpsertDaily(ctx context.Context, records []domain.InstrumentSnapshot, asOf time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	recordedAt := s.now().UTC()
	date := domain.DateOf(asOf)

	s.mu.Lock()
	defer s.mu.Unlock()
	written := 0
	for _, r := range records {
		if !domain.ValidateInstrumentID(r.InstrumentID) {
			logx.WithFields(ctx).Warn("history.row_skipped",
				zap.String("instrument_id", r.InstrumentID),
				zap.Error(domain.ErrInvalidInstrument))
			continue
		}
		s.points[key(r.InstrumentID, date)] = domain.PointFromSnapshot(r, asOf, recordedAt)
		written++
	}
	if written > 0 && date.After(s.latest) {
		s.latest = date
	}
	return written, nil
}

func (s *HistoryStore) History(ctx context.Context, instrumentID string, lookbackDays int) ([]domain.HistoryPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if lookbackDays <= 0 {
		return []domain.HistoryPoint{}, nil
	}
	s.mu.RLock()
	out := make([]domain.HistoryPoint, 0)
	for _, p := range s.points {
		if p.InstrumentID == instrumentID {
			out = append(out, p)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.HistoryPoint) int { return a.RecordDate.Compare(b.RecordDate) })
	if len(out) > lookbackDays {
		out = out[len(out)-lookbackDays:]
	}
	return out, nil
}

// LatestRecordedDate is the newest date holding at least one point.
func (s *HistoryStore) LatestRecordedDate(ctx context.Context) (time.Time, bool, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest.IsZero() {
		return time.Time{}, false, nil
	}
	return s.latest, true, nil
}

func (s *HistoryStore) NeedsRecordingToday(ctx context.Context, today time.Time) (bool, error) {
	latest, ok, err := s.LatestRecordedDate(ctx)
	if err != nil {
		return false, err
	}
	return application.NeedsRecording(latest, ok, today), nil
}
