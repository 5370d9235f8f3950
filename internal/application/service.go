package application

import (
	"context"
	"fmt"
	"slices"

	"lof-premium-service/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultHistoryDays = 30
	maxHistoryDays     = 365
)

// PremiumService is the read contract consumed by the HTTP layer. Nothing here writes
// to the HistoryStore.
type PremiumService struct {
	source SnapshotSource
	store  HistoryStore
	cache  SnapshotCache
	log    *zap.Logger

	filtered SelectOptions
	all      SelectOptions

	defaultDays int
	maxDays     int

	group singleflight.Group
}

type Option func(*PremiumService)

func WithCache(c SnapshotCache) Option { return func(s *PremiumService) { s.cache = c } }
func WithLogger(l *zap.Logger) Option  { return func(s *PremiumService) { s.log = l } }
func WithViews(filtered, all SelectOptions) Option {
	return func(s *PremiumService) { s.filtered, s.all = filtered, all }
}
func WithHistoryLimits(defDays, maxDays int) Option {
	return func(s *PremiumService) { s.defaultDays, s.maxDays = defDays, maxDays }
}

func NewPremiumService(source SnapshotSource, store HistoryStore, opts ...Option) *PremiumService {
	s := &PremiumService{
		source:      source,
		store:       store,
		filtered:    SelectOptions{MinPremium: 1.0, MinVolume: 1000, ExcludeOpenSubscription: true},
		all:         SelectOptions{ExcludeOpenSubscription: true},
		defaultDays: defaultHistoryDays,
		maxDays:     maxHistoryDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = NoopSnapshotCache{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.defaultDays <= 0 {
		s.defaultDays = defaultHistoryDays
	}
	if s.maxDays < s.defaultDays {
		s.maxDays = s.defaultDays
	}
	return s
}

// CurrentOptions returns the thresholds behind the filtered or the full view.
func (s *PremiumService) CurrentOptions(filtered bool) SelectOptions {
	if filtered {
		return s.filtered
	}
	return s.all
}

func (s *PremiumService) GetCurrent(ctx context.Context, filtered bool) ([]domain.InstrumentSnapshot, error) {
	return s.GetCurrentWith(ctx, s.CurrentOptions(filtered))
}

func (s *PremiumService) GetCurrentWith(ctx context.Context, opts SelectOptions) ([]domain.InstrumentSnapshot, error) {
	records, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return Select(records, opts), nil
}

// Snapshot returns the unfiltered current snapshot, served from cache when fresh.
// Concurrent misses share a single upstream fetch.
func (s *PremiumService) Snapshot(ctx context.Context) ([]domain.InstrumentSnapshot, error) {
	cached, ok, err := s.cache.Get(ctx)
	if err != nil {
		s.log.Warn("snapshot_cache.get_failed", zap.Error(err))
	}
	if ok {
		return cached, nil
	}
	v, err, _ := s.group.Do("snapshot", func() (any, error) {
		// shared by every waiting caller, so one client going away must not cut it short;
		// the source bounds each endpoint with its own timeout
		fctx := context.WithoutCancel(ctx)
		records := s.source.GetAll(fctx)
		if len(records) > 0 {
			if err := s.cache.Set(fctx, records); err != nil {
				s.log.Warn("snapshot_cache.set_failed", zap.Error(err))
			}
		}
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	// callers sharing the flight must not alias each other's slice
	return slices.Clone(v.([]domain.InstrumentSnapshot)), nil
}

// GetHistory returns the chronological history of one instrument. days <= 0 means the
// default lookback; larger values are clamped.
func (s *PremiumService) GetHistory(ctx context.Context, instrumentID string, days int) ([]domain.HistoryPoint, error) {
	if !domain.ValidateInstrumentID(instrumentID) {
		return nil, fmt.Errorf("%w: instrument id %q", ErrBadRequest, instrumentID)
	}
	if days <= 0 {
		days = s.defaultDays
	}
	if days > s.maxDays {
		days = s.maxDays
	}
	return s.store.History(ctx, instrumentID, days)
}

// LatestRecordedDate exposes the store's last written day for status reporting.
func (s *PremiumService) LatestRecordedDate(ctx context.Context) (string, bool, error) {
	d, ok, err := s.store.LatestRecordedDate(ctx)
	if err != nil || !ok {
		return "", ok, err
	}
	return d.Format(domain.DateLayout), true, nil
}
