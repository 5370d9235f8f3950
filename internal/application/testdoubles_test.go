package application

import (
	"context"
	"sort"
	"sync"
	"time"

	"lof-premium-service/internal/domain"
)

type fakeSource struct {
	mu      sync.Mutex
	records []domain.InstrumentSnapshot
	calls   int
}

func (f *fakeSource) GetAll(context.Context) []domain.InstrumentSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	out := make([]domain.InstrumentSnapshot, len(f.records))
	copy(out, f.records)
	return out
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeStore keeps points keyed by id and day, like the real stores.
type fakeStore struct {
	mu     sync.Mutex
	points map[string]map[time.Time]domain.HistoryPoint
	err    error
}

func (f *fakeStore) UpsertDaily(_ context.Context, records []domain.InstrumentSnapshot, asOf time.Time) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.points == nil {
		f.points = map[string]map[time.Time]domain.HistoryPoint{}
	}
	n := 0
	for _, r := range records {
		if !domain.ValidateInstrumentID(r.InstrumentID) {
			continue
		}
		if f.points[r.InstrumentID] == nil {
			f.points[r.InstrumentID] = map[time.Time]domain.HistoryPoint{}
		}
		p := domain.PointFromSnapshot(r, asOf, asOf)
		f.points[r.InstrumentID][p.RecordDate] = p
		n++
	}
	return n, nil
}

func (f *fakeStore) History(_ context.Context, id string, days int) ([]domain.HistoryPoint, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.HistoryPoint
	for _, p := range f.points[id] {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordDate.Before(out[j].RecordDate) })
	if len(out) > days {
		out = out[len(out)-days:]
	}
	return out, nil
}

func (f *fakeStore) LatestRecordedDate(context.Context) (time.Time, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest time.Time
	found := false
	for _, byDay := range f.points {
		for d := range byDay {
			if !found || d.After(latest) {
				latest, found = d, true
			}
		}
	}
	return latest, found, nil
}

func (f *fakeStore) NeedsRecordingToday(ctx context.Context, today time.Time) (bool, error) {
	latest, ok, err := f.LatestRecordedDate(ctx)
	if err != nil {
		return false, err
	}
	return NeedsRecording(latest, ok, today), nil
}

type memCache struct {
	mu      sync.Mutex
	records []domain.InstrumentSnapshot
	sets    int
}

func (m *memCache) Get(context.Context) ([]domain.InstrumentSnapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.records == nil {
		return nil, false, nil
	}
	return append([]domain.InstrumentSnapshot(nil), m.records...), true, nil
}

func (m *memCache) Set(_ context.Context, records []domain.InstrumentSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append([]domain.InstrumentSnapshot(nil), records...)
	m.sets++
	return nil
}

type fakeClock struct{ t time.Time }

func (f fakeClock) Now() time.Time { return f.t }

type fixedIDGen string

func (g fixedIDGen) NewID() string { return string(g) }

func snap(id string, premium, volume float64, status string) domain.InstrumentSnapshot {
	return domain.InstrumentSnapshot{
		InstrumentID:       id,
		DisplayName:        "fund " + id,
		LastPrice:          1.0,
		ReferenceValue:     1.0,
		PremiumRate:        premium,
		TradedVolume:       volume,
		SubscriptionStatus: status,
		Category:           domain.CategoryIndex,
	}
}

// gatedSource blocks GetAll until release is closed and returns nothing if ctx ends first,
// the way the upstream client reports a cut-off fetch.
type gatedSource struct {
	fakeSource
	entered chan struct{}
	release chan struct{}
}

func newGatedSource(records []domain.InstrumentSnapshot) *gatedSource {
	return &gatedSource{
		fakeSource: fakeSource{records: records},
		entered:    make(chan struct{}, 1),
		release:    make(chan struct{}),
	}
}

func (g *gatedSource) GetAll(ctx context.Context) []domain.InstrumentSnapshot {
	select {
	case g.entered <- struct{}{}:
	default:
	}
	select {
	case <-ctx.Done():
		return []domain.InstrumentSnapshot{}
	case <-g.release:
		return g.fakeSource.GetAll(ctx)
	}
}
