package application

import (
	"context"
	"time"

	"lof-premium-service/internal/domain"
)

// SnapshotSource returns the full current snapshot in fixed endpoint order.
// Upstream failures yield fewer (or zero) records, never an error.
type SnapshotSource interface {
	GetAll(ctx context.Context) []domain.InstrumentSnapshot
}

type HistoryStore interface {
	// UpsertDaily writes one point per record for asOf and returns how many rows were written.
	// A failing record is skipped; the error is reserved for failures of the whole batch.
	UpsertDaily(ctx context.Context, records []domain.InstrumentSnapshot, asOf time.Time) (int, error)
	// History returns up to lookbackDays most recent points, oldest first.
	History(ctx context.Context, instrumentID string, lookbackDays int) ([]domain.HistoryPoint, error)
	// LatestRecordedDate reports false when the store is empty.
	LatestRecordedDate(ctx context.Context) (time.Time, bool, error)
	NeedsRecordingToday(ctx context.Context, today time.Time) (bool, error)
}

// SnapshotCache holds the last unfiltered snapshot for a short TTL.
type SnapshotCache interface {
	Get(ctx context.Context) ([]domain.InstrumentSnapshot, bool, error)
	Set(ctx context.Context, records []domain.InstrumentSnapshot) error
}

// NeedsRecording is the shared guard used by every HistoryStore implementation.
func NeedsRecording(latest time.Time, ok bool, today time.Time) bool {
	return !ok || latest.Before(domain.DateOf(today))
}
