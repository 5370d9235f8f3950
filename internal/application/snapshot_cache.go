package application

import (
	"context"

	"lof-premium-service/internal/domain"
)

// NoopSnapshotCache never hits; every read goes to the SnapshotSource.
type NoopSnapshotCache struct{}

func (NoopSnapshotCache) Get(context.Context) ([]domain.InstrumentSnapshot, bool, error) {
	return nil, false, nil
}

func (NoopSnapshotCache) Set(context.Context, []domain.InstrumentSnapshot) error { return nil }
