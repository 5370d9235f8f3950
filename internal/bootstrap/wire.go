//go:build wireinject

package bootstrap

import (
	"context"

	"github.com/google/wire"
)

var infraSet = wire.NewSet(
	ProvideLogger,
	ProvideConfig,
	ProvideMetrics,
	ProvideStorage,
	ProvideRedis,
	ProvideSnapshotSource,
	ProvideDailyRecorder,
	ProvideScheduler,
)

// API injector: HTTP handler plus the optional in-process scheduler.
func InitAPI(ctx context.Context) (API, func(), error) {
	wire.Build(
		infraSet,
		ProvidePremiumService,
		ProvideServer,
		ProvideAPI,
	)
	return API{}, nil, nil
}

// Worker injector: the scheduler daemon.
func InitWorker(ctx context.Context) (WorkerApp, func(), error) {
	wire.Build(
		infraSet,
		ProvideWorkerApp,
	)
	return WorkerApp{}, nil, nil
}
