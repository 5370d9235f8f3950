package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"lof-premium-service/internal/application"
	"lof-premium-service/internal/config"
	"lof-premium-service/internal/infrastructure/memory"
	"lof-premium-service/internal/infrastructure/provider"
	redisstore "lof-premium-service/internal/infrastructure/redis"
	"lof-premium-service/internal/infrastructure/sqlite"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestProvideStorage(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop()

	st, cleanup, err := ProvideStorage(ctx, log, config.Config{Storage: "memory"})
	require.NoError(t, err)
	defer cleanup()
	require.IsType(t, &memory.HistoryStore{}, st.Store)

	st, cleanup2, err := ProvideStorage(ctx, log, config.Config{Storage: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "h.db")})
	require.NoError(t, err)
	defer cleanup2()
	require.IsType(t, &sqlite.HistoryStore{}, st.Store)
	require.NoError(t, st.Ping(ctx))

	_, _, err = ProvideStorage(ctx, log, config.Config{Storage: "pg"})
	require.ErrorIs(t, err, ErrMissingDBURL)

	_, _, err = ProvideStorage(ctx, log, config.Config{Storage: "csv"})
	require.Error(t, err)
}

func TestProvideRedis(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop()

	deps, cleanup, err := ProvideRedis(ctx, log, config.Config{SnapshotCache: "none", RunLock: "none"})
	require.NoError(t, err)
	cleanup()
	require.IsType(t, application.NoopSnapshotCache{}, deps.Cache)
	require.IsType(t, application.NoopRunLock{}, deps.Lock)

	mr := miniredis.RunT(t)
	deps, cleanup, err = ProvideRedis(ctx, log, config.Config{SnapshotCache: "redis", RunLock: "redis", RedisAddr: mr.Addr()})
	require.NoError(t, err)
	defer cleanup()
	require.IsType(t, &redisstore.SnapshotCache{}, deps.Cache)
	require.IsType(t, &redisstore.RunLock{}, deps.Lock)
}

func TestProvideSnapshotSource(t *testing.T) {
	src, err := ProvideSnapshotSource(config.Config{Provider: "fake"}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, src.GetAll(context.Background()))

	src, err = ProvideSnapshotSource(config.Config{Provider: "jisilu", UpstreamBaseURL: "http://upstream.test", UpstreamPageSize: 50, FetchConcurrency: 1}, nil)
	require.NoError(t, err)
	c := src.(*provider.JisiluClient)
	require.Equal(t, "http://upstream.test", c.BaseURL)
	require.Equal(t, 50, c.PageSize)
	require.Equal(t, 1, c.Concurrency)
	require.Len(t, c.Endpoints, 3)

	_, err = ProvideSnapshotSource(config.Config{Provider: "bloomberg"}, nil)
	require.Error(t, err)
}

func TestProvideScheduler(t *testing.T) {
	rec := application.NewDailyRecorder(provider.NewFake(), memory.NewHistoryStore())

	s, err := ProvideScheduler(rec, config.Config{RecordAt: "14:55", Timezone: "Asia/Shanghai"}, nil, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 14, s.Hour)
	require.Equal(t, 55, s.Minute)
	require.Equal(t, "Asia/Shanghai", s.Location.String())

	_, err = ProvideScheduler(rec, config.Config{RecordAt: "25:00", Timezone: "UTC"}, nil, zap.NewNop())
	require.Error(t, err)
	_, err = ProvideScheduler(rec, config.Config{RecordAt: "14:55", Timezone: "Mars/Olympus"}, nil, zap.NewNop())
	require.Error(t, err)
}

func TestInitAPI_MemoryFake(t *testing.T) {
	t.Setenv("STORAGE", "memory")
	t.Setenv("PROVIDER", "fake")
	t.Setenv("SNAPSHOT_CACHE", "none")
	t.Setenv("RUN_LOCK", "none")
	t.Setenv("SCHEDULER_ENABLED", "true")

	api, cleanup, err := InitAPI(context.Background())
	require.NoError(t, err)
	defer cleanup()
	require.NotNil(t, api.Scheduler)

	rec := httptest.NewRecorder()
	api.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/instruments", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"success":true`)

	_, err = api.Scheduler.RunOnce(context.Background())
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	api.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Contains(t, rec.Body.String(), `"scheduler_state":"idle"`)
	require.NotContains(t, rec.Body.String(), `"latest_recorded_date":null`)
}

func TestInitWorker_SchedulerDisabledStillBuilds(t *testing.T) {
	t.Setenv("STORAGE", "memory")
	t.Setenv("PROVIDER", "fake")
	t.Setenv("SCHEDULER_ENABLED", "false")
	t.Setenv("RUN_ONCE", "true")

	app, cleanup, err := InitWorker(context.Background())
	require.NoError(t, err)
	defer cleanup()
	require.True(t, app.Config.RunOnce)

	run, err := app.Scheduler.RunOnce(context.Background())
	require.NoError(t, err)
	require.Positive(t, run.Written)
}
