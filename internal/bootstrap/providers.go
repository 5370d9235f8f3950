package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
	_ "time/tzdata"

	"lof-premium-service/internal/application"
	"lof-premium-service/internal/config"
	"lof-premium-service/internal/domain"
	infraconfig "lof-premium-service/internal/infrastructure/config"
	httpserver "lof-premium-service/internal/infrastructure/http"
	"lof-premium-service/internal/infrastructure/httpx"
	"lof-premium-service/internal/infrastructure/logx"
	"lof-premium-service/internal/infrastructure/memory"
	"lof-premium-service/internal/infrastructure/metrics"
	"lof-premium-service/internal/infrastructure/pg"
	"lof-premium-service/internal/infrastructure/provider"
	redisstore "lof-premium-service/internal/infrastructure/redis"
	"lof-premium-service/internal/infrastructure/sqlite"
	"lof-premium-service/internal/infrastructure/worker"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrMissingDBURL = errors.New("DATABASE_URL is required for STORAGE=pg")

// Storage bundles the selected history backend with its transaction and readiness hooks.
type Storage struct {
	Store application.HistoryStore
	UoW   application.UnitOfWork
	Ping  func(ctx context.Context) error
}

// RedisDeps holds the optional redis-backed collaborators; noops when redis is off.
type RedisDeps struct {
	Cache application.SnapshotCache
	Lock  application.RunLock
}

// API is what cmd/api runs: the HTTP handler and, when enabled, the in-process scheduler.
type API struct {
	Config    config.Config
	Handler   http.Handler
	Scheduler *worker.DailyScheduler
}

// WorkerApp is what cmd/worker runs.
type WorkerApp struct {
	Config    config.Config
	Scheduler *worker.DailyScheduler
}

func ProvideLogger() *zap.Logger { return logx.L() }

func ProvideConfig() config.Config { return config.Load() }

func ProvideMetrics(cfg config.Config) *metrics.Metrics { return metrics.New(cfg.MetricsNamespace) }

func ProvideStorage(ctx context.Context, log *zap.Logger, cfg config.Config) (Storage, func(), error) {
	switch cfg.Storage {
	case "pg":
		if cfg.DatabaseURL == "" {
			return Storage{}, func() {}, ErrMissingDBURL
		}
		db, err := pg.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return Storage{}, func() {}, err
		}
		if err := pg.RunMigrations(ctx, db); err != nil {
			db.Close()
			return Storage{}, func() {}, err
		}
		cleanup := func() {
			log.Info("closing pg")
			db.Close()
		}
		return Storage{Store: pg.NewHistoryStore(db), UoW: pg.NewUnitOfWork(db), Ping: db.Ping}, cleanup, nil
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return Storage{}, func() {}, err
		}
		cleanup := func() {
			log.Info("closing sqlite")
			_ = db.Close()
		}
		return Storage{Store: sqlite.NewHistoryStore(db), UoW: application.NoopUoW{}, Ping: db.Ping}, cleanup, nil
	case "memory":
		log.Warn("STORAGE=memory: history is lost on restart")
		return Storage{Store: memory.NewHistoryStore(), UoW: application.NoopUoW{}}, func() {}, nil
	default:
		return Storage{}, func() {}, fmt.Errorf("unsupported STORAGE=%q", cfg.Storage)
	}
}

func ProvideRedis(ctx context.Context, log *zap.Logger, cfg config.Config) (RedisDeps, func(), error) {
	deps := RedisDeps{Cache: application.NoopSnapshotCache{}, Lock: application.NoopRunLock{}}
	if cfg.SnapshotCache != "redis" && cfg.RunLock != "redis" {
		return deps, func() {}, nil
	}
	client, err := redisstore.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return RedisDeps{}, func() {}, err
	}
	if cfg.SnapshotCache == "redis" {
		deps.Cache = redisstore.NewSnapshotCache(client, cfg.SnapshotCacheTTL)
	}
	if cfg.RunLock == "redis" {
		deps.Lock = redisstore.NewRunLock(client, cfg.RunLockTTL)
	}
	return deps, closeRedis(log, client), nil
}

func closeRedis(log *zap.Logger, client *redis.Client) func() {
	return func() {
		log.Info("closing redis")
		_ = client.Close()
	}
}

func ProvideSnapshotSource(cfg config.Config, m *metrics.Metrics) (application.SnapshotSource, error) {
	switch cfg.Provider {
	case "fake":
		return provider.NewFake(), nil
	case "jisilu":
		table, err := provider.LoadTable(cfg.EndpointsFile)
		if err != nil {
			return nil, err
		}
		if cfg.UpstreamBaseURL != "" {
			table.BaseURL = cfg.UpstreamBaseURL
		}
		if cfg.UpstreamPageSize > 0 {
			table.PageSize = cfg.UpstreamPageSize
		}
		timeout := cfg.RequestTimeout
		if timeout <= 0 {
			timeout = infraconfig.DefaultFetchTimeout
		}
		c := provider.NewJisiluClient(table, httpx.New(timeout))
		c.Timeout = timeout
		if cfg.FetchConcurrency > 0 {
			c.Concurrency = cfg.FetchConcurrency
		}
		c.Observer = m
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported PROVIDER=%q", cfg.Provider)
	}
}

func ProvidePremiumService(src application.SnapshotSource, st Storage, r RedisDeps, cfg config.Config, log *zap.Logger) *application.PremiumService {
	filtered := application.SelectOptions{
		MinPremium:              cfg.SelectMinPremium,
		MinVolume:               cfg.SelectMinVolume,
		ExcludeOpenSubscription: true,
	}
	all := application.SelectOptions{ExcludeOpenSubscription: true}
	return application.NewPremiumService(src, st.Store,
		application.WithCache(r.Cache),
		application.WithLogger(log),
		application.WithViews(filtered, all),
		application.WithHistoryLimits(cfg.HistoryDefaultDays, cfg.HistoryMaxDays),
	)
}

func ProvideDailyRecorder(src application.SnapshotSource, st Storage, r RedisDeps, log *zap.Logger) *application.DailyRecorder {
	return application.NewDailyRecorder(src, st.Store,
		application.WithUnitOfWork(st.UoW),
		application.WithRunLock(r.Lock),
		application.WithRecorderLogger(log),
	)
}

func ProvideScheduler(rec *application.DailyRecorder, cfg config.Config, m *metrics.Metrics, log *zap.Logger) (*worker.DailyScheduler, error) {
	hour, minute := infraconfig.DefaultRecordHour, infraconfig.DefaultRecordMinute
	if cfg.RecordAt != "" {
		var err error
		if hour, minute, err = worker.ParseClock(cfg.RecordAt); err != nil {
			return nil, fmt.Errorf("RECORD_AT: %w", err)
		}
	}
	tz := cfg.Timezone
	if tz == "" {
		tz = infraconfig.DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}
	return &worker.DailyScheduler{
		Recorder: rec,
		Hour:     hour,
		Minute:   minute,
		Location: loc,
		CatchUp:  cfg.CatchUp,
		Observer: m,
		Log:      log,
	}, nil
}

func ProvideServer(svc *application.PremiumService, st Storage, m *metrics.Metrics, sched *worker.DailyScheduler, cfg config.Config) *httpserver.Server {
	srv := httpserver.NewServer(svc, m)
	if st.Ping != nil {
		srv.SetReadyCheck(st.Ping)
	}
	if cfg.SchedulerEnabled && sched != nil {
		srv.SetSchedulerState(func() domain.RunState { return sched.State() })
	}
	return srv
}

func ProvideAPI(cfg config.Config, srv *httpserver.Server, sched *worker.DailyScheduler) API {
	api := API{Config: cfg, Handler: httpserver.NewRouter(srv)}
	if cfg.SchedulerEnabled {
		api.Scheduler = sched
	}
	return api
}

func ProvideWorkerApp(cfg config.Config, sched *worker.DailyScheduler) WorkerApp {
	return WorkerApp{Config: cfg, Scheduler: sched}
}
