package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Common
	Env      string
	LogLevel string
	// API
	Port string
	// Storage
	Storage     string
	DatabaseURL string
	SQLitePath  string
	// Upstream
	Provider         string
	UpstreamBaseURL  string
	EndpointsFile    string
	UpstreamPageSize int
	RequestTimeout   time.Duration
	FetchConcurrency int
	// Scheduler
	SchedulerEnabled bool
	RecordAt         string
	Timezone         string
	CatchUp          bool
	RunOnce          bool
	RunLock          string
	RunLockTTL       time.Duration
	// Selection
	SelectMinPremium float64
	SelectMinVolume  float64
	// History
	HistoryDefaultDays int
	HistoryMaxDays     int
	// Redis (snapshot cache, run lock)
	SnapshotCache    string
	SnapshotCacheTTL time.Duration
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	// Metrics
	MetricsNamespace string
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiDef(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func floatDef(s string, def float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}

func boolDef(s string, def bool) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

// Load reads environment variables and applies defaults.
func Load() Config {
	return Config{
		Env:                getEnv("ENV", "local"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		Port:               getEnv("PORT", "8080"),
		Storage:            getEnv("STORAGE", "pg"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		SQLitePath:         getEnv("SQLITE_PATH", "lof_history.db"),
		Provider:           getEnv("PROVIDER", "jisilu"),
		UpstreamBaseURL:    getEnv("UPSTREAM_BASE_URL", ""),
		EndpointsFile:      getEnv("ENDPOINTS_FILE", ""),
		UpstreamPageSize:   atoiDef(getEnv("UPSTREAM_PAGE_SIZE", "0"), 0),
		RequestTimeout:     time.Duration(atoiDef(getEnv("REQUEST_TIMEOUT_MS", "10000"), 10000)) * time.Millisecond,
		FetchConcurrency:   atoiDef(getEnv("FETCH_CONCURRENCY", "3"), 3),
		SchedulerEnabled:   boolDef(getEnv("SCHEDULER_ENABLED", "true"), true),
		RecordAt:           getEnv("RECORD_AT", "14:55"),
		Timezone:           getEnv("TIMEZONE", "Asia/Shanghai"),
		CatchUp:            boolDef(getEnv("SCHEDULER_CATCH_UP", "true"), true),
		RunOnce:            boolDef(getEnv("RUN_ONCE", "false"), false),
		RunLock:            getEnv("RUN_LOCK", "none"),
		RunLockTTL:         time.Duration(atoiDef(getEnv("RUN_LOCK_TTL_MS", "600000"), 600000)) * time.Millisecond,
		SelectMinPremium:   floatDef(getEnv("SELECT_MIN_PREMIUM", "1.0"), 1.0),
		SelectMinVolume:    floatDef(getEnv("SELECT_MIN_VOLUME", "1000"), 1000),
		HistoryDefaultDays: atoiDef(getEnv("HISTORY_DEFAULT_DAYS", "30"), 30),
		HistoryMaxDays:     atoiDef(getEnv("HISTORY_MAX_DAYS", "365"), 365),
		SnapshotCache:      getEnv("SNAPSHOT_CACHE", "none"),
		SnapshotCacheTTL:   time.Duration(atoiDef(getEnv("SNAPSHOT_CACHE_TTL_MS", "60000"), 60000)) * time.Millisecond,
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            atoiDef(getEnv("REDIS_DB", "0"), 0),
		MetricsNamespace:   getEnv("METRICS_NAMESPACE", "lof_premium"),
	}
}
