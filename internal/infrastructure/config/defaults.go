package config

import "time"

const (
	DefaultHTTPPort        = "8080"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultPGMaxConns      = 5
	DefaultPGMinConns      = 1
	DefaultPageSize        = 100
	DefaultFetchTimeout    = 10 * time.Second
	DefaultRecordHour      = 14
	DefaultRecordMinute    = 55
	DefaultTimezone        = "Asia/Shanghai"
)
