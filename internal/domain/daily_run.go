package domain

import "time"

// DailyRun summarizes one trigger of the daily record job.
type DailyRun struct {
	ID         string
	RecordDate time.Time
	Fetched    int
	Written    int
	Skipped    bool
	StartedAt  time.Time
	FinishedAt time.Time
}
