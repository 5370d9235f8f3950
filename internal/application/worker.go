package application

import "context"

// Worker represents a long-running background task such as the daily scheduler.
// Implementations must run until the context is canceled.
type Worker interface {
	Start(ctx context.Context)
}
