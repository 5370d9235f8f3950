package application

import "context"

// RunLock serializes daily record runs across processes.
type RunLock interface {
	// TryAcquire returns true if key was free and is now held by the caller.
	TryAcquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// NoopRunLock always succeeds; used when redis is disabled.
type NoopRunLock struct{}

func (NoopRunLock) TryAcquire(context.Context, string) (bool, error) { return true, nil }
func (NoopRunLock) Release(context.Context, string) error            { return nil }
