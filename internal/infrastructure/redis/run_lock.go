package redisstore

import (
	"context"
	"sync"
	"time"

	"lof-premium-service/internal/application"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0`)

// RunLock is a SET NX lock with a TTL, so a crashed holder cannot block later days.
type RunLock struct {
	Client *redis.Client
	TTL    time.Duration
	Prefix string

	mu     sync.Mutex
	tokens map[string]string
}

var _ application.RunLock = (*RunLock)(nil)

func NewRunLock(client *redis.Client, ttl time.Duration) *RunLock {
	return &RunLock{Client: client, TTL: ttl, Prefix: "lof_premium:lock:", tokens: make(map[string]string)}
}

func (l *RunLock) TryAcquire(ctx context.Context, key string) (bool, error) {
	token := uuid.NewString()
	ok, err := l.Client.SetNX(ctx, l.Prefix+key, token, l.TTL).Result()
	if err != nil {
		return false, err
	}
	if ok {
		l.mu.Lock()
		l.tokens[key] = token
		l.mu.Unlock()
	}
	return ok, nil
}

func (l *RunLock) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	token, ok := l.tokens[key]
	delete(l.tokens, key)
	l.mu.Unlock()
	if !ok {
		return nil
	}
	return releaseScript.Run(ctx, l.Client, []string{l.Prefix + key}, token).Err()
}
