package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"lof-premium-service/internal/application"
	"lof-premium-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

type cachedSnapshot struct {
	InstrumentID       string  `json:"id"`
	DisplayName        string  `json:"name"`
	LastPrice          float64 `json:"price"`
	ChangePct          float64 `json:"change_pct"`
	ReferenceValue     float64 `json:"nav"`
	PremiumRate        float64 `json:"premium_rate"`
	TradedVolume       float64 `json:"volume"`
	SubscriptionStatus string  `json:"status"`
	Category           string  `json:"category"`
}

// SnapshotCache stores the last unfiltered snapshot as one JSON value with a TTL.
type SnapshotCache struct {
	Client *redis.Client
	TTL    time.Duration
	Key    string
}

var _ application.SnapshotCache = (*SnapshotCache)(nil)

func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{Client: client, TTL: ttl, Key: "lof_premium:snapshot"}
}

func (c *SnapshotCache) Get(ctx context.Context) ([]domain.InstrumentSnapshot, bool, error) {
	raw, err := c.Client.Get(ctx, c.Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var cached []cachedSnapshot
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, false, err
	}
	out := make([]domain.InstrumentSnapshot, len(cached))
	for i, s := range cached {
		out[i] = domain.InstrumentSnapshot{
			InstrumentID:       s.InstrumentID,
			DisplayName:        s.DisplayName,
			LastPrice:          s.LastPrice,
			ChangePct:          s.ChangePct,
			ReferenceValue:     s.ReferenceValue,
			PremiumRate:        s.PremiumRate,
			TradedVolume:       s.TradedVolume,
			SubscriptionStatus: s.SubscriptionStatus,
			Category:           domain.Category(s.Category),
		}
	}
	return out, true, nil
}

func (c *SnapshotCache) Set(ctx context.Context, records []domain.InstrumentSnapshot) error {
	cached := make([]cachedSnapshot, len(records))
	for i, r := range records {
		cached[i] = cachedSnapshot{
			InstrumentID:       r.InstrumentID,
			DisplayName:        r.DisplayName,
			LastPrice:          r.LastPrice,
			ChangePct:          r.ChangePct,
			ReferenceValue:     r.ReferenceValue,
			PremiumRate:        r.PremiumRate,
			TradedVolume:       r.TradedVolume,
			SubscriptionStatus: r.SubscriptionStatus,
			Category:           string(r.Category),
		}
	}
	raw, err := json.Marshal(cached)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, c.Key, raw, c.TTL).Err()
}
