package application

import (
	"slices"
	"strings"

	"lof-premium-service/internal/domain"
)

// Status markers kept below the volume floor: suspended or capped purchases are where
// thinly traded premiums actually persist.
var holdMarkers = []string{"暂停", "限"}

// Exact labels meaning "open for subscription".
var openStatuses = map[string]bool{
	"":     true,
	"开放申购": true,
	"开放":   true,
}

// SelectOptions are the thresholds applied by Select. Zero values disable a filter.
type SelectOptions struct {
	MinPremium              float64
	MinVolume               float64
	ExcludeOpenSubscription bool
}

// Select filters records by opts and orders them by premium rate, highest first.
// Equal premiums keep their input order. The input slice is not modified.
func Select(records []domain.InstrumentSnapshot, opts SelectOptions) []domain.InstrumentSnapshot {
	out := make([]domain.InstrumentSnapshot, 0, len(records))
	for _, r := range records {
		if opts.MinPremium > 0 && r.PremiumRate < opts.MinPremium {
			continue
		}
		if opts.MinVolume > 0 && r.TradedVolume < opts.MinVolume && !onHold(r.SubscriptionStatus) {
			continue
		}
		if opts.ExcludeOpenSubscription && IsOpenSubscription(r.SubscriptionStatus) {
			continue
		}
		out = append(out, r)
	}
	slices.SortStableFunc(out, func(a, b domain.InstrumentSnapshot) int {
		switch {
		case a.PremiumRate > b.PremiumRate:
			return -1
		case a.PremiumRate < b.PremiumRate:
			return 1
		default:
			return 0
		}
	})
	return out
}

// IsOpenSubscription reports whether status is exactly one of the open labels.
func IsOpenSubscription(status string) bool {
	return openStatuses[status]
}

func onHold(status string) bool {
	for _, m := range holdMarkers {
		if strings.Contains(status, m) {
			return true
		}
	}
	return false
}
