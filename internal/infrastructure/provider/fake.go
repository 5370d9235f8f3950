package provider

import (
	"context"
	"slices"

	"lof-premium-service/internal/application"
	"lof-premium-service/internal/domain"
)

var _ application.SnapshotSource = (*Fake)(nil)

// Fake serves a fixed snapshot. It backs PROVIDER=fake for local runs and tests.
type Fake struct {
	records []domain.InstrumentSnapshot
}

func NewFake(records ...domain.InstrumentSnapshot) *Fake {
	if len(records) == 0 {
		records = sampleSnapshot()
	}
	return &Fake{records: records}
}

func (f *Fake) GetAll(_ context.Context) []domain.InstrumentSnapshot {
	return slices.Clone(f.records)
}

func sampleSnapshot() []domain.InstrumentSnapshot {
	return []domain.InstrumentSnapshot{
		{InstrumentID: "161725", DisplayName: "白酒LOF", LastPrice: 1.052, ChangePct: 0.48, ReferenceValue: 1.021, PremiumRate: 3.04, TradedVolume: 5230, SubscriptionStatus: "暂停申购", Category: domain.CategoryIndex},
		{InstrumentID: "160119", DisplayName: "500ETF联接LOF", LastPrice: 1.870, ChangePct: -0.21, ReferenceValue: 1.868, PremiumRate: 0.11, TradedVolume: 812, SubscriptionStatus: "开放申购", Category: domain.CategoryIndex},
		{InstrumentID: "501018", DisplayName: "南方原油LOF", LastPrice: 1.315, ChangePct: 1.62, ReferenceValue: 1.254, PremiumRate: 4.86, TradedVolume: 12840, SubscriptionStatus: "限100", Category: domain.CategoryCrossBorder},
		{InstrumentID: "164824", DisplayName: "印度基金LOF", LastPrice: 1.472, ChangePct: 0.34, ReferenceValue: 1.461, PremiumRate: 0.75, TradedVolume: 2210, SubscriptionStatus: "限10万", Category: domain.CategoryCrossBorder},
		{InstrumentID: "161116", DisplayName: "黄金LOF", LastPrice: 1.203, ChangePct: 0.92, ReferenceValue: 1.176, PremiumRate: 2.3, TradedVolume: 3400, SubscriptionStatus: "暂停申购", Category: domain.CategoryCommodity},
	}
}
