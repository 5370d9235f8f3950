package domain

// InstrumentSnapshot is one normalized listing row. Values are transient and owned by
// whoever fetched them.
type InstrumentSnapshot struct {
	InstrumentID       string
	DisplayName        string
	LastPrice          float64
	ChangePct          float64
	ReferenceValue     float64
	PremiumRate        float64
	TradedVolume       float64
	SubscriptionStatus string
	Category           Category
}
