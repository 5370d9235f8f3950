package domain

import "time"

// HistoryPoint is one persisted daily observation, keyed by (InstrumentID, RecordDate).
type HistoryPoint struct {
	InstrumentID   string
	DisplayName    string
	RecordDate     time.Time
	PremiumRate    float64
	LastPrice      float64
	ReferenceValue float64
	TradedVolume   float64
	RecordedAt     time.Time
}

// PointFromSnapshot builds the point stored for s on day asOf.
func PointFromSnapshot(s InstrumentSnapshot, asOf, recordedAt time.Time) HistoryPoint {
	return HistoryPoint{
		InstrumentID:   s.InstrumentID,
		DisplayName:    s.DisplayName,
		RecordDate:     DateOf(asOf),
		PremiumRate:    s.PremiumRate,
		LastPrice:      s.LastPrice,
		ReferenceValue: s.ReferenceValue,
		TradedVolume:   s.TradedVolume,
		RecordedAt:     recordedAt,
	}
}
