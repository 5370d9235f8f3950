package httpserver

import "lof-premium-service/internal/domain"

const updateTimeLayout = "2006-01-02 15:04:05"

type envelope struct {
	Success    bool   `json:"success"`
	Data       any    `json:"data,omitempty"`
	Total      *int   `json:"total,omitempty"`
	UpdateTime string `json:"update_time,omitempty"`
	Error      string `json:"error,omitempty"`
}

type instrumentDTO struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Price              float64 `json:"price"`
	ChangePct          float64 `json:"change_pct"`
	ReferenceValue     float64 `json:"reference_value"`
	PremiumRate        float64 `json:"premium_rate"`
	Volume             float64 `json:"volume"`
	SubscriptionStatus string  `json:"subscription_status"`
	Category           string  `json:"category"`
}

type historyPointDTO struct {
	Date           string  `json:"date"`
	PremiumRate    float64 `json:"premium_rate"`
	Price          float64 `json:"price"`
	ReferenceValue float64 `json:"reference_value"`
	Volume         float64 `json:"volume"`
}

type statusDTO struct {
	LatestRecordedDate *string `json:"latest_recorded_date"`
	SchedulerState     string  `json:"scheduler_state,omitempty"`
}

func toInstrumentDTOs(in []domain.InstrumentSnapshot) []instrumentDTO {
	out := make([]instrumentDTO, len(in))
	for i, s := range in {
		out[i] = instrumentDTO{
			ID:                 s.InstrumentID,
			Name:               s.DisplayName,
			Price:              s.LastPrice,
			ChangePct:          s.ChangePct,
			ReferenceValue:     s.ReferenceValue,
			PremiumRate:        s.PremiumRate,
			Volume:             s.TradedVolume,
			SubscriptionStatus: s.SubscriptionStatus,
			Category:           string(s.Category),
		}
	}
	return out
}

func toHistoryDTOs(in []domain.HistoryPoint) []historyPointDTO {
	out := make([]historyPointDTO, len(in))
	for i, p := range in {
		out[i] = historyPointDTO{
			Date:           p.RecordDate.Format(domain.DateLayout),
			PremiumRate:    p.PremiumRate,
			Price:          p.LastPrice,
			ReferenceValue: p.ReferenceValue,
			Volume:         p.TradedVolume,
		}
	}
	return out
}
