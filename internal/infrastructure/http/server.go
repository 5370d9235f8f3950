package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"lof-premium-service/internal/application"
	"lof-premium-service/internal/domain"
	"lof-premium-service/internal/infrastructure/logx"
	"lof-premium-service/internal/infrastructure/metrics"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PremiumReader is the read side the handlers need; *application.PremiumService implements it.
type PremiumReader interface {
	CurrentOptions(filtered bool) application.SelectOptions
	GetCurrentWith(ctx context.Context, opts application.SelectOptions) ([]domain.InstrumentSnapshot, error)
	GetHistory(ctx context.Context, instrumentID string, days int) ([]domain.HistoryPoint, error)
	LatestRecordedDate(ctx context.Context) (string, bool, error)
}

type Server struct {
	svc     PremiumReader
	ping    func(context.Context) error
	state   func() domain.RunState
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewServer(svc PremiumReader, m *metrics.Metrics) *Server {
	return &Server{svc: svc, metrics: m, now: time.Now}
}

// SetReadyCheck installs the storage ping behind /readyz.
func (s *Server) SetReadyCheck(fn func(context.Context) error) { s.ping = fn }

// SetSchedulerState exposes the in-process scheduler state on /api/status.
func (s *Server) SetSchedulerState(fn func() domain.RunState) { s.state = fn }

// ListInstruments serves the current view. filtered defaults to true; the threshold
// parameters override the chosen view's defaults.
func (s *Server) ListInstruments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filtered := true
	if v := q.Get("filtered"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(w, "filtered must be true or false")
			return
		}
		filtered = b
	}
	opts := s.svc.CurrentOptions(filtered)
	if v := q.Get("min_premium"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			badRequest(w, "min_premium must be a number")
			return
		}
		opts.MinPremium = f
	}
	if v := q.Get("min_volume"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			badRequest(w, "min_volume must be a number")
			return
		}
		opts.MinVolume = f
	}
	if v := q.Get("exclude_open"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(w, "exclude_open must be true or false")
			return
		}
		opts.ExcludeOpenSubscription = b
	}

	records, err := s.svc.GetCurrentWith(r.Context(), opts)
	if err != nil {
		logx.WithFields(r.Context()).Error("list_instruments.failed", zap.Error(err))
		internalError(w)
		return
	}
	writeList(w, toInstrumentDTOs(records), len(records), s.now())
}

func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	days := 0
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			badRequest(w, "days must be a positive integer")
			return
		}
		days = n
	}
	points, err := s.svc.GetHistory(r.Context(), id, days)
	if err != nil {
		if errors.Is(err, application.ErrBadRequest) {
			badRequest(w, "invalid instrument id")
			return
		}
		logx.WithFields(r.Context()).Error("get_history.failed", zap.String("instrument_id", id), zap.Error(err))
		internalError(w)
		return
	}
	writeList(w, toHistoryDTOs(points), len(points), s.now())
}

func (s *Server) GetStatus(w http.ResponseWriter, r *http.Request) {
	latest, ok, err := s.svc.LatestRecordedDate(r.Context())
	if err != nil {
		logx.WithFields(r.Context()).Error("get_status.failed", zap.Error(err))
		internalError(w)
		return
	}
	var st statusDTO
	if ok {
		st.LatestRecordedDate = &latest
	}
	if s.state != nil {
		st.SchedulerState = string(s.state())
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: st, UpdateTime: s.now().Format(updateTimeLayout)})
}

func writeList(w http.ResponseWriter, data any, total int, at time.Time) {
	writeJSON(w, http.StatusOK, envelope{
		Success:    true,
		Data:       data,
		Total:      &total,
		UpdateTime: at.Format(updateTimeLayout),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Error: msg})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusBadRequest, msg)
}

func internalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}
