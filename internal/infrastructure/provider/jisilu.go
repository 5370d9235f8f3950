package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lof-premium-service/internal/application"
	"lof-premium-service/internal/domain"
	cfgdefaults "lof-premium-service/internal/infrastructure/config"
	"lof-premium-service/internal/infrastructure/httpx"
	"lof-premium-service/internal/infrastructure/logx"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Failure kinds reported to the FetchObserver.
const (
	FailureTransport = "transport"
	FailureShape     = "shape"
)

var (
	ErrShape     = errors.New("unexpected response shape")
	errMissingID = errors.New("row has no instrument id")
)

// FetchObserver receives per-endpoint fetch outcomes. The metrics package implements it.
type FetchObserver interface {
	FetchFailed(endpoint, kind string)
	RowsParsed(endpoint string, parsed, skipped int)
	FetchDuration(endpoint string, d time.Duration)
}

type noopObserver struct{}

func (noopObserver) FetchFailed(string, string)          {}
func (noopObserver) RowsParsed(string, int, int)         {}
func (noopObserver) FetchDuration(string, time.Duration) {}

// JisiluClient reads the public listing endpoints and normalizes their rows.
// Failures are contained per endpoint and per row; callers always get a list.
type JisiluClient struct {
	BaseURL     string
	PageSize    int
	Endpoints   []Endpoint
	HTTP        *httpx.Client
	Timeout     time.Duration
	Concurrency int
	Observer    FetchObserver

	now func() time.Time
}

var _ application.SnapshotSource = (*JisiluClient)(nil)

func NewJisiluClient(table Table, hc *httpx.Client) *JisiluClient {
	return &JisiluClient{
		BaseURL:     table.BaseURL,
		PageSize:    table.PageSize,
		Endpoints:   table.Endpoints,
		HTTP:        hc,
		Timeout:     cfgdefaults.DefaultFetchTimeout,
		Concurrency: len(table.Endpoints),
		now:         time.Now,
	}
}

type listingResponse struct {
	Rows *[]json.RawMessage `json:"rows"`
}

type listingRow struct {
	Cell map[string]any `json:"cell"`
}

// GetAll fetches every configured endpoint and concatenates the results in table order.
func (c *JisiluClient) GetAll(ctx context.Context) []domain.InstrumentSnapshot {
	results := make([][]domain.InstrumentSnapshot, len(c.Endpoints))
	var g errgroup.Group
	if c.Concurrency > 0 {
		g.SetLimit(c.Concurrency)
	}
	for i, ep := range c.Endpoints {
		i, ep := i, ep
		g.Go(func() error {
			results[i] = c.Fetch(ctx, ep)
			return nil
		})
	}
	_ = g.Wait()

	total := 0
	for _, r := range results {
		total += len(r)
	}
	out := make([]domain.InstrumentSnapshot, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

// Fetch reads one endpoint. Transport and shape failures are logged and yield an empty
// list; rows that cannot be mapped are skipped.
func (c *JisiluClient) Fetch(ctx context.Context, ep Endpoint) []domain.InstrumentSnapshot {
	obs := c.observer()
	log := logx.WithFields(ctx).With(zap.String("endpoint", ep.Name), zap.String("category", string(ep.Category)))
	start := c.clock()()

	records, skipped, err := c.fetch(ctx, ep)
	obs.FetchDuration(ep.Name, c.clock()().Sub(start))
	if err != nil {
		kind := FailureTransport
		if errors.Is(err, ErrShape) {
			kind = FailureShape
		}
		obs.FetchFailed(ep.Name, kind)
		log.Warn("provider.fetch_failed", zap.String("kind", kind), zap.Error(err))
		return []domain.InstrumentSnapshot{}
	}
	obs.RowsParsed(ep.Name, len(records), skipped)
	if skipped > 0 {
		log.Warn("provider.rows_skipped", zap.Int("skipped", skipped), zap.Int("parsed", len(records)))
	}
	log.Debug("provider.fetched", zap.Int("rows", len(records)))
	return records
}

func (c *JisiluClient) fetch(ctx context.Context, ep Endpoint) ([]domain.InstrumentSnapshot, int, error) {
	if c.HTTP == nil {
		return nil, 0, errors.New("jisilu: missing http client")
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = cfgdefaults.DefaultFetchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := c.newRequest(ctx, ep)
	if err != nil {
		return nil, 0, err
	}
	var body listingResponse
	if err := c.HTTP.DoJSON(ctx, req, &body); err != nil {
		if errors.Is(err, httpx.ErrDecode) {
			return nil, 0, fmt.Errorf("%w: %v", ErrShape, err)
		}
		return nil, 0, fmt.Errorf("jisilu: %w", err)
	}
	if body.Rows == nil {
		return nil, 0, fmt.Errorf("%w: no rows array", ErrShape)
	}

	rows := *body.Rows
	out := make([]domain.InstrumentSnapshot, 0, len(rows))
	skipped := 0
	for _, raw := range rows {
		rec, err := decodeRow(raw, ep)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, rec)
	}
	return out, skipped, nil
}

func (c *JisiluClient) newRequest(ctx context.Context, ep Endpoint) (*http.Request, error) {
	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	u, err := url.Parse(base + ep.Path)
	if err != nil {
		return nil, fmt.Errorf("jisilu: invalid url: %w", err)
	}
	pageSize := c.PageSize
	if pageSize <= 0 {
		pageSize = cfgdefaults.DefaultPageSize
	}
	q := u.Query()
	q.Set("___jsl", "LST___t="+strconv.FormatInt(c.clock()().UnixMilli(), 10))
	q.Set("rp", strconv.Itoa(pageSize))
	q.Set("page", "1")
	for k, v := range ep.Params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("jisilu: create request: %w", err)
	}
	if ep.Referer != "" {
		req.Header.Set("Referer", base+ep.Referer)
	}
	return req, nil
}

func decodeRow(raw json.RawMessage, ep Endpoint) (domain.InstrumentSnapshot, error) {
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	var row listingRow
	if err := dec.Decode(&row); err != nil {
		return domain.InstrumentSnapshot{}, err
	}
	if row.Cell == nil {
		return domain.InstrumentSnapshot{}, errors.New("row has no cell")
	}
	return mapCell(row.Cell, ep.Fields, ep.Category)
}

func mapCell(cell map[string]any, f FieldMap, category domain.Category) (domain.InstrumentSnapshot, error) {
	id := text(cell[f.ID])
	if id == "" {
		return domain.InstrumentSnapshot{}, errMissingID
	}
	ref := ParseNumber(cell[f.NAV])
	if ref == 0 && f.Estimate != "" {
		ref = ParseNumber(cell[f.Estimate])
	}
	return domain.InstrumentSnapshot{
		InstrumentID:       id,
		DisplayName:        text(cell[f.Name]),
		LastPrice:          ParseNumber(cell[f.Price]),
		ChangePct:          ParsePercent(cell[f.ChangePct]),
		ReferenceValue:     ref,
		PremiumRate:        ParsePercent(firstPresent(cell, f.Premium)),
		TradedVolume:       ParseNumber(cell[f.Volume]),
		SubscriptionStatus: text(cell[f.Status]),
		Category:           category,
	}, nil
}

func firstPresent(cell map[string]any, keys []string) any {
	for _, k := range keys {
		if v := cell[k]; !absentPremium(v) {
			return v
		}
	}
	return nil
}

// absentPremium treats a bare numeric zero like a missing field; the listing reports
// "no premium yet" that way. Zero as text ("0.00%") is a real value.
func absentPremium(v any) bool {
	if blank(v) {
		return true
	}
	if _, ok := v.(string); ok {
		return false
	}
	return parseScalar(v) == 0
}

func (c *JisiluClient) observer() FetchObserver {
	if c.Observer == nil {
		return noopObserver{}
	}
	return c.Observer
}

func (c *JisiluClient) clock() func() time.Time {
	if c.now == nil {
		return time.Now
	}
	return c.now
}
