package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	m.FetchFailed("index_lof", "shape")
	m.RowsParsed("index_lof", 3, 1)
	m.FetchDuration("index_lof", time.Second)
	m.RecordRun("ok", 10, time.Now())
	m.SetSchedulerState("idle", "idle", "fetching")
	m.ObserveHTTP("/api/instruments", http.MethodGet, 200, time.Millisecond)
	require.Nil(t, m.Registry())
}

func TestMetrics_Counters(t *testing.T) {
	m := New("test")
	m.FetchFailed("qdii_lof", "transport")
	m.FetchFailed("qdii_lof", "transport")
	m.RowsParsed("index_lof", 5, 2)
	m.RecordRun("ok", 42, time.Unix(1700000000, 0))
	m.RecordRun("locked", 0, time.Now())

	require.Equal(t, 2.0, testutil.ToFloat64(m.fetchFailures.WithLabelValues("qdii_lof", "transport")))
	require.Equal(t, 5.0, testutil.ToFloat64(m.rowsParsed.WithLabelValues("index_lof")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.rowsSkipped.WithLabelValues("index_lof")))
	require.Equal(t, 42.0, testutil.ToFloat64(m.recordRows))
	require.Equal(t, 1700000000.0, testutil.ToFloat64(m.lastRecordSuccess))
	require.Equal(t, 1.0, testutil.ToFloat64(m.recordRuns.WithLabelValues("locked")))
}

func TestMetrics_SchedulerStateOneHot(t *testing.T) {
	m := New("test")
	states := []string{"idle", "triggered", "fetching", "writing"}
	m.SetSchedulerState("fetching", states...)
	require.Equal(t, 1.0, testutil.ToFloat64(m.schedulerState.WithLabelValues("fetching")))
	require.Equal(t, 0.0, testutil.ToFloat64(m.schedulerState.WithLabelValues("idle")))

	m.SetSchedulerState("idle", states...)
	require.Equal(t, 0.0, testutil.ToFloat64(m.schedulerState.WithLabelValues("fetching")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.schedulerState.WithLabelValues("idle")))
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a, b := New("test"), New("test")
	a.FetchFailed("x", "shape")
	require.Equal(t, 0.0, testutil.ToFloat64(b.fetchFailures.WithLabelValues("x", "shape")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New("lof_premium")
	m.ObserveHTTP("/healthz", http.MethodGet, 200, time.Millisecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `lof_premium_http_requests_total{code="200",method="GET",route="/healthz"} 1`)
}
