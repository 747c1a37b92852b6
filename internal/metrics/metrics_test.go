package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	m := NewMetrics()
	m.ObserveTicker(true, 250)
	m.ObserveTicker(true, 100)
	m.ObserveTicker(false, 0)
	m.ObserveFetch(120 * time.Millisecond)
	m.RunFinished(time.Unix(1672300000, 0), 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TickersTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TickersTotal.WithLabelValues("error")))
	assert.Equal(t, 350.0, testutil.ToFloat64(m.RowsTotal))
	assert.Equal(t, 1672300000.0, testutil.ToFloat64(m.LastRunTime))
	assert.Equal(t, 1, testutil.CollectAndCount(m.FetchDur))
}

func TestHandler(t *testing.T) {
	m := NewMetrics()
	m.ObserveTicker(true, 10)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `vnpanel_tickers_total{result="ok"} 1`)
	assert.Contains(t, string(body), "vnpanel_rows_total 10")
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveTicker(true, 1)
	m.ObserveFetch(time.Second)
	m.ObserveIndicators(time.Second)
	m.RunFinished(time.Now(), 0)
}
