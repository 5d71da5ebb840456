package main

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/charlieloganx23/apibet/internal/api/ws"
	"github.com/charlieloganx23/apibet/internal/ingest"
	"github.com/charlieloganx23/apibet/internal/match"
	"github.com/charlieloganx23/apibet/internal/provider"
)

// appMetrics agrupa os coletores Prometheus do processo
type appMetrics struct {
	providerRequests *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec
	matchesIngested  *prometheus.CounterVec
	resultsApplied   *prometheus.CounterVec
	statusChanges    *prometheus.CounterVec
	errorsBy         *prometheus.CounterVec
	cycleDuration    prometheus.Histogram
	cycles           *prometheus.CounterVec
	wsConnections    prometheus.Gauge
}

func newMetrics() *appMetrics {
	m := &appMetrics{
		providerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{Name: "apibet_provider_requests_total", Help: "requisições ao provedor por endpoint e código"}, []string{"endpoint", "code"}),
		providerLatency:  prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "apibet_provider_request_seconds", Help: "latência das requisições ao provedor", Buckets: prometheus.DefBuckets}, []string{"endpoint"}),
		matchesIngested:  prometheus.NewCounterVec(prometheus.CounterOpts{Name: "apibet_matches_ingested_total", Help: "partidas gravadas por liga e tipo (new|updated)"}, []string{"league", "kind"}),
		resultsApplied:   prometheus.NewCounterVec(prometheus.CounterOpts{Name: "apibet_results_applied_total", Help: "placares gravados por liga"}, []string{"league"}),
		statusChanges:    prometheus.NewCounterVec(prometheus.CounterOpts{Name: "apibet_status_changes_total", Help: "mudanças de status por destino"}, []string{"status"}),
		errorsBy:         prometheus.NewCounterVec(prometheus.CounterOpts{Name: "apibet_ingest_errors_total", Help: "erros de ingestão por liga e estágio"}, []string{"league", "stage"}),
		cycleDuration:    prometheus.NewHistogram(prometheus.HistogramOpts{Name: "apibet_sync_cycle_seconds", Help: "duração do ciclo completo", Buckets: []float64{1, 5, 15, 30, 60, 120, 300}}),
		cycles:           prometheus.NewCounterVec(prometheus.CounterOpts{Name: "apibet_sync_cycles_total", Help: "ciclos completos por resultado (ok|error)"}, []string{"outcome"}),
		wsConnections:    prometheus.NewGauge(prometheus.GaugeOpts{Name: "apibet_ws_connections", Help: "conexões WebSocket abertas"}),
	}
	prometheus.MustRegister(
		m.providerRequests, m.providerLatency, m.matchesIngested, m.resultsApplied,
		m.statusChanges, m.errorsBy, m.cycleDuration, m.cycles, m.wsConnections,
	)
	return m
}

func (m *appMetrics) wireProvider(c *provider.Client) {
	c.OnRequest = func(endpoint string, code int, elapsed time.Duration) {
		m.providerRequests.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
		m.providerLatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
	}
}

func (m *appMetrics) wireIngest(o *ingest.OddsIngester, r *ingest.ResultsCollector, s *ingest.StatusSyncer) {
	onError := func(league, stage string) { m.errorsBy.WithLabelValues(league, stage).Inc() }
	o.OnMatch = func(league string, created bool) {
		kind := "updated"
		if created {
			kind = "new"
		}
		m.matchesIngested.WithLabelValues(league, kind).Inc()
	}
	o.OnError = onError
	r.OnResult = func(league string) { m.resultsApplied.WithLabelValues(league).Inc() }
	r.OnError = onError
	s.OnChange = func(to match.Status) { m.statusChanges.WithLabelValues(string(to)).Inc() }
}

func (m *appMetrics) wireRunner(r *ingest.Runner) {
	r.OnCycle = func(_ ingest.SyncReport, err error, elapsed time.Duration) {
		m.cycleDuration.Observe(elapsed.Seconds())
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		m.cycles.WithLabelValues(outcome).Inc()
	}
}

func (m *appMetrics) wireHub(h *ws.Hub) {
	h.OnCount = func(n int) { m.wsConnections.Set(float64(n)) }
}
