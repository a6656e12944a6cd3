package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SyncSnapshot is the point-in-time sync view exported on /-/metrics.
type SyncSnapshot struct {
	State           string
	ConflictPending bool
	QuoteCount      int
}

// SyncStates lists every value SyncSnapshot.State can take.
var SyncStates = []string{"idle", "fetching", "diverged"}

// SyncCollector exports sync gauges to Prometheus, read at scrape time.
type SyncCollector struct {
	snapshot func() SyncSnapshot

	state    *prometheus.Desc
	conflict *prometheus.Desc
	quotes   *prometheus.Desc
}

// NewSyncCollector creates a collector that calls snapshot on every scrape.
func NewSyncCollector(snapshot func() SyncSnapshot) *SyncCollector {
	return &SyncCollector{
		snapshot: snapshot,
		state: prometheus.NewDesc(
			"quotesync_sync_state",
			"1 for the current sync state, 0 otherwise.",
			[]string{"state"}, nil,
		),
		conflict: prometheus.NewDesc(
			"quotesync_conflict_pending",
			"1 while a sync conflict awaits a decision.",
			nil, nil,
		),
		quotes: prometheus.NewDesc(
			"quotesync_quotes",
			"Number of quotes in the local collection.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *SyncCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.state
	ch <- c.conflict
	ch <- c.quotes
}

// Collect implements prometheus.Collector.
func (c *SyncCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.snapshot()

	for _, state := range SyncStates {
		ch <- prometheus.MustNewConstMetric(c.state, prometheus.GaugeValue, boolGauge(snap.State == state), state)
	}

	ch <- prometheus.MustNewConstMetric(c.conflict, prometheus.GaugeValue, boolGauge(snap.ConflictPending))
	ch <- prometheus.MustNewConstMetric(c.quotes, prometheus.GaugeValue, float64(snap.QuoteCount))
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}

	return 0
}
