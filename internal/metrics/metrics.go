// Package metrics exposes the pipeline's Prometheus counters. They are
// registered on the default registry; the CLI serves them only when a
// listen address is configured, so library users pay nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecordsFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "optimizer_records_fetched_total",
		Help: "Canonical records returned by adapter fetches.",
	}, []string{"source"})

	RecordsInserted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "optimizer_records_inserted_total",
		Help: "Records newly inserted into the store.",
	}, []string{"source"})

	RecordsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "optimizer_records_skipped_total",
		Help: "Records skipped as duplicates on (source, native_id).",
	}, []string{"source"})

	RecordsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "optimizer_records_failed_total",
		Help: "Records whose store write failed.",
	}, []string{"source"})

	AlertsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "optimizer_alerts_sent_total",
		Help: "Alerts delivered per sink.",
	}, []string{"sink"})

	AlertsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "optimizer_alerts_dropped_total",
		Help: "Alerts dropped after exhausting delivery retries.",
	}, []string{"sink"})
)
