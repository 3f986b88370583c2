// Package metrics exposes the engine's operational counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Engine groups the detector's Prometheus instruments.
type Engine struct {
	FlowsIngested     prometheus.Counter
	RecordsSkipped    prometheus.Counter
	WindowsClassified prometheus.Counter
	WindowsSkipped    prometheus.Counter
	AttackersFlagged  prometheus.Counter
	TrackedHosts      prometheus.Gauge
}

// NewEngine registers the engine instruments on a fresh registry and
// returns them with the matching /metrics handler.
func NewEngine() (*Engine, http.Handler) {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	e := &Engine{
		FlowsIngested: factory.NewCounter(prometheus.CounterOpts{
			Name: "floodsight_flows_ingested_total",
			Help: "Flow records accepted by the engine.",
		}),
		RecordsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "floodsight_records_skipped_total",
			Help: "Flow records rejected as invalid.",
		}),
		WindowsClassified: factory.NewCounter(prometheus.CounterOpts{
			Name: "floodsight_windows_classified_total",
			Help: "Time windows with a completed clustering pass.",
		}),
		WindowsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "floodsight_windows_skipped_total",
			Help: "Time windows left unclassified (fewer hosts than clusters).",
		}),
		AttackersFlagged: factory.NewCounter(prometheus.CounterOpts{
			Name: "floodsight_attackers_flagged_total",
			Help: "Hosts placed in an attack cluster across all windows.",
		}),
		TrackedHosts: factory.NewGauge(prometheus.GaugeOpts{
			Name: "floodsight_tracked_hosts",
			Help: "Hosts currently held in the graph.",
		}),
	}
	return e, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
