// Package metrics holds Prometheus instruments that are used across the
// service.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ScansTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scans_total",
			Help: "Cumulative number of scan requests received.",
		})

	RedirectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "redirects_total",
			Help: "Cumulative number of redirects served to visitors.",
		})

	BlockedRedirectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "blocked_redirects_total",
			Help: "Cumulative number of redirects blocked by the URL classifier.",
		})

	ExhaustedCodesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "exhausted_codes_total",
			Help: "Cumulative number of scans that hit an exhausted scan limit.",
		})

	StageDegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stage_degraded_total",
			Help: "Resolution stages that failed and fell through to the next stage.",
		},
		[]string{"stage"},
	)

	RecordCacheLoads = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "record_cache_loads_total",
			Help: "Cumulative number of QR records loaded into the hot cache.",
		})

	RecordCacheEvictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "record_cache_evictions_total",
			Help: "Cumulative number of QR records evicted from the hot cache.",
		})
)

func init() {
	prometheus.MustRegister(
		ScansTotal,
		RedirectsTotal,
		BlockedRedirectsTotal,
		ExhaustedCodesTotal,
		StageDegradedTotal,
		RecordCacheLoads,
		RecordCacheEvictions,
	)
}
