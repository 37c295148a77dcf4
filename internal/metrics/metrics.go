// Package metrics holds the Prometheus instruments of the service.  All
// collectors are registered with the default registry and exposed on
// /metrics by the server.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ZoneRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dynroute53_zone_refresh_total",
			Help: "Zone cache refreshes by result (ok, upstream_error, error).",
		}, []string{"result"})

	CachedZones = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dynroute53_cached_zones",
			Help: "Zones currently cached per credential account.",
		}, []string{"account_id"})

	DomainWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dynroute53_domain_writes_total",
			Help: "Committed domain writes by operation.",
		}, []string{"op"})

	SettingWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dynroute53_setting_writes_total",
			Help: "Setting updates and resets by key.",
		}, []string{"key", "op"})

	APIErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dynroute53_api_errors_total",
			Help: "API error responses by error kind.",
		}, []string{"kind"})
)

func init() {
	prometheus.MustRegister(
		ZoneRefreshTotal,
		CachedZones,
		DomainWritesTotal,
		SettingWritesTotal,
		APIErrorsTotal,
	)
}
