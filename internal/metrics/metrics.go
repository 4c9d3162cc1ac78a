// Package metrics holds the Prometheus collectors exported by the server.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/krazybird78/travel-plug-checker/internal/core"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	Registry *prometheus.Registry

	Checks           *prometheus.CounterVec
	PendingChecks    prometheus.Counter
	CatalogCountries prometheus.Gauge
	CatalogErrors    prometheus.Counter
}

// New creates the collectors on a fresh registry, together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		Checks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "plugcheck_checks_total",
			Help: "Compatibility checks answered, by outcome",
		}, []string{"needs_adapter", "needs_converter"}),
		PendingChecks: factory.NewCounter(prometheus.CounterOpts{
			Name: "plugcheck_pending_checks_total",
			Help: "Checks where home or destination did not resolve to a country",
		}),
		CatalogCountries: factory.NewGauge(prometheus.GaugeOpts{
			Name: "plugcheck_catalog_countries",
			Help: "Countries in the loaded reference catalog",
		}),
		CatalogErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "plugcheck_catalog_errors_total",
			Help: "Requests that failed because the reference catalog could not be loaded",
		}),
	}
}

// ObserveCheck records one answered check.
func (m *Metrics) ObserveCheck(r core.CompatibilityResult) {
	m.Checks.WithLabelValues(
		strconv.FormatBool(r.NeedsAdapter),
		strconv.FormatBool(r.NeedsConverter),
	).Inc()
}

// ObservePending records a check that had no result yet.
func (m *Metrics) ObservePending() {
	m.PendingChecks.Inc()
}

// SetCatalogSize records the size of the loaded catalog.
func (m *Metrics) SetCatalogSize(n int) {
	m.CatalogCountries.Set(float64(n))
}

// ObserveCatalogError records a failed catalog load.
func (m *Metrics) ObserveCatalogError() {
	m.CatalogErrors.Inc()
}
