// Package metrics provides Prometheus metrics for publishing and migrations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/muhamedRadwan/subscriptions/pkg/publish"
)

// Metrics implements publish.Observer and migrate.Observer.
type Metrics struct {
	publishRuns  *prometheus.CounterVec
	publishFiles *prometheus.CounterVec
	migrations   *prometheus.CounterVec
}

// New registers the collectors with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		publishRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subscriptions_publish_runs_total",
				Help: "Total number of publish runs",
			},
			[]string{"tag", "outcome"},
		),
		publishFiles: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subscriptions_publish_files_total",
				Help: "Total number of files handled by publish runs",
			},
			[]string{"tag", "status"},
		),
		migrations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subscriptions_migrations_total",
				Help: "Total number of migration steps",
			},
			[]string{"direction", "status"},
		),
	}
}

// ObservePublish implements publish.Observer.
func (m *Metrics) ObservePublish(result *publish.Result) {
	outcome := "ok"
	switch {
	case result.Suppressed:
		outcome = "suppressed"
	case result.Count(publish.StatusFailed) > 0:
		outcome = "partial"
	}
	m.publishRuns.WithLabelValues(result.Tag, outcome).Inc()

	for _, o := range result.Outcomes {
		m.publishFiles.WithLabelValues(result.Tag, string(o.Status)).Inc()
	}
}

// ObserveMigration implements migrate.Observer.
func (m *Metrics) ObserveMigration(direction, _ string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.migrations.WithLabelValues(direction, status).Inc()
}
