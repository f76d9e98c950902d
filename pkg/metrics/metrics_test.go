package metrics_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muhamedRadwan/subscriptions/pkg/metrics"
	"github.com/muhamedRadwan/subscriptions/pkg/publish"
)

func TestObservePublish(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObservePublish(&publish.Result{
		Tag: "rinvex/subscriptions::migrations",
		Outcomes: []publish.Outcome{
			{Status: publish.StatusCopied},
			{Status: publish.StatusCopied},
			{Status: publish.StatusFailed, Err: errors.New("denied")},
		},
	})
	m.ObservePublish(&publish.Result{Tag: "rinvex/subscriptions::config", Suppressed: true})

	files, err := testutil.GatherAndCount(reg, "subscriptions_publish_files_total")
	require.NoError(t, err)
	assert.Equal(t, 2, files)

	expected := `
# HELP subscriptions_publish_runs_total Total number of publish runs
# TYPE subscriptions_publish_runs_total counter
subscriptions_publish_runs_total{outcome="partial",tag="rinvex/subscriptions::migrations"} 1
subscriptions_publish_runs_total{outcome="suppressed",tag="rinvex/subscriptions::config"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "subscriptions_publish_runs_total"))
}

func TestObserveMigration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveMigration("up", "a", nil)
	m.ObserveMigration("up", "b", nil)
	m.ObserveMigration("down", "b", errors.New("boom"))

	expected := `
# HELP subscriptions_migrations_total Total number of migration steps
# TYPE subscriptions_migrations_total counter
subscriptions_migrations_total{direction="down",status="error"} 1
subscriptions_migrations_total{direction="up",status="success"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "subscriptions_migrations_total"))
}
