package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const (
	namespace = "roleseer"
)

var (
	// Statuses: "ok" (snapshot replaced), "missing" (document absent),
	//           "bad_format" (decode or unsupported-suffix failure),
	//           "fetch_error" (backing store unreachable).
	MetricReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "Reload attempts of the role document, by source and outcome.",
		},
		[]string{"source", "status"},
	)

	// Set on every successful reload. Staleness alerts come from comparing
	// this against wall time.
	MetricLastReload = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_reload_timestamp_seconds",
			Help:      "Unix time of the last successful reload, by source.",
		},
		[]string{"source"},
	)

	// Statuses: "hit" (a server was selected),
	//           "miss" (role absent or has zero servers).
	MetricLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Role lookups, by outcome.",
		},
		[]string{"status"},
	)
)

// InitMetricServer exposes /metrics on the given address in the background.
func InitMetricServer(listen string) {
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		logrus.Infof("Metrics server listening on %s", listen)
		if err := http.ListenAndServe(listen, nil); err != nil {
			logrus.Fatalf("Failed to start metrics server: %v", err)
		}
	}()
}
