package refresh

import "github.com/prometheus/client_golang/prometheus"

var (
	refreshRunsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "focus_service",
		Subsystem: "refresh",
		Name:      "runs_total",
		Help:      "Number of completed background refresh sweeps.",
	})

	refreshedUsersGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "focus_service",
		Subsystem: "refresh",
		Name:      "last_run_users",
		Help:      "Number of users refreshed in the most recent sweep.",
	})
)

func init() {
	prometheus.MustRegister(refreshRunsCounter, refreshedUsersGauge)
}

func recordRefreshRun(users int) {
	refreshRunsCounter.Inc()
	refreshedUsersGauge.Set(float64(users))
}
