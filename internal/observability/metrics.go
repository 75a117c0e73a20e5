package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	usagePersistedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "focus_service",
		Subsystem: "persistence",
		Name:      "usage_records_persisted_total",
		Help:      "Usage records written to Postgres, by record kind.",
	}, []string{"kind"})
	summaryPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "focus_service",
		Subsystem: "persistence",
		Name:      "last_summary_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent productivity summary merge.",
	})
	focusScoreGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "focus_service",
		Subsystem: "analysis",
		Name:      "last_focus_score",
		Help:      "Focus score of the most recently merged summary.",
	})
	classificationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "focus_service",
		Subsystem: "analysis",
		Name:      "classifications_total",
		Help:      "Classified activities, by predicted label.",
	}, []string{"label"})
)

func init() {
	prometheus.MustRegister(usagePersistedCounter, summaryPersistGauge, focusScoreGauge, classificationCounter)
}

// RecordUsagePersisted counts usage rows written in one batch.
func RecordUsagePersisted(apps, tabs int) {
	if apps > 0 {
		usagePersistedCounter.WithLabelValues("app").Add(float64(apps))
	}
	if tabs > 0 {
		usagePersistedCounter.WithLabelValues("tab").Add(float64(tabs))
	}
}

// RecordSummaryPersisted updates the merge watermark and score gauges.
func RecordSummaryPersisted(focusScore int, ts time.Time) {
	if ts.IsZero() {
		return
	}
	summaryPersistGauge.Set(float64(ts.Unix()))
	focusScoreGauge.Set(float64(focusScore))
}

// RecordClassification counts one classified activity.
func RecordClassification(label string) {
	classificationCounter.WithLabelValues(label).Inc()
}
