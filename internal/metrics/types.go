package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
type Service struct {
	MatchesRecorded       prometheus.Counter
	Recalculations        prometheus.Counter
	RecalculationDuration prometheus.Histogram
	LedgerAnomalies       prometheus.Counter
	SlackNotifSent        prometheus.Counter
	SlackNotifFailed      prometheus.Counter
	StartupTimeSeconds    prometheus.Gauge
}
