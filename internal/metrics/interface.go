package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the rating engine from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncMatchesRecorded()
	IncRecalculations()
	ObserveRecalculationDuration(duration float64)
	AddAnomalies(n int)
	IncSlackNotifSent()
	IncSlackNotifFailed()
	SetStartupTime(duration float64)
}
