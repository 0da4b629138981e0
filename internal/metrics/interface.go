package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncRoundsGenerated()
	IncRematchFallbacks(count int)
	IncResultTransitions(status string)
	IncConflicts()
	IncTournamentsFinished()
	ObserveStandingsDuration(duration float64)
	IncSlackNotifSent()
	IncSlackNotifFailed()
	SetStartupTime(duration float64)
}
