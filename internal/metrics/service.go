package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		RoundsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warlord_rounds_generated_total",
			Help: "The total number of tournament rounds paired and persisted.",
		}),
		RematchFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warlord_rematch_fallbacks_total",
			Help: "The total number of pairings that had to repeat an earlier match.",
		}),
		ResultTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warlord_result_transitions_total",
			Help: "The total number of match result transitions, by target status.",
		}, []string{"status"}),
		Conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warlord_write_conflicts_total",
			Help: "The total number of writes rejected by a version check.",
		}),
		TournamentsFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warlord_tournaments_finished_total",
			Help: "The total number of tournaments finished.",
		}),
		StandingsDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "warlord_standings_duration_seconds",
			Help:    "The duration of a standings computation.",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
		SlackNotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warlord_slack_notifications_sent_total",
			Help: "The total number of Slack notifications successfully sent.",
		}),
		SlackNotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warlord_slack_notifications_failed_total",
			Help: "The total number of Slack notifications that failed to send.",
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "warlord_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.RoundsGenerated,
		s.RematchFallbacks,
		s.ResultTransitions,
		s.Conflicts,
		s.TournamentsFinished,
		s.StandingsDuration,
		s.SlackNotifSent,
		s.SlackNotifFailed,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncRoundsGenerated() {
	s.RoundsGenerated.Inc()
}

func (s *Service) IncRematchFallbacks(count int) {
	s.RematchFallbacks.Add(float64(count))
}

func (s *Service) IncResultTransitions(status string) {
	s.ResultTransitions.WithLabelValues(status).Inc()
}

func (s *Service) IncConflicts() {
	s.Conflicts.Inc()
}

func (s *Service) IncTournamentsFinished() {
	s.TournamentsFinished.Inc()
}

func (s *Service) ObserveStandingsDuration(duration float64) {
	s.StandingsDuration.Observe(duration)
}

func (s *Service) IncSlackNotifSent() {
	s.SlackNotifSent.Inc()
}

func (s *Service) IncSlackNotifFailed() {
	s.SlackNotifFailed.Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
