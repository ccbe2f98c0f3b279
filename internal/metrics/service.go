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
		MatchesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pingpong_matches_recorded_total",
			Help: "The total number of matches appended to the ledger.",
		}),
		Recalculations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pingpong_recalculations_total",
			Help: "The total number of full rating recalculations.",
		}),
		RecalculationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pingpong_recalculation_duration_seconds",
			Help:    "The duration of full ledger replays.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		LedgerAnomalies: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pingpong_ledger_anomalies_total",
			Help: "The total number of ledger entries skipped during replay.",
		}),
		SlackNotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pingpong_slack_notifications_sent_total",
			Help: "The total number of Slack notifications successfully sent.",
		}),
		SlackNotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pingpong_slack_notifications_failed_total",
			Help: "The total number of Slack notifications that failed to send.",
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pingpong_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.MatchesRecorded,
		s.Recalculations,
		s.RecalculationDuration,
		s.LedgerAnomalies,
		s.SlackNotifSent,
		s.SlackNotifFailed,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncMatchesRecorded() {
	s.MatchesRecorded.Inc()
}

func (s *Service) IncRecalculations() {
	s.Recalculations.Inc()
}

func (s *Service) ObserveRecalculationDuration(duration float64) {
	s.RecalculationDuration.Observe(duration)
}

func (s *Service) AddAnomalies(n int) {
	s.LedgerAnomalies.Add(float64(n))
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
