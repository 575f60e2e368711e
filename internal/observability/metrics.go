package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveGames      prometheus.Gauge
	MovesSubmitted   *prometheus.CounterVec
	OracleErrors     *prometheus.CounterVec
	TutorActions     *prometheus.CounterVec
	PolicyUpdates    prometheus.Counter
	PolicyLoss       prometheus.Histogram
	Rewards          prometheus.Histogram
	ExplanationCache *prometheus.CounterVec
	WSMessages       *prometheus.CounterVec
	PuzzlesServed    *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveGames: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_games",
			Help:      "Number of games currently in progress.",
		}),
		MovesSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_submitted_total",
			Help:      "Submitted moves by outcome.",
		}, []string{"outcome"}),
		OracleErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_errors_total",
			Help:      "Analysis oracle failures by operation.",
		}, []string{"operation"}),
		TutorActions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tutor_actions_total",
			Help:      "Tutoring actions selected by the policy.",
		}, []string{"action"}),
		PolicyUpdates: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "policy_updates_total",
			Help:      "Completed policy gradient steps.",
		}),
		PolicyLoss: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "policy_loss",
			Help:      "Loss per policy update.",
			Buckets:   []float64{-2, -1, -0.5, 0, 0.5, 1, 2, 5, 10},
		}),
		Rewards: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "outcome_reward",
			Help:      "Scalar reward per reported outcome.",
			Buckets:   []float64{-0.5, -0.2, 0, 0.3, 0.5, 1, 1.3, 1.5, 1.8},
		}),
		ExplanationCache: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "explanation_cache_total",
			Help:      "Explanation cache lookups by result.",
		}, []string{"result"}),
		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket messages by direction and type.",
		}, []string{"direction", "type"}),
		PuzzlesServed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "puzzles_served_total",
			Help:      "Adaptive puzzles served by tier.",
		}, []string{"tier"}),
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
