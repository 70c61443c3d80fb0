package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the battle module.
type Metrics struct {
	Challenges        *prometheus.CounterVec
	ChallengeDuration prometheus.Histogram
}

// New creates a new Metrics instance with all battle module metrics
// registered.
func New() *Metrics {
	return &Metrics{
		Challenges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "turfwars_challenges_total",
			Help: "Total number of resolved challenges by outcome",
		}, []string{"outcome"}),
		ChallengeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "turfwars_challenge_duration_seconds",
			Help:    "Duration of challenge resolution (lock + transaction)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveChallenge records one resolved challenge.
func (m *Metrics) ObserveChallenge(victory bool, start time.Time) {
	outcome := "defeat"
	if victory {
		outcome = "victory"
	}
	m.Challenges.WithLabelValues(outcome).Inc()
	m.ChallengeDuration.Observe(time.Since(start).Seconds())
}
