package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the territory module.
type Metrics struct {
	Claimed        prometheus.Counter
	DefendersAdded prometheus.Counter
}

// New creates a new Metrics instance with all territory module metrics
// registered.
func New() *Metrics {
	return &Metrics{
		Claimed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "turfwars_territories_claimed_total",
			Help: "Total number of successful territory claims",
		}),
		DefendersAdded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "turfwars_territory_defenders_added_total",
			Help: "Total number of defenders added to territory rosters",
		}),
	}
}
