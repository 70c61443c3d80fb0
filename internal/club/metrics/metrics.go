package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the club module.
type Metrics struct {
	ClubsCreated   prometheus.Counter
	ClubsDisbanded prometheus.Counter
	MembersJoined  prometheus.Counter
	MembersLeft    prometheus.Counter
}

// New creates a new Metrics instance with all club module metrics registered.
func New() *Metrics {
	return &Metrics{
		ClubsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "turfwars_clubs_created_total",
			Help: "Total number of clubs created",
		}),
		ClubsDisbanded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "turfwars_clubs_disbanded_total",
			Help: "Total number of clubs disbanded by their last member leaving",
		}),
		MembersJoined: promauto.NewCounter(prometheus.CounterOpts{
			Name: "turfwars_club_members_joined_total",
			Help: "Total number of successful club joins",
		}),
		MembersLeft: promauto.NewCounter(prometheus.CounterOpts{
			Name: "turfwars_club_members_left_total",
			Help: "Total number of members who left a club",
		}),
	}
}
