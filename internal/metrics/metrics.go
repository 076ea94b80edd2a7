// Package metrics exposes the server's prometheus instrumentation.
// Labels are bounded (phases, error codes, rarities) so hostile input can
// never grow cardinality.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RoomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gardenwars_rooms_active",
		Help: "Rooms currently alive",
	})

	SessionsConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gardenwars_sessions_connected",
		Help: "WebSocket sessions currently connected",
	})

	MatchesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gardenwars_matches_finished_total",
		Help: "Matches finished by win reason",
	}, []string{"reason"}) // bounded: castle_destroyed, opponent_disconnected

	UnitsSpawned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gardenwars_units_spawned_total",
		Help: "Units successfully summoned",
	})

	CommandsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gardenwars_commands_rejected_total",
		Help: "Client commands rejected by validation, by error code",
	}, []string{"code"}) // bounded: the fixed error code set

	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gardenwars_tick_duration_seconds",
		Help:    "Time spent in one room tick",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05},
	})

	ConnectionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gardenwars_connections_rejected_total",
		Help: "Upgrade attempts rejected before reaching a room",
	}, []string{"reason"}) // bounded: rate_limit, room_full, bad_request

	ResultSinkErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gardenwars_result_sink_errors_total",
		Help: "Failed battle result persistence attempts",
	})
)

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
