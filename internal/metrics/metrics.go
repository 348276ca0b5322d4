package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "squabble"

var (
	RoomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rooms_active",
		Help:      "Rooms held in memory.",
	})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ws_connections",
		Help:      "Open websocket connections.",
	})

	WordsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "words_submitted_total",
		Help:      "Submitted words by result.",
	}, []string{"result"})

	GamesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "games_started_total",
		Help:      "Games moved to PLAYING.",
	})

	GamesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "games_finished_total",
		Help:      "Finished games by reason.",
	}, []string{"reason"})

	CollaboratorFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "collaborator_failures_total",
		Help:      "Failed calls to external collaborators.",
	}, []string{"collaborator"})

	CacheLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_loads_total",
		Help:      "Room lookups by tier hit.",
	}, []string{"result"})
)

// значения меток
const (
	ResultAccepted        = "accepted"
	ResultWordNotValid    = "word_not_valid"
	ResultAdjacentInvalid = "adjacent_not_valid"
	ResultRejected        = "rejected"

	ReasonExpired   = "expired"
	ReasonAbandoned = "abandoned"

	CacheMemory    = "memory"
	CacheDurable   = "durable"
	CacheMiss      = "miss"
	CacheMalformed = "malformed"
)

// Failure увеличивает счетчик сбоев внешнего вызова
func Failure(collaborator string) {
	CollaboratorFailures.WithLabelValues(collaborator).Inc()
}
