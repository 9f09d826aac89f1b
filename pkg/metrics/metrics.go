package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Agent lifecycle metrics
	AgentsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "moai_flow_agents_total",
			Help: "Total number of agents by status",
		},
		[]string{"status"},
	)

	AgentsSpawnedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "moai_flow_agents_spawned_total",
			Help: "Total number of agents spawned over the process lifetime",
		},
	)

	AgentsFailedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "moai_flow_agents_failed_total",
			Help: "Total number of agents marked failed",
		},
	)

	// Topology metrics
	TopologyMembersTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "moai_flow_topology_members_total",
			Help: "Current number of topology members",
		},
	)

	BroadcastsDeliveredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "moai_flow_broadcasts_delivered_total",
			Help: "Total number of broadcast messages delivered to a mailbox",
		},
	)

	// Consensus metrics
	ProposalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moai_flow_proposals_total",
			Help: "Total number of consensus proposals by algorithm and decision",
		},
		[]string{"algorithm", "decision"},
	)

	ConsensusDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moai_flow_consensus_duration_seconds",
			Help:    "Time to resolve a consensus proposal in seconds, by algorithm",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"algorithm"},
	)

	VotesRecordedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moai_flow_votes_recorded_total",
			Help: "Total number of votes recorded by choice",
		},
		[]string{"choice"},
	)

	// Token budget metrics
	TokenBudgetAllocated = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "moai_flow_token_budget_allocated",
			Help: "Current sum of all token allocations",
		},
	)

	TokenBudgetConsumed = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "moai_flow_token_budget_consumed",
			Help: "Current sum of all token consumption",
		},
	)

	// Pattern collector metrics
	PatternsCollectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moai_flow_patterns_collected_total",
			Help: "Total number of patterns collected by type",
		},
		[]string{"type"},
	)

	// Event store metrics
	EventsStoredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "moai_flow_events_stored_total",
			Help: "Total number of events written to the event store",
		},
	)
)

func init() {
	prometheus.MustRegister(AgentsTotal)
	prometheus.MustRegister(AgentsSpawnedTotal)
	prometheus.MustRegister(AgentsFailedTotal)
	prometheus.MustRegister(TopologyMembersTotal)
	prometheus.MustRegister(BroadcastsDeliveredTotal)
	prometheus.MustRegister(ProposalsTotal)
	prometheus.MustRegister(ConsensusDuration)
	prometheus.MustRegister(VotesRecordedTotal)
	prometheus.MustRegister(TokenBudgetAllocated)
	prometheus.MustRegister(TokenBudgetConsumed)
	prometheus.MustRegister(PatternsCollectedTotal)
	prometheus.MustRegister(EventsStoredTotal)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
