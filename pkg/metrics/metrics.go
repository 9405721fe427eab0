package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Network metrics
	MessagesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "raftsim_messages_sent_total",
			Help: "Total number of messages passed to Network.Send",
		},
	)

	MessagesDelivered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "raftsim_messages_delivered_total",
			Help: "Total number of Deliver events dispatched to a node",
		},
	)

	MessagesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raftsim_messages_dropped_total",
			Help: "Total number of messages dropped, by reason",
		},
		[]string{"reason"}, // "crashed", "partitioned", "random"
	)

	MessagesDuplicated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "raftsim_messages_duplicated_total",
			Help: "Total number of extra Deliver events scheduled by the duplicate-rate roll",
		},
	)

	// Raft metrics
	ElectionsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "raftsim_elections_started_total",
			Help: "Total number of times a node transitioned to Candidate",
		},
	)

	HeartbeatsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "raftsim_heartbeats_sent_total",
			Help: "Total number of AppendEntries RPCs sent by a leader, on HeartbeatTick or on command submission",
		},
	)

	AppendEntriesRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "raftsim_append_entries_retries_total",
			Help: "Total number of times a leader decremented nextIndex after a rejected AppendEntries",
		},
	)

	CommandsCommitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "raftsim_commands_committed_total",
			Help: "Total number of committed log entries applied, counted once per entry on every node",
		},
	)

	// Per-node gauges, keyed by node_id
	NodeTerm = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "raftsim_node_term",
			Help: "Current term reported by each node's last processed event",
		},
		[]string{"node_id"},
	)

	NodeCommitIndex = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "raftsim_node_commit_index",
			Help: "Current commit index reported by each node",
		},
		[]string{"node_id"},
	)

	NodeIsLeader = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "raftsim_node_is_leader",
			Help: "Whether a node is Leader in its current term (1) or not (0)",
		},
		[]string{"node_id"},
	)

	// Scheduler metrics
	EventsProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "raftsim_events_processed_total",
			Help: "Total number of events popped and dispatched by the scheduler",
		},
	)

	EventsCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "raftsim_events_cancelled_total",
			Help: "Total number of events that were cancelled before being popped",
		},
	)

	SchedulerBatchSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "raftsim_scheduler_batch_seconds",
			Help:    "Wall-clock time a single RunUntil call spent dispatching events",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(MessagesSent)
	prometheus.MustRegister(MessagesDelivered)
	prometheus.MustRegister(MessagesDropped)
	prometheus.MustRegister(MessagesDuplicated)
	prometheus.MustRegister(ElectionsStarted)
	prometheus.MustRegister(HeartbeatsSent)
	prometheus.MustRegister(AppendEntriesRetries)
	prometheus.MustRegister(CommandsCommitted)
	prometheus.MustRegister(NodeTerm)
	prometheus.MustRegister(NodeCommitIndex)
	prometheus.MustRegister(NodeIsLeader)
	prometheus.MustRegister(EventsProcessed)
	prometheus.MustRegister(EventsCancelled)
	prometheus.MustRegister(SchedulerBatchSeconds)
}

// Timer measures a wall-clock interval — how long a RunUntil call spent
// dispatching events — distinct from the simulator's own virtual time.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time since NewTimer to histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}
