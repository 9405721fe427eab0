/*
Package metrics registers the simulator's Prometheus metrics: observable
counters for message drops, retries, and elections started, plus gauges
that mirror a run's current Status().

	┌─────────────── METRICS ───────────────┐
	│ Counters (monotonic, never reset):    │
	│   messages_sent / delivered / dropped │
	│   messages_duplicated                 │
	│   elections_started                   │
	│   heartbeats_sent                     │
	│   append_entries_retries              │
	│ Gauges (per-node, snapshot of Status):│
	│   node_term, node_commit_index        │
	│   node_is_leader (0/1)                │
	│ Histogram (wall clock, not virtual):  │
	│   scheduler_batch_seconds             │
	└────────────────────────────────────────┘

Timer wraps the scheduler_batch_seconds histogram: pkg/scheduler.RunUntil
starts one on entry and observes it on return, so the wall-clock cost of a
single batch of event dispatch is visible even though the events
themselves are ordered by virtual time.

Metrics are registered once at package init via prometheus.MustRegister,
exactly as the reference orchestrator does, so every Simulator in a process
shares one registry — tests that construct multiple Simulators read the same
counters rather than isolated ones, which is intentional: the metrics exist
to observe cumulative simulator behavior across a process, not one run.
*/
package metrics
