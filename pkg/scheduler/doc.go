/*
Package scheduler provides the simulator's discrete-event engine: a single
priority queue over (VirtualTime, Seq), dispatching Events to registered
handlers with no goroutines, no wall clock, and no suspension points.

# Architecture

	┌──────────────────────── SCHEDULER ─────────────────────────┐
	│                                                              │
	│   Schedule(delay, ev) ──▶  container/heap  ──▶  RunUntil    │
	│                             keyed by                        │
	│                           (Time, Seq)                       │
	│                                                              │
	│   Cancel(id)  ──▶  marks the heap item's tombstone;         │
	│                    the item stays in the heap until its     │
	│                    turn, then is skipped on pop             │
	└──────────────────────────────────────────────────────────────┘

RunUntil(tMax) pops items in (Time, Seq) order. Time ties are broken by
Seq, the order Schedule was called in, so two events due at the same
virtual instant are always processed in a deterministic, reproducible
order regardless of map iteration or any other incidental ordering
source. Each popped, non-cancelled item's payload is handed to the
Handler registered for its EventKind; RunUntil returns once the heap is
drained or the next item's Time exceeds tMax, whichever comes first.

# Cancellation

There is no goroutine to kill and no timer to stop: Cancel flips a
boolean on the still-heap-resident item. This is the generation-counter
pattern used throughout the simulator (pkg/raft bumps a node's own
generation instead of calling Cancel directly, since a Raft node may
have many outstanding timers referenced only by the generation they were
issued under) applied at the scheduler's own bookkeeping layer.

# Determinism

Scheduling decisions never read the wall clock, a goroutine, or global
state; the only wall-clock read is the duration RunUntil records into the
scheduler_batch_seconds histogram, which nothing reads back. Given the
same sequence of Schedule/Cancel calls, RunUntil
produces the same sequence of handler invocations every time, which is
the property the rest of the simulator (network jitter, election
timeouts, fault toggles) is built on top of.
*/
package scheduler
