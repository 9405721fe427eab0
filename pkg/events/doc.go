/*
Package events provides an in-memory trace broker for the simulator's
observable history: leader elections, crashes, partitions, and commits,
published as they happen during a Run so a caller can watch or record a
run without coupling pkg/sim to any particular sink.

	┌──────────────────── TRACE BROKER ─────────────────────┐
	│                                                        │
	│  pkg/sim.recordTrace  →  broker.Publish(event)         │
	│                              │                         │
	│                        Broadcast Loop                 │
	│                              │                         │
	│                    Subscriber Channels (buffer: 256)   │
	└────────────────────────────────────────────────────────┘

pkg/raft and pkg/fault never touch a Broker directly: a Node's Handle*
methods return trace entries inside their Effects value, and the
Injector only schedules FaultToggle events. Simulator.recordTrace is the
single place a Trace both lands in the in-memory, replayable history
(Simulator.Trace()) and is handed to the Broker for any live
subscriber, so the two never drift apart.

The broker runs its own goroutine for the broadcast loop, exactly as the
reference orchestrator's event bus does, but every event it carries is
stamped with a types.VirtualTime rather than a wall-clock time.Time: two
events published during the same RunUntil batch are ordered by the
simulation, not by goroutine scheduling, which is what makes a recorded
Trace() replayable and diffable across runs with the same seed.

Publish is non-blocking and best-effort: a slow or absent subscriber never
stalls the simulation loop, and losing a broadcast never loses the
entry from Simulator.Trace() itself, since recordTrace appends before it
publishes. The Simulator does not expose its Broker, so nothing in this
module subscribes to it; Simulator.Trace() is how a caller reads a run's
history.
*/
package events
