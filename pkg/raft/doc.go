/*
Package raft implements the Raft consensus state machine: leader election,
log replication, and commit advancement, as a set of synchronous methods
driven entirely by the scheduler's event dispatch.

	┌────────────────────────── NODE ─────────────────────────────┐
	│                                                                │
	│   Follower ──ElectionTimeout──▶ Candidate ──majority votes──▶ Leader │
	│      ▲                              │                          │    │
	│      └──────── higher term seen ────┴──────────────────────────┘    │
	│                                                                │
	└────────────────────────────────────────────────────────────────┘

Every exported Handle* method takes the current virtual time and returns
an Effects value describing what the node wants to happen next — messages
to send, timers to (re)schedule, trace entries to record — without
touching a Network or Scheduler directly. The Simulator is the only
component that owns both of those and is responsible for forwarding a
Node's Effects to them. This keeps pkg/raft ignorant of scheduling and
delivery mechanics the same way the arena+index design keeps the
scheduler ignorant of Raft semantics: a Node only ever sees NodeID values
for its peers, never pointers to them.

Handlers are organized by RPC — RequestVote, AppendEntries, and their
replies, backed by a small LogStore interface — with every goroutine,
sync.Mutex, and time.Timer replaced by a plain method call and a
generation counter. A stale ElectionTimeout or HeartbeatTick event (one
issued under a generation the node has since moved past, because it
voted, granted, stepped down, or became leader) is recognized by
comparing the event's Gen field to the node's own and silently
discarded, never treated as an error.

A crashed node (Simulator.InjectFault(FaultCrash, ...)) ignores every
event routed to it; SetCrashed is the single switch that enforces this,
checked at the top of every Handle* method.
*/
package raft
