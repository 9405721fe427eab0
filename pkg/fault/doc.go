/*
Package fault schedules the simulator's chaos primitives — crash,
recover, partition, heal — as one-shot FaultToggle events, plus named
Scenario recipes that compose them into node-failure and network-split
timelines.

	┌─────────────────────── INJECTOR ────────────────────────────┐
	│                                                                │
	│  Crash(node, at)   ──▶  FaultToggle{Kind: crash}   @ at       │
	│  Recover(node, at) ──▶  FaultToggle{Kind: recover} @ at       │
	│  Partition(groups, at) ──▶ FaultToggle{Kind: partition} @ at  │
	│  Heal(at)          ──▶  FaultToggle{Kind: heal}    @ at       │
	│                              │                                │
	│                         Scheduler heap                       │
	└────────────────────────────────────────────────────────────────┘

The Injector does not own node or network state — following the
arena+index design used throughout this codebase, it only schedules
events carrying enough data (a NodeID, a partition grouping) for
whoever handles FaultToggle to act on. That handler lives on the
Simulator, which is the one component that owns both the node list and
the Network.

This mirrors the reference reconciler's package shape (a logger, a
constructor that takes its one dependency) repurposed from a recurring
ticker loop into a one-shot, schedule-it-all-up-front component: there is
nothing to reconcile against here, since every fault in a scenario fires
at a known virtual time decided before the run starts.

Scenario recipes (Step, Scenario) describe a fixed sequence of primitives
in terms of node *indices*, not NodeID values, so a recipe like
RollingFailures can be reused across clusters of different sizes; the
Simulator resolves indices (and, for LeaderFailure, the identity of
whichever node currently holds leadership) against its own node list at
the moment a Step's time arrives.
*/
package fault
