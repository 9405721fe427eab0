/*
Package log provides structured logging for the simulator using zerolog.

	┌──────────────── LOGGING ────────────────┐
	│ Global Logger (zerolog.Logger)           │
	│   configured once via log.Init()         │
	│                                           │
	│ Context loggers:                         │
	│   WithComponent("scheduler")             │
	│   WithNodeID("n1")                       │
	│   WithRunID(runID)                       │
	└───────────────────────────────────────────┘

Every core package builds its own child logger at construction
(WithComponent, or WithNodeID/WithRunID for Raft nodes and the Simulator)
rather than logging through the package-level Logger directly. No
constructor accepts a logger, so all of them inherit whatever output and
level Init last configured.
*/
package log
