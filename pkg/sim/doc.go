/*
Package sim is the orchestrator: the only component that holds every
other piece (Scheduler, Network, the node arena, the fault Injector, the
trace Broker) and wires them together, grounded on the reference
manager's NewManager/Bootstrap shape minus its Raft-library/TLS/gRPC
concerns.

	┌─────────────────────────── Simulator ───────────────────────────┐
	│                                                                    │
	│   nodes []*raft.Node  ──id──▶  index map[NodeID]int               │
	│                                                                    │
	│   scheduler.OnEvent(ElectionTimeout) ──▶ node.HandleElectionTimeout│
	│   scheduler.OnEvent(HeartbeatTick)   ──▶ node.HandleHeartbeatTick  │
	│   scheduler.OnEvent(Deliver)         ──▶ node.HandleMessage        │
	│   scheduler.OnEvent(FaultToggle)     ──▶ Simulator.applyFault      │
	│                                                                    │
	│   every Handle* call returns raft.Effects; Simulator.apply forwards│
	│   Sends to network.Send, Timers to scheduler.Schedule, and Traces  │
	│   to the events.Broker — raft.Node never touches either directly. │
	└────────────────────────────────────────────────────────────────────┘

This is an arena+index design: nodes and events are exchanged by
NodeID/EventID, never by mutual object reference, so Simulator is the
single place a cyclic reference would have to live and it simply
doesn't build one.
*/
package sim
