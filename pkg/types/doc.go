/*
Package types defines the core data structures shared by every layer of the
simulator: the scheduler, the network, the Raft node, and the fault injector.

# Architecture

The types package is the foundation of the simulator's data model. It defines:

  - Virtual time and sequence numbers (VirtualTime, Seq)
  - Node and partition identity (NodeID, PartitionID)
  - The Raft log entry and term/index newtypes
  - Message, a tagged union over the four Raft RPCs
  - Event, a tagged union over the four scheduler event kinds

All types here are plain values exchanged by index or by copy — never by
shared mutable pointer across package boundaries — so that the scheduler,
network and node can reason about them without locking (see pkg/scheduler
and pkg/network doc comments for why that matters).
*/
package types
