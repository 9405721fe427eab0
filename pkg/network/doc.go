/*
Package network implements the simulator's fault-injecting transport: the
only path by which one node's Raft handlers can reach another's.

	┌──────────────────────── NETWORK ───────────────────────────┐
	│                                                              │
	│  Send(src, dst, msg)                                        │
	│       │                                                      │
	│       ▼                                                      │
	│  1. src or dst crashed?          ──▶ drop silently           │
	│  2. partitions[src] != partitions[dst]? ──▶ drop silently    │
	│  3. roll < drop_rate?            ──▶ drop                    │
	│  4. delay = uniform(min,max) + jitter ──▶ schedule Deliver   │
	│  5. roll < duplicate_rate?       ──▶ schedule 2nd Deliver    │
	└────────────────────────────────────────────────────────────┘

Send never delivers synchronously: every accepted message becomes a
Deliver event on the injected scheduler, due to fire delay seconds in the
future. Because delay is redrawn per message, a later Send can produce an
earlier Deliver — the network provides no FIFO guarantee between any pair
of nodes, which is why pkg/raft's term and prev-log-index checks exist.

All randomness — the drop roll, the delay draw, the duplicate roll — comes
from a single *rand.Rand passed in at construction. The network never
touches the math/rand package-level functions, so two Networks built from
the same seed produce byte-identical sequences of drops and delays, which
is what makes a whole simulator run reproducible end to end.

Partition membership is a plain map from NodeID to PartitionID; two nodes
can exchange messages only while they share a PartitionID. Heal resets
every node to one shared partition, exactly undoing any prior Partition
call regardless of how many groups it described.
*/
package network
