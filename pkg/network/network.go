package network

import (
	"math/rand"

	"github.com/cuemby/raftsim/pkg/log"
	"github.com/cuemby/raftsim/pkg/metrics"
	"github.com/cuemby/raftsim/pkg/scheduler"
	"github.com/cuemby/raftsim/pkg/types"
	"github.com/rs/zerolog"
)

// Config holds the fault-model parameters a Network applies to every Send.
type Config struct {
	DropRate      float64
	DuplicateRate float64
	DelayMin      types.VirtualTime
	DelayMax      types.VirtualTime
	Jitter        types.VirtualTime
}

// Network is the simulator's only channel between nodes. It never
// delivers synchronously: Send schedules zero, one, or two Deliver events
// on the Scheduler it was built with.
type Network struct {
	logger     zerolog.Logger
	sched      *scheduler.Scheduler
	rng        *rand.Rand
	cfg        Config
	partitions map[types.NodeID]types.PartitionID
	crashed    map[types.NodeID]bool
}

// New creates a Network that schedules deliveries on sched and draws all
// randomness from rng. rng must be the simulator's single seeded source;
// Network never calls math/rand's package-level functions.
func New(sched *scheduler.Scheduler, rng *rand.Rand, cfg Config) *Network {
	return &Network{
		logger:     log.WithComponent("network"),
		sched:      sched,
		rng:        rng,
		cfg:        cfg,
		partitions: make(map[types.NodeID]types.PartitionID),
		crashed:    make(map[types.NodeID]bool),
	}
}

// SetCrashed records whether node is currently crashed. The fault injector
// calls this when a FaultToggle fires; Send's liveness check reads it.
func (n *Network) SetCrashed(node types.NodeID, crashed bool) {
	n.crashed[node] = crashed
}

// Partition assigns every node in each group of groups a shared
// PartitionID; nodes in different groups can no longer exchange messages.
// Nodes not named in any group are left with their prior assignment.
func (n *Network) Partition(groups [][]types.NodeID) {
	for i, group := range groups {
		pid := types.PartitionID(i)
		for _, node := range group {
			n.partitions[node] = pid
		}
	}
	n.logger.Info().Int("groups", len(groups)).Msg("network partitioned")
}

// SetPartitions replaces the partition map wholesale with one already
// computed elsewhere (the fault injector builds one from NodeID groups
// before scheduling a FaultToggle). Unlike Partition, nodes absent from
// partitions do not keep a prior assignment: they read as PartitionID 0.
func (n *Network) SetPartitions(partitions map[types.NodeID]types.PartitionID) {
	n.partitions = partitions
	n.logger.Info().Int("nodes", len(partitions)).Msg("network partitioned")
}

// Heal resets every known node to a single shared partition, undoing any
// prior Partition call.
func (n *Network) Heal() {
	for node := range n.partitions {
		n.partitions[node] = 0
	}
	n.logger.Info().Msg("network healed")
}

// Send runs the delivery policy in a fixed order: liveness check,
// partition check, drop roll, delay+jitter computation, duplicate roll.
// It never returns an error: every outcome short of scheduling a Deliver
// is a silent, expected drop, not a failure the caller must handle.
func (n *Network) Send(src, dst types.NodeID, msg types.Message) {
	metrics.MessagesSent.Inc()

	if n.crashed[src] || n.crashed[dst] {
		metrics.MessagesDropped.WithLabelValues("crashed").Inc()
		return
	}

	if n.partitions[src] != n.partitions[dst] {
		metrics.MessagesDropped.WithLabelValues("partitioned").Inc()
		return
	}

	if n.rng.Float64() < n.cfg.DropRate {
		metrics.MessagesDropped.WithLabelValues("random").Inc()
		return
	}

	envelope := types.Envelope{From: src, To: dst, Msg: msg}
	n.sched.Schedule(n.drawDelay(), types.Deliver{Envelope: envelope})

	if n.rng.Float64() < n.cfg.DuplicateRate {
		metrics.MessagesDuplicated.Inc()
		n.sched.Schedule(n.drawDelay(), types.Deliver{Envelope: envelope})
	}
}

// drawDelay draws one uniform(DelayMin, DelayMax) sample plus jitter. Each
// call consumes exactly one float64 from rng, so a duplicate's delay is an
// independent draw from the same distribution.
func (n *Network) drawDelay() types.VirtualTime {
	span := n.cfg.DelayMax - n.cfg.DelayMin
	if span < 0 {
		span = 0
	}
	return n.cfg.DelayMin + types.VirtualTime(n.rng.Float64())*span + n.cfg.Jitter
}
