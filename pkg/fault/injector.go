package fault

import (
	"github.com/cuemby/raftsim/pkg/log"
	"github.com/cuemby/raftsim/pkg/scheduler"
	"github.com/cuemby/raftsim/pkg/types"
	"github.com/rs/zerolog"
)

// Injector schedules FaultToggle events on a Scheduler. It holds no
// reference to node state or the Network; the Simulator's FaultToggle
// handler does the actual crashing/healing.
type Injector struct {
	sched  *scheduler.Scheduler
	logger zerolog.Logger
}

// New creates an Injector that schedules onto sched.
func New(sched *scheduler.Scheduler) *Injector {
	return &Injector{
		sched:  sched,
		logger: log.WithComponent("fault"),
	}
}

// schedule converts an absolute virtual time into the delay Scheduler.Schedule
// expects. Scheduling into the past panics, same as the scheduler itself —
// a scenario author naming a time before the current Now() is a
// programmer error, not a runtime condition to recover from.
func (inj *Injector) schedule(at types.VirtualTime, ev types.Event) {
	delay := at - inj.sched.Now()
	inj.sched.Schedule(delay, ev)
}

// Crash schedules node to go down at the given virtual time.
func (inj *Injector) Crash(node types.NodeID, at types.VirtualTime) {
	inj.logger.Info().Str("node_id", string(node)).Float64("at", float64(at)).Msg("scheduling crash")
	inj.schedule(at, types.FaultToggle{Kind: types.FaultCrash, Node: node})
}

// Recover schedules node to come back up at the given virtual time.
func (inj *Injector) Recover(node types.NodeID, at types.VirtualTime) {
	inj.logger.Info().Str("node_id", string(node)).Float64("at", float64(at)).Msg("scheduling recovery")
	inj.schedule(at, types.FaultToggle{Kind: types.FaultRecover, Node: node})
}

// Partition schedules the network to split into the given groups at the
// given virtual time. Nodes sharing a group can still communicate with
// each other; nodes in different groups cannot.
func (inj *Injector) Partition(groups [][]types.NodeID, at types.VirtualTime) {
	partitions := make(map[types.NodeID]types.PartitionID)
	for i, group := range groups {
		for _, node := range group {
			partitions[node] = types.PartitionID(i)
		}
	}
	inj.logger.Info().Int("groups", len(groups)).Float64("at", float64(at)).Msg("scheduling partition")
	inj.schedule(at, types.FaultToggle{Kind: types.FaultPartition, Partitions: partitions})
}

// Heal schedules the network to rejoin into a single partition at the
// given virtual time, undoing any prior Partition.
func (inj *Injector) Heal(at types.VirtualTime) {
	inj.logger.Info().Float64("at", float64(at)).Msg("scheduling heal")
	inj.schedule(at, types.FaultToggle{Kind: types.FaultHeal})
}
