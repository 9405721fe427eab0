package fault

import "github.com/cuemby/raftsim/pkg/types"

// StepKind discriminates what a Scenario Step does.
type StepKind int

const (
	// StepCrash crashes the node at NodeIndex.
	StepCrash StepKind = iota
	// StepCrashLeader crashes whichever node is currently the leader,
	// resolved by the Simulator at the moment this Step's time arrives
	// since leadership can't be known ahead of time when the scenario is
	// defined.
	StepCrashLeader
	// StepRecover recovers the node at NodeIndex.
	StepRecover
	// StepPartition splits the cluster per GroupIndices.
	StepPartition
	// StepHeal rejoins the cluster into a single partition.
	StepHeal
)

// Step is one action in a Scenario, described by node index rather than
// NodeID so a recipe generalizes across cluster sizes. A Simulator
// resolves NodeIndex/GroupIndices against its own node list when it
// executes the step.
type Step struct {
	Kind         StepKind
	NodeIndex    int
	GroupIndices [][]int
	At           types.VirtualTime
}

// Scenario is a named, ordered sequence of Steps. Every Step's At value
// is an absolute virtual time fixed when the Scenario is defined; a
// Simulator runs up to each Step's time, applies it, and continues.
type Scenario struct {
	Name  string
	Steps []Step
}

// LeaderFailure crashes whichever node holds leadership at t=10, to
// exercise re-election under a single permanent failure.
var LeaderFailure = Scenario{
	Name: "leader_failure",
	Steps: []Step{
		{Kind: StepCrashLeader, At: 10},
	},
}

// RollingFailures crashes and recovers two different nodes in sequence,
// so no single failure is permanent; all nodes are up again between
// t=15 and t=20 and after t=30.
var RollingFailures = Scenario{
	Name: "rolling_failures",
	Steps: []Step{
		{Kind: StepCrash, NodeIndex: 0, At: 5},
		{Kind: StepRecover, NodeIndex: 0, At: 15},
		{Kind: StepCrash, NodeIndex: 1, At: 20},
		{Kind: StepRecover, NodeIndex: 1, At: 30},
	},
}

// SplitBrain partitions the cluster into a minority and a majority group
// from t=10 to t=20, to exercise a stalled minority and a healed rejoin.
var SplitBrain = Scenario{
	Name: "split_brain",
	Steps: []Step{
		{Kind: StepPartition, GroupIndices: [][]int{{0, 1}, {2, 3, 4}}, At: 10},
		{Kind: StepHeal, At: 20},
	},
}

// NetworkPartition is a three-two split, healed after ten time units;
// distinct from SplitBrain's timing so both can be selected as
// independent chaos_scenario values.
var NetworkPartition = Scenario{
	Name: "network_partition",
	Steps: []Step{
		{Kind: StepPartition, GroupIndices: [][]int{{0, 1, 2}, {3, 4}}, At: 15},
		{Kind: StepHeal, At: 25},
	},
}

// ByName resolves a configured chaos_scenario string to its recipe. The
// second return value is false for an unrecognized name, a configuration
// error the caller should surface rather than silently ignore.
func ByName(name string) (Scenario, bool) {
	switch name {
	case LeaderFailure.Name:
		return LeaderFailure, true
	case RollingFailures.Name:
		return RollingFailures, true
	case SplitBrain.Name:
		return SplitBrain, true
	case NetworkPartition.Name:
		return NetworkPartition, true
	default:
		return Scenario{}, false
	}
}
