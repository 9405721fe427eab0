package sim

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/cuemby/raftsim/pkg/config"
	"github.com/cuemby/raftsim/pkg/events"
	"github.com/cuemby/raftsim/pkg/fault"
	"github.com/cuemby/raftsim/pkg/log"
	"github.com/cuemby/raftsim/pkg/metrics"
	"github.com/cuemby/raftsim/pkg/network"
	"github.com/cuemby/raftsim/pkg/raft"
	"github.com/cuemby/raftsim/pkg/scheduler"
	"github.com/cuemby/raftsim/pkg/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// NodeStatus is one node's entry in a StatusSnapshot.
type NodeStatus struct {
	ID          types.NodeID
	Role        string
	Term        types.Term
	CommitIndex types.Index
	LastApplied types.Index
	LogLen      int
	Alive       bool
}

// StatusSnapshot is the result returned by the control surface's status
// query.
type StatusSnapshot struct {
	Nodes           []NodeStatus
	LeaderID        types.NodeID
	Term            types.Term
	Now             types.VirtualTime
	EventsProcessed int
}

// Result is what Run and RunScenario return: the final status plus the
// scheduler's own bookkeeping.
type Result struct {
	Status StatusSnapshot
	Stats  scheduler.Stats
}

// Simulator owns every moving part of one run: the scheduler, the
// network, the node arena, the fault injector, and the trace broker. It
// is the only component with references to all of them; everything else
// exchanges NodeID/EventID values instead of pointers to each other.
type Simulator struct {
	cfg config.Config

	sched    *scheduler.Scheduler
	net      *network.Network
	nodes    []*raft.Node
	index    map[types.NodeID]int
	injector *fault.Injector
	broker   *events.Broker

	rng    *rand.Rand
	logger zerolog.Logger
	runID  string

	trace      []events.Trace
	schedStats scheduler.Stats
	stopped    bool
}

// New builds a Simulator from cfg. Every configuration error Validate
// would catch is returned here rather than discovered mid-run.
func New(cfg config.Config) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	s := &Simulator{
		cfg:    cfg,
		sched:  scheduler.New(),
		index:  make(map[types.NodeID]int, cfg.Nodes),
		broker: events.NewBroker(),
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		logger: log.WithRunID(runID),
		runID:  runID,
	}
	s.broker.Start()

	s.net = network.New(s.sched, s.rng, network.Config{
		DropRate:      cfg.MessageDropRate,
		DuplicateRate: cfg.DuplicateRate,
		DelayMin:      types.VirtualTime(cfg.MessageDelayMin),
		DelayMax:      types.VirtualTime(cfg.MessageDelayMax),
	})

	ids := make([]types.NodeID, cfg.Nodes)
	for i := 0; i < cfg.Nodes; i++ {
		ids[i] = types.NodeID(fmt.Sprintf("node-%d", i))
	}

	raftCfg := raft.Config{
		ElectionMin:       types.VirtualTime(cfg.ElectionTimeoutMin),
		ElectionMax:       types.VirtualTime(cfg.ElectionTimeoutMax),
		HeartbeatInterval: types.VirtualTime(cfg.HeartbeatInterval),
	}

	s.nodes = make([]*raft.Node, cfg.Nodes)
	for i, id := range ids {
		peers := make([]types.NodeID, 0, cfg.Nodes-1)
		for j, other := range ids {
			if j != i {
				peers = append(peers, other)
			}
		}
		s.nodes[i] = raft.New(id, peers, raftCfg, s.rng)
		s.index[id] = i
	}

	s.injector = fault.New(s.sched)
	s.registerHandlers()

	return s, nil
}

// RunID identifies this Simulator instance across its lifetime; it is
// attached to the Simulator's own log lines. The recorded trace does not
// carry it.
func (s *Simulator) RunID() string { return s.runID }

func (s *Simulator) nodeByID(id types.NodeID) *raft.Node {
	return s.nodes[s.index[id]]
}

// registerHandlers wires the scheduler's four event kinds to the node
// arena and the fault-toggle handler. This is the only place a Deliver,
// ElectionTimeout, HeartbeatTick, or FaultToggle event is interpreted.
func (s *Simulator) registerHandlers() {
	s.sched.OnEvent(types.EventElectionTimeout, func(now types.VirtualTime, ev types.Event) {
		et := ev.(types.ElectionTimeout)
		n := s.nodeByID(et.Node)
		s.apply(now, n, n.HandleElectionTimeout(now, et.Gen))
	})

	s.sched.OnEvent(types.EventHeartbeatTick, func(now types.VirtualTime, ev types.Event) {
		ht := ev.(types.HeartbeatTick)
		n := s.nodeByID(ht.Node)
		s.apply(now, n, n.HandleHeartbeatTick(now, ht.Gen))
	})

	s.sched.OnEvent(types.EventDeliver, func(now types.VirtualTime, ev types.Event) {
		d := ev.(types.Deliver)
		metrics.MessagesDelivered.Inc()
		n := s.nodeByID(d.Envelope.To)
		s.apply(now, n, n.HandleMessage(now, d.Envelope.From, d.Envelope.Msg))
	})

	s.sched.OnEvent(types.EventFaultToggle, func(now types.VirtualTime, ev types.Event) {
		s.applyFault(now, ev.(types.FaultToggle))
	})
}

// apply forwards one node's Effects to the network, scheduler, and trace
// broker, then refreshes that node's exported metrics. This is the only
// function in the repository that lets a raft.Node's output reach the
// rest of the simulation.
func (s *Simulator) apply(now types.VirtualTime, n *raft.Node, eff raft.Effects) {
	for _, send := range eff.Sends {
		s.net.Send(n.ID(), send.To, send.Msg)
	}
	for _, timer := range eff.Timers {
		s.sched.Schedule(timer.Delay, timer.Event)
	}
	for i := range eff.Traces {
		s.recordTrace(&eff.Traces[i])
	}
	s.updateNodeMetrics(n)
}

func (s *Simulator) recordTrace(t *events.Trace) {
	s.trace = append(s.trace, *t)
	s.broker.Publish(t)
}

func (s *Simulator) updateNodeMetrics(n *raft.Node) {
	st := n.Status()
	metrics.NodeTerm.WithLabelValues(string(st.ID)).Set(float64(st.Term))
	metrics.NodeCommitIndex.WithLabelValues(string(st.ID)).Set(float64(st.CommitIndex))
	isLeader := 0.0
	if st.Role == raft.RoleLeader {
		isLeader = 1
	}
	metrics.NodeIsLeader.WithLabelValues(string(st.ID)).Set(isLeader)
}

// applyFault is the handler for every FaultToggle: it owns the node and
// network state the Injector deliberately does not touch.
func (s *Simulator) applyFault(now types.VirtualTime, ft types.FaultToggle) {
	switch ft.Kind {
	case types.FaultCrash:
		n := s.nodeByID(ft.Node)
		n.SetCrashed(true)
		s.net.SetCrashed(ft.Node, true)
		s.recordTrace(&events.Trace{Time: now, Kind: events.KindNodeCrashed, Node: ft.Node, Message: "node crashed"})
		s.updateNodeMetrics(n)

	case types.FaultRecover:
		n := s.nodeByID(ft.Node)
		n.SetCrashed(false)
		s.net.SetCrashed(ft.Node, false)
		s.recordTrace(&events.Trace{Time: now, Kind: events.KindNodeRecovered, Node: ft.Node, Message: "node recovered"})
		// A recovered node starts cold: rearm its election timer the same
		// way Start does for the initial cluster bring-up.
		s.apply(now, n, n.Start(now))

	case types.FaultPartition:
		s.net.SetPartitions(ft.Partitions)
		s.recordTrace(&events.Trace{Time: now, Kind: events.KindPartitionFormed, Message: "network partitioned"})

	case types.FaultHeal:
		s.net.Heal()
		s.recordTrace(&events.Trace{Time: now, Kind: events.KindPartitionHealed, Message: "network healed"})
	}
}

// Start schedules every node's first ElectionTimeout, as happens on
// startup before any message has been exchanged.
func (s *Simulator) Start() {
	s.logger.Info().Int("nodes", len(s.nodes)).Msg("starting simulation")
	for _, n := range s.nodes {
		s.apply(s.sched.Now(), n, n.Start(s.sched.Now()))
	}
}

// result builds the Result/StatusSnapshot pair Run and RunScenario share.
func (s *Simulator) result() Result {
	return Result{Status: s.Status(), Stats: s.schedStats}
}

// Run advances the simulation to cfg.MaxTime, equivalent to run_until's
// "pop events while now <= t_max" rule. It runs in chunks bounded by the
// next pending event's time (never a fixed stride: the gap between two
// events can be arbitrarily large, and a live node with nothing scheduled
// produces no events at all) so ctx can still be polled for cooperative
// cancellation between chunks without ever influencing a timing decision.
func (s *Simulator) Run(ctx context.Context) (Result, error) {
	target := types.VirtualTime(s.cfg.MaxTime)

	for s.sched.Now() < target {
		select {
		case <-ctx.Done():
			return s.result(), ctx.Err()
		default:
		}

		next := target
		if when, ok := s.sched.NextEventTime(); ok && when < next {
			next = when
		}

		before := s.sched.Now()
		stats := s.sched.RunUntil(next)
		s.schedStats.Processed += stats.Processed
		s.schedStats.Cancelled += stats.Cancelled

		if s.sched.Now() == before && stats.Processed == 0 && stats.Cancelled == 0 {
			// Nothing pending at or before target: no amount of further
			// virtual time will produce another event on its own.
			break
		}
	}
	res := s.result()
	s.logger.Info().
		Float64("now", float64(s.sched.Now())).
		Int("events_processed", res.Stats.Processed).
		Str("leader_id", string(res.Status.LeaderID)).
		Msg("run complete")
	return res, nil
}

// Stop releases the trace broker's background goroutine. Idempotent: a
// second call is a no-op rather than the broker's own panic-on-double-close.
func (s *Simulator) Stop() {
	if s.stopped {
		return
	}
	s.stopped = true
	s.broker.Stop()
}

// Reset discards all run state and rebuilds the Simulator from the same
// Config, including a fresh RunID.
func (s *Simulator) Reset() error {
	fresh, err := New(s.cfg)
	if err != nil {
		return err
	}
	s.Stop()
	*s = *fresh
	return nil
}

// Status returns a point-in-time snapshot of every node plus the
// current leader, if any.
func (s *Simulator) Status() StatusSnapshot {
	nodes := make([]NodeStatus, len(s.nodes))
	var leaderID types.NodeID
	var term types.Term
	for i, n := range s.nodes {
		st := n.Status()
		nodes[i] = NodeStatus{
			ID:          st.ID,
			Role:        st.Role.String(),
			Term:        st.Term,
			CommitIndex: st.CommitIndex,
			LastApplied: st.LastApplied,
			LogLen:      st.LogLen,
			Alive:       st.Alive,
		}
		if st.Role == raft.RoleLeader {
			leaderID = st.ID
			term = st.Term
		}
	}
	return StatusSnapshot{
		Nodes:           nodes,
		LeaderID:        leaderID,
		Term:            term,
		Now:             s.sched.Now(),
		EventsProcessed: s.schedStats.Processed,
	}
}

// Submit appends command to the current leader's log. Absence of a
// leader is a normal, expected condition (no election has completed
// yet, or none is reachable under the configured fault model) and is
// reported as an error rather than panicking.
func (s *Simulator) Submit(command []byte) error {
	leaderID := s.Status().LeaderID
	if leaderID == "" {
		return fmt.Errorf("sim: no leader elected yet")
	}
	n := s.nodeByID(leaderID)
	eff, err := n.Submit(s.sched.Now(), command)
	if err != nil {
		return fmt.Errorf("sim: submit: %w", err)
	}
	s.apply(s.sched.Now(), n, eff)
	return nil
}

// InjectFault forwards one fault primitive to the Injector. groups is
// only consulted for FaultPartition and node is only consulted for
// FaultCrash/FaultRecover.
func (s *Simulator) InjectFault(kind types.FaultKind, node types.NodeID, groups [][]types.NodeID, at types.VirtualTime) error {
	switch kind {
	case types.FaultCrash:
		s.injector.Crash(node, at)
	case types.FaultRecover:
		s.injector.Recover(node, at)
	case types.FaultPartition:
		s.injector.Partition(groups, at)
	case types.FaultHeal:
		s.injector.Heal(at)
	default:
		return fmt.Errorf("sim: unknown fault kind %v", kind)
	}
	return nil
}

// RunScenario executes every Step of sc in order, pausing the run at
// each Step's virtual time to resolve node indices (and, for
// StepCrashLeader, the identity of whichever node currently holds
// leadership) against this Simulator's own node list, then continues to
// cfg.MaxTime.
func (s *Simulator) RunScenario(ctx context.Context, sc fault.Scenario) (Result, error) {
	for _, step := range sc.Steps {
		if s.sched.Now() < step.At {
			stats := s.sched.RunUntil(step.At)
			s.schedStats.Processed += stats.Processed
			s.schedStats.Cancelled += stats.Cancelled
		}

		switch step.Kind {
		case fault.StepCrash:
			s.injector.Crash(s.nodes[step.NodeIndex].ID(), step.At)
		case fault.StepCrashLeader:
			if leaderID := s.Status().LeaderID; leaderID != "" {
				s.injector.Crash(leaderID, step.At)
			}
		case fault.StepRecover:
			s.injector.Recover(s.nodes[step.NodeIndex].ID(), step.At)
		case fault.StepPartition:
			groups := make([][]types.NodeID, len(step.GroupIndices))
			for i, idxs := range step.GroupIndices {
				group := make([]types.NodeID, len(idxs))
				for j, idx := range idxs {
					group[j] = s.nodes[idx].ID()
				}
				groups[i] = group
			}
			s.injector.Partition(groups, step.At)
		case fault.StepHeal:
			s.injector.Heal(step.At)
		}

		// The step scheduled a FaultToggle at step.At; pop it before
		// moving on to the next step.
		stats := s.sched.RunUntil(step.At)
		s.schedStats.Processed += stats.Processed
		s.schedStats.Cancelled += stats.Cancelled
	}
	return s.Run(ctx)
}

// Trace returns a copy of every event recorded so far, in emission
// order: a (time, kind, node, term, message) recording kept in memory
// only, never written to disk. Entries carry no scheduler seq.
func (s *Simulator) Trace() []events.Trace {
	out := make([]events.Trace, len(s.trace))
	copy(out, s.trace)
	return out
}
