package raft

import (
	"fmt"
	"math/rand"

	"github.com/cuemby/raftsim/pkg/events"
	"github.com/cuemby/raftsim/pkg/log"
	"github.com/cuemby/raftsim/pkg/types"
	"github.com/rs/zerolog"
)

// Role is a node's position in the Raft state machine.
type Role int

const (
	RoleFollower Role = iota
	RoleCandidate
	RoleLeader
)

func (r Role) String() string {
	switch r {
	case RoleFollower:
		return "Follower"
	case RoleCandidate:
		return "Candidate"
	case RoleLeader:
		return "Leader"
	default:
		return "Unknown"
	}
}

// Config holds the per-node election and heartbeat timing parameters.
type Config struct {
	ElectionMin       types.VirtualTime
	ElectionMax       types.VirtualTime
	HeartbeatInterval types.VirtualTime
}

// Send is an outbound message a Node wants delivered; the Simulator
// forwards it to the Network.
type Send struct {
	To  types.NodeID
	Msg types.Message
}

// Timer is a (re)schedule request; the Simulator forwards it to the
// Scheduler.
type Timer struct {
	Delay types.VirtualTime
	Event types.Event
}

// Effects is everything a Handle* call wants to happen as a result of one
// event. A Node never touches the Network or Scheduler itself; Effects is
// the seam that keeps it ignorant of both.
type Effects struct {
	Sends  []Send
	Timers []Timer
	Traces []events.Trace
}

func (e *Effects) send(to types.NodeID, msg types.Message) {
	e.Sends = append(e.Sends, Send{To: to, Msg: msg})
}

func (e *Effects) timer(delay types.VirtualTime, ev types.Event) {
	e.Timers = append(e.Timers, Timer{Delay: delay, Event: ev})
}

func (e *Effects) trace(now types.VirtualTime, node types.NodeID, kind events.Kind, term types.Term, msg string) {
	e.Traces = append(e.Traces, events.Trace{Time: now, Kind: kind, Node: node, Term: term, Message: msg})
}

// Node is one Raft participant. It holds no reference to the Network or
// Scheduler; every Handle* method is a pure function of the node's state
// plus its argument, returning Effects for the caller to carry out.
type Node struct {
	id          types.NodeID
	peers       []types.NodeID
	clusterSize int
	cfg         Config
	rng         *rand.Rand
	logger      zerolog.Logger
	store       LogStore

	currentTerm types.Term
	votedFor    *types.NodeID
	commitIndex types.Index
	lastApplied types.Index
	role        Role
	leaderID    types.NodeID
	gen         uint64
	crashed     bool

	nextIndex     map[types.NodeID]types.Index
	matchIndex    map[types.NodeID]types.Index
	votesReceived map[types.NodeID]bool
}

// New creates a Node at term 0, Follower role, with an empty log. rng
// must be a view onto the simulator's single seeded PRNG stream; New
// never seeds its own.
func New(id types.NodeID, peers []types.NodeID, cfg Config, rng *rand.Rand) *Node {
	return &Node{
		id:          id,
		peers:       peers,
		clusterSize: len(peers) + 1,
		cfg:         cfg,
		rng:         rng,
		logger:      log.WithNodeID(string(id)),
		store:       newMemLogStore(),
		role:        RoleFollower,
	}
}

// ID returns the node's identity.
func (n *Node) ID() types.NodeID { return n.id }

// SetCrashed toggles the node's liveness. A crashed node ignores every
// Handle* call; Start on a crashed node is also a no-op.
func (n *Node) SetCrashed(crashed bool) {
	n.crashed = crashed
}

// Crashed reports the node's current liveness.
func (n *Node) Crashed() bool { return n.crashed }

// Start schedules the node's first election timeout. Called once by the
// Simulator for every node when a run begins.
func (n *Node) Start(now types.VirtualTime) Effects {
	var eff Effects
	if n.crashed {
		return eff
	}
	n.resetElectionTimer(now, &eff)
	return eff
}

// Status is a point-in-time snapshot of a node's observable state, used
// to build pkg/sim's StatusSnapshot.
type Status struct {
	ID          types.NodeID
	Role        Role
	Term        types.Term
	CommitIndex types.Index
	LastApplied types.Index
	LogLen      int
	Alive       bool
	LeaderID    types.NodeID
}

// Status returns the node's current observable state.
func (n *Node) Status() Status {
	return Status{
		ID:          n.id,
		Role:        n.role,
		Term:        n.currentTerm,
		CommitIndex: n.commitIndex,
		LastApplied: n.lastApplied,
		LogLen:      n.store.Len(),
		Alive:       !n.crashed,
		LeaderID:    n.leaderID,
	}
}

// stepTerm applies the common rule that any message carrying a higher term
// forces an unconditional, immediate step-down to Follower with a cleared
// vote. It returns whether a step-down occurred so callers can decide
// whether to keep processing the triggering message under the new term
// (RequestVote/AppendEntries do; stale replies do not).
func (n *Node) stepTerm(now types.VirtualTime, term types.Term, eff *Effects) bool {
	if term <= n.currentTerm {
		return false
	}
	n.currentTerm = term
	n.votedFor = nil
	n.role = RoleFollower
	n.leaderID = ""
	eff.trace(now, n.id, events.KindTermChanged, n.currentTerm, "observed higher term")
	return true
}

// resetElectionTimer bumps the node's generation (invalidating any timer
// issued under the old one) and schedules a fresh ElectionTimeout drawn
// uniformly from [ElectionMin, ElectionMax).
func (n *Node) resetElectionTimer(now types.VirtualTime, eff *Effects) {
	n.gen++
	span := n.cfg.ElectionMax - n.cfg.ElectionMin
	if span < 0 {
		span = 0
	}
	delay := n.cfg.ElectionMin + types.VirtualTime(n.rng.Float64())*span
	eff.timer(delay, types.ElectionTimeout{Node: n.id, Gen: n.gen})
}

// lastLogInfo returns (lastIndex, lastTerm) for the node's current log.
func (n *Node) lastLogInfo() (types.Index, types.Term) {
	return n.store.LastIndex(), n.store.LastTerm()
}

// Submit appends a new command to the log under the node's current term
// and triggers immediate replication to every peer. It is only valid on
// the Leader;
// submitting to a Follower or Candidate is a normal, expected condition
// (the caller should retry against whichever node Status reports as
// leader), reported as an error rather than silently dropped so the
// Simulator's control surface has something to return to its caller.
func (n *Node) Submit(now types.VirtualTime, command []byte) (Effects, error) {
	var eff Effects
	if n.crashed {
		return eff, fmt.Errorf("raft: node %s is crashed", n.id)
	}
	if n.role != RoleLeader {
		return eff, fmt.Errorf("raft: node %s is not leader (role=%s)", n.id, n.role)
	}
	entry := types.LogEntry{
		Term:    n.currentTerm,
		Index:   n.store.LastIndex() + 1,
		Command: command,
	}
	n.store.Append(entry)
	n.replicate(now, &eff)
	return eff, nil
}

// InstallSnapshot is a forward-compatible placeholder for log compaction.
// It carries no behavior: no Node method
// constructs, sends, or handles one. A future snapshotting feature would
// give the Leader a way to catch up a Follower whose nextIndex has fallen
// behind the Leader's earliest retained entry.
type InstallSnapshot struct {
	LastIncludedIndex types.Index
	LastIncludedTerm  types.Term
}
