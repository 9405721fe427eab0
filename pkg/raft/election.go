package raft

import (
	"github.com/cuemby/raftsim/pkg/events"
	"github.com/cuemby/raftsim/pkg/metrics"
	"github.com/cuemby/raftsim/pkg/types"
)

// HandleElectionTimeout fires on an ElectionTimeout event. gen must match
// the node's current generation or the timer is stale (the node already
// voted, granted a vote, stepped down, or became leader since this timer
// was scheduled) and is silently discarded.
func (n *Node) HandleElectionTimeout(now types.VirtualTime, gen uint64) Effects {
	var eff Effects
	if n.crashed || gen != n.gen {
		return eff
	}
	n.startElection(now, &eff)
	return eff
}

// startElection applies the rules for entering the Candidate role:
// increment term, vote for self, reset the timer to a freshly randomized
// deadline, and broadcast RequestVote to every peer.
func (n *Node) startElection(now types.VirtualTime, eff *Effects) {
	n.role = RoleCandidate
	n.currentTerm++
	self := n.id
	n.votedFor = &self
	n.leaderID = ""
	n.votesReceived = map[types.NodeID]bool{n.id: true}
	n.resetElectionTimer(now, eff)

	metrics.ElectionsStarted.Inc()
	eff.trace(now, n.id, events.KindTermChanged, n.currentTerm, "term advanced for new election")
	eff.trace(now, n.id, events.KindElectionStarted, n.currentTerm, "started election")

	lastIdx, lastTerm := n.lastLogInfo()
	for _, peer := range n.peers {
		eff.send(peer, types.RequestVote{
			Term:         n.currentTerm,
			CandidateID:  n.id,
			LastLogIndex: lastIdx,
			LastLogTerm:  lastTerm,
		})
	}
}

// handleRequestVote handles an incoming RequestVote, common to whichever
// role the node is currently in (a Leader or Candidate can receive one
// too, and the grant rule is role-independent).
func (n *Node) handleRequestVote(now types.VirtualTime, from types.NodeID, req types.RequestVote, eff *Effects) {
	reply := types.RequestVoteReply{Term: n.currentTerm, VoteGranted: false}

	if req.Term < n.currentTerm {
		eff.send(from, reply)
		return
	}
	n.stepTerm(now, req.Term, eff)

	lastIdx, lastTerm := n.lastLogInfo()
	upToDate := req.LastLogTerm > lastTerm ||
		(req.LastLogTerm == lastTerm && req.LastLogIndex >= lastIdx)

	if (n.votedFor == nil || *n.votedFor == req.CandidateID) && upToDate {
		candidate := req.CandidateID
		n.votedFor = &candidate
		n.resetElectionTimer(now, eff)
		reply.VoteGranted = true
	}
	reply.Term = n.currentTerm
	eff.send(from, reply)
}

// handleRequestVoteReply counts votes: a vote is counted only from an
// explicit RequestVoteReply message, never by inspecting a peer's state
// directly.
func (n *Node) handleRequestVoteReply(now types.VirtualTime, from types.NodeID, reply types.RequestVoteReply, eff *Effects) {
	if n.stepTerm(now, reply.Term, eff) {
		n.resetElectionTimer(now, eff)
		return
	}
	if n.role != RoleCandidate || reply.Term != n.currentTerm {
		return
	}
	if !reply.VoteGranted {
		return
	}
	n.votesReceived[from] = true
	if len(n.votesReceived) > n.clusterSize/2 {
		n.becomeLeader(now, eff)
	}
}

// becomeLeader applies the rules for entering the Leader role.
func (n *Node) becomeLeader(now types.VirtualTime, eff *Effects) {
	n.role = RoleLeader
	n.leaderID = n.id

	lastIdx, _ := n.lastLogInfo()
	n.nextIndex = make(map[types.NodeID]types.Index, len(n.peers))
	n.matchIndex = make(map[types.NodeID]types.Index, len(n.peers))
	for _, peer := range n.peers {
		n.nextIndex[peer] = lastIdx + 1
		n.matchIndex[peer] = 0
	}

	n.gen++ // invalidate any pending ElectionTimeout
	eff.timer(0, types.HeartbeatTick{Node: n.id, Gen: n.gen})
	eff.trace(now, n.id, events.KindLeaderElected, n.currentTerm, "became leader")
}
