package raft

import (
	"github.com/cuemby/raftsim/pkg/events"
	"github.com/cuemby/raftsim/pkg/metrics"
	"github.com/cuemby/raftsim/pkg/types"
)

// HandleMessage dispatches an incoming Envelope's payload to the handler
// for its MessageKind. This is the node's single entry point for
// messages the Simulator delivers via a Deliver event.
func (n *Node) HandleMessage(now types.VirtualTime, from types.NodeID, msg types.Message) Effects {
	var eff Effects
	if n.crashed {
		return eff
	}
	switch m := msg.(type) {
	case types.RequestVote:
		n.handleRequestVote(now, from, m, &eff)
	case types.RequestVoteReply:
		n.handleRequestVoteReply(now, from, m, &eff)
	case types.AppendEntries:
		n.handleAppendEntries(now, from, m, &eff)
	case types.AppendEntriesReply:
		n.handleAppendEntriesReply(now, from, m, &eff)
	}
	return eff
}

// handleAppendEntries handles an incoming AppendEntries RPC.
func (n *Node) handleAppendEntries(now types.VirtualTime, from types.NodeID, req types.AppendEntries, eff *Effects) {
	reply := types.AppendEntriesReply{Term: n.currentTerm, Success: false}

	if req.Term < n.currentTerm {
		eff.send(from, reply)
		return
	}
	n.stepTerm(now, req.Term, eff)
	// A Candidate (or stale Leader) recognizes any term >= current as a
	// legitimate leader and steps down to Follower.
	n.role = RoleFollower
	n.leaderID = req.LeaderID
	n.resetElectionTimer(now, eff)

	if req.PrevLogIndex > 0 {
		prevTerm, ok := n.store.Term(req.PrevLogIndex)
		if !ok || prevTerm != req.PrevLogTerm {
			reply.Term = n.currentTerm
			reply.ConflictIndex = n.conflictIndex(req.PrevLogIndex)
			eff.send(from, reply)
			return
		}
	}

	for _, entry := range req.Entries {
		existingTerm, ok := n.store.Term(entry.Index)
		switch {
		case !ok:
			n.store.Append(entry)
		case existingTerm != entry.Term:
			n.store.Truncate(entry.Index)
			n.store.Append(entry)
		default:
			// Identical entry already present: idempotent no-op.
		}
	}

	if req.LeaderCommit > n.commitIndex {
		lastNew := req.PrevLogIndex + types.Index(len(req.Entries))
		if req.LeaderCommit < lastNew {
			n.commitIndex = req.LeaderCommit
		} else {
			n.commitIndex = lastNew
		}
		n.advanceApplied(now, eff)
	}

	reply.Success = true
	reply.Term = n.currentTerm
	reply.MatchIndex = req.PrevLogIndex + types.Index(len(req.Entries))
	eff.send(from, reply)
}

// conflictIndex implements a fast-backtrack optimization: the first index
// of the conflicting term, so a Leader can skip straight past an entire
// mismatched term rather than decrementing nextIndex one at a time.
func (n *Node) conflictIndex(prevLogIndex types.Index) types.Index {
	if prevLogIndex > n.store.LastIndex() {
		return n.store.LastIndex() + 1
	}
	term, ok := n.store.Term(prevLogIndex)
	if !ok {
		return prevLogIndex
	}
	idx := prevLogIndex
	for idx > 1 {
		t, ok := n.store.Term(idx - 1)
		if !ok || t != term {
			break
		}
		idx--
	}
	return idx
}

// handleAppendEntriesReply handles a Follower's reply to AppendEntries.
func (n *Node) handleAppendEntriesReply(now types.VirtualTime, from types.NodeID, reply types.AppendEntriesReply, eff *Effects) {
	if n.stepTerm(now, reply.Term, eff) {
		n.resetElectionTimer(now, eff)
		return
	}
	if n.role != RoleLeader || reply.Term != n.currentTerm {
		return
	}

	if reply.Success {
		if reply.MatchIndex > n.matchIndex[from] {
			n.matchIndex[from] = reply.MatchIndex
		}
		n.nextIndex[from] = n.matchIndex[from] + 1
		n.advanceCommitIndex(now, eff)
		return
	}

	metrics.AppendEntriesRetries.Inc()
	if reply.ConflictIndex > 0 {
		n.nextIndex[from] = reply.ConflictIndex
	} else if n.nextIndex[from] > 1 {
		n.nextIndex[from]--
	}
}

// HandleHeartbeatTick fires on a Leader's replication interval. Stale
// ticks (gen mismatch, or the node stepped down since scheduling) are
// silently discarded.
func (n *Node) HandleHeartbeatTick(now types.VirtualTime, gen uint64) Effects {
	var eff Effects
	if n.crashed || gen != n.gen || n.role != RoleLeader {
		return eff
	}
	n.replicate(now, &eff)
	eff.timer(n.cfg.HeartbeatInterval, types.HeartbeatTick{Node: n.id, Gen: n.gen})
	return eff
}

// replicate sends an AppendEntries to every peer reflecting that peer's
// current nextIndex. Used by both HandleHeartbeatTick and Submit, since a
// client command triggers immediate replication rather than waiting for
// the next scheduled heartbeat.
func (n *Node) replicate(now types.VirtualTime, eff *Effects) {
	for _, peer := range n.peers {
		nextIdx := n.nextIndex[peer]
		if nextIdx < 1 {
			nextIdx = 1
		}
		prevIdx := nextIdx - 1
		var prevTerm types.Term
		if prevIdx > 0 {
			prevTerm, _ = n.store.Term(prevIdx)
		}
		entries := n.store.Entries(nextIdx)

		eff.send(peer, types.AppendEntries{
			Term:         n.currentTerm,
			LeaderID:     n.id,
			PrevLogIndex: prevIdx,
			PrevLogTerm:  prevTerm,
			Entries:      entries,
			LeaderCommit: n.commitIndex,
		})
		metrics.HeartbeatsSent.Inc()
	}
}

// advanceCommitIndex applies the commit advancement rule: a Leader only
// ever commits by finding a current-term entry replicated to a majority,
// never a prior-term entry by count alone.
func (n *Node) advanceCommitIndex(now types.VirtualTime, eff *Effects) {
	last := n.store.LastIndex()
	for N := last; N > n.commitIndex; N-- {
		term, ok := n.store.Term(N)
		if !ok || term != n.currentTerm {
			continue
		}
		count := 1 // self
		for _, peer := range n.peers {
			if n.matchIndex[peer] >= N {
				count++
			}
		}
		if count > n.clusterSize/2 {
			n.commitIndex = N
			n.advanceApplied(now, eff)
			return
		}
	}
}

// advanceApplied moves lastApplied up to commitIndex. There is no real
// state machine to apply committed entries to; applying here means only
// recording the commit in the trace and incrementing the
// CommandsCommitted counter.
func (n *Node) advanceApplied(now types.VirtualTime, eff *Effects) {
	for n.lastApplied < n.commitIndex {
		n.lastApplied++
		metrics.CommandsCommitted.Inc()
		eff.trace(now, n.id, events.KindCommandCommitted, n.currentTerm, "committed log entry")
	}
}
