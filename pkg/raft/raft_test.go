package raft

import (
	"math/rand"
	"testing"

	"github.com/cuemby/raftsim/pkg/events"
	"github.com/cuemby/raftsim/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{ElectionMin: 10, ElectionMax: 20, HeartbeatInterval: 2}
}

func newTestNode(id types.NodeID, peers []types.NodeID, seed int64) *Node {
	return New(id, peers, testConfig(), rand.New(rand.NewSource(seed)))
}

// TestStartSchedulesElectionTimeout verifies Start enqueues exactly one
// ElectionTimeout within the configured bounds.
func TestStartSchedulesElectionTimeout(t *testing.T) {
	n := newTestNode("n1", []types.NodeID{"n2", "n3"}, 1)
	eff := n.Start(0)

	require.Len(t, eff.Timers, 1)
	tm := eff.Timers[0]
	_, ok := tm.Event.(types.ElectionTimeout)
	require.True(t, ok)
	assert.GreaterOrEqual(t, tm.Delay, testConfig().ElectionMin)
	assert.Less(t, tm.Delay, testConfig().ElectionMax)
}

// TestElectionTimeoutBecomesCandidateAndBroadcasts verifies a fresh
// ElectionTimeout increments the term, votes for self, and broadcasts
// RequestVote to every peer.
func TestElectionTimeoutBecomesCandidateAndBroadcasts(t *testing.T) {
	n := newTestNode("n1", []types.NodeID{"n2", "n3"}, 1)
	startEff := n.Start(0)
	gen := startEff.Timers[0].Event.(types.ElectionTimeout).Gen

	eff := n.HandleElectionTimeout(5, gen)

	assert.Equal(t, RoleCandidate, n.role)
	assert.Equal(t, types.Term(1), n.currentTerm)
	require.Len(t, eff.Sends, 2)
	for _, s := range eff.Sends {
		rv, ok := s.Msg.(types.RequestVote)
		require.True(t, ok)
		assert.Equal(t, types.Term(1), rv.Term)
		assert.Equal(t, types.NodeID("n1"), rv.CandidateID)
	}
}

// TestStaleElectionTimeoutIsNoop verifies a timer whose Gen no longer
// matches the node's current generation is discarded.
func TestStaleElectionTimeoutIsNoop(t *testing.T) {
	n := newTestNode("n1", []types.NodeID{"n2", "n3"}, 1)
	startEff := n.Start(0)
	staleGen := startEff.Timers[0].Event.(types.ElectionTimeout).Gen

	// A RequestVote grant bumps the generation, invalidating staleGen.
	n.HandleMessage(1, "n2", types.RequestVote{Term: 1, CandidateID: "n2", LastLogIndex: 0, LastLogTerm: 0})

	eff := n.HandleElectionTimeout(10, staleGen)
	assert.Empty(t, eff.Sends)
	assert.Empty(t, eff.Timers)
	assert.Equal(t, RoleFollower, n.role)
}

// TestMajorityVotesElectsLeader verifies a Candidate becomes Leader only
// once it has strictly more than half the votes, never before.
func TestMajorityVotesElectsLeader(t *testing.T) {
	n := newTestNode("n1", []types.NodeID{"n2", "n3", "n4", "n5"}, 1)
	startEff := n.Start(0)
	gen := startEff.Timers[0].Event.(types.ElectionTimeout).Gen
	n.HandleElectionTimeout(5, gen)
	require.Equal(t, RoleCandidate, n.role)

	eff := n.HandleMessage(6, "n2", types.RequestVoteReply{Term: 1, VoteGranted: true})
	assert.Equal(t, RoleCandidate, n.role, "2 of 5 votes is not yet a majority")
	assert.Empty(t, eff.Timers)

	eff = n.HandleMessage(7, "n3", types.RequestVoteReply{Term: 1, VoteGranted: true})
	assert.Equal(t, RoleLeader, n.role, "3 of 5 votes is a majority")
	require.Len(t, eff.Timers, 1)
	_, ok := eff.Timers[0].Event.(types.HeartbeatTick)
	assert.True(t, ok)
}

// TestHigherTermStepsDownCandidate verifies a RequestVoteReply carrying a
// higher term forces an immediate step-down to Follower.
func TestHigherTermStepsDownCandidate(t *testing.T) {
	n := newTestNode("n1", []types.NodeID{"n2", "n3"}, 1)
	startEff := n.Start(0)
	gen := startEff.Timers[0].Event.(types.ElectionTimeout).Gen
	n.HandleElectionTimeout(5, gen)

	n.HandleMessage(6, "n2", types.RequestVoteReply{Term: 99, VoteGranted: false})
	assert.Equal(t, RoleFollower, n.role)
	assert.Equal(t, types.Term(99), n.currentTerm)
	assert.Nil(t, n.votedFor)
}

// TestVoteGrantedOnlyOncePerTerm verifies a node does not grant a second,
// different vote within the same term, but re-granting to the same
// candidate is idempotent.
func TestVoteGrantedOnlyOncePerTerm(t *testing.T) {
	n := newTestNode("n1", []types.NodeID{"n2", "n3"}, 1)
	n.Start(0)

	eff := n.HandleMessage(1, "n2", types.RequestVote{Term: 1, CandidateID: "n2"})
	require.Len(t, eff.Sends, 1)
	assert.True(t, eff.Sends[0].Msg.(types.RequestVoteReply).VoteGranted)

	eff = n.HandleMessage(2, "n3", types.RequestVote{Term: 1, CandidateID: "n3"})
	require.Len(t, eff.Sends, 1)
	assert.False(t, eff.Sends[0].Msg.(types.RequestVoteReply).VoteGranted)

	eff = n.HandleMessage(3, "n2", types.RequestVote{Term: 1, CandidateID: "n2"})
	require.Len(t, eff.Sends, 1)
	assert.True(t, eff.Sends[0].Msg.(types.RequestVoteReply).VoteGranted, "re-granting to the same candidate is idempotent")
}

// TestVoteWithholdOnStaleLog verifies a candidate whose log is behind is
// denied even with an otherwise-eligible term.
func TestVoteWithholdOnStaleLog(t *testing.T) {
	n := newTestNode("n1", []types.NodeID{"n2"}, 1)
	n.Start(0)
	n.store.Append(types.LogEntry{Term: 5, Index: 1})
	n.currentTerm = 5

	eff := n.HandleMessage(1, "n2", types.RequestVote{Term: 5, CandidateID: "n2", LastLogIndex: 0, LastLogTerm: 0})
	require.Len(t, eff.Sends, 1)
	assert.False(t, eff.Sends[0].Msg.(types.RequestVoteReply).VoteGranted)
}

// TestAppendEntriesRejectsLowerTerm verifies a stale Leader's heartbeat is
// rejected with the follower's own (higher) term.
func TestAppendEntriesRejectsLowerTerm(t *testing.T) {
	n := newTestNode("n1", []types.NodeID{"n2"}, 1)
	n.Start(0)
	n.currentTerm = 5

	eff := n.HandleMessage(1, "n2", types.AppendEntries{Term: 3, LeaderID: "n2"})
	require.Len(t, eff.Sends, 1)
	reply := eff.Sends[0].Msg.(types.AppendEntriesReply)
	assert.False(t, reply.Success)
	assert.Equal(t, types.Term(5), reply.Term)
}

// TestAppendEntriesLogConsistencyCheck verifies a PrevLogIndex/PrevLogTerm
// mismatch is rejected with a conflict index rather than corrupting the
// log.
func TestAppendEntriesLogConsistencyCheck(t *testing.T) {
	n := newTestNode("n1", []types.NodeID{"n2"}, 1)
	n.Start(0)

	eff := n.HandleMessage(1, "n2", types.AppendEntries{
		Term: 1, LeaderID: "n2", PrevLogIndex: 1, PrevLogTerm: 1,
	})
	require.Len(t, eff.Sends, 1)
	reply := eff.Sends[0].Msg.(types.AppendEntriesReply)
	assert.False(t, reply.Success)
	assert.Equal(t, types.Index(1), reply.ConflictIndex)
	assert.Equal(t, 0, n.store.Len())
}

// TestAppendEntriesAppendsAndCommits verifies a consistent AppendEntries
// appends new entries and advances commitIndex per leaderCommit.
func TestAppendEntriesAppendsAndCommits(t *testing.T) {
	n := newTestNode("n1", []types.NodeID{"n2"}, 1)
	n.Start(0)

	entries := []types.LogEntry{
		{Term: 1, Index: 1, Command: []byte("a")},
		{Term: 1, Index: 2, Command: []byte("b")},
	}
	eff := n.HandleMessage(1, "n2", types.AppendEntries{
		Term: 1, LeaderID: "n2", PrevLogIndex: 0, PrevLogTerm: 0,
		Entries: entries, LeaderCommit: 2,
	})

	require.Len(t, eff.Sends, 1)
	reply := eff.Sends[0].Msg.(types.AppendEntriesReply)
	assert.True(t, reply.Success)
	assert.Equal(t, types.Index(2), reply.MatchIndex)
	assert.Equal(t, 2, n.store.Len())
	assert.Equal(t, types.Index(2), n.commitIndex)
	assert.Equal(t, types.Index(2), n.lastApplied)
	committed := 0
	for _, tr := range eff.Traces {
		if tr.Kind == events.KindCommandCommitted {
			committed++
		}
	}
	assert.Equal(t, 2, committed, "two newly committed entries should each trace once")
}

// TestRepeatedIdenticalAppendEntriesIsIdempotent verifies redelivering
// the same AppendEntries twice leaves the log unchanged after the first
// successful apply.
func TestRepeatedIdenticalAppendEntriesIsIdempotent(t *testing.T) {
	n := newTestNode("n1", []types.NodeID{"n2"}, 1)
	n.Start(0)

	req := types.AppendEntries{
		Term: 1, LeaderID: "n2", PrevLogIndex: 0, PrevLogTerm: 0,
		Entries: []types.LogEntry{{Term: 1, Index: 1, Command: []byte("a")}},
	}
	n.HandleMessage(1, "n2", req)
	firstLog := append([]types.LogEntry(nil), n.store.Entries(1)...)

	n.HandleMessage(2, "n2", req)
	secondLog := n.store.Entries(1)

	assert.Equal(t, firstLog, secondLog)
}

// TestConflictingEntryTruncatesLog verifies an entry with the same index
// but a different term truncates the follower's log from that point.
func TestConflictingEntryTruncatesLog(t *testing.T) {
	n := newTestNode("n1", []types.NodeID{"n2"}, 1)
	n.Start(0)
	n.store.Append(types.LogEntry{Term: 1, Index: 1})
	n.store.Append(types.LogEntry{Term: 1, Index: 2})
	n.store.Append(types.LogEntry{Term: 1, Index: 3})

	n.HandleMessage(1, "n2", types.AppendEntries{
		Term: 2, LeaderID: "n2", PrevLogIndex: 1, PrevLogTerm: 1,
		Entries: []types.LogEntry{{Term: 2, Index: 2, Command: []byte("x")}},
	})

	require.Equal(t, 2, n.store.Len())
	term, ok := n.store.Term(2)
	require.True(t, ok)
	assert.Equal(t, types.Term(2), term)
}

// TestLeaderCommitRequiresCurrentTermEntry verifies advanceCommitIndex
// never commits a prior-term entry by count alone.
func TestLeaderCommitRequiresCurrentTermEntry(t *testing.T) {
	n := newTestNode("n1", []types.NodeID{"n2", "n3", "n4"}, 1)
	n.Start(0)
	n.role = RoleLeader
	n.currentTerm = 2
	n.store.Append(types.LogEntry{Term: 1, Index: 1})
	n.nextIndex = map[types.NodeID]types.Index{"n2": 2, "n3": 2, "n4": 2}
	n.matchIndex = map[types.NodeID]types.Index{"n2": 1, "n3": 1, "n4": 0}

	var eff Effects
	n.advanceCommitIndex(5, &eff)

	assert.Equal(t, types.Index(0), n.commitIndex, "index 1 is term 1, not the leader's current term 2")
}

// TestLeaderCommitAdvancesOnCurrentTermMajority verifies commitIndex
// advances once a current-term entry reaches a majority.
func TestLeaderCommitAdvancesOnCurrentTermMajority(t *testing.T) {
	n := newTestNode("n1", []types.NodeID{"n2", "n3", "n4"}, 1)
	n.Start(0)
	n.role = RoleLeader
	n.currentTerm = 2
	n.store.Append(types.LogEntry{Term: 1, Index: 1})
	n.store.Append(types.LogEntry{Term: 2, Index: 2})
	n.nextIndex = map[types.NodeID]types.Index{"n2": 3, "n3": 3, "n4": 1}
	n.matchIndex = map[types.NodeID]types.Index{"n2": 2, "n3": 2, "n4": 0}

	var eff Effects
	n.advanceCommitIndex(5, &eff)

	assert.Equal(t, types.Index(2), n.commitIndex)
}

// TestAppendEntriesDemotesCandidate verifies a Candidate recognizes any
// term >= current as a legitimate leader and steps down.
func TestAppendEntriesDemotesCandidate(t *testing.T) {
	n := newTestNode("n1", []types.NodeID{"n2", "n3"}, 1)
	startEff := n.Start(0)
	gen := startEff.Timers[0].Event.(types.ElectionTimeout).Gen
	n.HandleElectionTimeout(5, gen)
	require.Equal(t, RoleCandidate, n.role)

	n.HandleMessage(6, "n2", types.AppendEntries{Term: n.currentTerm, LeaderID: "n2"})
	assert.Equal(t, RoleFollower, n.role)
	assert.Equal(t, types.NodeID("n2"), n.leaderID)
}

// TestCrashedNodeIgnoresEverything verifies SetCrashed(true) makes every
// Handle* call a no-op.
func TestCrashedNodeIgnoresEverything(t *testing.T) {
	n := newTestNode("n1", []types.NodeID{"n2"}, 1)
	n.Start(0)
	n.SetCrashed(true)

	assert.Empty(t, n.Start(0).Timers)
	assert.Empty(t, n.HandleElectionTimeout(1, n.gen).Sends)
	assert.Empty(t, n.HandleMessage(1, "n2", types.RequestVote{Term: 1}).Sends)
	_, err := n.Submit(1, []byte("x"))
	assert.Error(t, err)
}

// TestSubmitRequiresLeader verifies Submit on a non-leader returns an
// error rather than silently dropping the command.
func TestSubmitRequiresLeader(t *testing.T) {
	n := newTestNode("n1", []types.NodeID{"n2"}, 1)
	n.Start(0)

	_, err := n.Submit(1, []byte("x"))
	assert.Error(t, err)
}

// TestSubmitAppendsAndReplicates verifies Submit on a Leader appends to
// its own log and immediately broadcasts an AppendEntries carrying it.
func TestSubmitAppendsAndReplicates(t *testing.T) {
	n := newTestNode("n1", []types.NodeID{"n2", "n3"}, 1)
	n.Start(0)
	n.role = RoleLeader
	n.currentTerm = 1
	n.nextIndex = map[types.NodeID]types.Index{"n2": 1, "n3": 1}
	n.matchIndex = map[types.NodeID]types.Index{"n2": 0, "n3": 0}

	eff, err := n.Submit(0, []byte("cmd"))
	require.NoError(t, err)
	assert.Equal(t, 1, n.store.Len())
	require.Len(t, eff.Sends, 2)
	for _, s := range eff.Sends {
		ae := s.Msg.(types.AppendEntries)
		require.Len(t, ae.Entries, 1)
		assert.Equal(t, []byte("cmd"), ae.Entries[0].Command)
	}
}

// TestHeartbeatTickRenewsTimer verifies a Leader's heartbeat reschedules
// itself at the configured interval.
func TestHeartbeatTickRenewsTimer(t *testing.T) {
	n := newTestNode("n1", []types.NodeID{"n2"}, 1)
	n.Start(0)
	n.role = RoleLeader
	n.currentTerm = 1
	n.nextIndex = map[types.NodeID]types.Index{"n2": 1}
	n.matchIndex = map[types.NodeID]types.Index{"n2": 0}

	eff := n.HandleHeartbeatTick(0, n.gen)
	require.Len(t, eff.Timers, 1)
	assert.Equal(t, testConfig().HeartbeatInterval, eff.Timers[0].Delay)
}
