package raft

import "github.com/cuemby/raftsim/pkg/types"

// LogStore abstracts a node's log so compaction/snapshotting can slot in
// later without touching the replication logic above it. Index is
// 1-based throughout; index 0 means "no entry."
type LogStore interface {
	Append(entry types.LogEntry)
	// Entries returns every entry at or after from, in order.
	Entries(from types.Index) []types.LogEntry
	// Truncate discards every entry at or after from.
	Truncate(from types.Index)
	// Term returns the term of the entry at i, or false if i is out of
	// range (including i == 0).
	Term(i types.Index) (types.Term, bool)
	LastIndex() types.Index
	LastTerm() types.Term
	Len() int
}

// memLogStore is an in-memory LogStore. It is the only implementation:
// this simulator has no persistent storage, but the interface seam
// exists so a durable or snapshot-aware store could replace it without
// touching pkg/raft's handlers.
type memLogStore struct {
	entries []types.LogEntry
}

func newMemLogStore() *memLogStore {
	return &memLogStore{}
}

func (s *memLogStore) Append(entry types.LogEntry) {
	s.entries = append(s.entries, entry)
}

func (s *memLogStore) Entries(from types.Index) []types.LogEntry {
	if from < 1 {
		from = 1
	}
	if int(from) > len(s.entries) {
		return nil
	}
	out := make([]types.LogEntry, len(s.entries)-int(from)+1)
	copy(out, s.entries[from-1:])
	return out
}

func (s *memLogStore) Truncate(from types.Index) {
	if from < 1 {
		s.entries = nil
		return
	}
	if int(from) > len(s.entries) {
		return
	}
	s.entries = s.entries[:from-1]
}

func (s *memLogStore) Term(i types.Index) (types.Term, bool) {
	if i < 1 || int(i) > len(s.entries) {
		return 0, false
	}
	return s.entries[i-1].Term, true
}

func (s *memLogStore) LastIndex() types.Index {
	return types.Index(len(s.entries))
}

func (s *memLogStore) LastTerm() types.Term {
	if len(s.entries) == 0 {
		return 0
	}
	return s.entries[len(s.entries)-1].Term
}

func (s *memLogStore) Len() int {
	return len(s.entries)
}
