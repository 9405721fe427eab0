package scheduler

import (
	"testing"

	"github.com/cuemby/raftsim/pkg/types"
	"github.com/stretchr/testify/assert"
)

// TestOnEventOverwritesPriorHandler verifies registering a second handler
// for the same kind replaces the first, matching construction-time wiring
// semantics rather than a fan-out subscriber list.
func TestOnEventOverwritesPriorHandler(t *testing.T) {
	s := New()
	var calledFirst, calledSecond bool
	s.OnEvent(types.EventElectionTimeout, func(types.VirtualTime, types.Event) { calledFirst = true })
	s.OnEvent(types.EventElectionTimeout, func(types.VirtualTime, types.Event) { calledSecond = true })

	s.Schedule(1, types.ElectionTimeout{Node: "n1"})
	s.RunUntil(10)

	assert.False(t, calledFirst)
	assert.True(t, calledSecond)
}

// TestDistinctKindsDispatchIndependently verifies each EventKind is routed
// to its own handler.
func TestDistinctKindsDispatchIndependently(t *testing.T) {
	s := New()
	var electionCount, heartbeatCount int
	s.OnEvent(types.EventElectionTimeout, func(types.VirtualTime, types.Event) { electionCount++ })
	s.OnEvent(types.EventHeartbeatTick, func(types.VirtualTime, types.Event) { heartbeatCount++ })

	s.Schedule(1, types.ElectionTimeout{Node: "n1"})
	s.Schedule(2, types.HeartbeatTick{Node: "n1"})
	s.Schedule(3, types.ElectionTimeout{Node: "n2"})

	stats := s.RunUntil(10)
	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 2, electionCount)
	assert.Equal(t, 1, heartbeatCount)
}

// TestEmptyRunUntilIsNoop verifies running an empty scheduler returns zero
// stats and never panics.
func TestEmptyRunUntilIsNoop(t *testing.T) {
	s := New()
	stats := s.RunUntil(1000)
	assert.Equal(t, Stats{}, stats)
}

// TestPendingReflectsUnpoppedItems verifies Pending counts everything
// still in the heap, including cancelled-but-not-yet-popped items.
func TestPendingReflectsUnpoppedItems(t *testing.T) {
	s := New()
	s.OnEvent(types.EventElectionTimeout, func(types.VirtualTime, types.Event) {})

	id1 := s.Schedule(5, types.ElectionTimeout{Node: "n1"})
	s.Schedule(5, types.ElectionTimeout{Node: "n2"})
	assert.Equal(t, 2, s.Pending())

	s.Cancel(id1)
	assert.Equal(t, 2, s.Pending(), "cancel does not remove the heap item, only tombstones it")

	s.RunUntil(10)
	assert.Equal(t, 0, s.Pending())
}

// TestHeapOrderingManyInterleaved is a larger table-driven check that the
// min-heap produces a fully sorted (time, seq) dispatch order even when
// many items interleave across several delays.
func TestHeapOrderingManyInterleaved(t *testing.T) {
	cases := []struct {
		name   string
		delays []types.VirtualTime
	}{
		{name: "ascending", delays: []types.VirtualTime{1, 2, 3, 4, 5}},
		{name: "descending", delays: []types.VirtualTime{5, 4, 3, 2, 1}},
		{name: "duplicates", delays: []types.VirtualTime{2, 2, 2, 1, 1}},
		{name: "single", delays: []types.VirtualTime{3}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := New()
			var observed []types.VirtualTime
			s.OnEvent(types.EventElectionTimeout, func(now types.VirtualTime, ev types.Event) {
				observed = append(observed, now)
			})

			for _, d := range tc.delays {
				s.Schedule(d, types.ElectionTimeout{Node: "n"})
			}
			s.RunUntil(1000)

			for i := 1; i < len(observed); i++ {
				assert.LessOrEqual(t, observed[i-1], observed[i], "dispatch order must be non-decreasing in time")
			}
			assert.Len(t, observed, len(tc.delays))
		})
	}
}

// TestNextEventTimeReflectsEarliestPending verifies NextEventTime reports
// the earliest still-pending item's time without popping it, and reports
// false once the heap drains.
func TestNextEventTimeReflectsEarliestPending(t *testing.T) {
	s := New()
	s.OnEvent(types.EventElectionTimeout, func(types.VirtualTime, types.Event) {})

	_, ok := s.NextEventTime()
	assert.False(t, ok)

	s.Schedule(5, types.ElectionTimeout{Node: "n1"})
	s.Schedule(2, types.ElectionTimeout{Node: "n2"})

	when, ok := s.NextEventTime()
	assert.True(t, ok)
	assert.Equal(t, types.VirtualTime(2), when)
	assert.Equal(t, 2, s.Pending(), "peeking must not pop")

	s.RunUntil(1000)
	_, ok = s.NextEventTime()
	assert.False(t, ok)
}

// TestScheduleDuringRunUntilIsHonored verifies a handler that schedules a
// new event mid-run sees that event picked up within the same RunUntil if
// it falls within the horizon, since simulated Raft handlers routinely
// reschedule their own timers.
func TestScheduleDuringRunUntilIsHonored(t *testing.T) {
	s := New()
	var ticks int
	s.OnEvent(types.EventHeartbeatTick, func(now types.VirtualTime, ev types.Event) {
		ticks++
		if ticks < 3 {
			s.Schedule(1, types.HeartbeatTick{Node: "n1"})
		}
	})

	s.Schedule(1, types.HeartbeatTick{Node: "n1"})
	stats := s.RunUntil(10)

	assert.Equal(t, 3, ticks)
	assert.Equal(t, 3, stats.Processed)
}
