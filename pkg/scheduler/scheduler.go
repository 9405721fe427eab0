package scheduler

import (
	"container/heap"
	"fmt"

	"github.com/cuemby/raftsim/pkg/log"
	"github.com/cuemby/raftsim/pkg/metrics"
	"github.com/cuemby/raftsim/pkg/types"
	"github.com/rs/zerolog"
)

// EventID identifies a scheduled item, returned by Schedule and consumed by
// Cancel. It is opaque outside this package.
type EventID uint64

// Handler processes one dispatched event. Handlers run synchronously on the
// goroutine that called RunUntil; they must not block.
type Handler func(now types.VirtualTime, ev types.Event)

// Stats summarizes one RunUntil call. The scheduler itself never raises on
// a full queue or on cancelled items; it only reports what happened.
type Stats struct {
	Processed int
	Cancelled int
}

// item is one heap-resident entry: a scheduled event plus its ordering key
// and cancellation tombstone.
type item struct {
	time      types.VirtualTime
	seq       types.Seq
	id        EventID
	payload   types.Event
	cancelled bool
	index     int // maintained by container/heap
}

// itemHeap implements container/heap.Interface, ordering by (time, seq).
type itemHeap []*item

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}
	return h[i].seq < h[j].seq
}

func (h itemHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *itemHeap) Push(x any) {
	it := x.(*item)
	it.index = len(*h)
	*h = append(*h, it)
}

func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*h = old[:n-1]
	return it
}

// Scheduler is the simulator's single discrete-event priority queue. It
// owns virtual time: Now() never advances except as a side effect of
// RunUntil popping an item.
type Scheduler struct {
	logger   zerolog.Logger
	heap     itemHeap
	items    map[EventID]*item
	handlers map[types.EventKind]Handler
	now      types.VirtualTime
	nextSeq  types.Seq
	nextID   EventID
}

// New creates an empty Scheduler at virtual time 0.
func New() *Scheduler {
	return &Scheduler{
		logger:   log.WithComponent("scheduler"),
		items:    make(map[EventID]*item),
		handlers: make(map[types.EventKind]Handler),
	}
}

// OnEvent registers the Handler invoked for every Event of the given kind.
// Registering a second handler for the same kind replaces the first; this
// is a construction-time wiring step, not a runtime subscription list.
func (s *Scheduler) OnEvent(kind types.EventKind, h Handler) {
	s.handlers[kind] = h
}

// Now returns the scheduler's current virtual time: the time of the most
// recently dispatched event, or 0 before the first RunUntil call.
func (s *Scheduler) Now() types.VirtualTime {
	return s.now
}

// Schedule enqueues ev to fire delay seconds after Now() and returns an
// EventID that Cancel can use to suppress it before it fires. A negative
// delay is a programmer error and panics, per the scheduler's contract:
// the simulator never needs to schedule into its own past.
func (s *Scheduler) Schedule(delay types.VirtualTime, ev types.Event) EventID {
	if delay < 0 {
		panic(fmt.Sprintf("scheduler: negative delay %v", delay))
	}
	id := s.nextID
	s.nextID++
	seq := s.nextSeq
	s.nextSeq++

	it := &item{
		time:    s.now + delay,
		seq:     seq,
		id:      id,
		payload: ev,
	}
	s.items[id] = it
	heap.Push(&s.heap, it)
	return id
}

// Cancel marks id's event so it will be skipped when popped, without
// touching the heap's shape. Cancelling an id that already fired or was
// already cancelled is a no-op: callers are not required to track whether
// their own cancel already happened.
func (s *Scheduler) Cancel(id EventID) {
	it, ok := s.items[id]
	if !ok {
		return
	}
	it.cancelled = true
}

// RunUntil pops and dispatches events in (time, seq) order until the heap
// is empty or the next item's time exceeds tMax. Cancelled items are
// popped, counted, and skipped without invoking a handler. An event whose
// kind has no registered handler is also skipped (and logged), since a
// handler-less kind can only arise from a wiring bug, not from simulated
// behavior.
func (s *Scheduler) RunUntil(tMax types.VirtualTime) Stats {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.SchedulerBatchSeconds)

	var stats Stats
	for s.heap.Len() > 0 {
		next := s.heap[0]
		if next.time > tMax {
			break
		}
		it := heap.Pop(&s.heap).(*item)
		delete(s.items, it.id)
		s.now = it.time

		if it.cancelled {
			stats.Cancelled++
			metrics.EventsCancelled.Inc()
			continue
		}

		h, ok := s.handlers[it.payload.EventKind()]
		if !ok {
			s.logger.Warn().Str("kind", it.payload.EventKind().String()).Msg("no handler registered for event kind")
			continue
		}
		h(s.now, it.payload)
		stats.Processed++
		metrics.EventsProcessed.Inc()
	}
	return stats
}

// Pending returns the number of events still in the heap, cancelled or
// not. Tests use this to assert that a cancelled timer's tombstone is
// eventually collected by RunUntil rather than leaking forever.
func (s *Scheduler) Pending() int {
	return s.heap.Len()
}

// NextEventTime returns the time of the earliest still-pending event and
// true, or (0, false) if the heap is empty. It never pops an item or
// advances Now(); callers use it to size the next RunUntil call instead of
// guessing a fixed stride, since a gap between events can be arbitrarily
// large.
func (s *Scheduler) NextEventTime() (types.VirtualTime, bool) {
	if s.heap.Len() == 0 {
		return 0, false
	}
	return s.heap[0].time, true
}
