package events

import (
	"sync"

	"github.com/cuemby/raftsim/pkg/types"
)

// Kind identifies the category of a Trace event.
type Kind string

const (
	KindLeaderElected    Kind = "leader_elected"
	KindElectionStarted  Kind = "election_started"
	KindTermChanged      Kind = "term_changed"
	KindCommandCommitted Kind = "command_committed"
	KindNodeCrashed      Kind = "node_crashed"
	KindNodeRecovered    Kind = "node_recovered"
	KindPartitionFormed  Kind = "partition_formed"
	KindPartitionHealed  Kind = "partition_healed"
	KindMessageDropped   Kind = "message_dropped"
)

// Trace is a single entry in a run's observable history.
type Trace struct {
	Time     types.VirtualTime
	Kind     Kind
	Node     types.NodeID
	Term     types.Term
	Message  string
	Metadata map[string]string
}

// Subscriber is a channel that receives Trace entries.
type Subscriber chan *Trace

// Broker distributes Trace entries to subscribers. It mirrors the
// reference orchestrator's event bus: a buffered intake channel, a single
// broadcast goroutine, and per-subscriber buffers so one slow reader never
// blocks another.
type Broker struct {
	subscribers map[Subscriber]bool
	mu          sync.RWMutex
	traceCh     chan *Trace
	stopCh      chan struct{}
}

// NewBroker creates a new trace broker.
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[Subscriber]bool),
		traceCh:     make(chan *Trace, 256),
		stopCh:      make(chan struct{}),
	}
}

// Start begins the broker's distribution loop.
func (b *Broker) Start() {
	go b.run()
}

// Stop stops the broker. Safe to call once; a second call panics, matching
// the reference broker's close-channel semantics.
func (b *Broker) Stop() {
	close(b.stopCh)
}

// Subscribe creates a new subscription and returns a channel.
func (b *Broker) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, 256)
	b.subscribers[sub] = true
	return sub
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, sub)
	close(sub)
}

// Publish publishes a trace entry to all subscribers. Non-blocking: if the
// broker is stopped or its intake is full, the entry is dropped rather than
// stalling the caller (the simulation's own event loop).
func (b *Broker) Publish(t *Trace) {
	select {
	case b.traceCh <- t:
	case <-b.stopCh:
	default:
	}
}

func (b *Broker) run() {
	for {
		select {
		case t := <-b.traceCh:
			b.broadcast(t)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker) broadcast(t *Trace) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		select {
		case sub <- t:
		default:
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
