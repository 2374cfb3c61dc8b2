package eventbus

import (
	"sync"
	"sync/atomic"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 8

// Event represents an arbitrary event passed on the bus.
type Event interface{}

// Publisher is the producer side of the bus.
type Publisher interface {
	Publish(Event)
}

// EventBus implements a simple publish/subscribe event bus.
type EventBus interface {
	Publisher
	Subscribe() <-chan Event
	// SubscribeBlocking registers a subscriber that never misses an event.
	// Publish waits for it to accept each event.
	SubscribeBlocking() <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

// Option configures a Bus.
type Option func(*Bus)

// WithBuffer sets the subscriber channel capacity.
func WithBuffer(n int) Option {
	return func(b *Bus) {
		if n >= 0 {
			b.buffer = n
		}
	}
}

type subscriber struct {
	ch       chan Event
	blocking bool
	quit     chan struct{}
	once     sync.Once
}

func (s *subscriber) stop() { s.once.Do(func() { close(s.quit) }) }

// Bus is the default EventBus implementation using fan-out channels.
// Events are dropped for regular subscribers whose buffer is full.
type Bus struct {
	mu      sync.RWMutex
	subs    []*subscriber
	closed  bool
	buffer  int
	dropped atomic.Uint64

	done      chan struct{}
	closeOnce sync.Once
}

// New creates a new Bus.
func New(opts ...Option) *Bus {
	b := &Bus{buffer: DefaultBuffer, done: make(chan struct{})}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Publish sends the event to all subscribers. Delivery to regular
// subscribers is non-blocking; blocking subscribers are waited on until they
// accept the event, unsubscribe or the bus closes.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, s := range b.subs {
		if s.blocking {
			select {
			case s.ch <- e:
			case <-s.quit:
			case <-b.done:
			}
			continue
		}
		select {
		case s.ch <- e:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped returns how many deliveries were skipped on full buffers.
func (b *Bus) Dropped() uint64 { return b.dropped.Load() }

// Subscribe registers a new subscriber and returns its channel.
func (b *Bus) Subscribe() <-chan Event { return b.subscribe(false) }

// SubscribeBlocking registers a subscriber for which Publish never drops.
// The consumer must keep reading or Unsubscribe, otherwise publishers stall.
func (b *Bus) SubscribeBlocking() <-chan Event { return b.subscribe(true) }

func (b *Bus) subscribe(blocking bool) <-chan Event {
	s := &subscriber{ch: make(chan Event, b.buffer), blocking: blocking, quit: make(chan struct{})}
	b.mu.Lock()
	if b.closed {
		close(s.ch)
	} else {
		b.subs = append(b.subs, s)
	}
	b.mu.Unlock()
	return s.ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Bus) Unsubscribe(sub <-chan Event) {
	// Release a Publish parked on this subscriber before taking the write lock.
	b.mu.RLock()
	var target *subscriber
	for _, s := range b.subs {
		if s.ch == sub {
			target = s
			break
		}
	}
	b.mu.RUnlock()
	if target == nil {
		return
	}
	target.stop()

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s == target {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(s.ch)
			}
			return
		}
	}
}

// Close closes all subscriber channels and clears the list.
func (b *Bus) Close() {
	b.closeOnce.Do(func() { close(b.done) })
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, s := range b.subs {
		close(s.ch)
	}
	b.subs = nil
	b.mu.Unlock()
}
