package tasks

import (
	"sync"
)

// Notifier receives run events. Implementations must not block the run.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to [Notifier].
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }

// ChanNotifier sends events on a channel without blocking; events are dropped while the channel is full.
type ChanNotifier chan<- Event

func (c ChanNotifier) Notify(e Event) {
	if c == nil {
		return
	}
	select {
	case c <- e:
	default:
	}
}

type discard struct{}

func (discard) Notify(Event) {}

// DefaultBuffer is the per-subscriber buffer of a [Channel].
const DefaultBuffer = 128

// Channel routes events to observers by session handle.
//
// A session may have several subscribers. Publishing to a session nobody
// subscribes to, or whose subscribers have all left, does nothing.
type Channel struct {
	mu     sync.RWMutex
	subs   map[string]map[uint64]chan Event
	nextID uint64
	buffer int
}

// NewChannel creates a Channel whose subscribers buffer up to buffer events.
func NewChannel(buffer int) *Channel {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Channel{subs: make(map[string]map[uint64]chan Event), buffer: buffer}
}

// Subscribe registers an observer for session. Call cancel to unsubscribe; it closes the returned channel.
func (c *Channel) Subscribe(session string) (events <-chan Event, cancel func()) {
	ch := make(chan Event, c.buffer)

	c.mu.Lock()
	c.nextID++
	id := c.nextID
	if c.subs[session] == nil {
		c.subs[session] = make(map[uint64]chan Event)
	}
	c.subs[session][id] = ch
	c.mu.Unlock()

	var once sync.Once
	cancel = func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.subs[session], id)
			if len(c.subs[session]) == 0 {
				delete(c.subs, session)
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers e to every subscriber of session and reports whether anyone received it.
func (c *Channel) Publish(session string, e Event) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	delivered := false
	for _, ch := range c.subs[session] {
		select {
		case ch <- e:
			delivered = true
		default:
		}
	}
	return delivered
}

// Broadcast delivers e to every subscriber of every session.
func (c *Channel) Broadcast(e Event) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, subs := range c.subs {
		for _, ch := range subs {
			select {
			case ch <- e:
			default:
			}
		}
	}
}

// Sessions returns the number of sessions with at least one subscriber.
func (c *Channel) Sessions() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subs)
}

// Notifier returns a [Notifier] that publishes to session.
func (c *Channel) Notifier(session string) Notifier {
	return NotifierFunc(func(e Event) { c.Publish(session, e) })
}
