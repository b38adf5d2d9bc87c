// Package event provides the pub/sub notification bus between the session
// coordinator and its callers, built on watermill's gochannel.
//
// Buses are constructed explicitly and passed to whichever component owns
// them; there is no package-level singleton. Publish feeds a single
// delivery pipeline, so asynchronous notifications still reach every
// subscriber in publish order. Callers that want a bounded queue instead
// of a callback use SubscribeCh, which drops events rather than block the
// pipeline when the consumer falls behind.
package event

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Type tags a notification published on the bus.
type Type string

const (
	SessionStarted   Type = "session.started"
	SessionEnded     Type = "session.ended"
	EventReceived    Type = "event.received"
	ApprovalAuto     Type = "approval.auto"
	ApprovalRequired Type = "approval.required"
	ApprovalResolved Type = "approval.resolved"
	RulesReplaced    Type = "rules.replaced"
)

// deliveryTopic is the single gochannel topic carrying the pipeline.
const deliveryTopic = "notifications"

// Event is a notification published on the bus.
type Event struct {
	Type Type `json:"type"`
	Data any  `json:"data"`
}

// Subscriber is a function that receives notifications.
type Subscriber func(event Event)

type subscriberEntry struct {
	id uint64
	fn Subscriber
}

// Bus manages pub/sub using watermill's gochannel for delivery while
// keeping direct-call semantics to preserve type information: the typed
// payload rides an internal queue aligned one-to-one with the pipeline
// messages.
type Bus struct {
	mu sync.RWMutex

	pubsub *gochannel.GoChannel

	subscribers map[Type][]subscriberEntry
	global      []subscriberEntry

	nextID uint64
	closed bool
	cancel context.CancelFunc

	queueMu sync.Mutex
	queue   []Event
}

// NewBus creates a new event bus and starts its delivery pipeline.
func NewBus() *Bus {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer: 100,
				Persistent:          false,
			},
			watermill.NopLogger{},
		),
		subscribers: make(map[Type][]subscriberEntry),
		cancel:      cancel,
	}

	msgs, err := b.pubsub.Subscribe(ctx, deliveryTopic)
	if err == nil {
		go b.deliver(msgs)
	}

	return b
}

// deliver drains the pipeline one message at a time, handing each queued
// event to its subscribers in publish order.
func (b *Bus) deliver(msgs <-chan *message.Message) {
	for msg := range msgs {
		if ev, ok := b.dequeue(); ok {
			for _, sub := range b.collect(ev.Type) {
				sub(ev)
			}
		}
		msg.Ack()
	}
}

func (b *Bus) enqueue(event Event) {
	b.queueMu.Lock()
	b.queue = append(b.queue, event)
	b.queueMu.Unlock()
}

func (b *Bus) dequeue() (Event, bool) {
	b.queueMu.Lock()
	defer b.queueMu.Unlock()

	if len(b.queue) == 0 {
		return Event{}, false
	}
	ev := b.queue[0]
	b.queue = b.queue[1:]
	return ev, true
}

func (b *Bus) newID() uint64 {
	return atomic.AddUint64(&b.nextID, 1)
}

// Subscribe registers a subscriber for a specific notification type.
// Returns an unsubscribe function.
func (b *Bus) Subscribe(t Type, fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}

	id := b.newID()
	b.subscribers[t] = append(b.subscribers[t], subscriberEntry{id: id, fn: fn})

	return func() {
		b.unsubscribe(t, id)
	}
}

// SubscribeAll registers a subscriber for all notifications.
// Returns an unsubscribe function.
func (b *Bus) SubscribeAll(fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}

	id := b.newID()
	b.global = append(b.global, subscriberEntry{id: id, fn: fn})

	return func() {
		b.unsubscribeGlobal(id)
	}
}

// SubscribeCh registers a bounded-channel subscription for all
// notifications. Events are dropped when the channel is full so a slow
// consumer never blocks the delivery pipeline. The returned function
// unsubscribes and closes the channel.
func (b *Bus) SubscribeCh(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	var once sync.Once
	unsub := b.SubscribeAll(func(e Event) {
		select {
		case ch <- e:
		default:
		}
	})

	return ch, func() {
		unsub()
		once.Do(func() { close(ch) })
	}
}

func (b *Bus) unsubscribe(t Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[t]
	for i, entry := range subs {
		if entry.id == id {
			b.subscribers[t] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
}

func (b *Bus) unsubscribeGlobal(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, entry := range b.global {
		if entry.id == id {
			b.global = append(b.global[:i], b.global[i+1:]...)
			break
		}
	}
}

func (b *Bus) collect(t Type) []Subscriber {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil
	}

	subs := make([]Subscriber, 0, len(b.subscribers[t])+len(b.global))
	for _, entry := range b.subscribers[t] {
		subs = append(subs, entry.fn)
	}
	for _, entry := range b.global {
		subs = append(subs, entry.fn)
	}
	return subs
}

// Publish sends a notification to all subscribers asynchronously. The
// single delivery goroutine dispatches events strictly in publish order;
// a slow callback delays later events rather than reordering them.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return
	}

	b.enqueue(event)

	msg := message.NewMessage(watermill.NewUUID(), nil)
	if err := b.pubsub.Publish(deliveryTopic, msg); err != nil {
		// Bus closed mid-publish; the queued event is discarded with it.
		return
	}
}

// PublishSync sends a notification to all subscribers synchronously.
// All subscribers are called in the current goroutine before returning.
func (b *Bus) PublishSync(event Event) {
	for _, sub := range b.collect(event.Type) {
		sub(event)
	}
}

// Close closes the bus and removes all subscribers.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.cancel()
	b.subscribers = make(map[Type][]subscriberEntry)
	b.global = nil
	b.mu.Unlock()

	b.queueMu.Lock()
	b.queue = nil
	b.queueMu.Unlock()

	return b.pubsub.Close()
}

// PubSub returns the underlying watermill GoChannel carrying the delivery
// pipeline, for advanced use cases such as middleware or a future
// distributed backend.
func (b *Bus) PubSub() *gochannel.GoChannel {
	return b.pubsub
}
