// Package pubsub fans live events out to in-process subscribers.
package pubsub

import (
	"context"
	"sync"

	"campusdrop/internal/ports/events"
)

// Name is the sink label of the broker.
const Name = "pubsub"

// Subscription receives the messages of the topics it is subscribed to.
type Subscription struct {
	broker *Broker
	ch     chan events.Message

	mu     sync.Mutex
	topics map[string]struct{}
	closed bool
}

// C yields messages until the subscription is closed.
func (s *Subscription) C() <-chan events.Message { return s.ch }

// Subscribe adds topic to the subscription.
func (s *Subscription) Subscribe(topic string) {
	s.broker.mu.Lock()
	defer s.broker.mu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.topics[topic] = struct{}{}
	subs, ok := s.broker.topics[topic]
	if !ok {
		subs = make(map[*Subscription]struct{})
		s.broker.topics[topic] = subs
	}
	subs[s] = struct{}{}
}

// Unsubscribe removes topic from the subscription.
func (s *Subscription) Unsubscribe(topic string) {
	s.broker.mu.Lock()
	defer s.broker.mu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.topics, topic)
	s.broker.detach(topic, s)
}

// Topics returns the subscribed topics.
func (s *Subscription) Topics() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.topics))
	for t := range s.topics {
		out = append(out, t)
	}
	return out
}

// Close detaches the subscription and closes C. It is safe to call twice.
func (s *Subscription) Close() {
	s.broker.mu.Lock()
	defer s.broker.mu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for t := range s.topics {
		s.broker.detach(t, s)
	}
	s.topics = nil
	close(s.ch)
}

// Broker is an events.Publisher that never blocks: a subscriber whose
// buffer is full misses the message.
type Broker struct {
	buffer int

	mu     sync.RWMutex
	topics map[string]map[*Subscription]struct{}

	dropped func(events.Message)
}

// Option configures a Broker.
type Option func(*Broker)

// WithDropHook is called for every message a full subscriber misses.
func WithDropHook(fn func(events.Message)) Option {
	return func(b *Broker) { b.dropped = fn }
}

// NewBroker creates a Broker with per-subscriber buffers of size buffer.
func NewBroker(buffer int, opts ...Option) *Broker {
	if buffer <= 0 {
		buffer = 1
	}
	b := &Broker{
		buffer:  buffer,
		topics:  make(map[string]map[*Subscription]struct{}),
		dropped: func(events.Message) {},
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// NewSubscription returns an empty subscription. Callers must Close it.
func (b *Broker) NewSubscription() *Subscription {
	return &Subscription{
		broker: b,
		ch:     make(chan events.Message, b.buffer),
		topics: make(map[string]struct{}),
	}
}

// Name implements events.Publisher.
func (b *Broker) Name() string { return Name }

// Publish delivers msg to every subscriber of msg.Topic.
func (b *Broker) Publish(_ context.Context, msg events.Message) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.topics[msg.Topic] {
		select {
		case s.ch <- msg:
		default:
			b.dropped(msg)
		}
	}
	return nil
}

// Subscribers counts subscriptions on topic.
func (b *Broker) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

// detach requires b.mu held for writing.
func (b *Broker) detach(topic string, s *Subscription) {
	subs, ok := b.topics[topic]
	if !ok {
		return
	}
	delete(subs, s)
	if len(subs) == 0 {
		delete(b.topics, topic)
	}
}
