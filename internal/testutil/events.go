package testutil

import (
	"context"
	"sync"

	"campusdrop/internal/ports/events"
)

// Sink is an events.Publisher that keeps every message.
type Sink struct {
	mu   sync.Mutex
	msgs []events.Message
}

// NewSink returns an empty Sink.
func NewSink() *Sink { return &Sink{} }

func (s *Sink) Name() string { return "capture" }

func (s *Sink) Publish(_ context.Context, m events.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, m)
	return nil
}

// Messages returns a copy of the published messages.
func (s *Sink) Messages() []events.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]events.Message(nil), s.msgs...)
}

// Types returns the type of each published message, in order.
func (s *Sink) Types() []events.Type {
	var out []events.Type
	for _, m := range s.Messages() {
		out = append(out, m.Type)
	}
	return out
}
