package pingpong

import (
	"github.com/sarchlab/ckpt/sim/serialization"
)

func init() {
	serialization.MustRegisterType(&PingEvent{})
	serialization.MustRegisterType(&PongEvent{})
}

// An Event is something that happens to a component at a given time. Events
// are stored behind this interface, so every event type must be registered
// with the serialization registry.
type Event interface {
	serialization.Polymorphic

	// Meta returns the scheduling information of the event.
	Meta() *EventBase
}

// EventBase holds the information every event carries.
type EventBase struct {
	Time    uint64
	Seq     uint64
	Handler *Comp
}

// Meta returns the event base itself.
func (e *EventBase) Meta() *EventBase {
	return e
}

func (e *EventBase) SerializeState(s *serialization.Serializer) {
	s.Field("time", &e.Time)
	s.Field("seq", &e.Seq)
	s.Field("handler", &e.Handler)
}

// PingEvent is delivered to a component when a ping arrives.
type PingEvent struct {
	EventBase

	Src    *Comp
	SeqID  uint64
	SentAt uint64
}

func (e *PingEvent) TypeName() string {
	return "pingpong.PingEvent"
}

func (e *PingEvent) SerializeState(s *serialization.Serializer) {
	s.Embed(&e.EventBase)
	s.Field("src", &e.Src)
	s.Field("seq_id", &e.SeqID)
	s.Field("sent_at", &e.SentAt)
}

// PongEvent is delivered to a component when the reply to one of its pings
// arrives.
type PongEvent struct {
	EventBase

	SeqID  uint64
	SentAt uint64
}

func (e *PongEvent) TypeName() string {
	return "pingpong.PongEvent"
}

func (e *PongEvent) SerializeState(s *serialization.Serializer) {
	s.Embed(&e.EventBase)
	s.Field("seq_id", &e.SeqID)
	s.Field("sent_at", &e.SentAt)
}
