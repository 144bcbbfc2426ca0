package pingpong

import (
	"github.com/sarchlab/ckpt/sim/naming"
	"github.com/sarchlab/ckpt/sim/serialization"
)

// Comp is a component that sends pings to its peer and answers the pings it
// receives.
type Comp struct {
	naming.NamedBase

	model   *Model
	Peer    *Comp
	Latency uint64

	Remaining uint64
	NextSeqID uint64
	Received  uint64
	RTTs      []uint64
	Histogram map[uint64]uint64
	Answered  map[uint64]struct{}
}

func (c *Comp) SerializeState(s *serialization.Serializer) {
	s.Embed(&c.NamedBase)
	s.Field("model", &c.model)
	s.Field("peer", &c.Peer)
	s.ReadOnlyField("latency", &c.Latency)
	s.Field("remaining", &c.Remaining)
	s.Field("next_seq_id", &c.NextSeqID)

	s.BeginGroup("stats")
	s.Field("received", &c.Received)
	s.Field("rtts", &c.RTTs)
	s.Field("histogram", &c.Histogram)
	s.Field("answered", &c.Answered)
	s.EndGroup()
}

// Model returns the model the component belongs to.
func (c *Comp) Model() *Model {
	return c.model
}

// Handle processes an event delivered to the component.
func (c *Comp) Handle(evt Event) {
	switch e := evt.(type) {
	case *PingEvent:
		c.answer(e)
	case *PongEvent:
		c.complete(e)
	default:
		panic("cannot handle event of type " + evt.TypeName())
	}
}

func (c *Comp) start() {
	if c.Remaining == 0 || c.Peer == nil {
		return
	}

	c.sendPing()
}

func (c *Comp) sendPing() {
	now := c.model.Now()

	c.Remaining--
	c.model.schedule(&PingEvent{
		EventBase: EventBase{Time: now + c.Latency, Handler: c.Peer},
		Src:       c,
		SeqID:     c.NextSeqID,
		SentAt:    now,
	})
	c.NextSeqID++
}

func (c *Comp) answer(e *PingEvent) {
	c.Received++

	// Empty maps are restored as nil.
	if c.Answered == nil {
		c.Answered = make(map[uint64]struct{})
	}

	c.Answered[e.SeqID] = struct{}{}

	c.model.schedule(&PongEvent{
		EventBase: EventBase{
			Time:    c.model.Now() + c.Latency,
			Handler: e.Src,
		},
		SeqID:  e.SeqID,
		SentAt: e.SentAt,
	})
}

func (c *Comp) complete(e *PongEvent) {
	rtt := c.model.Now() - e.SentAt
	c.RTTs = append(c.RTTs, rtt)

	if c.Histogram == nil {
		c.Histogram = make(map[uint64]uint64)
	}

	c.Histogram[rtt]++

	if c.Remaining > 0 {
		c.sendPing()
	}
}

// Stats summarizes the activity of a component.
type Stats struct {
	Name      string
	Sent      uint64
	Received  uint64
	Completed int
	MeanRTT   float64
}

// Stats returns a summary of the activity of the component.
func (c *Comp) Stats() Stats {
	st := Stats{
		Name:      c.Name(),
		Sent:      c.NextSeqID,
		Received:  c.Received,
		Completed: len(c.RTTs),
	}

	if len(c.RTTs) > 0 {
		var sum uint64
		for _, rtt := range c.RTTs {
			sum += rtt
		}

		st.MeanRTT = float64(sum) / float64(len(c.RTTs))
	}

	return st
}
