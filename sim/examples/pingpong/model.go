// Package pingpong provides a small discrete event model in which
// components bounce pings at each other. The whole model can be
// checkpointed and restored with the serialization package.
package pingpong

import (
	"github.com/sarchlab/ckpt/sim/naming"
	"github.com/sarchlab/ckpt/sim/serialization"
)

// Model owns the components and the pending events.
type Model struct {
	naming.NamedBase

	now     uint64
	nextSeq uint64
	comps   []*Comp
	queue   eventHeap
}

func (m *Model) SerializeState(s *serialization.Serializer) {
	s.Embed(&m.NamedBase)
	s.Field("now", &m.now)
	s.Field("next_seq", &m.nextSeq)
	s.Field("comps", &m.comps)
	s.Field("queue", &m.queue)
}

// Now returns the current time.
func (m *Model) Now() uint64 {
	return m.now
}

// Comps returns the components of the model.
func (m *Model) Comps() []*Comp {
	return m.comps
}

// Comp returns the component with the given name, or nil.
func (m *Model) Comp(name string) *Comp {
	for _, c := range m.comps {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

// Pending returns the number of events that have not been handled.
func (m *Model) Pending() int {
	return m.queue.Len()
}

// Start lets every component send its first ping.
func (m *Model) Start() {
	for _, c := range m.comps {
		c.start()
	}
}

// Step handles the earliest pending event. It returns false if there is no
// event to handle.
func (m *Model) Step() bool {
	if m.queue.Len() == 0 {
		return false
	}

	evt := m.queue.pop()
	m.now = evt.Meta().Time
	evt.Meta().Handler.Handle(evt)

	return true
}

// Run handles events until none is left.
func (m *Model) Run() {
	for m.Step() {
	}
}

// RunUntil handles every event scheduled no later than t.
func (m *Model) RunUntil(t uint64) {
	for m.queue.Len() > 0 && m.queue[0].Meta().Time <= t {
		m.Step()
	}
}

func (m *Model) schedule(evt Event) {
	evt.Meta().Seq = m.nextSeq
	m.nextSeq++
	m.queue.push(evt)
}

// Stats returns the summaries of all the components.
func (m *Model) Stats() []Stats {
	stats := make([]Stats, 0, len(m.comps))
	for _, c := range m.comps {
		stats = append(stats, c.Stats())
	}

	return stats
}
