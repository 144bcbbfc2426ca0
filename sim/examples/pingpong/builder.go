package pingpong

import (
	"fmt"

	"github.com/sarchlab/ckpt/sim/naming"
)

// Builder can build ping-pong models.
type Builder struct {
	numComps int
	numPings uint64
	latency  uint64
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		numComps: 2,
		numPings: 4,
		latency:  2,
	}
}

// WithNumComps sets the number of components. The components form a ring in
// which each one pings the next.
func (b Builder) WithNumComps(n int) Builder {
	b.numComps = n
	return b
}

// WithNumPings sets the number of pings each component sends.
func (b Builder) WithNumPings(n uint64) Builder {
	b.numPings = n
	return b
}

// WithLatency sets the one-way latency between two components.
func (b Builder) WithLatency(latency uint64) Builder {
	b.latency = latency
	return b
}

// Build creates a model. Components are named after the model, for example
// "Model.Comp[0]".
func (b Builder) Build(name string) *Model {
	m := &Model{NamedBase: naming.MakeNamedBase(name)}

	for i := 0; i < b.numComps; i++ {
		m.comps = append(m.comps, &Comp{
			NamedBase: naming.MakeNamedBase(fmt.Sprintf("%s.Comp[%d]", name, i)),
			model:     m,
			Latency:   b.latency,
			Remaining: b.numPings,
			Histogram: make(map[uint64]uint64),
			Answered:  make(map[uint64]struct{}),
		})
	}

	for i, c := range m.comps {
		if b.numComps > 1 {
			c.Peer = m.comps[(i+1)%b.numComps]
		}
	}

	m.Start()

	return m
}
