// Package naming provides the Named contract shared by simulation
// components.
package naming

import "github.com/sarchlab/ckpt/sim/serialization"

// Named describes an object that has a name.
type Named interface {
	// Name returns the name of the object.
	Name() string
}

// NamedBase is a base implementation of Named.
type NamedBase struct {
	name string
}

func (b *NamedBase) Name() string {
	return b.name
}

// SerializeState describes the name. The name is fixed at construction and
// cannot be changed through an object map.
func (b *NamedBase) SerializeState(s *serialization.Serializer) {
	s.ReadOnlyField("name", &b.name)
}

// MakeNamedBase creates a new NamedBase
func MakeNamedBase(name string) NamedBase {
	return NamedBase{name: name}
}
