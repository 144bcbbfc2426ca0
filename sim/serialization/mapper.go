package serialization

import (
	"github.com/sarchlab/ckpt/sim/serialization/objectmap"
)

// A Mapper attaches object map nodes under the composite node that is
// currently open. Composite nodes are opened with MapHierarchyStart and
// closed with MapHierarchyEnd.
type Mapper struct {
	stack        []objectmap.Composite
	nextReadOnly bool
	nodes        int

	// While positive, attached nodes view a copy of a map value.
	copied int
}

// NewMapper creates a mapper that attaches nodes under root.
func NewMapper(root objectmap.Composite) *Mapper {
	return &Mapper{
		stack: []objectmap.Composite{root},
	}
}

// Root returns the node the mapper started with.
func (m *Mapper) Root() objectmap.Composite {
	return m.stack[0]
}

// Depth returns the number of composite nodes that are open below the root.
func (m *Mapper) Depth() int {
	return len(m.stack) - 1
}

// Nodes returns the number of nodes attached so far.
func (m *Mapper) Nodes() int {
	return m.nodes
}

// SetNextReadOnly marks the next attached node as read-only. It only
// affects that node, not its children.
func (m *Mapper) SetNextReadOnly() {
	m.nextReadOnly = true
}

func (m *Mapper) disarm() {
	m.nextReadOnly = false
}

// enterCopy starts attaching nodes that view a copy. Such nodes are
// read-only, since a write would not reach the live value.
func (m *Mapper) enterCopy() {
	m.copied++
}

func (m *Mapper) leaveCopy() {
	m.copied--
}

// followPointer suspends the copy state while mapping what a pointer points
// to, because the pointee is live. The returned function restores it.
func (m *Mapper) followPointer() func() {
	copied := m.copied
	m.copied = 0

	return func() { m.copied = copied }
}

func (m *Mapper) attach(name string, node objectmap.Node) {
	if m.nextReadOnly || m.copied > 0 {
		node.SetReadOnly()
	}

	m.nextReadOnly = false

	m.top().AddVariable(name, node)
	m.nodes++
}

// MapHierarchyStart attaches node and opens it.
func (m *Mapper) MapHierarchyStart(name string, node objectmap.Composite) {
	m.attach(name, node)
	m.enter(node)
}

// MapHierarchyEnd closes the node opened last.
func (m *Mapper) MapHierarchyEnd() error {
	if len(m.stack) == 1 {
		return &Error{
			Phase:  PhaseMap,
			Kind:   KindUnbalanced,
			Detail: "no hierarchy left to end",
		}
	}

	m.leave()

	return nil
}

// MapPrimitive attaches a node without children.
func (m *Mapper) MapPrimitive(name string, node objectmap.Node) {
	m.attach(name, node)
}

// MapContainer attaches a container node. The elements are attached by
// opening the container.
func (m *Mapper) MapContainer(name string, node *objectmap.ContainerNode) {
	m.attach(name, node)
}

// MapExistingObject attaches a node that is already part of the map.
func (m *Mapper) MapExistingObject(name string, node objectmap.Node) {
	m.attach(name, node)
}

func (m *Mapper) top() objectmap.Composite {
	return m.stack[len(m.stack)-1]
}

func (m *Mapper) enter(node objectmap.Composite) {
	m.stack = append(m.stack, node)
}

func (m *Mapper) leave() {
	m.stack = m.stack[:len(m.stack)-1]
}

// finish checks that every opened node has been closed.
func (m *Mapper) finish() error {
	if m.Depth() != 0 {
		return &Error{
			Phase:  PhaseMap,
			Kind:   KindUnbalanced,
			Detail: "hierarchy not ended before the traversal finished",
		}
	}

	return nil
}
