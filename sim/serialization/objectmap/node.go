// Package objectmap provides a named, navigable view over live simulation
// state. Nodes never copy the values they describe; they read and write
// through the held address.
package objectmap

import (
	"reflect"
)

// A Node is one entry in an object map.
type Node interface {
	// TypeName returns a human readable name of the type of the value.
	TypeName() string

	// Addr returns the address of the viewed value, or 0 if the node does not
	// view a concrete value.
	Addr() uintptr

	// Value returns the live value behind the node. The returned value is
	// invalid for hierarchy-only nodes.
	Value() reflect.Value

	// Variables returns the children in the order they were added.
	Variables() []Variable

	// Get returns the value as a string. Only fundamental nodes return a
	// non-empty string.
	Get() string

	// Set parses value and writes it through to the viewed value. It does
	// nothing on read-only nodes and on non-fundamental nodes.
	Set(value string) error

	IsFundamental() bool
	IsContainer() bool
	IsReadOnly() bool

	// SetReadOnly marks the node as read-only. The flag cannot be cleared.
	SetReadOnly()
}

// A Composite is a node that can hold children.
type Composite interface {
	Node

	// AddVariable appends a child. Duplicated names are allowed, but only the
	// first one can be found by name.
	AddVariable(name string, node Node)
}

// A Variable is a named child of a composite node.
type Variable struct {
	Name string
	Node Node
}

// Find returns the first child of n with the given name, or nil.
func Find(n Node, name string) Node {
	for _, v := range n.Variables() {
		if v.Name == name {
			return v.Node
		}
	}

	return nil
}

type nodeBase struct {
	readOnly bool
}

func (b *nodeBase) IsReadOnly() bool {
	return b.readOnly
}

func (b *nodeBase) SetReadOnly() {
	b.readOnly = true
}

type compositeBase struct {
	nodeBase
	variables []Variable
}

func (b *compositeBase) AddVariable(name string, node Node) {
	b.variables = append(b.variables, Variable{Name: name, Node: node})
}

func (b *compositeBase) Variables() []Variable {
	return b.variables
}

func (b *compositeBase) Get() string {
	return ""
}

func (b *compositeBase) Set(string) error {
	return nil
}

func (b *compositeBase) IsFundamental() bool {
	return false
}

// A ClassNode views a struct that describes its own fields.
type ClassNode struct {
	compositeBase

	ptr      reflect.Value
	typeName string
}

// NewClassNode creates a node that views the struct ptr points to. If
// typeName is empty, the Go type name is used.
func NewClassNode(ptr reflect.Value, typeName string) *ClassNode {
	if typeName == "" {
		typeName = ptr.Type().Elem().String()
	}

	return &ClassNode{ptr: ptr, typeName: typeName}
}

func (n *ClassNode) TypeName() string {
	return n.typeName
}

func (n *ClassNode) Addr() uintptr {
	return n.ptr.Pointer()
}

func (n *ClassNode) Value() reflect.Value {
	return n.ptr
}

func (n *ClassNode) IsContainer() bool {
	return false
}

// A ContainerNode views a slice, an array, or a map. Its children are the
// elements.
type ContainerNode struct {
	compositeBase

	value reflect.Value
}

// NewContainerNode creates a node that views the container value.
func NewContainerNode(value reflect.Value) *ContainerNode {
	return &ContainerNode{value: value}
}

func (n *ContainerNode) TypeName() string {
	return n.value.Type().String()
}

func (n *ContainerNode) Addr() uintptr {
	return addrOf(n.value)
}

func (n *ContainerNode) Value() reflect.Value {
	return n.value
}

func (n *ContainerNode) IsContainer() bool {
	return true
}

// A HierarchyNode adds a level to the map that does not correspond to any
// value.
type HierarchyNode struct {
	compositeBase
}

// NewHierarchyNode creates an empty hierarchy-only node.
func NewHierarchyNode() *HierarchyNode {
	return &HierarchyNode{}
}

func (n *HierarchyNode) TypeName() string {
	return ""
}

func (n *HierarchyNode) Addr() uintptr {
	return 0
}

func (n *HierarchyNode) Value() reflect.Value {
	return reflect.Value{}
}

func (n *HierarchyNode) IsContainer() bool {
	return false
}

func addrOf(v reflect.Value) uintptr {
	if v.CanAddr() {
		return v.Addr().Pointer()
	}

	return 0
}
