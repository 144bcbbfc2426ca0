package serialization

import "reflect"

// Serializable is implemented by everything that can describe its persistent
// state. SerializeState must describe the same fields in the same order in
// every mode.
type Serializable interface {
	SerializeState(s *Serializer)
}

var serializableType = reflect.TypeOf((*Serializable)(nil)).Elem()

// describesItself tells whether values of the non-struct type t are moved by
// their own SerializeState instead of by their kind. Structs always are.
func describesItself(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Struct, reflect.Interface, reflect.Ptr:
		return false
	default:
		return reflect.PointerTo(t).Implements(serializableType)
	}
}

// Polymorphic is a Serializable that can be stored behind an interface. The
// name returned by TypeName is the key under which the type is registered.
type Polymorphic interface {
	Serializable

	TypeName() string
}

// A Pair serializes its first element followed by its second element, with
// no extra framing. A map[K]V can be decoded into a []Pair[K, V].
type Pair[A, B any] struct {
	First  A
	Second B
}

// MakePair creates a Pair.
func MakePair[A, B any](first A, second B) Pair[A, B] {
	return Pair[A, B]{First: first, Second: second}
}

// SerializeState describes the two elements of the pair.
func (p *Pair[A, B]) SerializeState(s *Serializer) {
	s.Field("first", &p.First)
	s.Field("second", &p.Second)
}
