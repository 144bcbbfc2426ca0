package serialization

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"github.com/sarchlab/ckpt/sim/serialization/objectmap"
)

// mapValue attaches a node for the value v to the object map.
func (s *Serializer) mapValue(name string, v reflect.Value) {
	if s.err != nil || s.tooDeep() {
		return
	}

	if describesItself(v.Type()) {
		s.mapObject(name, v.Addr())
		return
	}

	kind := v.Kind()

	switch {
	case objectmap.IsFundamentalKind(kind):
		s.mapper.MapPrimitive(name, objectmap.NewFundamentalNode(v))
	case kind == reflect.Ptr:
		if v.IsNil() {
			return
		}

		defer s.mapper.followPointer()()

		if v.Elem().Kind() == reflect.Struct {
			s.mapObject(name, v)
			return
		}

		s.mapValue(name, v.Elem())
	case kind == reflect.Interface:
		if v.IsNil() {
			return
		}

		concrete := v.Elem()
		if concrete.Kind() != reflect.Ptr {
			s.fail(KindUnsupported, fmt.Sprintf(
				"%s must hold a pointer, got %s", v.Type(), concrete.Type()))
			return
		}

		s.mapValue(name, concrete)
	case kind == reflect.Struct:
		s.mapObject(name, v.Addr())
	case kind == reflect.Slice, kind == reflect.Array:
		s.mapSequence(name, v)
	case kind == reflect.Map:
		s.mapDictionary(name, v)
	default:
		s.fail(KindUnsupported, fmt.Sprintf("cannot map %s", v.Type()))
	}
}

// mapObject attaches a class node for the struct ptr points to. A struct
// that is already in the map is attached again instead of being described
// a second time.
func (s *Serializer) mapObject(name string, ptr reflect.Value) {
	key := ptr.Interface()

	if node, found := s.mapped[key]; found {
		s.mapper.MapExistingObject(name, node)
		return
	}

	ser, ok := key.(Serializable)
	if !ok {
		s.fail(KindUnsupported, fmt.Sprintf(
			"%s does not implement Serializable", ptr.Type().Elem()))
		return
	}

	typeName := ""
	if p, ok := key.(Polymorphic); ok {
		typeName = p.TypeName()
	}

	node := objectmap.NewClassNode(ptr, typeName)
	s.mapped[key] = node

	s.mapper.MapHierarchyStart(name, node)
	ser.SerializeState(s)

	if s.err != nil {
		return
	}

	if s.mapper.top() != node {
		s.failWith(&Error{
			Kind:   KindUnbalanced,
			Detail: fmt.Sprintf("%s left a hierarchy open", node.TypeName()),
		})

		return
	}

	s.failWith(s.mapper.MapHierarchyEnd())
}

func (s *Serializer) mapSequence(name string, v reflect.Value) {
	node := objectmap.NewContainerNode(v)
	s.mapper.MapContainer(name, node)

	s.mapper.enter(node)
	defer s.mapper.leave()

	for i := 0; i < v.Len() && s.err == nil; i++ {
		index := strconv.Itoa(i)

		s.push(index)
		s.mapValue(index, v.Index(i))
		s.pop()
	}
}

// mapDictionary attaches the entries of a map sorted by the formatted key.
func (s *Serializer) mapDictionary(name string, v reflect.Value) {
	node := objectmap.NewContainerNode(v)
	s.mapper.MapContainer(name, node)

	s.mapper.enter(node)
	defer s.mapper.leave()

	keys := v.MapKeys()
	labels := make(map[int]string, len(keys))

	for i, k := range keys {
		labels[i] = fmt.Sprint(k.Interface())
	}

	order := make([]int, len(keys))
	for i := range order {
		order[i] = i
	}

	sort.SliceStable(order, func(a, b int) bool {
		return labels[order[a]] < labels[order[b]]
	})

	keysOnly := isSet(v.Type())

	for _, i := range order {
		if s.err != nil {
			return
		}

		label := labels[i]

		s.push(label)
		s.mapEntry(label, v, keys[i], keysOnly)
		s.pop()
	}
}

func (s *Serializer) mapEntry(
	label string,
	m, key reflect.Value,
	keysOnly bool,
) {
	if keysOnly {
		s.mapper.MapPrimitive(label, objectmap.NewMapKeyNode(key))
		return
	}

	value := m.MapIndex(key)

	switch kind := value.Kind(); {
	case objectmap.IsFundamentalKind(kind) && !describesItself(value.Type()):
		s.mapper.MapPrimitive(label, objectmap.NewMapValueNode(m, key))
	case kind == reflect.Ptr, kind == reflect.Interface:
		s.mapValue(label, value)
	default:
		// Map values cannot be addressed. Everything viewed through the
		// copy is read-only, except what its pointers lead to.
		c := reflect.New(value.Type()).Elem()
		c.Set(value)

		s.mapper.enterCopy()
		s.mapValue(label, c)
		s.mapper.leaveCopy()
	}
}
