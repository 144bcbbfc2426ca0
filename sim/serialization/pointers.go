package serialization

import (
	"fmt"
	"reflect"
)

func (s *Serializer) pointer(v reflect.Value) {
	switch {
	case s.tracking:
		s.trackedPointer(v)
	case v.Type().Elem().Kind() == reflect.Struct:
		s.optionalPointer(v)
	default:
		s.plainPointer(v)
	}
}

// plainPointer moves the pointee only. Reading always allocates a new
// pointee, so two pointers sharing a value no longer share it after a round
// trip.
func (s *Serializer) plainPointer(v reflect.Value) {
	if !s.reading() {
		if v.IsNil() {
			s.fail(KindNilPointer, fmt.Sprintf(
				"nil %s cannot be written without pointer tracking", v.Type()))
			return
		}

		s.value(v.Elem())

		return
	}

	p := reflect.New(v.Type().Elem())
	s.value(p.Elem())

	if s.err == nil {
		v.Set(p)
	}
}

// optionalPointer moves a presence word followed by the pointee.
func (s *Serializer) optionalPointer(v reflect.Value) {
	var present uint64
	if !v.IsNil() {
		present = 1
	}

	present = s.word(8, present)
	if s.err != nil {
		return
	}

	if !s.reading() {
		if present == 1 {
			s.value(v.Elem())
		}

		return
	}

	switch present {
	case 0:
		v.SetZero()
	case 1:
		p := reflect.New(v.Type().Elem())
		v.Set(p)
		s.value(p.Elem())
	default:
		s.fail(KindInvalidData, fmt.Sprintf(
			"%d is not a valid presence flag", present))
	}
}

// trackedPointer moves an identity token. The pointee follows only the first
// time the object is seen.
func (s *Serializer) trackedPointer(v reflect.Value) {
	if !s.reading() {
		if v.IsNil() {
			s.word(8, 0)
			return
		}

		h, first := s.ids.intern(v.Interface())
		s.word(8, h.Token())

		if first {
			s.value(v.Elem())
		}

		return
	}

	token := s.word(8, 0)
	if s.err != nil {
		return
	}

	if token == 0 {
		v.SetZero()
		return
	}

	if token == s.ids.next() {
		p := reflect.New(v.Type().Elem())
		s.ids.bind(p)
		v.Set(p)
		s.value(p.Elem())

		return
	}

	s.alias(v, token)
}

// alias points v to the object already decoded under token.
func (s *Serializer) alias(v reflect.Value, token uint64) {
	obj, ok := s.ids.resolve(token)
	if !ok {
		s.failWith(&Error{
			Kind:   KindUnknownToken,
			Token:  token,
			Detail: fmt.Sprintf("next new token is %d", s.ids.next()),
		})

		return
	}

	if !obj.Type().AssignableTo(v.Type()) {
		s.failWith(&Error{
			Kind:  KindTypeMismatch,
			Token: token,
			Detail: fmt.Sprintf(
				"object of type %s cannot be assigned to %s",
				obj.Type(), v.Type()),
		})

		return
	}

	v.Set(obj)
}

// polymorphicPointer moves an interface value. The concrete value must be a
// pointer to a registered type. With pointer tracking, the identity token
// comes first and the type tag is only written together with the pointee.
func (s *Serializer) polymorphicPointer(v reflect.Value) {
	if s.reading() {
		s.readPolymorphic(v)
		return
	}

	if v.IsNil() {
		s.word(8, 0)
		return
	}

	concrete := v.Elem()

	obj, ok := concrete.Interface().(Polymorphic)
	if !ok {
		s.fail(KindUnsupported, fmt.Sprintf(
			"%s does not implement Polymorphic", concrete.Type()))
		return
	}

	if concrete.Kind() != reflect.Ptr || concrete.IsNil() {
		s.fail(KindNilPointer, fmt.Sprintf(
			"%s must hold a non-nil pointer, got %s", v.Type(), concrete.Type()))
		return
	}

	if s.tracking {
		h, first := s.ids.intern(concrete.Interface())
		s.word(8, h.Token())

		if !first {
			return
		}
	}

	tag, ok := s.registry.TagOf(obj.TypeName())
	if !ok {
		s.failWith(&Error{
			Kind:   KindUnregistered,
			Detail: fmt.Sprintf("type %s is not registered", obj.TypeName()),
		})

		return
	}

	s.word(8, uint64(tag))
	s.polymorphic++
	obj.SerializeState(s)
}

func (s *Serializer) readPolymorphic(v reflect.Value) {
	if s.tracking {
		token := s.word(8, 0)
		if s.err != nil {
			return
		}

		if token == 0 {
			v.SetZero()
			return
		}

		if token != s.ids.next() {
			s.alias(v, token)
			return
		}
	}

	tag := Tag(s.word(8, 0))
	if s.err != nil {
		return
	}

	if tag == NullTag {
		if s.tracking {
			s.fail(KindInvalidData, "null tag after a new identity token")
			return
		}

		v.SetZero()

		return
	}

	obj, err := s.registry.Create(tag)
	if err != nil {
		s.failWith(err)
		return
	}

	ov := reflect.ValueOf(obj)
	if !ov.Type().AssignableTo(v.Type()) {
		s.failWith(&Error{
			Kind: KindTypeMismatch,
			Tag:  tag,
			Detail: fmt.Sprintf(
				"%s cannot be assigned to %s", ov.Type(), v.Type()),
		})

		return
	}

	if s.tracking {
		s.ids.bind(ov)
	}

	v.Set(ov)
	s.polymorphic++
	obj.SerializeState(s)
}
