package serialization

import (
	"fmt"
	"reflect"
	"strconv"
)

func (s *Serializer) slice(v reflect.Value) {
	elem := v.Type().Elem()

	n := s.length(v.Len(), s.minSize(elem))
	if s.err != nil {
		return
	}

	if s.reading() {
		if n == 0 {
			v.SetZero()
			return
		}

		v.Set(reflect.MakeSlice(v.Type(), n, n))
	}

	if elem.Kind() == reflect.Uint8 && !describesItself(elem) {
		s.bulk(v)
		return
	}

	s.elements(v, n)
}

func (s *Serializer) array(v reflect.Value) {
	n := s.length(v.Len(), s.minSize(v.Type().Elem()))
	if s.err != nil {
		return
	}

	if n != v.Len() {
		s.fail(KindInvalidData, fmt.Sprintf(
			"%d elements cannot be stored in %s", n, v.Type()))
		return
	}

	s.elements(v, n)
}

func (s *Serializer) elements(v reflect.Value, n int) {
	for i := 0; i < n && s.err == nil; i++ {
		s.push(strconv.Itoa(i))
		s.value(v.Index(i))
		s.pop()
	}
}

// bulk moves the content of a byte slice at once.
func (s *Serializer) bulk(v reflect.Value) {
	src := v.Bytes()

	b := s.raw(v.Len(), func(dst []byte) { copy(dst, src) })
	if s.err == nil && s.reading() {
		copy(v.Bytes(), b)
	}
}

// isSet tells whether a map type only carries keys.
func isSet(t reflect.Type) bool {
	return t.Kind() == reflect.Map &&
		t.Elem().Kind() == reflect.Struct &&
		t.Elem().Size() == 0
}

// dictionary moves a map as a count followed by the entries. Each entry is
// the key followed by the value, which is also how a Pair is encoded. Sets
// only move the keys. The order of the entries is not defined.
func (s *Serializer) dictionary(v reflect.Value) {
	t := v.Type()
	keysOnly := isSet(t)

	minEntry := s.minSize(t.Key())
	if !keysOnly {
		minEntry += s.minSize(t.Elem())
	}

	n := s.length(v.Len(), minEntry)
	if s.err != nil {
		return
	}

	if s.reading() {
		s.readEntries(v, n, keysOnly)
		return
	}

	key := reflect.New(t.Key()).Elem()
	value := reflect.New(t.Elem()).Elem()

	iter := v.MapRange()
	for i := 0; iter.Next() && s.err == nil; i++ {
		key.SetIterKey(iter)
		value.SetIterValue(iter)

		s.push(strconv.Itoa(i))
		s.value(key)

		if !keysOnly {
			s.value(value)
		}

		s.pop()
	}
}

func (s *Serializer) readEntries(v reflect.Value, n int, keysOnly bool) {
	t := v.Type()

	if n == 0 {
		v.SetZero()
		return
	}

	m := reflect.MakeMapWithSize(t, n)

	for i := 0; i < n && s.err == nil; i++ {
		key := reflect.New(t.Key()).Elem()
		value := reflect.New(t.Elem()).Elem()

		s.push(strconv.Itoa(i))
		s.value(key)

		if !keysOnly {
			s.value(value)
		}

		s.pop()

		if s.err == nil {
			m.SetMapIndex(key, value)
		}
	}

	v.Set(m)
}
