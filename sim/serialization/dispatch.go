package serialization

import (
	"fmt"
	"math"
	"reflect"
)

// value moves the addressable value v according to its kind.
func (s *Serializer) value(v reflect.Value) {
	if s.err != nil || s.tooDeep() {
		return
	}

	if describesItself(v.Type()) {
		v.Addr().Interface().(Serializable).SerializeState(s)
		return
	}

	switch v.Kind() {
	case reflect.Bool:
		s.boolean(v)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Int64:
		s.signed(v)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr:
		s.unsigned(v)
	case reflect.Float32, reflect.Float64:
		s.float(v)
	case reflect.Complex64, reflect.Complex128:
		s.complex(v)
	case reflect.String:
		s.str(v)
	case reflect.Ptr:
		s.pointer(v)
	case reflect.Interface:
		s.polymorphicPointer(v)
	case reflect.Slice:
		s.slice(v)
	case reflect.Array:
		s.array(v)
	case reflect.Map:
		s.dictionary(v)
	case reflect.Struct:
		s.structure(v)
	default:
		s.fail(KindUnsupported, fmt.Sprintf("cannot serialize %s", v.Type()))
	}
}

// width returns the number of bytes a fixed-width value takes on the wire.
// Platform-sized integers always take 8 bytes.
func width(t reflect.Type) int {
	switch t.Kind() {
	case reflect.Int, reflect.Uint, reflect.Uintptr:
		return 8
	default:
		return int(t.Size())
	}
}

// minSize returns the fewest bytes a value of type t can take on the wire.
func (s *Serializer) minSize(t reflect.Type) int {
	if describesItself(t) {
		return 0
	}

	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return width(t)
	case reflect.String, reflect.Slice, reflect.Map, reflect.Interface:
		return 8
	case reflect.Ptr:
		if s.tracking || t.Elem().Kind() == reflect.Struct {
			return 8
		}

		if t.Elem().Kind() == reflect.Ptr {
			return 0
		}

		return s.minSize(t.Elem())
	case reflect.Array:
		return t.Len() * s.minSize(t.Elem())
	default:
		return 0
	}
}

func (s *Serializer) boolean(v reflect.Value) {
	var x uint64
	if v.Bool() {
		x = 1
	}

	x = s.word(1, x)
	if s.err != nil || !s.reading() {
		return
	}

	if x > 1 {
		s.fail(KindInvalidData, fmt.Sprintf("%d is not a valid bool", x))
		return
	}

	v.SetBool(x == 1)
}

func (s *Serializer) signed(v reflect.Value) {
	w := width(v.Type())

	x := s.word(w, uint64(v.Int()))
	if s.err != nil || !s.reading() {
		return
	}

	shift := 64 - 8*w
	i := int64(x<<shift) >> shift

	if v.OverflowInt(i) {
		s.fail(KindInvalidData, fmt.Sprintf("%d overflows %s", i, v.Type()))
		return
	}

	v.SetInt(i)
}

func (s *Serializer) unsigned(v reflect.Value) {
	x := s.word(width(v.Type()), v.Uint())
	if s.err != nil || !s.reading() {
		return
	}

	if v.OverflowUint(x) {
		s.fail(KindInvalidData, fmt.Sprintf("%d overflows %s", x, v.Type()))
		return
	}

	v.SetUint(x)
}

func (s *Serializer) float(v reflect.Value) {
	if v.Kind() == reflect.Float32 {
		x := s.word(4, uint64(math.Float32bits(float32(v.Float()))))
		if s.err == nil && s.reading() {
			v.SetFloat(float64(math.Float32frombits(uint32(x))))
		}

		return
	}

	x := s.word(8, math.Float64bits(v.Float()))
	if s.err == nil && s.reading() {
		v.SetFloat(math.Float64frombits(x))
	}
}

func (s *Serializer) complex(v reflect.Value) {
	c := v.Complex()

	if v.Kind() == reflect.Complex64 {
		re := s.word(4, uint64(math.Float32bits(float32(real(c)))))
		im := s.word(4, uint64(math.Float32bits(float32(imag(c)))))

		if s.err == nil && s.reading() {
			v.SetComplex(complex(
				float64(math.Float32frombits(uint32(re))),
				float64(math.Float32frombits(uint32(im))),
			))
		}

		return
	}

	re := s.word(8, math.Float64bits(real(c)))
	im := s.word(8, math.Float64bits(imag(c)))

	if s.err == nil && s.reading() {
		v.SetComplex(complex(math.Float64frombits(re), math.Float64frombits(im)))
	}
}

func (s *Serializer) str(v reflect.Value) {
	n := s.length(v.Len(), 1)
	if s.err != nil {
		return
	}

	content := v.String()

	b := s.raw(n, func(dst []byte) { copy(dst, content) })
	if s.err == nil && s.reading() {
		v.SetString(string(b))
	}
}

func (s *Serializer) structure(v reflect.Value) {
	ser, ok := v.Addr().Interface().(Serializable)
	if !ok {
		s.fail(KindUnsupported, fmt.Sprintf(
			"%s does not implement Serializable", v.Type()))
		return
	}

	ser.SerializeState(s)
}
