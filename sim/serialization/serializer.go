package serialization

import (
	"encoding/binary"
	"fmt"
	"reflect"
	"slices"

	"github.com/sarchlab/ckpt/sim/serialization/objectmap"
)

// Mode is the kind of traversal a Serializer performs.
type Mode int

const (
	// ModeMeasuring counts the bytes that writing would produce.
	ModeMeasuring Mode = iota
	// ModeWriting encodes the state into a buffer.
	ModeWriting
	// ModeReading decodes the state from a buffer.
	ModeReading
	// ModeMapping builds an object map over the live state.
	ModeMapping
)

func (m Mode) String() string {
	switch m {
	case ModeMeasuring:
		return "measuring"
	case ModeWriting:
		return "writing"
	case ModeReading:
		return "reading"
	case ModeMapping:
		return "mapping"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func (m Mode) phase() Phase {
	switch m {
	case ModeMeasuring:
		return PhaseMeasure
	case ModeWriting:
		return PhaseEncode
	case ModeReading:
		return PhaseDecode
	default:
		return PhaseMap
	}
}

// A Serializer carries the state of one traversal. Objects describe their
// state to it through Field, which behaves according to the mode.
//
// The first error stops the traversal. Later calls do nothing, so
// SerializeState implementations never need to check for errors.
type Serializer struct {
	mode     Mode
	tracking bool
	registry *Registry

	buf []byte
	pos int

	ids    *identityArena
	mapper *Mapper
	mapped map[any]objectmap.Node

	path []string
	err  error

	polymorphic int
}

func newSerializer(mode Mode, tracking bool, registry *Registry) *Serializer {
	return &Serializer{
		mode:     mode,
		tracking: tracking,
		registry: registry,
		ids:      acquireArena(),
	}
}

// release hands the identity table back for reuse. The serializer must not
// traverse again afterwards.
func (s *Serializer) release() {
	if s.ids != nil {
		releaseArena(s.ids)
		s.ids = nil
	}
}

// Mode returns the mode of the traversal.
func (s *Serializer) Mode() Mode {
	return s.mode
}

// PointerTracking tells whether pointers keep their identity.
func (s *Serializer) PointerTracking() bool {
	return s.tracking
}

// Err returns the first error of the traversal.
func (s *Serializer) Err() error {
	return s.err
}

// Mapper returns the mapper that builds the object map. It returns nil
// unless the serializer is mapping.
func (s *Serializer) Mapper() *Mapper {
	return s.mapper
}

// MaxNesting is the deepest chain of fields a traversal follows.
const MaxNesting = 4096

// Field describes a field. The pointer must point to the field itself.
func (s *Serializer) Field(name string, ptr any) {
	if s.err != nil {
		return
	}

	v := reflect.ValueOf(ptr)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		s.fail(KindUsage, fmt.Sprintf(
			"field %s must be given as a non-nil pointer, got %T", name, ptr))
		return
	}

	if s.tooDeep() {
		return
	}

	s.push(name)
	defer s.pop()

	if s.mode == ModeMapping {
		s.mapValue(name, v.Elem())
		return
	}

	s.value(v.Elem())
}

// ReadOnlyField describes a field that cannot be changed through the object
// map. Outside of mapping, it is the same as Field.
//
// If the field points to an object that is already in the map, the shared
// node becomes read-only everywhere it appears, including places where it was
// attached as writable before.
func (s *Serializer) ReadOnlyField(name string, ptr any) {
	if s.mode != ModeMapping {
		s.Field(name, ptr)
		return
	}

	s.mapper.SetNextReadOnly()
	s.Field(name, ptr)
	s.mapper.disarm()
}

// Embed describes the fields of v as if they belong to the object being
// described. It is used for embedded structs.
func (s *Serializer) Embed(v Serializable) {
	if s.err != nil {
		return
	}

	if rv := reflect.ValueOf(v); v == nil || rv.Kind() == reflect.Ptr && rv.IsNil() {
		s.fail(KindUsage, "cannot embed a nil value")
		return
	}

	v.SerializeState(s)
}

// BeginGroup opens a level in the object map. The fields described until the
// matching EndGroup are placed under it. It does nothing outside of mapping.
func (s *Serializer) BeginGroup(name string) {
	if s.err != nil || s.mode != ModeMapping {
		return
	}

	s.mapper.MapHierarchyStart(name, objectmap.NewHierarchyNode())
}

// EndGroup closes the level opened by the last BeginGroup.
func (s *Serializer) EndGroup() {
	if s.err != nil || s.mode != ModeMapping {
		return
	}

	s.failWith(s.mapper.MapHierarchyEnd())
}

// tooDeep fails the traversal once the path reaches MaxNesting.
func (s *Serializer) tooDeep() bool {
	if len(s.path) < MaxNesting {
		return false
	}

	s.fail(KindUnsupported, fmt.Sprintf(
		"values nested deeper than %d; cyclic graphs need pointer tracking",
		MaxNesting))

	return true
}

func (s *Serializer) push(name string) {
	s.path = append(s.path, name)
}

func (s *Serializer) pop() {
	s.path = s.path[:len(s.path)-1]
}

func (s *Serializer) reading() bool {
	return s.mode == ModeReading
}

func (s *Serializer) fail(kind Kind, detail string) {
	s.failWith(&Error{Kind: kind, Detail: detail})
}

func (s *Serializer) failWith(err error) {
	if err == nil || s.err != nil {
		return
	}

	if e, ok := err.(*Error); ok {
		if e.Phase == "" || e.Phase == PhaseDecode && s.mode != ModeReading {
			e.Phase = s.mode.phase()
		}

		if e.Path == nil {
			e.Path = slices.Clone(s.path)
		}
	}

	s.err = err
}

func (s *Serializer) remaining() int {
	return len(s.buf) - s.pos
}

// word moves a little-endian integer of the given width between x and the
// buffer. When reading, the decoded value is returned. Otherwise x is
// returned unchanged.
func (s *Serializer) word(width int, x uint64) uint64 {
	if s.err != nil {
		return 0
	}

	switch s.mode {
	case ModeMeasuring:
		s.pos += width
		return x
	case ModeWriting:
		if s.remaining() < width {
			s.fail(KindSizeMismatch, "writing past the measured size")
			return 0
		}

		putWord(s.buf[s.pos:], width, x)
	case ModeReading:
		if s.remaining() < width {
			s.fail(KindTruncated, fmt.Sprintf(
				"need %d bytes, %d left", width, s.remaining()))
			return 0
		}

		x = getWord(s.buf[s.pos:], width)
	default:
		s.fail(KindUsage, "cannot encode while mapping")
		return 0
	}

	s.pos += width

	return x
}

// raw moves n bytes. When writing, fill copies the bytes into the buffer.
// When reading, the bytes are returned; they alias the input buffer.
func (s *Serializer) raw(n int, fill func(dst []byte)) []byte {
	if s.err != nil {
		return nil
	}

	switch s.mode {
	case ModeMeasuring:
		s.pos += n
		return nil
	case ModeWriting:
		if s.remaining() < n {
			s.fail(KindSizeMismatch, "writing past the measured size")
			return nil
		}

		fill(s.buf[s.pos : s.pos+n])
		s.pos += n

		return nil
	case ModeReading:
		if s.remaining() < n {
			s.fail(KindTruncated, fmt.Sprintf(
				"need %d bytes, %d left", n, s.remaining()))
			return nil
		}

		out := s.buf[s.pos : s.pos+n]
		s.pos += n

		return out
	default:
		s.fail(KindUsage, "cannot encode while mapping")
		return nil
	}
}

// length moves an element count. When reading, the count is checked against
// the bytes left, given that every element takes at least minElem bytes.
func (s *Serializer) length(n, minElem int) int {
	c := s.word(8, uint64(n))
	if s.err != nil || !s.reading() {
		return n
	}

	limit := uint64(s.remaining())
	if minElem > 0 {
		limit /= uint64(minElem)
	} else {
		limit = max(limit, maxZeroSizeElems)
	}

	if c > limit {
		s.fail(KindTruncated, fmt.Sprintf(
			"count %d cannot fit in the %d bytes left", c, s.remaining()))
		return 0
	}

	return int(c)
}

const maxZeroSizeElems = 1 << 20

func putWord(b []byte, width int, x uint64) {
	switch width {
	case 1:
		b[0] = byte(x)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(x))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(x))
	default:
		binary.LittleEndian.PutUint64(b, x)
	}
}

func getWord(b []byte, width int) uint64 {
	switch width {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	default:
		return binary.LittleEndian.Uint64(b)
	}
}
