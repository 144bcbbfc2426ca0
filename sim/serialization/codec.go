package serialization

import (
	"fmt"
	"reflect"
	"time"

	"go.uber.org/zap"

	"github.com/sarchlab/ckpt/sim/serialization/objectmap"
	"github.com/sarchlab/ckpt/tracing"
)

// CodecBuilder can build codecs.
type CodecBuilder struct {
	tracking bool
	registry *Registry
	recorder tracing.Recorder
}

// MakeCodecBuilder creates a builder with pointer tracking enabled and the
// default registry.
func MakeCodecBuilder() CodecBuilder {
	return CodecBuilder{
		tracking: true,
		registry: registry,
	}
}

// WithPointerTracking sets whether pointers keep their identity across a
// round trip.
func (b CodecBuilder) WithPointerTracking(tracking bool) CodecBuilder {
	b.tracking = tracking
	return b
}

// WithRegistry sets the registry used to create polymorphic objects.
func (b CodecBuilder) WithRegistry(r *Registry) CodecBuilder {
	b.registry = r
	return b
}

// WithRecorder sets the recorder that receives a record of every traversal.
func (b CodecBuilder) WithRecorder(r tracing.Recorder) CodecBuilder {
	b.recorder = r
	return b
}

// Build creates a codec.
func (b CodecBuilder) Build() *Codec {
	r := b.registry
	if r == nil {
		r = registry
	}

	return &Codec{
		tracking: b.tracking,
		registry: r,
		recorder: b.recorder,
	}
}

// A Codec encodes, decodes, and maps object graphs. Its configuration cannot
// change once built, so data written by a codec can always be read back by
// the same codec.
type Codec struct {
	tracking bool
	registry *Registry
	recorder tracing.Recorder
}

// PointerTracking tells whether the codec preserves pointer identity.
func (c *Codec) PointerTracking() bool {
	return c.tracking
}

// Registry returns the registry the codec creates polymorphic objects from.
func (c *Codec) Registry() *Registry {
	return c.registry
}

// Size returns the number of bytes Serialize produces for the object ptr
// points to.
func (c *Codec) Size(ptr any) (int, error) {
	start := time.Now()

	root, err := rootOf(ptr, PhaseMeasure)
	if err != nil {
		return 0, err
	}

	s := c.measure(root)
	c.finish(ptr, s, s.pos, start)

	if s.err != nil {
		return 0, s.err
	}

	return s.pos, nil
}

func (c *Codec) measure(root reflect.Value) *Serializer {
	s := newSerializer(ModeMeasuring, c.tracking, c.registry)
	s.run(root)

	return s
}

// Serialize encodes the object ptr points to.
func (c *Codec) Serialize(ptr any) ([]byte, error) {
	start := time.Now()

	root, err := rootOf(ptr, PhaseEncode)
	if err != nil {
		return nil, err
	}

	m := c.measure(root)
	if m.err != nil {
		c.finish(ptr, m, 0, start)
		return nil, m.err
	}

	m.release()

	s := newSerializer(ModeWriting, c.tracking, c.registry)
	s.buf = make([]byte, m.pos)
	s.run(root)

	if s.err == nil && s.pos != m.pos {
		s.failWith(&Error{
			Kind: KindSizeMismatch,
			Detail: fmt.Sprintf(
				"measured %d bytes, wrote %d", m.pos, s.pos),
		})
	}

	c.finish(ptr, s, s.pos, start)

	if s.err != nil {
		return nil, s.err
	}

	return s.buf, nil
}

// Deserialize decodes buf into the object ptr points to. The whole buffer
// must be consumed.
func (c *Codec) Deserialize(buf []byte, ptr any) error {
	start := time.Now()

	root, err := rootOf(ptr, PhaseDecode)
	if err != nil {
		return err
	}

	s := newSerializer(ModeReading, c.tracking, c.registry)
	s.buf = buf
	s.run(root)

	if s.err == nil && s.remaining() != 0 {
		s.failWith(&Error{
			Kind:   KindTrailingData,
			Detail: fmt.Sprintf("%d bytes left after decoding", s.remaining()),
		})
	}

	c.finish(ptr, s, s.pos, start)

	return s.err
}

// Map builds an object map over the object ptr points to. If the object is
// a struct, the returned node is its class node. Otherwise, the value is
// placed under a hierarchy node.
func (c *Codec) Map(name string, ptr any) (objectmap.Node, error) {
	start := time.Now()

	root, err := rootOf(ptr, PhaseMap)
	if err != nil {
		return nil, err
	}

	s := newSerializer(ModeMapping, c.tracking, c.registry)
	s.mapped = make(map[any]objectmap.Node)

	var top objectmap.Composite

	if ser, ok := ptr.(Serializable); ok && root.Elem().Kind() == reflect.Struct {
		typeName := ""
		if p, ok := ptr.(Polymorphic); ok {
			typeName = p.TypeName()
		}

		node := objectmap.NewClassNode(root, typeName)
		s.mapped[ptr] = node
		s.mapper = NewMapper(node)
		top = node

		ser.SerializeState(s)
	} else {
		top = objectmap.NewHierarchyNode()
		s.mapper = NewMapper(top)

		s.push(name)
		s.mapValue(name, root.Elem())
		s.pop()
	}

	if s.err == nil {
		s.failWith(s.mapper.finish())
	}

	c.finish(name, s, 0, start)

	if s.err != nil {
		return nil, s.err
	}

	return top, nil
}

// run traverses the object root points to. With pointer tracking, the root
// takes the first identity token so that references back to it resolve to
// the caller's object.
func (s *Serializer) run(root reflect.Value) {
	if s.tracking {
		if s.reading() {
			s.ids.bind(root)
		} else {
			s.ids.intern(root.Interface())
		}
	}

	s.value(root.Elem())
}

func rootOf(ptr any, phase Phase) (reflect.Value, error) {
	v := reflect.ValueOf(ptr)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return reflect.Value{}, &Error{
			Phase:  phase,
			Kind:   KindUsage,
			Detail: fmt.Sprintf("expected a non-nil pointer, got %T", ptr),
		}
	}

	return v, nil
}

func (c *Codec) finish(subject any, s *Serializer, bytes int, start time.Time) {
	name, ok := subject.(string)
	if !ok {
		name = fmt.Sprintf("%T", subject)
	}

	record := tracing.TraversalRecord{
		Name:        name,
		Mode:        s.mode.String(),
		Bytes:       bytes,
		Objects:     s.ids.len(),
		Polymorphic: s.polymorphic,
		Duration:    time.Since(start),
	}

	if s.mapper != nil {
		record.Nodes = s.mapper.Nodes()
	}

	if s.err != nil {
		record.Error = s.err.Error()

		Logger().Error("traversal aborted",
			zap.String("name", name),
			zap.Stringer("mode", s.mode),
			zap.Error(s.err),
		)
	} else {
		Logger().Debug("traversal finished",
			zap.String("name", name),
			zap.Stringer("mode", s.mode),
			zap.Int("bytes", bytes),
			zap.Int("objects", record.Objects),
			zap.Int("polymorphic", record.Polymorphic),
			zap.Int("nodes", record.Nodes),
			zap.Duration("duration", record.Duration),
		)
	}

	s.release()

	if c.recorder != nil {
		c.recorder.Record(record)
	}
}

var defaultCodec = MakeCodecBuilder().Build()

// Size measures ptr with pointer tracking and the default registry.
func Size(ptr any) (int, error) {
	return defaultCodec.Size(ptr)
}

// Serialize encodes ptr with pointer tracking and the default registry.
func Serialize(ptr any) ([]byte, error) {
	return defaultCodec.Serialize(ptr)
}

// Deserialize decodes buf into ptr with pointer tracking and the default
// registry.
func Deserialize(buf []byte, ptr any) error {
	return defaultCodec.Deserialize(buf, ptr)
}

// Map builds an object map over ptr.
func Map(name string, ptr any) (objectmap.Node, error) {
	return defaultCodec.Map(name, ptr)
}
