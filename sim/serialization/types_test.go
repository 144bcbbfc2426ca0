package serialization_test

import (
	"sort"

	"github.com/sarchlab/ckpt/sim/serialization"
)

type scalars struct {
	B    bool
	I8   int8
	I16  int16
	I32  int32
	I64  int64
	I    int
	U8   uint8
	U16  uint16
	U32  uint32
	U64  uint64
	U    uint
	F32  float32
	F64  float64
	C64  complex64
	C128 complex128
	S    string
}

func (x *scalars) SerializeState(s *serialization.Serializer) {
	s.Field("b", &x.B)
	s.Field("i8", &x.I8)
	s.Field("i16", &x.I16)
	s.Field("i32", &x.I32)
	s.Field("i64", &x.I64)
	s.Field("i", &x.I)
	s.Field("u8", &x.U8)
	s.Field("u16", &x.U16)
	s.Field("u32", &x.U32)
	s.Field("u64", &x.U64)
	s.Field("u", &x.U)
	s.Field("f32", &x.F32)
	s.Field("f64", &x.F64)
	s.Field("c64", &x.C64)
	s.Field("c128", &x.C128)
	s.Field("s", &x.S)
}

type containers struct {
	Ints   []int
	Names  [3]string
	Bytes  []byte
	Scores map[string]float64
	Tags   map[uint32]struct{}
	Pairs  []serialization.Pair[string, int]
	Nested [][]int16
}

func (x *containers) SerializeState(s *serialization.Serializer) {
	s.Field("ints", &x.Ints)
	s.Field("names", &x.Names)
	s.Field("bytes", &x.Bytes)
	s.Field("scores", &x.Scores)
	s.Field("tags", &x.Tags)
	s.Field("pairs", &x.Pairs)
	s.Field("nested", &x.Nested)
}

type pointedTo struct {
	Value int
}

func (p *pointedTo) SerializeState(s *serialization.Serializer) {
	s.Field("value", &p.Value)
}

type shell struct {
	A, B, C *pointedTo
}

func (x *shell) SerializeState(s *serialization.Serializer) {
	s.Field("a", &x.A)
	s.Field("b", &x.B)
	s.Field("c", &x.C)
}

type counters struct {
	Hits, Misses *int
}

func (x *counters) SerializeState(s *serialization.Serializer) {
	s.Field("hits", &x.Hits)
	s.Field("misses", &x.Misses)
}

type shape interface {
	serialization.Polymorphic
	Area() float64
}

type circle struct {
	R float64
}

func (c *circle) TypeName() string { return "test.circle" }
func (c *circle) Area() float64    { return 3 * c.R * c.R }

func (c *circle) SerializeState(s *serialization.Serializer) {
	s.Field("r", &c.R)
}

type square struct {
	Side  float64
	Label string
}

func (q *square) TypeName() string { return "test.square" }
func (q *square) Area() float64    { return q.Side * q.Side }

func (q *square) SerializeState(s *serialization.Serializer) {
	s.Field("side", &q.Side)
	s.Field("label", &q.Label)
}

type drawing struct {
	Primary shape
	Shapes  []shape
	None    shape
}

func (d *drawing) SerializeState(s *serialization.Serializer) {
	s.Field("primary", &d.Primary)
	s.Field("shapes", &d.Shapes)
	s.Field("none", &d.None)
}

type linker interface {
	serialization.Polymorphic
	Label() string
}

type link struct {
	Name string
	Peer linker
}

func (l *link) TypeName() string { return "test.link" }
func (l *link) Label() string    { return l.Name }

func (l *link) SerializeState(s *serialization.Serializer) {
	s.Field("name", &l.Name)
	s.Field("peer", &l.Peer)
}

type ring struct {
	ID   int
	Next *ring
}

func (r *ring) SerializeState(s *serialization.Serializer) {
	s.Field("id", &r.ID)
	s.Field("next", &r.Next)
}

type scoreMap struct {
	Entries map[string]int
}

func (x *scoreMap) SerializeState(s *serialization.Serializer) {
	s.Field("entries", &x.Entries)
}

type scoreList struct {
	Entries []serialization.Pair[string, int]
}

func (x *scoreList) SerializeState(s *serialization.Serializer) {
	s.Field("entries", &x.Entries)
}

type fixedThree struct {
	Values [3]int32
}

func (x *fixedThree) SerializeState(s *serialization.Serializer) {
	s.Field("values", &x.Values)
}

type fixedTwo struct {
	Values [2]int32
}

func (x *fixedTwo) SerializeState(s *serialization.Serializer) {
	s.Field("values", &x.Values)
}

type opaque struct {
	Inner struct{ X int }
}

func (x *opaque) SerializeState(s *serialization.Serializer) {
	s.Field("inner", &x.Inner)
}

type flag struct {
	On bool
}

func (x *flag) SerializeState(s *serialization.Serializer) {
	s.Field("on", &x.On)
}

type base struct {
	ID string
}

func (b *base) SerializeState(s *serialization.Serializer) {
	s.ReadOnlyField("id", &b.ID)
}

type device struct {
	base

	Freq    uint64
	Queue   []int
	Owner   *pointedTo
	Stats   map[string]int
	Members map[string]struct{}
	Lookup  map[string]pointedTo
}

func (d *device) SerializeState(s *serialization.Serializer) {
	s.Embed(&d.base)
	s.ReadOnlyField("freq", &d.Freq)
	s.Field("queue", &d.Queue)
	s.ReadOnlyField("owner", &d.Owner)

	s.BeginGroup("stats")
	s.Field("counts", &d.Stats)
	s.Field("members", &d.Members)
	s.EndGroup()

	s.Field("lookup", &d.Lookup)
}

type unbalancedEnd struct {
	X int
}

func (u *unbalancedEnd) SerializeState(s *serialization.Serializer) {
	s.Field("x", &u.X)
	s.EndGroup()
}

type unbalancedStart struct {
	X int
}

func (u *unbalancedStart) SerializeState(s *serialization.Serializer) {
	s.BeginGroup("open")
	s.Field("x", &u.X)
}

type holder struct {
	Child *unbalancedStart
}

func (h *holder) SerializeState(s *serialization.Serializer) {
	s.Field("child", &h.Child)
}

func newShapeRegistry() *serialization.Registry {
	r := serialization.NewRegistry()

	_, err := r.RegisterType(&circle{})
	if err != nil {
		panic(err)
	}

	_, err = r.RegisterType(&square{})
	if err != nil {
		panic(err)
	}

	_, err = r.RegisterType(&link{})
	if err != nil {
		panic(err)
	}

	return r
}

// tally moves its entries sorted by name, so equal tallies encode equally.
type tally map[string]uint32

func (t *tally) SerializeState(s *serialization.Serializer) {
	var entries []serialization.Pair[string, uint32]

	if s.Mode() != serialization.ModeReading {
		for name, n := range *t {
			entries = append(entries, serialization.MakePair(name, n))
		}

		sort.Slice(entries, func(i, j int) bool {
			return entries[i].First < entries[j].First
		})
	}

	s.Field("entries", &entries)

	if s.Mode() == serialization.ModeReading {
		*t = make(tally, len(entries))
		for _, e := range entries {
			(*t)[e.First] = e.Second
		}
	}
}

type scoreboard struct {
	Scores tally
}

func (b *scoreboard) SerializeState(s *serialization.Serializer) {
	s.Field("scores", &b.Scores)
}

// window keeps only its length and its last sample on the wire.
type window []uint16

func (w *window) SerializeState(s *serialization.Serializer) {
	n := uint64(len(*w))
	s.Field("len", &n)

	var last uint16
	if n > 0 && s.Mode() != serialization.ModeReading {
		last = (*w)[n-1]
	}

	s.Field("last", &last)

	if s.Mode() == serialization.ModeReading && s.Err() == nil {
		*w = make(window, n)
		if n > 0 {
			(*w)[n-1] = last
		}
	}
}

type route struct {
	Hops   int
	Target *pointedTo
}

func (r *route) SerializeState(s *serialization.Serializer) {
	s.Field("hops", &r.Hops)
	s.Field("target", &r.Target)
}

type routing struct {
	Routes map[string]route
	Slots  map[string][2]int
}

func (r *routing) SerializeState(s *serialization.Serializer) {
	s.Field("routes", &r.Routes)
	s.Field("slots", &r.Slots)
}

// chain is a slice that can contain a pointer to itself.
type chain []*chain

type sharedOwner struct {
	Mine, Theirs *pointedTo
}

func (o *sharedOwner) SerializeState(s *serialization.Serializer) {
	s.Field("mine", &o.Mine)
	s.ReadOnlyField("theirs", &o.Theirs)
}
