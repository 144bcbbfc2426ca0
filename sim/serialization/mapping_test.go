package serialization_test

import (
	"bytes"
	"errors"
	"reflect"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ckpt/sim/serialization"
	"github.com/sarchlab/ckpt/sim/serialization/objectmap"
)

func names(n objectmap.Node) []string {
	var out []string
	for _, v := range n.Variables() {
		out = append(out, v.Name)
	}

	return out
}

func valueOf(ptr any) reflect.Value {
	return reflect.ValueOf(ptr).Elem()
}

var _ = Describe("Mapping", func() {
	var (
		codec *serialization.Codec
		dev   *device
	)

	BeforeEach(func() {
		codec = serialization.MakeCodecBuilder().
			WithRegistry(newShapeRegistry()).
			Build()

		dev = &device{
			base:    base{ID: "dev0"},
			Freq:    1000,
			Queue:   []int{4, 5},
			Owner:   &pointedTo{Value: 8},
			Stats:   map[string]int{"miss": 2, "hit": 1},
			Members: map[string]struct{}{"b": {}, "a": {}},
			Lookup:  map[string]pointedTo{"p": {Value: 3}},
		}
	})

	It("should list the fields in the order they are described", func() {
		root, err := codec.Map("dev", dev)

		Expect(err).ToNot(HaveOccurred())
		Expect(root.TypeName()).To(Equal("serialization_test.device"))
		Expect(names(root)).To(Equal(
			[]string{"id", "freq", "queue", "owner", "stats", "lookup"}))
	})

	It("should view the live values", func() {
		root, err := codec.Map("dev", dev)
		Expect(err).ToNot(HaveOccurred())

		queue := objectmap.Find(root, "queue")
		Expect(queue.IsContainer()).To(BeTrue())
		Expect(names(queue)).To(Equal([]string{"0", "1"}))

		Expect(objectmap.Find(queue, "1").Set("42")).To(Succeed())
		Expect(dev.Queue[1]).To(Equal(42))

		dev.Queue[0] = 7
		Expect(objectmap.Find(queue, "0").Get()).To(Equal("7"))
	})

	It("should place group members under a hierarchy node", func() {
		root, err := codec.Map("dev", dev)
		Expect(err).ToNot(HaveOccurred())

		stats := objectmap.Find(root, "stats")
		Expect(stats).To(BeAssignableToTypeOf(&objectmap.HierarchyNode{}))
		Expect(stats.TypeName()).To(BeEmpty())
		Expect(stats.Addr()).To(BeZero())
		Expect(names(stats)).To(Equal([]string{"counts", "members"}))

		counts := objectmap.Find(stats, "counts")
		Expect(names(counts)).To(Equal([]string{"hit", "miss"}))
		Expect(objectmap.Find(counts, "hit").Set("10")).To(Succeed())
		Expect(dev.Stats["hit"]).To(Equal(10))

		members := objectmap.Find(stats, "members")
		Expect(names(members)).To(Equal([]string{"a", "b"}))
		Expect(objectmap.Find(members, "a").IsReadOnly()).To(BeTrue())
	})

	It("should mark read-only fields without affecting their children", func() {
		root, err := codec.Map("dev", dev)
		Expect(err).ToNot(HaveOccurred())

		w := objectmap.NewWalker("dev", root)

		found, readOnly, err := w.SetVar("freq", "5")
		Expect(err).ToNot(HaveOccurred())
		Expect(found).To(BeTrue())
		Expect(readOnly).To(BeTrue())
		Expect(dev.Freq).To(Equal(uint64(1000)))

		found, readOnly, _ = w.SetVar("id", "other")
		Expect(found).To(BeTrue())
		Expect(readOnly).To(BeTrue())
		Expect(dev.ID).To(Equal("dev0"))

		owner := objectmap.Find(root, "owner")
		Expect(owner.IsReadOnly()).To(BeTrue())
		Expect(objectmap.Find(owner, "value").IsReadOnly()).To(BeFalse())

		_, found = w.Select("owner")
		Expect(found).To(BeTrue())

		found, readOnly, err = w.SetVar("value", "9")
		Expect(err).ToNot(HaveOccurred())
		Expect(found).To(BeTrue())
		Expect(readOnly).To(BeFalse())
		Expect(dev.Owner.Value).To(Equal(9))
	})

	It("should not let the read-only flag leak to the next field", func() {
		root, err := codec.Map("dev", dev)
		Expect(err).ToNot(HaveOccurred())

		Expect(objectmap.Find(root, "queue").IsReadOnly()).To(BeFalse())
		Expect(objectmap.Find(root, "stats").IsReadOnly()).To(BeFalse())
	})

	It("should view map values of struct type through read-only copies", func() {
		root, err := codec.Map("dev", dev)
		Expect(err).ToNot(HaveOccurred())

		p := objectmap.Find(objectmap.Find(root, "lookup"), "p")
		Expect(p.IsReadOnly()).To(BeTrue())
		Expect(objectmap.Find(p, "value").Get()).To(Equal("3"))

		w := objectmap.NewWalker("dev", root)
		w.Select("lookup")
		w.Select("p")

		found, readOnly, err := w.SetVar("value", "9")
		Expect(err).ToNot(HaveOccurred())
		Expect(found).To(BeTrue())
		Expect(readOnly).To(BeTrue())
		Expect(dev.Lookup["p"].Value).To(Equal(3))
	})

	It("should keep what copied map values point to writable", func() {
		target := &pointedTo{Value: 2}
		r := &routing{
			Routes: map[string]route{"r": {Hops: 1, Target: target}},
			Slots:  map[string][2]int{"s": {4, 5}},
		}

		root, err := codec.Map("routing", r)
		Expect(err).ToNot(HaveOccurred())

		w := objectmap.NewWalker("routing", root)
		w.Select("routes")
		w.Select("r")

		_, readOnly, err := w.SetVar("hops", "7")
		Expect(err).ToNot(HaveOccurred())
		Expect(readOnly).To(BeTrue())
		Expect(r.Routes["r"].Hops).To(Equal(1))

		_, found := w.Select("target")
		Expect(found).To(BeTrue())
		Expect(w.Current().IsReadOnly()).To(BeFalse())

		found, readOnly, err = w.SetVar("value", "5")
		Expect(err).ToNot(HaveOccurred())
		Expect(found).To(BeTrue())
		Expect(readOnly).To(BeFalse())
		Expect(target.Value).To(Equal(5))

		slot := objectmap.Find(objectmap.Find(root, "slots"), "s")
		Expect(slot.IsReadOnly()).To(BeTrue())
		Expect(objectmap.Find(slot, "0").IsReadOnly()).To(BeTrue())
	})

	It("should map named containers through their own description", func() {
		board := &scoreboard{Scores: tally{"x": 1}}

		root, err := codec.Map("board", board)
		Expect(err).ToNot(HaveOccurred())

		scores := objectmap.Find(root, "scores")
		Expect(scores.TypeName()).To(Equal("serialization_test.tally"))
		Expect(names(scores)).To(Equal([]string{"entries"}))
	})

	It("should make a shared object read-only wherever it appears", func() {
		p := &pointedTo{Value: 1}

		root, err := codec.Map("owner", &sharedOwner{Mine: p, Theirs: p})
		Expect(err).ToNot(HaveOccurred())

		mine := objectmap.Find(root, "mine")
		Expect(objectmap.Find(root, "theirs")).To(BeIdenticalTo(mine))
		Expect(mine.IsReadOnly()).To(BeTrue())
		Expect(objectmap.Find(mine, "value").IsReadOnly()).To(BeFalse())
	})

	It("should stop following a slice that contains itself", func() {
		c := chain{nil}
		c[0] = &c

		_, err := codec.Map("chain", &c)

		Expect(errors.Is(err, serialization.ErrUnsupported)).To(BeTrue())
	})

	It("should skip nil pointers", func() {
		dev.Owner = nil

		root, err := codec.Map("dev", dev)
		Expect(err).ToNot(HaveOccurred())
		Expect(objectmap.Find(root, "owner")).To(BeNil())
	})

	It("should attach objects that are already mapped", func() {
		a := &ring{ID: 1}
		b := &ring{ID: 2}
		a.Next, b.Next = b, a

		root, err := codec.Map("a", a)
		Expect(err).ToNot(HaveOccurred())

		next := objectmap.Find(root, "next")
		Expect(objectmap.Find(next, "next")).To(BeIdenticalTo(root))
	})

	It("should print a back-edge once as a loopback", func() {
		a := &ring{ID: 1}
		b := &ring{ID: 2}
		a.Next, b.Next = b, a

		root, err := codec.Map("a", a)
		Expect(err).ToNot(HaveOccurred())

		out := &bytes.Buffer{}
		objectmap.NewWalker("a", root).Print(out, objectmap.Unlimited)

		Expect(strings.Count(out.String(), "<loopback>")).To(Equal(1))
		Expect(out.String()).To(ContainSubstring(" id = 2 (int)"))
	})

	It("should use the registered name of polymorphic objects", func() {
		root, err := codec.Map("drawing", &drawing{
			Primary: &square{Side: 1},
		})
		Expect(err).ToNot(HaveOccurred())

		Expect(objectmap.Find(root, "primary").TypeName()).To(Equal("test.square"))
		Expect(objectmap.Find(root, "none")).To(BeNil())
	})

	It("should put non-struct roots under a hierarchy node", func() {
		values := []int{1, 2, 3}

		root, err := codec.Map("values", &values)
		Expect(err).ToNot(HaveOccurred())

		Expect(root).To(BeAssignableToTypeOf(&objectmap.HierarchyNode{}))
		Expect(names(objectmap.Find(root, "values"))).To(
			Equal([]string{"0", "1", "2"}))
	})

	It("should fail when a hierarchy is ended too often", func() {
		_, err := codec.Map("u", &unbalancedEnd{})

		Expect(errors.Is(err, serialization.ErrUnbalanced)).To(BeTrue())
	})

	It("should fail when a hierarchy is left open", func() {
		_, err := codec.Map("u", &unbalancedStart{})
		Expect(errors.Is(err, serialization.ErrUnbalanced)).To(BeTrue())

		_, err = codec.Map("h", &holder{Child: &unbalancedStart{}})
		Expect(errors.Is(err, serialization.ErrUnbalanced)).To(BeTrue())
	})

	It("should not produce bytes while grouping", func() {
		size, err := codec.Size(dev)
		Expect(err).ToNot(HaveOccurred())

		buf, err := codec.Serialize(dev)
		Expect(err).ToNot(HaveOccurred())
		Expect(buf).To(HaveLen(size))

		out := &device{}
		Expect(codec.Deserialize(buf, out)).To(Succeed())
		Expect(out.ID).To(Equal("dev0"))
		Expect(out.Stats).To(Equal(dev.Stats))
		Expect(out.Members).To(Equal(dev.Members))
		Expect(out.Lookup).To(Equal(dev.Lookup))
	})
})

var _ = Describe("Mapper", func() {
	var (
		root   *objectmap.HierarchyNode
		mapper *serialization.Mapper
	)

	BeforeEach(func() {
		root = objectmap.NewHierarchyNode()
		mapper = serialization.NewMapper(root)
	})

	It("should mark only the next node read-only", func() {
		a, b := 1, 2

		mapper.SetNextReadOnly()
		mapper.MapPrimitive("a", objectmap.NewFundamentalNode(valueOf(&a)))
		mapper.MapPrimitive("b", objectmap.NewFundamentalNode(valueOf(&b)))

		Expect(objectmap.Find(root, "a").IsReadOnly()).To(BeTrue())
		Expect(objectmap.Find(root, "b").IsReadOnly()).To(BeFalse())
		Expect(mapper.Nodes()).To(Equal(2))
	})

	It("should apply the latch to a hierarchy but not its children", func() {
		x := 1
		group := objectmap.NewHierarchyNode()

		mapper.SetNextReadOnly()
		mapper.MapHierarchyStart("group", group)
		mapper.MapPrimitive("x", objectmap.NewFundamentalNode(valueOf(&x)))
		Expect(mapper.Depth()).To(Equal(1))
		Expect(mapper.MapHierarchyEnd()).To(Succeed())

		Expect(group.IsReadOnly()).To(BeTrue())
		Expect(objectmap.Find(group, "x").IsReadOnly()).To(BeFalse())
		Expect(mapper.Depth()).To(Equal(0))
	})

	It("should apply the latch to existing objects", func() {
		existing := objectmap.NewHierarchyNode()

		mapper.SetNextReadOnly()
		mapper.MapExistingObject("again", existing)

		Expect(existing.IsReadOnly()).To(BeTrue())
	})

	It("should refuse to end the root", func() {
		err := mapper.MapHierarchyEnd()

		Expect(errors.Is(err, serialization.ErrUnbalanced)).To(BeTrue())
		Expect(mapper.Root()).To(BeIdenticalTo(root))
	})
})
