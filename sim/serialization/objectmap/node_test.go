package objectmap_test

import (
	"reflect"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ckpt/sim/serialization/objectmap"
)

var _ = Describe("FundamentalNode", func() {
	DescribeTable("should parse and format values",
		func(ptr any, input, formatted string) {
			n := fundamental(ptr)

			Expect(n.Set(input)).To(Succeed())
			Expect(n.Get()).To(Equal(formatted))
			Expect(n.IsFundamental()).To(BeTrue())
			Expect(n.Variables()).To(BeEmpty())
		},
		Entry("bool", new(bool), "true", "true"),
		Entry("int8", new(int8), "-128", "-128"),
		Entry("hex uint16", new(uint16), "0x10", "16"),
		Entry("uint64", new(uint64), "18446744073709551615",
			"18446744073709551615"),
		Entry("float32", new(float32), "1.25", "1.25"),
		Entry("complex128", new(complex128), "(1+2i)", "(1+2i)"),
		Entry("string", new(string), "with spaces", "with spaces"),
	)

	It("should leave the value untouched on a parse error", func() {
		x := int8(3)
		n := fundamental(&x)

		Expect(n.Set("300")).ToNot(Succeed())
		Expect(x).To(Equal(int8(3)))
	})

	It("should ignore writes once read-only", func() {
		x := 3
		n := fundamental(&x)
		n.SetReadOnly()

		Expect(n.Set("4")).To(Succeed())
		Expect(x).To(Equal(3))
		Expect(n.IsReadOnly()).To(BeTrue())
	})

	It("should be read-only when the value cannot be set", func() {
		n := objectmap.NewFundamentalNode(reflect.ValueOf(3))

		Expect(n.IsReadOnly()).To(BeTrue())
		Expect(n.Addr()).To(BeZero())
		Expect(n.Get()).To(Equal("3"))
	})

	It("should write map values back into the map", func() {
		m := map[string]int{"a": 1}
		mv := reflect.ValueOf(m)
		n := objectmap.NewMapValueNode(mv, reflect.ValueOf("a"))

		Expect(n.Get()).To(Equal("1"))
		Expect(n.Set("7")).To(Succeed())
		Expect(m["a"]).To(Equal(7))
		Expect(n.TypeName()).To(Equal("int"))
	})

	It("should not write map keys", func() {
		n := objectmap.NewMapKeyNode(reflect.ValueOf(uint8(4)))

		Expect(n.IsReadOnly()).To(BeTrue())
		Expect(n.Get()).To(Equal("4"))
	})
})

var _ = Describe("Composite nodes", func() {
	It("should find the first child with a name", func() {
		first, second := 1, 2
		n := objectmap.NewHierarchyNode()
		n.AddVariable("x", fundamental(&first))
		n.AddVariable("x", fundamental(&second))

		Expect(n.Variables()).To(HaveLen(2))
		Expect(objectmap.Find(n, "x").Get()).To(Equal("1"))
		Expect(objectmap.Find(n, "y")).To(BeNil())
	})

	It("should describe containers", func() {
		values := []int{1, 2}
		n := objectmap.NewContainerNode(reflect.ValueOf(&values).Elem())

		Expect(n.IsContainer()).To(BeTrue())
		Expect(n.IsFundamental()).To(BeFalse())
		Expect(n.TypeName()).To(Equal("[]int"))
		Expect(n.Set("1")).To(Succeed())
		Expect(n.Get()).To(BeEmpty())
	})

	It("should use the given type name for class nodes", func() {
		c := &cache{}
		n := objectmap.NewClassNode(reflect.ValueOf(c), "mem.Cache")

		Expect(n.TypeName()).To(Equal("mem.Cache"))
		Expect(n.Value().Interface()).To(BeIdenticalTo(c))
		Expect(n.IsContainer()).To(BeFalse())
	})

	It("should keep the read-only flag", func() {
		n := objectmap.NewHierarchyNode()
		n.SetReadOnly()
		n.SetReadOnly()

		Expect(n.IsReadOnly()).To(BeTrue())
	})
})
