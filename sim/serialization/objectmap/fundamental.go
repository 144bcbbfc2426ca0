package objectmap

import (
	"fmt"
	"reflect"
	"strconv"
)

// A FundamentalNode views a single primitive value. It has no children.
type FundamentalNode struct {
	nodeBase

	typ   reflect.Type
	addr  uintptr
	load  func() reflect.Value
	store func(reflect.Value)
}

// NewFundamentalNode creates a node that views the addressable value v.
func NewFundamentalNode(v reflect.Value) *FundamentalNode {
	n := &FundamentalNode{
		typ:  v.Type(),
		addr: addrOf(v),
		load: func() reflect.Value { return v },
	}

	if v.CanSet() {
		n.store = v.Set
	} else {
		n.readOnly = true
	}

	return n
}

// NewMapValueNode creates a node that views the value stored under key in
// the map m. Writes go back into the map.
func NewMapValueNode(m, key reflect.Value) *FundamentalNode {
	return &FundamentalNode{
		typ:   m.Type().Elem(),
		load:  func() reflect.Value { return m.MapIndex(key) },
		store: func(v reflect.Value) { m.SetMapIndex(key, v) },
	}
}

// NewMapKeyNode creates a read-only node for a map key or a set member.
func NewMapKeyNode(key reflect.Value) *FundamentalNode {
	return &FundamentalNode{
		nodeBase: nodeBase{readOnly: true},
		typ:      key.Type(),
		load:     func() reflect.Value { return key },
	}
}

// IsFundamentalKind reports whether values of kind k can be viewed by a
// FundamentalNode.
func IsFundamentalKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128,
		reflect.String:
		return true
	default:
		return false
	}
}

func (n *FundamentalNode) TypeName() string {
	return n.typ.String()
}

func (n *FundamentalNode) Addr() uintptr {
	return n.addr
}

func (n *FundamentalNode) Value() reflect.Value {
	return n.load()
}

func (n *FundamentalNode) Variables() []Variable {
	return nil
}

func (n *FundamentalNode) IsFundamental() bool {
	return true
}

func (n *FundamentalNode) IsContainer() bool {
	return false
}

func (n *FundamentalNode) Get() string {
	v := n.load()
	if !v.IsValid() {
		return ""
	}

	return format(v)
}

// Set parses value according to the viewed type. On a parse error the viewed
// value is left untouched.
func (n *FundamentalNode) Set(value string) error {
	if n.readOnly || n.store == nil {
		return nil
	}

	parsed := reflect.New(n.typ).Elem()

	err := parse(parsed, value)
	if err != nil {
		return err
	}

	n.store(parsed)

	return nil
}

func format(v reflect.Value) string {
	switch v.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, v.Type().Bits())
	case reflect.Complex64, reflect.Complex128:
		return strconv.FormatComplex(v.Complex(), 'g', -1, v.Type().Bits())
	case reflect.String:
		return v.String()
	default:
		return fmt.Sprint(v.Interface())
	}
}

func parse(v reflect.Value, s string) error {
	switch v.Kind() {
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}

		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(s, 0, v.Type().Bits())
		if err != nil {
			return err
		}

		v.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr:
		u, err := strconv.ParseUint(s, 0, v.Type().Bits())
		if err != nil {
			return err
		}

		v.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, v.Type().Bits())
		if err != nil {
			return err
		}

		v.SetFloat(f)
	case reflect.Complex64, reflect.Complex128:
		c, err := strconv.ParseComplex(s, v.Type().Bits())
		if err != nil {
			return err
		}

		v.SetComplex(c)
	case reflect.String:
		v.SetString(s)
	default:
		return fmt.Errorf("cannot set value of type %s", v.Type())
	}

	return nil
}
