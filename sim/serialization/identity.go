package serialization

import (
	"math"
	"reflect"
	"sync"
)

// A Handle refers to an object recorded in an identityArena. It is only
// meaningful within the traversal that produced it.
type Handle struct {
	Index uint32
}

// Token returns the value written to the stream for the handle.
func (h Handle) Token() uint64 {
	return uint64(h.Index)
}

// identityArena records the objects a traversal has already seen. While
// writing, objects are keyed by their (typed) pointer. While reading, slots
// are filled in the order their tokens first appear.
type identityArena struct {
	byKey map[any]Handle
	slots []reflect.Value
}

func newIdentityArena() *identityArena {
	return &identityArena{
		byKey: make(map[any]Handle),
	}
}

// intern returns the handle of key, assigning a new one if key has not been
// seen. The second return value is true for a new handle.
func (a *identityArena) intern(key any) (Handle, bool) {
	if h, ok := a.byKey[key]; ok {
		return h, false
	}

	h := a.fresh(reflect.ValueOf(key))
	a.byKey[key] = h

	return h, true
}

// fresh assigns a handle that no key can resolve to.
func (a *identityArena) fresh(v reflect.Value) Handle {
	a.slots = append(a.slots, v)

	return Handle{Index: uint32(len(a.slots))}
}

// next returns the token the next newly seen object receives.
func (a *identityArena) next() uint64 {
	return uint64(len(a.slots)) + 1
}

// bind records the object reconstructed for the token that next returned.
func (a *identityArena) bind(v reflect.Value) Handle {
	return a.fresh(v)
}

// resolve returns the object recorded under token.
func (a *identityArena) resolve(token uint64) (reflect.Value, bool) {
	if token > math.MaxUint32 {
		return reflect.Value{}, false
	}

	h := Handle{Index: uint32(token)}
	if !a.valid(h) {
		return reflect.Value{}, false
	}

	return a.slots[h.Index-1], true
}

func (a *identityArena) valid(h Handle) bool {
	return h.Index >= 1 && int(h.Index) <= len(a.slots)
}

func (a *identityArena) len() int {
	return len(a.slots)
}

// reset forgets every recorded object. The slot storage is kept.
func (a *identityArena) reset() {
	clear(a.slots)
	a.slots = a.slots[:0]
	clear(a.byKey)
}

var arenas = sync.Pool{
	New: func() any { return newIdentityArena() },
}

func acquireArena() *identityArena {
	return arenas.Get().(*identityArena)
}

func releaseArena(a *identityArena) {
	a.reset()
	arenas.Put(a)
}
