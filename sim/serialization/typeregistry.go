package serialization

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// A Tag identifies a registered polymorphic type on the wire.
type Tag uint64

// NullTag is written in place of a tag for nil interface values.
const NullTag Tag = 0

// TagFor returns the tag of the type registered under name. Tags depend only
// on the registered name, so they stay the same across builds.
func TagFor(name string) Tag {
	return Tag(xxhash.Sum64String(name))
}

// A Factory creates a zero-valued instance of a registered type.
type Factory func() Polymorphic

// RegistryEntry describes one registered type.
type RegistryEntry struct {
	Tag     Tag
	Name    string
	Factory Factory
}

// A Registry maps tags to the factories of polymorphic types.
type Registry struct {
	lock sync.RWMutex

	byTag  map[Tag]RegistryEntry
	byName map[string]Tag
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byTag:  make(map[Tag]RegistryEntry),
		byName: make(map[string]Tag),
	}
}

// Register adds a type under name. The factory must return a pointer so
// that the created instance can be filled in place. Every name can only be
// registered once.
func (r *Registry) Register(name string, factory Factory) (Tag, error) {
	if name == "" || factory == nil {
		return NullTag, &Error{
			Phase:  PhaseRegister,
			Kind:   KindUsage,
			Detail: "name and factory must be provided",
		}
	}

	sample := factory()
	if sample == nil || reflect.TypeOf(sample).Kind() != reflect.Ptr {
		return NullTag, &Error{
			Phase:  PhaseRegister,
			Kind:   KindUsage,
			Detail: fmt.Sprintf("factory of %s must return a non-nil pointer", name),
		}
	}

	tag := TagFor(name)
	if tag == NullTag {
		return NullTag, &Error{
			Phase:  PhaseRegister,
			Kind:   KindDuplicate,
			Detail: fmt.Sprintf("name %s hashes to the null tag", name),
		}
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.byName[name]; ok {
		return NullTag, &Error{
			Phase:  PhaseRegister,
			Kind:   KindDuplicate,
			Detail: fmt.Sprintf("type %s already registered", name),
		}
	}

	if other, ok := r.byTag[tag]; ok {
		return NullTag, &Error{
			Phase:  PhaseRegister,
			Kind:   KindDuplicate,
			Tag:    tag,
			Detail: fmt.Sprintf("%s collides with %s", name, other.Name),
		}
	}

	r.byTag[tag] = RegistryEntry{Tag: tag, Name: name, Factory: factory}
	r.byName[name] = tag

	return tag, nil
}

// RegisterType registers the type of example under example.TypeName(). New
// instances are created with reflect.New on the pointed-to type.
func (r *Registry) RegisterType(example Polymorphic) (Tag, error) {
	t := reflect.TypeOf(example)
	if t == nil || t.Kind() != reflect.Ptr {
		return NullTag, &Error{
			Phase:  PhaseRegister,
			Kind:   KindUsage,
			Detail: fmt.Sprintf("example %T must be a pointer", example),
		}
	}

	elem := t.Elem()

	return r.Register(example.TypeName(), func() Polymorphic {
		return reflect.New(elem).Interface().(Polymorphic)
	})
}

// TagOf returns the tag registered under name.
func (r *Registry) TagOf(name string) (Tag, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	tag, ok := r.byName[name]

	return tag, ok
}

// Create returns a new instance of the type registered under tag.
func (r *Registry) Create(tag Tag) (Polymorphic, error) {
	r.lock.RLock()
	entry, ok := r.byTag[tag]
	r.lock.RUnlock()

	if !ok {
		return nil, &Error{
			Phase:  PhaseDecode,
			Kind:   KindUnknownTag,
			Tag:    tag,
			Detail: "no type registered under this tag",
		}
	}

	return entry.Factory(), nil
}

// Entries lists the registered types sorted by name.
func (r *Registry) Entries() []RegistryEntry {
	r.lock.RLock()
	defer r.lock.RUnlock()

	entries := make([]RegistryEntry, 0, len(r.byTag))
	for _, e := range r.byTag {
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})

	return entries
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return len(r.byTag)
}

var registry = NewRegistry()

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	return registry
}

// RegisterType registers the type of example in the process-wide registry.
func RegisterType(example Polymorphic) (Tag, error) {
	return registry.RegisterType(example)
}

// MustRegisterType is like RegisterType but panics on error. It is meant to
// be called from init functions.
func MustRegisterType(example Polymorphic) Tag {
	tag, err := registry.RegisterType(example)
	if err != nil {
		panic(err)
	}

	return tag
}
