package serialization

import (
	"fmt"
	"sort"
	"sync"
)

// Manager keeps named checkpoints in memory. A checkpoint is the encoded
// state of an object graph at the moment it was taken.
type Manager struct {
	codec *Codec
	lock  sync.Mutex

	checkpoints map[string][]byte
}

// NewManager creates a manager that encodes with codec.
func NewManager(codec *Codec) *Manager {
	return &Manager{
		codec:       codec,
		lock:        sync.Mutex{},
		checkpoints: make(map[string][]byte),
	}
}

// Codec returns the codec used by the manager.
func (m *Manager) Codec() *Codec {
	return m.codec
}

// Checkpoint encodes the object ptr points to and stores it under name,
// replacing any previous checkpoint with the same name. It returns the size
// of the checkpoint.
func (m *Manager) Checkpoint(name string, ptr any) (int, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	data, err := m.codec.Serialize(ptr)
	if err != nil {
		return 0, err
	}

	m.checkpoints[name] = data

	return len(data), nil
}

// Restore decodes the checkpoint stored under name into the object ptr
// points to.
func (m *Manager) Restore(name string, ptr any) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	data, ok := m.checkpoints[name]
	if !ok {
		return &Error{
			Phase:  PhaseDecode,
			Kind:   KindUsage,
			Detail: fmt.Sprintf("no checkpoint named %s", name),
		}
	}

	return m.codec.Deserialize(data, ptr)
}

// Load stores externally obtained checkpoint data under name.
func (m *Manager) Load(name string, data []byte) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.checkpoints[name] = append([]byte(nil), data...)
}

// Bytes returns a copy of the checkpoint stored under name.
func (m *Manager) Bytes(name string) ([]byte, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()

	data, ok := m.checkpoints[name]
	if !ok {
		return nil, false
	}

	return append([]byte(nil), data...), true
}

// Delete removes the checkpoint stored under name.
func (m *Manager) Delete(name string) {
	m.lock.Lock()
	defer m.lock.Unlock()

	delete(m.checkpoints, name)
}

// Names lists the stored checkpoints in alphabetical order.
func (m *Manager) Names() []string {
	m.lock.Lock()
	defer m.lock.Unlock()

	names := make([]string, 0, len(m.checkpoints))
	for name := range m.checkpoints {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
