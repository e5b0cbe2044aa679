package ecs

import (
	"fmt"

	"github.com/stargo/server/internal/net/packet"
)

// Manager owns every entity's ordered component list. Iteration order —
// entities in creation order, components in insertion order — is part of
// the contract: component indices are referenced by messages, and every
// machine in a lockstep session must walk the same sequence.
type Manager struct {
	order      []EntityID
	components map[EntityID][]Component

	onAdd    func(Component)
	onRemove func(Component)
}

func NewManager() *Manager {
	return &Manager{
		order:      make([]EntityID, 0, 256),
		components: make(map[EntityID][]Component, 256),
	}
}

// SetHooks installs add/remove observers (the composite system keeps its
// per-kind lists in sync through these). Must be set before any Add.
func (m *Manager) SetHooks(onAdd, onRemove func(Component)) {
	m.onAdd = onAdd
	m.onRemove = onRemove
}

// AddEntity registers an entity with an empty component list.
func (m *Manager) AddEntity(id EntityID) {
	if _, ok := m.components[id]; ok {
		return
	}
	m.order = append(m.order, id)
	m.components[id] = nil
}

// Has reports whether the entity is registered.
func (m *Manager) Has(id EntityID) bool {
	_, ok := m.components[id]
	return ok
}

// Add appends a component to the entity's list and takes ownership of it.
func (m *Manager) Add(id EntityID, c Component) error {
	if _, ok := m.components[id]; !ok {
		return fmt.Errorf("ecs: add component to unknown entity %d", id)
	}
	c.SetEntity(id)
	m.components[id] = append(m.components[id], c)
	if m.onAdd != nil {
		m.onAdd(c)
	}
	return nil
}

// Remove detaches the given component from its entity, preserving the
// order of the remaining components. Unknown components are a no-op.
func (m *Manager) Remove(id EntityID, c Component) {
	list, ok := m.components[id]
	if !ok {
		return
	}
	for i, have := range list {
		if have == c {
			m.components[id] = append(list[:i], list[i+1:]...)
			c.SetEntity(0)
			if m.onRemove != nil {
				m.onRemove(c)
			}
			return
		}
	}
}

// ComponentsOf returns the entity's component list in insertion order.
// The slice is the manager's own storage: callers iterate, never mutate.
func (m *Manager) ComponentsOf(id EntityID) []Component {
	return m.components[id]
}

// First returns the first component of entity id assignable to T.
// An entity without one is not an error: the second result is false.
func First[T Component](m *Manager, id EntityID) (T, bool) {
	for _, c := range m.components[id] {
		if t, ok := c.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

// EachEntity visits entities in creation order.
func (m *Manager) EachEntity(fn func(EntityID)) {
	for _, id := range m.order {
		fn(id)
	}
}

// EachComponent visits every component, entities in creation order and
// components in insertion order.
func (m *Manager) EachComponent(fn func(Component)) {
	for _, id := range m.order {
		for _, c := range m.components[id] {
			fn(c)
		}
	}
}

// EntityCount returns the number of registered entities.
func (m *Manager) EntityCount() int {
	return len(m.order)
}

// RemoveAll destroys the entity's component list and deregisters it.
func (m *Manager) RemoveAll(id EntityID) {
	list, ok := m.components[id]
	if !ok {
		return
	}
	for _, c := range list {
		c.SetEntity(0)
		if m.onRemove != nil {
			m.onRemove(c)
		}
	}
	delete(m.components, id)
	for i, have := range m.order {
		if have == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// CopyInto makes dst a value-complete copy of m, reusing dst's existing
// component instances in place where the concrete types line up (the
// rollback hot path copies the same layout every time, so steady state
// allocates nothing). dst's hooks fire for every component that had to
// be re-created, and for all components when layouts diverged.
func (m *Manager) CopyInto(dst *Manager) {
	// Fast path: identical entity/component layout, copy in place.
	if dst.sameLayout(m) {
		for _, id := range m.order {
			src := m.components[id]
			dstList := dst.components[id]
			for i, c := range src {
				c.CopyInto(dstList[i])
			}
		}
		return
	}

	// Layouts diverged: rebuild dst from scratch.
	for i := len(dst.order) - 1; i >= 0; i-- {
		dst.RemoveAll(dst.order[i])
	}
	for _, id := range m.order {
		dst.AddEntity(id)
		for _, c := range m.components[id] {
			// Add re-fires hooks so a cloned composite re-attaches.
			_ = dst.Add(id, c.CopyInto(nil))
		}
	}
}

func (m *Manager) sameLayout(src *Manager) bool {
	if len(m.order) != len(src.order) {
		return false
	}
	for i, id := range src.order {
		if m.order[i] != id {
			return false
		}
		a, b := src.components[id], m.components[id]
		if len(a) != len(b) {
			return false
		}
		for j := range a {
			if a[j].TypeID() != b[j].TypeID() {
				return false
			}
		}
	}
	return true
}

// Packetize writes the complete component state of every entity. The
// same bytes back the periodic snapshot and the per-frame state hash.
func (m *Manager) Packetize(w *packet.Writer, reg *packet.TypeRegistry) {
	w.WriteUint32(uint32(len(m.order)))
	for _, id := range m.order {
		w.WriteInt64(int64(id))
		list := m.components[id]
		w.WriteUint16(uint16(len(list)))
		for _, c := range list {
			reg.WritePacketizable(w, c)
		}
	}
}

// Depacketize rebuilds the manager from a snapshot. Existing contents
// are discarded first.
func (m *Manager) Depacketize(r *packet.Reader, reg *packet.TypeRegistry) error {
	count, err := r.ReadUint32()
	if err != nil {
		return err
	}
	for i := len(m.order) - 1; i >= 0; i-- {
		m.RemoveAll(m.order[i])
	}
	for i := uint32(0); i < count; i++ {
		rawID, err := r.ReadInt64()
		if err != nil {
			return err
		}
		id := EntityID(rawID)
		m.AddEntity(id)
		n, err := r.ReadUint16()
		if err != nil {
			return err
		}
		for j := uint16(0); j < n; j++ {
			v, err := reg.ReadPacketizable(r)
			if err != nil {
				return err
			}
			c, ok := v.(Component)
			if !ok {
				return fmt.Errorf("ecs: type %d is not a component", v.TypeID())
			}
			if err := m.Add(id, c); err != nil {
				return err
			}
		}
	}
	return nil
}
