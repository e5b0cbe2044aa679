package ecs

import "github.com/stargo/server/internal/net/packet"

// Parameterization is the external per-phase context handed to every
// component update in one system pass: frame number, delta time, and
// whatever else the phase needs. Clone must produce an independent
// value — a cloned system may never share mutable context with its
// original.
type Parameterization interface {
	Clone() Parameterization
}

// Component is a typed unit of per-entity state and behavior. Every
// concrete kind supports in-place update, value-complete deep copy, and
// symmetric packetize/depacketize: Depacketize(Packetize(c)) must yield
// a component observationally identical to c.
type Component interface {
	packet.Packetizable

	// Entity is a weak back-reference to the owner, never an ownership
	// edge. Set by the manager on add.
	Entity() EntityID
	SetEntity(id EntityID)

	Enabled() bool
	SetEnabled(v bool)

	Update(p Parameterization)

	// CopyInto copies all state into dst and returns it. A nil dst
	// allocates a fresh instance; a non-nil dst of the same concrete
	// type is mutated in place (pool-reuse path, no allocation in the
	// rollback hot loop). The result must not alias any of the
	// source's mutable storage.
	CopyInto(dst Component) Component
}

// Base carries the owner reference and enabled flag common to all
// components. Embed by pointer receiver types. The zero value is
// enabled and unowned.
type Base struct {
	owner    EntityID
	disabled bool
}

func (b *Base) Entity() EntityID     { return b.owner }
func (b *Base) SetEntity(id EntityID) { b.owner = id }
func (b *Base) Enabled() bool        { return !b.disabled }
func (b *Base) SetEnabled(v bool)    { b.disabled = !v }

// CopyBase copies the shared fields. The owner travels with the copy:
// a cloned simulation keeps the same entity IDs.
func (b *Base) CopyBase(dst *Base) {
	*dst = *b
}

// PacketizeBase / DepacketizeBase encode the shared fields. The owner
// ID is not written here: the manager's snapshot format records it
// once per entity, and a depacketized component is re-owned on add.
func (b *Base) PacketizeBase(w *packet.Writer) {
	w.WriteBool(b.disabled)
}

func (b *Base) DepacketizeBase(r *packet.Reader) error {
	d, err := r.ReadBool()
	if err != nil {
		return err
	}
	b.disabled = d
	return nil
}
