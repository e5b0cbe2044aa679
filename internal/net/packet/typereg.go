package packet

import (
	"errors"
	"fmt"
)

// Registry errors. A duplicate registration is a schema-configuration
// bug and must abort startup; an unknown discriminator on the wire is a
// decoding error for the single packet being read.
var (
	ErrDuplicateTypeID = errors.New("packet: duplicate type id")
	ErrUnknownTypeID   = errors.New("packet: unknown type id")
)

// Packetizable is implemented by every value that can travel in a
// packet behind a type discriminator: components, commands, events.
// Depacketize must consume exactly what Packetize wrote.
type Packetizable interface {
	TypeID() uint16
	Packetize(w *Writer)
	Depacketize(r *Reader) error
}

// TypeRegistry maps type discriminators to factories so values can be
// depacketized polymorphically. It is built once at startup, threaded
// through as an explicit dependency, and read-only afterwards — the
// registration list is the wire schema and must be identical on every
// participant of a session.
type TypeRegistry struct {
	factories map[uint16]func() Packetizable
}

func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		factories: make(map[uint16]func() Packetizable, 32),
	}
}

// Register binds a discriminator to a factory. Registering the same id
// twice is an error; the caller should treat it as fatal at startup.
func (t *TypeRegistry) Register(id uint16, factory func() Packetizable) error {
	if _, ok := t.factories[id]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateTypeID, id)
	}
	t.factories[id] = factory
	return nil
}

// New instantiates a zero value for the given discriminator.
func (t *TypeRegistry) New(id uint16) (Packetizable, bool) {
	factory, ok := t.factories[id]
	if !ok {
		return nil, false
	}
	return factory(), true
}

// WritePacketizable writes the value's discriminator followed by its
// own encoding.
func (t *TypeRegistry) WritePacketizable(w *Writer, v Packetizable) {
	w.WriteUint16(v.TypeID())
	v.Packetize(w)
}

// ReadPacketizable reads a discriminator, instantiates the registered
// type, and delegates to its Depacketize. The static type need only be
// known as Packetizable.
func (t *TypeRegistry) ReadPacketizable(r *Reader) (Packetizable, error) {
	id, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	v, ok := t.New(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTypeID, id)
	}
	if err := v.Depacketize(r); err != nil {
		return nil, fmt.Errorf("depacketize type %d: %w", id, err)
	}
	return v, nil
}
