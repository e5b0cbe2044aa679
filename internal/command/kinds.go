package command

import (
	"github.com/stargo/server/internal/core/ecs"
	"github.com/stargo/server/internal/net/packet"
)

// Input is the per-frame control state of one player's avatar: thrust
// vector, turn rate, and fire trigger. The most common command by far.
type Input struct {
	FrameHeader
	ThrustX float64
	ThrustY float64
	Turn    float64
	Fire    bool
}

func (c *Input) TypeID() uint16 { return TypeInput }

func (c *Input) Packetize(w *packet.Writer) {
	c.FrameHeader.packetize(w)
	w.WriteFloat64(c.ThrustX)
	w.WriteFloat64(c.ThrustY)
	w.WriteFloat64(c.Turn)
	w.WriteBool(c.Fire)
}

func (c *Input) Depacketize(r *packet.Reader) error {
	if err := c.FrameHeader.depacketize(r); err != nil {
		return err
	}
	var err error
	if c.ThrustX, err = r.ReadFloat64(); err != nil {
		return err
	}
	if c.ThrustY, err = r.ReadFloat64(); err != nil {
		return err
	}
	if c.Turn, err = r.ReadFloat64(); err != nil {
		return err
	}
	if c.Fire, err = r.ReadBool(); err != nil {
		return err
	}
	return nil
}

// Spawn instantiates an archetype at a position. Trusted input only.
type Spawn struct {
	FrameHeader
	Archetype string
	X, Y      float64
}

func (c *Spawn) TypeID() uint16          { return TypeSpawn }
func (c *Spawn) RequiresAuthority() bool { return true }

func (c *Spawn) Packetize(w *packet.Writer) {
	c.FrameHeader.packetize(w)
	w.WriteString(c.Archetype)
	w.WriteFloat64(c.X)
	w.WriteFloat64(c.Y)
}

func (c *Spawn) Depacketize(r *packet.Reader) error {
	if err := c.FrameHeader.depacketize(r); err != nil {
		return err
	}
	var err error
	if c.Archetype, err = r.ReadString(); err != nil {
		return err
	}
	if c.X, err = r.ReadFloat64(); err != nil {
		return err
	}
	if c.Y, err = r.ReadFloat64(); err != nil {
		return err
	}
	return nil
}

// Despawn removes an entity from the simulation. Trusted input only.
type Despawn struct {
	FrameHeader
	Target ecs.EntityID
}

func (c *Despawn) TypeID() uint16          { return TypeDespawn }
func (c *Despawn) RequiresAuthority() bool { return true }

func (c *Despawn) Packetize(w *packet.Writer) {
	c.FrameHeader.packetize(w)
	w.WriteInt64(int64(c.Target))
}

func (c *Despawn) Depacketize(r *packet.Reader) error {
	if err := c.FrameHeader.depacketize(r); err != nil {
		return err
	}
	t, err := r.ReadInt64()
	if err != nil {
		return err
	}
	c.Target = ecs.EntityID(t)
	return nil
}

// Script runs a chunk of Lua in the simulation console. Trusted input
// only; the source is executed at the target frame so every machine
// sees its effects at the same point in the stream.
type Script struct {
	FrameHeader
	Source string
}

func (c *Script) TypeID() uint16          { return TypeScript }
func (c *Script) RequiresAuthority() bool { return true }

func (c *Script) Packetize(w *packet.Writer) {
	c.FrameHeader.packetize(w)
	w.WriteString(c.Source)
}

func (c *Script) Depacketize(r *packet.Reader) error {
	if err := c.FrameHeader.depacketize(r); err != nil {
		return err
	}
	s, err := r.ReadString()
	if err != nil {
		return err
	}
	c.Source = s
	return nil
}

// Chat is a plain (unframed) command: it never touches simulation state
// and is relayed outside the lockstep stream.
type Chat struct {
	Header
	Text string
}

func (c *Chat) TypeID() uint16 { return TypeChat }

func (c *Chat) Packetize(w *packet.Writer) {
	c.Header.packetize(w)
	w.WriteString(c.Text)
}

func (c *Chat) Depacketize(r *packet.Reader) error {
	if err := c.Header.depacketize(r); err != nil {
		return err
	}
	s, err := r.ReadString()
	if err != nil {
		return err
	}
	c.Text = s
	return nil
}

// Register adds every command kind to the wire schema. Called once at
// startup; the registration list must be identical across all
// participants of a session.
func Register(reg *packet.TypeRegistry) error {
	for id, factory := range map[uint16]func() packet.Packetizable{
		TypeInput:   func() packet.Packetizable { return &Input{} },
		TypeSpawn:   func() packet.Packetizable { return &Spawn{} },
		TypeDespawn: func() packet.Packetizable { return &Despawn{} },
		TypeScript:  func() packet.Packetizable { return &Script{} },
		TypeChat:    func() packet.Packetizable { return &Chat{} },
	} {
		if err := reg.Register(id, factory); err != nil {
			return err
		}
	}
	return nil
}
