package component

import (
	"github.com/stargo/server/internal/core/ecs"
	"github.com/stargo/server/internal/net/packet"
)

// SphereCollider gives an entity a swept-sphere collision shape. The
// collision system tests sphere-vs-box pairs; the component itself has
// no per-tick behavior.
type SphereCollider struct {
	ecs.Base
	Radius float64
}

func (c *SphereCollider) TypeID() uint16 { return TypeSphereCollider }

func (c *SphereCollider) Update(_ ecs.Parameterization) {}

func (c *SphereCollider) CopyInto(dst ecs.Component) ecs.Component {
	out, ok := dst.(*SphereCollider)
	if !ok || out == nil {
		out = &SphereCollider{}
	}
	*out = *c
	return out
}

func (c *SphereCollider) Packetize(w *packet.Writer) {
	c.PacketizeBase(w)
	w.WriteFloat64(c.Radius)
}

func (c *SphereCollider) Depacketize(r *packet.Reader) error {
	if err := c.DepacketizeBase(r); err != nil {
		return err
	}
	var err error
	if c.Radius, err = r.ReadFloat64(); err != nil {
		return err
	}
	return nil
}

// BoxCollider gives an entity an axis-aligned box collision shape.
type BoxCollider struct {
	ecs.Base
	HalfX, HalfY float64
}

func (c *BoxCollider) TypeID() uint16 { return TypeBoxCollider }

func (c *BoxCollider) Update(_ ecs.Parameterization) {}

func (c *BoxCollider) CopyInto(dst ecs.Component) ecs.Component {
	out, ok := dst.(*BoxCollider)
	if !ok || out == nil {
		out = &BoxCollider{}
	}
	*out = *c
	return out
}

func (c *BoxCollider) Packetize(w *packet.Writer) {
	c.PacketizeBase(w)
	w.WriteFloat64(c.HalfX)
	w.WriteFloat64(c.HalfY)
}

func (c *BoxCollider) Depacketize(r *packet.Reader) error {
	if err := c.DepacketizeBase(r); err != nil {
		return err
	}
	var err error
	if c.HalfX, err = r.ReadFloat64(); err != nil {
		return err
	}
	if c.HalfY, err = r.ReadFloat64(); err != nil {
		return err
	}
	return nil
}
