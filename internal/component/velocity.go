package component

import (
	"github.com/stargo/server/internal/core/ecs"
	"github.com/stargo/server/internal/net/packet"
)

// Velocity integrates its entity's Transform each tick. Units are
// world units per second.
type Velocity struct {
	ecs.Base
	VX, VY float64
	Spin   float64
}

func (v *Velocity) TypeID() uint16 { return TypeVelocity }

func (v *Velocity) Update(p ecs.Parameterization) {
	ctx, ok := p.(*ecs.UpdateContext)
	if !ok {
		return
	}
	t, ok := ecs.First[*Transform](ctx.World.Manager(), v.Entity())
	if !ok {
		return
	}
	t.X += v.VX * ctx.DT
	t.Y += v.VY * ctx.DT
	t.Rotation += v.Spin * ctx.DT
}

func (v *Velocity) CopyInto(dst ecs.Component) ecs.Component {
	out, ok := dst.(*Velocity)
	if !ok || out == nil {
		out = &Velocity{}
	}
	*out = *v
	return out
}

func (v *Velocity) Packetize(w *packet.Writer) {
	v.PacketizeBase(w)
	w.WriteFloat64(v.VX)
	w.WriteFloat64(v.VY)
	w.WriteFloat64(v.Spin)
}

func (v *Velocity) Depacketize(r *packet.Reader) error {
	if err := v.DepacketizeBase(r); err != nil {
		return err
	}
	var err error
	if v.VX, err = r.ReadFloat64(); err != nil {
		return err
	}
	if v.VY, err = r.ReadFloat64(); err != nil {
		return err
	}
	if v.Spin, err = r.ReadFloat64(); err != nil {
		return err
	}
	return nil
}
