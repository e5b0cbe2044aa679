package component

import (
	"github.com/stargo/server/internal/core/ecs"
	"github.com/stargo/server/internal/net/packet"
)

// Control is one frame of player input waiting to be folded into the
// avatar's velocity.
type Control struct {
	ThrustX float64
	ThrustY float64
	Turn    float64
	Fire    bool
}

// Avatar binds an entity to the player controlling it and buffers that
// player's pending inputs. Applying an Input command only pushes onto
// the buffer; the avatar folds it into the entity's velocity during its
// own update, so command application stays order-independent within a
// frame bucket.
type Avatar struct {
	ecs.Base
	Player  int32
	Pending []Control
}

func (a *Avatar) TypeID() uint16 { return TypeAvatar }

func (a *Avatar) Update(p ecs.Parameterization) {
	ctx, ok := p.(*ecs.UpdateContext)
	if !ok {
		return
	}
	if len(a.Pending) == 0 {
		return
	}
	v, ok := ecs.First[*Velocity](ctx.World.Manager(), a.Entity())
	if ok {
		for _, in := range a.Pending {
			v.VX += in.ThrustX * ctx.DT
			v.VY += in.ThrustY * ctx.DT
			v.Spin += in.Turn * ctx.DT
		}
	}
	a.Pending = a.Pending[:0]
}

func (a *Avatar) Push(in Control) {
	a.Pending = append(a.Pending, in)
}

func (a *Avatar) CopyInto(dst ecs.Component) ecs.Component {
	out, ok := dst.(*Avatar)
	if !ok || out == nil {
		out = &Avatar{}
	}
	a.CopyBase(&out.Base)
	out.Player = a.Player
	out.Pending = append(out.Pending[:0], a.Pending...)
	return out
}

func (a *Avatar) Packetize(w *packet.Writer) {
	a.PacketizeBase(w)
	w.WriteInt32(a.Player)
	w.WriteUint16(uint16(len(a.Pending)))
	for _, in := range a.Pending {
		w.WriteFloat64(in.ThrustX)
		w.WriteFloat64(in.ThrustY)
		w.WriteFloat64(in.Turn)
		w.WriteBool(in.Fire)
	}
}

func (a *Avatar) Depacketize(r *packet.Reader) error {
	if err := a.DepacketizeBase(r); err != nil {
		return err
	}
	var err error
	if a.Player, err = r.ReadInt32(); err != nil {
		return err
	}
	n, err := r.ReadUint16()
	if err != nil {
		return err
	}
	a.Pending = a.Pending[:0]
	for i := uint16(0); i < n; i++ {
		var in Control
		if in.ThrustX, err = r.ReadFloat64(); err != nil {
			return err
		}
		if in.ThrustY, err = r.ReadFloat64(); err != nil {
			return err
		}
		if in.Turn, err = r.ReadFloat64(); err != nil {
			return err
		}
		if in.Fire, err = r.ReadBool(); err != nil {
			return err
		}
		a.Pending = append(a.Pending, in)
	}
	return nil
}
