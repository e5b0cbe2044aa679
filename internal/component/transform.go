package component

import (
	"github.com/stargo/server/internal/core/ecs"
	"github.com/stargo/server/internal/net/packet"
)

// Transform is an entity's position and orientation. PrevX/PrevY hold
// the position at the start of the current tick; the swept collision
// pass interpolates between them and the current position.
type Transform struct {
	ecs.Base
	X, Y         float64
	PrevX, PrevY float64
	Rotation     float64
}

func (t *Transform) TypeID() uint16 { return TypeTransform }

// Update latches the current position as the previous one. Runs first
// in the composite order, before anything moves.
func (t *Transform) Update(_ ecs.Parameterization) {
	t.PrevX = t.X
	t.PrevY = t.Y
}

func (t *Transform) CopyInto(dst ecs.Component) ecs.Component {
	out, ok := dst.(*Transform)
	if !ok || out == nil {
		out = &Transform{}
	}
	*out = *t
	return out
}

func (t *Transform) Packetize(w *packet.Writer) {
	t.PacketizeBase(w)
	w.WriteFloat64(t.X)
	w.WriteFloat64(t.Y)
	w.WriteFloat64(t.PrevX)
	w.WriteFloat64(t.PrevY)
	w.WriteFloat64(t.Rotation)
}

func (t *Transform) Depacketize(r *packet.Reader) error {
	if err := t.DepacketizeBase(r); err != nil {
		return err
	}
	var err error
	if t.X, err = r.ReadFloat64(); err != nil {
		return err
	}
	if t.Y, err = r.ReadFloat64(); err != nil {
		return err
	}
	if t.PrevX, err = r.ReadFloat64(); err != nil {
		return err
	}
	if t.PrevY, err = r.ReadFloat64(); err != nil {
		return err
	}
	if t.Rotation, err = r.ReadFloat64(); err != nil {
		return err
	}
	return nil
}
