package component

import (
	"github.com/stargo/server/internal/core/ecs"
	"github.com/stargo/server/internal/net/packet"
)

// Health tracks hit points. An entity whose health reaches zero is
// queued for end-of-tick destruction.
type Health struct {
	ecs.Base
	Current int32
	Max     int32
}

func (h *Health) TypeID() uint16 { return TypeHealth }

func (h *Health) Update(p ecs.Parameterization) {
	ctx, ok := p.(*ecs.UpdateContext)
	if !ok {
		return
	}
	if h.Current > h.Max {
		h.Current = h.Max
	}
	if h.Current <= 0 {
		ctx.World.MarkForDestruction(h.Entity())
	}
}

func (h *Health) CopyInto(dst ecs.Component) ecs.Component {
	out, ok := dst.(*Health)
	if !ok || out == nil {
		out = &Health{}
	}
	*out = *h
	return out
}

func (h *Health) Packetize(w *packet.Writer) {
	h.PacketizeBase(w)
	w.WriteInt32(h.Current)
	w.WriteInt32(h.Max)
}

func (h *Health) Depacketize(r *packet.Reader) error {
	if err := h.DepacketizeBase(r); err != nil {
		return err
	}
	var err error
	if h.Current, err = r.ReadInt32(); err != nil {
		return err
	}
	if h.Max, err = r.ReadInt32(); err != nil {
		return err
	}
	return nil
}
