package sim

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/stargo/server/internal/component"
	"github.com/stargo/server/internal/core/ecs"
	"github.com/stargo/server/internal/core/event"
	"github.com/stargo/server/internal/geom"
)

// CollisionSystem sweeps every sphere collider against every box
// collider over the frame interval. Pair tests are pure and run on a
// worker pool; results land in per-pair slots so the merge — damage and
// events — happens sequentially in pair order. Identical inputs produce
// identical outcomes regardless of worker count.
type CollisionSystem struct {
	param  ecs.Parameterization
	bus    *event.Bus
	damage int32

	spheres []*component.SphereCollider
	boxes   []*component.BoxCollider

	pairs []pair // reused across ticks
}

type pair struct {
	sphere *component.SphereCollider
	box    *component.BoxCollider
	st, bt *component.Transform
	hit    bool
}

func NewCollisionSystem(param ecs.Parameterization, bus *event.Bus, damage int32) *CollisionSystem {
	return &CollisionSystem{
		param:  param,
		bus:    bus,
		damage: damage,
	}
}

func (cs *CollisionSystem) Name() string { return "collision" }

func (cs *CollisionSystem) Accepts(c ecs.Component) bool {
	switch c.(type) {
	case *component.SphereCollider, *component.BoxCollider:
		return true
	}
	return false
}

func (cs *CollisionSystem) Attach(c ecs.Component) {
	switch cc := c.(type) {
	case *component.SphereCollider:
		cs.spheres = append(cs.spheres, cc)
	case *component.BoxCollider:
		cs.boxes = append(cs.boxes, cc)
	}
}

func (cs *CollisionSystem) Detach(c ecs.Component) {
	switch cc := c.(type) {
	case *component.SphereCollider:
		for i, have := range cs.spheres {
			if have == cc {
				cs.spheres = append(cs.spheres[:i], cs.spheres[i+1:]...)
				return
			}
		}
	case *component.BoxCollider:
		for i, have := range cs.boxes {
			if have == cc {
				cs.boxes = append(cs.boxes[:i], cs.boxes[i+1:]...)
				return
			}
		}
	}
}

func (cs *CollisionSystem) Parameterization() ecs.Parameterization { return cs.param }

func (cs *CollisionSystem) Update() {
	ctx, ok := cs.param.(*ecs.UpdateContext)
	if !ok || ctx.World == nil {
		return
	}
	m := ctx.World.Manager()

	cs.pairs = cs.pairs[:0]
	for _, s := range cs.spheres {
		if !s.Enabled() {
			continue
		}
		st, ok := ecs.First[*component.Transform](m, s.Entity())
		if !ok {
			continue
		}
		for _, b := range cs.boxes {
			if !b.Enabled() || b.Entity() == s.Entity() {
				continue
			}
			bt, ok := ecs.First[*component.Transform](m, b.Entity())
			if !ok {
				continue
			}
			cs.pairs = append(cs.pairs, pair{sphere: s, box: b, st: st, bt: bt})
		}
	}
	if len(cs.pairs) == 0 {
		return
	}

	cs.testPairs()

	// Sequential merge in pair order keeps damage application and event
	// emission deterministic.
	for i := range cs.pairs {
		p := &cs.pairs[i]
		if !p.hit {
			continue
		}
		cs.applyHit(m, p.sphere.Entity())
		cs.applyHit(m, p.box.Entity())
		if cs.bus != nil {
			event.Emit(cs.bus, event.CollisionOccurred{
				Frame:  ctx.Frame,
				Sphere: p.sphere.Entity(),
				Box:    p.box.Entity(),
			})
		}
	}
}

// testPairs fills each pair's hit slot, fanning out across workers when
// the pair count justifies it.
func (cs *CollisionSystem) testPairs() {
	workers := runtime.GOMAXPROCS(0)
	if len(cs.pairs) < 64 || workers < 2 {
		for i := range cs.pairs {
			cs.pairs[i].hit = testPair(&cs.pairs[i])
		}
		return
	}

	var g errgroup.Group
	chunk := (len(cs.pairs) + workers - 1) / workers
	for lo := 0; lo < len(cs.pairs); lo += chunk {
		hi := lo + chunk
		if hi > len(cs.pairs) {
			hi = len(cs.pairs)
		}
		slice := cs.pairs[lo:hi]
		g.Go(func() error {
			for i := range slice {
				slice[i].hit = testPair(&slice[i])
			}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors
}

func testPair(p *pair) bool {
	return geom.SweepSphereBox(
		p.sphere.Radius,
		geom.V(p.box.HalfX, p.box.HalfY),
		geom.V(p.st.PrevX, p.st.PrevY),
		geom.V(p.st.X, p.st.Y),
		geom.V(p.bt.PrevX, p.bt.PrevY),
		geom.V(p.bt.X, p.bt.Y),
	)
}

func (cs *CollisionSystem) applyHit(m *ecs.Manager, id ecs.EntityID) {
	if cs.damage <= 0 {
		return
	}
	if h, ok := ecs.First[*component.Health](m, id); ok {
		h.Current -= cs.damage
	}
}

func (cs *CollisionSystem) Clone(copyComponents bool) ecs.ComponentSystem {
	clone := &CollisionSystem{
		param:  cs.param.Clone(),
		bus:    cs.bus,
		damage: cs.damage,
	}
	if copyComponents {
		clone.spheres = make([]*component.SphereCollider, len(cs.spheres))
		for i, s := range cs.spheres {
			clone.spheres[i] = s.CopyInto(nil).(*component.SphereCollider)
		}
		clone.boxes = make([]*component.BoxCollider, len(cs.boxes))
		for i, b := range cs.boxes {
			clone.boxes[i] = b.CopyInto(nil).(*component.BoxCollider)
		}
	}
	return clone
}
