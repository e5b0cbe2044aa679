package sim

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/stargo/server/internal/command"
	"github.com/stargo/server/internal/component"
	"github.com/stargo/server/internal/core/ecs"
	"github.com/stargo/server/internal/core/event"
	"github.com/stargo/server/internal/data"
	"github.com/stargo/server/internal/net/packet"
)

// ScriptRunner executes console source against a world. Implemented by
// the scripting engine; kept as an interface here so the simulation
// core stays free of the Lua dependency.
type ScriptRunner interface {
	Run(source string, w *ecs.World) error
}

// Params are the tunables a simulation is built with. Every participant
// must use identical values or states diverge.
type Params struct {
	CollisionDamage int32
}

// Simulation is one complete, self-contained world advanced in fixed
// frames. All mutation happens on the game-loop goroutine; a second
// instance (prediction, trailing state) is an independent deep copy.
type Simulation struct {
	world     *ecs.World
	composite *ecs.CompositeSystem
	frame     int64
	params    Params

	reg  *packet.TypeRegistry
	arch *data.ArchetypeTable

	bus     *event.Bus // nil on silent copies (trailing state)
	scripts ScriptRunner
}

// NewSimulation builds a world with the standard composite order:
// latch previous positions, fold player input, integrate movement,
// swept collision, health. The order is load-bearing — collision reads
// the positions movement wrote this same tick.
func NewSimulation(reg *packet.TypeRegistry, arch *data.ArchetypeTable, bus *event.Bus, params Params) *Simulation {
	s := &Simulation{
		world:  ecs.NewWorld(),
		frame:  0,
		params: params,
		reg:    reg,
		arch:   arch,
		bus:    bus,
	}

	ctx := &ecs.UpdateContext{World: s.world}
	s.composite = ecs.NewCompositeSystem(
		ecs.NewKindSystem("transform-latch", ecs.Accept[*component.Transform](), ctx.Clone()),
		ecs.NewKindSystem("avatar-control", ecs.Accept[*component.Avatar](), ctx.Clone()),
		ecs.NewKindSystem("movement", ecs.Accept[*component.Velocity](), ctx.Clone()),
		NewCollisionSystem(ctx.Clone(), bus, params.CollisionDamage),
		ecs.NewKindSystem("health", ecs.Accept[*component.Health](), ctx.Clone()),
	)
	s.world.Manager().SetHooks(s.composite.ComponentAdded, s.composite.ComponentRemoved)
	return s
}

// SetScripts installs the console runner (nil disables Script commands).
func (s *Simulation) SetScripts(r ScriptRunner) {
	s.scripts = r
}

func (s *Simulation) Frame() int64      { return s.frame }
func (s *Simulation) World() *ecs.World { return s.world }
func (s *Simulation) Params() Params    { return s.params }

// paramHolder lets the simulation rebind per-copy context on any member
// system that exposes its parameterization.
type paramHolder interface {
	Parameterization() ecs.Parameterization
}

func (s *Simulation) bindContexts(dt float64) {
	s.composite.Each(func(sys ecs.ComponentSystem) {
		if h, ok := sys.(paramHolder); ok {
			if ctx, ok := h.Parameterization().(*ecs.UpdateContext); ok {
				ctx.World = s.world
				ctx.Frame = s.frame
				ctx.DT = dt
			}
		}
	})
}

// Step advances the simulation one frame: fold the frame's commands in
// the order the queue delivered them, run the composite, flush
// destructions. Synchronous and run-to-completion; dt is the fixed
// frame duration in seconds.
func (s *Simulation) Step(cmds []command.FrameCommand, dt float64) {
	s.frame++
	for _, c := range cmds {
		if err := s.apply(c); err != nil && s.bus != nil {
			event.Emit(s.bus, event.CommandRejected{
				Player: c.Player(),
				Frame:  c.Frame(),
				Reason: err.Error(),
			})
		}
	}
	s.bindContexts(dt)
	s.composite.Update()
	s.world.FlushDestroyQueue()
}

// apply folds one command into world state. Application only stages
// effects (pending input, spawn, destruction mark); the composite pass
// does the actual work, so command order within a frame cannot leak
// into float evaluation order.
func (s *Simulation) apply(c command.FrameCommand) error {
	switch cmd := c.(type) {
	case *command.Input:
		a := s.avatarOf(cmd.Player())
		if a == nil {
			return fmt.Errorf("no avatar for player %d", cmd.Player())
		}
		a.Push(component.Control{
			ThrustX: cmd.ThrustX,
			ThrustY: cmd.ThrustY,
			Turn:    cmd.Turn,
			Fire:    cmd.Fire,
		})
		return nil

	case *command.Spawn:
		if !cmd.Authoritative() {
			return command.ErrUnauthorized
		}
		_, err := s.SpawnArchetype(cmd.Archetype, cmd.X, cmd.Y, cmd.Player())
		return err

	case *command.Despawn:
		if !cmd.Authoritative() {
			return command.ErrUnauthorized
		}
		if s.world.Alive(cmd.Target) {
			s.world.MarkForDestruction(cmd.Target)
			if s.bus != nil {
				event.Emit(s.bus, event.EntityDestroyed{Frame: s.frame, Entity: cmd.Target})
			}
		}
		return nil

	case *command.Script:
		if !cmd.Authoritative() {
			return command.ErrUnauthorized
		}
		if s.scripts == nil {
			return fmt.Errorf("script console disabled")
		}
		return s.scripts.Run(cmd.Source, s.world)

	default:
		return fmt.Errorf("unhandled command kind %T", c)
	}
}

// avatarOf returns the avatar component controlled by the player, or nil.
func (s *Simulation) avatarOf(player int32) *component.Avatar {
	var found *component.Avatar
	s.world.Manager().EachEntity(func(id ecs.EntityID) {
		if found != nil {
			return
		}
		if a, ok := ecs.First[*component.Avatar](s.world.Manager(), id); ok && a.Player == player {
			found = a
		}
	})
	return found
}

// AvatarEntity returns the entity carrying the player's avatar
// component, or false when the player controls nothing.
func (s *Simulation) AvatarEntity(player int32) (ecs.EntityID, bool) {
	if a := s.avatarOf(player); a != nil {
		return a.Entity(), true
	}
	return 0, false
}

// SpawnArchetype instantiates a data-defined archetype at a position.
// If the archetype carries an avatar, it is bound to owner.
func (s *Simulation) SpawnArchetype(name string, x, y float64, owner int32) (ecs.EntityID, error) {
	components, err := s.arch.Instantiate(name)
	if err != nil {
		return 0, err
	}
	id := s.world.CreateEntity()
	for _, c := range components {
		switch cc := c.(type) {
		case *component.Transform:
			cc.X, cc.Y = x, y
			cc.PrevX, cc.PrevY = x, y
		case *component.Avatar:
			cc.Player = owner
		}
		if err := s.world.Manager().Add(id, c); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// Hash is the structural fingerprint of the full simulation state.
// Participants compare it per frame to detect divergence.
func (s *Simulation) Hash() uint64 {
	w := packet.NewWriter()
	w.WriteInt64(s.frame)
	s.world.Pool().Packetize(w)
	s.world.Manager().Packetize(w, s.reg)
	return xxhash.Sum64(w.Bytes())
}

// Packetize writes a full snapshot: frame, allocator, component state.
func (s *Simulation) Packetize(w *packet.Writer) {
	w.WriteInt64(s.frame)
	s.world.Pool().Packetize(w)
	s.world.Manager().Packetize(w, s.reg)
}

// Depacketize restores a snapshot, replacing all current state.
func (s *Simulation) Depacketize(r *packet.Reader) error {
	frame, err := r.ReadInt64()
	if err != nil {
		return err
	}
	if err := s.world.Pool().Depacketize(r); err != nil {
		return err
	}
	if err := s.world.Manager().Depacketize(r, s.reg); err != nil {
		return err
	}
	s.frame = frame
	return nil
}

// CopyInto makes dst a value-complete copy of s. dst must have been
// built by NewSimulation with the same registry and archetypes; its
// component instances are reused in place where possible, so the
// steady-state rollback path allocates nothing.
func (s *Simulation) CopyInto(dst *Simulation) {
	dst.frame = s.frame
	dst.params = s.params
	s.world.CopyInto(dst.world)
}
