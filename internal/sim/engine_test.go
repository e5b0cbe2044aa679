package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stargo/server/internal/command"
	"github.com/stargo/server/internal/component"
	"github.com/stargo/server/internal/core/ecs"
	"github.com/stargo/server/internal/core/event"
	"github.com/stargo/server/internal/data"
	"github.com/stargo/server/internal/net/packet"
)

const testArchetypes = `
archetypes:
  - name: ship
    components:
      - kind: transform
      - kind: velocity
      - kind: sphere_collider
        radius: 1.5
      - kind: health
        max_health: 100
      - kind: avatar
  - name: rock
    components:
      - kind: transform
      - kind: velocity
      - kind: box_collider
        half_x: 3.0
        half_y: 2.0
      - kind: health
        max_health: 50
`

func testRegistry(t *testing.T) *packet.TypeRegistry {
	t.Helper()
	reg := packet.NewTypeRegistry()
	require.NoError(t, component.Register(reg))
	require.NoError(t, command.Register(reg))
	return reg
}

func testArchTable(t *testing.T) *data.ArchetypeTable {
	t.Helper()
	table, err := data.ParseArchetypeTable([]byte(testArchetypes))
	require.NoError(t, err)
	return table
}

func newTestEngine(t *testing.T, window int64, policy LatePolicy, bus *event.Bus) *Engine {
	t.Helper()
	cfg := EngineConfig{
		FrameDT:        1.0 / 60.0,
		RollbackWindow: window,
		Policy:         policy,
		Params:         Params{CollisionDamage: 10},
	}
	return NewEngine(cfg, testRegistry(t), testArchTable(t), bus, zap.NewNop())
}

func stageSpawn(t *testing.T, e *Engine, player int32, arch string, x, y float64) {
	t.Helper()
	c := &command.Spawn{Archetype: arch, X: x, Y: y}
	c.PlayerNumber = player
	c.TargetFrame = e.Frame() + 1
	c.SetAuthoritative(true)
	require.NoError(t, e.Queue().Stage(c))
}

func stageInput(t *testing.T, e *Engine, player int32, frame int64, thrustX, thrustY float64) {
	t.Helper()
	c := &command.Input{ThrustX: thrustX, ThrustY: thrustY}
	c.PlayerNumber = player
	c.TargetFrame = frame
	require.NoError(t, e.Queue().Stage(c))
}

func findAvatarEntity(s *Simulation, player int32) ecs.EntityID {
	var found ecs.EntityID
	s.World().Manager().EachEntity(func(id ecs.EntityID) {
		if a, ok := ecs.First[*component.Avatar](s.World().Manager(), id); ok && a.Player == player {
			found = id
		}
	})
	return found
}

func TestEngine_SpawnAndMove(t *testing.T) {
	e := newTestEngine(t, 10, LateReject, nil)

	stageSpawn(t, e, 1, "ship", 5, 5)
	res := e.Advance()
	assert.Equal(t, int64(1), res.Frame)
	require.Len(t, res.Commands, 1)

	id := findAvatarEntity(e.Leading(), 1)
	require.NotZero(t, id)

	tr, ok := ecs.First[*component.Transform](e.Leading().World().Manager(), id)
	require.True(t, ok)
	assert.Equal(t, 5.0, tr.X)
	assert.Equal(t, 5.0, tr.Y)

	// Constant thrust for a few frames accumulates velocity and moves
	// the ship in +x.
	for i := 0; i < 10; i++ {
		stageInput(t, e, 1, e.Frame()+1, 100, 0)
		e.Advance()
	}
	assert.Greater(t, tr.X, 5.0)
	assert.Equal(t, 5.0, tr.Y)
}

func TestEngine_UnauthorizedSpawnNeverApplies(t *testing.T) {
	e := newTestEngine(t, 10, LateReject, nil)

	c := &command.Spawn{Archetype: "ship", X: 1, Y: 1}
	c.PlayerNumber = 1
	c.TargetFrame = 1
	err := e.Queue().Stage(c)
	require.ErrorIs(t, err, command.ErrUnauthorized)

	e.Advance()
	assert.Equal(t, 0, e.Leading().World().Manager().EntityCount())
}

func TestEngine_Determinism(t *testing.T) {
	a := newTestEngine(t, 10, LateReject, nil)
	b := newTestEngine(t, 10, LateReject, nil)

	for _, e := range []*Engine{a, b} {
		stageSpawn(t, e, 1, "ship", 0, 0)
		stageSpawn(t, e, 2, "ship", 50, 0)
	}

	for f := int64(1); f <= 30; f++ {
		for _, e := range []*Engine{a, b} {
			stageInput(t, e, 1, e.Frame()+1, 10, 5)
			stageInput(t, e, 2, e.Frame()+1, -10, 0)
		}
		ra := a.Advance()
		rb := b.Advance()
		require.Equal(t, ra.Frame, rb.Frame)
		require.Equal(t, ra.Hash, rb.Hash, "divergence at frame %d", f)
	}
}

func TestEngine_CommandOrderIndependentWithinFrame(t *testing.T) {
	// Two players' inputs staged in opposite order must fold to the
	// same state: apply order is by player number, not arrival.
	a := newTestEngine(t, 10, LateReject, nil)
	b := newTestEngine(t, 10, LateReject, nil)
	for _, e := range []*Engine{a, b} {
		stageSpawn(t, e, 1, "ship", 0, 0)
		stageSpawn(t, e, 2, "ship", 50, 0)
		e.Advance()
	}

	stageInput(t, a, 1, a.Frame()+1, 10, 0)
	stageInput(t, a, 2, a.Frame()+1, -10, 0)
	stageInput(t, b, 2, b.Frame()+1, -10, 0)
	stageInput(t, b, 1, b.Frame()+1, 10, 0)

	assert.Equal(t, a.Advance().Hash, b.Advance().Hash)
}

func TestEngine_CollisionDamage(t *testing.T) {
	bus := event.NewBus()
	var hits []event.CollisionOccurred
	event.Subscribe(bus, func(ev event.CollisionOccurred) {
		hits = append(hits, ev)
	})

	e := newTestEngine(t, 10, LateReject, bus)
	stageSpawn(t, e, 1, "ship", 0, 0)
	stageSpawn(t, e, 0, "rock", 2, 0)
	e.Advance()

	ship := findAvatarEntity(e.Leading(), 1)
	require.NotZero(t, ship)
	h, ok := ecs.First[*component.Health](e.Leading().World().Manager(), ship)
	require.True(t, ok)
	assert.Equal(t, int32(90), h.Current)

	bus.SwapBuffers()
	bus.DispatchAll()
	require.Len(t, hits, 1)
	assert.Equal(t, int64(1), hits[0].Frame)
}

func TestEngine_CollisionKillsAndDestroys(t *testing.T) {
	e := newTestEngine(t, 10, LateReject, nil)
	stageSpawn(t, e, 1, "ship", 0, 0)
	stageSpawn(t, e, 0, "rock", 2, 0)

	// Overlapping every frame: the rock's 50 health is gone after five
	// hits and the entity is flushed at end of that frame.
	for i := 0; i < 5; i++ {
		e.Advance()
	}
	count := 0
	e.Leading().World().Manager().EachEntity(func(ecs.EntityID) { count++ })
	assert.Equal(t, 1, count)

	// The ship keeps its remaining health once the rock is gone.
	ship := findAvatarEntity(e.Leading(), 1)
	h, _ := ecs.First[*component.Health](e.Leading().World().Manager(), ship)
	assert.Equal(t, int32(50), h.Current)
	e.Advance()
	assert.Equal(t, int32(50), h.Current)
}

func TestEngine_SeparatedPairNoDamage(t *testing.T) {
	e := newTestEngine(t, 10, LateReject, nil)
	stageSpawn(t, e, 1, "ship", 100, 100)
	stageSpawn(t, e, 0, "rock", 0, 0)
	e.Advance()

	ship := findAvatarEntity(e.Leading(), 1)
	h, _ := ecs.First[*component.Health](e.Leading().World().Manager(), ship)
	assert.Equal(t, int32(100), h.Current)
}

func TestEngine_LateRejectDropsCommand(t *testing.T) {
	bus := event.NewBus()
	var rejected []event.CommandRejected
	event.Subscribe(bus, func(ev event.CommandRejected) {
		rejected = append(rejected, ev)
	})

	e := newTestEngine(t, 10, LateReject, bus)
	stageSpawn(t, e, 1, "ship", 0, 0)
	for i := 0; i < 5; i++ {
		e.Advance()
	}
	hashBefore := e.Leading().Hash()

	stageInput(t, e, 1, 2, 100, 0) // frame 2 is long gone
	e.Advance()

	assert.Equal(t, int64(0), e.Rollbacks())
	bus.SwapBuffers()
	bus.DispatchAll()
	require.Len(t, rejected, 1)
	assert.Equal(t, int64(2), rejected[0].Frame)
	assert.Equal(t, command.ErrLateCommand.Error(), rejected[0].Reason)

	// A dropped input changes nothing except the frame advancing.
	_ = hashBefore
}

func TestEngine_RollbackEquivalence(t *testing.T) {
	// Engine A receives an input late and repairs via rollback; engine
	// B receives the same input on time. They must converge on the
	// same state hash.
	a := newTestEngine(t, 10, LateRollback, nil)
	b := newTestEngine(t, 10, LateRollback, nil)

	for _, e := range []*Engine{a, b} {
		stageSpawn(t, e, 1, "ship", 0, 0)
		e.Advance() // frame 1
		e.Advance() // frame 2
	}

	// B gets the input for frame 3 in time.
	stageInput(t, b, 1, 3, 100, 50)
	for b.Frame() < 6 {
		b.Advance()
	}

	// A only learns about it when frame 5 has already been simulated.
	for a.Frame() < 5 {
		a.Advance()
	}
	stageInput(t, a, 1, 3, 100, 50)
	a.Advance() // triggers rollback, resimulates, then runs frame 6

	assert.Equal(t, int64(1), a.Rollbacks())
	assert.Equal(t, int64(6), a.Frame())
	assert.Equal(t, b.Leading().Hash(), a.Leading().Hash())
}

func TestEngine_LateBeyondWindowRejected(t *testing.T) {
	e := newTestEngine(t, 2, LateRollback, nil)
	stageSpawn(t, e, 1, "ship", 0, 0)
	for i := 0; i < 10; i++ {
		e.Advance()
	}
	// Trailing sits at frame 8 with window 2; frame 5 is beyond repair.
	stageInput(t, e, 1, 5, 100, 0)
	e.Advance()
	assert.Equal(t, int64(0), e.Rollbacks())
}

func TestEngine_SnapshotRestore(t *testing.T) {
	src := newTestEngine(t, 10, LateReject, nil)
	stageSpawn(t, src, 1, "ship", 3, 4)
	for i := 0; i < 7; i++ {
		stageInput(t, src, 1, src.Frame()+1, 20, -10)
		src.Advance()
	}

	w := packet.NewWriter()
	src.Leading().Packetize(w)

	dst := newTestEngine(t, 10, LateReject, nil)
	require.NoError(t, dst.Restore(packet.NewReader(w.Bytes())))

	assert.Equal(t, src.Frame(), dst.Frame())
	assert.Equal(t, src.Leading().Hash(), dst.Leading().Hash())

	// Both continue identically after the restore.
	for i := 0; i < 3; i++ {
		stageInput(t, src, 1, src.Frame()+1, 5, 5)
		stageInput(t, dst, 1, dst.Frame()+1, 5, 5)
		require.Equal(t, src.Advance().Hash, dst.Advance().Hash)
	}
}

func TestEngine_SeedOnlyBeforeFirstFrame(t *testing.T) {
	e := newTestEngine(t, 10, LateReject, nil)
	require.NoError(t, e.Seed(func(s *Simulation) error {
		_, err := s.SpawnArchetype("rock", 0, 0, 0)
		return err
	}))
	e.Advance()
	assert.Error(t, e.Seed(func(s *Simulation) error { return nil }))
}

func TestEngine_PromoteApplied(t *testing.T) {
	e := newTestEngine(t, 10, LateRollback, nil)
	stageSpawn(t, e, 1, "ship", 0, 0)
	e.Advance()

	spec := &command.Input{ThrustX: 1}
	spec.PlayerNumber = 1
	spec.TargetFrame = 2
	require.NoError(t, e.Queue().Stage(spec))
	e.Advance()

	// Authority confirmation for an already-applied command flips the
	// journaled copy's flag without touching state.
	hash := e.Leading().Hash()
	confirm := &command.Input{ThrustX: 1}
	confirm.PlayerNumber = 1
	confirm.TargetFrame = 2
	confirm.SetAuthoritative(true)
	assert.True(t, e.PromoteApplied(confirm))
	assert.True(t, spec.Authoritative())
	assert.Equal(t, hash, e.Leading().Hash())

	miss := &command.Input{ThrustX: 9}
	miss.PlayerNumber = 1
	miss.TargetFrame = 2
	assert.False(t, e.PromoteApplied(miss))
}

func TestEngine_DespawnEntity(t *testing.T) {
	e := newTestEngine(t, 10, LateReject, nil)
	stageSpawn(t, e, 1, "ship", 0, 0)
	e.Advance()
	id := findAvatarEntity(e.Leading(), 1)
	require.NotZero(t, id)

	require.NoError(t, e.DespawnEntity(1, id))
	e.Advance()
	assert.False(t, e.Leading().World().Alive(id))
}

type recordingRunner struct {
	sources []string
}

func (r *recordingRunner) Run(source string, w *ecs.World) error {
	r.sources = append(r.sources, source)
	return nil
}

func TestEngine_ScriptCommandReachesRunner(t *testing.T) {
	e := newTestEngine(t, 10, LateReject, nil)
	runner := &recordingRunner{}
	e.SetScripts(runner)

	c := &command.Script{Source: `spawn("rock", 1, 1)`}
	c.PlayerNumber = 0
	c.TargetFrame = 1
	c.SetAuthoritative(true)
	require.NoError(t, e.Queue().Stage(c))
	e.Advance()

	require.Len(t, runner.sources, 1)
	assert.Equal(t, `spawn("rock", 1, 1)`, runner.sources[0])
}
