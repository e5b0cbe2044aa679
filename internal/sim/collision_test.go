package sim

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stargo/server/internal/component"
	"github.com/stargo/server/internal/core/ecs"
)

// seedField spawns rows of spheres around a line of boxes so that some
// pairs overlap and most do not. Enough pairs to push the collision
// pass onto the worker pool.
func seedField(t *testing.T, e *Engine, spheres, boxes int) {
	t.Helper()
	require.NoError(t, e.Seed(func(s *Simulation) error {
		for i := 0; i < spheres; i++ {
			if _, err := s.SpawnArchetype("ship", float64(i)*2.5, 0, int32(i+1)); err != nil {
				return err
			}
		}
		for i := 0; i < boxes; i++ {
			if _, err := s.SpawnArchetype("rock", float64(i)*40, 1, 0); err != nil {
				return err
			}
		}
		return nil
	}))
}

func TestCollision_ParallelPathMatchesSequentialSemantics(t *testing.T) {
	// 80 spheres x 2 boxes = 160 pairs, over the fan-out threshold.
	// Two independent engines stepping the same field must agree on
	// every frame hash no matter how the pair tests were scheduled.
	a := newTestEngine(t, 10, LateReject, nil)
	b := newTestEngine(t, 10, LateReject, nil)
	seedField(t, a, 80, 2)
	seedField(t, b, 80, 2)

	for f := 0; f < 5; f++ {
		ra := a.Advance()
		rb := b.Advance()
		require.Equal(t, ra.Hash, rb.Hash, "divergence at frame %d", ra.Frame)
	}
}

func TestCollision_DamageOnlyOverlappingPairs(t *testing.T) {
	e := newTestEngine(t, 10, LateReject, nil)

	var near, far ecs.EntityID
	require.NoError(t, e.Seed(func(s *Simulation) error {
		var err error
		if near, err = s.SpawnArchetype("ship", 1, 1, 1); err != nil {
			return err
		}
		if far, err = s.SpawnArchetype("ship", 500, 500, 2); err != nil {
			return err
		}
		_, err = s.SpawnArchetype("rock", 0, 0, 0)
		return err
	}))

	e.Advance()

	m := e.Leading().World().Manager()
	hNear, ok := ecs.First[*component.Health](m, near)
	require.True(t, ok)
	assert.Equal(t, int32(90), hNear.Current)

	hFar, ok := ecs.First[*component.Health](m, far)
	require.True(t, ok)
	assert.Equal(t, int32(100), hFar.Current)
}

func TestCollision_DisabledColliderSkipped(t *testing.T) {
	e := newTestEngine(t, 10, LateReject, nil)

	var ship ecs.EntityID
	require.NoError(t, e.Seed(func(s *Simulation) error {
		var err error
		if ship, err = s.SpawnArchetype("ship", 1, 1, 1); err != nil {
			return err
		}
		_, err = s.SpawnArchetype("rock", 0, 0, 0)
		return err
	}))

	m := e.Leading().World().Manager()
	sc, ok := ecs.First[*component.SphereCollider](m, ship)
	require.True(t, ok)
	sc.SetEnabled(false)

	e.Advance()

	h, ok := ecs.First[*component.Health](m, ship)
	require.True(t, ok)
	assert.Equal(t, int32(100), h.Current)
}

func TestCollision_SweptHitWhileTunneling(t *testing.T) {
	// A sphere fast enough to jump clear across the box between frames
	// must still take damage from the swept test.
	e := newTestEngine(t, 10, LateReject, nil)

	var ship ecs.EntityID
	require.NoError(t, e.Seed(func(s *Simulation) error {
		var err error
		if ship, err = s.SpawnArchetype("ship", -30, 0, 1); err != nil {
			return err
		}
		m := s.World().Manager()
		v, ok := ecs.First[*component.Velocity](m, ship)
		if !ok {
			return fmt.Errorf("ship has no velocity")
		}
		v.VX = 3600 // 60 units per frame at 60fps
		_, err = s.SpawnArchetype("rock", 0, 0, 0)
		return err
	}))

	e.Advance()

	m := e.Leading().World().Manager()
	tr, ok := ecs.First[*component.Transform](m, ship)
	require.True(t, ok)
	assert.Greater(t, tr.X, 3.0, "ship should have crossed the rock")

	h, ok := ecs.First[*component.Health](m, ship)
	require.True(t, ok)
	assert.Equal(t, int32(90), h.Current)
}
