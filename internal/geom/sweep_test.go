package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSweep_StartInside(t *testing.T) {
	// Sphere center starts inside the box: overlap regardless of motion.
	assert.True(t, SweepSphereBox(0.5, V(2, 2), V(0, 0), V(10, 10), V(0, 0), V(0, 0)))
	assert.True(t, SweepSphereBox(0, V(2, 2), V(1, -1), V(1, -1), V(0, 0), V(0, 0)))
}

func TestSweep_StaticFaceContact(t *testing.T) {
	// Resting just beside the +x face, no motion.
	assert.True(t, SweepSphereBox(1, V(2, 2), V(2.9, 0), V(2.9, 0), V(0, 0), V(0, 0)))
	// Just out of reach.
	assert.False(t, SweepSphereBox(1, V(2, 2), V(3.1, 0), V(3.1, 0), V(0, 0), V(0, 0)))
}

func TestSweep_MovingAwayFromFace(t *testing.T) {
	// Separated beyond radius and receding: never hits.
	assert.False(t, SweepSphereBox(1, V(2, 2), V(4, 0), V(8, 0), V(0, 0), V(0, 0)))
	// Same start, approaching instead.
	assert.True(t, SweepSphereBox(1, V(2, 2), V(4, 0), V(2.5, 0), V(0, 0), V(0, 0)))
}

func TestSweep_Tunneling(t *testing.T) {
	// Fast sphere crosses the whole box in one tick. Endpoint tests
	// alone would miss this.
	assert.True(t, SweepSphereBox(0.25, V(1, 1), V(-10, 0), V(10, 0), V(0, 0), V(0, 0)))
	// Passing clearly above the box at the same speed.
	assert.False(t, SweepSphereBox(0.25, V(1, 1), V(-10, 5), V(10, 5), V(0, 0), V(0, 0)))
}

func TestSweep_CornerRegion(t *testing.T) {
	// Diagonal start, within radius of the corner.
	assert.True(t, SweepSphereBox(1, V(1, 1), V(1.5, 1.5), V(1.5, 1.5), V(0, 0), V(0, 0)))
	// Diagonal start, beyond radius, moving directly away.
	assert.False(t, SweepSphereBox(0.5, V(1, 1), V(2, 2), V(3, 3), V(0, 0), V(0, 0)))
	// Grazing path past the corner, within radius at closest approach.
	assert.True(t, SweepSphereBox(0.5, V(1, 1), V(-3, 1.3), V(3, 1.3), V(0, 0), V(0, 0)))
	// Same path but radius too small to reach the edge.
	assert.False(t, SweepSphereBox(0.2, V(1, 1), V(-3, 1.3), V(3, 1.3), V(0, 0), V(0, 0)))
}

func TestSweep_BoundaryScenarios(t *testing.T) {
	cases := []struct {
		name           string
		r              float64
		ext            Vec2
		sp, sc, bp, bc Vec2
		want           bool
	}{
		{"approach into overlap", 1, V(2, 2), V(10, 0), V(0, 0), V(0, 0), V(0, 0), true},
		{"approach stops short", 1, V(2, 2), V(10, 0), V(5, 0), V(0, 0), V(0, 0), false},
		{"diagonal through corner region", 0.1, V(1, 1), V(5, 5), V(-5, -5), V(0, 0), V(0, 0), true},
		{"box moves into static sphere", 1, V(1, 1), V(0, 0), V(0, 0), V(10, 0), V(0, 0), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want,
				SweepSphereBox(tc.r, tc.ext, tc.sp, tc.sc, tc.bp, tc.bc))

			// Carrying the same relative displacement on the other body
			// must not change the outcome.
			delta := tc.sc.Sub(tc.sp).Sub(tc.bc.Sub(tc.bp))
			assert.Equal(t, tc.want,
				SweepSphereBox(tc.r, tc.ext, tc.sp, tc.sp, tc.bp, tc.bp.Sub(delta)))
		})
	}
}

func TestSweep_BothBodiesMoving(t *testing.T) {
	// Head-on approach: each covers half the gap.
	assert.True(t, SweepSphereBox(0.5, V(1, 1), V(-5, 0), V(0, 0), V(5, 0), V(0, 0)))
	// Parallel motion keeps the relative position fixed: no contact.
	assert.False(t, SweepSphereBox(0.5, V(1, 1), V(-5, 0), V(5, 0), V(-2, 0), V(8, 0)))
}

func TestSweep_SymmetricInRelativeFrame(t *testing.T) {
	// Moving the sphere right equals moving the box left.
	cases := []struct {
		r              float64
		ext            Vec2
		sp, sc, bp, bc Vec2
	}{
		{0.5, V(1, 1), V(-4, 0.4), V(4, 0.4), V(0, 0), V(0, 0)},
		{1, V(2, 2), V(5, 5), V(5, 5), V(0, 0), V(3, 3)},
		{0.25, V(1, 3), V(-6, -2), V(6, 2), V(0, 0), V(0, 0)},
	}
	for _, tc := range cases {
		direct := SweepSphereBox(tc.r, tc.ext, tc.sp, tc.sc, tc.bp, tc.bc)
		// Shift all motion onto the box; the relative frame is unchanged.
		mirrored := SweepSphereBox(tc.r, tc.ext, tc.sp, tc.sp,
			tc.bp, tc.bc.Add(tc.sp.Sub(tc.sc)))
		assert.Equal(t, direct, mirrored)
	}
}

func TestSweep_ZeroMotionZeroRadius(t *testing.T) {
	// Degenerate point-vs-box, outside and inside.
	assert.False(t, SweepSphereBox(0, V(1, 1), V(2, 0), V(2, 0), V(0, 0), V(0, 0)))
	assert.True(t, SweepSphereBox(0, V(1, 1), V(0.5, 0.5), V(0.5, 0.5), V(0, 0), V(0, 0)))
}
