package geom

// Continuous collision test between a moving sphere and a moving
// axis-aligned box. Both bodies interpolate linearly from their
// previous to their current position over one tick; testing the swept
// motion instead of the endpoints avoids tunneling when either body
// moves farther than its own size in a single tick.
//
// Everything below is pure float math on stack values: no allocation,
// no shared state, safe to call from parallel broad-phase workers.

// regionOf classifies a coordinate against a half-extent: -1 below,
// 0 within, +1 above. The two axes together split the plane into the
// nine planar regions around the box.
func regionOf(p, ext float64) int {
	if p < -ext {
		return -1
	}
	if p > ext {
		return 1
	}
	return 0
}

// SweepSphereBox reports whether the sphere (radius r, center moving
// spherePrev→sphereCurr) and the box (half extents ext, center moving
// boxPrev→boxCurr) overlap at any point during the tick. All positions
// are in the same space. Degenerate inputs (zero motion, zero radius)
// return a definite boolean.
func SweepSphereBox(r float64, ext, spherePrev, sphereCurr, boxPrev, boxCurr Vec2) bool {
	// Work in the box's frame: only the relative motion matters, which
	// also makes the test symmetric in which body is considered moving.
	p0 := spherePrev.Sub(boxPrev)
	p1 := sphereCurr.Sub(boxCurr)
	v := p1.Sub(p0)

	rx := regionOf(p0.X, ext.X)
	ry := regionOf(p0.Y, ext.Y)

	switch {
	case rx == 0 && ry == 0:
		// Inside region: already overlapping.
		return true

	case ry == 0:
		// Edge region beside an x face. The perpendicular distance to
		// the face is the true distance to the box here.
		dist := p0.X*float64(rx) - ext.X
		if dist <= r {
			return true
		}
		// Moving away from (or parallel to) the face: the separation
		// along this axis never shrinks.
		if v.X*float64(rx) >= 0 {
			return false
		}

	case rx == 0:
		// Edge region beside a y face.
		dist := p0.Y*float64(ry) - ext.Y
		if dist <= r {
			return true
		}
		if v.Y*float64(ry) >= 0 {
			return false
		}

	default:
		// Vertex region: the nearest box point is a corner.
		corner := Vec2{ext.X * float64(rx), ext.Y * float64(ry)}
		toCorner := corner.Sub(p0)
		if toCorner.LenSq() <= r*r {
			return true
		}
		// Not approaching the box at all: the corner distance is
		// non-decreasing, and any face the path could reach later
		// stays at least as far away as the corner is now.
		if v.Dot(toCorner) <= 0 {
			return false
		}
	}

	// Swept phase: the start is beyond radius and the motion approaches
	// the box. The closest approach lies either inside the box proper
	// or on one of its edges.
	if distToBoxSq(p1, ext) <= r*r {
		return true
	}
	if segmentOverlapsBox(p0, v, ext) {
		return true
	}

	c0 := Vec2{-ext.X, -ext.Y}
	c1 := Vec2{ext.X, -ext.Y}
	c2 := Vec2{ext.X, ext.Y}
	c3 := Vec2{-ext.X, ext.Y}
	rr := r * r
	return segSegDistSq(p0, p1, c0, c1) <= rr ||
		segSegDistSq(p0, p1, c1, c2) <= rr ||
		segSegDistSq(p0, p1, c2, c3) <= rr ||
		segSegDistSq(p0, p1, c3, c0) <= rr
}

// distToBoxSq is the squared distance from p to the box at the origin.
func distToBoxSq(p, ext Vec2) float64 {
	dx := clampAbs(p.X, ext.X) - p.X
	dy := clampAbs(p.Y, ext.Y) - p.Y
	return dx*dx + dy*dy
}

func clampAbs(v, limit float64) float64 {
	if v < -limit {
		return -limit
	}
	if v > limit {
		return limit
	}
	return v
}

// segmentOverlapsBox is a slab test of the segment p0 + t*v, t in [0,1],
// against the box at the origin.
func segmentOverlapsBox(p0, v Vec2, ext Vec2) bool {
	tmin, tmax := 0.0, 1.0

	for axis := 0; axis < 2; axis++ {
		var p, d, e float64
		if axis == 0 {
			p, d, e = p0.X, v.X, ext.X
		} else {
			p, d, e = p0.Y, v.Y, ext.Y
		}
		if d == 0 {
			if p < -e || p > e {
				return false
			}
			continue
		}
		t1 := (-e - p) / d
		t2 := (e - p) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return false
		}
	}
	return true
}

// segSegDistSq returns the squared distance between segments p1q1 and
// p2q2 (Ericson, Real-Time Collision Detection §5.1.9).
func segSegDistSq(p1, q1, p2, q2 Vec2) float64 {
	d1 := q1.Sub(p1)
	d2 := q2.Sub(p2)
	rv := p1.Sub(p2)
	a := d1.LenSq()
	e := d2.LenSq()
	f := d2.Dot(rv)

	var s, t float64
	switch {
	case a == 0 && e == 0:
		return rv.LenSq()
	case a == 0:
		t = clamp01(f / e)
	case e == 0:
		s = clamp01(-d1.Dot(rv) / a)
	default:
		c := d1.Dot(rv)
		b := d1.Dot(d2)
		denom := a*e - b*b
		if denom != 0 {
			s = clamp01((b*f - c*e) / denom)
		}
		t = (b*s + f) / e
		if t < 0 {
			t = 0
			s = clamp01(-c / a)
		} else if t > 1 {
			t = 1
			s = clamp01((b - c) / a)
		}
	}
	c1 := p1.Add(d1.Scale(s))
	c2 := p2.Add(d2.Scale(t))
	return c1.Sub(c2).LenSq()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
