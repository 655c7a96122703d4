package arena

import (
	"math"
	"slices"

	"github.com/nstehr/hive/ai"
	"github.com/nstehr/hive/model"
)

// TraceLine sweeps a point from start to end.
func (a *Arena) TraceLine(start, end model.Vec3, filter ai.TraceFilter) ai.Trace {
	return a.TraceHull(start, end, 0, filter)
}

// TraceHull sweeps a sphere of the given radius from start to end and stops
// at the first wall cell, entity or the floor plane.
func (a *Arena) TraceHull(start, end model.Vec3, radius float64, filter ai.TraceFilter) ai.Trace {
	delta := end.Sub(start)
	best := 1.0
	hit := model.NoEntity

	if f, ok := a.traceFloor(start, end); ok && f < best {
		best, hit = f, model.WorldID
	}
	if f, ok := a.traceWalls(start, delta, radius, filter.Sight); ok && f < best {
		best, hit = f, model.WorldID
	}
	for _, id := range a.IDs() {
		b := a.bodies[id]
		if a.filtered(b, filter) {
			continue
		}
		if f, ok := sweepBody(start, delta, radius, b.Entity); ok && f < best {
			best, hit = f, id
		}
	}

	if hit == model.NoEntity {
		return ai.Trace{Fraction: 1, End: end}
	}
	return ai.Trace{
		Blocked:  true,
		Fraction: best,
		End:      start.Add(delta.Scale(best)),
		Hit:      hit,
	}
}

func (a *Arena) filtered(b *body, filter ai.TraceFilter) bool {
	switch {
	case b.ID == filter.Ignore:
		return true
	case !b.Alive():
		return true
	case filter.IgnoreTeam != "" && b.Team == filter.IgnoreTeam:
		return true
	case light(b, filter):
		return true
	case slices.Contains(filter.Pass, b.ID):
		return true
	}
	return false
}

// light reports whether b is a movable prop the filter lets a mover shove.
func light(b *body, filter ai.TraceFilter) bool {
	return b.Class == model.ClassProp && !b.Static && filter.MinPropMass > 0 && b.Mass < filter.MinPropMass
}

// traceFloor intersects the segment with the z = 0 plane.
func (a *Arena) traceFloor(start, end model.Vec3) (float64, bool) {
	if end.Z >= 0 || start.Z < 0 {
		return 0, false
	}
	return start.Z / (start.Z - end.Z), true
}

// traceWalls marches along the segment in steps no longer than a quarter
// cell and returns the fraction of the last clear sample.
func (a *Arena) traceWalls(start, delta model.Vec3, radius float64, sight bool) (float64, bool) {
	if a.grid == nil || a.grid.CellSize <= 0 {
		return 0, false
	}
	match := model.TerrainType.BlocksMovement
	if sight {
		match = model.TerrainType.BlocksSight
	}
	length := delta.Len2D()
	step := a.grid.CellSize / 4
	if radius > 0 && radius/2 < step {
		step = radius / 2
	}
	if step < 1 {
		step = 1
	}
	n := int(math.Ceil(length / step))
	if n < 1 {
		n = 1
	}
	prev := 0.0
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		p := start.Add(delta.Scale(t))
		if a.grid.Overlaps(p.X, p.Y, radius, match) {
			return prev, true
		}
		prev = t
	}
	return 0, false
}

// sweepBody returns the first fraction at which a sphere moving along delta
// touches e's upright cylinder. Bodies the sweep starts inside of block only
// when the sweep moves toward them.
func sweepBody(start, delta model.Vec3, radius float64, e model.Entity) (float64, bool) {
	reach := radius + e.Radius
	rel := start.Sub(e.Pos).Flat()
	d := delta.Flat()

	c := rel.Dot(rel) - reach*reach
	var t float64
	if c <= 0 {
		if d.Dot(rel) >= 0 {
			return 0, false
		}
		t = 0
	} else {
		aa := d.Dot(d)
		if aa == 0 {
			return 0, false
		}
		bb := 2 * rel.Dot(d)
		disc := bb*bb - 4*aa*c
		if disc < 0 {
			return 0, false
		}
		t = (-bb - math.Sqrt(disc)) / (2 * aa)
		if t < 0 || t > 1 {
			return 0, false
		}
	}
	z := start.Z + delta.Z*t
	if z < e.Pos.Z-radius || z > e.Pos.Z+e.Height+radius {
		return 0, false
	}
	return t, true
}
