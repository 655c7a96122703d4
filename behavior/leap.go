package behavior

import (
	"math"

	"github.com/nstehr/hive/model"
)

// LeapParams shapes the launch parabola.
type LeapParams struct {
	Gravity    float64
	BaseHeight float64
	MaxHeight  float64
	MaxSpeed   float64
}

// Leap is a solved launch.
type Leap struct {
	Velocity model.Vec3
	Height   float64
	Time     float64 // seconds to the apex
}

// SolveLeap returns the launch velocity that carries origin to target over a
// parabola whose apex is Height above the origin. Height starts at the
// target's height delta and is clamped to [BaseHeight, MaxHeight]; the
// result's speed never exceeds MaxSpeed.
func SolveLeap(origin, target model.Vec3, p LeapParams) Leap {
	g := p.Gravity
	if g <= 0 {
		g = 800
	}
	height := target.Z - origin.Z
	if height < p.BaseHeight {
		height = p.BaseHeight
	}
	if p.MaxHeight > 0 && height > p.MaxHeight {
		height = p.MaxHeight
	}
	if height <= 0 {
		height = 1
	}

	vz := math.Sqrt(2 * g * height)
	t := vz / g
	flat := target.Sub(origin).Flat().Scale(1 / t)
	vel := model.Vec3{X: flat.X, Y: flat.Y, Z: vz}

	if p.MaxSpeed > 0 {
		if speed := vel.Len(); speed > p.MaxSpeed {
			vel = vel.Scale(p.MaxSpeed / speed)
		}
	}
	return Leap{Velocity: vel, Height: height, Time: t}
}
