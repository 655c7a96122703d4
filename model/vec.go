package model

import "math"

// Vec3 is a world-space vector. Z is up.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}
func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) Len() float64       { return math.Sqrt(v.Dot(v)) }
func (v Vec3) Len2D() float64     { return math.Hypot(v.X, v.Y) }
func (v Vec3) Flat() Vec3         { return Vec3{v.X, v.Y, 0} }

// Normalize returns the unit vector, or the zero vector when v has no length.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// DistTo returns the 3D distance between two points.
func (v Vec3) DistTo(o Vec3) float64 { return o.Sub(v).Len() }

// YawVector returns the unit forward vector on the ground plane for a yaw in
// degrees (0 = +X, 90 = +Y).
func YawVector(yaw float64) Vec3 {
	r := yaw * math.Pi / 180
	return Vec3{math.Cos(r), math.Sin(r), 0}
}

// RightVector is the ground-plane vector 90 degrees clockwise of forward.
func RightVector(yaw float64) Vec3 {
	return YawVector(yaw - 90)
}

// VecToYaw converts a direction into a yaw in degrees in (-180, 180].
func VecToYaw(v Vec3) float64 {
	if v.X == 0 && v.Y == 0 {
		return 0
	}
	return math.Atan2(v.Y, v.X) * 180 / math.Pi
}

// AngleDiff returns the signed shortest rotation from b to a in degrees.
func AngleDiff(a, b float64) float64 {
	d := math.Mod(a-b, 360)
	if d > 180 {
		d -= 360
	} else if d < -180 {
		d += 360
	}
	return d
}

// ApproachAngle turns current toward target by at most speed degrees.
func ApproachAngle(target, current, speed float64) float64 {
	delta := AngleDiff(target, current)
	if speed < 0 {
		speed = -speed
	}
	if delta > speed {
		delta = speed
	} else if delta < -speed {
		delta = -speed
	}
	return NormalizeAngle(current + delta)
}

// NormalizeAngle maps an angle into (-180, 180].
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 360)
	if a > 180 {
		a -= 360
	} else if a <= -180 {
		a += 360
	}
	return a
}
