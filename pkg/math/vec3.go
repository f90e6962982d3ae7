// Package math provides the vector and quaternion value types stored in mesh files.
package math

import "math"

// Vec3 is a 3D vector.
type Vec3 struct {
	X, Y, Z float32
}

// Zero is the zero vector.
var Zero = Vec3{}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Scale returns v * scalar.
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Cross returns the cross product.
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		v.Y*other.Z - v.Z*other.Y,
		v.Z*other.X - v.X*other.Z,
		v.X*other.Y - v.Y*other.X,
	}
}

// normalizeScale is applied before measuring the magnitude so that tiny
// accumulators (faces a fraction of a millimeter across) keep their precision.
const normalizeScale = 1000000

// NormalizeScaled returns a unit vector, or the zero vector if v has no
// length. It works in float64 after scaling the vector up, for accumulated
// quantities such as Newell normals.
func (v Vec3) NormalizeScaled() Vec3 {
	x := float64(v.X) * normalizeScale
	y := float64(v.Y) * normalizeScale
	z := float64(v.Z) * normalizeScale
	l := math.Sqrt(x*x + y*y + z*z)
	if l == 0 || math.IsInf(l, 0) || math.IsNaN(l) {
		return Vec3{}
	}
	return Vec3{float32(x / l), float32(y / l), float32(z / l)}
}

// ApproxEqual reports whether every component of v is within eps of other.
func (v Vec3) ApproxEqual(other Vec3, eps float32) bool {
	return absf(v.X-other.X) <= eps && absf(v.Y-other.Y) <= eps && absf(v.Z-other.Z) <= eps
}

// IsFinite reports whether no component is NaN or infinite.
func (v Vec3) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func isFinite(x float32) bool {
	f := float64(x)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
