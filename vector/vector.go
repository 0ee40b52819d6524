package vector

import (
	"math"
)

type Vector3 struct {
	X, Y, Z float64
}

func Dot(a, b Vector3) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

func Cross(a, b Vector3) Vector3 {
	return Vector3{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
	}
}

func Add(a, b Vector3) Vector3 {
	return Vector3{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

func Substract(a, b Vector3) Vector3 {
	return Vector3{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

// Min and Max are component-wise.
func Min(a, b Vector3) Vector3 {
	return Vector3{math.Min(a.X, b.X), math.Min(a.Y, b.Y), math.Min(a.Z, b.Z)}
}

func Max(a, b Vector3) Vector3 {
	return Vector3{math.Max(a.X, b.X), math.Max(a.Y, b.Y), math.Max(a.Z, b.Z)}
}

func (v *Vector3) MultiplyByScalar(s float64) {
	*v = Vector3{v.X * s, v.Y * s, v.Z * s}
}

func (v Vector3) Scaled(s float64) Vector3 {
	return Vector3{v.X * s, v.Y * s, v.Z * s}
}

func (v Vector3) Magnitude() float64 {
	return math.Sqrt(Dot(v, v))
}

// Normalized returns v scaled to unit length. The zero vector is returned
// unchanged.
func (v Vector3) Normalized() Vector3 {
	l := v.Magnitude()
	if l == 0 {
		return v
	}
	return Vector3{v.X / l, v.Y / l, v.Z / l}
}

func (v *Vector3) Normalize() {
	*v = v.Normalized()
}

// FromFloat32 widens a packed float3.
func FromFloat32(p []float32) Vector3 {
	return Vector3{float64(p[0]), float64(p[1]), float64(p[2])}
}

// Float32 narrows v for vertex encoding.
func (v Vector3) Float32() [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}
