// Package kinematics holds the geometry primitives shared by the matcher,
// the residual calculator and the resolution propagator.
package kinematics

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Vec3 is a Cartesian three-vector.
type Vec3 [3]float64

func (v Vec3) X() float64 { return v[0] }
func (v Vec3) Y() float64 { return v[1] }
func (v Vec3) Z() float64 { return v[2] }

func (v Vec3) Dot(o Vec3) float64 {
	return floats.Dot(v[:], o[:])
}

func (v Vec3) Mag2() float64 {
	return v.Dot(v)
}

func (v Vec3) Mag() float64 {
	return math.Sqrt(v.Mag2())
}

// Unit returns v scaled to unit length. The zero vector is returned
// unchanged.
func (v Vec3) Unit() Vec3 {
	norm := v.Mag()
	if norm == 0 {
		return v
	}
	for i, value := range v {
		v[i] = value / norm
	}
	return v
}

// Transverse returns the projection of v on the x-y plane.
func (v Vec3) Transverse() Vec3 {
	return Vec3{v[0], v[1], 0}
}

func (v Vec3) Perp() float64 {
	return math.Hypot(v[0], v[1])
}

// Theta is the polar angle in [0, pi].
func (v Vec3) Theta() float64 {
	if v[0] == 0 && v[1] == 0 && v[2] == 0 {
		return 0
	}
	return math.Atan2(v.Perp(), v[2])
}

// Phi is the azimuth in (-pi, pi].
func (v Vec3) Phi() float64 {
	if v[0] == 0 && v[1] == 0 {
		return 0
	}
	return math.Atan2(v[1], v[0])
}

// WithPhi returns v rotated about the z axis so that its azimuth is phi.
// Magnitude and polar angle are preserved.
func (v Vec3) WithPhi(phi float64) Vec3 {
	if phi == v.Phi() {
		return v
	}
	perp := v.Perp()
	return Vec3{perp * math.Cos(phi), perp * math.Sin(phi), v[2]}
}

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v[1]*o[2] - v[2]*o[1],
		v[2]*o[0] - v[0]*o[2],
		v[0]*o[1] - v[1]*o[0],
	}
}

// Angle is the opening angle between u and v in [0, pi]. It equals
// acos(û·v̂) but stays exact for parallel vectors, where the arccosine
// loses half of the available precision.
func Angle(u, v Vec3) float64 {
	return math.Atan2(u.Cross(v).Mag(), u.Dot(v))
}

// CosAngle returns the cosine of the opening angle between u and v,
// clamped to [-1, 1].
func CosAngle(u, v Vec3) float64 {
	return Clamp(u.Unit().Dot(v.Unit()))
}

// Clamp restricts a cosine to [-1, 1] so that rounding never produces a
// NaN from math.Acos.
func Clamp(cos float64) float64 {
	switch {
	case cos > 1:
		return 1
	case cos < -1:
		return -1
	}
	return cos
}
