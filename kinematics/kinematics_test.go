package kinematics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec3Angles(t *testing.T) {
	tests := []struct {
		name  string
		v     Vec3
		theta float64
		phi   float64
	}{
		{"x axis", Vec3{1, 0, 0}, math.Pi / 2, 0},
		{"y axis", Vec3{0, 2, 0}, math.Pi / 2, math.Pi / 2},
		{"z axis", Vec3{0, 0, 3}, 0, 0},
		{"minus z", Vec3{0, 0, -1}, math.Pi, 0},
		{"minus x", Vec3{-1, 0, 0}, math.Pi / 2, math.Pi},
		{"diagonal", Vec3{1, 1, math.Sqrt2}, math.Pi / 4, math.Pi / 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.theta, tt.v.Theta(), 1e-12)
			assert.InDelta(t, tt.phi, tt.v.Phi(), 1e-12)
		})
	}
}

func TestVec3Unit(t *testing.T) {
	u := Vec3{3, 4, 0}.Unit()
	assert.InDelta(t, 0.6, u.X(), 1e-12)
	assert.InDelta(t, 0.8, u.Y(), 1e-12)
	assert.InDelta(t, 1, u.Mag(), 1e-12)

	assert.Equal(t, Vec3{}, Vec3{}.Unit())
}

func TestWithPhiKeepsThetaAndMagnitude(t *testing.T) {
	v := Vec3{1, 2, 3}
	r := v.WithPhi(-2.5)
	assert.InDelta(t, v.Mag(), r.Mag(), 1e-12)
	assert.InDelta(t, v.Theta(), r.Theta(), 1e-12)
	assert.InDelta(t, -2.5, r.Phi(), 1e-12)
}

func TestCosAngleIsClamped(t *testing.T) {
	v := Vec3{0.1, 0.7, 0.3}
	c := CosAngle(v, v)
	assert.LessOrEqual(t, c, 1.0)
	assert.False(t, math.IsNaN(math.Acos(c)))
}

func TestFourMomentum(t *testing.T) {
	p := NewFourMomentum(3, 4, 0, 5)
	assert.Equal(t, 3.0, p.Px())
	assert.Equal(t, 4.0, p.Py())
	assert.Equal(t, 0.0, p.Pz())
	assert.Equal(t, 5.0, p.E())
	assert.InDelta(t, 5, p.Pt(), 1e-12)
	assert.InDelta(t, 25, p.Pt2(), 1e-12)
	assert.InDelta(t, 25, p.P2(), 1e-12)
	assert.InDelta(t, math.Pi/2, p.Theta(), 1e-12)
	assert.InDelta(t, math.Atan2(4, 3), p.Phi(), 1e-12)

	q := NewFourMomentum(1, 1, 1, 2)
	sum := p.Add(q)
	assert.Equal(t, NewFourMomentum(4, 5, 1, 7), sum)
	assert.Equal(t, NewFourMomentum(3, 4, 0, 5), p, "Add must not modify its receiver")
	assert.Equal(t, sum, Sum(p, q))
	assert.True(t, Sum().IsZero())
}

func TestFromMass(t *testing.T) {
	p := FromMass(Vec3{0, 0, 4}, 3)
	assert.InDelta(t, 5, p.E(), 1e-12)
}

func TestCovariance(t *testing.T) {
	c := DiagonalCovariance(0.25, 0.5, 1, 4)
	assert.Equal(t, 0.25, c.Px2())
	assert.Equal(t, 0.5, c.Py2())
	assert.Equal(t, 1.0, c.Pz2())
	assert.Equal(t, 4.0, c.E2())
	assert.Zero(t, c.PxPy())

	s := c.Scale(4)
	assert.Equal(t, 1.0, s.Px2())
	assert.Equal(t, 16.0, s.E2())
	assert.Equal(t, 0.25, c.Px2(), "Scale must return a copy")

	f := CovarianceFrom32([10]float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	assert.Equal(t, 2.0, f.PxPy())
	assert.Equal(t, 9.0, f.PzE())
}
