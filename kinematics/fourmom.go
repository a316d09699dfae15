package kinematics

import (
	"fmt"
	"math"

	"go-hep.org/x/hep/fmom"
)

// FourMomentum is an immutable (px, py, pz, E) value.
type FourMomentum struct {
	p4 fmom.PxPyPzE
}

func NewFourMomentum(px, py, pz, e float64) FourMomentum {
	return FourMomentum{p4: fmom.NewPxPyPzE(px, py, pz, e)}
}

// FromVect builds a four-momentum from a three-momentum and an energy.
func FromVect(p Vec3, e float64) FourMomentum {
	return NewFourMomentum(p[0], p[1], p[2], e)
}

// FromMass builds an on-shell four-momentum for a particle of the given mass.
func FromMass(p Vec3, mass float64) FourMomentum {
	return FromVect(p, math.Sqrt(p.Mag2()+mass*mass))
}

func (p FourMomentum) Px() float64 { return p.p4.Px() }
func (p FourMomentum) Py() float64 { return p.p4.Py() }
func (p FourMomentum) Pz() float64 { return p.p4.Pz() }
func (p FourMomentum) E() float64  { return p.p4.E() }

func (p FourMomentum) Vect() Vec3 {
	return Vec3{p.Px(), p.Py(), p.Pz()}
}

func (p FourMomentum) P2() float64  { return p.Vect().Mag2() }
func (p FourMomentum) P() float64   { return p.Vect().Mag() }
func (p FourMomentum) Pt2() float64 { return p.Px()*p.Px() + p.Py()*p.Py() }
func (p FourMomentum) Pt() float64  { return p.p4.Pt() }

func (p FourMomentum) Theta() float64 { return p.Vect().Theta() }
func (p FourMomentum) Phi() float64   { return p.Vect().Phi() }

// Unit is the direction of the three-momentum.
func (p FourMomentum) Unit() Vec3 { return p.Vect().Unit() }

// Add returns the sum of p and q; neither operand is modified.
func (p FourMomentum) Add(q FourMomentum) FourMomentum {
	return NewFourMomentum(p.Px()+q.Px(), p.Py()+q.Py(), p.Pz()+q.Pz(), p.E()+q.E())
}

// IsZero reports whether every component vanishes.
func (p FourMomentum) IsZero() bool {
	return p.Px() == 0 && p.Py() == 0 && p.Pz() == 0 && p.E() == 0
}

// P4 exposes the value as a go-hep four-vector.
func (p FourMomentum) P4() fmom.P4 {
	p4 := p.p4
	return &p4
}

func (p FourMomentum) String() string {
	return fmt.Sprintf("(%g, %g, %g; %g)", p.Px(), p.Py(), p.Pz(), p.E())
}

// Sum adds up a list of four-momenta.
func Sum(ps ...FourMomentum) FourMomentum {
	var sum FourMomentum
	for _, p := range ps {
		sum = sum.Add(p)
	}
	return sum
}
