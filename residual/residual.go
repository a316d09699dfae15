// Package residual computes reconstructed-minus-true residuals, the
// expected resolutions derived from a reconstructed object's covariance,
// and their ratio.
package residual

import "github.com/decibelcooper/jetres/kinematics"

// Quantity indexes the six residual components.
type Quantity int

const (
	Px Quantity = iota
	Py
	Pz
	E
	Theta
	Phi
	NumQuantities
)

var quantityNames = [NumQuantities]string{"Px", "Py", "Pz", "E", "Theta", "Phi"}

func (q Quantity) String() string {
	if q < 0 || q >= NumQuantities {
		return "?"
	}
	return quantityNames[q]
}

// Quantities lists every component in storage order.
func Quantities() []Quantity {
	return []Quantity{Px, Py, Pz, E, Theta, Phi}
}

// Residuals holds one value per Quantity.
type Residuals [NumQuantities]float64

func (r Residuals) Get(q Quantity) float64 { return r[q] }

// Compute returns the residuals of the reconstructed four-momentum reco
// with respect to the true four-momentum truth.
//
// The Cartesian components are plain differences. The angular components
// are opening angles between unit vectors, signed by the comparison of
// the plain angles: for theta the reconstructed vector is first rotated
// to the true azimuth, for phi both vectors are projected on the
// transverse plane. Both lie in [-pi, pi]. A vanishing transverse
// momentum is not guarded against.
func Compute(truth, reco kinematics.FourMomentum) Residuals {
	var r Residuals
	r[Px] = reco.Px() - truth.Px()
	r[Py] = reco.Py() - truth.Py()
	r[Pz] = reco.Pz() - truth.Pz()
	r[E] = reco.E() - truth.E()

	recoRotated := reco.Vect().WithPhi(truth.Phi())
	r[Theta] = kinematics.Angle(truth.Unit(), recoRotated.Unit())
	if reco.Theta() < truth.Theta() {
		r[Theta] = -r[Theta]
	}

	trueTransverse := truth.Vect().Transverse().Unit()
	recoTransverse := reco.Vect().Transverse().Unit()
	r[Phi] = kinematics.Angle(trueTransverse, recoTransverse)
	if reco.Phi() < truth.Phi() {
		r[Phi] = -r[Phi]
	}
	return r
}
