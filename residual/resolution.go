package residual

import (
	"math"

	"github.com/decibelcooper/jetres/kinematics"
)

// PhiSignConvention selects the sign of dφ/dpy used in the error
// propagation. Two variants of the jet analysis disagree on it; the
// default follows φ = atan2(py, px), for which dφ/dpy = +px/pt².
// PhiPyNegative reproduces the other variant, -px/pt², which flips the
// sign of the px-py cross term in σφ.
type PhiSignConvention int

const (
	PhiPyPositive PhiSignConvention = iota
	PhiPyNegative
)

// DefaultPhiConvention is the convention used when none is configured.
const DefaultPhiConvention = PhiPyPositive

func (c PhiSignConvention) String() string {
	if c == PhiPyNegative {
		return "negative"
	}
	return "positive"
}

// ParsePhiSignConvention accepts "positive" and "negative".
func ParsePhiSignConvention(s string) (PhiSignConvention, bool) {
	switch s {
	case "", "positive", "+":
		return PhiPyPositive, true
	case "negative", "-":
		return PhiPyNegative, true
	}
	return DefaultPhiConvention, false
}

func (c PhiSignConvention) sign() float64 {
	if c == PhiPyNegative {
		return -1
	}
	return 1
}

// Resolutions holds the expected standard deviation of each Quantity.
type Resolutions [NumQuantities]float64

func (r Resolutions) Get(q Quantity) float64 { return r[q] }

// Propagator maps a Cartesian momentum covariance onto energy, polar
// angle and azimuth resolutions to first order.
type Propagator struct {
	Convention PhiSignConvention
}

// Resolutions returns σpx, σpy, σpz and σE straight from the diagonal and
// σθ, σφ from the Jacobian of (θ, φ) with respect to (px, py, pz). The
// propagated variances go through an absolute value before the square
// root so that inconsistent input covariances cannot produce a NaN.
func (p Propagator) Resolutions(reco kinematics.FourMomentum, cov kinematics.Covariance) Resolutions {
	px, py, pz := reco.Px(), reco.Py(), reco.Pz()
	p2 := px*px + py*py + pz*pz
	pt2 := px*px + py*py
	pt := math.Sqrt(pt2)

	dThetaDPx := px * pz / (p2 * pt)
	dThetaDPy := py * pz / (p2 * pt)
	dThetaDPz := -pt / p2
	dPhiDPx := -py / pt2
	dPhiDPy := p.Convention.sign() * px / pt2

	sigmaTheta2 := dThetaDPx*dThetaDPx*cov.Px2() +
		dThetaDPy*dThetaDPy*cov.Py2() +
		dThetaDPz*dThetaDPz*cov.Pz2() +
		2*dThetaDPx*dThetaDPy*cov.PxPy() +
		2*dThetaDPx*dThetaDPz*cov.PxPz() +
		2*dThetaDPy*dThetaDPz*cov.PyPz()
	sigmaPhi2 := dPhiDPx*dPhiDPx*cov.Px2() +
		dPhiDPy*dPhiDPy*cov.Py2() +
		2*dPhiDPx*dPhiDPy*cov.PxPy()

	var r Resolutions
	r[Px] = math.Sqrt(cov.Px2())
	r[Py] = math.Sqrt(cov.Py2())
	r[Pz] = math.Sqrt(cov.Pz2())
	r[E] = math.Sqrt(cov.E2())
	r[Theta] = math.Sqrt(math.Abs(sigmaTheta2))
	r[Phi] = math.Sqrt(math.Abs(sigmaPhi2))
	return r
}
