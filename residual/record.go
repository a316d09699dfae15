package residual

import (
	"math"

	"github.com/decibelcooper/jetres/kinematics"
)

// Record is everything computed for one matched pair.
type Record struct {
	Raw        Residuals
	Sigma      Resolutions
	Normalized Residuals
}

// NewRecord computes residuals of reco against truth and normalizes them
// with the resolutions propagated from cov.
func NewRecord(truth, reco kinematics.FourMomentum, cov kinematics.Covariance, conv PhiSignConvention) Record {
	rec := Record{
		Raw:   Compute(truth, reco),
		Sigma: Propagator{Convention: conv}.Resolutions(reco, cov),
	}
	rec.Normalized = Normalize(rec.Raw, rec.Sigma)
	return rec
}

// Normalize divides each residual by its resolution. A resolution that is
// zero, negative or NaN leaves the normalized value undefined, reported
// as NaN.
func Normalize(raw Residuals, sigma Resolutions) Residuals {
	var n Residuals
	for q := range raw {
		if !(sigma[q] > 0) {
			n[q] = math.NaN()
			continue
		}
		n[q] = raw[q] / sigma[q]
	}
	return n
}

// Undefined reports the components whose normalized value is NaN.
func (r Record) Undefined() []Quantity {
	var qs []Quantity
	for _, q := range Quantities() {
		if math.IsNaN(r.Normalized[q]) {
			qs = append(qs, q)
		}
	}
	return qs
}
