package kinematics

// Covariance is the upper triangle of the symmetric covariance of
// (px, py, pz, E), stored in the LCIO order:
//
//	σ²px, σpxpy, σ²py, σpxpz, σpypz, σ²pz, σpxE, σpyE, σpzE, σ²E
//
// Negative variances are kept as they are; callers must cope with them.
type Covariance [10]float64

// DiagonalCovariance returns a covariance with only the variances set.
func DiagonalCovariance(px2, py2, pz2, e2 float64) Covariance {
	return Covariance{0: px2, 2: py2, 5: pz2, 9: e2}
}

// CovarianceFrom32 widens a single precision covariance as found in
// reconstructed-particle collections.
func CovarianceFrom32(cov [10]float32) Covariance {
	var c Covariance
	for i, v := range cov {
		c[i] = float64(v)
	}
	return c
}

func (c Covariance) Px2() float64  { return c[0] }
func (c Covariance) PxPy() float64 { return c[1] }
func (c Covariance) Py2() float64  { return c[2] }
func (c Covariance) PxPz() float64 { return c[3] }
func (c Covariance) PyPz() float64 { return c[4] }
func (c Covariance) Pz2() float64  { return c[5] }
func (c Covariance) PxE() float64  { return c[6] }
func (c Covariance) PyE() float64  { return c[7] }
func (c Covariance) PzE() float64  { return c[8] }
func (c Covariance) E2() float64   { return c[9] }

// Scale multiplies every entry by k2.
func (c Covariance) Scale(k2 float64) Covariance {
	for i := range c {
		c[i] *= k2
	}
	return c
}
