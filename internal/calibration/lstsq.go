package calibration

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/focus.report/internal/gaze"
)

// Numerical tolerances for the least-squares fits.
const (
	// varianceEpsilon is the smallest per-axis variance of measured centroids
	// that still supports a slope estimate.
	varianceEpsilon = 1e-9

	// pivotEpsilon is the smallest |U[i][i]| of the LU factorization, relative
	// to the largest, accepted as non-singular.
	pivotEpsilon = 1e-12

	// minRotationRadius excludes points this close to the pivot from the
	// rotation estimate, where their angle is undefined.
	minRotationRadius = 1e-6
)

// fitLinear1D fits target = a*measured + b. When the measured values have
// near-zero variance the fit is undefined and identity (1, 0) is returned with
// ok false.
func fitLinear1D(measured, target []float64) (a, b float64, ok bool) {
	if len(measured) < 2 || stat.Variance(measured, nil) < varianceEpsilon {
		return 1, 0, false
	}
	// LinearRegression returns the intercept first.
	b, a = stat.LinearRegression(measured, target, nil, false)
	if math.IsNaN(a) || math.IsNaN(b) {
		return 1, 0, false
	}
	return a, b, true
}

// solveNormalEquations solves (AᵀA)x = Aᵀb by LU decomposition with partial
// pivoting. Columns are scaled to unit norm first so that raw screen
// coordinates and their squares share one magnitude; the solution is unscaled
// before returning. When any pivot is effectively zero an identity-like vector
// with x[identityTerm] = 1 is returned with ok false.
func solveNormalEquations(a *mat.Dense, b []float64, identityTerm int) (coeffs []float64, ok bool) {
	rows, cols := a.Dims()

	norms := make([]float64, cols)
	scaled := mat.NewDense(rows, cols, nil)
	for j := 0; j < cols; j++ {
		col := mat.Col(nil, j, a)
		norms[j] = floats.Norm(col, 2)
		if norms[j] == 0 {
			return identityCoefficients(cols, identityTerm), false
		}
		floats.Scale(1/norms[j], col)
		scaled.SetCol(j, col)
	}

	var ata mat.Dense
	ata.Mul(scaled.T(), scaled)
	var atb mat.VecDense
	atb.MulVec(scaled.T(), mat.NewVecDense(len(b), b))

	var lu mat.LU
	lu.Factorize(&ata)

	var u mat.TriDense
	lu.UTo(&u)
	diag := make([]float64, cols)
	for i := range diag {
		diag[i] = math.Abs(u.At(i, i))
	}
	largest := floats.Max(diag)
	if largest == 0 || floats.Min(diag) < pivotEpsilon*largest {
		return identityCoefficients(cols, identityTerm), false
	}

	var x mat.VecDense
	if err := lu.SolveVecTo(&x, false, &atb); err != nil {
		return identityCoefficients(cols, identityTerm), false
	}
	coeffs = make([]float64, cols)
	for i := range coeffs {
		coeffs[i] = x.AtVec(i) / norms[i]
		if math.IsNaN(coeffs[i]) || math.IsInf(coeffs[i], 0) {
			return identityCoefficients(cols, identityTerm), false
		}
	}
	return coeffs, true
}

func identityCoefficients(n, term int) []float64 {
	c := make([]float64, n)
	if term < n {
		c[term] = 1
	}
	return c
}

// designMatrix builds the least-squares design matrix for measured points,
// using the first terms polynomial features per row.
func designMatrix(measured []gaze.Point, terms int) *mat.Dense {
	a := mat.NewDense(len(measured), terms, nil)
	for i, p := range measured {
		f := polynomialFeatures(p.X, p.Y)
		a.SetRow(i, f[:terms])
	}
	return a
}

// fitPolynomial fits independent X and Y polynomials. With fewer than
// PolynomialTerms points it fits the three linear terms [1, x, y] and pads the
// quadratic terms with zeros.
func fitPolynomial(measured, targets []gaze.Point) (Transform, bool) {
	terms := PolynomialTerms
	if len(measured) < PolynomialTerms {
		terms = 3
	}
	a := designMatrix(measured, terms)

	tx := make([]float64, len(targets))
	ty := make([]float64, len(targets))
	for i, t := range targets {
		tx[i], ty[i] = t.X, t.Y
	}

	// Term 1 is x and term 2 is y, so the identity-like fallback maps each
	// axis onto itself.
	cx, okX := solveNormalEquations(a, tx, 1)
	cy, okY := solveNormalEquations(a, ty, 2)
	return NewPolynomial(cx, cy), okX && okY
}

// fitAffine fits per-axis scale and offset, then estimates a rotation about
// the target centroid from the remaining angular discrepancy. The rotation is
// kept only when it lowers the mean residual.
func fitAffine(measured, targets []gaze.Point) (Transform, bool) {
	mx := make([]float64, len(measured))
	my := make([]float64, len(measured))
	tx := make([]float64, len(targets))
	ty := make([]float64, len(targets))
	for i := range measured {
		mx[i], my[i] = measured[i].X, measured[i].Y
		tx[i], ty[i] = targets[i].X, targets[i].Y
	}

	scaleX, offsetX, okX := fitLinear1D(mx, tx)
	scaleY, offsetY, okY := fitLinear1D(my, ty)

	pivot := gaze.Point{X: stat.Mean(tx, nil), Y: stat.Mean(ty, nil)}
	scaled := NewAffine(scaleX, scaleY, offsetX, offsetY, 0, pivot)
	rotation := estimateRotation(scaled, measured, targets, pivot)
	if rotation == 0 {
		return scaled, okX && okY
	}

	rotated := NewAffine(scaleX, scaleY, offsetX, offsetY, rotation, pivot)
	if meanResidual(rotated, measured, targets) < meanResidual(scaled, measured, targets) {
		return rotated, okX && okY
	}
	return scaled, okX && okY
}

// estimateRotation averages the signed angle from each corrected point to its
// target, both taken about pivot.
func estimateRotation(t Transform, measured, targets []gaze.Point, pivot gaze.Point) float64 {
	var diffs []float64
	for i := range measured {
		c := t.Apply(measured[i])
		vc := gaze.Point{X: c.X - pivot.X, Y: c.Y - pivot.Y}
		vt := gaze.Point{X: targets[i].X - pivot.X, Y: targets[i].Y - pivot.Y}
		if math.Hypot(vc.X, vc.Y) < minRotationRadius || math.Hypot(vt.X, vt.Y) < minRotationRadius {
			continue
		}
		d := math.Atan2(vt.Y, vt.X) - math.Atan2(vc.Y, vc.X)
		diffs = append(diffs, normalizeAngle(d))
	}
	if len(diffs) == 0 {
		return 0
	}
	return normalizeAngle(stat.Mean(diffs, nil))
}

// meanResidual is the mean Euclidean distance between each transformed
// measured point and its target.
func meanResidual(t Transform, measured, targets []gaze.Point) float64 {
	if len(measured) == 0 {
		return 0
	}
	residuals := make([]float64, len(measured))
	for i := range measured {
		residuals[i] = t.Apply(measured[i]).Distance(targets[i])
	}
	return stat.Mean(residuals, nil)
}
