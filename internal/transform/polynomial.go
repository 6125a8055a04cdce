package transform

import (
	"math"

	"github.com/airbusgeo/georef/internal/georef"
	"gonum.org/v1/gonum/mat"
)

// MaxDegree is the maximal degree of a polynomial warp
const MaxDegree = 7

// Polynomial is a 2D polynomial warp, fitted by least squares on a set of
// source/destination points. The terms are evaluated on normalised source
// coordinates for numerical stability.
type Polynomial struct {
	degree         int
	offX, offY     float64
	scaleX, scaleY float64
	cx, cy         []float64
	// Kept to fit the inverse warp
	src, dst []float64
}

// NumTerms returns the number of coefficients of a 2D polynomial of the given degree
func NumTerms(degree int) int {
	return (degree + 1) * (degree + 2) / 2
}

// FitPolynomial fits a polynomial warp of the given degree mapping the flat (x0, y0, x1, y1...)
// source coordinates to the flat destination coordinates.
// The slices are copied.
func FitPolynomial(src, dst []float64, degree int) (*Polynomial, error) {
	if degree < 1 || degree > MaxDegree {
		return nil, georef.NewOutOfRange("polynomial degree %d is outside [1, %d]", degree, MaxDegree)
	}
	if len(src) != len(dst) || len(src)%2 != 0 {
		return nil, georef.NewInvalidArgument("polynomial: %d source and %d destination coordinates", len(src), len(dst))
	}
	n := len(src) / 2
	k := NumTerms(degree)
	if n < k {
		return nil, georef.NewInvalidArgument("polynomial of degree %d needs at least %d points, got %d", degree, k, n)
	}
	p := Polynomial{
		degree: degree,
		src:    append([]float64(nil), src...),
		dst:    append([]float64(nil), dst...),
	}
	p.offX, p.scaleX = normalization(src, 0)
	p.offY, p.scaleY = normalization(src, 1)

	a := mat.NewDense(n, k, nil)
	b := mat.NewDense(n, 2, nil)
	row := make([]float64, k)
	for i := 0; i < n; i++ {
		p.terms(src[2*i], src[2*i+1], row)
		a.SetRow(i, row)
		b.Set(i, 0, dst[2*i])
		b.Set(i, 1, dst[2*i+1])
	}

	var qr mat.QR
	qr.Factorize(a)
	if cond := qr.Cond(); math.IsInf(cond, 0) || math.IsNaN(cond) || cond > 1e14 {
		return nil, georef.NewInvalidArgument("polynomial: points are degenerate for degree %d (condition number %g)", degree, cond)
	}
	var c mat.Dense
	if err := qr.SolveTo(&c, false, b); err != nil {
		return nil, georef.NewInvalidArgument("polynomial: %v", err)
	}
	p.cx = mat.Col(nil, 0, &c)
	p.cy = mat.Col(nil, 1, &c)
	return &p, nil
}

// normalization returns the offset and scale mapping the coordinates at index off (stride 2) into [-1, 1]
func normalization(flat []float64, off int) (float64, float64) {
	min, max := math.Inf(1), math.Inf(-1)
	for i := off; i < len(flat); i += 2 {
		min = math.Min(min, flat[i])
		max = math.Max(max, flat[i])
	}
	if max <= min {
		return min, 1
	}
	return (min + max) / 2, 2 / (max - min)
}

// terms fills t with the monomials u^(d-j)*v^j for d in [0, degree] and j in [0, d]
func (p *Polynomial) terms(x, y float64, t []float64) {
	u := (x - p.offX) * p.scaleX
	v := (y - p.offY) * p.scaleY
	i := 0
	for d := 0; d <= p.degree; d++ {
		for j := 0; j <= d; j++ {
			t[i] = math.Pow(u, float64(d-j)) * math.Pow(v, float64(j))
			i++
		}
	}
}

// Degree of the polynomial
func (p *Polynomial) Degree() int {
	return p.degree
}

func (p *Polynomial) SourceDimensions() int { return 2 }
func (p *Polynomial) TargetDimensions() int { return 2 }

// Apply implements Transform
func (p *Polynomial) Apply(point []float64) ([]float64, error) {
	if len(point) != 2 {
		return nil, georef.NewMismatchedDimension("point", 2, len(point))
	}
	t := make([]float64, len(p.cx))
	p.terms(point[0], point[1], t)
	var x, y float64
	for i := range t {
		x += p.cx[i] * t[i]
		y += p.cy[i] * t[i]
	}
	return []float64{x, y}, nil
}

// Inverse fits the polynomial of the same degree mapping the destination points back to the source points
func (p *Polynomial) Inverse() (Transform, error) {
	inv, err := FitPolynomial(p.dst, p.src, p.degree)
	if err != nil {
		return nil, georef.NewIllegalState("polynomial is not invertible: %v", err)
	}
	return inv, nil
}

// Coefficients returns a copy of the x and y coefficients (on normalised coordinates)
func (p *Polynomial) Coefficients() ([]float64, []float64) {
	return append([]float64(nil), p.cx...), append([]float64(nil), p.cy...)
}
