// Package to handle 2D affine transformations, following GDAL affine convention:
//
//	X = a[0] + a[1]*col + a[2]*row
//	Y = a[3] + a[4]*col + a[5]*row
package affine

import (
	"fmt"
	"math"
	"math/big"

	"github.com/airbusgeo/georef/internal/utils"
)

// Affine follows the GDAL transform convention
type Affine [6]float64

func NewAffine(a, b, c, d, e, f float64) *Affine {
	res := Affine([6]float64{a, b, c, d, e, f})
	return &res
}

// Identity creates the identity transform
func Identity() *Affine {
	return NewAffine(0, 1, 0, 0, 0, 1)
}

// Translation creates a translation transform from (offx, offy)
func Translation(offx, offy float64) *Affine {
	return NewAffine(offx, 1.0, 0, offy, 0, 1.0)
}

// Scale creates a scale transform from (scalex, scaley)
func Scale(scalex, scaley float64) *Affine {
	return NewAffine(0, scalex, 0, 0, 0, scaley)
}

// Clone returns a copy of a that does not share any memory with a
func (a *Affine) Clone() *Affine {
	res := *a
	return &res
}

// Rx returns the X resolution
func (a *Affine) Rx() float64 {
	return a[1]
}

// Ry returns the Y resolution
func (a *Affine) Ry() float64 {
	return a[5]
}

// Determinant of the linear part
func (a *Affine) Determinant() float64 {
	return a[1]*a[5] - a[2]*a[4]
}

// IsInvertible returns true if the transformation is invertible
func (a *Affine) IsInvertible() bool {
	det := a.Determinant()
	return det != 0 && !math.IsNaN(det) && !math.IsInf(det, 0)
}

// HasRotation returns true if the transform has shear or rotation terms
func (a *Affine) HasRotation() bool {
	return a[2] != 0 || a[4] != 0
}

// IsIdentity returns true if the transform is the identity
func (a *Affine) IsIdentity() bool {
	return *a == *Identity()
}

// Equal returns true if all the coefficients are equal within tolerance
func (a *Affine) Equal(b *Affine, tolerance float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > tolerance || math.IsNaN(a[i]) != math.IsNaN(b[i]) {
			return false
		}
	}
	return true
}

// Inverse creates the inverse of the affine transform.
// Inverse panics if it is not inversible
func (a *Affine) Inverse() *Affine {
	idet := 1.0 / a.Determinant()
	res := Affine([6]float64{0, a[5] * idet, -a[2] * idet, 0, -a[4] * idet, a[1] * idet})
	res[0], res[3] = res.Transform(-a[0], -a[3])
	return &res
}

const (
	prec = 128
)

// highPrecisionTransform, such as highPrecisionTransform(xs, x+1, sy, y+1, o) = highPrecisionTransform(xs, x, sy, y, o) + highPrecisionTransform(xs, 1, sy, 1, 0)
func highPrecisionTransform(sx, x, sy, y, o float64) float64 {
	if math.IsNaN(sx) || math.IsNaN(x) || math.IsNaN(sy) || math.IsNaN(y) || math.IsNaN(o) {
		// big.Float panics on NaN
		return math.NaN()
	}
	if math.IsInf(sx, 0) || math.IsInf(x, 0) || math.IsInf(sy, 0) || math.IsInf(y, 0) || math.IsInf(o, 0) {
		return o + sx*x + sy*y
	}
	sX := big.NewFloat(sx).SetPrec(prec)
	sY := big.NewFloat(sy).SetPrec(prec)
	X := big.NewFloat(x).SetPrec(prec)
	Y := big.NewFloat(y).SetPrec(prec)
	O := big.NewFloat(o).SetPrec(prec)
	r, _ := O.Add(O, sX.Mul(sX, X)).Add(O, sY.Mul(sY, Y)).Float64() // o + sx*x + sy*y
	return r
}

// Multiply merges the two affines transforms into one: a.Multiply(b) applies b then a.
func (a *Affine) Multiply(b *Affine) *Affine {
	return NewAffine(
		highPrecisionTransform(a[1], b[0], a[2], b[3], a[0]),
		highPrecisionTransform(a[1], b[1], a[2], b[4], 0),
		highPrecisionTransform(a[1], b[2], a[2], b[5], 0),
		highPrecisionTransform(a[4], b[0], a[5], b[3], a[3]),
		highPrecisionTransform(a[4], b[1], a[5], b[4], 0),
		highPrecisionTransform(a[4], b[2], a[5], b[5], 0),
	)
}

// Transform applies the affine transform to the point (x, y)
func (a *Affine) Transform(x float64, y float64) (float64, float64) {
	return highPrecisionTransform(a[1], x, a[2], y, a[0]), highPrecisionTransform(a[4], x, a[5], y, a[3])
}

// DeltaTransform applies the linear part of the transform (without translation) to the vector (dx, dy)
func (a *Affine) DeltaTransform(dx float64, dy float64) (float64, float64) {
	return a[1]*dx + a[2]*dy, a[4]*dx + a[5]*dy
}

// TransformEx applies the affine transform to all the points in place
func (a *Affine) TransformEx(x []float64, y []float64) {
	for i := range x {
		x[i], y[i] = a.Transform(x[i], y[i])
	}
}

func (a *Affine) String() string {
	return fmt.Sprintf("[%s, %s, %s, %s, %s, %s]",
		utils.F64ToS(a[0]), utils.F64ToS(a[1]), utils.F64ToS(a[2]), utils.F64ToS(a[3]), utils.F64ToS(a[4]), utils.F64ToS(a[5]))
}
