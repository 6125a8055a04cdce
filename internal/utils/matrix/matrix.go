// Package matrix provides the homogeneous matrices used to express linear
// (affine) transforms between n-dimensional coordinate spaces.
//
// A Matrix of size (m+1)×(n+1) maps n-dimensional source points to
// m-dimensional target points: element (j, i) is the derivative of target
// dimension j with respect to source dimension i, the last column holds the
// translation terms and the last row is [0 ... 0 1].
package matrix

import (
	"fmt"
	"math"
	"strings"

	"github.com/airbusgeo/georef/internal/georef"
	"github.com/airbusgeo/georef/internal/utils"
	"github.com/airbusgeo/georef/internal/utils/affine"
	"gonum.org/v1/gonum/mat"
)

// Matrix is a homogeneous matrix backed by a gonum dense matrix
type Matrix struct {
	m *mat.Dense
}

// New creates a matrix with numRow rows and numCol columns, filled with zeros
// except the lower-right element which is set to 1.
func New(numRow, numCol int) *Matrix {
	m := mat.NewDense(numRow, numCol, nil)
	m.Set(numRow-1, numCol-1, 1)
	return &Matrix{m: m}
}

// Identity creates a square (size × size) identity matrix
func Identity(size int) *Matrix {
	m := New(size, size)
	for i := 0; i < size; i++ {
		m.m.Set(i, i, 1)
	}
	return m
}

// FromRows creates a matrix from its rows. All rows must have the same length.
func FromRows(rows ...[]float64) (*Matrix, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, georef.NewInvalidArgument("matrix: empty rows")
	}
	n := len(rows[0])
	data := make([]float64, 0, len(rows)*n)
	for i, row := range rows {
		if len(row) != n {
			return nil, georef.NewInvalidArgument("matrix: row %d has %d elements, expected %d", i, len(row), n)
		}
		data = append(data, row...)
	}
	return &Matrix{m: mat.NewDense(len(rows), n, data)}, nil
}

// FromAffine creates a 3×3 matrix from a GDAL affine
func FromAffine(a *affine.Affine) *Matrix {
	return &Matrix{m: mat.NewDense(3, 3, []float64{
		a[1], a[2], a[0],
		a[4], a[5], a[3],
		0, 0, 1,
	})}
}

// Affine returns the GDAL affine equivalent to this 3×3 matrix
func (m *Matrix) Affine() (*affine.Affine, error) {
	if r, c := m.Dims(); r != 3 || c != 3 {
		return nil, georef.NewMismatchedDimension("matrix", 3, r)
	}
	return affine.NewAffine(m.At(0, 2), m.At(0, 0), m.At(0, 1), m.At(1, 2), m.At(1, 0), m.At(1, 1)), nil
}

// Dims returns the number of rows and columns of the matrix
func (m *Matrix) Dims() (int, int) {
	return m.m.Dims()
}

// SourceDimensions is the number of columns minus one
func (m *Matrix) SourceDimensions() int {
	_, c := m.m.Dims()
	return c - 1
}

// TargetDimensions is the number of rows minus one
func (m *Matrix) TargetDimensions() int {
	r, _ := m.m.Dims()
	return r - 1
}

// At returns the element at row j, column i
func (m *Matrix) At(j, i int) float64 {
	return m.m.At(j, i)
}

// Set sets the element at row j, column i
func (m *Matrix) Set(j, i int, v float64) {
	m.m.Set(j, i, v)
}

// Clone returns a deep copy of the matrix
func (m *Matrix) Clone() *Matrix {
	return &Matrix{m: mat.DenseCopyOf(m.m)}
}

// Dense returns a copy of the matrix as a gonum dense matrix
func (m *Matrix) Dense() *mat.Dense {
	return mat.DenseCopyOf(m.m)
}

// IsAffine returns true if the last row is [0 ... 0 1]
func (m *Matrix) IsAffine() bool {
	r, c := m.m.Dims()
	for i := 0; i < c; i++ {
		expected := 0.0
		if i == c-1 {
			expected = 1
		}
		if m.m.At(r-1, i) != expected {
			return false
		}
	}
	return true
}

// IsIdentity returns true if the matrix is square and equal to the identity
func (m *Matrix) IsIdentity() bool {
	r, c := m.m.Dims()
	if r != c {
		return false
	}
	return m.Equal(Identity(r), 0)
}

// Equal returns true if both matrices have the same size and all their elements are equal within tolerance.
// NaN elements are equal to NaN elements only.
func (m *Matrix) Equal(o *Matrix, tolerance float64) bool {
	r, c := m.m.Dims()
	or, oc := o.m.Dims()
	if r != or || c != oc {
		return false
	}
	for j := 0; j < r; j++ {
		for i := 0; i < c; i++ {
			a, b := m.m.At(j, i), o.m.At(j, i)
			if math.IsNaN(a) || math.IsNaN(b) {
				if math.IsNaN(a) != math.IsNaN(b) {
					return false
				}
				continue
			}
			if math.Abs(a-b) > tolerance {
				return false
			}
		}
	}
	return true
}

// HasNaN returns true if any element is NaN
func (m *Matrix) HasNaN() bool {
	r, c := m.m.Dims()
	for j := 0; j < r; j++ {
		for i := 0; i < c; i++ {
			if math.IsNaN(m.m.At(j, i)) {
				return true
			}
		}
	}
	return false
}

// Multiply returns m × o, i.e. the transform applying o then m
func (m *Matrix) Multiply(o *Matrix) (*Matrix, error) {
	_, c := m.m.Dims()
	or, _ := o.m.Dims()
	if c != or {
		return nil, georef.NewMismatchedDimension("matrix", c-1, or-1)
	}
	var res mat.Dense
	res.Mul(m.m, o.m)
	return &Matrix{m: &res}, nil
}

// Inverse returns the inverse of a square matrix
func (m *Matrix) Inverse() (*Matrix, error) {
	r, c := m.m.Dims()
	if r != c {
		return nil, georef.NewIllegalState("matrix: cannot invert a non-square %dx%d matrix", r, c)
	}
	var inv mat.Dense
	if err := inv.Inverse(m.m); err != nil {
		return nil, georef.NewIllegalState("matrix: not invertible: %v", err)
	}
	return &Matrix{m: &inv}, nil
}

// Transform applies the matrix to a point of SourceDimensions() coordinates
func (m *Matrix) Transform(src []float64) ([]float64, error) {
	r, c := m.m.Dims()
	if len(src) != c-1 {
		return nil, georef.NewMismatchedDimension("point", c-1, len(src))
	}
	dst := make([]float64, r-1)
	for j := 0; j < r-1; j++ {
		sum := m.m.At(j, c-1)
		for i := 0; i < c-1; i++ {
			if e := m.m.At(j, i); e != 0 {
				sum += e * src[i]
			}
		}
		dst[j] = sum
	}
	if !m.IsAffine() {
		w := m.m.At(r-1, c-1)
		for i := 0; i < c-1; i++ {
			w += m.m.At(r-1, i) * src[i]
		}
		for j := range dst {
			dst[j] /= w
		}
	}
	return dst, nil
}

func (m *Matrix) String() string {
	r, c := m.m.Dims()
	rows := make([]string, r)
	for j := 0; j < r; j++ {
		elems := make([]string, c)
		for i := 0; i < c; i++ {
			elems[i] = utils.F64ToS(m.m.At(j, i))
		}
		rows[j] = "[" + strings.Join(elems, ", ") + "]"
	}
	return fmt.Sprintf("[%s]", strings.Join(rows, ", "))
}
