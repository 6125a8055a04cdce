// Package transform defines the coordinate operations handed to the raster
// readers and writers: linear (matrix) transforms, polynomial warps and the
// grid-backed transforms of localization grids.
package transform

import (
	"github.com/airbusgeo/georef/internal/georef"
	"github.com/airbusgeo/georef/internal/utils/affine"
	"github.com/airbusgeo/georef/internal/utils/matrix"
)

// Transform converts coordinates from a source space to a target space
type Transform interface {
	SourceDimensions() int
	TargetDimensions() int
	// Apply transforms a single point. The input slice is not modified.
	Apply(point []float64) ([]float64, error)
	// Inverse returns the reverse transform, or an error if it is not invertible
	Inverse() (Transform, error)
}

// Linear is a transform defined by a homogeneous matrix
type Linear struct {
	m *matrix.Matrix
}

// NewLinear creates a linear transform from a copy of m
func NewLinear(m *matrix.Matrix) *Linear {
	return &Linear{m: m.Clone()}
}

// NewAffine2D creates a 2D linear transform from a GDAL affine
func NewAffine2D(a *affine.Affine) *Linear {
	return &Linear{m: matrix.FromAffine(a)}
}

func (l *Linear) SourceDimensions() int { return l.m.SourceDimensions() }
func (l *Linear) TargetDimensions() int { return l.m.TargetDimensions() }

// Matrix returns a copy of the matrix of the transform
func (l *Linear) Matrix() *matrix.Matrix {
	return l.m.Clone()
}

// Apply implements Transform
func (l *Linear) Apply(point []float64) ([]float64, error) {
	return l.m.Transform(point)
}

// Inverse implements Transform
func (l *Linear) Inverse() (Transform, error) {
	inv, err := l.m.Inverse()
	if err != nil {
		return nil, err
	}
	return &Linear{m: inv}, nil
}

// Affine returns the GDAL affine of a 2D linear transform
func (l *Linear) Affine() (*affine.Affine, error) {
	return l.m.Affine()
}

// IsLinear returns the matrix of t if t is a linear transform
func IsLinear(t Transform) (*matrix.Matrix, bool) {
	if l, ok := t.(*Linear); ok && l != nil {
		return l.Matrix(), true
	}
	return nil, false
}

// TransformXY applies a 2D transform to (x, y)
func TransformXY(t Transform, x, y float64) (float64, float64, error) {
	if t.SourceDimensions() != 2 || t.TargetDimensions() != 2 {
		return 0, 0, georef.NewMismatchedDimension("transform", 2, t.SourceDimensions())
	}
	p, err := t.Apply([]float64{x, y})
	if err != nil {
		return 0, 0, err
	}
	return p[0], p[1], nil
}
