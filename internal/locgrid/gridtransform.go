package locgrid

import (
	"math"

	"github.com/airbusgeo/georef/internal/georef"
	"github.com/airbusgeo/georef/internal/transform"
	"github.com/airbusgeo/georef/internal/utils/affine"
)

const (
	inverseMaxIterations = 40
	inverseTolerance     = 1e-9 // in cells
)

// gridTransform interpolates the coordinates of a localization grid.
// gridX and gridY are read-only: the Grid detaches its arrays before any change.
type gridTransform struct {
	width, height int
	gridX, gridY  []float64
	global        *affine.Affine
}

func newGridTransform(width, height int, gridX, gridY []float64, global *affine.Affine) *gridTransform {
	return &gridTransform{width: width, height: height, gridX: gridX, gridY: gridY, global: global}
}

func (t *gridTransform) SourceDimensions() int { return 2 }
func (t *gridTransform) TargetDimensions() int { return 2 }

func clamp(v, min, max float64) float64 {
	return math.Max(min, math.Min(max, v))
}

// cell returns the lower index of the cell enclosing v (clamped to the grid) and the next one
func cell(v float64, size int) (int, int) {
	i0 := int(clamp(math.Floor(v), 0, math.Max(float64(size-2), 0)))
	if i0+1 < size {
		return i0, i0 + 1
	}
	return i0, i0
}

// Apply interpolates bilinearly inside the grid. Outside, the value at the nearest
// point of the grid is extrapolated with the linear part of the best-fit affine.
func (t *gridTransform) Apply(point []float64) ([]float64, error) {
	if len(point) != 2 {
		return nil, georef.NewMismatchedDimension("point", 2, len(point))
	}
	col, row := point[0], point[1]
	if math.IsNaN(col) || math.IsNaN(row) {
		return []float64{math.NaN(), math.NaN()}, nil
	}
	ccol := clamp(col, 0, float64(t.width-1))
	crow := clamp(row, 0, float64(t.height-1))
	c0, c1 := cell(ccol, t.width)
	r0, r1 := cell(crow, t.height)
	fc, fr := 0.0, 0.0
	if c1 != c0 {
		fc = ccol - float64(c0)
	}
	if r1 != r0 {
		fr = crow - float64(r0)
	}
	x, y := t.interpolate(
		[4]int{c0 + r0*t.width, c1 + r0*t.width, c0 + r1*t.width, c1 + r1*t.width},
		[4]float64{(1 - fc) * (1 - fr), fc * (1 - fr), (1 - fc) * fr, fc * fr})

	if dc, dr := col-ccol, row-crow; dc != 0 || dr != 0 {
		ex, ey := t.global.DeltaTransform(dc, dr)
		x += ex
		y += ey
	}
	return []float64{x, y}, nil
}

// interpolate sums the weighted nodes. Nodes with a zero weight are skipped so that
// an undefined neighbour does not spoil the value of a defined node.
func (t *gridTransform) interpolate(offsets [4]int, weights [4]float64) (float64, float64) {
	var x, y float64
	for i, w := range weights {
		if w == 0 {
			continue
		}
		x += w * t.gridX[offsets[i]]
		y += w * t.gridY[offsets[i]]
	}
	return x, y
}

// Inverse returns a transform that solves Apply iteratively, starting from the
// inverse of the best-fit affine
func (t *gridTransform) Inverse() (transform.Transform, error) {
	if !t.global.IsInvertible() {
		return nil, georef.NewIllegalState("localization grid: best-fit affine %v is not invertible", t.global)
	}
	return &inverseGridTransform{forward: t, inverse: t.global.Inverse()}, nil
}

type inverseGridTransform struct {
	forward *gridTransform
	inverse *affine.Affine
}

func (t *inverseGridTransform) SourceDimensions() int { return 2 }
func (t *inverseGridTransform) TargetDimensions() int { return 2 }

func (t *inverseGridTransform) Inverse() (transform.Transform, error) {
	return t.forward, nil
}

func (t *inverseGridTransform) Apply(point []float64) ([]float64, error) {
	if len(point) != 2 {
		return nil, georef.NewMismatchedDimension("point", 2, len(point))
	}
	x, y := point[0], point[1]
	col, row := t.inverse.Transform(x, y)
	for i := 0; i < inverseMaxIterations; i++ {
		p, _ := t.forward.Apply([]float64{col, row})
		dc, dr := t.inverse.DeltaTransform(x-p[0], y-p[1])
		if math.IsNaN(dc) || math.IsNaN(dr) {
			break
		}
		col += dc
		row += dr
		if math.Abs(dc) <= inverseTolerance && math.Abs(dr) <= inverseTolerance {
			return []float64{col, row}, nil
		}
	}
	return nil, georef.NewNoConvergence("localization grid: no convergence for point (%v, %v)", x, y)
}
