package locgrid

import (
	"math"

	"github.com/airbusgeo/georef/internal/georef"
	"github.com/airbusgeo/georef/internal/transform"
)

// Transform returns a transform from cell indices (col, row) to real world coordinates:
//   - degree 0: transform backed by the whole grid (bilinear interpolation)
//   - degree 1: the affine transform returned by AffineTransform
//   - degree >= 2: a polynomial warp fitted on the defined (non-NaN) cells
//
// Transforms are cached until the next mutation of the grid.
func (g *Grid) Transform(degree int) (transform.Transform, error) {
	if degree < 0 || degree > MaxDegree {
		return nil, georef.NewOutOfRange("degree %d is outside [0, %d]", degree, MaxDegree)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if t, ok := g.cache.transforms[degree]; ok {
		return t, nil
	}

	var t transform.Transform
	switch degree {
	case 0:
		t = newGridTransform(g.width, g.height, g.gridX, g.gridY, g.affine().Clone())
		g.shared = true
	case 1:
		t = transform.NewAffine2D(g.affine())
	default:
		src := make([]float64, 0, 2*len(g.gridX))
		dst := make([]float64, 0, 2*len(g.gridX))
		for row, off := 0, 0; row < g.height; row++ {
			for col := 0; col < g.width; col, off = col+1, off+1 {
				x, y := g.gridX[off], g.gridY[off]
				if math.IsNaN(x) || math.IsNaN(y) {
					continue
				}
				src = append(src, float64(col), float64(row))
				dst = append(dst, x, y)
			}
		}
		var err error
		if t, err = transform.FitPolynomial(src, dst, degree); err != nil {
			return nil, err
		}
	}

	if g.cache.transforms == nil {
		g.cache.transforms = map[int]transform.Transform{}
	}
	g.cache.transforms[degree] = t
	return t, nil
}
