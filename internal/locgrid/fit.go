package locgrid

import (
	"github.com/airbusgeo/georef/internal/utils/affine"
)

// AffineTransform returns the affine transform that best fits (least squares) the
// coordinates of the grid against the cell indices (col, row).
// Any NaN cell propagates to the result: callers must fill or filter the grid first.
// The returned affine is a copy that the caller can modify.
func (g *Grid) AffineTransform() *affine.Affine {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.affine().Clone()
}

// affine must be called with the lock held
func (g *Grid) affine() *affine.Affine {
	if g.cache.global == nil {
		cx, xcol, xrow := fitPlane(g.gridX, g.width, g.height)
		cy, ycol, yrow := fitPlane(g.gridY, g.width, g.height)
		g.cache.global = affine.NewAffine(cx, xcol, xrow, cy, ycol, yrow)
	}
	return g.cache.global
}

// fitPlane computes the plane z = c + ccol*col + crow*row fitting the values of grid
// (row-major, width×height) by least squares.
func fitPlane(grid []float64, width, height int) (c, ccol, crow float64) {
	w, h := float64(width), float64(height)
	n := w * h
	// Sums of the indices are given by arithmetic series
	sumX := n * (w - 1) / 2
	sumY := n * (h - 1) / 2
	sumXX := n * (w - 1) * (2*w - 1) / 6
	sumYY := n * (h - 1) * (2*h - 1) / 6
	sumXY := n * (w - 1) * (h - 1) / 4

	var sumZ, sumZX, sumZY float64
	for row, off := 0, 0; row < height; row++ {
		for col := 0; col < width; col, off = col+1, off+1 {
			z := grid[off]
			sumZ += z
			sumZX += z * float64(col)
			sumZY += z * float64(row)
		}
	}

	zx := sumZX - sumZ*sumX/n
	zy := sumZY - sumZ*sumY/n
	xx := sumXX - sumX*sumX/n
	yy := sumYY - sumY*sumY/n
	xy := sumXY - sumX*sumY/n

	switch {
	case xx == 0 && yy == 0:
		// Single cell
	case xx == 0:
		crow = zy / yy
	case yy == 0:
		ccol = zx / xx
	default:
		den := xx*yy - xy*xy
		ccol = (zx*yy - zy*xy) / den
		crow = (zy*xx - zx*xy) / den
	}
	c = (sumZ - ccol*sumX - crow*sumY) / n
	return c, ccol, crow
}
