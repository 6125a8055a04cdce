// Package locgrid implements localization grids: a dense 2D array of real
// world (x, y) coordinates, one per grid cell, used when no closed-form
// grid to CRS transform is known.
//
// A Grid is safe for concurrent use: every mutation holds an exclusive lock
// on both the coordinates and the derived transforms, so that a transform
// returned to a caller always reflects the content of the grid at or after
// the call.
package locgrid

import (
	"image"
	"math"
	"sync"

	"github.com/airbusgeo/georef/internal/georef"
	"github.com/airbusgeo/georef/internal/transform"
	"github.com/airbusgeo/georef/internal/utils/affine"
	"gonum.org/v1/gonum/floats"
)

// MaxDegree is the maximal degree accepted by Grid.Transform
const MaxDegree = transform.MaxDegree

// MaxCells is the maximal number of cells of a grid (two float64 arrays of 4GB)
const MaxCells = 1 << 29

// cache holds the transforms derived from the content of the grid
type cache struct {
	global     *affine.Affine
	transforms map[int]transform.Transform
}

func (c *cache) invalidateAll() {
	c.global = nil
	c.transforms = nil
}

// Grid is a localization grid of width×height cells.
// Coordinates are stored row-major: offset = col + row*width
type Grid struct {
	mu            sync.RWMutex
	width, height int
	gridX, gridY  []float64
	cache         cache
	// shared is true while a degree-0 transform reads gridX and gridY
	shared bool
}

// New creates a grid with all cells set to (NaN, NaN)
func New(width, height int) (*Grid, error) {
	if width < 1 || height < 1 {
		return nil, georef.NewInvalidArgument("invalid grid size %dx%d", width, height)
	}
	if width > MaxCells/height {
		return nil, georef.NewInvalidArgument("grid size %dx%d exceeds %d cells", width, height, MaxCells)
	}
	g := Grid{
		width:  width,
		height: height,
		gridX:  make([]float64, width*height),
		gridY:  make([]float64, width*height),
	}
	for i := range g.gridX {
		g.gridX[i] = math.NaN()
		g.gridY[i] = math.NaN()
	}
	return &g, nil
}

// Width returns the number of columns
func (g *Grid) Width() int {
	return g.width
}

// Height returns the number of rows
func (g *Grid) Height() int {
	return g.height
}

// Extent returns the grid bounds in cell indices
func (g *Grid) Extent() image.Rectangle {
	return image.Rect(0, 0, g.width, g.height)
}

func (g *Grid) offset(col, row int) (int, error) {
	if col < 0 || col >= g.width {
		return 0, georef.NewIndexOutOfRange("col", col, g.width)
	}
	if row < 0 || row >= g.height {
		return 0, georef.NewIndexOutOfRange("row", row, g.height)
	}
	return col + row*g.width, nil
}

// Get returns the coordinates of the cell (col, row)
func (g *Grid) Get(col, row int) (float64, float64, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	off, err := g.offset(col, row)
	if err != nil {
		return 0, 0, err
	}
	return g.gridX[off], g.gridY[off], nil
}

// Set sets the coordinates of the cell (col, row) and invalidates the derived transforms
func (g *Grid) Set(col, row int, x, y float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	off, err := g.offset(col, row)
	if err != nil {
		return err
	}
	g.beforeWrite()
	g.gridX[off], g.gridY[off] = x, y
	g.cache.invalidateAll()
	return nil
}

// ApplyTransform replaces the coordinates of every cell in region by their image through a.
// A nil region stands for the whole grid.
func (g *Grid) ApplyTransform(a *affine.Affine, region *image.Rectangle) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	r := g.Extent()
	if region != nil {
		if !region.In(r) {
			return georef.NewInvalidArgument("region %v is outside the grid %v", *region, r)
		}
		r = *region
	}
	g.beforeWrite()
	for row := r.Min.Y; row < r.Max.Y; row++ {
		for off := r.Min.X + row*g.width; off < r.Max.X+row*g.width; off++ {
			g.gridX[off], g.gridY[off] = a.Transform(g.gridX[off], g.gridY[off])
		}
	}
	g.cache.invalidateAll()
	return nil
}

// HasUndefined returns true if any cell has a NaN coordinate
func (g *Grid) HasUndefined() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return floats.HasNaN(g.gridX) || floats.HasNaN(g.gridY)
}

// beforeWrite must be called with the lock held, before any change of gridX or gridY.
// It detaches the arrays from an issued grid-backed transform.
func (g *Grid) beforeWrite() {
	if g.shared {
		g.gridX = append([]float64(nil), g.gridX...)
		g.gridY = append([]float64(nil), g.gridY...)
		g.shared = false
	}
}
