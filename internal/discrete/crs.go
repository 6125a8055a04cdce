package discrete

import (
	"math"

	"github.com/airbusgeo/georef/internal/georef"
	"github.com/airbusgeo/georef/internal/transform"
	"github.com/airbusgeo/georef/internal/utils/matrix"
)

// CRS is a coordinate reference system whose grid axes are known by their ordinates
type CRS struct {
	Base       *georef.CRS
	Axes       []Axis
	Components []*CRS
	// gridToCRS, if set, replaces the transform derived from the axes
	gridToCRS transform.Transform
}

// NewCRS wraps base with the ordinates of its axes.
// If base is compound, the axes are split between its components.
func NewCRS(base *georef.CRS, axes []Axis) *CRS {
	c := &CRS{Base: base, Axes: axes}
	if base != nil && base.Kind == georef.Compound {
		offset := 0
		for _, comp := range base.Components {
			n := comp.Dimension()
			var sub []Axis
			if offset+n <= len(axes) {
				sub = axes[offset : offset+n]
			}
			c.Components = append(c.Components, NewCRS(comp, sub))
			offset += n
		}
	}
	return c
}

// Component creates a non-compound CRS whose grid to CRS transform is known,
// for instance a 2D projection with curvilinear axes.
// gridToCRS may be nil when the component has no transform.
func Component(base *georef.CRS, axes []Axis, gridToCRS transform.Transform) *CRS {
	return &CRS{Base: base, Axes: axes, gridToCRS: gridToCRS}
}

// NewCompound creates a compound CRS from discrete components
func NewCompound(name string, components ...*CRS) *CRS {
	bases := make([]*georef.CRS, len(components))
	var axes []Axis
	for i, comp := range components {
		bases[i] = comp.Base
		axes = append(axes, comp.Axes...)
	}
	return &CRS{Base: georef.NewCompound(name, bases...), Axes: axes, Components: components}
}

// Dimension returns the number of dimensions of the base crs
func (c *CRS) Dimension() int {
	return c.Base.Dimension()
}

// GridToCRS returns the transform from grid indices to crs coordinates,
// or false if the axes do not define one.
func (c *CRS) GridToCRS() (transform.Transform, bool) {
	if c.gridToCRS != nil {
		return c.gridToCRS, true
	}
	if len(c.Axes) != c.Dimension() {
		return nil, false
	}
	m, ok := BuildAffine(c.Axes, c.Base)
	if !ok {
		return nil, false
	}
	if len(c.Components) > 0 {
		c.assemble(m)
	}
	return transform.NewLinear(m), true
}

// assemble replaces the rows of m with the transforms reported by the components.
// A component without linear transform gets NaN scales, its translation is kept.
func (c *CRS) assemble(m *matrix.Matrix) {
	dim := c.Dimension()
	row := 0
	for _, comp := range c.Components {
		n := comp.Dimension()
		if !copyComponent(m, comp, row, dim) {
			for j := row; j < row+n; j++ {
				m.Set(j, j, math.NaN())
			}
		}
		row += n
	}
}

// copyComponent copies the matrix of the component into rows [row, row+n) of m.
// A square component matrix is applied to the grid dimensions starting at row,
// a non-square one to the grid dimensions starting at 0.
func copyComponent(m *matrix.Matrix, comp *CRS, row, dim int) bool {
	t, ok := comp.GridToCRS()
	if !ok {
		return false
	}
	cm, ok := transform.IsLinear(t)
	if !ok {
		return false
	}
	tgt, src := cm.TargetDimensions(), cm.SourceDimensions()
	col := 0
	if tgt == src {
		col = row
	}
	if tgt != comp.Dimension() || row+tgt > dim || col+src > dim {
		return false
	}
	for j := 0; j < tgt; j++ {
		for i := 0; i < dim; i++ {
			m.Set(row+j, i, 0)
		}
		for i := 0; i < src; i++ {
			m.Set(row+j, col+i, cm.At(j, i))
		}
		m.Set(row+j, dim, cm.At(j, src))
	}
	return true
}
