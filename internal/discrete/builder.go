// Package discrete derives the grid to CRS transform of rasters whose axes are
// given as lists of ordinates (netCDF-like coordinate variables).
package discrete

import (
	"math"
	"time"

	"github.com/airbusgeo/georef/internal/georef"
	"github.com/airbusgeo/georef/internal/utils/matrix"
)

// Axis holds the ordinates of a grid axis, either numbers or dates.
// The slices are not copied: the caller must not modify them while they are in use.
type Axis struct {
	Numbers []float64
	Dates   []time.Time
}

// NumberAxis creates an axis of numeric ordinates
func NumberAxis(values ...float64) Axis {
	return Axis{Numbers: values}
}

// DateAxis creates an axis of temporal ordinates
func DateAxis(dates ...time.Time) Axis {
	return Axis{Dates: dates}
}

// Len returns the number of ordinates of the axis (0 if the axis mixes numbers and dates)
func (a Axis) Len() int {
	switch {
	case len(a.Numbers) > 0 && len(a.Dates) > 0:
		return 0
	case len(a.Numbers) > 0:
		return len(a.Numbers)
	}
	return len(a.Dates)
}

// bounds returns the first and last ordinates of the axis at dimension dim as numbers.
// Dates are converted using the temporal component of crs at this dimension.
func (a Axis) bounds(dim int, crs *georef.CRS) (float64, float64, bool) {
	n := a.Len() - 1
	switch {
	case n < 0:
		return 0, 0, false
	case len(a.Numbers) > 0:
		return a.Numbers[0], a.Numbers[n], true
	}
	temporal, ok := crs.TemporalComponent(dim)
	if !ok {
		return 0, 0, false
	}
	return temporal.Datum.ToValue(a.Dates[0]), temporal.Datum.ToValue(a.Dates[n]), true
}

// BuildAffine returns the (n+1)×(n+1) matrix mapping the grid indices to the ordinates of
// the n axes, assuming each axis is regular. crs is only used to convert dates and may be nil.
//
// It returns false when no such matrix exists: empty axis, dates without temporal crs,
// null or undefined scale. Irregular spacing is not detected.
func BuildAffine(axes []Axis, crs *georef.CRS) (*matrix.Matrix, bool) {
	dim := len(axes)
	if dim == 0 {
		return nil, false
	}
	m := matrix.New(dim+1, dim+1)
	for i, axis := range axes {
		start, end, ok := axis.bounds(i, crs)
		if !ok || math.IsNaN(start) || math.IsInf(start, 0) {
			return nil, false
		}
		if n := axis.Len() - 1; n != 0 {
			scale := (end - start) / float64(n)
			if scale == 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
				return nil, false
			}
			m.Set(i, i, scale)
		}
		m.Set(i, dim, start)
	}
	return m, true
}
