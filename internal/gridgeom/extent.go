// Package gridgeom maps grid extents to georeferenced envelopes
package gridgeom

import (
	"image"

	"github.com/airbusgeo/georef/internal/georef"
	"github.com/twpayne/go-geom"
)

// Extent is a range of grid indices, Low inclusive and High exclusive
type Extent struct {
	Low, High []int
}

// NewExtent creates an extent. low and high must have the same length and low < high.
func NewExtent(low, high []int) (Extent, error) {
	e := Extent{Low: append([]int(nil), low...), High: append([]int(nil), high...)}
	if err := e.validate(); err != nil {
		return Extent{}, err
	}
	return e, nil
}

func (e Extent) validate() error {
	if len(e.Low) != len(e.High) {
		return georef.NewMismatchedDimension("extent", len(e.Low), len(e.High))
	}
	if len(e.Low) == 0 {
		return georef.NewInvalidArgument("extent: no dimension")
	}
	for i := range e.Low {
		if e.Low[i] >= e.High[i] {
			return georef.NewInvalidArgument("extent: empty range [%d, %d) in dimension %d", e.Low[i], e.High[i], i)
		}
	}
	return nil
}

// ExtentFromRect creates a 2D extent from an image rectangle
func ExtentFromRect(r image.Rectangle) Extent {
	return Extent{Low: []int{r.Min.X, r.Min.Y}, High: []int{r.Max.X, r.Max.Y}}
}

func (e Extent) Dimension() int {
	return len(e.Low)
}

// Span returns the number of cells along dimension i
func (e Extent) Span(i int) int {
	return e.High[i] - e.Low[i]
}

// Envelope is a bounding box in a crs
type Envelope struct {
	Min, Max []float64
	CRS      *georef.CRS
}

// NewEnvelope creates an envelope. crs may be nil.
func NewEnvelope(min, max []float64, crs *georef.CRS) (Envelope, error) {
	if len(min) != len(max) {
		return Envelope{}, georef.NewMismatchedDimension("envelope", len(min), len(max))
	}
	if len(min) == 0 {
		return Envelope{}, georef.NewInvalidArgument("envelope: no dimension")
	}
	if crs != nil && crs.Dimension() != len(min) {
		return Envelope{}, georef.NewMismatchedDimension("envelope crs", len(min), crs.Dimension())
	}
	return Envelope{Min: append([]float64(nil), min...), Max: append([]float64(nil), max...), CRS: crs}, nil
}

// EnvelopeFromBounds creates an envelope from the bounds of a geometry
func EnvelopeFromBounds(b *geom.Bounds, crs *georef.CRS) (Envelope, error) {
	stride := b.Layout().Stride()
	min, max := make([]float64, stride), make([]float64, stride)
	for i := 0; i < stride; i++ {
		min[i], max[i] = b.Min(i), b.Max(i)
	}
	return NewEnvelope(min, max, crs)
}

func (e Envelope) Dimension() int {
	return len(e.Min)
}

func (e Envelope) Span(i int) float64 {
	return e.Max[i] - e.Min[i]
}

// Bounds returns the 2D bounds of the envelope
func (e Envelope) Bounds() *geom.Bounds {
	b := geom.NewBounds(geom.XY)
	if e.Dimension() >= 2 {
		b.SetCoords([]float64{e.Min[0], e.Min[1]}, []float64{e.Max[0], e.Max[1]})
	}
	return b
}
