package gridgeom

import (
	"math"

	"github.com/airbusgeo/georef/internal/georef"
	"github.com/airbusgeo/georef/internal/transform"
	"github.com/airbusgeo/georef/internal/utils/affine"
	"github.com/airbusgeo/georef/internal/utils/matrix"
)

// Mapper creates the transform from a grid extent to an envelope.
// The axis swapping and the axis reversal are guessed from the crs of the
// envelope unless they are explicitly set.
// A Mapper is not safe for concurrent use.
type Mapper struct {
	extent    *Extent
	envelope  *Envelope
	swapXY    *bool
	reverse   []bool
	anchor    PixelAnchor
	transform *matrix.Matrix
}

// NewMapper creates a mapper with a cell center anchor
func NewMapper() *Mapper {
	return &Mapper{anchor: CellCenter}
}

func (m *Mapper) reset() {
	m.transform = nil
}

func (m *Mapper) SetGridExtent(e Extent) {
	m.extent = &e
	m.reset()
}

func (m *Mapper) SetEnvelope(e Envelope) {
	m.envelope = &e
	m.reset()
}

// SetSwapXY forces the swapping of the two first axes
func (m *Mapper) SetSwapXY(swap bool) {
	m.swapXY = &swap
	m.reset()
}

// SetReverseAxis forces the reversal of the axes of the envelope. nil restores the automatic mode.
func (m *Mapper) SetReverseAxis(reverse []bool) {
	m.reverse = nil
	if reverse != nil {
		m.reverse = append([]bool{}, reverse...)
	}
	m.reset()
}

func (m *Mapper) SetPixelAnchor(a PixelAnchor) {
	m.anchor = a
	m.reset()
}

func (m *Mapper) GridExtent() (Extent, bool) {
	if m.extent == nil {
		return Extent{}, false
	}
	return *m.extent, true
}

func (m *Mapper) Envelope() (Envelope, bool) {
	if m.envelope == nil {
		return Envelope{}, false
	}
	return *m.envelope, true
}

func (m *Mapper) PixelAnchor() PixelAnchor {
	return m.anchor
}

// SwapXY returns whether the two first axes are swapped.
// Automatically, they are swapped if the crs of the envelope is (latitude, longitude)-ordered.
func (m *Mapper) SwapXY() bool {
	if m.swapXY != nil {
		return *m.swapXY
	}
	if m.envelope == nil || m.envelope.CRS == nil {
		return false
	}
	return m.envelope.CRS.IsLatLon()
}

// ReverseAxis returns, for each axis of the envelope, whether it is reversed.
// Automatically, the axes oriented South, West, Down or Past are reversed, then the
// vertical axis of the display (1, or 0 if the axes are swapped) is flipped, the rows
// of a grid going down.
func (m *Mapper) ReverseAxis() []bool {
	if m.reverse != nil {
		return append([]bool(nil), m.reverse...)
	}
	if m.envelope == nil {
		return nil
	}
	dim := m.envelope.Dimension()
	reverse := make([]bool, dim)
	if crs := m.envelope.CRS; crs != nil {
		for i := range reverse {
			if axis, err := crs.Axis(i); err == nil {
				reverse[i] = axis.Direction.IsDecreasing()
			}
		}
	}
	if dim >= 2 {
		i := 1
		if m.SwapXY() {
			i = 0
		}
		reverse[i] = !reverse[i]
	}
	return reverse
}

// CreateTransform returns the transform from grid indices to envelope coordinates
func (m *Mapper) CreateTransform() (*transform.Linear, error) {
	if m.transform == nil {
		t, err := m.createMatrix()
		if err != nil {
			return nil, err
		}
		m.transform = t
	}
	return transform.NewLinear(m.transform), nil
}

// CreateAffine returns the 2D transform from grid indices to envelope coordinates
func (m *Mapper) CreateAffine() (*affine.Affine, error) {
	t, err := m.CreateTransform()
	if err != nil {
		return nil, err
	}
	return t.Affine()
}

func (m *Mapper) createMatrix() (*matrix.Matrix, error) {
	if m.extent == nil {
		return nil, georef.NewIllegalState("grid extent is not set")
	}
	if m.envelope == nil {
		return nil, georef.NewIllegalState("envelope is not set")
	}
	if err := m.extent.validate(); err != nil {
		return nil, err
	}
	if len(m.envelope.Min) != len(m.envelope.Max) {
		return nil, georef.NewMismatchedDimension("envelope", len(m.envelope.Min), len(m.envelope.Max))
	}
	dim := m.extent.Dimension()
	if dim != m.envelope.Dimension() {
		return nil, georef.NewMismatchedDimension("envelope", dim, m.envelope.Dimension())
	}
	offset, ok := m.anchor.offset()
	if !ok {
		return nil, georef.NewIllegalState("unsupported pixel anchor: %v", m.anchor)
	}
	swap := m.SwapXY() && dim >= 2
	reverse := m.ReverseAxis()
	if len(reverse) != dim {
		return nil, georef.NewMismatchedDimension("reverse axis", dim, len(reverse))
	}

	t := matrix.New(dim+1, dim+1)
	for i := 0; i < dim; i++ {
		j := i
		if swap && i < 2 {
			j = 1 - i
		}
		scale := m.envelope.Span(j) / float64(m.extent.Span(i))
		ref := m.envelope.Min[j]
		if reverse[j] {
			scale = -scale
			ref = m.envelope.Max[j]
		}
		translation := ref - scale*(float64(m.extent.Low[i])-offset)
		if math.IsNaN(scale) || math.IsInf(scale, 0) || math.IsNaN(translation) || math.IsInf(translation, 0) {
			return nil, georef.NewInvalidArgument("envelope: dimension %d is not finite [%v, %v]", j, m.envelope.Min[j], m.envelope.Max[j])
		}
		t.Set(j, i, scale)
		t.Set(j, dim, translation)
	}
	return t, nil
}
