package gridgeom

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/airbusgeo/georef/internal/georef"
	"github.com/airbusgeo/georef/internal/log"
	"github.com/airbusgeo/georef/internal/utils/affine"
	"github.com/airbusgeo/georef/internal/utils/proj"
	"github.com/airbusgeo/godal"
	"go.uber.org/zap"
)

const maxGridSize = 1 << 20 // Arbitrarly defined for now

// GridGeometry is a regular grid of Width×Height cells in a given CRS
// parameters:
// - "crs" in gdal understandable format
// - "resolution" in crs unit
// - "ox", "oy" origin in crs unit (upper-left corner of the grid)
// - "width", "height" number of cells
// - "anchor" ("corner" by default): "center" if ox, oy is the center of the upper-left cell
type GridGeometry struct {
	CRS           *godal.SpatialRef
	SRID          int
	Model         *georef.CRS
	Width, Height int
	Resolution    float64
	envelope      Envelope
	pixToCRS      *affine.Affine
}

func invalidError(desc string, args ...interface{}) error {
	return georef.NewInvalidArgument("Invalid GridGeometry: "+desc, args...)
}

// NewFromParameters creates a grid geometry from parameters (see GridGeometry)
func NewFromParameters(ctx context.Context, parameters map[string]string) (*GridGeometry, error) {
	var gg GridGeometry

	// CRS
	var err error
	gg.CRS, gg.SRID, err = proj.CRSFromUserInput(parameters["crs"])
	if err != nil {
		return nil, invalidError("CRS parameters [\"crs\"=%v]: %v", parameters["crs"], err)
	}
	runtime.SetFinalizer(gg.CRS, func(crs *godal.SpatialRef) { crs.Close() })
	if gg.Model, err = proj.ToCRS(gg.CRS, gg.SRID); err != nil {
		return nil, invalidError("CRS parameters: %v", err)
	}

	// Size
	for _, p := range []struct {
		name  string
		value *int
	}{{"width", &gg.Width}, {"height", &gg.Height}} {
		*p.value, err = strconv.Atoi(parameters[p.name])
		if err != nil || *p.value < 1 || *p.value > maxGridSize {
			return nil, invalidError("%s parameter: must be an integer in [1, %d]", p.name, maxGridSize)
		}
	}

	// Resolution
	gg.Resolution, _ = strconv.ParseFloat(parameters["resolution"], 64)
	if gg.Resolution <= 0 {
		return nil, invalidError("Resolution parameters: must contain a valid 'resolution'")
	}

	// OriginX & OriginY
	var originX, originY float64
	if ox, ok := parameters["ox"]; ok {
		if originX, err = strconv.ParseFloat(ox, 64); err != nil {
			return nil, invalidError("Ox invalid parameter: " + ox)
		}
	}
	if oy, ok := parameters["oy"]; ok {
		if originY, err = strconv.ParseFloat(oy, 64); err != nil {
			return nil, invalidError("Oy invalid parameter: " + oy)
		}
	}
	anchor := CellCorner
	if a, ok := parameters["anchor"]; ok {
		if anchor, err = ParsePixelAnchor(a); err != nil {
			return nil, invalidError("Anchor parameter: %v", err)
		}
	}
	if anchor == CellCenter {
		originX, originY = originX-gg.Resolution/2, originY+gg.Resolution/2
	}

	// Envelope, in the (x, y) order of the raster geotransforms
	gg.envelope = Envelope{
		Min: []float64{originX, originY - gg.Resolution*float64(gg.Height)},
		Max: []float64{originX + gg.Resolution*float64(gg.Width), originY},
	}
	mapper := NewMapper()
	mapper.SetGridExtent(Extent{Low: []int{0, 0}, High: []int{gg.Width, gg.Height}})
	mapper.SetEnvelope(gg.envelope)
	mapper.SetSwapXY(false)
	mapper.SetPixelAnchor(CellCorner)
	if gg.pixToCRS, err = mapper.CreateAffine(); err != nil {
		return nil, fmt.Errorf("NewFromParameters.%w", err)
	}

	log.Logger(ctx).Debug("grid geometry created",
		zap.Int("srid", gg.SRID),
		zap.Int("width", gg.Width),
		zap.Int("height", gg.Height),
		zap.String("gridToCRS", gg.pixToCRS.String()))
	return &gg, nil
}

// GridToCRS returns the transform from the corner of the cells to crs coordinates (GDAL convention)
func (gg *GridGeometry) GridToCRS() *affine.Affine {
	return gg.pixToCRS.Clone()
}

// Envelope returns the envelope of the grid in (x, y) order
func (gg *GridGeometry) Envelope() Envelope {
	return Envelope{Min: append([]float64(nil), gg.envelope.Min...), Max: append([]float64(nil), gg.envelope.Max...)}
}

// Footprint returns the ring of the grid in crs coordinates
func (gg *GridGeometry) Footprint() proj.Ring {
	return proj.NewRingFromExtent(gg.pixToCRS, gg.Width, gg.Height, gg.SRID)
}

// GeographicFootprint returns the ring of the grid in lon/lat coordinates
func (gg *GridGeometry) GeographicFootprint() (proj.GeographicRing, error) {
	return proj.NewGeographicRingFromExtent(gg.pixToCRS, gg.Width, gg.Height, gg.CRS)
}
