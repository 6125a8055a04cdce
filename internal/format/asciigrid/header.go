// Package asciigrid reads and writes the header of ESRI ASCII grids
package asciigrid

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/airbusgeo/georef/internal/gridgeom"
	"github.com/airbusgeo/georef/internal/utils"
	"github.com/airbusgeo/georef/internal/utils/affine"
)

// Header of an ESRI ASCII grid:
//
//	ncols        4
//	nrows        6
//	xllcorner    0.0
//	yllcorner    0.0
//	cellsize     50.0
//	NODATA_value -9999
//
// xllcenter/yllcenter can replace xllcorner/yllcorner and dx/dy can replace cellsize.
type Header struct {
	NCols, NRows int
	// XLL, YLL is the lower-left corner of the grid, or the center of the lower-left cell if Center
	XLL, YLL float64
	Center   bool
	DX, DY   float64
	NoData   *float64
}

// ReadHeader reads the header lines of r, leaving r at the first line of values
func ReadHeader(r *bufio.Reader) (Header, error) {
	h := Header{DX: math.NaN(), DY: math.NaN(), XLL: math.NaN(), YLL: math.NaN()}
	ncols, nrows := false, false
	for {
		b, err := r.Peek(1)
		if err == io.EOF {
			break
		}
		if err != nil {
			return h, fmt.Errorf("asciigrid.ReadHeader: %w", err)
		}
		if c := b[0]; !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			break
		}
		line, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return h, fmt.Errorf("asciigrid.ReadHeader: %w", err)
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return h, fmt.Errorf("asciigrid.ReadHeader: malformed line '%s'", strings.TrimSpace(line))
		}
		key := strings.ToLower(fields[0])
		if key == "ncols" || key == "nrows" {
			n, err := strconv.Atoi(fields[1])
			if err != nil || n < 1 {
				return h, fmt.Errorf("asciigrid.ReadHeader: invalid %s: %s", key, fields[1])
			}
			if key == "ncols" {
				h.NCols, ncols = n, true
			} else {
				h.NRows, nrows = n, true
			}
			continue
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return h, fmt.Errorf("asciigrid.ReadHeader: invalid %s: %w", key, err)
		}
		switch key {
		case "xllcorner":
			h.XLL = v
		case "yllcorner":
			h.YLL = v
		case "xllcenter":
			h.XLL, h.Center = v, true
		case "yllcenter":
			h.YLL, h.Center = v, true
		case "cellsize":
			h.DX, h.DY = v, v
		case "dx":
			h.DX = v
		case "dy":
			h.DY = v
		case "nodata_value":
			h.NoData = &v
		default:
			return h, fmt.Errorf("asciigrid.ReadHeader: unknown key %s", fields[0])
		}
	}
	switch {
	case !ncols || !nrows:
		return h, fmt.Errorf("asciigrid.ReadHeader: ncols and nrows are mandatory")
	case math.IsNaN(h.XLL) || math.IsNaN(h.YLL):
		return h, fmt.Errorf("asciigrid.ReadHeader: the lower-left corner or center is mandatory")
	case !(h.DX > 0) || !(h.DY > 0):
		return h, fmt.Errorf("asciigrid.ReadHeader: cellsize must be strictly positive")
	}
	return h, nil
}

// WriteTo writes the header
func (h Header) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	xkey, ykey := "xllcorner", "yllcorner"
	if h.Center {
		xkey, ykey = "xllcenter", "yllcenter"
	}
	fmt.Fprintf(&sb, "ncols %d\nnrows %d\n%s %s\n%s %s\n", h.NCols, h.NRows, xkey, utils.F64ToS(h.XLL), ykey, utils.F64ToS(h.YLL))
	if h.DX == h.DY {
		fmt.Fprintf(&sb, "cellsize %s\n", utils.F64ToS(h.DX))
	} else {
		fmt.Fprintf(&sb, "dx %s\ndy %s\n", utils.F64ToS(h.DX), utils.F64ToS(h.DY))
	}
	if h.NoData != nil {
		fmt.Fprintf(&sb, "NODATA_value %s\n", utils.F64ToS(*h.NoData))
	}
	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

// GridToCRS returns the transform from the corner of the cells to crs coordinates (GDAL convention)
func (h Header) GridToCRS() (*affine.Affine, error) {
	xll, yll := h.XLL, h.YLL
	if h.Center {
		xll, yll = xll-h.DX/2, yll-h.DY/2
	}
	envelope, err := gridgeom.NewEnvelope(
		[]float64{xll, yll},
		[]float64{xll + h.DX*float64(h.NCols), yll + h.DY*float64(h.NRows)}, nil)
	if err != nil {
		return nil, fmt.Errorf("GridToCRS.%w", err)
	}
	extent, err := gridgeom.NewExtent([]int{0, 0}, []int{h.NCols, h.NRows})
	if err != nil {
		return nil, fmt.Errorf("GridToCRS.%w", err)
	}
	mapper := gridgeom.NewMapper()
	mapper.SetGridExtent(extent)
	mapper.SetEnvelope(envelope)
	mapper.SetPixelAnchor(gridgeom.CellCorner)
	return mapper.CreateAffine()
}

// HeaderFromAffine creates the header of a width×height grid georeferenced by a (GDAL convention).
// The grid must be north-up without rotation.
func HeaderFromAffine(a *affine.Affine, width, height int) (Header, error) {
	if a.HasRotation() {
		return Header{}, fmt.Errorf("asciigrid: rotated grids are not supported: %v", a)
	}
	if !(a.Rx() > 0) || !(a.Ry() < 0) {
		return Header{}, fmt.Errorf("asciigrid: the grid must be north-up: %v", a)
	}
	xll, yll := a.Transform(0, float64(height))
	return Header{NCols: width, NRows: height, XLL: xll, YLL: yll, DX: a.Rx(), DY: -a.Ry()}, nil
}
