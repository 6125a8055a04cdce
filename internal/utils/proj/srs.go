// Package proj binds the crs model of the toolkit to the spatial references of GDAL
// and computes the footprints of grids in lon/lat.
package proj

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/airbusgeo/godal"
)

const wgs84 = 4326

var epsgCache = struct {
	sync.Mutex
	refs map[int]*godal.SpatialRef
}{refs: map[int]*godal.SpatialRef{}}

// CRSFromEPSG returns the spatial reference of an EPSG code.
// References are shared between callers and must not be closed.
func CRSFromEPSG(epsg int) (*godal.SpatialRef, error) {
	epsgCache.Lock()
	defer epsgCache.Unlock()
	if sr := epsgCache.refs[epsg]; sr != nil {
		return sr, nil
	}
	sr, err := godal.NewSpatialRefFromEPSG(epsg)
	if err != nil {
		return nil, fmt.Errorf("CRSFromEPSG(%d): %w", epsg, err)
	}
	runtime.SetFinalizer(sr, func(sr *godal.SpatialRef) { sr.Close() })
	epsgCache.refs[epsg] = sr
	return sr, nil
}

// CRSFromUserInput parses "4326", "EPSG:4326", a proj4 string or a WKT.
// The returned reference belongs to the caller. The SRID is 0 when it cannot be identified.
func CRSFromUserInput(input string) (*godal.SpatialRef, int, error) {
	input = strings.TrimSpace(input)
	code := input
	if len(code) > 5 && strings.EqualFold(code[:4], "epsg") {
		code = code[5:]
	}
	if epsg, err := strconv.Atoi(code); err == nil {
		sr, err := godal.NewSpatialRefFromEPSG(epsg)
		if err != nil {
			return nil, 0, fmt.Errorf("CRSFromUserInput: %w", err)
		}
		return sr, epsg, nil
	} else if code != input {
		return nil, 0, fmt.Errorf("CRSFromUserInput: invalid epsg code '%s'", input)
	}

	var (
		sr  *godal.SpatialRef
		err error
	)
	if strings.HasPrefix(input, "+") {
		sr, err = godal.NewSpatialRefFromProj4(input)
	} else {
		sr, err = godal.NewSpatialRefFromWKT(input)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("CRSFromUserInput: %w", err)
	}
	return sr, Srid(sr), nil
}

// Srid returns the EPSG code of sr, or 0.
// GDAL is asked to identify the code when the definition does not carry it.
func Srid(sr *godal.SpatialRef) int {
	if sr == nil {
		return 0
	}
	for _, identify := range []bool{false, true} {
		if identify {
			sr.AutoIdentifyEPSG()
		}
		for _, node := range []string{"PROJCS", "LOCAL_CS", "GEOGCS"} {
			if sr.AuthorityName(node) != "EPSG" {
				continue
			}
			if code, err := strconv.Atoi(sr.AuthorityCode(node)); err == nil {
				return code
			}
		}
	}
	return 0
}

// toLonLat returns the transform from sr to lon/lat (traditional GIS order).
func toLonLat(sr *godal.SpatialRef) (*godal.Transform, error) {
	lonLat, err := CRSFromEPSG(wgs84)
	if err != nil {
		return nil, err
	}
	t, err := godal.NewTransform(sr, lonLat)
	if err != nil {
		return nil, fmt.Errorf("toLonLat: %w", err)
	}
	return t, nil
}
