package proj

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/airbusgeo/georef/internal/georef"
	"github.com/airbusgeo/georef/internal/utils"
	"github.com/airbusgeo/godal"
)

var (
	wktNameRegex = regexp.MustCompile(`^\s*(?P<kind>[A-Z_]+)\[\s*"(?P<name>[^"]*)"`)
	wktAxisRegex = regexp.MustCompile(`AXIS\[\s*"([^"]*)"\s*,\s*([A-Za-z_]+)`)
)

var wktKinds = map[string]georef.Kind{
	"GEOGCS":        georef.Geographic,
	"GEOGCRS":       georef.Geographic,
	"GEOGRAPHICCRS": georef.Geographic,
	"GEODCRS":       georef.Geographic,
	"PROJCS":        georef.Projected,
	"PROJCRS":       georef.Projected,
	"PROJECTEDCRS":  georef.Projected,
	"VERT_CS":       georef.Vertical,
	"VERTCRS":       georef.Vertical,
	"LOCAL_CS":      georef.Engineering,
	"ENGCRS":        georef.Engineering,
}

// ToCRS describes a spatial reference with the crs model.
// The axes are given in the order defined by the authority.
func ToCRS(sr *godal.SpatialRef, srid int) (*georef.CRS, error) {
	wkt, err := sr.WKT()
	if err != nil {
		return nil, fmt.Errorf("ToCRS: %w", err)
	}
	return CRSFromWKT(wkt, srid)
}

// CRSFromWKT parses the kind, the name and the axes of a WKT1 or WKT2 crs.
// When the WKT does not define the axes, the default ones of the kind are used:
// (longitude, latitude) for geographic crs and (easting, northing) for projected crs.
func CRSFromWKT(wkt string, srid int) (*georef.CRS, error) {
	groups, err := utils.FindRegexGroups(wktNameRegex, wkt)
	if err != nil {
		return nil, georef.NewInvalidArgument("CRSFromWKT: not a WKT: %s", wkt)
	}
	kind, ok := wktKinds[strings.ToUpper(groups["kind"])]
	if !ok {
		return nil, georef.NewInvalidArgument("CRSFromWKT: unsupported crs kind: %s", groups["kind"])
	}

	var crs *georef.CRS
	switch kind {
	case georef.Geographic:
		crs = georef.NewGeographic(groups["name"], srid, false)
	case georef.Projected:
		crs = georef.NewProjected(groups["name"], srid)
	case georef.Vertical:
		crs = georef.NewVertical(groups["name"], true)
	default:
		crs = &georef.CRS{Kind: kind, Name: groups["name"], Axes: []georef.Axis{
			{Name: "x", Abbreviation: "x", Direction: georef.East},
			{Name: "y", Abbreviation: "y", Direction: georef.North},
		}}
	}
	crs.SRID = srid

	// Axes of the base crs come first: the last ones belong to the crs itself
	matches := wktAxisRegex.FindAllStringSubmatch(wkt, -1)
	if n := len(crs.Axes); len(matches) >= n {
		matches = matches[len(matches)-n:]
		for i, m := range matches {
			d, err := georef.ParseAxisDirection(m[2])
			if err != nil {
				d = georef.DirectionOther
			}
			crs.Axes[i] = georef.Axis{Name: m[1], Abbreviation: abbreviation(m[1]), Direction: d, Unit: crs.Axes[i].Unit}
		}
	}
	return crs, nil
}

// abbreviation extracts "Lat" from "geodetic latitude (Lat)"
func abbreviation(name string) string {
	if i, j := strings.LastIndex(name, "("), strings.LastIndex(name, ")"); i >= 0 && j > i {
		return name[i+1 : j]
	}
	if name == "" {
		return ""
	}
	return name[:1]
}
