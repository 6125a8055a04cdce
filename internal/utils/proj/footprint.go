package proj

import (
	"fmt"
	"math"

	"github.com/airbusgeo/georef/internal/utils/affine"
	"github.com/airbusgeo/godal"
	"github.com/twpayne/go-geom"
	"gonum.org/v1/gonum/floats"
)

const (
	earthRadius = 6371000.
	// an edge is densified until the polyline is closer than 1% of its length to the projected edge
	edgeTolerance = 0.01
	maxRefinement = 5
)

// Ring is a closed linear ring in the crs given by its SRID
type Ring struct {
	geom.LinearRing
}

// GeographicRing is a lon/lat ring whose edges follow geodesic lines
type GeographicRing struct{ Ring }

// GeometricRing is a lon/lat ring whose edges are straight in the lon/lat plane
type GeometricRing struct{ Ring }

// NewRingFlat wraps flat XY coordinates
func NewRingFlat(srid int, flatCoords []float64) Ring {
	r := geom.NewLinearRingFlat(geom.XY, flatCoords)
	r.SetSRID(srid)
	return Ring{*r}
}

// NewRingFromExtent returns the bounding ring of a grid of width×height cells,
// pixToCrs mapping the corner of the cells to crs coordinates.
func NewRingFromExtent(pixToCrs *affine.Affine, width, height, srid int) Ring {
	w, h := float64(width), float64(height)
	xs := []float64{0, w, w, 0}
	ys := []float64{0, 0, h, h}
	pixToCrs.TransformEx(xs, ys)
	x0, x1 := floats.Min(xs), floats.Max(xs)
	y0, y1 := floats.Min(ys), floats.Max(ys)
	return NewRingFlat(srid, []float64{x0, y0, x0, y1, x1, y1, x1, y0, x0, y0})
}

// Equal returns true if both rings have the same SRID and the same coordinates
func (ring *Ring) Equal(other *Ring) bool {
	return ring.SRID() == other.SRID() && floats.Equal(ring.FlatCoords(), other.FlatCoords())
}

// Polygon returns the polygon whose exterior is the ring
func (ring *Ring) Polygon() *geom.Polygon {
	p := geom.NewPolygonFlat(ring.Layout(), ring.FlatCoords(), []int{len(ring.FlatCoords())})
	p.SetSRID(ring.SRID())
	return p
}

// NewGeographicRingFromRing reprojects ring from crs to lon/lat, densifying the edges along geodesics
func NewGeographicRingFromRing(ring Ring, crs *godal.SpatialRef) (GeographicRing, error) {
	r, err := ring.toLonLat(crs, true)
	if err != nil {
		return GeographicRing{}, fmt.Errorf("NewGeographicRingFromRing.%w", err)
	}
	return GeographicRing{r}, nil
}

// NewGeometricRingFromRing reprojects ring from crs to lon/lat, densifying the edges in the lon/lat plane
func NewGeometricRingFromRing(ring Ring, crs *godal.SpatialRef) (GeometricRing, error) {
	r, err := ring.toLonLat(crs, false)
	if err != nil {
		return GeometricRing{}, fmt.Errorf("NewGeometricRingFromRing.%w", err)
	}
	return GeometricRing{r}, nil
}

// NewGeographicRingFromExtent returns the lon/lat footprint of a grid of width×height cells
func NewGeographicRingFromExtent(pixToCrs *affine.Affine, width, height int, crs *godal.SpatialRef) (GeographicRing, error) {
	return NewGeographicRingFromRing(NewRingFromExtent(pixToCrs, width, height, 0), crs)
}

// vertex is a point known both in the source crs and in lon/lat
type vertex struct {
	x, y, lon, lat float64
}

type densifier struct {
	t        *godal.Transform
	geodesic bool
}

func (d densifier) project(x, y float64) (vertex, error) {
	lon, lat := []float64{x}, []float64{y}
	if err := d.t.TransformEx(lon, lat, nil, nil); err != nil {
		return vertex{}, err
	}
	return vertex{x: x, y: y, lon: lon[0], lat: lat[0]}, nil
}

// midpoint returns the projection of the middle of the source segment
func (d densifier) midpoint(a, b vertex) (vertex, error) {
	return d.project((a.x+b.x)/2, (a.y+b.y)/2)
}

// refine returns the points to insert between a and b, at most 2^depth-1
func (d densifier) refine(a, b vertex, tolerance float64, depth int) ([]float64, error) {
	m, err := d.midpoint(a, b)
	if err != nil {
		return nil, err
	}
	lon, lat := lonLatMidPoint(a.lon, a.lat, b.lon, b.lat, d.geodesic)
	if lonLatDistance(m.lon, m.lat, lon, lat) <= tolerance {
		return nil, nil
	}
	if depth == 0 {
		return []float64{m.lon, m.lat}, nil
	}
	left, err := d.refine(a, m, tolerance, depth-1)
	if err != nil {
		return nil, err
	}
	right, err := d.refine(m, b, tolerance, depth-1)
	if err != nil {
		return nil, err
	}
	pts := append(left, m.lon, m.lat)
	return append(pts, right...), nil
}

// toLonLat projects the vertices of the ring in lon/lat and densifies each edge.
// The tolerance of an edge is relative to its length, measured through the projected midpoint.
func (ring Ring) toLonLat(crs *godal.SpatialRef, geodesic bool) (Ring, error) {
	t, err := toLonLat(crs)
	if err != nil {
		return Ring{}, err
	}
	defer t.Close()
	d := densifier{t: t, geodesic: geodesic}

	flat := ring.FlatCoords()
	vertices := make([]vertex, len(flat)/2)
	for i := range vertices {
		if vertices[i], err = d.project(flat[2*i], flat[2*i+1]); err != nil {
			return Ring{}, fmt.Errorf("toLonLat: %w", err)
		}
	}
	if len(vertices) == 0 {
		return NewRingFlat(wgs84, nil), nil
	}

	pts := make([]float64, 0, len(flat))
	for i := 0; i+1 < len(vertices); i++ {
		a, b := vertices[i], vertices[i+1]
		m, err := d.midpoint(a, b)
		if err != nil {
			return Ring{}, fmt.Errorf("toLonLat: %w", err)
		}
		tolerance := (lonLatDistance(a.lon, a.lat, m.lon, m.lat) + lonLatDistance(b.lon, b.lat, m.lon, m.lat)) * edgeTolerance
		inserted, err := d.refine(a, b, tolerance, maxRefinement)
		if err != nil {
			return Ring{}, fmt.Errorf("toLonLat: %w", err)
		}
		pts = append(append(pts, a.lon, a.lat), inserted...)
	}
	pts = append(pts, vertices[0].lon, vertices[0].lat)
	return NewRingFlat(wgs84, pts), nil
}

const (
	degToRad = math.Pi / 180
	radToDeg = 180 / math.Pi
)

func radians(deg float64) float64 { return degToRad * deg }
func degrees(rad float64) float64 { return radToDeg * rad }

// lonLatDistance returns the great circle distance in meters (spherical earth)
// TODO use Proj to compute the distance on the ellipsoid
func lonLatDistance(lon1, lat1, lon2, lat2 float64) float64 {
	phi1, phi2 := radians(lat1), radians(lat2)
	c := math.Sin(phi1)*math.Sin(phi2) + math.Cos(phi1)*math.Cos(phi2)*math.Cos(radians(lon2)-radians(lon1))
	if c > 1 {
		return 0
	}
	return earthRadius * math.Acos(c)
}

// lonLatMidPoint returns the middle of two lon/lat points, on the great circle if geodesic
func lonLatMidPoint(lon1, lat1, lon2, lat2 float64, geodesic bool) (float64, float64) {
	if !geodesic {
		return (lon1 + lon2) / 2, (lat1 + lat2) / 2
	}
	phi1, phi2 := radians(lat1), radians(lat2)
	lambda1, dLambda := radians(lon1), radians(lon2)-radians(lon1)
	bx, by := math.Cos(phi2)*math.Cos(dLambda), math.Cos(phi2)*math.Sin(dLambda)
	phi := math.Atan2(math.Sin(phi1)+math.Sin(phi2), math.Sqrt((math.Cos(phi1)+bx)*(math.Cos(phi1)+bx)+by*by))
	lambda := lambda1 + math.Atan2(by, math.Cos(phi1)+bx)
	return degrees(lambda), degrees(phi)
}
