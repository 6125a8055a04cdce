package georef

import (
	"fmt"
	"strings"
	"time"
)

// Kind is the closed set of coordinate reference systems handled by the toolkit
type Kind int

const (
	Geographic Kind = iota
	Projected
	Vertical
	Temporal
	Engineering
	Image
	Compound
)

func (k Kind) String() string {
	switch k {
	case Geographic:
		return "Geographic"
	case Projected:
		return "Projected"
	case Vertical:
		return "Vertical"
	case Temporal:
		return "Temporal"
	case Engineering:
		return "Engineering"
	case Image:
		return "Image"
	case Compound:
		return "Compound"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// AxisDirection is the direction of increasing values along a coordinate system axis
type AxisDirection int

const (
	DirectionOther AxisDirection = iota
	North
	South
	East
	West
	Up
	Down
	Future
	Past
	ColumnPositive
	ColumnNegative
	RowPositive
	RowNegative
	DisplayRight
	DisplayLeft
	DisplayUp
	DisplayDown
)

var directionNames = [...]string{"Other", "North", "South", "East", "West", "Up", "Down", "Future", "Past",
	"ColumnPositive", "ColumnNegative", "RowPositive", "RowNegative", "DisplayRight", "DisplayLeft", "DisplayUp", "DisplayDown"}

func (d AxisDirection) String() string {
	if d < 0 || int(d) >= len(directionNames) {
		return fmt.Sprintf("AxisDirection(%d)", int(d))
	}
	return directionNames[d]
}

// ParseAxisDirection returns the direction named s (case insensitive, OGC WKT names accepted)
func ParseAxisDirection(s string) (AxisDirection, error) {
	s = strings.ReplaceAll(strings.ToLower(s), "_", "")
	for i, n := range directionNames {
		if strings.ToLower(n) == s {
			return AxisDirection(i), nil
		}
	}
	return DirectionOther, NewInvalidArgument("unknown axis direction: %s", s)
}

// Absolute returns the "positive" direction of the axis: South => North, West => East...
func (d AxisDirection) Absolute() AxisDirection {
	switch d {
	case South:
		return North
	case West:
		return East
	case Down:
		return Up
	case Past:
		return Future
	case ColumnNegative:
		return ColumnPositive
	case RowNegative:
		return RowPositive
	case DisplayLeft:
		return DisplayRight
	case DisplayDown:
		return DisplayUp
	}
	return d
}

// IsDecreasing returns true for South, West, Down and Past
func (d AxisDirection) IsDecreasing() bool {
	switch d {
	case South, West, Down, Past:
		return true
	}
	return false
}

type Axis struct {
	Name         string
	Abbreviation string
	Direction    AxisDirection
	Unit         string
}

// TemporalDatum defines how dates are converted to numeric values
type TemporalDatum struct {
	Origin time.Time
	Unit   time.Duration
}

// ToValue converts t to a number of units since the origin
func (d TemporalDatum) ToValue(t time.Time) float64 {
	// t.Sub saturates after ~292 years
	secs := float64(t.Unix()-d.Origin.Unix()) + float64(t.Nanosecond()-d.Origin.Nanosecond())/1e9
	return secs / d.Unit.Seconds()
}

// ToTime converts a number of units since the origin to a date
func (d TemporalDatum) ToTime(v float64) time.Time {
	secs := v * d.Unit.Seconds()
	whole := int64(secs)
	return d.Origin.Add(time.Duration(whole) * time.Second).Add(time.Duration((secs - float64(whole)) * 1e9))
}

// CRS is a coordinate reference system.
// Axes is used by every kind but Compound, Components only by Compound and Datum only by Temporal.
type CRS struct {
	Kind       Kind
	Name       string
	SRID       int
	Axes       []Axis
	Components []*CRS
	Datum      TemporalDatum
}

var (
	// WGS84 with (longitude, latitude) axis order
	WGS84 = NewGeographic("WGS 84 (CRS84)", 4326, false)
	// WGS84LatLon with the (latitude, longitude) axis order defined by the EPSG authority
	WGS84LatLon = NewGeographic("WGS 84", 4326, true)

	JulianDay = NewTemporal("Julian", time.Date(-4713, time.November, 24, 12, 0, 0, 0, time.UTC), 24*time.Hour)
	UnixTime  = NewTemporal("Unix time", time.Unix(0, 0).UTC(), time.Second)
)

// NewGeographic creates a 2D geographic CRS in degrees
func NewGeographic(name string, srid int, latLon bool) *CRS {
	lon := Axis{Name: "Geodetic longitude", Abbreviation: "Lon", Direction: East, Unit: "degree"}
	lat := Axis{Name: "Geodetic latitude", Abbreviation: "Lat", Direction: North, Unit: "degree"}
	axes := []Axis{lon, lat}
	if latLon {
		axes = []Axis{lat, lon}
	}
	return &CRS{Kind: Geographic, Name: name, SRID: srid, Axes: axes}
}

// NewProjected creates a 2D projected CRS with (Easting, Northing) axes in metres
func NewProjected(name string, srid int) *CRS {
	return &CRS{Kind: Projected, Name: name, SRID: srid, Axes: []Axis{
		{Name: "Easting", Abbreviation: "E", Direction: East, Unit: "metre"},
		{Name: "Northing", Abbreviation: "N", Direction: North, Unit: "metre"},
	}}
}

// NewVertical creates a vertical CRS (gravity-related height when up is true, depth otherwise)
func NewVertical(name string, up bool) *CRS {
	axis := Axis{Name: "Gravity-related height", Abbreviation: "H", Direction: Up, Unit: "metre"}
	if !up {
		axis = Axis{Name: "Depth", Abbreviation: "D", Direction: Down, Unit: "metre"}
	}
	return &CRS{Kind: Vertical, Name: name, Axes: []Axis{axis}}
}

// NewTemporal creates a temporal CRS counting units since origin
func NewTemporal(name string, origin time.Time, unit time.Duration) *CRS {
	return &CRS{Kind: Temporal, Name: name,
		Axes:  []Axis{{Name: "Time", Abbreviation: "t", Direction: Future, Unit: unit.String()}},
		Datum: TemporalDatum{Origin: origin, Unit: unit},
	}
}

// NewImage creates a 2D image CRS (column, row)
func NewImage(name string) *CRS {
	return &CRS{Kind: Image, Name: name, Axes: []Axis{
		{Name: "Column", Abbreviation: "i", Direction: ColumnPositive},
		{Name: "Row", Abbreviation: "j", Direction: RowPositive},
	}}
}

// NewCompound creates a compound CRS from its components
func NewCompound(name string, components ...*CRS) *CRS {
	return &CRS{Kind: Compound, Name: name, Components: components}
}

// Dimension returns the number of axes of the crs
func (c *CRS) Dimension() int {
	if c == nil {
		return 0
	}
	if c.Kind == Compound {
		n := 0
		for _, comp := range c.Components {
			n += comp.Dimension()
		}
		return n
	}
	return len(c.Axes)
}

// Axis returns the i-th axis of the crs, components being flattened
func (c *CRS) Axis(i int) (Axis, error) {
	leaf, offset, ok := c.ComponentAt(i)
	if !ok {
		return Axis{}, NewIndexOutOfRange("axis", i, c.Dimension())
	}
	return leaf.Axes[i-offset], nil
}

// ComponentAt returns the single (non-compound) crs holding the axis at dimension dim,
// and the dimension of the first axis of this component.
func (c *CRS) ComponentAt(dim int) (*CRS, int, bool) {
	if c == nil || dim < 0 {
		return nil, 0, false
	}
	switch c.Kind {
	case Compound:
		offset := 0
		for _, comp := range c.Components {
			n := comp.Dimension()
			if dim < offset+n {
				leaf, sub, ok := comp.ComponentAt(dim - offset)
				return leaf, offset + sub, ok
			}
			offset += n
		}
		return nil, 0, false
	default:
		if dim >= len(c.Axes) {
			return nil, 0, false
		}
		return c, 0, true
	}
}

// TemporalComponent returns the temporal crs holding the axis at dimension dim, if any
func (c *CRS) TemporalComponent(dim int) (*CRS, bool) {
	leaf, _, ok := c.ComponentAt(dim)
	if !ok || leaf.Kind != Temporal {
		return nil, false
	}
	return leaf, true
}

// IsLatLon returns true if the first axis is oriented North-South and the second one East-West
func (c *CRS) IsLatLon() bool {
	if c.Dimension() < 2 {
		return false
	}
	a0, _ := c.Axis(0)
	a1, _ := c.Axis(1)
	return a0.Direction.Absolute() == North && a1.Direction.Absolute() == East
}

func (c *CRS) String() string {
	if c == nil {
		return "<nil>"
	}
	if c.Kind == Compound {
		names := make([]string, len(c.Components))
		for i, comp := range c.Components {
			names[i] = comp.String()
		}
		return fmt.Sprintf("%s[%s]", c.Name, strings.Join(names, " + "))
	}
	return fmt.Sprintf("%s(%s)", c.Name, c.Kind)
}
