package gridgeom

import (
	"fmt"
	"strings"
)

// PixelAnchor is the point of a cell that the grid indices refer to
type PixelAnchor int

const (
	CellCenter PixelAnchor = iota
	CellCorner
)

func (a PixelAnchor) String() string {
	switch a {
	case CellCenter:
		return "center"
	case CellCorner:
		return "corner"
	}
	return fmt.Sprintf("PixelAnchor(%d)", int(a))
}

// ParsePixelAnchor parses "center" or "corner"
func ParsePixelAnchor(s string) (PixelAnchor, error) {
	switch strings.ToLower(s) {
	case "center", "cell_center", "point":
		return CellCenter, nil
	case "corner", "cell_corner", "area":
		return CellCorner, nil
	}
	return 0, fmt.Errorf("unknown pixel anchor: %s", s)
}

// offset returns the position of the anchor inside the cell
func (a PixelAnchor) offset() (float64, bool) {
	switch a {
	case CellCenter:
		return 0.5, true
	case CellCorner:
		return 0, true
	}
	return 0, false
}
