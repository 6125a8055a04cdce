package locgrid

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/airbusgeo/georef/internal/utils"
)

// Read decodes a localization grid written as:
//
//	# comments and blank lines are ignored
//	width height
//	col row x y
//	...
//
// Cells that are not listed are left undefined (NaN).
func Read(r io.Reader) (*Grid, error) {
	scanner := bufio.NewScanner(r)
	var g *Grid
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if g == nil {
			if len(fields) != 2 {
				return nil, fmt.Errorf("locgrid.Read: line %d: expected 'width height', got '%s'", lineNumber, line)
			}
			width, err := strconv.Atoi(fields[0])
			if err != nil {
				return nil, fmt.Errorf("locgrid.Read: line %d: width: %w", lineNumber, err)
			}
			height, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("locgrid.Read: line %d: height: %w", lineNumber, err)
			}
			if g, err = New(width, height); err != nil {
				return nil, fmt.Errorf("locgrid.Read.%w", err)
			}
			continue
		}
		if len(fields) != 4 {
			return nil, fmt.Errorf("locgrid.Read: line %d: expected 'col row x y', got '%s'", lineNumber, line)
		}
		col, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("locgrid.Read: line %d: col: %w", lineNumber, err)
		}
		row, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("locgrid.Read: line %d: row: %w", lineNumber, err)
		}
		x, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("locgrid.Read: line %d: x: %w", lineNumber, err)
		}
		y, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, fmt.Errorf("locgrid.Read: line %d: y: %w", lineNumber, err)
		}
		if err := g.Set(col, row, x, y); err != nil {
			return nil, fmt.Errorf("locgrid.Read: line %d: %w", lineNumber, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("locgrid.Read: %w", err)
	}
	if g == nil {
		return nil, fmt.Errorf("locgrid.Read: missing header")
	}
	return g, nil
}

// WriteTo encodes the grid in the format understood by Read. Undefined cells are skipped.
func (g *Grid) WriteTo(w io.Writer) (int64, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	bw := bufio.NewWriter(w)
	var total int64
	write := func(s string) error {
		n, err := bw.WriteString(s)
		total += int64(n)
		return err
	}
	if err := write(fmt.Sprintf("%d %d\n", g.width, g.height)); err != nil {
		return total, err
	}
	for row, off := 0, 0; row < g.height; row++ {
		for col := 0; col < g.width; col, off = col+1, off+1 {
			x, y := g.gridX[off], g.gridY[off]
			if math.IsNaN(x) && math.IsNaN(y) {
				continue
			}
			if err := write(fmt.Sprintf("%d %d %s %s\n", col, row, utils.F64ToS(x), utils.F64ToS(y))); err != nil {
				return total, err
			}
		}
	}
	return total, bw.Flush()
}
