package locgrid

import "math"

const (
	increasing = 1 << iota
	decreasing
)

// IsMonotonic returns true if, for x and y independently, all the rows are monotonic in the
// same direction and all the columns are monotonic in the same direction.
// NaN cells are skipped. If strict, two consecutive values cannot be equal.
func (g *Grid) IsMonotonic(strict bool) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.isMonotonic(g.gridX, strict) && g.isMonotonic(g.gridY, strict)
}

func (g *Grid) isMonotonic(grid []float64, strict bool) bool {
	flags := increasing | decreasing
	for row := 0; row < g.height; row++ {
		if flags = monotonicity(grid, row*g.width, 1, g.width, strict, flags); flags == 0 {
			return false
		}
	}
	flags = increasing | decreasing
	for col := 0; col < g.width; col++ {
		if flags = monotonicity(grid, col, g.width, g.height, strict, flags); flags == 0 {
			return false
		}
	}
	return true
}

// monotonicity scans num values from offset by step and returns the directions of flags
// that are still consistent with the values (0 if none)
func monotonicity(grid []float64, offset, step, num int, strict bool, flags int) int {
	old := math.NaN()
	for i := 0; i < num; i, offset = i+1, offset+step {
		v := grid[offset]
		if math.IsNaN(v) {
			continue
		}
		if !math.IsNaN(old) {
			switch {
			case v > old:
				flags &^= decreasing
			case v < old:
				flags &^= increasing
			case strict:
				return 0
			}
			if flags == 0 {
				return 0
			}
		}
		old = v
	}
	return flags
}

// RemoveSingularities replaces the runs of identical consecutive values by a linear
// interpolation between the first value of the run and the value following it.
// x and y are processed independently, first along the rows, then along the columns.
func (g *Grid) RemoveSingularities() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.beforeWrite()
	for _, grid := range [][]float64{g.gridX, g.gridY} {
		for row := 0; row < g.height; row++ {
			removeSingularities(grid, row*g.width, 1, g.width)
		}
		for col := 0; col < g.width; col++ {
			removeSingularities(grid, col, g.width, g.height)
		}
	}
	g.cache.invalidateAll()
}

func removeSingularities(grid []float64, offset, step, num int) {
	for i := 0; i < num-1; {
		first := grid[offset+i*step]
		j := i + 1
		for j < num && grid[offset+j*step] == first {
			j++
		}
		// [i, j) is a run of equal values, ended by the grid or by a different value
		if j-i >= 2 && j < num {
			if last := grid[offset+j*step]; !math.IsNaN(last) {
				delta := (last - first) / float64(j-i)
				for k := i + 1; k < j; k++ {
					grid[offset+k*step] = first + delta*float64(k-i)
				}
			}
		}
		i = j
	}
}
