// Package worldfile reads and writes the six-line world files (.tfw, .jgw...)
// that georeference raster images.
package worldfile

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/airbusgeo/georef/internal/utils"
	"github.com/airbusgeo/georef/internal/utils/affine"
)

// Read decodes a world file. The world file refers to the center of the upper-left pixel,
// the returned affine follows the GDAL convention (corner of the upper-left pixel).
func Read(r io.Reader) (*affine.Affine, error) {
	scanner := bufio.NewScanner(r)
	var v []float64
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if len(v) == 6 {
			return nil, fmt.Errorf("worldfile.Read: too many lines")
		}
		f, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, fmt.Errorf("worldfile.Read: line %d: %w", len(v)+1, err)
		}
		v = append(v, f)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("worldfile.Read: %w", err)
	}
	if len(v) != 6 {
		return nil, fmt.Errorf("worldfile.Read: expected 6 values, got %d", len(v))
	}
	// A, D, B, E, C, F
	a, d, b, e, c, f := v[0], v[1], v[2], v[3], v[4], v[5]
	return affine.NewAffine(c-a/2-b/2, a, b, f-d/2-e/2, d, e), nil
}

// Write encodes the GDAL affine a as a world file
func Write(w io.Writer, a *affine.Affine) error {
	c, f := a.Transform(0.5, 0.5)
	for _, v := range []float64{a[1], a[4], a[2], a[5], c, f} {
		if _, err := fmt.Fprintln(w, utils.F64ToS(v)); err != nil {
			return fmt.Errorf("worldfile.Write: %w", err)
		}
	}
	return nil
}

// Name returns the conventional name of the world file of an image:
// image.tif => image.tfw, image.jpeg => image.jgw
func Name(image string) string {
	ext := filepath.Ext(image)
	base := strings.TrimSuffix(image, ext)
	ext = strings.TrimPrefix(ext, ".")
	if len(ext) < 2 {
		return base + "." + ext + "w"
	}
	return base + "." + ext[:1] + ext[len(ext)-1:] + "w"
}
