package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"

	"github.com/airbusgeo/georef/cmd"
	"github.com/airbusgeo/georef/interface/storage"
	"github.com/airbusgeo/georef/internal/format/asciigrid"
	"github.com/airbusgeo/georef/internal/georef"
	"github.com/airbusgeo/georef/internal/gridgeom"
	"github.com/airbusgeo/georef/internal/log"
	"github.com/airbusgeo/georef/internal/utils"
	"github.com/airbusgeo/georef/internal/utils/proj"
	"github.com/airbusgeo/godal"
	"github.com/spf13/cobra"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

type envelopeOptions struct {
	Width, Height int
	BBox          string
	CRS           string
	Anchor        gridgeom.PixelAnchor
	GeoJSON       bool
	Out           string
	FromASC       string
}

func newEnvelopeCmd(storageConfig *cmd.StorageConfig) *cobra.Command {
	var (
		opts   envelopeOptions
		anchor string
	)
	envelopeCmd := &cobra.Command{
		Use:   "envelope [flags]",
		Short: "Map a grid onto an envelope",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			var err error
			if opts.Anchor, err = gridgeom.ParsePixelAnchor(anchor); err != nil {
				return err
			}
			return doEnvelope(c.Context(), storageConfig.NewRouter(), opts, c.OutOrStdout())
		},
	}
	envelopeCmd.Flags().IntVar(&opts.Width, "width", 0, "`<Width>` of the grid in cells")
	envelopeCmd.Flags().IntVar(&opts.Height, "height", 0, "`<Height>` of the grid in cells")
	envelopeCmd.Flags().StringVar(&opts.BBox, "bbox", "", "`<min0,min1,max0,max1>` envelope in the axis order of the crs")
	envelopeCmd.Flags().StringVar(&opts.CRS, "crs", "", "`<Crs>` of the envelope (EPSG code, proj4 or WKT)")
	envelopeCmd.Flags().StringVar(&anchor, "anchor", "center", "cell anchor mapped onto the envelope (center or corner)")
	envelopeCmd.Flags().BoolVar(&opts.GeoJSON, "geojson", false, "print the footprint of the grid as a GeoJSON feature in lon/lat")
	envelopeCmd.Flags().StringVar(&opts.Out, "out", "", "`<Uri>` where the GeoJSON footprint is written instead of the standard output")
	envelopeCmd.Flags().StringVar(&opts.FromASC, "from-asc", "", "`<Uri>` of an ESRI ASCII grid whose header gives the size and the bbox")
	envelopeCmd.MarkFlagsOneRequired("bbox", "from-asc")
	envelopeCmd.MarkFlagsMutuallyExclusive("bbox", "from-asc")
	return envelopeCmd
}

func doEnvelope(ctx context.Context, s storage.Strategy, opts envelopeOptions, w io.Writer) error {
	var (
		bbox []float64
		err  error
	)
	if opts.FromASC != "" {
		if bbox, err = readASCIIHeader(ctx, s, &opts); err != nil {
			return err
		}
	} else if bbox, err = utils.ParseFloats(opts.BBox, ","); err != nil {
		return err
	}
	if len(bbox) != 4 {
		return fmt.Errorf("bbox must contain 4 values, got %d", len(bbox))
	}
	if opts.Width < 1 || opts.Height < 1 {
		return fmt.Errorf("invalid grid size %dx%d", opts.Width, opts.Height)
	}

	var (
		sr    *godal.SpatialRef
		srid  int
		model *georef.CRS
	)
	if opts.CRS != "" {
		if sr, srid, err = proj.CRSFromUserInput(opts.CRS); err != nil {
			return err
		}
		defer sr.Close()
		if model, err = proj.ToCRS(sr, srid); err != nil {
			return err
		}
		if opts.FromASC != "" && model.IsLatLon() {
			// ascii grids are in (x, y) order
			bbox = []float64{bbox[1], bbox[0], bbox[3], bbox[2]}
		}
	}

	envelope, err := gridgeom.NewEnvelope(bbox[:2], bbox[2:], model)
	if err != nil {
		return err
	}
	extent := gridgeom.ExtentFromRect(image.Rect(0, 0, opts.Width, opts.Height))
	mapper := gridgeom.NewMapper()
	mapper.SetGridExtent(extent)
	mapper.SetEnvelope(envelope)
	mapper.SetPixelAnchor(opts.Anchor)
	t, err := mapper.CreateTransform()
	if err != nil {
		return err
	}
	log.Logger(ctx).Debug("grid mapped", zap.String("anchor", opts.Anchor.String()), zap.Bool("swapXY", mapper.SwapXY()))

	if !opts.GeoJSON {
		_, err := fmt.Fprintf(w, "swapXY=%v reverse=%v\n%s\n", mapper.SwapXY(), mapper.ReverseAxis(), t.Matrix().String())
		return err
	}

	feature, err := footprint(mapper, envelope, opts, sr, srid)
	if err != nil {
		return err
	}
	data, err := json.Marshal(feature)
	if err != nil {
		return fmt.Errorf("encode footprint: %w", err)
	}
	if opts.Out != "" {
		return s.Upload(ctx, opts.Out, data)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// readASCIIHeader sets the size of the grid from the header of an ESRI ASCII grid
// and returns its bbox in (x, y) order
func readASCIIHeader(ctx context.Context, s storage.Strategy, opts *envelopeOptions) ([]float64, error) {
	data, err := s.Download(ctx, opts.FromASC)
	if err != nil {
		return nil, err
	}
	h, err := asciigrid.ReadHeader(bufio.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, err
	}
	a, err := h.GridToCRS()
	if err != nil {
		return nil, err
	}
	opts.Width, opts.Height = h.NCols, h.NRows
	xmin, ymax := a.Transform(0, 0)
	xmax, ymin := a.Transform(float64(h.NCols), float64(h.NRows))
	log.Logger(ctx).Debug("ascii grid header read", zap.String("uri", opts.FromASC), zap.String("gridToCRS", a.String()))
	return []float64{xmin, ymin, xmax, ymax}, nil
}

// footprint returns the outline of the cells as a GeoJSON feature, in lon/lat if the crs is known
func footprint(mapper *gridgeom.Mapper, envelope gridgeom.Envelope, opts envelopeOptions, sr *godal.SpatialRef, srid int) (*geojson.Feature, error) {
	// GDAL convention: (x, y) envelope, cell corners, rows going down
	xy := gridgeom.Envelope{Min: envelope.Min, Max: envelope.Max}
	if mapper.SwapXY() {
		xy.Min = []float64{envelope.Min[1], envelope.Min[0]}
		xy.Max = []float64{envelope.Max[1], envelope.Max[0]}
	}
	gdal := gridgeom.NewMapper()
	gdal.SetGridExtent(gridgeom.ExtentFromRect(image.Rect(0, 0, opts.Width, opts.Height)))
	gdal.SetEnvelope(xy)
	gdal.SetSwapXY(false)
	gdal.SetReverseAxis([]bool{false, true})
	gdal.SetPixelAnchor(gridgeom.CellCorner)
	a, err := gdal.CreateAffine()
	if err != nil {
		return nil, err
	}

	ring := proj.NewRingFromExtent(a, opts.Width, opts.Height, srid)
	if sr != nil && srid != 4326 {
		geographic, err := proj.NewGeographicRingFromRing(ring, sr)
		if err != nil {
			return nil, fmt.Errorf("footprint: %w", err)
		}
		ring = geographic.Ring
	}
	return &geojson.Feature{
		Geometry: ring.Polygon(),
		Properties: map[string]interface{}{
			"width":  opts.Width,
			"height": opts.Height,
			"crs":    opts.CRS,
		},
	}, nil
}
