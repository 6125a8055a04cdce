package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/airbusgeo/georef/cmd"
	"github.com/airbusgeo/georef/interface/storage"
	"github.com/airbusgeo/georef/internal/format/asciigrid"
	"github.com/airbusgeo/georef/internal/format/worldfile"
	"github.com/airbusgeo/georef/internal/gridgeom"
	"github.com/airbusgeo/georef/internal/locgrid"
	"github.com/airbusgeo/georef/internal/log"
	"github.com/airbusgeo/georef/internal/transform"
	"github.com/airbusgeo/georef/internal/utils"
	"github.com/airbusgeo/georef/internal/utils/affine"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type fitOptions struct {
	Degree    int
	World     string
	ImageExt  string
	Smooth    bool
	Strict    bool
	Anchor    gridgeom.PixelAnchor
	Workers   int
	ASCHeader bool
}

type fitResult struct {
	URI       string
	Width     int
	Height    int
	Monotonic bool
	Undefined bool
	Affine    *affine.Affine
	Transform transform.Transform
	World     string
	ASCHeader string
}

func newFitCmd(storageConfig *cmd.StorageConfig) *cobra.Command {
	var (
		opts   fitOptions
		anchor string
	)
	fitCmd := &cobra.Command{
		Use:   "fit [flags] <grid uri>...",
		Short: "Fit the transforms of localization grids",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			var err error
			if opts.Anchor, err = gridgeom.ParsePixelAnchor(anchor); err != nil {
				return err
			}
			if opts.World != "" && opts.World != "auto" && len(args) > 1 {
				return fmt.Errorf("--world must be 'auto' when several grids are fitted")
			}
			return doFit(c.Context(), storageConfig.NewRouter(), opts, args, c.OutOrStdout())
		},
	}
	fitCmd.Flags().IntVar(&opts.Degree, "degree", 1, "`<Degree>` of the transform: 0 (grid), 1 (affine) or a polynomial degree up to 7")
	fitCmd.Flags().StringVar(&opts.World, "world", "", "`<Uri>` of the world file to write, 'auto' to write it next to each grid")
	fitCmd.Flags().StringVar(&opts.ImageExt, "image-ext", "tif", "extension of the image georeferenced by the grid (used by --world auto)")
	fitCmd.Flags().BoolVar(&opts.Smooth, "smooth", false, "remove the singularities of the grids before fitting")
	fitCmd.Flags().BoolVar(&opts.Strict, "strict", false, "check the strict monotonicity of the grids")
	fitCmd.Flags().StringVar(&anchor, "anchor", "center", "position of the grid nodes in the cells (center or corner)")
	fitCmd.Flags().IntVar(&opts.Workers, "workers", 4, "number of grids fitted in parallel")
	fitCmd.Flags().BoolVar(&opts.ASCHeader, "asc-header", false, "print the ESRI ASCII grid header equivalent to the fitted affine")
	return fitCmd
}

// worldURI returns the uri of the world file of the image georeferenced by the grid
func worldURI(gridURI, imageExt string) string {
	return worldfile.Name(strings.TrimSuffix(gridURI, path.Ext(gridURI)) + "." + imageExt)
}

func doFit(ctx context.Context, s storage.Strategy, opts fitOptions, uris []string, w io.Writer) error {
	results := make([]fitResult, len(uris))
	g, gctx := errgroup.WithContext(ctx)
	if opts.Workers > 0 {
		g.SetLimit(opts.Workers)
	}
	for i, uri := range uris {
		g.Go(func() error {
			res, err := fitGrid(log.With(gctx, "grid", uri), s, opts, uri)
			if err != nil {
				return fmt.Errorf("fit %s: %w", uri, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, res := range results {
		if err := report(w, res); err != nil {
			return err
		}
	}
	return nil
}

func fitGrid(ctx context.Context, s storage.Strategy, opts fitOptions, uri string) (fitResult, error) {
	res := fitResult{URI: uri}
	data, err := s.Download(ctx, uri)
	if err != nil {
		return res, err
	}
	grid, err := locgrid.Read(bytes.NewReader(data))
	if err != nil {
		return res, err
	}
	res.Width, res.Height = grid.Width(), grid.Height()
	res.Undefined = grid.HasUndefined()
	res.Monotonic = grid.IsMonotonic(opts.Strict)
	if opts.Smooth {
		grid.RemoveSingularities()
	}

	if res.Transform, err = grid.Transform(opts.Degree); err != nil {
		return res, err
	}
	res.Affine = grid.AffineTransform()
	if opts.Anchor == gridgeom.CellCenter {
		// nodes are the centers of the cells: the corner (0, 0) is the node (-0.5, -0.5)
		res.Affine = res.Affine.Multiply(affine.Translation(-0.5, -0.5))
	}

	if opts.ASCHeader {
		res.ASCHeader = asciiHeader(res.Affine, res.Width, res.Height)
	}

	switch opts.World {
	case "":
	case "auto":
		res.World = worldURI(uri, opts.ImageExt)
	default:
		res.World = opts.World
	}
	if res.World != "" {
		var buf bytes.Buffer
		if err := worldfile.Write(&buf, res.Affine); err != nil {
			return res, err
		}
		if err := s.Upload(ctx, res.World, buf.Bytes()); err != nil {
			return res, fmt.Errorf("write world file: %w", err)
		}
	}

	log.Logger(ctx).Info("grid fitted",
		zap.Int("width", res.Width),
		zap.Int("height", res.Height),
		zap.Bool("monotonic", res.Monotonic),
		zap.Bool("undefined", res.Undefined),
		zap.String("world", res.World))
	return res, nil
}

func report(w io.Writer, res fitResult) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %dx%d monotonic=%v undefined=%v\n", res.URI, res.Width, res.Height, res.Monotonic, res.Undefined)
	fmt.Fprintf(&sb, "  affine: %s\n", res.Affine.String())
	if p, ok := res.Transform.(*transform.Polynomial); ok {
		cx, cy := p.Coefficients()
		fmt.Fprintf(&sb, "  polynomial degree %d:\n    x: %s\n    y: %s\n", p.Degree(), joinFloats(cx), joinFloats(cy))
	}
	for _, node := range [][2]int{{0, 0}, {res.Width - 1, 0}, {res.Width - 1, res.Height - 1}, {0, res.Height - 1}} {
		x, y, err := transform.TransformXY(res.Transform, float64(node[0]), float64(node[1]))
		if err != nil {
			return fmt.Errorf("report %s: %w", res.URI, err)
		}
		fmt.Fprintf(&sb, "  (%d, %d) -> (%s, %s)\n", node[0], node[1], utils.F64ToS(x), utils.F64ToS(y))
	}
	if res.World != "" {
		fmt.Fprintf(&sb, "  world file: %s\n", res.World)
	}
	if res.ASCHeader != "" {
		fmt.Fprintf(&sb, "  ascii header:\n%s", res.ASCHeader)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// asciiHeader returns the indented lines of the ESRI ASCII header of the grid,
// or the reason why the affine cannot be expressed by such a header
func asciiHeader(a *affine.Affine, width, height int) string {
	h, err := asciigrid.HeaderFromAffine(a, width, height)
	if err != nil {
		return "    " + err.Error() + "\n"
	}
	var buf bytes.Buffer
	h.WriteTo(&buf)
	var sb strings.Builder
	for _, line := range strings.SplitAfter(buf.String(), "\n") {
		if line != "" {
			sb.WriteString("    " + line)
		}
	}
	return sb.String()
}

func joinFloats(vs []float64) string {
	s := make([]string, len(vs))
	for i, v := range vs {
		s[i] = utils.F64ToS(v)
	}
	return strings.Join(s, " ")
}
