package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/iandees/marblecutter/internal/encode"
	"github.com/iandees/marblecutter/internal/render"
	"github.com/iandees/marblecutter/pkg/geo"
)

var (
	minzoom    int
	maxzoom    int
	numWorkers int
)

var pyramidCmd = &cobra.Command{
	Use:   "pyramid [OUTDIR]",
	Short: "Render a tile pyramid into a directory of z/x/y.png files",
	Long: `pyramid renders every web-mercator tile intersecting the bounding box
across a zoom range. Requests are independent, so they are spread over a
worker pool; the engine itself stays single-threaded per request.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return errors.New("output directory is required")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if numWorkers < 1 {
			numWorkers = 1
		}
		if maxzoom < minzoom {
			return errors.New("maxzoom must be no smaller than minzoom")
		}
		return renderPyramid(args[0], cmd)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(pyramidCmd)

	pyramidCmd.Flags().IntVarP(&minzoom, "minzoom", "Z", 0, "minimum zoom level")
	pyramidCmd.Flags().IntVarP(&maxzoom, "maxzoom", "z", 2, "maximum zoom level")
	pyramidCmd.Flags().IntVarP(&numWorkers, "workers", "w", 4, "number of workers to render tiles")
	pyramidCmd.Flags().String("bbox", "", "bounding box as 'left,bottom,right,top' in EPSG:3857")
	pyramidCmd.Flags().StringP("transform", "t", "", "transformation to apply (hillshade|terrarium)")
}

type tileID struct {
	Zoom, X, Y int
}

func renderPyramid(outDir string, cmd *cobra.Command) error {
	bboxFlag, _ := cmd.Flags().GetString("bbox")
	bounds, err := parseBounds(bboxFlag, geo.WebMercator)
	if err != nil {
		return err
	}

	transformName, _ := cmd.Flags().GetString("transform")
	transformation, err := parseTransform(transformName)
	if err != nil {
		return err
	}

	renderer, err := demoRenderer()
	if err != nil {
		return err
	}

	total := 0
	for zoom := minzoom; zoom <= maxzoom; zoom++ {
		x0, y0, x1, y1 := tileRange(zoom, bounds)
		total += (x1 - x0 + 1) * (y1 - y0 + 1)
	}
	bar := progressbar.Default(int64(total), "rendering")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := make(chan tileID)
	go enqueueTiles(ctx, queue, bounds)

	var wg sync.WaitGroup
	errs := make(chan error, numWorkers)

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tile := range queue {
				if err := renderTile(ctx, renderer, transformation, outDir, tile); err != nil {
					select {
					case errs <- err:
						cancel()
					default:
					}
					return
				}
				bar.Add(1)
			}
		}()
	}

	wg.Wait()
	close(errs)
	return <-errs
}

// enqueueTiles feeds every tile in the zoom range to queue, stopping as
// soon as ctx is cancelled so the producer never outlives the workers.
func enqueueTiles(ctx context.Context, queue chan<- tileID, bounds geo.BoundingBox) {
	defer close(queue)
	for zoom := minzoom; zoom <= maxzoom; zoom++ {
		x0, y0, x1, y1 := tileRange(zoom, bounds)
		for x := x0; x <= x1; x++ {
			for y := y0; y <= y1; y++ {
				select {
				case queue <- tileID{Zoom: zoom, X: x, Y: y}:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

func renderTile(ctx context.Context, renderer *render.Renderer, transformation render.Transformation, outDir string, tile tileID) error {
	out, err := renderer.Render(ctx, &render.Options{
		Bounds:         geo.MercatorTileBounds(tile.Zoom, tile.X, tile.Y),
		CRS:            geo.WebMercator,
		Shape:          geo.Shape{Height: 256, Width: 256},
		TargetCRS:      geo.WebMercator,
		Encoder:        encode.PNG,
		Transformation: transformation,
	})
	if err != nil {
		return fmt.Errorf("tile %d/%d/%d: %w", tile.Zoom, tile.X, tile.Y, err)
	}

	dir := filepath.Join(outDir, fmt.Sprintf("%d/%d", tile.Zoom, tile.X))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, fmt.Sprintf("%d.png", tile.Y)), out, 0o644)
}

// tileRange returns the inclusive tile index range covering bounds at zoom.
func tileRange(zoom int, bounds geo.BoundingBox) (x0, y0, x1, y1 int) {
	n := 1 << uint(zoom)
	size := (2 * geo.OriginShift) / float64(n)

	x0 = clampTile(int((bounds.Left+geo.OriginShift)/size), n)
	x1 = clampTile(int((bounds.Right+geo.OriginShift-1e-9)/size), n)
	y0 = clampTile(int((geo.OriginShift-bounds.Top)/size), n)
	y1 = clampTile(int((geo.OriginShift-bounds.Bottom-1e-9)/size), n)
	return
}

func clampTile(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
