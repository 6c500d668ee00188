package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/iandees/marblecutter/internal/encode"
	"github.com/iandees/marblecutter/internal/logging"
	"github.com/iandees/marblecutter/internal/render"
	"github.com/iandees/marblecutter/internal/xform"
	"github.com/iandees/marblecutter/pkg/geo"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "marblecutter",
	Short: "Render pixel-exact map tiles from raster datasets",
	Long: `marblecutter windows and resamples geospatial rasters into exact pixel
grids: give it a bounding box and a target size and it produces a PNG with
correct masking at any zoom level.

The bundled datasets are synthetic in-memory terrain; production
deployments plug a GDAL-backed driver in behind the same raster-access
interfaces.

Examples:
  # Render the north-west mercator quadrant at 512x512
  marblecutter --bbox=-20037508,0,0,20037508 --width 512 --height 512 -o tile.png

  # Hillshade the same region
  marblecutter --bbox=-20037508,0,0,20037508 --transform hillshade -o shade.png

  # Render a tile pyramid
  marblecutter pyramid --minzoom 0 --maxzoom 4 --transform terrarium ./tiles`,
	RunE: runRender,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.marblecutter.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text|json)")

	// Render flags
	rootCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	rootCmd.Flags().String("bbox", "", "bounding box as 'left,bottom,right,top' in the request CRS")
	rootCmd.Flags().Int("crs", int(geo.WebMercator), "EPSG code of the request CRS")
	rootCmd.Flags().Int("width", 256, "output width in pixels")
	rootCmd.Flags().Int("height", 256, "output height in pixels")
	rootCmd.Flags().Int("buffer", 0, "extra context pixels per side, kept in the output")
	rootCmd.Flags().StringP("transform", "t", "", "transformation to apply (hillshade|terrarium)")

	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log-format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("output", rootCmd.Flags().Lookup("output"))
	viper.BindPFlag("bbox", rootCmd.Flags().Lookup("bbox"))
	viper.BindPFlag("crs", rootCmd.Flags().Lookup("crs"))
	viper.BindPFlag("width", rootCmd.Flags().Lookup("width"))
	viper.BindPFlag("height", rootCmd.Flags().Lookup("height"))
	viper.BindPFlag("buffer", rootCmd.Flags().Lookup("buffer"))
	viper.BindPFlag("transform", rootCmd.Flags().Lookup("transform"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".marblecutter" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".marblecutter")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	logging.Setup(viper.GetString("log-level"), viper.GetString("log-format"))
}

func runRender(cmd *cobra.Command, args []string) error {
	crs := geo.CRS(viper.GetInt("crs"))

	bounds, err := parseBounds(viper.GetString("bbox"), crs)
	if err != nil {
		return err
	}

	shape, err := geo.NewShape(viper.GetInt("height"), viper.GetInt("width"))
	if err != nil {
		return err
	}

	transformation, err := parseTransform(viper.GetString("transform"))
	if err != nil {
		return err
	}

	renderer, err := demoRenderer()
	if err != nil {
		return err
	}

	out, err := renderer.Render(context.Background(), &render.Options{
		Bounds:         bounds,
		CRS:            crs,
		Shape:          shape,
		TargetCRS:      crs,
		Encoder:        encode.PNG,
		Transformation: transformation,
		Buffer:         viper.GetInt("buffer"),
	})
	if err != nil {
		return err
	}

	output := viper.GetString("output")
	if output == "" {
		if stat, _ := os.Stdout.Stat(); (stat.Mode() & os.ModeCharDevice) != 0 {
			return fmt.Errorf("didn't specify output file and standard output is a terminal")
		}
		_, err = os.Stdout.Write(out)
		return err
	}

	return os.WriteFile(output, out, 0o644)
}

// parseBounds parses 'left,bottom,right,top', falling back to the CRS's
// full world extent when empty.
func parseBounds(s string, crs geo.CRS) (geo.BoundingBox, error) {
	if s == "" {
		return geo.Extent(crs)
	}

	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geo.BoundingBox{}, fmt.Errorf("bbox must be in format 'left,bottom,right,top'")
	}

	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geo.BoundingBox{}, fmt.Errorf("invalid bbox value %q: %v", p, err)
		}
		vals[i] = v
	}

	return geo.NewBoundingBox(vals[0], vals[1], vals[2], vals[3])
}

func parseTransform(name string) (render.Transformation, error) {
	switch name {
	case "":
		return nil, nil
	case "hillshade":
		return xform.NewHillshade(), nil
	case "terrarium":
		return xform.Terrarium{}, nil
	default:
		return nil, fmt.Errorf("unknown transformation: %s", name)
	}
}
