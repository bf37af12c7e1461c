package main

/* ndvi is a batch transform computing the Normalized Difference
   Vegetation Index from two co-registered single band rasters
   (red and near-infrared reflectance). It reads band 1 of each
   input, masks pixels carrying either input's nodata sentinel,
   evaluates the index per pixel and writes a single band Float32
   GeoTIFF whose georeferencing is inherited from the red input.
   Invalid results (NaN, Inf) are written as the fixed nodata
   sentinel -9999. Configuration can be given on the command line
   or in a config.json document; flags take precedence. */

import (
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"github.com/nci/gvi/metrics"
	proc "github.com/nci/gvi/processor"
	"github.com/nci/gvi/utils"
)

var (
	redPath    = flag.String("red", "red.tif", "Red band raster path.")
	nirPath    = flag.String("nir", "nir.tif", "NIR band raster path.")
	outputPath = flag.String("o", "ndvi.tif", "Output raster path.")
	configFile = flag.String("conf", "", "Optional JSON config file.")
	expression = flag.String("expr", "", "Per-pixel formula over the variables red and nir. Defaults to the NDVI formula.")
	writeMeta  = flag.Bool("meta", false, "Write a YAML metadata sidecar next to the output raster.")
	logDir     = flag.String("log_dir", "", "Run metrics log directory. Metrics go to stdout if unset.")
	verbose    = flag.Bool("v", false, "Verbose mode for more outputs.")
)

var (
	Error *log.Logger
	Info  *log.Logger
)

const (
	exitNotFound      = 1
	exitShapeMismatch = 2
	exitProcessing    = 3
)

func init() {
	Error = log.New(os.Stderr, "NDVI: ", log.Ldate|log.Ltime|log.Lshortfile)
	Info = log.New(os.Stdout, "NDVI: ", log.Ldate|log.Ltime|log.Lshortfile)

	flag.Parse()

	utils.InitGdal()
}

// mergeConfig overlays the config file values with any flag set
// explicitly on the command line.
func mergeConfig(cfg *utils.Config) *utils.Config {
	if cfg == nil {
		cfg = &utils.Config{}
	}
	if cfg.RedPath == "" {
		cfg.RedPath = *redPath
	}
	if cfg.NirPath == "" {
		cfg.NirPath = *nirPath
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = *outputPath
	}
	if cfg.Expression == "" {
		cfg.Expression = *expression
	}
	if cfg.LogDir == "" {
		cfg.LogDir = *logDir
	}
	cfg.WriteMeta = cfg.WriteMeta || *writeMeta
	cfg.Verbose = cfg.Verbose || *verbose

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "red":
			cfg.RedPath = *redPath
		case "nir":
			cfg.NirPath = *nirPath
		case "o":
			cfg.OutputPath = *outputPath
		case "expr":
			cfg.Expression = *expression
		case "log_dir":
			cfg.LogDir = *logDir
		}
	})

	return cfg
}

func main() {
	var cfg *utils.Config
	if len(*configFile) > 0 {
		var err error
		cfg, err = utils.LoadConfig(*configFile)
		if err != nil {
			Error.Fatal(err)
		}
	}
	cfg = mergeConfig(cfg)

	expr, err := proc.NewPixelExpression(cfg.Expression)
	if err != nil {
		Error.Fatalf("invalid expression %q: %v", cfg.Expression, err)
	}

	var metricsLogger metrics.Logger
	if len(cfg.LogDir) > 0 {
		metricsLogger = metrics.NewFileLogger(cfg.LogDir, 0, 0, cfg.Verbose)
	} else {
		metricsLogger = metrics.NewStdoutLogger()
	}
	collector := metrics.NewCollector(metricsLogger)
	collector.Info.RedPath = cfg.RedPath
	collector.Info.NirPath = cfg.NirPath
	collector.Info.OutputPath = cfg.OutputPath
	collector.Info.Expression = expr.String()

	t0 := time.Now()
	res, err := proc.ComputeNDVI(cfg.RedPath, cfg.NirPath, cfg.OutputPath, proc.Options{
		Expression: expr,
		Metrics:    collector.Info,
	})
	collector.Info.RunDuration = time.Since(t0)

	if err != nil {
		collector.Info.Status = "error"
		collector.Log()
		Error.Println(err)

		var notFound *proc.InputNotFoundError
		var shapeMismatch *proc.ShapeMismatchError
		switch {
		case errors.As(err, &notFound):
			os.Exit(exitNotFound)
		case errors.As(err, &shapeMismatch):
			os.Exit(exitShapeMismatch)
		default:
			os.Exit(exitProcessing)
		}
	}

	for _, warn := range res.Warnings {
		Info.Printf("warning: %s", warn)
	}

	if cfg.WriteMeta {
		metaPath, err := proc.WriteMetaFile(cfg.OutputPath, proc.NewRasterMeta(cfg.OutputPath, cfg.RedPath, cfg.NirPath, expr.String(), res))
		if err != nil {
			Error.Println(err)
		} else if cfg.Verbose {
			Info.Printf("metadata sidecar written: %s", metaPath)
		}
	}

	collector.Info.Status = "OK"
	collector.Log()

	if cfg.Verbose {
		Info.Printf("%s written: shape (height:%d, width:%d), valid pixels: %d, nodata pixels: %d",
			cfg.OutputPath, res.Height, res.Width, res.ValidPixels, res.NoDataPixels)
	}
}
