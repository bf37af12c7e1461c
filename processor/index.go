package processor

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	goeval "github.com/edisonguo/govaluate"

	"github.com/nci/gvi/metrics"
	"github.com/nci/gvi/utils"
)

// OutputNoData is the nodata sentinel of every raster produced by
// this package, independent of the input sentinels.
const OutputNoData = -9999.0

const DefaultExpression = "(nir - red) / (nir + red)"

const SizeofFloat32 = 4

// PixelExpression is a two band per-pixel formula over the variables
// red and nir. The default NDVI formula bypasses the evaluator with a
// direct float32 computation; any other formula is evaluated per
// pixel in float64. Go float arithmetic yields NaN and Inf without
// raising, so degenerate pixels surface as values to be remapped, not
// as evaluation errors.
type PixelExpression struct {
	expr    *goeval.EvaluableExpression
	rawExpr string
	isNDVI  bool
}

func NewPixelExpression(pattern string) (*PixelExpression, error) {
	pattern = strings.TrimSpace(pattern)
	if len(pattern) == 0 {
		pattern = DefaultExpression
	}

	expr, err := goeval.NewEvaluableExpression(pattern)
	if err != nil {
		return nil, err
	}

	validVariables := map[string]struct{}{"red": struct{}{}, "nir": struct{}{}}
	for _, token := range expr.Tokens() {
		if token.Kind == goeval.VARIABLE {
			varName, ok := token.Value.(string)
			if !ok {
				return nil, fmt.Errorf("variable token '%v' failed to cast string", token.Value)
			}
			if _, found := validVariables[varName]; !found {
				return nil, fmt.Errorf("variable %v is not supported. Valid variables are %v", varName, validVariables)
			}
		}
	}

	return &PixelExpression{
		expr:    expr,
		rawExpr: pattern,
		isNDVI:  pattern == DefaultExpression,
	}, nil
}

func (p *PixelExpression) String() string {
	return p.rawExpr
}

func (p *PixelExpression) evaluate(red, nir *utils.Float32Raster, out *utils.Float32Raster) error {
	if p.isNDVI {
		for i := range out.Data {
			out.Data[i] = (nir.Data[i] - red.Data[i]) / (nir.Data[i] + red.Data[i])
		}
		return nil
	}

	params := make(map[string]interface{}, 2)
	for i := range out.Data {
		params["red"] = float64(red.Data[i])
		params["nir"] = float64(nir.Data[i])
		val, err := p.expr.Evaluate(params)
		if err != nil {
			return fmt.Errorf("expression '%s' evaluation error at pixel %d: %v", p.rawExpr, i, err)
		}
		valF, ok := val.(float64)
		if !ok {
			return fmt.Errorf("expression '%s' does not evaluate to a number at pixel %d: %v", p.rawExpr, i, val)
		}
		out.Data[i] = float32(valF)
	}
	return nil
}

// Options carries the optional knobs of one transform run.
type Options struct {
	// Expression overrides the default NDVI formula. nil selects
	// the NDVI fast path.
	Expression *PixelExpression
	// Metrics, when non-nil, is filled with per-phase durations
	// and I/O volumes.
	Metrics *metrics.RunInfo
}

// Result summarises a successful transform.
type Result struct {
	Width        int
	Height       int
	NoDataPixels int
	ValidPixels  int
	// Profile is the derived metadata profile of the written
	// raster: the red band's profile with pixel type, band count
	// and nodata overridden.
	Profile *Profile
	// Warnings are flagged deviations that do not fail the run,
	// such as the inputs disagreeing on CRS or geotransform.
	Warnings []string
}

// buildNoDataMask marks every pixel at which either band carries its
// declared nodata sentinel. Sentinel comparison is exact. A band with
// no declared sentinel contributes nothing to the mask.
func buildNoDataMask(red, nir *utils.Float32Raster, redProfile, nirProfile *Profile) *utils.ByteRaster {
	mask := &utils.ByteRaster{
		NameSpace: "nodata_mask",
		Data:      make([]uint8, red.Width*red.Height),
		Width:     red.Width,
		Height:    red.Height,
	}

	if redProfile.HasNoData {
		redNoData := float32(redProfile.NoData)
		for i, val := range red.Data {
			if val == redNoData {
				mask.Data[i] = 255
			}
		}
	}

	if nirProfile.HasNoData {
		nirNoData := float32(nirProfile.NoData)
		for i, val := range nir.Data {
			if val == nirNoData {
				mask.Data[i] = 255
			}
		}
	}

	return mask
}

// applyNoDataMask overwrites both operands with NaN at every masked
// pixel so the division naturally yields NaN there.
func applyNoDataMask(mask *utils.ByteRaster, red, nir *utils.Float32Raster) {
	nan := float32(math.NaN())
	for i, flag := range mask.Data {
		if flag == 255 {
			red.Data[i] = nan
			nir.Data[i] = nan
		}
	}
}

// remapInvalid substitutes the raster's own nodata sentinel for
// every NaN or Inf pixel and returns the number of valid pixels
// kept.
func remapInvalid(raster *utils.Float32Raster) int {
	noData := float32(raster.GetNoData())
	valid := 0
	for i, val := range raster.Data {
		v64 := float64(val)
		if math.IsNaN(v64) || math.IsInf(v64, 0) {
			raster.Data[i] = noData
		} else {
			valid++
		}
	}
	return valid
}

func profileWarnings(redProfile, nirProfile *Profile) []string {
	var warnings []string
	if redProfile.Projection != nirProfile.Projection {
		warnings = append(warnings, "red and nir disagree on projection; pixel alignment is not verified")
	}
	if redProfile.GeoTransform != nirProfile.GeoTransform {
		warnings = append(warnings,
			fmt.Sprintf("red and nir disagree on geotransform: red %v, nir %v; pixel alignment is not verified",
				redProfile.GeoTransform, nirProfile.GeoTransform))
	}
	return warnings
}

// ComputeNDVI reads band 1 of the red and nir rasters, computes the
// per-pixel index with nodata propagation and writes the result as a
// single band Float32 GeoTIFF at outputPath. The output inherits the
// red band's dimensions, projection, geotransform, compression and
// tiling; its nodata is fixed at OutputNoData. No file is written on
// any failure path.
func ComputeNDVI(redPath, nirPath, outputPath string, opts Options) (*Result, error) {
	var missing []string
	for _, path := range []string{redPath, nirPath} {
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, path)
		}
	}
	if len(missing) > 0 {
		return nil, &InputNotFoundError{Paths: missing}
	}

	t0 := time.Now()
	red, redProfile, err := ReadBand(redPath, "red")
	if err != nil {
		return nil, &ProcessingError{Op: fmt.Sprintf("decode %s", redPath), Cause: err}
	}
	nir, nirProfile, err := ReadBand(nirPath, "nir")
	if err != nil {
		return nil, &ProcessingError{Op: fmt.Sprintf("decode %s", nirPath), Cause: err}
	}
	if opts.Metrics != nil {
		opts.Metrics.Read.Duration = time.Since(t0)
		opts.Metrics.Read.Bytes = int64(len(red.Data)+len(nir.Data)) * SizeofFloat32
	}

	if redProfile.Height != nirProfile.Height || redProfile.Width != nirProfile.Width {
		return nil, &ShapeMismatchError{
			RedWidth: redProfile.Width, RedHeight: redProfile.Height,
			NirWidth: nirProfile.Width, NirHeight: nirProfile.Height,
		}
	}

	expr := opts.Expression
	if expr == nil {
		expr, _ = NewPixelExpression(DefaultExpression)
	}

	t1 := time.Now()
	mask := buildNoDataMask(red, nir, redProfile, nirProfile)
	applyNoDataMask(mask, red, nir)

	out := &utils.Float32Raster{
		NameSpace: "ndvi",
		Data:      make([]float32, redProfile.Width*redProfile.Height),
		Width:     redProfile.Width,
		Height:    redProfile.Height,
		NoData:    OutputNoData,
	}
	if err := expr.evaluate(red, nir, out); err != nil {
		return nil, &ProcessingError{Op: "compute", Cause: err}
	}
	validPixels := remapInvalid(out)
	if opts.Metrics != nil {
		opts.Metrics.Compute.Duration = time.Since(t1)
	}

	outProfile := *redProfile
	outProfile.DataType = "Float32"
	outProfile.RasterCount = 1
	outProfile.NoData = OutputNoData
	outProfile.HasNoData = true

	t2 := time.Now()
	if err := WriteGTiff(outputPath, out, &outProfile); err != nil {
		return nil, &ProcessingError{Op: fmt.Sprintf("encode %s", outputPath), Cause: err}
	}
	if opts.Metrics != nil {
		opts.Metrics.Write.Duration = time.Since(t2)
		opts.Metrics.Write.Bytes = int64(len(out.Data)) * SizeofFloat32
		opts.Metrics.Shape = []int{redProfile.Height, redProfile.Width}
		opts.Metrics.NoDataPixels = len(out.Data) - validPixels
		opts.Metrics.ValidPixels = validPixels
	}

	return &Result{
		Width:        redProfile.Width,
		Height:       redProfile.Height,
		NoDataPixels: len(out.Data) - validPixels,
		ValidPixels:  validPixels,
		Profile:      &outProfile,
		Warnings:     profileWarnings(redProfile, nirProfile),
	}, nil
}
