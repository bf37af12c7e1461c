package processor

import (
	"errors"
	"math"
	"testing"

	"github.com/nci/gvi/utils"
)

func newTestRaster(data []float32, width, height int, noData float64) *utils.Float32Raster {
	return &utils.Float32Raster{Data: data, Width: width, Height: height, NoData: noData}
}

func TestBuildNoDataMask(t *testing.T) {
	red := newTestRaster([]float32{0.1, 0.2, 0.3, 0.3}, 2, 2, 0.3)
	nir := newTestRaster([]float32{0.4, 0.1, 0.3, 0.5}, 2, 2, 0)

	redProfile := &Profile{Width: 2, Height: 2, NoData: 0.3, HasNoData: true}
	nirProfile := &Profile{Width: 2, Height: 2}

	mask := buildNoDataMask(red, nir, redProfile, nirProfile)
	expected := []uint8{0, 0, 255, 255}
	for i, val := range mask.Data {
		if val != expected[i] {
			t.Errorf("unexpected mask: expected %v, actual %v", expected, mask.Data)
			return
		}
	}
}

func TestBuildNoDataMaskNoSentinels(t *testing.T) {
	red := newTestRaster([]float32{0.1, 0.2}, 2, 1, 0)
	nir := newTestRaster([]float32{0.4, 0.1}, 2, 1, 0)

	mask := buildNoDataMask(red, nir, &Profile{Width: 2, Height: 1}, &Profile{Width: 2, Height: 1})
	for i, val := range mask.Data {
		if val != 0 {
			t.Errorf("pixel %d masked with no declared sentinels", i)
			return
		}
	}
}

func TestBuildNoDataMaskEitherBand(t *testing.T) {
	red := newTestRaster([]float32{-999, 0.2, 0.3, 0.4}, 2, 2, -999)
	nir := newTestRaster([]float32{0.4, -32768, 0.3, 0.5}, 2, 2, -32768)

	redProfile := &Profile{Width: 2, Height: 2, NoData: -999, HasNoData: true}
	nirProfile := &Profile{Width: 2, Height: 2, NoData: -32768, HasNoData: true}

	mask := buildNoDataMask(red, nir, redProfile, nirProfile)
	expected := []uint8{255, 255, 0, 0}
	for i, val := range mask.Data {
		if val != expected[i] {
			t.Errorf("unexpected mask: expected %v, actual %v", expected, mask.Data)
			return
		}
	}
}

func TestApplyNoDataMask(t *testing.T) {
	red := newTestRaster([]float32{0.1, 0.2}, 2, 1, 0)
	nir := newTestRaster([]float32{0.4, 0.1}, 2, 1, 0)
	mask := &utils.ByteRaster{Data: []uint8{0, 255}, Width: 2, Height: 1}

	applyNoDataMask(mask, red, nir)

	if red.Data[0] != 0.1 || nir.Data[0] != 0.4 {
		t.Errorf("unmasked pixel was modified: red %v, nir %v", red.Data[0], nir.Data[0])
	}
	if !math.IsNaN(float64(red.Data[1])) || !math.IsNaN(float64(nir.Data[1])) {
		t.Errorf("masked pixel operands not NaN: red %v, nir %v", red.Data[1], nir.Data[1])
	}
}

func TestRemapInvalid(t *testing.T) {
	nan := float32(math.NaN())
	posInf := float32(math.Inf(1))
	negInf := float32(math.Inf(-1))

	raster := newTestRaster([]float32{0.6, nan, posInf, negInf, -0.25, 1.5}, 6, 1, OutputNoData)
	valid := remapInvalid(raster)

	if valid != 3 {
		t.Errorf("unexpected valid pixel count: expected 3, actual %d", valid)
	}

	expected := []float32{0.6, OutputNoData, OutputNoData, OutputNoData, -0.25, 1.5}
	for i, val := range raster.Data {
		if val != expected[i] {
			t.Errorf("unexpected remap: expected %v, actual %v", expected, raster.Data)
			return
		}
	}
}

// The worked scenario: red sentinel 0.3 masks the whole bottom row,
// nir declares no sentinel, the remaining pixels carry the plain
// float32 ratio.
func TestNDVIScenario(t *testing.T) {
	red := newTestRaster([]float32{0.1, 0.2, 0.3, 0.3}, 2, 2, 0.3)
	nir := newTestRaster([]float32{0.4, 0.1, 0.3, 0.5}, 2, 2, 0)

	redProfile := &Profile{Width: 2, Height: 2, NoData: 0.3, HasNoData: true}
	nirProfile := &Profile{Width: 2, Height: 2}

	mask := buildNoDataMask(red, nir, redProfile, nirProfile)
	applyNoDataMask(mask, red, nir)

	expr, err := NewPixelExpression("")
	if err != nil {
		t.Fatalf("failed to build default expression: %v", err)
	}

	out := newTestRaster(make([]float32, 4), 2, 2, OutputNoData)
	if err := expr.evaluate(red, nir, out); err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	remapInvalid(out)

	r0, n0 := float32(0.1), float32(0.4)
	r1, n1 := float32(0.2), float32(0.1)
	expected := []float32{
		(n0 - r0) / (n0 + r0),
		(n1 - r1) / (n1 + r1),
		OutputNoData,
		OutputNoData,
	}
	for i, val := range out.Data {
		if val != expected[i] {
			t.Errorf("unexpected ndvi: expected %v, actual %v", expected, out.Data)
			return
		}
	}
}

// 0/0 with neither band flagged nodata is data, not an error, and
// lands on the output sentinel.
func TestNDVIZeroDenominator(t *testing.T) {
	red := newTestRaster([]float32{0, 0.2}, 2, 1, 0)
	nir := newTestRaster([]float32{0, 0.1}, 2, 1, 0)

	expr, _ := NewPixelExpression(DefaultExpression)
	out := newTestRaster(make([]float32, 2), 2, 1, OutputNoData)
	if err := expr.evaluate(red, nir, out); err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	remapInvalid(out)

	if out.Data[0] != OutputNoData {
		t.Errorf("0/0 pixel not remapped to sentinel: %v", out.Data[0])
	}
	r1, n1 := float32(0.2), float32(0.1)
	expected := (n1 - r1) / (n1 + r1)
	if out.Data[1] != expected {
		t.Errorf("unexpected value: expected %v, actual %v", expected, out.Data[1])
	}
}

func TestPixelExpressionCustom(t *testing.T) {
	expr, err := NewPixelExpression("nir / red")
	if err != nil {
		t.Fatalf("failed to parse expression: %v", err)
	}
	if expr.isNDVI {
		t.Errorf("custom expression took the NDVI fast path")
	}

	red := newTestRaster([]float32{0.5, 2}, 2, 1, 0)
	nir := newTestRaster([]float32{1, 1}, 2, 1, 0)
	out := newTestRaster(make([]float32, 2), 2, 1, OutputNoData)
	if err := expr.evaluate(red, nir, out); err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}

	if out.Data[0] != 2 || out.Data[1] != 0.5 {
		t.Errorf("unexpected ratio values: %v", out.Data)
	}
}

func TestPixelExpressionUnknownVariable(t *testing.T) {
	if _, err := NewPixelExpression("(nir - blue) / (nir + blue)"); err == nil {
		t.Errorf("expected unknown variable to be rejected")
	}
}

func TestPixelExpressionDefault(t *testing.T) {
	expr, err := NewPixelExpression("   ")
	if err != nil {
		t.Fatalf("failed to build default expression: %v", err)
	}
	if !expr.isNDVI {
		t.Errorf("blank expression did not select the NDVI fast path")
	}
	if expr.String() != DefaultExpression {
		t.Errorf("unexpected expression string: %v", expr.String())
	}
}

func TestProfileWarnings(t *testing.T) {
	a := &Profile{Projection: "EPSG:4326", GeoTransform: [6]float64{-179, 0.359, 0, 80, 0, -0.16}}
	b := &Profile{Projection: "EPSG:4326", GeoTransform: [6]float64{-179, 0.359, 0, 80, 0, -0.16}}
	if warnings := profileWarnings(a, b); len(warnings) != 0 {
		t.Errorf("unexpected warnings for matching profiles: %v", warnings)
	}

	c := &Profile{Projection: "EPSG:3857", GeoTransform: [6]float64{0, 1, 0, 0, 0, 1}}
	if warnings := profileWarnings(a, c); len(warnings) != 2 {
		t.Errorf("expected projection and geotransform warnings, got: %v", warnings)
	}
}

func TestErrorTaxonomy(t *testing.T) {
	underlying := errors.New("corrupt header")
	var err error = &ProcessingError{Op: "decode red.tif", Cause: underlying}
	if !errors.Is(err, underlying) {
		t.Errorf("ProcessingError does not unwrap to its cause")
	}

	var procErr *ProcessingError
	if !errors.As(err, &procErr) || procErr.Op != "decode red.tif" {
		t.Errorf("errors.As failed for ProcessingError")
	}

	notFound := &InputNotFoundError{Paths: []string{"red.tif", "nir.tif"}}
	msg := notFound.Error()
	if msg != "input not found: red.tif, nir.tif" {
		t.Errorf("unexpected not found message: %v", msg)
	}

	mismatch := &ShapeMismatchError{RedWidth: 2, RedHeight: 2, NirWidth: 3, NirHeight: 3}
	expected := "shape mismatch: red (height:2, width:2), nir (height:3, width:3)"
	if mismatch.Error() != expected {
		t.Errorf("unexpected mismatch message: %v", mismatch.Error())
	}
}

func TestComputeNDVIMissingInputs(t *testing.T) {
	_, err := ComputeNDVI("/nonexistent/red.tif", "/nonexistent/nir.tif", "/tmp/out.tif", Options{})
	var notFound *InputNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected InputNotFoundError, got: %v", err)
	}
	if len(notFound.Paths) != 2 {
		t.Errorf("expected both missing paths to be named, got: %v", notFound.Paths)
	}
}
