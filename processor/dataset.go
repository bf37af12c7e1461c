package processor

// #include "gdal.h"
// #cgo pkg-config: gdal
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/nci/gvi/utils"
)

// Profile captures the georeferencing metadata of one dataset as
// read from disk. The output profile is derived from the red band's
// Profile with the pixel type, band count and nodata overridden.
type Profile struct {
	Width        int
	Height       int
	RasterCount  int
	DataType     string
	Projection   string
	GeoTransform [6]float64
	NoData       float64
	HasNoData    bool
	BlockXSize   int
	BlockYSize   int
	// Tiled distinguishes tiled sources from striped ones. Striped
	// rasters report (width, rowsPerStrip) as their block size, so
	// a block narrower than the raster is the tiling signal.
	Tiled       bool
	Compression string
}

// ReadBand reads band 1 of the dataset at path as float32 together
// with the dataset profile. The dataset handle is closed before
// returning on every path.
func ReadBand(path string, nameSpace string) (*utils.Float32Raster, *Profile, error) {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	ds := C.GDALOpenEx(cPath, C.GDAL_OF_READONLY|C.GDAL_OF_RASTER|C.GDAL_OF_VERBOSE_ERROR, nil, nil, nil)
	if ds == nil {
		return nil, nil, fmt.Errorf("GDAL could not open dataset: %s", path)
	}
	defer C.GDALClose(ds)

	if int(C.GDALGetRasterCount(ds)) < 1 {
		return nil, nil, fmt.Errorf("dataset has no raster bands: %s", path)
	}

	bandH := C.GDALGetRasterBand(ds, C.int(1))
	if bandH == nil {
		return nil, nil, fmt.Errorf("GDALGetRasterBand() failed for band 1: %s", path)
	}

	profile := &Profile{
		Width:       int(C.GDALGetRasterXSize(ds)),
		Height:      int(C.GDALGetRasterYSize(ds)),
		RasterCount: int(C.GDALGetRasterCount(ds)),
		DataType:    C.GoString(C.GDALGetDataTypeName(C.GDALGetRasterDataType(bandH))),
		Projection:  C.GoString(C.GDALGetProjectionRef(ds)),
	}

	geot := make([]float64, 6)
	if gdalErr := C.GDALGetGeoTransform(ds, (*C.double)(&geot[0])); gdalErr == 0 {
		copy(profile.GeoTransform[:], geot)
	} else {
		// GDAL's conventional default for ungeoreferenced rasters
		profile.GeoTransform = [6]float64{0, 1, 0, 0, 0, 1}
	}

	var hasNoData C.int
	profile.NoData = float64(C.GDALGetRasterNoDataValue(bandH, &hasNoData))
	profile.HasNoData = hasNoData != 0

	var blockX, blockY C.int
	C.GDALGetBlockSize(bandH, &blockX, &blockY)
	profile.BlockXSize = int(blockX)
	profile.BlockYSize = int(blockY)
	profile.Tiled = profile.BlockXSize > 0 && profile.BlockXSize < profile.Width

	comprC := C.CString("COMPRESSION")
	defer C.free(unsafe.Pointer(comprC))
	imgStructC := C.CString("IMAGE_STRUCTURE")
	defer C.free(unsafe.Pointer(imgStructC))
	if comprValC := C.GDALGetMetadataItem(C.GDALMajorObjectH(ds), comprC, imgStructC); comprValC != nil {
		profile.Compression = C.GoString(comprValC)
	}

	if profile.Width <= 0 || profile.Height <= 0 {
		return nil, nil, fmt.Errorf("dataset has empty extent (height:%d, width:%d): %s", profile.Height, profile.Width, path)
	}

	raster := &utils.Float32Raster{
		NameSpace: nameSpace,
		Data:      make([]float32, profile.Width*profile.Height),
		Width:     profile.Width,
		Height:    profile.Height,
		NoData:    profile.NoData,
	}

	gerr := C.GDALRasterIO(bandH, C.GF_Read, 0, 0, C.int(profile.Width), C.int(profile.Height),
		unsafe.Pointer(&raster.Data[0]), C.int(profile.Width), C.int(profile.Height), C.GDT_Float32, 0, 0)
	if gerr != 0 {
		return nil, nil, fmt.Errorf("Error reading raster band 1: %s", path)
	}

	return raster, profile, nil
}
