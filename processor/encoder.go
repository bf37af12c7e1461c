package processor

// #include "gdal.h"
// #cgo pkg-config: gdal
import "C"

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/nci/gvi/utils"
)

// gtiffCreationOptions derives the GTiff driver options from the
// source profile. Tiled sources keep their tiling only when the
// block sizes satisfy the GTiff driver's multiple-of-16 tile
// constraint; striped sources, the GDAL default layout, report
// (width, rowsPerStrip) as their block size and must not be turned
// into tiles, so they inherit the strip size alone. Strips carry no
// dimension constraint.
func gtiffCreationOptions(profile *Profile) []string {
	var opts []string
	if len(profile.Compression) > 0 {
		opts = append(opts, fmt.Sprintf("COMPRESS=%s", profile.Compression))
	}
	if profile.Tiled && profile.BlockXSize > 0 && profile.BlockXSize%16 == 0 && profile.BlockYSize%16 == 0 {
		opts = append(opts, "TILED=YES")
		opts = append(opts, fmt.Sprintf("BLOCKXSIZE=%d", profile.BlockXSize))
		opts = append(opts, fmt.Sprintf("BLOCKYSIZE=%d", profile.BlockYSize))
	} else if profile.BlockYSize > 0 {
		opts = append(opts, fmt.Sprintf("BLOCKYSIZE=%d", profile.BlockYSize))
	}
	return opts
}

func hasGTiffDriver() bool {
	driverNameC := C.CString("GTiff")
	defer C.free(unsafe.Pointer(driverNameC))
	return C.GDALGetDriverByName(driverNameC) != nil
}

// WriteGTiff writes the raster as band 1 of a single band GeoTIFF
// at path, inheriting projection, geotransform, compression and
// block layout from the supplied profile. A pre-existing file at
// path is overwritten. On any encoding failure the partially
// written file is removed.
func WriteGTiff(path string, r utils.Raster, profile *Profile) error {
	var dataPtr unsafe.Pointer
	var dType C.GDALDataType
	var width, height int
	var nameSpace string

	switch t := r.(type) {
	case *utils.ByteRaster:
		dataPtr = unsafe.Pointer(&t.Data[0])
		dType = C.GDT_Byte
		width, height = t.Width, t.Height
		nameSpace = t.NameSpace
	case *utils.Float32Raster:
		dataPtr = unsafe.Pointer(&t.Data[0])
		dType = C.GDT_Float32
		width, height = t.Width, t.Height
		nameSpace = t.NameSpace
	default:
		return fmt.Errorf("Unsupported gdal data type")
	}

	driverNameC := C.CString("GTiff")
	defer C.free(unsafe.Pointer(driverNameC))
	hDriver := C.GDALGetDriverByName(driverNameC)
	if hDriver == nil {
		return fmt.Errorf("GTiff driver is not available")
	}

	var driverOptions []*C.char
	for _, opt := range gtiffCreationOptions(profile) {
		driverOptions = append(driverOptions, C.CString(opt))
	}
	for _, opt := range driverOptions {
		defer C.free(unsafe.Pointer(opt))
	}

	// NULL pointer is used to terminate the option array by gdal
	driverOptions = append(driverOptions, nil)

	pathC := C.CString(path)
	defer C.free(unsafe.Pointer(pathC))

	hDstDS := C.GDALCreate(hDriver, pathC, C.int(width), C.int(height), C.int(1), dType, &driverOptions[0])
	if hDstDS == nil {
		return fmt.Errorf("Error creating raster: %s", path)
	}

	if len(profile.Projection) > 0 {
		projC := C.CString(profile.Projection)
		C.GDALSetProjection(hDstDS, projC)
		C.free(unsafe.Pointer(projC))
	}

	geot := profile.GeoTransform
	C.GDALSetGeoTransform(hDstDS, (*C.double)(&geot[0]))

	hBand := C.GDALGetRasterBand(hDstDS, C.int(1))
	if profile.HasNoData {
		C.GDALSetRasterNoDataValue(hBand, C.double(profile.NoData))
	}

	if len(nameSpace) > 0 {
		nameSpaceC := C.CString("long_name")
		varNameC := C.CString(nameSpace)
		C.GDALSetMetadataItem(C.GDALMajorObjectH(hBand), nameSpaceC, varNameC, nil)
		C.free(unsafe.Pointer(nameSpaceC))
		C.free(unsafe.Pointer(varNameC))
	}

	gerr := C.GDALRasterIO(hBand, C.GF_Write, 0, 0, C.int(width), C.int(height),
		dataPtr, C.int(width), C.int(height), dType, 0, 0)
	C.GDALClose(hDstDS)
	if gerr != 0 {
		os.Remove(path)
		return fmt.Errorf("Error writing raster band: %s", path)
	}

	return nil
}
