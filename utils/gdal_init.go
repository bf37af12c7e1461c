package utils

// #include "gdal.h"
// #include "gdal_frmts.h"
// #cgo pkg-config: gdal
import "C"

import (
	"os"
)

func InitGdal() {
	setDefaultEnv("GDAL_PAM_ENABLED", "NO")
	setDefaultEnv("GDAL_DISABLE_READDIR_ON_OPEN", "EMPTY_DIR")
	setDefaultEnv("GDAL_MAX_DATASET_POOL_SIZE", "10")

	registerGDALDrivers()
}

func setDefaultEnv(envVar string, defaultVal string) {
	if _, ok := os.LookupEnv(envVar); !ok {
		os.Setenv(envVar, defaultVal)
	}
}

func registerGDALDrivers() {
	// Find out which drivers are present in the GDAL shared
	// library, then re-register the ones of interest first.
	// Drivers are interrogated in a linear scan when opening
	// files, so common formats go to the front of the list.
	var haveGTiff, haveNetCDF, haveJP2OpenJPEG bool

	C.GDALAllRegister()
	for i := 0; i < int(C.GDALGetDriverCount()); i++ {
		driver := C.GDALGetDriver(C.int(i))
		switch C.GoString(C.GDALGetDriverShortName(driver)) {
		case "GTiff":
			haveGTiff = true
		case "netCDF":
			haveNetCDF = true
		case "JP2OpenJPEG":
			haveJP2OpenJPEG = true
		}
	}

	for i := 0; i < int(C.GDALGetDriverCount()); i++ {
		driver := C.GDALGetDriver(C.int(i))
		C.GDALDeregisterDriver(driver)
	}

	if haveGTiff {
		C.GDALRegister_GTiff()
	}
	if haveNetCDF {
		C.GDALRegister_netCDF()
	}
	if haveJP2OpenJPEG {
		C.GDALRegister_JP2OpenJPEG()
	}
	// Now register everything else
	C.GDALAllRegister()
}
