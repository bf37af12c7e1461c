package processor

import (
	"fmt"
	"io/ioutil"
	"time"

	"gopkg.in/yaml.v2"
)

// RasterMeta is the YAML sidecar document describing one written
// index raster.
type RasterMeta struct {
	Path         string    `yaml:"path"`
	RedPath      string    `yaml:"red_path"`
	NirPath      string    `yaml:"nir_path"`
	Expression   string    `yaml:"expression"`
	Width        int       `yaml:"width"`
	Height       int       `yaml:"height"`
	Projection   string    `yaml:"projection"`
	GeoTransform []float64 `yaml:"geo_transform"`
	NoData       float64   `yaml:"nodata"`
	ValidPixels  int       `yaml:"valid_pixels"`
	NoDataPixels int       `yaml:"nodata_pixels"`
	Created      string    `yaml:"created"`
}

func NewRasterMeta(outputPath, redPath, nirPath, expression string, res *Result) *RasterMeta {
	return &RasterMeta{
		Path:         outputPath,
		RedPath:      redPath,
		NirPath:      nirPath,
		Expression:   expression,
		Width:        res.Width,
		Height:       res.Height,
		Projection:   res.Profile.Projection,
		GeoTransform: res.Profile.GeoTransform[:],
		NoData:       OutputNoData,
		ValidPixels:  res.ValidPixels,
		NoDataPixels: res.NoDataPixels,
		Created:      time.Now().Format(time.RFC3339),
	}
}

// WriteMetaFile writes the sidecar next to the output raster as
// <output>.yaml.
func WriteMetaFile(outputPath string, meta *RasterMeta) (string, error) {
	data, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("Error marshalling raster metadata: %v", err)
	}

	metaPath := outputPath + ".yaml"
	if err := ioutil.WriteFile(metaPath, data, 0644); err != nil {
		return "", fmt.Errorf("Error writing raster metadata file %s: %v", metaPath, err)
	}

	return metaPath, nil
}
