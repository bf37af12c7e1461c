package utils

type Raster interface {
	GetNoData() float64
}

type ByteRaster struct {
	NameSpace     string
	Data          []uint8
	Height, Width int
	NoData        float64
}

func (r *ByteRaster) GetNoData() float64 {
	return r.NoData
}

type Float32Raster struct {
	NameSpace     string
	Data          []float32
	Height, Width int
	NoData        float64
}

func (r *Float32Raster) GetNoData() float64 {
	return r.NoData
}
