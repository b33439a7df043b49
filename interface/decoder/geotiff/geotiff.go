package geotiff

import (
	"fmt"
	"math"
	"strings"

	"github.com/lukeroth/gdal"
)

// Dataset is a single-band view of a raster opened with GDAL
type Dataset struct {
	path string
	ds   gdal.Dataset
	band gdal.RasterBand
}

// Open opens the raster read-only. The first band is used.
func Open(path string) (*Dataset, error) {
	ds, err := gdal.Open(path, gdal.ReadOnly)
	if err != nil {
		return nil, fmt.Errorf("geotiff.Open[%s]: %w", path, err)
	}
	if ds.RasterCount() < 1 {
		ds.Close()
		return nil, fmt.Errorf("geotiff.Open[%s]: no raster band", path)
	}
	return &Dataset{path: path, ds: ds, band: ds.RasterBand(1)}, nil
}

// GeoTransform returns the affine transform (originX, cellWidth, rotX, originY, rotY, cellHeight)
func (d *Dataset) GeoTransform() [6]float64 {
	return d.ds.GeoTransform()
}

// Shape returns the size of the first band
func (d *Dataset) Shape() (rows, cols int) {
	return d.band.YSize(), d.band.XSize()
}

// BlockRows returns the number of rows of a native block (tile or strip)
func (d *Dataset) BlockRows() int {
	_, by := d.band.BlockSize()
	return by
}

// DataType returns the GDAL name of the sample type (Byte, Int16, Float32...)
func (d *Dataset) DataType() string {
	return d.band.RasterDataType().Name()
}

// IsFloat32 returns true if the samples are stored as single precision floats
func (d *Dataset) IsFloat32() bool {
	return d.band.RasterDataType() == gdal.Float32
}

// NoData returns the nodata value of the first band, if any
func (d *Dataset) NoData() (float64, bool) {
	v, ok := d.band.NoDataValue()
	if !ok {
		return math.NaN(), false
	}
	return v, true
}

// ReadRows reads count full rows starting at start into dst (len(dst) >= count*cols).
// Samples are converted to float32 by GDAL.
func (d *Dataset) ReadRows(start, count int, dst []float32) error {
	rows, cols := d.Shape()
	if start < 0 || count <= 0 || start+count > rows {
		return fmt.Errorf("geotiff.ReadRows: rows [%d, %d) out of [0, %d)", start, start+count, rows)
	}
	if len(dst) < count*cols {
		return fmt.Errorf("geotiff.ReadRows: buffer too small (%d < %d)", len(dst), count*cols)
	}
	if err := d.band.IO(gdal.Read, 0, start, cols, count, dst[:count*cols], cols, count, 0, 0); err != nil {
		return fmt.Errorf("geotiff.ReadRows[%s]: %w", d.path, err)
	}
	return nil
}

// Tags returns the metadata items of the default domain
func (d *Dataset) Tags() map[string]string {
	return parseMetadata(d.ds.Metadata(""))
}

// ProjectionWKT returns the spatial reference of the dataset as WKT
func (d *Dataset) ProjectionWKT() string {
	return d.ds.Projection()
}

// Close releases the dataset
func (d *Dataset) Close() error {
	d.ds.Close()
	return nil
}

// parseMetadata splits the KEY=VALUE items returned by GDAL
func parseMetadata(items []string) map[string]string {
	tags := make(map[string]string, len(items))
	for _, item := range items {
		k, v, ok := strings.Cut(item, "=")
		if !ok || k == "" {
			continue
		}
		tags[k] = v
	}
	return tags
}
