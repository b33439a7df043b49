// Package importer converts satellite imagery files into cache buffers and canonical records
package importer

import (
	"context"
	"iter"
	"path/filepath"
	"strings"

	"github.com/airbusgeo/geocube-importer/common"
	"github.com/airbusgeo/geocube-importer/interface/cache"
)

// Source identifies the file to import: a local path or a URI
type Source struct {
	Path string
	URI  string
}

// String returns the path, or the URI if there is no path
func (s Source) String() string {
	if s.Path != "" {
		return s.Path
	}
	return s.URI
}

// localPath returns the path of the source or ErrUnsupportedSource
func (s Source) localPath() (string, error) {
	if s.URI != "" {
		return "", ErrUnsupportedSource{URI: s.URI}
	}
	return s.Path, nil
}

// hasSuffix tests the suffix of the source, case-insensitively
func (s Source) hasSuffix(suffixes ...string) bool {
	ext := strings.ToLower(filepath.Ext(s.String()))
	for _, suffix := range suffixes {
		if ext == suffix {
			return true
		}
	}
	return false
}

// Progress is an event of an import
type Progress struct {
	UUID         string
	Stages       int
	CurrentStage int
	Completion   float64 // within the current stage, [0, 1]
	StageDesc    string
	Rows         int // rows written by this event

	// Record is not set by the importers of this package: the record is returned by Metadata
	Record *common.Record
	// Data is only set by the last event of the sequence. The caller owns the buffer.
	Data *cache.Buffer
}

// Terminal returns true if the event carries the populated buffer
func (p Progress) Terminal() bool {
	return p.Data != nil
}

// Importer is a source format that can be imported
type Importer interface {
	Name() string
	// IsRelevant tests the suffix of the source
	IsRelevant(src Source) bool
	// Metadata reads the metadata of the source and returns an enriched record. No cache is allocated.
	Metadata(ctx context.Context, destUUID string, src Source) (common.Record, error)
	// Import returns a lazy sequence of progress events, streaming the data of the source into a new
	// cache buffer at cachePath. The sequence can only be iterated once.
	Import(ctx context.Context, destUUID string, src Source, cachePath string) iter.Seq2[Progress, error]
}

// RowReader reads full rows of a raster, converted to float32
type RowReader interface {
	Shape() (rows, cols int)
	// BlockRows is the number of rows of a native block, 0 if unknown
	BlockRows() int
	// NoData returns the value used for missing samples, if any
	NoData() (float64, bool)
	// ReadRows fills dst with count rows starting at start. It never reads partial rows.
	ReadRows(start, count int, dst []float32) error
	Close() error
}

// Raster is a GeoTIFF opened by a decoder
type Raster interface {
	RowReader
	// GeoTransform returns the affine transform (originX, cellWidth, rotX, originY, rotY, cellHeight)
	GeoTransform() [6]float64
	// DataType returns the name of the sample type (Float32, Int16...)
	DataType() string
	// Tags returns the raw, unnormalized metadata
	Tags() map[string]string
	ProjectionWKT() string
}

// RasterOpener opens a GeoTIFF
type RasterOpener func(path string) (Raster, error)

// Projector converts spatial references and coordinates
type Projector interface {
	ToProj4(wkt string) (string, error)
	// Inverse returns the longitudes and latitudes of the projected coordinates
	Inverse(proj4 string, xs, ys []float64) (lons, lats []float64, err error)
}
