package importer

import (
	"github.com/airbusgeo/geocube-importer/guidebook"
	"github.com/airbusgeo/geocube-importer/interface/decoder/geotiff"
	"github.com/airbusgeo/geocube-importer/interface/decoder/pug"
)

// Registry is an ordered set of importers
type Registry struct {
	importers []Importer
}

// NewRegistry creates a registry. The importers are tested in the given order.
func NewRegistry(importers ...Importer) *Registry {
	return &Registry{importers: append([]Importer(nil), importers...)}
}

type options struct {
	openRaster RasterOpener
	projector  Projector
	openPug    PugOpener
}

// Option configures the decoders used by Default
type Option func(*options)

// WithRasterOpener replaces the GDAL GeoTIFF decoder
func WithRasterOpener(open RasterOpener) Option {
	return func(o *options) { o.openRaster = open }
}

// WithProjector replaces the GDAL projector
func WithProjector(p Projector) Option {
	return func(o *options) { o.projector = p }
}

// WithPugOpener replaces the netCDF decoder
func WithPugOpener(open PugOpener) Option {
	return func(o *options) { o.openPug = open }
}

// Default returns the registry of the supported formats: GeoTIFF, then GOES-R PUG
func Default(books *guidebook.Registry, opts ...Option) *Registry {
	o := options{
		openRaster: func(path string) (Raster, error) {
			ds, err := geotiff.Open(path)
			if err != nil {
				return nil, err
			}
			return ds, nil
		},
		projector: geotiff.NewProjector(),
		openPug: func(path string) (PugFile, error) {
			f, err := pug.Open(path)
			if err != nil {
				return nil, err
			}
			return f, nil
		},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if books == nil {
		books = guidebook.DefaultRegistry()
	}
	return NewRegistry(
		NewGeoTIFF(o.openRaster, o.projector, books),
		NewPUG(o.openPug, books),
	)
}

// Variants returns the importers, in order
func (r *Registry) Variants() []Importer {
	return append([]Importer(nil), r.importers...)
}

// Select returns the first importer relevant for the source, or ErrNoApplicableImporter
func (r *Registry) Select(src Source) (Importer, error) {
	for _, imp := range r.importers {
		if imp.IsRelevant(src) {
			return imp, nil
		}
	}
	return nil, ErrNoApplicableImporter{Source: src}
}
