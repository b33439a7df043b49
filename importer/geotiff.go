package importer

import (
	"context"
	"fmt"
	"iter"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/airbusgeo/geocube-importer/common"
	"github.com/airbusgeo/geocube-importer/guidebook"
	"github.com/airbusgeo/geocube-importer/service/geometry"
	"github.com/airbusgeo/geocube-importer/service/log"
	"github.com/araddon/dateparse"
)

const (
	projOver        = "+over"
	float32TypeName = "Float32"
)

// GeoTIFF imports the first band of GeoTIFF files
type GeoTIFF struct {
	open      RasterOpener
	projector Projector
	books     *guidebook.Registry
}

// NewGeoTIFF creates the GeoTIFF importer
func NewGeoTIFF(open RasterOpener, projector Projector, books *guidebook.Registry) *GeoTIFF {
	return &GeoTIFF{open: open, projector: projector, books: books}
}

// Name implements Importer
func (g *GeoTIFF) Name() string {
	return "GeoTIFF"
}

// IsRelevant implements Importer
func (g *GeoTIFF) IsRelevant(src Source) bool {
	return src.hasSuffix(".tif", ".tiff")
}

// Metadata implements Importer
func (g *GeoTIFF) Metadata(ctx context.Context, destUUID string, src Source) (common.Record, error) {
	path, err := src.localPath()
	if err != nil {
		return common.Record{}, fmt.Errorf("GeoTIFF.Metadata: %w", err)
	}
	ctx = log.With(ctx, "source", path)

	rec := common.Record{UUID: destUUID, Kind: common.KindImage, Pathname: path}
	if info, ok := common.InfoFromFilename(path); ok {
		if rec.Platform = info.Platform; rec.Platform == common.PlatformUnknown {
			log.Logger(ctx).Sugar().Warnf("unknown platform being loaded: %s", info.PlatformID)
		}
		rec.Instrument = info.Instrument
		rec.Band = info.Band
		rec.SchedTime = info.Time
		rec.ObsTime = info.Time
		rec.Scene = info.Scene
	}

	ras, err := g.open(path)
	if err != nil {
		return common.Record{}, fmt.Errorf("GeoTIFF.Metadata: %w", ErrDecode{Source: path, Err: err})
	}
	defer ras.Close()

	gt := ras.GeoTransform()
	rec.OriginX, rec.CellWidth, rec.OriginY, rec.CellHeight = gt[0], gt[1], gt[3], gt[5]
	rows, cols := ras.Shape()
	rec.Shape = [2]int{rows, cols}
	if rec.Proj, err = g.projector.ToProj4(ras.ProjectionWKT()); err != nil {
		return common.Record{}, fmt.Errorf("GeoTIFF.Metadata: %w", ErrDecode{Source: path, Err: err})
	}

	if rec.Band != 0 {
		rec.DatasetName = common.BandName(rec.Band)
		rec.DisplayName = rec.DatasetName
	} else {
		rec.DatasetName = filepath.Base(path)
	}

	g.locate(ctx, &rec)

	rec.SampleType = ras.DataType()
	if rec.SampleType != float32TypeName {
		log.Logger(ctx).Sugar().Warnf("%s samples will be converted to %s", rec.SampleType, float32TypeName)
	}

	normalizeTags(ctx, &rec, ras.Tags())
	return g.books.Enrich(ctx, rec), nil
}

// locate inverse-projects the corners of the raster to detect the anti-meridian crossing and
// compute the footprint. Projection failures are ignored.
func (g *GeoTIFF) locate(ctx context.Context, rec *common.Record) {
	rows, cols := float64(rec.Shape[0]), float64(rec.Shape[1])
	left, top := rec.OriginX, rec.OriginY
	right, bottom := left+rec.CellWidth*cols, top+rec.CellHeight*rows
	lons, lats, err := g.projector.Inverse(rec.Proj, []float64{left, right, right, left}, []float64{top, top, bottom, bottom})
	if err != nil {
		log.Logger(ctx).Sugar().Debugf("unable to locate the raster: %v", err)
		return
	}
	// upper-left and lower-right corners
	if proj := addOver(rec.Proj, lons[0], lons[2]); proj != rec.Proj {
		log.Logger(ctx).Debug("add '+over' to PROJ.4 because the raster seems to cross the anti-meridian")
		rec.Proj = proj
	}
	if fp, err := geometry.FootprintWKT(lons, lats); err == nil {
		rec.Footprint = fp
	} else {
		log.Logger(ctx).Sugar().Debugf("footprint: %v", err)
	}
}

// addOver appends +over to proj if the right edge is west of the left edge. It is idempotent.
func addOver(proj string, lonLeft, lonRight float64) string {
	if lonRight >= lonLeft {
		return proj
	}
	for _, param := range strings.Fields(proj) {
		if param == projOver {
			return proj
		}
	}
	return proj + " " + projOver
}

// Import implements Importer
func (g *GeoTIFF) Import(ctx context.Context, destUUID string, src Source, cachePath string) iter.Seq2[Progress, error] {
	path := src.String()
	open := func() (RowReader, error) {
		path, err := src.localPath()
		if err != nil {
			return nil, fmt.Errorf("GeoTIFF.Import: %w", err)
		}
		ras, err := g.open(path)
		if err != nil {
			return nil, fmt.Errorf("GeoTIFF.Import: %w", ErrDecode{Source: path, Err: err})
		}
		return ras, nil
	}
	return stream(log.With(ctx, "source", path), open, cachePath, stage{
		uuid:     destUUID,
		source:   path,
		desc:     "importing geotiff",
		doneDesc: "done loading geotiff",
	})
}

// normalizeTags maps the raw tags onto the record. Raw tags override the values derived from the filename.
// Unparseable values are logged and skipped.
func normalizeTags(ctx context.Context, rec *common.Record, tags map[string]string) {
	warn := func(key, value string, err error) {
		log.Logger(ctx).Sugar().Warnf("tag %s=%q ignored: %v", key, value, err)
	}
	for key, value := range tags {
		switch key {
		case common.TagName:
			rec.DatasetName = value
		case common.TagPlatform:
			if rec.Platform = common.PlatformFromValue(value); rec.Platform == common.PlatformUnknown {
				log.Logger(ctx).Sugar().Warnf("unknown platform being loaded: %s", value)
			}
		case common.TagSensor, common.TagInstrument, common.TagStartTime, common.TagEndTime:
			// below
		case common.TagValidMin, common.TagValidMax:
			f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			if err != nil {
				warn(key, value, err)
				continue
			}
			if key == common.TagValidMin {
				rec.ValidMin = &f
			} else {
				rec.ValidMax = &f
			}
		case common.TagStandardName:
			rec.StandardName = value
		case common.TagUnits:
			rec.Units = value
		case common.TagFlagValues, common.TagFlagMasks:
			ints, err := parseInts(value)
			if err != nil {
				warn(key, value, err)
				continue
			}
			if key == common.TagFlagValues {
				rec.FlagValues = ints
			} else {
				rec.FlagMasks = ints
			}
		case common.TagFlagMeanings:
			rec.FlagMeanings = strings.Fields(value)
		default:
			if rec.Tags == nil {
				rec.Tags = map[string]string{}
			}
			rec.Tags[key] = value
		}
	}

	instrument := tags[common.TagSensor]
	if instrument == "" {
		instrument = tags[common.TagInstrument]
	}
	if instrument != "" {
		if rec.Instrument = common.InstrumentFromValue(instrument); rec.Instrument == common.InstrumentUnknown {
			log.Logger(ctx).Sugar().Warnf("unknown instrument being loaded: %s", instrument)
		}
	}

	start, ok := tags[common.TagStartTime]
	if !ok {
		return
	}
	t, err := parseTagTime(start)
	if err != nil {
		warn(common.TagStartTime, start, err)
		return
	}
	rec.SchedTime, rec.ObsTime = t, t
	if end, ok := tags[common.TagEndTime]; ok {
		e, err := parseTagTime(end)
		if err != nil {
			warn(common.TagEndTime, end, err)
			return
		}
		rec.ObsDuration = e.Sub(t)
	}
}

// parseTagTime parses the time with the standard tag layout, then with any layout dateparse knows
func parseTagTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(common.TagTimeFormat, value); err == nil {
		return t, nil
	}
	t, err := dateparse.ParseIn(value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parseTagTime: %w", err)
	}
	return t.UTC(), nil
}

// parseInts parses a comma-separated list of integers
func parseInts(value string) ([]int, error) {
	fields := strings.Split(value, ",")
	ints := make([]int, 0, len(fields))
	for _, f := range fields {
		i, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("parseInts: %w", err)
		}
		ints = append(ints, i)
	}
	return ints, nil
}
