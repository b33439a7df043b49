package importer

import (
	"context"
	"fmt"
	"iter"
	"math"
	"path/filepath"

	"github.com/airbusgeo/geocube-importer/common"
	"github.com/airbusgeo/geocube-importer/guidebook"
	"github.com/airbusgeo/geocube-importer/interface/decoder/pug"
	"github.com/airbusgeo/geocube-importer/service/log"
)

// relative tolerance when checking that the coordinate axes are evenly spaced
const axisTolerance = 1e-3

// PugFile is a GOES-R PUG L1b file opened by a decoder
type PugFile interface {
	RowReader
	Header() pug.Header
}

// PugOpener opens a PUG file
type PugOpener func(path string) (PugFile, error)

// PUG imports GOES-R ABI L1b radiances (and AHI data exported to the same format),
// converted to reflectances or brightness temperatures
type PUG struct {
	open  PugOpener
	books *guidebook.Registry
}

// NewPUG creates the PUG importer
func NewPUG(open PugOpener, books *guidebook.Registry) *PUG {
	return &PUG{open: open, books: books}
}

// Name implements Importer
func (p *PUG) Name() string {
	return "GOES-R PUG"
}

// IsRelevant implements Importer
func (p *PUG) IsRelevant(src Source) bool {
	return src.hasSuffix(".nc", ".nc4")
}

// Metadata implements Importer
func (p *PUG) Metadata(ctx context.Context, destUUID string, src Source) (common.Record, error) {
	path, err := src.localPath()
	if err != nil {
		return common.Record{}, fmt.Errorf("PUG.Metadata: %w", err)
	}
	ctx = log.With(ctx, "source", path)

	f, err := p.open(path)
	if err != nil {
		return common.Record{}, fmt.Errorf("PUG.Metadata: %w", ErrDecode{Source: path, Err: err})
	}
	defer f.Close()
	h := f.Header()
	for _, w := range h.Warnings {
		log.Logger(ctx).Sugar().Warnf("metadata %s", w)
	}

	rec := common.Record{
		UUID:         destUUID,
		Kind:         common.KindImage,
		DatasetName:  filepath.Base(path),
		Pathname:     path,
		Platform:     common.PlatformFromValue(h.PlatformID),
		Instrument:   common.InstrumentABI,
		Band:         h.Band,
		Scene:        h.Scene,
		SchedTime:    h.SchedTime,
		DisplayName:  common.BandName(h.Band),
		Proj:         h.Proj4,
		StandardName: h.StandardName,
		Units:        h.Units,
		SampleType:   "Float32",
	}
	switch rec.Platform {
	case common.PlatformUnknown:
		log.Logger(ctx).Sugar().Warnf("unknown platform being loaded: %s", h.PlatformID)
	case common.PlatformHimawari8, common.PlatformHimawari9:
		rec.Instrument = common.InstrumentAHI
	}
	if !h.SchedTime.IsZero() {
		rec.DisplayTime = h.SchedTime.Format(guidebook.DisplayTimeFormat)
	}

	var cw, ch float64
	if rec.OriginX, cw, err = gridStep(h.X); err != nil {
		return common.Record{}, fmt.Errorf("PUG.Metadata: %w", ErrDecode{Source: path, Err: fmt.Errorf("x: %w", err)})
	}
	if rec.OriginY, ch, err = gridStep(h.Y); err != nil {
		return common.Record{}, fmt.Errorf("PUG.Metadata: %w", ErrDecode{Source: path, Err: fmt.Errorf("y: %w", err)})
	}
	rec.CellWidth, rec.CellHeight = cw, ch
	rows, cols := f.Shape()
	if rows != len(h.Y) || cols != len(h.X) {
		return common.Record{}, fmt.Errorf("PUG.Metadata: %w", ErrDecode{Source: path,
			Err: fmt.Errorf("radiance shape %dx%d does not match the axes %dx%d", rows, cols, len(h.Y), len(h.X))})
	}
	rec.Shape = [2]int{rows, cols}

	log.Logger(ctx).Sugar().Debugf("band %d converted to %s", h.Band, h.Quantity)
	return p.books.Enrich(ctx, rec), nil
}

// gridStep returns the origin and the cell size of an evenly spaced axis.
// The cell size is measured at the center of the axis.
func gridStep(axis []float64) (origin, step float64, err error) {
	if len(axis) < 2 {
		return 0, 0, fmt.Errorf("gridStep: %d samples", len(axis))
	}
	mid := len(axis) / 2
	if mid+1 >= len(axis) {
		mid = len(axis) - 2
	}
	first := axis[1] - axis[0]
	step = axis[mid+1] - axis[mid]
	if step == 0 || math.IsNaN(step) || math.IsNaN(first) || math.Abs(step-first) > axisTolerance*math.Abs(first) {
		return 0, 0, fmt.Errorf("gridStep: axis is not evenly spaced (%g at start, %g at center)", first, step)
	}
	return axis[0], step, nil
}

// Import implements Importer
func (p *PUG) Import(ctx context.Context, destUUID string, src Source, cachePath string) iter.Seq2[Progress, error] {
	path := src.String()
	open := func() (RowReader, error) {
		path, err := src.localPath()
		if err != nil {
			return nil, fmt.Errorf("PUG.Import: %w", err)
		}
		f, err := p.open(path)
		if err != nil {
			return nil, fmt.Errorf("PUG.Import: %w", ErrDecode{Source: path, Err: err})
		}
		log.Logger(ctx).Sugar().Infof("converting radiance to %s", f.Header().Quantity)
		return f, nil
	}
	return stream(log.With(ctx, "source", path), open, cachePath, stage{
		uuid:     destUUID,
		source:   path,
		desc:     "converting GOES PUG data",
		doneDesc: "GOES PUG data add to workspace",
	})
}
