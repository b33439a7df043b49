package importer_test

import (
	"context"
	"errors"
	"iter"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/airbusgeo/geocube-importer/common"
	"github.com/airbusgeo/geocube-importer/guidebook"
	"github.com/airbusgeo/geocube-importer/importer"
	"github.com/airbusgeo/geocube-importer/interface/decoder/pug"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"go.uber.org/zap/zaptest/observer"
)

const destUUID = "05a23a04-82fa-46e0-b9a9-2c25912a305c"

var _ = Describe("Registry", func() {
	registry := importer.Default(guidebook.DefaultRegistry(),
		importer.WithRasterOpener(rasterOpener(nil)),
		importer.WithProjector(&fakeProjector{}),
		importer.WithPugOpener(pugOpener(nil)))

	It("should list the variants in order", func() {
		variants := registry.Variants()
		Expect(variants).To(HaveLen(2))
		Expect(variants[0].Name()).To(Equal("GeoTIFF"))
		Expect(variants[1].Name()).To(Equal("GOES-R PUG"))
	})

	It("should select the importer from the suffix, case-insensitively", func() {
		for path, name := range map[string]string{
			"/data/image.tif":                   "GeoTIFF",
			"/data/IMAGE.TIFF":                  "GeoTIFF",
			"HS_H08_20170101_0000_B03_FLDK.Tif": "GeoTIFF",
			"/data/OR_ABI-L1b-RadF-M3C13.nc":    "GOES-R PUG",
			"/data/file.NC4":                    "GOES-R PUG",
		} {
			imp, err := registry.Select(importer.Source{Path: path})
			Expect(err).NotTo(HaveOccurred())
			Expect(imp.Name()).To(Equal(name))
		}
	})

	It("should select from the URI if there is no path", func() {
		imp, err := registry.Select(importer.Source{URI: "https://example.com/image.tif"})
		Expect(err).NotTo(HaveOccurred())
		Expect(imp.Name()).To(Equal("GeoTIFF"))
	})

	It("should return ErrNoApplicableImporter for other suffixes", func() {
		for _, path := range []string{"/data/image.hdf", "/data/image.tif.gz", "/data/tif", "/data/image.ncx", ""} {
			src := importer.Source{Path: path}
			_, err := registry.Select(src)
			Expect(err).To(Equal(importer.ErrNoApplicableImporter{Source: src}))
		}
	})

	It("should not share its variants", func() {
		variants := registry.Variants()
		variants[0] = nil
		Expect(registry.Variants()[0]).NotTo(BeNil())
	})
})

var _ = Describe("GeoTIFF", func() {
	var (
		raster    *fakeRaster
		projector *fakeProjector
		geotiff   *importer.GeoTIFF
		src       importer.Source
		rec       common.Record
		err       error
		logs      *observer.ObservedLogs
	)

	BeforeEach(func() {
		raster = &fakeRaster{
			fakeRows: fakeRows{rows: 10, cols: 20},
			gt:       [6]float64{100, 0.5, 0, 40, 0, -0.5},
			dataType: "Float32",
			wkt:      `GEOGCS["WGS 84"]`,
		}
		projector = &fakeProjector{proj4: "+proj=longlat +datum=WGS84 +no_defs"}
		src = importer.Source{Path: "/data/ahi/HS_H08_20170101_0000_B03_FLDK.tif"}
	})

	JustBeforeEach(func() {
		geotiff = importer.NewGeoTIFF(rasterOpener(raster), projector, guidebook.DefaultRegistry())
		var ctx context.Context
		ctx, logs = observedContext()
		rec, err = geotiff.Metadata(ctx, destUUID, src)
	})

	Context("with a legacy file name of an unknown Himawari", func() {
		BeforeEach(func() {
			src = importer.Source{Path: "/data/ahi/HS_H07_20170101_0000_B03_FLDK.tif"}
		})
		It("should warn and keep the other fields", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Platform).To(Equal(common.PlatformUnknown))
			Expect(rec.Band).To(Equal(3))
			Expect(logs.FilterMessageSnippet("unknown platform being loaded: Himawari-7").Len()).To(Equal(1))
		})
	})

	Context("with a legacy Himawari file name and no tags", func() {
		It("should recover the fields from the file name", func() {
			Expect(err).NotTo(HaveOccurred())
			when := time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)
			Expect(rec.Platform).To(Equal(common.PlatformHimawari8))
			Expect(rec.Instrument).To(Equal(common.InstrumentAHI))
			Expect(rec.Band).To(Equal(3))
			Expect(rec.Scene).To(Equal("FLDK"))
			Expect(rec.SchedTime).To(Equal(when))
			Expect(rec.ObsTime).To(Equal(when))
			Expect(rec.DatasetName).To(Equal("B03"))
			Expect(rec.DisplayName).To(Equal("B03"))
		})
		It("should read the geotransform and the shape", func() {
			Expect(rec.OriginX).To(Equal(100.0))
			Expect(rec.OriginY).To(Equal(40.0))
			Expect(rec.CellWidth).To(Equal(0.5))
			Expect(rec.CellHeight).To(Equal(-0.5))
			Expect(rec.Shape).To(Equal([2]int{10, 20}))
			Expect(rec.Proj).To(Equal("+proj=longlat +datum=WGS84 +no_defs"))
			Expect(rec.Footprint).NotTo(BeEmpty())
		})
		It("should return a complete and enriched record", func() {
			Expect(rec.Validate()).To(Succeed())
			Expect(rec.UUID).To(Equal(destUUID))
			Expect(rec.Kind).To(Equal(common.KindImage))
			Expect(rec.DisplayTime).To(Equal("2017-01-01 00:00:00"))
			Expect(rec.Colormap).To(Equal(guidebook.ColormapVisible))
			Expect(rec.CLim).NotTo(BeNil())
			Expect(rec.SampleType).To(Equal("Float32"))
		})
		It("should close the raster", func() {
			Expect(raster.closed).To(BeTrue())
		})
	})

	Context("with a file name that does not follow the legacy convention", func() {
		BeforeEach(func() {
			src = importer.Source{Path: "/data/mosaic.tiff"}
		})
		It("should use the file name as dataset name", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Band).To(Equal(0))
			Expect(rec.Platform).To(BeEmpty())
			Expect(rec.DatasetName).To(Equal("mosaic.tiff"))
			Expect(rec.DisplayName).NotTo(BeEmpty())
			Expect(rec.DisplayTime).To(Equal("mosaic.tiff"))
		})
	})

	Context("with embedded tags", func() {
		BeforeEach(func() {
			src = importer.Source{Path: "/data/cloud_mask.tif"}
			raster.tags = map[string]string{
				"name":          "cloud_mask",
				"platform":      "G16",
				"instrument":    "AHI",
				"sensor":        "abi",
				"start_time":    "2018-05-02T12:00:00Z",
				"end_time":      "2018-05-02T12:10:00Z",
				"units":         "1",
				"valid_min":     "0",
				"valid_max":     "not a number",
				"standard_name": "cloud_binary_mask",
				"flag_values":   "1,2,4",
				"flag_masks":    "1, 2, 4",
				"flag_meanings": "clear  probably_clear cloudy",
				"AREA_OR_POINT": "Area",
			}
		})
		It("should normalize the tags", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.DatasetName).To(Equal("cloud_mask"))
			Expect(rec.Platform).To(Equal(common.PlatformGOES16))
			Expect(rec.Instrument).To(Equal(common.InstrumentABI))
			Expect(rec.SchedTime).To(Equal(time.Date(2018, 5, 2, 12, 0, 0, 0, time.UTC)))
			Expect(rec.ObsTime).To(Equal(rec.SchedTime))
			Expect(rec.ObsDuration).To(Equal(10 * time.Minute))
			Expect(rec.Units).To(Equal("1"))
			Expect(rec.StandardName).To(Equal("cloud_binary_mask"))
		})
		It("should parse the numeric and the delimited tags", func() {
			Expect(rec.FlagValues).To(Equal([]int{1, 2, 4}))
			Expect(rec.FlagMasks).To(Equal([]int{1, 2, 4}))
			Expect(rec.FlagMeanings).To(Equal([]string{"clear", "probably_clear", "cloudy"}))
			Expect(rec.ValidMin).NotTo(BeNil())
			Expect(*rec.ValidMin).To(Equal(0.0))
			Expect(rec.ValidMax).To(BeNil())
		})
		It("should keep the other tags", func() {
			Expect(rec.Tags).To(Equal(map[string]string{"AREA_OR_POINT": "Area"}))
		})
	})

	Context("with an unknown platform and a time in another layout", func() {
		BeforeEach(func() {
			raster.tags = map[string]string{"platform": "Meteosat-11", "start_time": "2018-05-02 12:00:00"}
		})
		It("should not fail", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Platform).To(Equal(common.PlatformUnknown))
			Expect(rec.SchedTime).To(Equal(time.Date(2018, 5, 2, 12, 0, 0, 0, time.UTC)))
		})
	})

	Context("with a raster crossing the anti-meridian", func() {
		BeforeEach(func() {
			raster.gt = [6]float64{170, 1, 0, 10, 0, -1}
		})
		It("should add +over to the projection", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Proj).To(Equal("+proj=longlat +datum=WGS84 +no_defs +over"))
		})
		Context("when the projection already wraps", func() {
			BeforeEach(func() {
				projector.proj4 = "+proj=longlat +datum=WGS84 +no_defs +over"
			})
			It("should not add it twice", func() {
				Expect(rec.Proj).To(Equal("+proj=longlat +datum=WGS84 +no_defs +over"))
			})
		})
	})

	Context("when the corners cannot be projected", func() {
		BeforeEach(func() {
			projector.failPoint = true
		})
		It("should skip the anti-meridian check and the footprint", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Proj).To(Equal("+proj=longlat +datum=WGS84 +no_defs"))
			Expect(rec.Footprint).To(BeEmpty())
		})
	})

	Context("with integer samples", func() {
		BeforeEach(func() {
			raster.dataType = "Int16"
		})
		It("should record the sample type", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.SampleType).To(Equal("Int16"))
		})
	})

	Context("when the decoder fails", func() {
		BeforeEach(func() {
			raster = nil
		})
		It("should return a decode error and no record", func() {
			var derr importer.ErrDecode
			Expect(errors.As(err, &derr)).To(BeTrue())
			Expect(derr.Source).To(Equal(src.Path))
			Expect(rec).To(Equal(common.Record{}))
		})
	})

	Context("when the spatial reference is invalid", func() {
		BeforeEach(func() {
			projector.failProj = true
		})
		It("should return a decode error", func() {
			var derr importer.ErrDecode
			Expect(errors.As(err, &derr)).To(BeTrue())
		})
	})

	Context("with a URI", func() {
		BeforeEach(func() {
			src = importer.Source{URI: "s3://bucket/image.tif"}
		})
		It("should return ErrUnsupportedSource", func() {
			var uerr importer.ErrUnsupportedSource
			Expect(errors.As(err, &uerr)).To(BeTrue())
			Expect(uerr.URI).To(Equal("s3://bucket/image.tif"))
		})
	})

	Describe("addOver", func() {
		It("should only add +over when the right edge is west of the left edge", func() {
			Expect(importer.AddOver("+proj=eqc", -170, 170)).To(Equal("+proj=eqc"))
			Expect(importer.AddOver("+proj=eqc", 170, -170)).To(Equal("+proj=eqc +over"))
		})
		It("should be idempotent", func() {
			once := importer.AddOver("+proj=eqc", 170, -170)
			Expect(importer.AddOver(once, 170, -170)).To(Equal(once))
		})
	})
})

var _ = Describe("PUG", func() {
	var (
		file *fakePug
		rec  common.Record
		err  error
		logs *observer.ObservedLogs
	)

	BeforeEach(func() {
		file = &fakePug{
			fakeRows: fakeRows{rows: 6, cols: 8},
			header: pug.Header{
				PlatformID:   "G16",
				Band:         13,
				SchedTime:    time.Date(2017, 9, 26, 18, 0, 0, 0, time.UTC),
				Scene:        "Full Disk",
				Proj4:        "+proj=geos +lon_0=-75 +h=35786023 +a=6378137 +b=6356752.31414 +sweep=x +units=m +no_defs",
				X:            axis(-5000, 2000, 8),
				Y:            axis(5000, -2000, 6),
				Rows:         6,
				Cols:         8,
				StandardName: "toa_brightness_temperature",
				Units:        "K",
				Quantity:     pug.QuantityBrightnessTemperature,
			},
		}
	})

	JustBeforeEach(func() {
		p := importer.NewPUG(pugOpener(file), guidebook.DefaultRegistry())
		var ctx context.Context
		ctx, logs = observedContext()
		rec, err = p.Metadata(ctx, destUUID, importer.Source{Path: "/data/OR_ABI-L1b-RadF-M3C13_G16.nc"})
	})

	It("should build the record from the decoder", func() {
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.Platform).To(Equal(common.PlatformGOES16))
		Expect(rec.Instrument).To(Equal(common.InstrumentABI))
		Expect(rec.Band).To(Equal(13))
		Expect(rec.Scene).To(Equal("Full Disk"))
		Expect(rec.DatasetName).To(Equal("OR_ABI-L1b-RadF-M3C13_G16.nc"))
		Expect(rec.DisplayName).To(Equal("B13"))
		Expect(rec.DisplayTime).To(Equal("2017-09-26 18:00:00"))
		Expect(rec.Units).To(Equal("K"))
		Expect(rec.Colormap).To(Equal(guidebook.ColormapInfrared))
		Expect(rec.Validate()).To(Succeed())
	})

	It("should compute the origin and the cell size from the axes", func() {
		Expect(rec.OriginX).To(Equal(-5000.0))
		Expect(rec.OriginY).To(Equal(5000.0))
		Expect(rec.CellWidth).To(Equal(2000.0))
		Expect(rec.CellHeight).To(Equal(-2000.0))
		Expect(rec.Shape).To(Equal([2]int{6, 8}))
	})

	Context("with a Himawari file exported to PUG", func() {
		BeforeEach(func() {
			file.header.PlatformID = "Himawari-8"
		})
		It("should set the AHI instrument", func() {
			Expect(rec.Platform).To(Equal(common.PlatformHimawari8))
			Expect(rec.Instrument).To(Equal(common.InstrumentAHI))
		})
	})

	Context("with an unparseable start time", func() {
		BeforeEach(func() {
			file.header.SchedTime = time.Time{}
			file.header.Warnings = []string{`time_coverage_start="26/26/2017" ignored`}
		})
		It("should import the file without time", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.SchedTime.IsZero()).To(BeTrue())
			Expect(rec.DisplayTime).To(Equal("OR_ABI-L1b-RadF-M3C13_G16.nc"))
			Expect(rec.Validate()).To(Succeed())
		})
		It("should log the skipped value", func() {
			Expect(logs.FilterMessageSnippet("time_coverage_start").Len()).To(Equal(1))
		})
	})

	Context("with odd-dimensioned, evenly spaced axes", func() {
		BeforeEach(func() {
			file.header.X = axis(-5000, 2000, 7)
			file.header.Cols = 7
			file.fakeRows.cols = 7
		})
		It("should be accepted", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.CellWidth).To(Equal(2000.0))
			Expect(rec.Shape).To(Equal([2]int{6, 7}))
		})
	})

	Context("with unevenly spaced axes", func() {
		BeforeEach(func() {
			file.header.X = []float64{0, 1, 2, 3, 5, 7, 9, 11}
		})
		It("should be rejected", func() {
			var derr importer.ErrDecode
			Expect(errors.As(err, &derr)).To(BeTrue())
		})
	})

	Context("with axes that do not match the radiance shape", func() {
		BeforeEach(func() {
			file.fakeRows.rows = 5
		})
		It("should be rejected", func() {
			var derr importer.ErrDecode
			Expect(errors.As(err, &derr)).To(BeTrue())
		})
	})

	Describe("gridStep", func() {
		It("should need two samples", func() {
			_, _, err := importer.GridStep([]float64{1})
			Expect(err).To(HaveOccurred())
			origin, step, err := importer.GridStep([]float64{1, 3})
			Expect(err).NotTo(HaveOccurred())
			Expect(origin).To(Equal(1.0))
			Expect(step).To(Equal(2.0))
		})
		It("should measure the step at the center", func() {
			_, step, err := importer.GridStep(axis(0, 0.5, 5))
			Expect(err).NotTo(HaveOccurred())
			Expect(step).To(Equal(0.5))
		})
		It("should reject constant axes", func() {
			_, _, err := importer.GridStep([]float64{1, 1, 1, 1})
			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("Import", func() {
	var (
		dir       string
		cachePath string
		rows      *fakeRows
		raster    *fakeRaster
		geotiff   *importer.GeoTIFF
		src       importer.Source
	)
	nodata := -999.0

	collect := func(seq iter.Seq2[importer.Progress, error]) ([]importer.Progress, []error) {
		var events []importer.Progress
		var errs []error
		for p, err := range seq {
			if err != nil {
				errs = append(errs, err)
				continue
			}
			events = append(events, p)
		}
		return events, errs
	}

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "importer")
		Expect(err).NotTo(HaveOccurred())
		cachePath = filepath.Join(dir, destUUID+".dat")
		rows = &fakeRows{
			rows:      1000,
			cols:      3,
			blockRows: 256,
			nodata:    &nodata,
			special:   map[[2]int]float32{{0, 0}: -999, {0, 1}: float32(math.Inf(1)), {999, 2}: float32(math.Inf(-1))},
		}
		src = importer.Source{Path: "/data/image.tif"}
	})

	JustBeforeEach(func() {
		raster = &fakeRaster{fakeRows: *rows, dataType: "Float32"}
		geotiff = importer.NewGeoTIFF(rasterOpener(raster), &fakeProjector{}, guidebook.DefaultRegistry())
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	It("should compute increments aligned on the native blocks", func() {
		Expect(importer.Increment(0)).To(Equal(512))
		Expect(importer.Increment(1)).To(Equal(512))
		Expect(importer.Increment(256)).To(Equal(512))
		Expect(importer.Increment(100)).To(Equal(600))
		Expect(importer.Increment(700)).To(Equal(700))
		Expect(importer.Increment(4096)).To(Equal(2048))
	})

	It("should stream all the rows with a monotonic completion", func() {
		events, errs := collect(geotiff.Import(context.Background(), destUUID, src, cachePath))
		Expect(errs).To(BeEmpty())
		Expect(events).To(HaveLen(3))

		total, last := 0, 0.0
		for i, p := range events {
			Expect(p.UUID).To(Equal(destUUID))
			Expect(p.Stages).To(Equal(1))
			Expect(p.CurrentStage).To(Equal(0))
			Expect(p.Completion).To(BeNumerically(">=", last))
			Expect(p.Record).To(BeNil())
			last = p.Completion
			total += p.Rows
			if i < len(events)-1 {
				Expect(p.Data).To(BeNil())
				Expect(p.Terminal()).To(BeFalse())
			}
		}
		Expect(total).To(Equal(1000))
		Expect(events[0].Rows).To(Equal(512))
		Expect(events[1].Rows).To(Equal(488))

		done := events[len(events)-1]
		Expect(done.Terminal()).To(BeTrue())
		Expect(done.Completion).To(Equal(1.0))
		Expect(done.Rows).To(Equal(0))
		defer done.Data.Close()

		r, c := done.Data.Shape()
		Expect([2]int{r, c}).To(Equal([2]int{1000, 3}))
		Expect(done.Data.Path()).To(Equal(cachePath))
		Expect(done.Data.At(500, 1)).To(Equal(float32(1501)))
		Expect(done.Data.At(999, 1)).To(Equal(float32(2998)))
		Expect(raster.closed).To(BeTrue())
	})

	It("should replace nodata and infinite values by NaN", func() {
		events, errs := collect(geotiff.Import(context.Background(), destUUID, src, cachePath))
		Expect(errs).To(BeEmpty())
		data := events[len(events)-1].Data
		defer data.Close()
		Expect(math.IsNaN(float64(data.At(0, 0)))).To(BeTrue())
		Expect(math.IsNaN(float64(data.At(0, 1)))).To(BeTrue())
		Expect(math.IsNaN(float64(data.At(999, 2)))).To(BeTrue())
		Expect(data.At(0, 2)).To(Equal(float32(2)))
	})

	It("should be lazy", func() {
		geotiff.Import(context.Background(), destUUID, src, cachePath)
		_, err := os.Stat(cachePath)
		Expect(os.IsNotExist(err)).To(BeTrue())
		Expect(raster.reads).To(BeEmpty())
	})

	It("should only be iterated once", func() {
		seq := geotiff.Import(context.Background(), destUUID, src, cachePath)
		events, errs := collect(seq)
		Expect(errs).To(BeEmpty())
		defer events[len(events)-1].Data.Close()
		events, errs = collect(seq)
		Expect(events).To(BeEmpty())
		Expect(errs).To(HaveLen(1))
		Expect(errors.Is(errs[0], importer.ErrSequenceConsumed)).To(BeTrue())
	})

	Context("with an empty raster", func() {
		BeforeEach(func() {
			rows.rows = 0
		})
		It("should fail with ErrCacheAllocation and no event", func() {
			events, errs := collect(geotiff.Import(context.Background(), destUUID, src, cachePath))
			Expect(events).To(BeEmpty())
			Expect(errs).To(HaveLen(1))
			Expect(errors.Is(errs[0], importer.ErrCacheAllocation)).To(BeTrue())
			_, err := os.Stat(cachePath)
			Expect(os.IsNotExist(err)).To(BeTrue())
		})
	})

	Context("with a cache directory that does not exist", func() {
		It("should fail with ErrCacheAllocation", func() {
			_, errs := collect(geotiff.Import(context.Background(), destUUID, src, filepath.Join(dir, "missing", "x.dat")))
			Expect(errs).To(HaveLen(1))
			Expect(errors.Is(errs[0], importer.ErrCacheAllocation)).To(BeTrue())
		})
	})

	Context("when the decoder fails in the middle of the raster", func() {
		BeforeEach(func() {
			rows.failAt = 600
		})
		It("should stop with a decode error and leave the partial file", func() {
			events, errs := collect(geotiff.Import(context.Background(), destUUID, src, cachePath))
			Expect(events).To(HaveLen(1))
			Expect(errs).To(HaveLen(1))
			var derr importer.ErrDecode
			Expect(errors.As(errs[0], &derr)).To(BeTrue())
			_, err := os.Stat(cachePath)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Context("when the consumer stops iterating", func() {
		It("should remove the partial cache file", func() {
			n := 0
			for _, err := range geotiff.Import(context.Background(), destUUID, src, cachePath) {
				Expect(err).NotTo(HaveOccurred())
				n++
				break
			}
			Expect(n).To(Equal(1))
			_, err := os.Stat(cachePath)
			Expect(os.IsNotExist(err)).To(BeTrue())
			Expect(raster.reads).To(HaveLen(1))
		})
	})

	Context("when the context is cancelled", func() {
		It("should stop between increments and remove the partial cache file", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			var events []importer.Progress
			var errs []error
			for p, err := range geotiff.Import(ctx, destUUID, src, cachePath) {
				if err != nil {
					errs = append(errs, err)
					continue
				}
				events = append(events, p)
				cancel()
			}
			Expect(events).To(HaveLen(1))
			Expect(errs).To(HaveLen(1))
			Expect(errors.Is(errs[0], context.Canceled)).To(BeTrue())
			_, err := os.Stat(cachePath)
			Expect(os.IsNotExist(err)).To(BeTrue())
		})
	})

	Context("with a URI", func() {
		It("should yield ErrUnsupportedSource", func() {
			_, errs := collect(geotiff.Import(context.Background(), destUUID, importer.Source{URI: "gs://bucket/image.tif"}, cachePath))
			Expect(errs).To(HaveLen(1))
			var uerr importer.ErrUnsupportedSource
			Expect(errors.As(errs[0], &uerr)).To(BeTrue())
		})
	})

	Context("with a PUG file", func() {
		It("should stream the converted rows", func() {
			file := &fakePug{fakeRows: fakeRows{rows: 5, cols: 4}, header: pug.Header{Rows: 5, Cols: 4}}
			p := importer.NewPUG(pugOpener(file), guidebook.DefaultRegistry())
			events, errs := collect(p.Import(context.Background(), destUUID, importer.Source{Path: "/data/f.nc"}, cachePath))
			Expect(errs).To(BeEmpty())
			Expect(events).To(HaveLen(2))
			Expect(events[0].Rows).To(Equal(5))
			Expect(events[1].StageDesc).To(Equal("GOES PUG data add to workspace"))
			Expect(events[1].Data.At(4, 3)).To(Equal(float32(19)))
			Expect(events[1].Data.Close()).To(Succeed())
		})
	})
})
