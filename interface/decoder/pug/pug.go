// Package pug reads GOES-R ABI L1b radiance files (and AHI files exported to the same layout)
// as described by the Product User Guide.
package pug

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// Names of the variables and attributes used from the file
const (
	varRadiance   = "Rad"
	varX          = "x"
	varY          = "y"
	varBandID     = "band_id"
	varProjection = "goes_imager_projection"
	varKappa0     = "kappa0"
	varFK1        = "planck_fk1"
	varFK2        = "planck_fk2"
	varBC1        = "planck_bc1"
	varBC2        = "planck_bc2"

	attrPlatformID = "platform_ID"
	attrSceneID    = "scene_id"
	attrTimeStart  = "time_coverage_start"
)

// Header gathers the metadata of a PUG file
type Header struct {
	PlatformID   string // G16, G17, Himawari-8...
	Band         int
	SchedTime    time.Time // UTC, truncated to the minute
	Scene        string
	Proj4        string
	X, Y         []float64 // projection coordinates in nadir metres
	Rows, Cols   int
	StandardName string
	Units        string
	Quantity     Quantity

	// Warnings lists the metadata that could not be parsed and was skipped
	Warnings []string
}

// File is an opened PUG file
type File struct {
	path      string
	group     api.Group
	radiance  api.VarGetter
	decoder   sampleDecoder
	converter Converter
	header    Header
}

// Open opens the file and reads its header
func Open(path string) (*File, error) {
	g, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pug.Open[%s]: %w", path, err)
	}
	f := &File{path: path, group: g}
	if err := f.readHeader(); err != nil {
		g.Close()
		return nil, fmt.Errorf("pug.Open[%s].%w", path, err)
	}
	return f, nil
}

// Header returns the metadata of the file
func (f *File) Header() Header {
	return f.header
}

// Shape returns the shape of the radiance array
func (f *File) Shape() (rows, cols int) {
	return f.header.Rows, f.header.Cols
}

// BlockRows is unknown for netCDF files
func (f *File) BlockRows() int {
	return 0
}

// NoData is always absent: fill values are decoded as NaN
func (f *File) NoData() (float64, bool) {
	return math.NaN(), false
}

// ReadRows reads count rows starting at start, converted to the quantity of the band
func (f *File) ReadRows(start, count int, dst []float32) error {
	if start < 0 || count <= 0 || start+count > f.header.Rows {
		return fmt.Errorf("pug.ReadRows: rows [%d, %d) out of [0, %d)", start, start+count, f.header.Rows)
	}
	if len(dst) < count*f.header.Cols {
		return fmt.Errorf("pug.ReadRows: buffer too small (%d < %d)", len(dst), count*f.header.Cols)
	}
	raw, err := f.radiance.GetSlice(int64(start), int64(start+count))
	if err != nil {
		return fmt.Errorf("pug.ReadRows[%s]: %w", f.path, err)
	}
	rads, ok := decodeValues(raw, f.decoder)
	if !ok {
		return fmt.Errorf("pug.ReadRows: unsupported type %T", raw)
	}
	if len(rads) != count*f.header.Cols {
		return fmt.Errorf("pug.ReadRows: got %d samples, expecting %d", len(rads), count*f.header.Cols)
	}
	for i, rad := range rads {
		dst[i] = float32(f.converter.Convert(rad))
	}
	return nil
}

// Close releases the file
func (f *File) Close() error {
	f.group.Close()
	return nil
}

func (f *File) readHeader() error {
	var err error
	attrs := f.group.Attributes()
	f.header.PlatformID = stringAttr(attrs, attrPlatformID)
	f.header.Scene = stringAttr(attrs, attrSceneID)
	if ts := stringAttr(attrs, attrTimeStart); ts != "" {
		if t, err := dateparse.ParseIn(ts, time.UTC); err != nil {
			f.header.Warnings = append(f.header.Warnings, fmt.Sprintf("%s=%q ignored: %v", attrTimeStart, ts, err))
		} else {
			f.header.SchedTime = t.UTC().Truncate(time.Minute)
		}
	}

	band, ok := f.variableNumber(varBandID)
	if !ok {
		return fmt.Errorf("readHeader: missing %s", varBandID)
	}
	f.header.Band = int(band)

	if f.header.Proj4, err = f.proj4(); err != nil {
		return fmt.Errorf("readHeader.%w", err)
	}
	h, _ := f.projectionNumber("perspective_point_height")
	if f.header.X, err = f.axis(varX, h); err != nil {
		return fmt.Errorf("readHeader.%w", err)
	}
	if f.header.Y, err = f.axis(varY, h); err != nil {
		return fmt.Errorf("readHeader.%w", err)
	}

	if f.radiance, err = f.group.GetVarGetter(varRadiance); err != nil {
		return fmt.Errorf("readHeader.GetVarGetter(%s): %w", varRadiance, err)
	}
	dims := f.radiance.Dimensions()
	if len(dims) != 2 {
		return fmt.Errorf("readHeader: %s has %d dimensions", varRadiance, len(dims))
	}
	cols, ok := f.group.GetDimension(dims[1])
	if !ok {
		return fmt.Errorf("readHeader: unknown dimension %s", dims[1])
	}
	f.header.Rows, f.header.Cols = int(f.radiance.Len()), int(cols)
	f.decoder = packing(f.radiance.Attributes())

	f.converter, f.header.Quantity = f.bandConverter()
	switch f.header.Quantity {
	case QuantityReflectance:
		f.header.StandardName, f.header.Units = "toa_bidirectional_reflectance", "1"
	case QuantityBrightnessTemperature:
		f.header.StandardName, f.header.Units = "toa_brightness_temperature", "K"
	default:
		f.header.StandardName = stringAttr(f.radiance.Attributes(), "standard_name")
		f.header.Units = stringAttr(f.radiance.Attributes(), "units")
	}
	return nil
}

// bandConverter chooses the conversion of the band. Radiances are kept if the constants are missing.
func (f *File) bandConverter() (Converter, Quantity) {
	if f.header.Band >= 1 && f.header.Band <= 6 {
		if k, ok := f.variableNumber(varKappa0); ok {
			return Converter{Quantity: QuantityReflectance, Kappa0: k}, QuantityReflectance
		}
		return Converter{}, QuantityRadiance
	}
	c := Converter{Quantity: QuantityBrightnessTemperature}
	var ok1, ok2, ok3, ok4 bool
	c.FK1, ok1 = f.variableNumber(varFK1)
	c.FK2, ok2 = f.variableNumber(varFK2)
	c.BC1, ok3 = f.variableNumber(varBC1)
	c.BC2, ok4 = f.variableNumber(varBC2)
	if !ok1 || !ok2 || !ok3 || !ok4 || c.BC2 == 0 {
		return Converter{}, QuantityRadiance
	}
	return c, QuantityBrightnessTemperature
}

// proj4 builds the geostationary projection from the grid mapping variable
func (f *File) proj4() (string, error) {
	v, err := f.group.GetVariable(varProjection)
	if err != nil {
		return "", fmt.Errorf("proj4.GetVariable(%s): %w", varProjection, err)
	}
	params := []struct {
		attr, key string
	}{
		{"longitude_of_projection_origin", "lon_0"},
		{"perspective_point_height", "h"},
		{"semi_major_axis", "a"},
		{"semi_minor_axis", "b"},
	}
	parts := []string{"+proj=geos"}
	for _, p := range params {
		val, ok := v.Attributes.Get(p.attr)
		if !ok {
			return "", fmt.Errorf("proj4: missing %s", p.attr)
		}
		n, ok := number(val)
		if !ok {
			return "", fmt.Errorf("proj4: %s is not a number", p.attr)
		}
		parts = append(parts, "+"+p.key+"="+strconv.FormatFloat(n, 'f', -1, 64))
	}
	sweep := stringAttr(v.Attributes, "sweep_angle_axis")
	if sweep == "" {
		sweep = "x"
	}
	parts = append(parts, "+sweep="+sweep, "+units=m", "+no_defs")
	return strings.Join(parts, " "), nil
}

func (f *File) projectionNumber(attr string) (float64, bool) {
	v, err := f.group.GetVariable(varProjection)
	if err != nil {
		return 0, false
	}
	val, ok := v.Attributes.Get(attr)
	if !ok {
		return 0, false
	}
	return number(val)
}

// axis returns the scanning angles of the axis (radians) multiplied by the satellite height
func (f *File) axis(name string, height float64) ([]float64, error) {
	v, err := f.group.GetVariable(name)
	if err != nil {
		return nil, fmt.Errorf("axis.GetVariable(%s): %w", name, err)
	}
	angles, ok := decodeValues(v.Values, packing(v.Attributes))
	if !ok {
		return nil, fmt.Errorf("axis: %s has unsupported type %T", name, v.Values)
	}
	for i := range angles {
		angles[i] *= height
	}
	return angles, nil
}

func (f *File) variableNumber(name string) (float64, bool) {
	v, err := f.group.GetVariable(name)
	if err != nil {
		return 0, false
	}
	n, ok := number(v.Values)
	if !ok || math.IsNaN(n) {
		return 0, false
	}
	if fill, has := v.Attributes.Get("_FillValue"); has {
		if fv, ok := number(fill); ok && fv == n {
			return 0, false
		}
	}
	return n, true
}

// packing reads the CF attributes describing how the values are stored
func packing(attrs api.AttributeMap) sampleDecoder {
	d := sampleDecoder{scale: 1}
	if v, ok := attrs.Get("scale_factor"); ok {
		if n, ok := number(v); ok {
			d.scale = n
		}
	}
	if v, ok := attrs.Get("add_offset"); ok {
		if n, ok := number(v); ok {
			d.offset = n
		}
	}
	if v, ok := attrs.Get("_FillValue"); ok {
		d.fill, d.hasFill = number(v)
	}
	d.unsigned = strings.EqualFold(stringAttr(attrs, "_Unsigned"), "true")
	return d
}

func stringAttr(attrs api.AttributeMap, key string) string {
	v, ok := attrs.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
