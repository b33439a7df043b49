package pug

import (
	"math"
	"reflect"
	"strconv"
	"strings"
	"unsafe"
)

// Quantity is the physical quantity the radiances are converted to
type Quantity int

const (
	QuantityRadiance Quantity = iota
	QuantityReflectance
	QuantityBrightnessTemperature
)

func (q Quantity) String() string {
	switch q {
	case QuantityReflectance:
		return "reflectance"
	case QuantityBrightnessTemperature:
		return "brightness_temperature"
	}
	return "radiance"
}

// Reflectance converts a radiance of a reflective band (1-6)
func Reflectance(rad, kappa0 float64) float64 {
	return kappa0 * rad
}

// BrightnessTemperature converts a radiance of an emissive band (7-16) using the Planck constants
func BrightnessTemperature(rad, fk1, fk2, bc1, bc2 float64) float64 {
	if rad <= 0 {
		return math.NaN()
	}
	return (fk2/math.Log(fk1/rad+1) - bc1) / bc2
}

// Converter converts radiances to the quantity of the band
type Converter struct {
	Quantity           Quantity
	Kappa0             float64
	FK1, FK2, BC1, BC2 float64
}

// Convert returns the converted value of rad. NaN stays NaN.
func (c Converter) Convert(rad float64) float64 {
	if math.IsNaN(rad) {
		return rad
	}
	switch c.Quantity {
	case QuantityReflectance:
		return Reflectance(rad, c.Kappa0)
	case QuantityBrightnessTemperature:
		return BrightnessTemperature(rad, c.FK1, c.FK2, c.BC1, c.BC2)
	}
	return rad
}

// sampleDecoder unpacks the stored values of a variable (CF packing conventions)
type sampleDecoder struct {
	unsigned bool
	hasFill  bool
	fill     float64 // as stored
	scale    float64
	offset   float64
}

func (d sampleDecoder) decode(stored float64, bits int) float64 {
	if d.hasFill && stored == d.fill {
		return math.NaN()
	}
	if d.unsigned && stored < 0 {
		stored += math.Exp2(float64(bits))
	}
	return stored*d.scale + d.offset
}

type storedType interface {
	int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64 | float32 | float64
}

func decodeVector[T storedType](values []T, d sampleDecoder, dst []float64) []float64 {
	var zero T
	bits := int(unsafe.Sizeof(zero)) * 8
	for _, v := range values {
		dst = append(dst, d.decode(float64(v), bits))
	}
	return dst
}

func decodeMatrix[T storedType](rows [][]T, d sampleDecoder, dst []float64) []float64 {
	for _, row := range rows {
		dst = decodeVector(row, d, dst)
	}
	return dst
}

// decodeValues unpacks a 1D or 2D array returned by the netcdf reader
func decodeValues(values interface{}, d sampleDecoder) ([]float64, bool) {
	switch v := values.(type) {
	case []int8:
		return decodeVector(v, d, nil), true
	case []uint8:
		return decodeVector(v, d, nil), true
	case []int16:
		return decodeVector(v, d, nil), true
	case []uint16:
		return decodeVector(v, d, nil), true
	case []int32:
		return decodeVector(v, d, nil), true
	case []uint32:
		return decodeVector(v, d, nil), true
	case []int64:
		return decodeVector(v, d, nil), true
	case []float32:
		return decodeVector(v, d, nil), true
	case []float64:
		return decodeVector(v, d, nil), true
	case [][]int8:
		return decodeMatrix(v, d, nil), true
	case [][]uint8:
		return decodeMatrix(v, d, nil), true
	case [][]int16:
		return decodeMatrix(v, d, nil), true
	case [][]uint16:
		return decodeMatrix(v, d, nil), true
	case [][]int32:
		return decodeMatrix(v, d, nil), true
	case [][]uint32:
		return decodeMatrix(v, d, nil), true
	case [][]int64:
		return decodeMatrix(v, d, nil), true
	case [][]float32:
		return decodeMatrix(v, d, nil), true
	case [][]float64:
		return decodeMatrix(v, d, nil), true
	}
	return nil, false
}

// number returns the first value of a numeric attribute or variable (scalar, slice or numeric string)
func number(value interface{}) (float64, bool) {
	if s, ok := value.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	v := reflect.ValueOf(value)
	if !v.IsValid() {
		return 0, false
	}
	if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
		if v.Len() == 0 {
			return 0, false
		}
		v = v.Index(0)
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	}
	return 0, false
}
