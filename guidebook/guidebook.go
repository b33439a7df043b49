// Package guidebook holds the per-platform display knowledge (colormaps, color limits, display name and time)
package guidebook

import (
	"strings"

	"github.com/airbusgeo/geocube-importer/common"
)

// Colormaps
const (
	ColormapVisible     = "Square Root (Vis Default)"
	ColormapInfrared    = "Rainbow (IR Default)"
	ColormapWaterVapour = "Water Vapor (Default)"
)

// DisplayTimeFormat is the layout of the display time
const DisplayTimeFormat = "2006-01-02 15:04:05"

// Standard names of the converted quantities
const (
	standardNameReflectance = "toa_bidirectional_reflectance"
	standardNameTemperature = "toa_brightness_temperature"
)

// Guidebook provides the display defaults of a dataset
type Guidebook interface {
	// DefaultColormap returns the colormap of the dataset, or "" if the guidebook has no opinion
	DefaultColormap(rec *common.Record) string
	// CLimits returns the color limits of the dataset
	CLimits(rec *common.Record) (lo, hi float64, ok bool)
	DefaultDisplayTime(rec *common.Record) string
	DefaultDisplayName(rec *common.Record) string
}

// Default is the guidebook of the platforms without specific knowledge
type Default struct{}

// DefaultColormap implements Guidebook
func (Default) DefaultColormap(rec *common.Record) string {
	switch rec.StandardName {
	case standardNameReflectance:
		return ColormapVisible
	case standardNameTemperature:
		return ColormapInfrared
	}
	return ""
}

// CLimits implements Guidebook. Only the valid range is known.
func (Default) CLimits(rec *common.Record) (float64, float64, bool) {
	return rec.ValidRange()
}

// DefaultDisplayTime implements Guidebook
// It formats the observation time, else the scheduled time, else falls back to the dataset name.
func (Default) DefaultDisplayTime(rec *common.Record) string {
	switch {
	case !rec.ObsTime.IsZero():
		return rec.ObsTime.UTC().Format(DisplayTimeFormat)
	case !rec.SchedTime.IsZero():
		return rec.SchedTime.UTC().Format(DisplayTimeFormat)
	}
	return rec.DatasetName
}

// DefaultDisplayName implements Guidebook
// <platform> <instrument> <dataset name> <display time>, unknown parts are skipped
func (g Default) DefaultDisplayName(rec *common.Record) string {
	var parts []string
	if rec.Platform != "" && rec.Platform != common.PlatformUnknown {
		parts = append(parts, string(rec.Platform))
	}
	if rec.Instrument != "" && rec.Instrument != common.InstrumentUnknown {
		parts = append(parts, string(rec.Instrument))
	}
	if rec.DatasetName != "" {
		parts = append(parts, rec.DatasetName)
	}
	displayTime := rec.DisplayTime
	if displayTime == "" {
		displayTime = g.DefaultDisplayTime(rec)
	}
	if displayTime != "" && displayTime != rec.DatasetName {
		parts = append(parts, displayTime)
	}
	return strings.Join(parts, " ")
}

// ABIAHI is the guidebook of the GOES-R ABI and Himawari AHI imagers (16 bands)
type ABIAHI struct {
	Default
}

// Default color limits
var (
	CLimReflectance = [2]float64{-0.012, 1.192}
	CLimTemperature = [2]float64{163.15, 328.15} // K
)

func isReflective(band int) bool {
	return band >= 1 && band <= 6
}

func isWaterVapour(band int) bool {
	return band >= 8 && band <= 10
}

// DefaultColormap implements Guidebook
func (g ABIAHI) DefaultColormap(rec *common.Record) string {
	switch {
	case rec.Band == 0:
		return g.Default.DefaultColormap(rec)
	case isReflective(rec.Band):
		return ColormapVisible
	case isWaterVapour(rec.Band):
		return ColormapWaterVapour
	}
	return ColormapInfrared
}

// CLimits implements Guidebook
func (g ABIAHI) CLimits(rec *common.Record) (float64, float64, bool) {
	if lo, hi, ok := rec.ValidRange(); ok {
		return lo, hi, true
	}
	switch {
	case isReflective(rec.Band):
		return CLimReflectance[0], CLimReflectance[1], true
	case rec.Band > 6:
		return CLimTemperature[0], CLimTemperature[1], true
	case rec.StandardName == standardNameReflectance:
		return CLimReflectance[0], CLimReflectance[1], true
	case rec.StandardName == standardNameTemperature:
		return CLimTemperature[0], CLimTemperature[1], true
	}
	return 0, 0, false
}
