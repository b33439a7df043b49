package common

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Platform defines the satellite that acquired the data
type Platform string

// Supported platforms
const (
	PlatformGOES16    Platform = "GOES-16"
	PlatformGOES17    Platform = "GOES-17"
	PlatformHimawari8 Platform = "Himawari-8"
	PlatformHimawari9 Platform = "Himawari-9"
	PlatformUnknown   Platform = "Unknown"
)

// Instrument defines the imager on board of the platform
type Instrument string

// Supported instruments
const (
	InstrumentABI     Instrument = "ABI"
	InstrumentAHI     Instrument = "AHI"
	InstrumentUnknown Instrument = "Unknown"
)

// normalizeToken lowers the token and strips the separators used by the various formats
func normalizeToken(token string) string {
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(token)))
}

// PlatformFromValue returns the platform from a format-specific spelling (G16, goes-16, Himawari-8, H08...)
// PlatformUnknown is returned if the token is not recognized
func PlatformFromValue(token string) Platform {
	switch normalizeToken(token) {
	case "goes16", "g16", "goeseast":
		return PlatformGOES16
	case "goes17", "g17", "goeswest":
		return PlatformGOES17
	case "himawari8", "h08", "h8", "hima8":
		return PlatformHimawari8
	case "himawari9", "h09", "h9", "hima9":
		return PlatformHimawari9
	}
	return PlatformUnknown
}

// InstrumentFromValue returns the instrument from a format-specific spelling
// InstrumentUnknown is returned if the token is not recognized
func InstrumentFromValue(token string) Instrument {
	switch normalizeToken(token) {
	case "abi":
		return InstrumentABI
	case "ahi":
		return InstrumentAHI
	}
	return InstrumentUnknown
}

// FilenameInfo holds the fields encoded in a legacy Himawari Standard Data file name
// HS_Hnn_YYYYMMDD_hhmm_Bbb_SCENE*
type FilenameInfo struct {
	Platform   Platform
	PlatformID string // as found in the name, kept when Platform is unknown
	Instrument Instrument
	Band       int
	Time       time.Time
	Scene      string
}

var legacyHSDName = regexp.MustCompile(`^HS_H(\d\d)_(\d{8})_(\d{4})_B(\d\d)_([A-Za-z0-9]+)`)

// InfoFromFilename parses the base name of the path
// It returns false if the name does not follow the legacy naming convention.
func InfoFromFilename(path string) (FilenameInfo, bool) {
	m := legacyHSDName.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return FilenameInfo{}, false
	}
	when, err := time.Parse("200601021504", m[2]+m[3])
	if err != nil {
		return FilenameInfo{}, false
	}
	plat, _ := strconv.Atoi(m[1])
	band, _ := strconv.Atoi(m[4])
	platformID := fmt.Sprintf("Himawari-%d", plat)
	return FilenameInfo{
		Platform:   PlatformFromValue(platformID),
		PlatformID: platformID,
		Instrument: InstrumentAHI,
		Band:       band,
		Time:       when,
		Scene:      m[5],
	}, true
}

// BandName returns the short name of a band (B01, B13...)
func BandName(band int) string {
	return fmt.Sprintf("B%02d", band)
}
