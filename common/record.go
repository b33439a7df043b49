package common

import (
	"fmt"
	"strings"
	"time"
)

//go:generate go run github.com/dmarkham/enumer -json -type Kind -trimprefix Kind

// Kind defines the kind of dataset
type Kind int

const (
	KindUnknown Kind = iota
	KindImage
	KindContour
	KindShapes
	KindRGB
)

// Record is the canonical description of an imported dataset.
// Optional fields are left to their zero value when the source does not provide them.
type Record struct {
	UUID        string        `json:"uuid"`
	Kind        Kind          `json:"kind"`
	DatasetName string        `json:"dataset_name"`
	Pathname    string        `json:"pathname,omitempty"`
	Platform    Platform      `json:"platform,omitempty"`
	Instrument  Instrument    `json:"instrument,omitempty"`
	Band        int           `json:"band,omitempty"`
	Scene       string        `json:"scene,omitempty"`
	SchedTime   time.Time     `json:"sched_time,omitzero"`
	ObsTime     time.Time     `json:"obs_time,omitzero"`
	ObsDuration time.Duration `json:"obs_duration,omitempty"`
	DisplayTime string        `json:"display_time"`
	DisplayName string        `json:"display_name"`

	OriginX    float64 `json:"origin_x"`
	OriginY    float64 `json:"origin_y"`
	CellWidth  float64 `json:"cell_width"`
	CellHeight float64 `json:"cell_height"`
	Shape      [2]int  `json:"shape"` // rows, cols
	Proj       string  `json:"proj"`
	Footprint  string  `json:"footprint,omitempty"` // WKT, lon/lat

	StandardName string      `json:"standard_name,omitempty"`
	Units        string      `json:"units,omitempty"`
	ValidMin     *float64    `json:"valid_min,omitempty"`
	ValidMax     *float64    `json:"valid_max,omitempty"`
	FlagValues   []int       `json:"flag_values,omitempty"`
	FlagMasks    []int       `json:"flag_masks,omitempty"`
	FlagMeanings []string    `json:"flag_meanings,omitempty"`
	SampleType   string      `json:"sample_type,omitempty"`
	Colormap     string      `json:"colormap,omitempty"`
	CLim         *[2]float64 `json:"clim,omitempty"`

	Tags map[string]string `json:"tags,omitempty"` // Raw tags that are not part of the schema
}

// ErrIncompleteRecord is returned by Validate
type ErrIncompleteRecord struct {
	Missing []string
}

func (e ErrIncompleteRecord) Error() string {
	return fmt.Sprintf("incomplete record: missing %s", strings.Join(e.Missing, ", "))
}

// Validate checks that the required fields are set
func (r *Record) Validate() error {
	var missing []string
	if r.UUID == "" {
		missing = append(missing, "uuid")
	}
	if r.Kind == KindUnknown {
		missing = append(missing, "kind")
	}
	if r.Shape[0] <= 0 || r.Shape[1] <= 0 {
		missing = append(missing, "shape")
	}
	if r.CellWidth == 0 || r.CellHeight == 0 {
		missing = append(missing, "cell_size")
	}
	if r.Proj == "" {
		missing = append(missing, "proj")
	}
	if r.DisplayName == "" {
		missing = append(missing, "display_name")
	}
	if r.DisplayTime == "" {
		missing = append(missing, "display_time")
	}
	if len(missing) > 0 {
		return ErrIncompleteRecord{Missing: missing}
	}
	return nil
}

// ValidRange returns the valid range if both bounds are known
func (r *Record) ValidRange() (lo, hi float64, ok bool) {
	if r.ValidMin == nil || r.ValidMax == nil {
		return 0, 0, false
	}
	return *r.ValidMin, *r.ValidMax, true
}

// Clone returns a deep copy of the record
func (r Record) Clone() Record {
	c := r
	if r.ValidMin != nil {
		v := *r.ValidMin
		c.ValidMin = &v
	}
	if r.ValidMax != nil {
		v := *r.ValidMax
		c.ValidMax = &v
	}
	if r.CLim != nil {
		v := *r.CLim
		c.CLim = &v
	}
	c.FlagValues = append([]int(nil), r.FlagValues...)
	c.FlagMasks = append([]int(nil), r.FlagMasks...)
	c.FlagMeanings = append([]string(nil), r.FlagMeanings...)
	if r.Tags != nil {
		c.Tags = make(map[string]string, len(r.Tags))
		for k, v := range r.Tags {
			c.Tags[k] = v
		}
	}
	return c
}
