package common

// Raw tags found in the metadata of the source files
const (
	TagName         = "name"
	TagPlatform     = "platform"
	TagInstrument   = "instrument"
	TagSensor       = "sensor"
	TagStartTime    = "start_time"
	TagEndTime      = "end_time"
	TagUnits        = "units"
	TagValidMin     = "valid_min"
	TagValidMax     = "valid_max"
	TagStandardName = "standard_name"
	TagFlagValues   = "flag_values"
	TagFlagMasks    = "flag_masks"
	TagFlagMeanings = "flag_meanings"
)

// TagTimeFormat is the layout of start_time and end_time tags
const TagTimeFormat = "2006-01-02T15:04:05Z"
