package common

//go:generate go run github.com/dmarkham/enumer -json -type Status -trimprefix Status

// Status of an import job
type Status int

const (
	StatusNEW Status = iota
	StatusPENDING
	StatusDONE
	StatusFAILED
	StatusRETRY
)
