package importer

import (
	"errors"
	"fmt"

	"github.com/airbusgeo/geocube-importer/interface/cache"
)

// ErrCacheAllocation is returned when the cache buffer cannot be allocated
var ErrCacheAllocation = cache.ErrCacheAllocation

// ErrSequenceConsumed is yielded when an import sequence is iterated more than once
var ErrSequenceConsumed = errors.New("import sequence already consumed")

// ErrNoApplicableImporter is returned by Select when no importer handles the source
type ErrNoApplicableImporter struct {
	Source Source
}

func (e ErrNoApplicableImporter) Error() string {
	return fmt.Sprintf("no applicable importer for %s", e.Source)
}

// ErrUnsupportedSource is returned for remote sources
type ErrUnsupportedSource struct {
	URI string
}

func (e ErrUnsupportedSource) Error() string {
	return fmt.Sprintf("unsupported source %s: only local paths can be imported", e.URI)
}

// ErrDecode is returned when the decoder fails to open or read the source
type ErrDecode struct {
	Source string
	Err    error
}

func (e ErrDecode) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Source, e.Err)
}

func (e ErrDecode) Unwrap() error {
	return e.Err
}
