package track

import (
	"errors"
	"fmt"

	"github.com/pspoerri/tra2kml/internal/coord"
)

// ErrEmptyInput is returned when a track has no usable records: either none
// were given or none of them could be transformed.
var ErrEmptyInput = errors.New("track has no usable records")

// RawRecord is one record as delivered by a track reader: a coordinate pair
// plus pass-through fields such as station or radius.
type RawRecord struct {
	Point      coord.RawPoint
	Attributes map[string]any
}

// Record is a RawRecord after normalization. Geo is nil when the point
// could not be transformed; a zero coordinate is a real coordinate.
type Record struct {
	Index       int
	Point       coord.RawPoint
	Attributes  map[string]any
	Geo         *coord.GeographicPoint
	OutOfBounds bool
	Err         error
}

// Resolved reports whether the record carries a WGS84 position.
func (r *Record) Resolved() bool { return r.Geo != nil }

// IndexError reports a record index outside the track.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("record index %d out of range [0, %d)", e.Index, e.Len)
}
