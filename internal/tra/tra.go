// Package tra reads alignment files in the TRA binary format: a header
// record followed by packed 78-byte little-endian element records.
package tra

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pspoerri/tra2kml/internal/coord"
	"github.com/pspoerri/tra2kml/internal/track"
)

// RecordSize is the packed size of one record on disk.
const RecordSize = 78

var (
	// ErrEmptyFile is returned when the input is shorter than a header record.
	ErrEmptyFile = errors.New("tra: file too short for a header record")
	// ErrNoElements is returned when the header declares no elements.
	ErrNoElements = errors.New("tra: header declares no elements")
)

// TruncatedError reports a file that ends before all declared elements.
type TruncatedError struct {
	Declared int
	Read     int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("tra: file truncated: header declares %d elements, found %d", e.Declared, e.Read)
}

// Element is one alignment element. Field names follow the format's own
// naming; Y is the easting and X the northing of the element start.
type Element struct {
	R1 float64 // radius at start
	R2 float64 // radius at end
	Y  float64 // easting at start
	X  float64 // northing at start
	T  float64 // bearing at start
	S  float64 // station at start
	Kz int16   // element type; in the header: element count - 1
	L  float64 // length
	U1 float64 // superelevation at start
	U2 float64 // superelevation at end
	C  int32   // distance to route
}

// RawPoint returns the element start as (Y, X).
func (e Element) RawPoint() coord.RawPoint {
	return coord.RawPoint{First: e.Y, Second: e.X}
}

// Attributes returns the pass-through fields carried into a track record.
func (e Element) Attributes() map[string]any {
	return map[string]any{
		"station":              e.S,
		"direction":            e.T,
		"radius":               e.R1,
		"radius_end":           e.R2,
		"element_type":         int(e.Kz),
		"length":               e.L,
		"superelevation_start": e.U1,
		"superelevation_end":   e.U2,
		"route_distance":       int(e.C),
	}
}

// File is a decoded TRA file.
type File struct {
	Header   Element
	Elements []Element
}

// Decode reads a header and the nKz+1 elements it declares. Trailing bytes
// after the declared elements are ignored.
func Decode(r io.Reader) (*File, error) {
	br := bufio.NewReader(r)

	var f File
	if err := binary.Read(br, binary.LittleEndian, &f.Header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrEmptyFile
		}
		return nil, fmt.Errorf("tra: reading header: %w", err)
	}

	n := int(f.Header.Kz) + 1
	if n < 1 {
		return nil, fmt.Errorf("%w (count field %d)", ErrNoElements, f.Header.Kz)
	}

	f.Elements = make([]Element, 0, n)
	for i := 0; i < n; i++ {
		var e Element
		if err := binary.Read(br, binary.LittleEndian, &e); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, &TruncatedError{Declared: n, Read: i}
			}
			return nil, fmt.Errorf("tra: reading element %d: %w", i, err)
		}
		f.Elements = append(f.Elements, e)
	}
	return &f, nil
}

// ReadFile decodes the TRA file at path.
func ReadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer fh.Close()

	f, err := Decode(fh)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return f, nil
}

// Encode writes elements with a header whose count field matches.
func Encode(w io.Writer, header Element, elems []Element) error {
	if len(elems) == 0 {
		return ErrNoElements
	}
	if len(elems)-1 > int(^uint16(0)>>1) {
		return fmt.Errorf("tra: %d elements exceed the format limit", len(elems))
	}
	header.Kz = int16(len(elems) - 1)

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, header); err != nil {
		return err
	}
	for _, e := range elems {
		if err := binary.Write(bw, binary.LittleEndian, e); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// RawRecords converts elements to reader records for normalization.
func (f *File) RawRecords() []track.RawRecord {
	out := make([]track.RawRecord, len(f.Elements))
	for i, e := range f.Elements {
		out[i] = track.RawRecord{Point: e.RawPoint(), Attributes: e.Attributes()}
	}
	return out
}
