// Package export renders normalized tracks into map documents.
package export

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/pspoerri/tra2kml/internal/coord"
	"github.com/pspoerri/tra2kml/internal/track"
)

var (
	// ErrEmptySelection is returned by Single when no record is selected.
	ErrEmptySelection = errors.New("no records selected")
	// ErrEmptyBatch is returned by Batch for zero entries.
	ErrEmptyBatch = errors.New("batch has no entries")
	// ErrUnsupportedFormat is returned by NewExporter for unknown formats.
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// Line roles.
const (
	RoleFull      = "full"
	RoleSelection = "selection"
	RoleEntry     = "entry"
)

const (
	alphaFull      = 0xff
	alphaFullTrack = 0x99
)

// Exporter serializes tracks into one self-contained document.
type Exporter interface {
	// Single renders the whole track and the selected subsequence as two lines.
	Single(t *track.Track, selected []int) ([]byte, error)

	// Batch renders one line per entry, in order, each in its entry color.
	Batch(entries []track.Entry) ([]byte, error)

	// Format returns the format name (e.g. "kml", "geojson").
	Format() string

	// FileExtension returns the appropriate file extension.
	FileExtension() string

	// ContentType returns the MIME type of the document.
	ContentType() string
}

// Options control labels and styling shared by all formats.
type Options struct {
	DocumentName   string
	FullTrackName  string
	SelectionName  string
	FullTrackColor track.Color
	SelectionColor track.Color
	LineWidth      int
}

func DefaultOptions() Options {
	return Options{
		FullTrackName:  "Full track",
		SelectionName:  "Selection",
		FullTrackColor: track.Red,
		SelectionColor: track.Green,
		LineWidth:      5,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.FullTrackName == "" {
		o.FullTrackName = d.FullTrackName
	}
	if o.SelectionName == "" {
		o.SelectionName = d.SelectionName
	}
	if o.FullTrackColor == (track.Color{}) {
		o.FullTrackColor = d.FullTrackColor
	}
	if o.SelectionColor == (track.Color{}) {
		o.SelectionColor = d.SelectionColor
	}
	if o.LineWidth <= 0 {
		o.LineWidth = d.LineWidth
	}
	return o
}

// NewExporter creates an exporter for the given format.
func NewExporter(format string, opts Options) (Exporter, error) {
	opts = opts.withDefaults()
	switch strings.ToLower(format) {
	case "kml", "":
		return &KMLExporter{opts: opts}, nil
	case "geojson", "json":
		return &GeoJSONExporter{opts: opts}, nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: kml, geojson)", ErrUnsupportedFormat, format)
	}
}

// line is one styled polyline, the primitive shared by both modes.
type line struct {
	StyleID     string
	Name        string
	Description string
	Role        string
	Color       track.Color
	Alpha       uint8
	Width       int
	Points      []coord.GeographicPoint
}

type document struct {
	Name        string
	Description string
	Lines       []line
}

// round6 rounds to 6 decimals. Values that round to zero come back as +0 so
// no output carries a "-0.000000".
func round6(v float64) float64 {
	r := math.Round(v*1e6) / 1e6
	if r == 0 {
		return 0
	}
	return r
}

func pointsLabel(n int) string {
	if n == 1 {
		return "1 point"
	}
	return fmt.Sprintf("%d points", n)
}

func singleDocument(t *track.Track, selected []int, opts Options) (document, error) {
	if t == nil {
		return document{}, fmt.Errorf("exporting: %w", track.ErrEmptyInput)
	}
	if len(selected) == 0 {
		return document{}, ErrEmptySelection
	}
	sel, err := t.SelectedPoints(selected)
	if err != nil {
		return document{}, err
	}
	all := t.Points()

	doc := document{Name: opts.DocumentName}
	if doc.Name == "" {
		doc.Name = t.Name
	}
	if t.System != nil {
		doc.Description = "Converted from " + t.System.Name
	}
	doc.Lines = []line{
		{
			StyleID:     "fullTrackStyle",
			Name:        opts.FullTrackName,
			Description: "All " + pointsLabel(len(all)) + " of the track",
			Role:        RoleFull,
			Color:       opts.FullTrackColor,
			Alpha:       alphaFullTrack,
			Width:       opts.LineWidth,
			Points:      all,
		},
		{
			StyleID:     "selectionStyle",
			Name:        opts.SelectionName,
			Description: "Selected " + pointsLabel(len(sel)),
			Role:        RoleSelection,
			Color:       opts.SelectionColor,
			Alpha:       alphaFull,
			Width:       opts.LineWidth,
			Points:      sel,
		},
	}
	return doc, nil
}

func batchDocument(entries []track.Entry, opts Options) (document, error) {
	if len(entries) == 0 {
		return document{}, ErrEmptyBatch
	}
	doc := document{
		Name:        opts.DocumentName,
		Description: fmt.Sprintf("%d tracks", len(entries)),
		Lines:       make([]line, 0, len(entries)),
	}
	if doc.Name == "" {
		doc.Name = "Batch export"
	}
	for _, e := range entries {
		var pts []coord.GeographicPoint
		if e.Track != nil {
			pts = e.Track.Points()
		}
		doc.Lines = append(doc.Lines, line{
			StyleID:     fmt.Sprintf("entry%dStyle", e.ID),
			Name:        e.Name,
			Description: pointsLabel(len(pts)),
			Role:        RoleEntry,
			Color:       e.Color,
			Alpha:       alphaFull,
			Width:       opts.LineWidth,
			Points:      pts,
		})
	}
	return doc, nil
}
