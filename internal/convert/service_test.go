package convert

import (
	"bytes"
	"errors"
	"image/png"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pspoerri/tra2kml/internal/config"
	"github.com/pspoerri/tra2kml/internal/coord"
	"github.com/pspoerri/tra2kml/internal/export"
	"github.com/pspoerri/tra2kml/internal/logging"
	"github.com/pspoerri/tra2kml/internal/preview"
	"github.com/pspoerri/tra2kml/internal/tra"
	"github.com/pspoerri/tra2kml/internal/track"
)

// munichElements walks east from a known GK zone 4 point in Munich.
func munichElements(n int) []tra.Element {
	elems := make([]tra.Element, n)
	for i := range elems {
		elems[i] = tra.Element{
			Y:  4468849.7577 + float64(i)*100,
			X:  5333637.1745 + float64(i)*10,
			S:  float64(i) * 100,
			L:  100,
			Kz: 1,
		}
	}
	return elems
}

func writeTRA(t *testing.T, dir, name string, elems []tra.Element) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, tra.Encode(&buf, tra.Element{}, elems))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func newTestService(t *testing.T, opts Options) (*Service, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return NewService(logging.NewStructuredLogger(&buf, slog.LevelDebug), opts), &buf
}

type countingProgress struct{ n atomic.Int64 }

func (p *countingProgress) Increment() { p.n.Add(1) }

func TestListSupportedSystems(t *testing.T) {
	s := NewService(nil, Options{})
	list := s.ListSupportedSystems()
	require.Len(t, list, len(coord.Systems()))
	assert.Equal(t, "gk2", list[0].Key)
}

func TestTransform(t *testing.T) {
	s := NewService(nil, Options{})

	g, err := s.Transform(coord.RawPoint{First: 4468849.7577, Second: 5333637.1745}, "4")
	require.NoError(t, err)
	assert.InDelta(t, 11.58, g.Lon, 1e-6)
	assert.InDelta(t, 48.14, g.Lat, 1e-6)

	_, err = s.Transform(coord.RawPoint{First: 1, Second: 2}, "utm32n")
	var unsupported *coord.UnsupportedSystemError
	assert.ErrorAs(t, err, &unsupported)

	_, err = s.Transform(coord.RawPoint{First: math.NaN(), Second: 2}, "gk4")
	var te *coord.TransformError
	assert.ErrorAs(t, err, &te)
}

func TestNormalizeTrack(t *testing.T) {
	progress := &countingProgress{}
	s, logs := newTestService(t, Options{Progress: progress})

	raw := (&tra.File{Elements: munichElements(5)}).RawRecords()
	tr, err := s.NormalizeTrack("Strecke 6100", raw, "gk4")
	require.NoError(t, err)
	assert.Equal(t, "Strecke 6100", tr.Name)
	assert.Equal(t, track.Stats{Records: 5, Resolved: 5}, tr.Stats())
	assert.Equal(t, int64(5), progress.n.Load())
	assert.Contains(t, logs.String(), `"msg":"track_normalized"`)
	assert.Contains(t, logs.String(), `"resolved":5`)
}

func TestNormalizeTrack_Errors(t *testing.T) {
	s, logs := newTestService(t, Options{})

	_, err := s.NormalizeTrack("empty", nil, "gk4")
	assert.ErrorIs(t, err, track.ErrEmptyInput)
	assert.Contains(t, logs.String(), "track normalization failed")

	raw := []track.RawRecord{{Point: coord.RawPoint{First: 4468849, Second: 5333637}}}
	_, err = s.NormalizeTrack("x", raw, "dhdn")
	var unsupported *coord.UnsupportedSystemError
	assert.ErrorAs(t, err, &unsupported)
}

func TestNormalizeTrack_KeepUnresolved(t *testing.T) {
	s, logs := newTestService(t, Options{Policy: track.KeepUnresolved})

	raw := []track.RawRecord{
		{Point: coord.RawPoint{First: 12, Second: 50}},
		{Point: coord.RawPoint{First: math.Inf(1), Second: 50}},
		{Point: coord.RawPoint{First: -70, Second: 40}},
	}
	tr, err := s.NormalizeTrack("mixed", raw, "wgs84")
	require.NoError(t, err)
	assert.Equal(t, track.Stats{Records: 3, Resolved: 2, Unresolved: 1, OutOfBounds: 1}, tr.Stats())
	assert.Contains(t, logs.String(), "outside the plausibility envelope")
}

func TestLoadTRA(t *testing.T) {
	dir := t.TempDir()
	path := writeTRA(t, dir, "strecke_6100.tra", munichElements(3))

	s := NewService(nil, Options{})
	tr, err := s.LoadTRA(path, "gk4")
	require.NoError(t, err)
	assert.Equal(t, "strecke_6100", tr.Name)
	require.Equal(t, 3, tr.Len())
	assert.Equal(t, 100.0, tr.Records[1].Attributes["station"])
	assert.InDelta(t, 11.58, tr.Records[0].Geo.Lon, 1e-6)

	_, err = s.LoadTRA(filepath.Join(dir, "missing.tra"), "gk4")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	empty := filepath.Join(dir, "empty.tra")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = s.LoadTRA(empty, "gk4")
	assert.ErrorIs(t, err, tra.ErrEmptyFile)
}

func TestTrackName(t *testing.T) {
	assert.Equal(t, "a", TrackName("/data/a.tra"))
	assert.Equal(t, "b.c", TrackName("b.c.TRA"))
	assert.Equal(t, "noext", TrackName("noext"))
}

func TestLoadBatch(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i, name := range []string{"c.tra", "a.tra", "b.tra", "d.tra"} {
		paths = append(paths, writeTRA(t, dir, name, munichElements(2+i)))
	}

	s := NewService(nil, Options{Concurrency: 3})
	cursor := track.NewPaletteCursor(nil)
	b, err := s.LoadBatch(paths, "gk4", cursor)
	require.NoError(t, err)

	entries := b.Entries()
	require.Len(t, entries, 4)
	wantNames := []string{"c", "a", "b", "d"}
	wantColors := []track.Color{track.Red, track.Green, track.Blue, track.Yellow}
	for i, e := range entries {
		assert.Equal(t, wantNames[i], e.Name)
		assert.Equal(t, wantColors[i], e.Color)
		assert.Equal(t, 2+i, e.Track.Len())
	}
	assert.Equal(t, 4, cursor.Position())

	// A second run on the same cursor continues the palette.
	b2, err := s.LoadBatch(paths[:1], "gk4", cursor)
	require.NoError(t, err)
	assert.Equal(t, track.Magenta, b2.Entries()[0].Color)
}

func TestLoadBatch_Errors(t *testing.T) {
	dir := t.TempDir()
	good := writeTRA(t, dir, "good.tra", munichElements(2))
	missing := filepath.Join(dir, "missing.tra")

	s := NewService(nil, Options{})

	_, err := s.LoadBatch(nil, "gk4", nil)
	assert.ErrorIs(t, err, export.ErrEmptyBatch)

	_, err = s.LoadBatch([]string{good}, "gk9", nil)
	var unsupported *coord.UnsupportedSystemError
	assert.ErrorAs(t, err, &unsupported)

	_, err = s.LoadBatch([]string{good, missing, good}, "gk4", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "missing.tra")
}

func TestSerializeSingleTrack(t *testing.T) {
	s := NewService(nil, Options{Export: export.Options{DocumentName: "Export"}})
	tr, err := s.NormalizeTrack("line", (&tra.File{Elements: munichElements(4)}).RawRecords(), "gk4")
	require.NoError(t, err)

	doc, err := s.SerializeSingleTrack(tr, []int{1, 2}, "")
	require.NoError(t, err)
	assert.Equal(t, "kml", doc.Format)
	assert.Equal(t, "application/vnd.google-earth.kml+xml", doc.ContentType)
	assert.Contains(t, string(doc.Data), "<name>Export</name>")

	doc, err = s.SerializeSingleTrack(tr, []int{0}, "geojson")
	require.NoError(t, err)
	assert.Equal(t, "geojson", doc.FileExtension)
	assert.True(t, strings.HasPrefix(string(doc.Data), "{"))

	_, err = s.SerializeSingleTrack(tr, nil, "")
	assert.ErrorIs(t, err, export.ErrEmptySelection)

	_, err = s.SerializeSingleTrack(tr, []int{7}, "")
	var ie *track.IndexError
	assert.ErrorAs(t, err, &ie)

	_, err = s.SerializeSingleTrack(tr, []int{0}, "gpx")
	assert.Error(t, err)
}

func TestSerializeSingleTrack_NilTrack(t *testing.T) {
	s, logs := newTestService(t, Options{})

	doc, err := s.SerializeSingleTrack(nil, []int{0}, "kml")
	assert.Nil(t, doc)
	assert.ErrorIs(t, err, track.ErrEmptyInput)
	assert.Contains(t, logs.String(), "single-track export failed")
}

func TestSerializeBatch(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeTRA(t, dir, "one.tra", munichElements(2)),
		writeTRA(t, dir, "two.tra", munichElements(3)),
	}
	s := NewService(nil, Options{ExportFormat: "geojson"})
	b, err := s.LoadBatch(paths, "gk4", nil)
	require.NoError(t, err)

	doc, err := s.SerializeBatch(b.Entries(), "")
	require.NoError(t, err)
	assert.Equal(t, "geojson", doc.Format)
	assert.Contains(t, string(doc.Data), `"one"`)
	assert.Contains(t, string(doc.Data), `"two"`)

	_, err = s.SerializeBatch(nil, "kml")
	assert.ErrorIs(t, err, export.ErrEmptyBatch)
}

func TestPreview(t *testing.T) {
	s := NewService(nil, Options{Preview: preview.Options{Width: 200, Height: 100}})
	tr, err := s.NormalizeTrack("line", (&tra.File{Elements: munichElements(4)}).RawRecords(), "gk4")
	require.NoError(t, err)
	lines, err := preview.TrackLines(tr, []int{1, 2})
	require.NoError(t, err)

	doc, err := s.Preview(lines, "")
	require.NoError(t, err)
	assert.Equal(t, "png", doc.Format)
	assert.Equal(t, "image/png", doc.ContentType)

	img, err := png.Decode(bytes.NewReader(doc.Data))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())

	_, err = s.Preview(nil, "")
	assert.True(t, errors.Is(err, preview.ErrNothingToDraw))

	_, err = s.Preview(lines, "tiff")
	assert.Error(t, err)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{
		Convert: config.ConvertConfig{System: "gk4", Concurrency: 2, OnError: "keep"},
		Export:  config.ExportConfig{Format: "geojson", DocumentName: "Doc"},
		Preview: config.PreviewConfig{Format: "webp", Width: 640, Height: 480, Quality: 70},
	}
	opts := OptionsFromConfig(cfg)
	assert.Equal(t, 2, opts.Concurrency)
	assert.Equal(t, track.KeepUnresolved, opts.Policy)
	assert.Equal(t, "geojson", opts.ExportFormat)
	assert.Equal(t, "Doc", opts.Export.DocumentName)
	assert.Equal(t, "webp", opts.PreviewFormat)
	assert.Equal(t, 640, opts.Preview.Width)
	assert.Equal(t, 70, opts.ImageQuality)
}
