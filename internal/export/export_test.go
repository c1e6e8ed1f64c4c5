package export

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pspoerri/tra2kml/internal/coord"
	"github.com/pspoerri/tra2kml/internal/track"
)

func lonLatTrack(t *testing.T, name string, pts ...[2]float64) *track.Track {
	t.Helper()
	raw := make([]track.RawRecord, len(pts))
	for i, p := range pts {
		raw[i] = track.RawRecord{Point: coord.RawPoint{First: p[0], Second: p[1]}}
	}
	tr, err := track.NormalizeTrack(name, raw, "wgs84")
	require.NoError(t, err)
	return tr
}

func threePoints(t *testing.T) *track.Track {
	return lonLatTrack(t, "line", [2]float64{12.5, 51.25}, [2]float64{12.6, 51.3}, [2]float64{12.7, 51.35})
}

func parseKML(t *testing.T, data []byte) kmlRoot {
	t.Helper()
	var root kmlRoot
	require.NoError(t, xml.Unmarshal(data, &root))
	return root
}

func pointCount(pm kmlPlacemark) string {
	for _, d := range pm.ExtendedData.Data {
		if d.Name == "pointCount" {
			return d.Value
		}
	}
	return ""
}

func TestNewExporter(t *testing.T) {
	tests := []struct {
		format, wantFormat, wantExt, wantType string
	}{
		{"kml", "kml", "kml", "application/vnd.google-earth.kml+xml"},
		{"", "kml", "kml", "application/vnd.google-earth.kml+xml"},
		{"GeoJSON", "geojson", "geojson", "application/geo+json"},
		{"json", "geojson", "geojson", "application/geo+json"},
	}
	for _, tt := range tests {
		e, err := NewExporter(tt.format, Options{})
		require.NoError(t, err, tt.format)
		assert.Equal(t, tt.wantFormat, e.Format())
		assert.Equal(t, tt.wantExt, e.FileExtension())
		assert.Equal(t, tt.wantType, e.ContentType())
	}

	_, err := NewExporter("gpx", Options{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.ErrorContains(t, err, "gpx")
}

func TestKML_SingleGolden(t *testing.T) {
	e, err := NewExporter("kml", DefaultOptions())
	require.NoError(t, err)

	got, err := e.Single(threePoints(t), []int{2, 0})
	require.NoError(t, err)

	want := `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <name>line</name>
    <description>Converted from WGS 84 (lon/lat)</description>
    <Style id="fullTrackStyle">
      <LineStyle>
        <color>990000ff</color>
        <width>5</width>
      </LineStyle>
    </Style>
    <Style id="selectionStyle">
      <LineStyle>
        <color>ff00ff00</color>
        <width>5</width>
      </LineStyle>
    </Style>
    <Placemark>
      <name>Full track</name>
      <description>All 3 points of the track</description>
      <styleUrl>#fullTrackStyle</styleUrl>
      <ExtendedData>
        <Data name="pointCount">
          <value>3</value>
        </Data>
        <Data name="role">
          <value>full</value>
        </Data>
      </ExtendedData>
      <LineString>
        <extrude>0</extrude>
        <tessellate>1</tessellate>
        <altitudeMode>clampToGround</altitudeMode>
        <coordinates>12.500000,51.250000,0 12.600000,51.300000,0 12.700000,51.350000,0</coordinates>
      </LineString>
    </Placemark>
    <Placemark>
      <name>Selection</name>
      <description>Selected 2 points</description>
      <styleUrl>#selectionStyle</styleUrl>
      <ExtendedData>
        <Data name="pointCount">
          <value>2</value>
        </Data>
        <Data name="role">
          <value>selection</value>
        </Data>
      </ExtendedData>
      <LineString>
        <extrude>0</extrude>
        <tessellate>1</tessellate>
        <altitudeMode>clampToGround</altitudeMode>
        <coordinates>12.500000,51.250000,0 12.700000,51.350000,0</coordinates>
      </LineString>
    </Placemark>
  </Document>
</kml>
`
	assert.Equal(t, want, string(got))
}

func TestKML_SingleThreeTotalTwoSelected(t *testing.T) {
	e, err := NewExporter("kml", Options{})
	require.NoError(t, err)

	data, err := e.Single(threePoints(t), []int{0, 1})
	require.NoError(t, err)

	root := parseKML(t, data)
	assert.Equal(t, kmlNamespace, root.Xmlns)
	require.Len(t, root.Document.Placemarks, 2)

	full, sel := root.Document.Placemarks[0], root.Document.Placemarks[1]
	assert.Equal(t, "3", pointCount(full))
	assert.Equal(t, "2", pointCount(sel))
	assert.Contains(t, full.Description, "3 points")
	assert.Contains(t, sel.Description, "2 points")
	assert.NotEqual(t, full.StyleURL, sel.StyleURL)

	require.Len(t, root.Document.Styles, 2)
	assert.NotEqual(t, root.Document.Styles[0].LineStyle.Color, root.Document.Styles[1].LineStyle.Color)
	for _, s := range root.Document.Styles {
		assert.Equal(t, 5, s.LineStyle.Width)
	}
}

func TestKML_SingleIsIdempotent(t *testing.T) {
	e, err := NewExporter("kml", Options{})
	require.NoError(t, err)
	tr := threePoints(t)

	a, err := e.Single(tr, []int{1, 2})
	require.NoError(t, err)
	b, err := e.Single(tr, []int{2, 1})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestKML_SingleErrors(t *testing.T) {
	e, err := NewExporter("kml", Options{})
	require.NoError(t, err)
	tr := threePoints(t)

	_, err = e.Single(tr, nil)
	assert.ErrorIs(t, err, ErrEmptySelection)

	_, err = e.Single(tr, []int{0, 3})
	var ie *track.IndexError
	assert.ErrorAs(t, err, &ie)
}

func TestKML_SingleSelectedPointHasNoGeometry(t *testing.T) {
	e, err := NewExporter("kml", Options{})
	require.NoError(t, err)

	data, err := e.Single(threePoints(t), []int{1})
	require.NoError(t, err)

	root := parseKML(t, data)
	require.Len(t, root.Document.Placemarks, 2)
	assert.NotNil(t, root.Document.Placemarks[0].LineString)
	assert.Nil(t, root.Document.Placemarks[1].LineString)
	assert.Equal(t, "1", pointCount(root.Document.Placemarks[1]))
}

func TestKML_BatchSinglePointAndFivePoints(t *testing.T) {
	single := lonLatTrack(t, "lonely", [2]float64{13, 52})
	five := lonLatTrack(t, "five",
		[2]float64{11, 48}, [2]float64{11.1, 48.1}, [2]float64{11.2, 48.2},
		[2]float64{11.2, 48.2}, [2]float64{11.4, 48.4})

	b := track.NewBatch()
	b.Ingest([]*track.Track{single, five}, track.NewPaletteCursor(nil))

	e, err := NewExporter("kml", Options{})
	require.NoError(t, err)
	data, err := e.Batch(b.Entries())
	require.NoError(t, err)

	root := parseKML(t, data)
	require.Len(t, root.Document.Placemarks, 2)

	lonely := root.Document.Placemarks[0]
	assert.Equal(t, "lonely", lonely.Name)
	assert.Equal(t, "1", pointCount(lonely))
	assert.Nil(t, lonely.LineString)

	fivePM := root.Document.Placemarks[1]
	assert.Equal(t, "five", fivePM.Name)
	assert.Equal(t, "5", pointCount(fivePM))
	require.NotNil(t, fivePM.LineString)
	coords := strings.Fields(fivePM.LineString.Coordinates)
	require.Len(t, coords, 5)
	// Consecutive duplicates are kept.
	assert.Equal(t, coords[2], coords[3])
	assert.Equal(t, "11.000000,48.000000,0", coords[0])

	require.Len(t, root.Document.Styles, 2)
	assert.Equal(t, track.Red.KML(0xff), root.Document.Styles[0].LineStyle.Color)
	assert.Equal(t, track.Green.KML(0xff), root.Document.Styles[1].LineStyle.Color)
	assert.Equal(t, "#"+root.Document.Styles[1].ID, fivePM.StyleURL)
}

func TestKML_BatchFollowsEntryOrderAndColors(t *testing.T) {
	b := track.NewBatch()
	a := b.Add(threePoints(t), track.Red)
	b.Add(lonLatTrack(t, "second", [2]float64{10, 50}, [2]float64{10.1, 50.1}), track.Blue)
	c := b.Add(lonLatTrack(t, "third", [2]float64{9, 49}, [2]float64{9.1, 49.1}), track.Cyan)
	require.NoError(t, b.Recolor(c, track.Pink))
	require.NoError(t, b.Remove(a))

	e, err := NewExporter("kml", Options{DocumentName: "All lines"})
	require.NoError(t, err)
	data, err := e.Batch(b.Entries())
	require.NoError(t, err)

	root := parseKML(t, data)
	assert.Equal(t, "All lines", root.Document.Name)
	require.Len(t, root.Document.Placemarks, 2)
	assert.Equal(t, "second", root.Document.Placemarks[0].Name)
	assert.Equal(t, "third", root.Document.Placemarks[1].Name)
	assert.Equal(t, track.Blue.KML(0xff), root.Document.Styles[0].LineStyle.Color)
	assert.Equal(t, track.Pink.KML(0xff), root.Document.Styles[1].LineStyle.Color)
}

func TestKML_EmptyBatch(t *testing.T) {
	e, err := NewExporter("kml", Options{})
	require.NoError(t, err)
	_, err = e.Batch(nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestFormatCoordinates(t *testing.T) {
	got := formatCoordinates([]coord.GeographicPoint{
		{Lon: 11.5800001234, Lat: 48.1399999876},
		{Lon: 0, Lat: 0},
		{Lon: -3.25, Lat: -0.5},
		{Lon: -1e-7, Lat: 51},
	})
	assert.Equal(t, "11.580000,48.140000,0 0.000000,0.000000,0 -3.250000,-0.500000,0 0.000000,51.000000,0", got)
	assert.Empty(t, formatCoordinates(nil))
}
