package export

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pspoerri/tra2kml/internal/track"
)

func TestGeoJSON_Single(t *testing.T) {
	e, err := NewExporter("geojson", Options{})
	require.NoError(t, err)

	data, err := e.Single(threePoints(t), []int{2})
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	assert.Equal(t, "line", fc.ExtraMembers["name"])
	require.Len(t, fc.Features, 2)

	full, sel := fc.Features[0], fc.Features[1]

	ls, ok := full.Geometry.(orb.LineString)
	require.True(t, ok, "full track geometry is %T", full.Geometry)
	assert.Equal(t, orb.LineString{{12.5, 51.25}, {12.6, 51.3}, {12.7, 51.35}}, ls)
	assert.Equal(t, RoleFull, full.Properties["role"])
	assert.Equal(t, 3.0, full.Properties["pointCount"])
	assert.Equal(t, "#FF0000", full.Properties["stroke"])
	assert.Equal(t, 0.6, full.Properties["stroke-opacity"])
	assert.Equal(t, 5.0, full.Properties["stroke-width"])

	mp, ok := sel.Geometry.(orb.MultiPoint)
	require.True(t, ok, "single-point selection geometry is %T", sel.Geometry)
	assert.Equal(t, orb.MultiPoint{{12.7, 51.35}}, mp)
	assert.Equal(t, RoleSelection, sel.Properties["role"])
	assert.Equal(t, 1.0, sel.Properties["pointCount"])
	assert.Equal(t, "#00FF00", sel.Properties["stroke"])
	assert.Equal(t, 1.0, sel.Properties["stroke-opacity"])

	require.Len(t, fc.BBox, 4)
	assert.Equal(t, geojson.BBox{12.5, 51.25, 12.7, 51.35}, fc.BBox)
}

func TestGeoJSON_RoundsToSixDecimals(t *testing.T) {
	tr := lonLatTrack(t, "precise", [2]float64{11.5800001234, 48.1399999876}, [2]float64{11.123456789, 48.987654321})
	e, err := NewExporter("geojson", Options{})
	require.NoError(t, err)

	data, err := e.Batch([]track.Entry{{ID: 1, Name: "precise", Color: track.Blue, Track: tr}})
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	ls, ok := fc.Features[0].Geometry.(orb.LineString)
	require.True(t, ok)
	assert.Equal(t, orb.LineString{{11.58, 48.14}, {11.123457, 48.987654}}, ls)
	assert.Equal(t, RoleEntry, fc.Features[0].Properties["role"])
	assert.Equal(t, "#0000FF", fc.Features[0].Properties["stroke"])
}

func TestGeoJSON_NoNegativeZero(t *testing.T) {
	tr := lonLatTrack(t, "meridian", [2]float64{-1e-7, 51}, [2]float64{-4e-7, 51.1})
	e, err := NewExporter("geojson", Options{})
	require.NoError(t, err)

	data, err := e.Batch([]track.Entry{{ID: 1, Name: "meridian", Color: track.Red, Track: tr}})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "-0")

	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	ls, ok := fc.Features[0].Geometry.(orb.LineString)
	require.True(t, ok)
	for _, p := range ls {
		assert.False(t, math.Signbit(p.Lon()), "lon %v", p.Lon())
	}
}

func TestGeoJSON_Deterministic(t *testing.T) {
	e, err := NewExporter("geojson", Options{})
	require.NoError(t, err)
	tr := threePoints(t)

	a, err := e.Single(tr, []int{0, 1})
	require.NoError(t, err)
	b, err := e.Single(tr, []int{1, 0})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGeoJSON_Errors(t *testing.T) {
	e, err := NewExporter("geojson", Options{})
	require.NoError(t, err)

	_, err = e.Single(threePoints(t), []int{})
	assert.ErrorIs(t, err, ErrEmptySelection)
	_, err = e.Batch([]track.Entry{})
	assert.ErrorIs(t, err, ErrEmptyBatch)
}
