package export

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/pspoerri/tra2kml/internal/coord"
	"github.com/pspoerri/tra2kml/internal/track"
)

// GeoJSONExporter writes RFC 7946 feature collections with simplestyle
// stroke properties.
type GeoJSONExporter struct {
	opts Options
}

func (e *GeoJSONExporter) Format() string        { return "geojson" }
func (e *GeoJSONExporter) FileExtension() string { return "geojson" }
func (e *GeoJSONExporter) ContentType() string   { return "application/geo+json" }

func (e *GeoJSONExporter) Single(t *track.Track, selected []int) ([]byte, error) {
	doc, err := singleDocument(t, selected, e.opts)
	if err != nil {
		return nil, err
	}
	return encodeGeoJSON(doc)
}

func (e *GeoJSONExporter) Batch(entries []track.Entry) ([]byte, error) {
	doc, err := batchDocument(entries, e.opts)
	if err != nil {
		return nil, err
	}
	return encodeGeoJSON(doc)
}

func encodeGeoJSON(doc document) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	fc.ExtraMembers = geojson.Properties{"name": doc.Name}
	if doc.Description != "" {
		fc.ExtraMembers["description"] = doc.Description
	}

	var all []coord.GeographicPoint
	for _, l := range doc.Lines {
		all = append(all, l.Points...)

		mp := make(orb.MultiPoint, len(l.Points))
		for i, p := range l.Points {
			mp[i] = orb.Point{round6(p.Lon), round6(p.Lat)}
		}
		var geom orb.Geometry = mp
		if len(mp) >= 2 {
			geom = orb.LineString(mp)
		}

		f := geojson.NewFeature(geom)
		f.ID = l.StyleID
		f.Properties["name"] = l.Name
		f.Properties["description"] = l.Description
		f.Properties["pointCount"] = len(l.Points)
		f.Properties["role"] = l.Role
		f.Properties["stroke"] = l.Color.Hex()
		f.Properties["stroke-width"] = l.Width
		f.Properties["stroke-opacity"] = math.Round(float64(l.Alpha)/255*100) / 100
		fc.Append(f)
	}

	if env, ok := coord.BoundsOf(all); ok {
		fc.BBox = geojson.NewBBox(orb.Bound{
			Min: orb.Point{round6(env.MinLon), round6(env.MinLat)},
			Max: orb.Point{round6(env.MaxLon), round6(env.MaxLat)},
		})
	}
	return fc.MarshalJSON()
}
