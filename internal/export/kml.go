package export

import (
	"bytes"
	"encoding/xml"
	"strconv"

	"github.com/pspoerri/tra2kml/internal/coord"
	"github.com/pspoerri/tra2kml/internal/track"
)

const kmlNamespace = "http://www.opengis.net/kml/2.2"

type kmlRoot struct {
	XMLName  xml.Name    `xml:"kml"`
	Xmlns    string      `xml:"xmlns,attr"`
	Document kmlDocument `xml:"Document"`
}

type kmlDocument struct {
	Name        string         `xml:"name"`
	Description string         `xml:"description,omitempty"`
	Styles      []kmlStyle     `xml:"Style"`
	Placemarks  []kmlPlacemark `xml:"Placemark"`
}

type kmlStyle struct {
	ID        string       `xml:"id,attr"`
	LineStyle kmlLineStyle `xml:"LineStyle"`
}

type kmlLineStyle struct {
	Color string `xml:"color"`
	Width int    `xml:"width"`
}

type kmlPlacemark struct {
	Name         string          `xml:"name"`
	Description  string          `xml:"description"`
	StyleURL     string          `xml:"styleUrl"`
	ExtendedData kmlExtendedData `xml:"ExtendedData"`
	LineString   *kmlLineString  `xml:"LineString,omitempty"`
}

type kmlExtendedData struct {
	Data []kmlData `xml:"Data"`
}

type kmlData struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value"`
}

type kmlLineString struct {
	Extrude      int    `xml:"extrude"`
	Tessellate   int    `xml:"tessellate"`
	AltitudeMode string `xml:"altitudeMode"`
	Coordinates  string `xml:"coordinates"`
}

// KMLExporter writes KML 2.2 documents.
type KMLExporter struct {
	opts Options
}

func (e *KMLExporter) Format() string        { return "kml" }
func (e *KMLExporter) FileExtension() string { return "kml" }
func (e *KMLExporter) ContentType() string   { return "application/vnd.google-earth.kml+xml" }

func (e *KMLExporter) Single(t *track.Track, selected []int) ([]byte, error) {
	doc, err := singleDocument(t, selected, e.opts)
	if err != nil {
		return nil, err
	}
	return encodeKML(doc)
}

func (e *KMLExporter) Batch(entries []track.Entry) ([]byte, error) {
	doc, err := batchDocument(entries, e.opts)
	if err != nil {
		return nil, err
	}
	return encodeKML(doc)
}

func encodeKML(doc document) ([]byte, error) {
	root := kmlRoot{
		Xmlns: kmlNamespace,
		Document: kmlDocument{
			Name:        doc.Name,
			Description: doc.Description,
			Styles:      make([]kmlStyle, 0, len(doc.Lines)),
			Placemarks:  make([]kmlPlacemark, 0, len(doc.Lines)),
		},
	}
	for _, l := range doc.Lines {
		root.Document.Styles = append(root.Document.Styles, kmlStyle{
			ID:        l.StyleID,
			LineStyle: kmlLineStyle{Color: l.Color.KML(l.Alpha), Width: l.Width},
		})

		pm := kmlPlacemark{
			Name:        l.Name,
			Description: l.Description,
			StyleURL:    "#" + l.StyleID,
			ExtendedData: kmlExtendedData{Data: []kmlData{
				{Name: "pointCount", Value: strconv.Itoa(len(l.Points))},
				{Name: "role", Value: l.Role},
			}},
		}
		// A single point cannot form a line.
		if len(l.Points) >= 2 {
			pm.LineString = &kmlLineString{
				Tessellate:   1,
				AltitudeMode: "clampToGround",
				Coordinates:  formatCoordinates(l.Points),
			}
		}
		root.Document.Placemarks = append(root.Document.Placemarks, pm)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(root); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// formatCoordinates renders lon,lat,0 triples with 6 decimals, space separated.
func formatCoordinates(pts []coord.GeographicPoint) string {
	b := make([]byte, 0, len(pts)*24)
	for i, p := range pts {
		if i > 0 {
			b = append(b, ' ')
		}
		b = strconv.AppendFloat(b, round6(p.Lon), 'f', 6, 64)
		b = append(b, ',')
		b = strconv.AppendFloat(b, round6(p.Lat), 'f', 6, 64)
		b = append(b, ",0"...)
	}
	return string(b)
}
