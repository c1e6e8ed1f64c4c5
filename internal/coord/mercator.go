package coord

import "math"

const (
	// EarthCircumference is the equatorial circumference in meters at zoom 0.
	EarthCircumference = 40075016.685578488
	// OriginShift is half the earth's circumference.
	OriginShift = EarthCircumference / 2.0
	// DefaultTileSize is the standard web map tile dimension.
	DefaultTileSize = 256
	// MaxMercatorLat is the latitude at which Web Mercator becomes square.
	MaxMercatorLat = 85.05112878
)

// WebMercator implements EPSG:3857 on the WGS84 sphere.
type WebMercator struct{}

func (w *WebMercator) Family() Family                           { return FamilyWebMercator }
func (w *WebMercator) CentralMeridian() float64                 { return 0 }
func (w *WebMercator) FalseOrigin() (easting, northing float64) { return 0, 0 }

func (w *WebMercator) Inverse(x, y float64) (lon, lat float64) {
	lon = (x / OriginShift) * 180.0
	lat = (y / OriginShift) * 180.0
	lat = 180.0 / math.Pi * (2.0*math.Atan(math.Exp(lat*math.Pi/180.0)) - math.Pi/2.0)
	return
}

func (w *WebMercator) Forward(lon, lat float64) (x, y float64) {
	x = lon * OriginShift / 180.0
	y = math.Log(math.Tan((90.0+lat)*math.Pi/360.0)) / (math.Pi / 180.0)
	y = y * OriginShift / 180.0
	return
}

// LonLatToPixel converts WGS84 lon/lat to global pixel coordinates at the
// given zoom level. Latitude is clamped to the Web Mercator range.
func LonLatToPixel(lon, lat float64, zoom, tileSize int) (px, py float64) {
	lat = math.Max(-MaxMercatorLat, math.Min(MaxMercatorLat, lat))
	size := math.Pow(2, float64(zoom)) * float64(tileSize)

	px = (lon + 180.0) / 360.0 * size
	latRad := lat * math.Pi / 180.0
	py = (1.0 - math.Log(math.Tan(latRad)+1.0/math.Cos(latRad))/math.Pi) / 2.0 * size
	return
}

// PixelToLonLat converts global pixel coordinates at the given zoom level to WGS84 lon/lat.
func PixelToLonLat(px, py float64, zoom, tileSize int) (lon, lat float64) {
	size := math.Pow(2, float64(zoom)) * float64(tileSize)
	lon = px/size*360.0 - 180.0
	lat = math.Atan(math.Sinh(math.Pi*(1.0-2.0*py/size))) * 180.0 / math.Pi
	return
}

// ZoomToFit returns the highest zoom level (capped at maxZoom) at which the
// given bounds fit into a width x height pixel window.
func ZoomToFit(b Envelope, width, height, tileSize, maxZoom int) int {
	for z := maxZoom; z > 0; z-- {
		x0, y0 := LonLatToPixel(b.MinLon, b.MaxLat, z, tileSize)
		x1, y1 := LonLatToPixel(b.MaxLon, b.MinLat, z, tileSize)
		if x1-x0 <= float64(width) && y1-y0 <= float64(height) {
			return z
		}
	}
	return 0
}
