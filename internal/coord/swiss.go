package coord

// SwissLV95 implements EPSG:2056 (CH1903+ / LV95) with swisstopo's published
// polynomial approximation. The polynomials map directly between LV95 and
// WGS84, so systems using it carry a WGS84 datum with no shift.
// Accuracy: ~1 meter.
//
// Reference: https://www.swisstopo.admin.ch/en/knowledge-facts/surveying-geodesy/reference-frames/local/lv95.html
type SwissLV95 struct{}

const (
	lv95OriginEasting  = 2_600_000
	lv95OriginNorthing = 1_200_000
)

func (s *SwissLV95) Family() Family { return FamilySwissLV95 }

// CentralMeridian is the longitude of the Bern reference point as given by
// the polynomial's constant term.
func (s *SwissLV95) CentralMeridian() float64 { return 2.6779094 * 100.0 / 36.0 }

func (s *SwissLV95) FalseOrigin() (easting, northing float64) {
	return lv95OriginEasting, lv95OriginNorthing
}

// Inverse converts Swiss LV95 easting/northing to WGS84 longitude/latitude (degrees).
func (s *SwissLV95) Inverse(easting, northing float64) (lon, lat float64) {
	// Auxiliary values: differences from Bern in 1000 km units
	y := (easting - lv95OriginEasting) / 1_000_000
	x := (northing - lv95OriginNorthing) / 1_000_000

	// 10000" units
	lonSec := 2.6779094 +
		4.728982*y +
		0.791484*y*x +
		0.1306*y*x*x -
		0.0436*y*y*y

	latSec := 16.9023892 +
		3.238272*x -
		0.270978*y*y -
		0.002528*x*x -
		0.0447*y*y*x -
		0.0140*x*x*x

	lon = lonSec * 100.0 / 36.0
	lat = latSec * 100.0 / 36.0
	return
}

// Forward converts WGS84 longitude/latitude (degrees) to Swiss LV95 easting/northing.
func (s *SwissLV95) Forward(lon, lat float64) (easting, northing float64) {
	phiAux := (lat*3600 - 169028.66) / 10000
	lambdaAux := (lon*3600 - 26782.5) / 10000

	easting = 2_600_072.37 +
		211_455.93*lambdaAux -
		10_938.51*lambdaAux*phiAux -
		0.36*lambdaAux*phiAux*phiAux -
		44.54*lambdaAux*lambdaAux*lambdaAux

	northing = 1_200_147.07 +
		308_807.95*phiAux +
		3_745.25*lambdaAux*lambdaAux +
		76.63*phiAux*phiAux -
		194.56*lambdaAux*lambdaAux*phiAux +
		119.79*phiAux*phiAux*phiAux

	return
}
