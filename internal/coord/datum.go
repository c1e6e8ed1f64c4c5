package coord

import (
	"fmt"
	"math"
)

const arcSecond = math.Pi / (180 * 3600)

// Ellipsoid is a reference ellipsoid given by its semi-major axis and
// inverse flattening.
type Ellipsoid struct {
	Name string
	A    float64 // semi-major axis, meters
	InvF float64 // inverse flattening
}

var (
	Bessel1841 = Ellipsoid{Name: "Bessel 1841", A: 6377397.155, InvF: 299.1528128}
	GRS80      = Ellipsoid{Name: "GRS 1980", A: 6378137, InvF: 298.257222101}
	WGS84      = Ellipsoid{Name: "WGS 84", A: 6378137, InvF: 298.257223563}
)

func (e Ellipsoid) F() float64  { return 1 / e.InvF }
func (e Ellipsoid) B() float64  { return e.A * (1 - e.F()) }
func (e Ellipsoid) E2() float64 { f := e.F(); return f * (2 - f) }

// ThirdFlattening returns n = (a-b)/(a+b).
func (e Ellipsoid) ThirdFlattening() float64 { f := e.F(); return f / (2 - f) }

func (e Ellipsoid) validate() error {
	if !(e.A > 0) || math.IsInf(e.A, 0) {
		return fmt.Errorf("ellipsoid %q: invalid semi-major axis %v", e.Name, e.A)
	}
	if !(e.InvF > 1) || math.IsInf(e.InvF, 0) {
		return fmt.Errorf("ellipsoid %q: invalid inverse flattening %v", e.Name, e.InvF)
	}
	return nil
}

// toGeocentric converts geodetic coordinates (radians, meters) to earth-centred cartesian.
func (e Ellipsoid) toGeocentric(lon, lat, h float64) (x, y, z float64) {
	e2 := e.E2()
	sinLat := math.Sin(lat)
	n := e.A / math.Sqrt(1-e2*sinLat*sinLat)
	x = (n + h) * math.Cos(lat) * math.Cos(lon)
	y = (n + h) * math.Cos(lat) * math.Sin(lon)
	z = (n*(1-e2) + h) * sinLat
	return
}

// fromGeocentric converts earth-centred cartesian coordinates to geodetic
// (radians, meters) by fixed-point iteration on the latitude.
func (e Ellipsoid) fromGeocentric(x, y, z float64) (lon, lat, h float64) {
	e2 := e.E2()
	p := math.Hypot(x, y)
	lon = math.Atan2(y, x)

	if p < 1e-9 {
		lat = math.Copysign(math.Pi/2, z)
		h = math.Abs(z) - e.B()
		return
	}

	lat = math.Atan2(z, p*(1-e2))
	for i := 0; i < 16; i++ {
		sinLat := math.Sin(lat)
		n := e.A / math.Sqrt(1-e2*sinLat*sinLat)
		h = p/math.Cos(lat) - n
		next := math.Atan2(z, p*(1-e2*n/(n+h)))
		if math.Abs(next-lat) < 1e-14 {
			lat = next
			break
		}
		lat = next
	}
	return
}

// Helmert holds the seven parameters of a similarity transform between two
// geocentric frames, in the position vector convention used by PROJ's
// +towgs84 and EPSG method 9606.
type Helmert struct {
	TX, TY, TZ float64 // translation, meters
	RX, RY, RZ float64 // rotation, arc-seconds
	S          float64 // scale, ppm
}

func (h Helmert) IsZero() bool { return h == Helmert{} }

func (h Helmert) validate() error {
	for _, v := range []float64{h.TX, h.TY, h.TZ, h.RX, h.RY, h.RZ, h.S} {
		if !isFinite(v) {
			return fmt.Errorf("helmert: non-finite parameter in %+v", h)
		}
	}
	return nil
}

// Apply transforms a geocentric position with the small-angle rotation matrix.
func (h Helmert) Apply(x, y, z float64) (float64, float64, float64) {
	rx, ry, rz := h.RX*arcSecond, h.RY*arcSecond, h.RZ*arcSecond
	m := 1 + h.S*1e-6
	return h.TX + m*(x-rz*y+ry*z),
		h.TY + m*(rz*x+y-rx*z),
		h.TZ + m*(-ry*x+rx*y+z)
}

// Inverse returns the reverse transform by negating all parameters. This is
// the usual first-order approximation; for the catalog's parameters the
// round trip stays within a few centimetres.
func (h Helmert) Inverse() Helmert {
	return Helmert{TX: -h.TX, TY: -h.TY, TZ: -h.TZ, RX: -h.RX, RY: -h.RY, RZ: -h.RZ, S: -h.S}
}

// Datum is a source geodetic datum: its ellipsoid and the shift to WGS84.
type Datum struct {
	Name      string
	Ellipsoid Ellipsoid
	ToWGS84   Helmert
}

var DatumWGS84 = Datum{Name: "WGS 84", Ellipsoid: WGS84}

// IsWGS84 reports whether coordinates on this datum are already WGS84.
func (d Datum) IsWGS84() bool {
	return d.Ellipsoid == WGS84 && d.ToWGS84.IsZero()
}

func (d Datum) validate() error {
	if err := d.Ellipsoid.validate(); err != nil {
		return fmt.Errorf("datum %q: %w", d.Name, err)
	}
	if err := d.ToWGS84.validate(); err != nil {
		return fmt.Errorf("datum %q: %w", d.Name, err)
	}
	return nil
}

// ShiftToWGS84 moves geographic coordinates (degrees) on this datum to WGS84.
func (d Datum) ShiftToWGS84(lon, lat float64) (float64, float64) {
	if d.IsWGS84() {
		return lon, lat
	}
	return shift(lon, lat, d.Ellipsoid, WGS84, d.ToWGS84)
}

// ShiftFromWGS84 moves WGS84 geographic coordinates (degrees) onto this datum.
func (d Datum) ShiftFromWGS84(lon, lat float64) (float64, float64) {
	if d.IsWGS84() {
		return lon, lat
	}
	return shift(lon, lat, WGS84, d.Ellipsoid, d.ToWGS84.Inverse())
}

func shift(lon, lat float64, from, to Ellipsoid, h Helmert) (float64, float64) {
	x, y, z := from.toGeocentric(lon*math.Pi/180, lat*math.Pi/180, 0)
	x, y, z = h.Apply(x, y, z)
	lonR, latR, _ := to.fromGeocentric(x, y, z)
	return lonR * 180 / math.Pi, latR * 180 / math.Pi
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
