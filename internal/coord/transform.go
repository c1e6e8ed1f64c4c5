package coord

// RawPoint is a coordinate pair as read from a track file. It has no
// meaning until combined with a System.
type RawPoint struct {
	First  float64 `json:"first"`
	Second float64 `json:"second"`
}

// GeographicPoint is a WGS84 longitude/latitude pair in decimal degrees.
type GeographicPoint struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Valid reports whether the point lies in the structural lon/lat range.
func (p GeographicPoint) Valid() bool {
	return p.Lon >= -180 && p.Lon <= 180 && p.Lat >= -90 && p.Lat <= 90
}

// EastingNorthing splits a raw point according to the axis order.
func (a AxisOrder) EastingNorthing(p RawPoint) (easting, northing float64, ok bool) {
	switch a {
	case EastingFirst:
		return p.First, p.Second, true
	case NorthingFirst:
		return p.Second, p.First, true
	}
	return 0, 0, false
}

// RawPoint arranges easting/northing in the axis order.
func (a AxisOrder) RawPoint(easting, northing float64) RawPoint {
	if a == NorthingFirst {
		return RawPoint{First: northing, Second: easting}
	}
	return RawPoint{First: easting, Second: northing}
}

// Transform converts a raw point in sys to WGS84. It never clamps or
// substitutes values: every numerical failure is a *TransformError.
func Transform(p RawPoint, sys *System) (GeographicPoint, error) {
	if sys == nil {
		return GeographicPoint{}, &UnsupportedSystemError{}
	}
	fail := func(reason string) (GeographicPoint, error) {
		return GeographicPoint{}, &TransformError{System: sys.Key, First: p.First, Second: p.Second, Reason: reason}
	}

	if !isFinite(p.First) || !isFinite(p.Second) {
		return fail("non-finite input")
	}
	easting, northing, ok := sys.AxisOrder.EastingNorthing(p)
	if !ok {
		return fail("missing axis order")
	}
	if sys.Projection == nil {
		return fail("missing projection")
	}

	lon, lat := sys.Projection.Inverse(easting, northing)
	if !isFinite(lon) || !isFinite(lat) {
		return fail("inverse projection did not converge")
	}

	lon, lat = sys.Datum.ShiftToWGS84(lon, lat)
	if !isFinite(lon) || !isFinite(lat) {
		return fail("datum shift did not converge")
	}

	g := GeographicPoint{Lon: lon, Lat: lat}
	if !g.Valid() {
		return fail("result outside geographic range")
	}
	return g, nil
}

// TransformKey looks up key and transforms p.
func TransformKey(p RawPoint, key string) (GeographicPoint, error) {
	sys, err := Lookup(key)
	if err != nil {
		return GeographicPoint{}, err
	}
	return Transform(p, sys)
}

// FromWGS84 converts WGS84 longitude/latitude to a raw pair in the system's
// axis order.
func (s *System) FromWGS84(lon, lat float64) RawPoint {
	lon, lat = s.Datum.ShiftFromWGS84(lon, lat)
	e, n := s.Projection.Forward(lon, lat)
	return s.AxisOrder.RawPoint(e, n)
}
