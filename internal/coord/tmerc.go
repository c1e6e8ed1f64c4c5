package coord

import (
	"fmt"
	"math"
)

// TransverseMercator is an ellipsoidal transverse Mercator projection
// (Gauß-Krüger and UTM) using Krüger's series in the third flattening n,
// truncated at n⁴ (sub-millimetre within a few degrees of the central meridian).
//
// Reference: Karney, "Transverse Mercator with an accuracy of a few nanometers" (2011).
type TransverseMercator struct {
	Ellipsoid     Ellipsoid
	Lon0          float64 // central meridian, degrees
	K0            float64 // scale factor on the central meridian
	FalseEasting  float64
	FalseNorthing float64

	rectA float64 // rectifying radius A
	ecc   float64 // first eccentricity
	alpha [4]float64
	beta  [4]float64
	delta [4]float64
}

// NewTransverseMercator precomputes the series coefficients for the given
// ellipsoid and projection parameters.
func NewTransverseMercator(ell Ellipsoid, lon0, k0, falseEasting, falseNorthing float64) *TransverseMercator {
	tm := &TransverseMercator{
		Ellipsoid:     ell,
		Lon0:          lon0,
		K0:            k0,
		FalseEasting:  falseEasting,
		FalseNorthing: falseNorthing,
	}

	n := ell.ThirdFlattening()
	n2 := n * n
	n3 := n2 * n
	n4 := n2 * n2

	tm.rectA = ell.A / (1 + n) * (1 + n2/4 + n4/64)
	tm.ecc = 2 * math.Sqrt(n) / (1 + n)

	tm.alpha = [4]float64{
		n/2 - 2*n2/3 + 5*n3/16 + 41*n4/180,
		13*n2/48 - 3*n3/5 + 557*n4/1440,
		61*n3/240 - 103*n4/140,
		49561 * n4 / 161280,
	}
	tm.beta = [4]float64{
		n/2 - 2*n2/3 + 37*n3/96 - n4/360,
		n2/48 + n3/15 - 437*n4/1440,
		17*n3/480 - 37*n4/840,
		4397 * n4 / 161280,
	}
	tm.delta = [4]float64{
		2*n - 2*n2/3 - 2*n3 + 116*n4/45,
		7*n2/3 - 8*n3/5 - 227*n4/45,
		56*n3/15 - 136*n4/35,
		4279 * n4 / 630,
	}
	return tm
}

func (tm *TransverseMercator) Family() Family           { return FamilyTransverseMercator }
func (tm *TransverseMercator) CentralMeridian() float64 { return tm.Lon0 }

func (tm *TransverseMercator) FalseOrigin() (easting, northing float64) {
	return tm.FalseEasting, tm.FalseNorthing
}

func (tm *TransverseMercator) validate() error {
	if err := tm.Ellipsoid.validate(); err != nil {
		return err
	}
	switch {
	case !(tm.K0 > 0) || math.IsInf(tm.K0, 0):
		return fmt.Errorf("tmerc: invalid scale factor %v", tm.K0)
	case math.IsNaN(tm.Lon0) || math.Abs(tm.Lon0) > 180:
		return fmt.Errorf("tmerc: invalid central meridian %v", tm.Lon0)
	case !isFinite(tm.FalseEasting) || !isFinite(tm.FalseNorthing):
		return fmt.Errorf("tmerc: invalid false origin (%v, %v)", tm.FalseEasting, tm.FalseNorthing)
	case !(tm.rectA > 0) || !isFinite(tm.ecc):
		return fmt.Errorf("tmerc: coefficients not initialised")
	}
	return nil
}

// Inverse converts easting/northing to longitude/latitude on the projection's ellipsoid.
func (tm *TransverseMercator) Inverse(easting, northing float64) (lon, lat float64) {
	xi := (northing - tm.FalseNorthing) / (tm.K0 * tm.rectA)
	eta := (easting - tm.FalseEasting) / (tm.K0 * tm.rectA)

	xiP, etaP := xi, eta
	for j, b := range tm.beta {
		k := float64(2 * (j + 1))
		xiP -= b * math.Sin(k*xi) * math.Cosh(k*eta)
		etaP -= b * math.Cos(k*xi) * math.Sinh(k*eta)
	}

	// Conformal latitude, then geodetic latitude.
	chi := math.Asin(math.Sin(xiP) / math.Cosh(etaP))
	phi := chi
	for j, d := range tm.delta {
		phi += d * math.Sin(float64(2*(j+1))*chi)
	}

	lon = tm.Lon0 + math.Atan2(math.Sinh(etaP), math.Cos(xiP))*180/math.Pi
	lat = phi * 180 / math.Pi
	return
}

// Forward converts longitude/latitude on the projection's ellipsoid to easting/northing.
func (tm *TransverseMercator) Forward(lon, lat float64) (easting, northing float64) {
	phi := lat * math.Pi / 180
	dLambda := (lon - tm.Lon0) * math.Pi / 180

	sinPhi := math.Sin(phi)
	t := math.Sinh(math.Atanh(sinPhi) - tm.ecc*math.Atanh(tm.ecc*sinPhi))
	xiP := math.Atan2(t, math.Cos(dLambda))
	etaP := math.Atanh(math.Sin(dLambda) / math.Sqrt(1+t*t))

	xi, eta := xiP, etaP
	for j, a := range tm.alpha {
		k := float64(2 * (j + 1))
		xi += a * math.Sin(k*xiP) * math.Cosh(k*etaP)
		eta += a * math.Cos(k*xiP) * math.Sinh(k*etaP)
	}

	easting = tm.FalseEasting + tm.K0*tm.rectA*eta
	northing = tm.FalseNorthing + tm.K0*tm.rectA*xi
	return
}
