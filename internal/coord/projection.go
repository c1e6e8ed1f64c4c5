package coord

import "fmt"

// Family identifies a projection family. The set is closed: every
// Projection in the catalog is one of the concrete types listed below.
type Family int

const (
	FamilyTransverseMercator Family = iota + 1
	FamilySwissLV95
	FamilyWebMercator
	FamilyGeographic
)

func (f Family) String() string {
	switch f {
	case FamilyTransverseMercator:
		return "tmerc"
	case FamilySwissLV95:
		return "swiss-lv95"
	case FamilyWebMercator:
		return "webmerc"
	case FamilyGeographic:
		return "longlat"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// Projection converts between projected plane coordinates and geographic
// coordinates on the projection's own datum.
type Projection interface {
	// Inverse converts easting/northing to longitude/latitude (degrees).
	Inverse(easting, northing float64) (lon, lat float64)

	// Forward converts longitude/latitude (degrees) to easting/northing.
	Forward(lon, lat float64) (easting, northing float64)

	// CentralMeridian returns the longitude of the false origin (degrees).
	CentralMeridian() float64

	// FalseOrigin returns the plane coordinates of the projection origin.
	FalseOrigin() (easting, northing float64)

	Family() Family
}

// validateProjection checks the parameters of every known projection family.
// Unknown implementations are rejected so that the catalog can only hold
// families the engine knows how to invert.
func validateProjection(p Projection) error {
	switch p := p.(type) {
	case *TransverseMercator:
		return p.validate()
	case *SwissLV95, *WebMercator, *Geographic:
		return nil
	case nil:
		return fmt.Errorf("missing projection")
	default:
		return fmt.Errorf("unsupported projection type %T", p)
	}
}

// Geographic is a no-op projection for data already in longitude/latitude.
type Geographic struct{}

func (g *Geographic) Inverse(x, y float64) (lon, lat float64)  { return x, y }
func (g *Geographic) Forward(lon, lat float64) (x, y float64)  { return lon, lat }
func (g *Geographic) CentralMeridian() float64                 { return 0 }
func (g *Geographic) FalseOrigin() (easting, northing float64) { return 0, 0 }
func (g *Geographic) Family() Family                           { return FamilyGeographic }
