package coord

import (
	"fmt"
	"strings"
)

// AxisOrder describes how the two numbers of a raw record map to
// easting/northing. The zero value is invalid so that every catalog entry
// has to state its order explicitly.
type AxisOrder int

const (
	EastingFirst AxisOrder = iota + 1
	NorthingFirst
)

func (a AxisOrder) String() string {
	switch a {
	case EastingFirst:
		return "easting-first"
	case NorthingFirst:
		return "northing-first"
	default:
		return fmt.Sprintf("axis-order(%d)", int(a))
	}
}

// Category groups systems for display.
type Category string

const (
	CategoryLegacyGK  Category = "legacy-gk"
	CategoryRD83      Category = "rd83"
	CategoryETRS89UTM Category = "etrs89-utm"
	CategoryOther     Category = "other"
)

// CategoryOf derives the display category from a system key's prefix.
func CategoryOf(key string) Category {
	switch {
	case strings.HasPrefix(key, "gk"):
		return CategoryLegacyGK
	case strings.HasPrefix(key, "rd83"):
		return CategoryRD83
	case strings.HasPrefix(key, "etrs89"):
		return CategoryETRS89UTM
	default:
		return CategoryOther
	}
}

// System is an immutable coordinate system definition: projection, source
// datum and axis order.
type System struct {
	Key        string
	Name       string
	Code       int // EPSG code
	Projection Projection
	Datum      Datum
	AxisOrder  AxisOrder
}

func (s *System) EPSG() int          { return s.Code }
func (s *System) Category() Category { return CategoryOf(s.Key) }

func (s *System) validate() error {
	if s.Key == "" {
		return fmt.Errorf("system without key")
	}
	if s.AxisOrder != EastingFirst && s.AxisOrder != NorthingFirst {
		return fmt.Errorf("system %s: missing axis order", s.Key)
	}
	if err := validateProjection(s.Projection); err != nil {
		return fmt.Errorf("system %s: %w", s.Key, err)
	}
	if err := s.Datum.validate(); err != nil {
		return fmt.Errorf("system %s: %w", s.Key, err)
	}
	return nil
}

// SystemInfo is the listing entry shown to users.
type SystemInfo struct {
	Key      string   `json:"key"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	EPSG     int      `json:"epsg"`
}

var (
	datumDBRef = Datum{
		Name:      "DB_REF",
		Ellipsoid: Bessel1841,
		ToWGS84:   Helmert{584.9636, 107.7175, 413.8067, 1.1155214628, 0.2824339890, -3.1384490633, -7.992235},
	}
	datumRD83 = Datum{
		Name:      "RD/83",
		Ellipsoid: Bessel1841,
		ToWGS84:   Helmert{612.4, 77.0, 440.2, -0.054, 0.057, -2.797, 2.55},
	}
	datumETRS89 = Datum{Name: "ETRS89", Ellipsoid: GRS80}
)

func gaussKrueger(key, name string, epsg int, zone int, datum Datum, axis AxisOrder) *System {
	return &System{
		Key:        key,
		Name:       name,
		Code:       epsg,
		Projection: NewTransverseMercator(datum.Ellipsoid, float64(3*zone), 1, float64(zone)*1_000_000+500_000, 0),
		Datum:      datum,
		AxisOrder:  axis,
	}
}

// utm builds an ETRS89/UTM north zone; zonePrefixed systems carry the zone
// number in front of the easting (e.g. 33500000).
func utm(key, name string, epsg int, zone int, zonePrefixed bool, axis AxisOrder) *System {
	falseEasting := 500_000.0
	if zonePrefixed {
		falseEasting += float64(zone) * 1_000_000
	}
	return &System{
		Key:        key,
		Name:       name,
		Code:       epsg,
		Projection: NewTransverseMercator(GRS80, float64(6*zone-183), 0.9996, falseEasting, 0),
		Datum:      datumETRS89,
		AxisOrder:  axis,
	}
}

var catalog = mustCatalog(
	gaussKrueger("gk2", "GK Zone 2", 5682, 2, datumDBRef, EastingFirst),
	gaussKrueger("gk3", "GK Zone 3", 5683, 3, datumDBRef, EastingFirst),
	gaussKrueger("gk4", "GK Zone 4", 5684, 4, datumDBRef, EastingFirst),
	gaussKrueger("gk5", "GK Zone 5", 5685, 5, datumDBRef, EastingFirst),

	gaussKrueger("rd83_gk4", "RD/83 3-degree GK Zone 4", 3398, 4, datumRD83, NorthingFirst),
	gaussKrueger("rd83_gk5", "RD/83 3-degree GK Zone 5", 3399, 5, datumRD83, NorthingFirst),
	gaussKrueger("rd83_gk4_en", "RD/83 3-degree GK Zone 4 (E-N)", 5668, 4, datumRD83, EastingFirst),
	gaussKrueger("rd83_gk5_en", "RD/83 3-degree GK Zone 5 (E-N)", 5669, 5, datumRD83, EastingFirst),

	utm("etrs89_utm33n", "ETRS89 / UTM Zone 33N", 25833, 33, false, EastingFirst),
	utm("etrs89_utm33n_ne", "ETRS89 / UTM Zone 33N (N-E)", 3045, 33, false, NorthingFirst),
	utm("etrs89_utm33n_nze", "ETRS89 / UTM Zone 33N (N-zE)", 5653, 33, true, NorthingFirst),
	utm("etrs89_utm33n_zen", "ETRS89 / UTM Zone 33N (zE-N)", 5650, 33, true, EastingFirst),

	&System{Key: "ch1903p_lv95", Name: "CH1903+ / LV95", Code: 2056, Projection: &SwissLV95{}, Datum: DatumWGS84, AxisOrder: EastingFirst},
	&System{Key: "web_mercator", Name: "WGS 84 / Pseudo-Mercator", Code: 3857, Projection: &WebMercator{}, Datum: DatumWGS84, AxisOrder: EastingFirst},
	&System{Key: "wgs84", Name: "WGS 84 (lon/lat)", Code: 4326, Projection: &Geographic{}, Datum: DatumWGS84, AxisOrder: EastingFirst},
)

type systemCatalog struct {
	ordered []*System
	byKey   map[string]*System
	byEPSG  map[int]*System
}

func mustCatalog(systems ...*System) systemCatalog {
	c := systemCatalog{
		ordered: systems,
		byKey:   make(map[string]*System, len(systems)),
		byEPSG:  make(map[int]*System, len(systems)),
	}
	for _, s := range systems {
		if err := s.validate(); err != nil {
			panic("coord: invalid catalog entry: " + err.Error())
		}
		if _, dup := c.byKey[s.Key]; dup {
			panic("coord: duplicate catalog key " + s.Key)
		}
		c.byKey[s.Key] = s
		c.byEPSG[s.Code] = s
	}
	return c
}

// NormalizeKey maps legacy bare zone numbers ("2".."5") to their gk key.
func NormalizeKey(key string) string {
	key = strings.TrimSpace(key)
	switch key {
	case "2", "3", "4", "5":
		return "gk" + key
	}
	return key
}

// Lookup returns the system registered under key.
func Lookup(key string) (*System, error) {
	if s, ok := catalog.byKey[NormalizeKey(key)]; ok {
		return s, nil
	}
	return nil, &UnsupportedSystemError{Key: key}
}

// ForEPSG returns the system for the given EPSG code, or nil if unsupported.
func ForEPSG(epsg int) *System {
	return catalog.byEPSG[epsg]
}

// Systems returns all catalog entries in listing order.
func Systems() []*System {
	out := make([]*System, len(catalog.ordered))
	copy(out, catalog.ordered)
	return out
}

// SupportedSystems lists the catalog for display.
func SupportedSystems() []SystemInfo {
	out := make([]SystemInfo, 0, len(catalog.ordered))
	for _, s := range catalog.ordered {
		out = append(out, SystemInfo{Key: s.Key, Name: s.Name, Category: s.Category(), EPSG: s.Code})
	}
	return out
}
