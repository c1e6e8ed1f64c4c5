package coord

import "math"

// Envelope is a WGS84 bounding box, inclusive on all edges.
type Envelope struct {
	MinLon float64 `json:"minLon"`
	MinLat float64 `json:"minLat"`
	MaxLon float64 `json:"maxLon"`
	MaxLat float64 `json:"maxLat"`
}

// RegionEnvelope is the plausible extent of data from the supported region.
var RegionEnvelope = Envelope{MinLon: 5, MinLat: 47, MaxLon: 16, MaxLat: 56}

// IsPlausible reports whether p lies within RegionEnvelope. The check is
// advisory: edge-of-zone data may legitimately fall outside.
func IsPlausible(p GeographicPoint) bool {
	return RegionEnvelope.Contains(p)
}

func (e Envelope) Contains(p GeographicPoint) bool {
	return p.Lon >= e.MinLon && p.Lon <= e.MaxLon && p.Lat >= e.MinLat && p.Lat <= e.MaxLat
}

func (e Envelope) CenterLat() float64 { return (e.MinLat + e.MaxLat) / 2 }
func (e Envelope) CenterLon() float64 { return (e.MinLon + e.MaxLon) / 2 }

// BoundsOf returns the envelope of points; ok is false for an empty slice.
func BoundsOf(points []GeographicPoint) (env Envelope, ok bool) {
	if len(points) == 0 {
		return Envelope{}, false
	}
	env = Envelope{
		MinLon: math.Inf(1), MinLat: math.Inf(1),
		MaxLon: math.Inf(-1), MaxLat: math.Inf(-1),
	}
	for _, p := range points {
		env.MinLon = math.Min(env.MinLon, p.Lon)
		env.MinLat = math.Min(env.MinLat, p.Lat)
		env.MaxLon = math.Max(env.MaxLon, p.Lon)
		env.MaxLat = math.Max(env.MaxLat, p.Lat)
	}
	return env, true
}
