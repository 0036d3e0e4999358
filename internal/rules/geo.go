// internal/rules/geo.go
//
// Geofence rule evaluator.
//
// Context
// -------
// Each geo rule is a circle (center + radius in km).  The visitor's
// coordinates come from the GeoLite2 lookup in internal/requestinfo and
// are injected here, keeping the evaluator pure.  Distance is great-circle
// via the haversine formula with the mean Earth radius.
//
// Policy: among all circles containing the visitor, the one with the
// smallest radius wins — a store-front fence beats a country-wide fence
// regardless of list order.  This deliberately differs from the time
// evaluator's first-match-wins; do not unify them.
package rules

import (
	"math"

	"github.com/yanizio/qrlink/internal/qrcode"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// MatchGeo returns the destination of the most specific (smallest-radius)
// rule containing the visitor, or ("", false) when no circle matches.
func MatchGeo(rules []qrcode.GeoRule, visitorLat, visitorLon float64) (string, bool) {
	var (
		bestURL    string
		bestRadius float64
		found      bool
	)
	for _, r := range rules {
		d := Haversine(visitorLat, visitorLon, r.Lat, r.Lon)
		if d > r.RadiusKm {
			continue
		}
		if !found || r.RadiusKm < bestRadius {
			bestURL = r.URL
			bestRadius = r.RadiusKm
			found = true
		}
	}
	return bestURL, found
}

// Haversine returns the great-circle distance between two points in km.
// Identical points yield exactly 0.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	if lat1 == lat2 && lon1 == lon2 {
		return 0
	}

	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}
