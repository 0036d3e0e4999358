// internal/rules/geo_test.go
//
// Unit-tests for the geofence evaluator.
//
// Run: go test ./internal/rules -v

package rules

import (
	"math"
	"testing"

	"github.com/yanizio/qrlink/internal/qrcode"
)

func TestHaversineIdenticalPoints(t *testing.T) {
	if d := Haversine(40.7128, -74.0060, 40.7128, -74.0060); d != 0 {
		t.Fatalf("distance(point, point) = %v, want exactly 0", d)
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	// New York → Los Angeles ≈ 3936 km.
	d := Haversine(40.7128, -74.0060, 34.0522, -118.2437)
	if math.Abs(d-3936) > 5 {
		t.Fatalf("NY→LA = %.1f km, want 3936 ±5", d)
	}
}

func TestMatchGeoSmallestRadiusWins(t *testing.T) {
	// Both circles share a center and both contain the visitor; the
	// 10 km circle must win regardless of list order.
	rules := []qrcode.GeoRule{
		{Lat: 48.8566, Lon: 2.3522, RadiusKm: 50, URL: "https://region.example.com"},
		{Lat: 48.8566, Lon: 2.3522, RadiusKm: 10, URL: "https://city.example.com"},
	}

	url, ok := MatchGeo(rules, 48.8570, 2.3530)
	if !ok || url != "https://city.example.com" {
		t.Fatalf("got (%q, %v), want the 10 km rule", url, ok)
	}

	// Reversed order, same answer.
	rules[0], rules[1] = rules[1], rules[0]
	url, ok = MatchGeo(rules, 48.8570, 2.3530)
	if !ok || url != "https://city.example.com" {
		t.Fatalf("order-dependent result: (%q, %v)", url, ok)
	}
}

func TestMatchGeoOutsideAllCircles(t *testing.T) {
	rules := []qrcode.GeoRule{
		{Lat: 48.8566, Lon: 2.3522, RadiusKm: 10, URL: "https://paris.example.com"},
	}
	// Tokyo is not within 10 km of Paris.
	if url, ok := MatchGeo(rules, 35.6762, 139.6503); ok {
		t.Fatalf("unexpected match: %q", url)
	}
}

func TestMatchGeoBoundaryInclusive(t *testing.T) {
	// A visitor sitting exactly on the circle edge is inside.
	rules := []qrcode.GeoRule{
		{Lat: 0, Lon: 0, RadiusKm: Haversine(0, 0, 0, 0.5), URL: "https://edge.example.com"},
	}
	if _, ok := MatchGeo(rules, 0, 0.5); !ok {
		t.Fatal("visitor on the exact boundary should match")
	}
}
