//
//  internal/requestinfo/requestinfo.go
//
//  Lightweight types and helpers that collect per-request metadata
//  (user-agent fingerprint, IP + geolocation, referer, and timestamp).
//  The geolocation half doubles as the visitor-coordinate source for
//  geofence matching: the redirect resolver reads Geo.Lat / Geo.Lon when
//  a QR code carries geo rules.  These structs are inert.  They contain
//  no pointers to database handles or large buffers, so they are safe to
//  log or JSON-encode.
//
//  Dependencies
//  • internal/ua                       (uasurfer wrapper)
//  • github.com/oschwald/geoip2-golang (MaxMind lookup)
//

package requestinfo

import (
	"context"
	"net"
	"time"

	"github.com/oschwald/geoip2-golang"

	"github.com/yanizio/qrlink/internal/ua"
)

//
//  -----------------------------
//  Struct definitions
//  -----------------------------
//

// Geo holds IP-based geolocation hints.  These are best-effort and may be
// empty if the DB has no match.  HasCoords distinguishes a genuine (0, 0)
// fix from "no fix at all"; the resolver treats the latter as "no visitor
// coordinates" and skips geofence matching entirely.
type Geo struct {
	IP         net.IP  // Original client address (not X-Forwarded-For chain)
	CountryISO string  // "US", "CA", "FR", ...
	City       string  // "Chicago", "Paris", ...
	Lat        float64 // Decimal degrees, positive north
	Lon        float64 // Decimal degrees, positive east
	HasCoords  bool    // False when the DB had no location for the IP
}

// RequestInfo is attached to each scan request's context and is therefore
// visible to the redirect controller and the analytics recorder.
type RequestInfo struct {
	UA        ua.Info
	Geo       Geo
	Referer   string
	Timestamp time.Time
}

//
//  -----------------------------
//  Package-level state
//  -----------------------------
//

// geoReader is a singleton MaxMind handle.  It is safe for concurrent
// reads, which is all we ever perform.  It stays nil when no database is
// configured; lookups then return an empty Geo and geofence rules fall
// through to time rules, per the resolver's fallback chain.
var geoReader *geoip2.Reader

// InitGeo opens the GeoLite2-City database at startup.  Call it from
// main() before the server starts; an empty path is a no-op.
func InitGeo(dbPath string) error {
	if dbPath == "" {
		return nil
	}
	var err error
	geoReader, err = geoip2.Open(dbPath)
	return err
}

//
//  -----------------------------
//  Public helper: FromContext
//  -----------------------------
//
//  The Enrich middleware stores *RequestInfo inside net/context so that
//  any code holding only http.Request can still retrieve the struct.
//

type ctxKey struct{} // unexported, collision-proof

// FromContext returns the pointer previously stored by Enrich.
// It returns nil if the middleware has not run.
func FromContext(ctx context.Context) *RequestInfo {
	v, _ := ctx.Value(ctxKey{}).(*RequestInfo)
	return v
}

//
//  -----------------------------
//  Internal helpers
//  -----------------------------
//

// lookupGeo returns best-effort Geo data using the global reader.
func lookupGeo(ip net.IP) Geo {
	if geoReader == nil || ip == nil {
		return Geo{IP: ip}
	}
	rec, err := geoReader.City(ip)
	if err != nil {
		return Geo{IP: ip}
	}
	g := Geo{
		IP:         ip,
		CountryISO: rec.Country.IsoCode,
		City:       rec.City.Names["en"],
	}
	// MaxMind returns 0/0 with zero accuracy when it has no fix.
	if rec.Location.AccuracyRadius > 0 || rec.Location.Latitude != 0 || rec.Location.Longitude != 0 {
		g.Lat = rec.Location.Latitude
		g.Lon = rec.Location.Longitude
		g.HasCoords = true
	}
	return g
}
