// internal/resolver/resolver.go
//
// Redirect resolution engine.
//
/*
Context
--------
Given a scanned short code, produce exactly one destination URL.  The
whole decision runs server-side in one call — record lookup, scan-limit
gate, geofence matching, and time-window matching happen inside this
process against one consistent read of the record, so there is no race
between the scan-count check and rule evaluation.

Priority order (each stage short-circuits on success):

  1. Record lookup — unknown or soft-deleted code is fatal (NotFound).
  2. Scan-limit gate — exhausted + expired URL wins over every rule;
     exhausted without one is fatal (Exhausted).
  3. Geofence rules — only when the record has any, and only when the
     visitor produced coordinates.  No coordinates, a lookup failure, or
     no matching circle all degrade the same way: fall through to time
     rules, never straight to the default.
  4. Time rules — first match in insertion order.
  5. originalUrl — always present, so step 6 is defensive only.
  6. Still nothing is fatal (Unresolvable).

The chosen URL leaves here scheme-normalized.  Security classification
and analytics are the redirect controller's business, not ours.

Failure semantics
-----------------
Only NotFound, Exhausted, and Unresolvable propagate.  Everything else
inside a stage is absorbed, counted in the stage_degraded_total metric,
and converted into the next fallback step.

Notes
-----
  • "Now" and the visitor location are injected, never read from ambient
    globals, so the resolver is deterministic under test.
  • Oxford commas, two spaces after periods.
*/
package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/qrlink/internal/metrics"
	"github.com/yanizio/qrlink/internal/qrcode"
	"github.com/yanizio/qrlink/internal/rules"
	"github.com/yanizio/qrlink/internal/urlx"
)

/*──────────────────────────── errors ───────────────────────────────────────*/

var (
	// ErrNotFound — the short code does not resolve to any live record.
	ErrNotFound = errors.New("resolver: QR code not found or is invalid")

	// ErrExhausted — scan limit reached and no expired URL configured.
	ErrExhausted = errors.New("resolver: scan limit reached, no fallback")

	// ErrUnresolvable — all stages produced nothing.  Defensive; a record
	// always carries an original URL.
	ErrUnresolvable = errors.New("resolver: no valid redirect URL found")
)

/*──────────────────────────── types ────────────────────────────────────────*/

// RecordSource abstracts the record lookup so the hot cache, a bare
// repository call, or a test fake can all serve the resolver.
type RecordSource interface {
	Get(ctx context.Context, shortCode string) (*qrcode.Record, error)
}

// Visitor carries the coordinates the geolocation collaborator produced
// for this scan.  A nil *Visitor means "no fix"; the resolver treats it
// exactly like a geofence miss.
type Visitor struct {
	Lat float64
	Lon float64
}

// Stage names the pipeline step that produced the final URL.  Logged and
// recorded with each scan so analytics can break redirects down by rule
// kind.
type Stage string

const (
	StageExpired Stage = "expired"
	StageGeo     Stage = "geo"
	StageTime    Stage = "time"
	StageDefault Stage = "default"
)

// Resolution is the resolver's answer for one scan.
type Resolution struct {
	Record *qrcode.Record
	URL    string // scheme-normalized destination
	Stage  Stage
}

// Resolver wires the collaborators together.  Zero value is unusable;
// construct with New.
type Resolver struct {
	records RecordSource
	now     func() time.Time
}

// New builds a Resolver.  now == nil defaults to time.Now; tests inject a
// fixed clock.
func New(records RecordSource, now func() time.Time) *Resolver {
	if now == nil {
		now = time.Now
	}
	return &Resolver{records: records, now: now}
}

/*──────────────────────────── resolution ───────────────────────────────────*/

// Resolve runs the full pipeline for shortCode.  visitor may be nil.
func (r *Resolver) Resolve(ctx context.Context, shortCode string, visitor *Visitor) (*Resolution, error) {
	// 1. Record lookup.
	rec, err := r.records.Get(ctx, shortCode)
	if err != nil {
		if errors.Is(err, qrcode.ErrNotFound) {
			return nil, ErrNotFound
		}
		// Storage trouble is indistinguishable from "no record" to the
		// visitor, but keep the cause in the chain for the logs.
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	// 2. Scan-limit gate — highest priority, overrides all rules.
	gate := rules.CheckScanLimit(rec.ScanCount, rec.ScanLimit, rec.ExpiredURL)
	if gate.Exhausted {
		metrics.ExhaustedCodesTotal.Inc()
		if gate.URL == "" {
			return nil, ErrExhausted
		}
		return &Resolution{Record: rec, URL: gate.URL, Stage: StageExpired}, nil
	}

	// 3. Geofence rules, when present.
	if len(rec.GeoRules) > 0 {
		if url, ok := r.resolveGeo(rec, visitor); ok {
			return &Resolution{Record: rec, URL: urlx.EnsureScheme(url), Stage: StageGeo}, nil
		}
		// Degraded or no match: fall through to time rules, never
		// straight to the default.
	}

	// 4. Time rules.
	nowHHMM := r.now().UTC().Format("15:04")
	if url, ok := rules.MatchTime(rec.TimeRules, nowHHMM); ok {
		return &Resolution{Record: rec, URL: urlx.EnsureScheme(url), Stage: StageTime}, nil
	}

	// 5. Default destination.
	if rec.OriginalURL != "" {
		return &Resolution{Record: rec, URL: urlx.EnsureScheme(rec.OriginalURL), Stage: StageDefault}, nil
	}

	// 6. Defensive terminal.
	return nil, ErrUnresolvable
}

// resolveGeo applies the geofence stage.  Missing coordinates count as a
// degraded stage, not an error.
func (r *Resolver) resolveGeo(rec *qrcode.Record, visitor *Visitor) (string, bool) {
	if visitor == nil {
		metrics.StageDegradedTotal.WithLabelValues("geo").Inc()
		zap.S().Debugw("geo stage degraded", "short_code", rec.ShortCode, "reason", "no coordinates")
		return "", false
	}
	url, ok := rules.MatchGeo(rec.GeoRules, visitor.Lat, visitor.Lon)
	return url, ok
}
