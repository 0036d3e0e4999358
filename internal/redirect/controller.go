// internal/redirect/controller.go
//
// The user-facing scan flow.
//
/*
Context
--------
One scan request walks a small state machine:

    Resolving → Classifying → (Blocked | Verified) → Redirected
                                        ↘ Error (terminal, no redirect)

  • Resolving     – run the resolution engine.  Failures map to visitor
    errors: NotFound 404, Exhausted 410, Unresolvable 500.
  • Classifying   – classify the resolved URL, remote-first with local
    fallback.  Classification never errors; infrastructure outages come
    back as a neutral "proceed with warning" verdict.
  • Blocked       – unsafe verdict.  Terminal page, no auto-navigation,
    the visitor has to leave on their own.
  • Verified      – render the verification interstitial.  The page
    carries the navigation (meta refresh) after the confirmation delay,
    plus the branded banner when the owner enabled it; branding only ever
    delays the navigation, never changes the destination.
  • Redirected    – reached client-side when the refresh fires.  A tab
    closed before the delay elapses simply never navigates.

Reaching Verified also fires the analytics write and the scan-count
increment as one detached task (internal/analytics).  Its failures hit
the log and nothing else.

Notes
-----
  • Branding duration is capped by config so a typo in the database
    cannot park visitors on an interstitial for minutes.
  • Oxford commas, two spaces after periods.
*/
package redirect

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/qrlink/internal/analytics"
	"github.com/yanizio/qrlink/internal/metrics"
	"github.com/yanizio/qrlink/internal/requestinfo"
	"github.com/yanizio/qrlink/internal/resolver"
	"github.com/yanizio/qrlink/internal/security"
)

// Controller wires the resolution engine, the classifier, and the
// analytics recorder into the scan handler.
type Controller struct {
	resolver   *resolver.Resolver
	classifier *security.Service
	recorder   *analytics.Recorder

	verifyDelay    time.Duration
	maxBrandingSec int
}

// New builds a Controller.
func New(res *resolver.Resolver, cls *security.Service, rec *analytics.Recorder,
	verifyDelay time.Duration, maxBrandingSec int) *Controller {
	return &Controller{
		resolver:       res,
		classifier:     cls,
		recorder:       rec,
		verifyDelay:    verifyDelay,
		maxBrandingSec: maxBrandingSec,
	}
}

// Scan handles GET /{shortCode}.
func (c *Controller) Scan(w http.ResponseWriter, r *http.Request) {
	metrics.ScansTotal.Inc()
	code := chi.URLParam(r, "shortCode")
	info := requestinfo.FromContext(r.Context())

	// ── Resolving ───────────────────────────────────────────────────────
	var visitor *resolver.Visitor
	if info != nil && info.Geo.HasCoords {
		visitor = &resolver.Visitor{Lat: info.Geo.Lat, Lon: info.Geo.Lon}
	}

	res, err := c.resolver.Resolve(r.Context(), code, visitor)
	if err != nil {
		c.renderError(w, code, err)
		return
	}

	// ── Classifying ─────────────────────────────────────────────────────
	verdict := c.classifier.Check(r.Context(), res.URL)
	if r.Context().Err() != nil {
		// Visitor gone mid-flight; nothing left to render or record.
		return
	}

	// ── Blocked ─────────────────────────────────────────────────────────
	if !verdict.IsSafe {
		metrics.BlockedRedirectsTotal.Inc()
		zap.S().Warnw("redirect blocked",
			"short_code", code,
			"url", res.URL,
			"score", verdict.Score,
			"threats", verdict.Threats,
		)
		renderPage(w, http.StatusForbidden, "blocked", blockedData{
			URL:     verdict.URL,
			Threats: verdict.Threats,
		})
		return
	}

	// ── Verified ────────────────────────────────────────────────────────
	c.recordScan(res, info)

	delay := int(c.verifyDelay / time.Second)
	data := verifyData{URL: res.URL, DelaySec: delay}
	if res.Record.BrandingEnabled {
		brand := res.Record.BrandingDurationSec
		if brand > c.maxBrandingSec {
			brand = c.maxBrandingSec
		}
		data.DelaySec += brand
		data.BrandingStyle = res.Record.BrandingStyle
		data.BrandingText = res.Record.CustomBrandingText
	}

	metrics.RedirectsTotal.Inc()
	zap.S().Infow("redirect verified",
		"short_code", code,
		"url", res.URL,
		"stage", res.Stage,
		"score", verdict.Score,
	)
	renderPage(w, http.StatusOK, "verify", data)
}

// recordScan fires the detached analytics write for a served redirect.
func (c *Controller) recordScan(res *resolver.Resolution, info *requestinfo.RequestInfo) {
	s := analytics.Scan{
		QRCodeID:  res.Record.ID,
		Stage:     string(res.Stage),
		ScannedAt: time.Now().UTC(),
	}
	if info != nil {
		s.Device = info.UA.Device
		if info.UA.IsBot {
			s.Device = "Bot"
		}
		s.Browser = info.UA.Browser
		s.OS = info.UA.OS
		s.Referer = info.Referer
		s.CountryISO = info.Geo.CountryISO
		s.ScannedAt = info.Timestamp
	}
	c.recorder.Record(s)
}

// renderError maps resolver failures to terminal visitor pages.
func (c *Controller) renderError(w http.ResponseWriter, code string, err error) {
	switch {
	case errors.Is(err, resolver.ErrNotFound):
		renderPage(w, http.StatusNotFound, "error", errorData{
			Title:   "QR code not found",
			Message: "This QR code does not exist or is no longer valid.",
		})
	case errors.Is(err, resolver.ErrExhausted):
		renderPage(w, http.StatusGone, "error", errorData{
			Title:   "Scan limit reached",
			Message: "This QR code has reached its scan limit and is no longer active.",
		})
	default:
		zap.S().Errorw("resolution failed", "short_code", code, "err", err)
		renderPage(w, http.StatusInternalServerError, "error", errorData{
			Title:   "Something went wrong",
			Message: "No valid redirect could be found for this QR code.",
		})
	}
}
