// internal/api/api.go
//
// Management API for QR codes and their redirect rules.
//
/*
Context
--------
Owners create codes, attach rules, and read scan analytics through this
JSON surface.  Authentication and session handling live in an upstream
collaborator; by the time a request reaches these handlers the auth proxy
has stamped two trusted headers:

    X-Owner-Id    – numeric owner of every record the request touches.
    X-Plan-Tier   – "free" or "pro".

Plan gating is explicit: the tier value travels into each handler that
needs it, and paid features (geofences, scan limits, branding) check it
there.  There is no global bypass flag.

Every rule write is validated with the shapes in internal/qrcode —
coordinates in range, positive radii, well-formed HH:MM — so evaluators
never see a malformed rule.  Writes invalidate the hot-record cache so
the next scan observes the edit.

Routes (all under /api/v1)
--------------------------
    POST   /codes                       create a code
    DELETE /codes/{shortCode}           soft delete
    POST   /codes/{shortCode}/time-rules
    DELETE /codes/{shortCode}/time-rules/{ruleID}
    POST   /codes/{shortCode}/geo-rules          (pro)
    DELETE /codes/{shortCode}/geo-rules/{ruleID}
    PUT    /codes/{shortCode}/scan-limit         (pro)
    GET    /codes/{shortCode}/analytics
    POST   /security/check              classify a URL (collaborator contract)

Notes
-----
  • Short codes come from teris-io/shortid unless the owner supplies one;
    duplicates retry with a fresh code.
  • Oxford commas, two spaces after periods.
*/
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/teris-io/shortid"
	"go.uber.org/zap"

	"github.com/yanizio/qrlink/internal/analytics"
	"github.com/yanizio/qrlink/internal/qrcode"
	"github.com/yanizio/qrlink/internal/security"
)

// Handlers carries the shared collaborators.
type Handlers struct {
	db         *sqlx.DB
	records    *qrcode.Cache
	classifier *security.Service
	sid        *shortid.Shortid
}

// New builds the handler set.  The shortid worker seed only needs to be
// distinct per process.
func New(db *sqlx.DB, records *qrcode.Cache, classifier *security.Service) (*Handlers, error) {
	sid, err := shortid.New(1, shortid.DefaultABC, 2342)
	if err != nil {
		return nil, err
	}
	return &Handlers{db: db, records: records, classifier: classifier, sid: sid}, nil
}

// Routes mounts every management endpoint on a fresh router.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/codes", h.createCode)
	r.Delete("/codes/{shortCode}", h.deleteCode)
	r.Post("/codes/{shortCode}/time-rules", h.addTimeRule)
	r.Delete("/codes/{shortCode}/time-rules/{ruleID}", h.removeTimeRule)
	r.Post("/codes/{shortCode}/geo-rules", h.addGeoRule)
	r.Delete("/codes/{shortCode}/geo-rules/{ruleID}", h.removeGeoRule)
	r.Put("/codes/{shortCode}/scan-limit", h.setScanLimit)
	r.Get("/codes/{shortCode}/analytics", h.codeAnalytics)
	r.Post("/security/check", h.securityCheck)
	return r
}

/*──────────────────────────── acting user ──────────────────────────────────*/

// actor is the authenticated owner as stamped by the auth proxy.
type actor struct {
	OwnerID uint64
	Tier    qrcode.PlanTier
}

// actorFrom reads the trusted headers.  A missing owner is a 401 — the
// proxy never forwards unauthenticated traffic here, so absence means a
// misrouted request.
func actorFrom(r *http.Request) (actor, bool) {
	id, err := strconv.ParseUint(r.Header.Get("X-Owner-Id"), 10, 64)
	if err != nil || id == 0 {
		return actor{}, false
	}
	tier := qrcode.PlanTier(r.Header.Get("X-Plan-Tier"))
	if tier != qrcode.TierPro {
		tier = qrcode.TierFree
	}
	return actor{OwnerID: id, Tier: tier}, true
}

/*──────────────────────────── code lifecycle ───────────────────────────────*/

func (h *Handlers) createCode(w http.ResponseWriter, r *http.Request) {
	act, ok := actorFrom(r)
	if !ok {
		respondErr(w, http.StatusUnauthorized, "missing owner identity")
		return
	}

	var in qrcode.CreateInput
	if err := decode(r, &in); err != nil {
		respondErr(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	if err := qrcode.ValidateCreate(&in); err != nil {
		respondErr(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if (in.ScanLimit != nil || in.BrandingEnabled) && act.Tier != qrcode.TierPro {
		respondErr(w, http.StatusForbidden, "scan limits and branding require the pro plan")
		return
	}

	rec := &qrcode.Record{
		PublicID:            uuid.NewString(),
		OwnerID:             act.OwnerID,
		ShortCode:           in.ShortCode,
		OriginalURL:         in.OriginalURL,
		ScanLimit:           in.ScanLimit,
		ExpiredURL:          in.ExpiredURL,
		BrandingEnabled:     in.BrandingEnabled,
		BrandingStyle:       in.BrandingStyle,
		BrandingDurationSec: in.BrandingDurationSec,
		CustomBrandingText:  in.CustomBrandingText,
	}

	// Generate codes until one sticks; collisions are rare enough that
	// three tries means something else is wrong.
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if rec.ShortCode == "" {
			code, err := h.sid.Generate()
			if err != nil {
				respondErr(w, http.StatusInternalServerError, "short code generation failed")
				return
			}
			rec.ShortCode = code
		}
		id, err := qrcode.Create(r.Context(), h.db, rec)
		if err == nil {
			rec.ID = id
			respond(w, http.StatusCreated, map[string]any{
				"public_id":  rec.PublicID,
				"short_code": rec.ShortCode,
			})
			return
		}
		lastErr = err
		if in.ShortCode != "" {
			// Caller picked the code; a collision is theirs to resolve.
			respondErr(w, http.StatusConflict, "short code already in use")
			return
		}
		rec.ShortCode = ""
	}

	zap.S().Errorw("qr code create failed", "owner", act.OwnerID, "err", lastErr)
	respondErr(w, http.StatusInternalServerError, "could not create QR code")
}

func (h *Handlers) deleteCode(w http.ResponseWriter, r *http.Request) {
	act, ok := actorFrom(r)
	if !ok {
		respondErr(w, http.StatusUnauthorized, "missing owner identity")
		return
	}
	rec, ok := h.ownedRecord(r.Context(), w, r, act)
	if !ok {
		return
	}
	if err := qrcode.SoftDelete(r.Context(), h.db, rec.ID); err != nil {
		zap.S().Errorw("qr code delete failed", "id", rec.ID, "err", err)
		respondErr(w, http.StatusInternalServerError, "delete failed")
		return
	}
	h.records.Invalidate(rec.ShortCode)
	respond(w, http.StatusNoContent, nil)
}

/*──────────────────────────── rule editing ─────────────────────────────────*/

func (h *Handlers) addTimeRule(w http.ResponseWriter, r *http.Request) {
	act, ok := actorFrom(r)
	if !ok {
		respondErr(w, http.StatusUnauthorized, "missing owner identity")
		return
	}
	rec, ok := h.ownedRecord(r.Context(), w, r, act)
	if !ok {
		return
	}

	var in qrcode.TimeRuleInput
	if err := decode(r, &in); err != nil {
		respondErr(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	if err := qrcode.ValidateTimeRule(&in); err != nil {
		respondErr(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	rule := &qrcode.TimeRule{
		QRCodeID: rec.ID,
		Start:    in.Start,
		End:      in.End,
		URL:      in.URL,
		Label:    in.Label,
	}
	if err := qrcode.AddTimeRule(r.Context(), h.db, rule); err != nil {
		zap.S().Errorw("time rule add failed", "id", rec.ID, "err", err)
		respondErr(w, http.StatusInternalServerError, "rule add failed")
		return
	}
	h.records.Invalidate(rec.ShortCode)
	respond(w, http.StatusCreated, nil)
}

func (h *Handlers) addGeoRule(w http.ResponseWriter, r *http.Request) {
	act, ok := actorFrom(r)
	if !ok {
		respondErr(w, http.StatusUnauthorized, "missing owner identity")
		return
	}
	if act.Tier != qrcode.TierPro {
		respondErr(w, http.StatusForbidden, "geofence rules require the pro plan")
		return
	}
	rec, ok := h.ownedRecord(r.Context(), w, r, act)
	if !ok {
		return
	}

	var in qrcode.GeoRuleInput
	if err := decode(r, &in); err != nil {
		respondErr(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	if err := qrcode.ValidateGeoRule(&in); err != nil {
		respondErr(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	rule := &qrcode.GeoRule{
		QRCodeID: rec.ID,
		Lat:      in.Lat,
		Lon:      in.Lon,
		RadiusKm: in.RadiusKm,
		URL:      in.URL,
		Label:    in.Label,
	}
	if err := qrcode.AddGeoRule(r.Context(), h.db, rule); err != nil {
		zap.S().Errorw("geo rule add failed", "id", rec.ID, "err", err)
		respondErr(w, http.StatusInternalServerError, "rule add failed")
		return
	}
	h.records.Invalidate(rec.ShortCode)
	respond(w, http.StatusCreated, nil)
}

func (h *Handlers) removeTimeRule(w http.ResponseWriter, r *http.Request) {
	h.removeRule(w, r, qrcode.RemoveTimeRule)
}

func (h *Handlers) removeGeoRule(w http.ResponseWriter, r *http.Request) {
	h.removeRule(w, r, qrcode.RemoveGeoRule)
}

// removeRule shares the delete plumbing between the two rule kinds.
func (h *Handlers) removeRule(w http.ResponseWriter, r *http.Request,
	del func(context.Context, *sqlx.DB, uint64, uint64) error) {

	act, ok := actorFrom(r)
	if !ok {
		respondErr(w, http.StatusUnauthorized, "missing owner identity")
		return
	}
	rec, ok := h.ownedRecord(r.Context(), w, r, act)
	if !ok {
		return
	}
	ruleID, err := strconv.ParseUint(chi.URLParam(r, "ruleID"), 10, 64)
	if err != nil {
		respondErr(w, http.StatusBadRequest, "bad rule id")
		return
	}
	if err := del(r.Context(), h.db, rec.ID, ruleID); err != nil {
		zap.S().Errorw("rule remove failed", "id", rec.ID, "rule", ruleID, "err", err)
		respondErr(w, http.StatusInternalServerError, "rule remove failed")
		return
	}
	h.records.Invalidate(rec.ShortCode)
	respond(w, http.StatusNoContent, nil)
}

/*──────────────────────────── scan limit ───────────────────────────────────*/

type scanLimitInput struct {
	ScanLimit  *int64  `json:"scan_limit"`
	ExpiredURL *string `json:"expired_url"`
}

func (h *Handlers) setScanLimit(w http.ResponseWriter, r *http.Request) {
	act, ok := actorFrom(r)
	if !ok {
		respondErr(w, http.StatusUnauthorized, "missing owner identity")
		return
	}
	if act.Tier != qrcode.TierPro {
		respondErr(w, http.StatusForbidden, "scan limits require the pro plan")
		return
	}
	rec, ok := h.ownedRecord(r.Context(), w, r, act)
	if !ok {
		return
	}

	var in scanLimitInput
	if err := decode(r, &in); err != nil {
		respondErr(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	if in.ScanLimit != nil && *in.ScanLimit <= 0 {
		respondErr(w, http.StatusUnprocessableEntity, "scan_limit must be positive")
		return
	}

	if err := qrcode.SetScanLimit(r.Context(), h.db, rec.ID, in.ScanLimit, in.ExpiredURL); err != nil {
		zap.S().Errorw("scan limit update failed", "id", rec.ID, "err", err)
		respondErr(w, http.StatusInternalServerError, "update failed")
		return
	}
	h.records.Invalidate(rec.ShortCode)
	respond(w, http.StatusNoContent, nil)
}

/*──────────────────────────── analytics ────────────────────────────────────*/

func (h *Handlers) codeAnalytics(w http.ResponseWriter, r *http.Request) {
	act, ok := actorFrom(r)
	if !ok {
		respondErr(w, http.StatusUnauthorized, "missing owner identity")
		return
	}
	rec, ok := h.ownedRecord(r.Context(), w, r, act)
	if !ok {
		return
	}

	days := 30
	if d, err := strconv.Atoi(r.URL.Query().Get("days")); err == nil && d > 0 && d <= 365 {
		days = d
	}

	sum, err := analytics.Summarize(r.Context(), h.db, rec.ID, days)
	if err != nil {
		zap.S().Errorw("analytics summarize failed", "id", rec.ID, "err", err)
		respondErr(w, http.StatusInternalServerError, "analytics unavailable")
		return
	}
	respond(w, http.StatusOK, sum)
}

/*──────────────────────────── security check ───────────────────────────────*/

type securityCheckInput struct {
	URL string `json:"url"`
}

// securityCheck exposes the classifier under the collaborator contract:
// POST {url} → SecurityCheckResult JSON.
func (h *Handlers) securityCheck(w http.ResponseWriter, r *http.Request) {
	var in securityCheckInput
	if err := decode(r, &in); err != nil || in.URL == "" {
		respondErr(w, http.StatusBadRequest, "body must be {\"url\": …}")
		return
	}
	respond(w, http.StatusOK, h.classifier.Check(r.Context(), in.URL))
}

/*──────────────────────────── shared lookups ───────────────────────────────*/

// ownedRecord loads the record for {shortCode} and enforces ownership.
// Writes the error response itself when it returns ok == false.
func (h *Handlers) ownedRecord(ctx context.Context, w http.ResponseWriter, r *http.Request, act actor) (*qrcode.Record, bool) {
	code := chi.URLParam(r, "shortCode")
	rec, err := qrcode.ByShortCode(ctx, h.db, code)
	if err != nil {
		if errors.Is(err, qrcode.ErrNotFound) {
			respondErr(w, http.StatusNotFound, "unknown QR code")
		} else {
			zap.S().Errorw("record lookup failed", "short_code", code, "err", err)
			respondErr(w, http.StatusInternalServerError, "lookup failed")
		}
		return nil, false
	}
	if rec.OwnerID != act.OwnerID {
		// Hide existence from non-owners.
		respondErr(w, http.StatusNotFound, "unknown QR code")
		return nil, false
	}
	return rec, true
}
