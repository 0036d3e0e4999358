// internal/redirect/controller_test.go
//
// End-to-end handler tests for the scan flow, fake record source, local
// classifier only, analytics on a mock pool.

package redirect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/qrlink/internal/analytics"
	"github.com/yanizio/qrlink/internal/qrcode"
	"github.com/yanizio/qrlink/internal/resolver"
	"github.com/yanizio/qrlink/internal/security"
)

type fakeSource struct {
	records map[string]*qrcode.Record
}

func (f *fakeSource) Get(_ context.Context, code string) (*qrcode.Record, error) {
	if rec, ok := f.records[code]; ok {
		return rec, nil
	}
	return nil, qrcode.ErrNotFound
}

func i64(v int64) *int64 { return &v }

// newController builds a Controller over the given records with a 3 second
// confirmation delay and a 10 second branding cap.
func newController(t *testing.T, records map[string]*qrcode.Record) *Controller {
	t.Helper()
	raw, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { raw.Close() })

	res := resolver.New(&fakeSource{records: records}, func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	})
	cls := security.NewService("", "", security.NewChecker(0))
	rec := analytics.NewRecorder(sqlx.NewDb(raw, "sqlmock"))
	return New(res, cls, rec, 3*time.Second, 10)
}

func scan(c *Controller, code string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get("/{shortCode}", c.Scan)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/"+code, nil))
	return w
}

func TestScanVerifiedPage(t *testing.T) {
	c := newController(t, map[string]*qrcode.Record{
		"abc123": {ID: 1, ShortCode: "abc123", OriginalURL: "example.com/offer"},
	})

	w := scan(c, "abc123")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	// Navigation rides the rendered page; closing the tab cancels it.
	if !strings.Contains(body, `http-equiv="refresh" content="3;url=https://example.com/offer"`) {
		t.Fatalf("verify page missing meta refresh:\n%s", body)
	}
	if !strings.Contains(body, "Verified") {
		t.Fatalf("verify page missing confirmation copy:\n%s", body)
	}
}

func TestScanBrandingDelaysNavigation(t *testing.T) {
	c := newController(t, map[string]*qrcode.Record{
		"brand1": {
			ID:                  2,
			ShortCode:           "brand1",
			OriginalURL:         "https://example.com",
			BrandingEnabled:     true,
			BrandingStyle:       "dark",
			BrandingDurationSec: 30, // above the cap, must clamp to 10
			CustomBrandingText:  "Brought to you by Acme",
		},
	})

	w := scan(c, "brand1")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `content="13;url=https://example.com"`) {
		t.Fatalf("branding delay not clamped onto refresh:\n%s", body)
	}
	if !strings.Contains(body, "Brought to you by Acme") {
		t.Fatalf("branding text missing:\n%s", body)
	}
	if !strings.Contains(body, `card dark`) {
		t.Fatalf("branding style missing:\n%s", body)
	}
}

func TestScanBlockedDestination(t *testing.T) {
	c := newController(t, map[string]*qrcode.Record{
		"bad1": {ID: 3, ShortCode: "bad1", OriginalURL: "http://203.0.113.9/login"},
	})

	w := scan(c, "bad1")
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Redirect blocked") {
		t.Fatalf("blocked page missing headline:\n%s", body)
	}
	if strings.Contains(body, "http-equiv") {
		t.Fatalf("blocked page must not auto-navigate:\n%s", body)
	}
}

func TestScanUnknownCode(t *testing.T) {
	c := newController(t, map[string]*qrcode.Record{})

	w := scan(c, "nosuch")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if !strings.Contains(w.Body.String(), "QR code not found") {
		t.Fatalf("unexpected 404 body:\n%s", w.Body.String())
	}
}

func TestScanExhaustedCode(t *testing.T) {
	c := newController(t, map[string]*qrcode.Record{
		"spent1": {
			ID:          4,
			ShortCode:   "spent1",
			OriginalURL: "https://example.com",
			ScanCount:   100,
			ScanLimit:   i64(100),
		},
	})

	w := scan(c, "spent1")
	if w.Code != http.StatusGone {
		t.Fatalf("status = %d, want 410", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Scan limit reached") {
		t.Fatalf("unexpected 410 body:\n%s", w.Body.String())
	}
}

func TestScanExhaustedWithFallback(t *testing.T) {
	expired := "expired.example.com"
	c := newController(t, map[string]*qrcode.Record{
		"spent2": {
			ID:          5,
			ShortCode:   "spent2",
			OriginalURL: "https://example.com",
			ScanCount:   100,
			ScanLimit:   i64(100),
			ExpiredURL:  &expired,
		},
	})

	w := scan(c, "spent2")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "url=https://expired.example.com") {
		t.Fatalf("expired fallback not served:\n%s", w.Body.String())
	}
}
