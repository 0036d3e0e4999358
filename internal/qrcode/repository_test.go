// internal/qrcode/repository_test.go
//
// Unit-tests for the record repository using sqlmock.
//
// Run: go test ./internal/qrcode -v

package qrcode

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	return sqlx.NewDb(raw, "sqlmock"), mock
}

func recordColumns() []string {
	return []string{
		"id", "public_id", "owner_id", "short_code", "original_url",
		"scan_count", "scan_limit", "expired_url",
		"branding_enabled", "branding_style", "branding_duration_sec",
		"custom_branding_text", "deleted_at", "created_at", "updated_at",
	}
}

func TestByShortCode(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, public_id, owner_id, short_code, original_url, scan_count, scan_limit, expired_url, branding_enabled, branding_style, branding_duration_sec, custom_branding_text, deleted_at, created_at, updated_at FROM qr_code WHERE short_code = ? AND deleted_at IS NULL LIMIT 1`,
	)).
		WithArgs("abc123").
		WillReturnRows(sqlmock.NewRows(recordColumns()).
			AddRow(7, "pub-7", 42, "abc123", "https://example.com",
				3, nil, nil, false, "", 0, "", nil, now, now))

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, qr_code_id, start_time, end_time, url, label, position FROM time_rule WHERE qr_code_id = ? ORDER BY position ASC`,
	)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "qr_code_id", "start_time", "end_time", "url", "label", "position",
		}).
			AddRow(1, 7, "09:00", "17:00", "https://day.example.com", "office hours", 0).
			AddRow(2, 7, "21:00", "02:00", "https://night.example.com", "", 1))

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, qr_code_id, lat, lon, radius_km, url, label FROM geo_rule WHERE qr_code_id = ?`,
	)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "qr_code_id", "lat", "lon", "radius_km", "url", "label",
		}))

	rec, err := ByShortCode(context.Background(), db, "abc123")
	if err != nil {
		t.Fatalf("ByShortCode error: %v", err)
	}
	if rec.ID != 7 || rec.OriginalURL != "https://example.com" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if len(rec.TimeRules) != 2 || rec.TimeRules[0].Start != "09:00" {
		t.Fatalf("time rules wrong or out of order: %+v", rec.TimeRules)
	}
	if len(rec.GeoRules) != 0 {
		t.Fatalf("unexpected geo rules: %+v", rec.GeoRules)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestByShortCodeNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT .+ FROM qr_code").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(recordColumns()))

	if _, err := ByShortCode(context.Background(), db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestIncrementScanCountIsAtomic(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	// One in-database increment, never a read-modify-write pair.
	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE qr_code SET scan_count = scan_count + 1 WHERE id = ?`,
	)).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := IncrementScanCount(context.Background(), db, 7); err != nil {
		t.Fatalf("IncrementScanCount error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestSoftDeleteScopesLiveRows(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE qr_code SET deleted_at = NOW() WHERE id = ? AND deleted_at IS NULL`,
	)).
		WithArgs(uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := SoftDelete(context.Background(), db, 9); err != nil {
		t.Fatalf("SoftDelete error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}
