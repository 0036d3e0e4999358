// internal/qrcode/repository.go
//
// Query helpers for QR-code records and their rule lists.
//
// Context
// -------
// The QRLink data model lives in four tables:
//
//	qr_code    (id PK, public_id, owner_id, short_code UNIQUE, …)
//	time_rule  (id PK, qr_code_id FK, start_time, end_time, url, label, position)
//	geo_rule   (id PK, qr_code_id FK, lat, lon, radius_km, url, label)
//	scan       (id PK, qr_code_id FK, device, browser, …)  — see internal/analytics
//
// The redirect path needs one fast answer — "give me the record for this
// short code, rules included" — and one atomic side effect — "count this
// scan".  The management API needs plain CRUD.  These helpers accept a
// *sqlx.DB and perform simple parameterised queries; callers may wrap
// ByShortCode in the hot-record cache (cache.go).
//
// Notes
// -----
// • Scan counting is a single `scan_count = scan_count + 1` UPDATE, never a
//   read-modify-write, so concurrent scans cannot undercount.
// • Soft-deleted rows are invisible to every helper here.
// • Oxford commas, two spaces after periods.
package qrcode

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a short code has no live record.
var ErrNotFound = errors.New("qrcode: not found")

/*──────────────────────────── lookups ──────────────────────────────────────*/

// ByShortCode fetches the live record for code, time rules in insertion
// order and geo rules attached.  Rows that are soft-deleted do not match.
func ByShortCode(ctx context.Context, db *sqlx.DB, code string) (*Record, error) {
	const q = `
        SELECT id, public_id, owner_id, short_code, original_url,
               scan_count, scan_limit, expired_url,
               branding_enabled, branding_style, branding_duration_sec,
               custom_branding_text,
               deleted_at, created_at, updated_at
        FROM   qr_code
        WHERE  short_code = ?
          AND  deleted_at IS NULL
        LIMIT  1`

	var rec Record
	if err := db.GetContext(ctx, &rec, q, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("qrcode by short code: %w", err)
	}

	if err := loadRules(ctx, db, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// loadRules fills rec.TimeRules (ordered by position) and rec.GeoRules.
func loadRules(ctx context.Context, db *sqlx.DB, rec *Record) error {
	const tq = `
        SELECT id, qr_code_id, start_time, end_time, url, label, position
        FROM   time_rule
        WHERE  qr_code_id = ?
        ORDER  BY position ASC`
	if err := db.SelectContext(ctx, &rec.TimeRules, tq, rec.ID); err != nil {
		return fmt.Errorf("qrcode time rules: %w", err)
	}

	const gq = `
        SELECT id, qr_code_id, lat, lon, radius_km, url, label
        FROM   geo_rule
        WHERE  qr_code_id = ?`
	if err := db.SelectContext(ctx, &rec.GeoRules, gq, rec.ID); err != nil {
		return fmt.Errorf("qrcode geo rules: %w", err)
	}
	return nil
}

/*──────────────────────────── scan counting ────────────────────────────────*/

// IncrementScanCount counts one tracked scan.  The increment happens inside
// the database so concurrent scans of the same code never undercount.
func IncrementScanCount(ctx context.Context, db *sqlx.DB, id uint64) error {
	const q = `UPDATE qr_code SET scan_count = scan_count + 1 WHERE id = ?`
	if _, err := db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("qrcode increment scan count: %w", err)
	}
	return nil
}

/*──────────────────────────── mutations ────────────────────────────────────*/

// Create inserts a new record and returns its database ID.  ShortCode
// uniqueness is enforced by the table constraint; callers retry with a
// fresh code on duplicates.
func Create(ctx context.Context, db *sqlx.DB, rec *Record) (uint64, error) {
	const q = `
        INSERT INTO qr_code
               (public_id, owner_id, short_code, original_url, scan_limit,
                expired_url, branding_enabled, branding_style,
                branding_duration_sec, custom_branding_text)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := db.ExecContext(ctx, q,
		rec.PublicID, rec.OwnerID, rec.ShortCode, rec.OriginalURL,
		rec.ScanLimit, rec.ExpiredURL, rec.BrandingEnabled,
		rec.BrandingStyle, rec.BrandingDurationSec, rec.CustomBrandingText)
	if err != nil {
		return 0, fmt.Errorf("qrcode create: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("qrcode create id: %w", err)
	}
	return uint64(id), nil
}

// AddTimeRule appends a time rule after the current last position, keeping
// the first-match-wins order stable across inserts.
func AddTimeRule(ctx context.Context, db *sqlx.DB, r *TimeRule) error {
	const q = `
        INSERT INTO time_rule (qr_code_id, start_time, end_time, url, label, position)
        SELECT ?, ?, ?, ?, ?, COALESCE(MAX(position), -1) + 1
        FROM   time_rule
        WHERE  qr_code_id = ?`
	if _, err := db.ExecContext(ctx, q,
		r.QRCodeID, r.Start, r.End, r.URL, r.Label, r.QRCodeID); err != nil {
		return fmt.Errorf("qrcode add time rule: %w", err)
	}
	return nil
}

// AddGeoRule inserts a geofence rule.  Position does not matter; matching
// is by smallest radius.
func AddGeoRule(ctx context.Context, db *sqlx.DB, r *GeoRule) error {
	const q = `
        INSERT INTO geo_rule (qr_code_id, lat, lon, radius_km, url, label)
        VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := db.ExecContext(ctx, q,
		r.QRCodeID, r.Lat, r.Lon, r.RadiusKm, r.URL, r.Label); err != nil {
		return fmt.Errorf("qrcode add geo rule: %w", err)
	}
	return nil
}

// RemoveTimeRule deletes one time rule owned by the given code.
func RemoveTimeRule(ctx context.Context, db *sqlx.DB, codeID, ruleID uint64) error {
	const q = `DELETE FROM time_rule WHERE id = ? AND qr_code_id = ?`
	if _, err := db.ExecContext(ctx, q, ruleID, codeID); err != nil {
		return fmt.Errorf("qrcode remove time rule: %w", err)
	}
	return nil
}

// RemoveGeoRule deletes one geo rule owned by the given code.
func RemoveGeoRule(ctx context.Context, db *sqlx.DB, codeID, ruleID uint64) error {
	const q = `DELETE FROM geo_rule WHERE id = ? AND qr_code_id = ?`
	if _, err := db.ExecContext(ctx, q, ruleID, codeID); err != nil {
		return fmt.Errorf("qrcode remove geo rule: %w", err)
	}
	return nil
}

// SetScanLimit updates the scan cap and its expired-URL fallback.  Nil
// limit clears the cap entirely.
func SetScanLimit(ctx context.Context, db *sqlx.DB, codeID uint64, limit *int64, expiredURL *string) error {
	const q = `UPDATE qr_code SET scan_limit = ?, expired_url = ? WHERE id = ? AND deleted_at IS NULL`
	if _, err := db.ExecContext(ctx, q, limit, expiredURL, codeID); err != nil {
		return fmt.Errorf("qrcode set scan limit: %w", err)
	}
	return nil
}

// SoftDelete stamps deleted_at; the row stops resolving immediately but
// stays for analytics history.
func SoftDelete(ctx context.Context, db *sqlx.DB, codeID uint64) error {
	const q = `UPDATE qr_code SET deleted_at = NOW() WHERE id = ? AND deleted_at IS NULL`
	if _, err := db.ExecContext(ctx, q, codeID); err != nil {
		return fmt.Errorf("qrcode soft delete: %w", err)
	}
	return nil
}
