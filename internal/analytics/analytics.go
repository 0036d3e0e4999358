// internal/analytics/analytics.go
//
// Scan analytics: model, repository, and the fire-and-forget recorder.
//
/*
Context
--------
Every served redirect leaves one row in `scan`: which code was scanned,
what kind of device and browser scanned it, where the visitor came from,
and which resolution stage picked the destination.  The write is strictly
decoupled from the redirect — Record schedules a detached goroutine with
its own timeout context, and its only failure channel is the log.  A
broken analytics table can never delay, fail, or alter a redirect.

The scan-count increment rides the same detached path because it shares
the property "must not block the redirect"; the increment itself is a
single atomic UPDATE inside internal/qrcode.

Notes
-----
  • Bot scans are recorded with Device = "Bot" rather than dropped, so
    owners can see crawler noise instead of wondering about gaps.
  • Oxford commas, two spaces after periods.
*/
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/qrlink/internal/qrcode"
)

// Scan mirrors one row in the `scan` table.
type Scan struct {
	ID         uint64    `db:"id"`
	QRCodeID   uint64    `db:"qr_code_id"`
	Device     string    `db:"device"`
	Browser    string    `db:"browser"`
	OS         string    `db:"os"`
	Referer    string    `db:"referer"`
	CountryISO string    `db:"country_iso"`
	Stage      string    `db:"stage"`
	ScannedAt  time.Time `db:"scanned_at"`
}

// writeTimeout bounds the detached insert so a wedged pool cannot leak
// goroutines forever.
const writeTimeout = 10 * time.Second

// Recorder writes scan rows and bumps scan counters off the request path.
type Recorder struct {
	db *sqlx.DB
}

// NewRecorder builds a Recorder on the shared pool.
func NewRecorder(db *sqlx.DB) *Recorder {
	return &Recorder{db: db}
}

// Record schedules the analytics insert and the atomic scan-count
// increment, then returns immediately.  Failures are logged, never
// surfaced.
func (r *Recorder) Record(s Scan) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		if err := qrcode.IncrementScanCount(ctx, r.db, s.QRCodeID); err != nil {
			zap.S().Errorw("scan count increment failed", "qr_code_id", s.QRCodeID, "err", err)
		}
		if err := insert(ctx, r.db, &s); err != nil {
			zap.S().Errorw("scan record failed", "qr_code_id", s.QRCodeID, "err", err)
		}
	}()
}

// insert writes one scan row.
func insert(ctx context.Context, db *sqlx.DB, s *Scan) error {
	const q = `
        INSERT INTO scan
               (qr_code_id, device, browser, os, referer, country_iso, stage, scanned_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := db.ExecContext(ctx, q,
		s.QRCodeID, s.Device, s.Browser, s.OS, s.Referer,
		s.CountryISO, s.Stage, s.ScannedAt); err != nil {
		return fmt.Errorf("analytics insert: %w", err)
	}
	return nil
}

/*──────────────────────────── owner reporting ──────────────────────────────*/

// Summary aggregates scans for one QR code over a trailing window.
type Summary struct {
	TotalScans  int64            `json:"total_scans"`
	ByDevice    map[string]int64 `json:"by_device"`
	ByCountry   map[string]int64 `json:"by_country"`
	ByStage     map[string]int64 `json:"by_stage"`
	LastScanned *time.Time       `json:"last_scanned"`
}

// Summarize builds a Summary for codeID over the last `days` days.
func Summarize(ctx context.Context, db *sqlx.DB, codeID uint64, days int) (*Summary, error) {
	const q = `
        SELECT device, browser, os, referer, country_iso, stage, scanned_at
        FROM   scan
        WHERE  qr_code_id = ?
          AND  scanned_at >= DATE_SUB(NOW(), INTERVAL ? DAY)`

	var rows []Scan
	if err := db.SelectContext(ctx, &rows, q, codeID, days); err != nil {
		return nil, fmt.Errorf("analytics summarize: %w", err)
	}

	sum := &Summary{
		ByDevice:  map[string]int64{},
		ByCountry: map[string]int64{},
		ByStage:   map[string]int64{},
	}
	for i := range rows {
		s := &rows[i]
		sum.TotalScans++
		sum.ByDevice[s.Device]++
		if s.CountryISO != "" {
			sum.ByCountry[s.CountryISO]++
		}
		sum.ByStage[s.Stage]++
		if sum.LastScanned == nil || s.ScannedAt.After(*sum.LastScanned) {
			t := s.ScannedAt
			sum.LastScanned = &t
		}
	}
	return sum, nil
}
