package qrcode

import "time"

// PlanTier is the acting user's entitlement level.  It is passed
// explicitly into every operation that gates a paid feature; there is no
// ambient "force pro" flag anywhere in the codebase.
type PlanTier string

const (
	TierFree PlanTier = "free"
	TierPro  PlanTier = "pro"
)

// Record mirrors one row in the persistent `qr_code` table plus its rule
// lists.  The operational state is captured by one nullable timestamp:
//
//   - DeletedAt – code was soft-deleted by its owner; the repository never
//     serves a deleted row, so a scan of its short code is a NotFound.
//
// ShortCode is immutable once created.  ScanCount is only ever touched by
// the atomic IncrementScanCount; rule evaluation is a pure read over the
// lists below.
type Record struct {
	ID          uint64     `db:"id"`
	PublicID    string     `db:"public_id"`
	OwnerID     uint64     `db:"owner_id"`
	ShortCode   string     `db:"short_code"`
	OriginalURL string     `db:"original_url"`
	ScanCount   int64      `db:"scan_count"`
	ScanLimit   *int64     `db:"scan_limit"`
	ExpiredURL  *string    `db:"expired_url"`
	DeletedAt   *time.Time `db:"deleted_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`

	// Branding block — presentation-only.  The redirect controller reads
	// it to time-box the branded interstitial; resolution never looks at
	// it.
	BrandingEnabled     bool   `db:"branding_enabled"`
	BrandingStyle       string `db:"branding_style"`
	BrandingDurationSec int    `db:"branding_duration_sec"`
	CustomBrandingText  string `db:"custom_branding_text"`

	// TimeRules keeps insertion order; the evaluator's first-match-wins
	// policy depends on it.  GeoRules order carries no meaning because
	// matching is by smallest radius.
	TimeRules []TimeRule `db:"-"`
	GeoRules  []GeoRule  `db:"-"`
}

// TimeRule is a UTC wall-clock window with a destination.  Start and End
// are "HH:MM" 24-hour strings, normalized to UTC when the rule is created;
// the evaluator never converts timezones, it only compares strings.  A
// rule with Start > End spans midnight — valid, not an error.
type TimeRule struct {
	ID       uint64 `db:"id"`
	QRCodeID uint64 `db:"qr_code_id"`
	Start    string `db:"start_time"`
	End      string `db:"end_time"`
	URL      string `db:"url"`
	Label    string `db:"label"`
	Position int    `db:"position"`
}

// GeoRule is a circular geofence with a destination.  Lat/Lon are the
// circle center in decimal degrees; RadiusKm must be positive.  Range
// checks happen at creation time (see validate.go), never at evaluation.
type GeoRule struct {
	ID       uint64  `db:"id"`
	QRCodeID uint64  `db:"qr_code_id"`
	Lat      float64 `db:"lat"`
	Lon      float64 `db:"lon"`
	RadiusKm float64 `db:"radius_km"`
	URL      string  `db:"url"`
	Label    string  `db:"label"`
}
