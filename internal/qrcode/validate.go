// internal/qrcode/validate.go
//
// Creation-time validation for rules.
//
// Context
// -------
// Evaluators assume clean input: coordinates in range, positive radii,
// and well-formed "HH:MM" strings.  That assumption holds because every
// write path funnels through these checks — bad rules are rejected with
// a field-level error at creation time, never detected at scan time.
//
// The `hhmm` rule is registered once at package init; it accepts 24-hour
// wall-clock strings ("00:00" … "23:59").

package qrcode

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var v = validator.New()

var hhmmRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

func init() {
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return hhmmRe.MatchString(fl.Field().String())
	})
}

//
// Input shapes
//

// TimeRuleInput is what the management API accepts for a new time rule.
// Start and End must already be normalized to UTC by the caller; a rule
// with Start > End spans midnight and is valid.
type TimeRuleInput struct {
	Start string `json:"start_time" validate:"required,hhmm"`
	End   string `json:"end_time"   validate:"required,hhmm"`
	URL   string `json:"url"        validate:"required,max=2048"`
	Label string `json:"label"      validate:"max=120"`
}

// GeoRuleInput is what the management API accepts for a new geofence.
type GeoRuleInput struct {
	Lat      float64 `json:"lat"       validate:"min=-90,max=90"`
	Lon      float64 `json:"lon"       validate:"min=-180,max=180"`
	RadiusKm float64 `json:"radius_km" validate:"required,gt=0"`
	URL      string  `json:"url"       validate:"required,max=2048"`
	Label    string  `json:"label"     validate:"max=120"`
}

// CreateInput is what the management API accepts for a new QR code.
type CreateInput struct {
	OriginalURL string `json:"original_url" validate:"required,max=2048"`
	ShortCode   string `json:"short_code"   validate:"omitempty,min=4,max=24,alphanum"`

	ScanLimit  *int64  `json:"scan_limit"  validate:"omitempty,gt=0"`
	ExpiredURL *string `json:"expired_url" validate:"omitempty,max=2048"`

	BrandingEnabled     bool   `json:"branding_enabled"`
	BrandingStyle       string `json:"branding_style"        validate:"omitempty,oneof=light dark accent"`
	BrandingDurationSec int    `json:"branding_duration_sec" validate:"omitempty,gte=1,lte=30"`
	CustomBrandingText  string `json:"custom_branding_text"  validate:"max=200"`
}

//
// Public API
//

// ValidateTimeRule returns the first field error, or nil.
func ValidateTimeRule(in *TimeRuleInput) error { return v.Struct(in) }

// ValidateGeoRule returns the first field error, or nil.
func ValidateGeoRule(in *GeoRuleInput) error { return v.Struct(in) }

// ValidateCreate returns the first field error, or nil.
func ValidateCreate(in *CreateInput) error { return v.Struct(in) }
