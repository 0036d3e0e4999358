// internal/config/model.go
//
// Typed configuration model for QRLink.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                          – dotenv values,
//   • `conf/global.yaml`                       – primary static file,
//   • `QRLINK_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling, so the model never
// stores Vault URIs—only plain strings.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`—Koanf ignores `yaml` tags
//     unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
}

//
// Database section
//

// Database holds the DSN template and its secret.
//
// The *template* (`DSN`) is kept in YAML so operators can tweak host,
// port, or flags without touching Vault.  The *secret* portion
// (`Password`) is stored in Vault and injected at runtime, keeping
// credentials out of flat files and git history.
type Database struct {
	DSN      string `koanf:"dsn"      validate:"required"`
	Password string `koanf:"password" validate:"required"`
}

//
// GeoIP section
//

// GeoIP points at the MaxMind City database used to turn a visitor IP
// into coordinates for geofence matching.  An empty path disables geo
// resolution; geo rules then fall through to time rules.
type GeoIP struct {
	DBPath string `koanf:"db_path"`
}

//
// Security section
//

// Security configures the URL classifier.  RemoteEndpoint is the optional
// classification service; when unreachable the local heuristic runs
// instead.  ProbeTimeout bounds the destination reachability HEAD probe.
type Security struct {
	RemoteEndpoint string        `koanf:"remote_endpoint"`
	RemoteToken    string        `koanf:"remote_token"`
	ProbeTimeout   time.Duration `koanf:"probe_timeout"`
}

//
// Redirect section
//

// Redirect tunes the user-facing scan flow: how long the verification
// page is shown before navigation fires, and the cap applied to paid
// branding interstitials.
type Redirect struct {
	VerifyDelay    time.Duration `koanf:"verify_delay"`
	MaxBrandingSec int           `koanf:"max_branding_sec"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime—never set in YAML or env.  The loader
// discovers `Root` (repo root or QRLINK_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root string // QRLINK_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	GeoIP    GeoIP    `koanf:"geoip"`
	Security Security `koanf:"security"`
	Redirect Redirect `koanf:"redirect"`
	Paths    Paths    `koanf:"-"` // not loaded from config files
}
