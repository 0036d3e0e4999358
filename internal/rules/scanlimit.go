// internal/rules/scanlimit.go
//
// Scan-limit gate.
//
// The gate runs before geo and time rules and overrides them when it
// fires: an exhausted code either redirects to its configured expired URL
// or, with none configured, is a terminal error the resolver surfaces to
// the visitor.  The boundary is inclusive — the scan that brings the
// count up to the limit is the last one served normally.
package rules

import "github.com/yanizio/qrlink/internal/urlx"

// GateResult is the outcome of the scan-limit check.
type GateResult struct {
	Exhausted bool
	// URL is the normalized expired-URL fallback.  Empty when the code is
	// not exhausted, or when it is exhausted with no fallback configured.
	URL string
}

// CheckScanLimit applies the limit.  limit == nil means unlimited.
func CheckScanLimit(scanCount int64, limit *int64, expiredURL *string) GateResult {
	if limit == nil || scanCount < *limit {
		return GateResult{}
	}
	res := GateResult{Exhausted: true}
	if expiredURL != nil && *expiredURL != "" {
		res.URL = urlx.EnsureScheme(*expiredURL)
	}
	return res
}
