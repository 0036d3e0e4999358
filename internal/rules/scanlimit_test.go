// internal/rules/scanlimit_test.go
//
// Unit-tests for the scan-limit gate.
//
// Run: go test ./internal/rules -v

package rules

import "testing"

func i64(v int64) *int64   { return &v }
func str(s string) *string { return &s }

func TestCheckScanLimitBoundary(t *testing.T) {
	// The boundary is inclusive: count == limit is exhausted.
	if got := CheckScanLimit(100, i64(100), str("fallback.example.com")); !got.Exhausted {
		t.Fatal("count == limit must be exhausted")
	}
	if got := CheckScanLimit(99, i64(100), str("fallback.example.com")); got.Exhausted {
		t.Fatal("count < limit must not be exhausted")
	}
	if got := CheckScanLimit(150, i64(100), nil); !got.Exhausted {
		t.Fatal("count > limit must be exhausted")
	}
}

func TestCheckScanLimitUnlimited(t *testing.T) {
	if got := CheckScanLimit(1_000_000, nil, nil); got.Exhausted {
		t.Fatal("nil limit means unlimited")
	}
}

func TestCheckScanLimitExpiredURLNormalized(t *testing.T) {
	got := CheckScanLimit(10, i64(10), str("campaign-over.example.com"))
	if got.URL != "https://campaign-over.example.com" {
		t.Fatalf("URL = %q, want https:// prepended", got.URL)
	}

	// Explicit scheme passes through untouched.
	got = CheckScanLimit(10, i64(10), str("http://plain.example.com"))
	if got.URL != "http://plain.example.com" {
		t.Fatalf("URL = %q, want scheme preserved", got.URL)
	}
}

func TestCheckScanLimitNoFallback(t *testing.T) {
	got := CheckScanLimit(10, i64(10), nil)
	if !got.Exhausted || got.URL != "" {
		t.Fatalf("got %+v, want exhausted with empty URL", got)
	}

	// Empty string counts as absent.
	got = CheckScanLimit(10, i64(10), str(""))
	if !got.Exhausted || got.URL != "" {
		t.Fatalf("got %+v, want exhausted with empty URL", got)
	}
}
