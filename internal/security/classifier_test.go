// internal/security/classifier_test.go
//
// Unit-tests for the URL classifier: local heuristic and remote-first
// service fallback.
//
// Run: go test ./internal/security -v

package security

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"
)

// probeless returns a Checker with the reachability probe disabled so
// verdicts depend on the URL alone.
func probeless() *Checker { return NewChecker(0) }

func TestCheckBareIPIsAlwaysUnsafe(t *testing.T) {
	res := probeless().Check(context.Background(), "http://1.2.3.4/")
	if res.IsSafe {
		t.Fatal("bare-IP destination must never be safe")
	}
	if len(res.Threats) == 0 {
		t.Fatal("bare-IP destination must carry a threat entry")
	}
	if res.Details.Reputation != ReputationBad {
		t.Fatalf("reputation = %q, want bad", res.Details.Reputation)
	}
}

func TestCheckMaliciousKeyword(t *testing.T) {
	res := probeless().Check(context.Background(), "https://login-phishing-site.example.com/")
	if res.IsSafe || res.Score != 0 {
		t.Fatalf("keyword match: safe=%v score=%d, want blocked at 0", res.IsSafe, res.Score)
	}
}

func TestCheckAllowlistOverridesTLSWarning(t *testing.T) {
	// Allow-listed domain without TLS: score resets to 95 and the TLS
	// warning is cleared along with everything else soft.
	res := probeless().Check(context.Background(), "http://google.com/maps")
	if !res.IsSafe {
		t.Fatal("allow-listed domain must be safe")
	}
	if res.Score != 95 {
		t.Fatalf("score = %d, want 95", res.Score)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("warnings = %v, want none after the override", res.Warnings)
	}
}

func TestCheckShortenerWarning(t *testing.T) {
	res := probeless().Check(context.Background(), "https://bit.ly/abc")
	if !res.IsSafe {
		t.Fatal("shortener alone must not block")
	}
	if len(res.Warnings) != 1 || res.Score != 80 {
		t.Fatalf("got warnings=%v score=%d, want one warning at 80", res.Warnings, res.Score)
	}
	if res.Details.Reputation != ReputationSuspicious {
		t.Fatalf("reputation = %q, want suspicious", res.Details.Reputation)
	}
}

func TestCheckMissingTLSWarning(t *testing.T) {
	res := probeless().Check(context.Background(), "http://ordinary.example.com/")
	if !res.IsSafe {
		t.Fatal("plain http alone must not block")
	}
	if res.Score != 75 {
		t.Fatalf("score = %d, want 85-10", res.Score)
	}
	if res.Details.TLS {
		t.Fatal("TLS detail must be false for http")
	}
}

func TestCheckSchemelessInputNormalized(t *testing.T) {
	res := probeless().Check(context.Background(), "ordinary.example.com")
	if res.URL != "https://ordinary.example.com" {
		t.Fatalf("URL = %q, want https:// prepended", res.URL)
	}
	if !res.Details.TLS {
		t.Fatal("schemeless input defaults to https, so TLS holds")
	}
}

func TestCheckInvalidURL(t *testing.T) {
	res := probeless().Check(context.Background(), "http://%zz")
	if res.IsSafe || res.Score != 0 {
		t.Fatalf("invalid URL: safe=%v score=%d, want blocked at 0", res.IsSafe, res.Score)
	}
	if len(res.Threats) != 1 || res.Threats[0] != "Invalid URL format" {
		t.Fatalf("threats = %v", res.Threats)
	}
	// Wire contract: warnings is always an array, never null.
	if res.Warnings == nil {
		t.Fatal("warnings must be non-nil so JSON encodes [] instead of null")
	}
}

func TestCheckIdempotent(t *testing.T) {
	c := probeless()
	first := c.Check(context.Background(), "https://steady.example.com/page")
	second := c.Check(context.Background(), "https://steady.example.com/page")
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("verdicts differ:\n  %+v\n  %+v", first, second)
	}
}

func TestCheckReachabilityProbeSoftSignal(t *testing.T) {
	// A destination answering 404 earns a warning, never a threat.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	// Reach the listener by name so the bare-IP rule stays out of the way.
	target := "http://localhost:" + strings.TrimPrefix(srv.URL, "http://127.0.0.1:")

	res := NewChecker(2 * time.Second).Check(context.Background(), target)
	if len(res.Threats) != 0 {
		t.Fatalf("probe failure must not add threats: %v", res.Threats)
	}
	found := false
	for _, wmsg := range res.Warnings {
		if wmsg == "Destination did not answer a reachability probe" {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing probe warning, got %v", res.Warnings)
	}
}

func TestServiceFallsBackToLocalOnRemoteFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	svc := NewService(srv.URL, "", probeless())
	res := svc.Check(context.Background(), "http://1.2.3.4/")
	if res.IsSafe {
		t.Fatal("local fallback must still block the bare IP")
	}
}

func TestServiceUsesRemoteVerdict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"is_safe":false,"score":5,"threats":["listed by feed"],"warnings":[],` +
			`"details":{"valid_url":true,"reachable":false,"tls":true,"safe_browsing":false,` +
			`"reputation":"bad"},"url":"https://flagged.example.com/"}`))
	}))
	defer srv.Close()

	svc := NewService(srv.URL, "", probeless())
	res := svc.Check(context.Background(), "https://flagged.example.com/")
	if res.IsSafe || res.Score != 5 || len(res.Threats) != 1 {
		t.Fatalf("remote verdict not honored: %+v", res)
	}
}

func TestNeutralVerdict(t *testing.T) {
	res := Neutral("somewhere.example.com")
	if !res.IsSafe || res.Score != 85 || len(res.Warnings) != 1 {
		t.Fatalf("neutral verdict malformed: %+v", res)
	}
}
