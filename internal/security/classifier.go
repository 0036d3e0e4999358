// internal/security/classifier.go
//
// Heuristic URL safety classifier.
//
/*
Context
--------
Every resolved destination is classified before the visitor's browser is
pointed at it.  The verdict is deterministic for a given URL: scoring
starts at a neutral 85 and each check adjusts it, with hard threats
forcing the redirect to be blocked and soft warnings only lowering the
score.  The single network-dependent step — a HEAD reachability probe —
is a soft signal with a bounded timeout, so a dead destination slows
nothing and blocks nothing by itself.

Check order matters and is deliberate:

  1. Parse (schemeless input gets https://).  Unparseable ⇒ score 0, done.
  2. Bare IPv4 host            ⇒ threat, -40, reputation bad.
  3. Malicious keyword in host ⇒ threat, score 0, reputation bad.
  4. Known link shortener      ⇒ warning, -5, reputation suspicious.
  5. Missing TLS               ⇒ warning, -10.
  6. Allow-listed domain       ⇒ score reset to 95, warnings cleared.
     Running after the TLS check means the override also wipes the TLS
     warning; a well-known domain is trusted as typed.  Threats are never
     cleared.
  7. Optional HEAD probe       ⇒ non-2xx or timeout is a warning, -5.
  8. Authoritative recompute: IsSafe = score >= 70 && no threats.

Verdicts for threat-free URLs are cached in a small LRU keyed by the
normalized URL, which also pins down idempotence: the same static URL
yields the same verdict for the cache's lifetime.

Notes
-----
  • The keyword and domain lists are curated, not exhaustive; the remote
    classification service (remote.go) carries the full feeds.
  • Oxford commas, two spaces after periods.
*/
package security

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yanizio/qrlink/internal/cache"
	"github.com/yanizio/qrlink/internal/urlx"
)

const (
	baselineScore  = 85
	allowlistScore = 95
	safeThreshold  = 70
)

/*──────────────────────────── curated lists ────────────────────────────────*/

// maliciousKeywords flag a hostname outright.  Grounded on the patterns
// that show up in abuse reports against redirect services.
var maliciousKeywords = []string{
	"phishing",
	"malware",
	"virus",
	"account-verify",
	"confirm-account",
	"secure-login",
	"verify-identity",
	"suspended-account",
	"free-bitcoin",
	"prize-winner",
}

// shortenerDomains earn a soft warning: chaining through a second
// shortener hides the real destination from our own classification.
var shortenerDomains = map[string]struct{}{
	"bit.ly":      {},
	"tinyurl.com": {},
	"t.co":        {},
	"goo.gl":      {},
	"is.gd":       {},
	"ow.ly":       {},
	"buff.ly":     {},
	"rebrand.ly":  {},
}

// allowlistDomains are well-known destinations trusted as typed.  The
// override clears warnings, never threats.
var allowlistDomains = map[string]struct{}{
	"google.com":    {},
	"youtube.com":   {},
	"facebook.com":  {},
	"instagram.com": {},
	"x.com":         {},
	"twitter.com":   {},
	"linkedin.com":  {},
	"wikipedia.org": {},
	"github.com":    {},
	"apple.com":     {},
	"microsoft.com": {},
	"amazon.com":    {},
}

/*──────────────────────────── checker ──────────────────────────────────────*/

// Checker classifies destination URLs.  Safe for concurrent use.
type Checker struct {
	probe *http.Client // nil disables the reachability probe

	mu       sync.Mutex
	verdicts *cache.LRU
}

// NewChecker builds a Checker whose reachability probe is bounded by
// probeTimeout.  probeTimeout <= 0 disables the probe entirely.
func NewChecker(probeTimeout time.Duration) *Checker {
	c := &Checker{verdicts: cache.New(4096)}
	if probeTimeout > 0 {
		c.probe = &http.Client{Timeout: probeTimeout}
	}
	return c
}

// Check classifies raw.  It never returns an error; every failure mode is
// expressed inside the Result.
func (c *Checker) Check(ctx context.Context, raw string) Result {
	u, err := urlx.Parse(raw)
	if err != nil {
		return Result{
			IsSafe:   false,
			Score:    0,
			Threats:  []string{"Invalid URL format"},
			Warnings: []string{},
			Details:  Details{Reputation: ReputationBad},
			URL:      raw,
		}
	}
	normalized := u.String()

	c.mu.Lock()
	if v, ok := c.verdicts.Get(normalized); ok {
		c.mu.Unlock()
		return v.(Result)
	}
	c.mu.Unlock()

	res := Result{
		Score:    baselineScore,
		Threats:  []string{},
		Warnings: []string{},
		Details: Details{
			ValidURL:     true,
			SafeBrowsing: true,
			Reputation:   ReputationGood,
		},
		URL: normalized,
	}

	host := strings.ToLower(u.Hostname())
	domain := registrableDomain(host)

	// 2. Bare IPv4 literal.
	if ip := net.ParseIP(host); ip != nil && ip.To4() != nil {
		res.Threats = append(res.Threats, "Destination is a bare IP address")
		res.Score -= 40
		res.Details.Reputation = ReputationBad
	}

	// 3. Malicious keyword.
	for _, kw := range maliciousKeywords {
		if strings.Contains(host, kw) {
			res.Threats = append(res.Threats, "Hostname matches known-malicious pattern "+kw)
			res.Score = 0
			res.Details.SafeBrowsing = false
			res.Details.Reputation = ReputationBad
			break
		}
	}

	// 4. Link shortener.
	if _, ok := shortenerDomains[domain]; ok {
		res.Warnings = append(res.Warnings, "Destination is a link shortener")
		res.Score -= 5
		if res.Details.Reputation == ReputationGood {
			res.Details.Reputation = ReputationSuspicious
		}
	}

	// 5. Missing TLS.
	res.Details.TLS = u.Scheme == "https"
	if !res.Details.TLS {
		res.Warnings = append(res.Warnings, "Connection is not encrypted (no HTTPS)")
		res.Score -= 10
	}

	// 6. Allow-list override — after TLS on purpose, see header.
	if _, ok := allowlistDomains[domain]; ok && len(res.Threats) == 0 {
		res.Score = allowlistScore
		res.Warnings = res.Warnings[:0]
		res.Details.Reputation = ReputationGood
	}

	// 7. Reachability probe — soft signal only.
	if c.probe != nil && len(res.Threats) == 0 {
		if ok := c.reachable(ctx, normalized); ok {
			res.Details.Reachable = true
		} else {
			res.Warnings = append(res.Warnings, "Destination did not answer a reachability probe")
			res.Score -= 5
		}
	}

	if res.Score < 0 {
		res.Score = 0
	}

	// 8. Authoritative recompute.
	res.IsSafe = res.Score >= safeThreshold && len(res.Threats) == 0

	// Cache only probe-free or threat-free-and-reachable verdicts so a
	// transient probe failure does not stick for the cache's lifetime.
	if c.probe == nil || res.Details.Reachable || len(res.Threats) > 0 {
		c.mu.Lock()
		c.verdicts.Add(normalized, res)
		c.mu.Unlock()
	}

	return res
}

// Neutral is the degraded verdict used when classification infrastructure
// itself is unavailable.  It proceeds with a warning instead of blocking
// every redirect behind a broken checker.
func Neutral(raw string) Result {
	return Result{
		IsSafe:   true,
		Score:    baselineScore,
		Threats:  []string{},
		Warnings: []string{"Security checking degraded; destination not fully verified"},
		Details: Details{
			ValidURL:     true,
			SafeBrowsing: true,
			Reputation:   ReputationGood,
		},
		URL: urlx.EnsureScheme(raw),
	}
}

/*──────────────────────────── helpers ──────────────────────────────────────*/

// reachable issues one HEAD request and treats any 2xx as success.
func (c *Checker) reachable(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	resp, err := c.probe.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// registrableDomain reduces a hostname to its last two labels, which is
// enough for the curated lists above ("www.google.com" → "google.com").
func registrableDomain(host string) string {
	parts := strings.Split(host, ".")
	if len(parts) <= 2 {
		return host
	}
	return strings.Join(parts[len(parts)-2:], ".")
}
