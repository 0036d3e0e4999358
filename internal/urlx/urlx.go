// Package urlx holds tiny URL helpers shared by the resolver and the
// security classifier.  Destinations are stored the way owners typed them,
// so a bare domain like "example.com" is legal input everywhere; browsers
// are not, hence EnsureScheme runs before any redirect is issued.
package urlx

import (
	"net/url"
	"regexp"
)

// schemeRe matches a leading RFC 3986 scheme.  Anchored: a URL embedded in
// the query of a schemeless destination ("example.com/r?u=https://…") must
// not count as the destination's own scheme.
var schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// EnsureScheme prepends "https://" when raw has no scheme.  Existing
// schemes, including plain http, pass through untouched.
func EnsureScheme(raw string) string {
	if raw == "" {
		return raw
	}
	if schemeRe.MatchString(raw) {
		return raw
	}
	return "https://" + raw
}

// Parse normalizes raw with EnsureScheme and parses it.  An error means
// the value cannot be turned into a redirect target at all.
func Parse(raw string) (*url.URL, error) {
	u, err := url.Parse(EnsureScheme(raw))
	if err != nil {
		return nil, err
	}
	if u.Host == "" {
		return nil, &url.Error{Op: "parse", URL: raw, Err: url.InvalidHostError("")}
	}
	return u, nil
}
