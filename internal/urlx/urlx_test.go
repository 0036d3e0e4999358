package urlx

import "testing"

func TestEnsureScheme(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"example.com", "https://example.com"},
		{"example.com/path?q=1", "https://example.com/path?q=1"},
		{"https://example.com", "https://example.com"},
		{"http://example.com", "http://example.com"},
		{"ftp://example.com", "ftp://example.com"},
		// A URL embedded in the query is not the destination's scheme.
		{"example.com/r?u=https://target.example.org", "https://example.com/r?u=https://target.example.org"},
		{"", ""},
	}
	for _, c := range cases {
		if got := EnsureScheme(c.in); got != c.want {
			t.Errorf("EnsureScheme(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParse(t *testing.T) {
	u, err := Parse("example.com/offer")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if u.Scheme != "https" || u.Host != "example.com" || u.Path != "/offer" {
		t.Fatalf("unexpected parse result: %+v", u)
	}

	u, err = Parse("example.com/r?u=https://target.example.org")
	if err != nil {
		t.Fatalf("Parse with query-embedded URL: %v", err)
	}
	if u.Host != "example.com" {
		t.Fatalf("host = %q, want example.com", u.Host)
	}

	if _, err := Parse("http://%zz"); err == nil {
		t.Fatal("expected error for malformed URL")
	}
	if _, err := Parse(""); err == nil {
		t.Fatal("expected error for empty input")
	}
}
