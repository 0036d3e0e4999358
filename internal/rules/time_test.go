// internal/rules/time_test.go
//
// Unit-tests for the time-of-day evaluator.
//
// Run: go test ./internal/rules -v

package rules

import (
	"testing"

	"github.com/yanizio/qrlink/internal/qrcode"
)

func tr(start, end, url string) qrcode.TimeRule {
	return qrcode.TimeRule{Start: start, End: end, URL: url}
}

func TestMatchTimeNormalWindow(t *testing.T) {
	rules := []qrcode.TimeRule{tr("09:00", "17:00", "https://day.example.com")}

	cases := []struct {
		now   string
		match bool
	}{
		{"08:59", false},
		{"09:00", true},  // start is inclusive
		{"12:30", true},
		{"16:59", true},
		{"17:00", false}, // end is exclusive
		{"23:00", false},
	}
	for _, c := range cases {
		_, ok := MatchTime(rules, c.now)
		if ok != c.match {
			t.Errorf("now=%s: match = %v, want %v", c.now, ok, c.match)
		}
	}
}

func TestMatchTimeMidnightSpan(t *testing.T) {
	rules := []qrcode.TimeRule{tr("21:00", "02:00", "https://night.example.com")}

	cases := []struct {
		now   string
		match bool
	}{
		{"23:30", true},
		{"21:00", true},
		{"00:00", true},
		{"01:59", true},
		{"02:00", false}, // end exclusive on the far side too
		{"10:00", false},
		{"20:59", false},
	}
	for _, c := range cases {
		_, ok := MatchTime(rules, c.now)
		if ok != c.match {
			t.Errorf("now=%s: match = %v, want %v", c.now, ok, c.match)
		}
	}
}

func TestMatchTimeFirstMatchWins(t *testing.T) {
	rules := []qrcode.TimeRule{
		tr("09:00", "17:00", "https://first.example.com"),
		tr("08:00", "18:00", "https://second.example.com"),
	}

	url, ok := MatchTime(rules, "12:00")
	if !ok || url != "https://first.example.com" {
		t.Fatalf("got (%q, %v), want first rule's URL", url, ok)
	}

	// Outside the first window but inside the second.
	url, ok = MatchTime(rules, "08:30")
	if !ok || url != "https://second.example.com" {
		t.Fatalf("got (%q, %v), want second rule's URL", url, ok)
	}
}

func TestMatchTimeNoRules(t *testing.T) {
	if url, ok := MatchTime(nil, "12:00"); ok || url != "" {
		t.Fatalf("empty rule list matched: (%q, %v)", url, ok)
	}
}
