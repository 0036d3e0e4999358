// internal/rules/time.go
//
// Time-of-day rule evaluator.
//
// Context
// -------
// Time rules are stored as "HH:MM" strings already normalized to UTC at
// creation time, so matching is plain lexicographic comparison against
// the current UTC wall clock — no timezone math happens here.  Windows
// are half-open: a rule is active from Start inclusive to End exclusive.
// A rule whose Start sorts after its End spans midnight ("21:00"–"02:00")
// and matches the union of [Start, 24:00) and [00:00, End).
//
// Policy: first match in insertion order wins.  Overlapping windows are
// legal; owners order the list to express precedence.
package rules

import "github.com/yanizio/qrlink/internal/qrcode"

// MatchTime returns the destination of the first rule active at nowHHMM,
// or ("", false) when no rule matches.  nowHHMM must be a UTC "HH:MM"
// string; callers inject it so the evaluator stays a pure function.
func MatchTime(rules []qrcode.TimeRule, nowHHMM string) (string, bool) {
	for _, r := range rules {
		if timeRuleActive(r.Start, r.End, nowHHMM) {
			return r.URL, true
		}
	}
	return "", false
}

// timeRuleActive reports whether now falls inside the [start, end) window,
// handling the midnight-spanning case.
func timeRuleActive(start, end, now string) bool {
	if start <= end {
		return start <= now && now < end
	}
	// Spans midnight: active from start until midnight, and from midnight
	// until end.
	return now >= start || now < end
}
