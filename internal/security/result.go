package security

// Reputation buckets a hostname into a coarse category.
type Reputation string

const (
	ReputationGood       Reputation = "good"
	ReputationSuspicious Reputation = "suspicious"
	ReputationBad        Reputation = "bad"
)

// Details carries the structured sub-scores behind a verdict.
type Details struct {
	ValidURL     bool       `json:"valid_url"`
	Reachable    bool       `json:"reachable"`
	TLS          bool       `json:"tls"`
	SafeBrowsing bool       `json:"safe_browsing"`
	Reputation   Reputation `json:"reputation"`
}

// Result is the classifier's verdict for one destination URL.
//
// IsSafe is the binary gate for an automatic redirect.  Threats are hard
// negative signals — any entry forces IsSafe false.  Warnings are soft;
// they lower the score but never flip IsSafe on their own.  The final
// authoritative formula is `score >= 70 && len(threats) == 0`; paths that
// short-circuit earlier always satisfy it by construction.
type Result struct {
	IsSafe   bool     `json:"is_safe"`
	Score    int      `json:"score"`
	Threats  []string `json:"threats"`
	Warnings []string `json:"warnings"`
	Details  Details  `json:"details"`
	URL      string   `json:"url"` // normalized URL the verdict applies to
}
