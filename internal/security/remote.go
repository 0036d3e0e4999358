// internal/security/remote.go
//
// Client for the external URL-classification service.
//
// Context
// -------
// Deployments can point QRLink at a classification service that carries
// full threat feeds.  The wire contract is one POST with `{"url": …}`
// answering a Result JSON (result.go).  The service is an optimisation,
// not a dependency: any transport or decode failure degrades to the local
// heuristic in classifier.go, and the visitor still gets a verdict.  An
// outage of the classification infrastructure must never block every
// redirect behind it.
package security

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Service classifies URLs remote-first with a local fallback.  Safe for
// concurrent use.
type Service struct {
	endpoint string // empty means local-only
	token    string
	client   *http.Client
	local    *Checker
}

// NewService wires the remote endpoint (may be empty) on top of the local
// checker.
func NewService(endpoint, token string, local *Checker) *Service {
	return &Service{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: 10 * time.Second},
		local:    local,
	}
}

// Check returns a verdict for raw.  Remote result when the service
// answers, local heuristic otherwise.  Never returns an error.
func (s *Service) Check(ctx context.Context, raw string) Result {
	if s.endpoint == "" {
		return s.local.Check(ctx, raw)
	}

	res, err := s.checkRemote(ctx, raw)
	if err != nil {
		zap.S().Warnw("remote classification failed, using local heuristic",
			"url", raw, "err", err)
		return s.local.Check(ctx, raw)
	}
	return *res
}

// checkRemote performs the POST round trip.
func (s *Service) checkRemote(ctx context.Context, raw string) (*Result, error) {
	body, err := json.Marshal(map[string]string{"url": raw})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classification service returned %s", resp.Status)
	}

	var out Result
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.Threats == nil {
		out.Threats = []string{}
	}
	if out.Warnings == nil {
		out.Warnings = []string{}
	}
	return &out, nil
}
