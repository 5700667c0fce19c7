package probes

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"
)

// HTTPChecker probes services over HTTP.
type HTTPChecker struct {
	client *http.Client
}

// NewHTTPChecker builds a checker with the given per-request timeout.
// Certificate verification is skipped: right after first boot the
// platform serves a staging or self-signed certificate until the ACME
// issuer has done its work, and the probe's job is reachability, not
// chain validation.
func NewHTTPChecker(timeout time.Duration) *HTTPChecker {
	return &HTTPChecker{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, // #nosec G402
			},
		},
	}
}

// Check probes url and classifies the service. Any HTTP response below 500
// counts as serving: login redirects and auth challenges are fine, the
// process answered.
func (h *HTTPChecker) Check(ctx context.Context, service, url string) Result {
	if url == "" {
		return Result{
			Service: service,
			Status:  StatusDegraded,
			Reason:  "no URL derived; base domain is empty",
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{Service: service, Status: StatusDown, Reason: err.Error()}
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return Result{Service: service, Status: StatusDown, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return Result{
			Service: service,
			Status:  StatusDown,
			Reason:  fmt.Sprintf("HTTP %d", resp.StatusCode),
		}
	}
	return Result{
		Service: service,
		Status:  StatusOK,
		Detail:  fmt.Sprintf("HTTP %d", resp.StatusCode),
	}
}
