// Package probes implements the post-deployment health checks run by the
// verify stage and the standalone verify command. Each probe produces
// positive evidence that a service is actually serving, not merely that
// its pods report ready.
package probes

import (
	"fmt"
	"strings"
)

// Status classifies one probed service.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

// Result is the outcome of probing one service.
type Result struct {
	Service string
	Status  Status
	Reason  string // empty when OK
	Detail  string // bounded evidence, e.g. bucket count or HTTP status
}

// Report aggregates probe results in their canonical service order.
type Report struct {
	Results []Result
}

// Add appends a result.
func (r *Report) Add(res Result) {
	r.Results = append(r.Results, res)
}

// Failed reports whether any service is down. Degraded services do not
// fail a run; they are surfaced for the operator to act on.
func (r *Report) Failed() bool {
	for _, res := range r.Results {
		if res.Status == StatusDown {
			return true
		}
	}
	return false
}

// Down lists the names of services that are down.
func (r *Report) Down() []string {
	var out []string
	for _, res := range r.Results {
		if res.Status == StatusDown {
			out = append(out, res.Service)
		}
	}
	return out
}

// String renders one line per service.
func (r *Report) String() string {
	var b strings.Builder
	for _, res := range r.Results {
		fmt.Fprintf(&b, "%-12s %s", res.Service, res.Status)
		if res.Reason != "" {
			fmt.Fprintf(&b, " (%s)", res.Reason)
		}
		if res.Detail != "" {
			fmt.Fprintf(&b, ": %s", res.Detail)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
