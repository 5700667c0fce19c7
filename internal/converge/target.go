// Package converge implements the apply, wait, verify, diagnose loop
// every deployment stage runs its resources through. One executor, one
// retry contract, one diagnostics format. Stages declare targets and
// readiness predicates, nothing else.
package converge

import (
	"context"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Kind classifies a convergence target. It is informational: it shows up
// in logs and diagnostics, the executor treats all kinds alike.
type Kind string

const (
	KindNamespace   Kind = "namespace"
	KindSecret      Kind = "secret"
	KindConfig      Kind = "config"
	KindWorkload    Kind = "workload"
	KindIngress     Kind = "network-ingress"
	KindCertificate Kind = "certificate"
)

// State tracks a target through the convergence lifecycle.
type State string

const (
	StatePlanned State = "planned"
	StateApplied State = "applied"
	StateWaiting State = "waiting"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

// Predicate is a boolean check over observed cluster state. It is polled
// until true or timeout; an error is treated as "not ready yet" unless the
// predicate wraps it fatal.
type Predicate func(ctx context.Context) (bool, error)

// Target is one declarative convergence unit. Targets are ephemeral: built
// by a stage, mutated by the executor while converging, discarded after.
type Target struct {
	Kind      Kind
	Namespace string
	Name      string

	// Object is the desired spec submitted on Apply. Nil for targets whose
	// resources are applied by an external actor (a Helm release) and only
	// gated on readiness here.
	Object *unstructured.Unstructured

	// Readiness gates WaitUntilReady. Nil means the target is done once
	// applied.
	Readiness Predicate

	// PodSelector scopes diagnostics capture and the restart remediation
	// to the target's pods.
	PodSelector string

	state State
}

// State returns the target's current lifecycle state.
func (t *Target) State() State {
	if t.state == "" {
		return StatePlanned
	}
	return t.state
}

func (t *Target) id() string {
	if t.Namespace == "" {
		return string(t.Kind) + "/" + t.Name
	}
	return string(t.Kind) + "/" + t.Namespace + "/" + t.Name
}
