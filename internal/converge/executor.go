package converge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/datadock/datadock/internal/config"
	"github.com/datadock/datadock/internal/k8s"
	"github.com/datadock/datadock/internal/util/retry"
)

// Cluster is the surface the executor needs from the cluster client.
type Cluster interface {
	ApplyObject(ctx context.Context, obj *unstructured.Unstructured) error
	GetPods(ctx context.Context, namespace, labelSelector string) ([]corev1.Pod, error)
	DeletePods(ctx context.Context, namespace, labelSelector string) error
	RecentEvents(ctx context.Context, namespace string, limit int) ([]string, error)
	PodLogTail(ctx context.Context, namespace, name string, lines int64) string
}

// TimeoutError reports a readiness predicate that never became true within
// its window, with the diagnostic snapshot attached. It is not retried by
// the executor; the caller decides between one scripted remediation and
// failing the stage.
type TimeoutError struct {
	Target    string
	Timeout   time.Duration
	Diagnosis *Diagnosis
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s not ready after %v\n%s", e.Target, e.Timeout, e.Diagnosis)
}

// IsTimeout reports whether err carries a readiness TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// Executor converges resource targets against the cluster.
type Executor struct {
	cluster  Cluster
	timeouts *config.Timeouts
}

// NewExecutor creates an executor over the given cluster.
func NewExecutor(cluster Cluster, timeouts *config.Timeouts) *Executor {
	return &Executor{cluster: cluster, timeouts: timeouts}
}

// Apply submits the target's desired spec with create-or-update semantics.
// Transient API failures are absorbed by the shared retry budget, and the
// whole sequence of attempts shares one wall-clock budget; an
// immutable-field conflict fails immediately without burning attempts.
func (e *Executor) Apply(ctx context.Context, t *Target) error {
	if t.Object == nil {
		t.state = StateApplied
		return nil
	}
	applyCtx, cancel := context.WithTimeout(ctx, e.timeouts.Apply)
	defer cancel()
	err := retry.Bounded(applyCtx, func() error {
		applyErr := e.cluster.ApplyObject(applyCtx, t.Object)
		if applyErr != nil && k8s.IsConflict(applyErr) {
			return retry.Fatal(applyErr)
		}
		return applyErr
	}, retry.Attempts(e.timeouts.RetryMaxAttempts), retry.Interval(e.timeouts.RetryInitialDelay))
	if err != nil {
		t.state = StateFailed
		return fmt.Errorf("apply %s: %w", t.id(), err)
	}
	t.state = StateApplied
	return nil
}

// WaitUntilReady polls the target's readiness predicate at a fixed
// interval until it passes or timeout elapses. On timeout a diagnostic
// snapshot is captured and attached to the returned TimeoutError; the
// timeout itself is never silently retried.
func (e *Executor) WaitUntilReady(ctx context.Context, t *Target, timeout time.Duration) error {
	if t.Readiness == nil {
		t.state = StateReady
		return nil
	}
	t.state = StateWaiting

	err := wait.PollUntilContextTimeout(ctx, e.timeouts.PollInterval, timeout, true,
		func(ctx context.Context) (bool, error) {
			ok, perr := t.Readiness(ctx)
			if perr != nil {
				if retry.IsFatal(perr) {
					return false, perr
				}
				// Observation errors are "not ready yet": the API server
				// may still be starting.
				return false, nil
			}
			return ok, nil
		})
	if err == nil {
		t.state = StateReady
		return nil
	}

	t.state = StateFailed
	if wait.Interrupted(err) {
		return &TimeoutError{
			Target:    t.id(),
			Timeout:   timeout,
			Diagnosis: e.Diagnose(ctx, t),
		}
	}
	return fmt.Errorf("wait for %s: %w", t.id(), err)
}

// Converge runs the full apply-then-wait sequence for one target using the
// configured workload timeout.
func (e *Executor) Converge(ctx context.Context, t *Target) error {
	if err := e.Apply(ctx, t); err != nil {
		return err
	}
	return e.WaitUntilReady(ctx, t, e.timeouts.WorkloadReady)
}

// ConvergeAll converges targets strictly in order. Ordering between
// targets is the caller's statement of dependency; the executor does not
// infer one.
func (e *Executor) ConvergeAll(ctx context.Context, targets []*Target) error {
	for _, t := range targets {
		if err := e.Converge(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// Remediate performs the single scripted remediation allowed after a
// readiness timeout: delete the target's pods so the controller restarts
// them, then wait once more. A second timeout is final.
func (e *Executor) Remediate(ctx context.Context, t *Target) error {
	if t.PodSelector == "" {
		return fmt.Errorf("no remediation available for %s", t.id())
	}
	log.Printf("[converge] restarting pods of %s (selector %q)", t.id(), t.PodSelector)
	if err := e.cluster.DeletePods(ctx, t.Namespace, t.PodSelector); err != nil {
		return fmt.Errorf("restart %s: %w", t.id(), err)
	}
	return e.WaitUntilReady(ctx, t, e.timeouts.WorkloadReady)
}
