package converge

import (
	"context"
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"
)

// Capture bounds keep a diagnosis readable and its collection fast.
const (
	maxDiagnosedPods = 5
	maxEventLines    = 10
	logTailLines     = 30
)

// Diagnosis is a bounded snapshot of why a target failed to become ready.
type Diagnosis struct {
	Target   string
	NotReady int
	Pods     []string          // "name phase ready=<bool>" per pod
	Events   []string          // recent namespace events, newest last
	LogTails map[string]string // pod name -> last log lines
}

// Diagnose captures a snapshot for the failed target. It runs under its
// own short deadline and never retries: a diagnosis that hangs would turn
// one failure into two.
func (e *Executor) Diagnose(ctx context.Context, t *Target) *Diagnosis {
	d := &Diagnosis{
		Target:   t.id(),
		LogTails: make(map[string]string),
	}

	dctx, cancel := context.WithTimeout(ctx, e.timeouts.Diagnose)
	defer cancel()

	if t.PodSelector != "" {
		pods, err := e.cluster.GetPods(dctx, t.Namespace, t.PodSelector)
		if err == nil {
			if len(pods) > maxDiagnosedPods {
				pods = pods[:maxDiagnosedPods]
			}
			for _, pod := range pods {
				ready := podConditionReady(&pod)
				if !ready {
					d.NotReady++
				}
				d.Pods = append(d.Pods, fmt.Sprintf("%s %s ready=%t", pod.Name, pod.Status.Phase, ready))
				if !ready {
					if tail := e.cluster.PodLogTail(dctx, t.Namespace, pod.Name, logTailLines); tail != "" {
						d.LogTails[pod.Name] = tail
					}
				}
			}
		}
	}

	if events, err := e.cluster.RecentEvents(dctx, t.Namespace, maxEventLines); err == nil {
		d.Events = events
	}

	return d
}

// String renders the diagnosis for the error stream.
func (d *Diagnosis) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "diagnosis for %s: %d pod(s) not ready\n", d.Target, d.NotReady)
	for _, p := range d.Pods {
		fmt.Fprintf(&b, "  pod: %s\n", p)
	}
	for _, ev := range d.Events {
		fmt.Fprintf(&b, "  event: %s\n", ev)
	}
	for name, tail := range d.LogTails {
		fmt.Fprintf(&b, "  logs %s:\n", name)
		for _, line := range strings.Split(strings.TrimRight(tail, "\n"), "\n") {
			fmt.Fprintf(&b, "    %s\n", line)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func podConditionReady(pod *corev1.Pod) bool {
	if pod.Status.Phase != corev1.PodRunning {
		return false
	}
	for _, cond := range pod.Status.Conditions {
		if cond.Type == corev1.PodReady && cond.Status == corev1.ConditionTrue {
			return true
		}
	}
	return false
}
