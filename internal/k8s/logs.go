package k8s

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// PodLogTail retrieves the last lines of a pod's log. Used only for
// diagnostic snapshots, so failures return an empty string rather than an
// error worth retrying.
func (c *Client) PodLogTail(ctx context.Context, namespace, name string, lines int64) string {
	req := c.clientset.CoreV1().Pods(namespace).GetLogs(name, &corev1.PodLogOptions{
		TailLines: &lines,
	})
	logs, err := req.DoRaw(ctx)
	if err != nil {
		return ""
	}
	return string(logs)
}

// RecentEvents returns recent event messages for objects in the namespace,
// newest last, capped at limit.
func (c *Client) RecentEvents(ctx context.Context, namespace string, limit int) ([]string, error) {
	events, err := c.clientset.CoreV1().Events(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list events in %s: %w", namespace, err)
	}
	items := events.Items
	if len(items) > limit {
		items = items[len(items)-limit:]
	}
	out := make([]string, 0, len(items))
	for _, ev := range items {
		out = append(out, fmt.Sprintf("%s %s/%s: %s", ev.Type, ev.InvolvedObject.Kind, ev.InvolvedObject.Name, ev.Message))
	}
	return out, nil
}
