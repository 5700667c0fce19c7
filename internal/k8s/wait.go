package k8s

import (
	"context"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Readiness observations. These are one-shot checks over observed cluster
// state; the convergence executor owns the poll loop and timeout. API
// errors during observation are treated as "not ready yet", not fatal;
// the API server itself may still be coming up on a freshly booted node.

// DeploymentReady reports whether the deployment has all desired replicas
// updated, available, and the Available condition set.
func (c *Client) DeploymentReady(ctx context.Context, namespace, name string) (bool, error) {
	deployment, err := c.clientset.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return false, nil
	}
	return isDeploymentReady(deployment), nil
}

// StatefulSetReady reports whether the statefulset has all desired
// replicas ready at the current revision.
func (c *Client) StatefulSetReady(ctx context.Context, namespace, name string) (bool, error) {
	sts, err := c.clientset.AppsV1().StatefulSets(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return false, nil
	}
	var want int32 = 1
	if sts.Spec.Replicas != nil {
		want = *sts.Spec.Replicas
	}
	return sts.Status.ReadyReplicas == want && sts.Status.UpdatedReplicas == want, nil
}

// PodsReady reports whether every pod matching the label selector is
// running and ready. No matching pods means not ready.
func (c *Client) PodsReady(ctx context.Context, namespace, labelSelector string) (bool, error) {
	pods, err := c.GetPods(ctx, namespace, labelSelector)
	if err != nil || len(pods) == 0 {
		return false, nil
	}
	for _, pod := range pods {
		if !isPodReady(&pod) {
			return false, nil
		}
	}
	return true, nil
}

// EndpointsReady reports whether the named service has at least one ready
// endpoint address.
func (c *Client) EndpointsReady(ctx context.Context, namespace, name string) (bool, error) {
	endpoints, err := c.clientset.CoreV1().Endpoints(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return false, nil
	}
	for _, subset := range endpoints.Subsets {
		if len(subset.Addresses) > 0 {
			return true, nil
		}
	}
	return false, nil
}

// NamespaceExists reports whether the namespace exists.
func (c *Client) NamespaceExists(ctx context.Context, name string) (bool, error) {
	_, err := c.clientset.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
	return err == nil, nil
}

// GetPods returns pods matching a label selector in a namespace.
func (c *Client) GetPods(ctx context.Context, namespace, labelSelector string) ([]corev1.Pod, error) {
	podList, err := c.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: labelSelector,
	})
	if err != nil {
		return nil, err
	}
	return podList.Items, nil
}

// DeletePods deletes all pods matching the label selector. Used for the
// single scripted remediation after a readiness timeout: the controller
// recreates the pods, which amounts to a workload restart.
func (c *Client) DeletePods(ctx context.Context, namespace, labelSelector string) error {
	return c.clientset.CoreV1().Pods(namespace).DeleteCollection(ctx, metav1.DeleteOptions{}, metav1.ListOptions{
		LabelSelector: labelSelector,
	})
}

func isDeploymentReady(deployment *appsv1.Deployment) bool {
	var want int32 = 1
	if deployment.Spec.Replicas != nil {
		want = *deployment.Spec.Replicas
	}
	if deployment.Status.UpdatedReplicas != want ||
		deployment.Status.AvailableReplicas != want {
		return false
	}
	for _, condition := range deployment.Status.Conditions {
		if condition.Type == appsv1.DeploymentAvailable &&
			condition.Status == corev1.ConditionTrue {
			return true
		}
	}
	return false
}

func isPodReady(pod *corev1.Pod) bool {
	if pod.Status.Phase != corev1.PodRunning {
		return false
	}
	for _, condition := range pod.Status.Conditions {
		if condition.Type == corev1.PodReady &&
			condition.Status == corev1.ConditionTrue {
			return true
		}
	}
	return false
}
