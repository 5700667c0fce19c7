package k8s

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// ConflictError marks a desired spec that cannot be reconciled with the
// existing cluster state, typically an immutable field change. It is never
// retried; the conflicting detail is surfaced to the operator.
type ConflictError struct {
	Kind   string
	Name   string
	Detail string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("irrecoverable conflict applying %s/%s: %s", e.Kind, e.Name, e.Detail)
}

// IsConflict reports whether err carries a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// ApplyObject submits one object to the cluster with create-or-update
// semantics. Re-applying an unchanged spec is a no-op from the cluster's
// perspective. Immutable-field rejections are returned as ConflictError.
func (c *Client) ApplyObject(ctx context.Context, obj *unstructured.Unstructured) error {
	gvk := obj.GroupVersionKind()
	gvr := schema.GroupVersionResource{
		Group:    gvk.Group,
		Version:  gvk.Version,
		Resource: resourceForKind(gvk.Kind),
	}

	ri := c.resourceInterface(gvr, obj.GetNamespace())

	_, err := ri.Create(ctx, obj, metav1.CreateOptions{})
	if err == nil {
		return nil
	}
	if !apierrors.IsAlreadyExists(err) {
		return classifyApplyError(obj, err)
	}

	// Update in place, carrying over the live resourceVersion.
	current, err := ri.Get(ctx, obj.GetName(), metav1.GetOptions{})
	if err != nil {
		return fmt.Errorf("failed to read existing %s/%s: %w", gvk.Kind, obj.GetName(), err)
	}
	obj.SetResourceVersion(current.GetResourceVersion())
	if _, err := ri.Update(ctx, obj, metav1.UpdateOptions{}); err != nil {
		return classifyApplyError(obj, err)
	}
	return nil
}

func (c *Client) resourceInterface(gvr schema.GroupVersionResource, namespace string) resourceClient {
	if namespace != "" {
		return c.dynamic.Resource(gvr).Namespace(namespace)
	}
	return c.dynamic.Resource(gvr)
}

// resourceClient is the subset of the dynamic client used by ApplyObject.
type resourceClient interface {
	Create(ctx context.Context, obj *unstructured.Unstructured, options metav1.CreateOptions, subresources ...string) (*unstructured.Unstructured, error)
	Update(ctx context.Context, obj *unstructured.Unstructured, options metav1.UpdateOptions, subresources ...string) (*unstructured.Unstructured, error)
	Get(ctx context.Context, name string, options metav1.GetOptions, subresources ...string) (*unstructured.Unstructured, error)
}

// classifyApplyError separates immutable-field conflicts from transient
// apply failures.
func classifyApplyError(obj *unstructured.Unstructured, err error) error {
	if apierrors.IsInvalid(err) && strings.Contains(err.Error(), "immutable") {
		return &ConflictError{
			Kind:   obj.GetKind(),
			Name:   obj.GetName(),
			Detail: err.Error(),
		}
	}
	return fmt.Errorf("failed to apply %s/%s: %w", obj.GetKind(), obj.GetName(), err)
}

// resourceForKind maps a Kubernetes kind to its resource name.
// Covers the kinds this pipeline applies; anything else falls through to
// the lowercase-plural convention.
func resourceForKind(kind string) string {
	switch kind {
	case "Namespace":
		return "namespaces"
	case "Secret":
		return "secrets"
	case "ConfigMap":
		return "configmaps"
	case "Deployment":
		return "deployments"
	case "StatefulSet":
		return "statefulsets"
	case "Service":
		return "services"
	case "Ingress":
		return "ingresses"
	case "CronJob":
		return "cronjobs"
	case "Certificate":
		return "certificates"
	case "ClusterIssuer":
		return "clusterissuers"
	case "PersistentVolumeClaim":
		return "persistentvolumeclaims"
	case "ServiceAccount":
		return "serviceaccounts"
	default:
		return strings.ToLower(kind) + "s"
	}
}
