package k8s

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func int32Ptr(i int32) *int32 { return &i }

func TestEnsureNamespace_Idempotent(t *testing.T) {
	t.Parallel()
	client := NewWithInterfaces(fake.NewSimpleClientset(), nil)
	ctx := context.Background()

	require.NoError(t, client.EnsureNamespace(ctx, "dataplane"))
	require.NoError(t, client.EnsureNamespace(ctx, "dataplane"))

	exists, err := client.NamespaceExists(ctx, "dataplane")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestFirstNodeInternalIP(t *testing.T) {
	t.Parallel()
	node := &corev1.Node{
		ObjectMeta: metav1.ObjectMeta{Name: "node-0"},
		Status: corev1.NodeStatus{
			Addresses: []corev1.NodeAddress{
				{Type: corev1.NodeHostName, Address: "node-0"},
				{Type: corev1.NodeInternalIP, Address: "10.0.0.5"},
			},
		},
	}
	client := NewWithInterfaces(fake.NewSimpleClientset(node), nil)

	ip, err := client.FirstNodeInternalIP(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", ip)
}

func TestFirstNodeInternalIP_NoNodes(t *testing.T) {
	t.Parallel()
	client := NewWithInterfaces(fake.NewSimpleClientset(), nil)

	ip, err := client.FirstNodeInternalIP(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ip)
}

func TestNodeReady(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		status corev1.ConditionStatus
		want   bool
	}{
		{name: "ready", status: corev1.ConditionTrue, want: true},
		{name: "not ready", status: corev1.ConditionFalse, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			node := &corev1.Node{
				ObjectMeta: metav1.ObjectMeta{Name: "node-0"},
				Status: corev1.NodeStatus{
					Conditions: []corev1.NodeCondition{
						{Type: corev1.NodeReady, Status: tt.status},
					},
				},
			}
			client := NewWithInterfaces(fake.NewSimpleClientset(node), nil)

			ready, err := client.NodeReady(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, ready)
		})
	}
}

func TestDeploymentReady(t *testing.T) {
	t.Parallel()
	ready := &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Namespace: "dataplane", Name: "portal"},
		Spec:       appsv1.DeploymentSpec{Replicas: int32Ptr(2)},
		Status: appsv1.DeploymentStatus{
			UpdatedReplicas:   2,
			AvailableReplicas: 2,
			Conditions: []appsv1.DeploymentCondition{
				{Type: appsv1.DeploymentAvailable, Status: corev1.ConditionTrue},
			},
		},
	}
	client := NewWithInterfaces(fake.NewSimpleClientset(ready), nil)

	ok, err := client.DeploymentReady(context.Background(), "dataplane", "portal")
	require.NoError(t, err)
	assert.True(t, ok)

	// Unknown deployment observes as not ready, not as an error.
	ok, err = client.DeploymentReady(context.Background(), "dataplane", "absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeploymentReady_RolloutInProgress(t *testing.T) {
	t.Parallel()
	rolling := &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Namespace: "dataplane", Name: "portal"},
		Spec:       appsv1.DeploymentSpec{Replicas: int32Ptr(2)},
		Status: appsv1.DeploymentStatus{
			UpdatedReplicas:   1,
			AvailableReplicas: 2,
		},
	}
	client := NewWithInterfaces(fake.NewSimpleClientset(rolling), nil)

	ok, err := client.DeploymentReady(context.Background(), "dataplane", "portal")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPodsReady(t *testing.T) {
	t.Parallel()
	readyPod := func(name string) *corev1.Pod {
		return &corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{
				Namespace: "dataplane",
				Name:      name,
				Labels:    map[string]string{"app": "zammad"},
			},
			Status: corev1.PodStatus{
				Phase: corev1.PodRunning,
				Conditions: []corev1.PodCondition{
					{Type: corev1.PodReady, Status: corev1.ConditionTrue},
				},
			},
		}
	}

	client := NewWithInterfaces(fake.NewSimpleClientset(readyPod("zammad-0"), readyPod("zammad-1")), nil)
	ok, err := client.PodsReady(context.Background(), "dataplane", "app=zammad")
	require.NoError(t, err)
	assert.True(t, ok)

	// No matching pods: not ready.
	ok, err = client.PodsReady(context.Background(), "dataplane", "app=absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpsertSecret_CreateThenUpdate(t *testing.T) {
	t.Parallel()
	client := NewWithInterfaces(fake.NewSimpleClientset(), nil)
	ctx := context.Background()

	require.NoError(t, client.UpsertSecret(ctx, "dataplane", "db-creds", map[string][]byte{
		"password": []byte("first"),
	}))
	require.NoError(t, client.UpsertSecret(ctx, "dataplane", "db-creds", map[string][]byte{
		"password": []byte("second"),
	}))

	data, err := client.GetSecretData(ctx, "dataplane", "db-creds", "password")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestGetSecretData_MissingKey(t *testing.T) {
	t.Parallel()
	client := NewWithInterfaces(fake.NewSimpleClientset(), nil)
	ctx := context.Background()

	require.NoError(t, client.UpsertSecret(ctx, "dataplane", "db-creds", map[string][]byte{
		"password": []byte("x"),
	}))

	_, err := client.GetSecretData(ctx, "dataplane", "db-creds", "absent")
	assert.Error(t, err)
}

func TestRecentEvents_Capped(t *testing.T) {
	t.Parallel()
	clientset := fake.NewSimpleClientset(
		&corev1.Event{
			ObjectMeta:     metav1.ObjectMeta{Namespace: "dataplane", Name: "ev-1"},
			Type:           "Warning",
			Message:        "Back-off restarting failed container",
			InvolvedObject: corev1.ObjectReference{Kind: "Pod", Name: "zammad-0"},
		},
		&corev1.Event{
			ObjectMeta:     metav1.ObjectMeta{Namespace: "dataplane", Name: "ev-2"},
			Type:           "Normal",
			Message:        "Pulled image",
			InvolvedObject: corev1.ObjectReference{Kind: "Pod", Name: "zammad-0"},
		},
	)
	client := NewWithInterfaces(clientset, nil)

	events, err := client.RecentEvents(context.Background(), "dataplane", 1)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
