package kube

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/kompox/knative-charms/internal/logging"
)

// Installer provides the namespace bootstrap performed before applying a
// descriptor.
type Installer struct {
	Client *Client
}

// NewInstaller constructs an Installer from a kube Client.
func NewInstaller(c *Client) *Installer {
	return &Installer{Client: c}
}

// EnsureNamespace creates the namespace if it does not exist (idempotent).
// Existing namespaces are left untouched.
func (i *Installer) EnsureNamespace(ctx context.Context, name string) error {
	if i == nil || i.Client == nil || i.Client.Clientset == nil {
		return fmt.Errorf("kube installer is not initialized")
	}
	if name == "" {
		return fmt.Errorf("namespace name is empty")
	}

	_, err := i.Client.Clientset.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
	if err == nil {
		return nil
	}
	if !apierrors.IsNotFound(err) {
		return fmt.Errorf("get namespace %s: %w", name, err)
	}

	_, err = i.Client.Clientset.CoreV1().Namespaces().Create(ctx, &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{
			Name:   name,
			Labels: map[string]string{LabelAppK8sManagedBy: ManagedBy},
		},
	}, metav1.CreateOptions{})
	if err != nil {
		if apierrors.IsAlreadyExists(err) {
			return nil
		}
		return fmt.Errorf("create namespace %s: %w", name, err)
	}
	logging.FromContext(ctx).Info(ctx, "KubeClient:namespace created", "namespace", name)
	return nil
}
