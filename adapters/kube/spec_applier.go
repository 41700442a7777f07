package kube

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/runtime"

	"github.com/kompox/knative-charms/domain/model"
	"github.com/kompox/knative-charms/domain/podspec"
	"github.com/kompox/knative-charms/internal/logging"
)

// NamespaceEnsurer creates a namespace when it is missing.
type NamespaceEnsurer interface {
	EnsureNamespace(ctx context.Context, name string) error
}

// ObjectApplier server-side applies typed objects.
type ObjectApplier interface {
	ApplyObjects(ctx context.Context, objs []runtime.Object, opts *ApplyOptions) error
}

// SpecApplier submits a descriptor straight to a cluster, standing in for
// pod-spec-set when no lifecycle framework is present.
type SpecApplier struct {
	Namespace  string
	AppName    string
	Namespaces NamespaceEnsurer
	Objects    ObjectApplier
	// ForceConflicts takes ownership of fields managed by someone else.
	ForceConflicts bool
}

var _ model.SpecPort = (*SpecApplier)(nil)

// NewSpecApplier returns a SpecApplier that talks to the cluster behind c.
func NewSpecApplier(c *Client, namespace, app string) *SpecApplier {
	return &SpecApplier{
		Namespace:  namespace,
		AppName:    app,
		Namespaces: NewInstaller(c),
		Objects:    c,
	}
}

// SetPodSpec implements model.SpecPort.
func (a *SpecApplier) SetPodSpec(ctx context.Context, spec *podspec.PodSpec, resources *podspec.K8sResources, opts ...model.SetPodSpecOption) (err error) {
	o := model.SetPodSpecOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	app := a.AppName
	if o.AppName != "" {
		app = o.AppName
	}

	logger := logging.FromContext(ctx)
	msgSym := "KubeClient:SetPodSpec"
	logger.Info(ctx, msgSym+"/s", "namespace", a.Namespace, "app", app)
	defer func() {
		if err == nil {
			logger.Info(ctx, msgSym+"/eok")
		} else {
			logger.Info(ctx, msgSym+"/efail", "err", err)
		}
	}()

	if a.Namespaces == nil || a.Objects == nil {
		return fmt.Errorf("spec applier is not initialized")
	}
	conv := &Converter{AppName: app, Namespace: a.Namespace, ConfigHash: o.ConfigHash}
	objs, err := conv.Convert(spec, resources)
	if err != nil {
		return fmt.Errorf("convert descriptor: %w", err)
	}
	if err := a.Namespaces.EnsureNamespace(ctx, a.Namespace); err != nil {
		return err
	}
	return a.Objects.ApplyObjects(ctx, objs, &ApplyOptions{
		DefaultNamespace: a.Namespace,
		ForceConflicts:   a.ForceConflicts,
	})
}
