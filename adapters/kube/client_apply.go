package kube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	meta "k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/restmapper"

	"github.com/kompox/knative-charms/internal/logging"
)

// FieldManager is the default server-side apply field manager.
const FieldManager = "knative-charm"

// ApplyOptions configures server-side apply operations.
type ApplyOptions struct {
	// DefaultNamespace is used when a namespaced resource omits metadata.namespace.
	DefaultNamespace string
	// FieldManager sets the field manager for SSA; defaults to FieldManager.
	FieldManager string
	// ForceConflicts forces apply on conflicts when true.
	ForceConflicts bool
}

func (o *ApplyOptions) defaults() {
	if o.FieldManager == "" {
		o.FieldManager = FieldManager
	}
}

// applier holds the dynamic client and REST mapper for one apply run.
type applier struct {
	opts   *ApplyOptions
	dy     dynamic.Interface
	mapper meta.ResettableRESTMapper
}

func (c *Client) newApplier(opts *ApplyOptions) (*applier, error) {
	if c == nil || c.RESTConfig == nil {
		return nil, fmt.Errorf("kube client is not initialized")
	}
	if opts == nil {
		opts = &ApplyOptions{}
	}
	opts.defaults()
	dc, err := discovery.NewDiscoveryClientForConfig(c.RESTConfig)
	if err != nil {
		return nil, fmt.Errorf("create discovery client: %w", err)
	}
	dy, err := dynamic.NewForConfig(c.RESTConfig)
	if err != nil {
		return nil, fmt.Errorf("create dynamic client: %w", err)
	}
	return &applier{
		opts:   opts,
		dy:     dy,
		mapper: restmapper.NewDeferredDiscoveryRESTMapper(memory.NewMemCacheClient(dc)),
	}, nil
}

// ApplyObjects performs server-side apply for a slice of typed runtime.Objects.
// Objects must carry apiVersion and kind.
func (c *Client) ApplyObjects(ctx context.Context, objs []runtime.Object, opts *ApplyOptions) (err error) {
	logger := logging.FromContext(ctx)
	msgSym := "KubeClient:ApplyObjects"
	logger.Info(ctx, msgSym+"/s", "objects", len(objs))
	count := 0
	defer func() {
		if err == nil {
			logger.Info(ctx, msgSym+"/eok", "applied", count)
		} else {
			logger.Info(ctx, msgSym+"/efail", "applied", count, "err", err)
		}
	}()

	a, err := c.newApplier(opts)
	if err != nil {
		return err
	}
	for _, obj := range objs {
		if obj == nil {
			continue
		}
		m, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
		if err != nil {
			return fmt.Errorf("to unstructured: %w", err)
		}
		if err := a.apply(ctx, &unstructured.Unstructured{Object: m}); err != nil {
			return err
		}
		count++
	}
	return nil
}

// ApplyYAML performs server-side apply for a multi-document YAML/JSON byte stream.
func (c *Client) ApplyYAML(ctx context.Context, data []byte, opts *ApplyOptions) (err error) {
	logger := logging.FromContext(ctx)
	msgSym := "KubeClient:ApplyYAML"
	logger.Info(ctx, msgSym+"/s")
	count := 0
	defer func() {
		if err == nil {
			logger.Info(ctx, msgSym+"/eok", "applied", count)
		} else {
			logger.Info(ctx, msgSym+"/efail", "applied", count, "err", err)
		}
	}()

	a, err := c.newApplier(opts)
	if err != nil {
		return err
	}
	dec := utilyaml.NewYAMLOrJSONDecoder(bytes.NewReader(data), 4096)
	for {
		var raw map[string]any
		if err := dec.Decode(&raw); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("decode yaml: %w", err)
		}
		if len(raw) == 0 {
			continue
		}
		if err := a.apply(ctx, &unstructured.Unstructured{Object: raw}); err != nil {
			return err
		}
		count++
	}
	return nil
}

// apply performs SSA for one unstructured object. A CRD applied earlier in the
// same run becomes resolvable because the mapper is reset on a miss.
func (a *applier) apply(ctx context.Context, u *unstructured.Unstructured) error {
	if u.GetKind() == "" || u.GetAPIVersion() == "" {
		return fmt.Errorf("object %q missing apiVersion or kind", u.GetName())
	}
	gvk := schema.FromAPIVersionAndKind(u.GetAPIVersion(), u.GetKind())
	mapping, err := a.mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
	if meta.IsNoMatchError(err) {
		a.mapper.Reset()
		mapping, err = a.mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
	}
	if err != nil {
		return fmt.Errorf("rest mapping %s: %w", gvk.String(), err)
	}

	if mapping.Scope.Name() == meta.RESTScopeNameNamespace && u.GetNamespace() == "" {
		ns := a.opts.DefaultNamespace
		if ns == "" {
			ns = "default"
		}
		u.SetNamespace(ns)
	}
	if u.GetName() == "" {
		return fmt.Errorf("object %s missing metadata.name", gvk.String())
	}

	body, err := json.Marshal(u.Object)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", u.GetKind(), u.GetName(), err)
	}
	ri := resourceInterfaceFor(a.dy, mapping.Resource, u.GetNamespace())
	force := a.opts.ForceConflicts

	logger := logging.FromContext(ctx).With("ns", u.GetNamespace(), "kind", u.GetKind(), "name", u.GetName())
	if _, err := ri.Patch(ctx, u.GetName(), types.ApplyPatchType, body, metav1.PatchOptions{FieldManager: a.opts.FieldManager, Force: &force}); err != nil {
		logger.Error(ctx, "KubeClient:Apply/efail", "err", err)
		return fmt.Errorf("apply %s %s: %w", u.GetKind(), u.GetName(), err)
	}
	logger.Info(ctx, "KubeClient:Apply/eok")
	return nil
}

// resourceInterfaceFor returns the dynamic resource interface for gvr/namespace.
func resourceInterfaceFor(dy dynamic.Interface, gvr schema.GroupVersionResource, namespace string) dynamic.ResourceInterface {
	if namespace == "" {
		return dy.Resource(gvr)
	}
	return dy.Resource(gvr).Namespace(namespace)
}
