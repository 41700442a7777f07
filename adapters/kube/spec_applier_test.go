package kube

import (
	"context"
	"errors"
	"testing"

	appsv1 "k8s.io/api/apps/v1"
	"k8s.io/apimachinery/pkg/runtime"

	"github.com/kompox/knative-charms/domain/model"
)

type fakeNamespaces struct {
	names []string
	err   error
}

func (f *fakeNamespaces) EnsureNamespace(_ context.Context, name string) error {
	f.names = append(f.names, name)
	return f.err
}

type fakeObjects struct {
	objs []runtime.Object
	opts *ApplyOptions
	err  error
}

func (f *fakeObjects) ApplyObjects(_ context.Context, objs []runtime.Object, opts *ApplyOptions) error {
	f.objs = objs
	f.opts = opts
	return f.err
}

func TestSpecApplierSetPodSpec(t *testing.T) {
	ns := &fakeNamespaces{}
	objs := &fakeObjects{}
	a := &SpecApplier{Namespace: "knative-serving", AppName: "controller", Namespaces: ns, Objects: objs}

	spec, res := testDescriptor()
	err := a.SetPodSpec(context.Background(), spec, res, model.WithConfigHash("abc"), model.WithAppName("knative-controller"))
	if err != nil {
		t.Fatalf("SetPodSpec: %v", err)
	}
	if len(ns.names) != 1 || ns.names[0] != "knative-serving" {
		t.Errorf("ensured namespaces = %v", ns.names)
	}
	if objs.opts == nil || objs.opts.DefaultNamespace != "knative-serving" {
		t.Errorf("apply options = %+v", objs.opts)
	}
	var dep *appsv1.Deployment
	for _, o := range objs.objs {
		if d, ok := o.(*appsv1.Deployment); ok {
			dep = d
		}
	}
	if dep == nil {
		t.Fatalf("no Deployment applied")
	}
	if dep.Name != "knative-controller" {
		t.Errorf("app name override ignored: %q", dep.Name)
	}
	if dep.Annotations[AnnotationConfigHash] != "abc" {
		t.Errorf("config hash annotation = %v", dep.Annotations)
	}
}

func TestSpecApplierErrors(t *testing.T) {
	boom := errors.New("boom")
	spec, res := testDescriptor()

	t.Run("namespace", func(t *testing.T) {
		objs := &fakeObjects{}
		a := &SpecApplier{Namespace: "ns", AppName: "app", Namespaces: &fakeNamespaces{err: boom}, Objects: objs}
		if err := a.SetPodSpec(context.Background(), spec, res); !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		if objs.objs != nil {
			t.Errorf("objects applied after namespace failure")
		}
	})
	t.Run("apply", func(t *testing.T) {
		a := &SpecApplier{Namespace: "ns", AppName: "app", Namespaces: &fakeNamespaces{}, Objects: &fakeObjects{err: boom}}
		if err := a.SetPodSpec(context.Background(), spec, res); !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
	})
	t.Run("convert", func(t *testing.T) {
		ns := &fakeNamespaces{}
		a := &SpecApplier{Namespace: "ns", AppName: "app", Namespaces: ns, Objects: &fakeObjects{}}
		if err := a.SetPodSpec(context.Background(), nil, res); err == nil {
			t.Fatalf("expected error for nil spec")
		}
		if len(ns.names) != 0 {
			t.Errorf("namespace ensured before conversion succeeded")
		}
	})
	t.Run("uninitialized", func(t *testing.T) {
		a := &SpecApplier{Namespace: "ns", AppName: "app"}
		if err := a.SetPodSpec(context.Background(), spec, res); err == nil {
			t.Fatalf("expected error")
		}
	})
}
