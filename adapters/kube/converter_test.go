package kube

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	admissionregistrationv1 "k8s.io/api/admissionregistration/v1"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	rbacv1 "k8s.io/api/rbac/v1"
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/utils/ptr"

	"github.com/kompox/knative-charms/charms"
	"github.com/kompox/knative-charms/charms/activator"
	"github.com/kompox/knative-charms/charms/controller"
	"github.com/kompox/knative-charms/charms/webhook"
	"github.com/kompox/knative-charms/domain/model"
	"github.com/kompox/knative-charms/domain/podspec"
)

func testDescriptor() (*podspec.PodSpec, *podspec.K8sResources) {
	spec := &podspec.PodSpec{
		Version: podspec.Version3,
		ServiceAccount: &podspec.ServiceAccountSpec{
			Roles: []podspec.Role{
				{Global: true, Rules: []rbacv1.PolicyRule{{APIGroups: []string{"serving.knative.dev"}, Resources: []string{"*"}, Verbs: []string{"*"}}}},
				{Rules: []rbacv1.PolicyRule{{APIGroups: []string{""}, Resources: []string{"configmaps"}, Verbs: []string{"get"}}}},
			},
		},
		Containers: []podspec.ContainerSpec{{
			Name:            "controller",
			Image:           "gcr.io/knative-releases/knative.dev/serving/cmd/controller:v0.19.0",
			ImagePullPolicy: corev1.PullAlways,
			Ports: []podspec.ContainerPort{
				{ContainerPort: 9090, Name: "metrics"},
				{ContainerPort: 8008},
			},
			EnvConfig: map[string]podspec.EnvValue{
				"SYSTEM_NAMESPACE": podspec.FieldRef("metadata.namespace"),
				"GOGC":             podspec.Literal("500"),
				"METRICS_DOMAIN":   podspec.PlainValue("knative.dev/internal/serving"),
			},
			Kubernetes: &podspec.K8sContainerSpec{
				SecurityContext: &corev1.SecurityContext{RunAsNonRoot: ptr.To(true)},
			},
		}},
		ConfigMaps: map[string]map[string]string{
			"config-observability": {"_example": "b"},
			"config-logging":       {"_example": "a"},
		},
	}
	res := &podspec.K8sResources{KubernetesResources: podspec.KubernetesResources{
		CustomResourceDefinitions: []podspec.K8sCustomResourceDefinition{{
			Meta: podspec.Meta{Name: "services.serving.knative.dev"},
			Spec: apiextensionsv1.CustomResourceDefinitionSpec{Group: "serving.knative.dev"},
		}},
		Services: []podspec.K8sService{{
			Meta: podspec.Meta{Name: "controller-service"},
			Spec: corev1.ServiceSpec{
				Ports:    []corev1.ServicePort{{Name: "http-metrics", Port: 9090}},
				Selector: map[string]string{"app": "controller"},
			},
		}},
		MutatingWebhookConfigurations: []podspec.K8sMutatingWebhookConfiguration{{
			Meta:     podspec.Meta{Name: "webhook.serving.knative.dev"},
			Webhooks: []admissionregistrationv1.MutatingWebhook{{Name: "webhook.serving.knative.dev"}},
		}},
		ValidatingWebhookConfigurations: []podspec.K8sValidatingWebhookConfiguration{{
			Meta:     podspec.Meta{Name: "validation.webhook.serving.knative.dev"},
			Webhooks: []admissionregistrationv1.ValidatingWebhook{{Name: "validation.webhook.serving.knative.dev"}},
		}},
	}}
	return spec, res
}

func kindsOf(objs []runtime.Object) []string {
	var out []string
	for _, o := range objs {
		out = append(out, o.GetObjectKind().GroupVersionKind().Kind)
	}
	return out
}

func findDeployment(t *testing.T, objs []runtime.Object) *appsv1.Deployment {
	t.Helper()
	for _, o := range objs {
		if d, ok := o.(*appsv1.Deployment); ok {
			return d
		}
	}
	t.Fatalf("no Deployment in %v", kindsOf(objs))
	return nil
}

func TestConverterOrder(t *testing.T) {
	spec, res := testDescriptor()
	objs, err := NewConverter("controller", "knative-serving").Convert(spec, res)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	want := []string{
		"CustomResourceDefinition",
		"ServiceAccount",
		"ClusterRole", "ClusterRoleBinding",
		"Role", "RoleBinding",
		"ConfigMap", "ConfigMap",
		"Deployment",
		"Service", "Service",
		"MutatingWebhookConfiguration",
		"ValidatingWebhookConfiguration",
	}
	if diff := cmp.Diff(want, kindsOf(objs)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	for _, o := range objs {
		gvk := o.GetObjectKind().GroupVersionKind()
		if gvk.Version == "" {
			t.Errorf("%s has no apiVersion", gvk.Kind)
		}
	}
}

func TestConverterRBAC(t *testing.T) {
	spec, res := testDescriptor()
	objs, err := NewConverter("controller", "knative-serving").Convert(spec, res)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	cr := objs[2].(*rbacv1.ClusterRole)
	if cr.Name != "knative-serving-controller" || cr.Namespace != "" {
		t.Errorf("cluster role = %s/%s", cr.Namespace, cr.Name)
	}
	crb := objs[3].(*rbacv1.ClusterRoleBinding)
	if crb.RoleRef.Name != cr.Name || crb.RoleRef.Kind != "ClusterRole" {
		t.Errorf("cluster role binding ref = %+v", crb.RoleRef)
	}
	wantSubjects := []rbacv1.Subject{{Kind: "ServiceAccount", Name: "controller", Namespace: "knative-serving"}}
	if diff := cmp.Diff(wantSubjects, crb.Subjects); diff != "" {
		t.Errorf("subjects mismatch (-want +got):\n%s", diff)
	}
	role := objs[4].(*rbacv1.Role)
	if role.Name != "controller-1" || role.Namespace != "knative-serving" {
		t.Errorf("role = %s/%s", role.Namespace, role.Name)
	}
	rb := objs[5].(*rbacv1.RoleBinding)
	if rb.RoleRef.Name != "controller-1" || rb.RoleRef.Kind != "Role" {
		t.Errorf("role binding ref = %+v", rb.RoleRef)
	}
	cm := objs[6].(*corev1.ConfigMap)
	if cm.Name != "config-logging" || cm.Data["_example"] != "a" {
		t.Errorf("first config map = %s %v", cm.Name, cm.Data)
	}
}

func TestConverterDeployment(t *testing.T) {
	spec, res := testDescriptor()
	c := &Converter{AppName: "controller", Namespace: "knative-serving", ConfigHash: "48575368b40956f9391153358f7ae724"}
	objs, err := c.Convert(spec, res)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	d := findDeployment(t, objs)

	if diff := cmp.Diff(map[string]string{LabelAppK8sName: "controller"}, d.Spec.Selector.MatchLabels); diff != "" {
		t.Errorf("selector mismatch (-want +got):\n%s", diff)
	}
	wantPodLabels := map[string]string{LabelAppK8sName: "controller", "app": "controller"}
	if diff := cmp.Diff(wantPodLabels, d.Spec.Template.Labels); diff != "" {
		t.Errorf("pod labels mismatch (-want +got):\n%s", diff)
	}
	if d.Labels[LabelAppK8sManagedBy] != ManagedBy || d.Labels[LabelAppK8sComponent] != "workload" {
		t.Errorf("deployment labels = %v", d.Labels)
	}
	if got := d.Annotations[AnnotationConfigHash]; got != c.ConfigHash {
		t.Errorf("config hash annotation = %q", got)
	}
	if got := d.Spec.Template.Annotations[AnnotationContentHash]; len(got) != 6 {
		t.Errorf("content hash annotation = %q", got)
	}
	if d.Spec.Template.Spec.ServiceAccountName != "controller" {
		t.Errorf("service account = %q", d.Spec.Template.Spec.ServiceAccountName)
	}
	if *d.Spec.Replicas != 1 {
		t.Errorf("replicas = %d", *d.Spec.Replicas)
	}

	ct := d.Spec.Template.Spec.Containers[0]
	wantEnv := []corev1.EnvVar{
		{Name: "GOGC", Value: "500"},
		{Name: "METRICS_DOMAIN", Value: "knative.dev/internal/serving"},
		{Name: "SYSTEM_NAMESPACE", ValueFrom: &corev1.EnvVarSource{FieldRef: &corev1.ObjectFieldSelector{FieldPath: "metadata.namespace"}}},
	}
	if diff := cmp.Diff(wantEnv, ct.Env); diff != "" {
		t.Errorf("env mismatch (-want +got):\n%s", diff)
	}
	if ct.Image != spec.Containers[0].Image || ct.ImagePullPolicy != corev1.PullAlways {
		t.Errorf("container image = %s %s", ct.Image, ct.ImagePullPolicy)
	}
	if ct.Ports[1].Protocol != corev1.ProtocolTCP {
		t.Errorf("default protocol = %q", ct.Ports[1].Protocol)
	}
	if ct.SecurityContext == nil || !*ct.SecurityContext.RunAsNonRoot {
		t.Errorf("security context not carried: %+v", ct.SecurityContext)
	}
}

func TestConverterServices(t *testing.T) {
	spec, res := testDescriptor()
	objs, err := NewConverter("controller", "knative-serving").Convert(spec, res)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	var svcs []*corev1.Service
	for _, o := range objs {
		if s, ok := o.(*corev1.Service); ok {
			svcs = append(svcs, s)
		}
	}
	if len(svcs) != 2 {
		t.Fatalf("expected 2 services, got %d", len(svcs))
	}
	workload := svcs[0]
	if workload.Name != "controller" {
		t.Errorf("workload service name = %q", workload.Name)
	}
	var names []string
	for _, p := range workload.Spec.Ports {
		names = append(names, p.Name)
	}
	if diff := cmp.Diff([]string{"metrics", "port-8008"}, names); diff != "" {
		t.Errorf("port names mismatch (-want +got):\n%s", diff)
	}
	extra := svcs[1]
	if extra.Name != "controller-service" || extra.Namespace != "knative-serving" {
		t.Errorf("extra service = %s/%s", extra.Namespace, extra.Name)
	}
	if extra.Spec.Selector["app"] != "controller" {
		t.Errorf("extra service selector = %v", extra.Spec.Selector)
	}
}

func TestConverterCharmObjectsAreUnique(t *testing.T) {
	cfg := model.Config{
		model.ConfigNetworkingLayer: "istio",
		model.ConfigDeployServing:   true,
		model.ConfigDeployEventing:  false,
	}
	for _, c := range []charms.Charm{&activator.Charm{}, &controller.Charm{}, &webhook.Charm{}} {
		t.Run(string(c.Name()), func(t *testing.T) {
			spec, res, err := c.Build(&charms.BuildInput{
				Namespace: "knative-serving",
				Image:     model.ImageInfo{Path: c.DefaultImage()},
				Config:    cfg,
			})
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			objs, err := NewConverter(string(c.Name()), "knative-serving").Convert(spec, res)
			if err != nil {
				t.Fatalf("Convert: %v", err)
			}
			seen := map[string]bool{}
			for _, o := range objs {
				m, err := meta.Accessor(o)
				if err != nil {
					t.Fatalf("accessor: %v", err)
				}
				key := o.GetObjectKind().GroupVersionKind().Kind + " " + m.GetNamespace() + "/" + m.GetName()
				if seen[key] {
					t.Errorf("duplicate object %s", key)
				}
				seen[key] = true
			}
		})
	}
}

func TestConverterWebhookServiceReplacesWorkloadService(t *testing.T) {
	spec, res, err := (&webhook.Charm{}).Build(&charms.BuildInput{
		Namespace: "knative-serving",
		Image:     model.ImageInfo{Path: webhook.Image},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	objs, err := NewConverter("webhook", "knative-serving").Convert(spec, res)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	var svcs []*corev1.Service
	for _, o := range objs {
		if s, ok := o.(*corev1.Service); ok {
			svcs = append(svcs, s)
		}
	}
	if len(svcs) != 1 {
		t.Fatalf("expected 1 service, got %d", len(svcs))
	}
	if diff := cmp.Diff(map[string]string{"role": "webhook"}, svcs[0].Spec.Selector); diff != "" {
		t.Errorf("selector mismatch (-want +got):\n%s", diff)
	}
	var ports []int32
	for _, p := range svcs[0].Spec.Ports {
		ports = append(ports, p.Port)
	}
	if diff := cmp.Diff([]int32{9090, 8008, 443}, ports); diff != "" {
		t.Errorf("ports mismatch (-want +got):\n%s", diff)
	}
}

func TestConverterExtraServiceDefaultSelector(t *testing.T) {
	spec, res := testDescriptor()
	res.KubernetesResources.Services[0].Spec.Selector = nil
	objs, err := NewConverter("controller", "knative-serving").Convert(spec, res)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	for _, o := range objs {
		if s, ok := o.(*corev1.Service); ok && s.Name == "controller-service" {
			if diff := cmp.Diff(map[string]string{LabelAppK8sName: "controller"}, s.Spec.Selector); diff != "" {
				t.Errorf("selector mismatch (-want +got):\n%s", diff)
			}
			return
		}
	}
	t.Fatalf("controller-service not found")
}

func TestConverterPullSecret(t *testing.T) {
	spec, res := testDescriptor()
	spec.Containers[0].Image = ""
	spec.Containers[0].ImageDetails = &podspec.ImageDetails{
		ImagePath: "registry.example.com/knative/controller:v0.19.0",
		Username:  "robot",
		Password:  "s3cret",
	}
	objs, err := NewConverter("controller", "knative-serving").Convert(spec, res)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	var secret *corev1.Secret
	for _, o := range objs {
		if s, ok := o.(*corev1.Secret); ok {
			secret = s
		}
	}
	if secret == nil {
		t.Fatalf("no pull secret in %v", kindsOf(objs))
	}
	if secret.Name != "controller-registry" || secret.Type != corev1.SecretTypeDockerConfigJson {
		t.Errorf("secret = %s %s", secret.Name, secret.Type)
	}
	var cfg struct {
		Auths map[string]struct {
			Username string `json:"username"`
			Auth     string `json:"auth"`
		} `json:"auths"`
	}
	if err := json.Unmarshal(secret.Data[corev1.DockerConfigJsonKey], &cfg); err != nil {
		t.Fatalf("unmarshal docker config: %v", err)
	}
	entry, ok := cfg.Auths["registry.example.com"]
	if !ok {
		t.Fatalf("registry missing from auths: %v", cfg.Auths)
	}
	if entry.Username != "robot" || entry.Auth != "cm9ib3Q6czNjcmV0" {
		t.Errorf("auth entry = %+v", entry)
	}

	d := findDeployment(t, objs)
	if diff := cmp.Diff([]corev1.LocalObjectReference{{Name: "controller-registry"}}, d.Spec.Template.Spec.ImagePullSecrets); diff != "" {
		t.Errorf("pull secrets mismatch (-want +got):\n%s", diff)
	}
	if got := d.Spec.Template.Spec.Containers[0].Image; got != "registry.example.com/knative/controller:v0.19.0" {
		t.Errorf("image = %q", got)
	}
}

func TestConverterContentHashFollowsDescriptor(t *testing.T) {
	c := NewConverter("controller", "knative-serving")
	spec, res := testDescriptor()
	objs1, err := c.Convert(spec, res)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	objs2, err := c.Convert(testDescriptor())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	h1 := findDeployment(t, objs1).Spec.Template.Annotations[AnnotationContentHash]
	h2 := findDeployment(t, objs2).Spec.Template.Annotations[AnnotationContentHash]
	if h1 != h2 {
		t.Fatalf("same descriptor produced different hashes %s and %s", h1, h2)
	}
	spec.Containers[0].EnvConfig["GOGC"] = podspec.Literal("100")
	objs3, err := c.Convert(spec, res)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if h3 := findDeployment(t, objs3).Spec.Template.Annotations[AnnotationContentHash]; h3 == h1 {
		t.Fatalf("changed descriptor kept hash %s", h1)
	}
}

func TestConverterErrors(t *testing.T) {
	spec, res := testDescriptor()
	conflict, conflictRes := testDescriptor()
	conflictRes.KubernetesResources.Services[0].Spec.Selector = map[string]string{LabelAppK8sName: "other"}
	badImage, badImageRes := testDescriptor()
	badImage.Containers[0].ImageDetails = &podspec.ImageDetails{ImagePath: "Not A Reference", Username: "u"}

	tests := []struct {
		name    string
		conv    *Converter
		spec    *podspec.PodSpec
		res     *podspec.K8sResources
		wantErr string
	}{
		{"no app", NewConverter("", "ns"), spec, res, "app name"},
		{"no namespace", NewConverter("app", ""), spec, res, "namespace name"},
		{"nil spec", NewConverter("app", "ns"), nil, res, "pod spec is nil"},
		{"selector conflict", NewConverter("controller", "ns"), conflict, conflictRes, "conflicts"},
		{"bad image", NewConverter("controller", "ns"), badImage, badImageRes, "parse image"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.conv.Convert(tt.spec, tt.res)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConverterNilResources(t *testing.T) {
	spec, _ := testDescriptor()
	spec.ServiceAccount = nil
	spec.ConfigMaps = nil
	objs, err := NewConverter("controller", "knative-serving").Convert(spec, nil)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if diff := cmp.Diff([]string{"Deployment", "Service"}, kindsOf(objs)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	if sa := findDeployment(t, objs).Spec.Template.Spec.ServiceAccountName; sa != "" {
		t.Errorf("service account = %q", sa)
	}
}

func TestBuildCleanManifest(t *testing.T) {
	spec, res := testDescriptor()
	objs, err := NewConverter("controller", "knative-serving").Convert(spec, res)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	out, err := BuildCleanManifest(objs)
	if err != nil {
		t.Fatalf("BuildCleanManifest: %v", err)
	}
	if got := strings.Count(out, "---\n"); got != len(objs) {
		t.Errorf("expected %d documents, got %d", len(objs), got)
	}
	for _, want := range []string{"kind: Deployment", "apiVersion: apps/v1", "name: knative-serving-controller", "fieldPath: metadata.namespace"} {
		if !strings.Contains(out, want) {
			t.Errorf("manifest missing %q", want)
		}
	}
	for _, unwanted := range []string{"creationTimestamp", "status: {}", "null"} {
		if strings.Contains(out, unwanted) {
			t.Errorf("manifest contains %q", unwanted)
		}
	}
}
