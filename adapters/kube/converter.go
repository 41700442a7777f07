package kube

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/go-containerregistry/pkg/name"
	admissionregistrationv1 "k8s.io/api/admissionregistration/v1"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	rbacv1 "k8s.io/api/rbac/v1"
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"

	"github.com/kompox/knative-charms/domain/podspec"
	"github.com/kompox/knative-charms/internal/naming"
)

// Converter turns a descriptor into typed Kubernetes objects for one
// application in one namespace.
type Converter struct {
	AppName   string
	Namespace string
	// ConfigHash is recorded as an annotation on the Deployment when set.
	ConfigHash string
}

// NewConverter returns a Converter for app in namespace.
func NewConverter(app, namespace string) *Converter {
	return &Converter{AppName: app, Namespace: namespace}
}

// Convert returns the objects in apply order: CRDs, RBAC, config maps, pull
// secret, Deployment, Services and finally the webhook configurations.
func (c *Converter) Convert(spec *podspec.PodSpec, res *podspec.K8sResources) ([]runtime.Object, error) {
	if err := naming.ValidateAppName(c.AppName); err != nil {
		return nil, err
	}
	if err := naming.ValidateNamespace(c.Namespace); err != nil {
		return nil, err
	}
	if spec == nil {
		return nil, fmt.Errorf("pod spec is nil")
	}
	if res == nil {
		res = &podspec.K8sResources{}
	}
	k := &res.KubernetesResources

	contentHash, err := descriptorHash(spec, res)
	if err != nil {
		return nil, err
	}

	var objs []runtime.Object
	for _, crd := range k.CustomResourceDefinitions {
		objs = append(objs, &apiextensionsv1.CustomResourceDefinition{
			TypeMeta:   metav1.TypeMeta{APIVersion: "apiextensions.k8s.io/v1", Kind: "CustomResourceDefinition"},
			ObjectMeta: c.clusterMeta(crd.Meta, "crd"),
			Spec:       *crd.Spec.DeepCopy(),
		})
	}

	rbacObjs, err := c.rbac(spec.ServiceAccount)
	if err != nil {
		return nil, err
	}
	objs = append(objs, rbacObjs...)

	cmNames := make([]string, 0, len(spec.ConfigMaps))
	for n := range spec.ConfigMaps {
		cmNames = append(cmNames, n)
	}
	sort.Strings(cmNames)
	for _, n := range cmNames {
		data := map[string]string{}
		for key, v := range spec.ConfigMaps[n] {
			data[key] = v
		}
		objs = append(objs, &corev1.ConfigMap{
			TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "ConfigMap"},
			ObjectMeta: c.objectMeta(n, "config"),
			Data:       data,
		})
	}

	pullSecret, err := c.pullSecret(spec.Containers)
	if err != nil {
		return nil, err
	}
	if pullSecret != nil {
		objs = append(objs, pullSecret)
	}

	dep, err := c.deployment(spec, k.Services, pullSecret, contentHash)
	if err != nil {
		return nil, err
	}
	objs = append(objs, dep)

	if svc := c.workloadService(spec.Containers, k.Services); svc != nil {
		objs = append(objs, svc)
	}
	for _, s := range k.Services {
		sspec := *s.Spec.DeepCopy()
		if len(sspec.Selector) == 0 {
			sspec.Selector = c.selectorLabels()
		}
		meta := c.objectMeta(s.Name, "service")
		mergeInto(&meta.Labels, s.Labels)
		mergeInto(&meta.Annotations, s.Annotations)
		objs = append(objs, &corev1.Service{
			TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "Service"},
			ObjectMeta: meta,
			Spec:       sspec,
		})
	}

	for _, w := range k.MutatingWebhookConfigurations {
		hooks := make([]admissionregistrationv1.MutatingWebhook, len(w.Webhooks))
		for i := range w.Webhooks {
			hooks[i] = *w.Webhooks[i].DeepCopy()
		}
		objs = append(objs, &admissionregistrationv1.MutatingWebhookConfiguration{
			TypeMeta:   metav1.TypeMeta{APIVersion: "admissionregistration.k8s.io/v1", Kind: "MutatingWebhookConfiguration"},
			ObjectMeta: c.clusterMeta(w.Meta, "webhook"),
			Webhooks:   hooks,
		})
	}
	for _, w := range k.ValidatingWebhookConfigurations {
		hooks := make([]admissionregistrationv1.ValidatingWebhook, len(w.Webhooks))
		for i := range w.Webhooks {
			hooks[i] = *w.Webhooks[i].DeepCopy()
		}
		objs = append(objs, &admissionregistrationv1.ValidatingWebhookConfiguration{
			TypeMeta:   metav1.TypeMeta{APIVersion: "admissionregistration.k8s.io/v1", Kind: "ValidatingWebhookConfiguration"},
			ObjectMeta: c.clusterMeta(w.Meta, "webhook"),
			Webhooks:   hooks,
		})
	}
	return objs, nil
}

func (c *Converter) selectorLabels() map[string]string {
	return map[string]string{LabelAppK8sName: c.AppName}
}

func (c *Converter) labels(component string) map[string]string {
	return map[string]string{
		LabelAppK8sName:      c.AppName,
		LabelAppK8sInstance:  c.Namespace + "-" + c.AppName,
		LabelAppK8sManagedBy: ManagedBy,
		LabelAppK8sComponent: component,
	}
}

func (c *Converter) objectMeta(name, component string) metav1.ObjectMeta {
	return metav1.ObjectMeta{Name: name, Namespace: c.Namespace, Labels: c.labels(component)}
}

func (c *Converter) clusterMeta(m podspec.Meta, component string) metav1.ObjectMeta {
	om := metav1.ObjectMeta{Name: m.Name, Labels: c.labels(component)}
	mergeInto(&om.Labels, m.Labels)
	mergeInto(&om.Annotations, m.Annotations)
	return om
}

// rbac returns the ServiceAccount plus one Role/ClusterRole and binding per
// declared role. ClusterRoles are prefixed with the namespace.
func (c *Converter) rbac(sa *podspec.ServiceAccountSpec) ([]runtime.Object, error) {
	if sa == nil {
		return nil, nil
	}
	objs := []runtime.Object{&corev1.ServiceAccount{
		TypeMeta:                     metav1.TypeMeta{APIVersion: "v1", Kind: "ServiceAccount"},
		ObjectMeta:                   c.objectMeta(c.AppName, "rbac"),
		AutomountServiceAccountToken: sa.AutomountServiceAccountToken,
	}}
	subjects := []rbacv1.Subject{{Kind: rbacv1.ServiceAccountKind, Name: c.AppName, Namespace: c.Namespace}}
	for i, r := range sa.Roles {
		roleName := r.Name
		if roleName == "" {
			roleName = naming.RoleName(c.AppName, i)
		}
		rules := make([]rbacv1.PolicyRule, len(r.Rules))
		for j := range r.Rules {
			rules[j] = *r.Rules[j].DeepCopy()
		}
		if r.Global {
			name := naming.ClusterRoleName(c.Namespace, roleName)
			if err := naming.ValidateObjectName(name); err != nil {
				return nil, err
			}
			meta := metav1.ObjectMeta{Name: name, Labels: c.labels("rbac")}
			objs = append(objs,
				&rbacv1.ClusterRole{
					TypeMeta:   metav1.TypeMeta{APIVersion: "rbac.authorization.k8s.io/v1", Kind: "ClusterRole"},
					ObjectMeta: meta,
					Rules:      rules,
				},
				&rbacv1.ClusterRoleBinding{
					TypeMeta:   metav1.TypeMeta{APIVersion: "rbac.authorization.k8s.io/v1", Kind: "ClusterRoleBinding"},
					ObjectMeta: *meta.DeepCopy(),
					RoleRef:    rbacv1.RoleRef{APIGroup: rbacv1.GroupName, Kind: "ClusterRole", Name: name},
					Subjects:   subjects,
				},
			)
			continue
		}
		objs = append(objs,
			&rbacv1.Role{
				TypeMeta:   metav1.TypeMeta{APIVersion: "rbac.authorization.k8s.io/v1", Kind: "Role"},
				ObjectMeta: c.objectMeta(roleName, "rbac"),
				Rules:      rules,
			},
			&rbacv1.RoleBinding{
				TypeMeta:   metav1.TypeMeta{APIVersion: "rbac.authorization.k8s.io/v1", Kind: "RoleBinding"},
				ObjectMeta: c.objectMeta(roleName, "rbac"),
				RoleRef:    rbacv1.RoleRef{APIGroup: rbacv1.GroupName, Kind: "Role", Name: roleName},
				Subjects:   subjects,
			},
		)
	}
	return objs, nil
}

type dockerAuth struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Auth     string `json:"auth"`
}

// pullSecret builds a dockerconfigjson Secret for containers that carry
// registry credentials, or nil when none do.
func (c *Converter) pullSecret(containers []podspec.ContainerSpec) (*corev1.Secret, error) {
	auths := map[string]dockerAuth{}
	for _, ct := range containers {
		d := ct.ImageDetails
		if d == nil || (d.Username == "" && d.Password == "") {
			continue
		}
		ref, err := name.ParseReference(d.ImagePath)
		if err != nil {
			return nil, fmt.Errorf("container %s: parse image %q: %w", ct.Name, d.ImagePath, err)
		}
		auths[ref.Context().RegistryStr()] = dockerAuth{
			Username: d.Username,
			Password: d.Password,
			Auth:     base64.StdEncoding.EncodeToString([]byte(d.Username + ":" + d.Password)),
		}
	}
	if len(auths) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(map[string]any{"auths": auths})
	if err != nil {
		return nil, fmt.Errorf("marshal docker config: %w", err)
	}
	return &corev1.Secret{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "Secret"},
		ObjectMeta: c.objectMeta(naming.PullSecretName(c.AppName), "registry"),
		Type:       corev1.SecretTypeDockerConfigJson,
		Data:       map[string][]byte{corev1.DockerConfigJsonKey: data},
	}, nil
}

func (c *Converter) deployment(spec *podspec.PodSpec, services []podspec.K8sService, pullSecret *corev1.Secret, contentHash string) (*appsv1.Deployment, error) {
	// Pods also carry every selector label of the declared services so those
	// services reach them.
	podLabels := c.selectorLabels()
	for _, s := range services {
		for k, v := range s.Spec.Selector {
			if old, ok := podLabels[k]; ok && old != v {
				return nil, fmt.Errorf("service %s selector %s=%s conflicts with %s", s.Name, k, v, old)
			}
			podLabels[k] = v
		}
	}

	containers := make([]corev1.Container, 0, len(spec.Containers))
	for _, ct := range spec.Containers {
		containers = append(containers, convertContainer(ct))
	}

	annotations := map[string]string{AnnotationContentHash: contentHash}
	if c.ConfigHash != "" {
		annotations[AnnotationConfigHash] = c.ConfigHash
	}

	pod := corev1.PodSpec{Containers: containers}
	if spec.ServiceAccount != nil {
		pod.ServiceAccountName = c.AppName
	}
	if pullSecret != nil {
		pod.ImagePullSecrets = []corev1.LocalObjectReference{{Name: pullSecret.Name}}
	}

	meta := c.objectMeta(c.AppName, "workload")
	if c.ConfigHash != "" {
		meta.Annotations = map[string]string{AnnotationConfigHash: c.ConfigHash}
	}
	return &appsv1.Deployment{
		TypeMeta:   metav1.TypeMeta{APIVersion: "apps/v1", Kind: "Deployment"},
		ObjectMeta: meta,
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr.To[int32](1),
			Selector: &metav1.LabelSelector{MatchLabels: c.selectorLabels()},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: podLabels, Annotations: annotations},
				Spec:       pod,
			},
		},
	}, nil
}

func convertContainer(ct podspec.ContainerSpec) corev1.Container {
	out := corev1.Container{
		Name:            ct.Name,
		Image:           ct.ImageRef(),
		ImagePullPolicy: ct.ImagePullPolicy,
	}
	for _, p := range ct.Ports {
		proto := p.Protocol
		if proto == "" {
			proto = corev1.ProtocolTCP
		}
		out.Ports = append(out.Ports, corev1.ContainerPort{Name: p.Name, ContainerPort: p.ContainerPort, Protocol: proto})
	}
	keys := make([]string, 0, len(ct.EnvConfig))
	for k := range ct.EnvConfig {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := ct.EnvConfig[k]
		env := corev1.EnvVar{Name: k}
		switch v.Kind {
		case podspec.EnvField:
			env.ValueFrom = &corev1.EnvVarSource{FieldRef: &corev1.ObjectFieldSelector{FieldPath: v.FieldPath}}
		default:
			env.Value = v.Value
		}
		out.Env = append(out.Env, env)
	}
	if k := ct.Kubernetes; k != nil {
		if k.SecurityContext != nil {
			out.SecurityContext = k.SecurityContext.DeepCopy()
		}
		if k.ReadinessProbe != nil {
			out.ReadinessProbe = k.ReadinessProbe.DeepCopy()
		}
		if k.LivenessProbe != nil {
			out.LivenessProbe = k.LivenessProbe.DeepCopy()
		}
	}
	return out
}

// workloadService exposes every container port under the application name.
// It returns nil when an extra Service already claims that name.
func (c *Converter) workloadService(containers []podspec.ContainerSpec, extra []podspec.K8sService) *corev1.Service {
	for _, s := range extra {
		if s.Name == c.AppName {
			return nil
		}
	}
	var ports []corev1.ServicePort
	for _, ct := range containers {
		for _, p := range ct.Ports {
			pname := p.Name
			if pname == "" {
				pname = fmt.Sprintf("port-%d", p.ContainerPort)
			}
			proto := p.Protocol
			if proto == "" {
				proto = corev1.ProtocolTCP
			}
			ports = append(ports, corev1.ServicePort{
				Name:       pname,
				Port:       p.ContainerPort,
				TargetPort: intstr.FromInt32(p.ContainerPort),
				Protocol:   proto,
			})
		}
	}
	if len(ports) == 0 {
		return nil
	}
	return &corev1.Service{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "Service"},
		ObjectMeta: c.objectMeta(c.AppName, "service"),
		Spec: corev1.ServiceSpec{
			Selector: c.selectorLabels(),
			Ports:    ports,
		},
	}
}

// descriptorHash fingerprints the rendered descriptor.
func descriptorHash(spec *podspec.PodSpec, res *podspec.K8sResources) (string, error) {
	specYAML, err := spec.YAML()
	if err != nil {
		return "", err
	}
	resYAML, err := res.YAML()
	if err != nil {
		return "", err
	}
	return ComputeContentHash(map[string]string{"podspec": string(specYAML), "resources": string(resYAML)}), nil
}

func mergeInto(dst *map[string]string, src map[string]string) {
	if len(src) == 0 {
		return
	}
	if *dst == nil {
		*dst = map[string]string{}
	}
	for k, v := range src {
		(*dst)[k] = v
	}
}
