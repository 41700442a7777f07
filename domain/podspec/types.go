// Package podspec defines the typed desired-state descriptor handed to the
// orchestration layer: a version 3 pod spec plus the auxiliary Kubernetes
// resources (services, CRDs, webhook configurations) created alongside it.
//
// JSON tags follow the pod spec v3 wire format so the descriptor can be
// serialized directly for the pod-spec-set hook tool.
package podspec

import (
	admissionregistrationv1 "k8s.io/api/admissionregistration/v1"
	corev1 "k8s.io/api/core/v1"
	rbacv1 "k8s.io/api/rbac/v1"
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
)

// Version3 is the only pod spec version produced by the charms.
const Version3 = 3

// PodSpec is the workload part of the descriptor.
type PodSpec struct {
	Version        int                          `json:"version"`
	ServiceAccount *ServiceAccountSpec          `json:"serviceAccount,omitempty"`
	Containers     []ContainerSpec              `json:"containers"`
	ConfigMaps     map[string]map[string]string `json:"configMaps,omitempty"`
}

// ServiceAccountSpec grants the workload RBAC roles.
type ServiceAccountSpec struct {
	AutomountServiceAccountToken *bool  `json:"automountServiceAccountToken,omitempty"`
	Roles                        []Role `json:"roles"`
}

// Role is a namespaced Role, or a ClusterRole when Global is set.
type Role struct {
	Name   string              `json:"name,omitempty"`
	Global bool                `json:"global,omitempty"`
	Rules  []rbacv1.PolicyRule `json:"rules"`
}

// ContainerSpec describes one workload container.
type ContainerSpec struct {
	Name            string              `json:"name"`
	Image           string              `json:"image,omitempty"`
	ImageDetails    *ImageDetails       `json:"imageDetails,omitempty"`
	ImagePullPolicy corev1.PullPolicy   `json:"imagePullPolicy,omitempty"`
	Ports           []ContainerPort     `json:"ports,omitempty"`
	EnvConfig       map[string]EnvValue `json:"envConfig,omitempty"`
	Kubernetes      *K8sContainerSpec   `json:"kubernetes,omitempty"`
}

// ImageRef returns the image reference regardless of how it was supplied.
func (c *ContainerSpec) ImageRef() string {
	if c.ImageDetails != nil && c.ImageDetails.ImagePath != "" {
		return c.ImageDetails.ImagePath
	}
	return c.Image
}

// ImageDetails is used instead of Image when registry credentials are needed.
type ImageDetails struct {
	ImagePath string `json:"imagePath"`
	Username  string `json:"username,omitempty"`
	Password  string `json:"password,omitempty"`
}

type ContainerPort struct {
	ContainerPort int32           `json:"containerPort"`
	Name          string          `json:"name,omitempty"`
	Protocol      corev1.Protocol `json:"protocol,omitempty"`
}

// K8sContainerSpec holds the Kubernetes specific container attributes.
type K8sContainerSpec struct {
	SecurityContext *corev1.SecurityContext `json:"securityContext,omitempty"`
	ReadinessProbe  *corev1.Probe           `json:"readinessProbe,omitempty"`
	LivenessProbe   *corev1.Probe           `json:"livenessProbe,omitempty"`
}

// K8sResources is the side-channel set of cluster resources.
type K8sResources struct {
	KubernetesResources KubernetesResources `json:"kubernetesResources"`
}

type KubernetesResources struct {
	Services                        []K8sService                        `json:"services,omitempty"`
	CustomResourceDefinitions       []K8sCustomResourceDefinition       `json:"customResourceDefinitions,omitempty"`
	MutatingWebhookConfigurations   []K8sMutatingWebhookConfiguration   `json:"mutatingWebhookConfigurations,omitempty"`
	ValidatingWebhookConfigurations []K8sValidatingWebhookConfiguration `json:"validatingWebhookConfigurations,omitempty"`
}

// Meta is the common metadata of an auxiliary resource.
type Meta struct {
	Name        string            `json:"name"`
	Labels      map[string]string `json:"labels,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty"`
}

type K8sService struct {
	Meta
	Spec corev1.ServiceSpec `json:"spec"`
}

type K8sCustomResourceDefinition struct {
	Meta
	Spec apiextensionsv1.CustomResourceDefinitionSpec `json:"spec"`
}

type K8sMutatingWebhookConfiguration struct {
	Meta
	Webhooks []admissionregistrationv1.MutatingWebhook `json:"webhooks"`
}

type K8sValidatingWebhookConfiguration struct {
	Meta
	Webhooks []admissionregistrationv1.ValidatingWebhook `json:"webhooks"`
}

// IsEmpty reports whether no auxiliary resource is declared.
func (r *K8sResources) IsEmpty() bool {
	if r == nil {
		return true
	}
	k := r.KubernetesResources
	return len(k.Services) == 0 && len(k.CustomResourceDefinitions) == 0 &&
		len(k.MutatingWebhookConfigurations) == 0 && len(k.ValidatingWebhookConfigurations) == 0
}
