// Package webhook builds the Knative Serving admission webhook workload and
// registers its mutating and validating webhook configurations.
package webhook

import (
	"embed"
	"io/fs"

	admissionregistrationv1 "k8s.io/api/admissionregistration/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/utils/ptr"

	"github.com/kompox/knative-charms/charms"
	"github.com/kompox/knative-charms/domain/model"
	"github.com/kompox/knative-charms/domain/podspec"
)

const (
	// Image is the pinned webhook release image.
	Image = charms.KnativeImagePrefix + "webhook@sha256:d27b4495ccc304d5a921d847dd1bce82bd2664ce3e5625b57758ebad03542b5f"

	// ServiceName is the service the webhook configurations point at.
	ServiceName = "webhook"

	MutatingConfigName    = "knative-mutating-webhook-config"
	ValidatingConfigName  = "knative-validation-webhook-config"
	MutatingWebhookName   = "webhook.serving.knative.dev"
	ValidatingWebhookName = "validation.webhook.serving.knative.dev"

	containerName = "webhook"
	webhookPort   = 8443
	metricsPort   = 9090
	profilingPort = 8008
)

//go:embed config.yaml metadata.yaml
var files embed.FS

func init() {
	charms.Register(&Charm{})
}

// Charm is the webhook builder. It has no configuration keys.
type Charm struct{}

func (c *Charm) Name() model.CharmName { return model.CharmWebhook }

func (c *Charm) Events() []model.Event {
	return []model.Event{model.EventInstall, model.EventConfigChanged}
}

func (c *Charm) ConfigKeys() []string { return nil }

func (c *Charm) Validate(model.Config) error { return nil }

func (c *Charm) ImageResource() string { return "knative-webhook-image" }

func (c *Charm) DefaultImage() string { return Image }

func (c *Charm) InstallMessage() string { return "Installing Knative Webhook..." }

func (c *Charm) Files() fs.FS { return files }

func (c *Charm) Build(in *charms.BuildInput) (*podspec.PodSpec, *podspec.K8sResources, error) {
	container := podspec.ContainerSpec{
		Name:            containerName,
		ImagePullPolicy: corev1.PullAlways,
		Ports: []podspec.ContainerPort{
			{ContainerPort: metricsPort, Name: "metrics"},
			{ContainerPort: profilingPort, Name: "profiling"},
			{ContainerPort: webhookPort, Name: "https-webhook"},
		},
		EnvConfig: map[string]podspec.EnvValue{
			"POD_NAME":                  podspec.FieldRef("metadata.name"),
			"SYSTEM_NAMESPACE":          podspec.FieldRef("metadata.namespace"),
			"CONFIG_LOGGING_NAME":       podspec.Literal("config-logging"),
			"CONFIG_OBSERVABILITY_NAME": podspec.Literal("config-observability"),
			"METRICS_DOMAIN":            podspec.Literal("knative.dev/serving"),
			"WEBHOOK_PORT":              podspec.Literal("8443"),
		},
		Kubernetes: &podspec.K8sContainerSpec{
			SecurityContext: charms.RestrictedSecurityContext(),
			ReadinessProbe: &corev1.Probe{
				ProbeHandler: corev1.ProbeHandler{
					HTTPGet: charms.KubeletProbeGet(webhookPort, containerName, corev1.URISchemeHTTPS),
				},
				PeriodSeconds: 1,
			},
			LivenessProbe: &corev1.Probe{
				ProbeHandler: corev1.ProbeHandler{
					HTTPGet: charms.KubeletProbeGet(webhookPort, containerName, ""),
				},
				InitialDelaySeconds: 20,
				FailureThreshold:    6,
			},
		},
	}
	charms.ApplyImage(&container, in.Image, Image)

	clientConfig := admissionregistrationv1.WebhookClientConfig{
		Service: &admissionregistrationv1.ServiceReference{
			Name:      ServiceName,
			Namespace: in.Namespace,
		},
	}
	reviewVersions := []string{"v1", "v1beta1"}
	failurePolicy := admissionregistrationv1.Fail
	sideEffects := admissionregistrationv1.SideEffectClassNone

	spec := &podspec.PodSpec{
		Version:    podspec.Version3,
		Containers: []podspec.ContainerSpec{container},
	}
	resources := &podspec.K8sResources{
		KubernetesResources: podspec.KubernetesResources{
			Services: []podspec.K8sService{{
				Meta: podspec.Meta{Name: ServiceName},
				Spec: corev1.ServiceSpec{
					Ports: []corev1.ServicePort{
						charms.ServicePort("http-metrics", metricsPort, metricsPort),
						charms.ServicePort("http-profiling", profilingPort, profilingPort),
						charms.ServicePort("https-webhook", 443, webhookPort),
					},
					Selector: map[string]string{"role": "webhook"},
				},
			}},
			MutatingWebhookConfigurations: []podspec.K8sMutatingWebhookConfiguration{{
				Meta: podspec.Meta{Name: MutatingConfigName},
				Webhooks: []admissionregistrationv1.MutatingWebhook{{
					Name:                    MutatingWebhookName,
					ClientConfig:            clientConfig,
					AdmissionReviewVersions: reviewVersions,
					FailurePolicy:           ptr.To(failurePolicy),
					SideEffects:             ptr.To(sideEffects),
					TimeoutSeconds:          ptr.To[int32](10),
				}},
			}},
			ValidatingWebhookConfigurations: []podspec.K8sValidatingWebhookConfiguration{{
				Meta: podspec.Meta{Name: ValidatingConfigName},
				Webhooks: []admissionregistrationv1.ValidatingWebhook{{
					Name:                    ValidatingWebhookName,
					ClientConfig:            *clientConfig.DeepCopy(),
					AdmissionReviewVersions: append([]string(nil), reviewVersions...),
					FailurePolicy:           ptr.To(failurePolicy),
					SideEffects:             ptr.To(sideEffects),
					TimeoutSeconds:          ptr.To[int32](10),
				}},
			}},
		},
	}
	return spec, resources, nil
}
