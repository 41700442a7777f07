// Package activator builds the Knative Serving activator workload.
package activator

import (
	"embed"
	"io/fs"

	corev1 "k8s.io/api/core/v1"

	"github.com/kompox/knative-charms/charms"
	"github.com/kompox/knative-charms/domain/model"
	"github.com/kompox/knative-charms/domain/podspec"
)

const (
	// Image is the pinned activator release image.
	Image = charms.KnativeImagePrefix + "activator@sha256:1e3db4f2eeed42d3ef03f41cc3d07c333edab92af3653a530d6d5f370da96ab6"

	// ServiceName is the extra service exposing the activator ports.
	ServiceName = "activator-service"

	containerName = "activator"
	httpPort      = 8012
	h2cPort       = 8013
	metricsPort   = 9090
	profilingPort = 8008
)

//go:embed config.yaml metadata.yaml
var files embed.FS

func init() {
	charms.Register(&Charm{})
}

// Charm is the activator builder. It has no configuration keys.
type Charm struct{}

func (c *Charm) Name() model.CharmName { return model.CharmActivator }

func (c *Charm) Events() []model.Event {
	return []model.Event{model.EventInstall, model.EventConfigChanged}
}

func (c *Charm) ConfigKeys() []string { return nil }

func (c *Charm) Validate(model.Config) error { return nil }

func (c *Charm) ImageResource() string { return "knative-activator-image" }

func (c *Charm) DefaultImage() string { return Image }

func (c *Charm) InstallMessage() string { return "Installing Knative Activator..." }

func (c *Charm) Files() fs.FS { return files }

func (c *Charm) Build(in *charms.BuildInput) (*podspec.PodSpec, *podspec.K8sResources, error) {
	container := podspec.ContainerSpec{
		Name:            containerName,
		ImagePullPolicy: corev1.PullAlways,
		Ports: []podspec.ContainerPort{
			{ContainerPort: metricsPort, Name: "metrics"},
			{ContainerPort: profilingPort, Name: "profiling"},
			{ContainerPort: httpPort, Name: "http1"},
			{ContainerPort: h2cPort, Name: "h2c"},
		},
		EnvConfig: map[string]podspec.EnvValue{
			"GOGC":                      podspec.Literal("500"),
			"POD_NAME":                  podspec.FieldRef("metadata.name"),
			"POD_IP":                    podspec.FieldRef("status.podIP"),
			"SYSTEM_NAMESPACE":          podspec.FieldRef("metadata.namespace"),
			"CONFIG_LOGGING_NAME":       podspec.Literal("config-logging"),
			"CONFIG_OBSERVABILITY_NAME": podspec.Literal("config-observability"),
			"METRICS_DOMAIN":            podspec.Literal("knative.dev/internal/serving"),
		},
		Kubernetes: &podspec.K8sContainerSpec{
			SecurityContext: charms.RestrictedSecurityContext(),
			ReadinessProbe: &corev1.Probe{
				ProbeHandler: corev1.ProbeHandler{
					HTTPGet: charms.KubeletProbeGet(httpPort, containerName, ""),
				},
				FailureThreshold: 12,
			},
			LivenessProbe: &corev1.Probe{
				ProbeHandler: corev1.ProbeHandler{
					HTTPGet: charms.KubeletProbeGet(httpPort, containerName, ""),
				},
				InitialDelaySeconds: 15,
				FailureThreshold:    12,
			},
		},
	}
	charms.ApplyImage(&container, in.Image, Image)

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
						charms.ServicePort("http", 80, httpPort),
						charms.ServicePort("http2", 81, h2cPort),
					},
					Selector: map[string]string{"app": containerName},
				},
			}},
		},
	}
	return spec, resources, nil
}
