// Package controller builds the Knative Serving controller workload together
// with the Serving CRDs and the logging/observability config maps.
package controller

import (
	"embed"
	"fmt"
	"io/fs"

	corev1 "k8s.io/api/core/v1"
	rbacv1 "k8s.io/api/rbac/v1"

	"github.com/kompox/knative-charms/charms"
	"github.com/kompox/knative-charms/domain/model"
	"github.com/kompox/knative-charms/domain/podspec"
)

const (
	// Image is the pinned controller release image.
	Image = charms.KnativeImagePrefix + "controller@sha256:b2cd45b8a8a4747efbb24443240ac7836b1afc64207da837417862479d2e84c5"

	// Bundled files.
	CRDsFile                 = "files/serving-crds.yaml"
	LoggingExampleFile       = "files/config-logging.example"
	ObservabilityExampleFile = "files/config-observability.example"

	// Config map names handed to the components through env.
	ConfigLoggingName       = "config-logging"
	ConfigObservabilityName = "config-observability"

	containerName = "controller"
	metricsPort   = 9090
	profilingPort = 8008
)

//go:embed config.yaml metadata.yaml files
var files embed.FS

func init() {
	charms.Register(&Charm{})
}

// Charm is the controller builder.
type Charm struct{}

func (c *Charm) Name() model.CharmName { return model.CharmController }

func (c *Charm) Events() []model.Event {
	return []model.Event{model.EventInstall, model.EventConfigChanged}
}

// ConfigKeys lists the options that feed the fingerprint. deploy-serving and
// deploy-eventing only trigger a resubmission when changed.
func (c *Charm) ConfigKeys() []string {
	return []string{model.ConfigNetworkingLayer, model.ConfigDeployServing, model.ConfigDeployEventing}
}

func (c *Charm) Validate(cfg model.Config) error {
	return model.ValidateNetworkingLayer(cfg)
}

func (c *Charm) ImageResource() string { return "knative-controller-image" }

func (c *Charm) DefaultImage() string { return Image }

func (c *Charm) InstallMessage() string { return "Installing Knative..." }

func (c *Charm) Files() fs.FS { return files }

func (c *Charm) Build(in *charms.BuildInput) (*podspec.PodSpec, *podspec.K8sResources, error) {
	crdData, err := charms.ReadFile(c, in, CRDsFile)
	if err != nil {
		return nil, nil, err
	}
	crds, err := podspec.LoadCustomResourceDefinitions(crdData)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", CRDsFile, err)
	}
	loggingExample, err := charms.ReadFile(c, in, LoggingExampleFile)
	if err != nil {
		return nil, nil, err
	}
	observabilityExample, err := charms.ReadFile(c, in, ObservabilityExampleFile)
	if err != nil {
		return nil, nil, err
	}

	container := podspec.ContainerSpec{
		Name:            containerName,
		ImagePullPolicy: corev1.PullAlways,
		Ports: []podspec.ContainerPort{
			{ContainerPort: metricsPort, Name: "metrics"},
			{ContainerPort: profilingPort, Name: "profiling"},
		},
		EnvConfig: map[string]podspec.EnvValue{
			"POD_NAME":                  podspec.FieldRef("metadata.name"),
			"SYSTEM_NAMESPACE":          podspec.FieldRef("metadata.namespace"),
			"CONFIG_LOGGING_NAME":       podspec.PlainValue(ConfigLoggingName),
			"CONFIG_OBSERVABILITY_NAME": podspec.PlainValue(ConfigObservabilityName),
			"METRICS_DOMAIN":            podspec.PlainValue("knative.dev/internal/serving"),
		},
		Kubernetes: &podspec.K8sContainerSpec{
			SecurityContext: charms.RestrictedSecurityContext(),
		},
	}
	charms.ApplyImage(&container, in.Image, Image)

	spec := &podspec.PodSpec{
		Version: podspec.Version3,
		ServiceAccount: &podspec.ServiceAccountSpec{
			Roles: []podspec.Role{{
				Global: true,
				Rules: []rbacv1.PolicyRule{
					{
						APIGroups: []string{"serving.knative.dev"},
						Resources: []string{"*"},
						Verbs:     []string{"*"},
					},
					{
						APIGroups: []string{"networking.internal.knative.dev", "autoscaling.internal.knative.dev", "caching.internal.knative.dev"},
						Resources: []string{"*"},
						Verbs:     []string{"get", "list", "watch"},
					},
				},
			}},
		},
		Containers: []podspec.ContainerSpec{container},
		ConfigMaps: map[string]map[string]string{
			ConfigLoggingName:       {"_example": string(loggingExample)},
			ConfigObservabilityName: {"_example": string(observabilityExample)},
		},
	}
	resources := &podspec.K8sResources{
		KubernetesResources: podspec.KubernetesResources{
			CustomResourceDefinitions: crds,
		},
	}
	return spec, resources, nil
}
