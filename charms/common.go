package charms

import (
	"fmt"
	"io/fs"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"

	"github.com/kompox/knative-charms/domain/model"
	"github.com/kompox/knative-charms/domain/podspec"
)

// KnativeImagePrefix is the registry path of the Knative Serving release images.
const KnativeImagePrefix = "gcr.io/knative-releases/knative.dev/serving/cmd/"

// ApplyImage sets the image of c, switching to imageDetails when registry
// credentials are present. An empty img.Path selects fallback.
func ApplyImage(c *podspec.ContainerSpec, img model.ImageInfo, fallback string) {
	if img.Path == "" {
		img = model.ImageInfo{Path: fallback}
	}
	if img.Username == "" && img.Password == "" {
		c.Image = img.Path
		c.ImageDetails = nil
		return
	}
	c.Image = ""
	c.ImageDetails = &podspec.ImageDetails{
		ImagePath: img.Path,
		Username:  img.Username,
		Password:  img.Password,
	}
}

// RestrictedSecurityContext is the container security context shared by the
// Knative Serving components.
func RestrictedSecurityContext() *corev1.SecurityContext {
	return &corev1.SecurityContext{
		Privileged:             ptr.To(false),
		ReadOnlyRootFilesystem: ptr.To(true),
		RunAsNonRoot:           ptr.To(true),
		Capabilities: &corev1.Capabilities{
			Drop: []corev1.Capability{"ALL"},
		},
	}
}

// KubeletProbeGet is an HTTP GET against port carrying the k-kubelet-probe
// header the Knative components recognise.
func KubeletProbeGet(port int32, component string, scheme corev1.URIScheme) *corev1.HTTPGetAction {
	return &corev1.HTTPGetAction{
		Port:   intstr.FromInt32(port),
		Scheme: scheme,
		HTTPHeaders: []corev1.HTTPHeader{{
			Name:  "k-kubelet-probe",
			Value: component,
		}},
	}
}

// ServicePort returns a TCP service port forwarding port to target.
func ServicePort(name string, port, target int32) corev1.ServicePort {
	return corev1.ServicePort{
		Name:       name,
		Port:       port,
		TargetPort: intstr.FromInt32(target),
	}
}

// ReadFile reads a bundled file, preferring in.Files over the charm's
// embedded files.
func ReadFile(c Charm, in *BuildInput, name string) ([]byte, error) {
	fsys := in.Files
	if fsys == nil {
		fsys = c.Files()
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read bundled file %s: %w", name, err)
	}
	return data, nil
}
