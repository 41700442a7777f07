package podspec

import (
	"fmt"

	"sigs.k8s.io/yaml"
)

// YAML renders the pod spec in the format accepted by pod-spec-set --file.
func (p *PodSpec) YAML() ([]byte, error) {
	out, err := yaml.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal pod spec: %w", err)
	}
	return out, nil
}

// YAML renders the resources in the format accepted by pod-spec-set --k8s-resources.
func (r *K8sResources) YAML() ([]byte, error) {
	out, err := yaml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal k8s resources: %w", err)
	}
	return out, nil
}

// ParsePodSpec decodes a pod spec rendered by YAML.
func ParsePodSpec(data []byte) (*PodSpec, error) {
	var p PodSpec
	if err := yaml.UnmarshalStrict(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal pod spec: %w", err)
	}
	return &p, nil
}
