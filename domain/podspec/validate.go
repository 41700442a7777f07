package podspec

import (
	"errors"
	"fmt"

	"github.com/google/go-containerregistry/pkg/name"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid descriptor")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate checks the structural invariants of the pod spec.
func (p *PodSpec) Validate() error {
	if p == nil {
		return invalidf("pod spec is nil")
	}
	if p.Version != Version3 {
		return invalidf("unsupported pod spec version %d", p.Version)
	}
	if len(p.Containers) == 0 {
		return invalidf("no containers")
	}
	seen := map[string]struct{}{}
	for i := range p.Containers {
		c := &p.Containers[i]
		if c.Name == "" {
			return invalidf("containers[%d]: name is empty", i)
		}
		if _, dup := seen[c.Name]; dup {
			return invalidf("containers[%d]: duplicate container name %q", i, c.Name)
		}
		seen[c.Name] = struct{}{}
		if err := validateContainer(c); err != nil {
			return fmt.Errorf("containers[%d] %s: %w", i, c.Name, err)
		}
	}
	if p.ServiceAccount != nil {
		for i, r := range p.ServiceAccount.Roles {
			if len(r.Rules) == 0 {
				return invalidf("serviceAccount.roles[%d]: no rules", i)
			}
		}
	}
	return nil
}

func validateContainer(c *ContainerSpec) error {
	ref := c.ImageRef()
	if ref == "" {
		return invalidf("image is empty")
	}
	if _, err := name.ParseReference(ref); err != nil {
		return invalidf("image %q: %v", ref, err)
	}
	ports := map[string]struct{}{}
	for j, p := range c.Ports {
		if p.ContainerPort <= 0 || p.ContainerPort > 65535 {
			return invalidf("ports[%d]: containerPort %d out of range", j, p.ContainerPort)
		}
		if p.Name == "" {
			continue
		}
		if _, dup := ports[p.Name]; dup {
			return invalidf("ports[%d]: duplicate port name %q", j, p.Name)
		}
		ports[p.Name] = struct{}{}
	}
	for k, v := range c.EnvConfig {
		if k == "" {
			return invalidf("envConfig: empty variable name")
		}
		if v.Kind == EnvField && v.FieldPath == "" {
			return invalidf("envConfig %s: field path is empty", k)
		}
	}
	return nil
}

// Validate checks the auxiliary resources. A nil receiver is valid.
func (r *K8sResources) Validate() error {
	if r == nil {
		return nil
	}
	k := &r.KubernetesResources
	for i, s := range k.Services {
		if s.Name == "" {
			return invalidf("services[%d]: name is empty", i)
		}
		if len(s.Spec.Ports) == 0 {
			return invalidf("services[%d] %s: no ports", i, s.Name)
		}
	}
	for i, c := range k.CustomResourceDefinitions {
		if c.Name == "" {
			return invalidf("customResourceDefinitions[%d]: name is empty", i)
		}
		if c.Spec.Group == "" {
			return invalidf("customResourceDefinitions[%d] %s: spec.group is empty", i, c.Name)
		}
	}
	for i, w := range k.MutatingWebhookConfigurations {
		if w.Name == "" {
			return invalidf("mutatingWebhookConfigurations[%d]: name is empty", i)
		}
		if len(w.Webhooks) == 0 {
			return invalidf("mutatingWebhookConfigurations[%d] %s: no webhooks", i, w.Name)
		}
		for j, h := range w.Webhooks {
			if h.Name == "" {
				return invalidf("mutatingWebhookConfigurations[%d].webhooks[%d]: name is empty", i, j)
			}
		}
	}
	for i, w := range k.ValidatingWebhookConfigurations {
		if w.Name == "" {
			return invalidf("validatingWebhookConfigurations[%d]: name is empty", i)
		}
		if len(w.Webhooks) == 0 {
			return invalidf("validatingWebhookConfigurations[%d] %s: no webhooks", i, w.Name)
		}
		for j, h := range w.Webhooks {
			if h.Name == "" {
				return invalidf("validatingWebhookConfigurations[%d].webhooks[%d]: name is empty", i, j)
			}
		}
	}
	return nil
}
