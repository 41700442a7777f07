// Package charms defines the charm builders and the registry they join.
//
// A charm turns its fixed data, the unit configuration and its bundled files
// into a desired-state descriptor. Implementations live under
// charms/<name> and register themselves from init().
package charms

import (
	"fmt"
	"io/fs"
	"sort"

	"github.com/kompox/knative-charms/domain/model"
	"github.com/kompox/knative-charms/domain/podspec"
)

// BuildInput carries everything a builder may depend on.
type BuildInput struct {
	// Namespace is the model namespace the workload is deployed into.
	Namespace string
	// Image is the resolved container image.
	Image model.ImageInfo
	// Config is the validated charm configuration.
	Config model.Config
	// Files holds the bundled files (config.yaml, files/...).
	Files fs.FS
}

// Charm builds the descriptor for one Knative Serving component.
type Charm interface {
	// Name returns the registry name (e.g., "activator").
	Name() model.CharmName

	// Events returns the lifecycle events the charm reacts to.
	Events() []model.Event

	// ConfigKeys returns the configuration keys that feed the fingerprint.
	ConfigKeys() []string

	// Validate checks the configuration before any state change.
	Validate(cfg model.Config) error

	// ImageResource names the OCI image resource of the charm.
	ImageResource() string

	// DefaultImage is the pinned image used when no image resource is attached.
	DefaultImage() string

	// InstallMessage is reported while the descriptor is being submitted.
	InstallMessage() string

	// Build returns the pod spec and auxiliary resources.
	Build(in *BuildInput) (*podspec.PodSpec, *podspec.K8sResources, error)

	// Files returns the bundled files embedded in the binary.
	Files() fs.FS
}

// Subscribes reports whether c reacts to ev.
func Subscribes(c Charm, ev model.Event) bool {
	for _, e := range c.Events() {
		if e == ev {
			return true
		}
	}
	return false
}

// registry holds registered charms by name.
var registry = map[model.CharmName]Charm{}

// Register makes a charm available by its name. Charms should call this from
// their init() function.
func Register(c Charm) {
	if _, dup := registry[c.Name()]; dup {
		panic(fmt.Sprintf("charms: duplicate registration of %q", c.Name()))
	}
	registry[c.Name()] = c
}

// Get returns the charm registered under name.
func Get(name model.CharmName) (Charm, error) {
	c, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownCharm, name)
	}
	return c, nil
}

// Names returns the registered charm names in sorted order.
func Names() []model.CharmName {
	names := make([]model.CharmName, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
