package model

import (
	"fmt"
	"sort"
	"strings"
)

// Charm configuration keys.
const (
	ConfigNetworkingLayer = "networking-layer"
	ConfigDeployServing   = "deploy-serving"
	ConfigDeployEventing  = "deploy-eventing"
)

// NetworkingLayers is the allow-list for the networking-layer option.
var NetworkingLayers = []string{"ambassador", "contour", "gloo", "istio", "kong", "kourier"}

// Config is the charm configuration as delivered by the lifecycle framework.
type Config map[string]any

// String returns the string value of key, or "" when absent or not a string.
func (c Config) String(key string) string {
	s, _ := c[key].(string)
	return s
}

// Bool returns the boolean value of key, or false when absent or not a bool.
func (c Config) Bool(key string) bool {
	b, _ := c[key].(bool)
	return b
}

// Subset returns a copy holding the keys present in c. Absent keys are left
// out.
func (c Config) Subset(keys ...string) map[string]any {
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := c[k]; ok {
			out[k] = v
		}
	}
	return out
}

// Keys returns the configured keys in sorted order.
func (c Config) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValidateNetworkingLayer checks networking-layer against NetworkingLayers.
// The comparison is case-insensitive.
func ValidateNetworkingLayer(c Config) error {
	v := c.String(ConfigNetworkingLayer)
	want := strings.ToLower(v)
	for _, l := range NetworkingLayers {
		if l == want {
			return nil
		}
	}
	return fmt.Errorf("%w: invalid %s %q; must be one of %s", ErrConfigInvalid, ConfigNetworkingLayer, v, strings.Join(NetworkingLayers, ", "))
}
