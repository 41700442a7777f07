package model

import (
	"fmt"
	"path"
	"strings"
)

// CharmName identifies one of the bundled charms.
type CharmName string

const (
	CharmActivator  CharmName = "activator"
	CharmController CharmName = "controller"
	CharmWebhook    CharmName = "webhook"
)

// Event is a lifecycle event delivered by the lifecycle framework.
type Event string

const (
	EventInstall       Event = "install"
	EventConfigChanged Event = "config-changed"
)

// ParseEvent accepts either a bare hook name ("install") or a dispatch path
// ("hooks/install") and returns the matching Event.
func ParseEvent(s string) (Event, error) {
	name := path.Base(strings.TrimSpace(s))
	switch Event(name) {
	case EventInstall, EventConfigChanged:
		return Event(name), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEvent, s)
}
