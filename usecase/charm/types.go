package charm

import (
	"io/fs"

	"github.com/kompox/knative-charms/charms"
	"github.com/kompox/knative-charms/domain"
	"github.com/kompox/knative-charms/domain/model"
)

// Repos holds repositories needed for charm use cases.
type Repos struct {
	State domain.UnitStateRepository
}

// UseCase wires one charm to the ports of the unit it runs in.
type UseCase struct {
	Charm charms.Charm
	Repos *Repos
	Unit  model.UnitPort
	// Config supplies the charm configuration.
	Config model.ConfigPort
	// Spec receives the descriptor.
	Spec model.SpecPort
	// Image resolves the charm's image resource. When nil the pinned default
	// image is deployed.
	Image model.ImagePort
	// Files overrides the charm's embedded bundled files when set.
	Files fs.FS
	// Namespace is the model namespace.
	Namespace string
	// UnitName identifies the state record.
	UnitName string
}

// Action summarises what a reconciliation did.
type Action string

const (
	// ActionApplied means the descriptor was submitted.
	ActionApplied Action = "applied"
	// ActionSkipped means the unit was already started with the same config.
	ActionSkipped Action = "skipped"
	// ActionBlocked means the configuration or image resource was rejected.
	ActionBlocked Action = "blocked"
	// ActionWaiting means the unit is not the leader.
	ActionWaiting Action = "waiting"
	// ActionIgnored means the charm does not react to the event.
	ActionIgnored Action = "ignored"
)

// ReconcileOutput reports the outcome of an event.
type ReconcileOutput struct {
	Event  model.Event  `json:"event"`
	Action Action       `json:"action"`
	Digest string       `json:"digest,omitempty"`
	Status model.Status `json:"status"`
}
