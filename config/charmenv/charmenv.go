// Package charmenv reads the process environment a hook runs in.
package charmenv

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kompox/knative-charms/domain/model"
)

// Environment variable names
const (
	ModelNameEnvKey    = "JUJU_MODEL_NAME"
	UnitNameEnvKey     = "JUJU_UNIT_NAME"
	CharmDirEnvKey     = "JUJU_CHARM_DIR"
	DispatchPathEnvKey = "JUJU_DISPATCH_PATH"
	HookNameEnvKey     = "JUJU_HOOK_NAME"
	CharmEnvKey        = "KNATIVE_CHARM"
	DBURLEnvKey        = "KNATIVE_CHARM_DB_URL"
)

// StateFileName is the sqlite database kept in the charm directory.
const StateFileName = ".unit-state.db"

// Env holds the values read from the environment. Empty fields were unset.
type Env struct {
	Namespace    string // JUJU_MODEL_NAME
	UnitName     string // JUJU_UNIT_NAME
	CharmDir     string // JUJU_CHARM_DIR
	DispatchPath string // JUJU_DISPATCH_PATH
	HookName     string // JUJU_HOOK_NAME
	Charm        string // KNATIVE_CHARM
	DBURL        string // KNATIVE_CHARM_DB_URL
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Load reads the environment through lookup. A nil lookup uses os.LookupEnv.
func Load(lookup LookupFunc) *Env {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(k string) string {
		v, _ := lookup(k)
		return v
	}
	return &Env{
		Namespace:    get(ModelNameEnvKey),
		UnitName:     get(UnitNameEnvKey),
		CharmDir:     get(CharmDirEnvKey),
		DispatchPath: get(DispatchPathEnvKey),
		HookName:     get(HookNameEnvKey),
		Charm:        get(CharmEnvKey),
		DBURL:        get(DBURLEnvKey),
	}
}

// RequireNamespace returns the model namespace, which a leader needs to
// reconcile.
func (e *Env) RequireNamespace() (string, error) {
	if e.Namespace == "" {
		return "", fmt.Errorf("%w: %s is not set", model.ErrNamespaceMissing, ModelNameEnvKey)
	}
	return e.Namespace, nil
}

// Unit returns JUJU_UNIT_NAME, or "<charm>/0" when unset.
func (e *Env) Unit(charm model.CharmName) string {
	if e.UnitName != "" {
		return e.UnitName
	}
	return string(charm) + "/0"
}

// Event returns the event being dispatched. JUJU_DISPATCH_PATH wins over
// JUJU_HOOK_NAME.
func (e *Env) Event() (model.Event, error) {
	switch {
	case e.DispatchPath != "":
		return model.ParseEvent(e.DispatchPath)
	case e.HookName != "":
		return model.ParseEvent(e.HookName)
	}
	return "", fmt.Errorf("%w: neither %s nor %s is set", model.ErrEventMissing, DispatchPathEnvKey, HookNameEnvKey)
}

// StateURL returns KNATIVE_CHARM_DB_URL, else a sqlite database in the charm
// directory, else one in the working directory.
func (e *Env) StateURL() string {
	if e.DBURL != "" {
		return e.DBURL
	}
	if e.CharmDir != "" {
		return "sqlite:" + filepath.Join(e.CharmDir, StateFileName)
	}
	return "sqlite:" + StateFileName
}
