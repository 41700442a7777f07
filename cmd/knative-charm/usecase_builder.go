package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kompox/knative-charms/adapters/hooktool"
	"github.com/kompox/knative-charms/charms"
	_ "github.com/kompox/knative-charms/charms/activator"
	_ "github.com/kompox/knative-charms/charms/controller"
	_ "github.com/kompox/knative-charms/charms/webhook"
	"github.com/kompox/knative-charms/config/charmcfg"
	"github.com/kompox/knative-charms/config/charmenv"
	"github.com/kompox/knative-charms/domain/model"
	"github.com/kompox/knative-charms/internal/logging"
	"github.com/kompox/knative-charms/usecase/charm"
)

// resolveCharm picks the charm from --charm, else from the application part
// of the unit name ("controller/0" -> controller).
func resolveCharm(cmd *cobra.Command, env *charmenv.Env) (charms.Charm, error) {
	name := flagString(cmd, "charm")
	if name == "" && env.UnitName != "" {
		name, _, _ = strings.Cut(env.UnitName, "/")
	}
	if name == "" {
		return nil, fmt.Errorf("no charm selected; use --charm or %s (one of %s)", charmenv.CharmEnvKey, charmNames())
	}
	return charms.Get(model.CharmName(name))
}

func charmNames() string {
	var names []string
	for _, n := range charms.Names() {
		names = append(names, string(n))
	}
	return strings.Join(names, ", ")
}

// buildHookUseCase wires a charm to the lifecycle framework hook tools. The
// namespace is checked by the use case once leadership is known. The image
// resource is fetched only when the deployed metadata.yaml declares it;
// otherwise the pinned image is deployed.
func buildHookUseCase(ctx context.Context, cmd *cobra.Command, c charms.Charm, env *charmenv.Env) (*charm.UseCase, error) {
	state, err := buildStateRepository(cmd)
	if err != nil {
		return nil, err
	}
	meta, err := charmcfg.LoadDeployedMetadata(env.CharmDir, c.Files())
	if err != nil {
		return nil, err
	}
	tools := hooktool.New()
	uc := &charm.UseCase{
		Charm:     c,
		Repos:     &charm.Repos{State: state},
		Unit:      tools,
		Config:    tools,
		Spec:      tools,
		Namespace: env.Namespace,
		UnitName:  env.Unit(c.Name()),
	}
	if meta.DeclaresImage(c.ImageResource()) {
		uc.Image = tools
	} else {
		logging.FromContext(ctx).Info(ctx, "image resource not declared, using pinned image", "resource", c.ImageResource(), "image", c.DefaultImage())
	}
	return uc, nil
}

// loadCharmConfig returns the charm defaults merged with the values file at
// path (optional).
func loadCharmConfig(c charms.Charm, path string) (model.Config, error) {
	f, err := charmcfg.Load(c.Files(), charmcfg.FileName)
	if err != nil {
		return nil, err
	}
	overrides := map[string]any{}
	if path != "" {
		overrides, err = charmcfg.LoadValues(path)
		if err != nil {
			return nil, err
		}
	}
	return f.Merge(overrides)
}
