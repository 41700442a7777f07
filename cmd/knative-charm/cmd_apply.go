package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kompox/knative-charms/adapters/kube"
	"github.com/kompox/knative-charms/adapters/unit"
	"github.com/kompox/knative-charms/config/charmcfg"
	"github.com/kompox/knative-charms/config/charmenv"
	"github.com/kompox/knative-charms/domain/model"
	"github.com/kompox/knative-charms/usecase/charm"
)

// newCmdApply runs one event outside the lifecycle framework and submits the
// descriptor straight to a cluster with server-side apply.
func newCmdApply() *cobra.Command {
	var (
		kubeconfig     string
		kubeContext    string
		leader         bool
		values         string
		event          string
		namespace      string
		unitName       string
		forceConflicts bool
	)
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Run an event against a cluster without the lifecycle framework",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ev, err := model.ParseEvent(event)
			if err != nil {
				return err
			}
			env := charmenv.Load(nil)
			c, err := resolveCharm(cmd, env)
			if err != nil {
				return err
			}
			if namespace == "" {
				namespace = env.Namespace
			}
			if namespace == "" {
				return fmt.Errorf("%w: use --namespace or %s", model.ErrNamespaceMissing, charmenv.ModelNameEnvKey)
			}
			if unitName == "" {
				unitName = env.Unit(c.Name())
			}

			ctx, cleanup := withCmdRunLogger(cmd.Context(), "apply", unitName)
			defer func() { cleanup(err) }()

			cfg, err := loadCharmConfig(c, values)
			if err != nil {
				return err
			}
			state, err := buildStateRepository(cmd)
			if err != nil {
				return err
			}
			kc, err := kube.NewClient(ctx, kubeconfig, &kube.Options{Context: kubeContext})
			if err != nil {
				return err
			}
			applier := kube.NewSpecApplier(kc, namespace, string(c.Name()))
			applier.ForceConflicts = forceConflicts

			uc := &charm.UseCase{
				Charm:     c,
				Repos:     &charm.Repos{State: state},
				Unit:      unit.NewLocalUnit(leader),
				Config:    charmcfg.Values(cfg),
				Spec:      applier,
				Namespace: namespace,
				UnitName:  unitName,
			}
			out, err := uc.Dispatch(ctx, &charm.DispatchInput{Event: ev})
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVar(&kubeconfig, "kubeconfig", "", "Path to kubeconfig (default: $KUBECONFIG, ~/.kube/config, then in-cluster)")
	cmd.Flags().StringVar(&kubeContext, "context", "", "Kubeconfig context (default: current context)")
	cmd.Flags().BoolVar(&leader, "leader", true, "Act as the leader unit")
	cmd.Flags().StringVar(&values, "config", "", "YAML file of configuration values overriding the charm defaults")
	cmd.Flags().StringVar(&event, "event", string(model.EventInstall), "Event to handle (install|config-changed)")
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "Model namespace (env "+charmenv.ModelNameEnvKey+")")
	cmd.Flags().StringVar(&unitName, "unit", "", "Unit name keying the stored state (default <charm>/0)")
	cmd.Flags().BoolVar(&forceConflicts, "force-conflicts", false, "Take ownership of fields managed by other appliers")
	return cmd
}
