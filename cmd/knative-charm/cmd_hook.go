package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kompox/knative-charms/config/charmenv"
	"github.com/kompox/knative-charms/domain/model"
	"github.com/kompox/knative-charms/internal/logging"
	"github.com/kompox/knative-charms/usecase/charm"
)

// newCmdHook returns the production entry point run by the lifecycle
// framework for every event.
func newCmdHook() *cobra.Command {
	return &cobra.Command{
		Use:   "hook [event]",
		Short: "Handle a lifecycle event (install | config-changed; others are ignored)",
		Long: "Handle a lifecycle event. The event comes from the argument, else from " +
			charmenv.DispatchPathEnvKey + " or " + charmenv.HookNameEnvKey + ".",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			env := charmenv.Load(nil)
			var ev model.Event
			if len(args) == 1 {
				ev, err = model.ParseEvent(args[0])
			} else {
				ev, err = env.Event()
			}
			if errors.Is(err, model.ErrUnknownEvent) {
				ctx := cmd.Context()
				logging.FromContext(ctx).Debug(ctx, "event ignored", "err", err)
				return nil
			}
			if err != nil {
				return err
			}
			c, err := resolveCharm(cmd, env)
			if err != nil {
				return err
			}

			ctx, cleanup := withCmdRunLogger(cmd.Context(), "hook", env.Unit(c.Name()))
			defer func() { cleanup(err) }()

			uc, err := buildHookUseCase(ctx, cmd, c, env)
			if err != nil {
				return err
			}
			out, err := uc.Dispatch(ctx, &charm.DispatchInput{Event: ev})
			if _, nsErr := env.RequireNamespace(); nsErr != nil && errors.Is(err, model.ErrNamespaceMissing) {
				err = nsErr
			}
			if err != nil {
				return fmt.Errorf("%s: %w", ev, err)
			}
			logging.FromContext(ctx).Info(ctx, "event handled", "event", ev, "action", out.Action, "status", out.Status.String())
			return nil
		},
	}
}
