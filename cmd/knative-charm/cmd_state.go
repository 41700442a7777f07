package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kompox/knative-charms/config/charmenv"
	"github.com/kompox/knative-charms/domain/model"
	"github.com/kompox/knative-charms/usecase/charm"
)

func newCmdState() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or clear the stored unit state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().String("unit", "", "Unit name (default $"+charmenv.UnitNameEnvKey+" or <charm>/0)")
	cmd.AddCommand(newCmdStateShow())
	cmd.AddCommand(newCmdStateReset())
	cmd.AddCommand(newCmdStateList())
	return cmd
}

// buildStateUseCase creates a use case that only touches the state store.
func buildStateUseCase(cmd *cobra.Command) (*charm.UseCase, error) {
	env := charmenv.Load(nil)
	c, err := resolveCharm(cmd, env)
	if err != nil {
		return nil, err
	}
	state, err := buildStateRepository(cmd)
	if err != nil {
		return nil, err
	}
	unitName := flagString(cmd, "unit")
	if unitName == "" {
		unitName = env.Unit(c.Name())
	}
	return &charm.UseCase{
		Charm:     c,
		Repos:     &charm.Repos{State: state},
		Namespace: env.Namespace,
		UnitName:  unitName,
	}, nil
}

type stateView struct {
	Found      bool            `json:"found"`
	Unit       string          `json:"unit"`
	Charm      model.CharmName `json:"charm"`
	Namespace  string          `json:"namespace,omitempty"`
	Started    bool            `json:"started"`
	ConfigHash string          `json:"configHash,omitempty"`
	UpdatedAt  *time.Time      `json:"updatedAt,omitempty"`
}

func newStateView(found bool, s *model.UnitState) stateView {
	v := stateView{
		Found:      found,
		Unit:       s.UnitName,
		Charm:      s.Charm,
		Namespace:  s.Namespace,
		Started:    s.Started,
		ConfigHash: s.ConfigHash,
	}
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		v.UpdatedAt = &t
	}
	return v
}

func newCmdStateShow() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the stored state of a unit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			uc, err := buildStateUseCase(cmd)
			if err != nil {
				return err
			}
			out, err := uc.State(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(newStateView(out.Found, out.State))
		},
	}
}

func newCmdStateReset() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete the stored state so the next event resubmits the pod spec",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			uc, err := buildStateUseCase(cmd)
			if err != nil {
				return err
			}
			ctx, cleanup := withCmdRunLogger(cmd.Context(), "state.reset", uc.UnitName)
			defer func() { cleanup(err) }()
			return uc.ResetState(ctx)
		},
	}
}

func newCmdStateList() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every stored unit state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, err := buildStateUseCase(cmd)
			if err != nil {
				return err
			}
			items, err := uc.StateList(cmd.Context())
			if err != nil {
				return err
			}
			return writeStateTable(cmd.OutOrStdout(), items)
		},
	}
}

func writeStateTable(w io.Writer, items []*model.UnitState) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "UNIT\tCHARM\tNAMESPACE\tSTARTED\tCONFIG HASH\tUPDATED")
	for _, s := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\t%s\n", s.UnitName, s.Charm, s.Namespace, s.Started, s.ConfigHash, s.UpdatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}
