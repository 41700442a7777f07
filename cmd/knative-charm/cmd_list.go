package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kompox/knative-charms/charms"
)

// newCmdList prints the registered charms.
func newCmdList() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the bundled charms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeCharmTable(cmd.OutOrStdout())
		},
	}
}

func writeCharmTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tEVENTS\tCONFIG\tIMAGE RESOURCE")
	for _, n := range charms.Names() {
		c, err := charms.Get(n)
		if err != nil {
			return err
		}
		var events []string
		for _, ev := range c.Events() {
			events = append(events, string(ev))
		}
		keys := strings.Join(c.ConfigKeys(), ",")
		if keys == "" {
			keys = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", n, strings.Join(events, ","), keys, c.ImageResource())
	}
	return tw.Flush()
}
