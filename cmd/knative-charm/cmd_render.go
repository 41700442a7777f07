package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kompox/knative-charms/adapters/kube"
	"github.com/kompox/knative-charms/charms"
	"github.com/kompox/knative-charms/config/charmenv"
	"github.com/kompox/knative-charms/domain/model"
	"github.com/kompox/knative-charms/usecase/charm"
)

const (
	outputPodSpec = "podspec"
	outputKube    = "kube"
)

// newCmdRender prints the descriptor a charm would submit without touching
// the lifecycle framework, the state store or a cluster.
func newCmdRender() *cobra.Command {
	var (
		output    string
		values    string
		namespace string
		image     string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the pod spec and k8s resources of a charm",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if output != outputPodSpec && output != outputKube {
				return fmt.Errorf("unsupported output %q (want %s or %s)", output, outputPodSpec, outputKube)
			}
			c, err := resolveCharm(cmd, charmenv.Load(nil))
			if err != nil {
				return err
			}
			ctx, cleanup := withCmdRunLogger(cmd.Context(), "render", string(c.Name()))
			defer func() { cleanup(err) }()

			cfg, err := loadCharmConfig(c, values)
			if err != nil {
				return err
			}
			in := &charm.RenderInput{Config: cfg}
			if image != "" {
				in.Image = &model.ImageInfo{Path: image}
			}
			uc := &charm.UseCase{Charm: c, Namespace: namespace, UnitName: string(c.Name()) + "/0"}
			out, err := uc.Render(ctx, in)
			if err != nil {
				return err
			}
			if output == outputKube {
				return writeKubeManifest(cmd.OutOrStdout(), c, namespace, out)
			}
			return writePodSpec(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputPodSpec, "Output format (podspec|kube)")
	cmd.Flags().StringVar(&values, "config", "", "YAML file of configuration values overriding the charm defaults")
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "knative-serving", "Model namespace")
	cmd.Flags().StringVar(&image, "image", "", "Image overriding the pinned default")
	return cmd
}

func writePodSpec(w io.Writer, out *charm.RenderOutput) error {
	spec, err := out.Spec.YAML()
	if err != nil {
		return err
	}
	res, err := out.Resources.YAML()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "# config digest: %s\n", out.Digest)
	fmt.Fprint(w, "---\n")
	if _, err := w.Write(spec); err != nil {
		return err
	}
	fmt.Fprint(w, "---\n")
	_, err = w.Write(res)
	return err
}

func writeKubeManifest(w io.Writer, c charms.Charm, namespace string, out *charm.RenderOutput) error {
	conv := &kube.Converter{AppName: string(c.Name()), Namespace: namespace, ConfigHash: out.Digest}
	objs, err := conv.Convert(out.Spec, out.Resources)
	if err != nil {
		return err
	}
	manifest, err := kube.BuildCleanManifest(objs)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, manifest)
	return err
}
