package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kompox/knative-charms/config/charmenv"
	"github.com/kompox/knative-charms/internal/logging"
)

const (
	logFormatEnvKey = "KNATIVE_CHARM_LOG_FORMAT"
	logLevelEnvKey  = "KNATIVE_CHARM_LOG_LEVEL"
)

func newRootCmd() *cobra.Command {
	var logFile *logging.LogFile

	cmd := &cobra.Command{
		Use:   "knative-charm",
		Short: "Knative Serving charms",
		Long: "Knative Serving charms (activator, controller, webhook).\n" +
			"Run as a hook by the lifecycle framework, or standalone to render and apply descriptors.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	env := charmenv.Load(nil)
	cmd.PersistentFlags().String("charm", env.Charm, "Charm to run (activator|controller|webhook) (env "+charmenv.CharmEnvKey+")")
	cmd.PersistentFlags().String("db-url", env.StateURL(), "Unit state store URL (env "+charmenv.DBURLEnvKey+") (sqlite:/path/to.db | inmem:)")
	cmd.PersistentFlags().String("log-format", "human", "Log format (human|text|json) (env "+logFormatEnvKey+")")
	cmd.PersistentFlags().String("log-level", "INFO", "Log level (DEBUG|INFO|WARN|ERROR) (env "+logLevelEnvKey+")")
	cmd.PersistentFlags().String("log-output", "-", "Log output: - for stderr, none, or a file path (relative to --log-dir; empty for a generated name)")
	cmd.PersistentFlags().String("log-dir", defaultLogDir(env), "Log directory for file output")

	cmd.PersistentPreRunE = func(c *cobra.Command, _ []string) error {
		quietKlog()

		format, _ := c.Flags().GetString("log-format")
		if v := os.Getenv(logFormatEnvKey); v != "" {
			format = v
		}
		levelStr, _ := c.Flags().GetString("log-level")
		if v := os.Getenv(logLevelEnvKey); v != "" {
			levelStr = v
		}
		level, err := logging.ParseLevel(levelStr)
		if err != nil {
			return err
		}
		output, _ := c.Flags().GetString("log-output")
		dir, _ := c.Flags().GetString("log-dir")
		lf, err := logging.NewLogFile(&logging.LogConfig{
			Output:        output,
			Dir:           dir,
			Name:          flagString(c, "charm"),
			RetentionDays: logging.DefaultRetentionDays,
		})
		if err != nil {
			return err
		}
		logFile = lf
		l, err := logging.NewWithWriter(format, level, lf.Writer())
		if err != nil {
			return err
		}
		ctx, _ := logging.WithRunID(logging.WithLogger(c.Context(), l), "command", c.Name())
		c.SetContext(ctx)
		return nil
	}
	cmd.PersistentPostRunE = func(*cobra.Command, []string) error {
		if logFile != nil {
			return logFile.Close()
		}
		return nil
	}

	cmd.AddCommand(newCmdHook())
	cmd.AddCommand(newCmdRender())
	cmd.AddCommand(newCmdApply())
	cmd.AddCommand(newCmdState())
	cmd.AddCommand(newCmdList())
	cmd.AddCommand(newCmdVersion())
	return cmd
}

func defaultLogDir(env *charmenv.Env) string {
	if env.CharmDir != "" {
		return filepath.Join(env.CharmDir, "logs")
	}
	return "logs"
}

// findFlag recursively searches parents for a flag.
func findFlag(cmd *cobra.Command, name string) *pflag.Flag {
	for c := cmd; c != nil; c = c.Parent() {
		if f := c.Flags().Lookup(name); f != nil {
			return f
		}
		if f := c.PersistentFlags().Lookup(name); f != nil {
			return f
		}
	}
	return nil
}

func flagString(cmd *cobra.Command, name string) string {
	if f := findFlag(cmd, name); f != nil {
		return f.Value.String()
	}
	return ""
}
