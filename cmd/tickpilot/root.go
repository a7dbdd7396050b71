package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/nerrad567/tickpilot/internal/infrastructure/config"
)

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "tickpilot",
		Short:         "Tick-driven automation engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"config file (default $TICKPILOT_CONFIG or "+defaultConfigPath+")")

	root.AddCommand(
		newRunCmd(opts),
		newFeaturesCmd(opts),
		newTokenCmd(opts),
		newMigrateCmd(opts),
		newVersionCmd(),
	)
	return root
}

// loadConfig resolves the config path and loads it. The default path may
// be absent, in which case built-in defaults apply. An explicit path must
// exist.
func (o *rootOptions) loadConfig() (*config.Config, string, error) {
	path, explicit := o.configPath, o.configPath != ""
	if !explicit {
		if env := os.Getenv("TICKPILOT_CONFIG"); env != "" {
			path, explicit = env, true
		} else {
			path = defaultConfigPath
		}
	}

	if !explicit {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, fmt.Errorf("loading config: %w", err)
	}
	return cfg, path, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tickpilot %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
