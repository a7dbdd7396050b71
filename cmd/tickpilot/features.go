package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nerrad567/tickpilot/internal/feature"
	"github.com/nerrad567/tickpilot/internal/features"
	"github.com/nerrad567/tickpilot/internal/host"
	"github.com/nerrad567/tickpilot/internal/infrastructure/database"
	"github.com/nerrad567/tickpilot/internal/settings"
	"github.com/nerrad567/tickpilot/internal/throttle"
	"github.com/nerrad567/tickpilot/migrations"
)

// newFeaturesCmd lists the shipped features with their configured and
// persisted enabled state, without starting the engine.
func newFeaturesCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "features",
		Short: "List features and whether they will start enabled",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := root.loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			db, err := database.Open(ctx, cfg.Database)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()
			if err := db.Migrate(ctx, migrations.FS); err != nil {
				return fmt.Errorf("running migrations: %w", err)
			}

			persisted, err := settings.NewSQLiteStore(db.DB).LoadEnabled(ctx)
			if err != nil {
				return fmt.Errorf("loading feature states: %w", err)
			}

			// Constructing features has no side effects until Setup.
			list := features.New(feature.Deps{
				Scheduler: host.New(),
				Throttles: throttle.NewRegistry(),
			})

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tNAME\tTYPE\tCONFIG\tSTORED\tSTARTS")
			for _, f := range list {
				info := f.Info()
				configured := cfg.FeatureEnabled(info.Key)
				stored, ok := persisted[info.Key]
				storedText := "-"
				starts := configured
				if ok {
					storedText = onOff(stored)
					starts = stored
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					info.Key, info.Name, info.Type, onOff(configured), storedText, onOff(starts))
			}
			return w.Flush()
		},
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
