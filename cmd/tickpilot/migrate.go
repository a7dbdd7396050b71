package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerrad567/tickpilot/internal/infrastructure/database"
	"github.com/nerrad567/tickpilot/migrations"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the settings database schema",
	}

	open := func(cmd *cobra.Command) (*database.DB, error) {
		cfg, _, err := root.loadConfig()
		if err != nil {
			return nil, err
		}
		db, err := database.Open(cmd.Context(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		return db, nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				db, err := open(cmd)
				if err != nil {
					return err
				}
				defer db.Close()
				if err := db.Migrate(cmd.Context(), migrations.FS); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				db, err := open(cmd)
				if err != nil {
					return err
				}
				defer db.Close()
				if err := db.MigrateDown(cmd.Context(), migrations.FS); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "rolled back one migration")
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show applied and pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				db, err := open(cmd)
				if err != nil {
					return err
				}
				defer db.Close()
				applied, pending, err := db.MigrationStatus(cmd.Context(), migrations.FS)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, m := range applied {
					fmt.Fprintf(out, "applied  %s\n", m.Version)
				}
				for _, m := range pending {
					fmt.Fprintf(out, "pending  %s %s\n", m.Version, m.Name)
				}
				return nil
			},
		},
	)
	return cmd
}
