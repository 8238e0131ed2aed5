package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spec-kit/ticket-tracker/internal/persistence"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		db, err := persistence.Open(cmd.Context(), cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		return persistence.RunMigrations(cmd.Context(), db, logger)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		db, err := persistence.Open(cmd.Context(), cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		statuses, err := persistence.MigrationStatuses(cmd.Context(), db)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "VERSION\tSTATE\tSOURCE")
		for _, st := range statuses {
			state := "pending"
			if st.Applied {
				state = "applied"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\n", st.Version, state, st.Source)
		}
		return w.Flush()
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}
