package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/coursepath/planner/internal/domain/course"
	catalogsrc "github.com/coursepath/planner/internal/infrastructure/catalog"
	"github.com/coursepath/planner/internal/infrastructure/persistence/postgres"
)

// migrateCmd manages the PostgreSQL schema.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long: `Migrate applies pending PostgreSQL migrations. Subcommands roll back the
latest migration, print migration status, or import a catalog file into the
courses table.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		conn, err := postgres.NewConnection(ctx, postgresConfig(cfg.Database))
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer conn.Close()

		applied, err := postgres.NewMigrator(conn).Migrate(ctx)
		if err != nil {
			return err
		}
		log.Info("migrations applied", "count", applied)
		fmt.Fprintf(cmd.OutOrStdout(), "%d migration(s) applied\n", applied)
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the latest migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		conn, err := postgres.NewConnection(ctx, postgresConfig(cfg.Database))
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer conn.Close()

		if err := postgres.NewMigrator(conn).Rollback(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "rolled back latest migration")
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		conn, err := postgres.NewConnection(ctx, postgresConfig(cfg.Database))
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer conn.Close()

		migrations, err := postgres.NewMigrator(conn).Status(ctx)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		defer tw.Flush()
		fmt.Fprintln(tw, "VERSION\tNAME\tAPPLIED")
		for _, m := range migrations {
			applied := "pending"
			if m.IsApplied {
				applied = m.AppliedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(tw, "%03d\t%s\t%s\n", m.Version, m.Name, applied)
		}
		return nil
	},
}

var migrateImportCmd = &cobra.Command{
	Use:   "import-catalog [file]",
	Short: "Import a CSV or YAML catalog into the courses table",
	Long: `Import-catalog validates a catalog file (or the built-in catalog when no
file is given) and upserts it into the courses table, so catalog.source can
be set to postgres.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		cat, err := course.Load(ctx, catalogsrc.NewSource(path))
		if err != nil {
			return fmt.Errorf("failed to load catalog: %w", err)
		}

		conn, err := postgres.NewConnection(ctx, postgresConfig(cfg.Database))
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer conn.Close()

		n, err := postgres.NewCatalogRepository(conn).Import(ctx, cat)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d course(s) imported\n", n)
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
	migrateCmd.AddCommand(migrateImportCmd)
}
