// migrate applies the embedded schema migrations. DATABASE_URL comes from .env or the environment.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"resume-analyzer/backend/internal/config"
	"resume-analyzer/backend/internal/db/migrate"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the auth database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newUpCmd(), newDownCmd(), newStepsCmd(), newVersionCmd())
	return root
}

func databaseURL() (string, error) {
	dsn := config.LoadDatabaseURL()
	if dsn == "" {
		return "", oops.Code("CONFIG_INVALID").Errorf("DATABASE_URL is not set; create a .env or set DATABASE_URL")
	}
	return dsn, nil
}

func newUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, "up")
		},
	}
}

func newDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Revert all migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, "down")
		},
	}
}

func run(cmd *cobra.Command, direction string) error {
	dsn, err := databaseURL()
	if err != nil {
		return err
	}
	if err := migrate.Run(dsn, direction); err != nil {
		return oops.Code("MIGRATION_FAILED").With("direction", direction).Wrap(err)
	}
	cmd.Printf("migrations %s: done\n", direction)
	return nil
}

func newStepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "steps N",
		Short: "Apply N migrations (negative N reverts)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return oops.Code("INVALID_ARGUMENT").Wrapf(err, "steps: %q is not an integer", args[0])
			}
			dsn, err := databaseURL()
			if err != nil {
				return err
			}
			if err := migrate.Steps(dsn, n); err != nil {
				return oops.Code("MIGRATION_FAILED").With("steps", n).Wrap(err)
			}
			cmd.Printf("migrated %d step(s)\n", n)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dsn, err := databaseURL()
			if err != nil {
				return err
			}
			v, dirty, err := migrate.Version(dsn)
			if err != nil {
				return oops.Code("MIGRATION_FAILED").With("operation", "version").Wrap(err)
			}
			cmd.Printf("version %d (dirty=%t)\n", v, dirty)
			return nil
		},
	}
}
