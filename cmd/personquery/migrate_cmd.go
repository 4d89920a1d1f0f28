package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elfotec/personstore-go/personstore/schema"
)

var errUnsupportedMigrationTable = errors.New("migrations only manage the default person table")

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or drop the person table",
		Long: "Create or drop the person table.\n\n" +
			"The migrations always use the table name \"" + schema.TableName + "\". " +
			"The command fails if PERSONSTORE_TABLE names a different table.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.cfg.Table != schema.TableName {
				return fmt.Errorf(
					"%w: PERSONSTORE_TABLE is %q, migrations create %q",
					errUnsupportedMigrationTable,
					opts.cfg.Table,
					schema.TableName,
				)
			}

			db, err := opts.cfg.OpenSQLDB(opts.cfg.DSN)
			if err != nil {
				return err
			}
			defer db.Close()

			if reset {
				if err := schema.Reset(cmd.Context(), db, opts.cfg.Dialect()); err != nil {
					return err
				}

				_, err = fmt.Fprintln(cmd.OutOrStdout(), "all migrations rolled back")

				return err
			}

			versions, err := schema.Migrate(cmd.Context(), db, opts.cfg.Dialect())
			if err != nil {
				return err
			}

			if len(versions) == 0 {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return err
			}

			for _, version := range versions {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "applied migration %05d\n", version); err != nil {
					return err
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "Roll back all migrations")

	return cmd
}
