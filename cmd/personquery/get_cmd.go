package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/elfotec/personstore-go/personstore"
)

var errPersonNotFound = errors.New("active person not found")

func newGetCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one active person",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return validateOutput(output)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", args[0], err)
			}

			return opts.withStore(cmd, func(ctx context.Context, store personstore.ActiveQueries) error {
				person, found, err := store.GetActiveByID(ctx, id)
				if err != nil {
					return err
				}

				if !found {
					return fmt.Errorf("%w: %d", errPersonNotFound, id)
				}

				if output == outputTable {
					return writePersonsTable(cmd.OutOrStdout(), []personstore.Person{person})
				}

				return writeJSON(cmd.OutOrStdout(), person)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputJSON, "Output format: json or table")

	return cmd
}
