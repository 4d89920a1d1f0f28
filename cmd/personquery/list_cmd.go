package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elfotec/personstore-go/personstore"
)

const (
	outputJSON  = "json"
	outputTable = "table"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	var (
		page   int
		size   int
		output string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of active persons ordered by id",
		Args:  cobra.NoArgs,
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return validateOutput(output)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withStore(cmd, func(ctx context.Context, store personstore.ActiveQueries) error {
				result, err := store.ListActive(ctx, page, size)
				if err != nil {
					return err
				}

				if output == outputTable {
					return writePageTable(cmd.OutOrStdout(), result)
				}

				return writeJSON(cmd.OutOrStdout(), newPageOutput(result))
			})
		},
	}

	cmd.Flags().IntVar(&page, "page", 0, "Zero-based page number")
	cmd.Flags().IntVar(&size, "size", 20, "Page size")
	cmd.Flags().StringVarP(&output, "output", "o", outputJSON, "Output format: json or table")

	return cmd
}

func validateOutput(output string) error {
	switch output {
	case outputJSON, outputTable:
		return nil
	default:
		return fmt.Errorf("unsupported --output %q, want json or table", output)
	}
}
