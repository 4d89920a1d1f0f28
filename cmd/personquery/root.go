package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elfotec/personstore-go/internal/config"
	"github.com/elfotec/personstore-go/personstore"
	"github.com/elfotec/personstore-go/personstore/sqlengine"
)

type rootOptions struct {
	envFiles []string
	eventual bool
	cfg      config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "personquery",
		Short:        "Query active persons",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.envFiles...)
			if err != nil {
				return err
			}

			opts.cfg = cfg

			return nil
		},
	}

	cmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", config.DefaultEnvFiles, "Env files to load if present")
	cmd.PersistentFlags().BoolVar(&opts.eventual, "eventual", false, "Read from the replica if one is configured")

	cmd.AddCommand(newListCmd(opts))
	cmd.AddCommand(newGetCmd(opts))
	cmd.AddCommand(newMigrateCmd(opts))

	return cmd
}

// withStore opens the configured store and runs fn within the configured query timeout.
func (o *rootOptions) withStore(
	cmd *cobra.Command,
	fn func(ctx context.Context, store personstore.ActiveQueries) error,
) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if o.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.QueryTimeout)
		defer cancel()
	}

	logger := o.cfg.NewLogger(cmd.ErrOrStderr())

	conn, err := o.cfg.Open(ctx, sqlengine.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("open person store: %w", err)
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			logger.Warn("failed to close person store", "error", closeErr.Error())
		}
	}()

	if o.eventual {
		ctx = personstore.WithEventualConsistency(ctx)
	}

	return fn(ctx, conn.Store)
}
