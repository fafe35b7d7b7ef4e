package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"filmatlas/internal/api"
	"filmatlas/internal/pipeline"
	"filmatlas/internal/runstate"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve run state and aggregates over HTTP until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.ensureLogger()
			p, err := pipeline.NewFromConfig(cfg, logger)
			if err != nil {
				return userError(err)
			}

			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			manager := runstate.NewManager(p, st, logger)
			defer manager.Close()

			if bind == "" {
				bind = cfg.Paths.APIBind
			}
			srv := api.NewServer(bind, manager, st, logger)
			runCtx := cmd.Context()
			if err := srv.Start(runCtx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s (Ctrl+C to stop)\n", srv.Addr())

			<-runCtx.Done()
			srv.Stop()
			return nil
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (defaults to paths.api_bind)")
	return cmd
}
