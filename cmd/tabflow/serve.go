package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/tabflow/api"
	"github.com/kbukum/tabflow/logger"
	"github.com/kbukum/tabflow/workbench"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		flags    pipelineFlags
		pipeline string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API over one pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			wb := workbench.New()
			if err := loadFrames(wb, flags.data); err != nil {
				return err
			}
			p := api.NewPipeline(wb, a.schedulerOptions()...)
			if pipeline != "" {
				doc, err := loadDocument(pipeline, flags.dirs)
				if err != nil {
					return err
				}
				if err := p.Load(doc); err != nil {
					return err
				}
			}

			srv := api.New(a.cfg.Server, p,
				api.WithLogger(logger.Get("api")),
				api.WithMetrics(a.providers.Metrics),
				api.WithService(a.cfg.Name, a.cfg.Version),
			)
			if err := srv.Start(ctx); err != nil {
				return err
			}
			waitForSignal(ctx, a.log)
			return srv.Stop(ctx)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&pipeline, "pipeline", "", "pipeline loaded at startup")
	return cmd
}
