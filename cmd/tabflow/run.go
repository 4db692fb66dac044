package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/tabflow/logger"
	"github.com/kbukum/tabflow/scheduler"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		flags pipelineFlags
		out   string
	)
	cmd := &cobra.Command{
		Use:   "run <pipeline>",
		Short: "Run a pipeline once and print the run summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, g, err := flags.build(args[0])
			if err != nil {
				return err
			}

			progress := scheduler.ListenerFuncs{
				OnNodeFailed: func(id int, f scheduler.Fault) {
					a.log.Warn("node failed", logger.Fields(logger.FieldNode, id, logger.FieldOperation, f.Operation, "kind", f.Kind))
				},
			}
			h := scheduler.New(g, a.schedulerOptions(progress)...)
			summary, err := h.Run(cmd.Context())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(summary); err != nil {
				return err
			}
			if out != "" {
				data, err := json.MarshalIndent(wb.Snapshot(), "", "  ")
				if err != nil {
					return err
				}
				if err := os.WriteFile(out, data, 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", out, err)
				}
			}
			return summary.Err()
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&out, "out", "", "write every workbench frame to this JSON file after the run")
	return cmd
}
