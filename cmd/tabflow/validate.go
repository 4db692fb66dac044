package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kbukum/tabflow/dag"
	"github.com/kbukum/tabflow/ops"
	"github.com/kbukum/tabflow/scheduler"
	"github.com/kbukum/tabflow/workbench"
)

type pipelineFlags struct {
	data string
	dirs []string
}

func (f *pipelineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.data, "data", "", "JSON file of input frames, {\"name\": frame}")
	cmd.Flags().StringSliceVar(&f.dirs, "dir", nil, "directories searched when the pipeline is not a file path")
}

// build loads the frames and the pipeline into a new graph.
func (f *pipelineFlags) build(name string) (*workbench.Workbench, *dag.OperationDag, error) {
	wb := workbench.New()
	if err := loadFrames(wb, f.data); err != nil {
		return nil, nil, err
	}
	doc, err := loadDocument(name, f.dirs)
	if err != nil {
		return nil, nil, err
	}
	g, err := dag.Deserialize(doc, ops.NewRegistry(wb))
	if err != nil {
		return nil, nil, err
	}
	return wb, g, nil
}

func newValidateCmd(_ *app) *cobra.Command {
	var flags pipelineFlags
	cmd := &cobra.Command{
		Use:   "validate <pipeline>",
		Short: "Load a pipeline, print the inferred shapes and run the pre-run checks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, g, err := flags.build(args[0])
			if err != nil {
				return err
			}
			if err := printShapes(cmd, g); err != nil {
				return err
			}
			reachable, err := scheduler.Validate(g)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d nodes would run\n", len(reachable))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

// printShapes writes one line per node in topological order.
func printShapes(cmd *cobra.Command, g *dag.OperationDag) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tOPERATION\tINPUTS\tOPTIONS\tOUTPUT")
	for _, id := range g.TopologicalOrder() {
		n, _ := g.Node(id)
		op := n.Operation()
		options := "set"
		switch {
		case !op.HasOptions() && op.NeedsOptions():
			options = "missing"
		case !op.NeedsOptions():
			options = "-"
		}
		output := "unknown"
		if s, known, err := g.OutputShape(id); err == nil && known {
			output = s.String()
		}
		fmt.Fprintf(w, "%d\t%s\t%v\t%s\t%s\n", id, op.Name(), g.Predecessors(id), options, output)
	}
	return w.Flush()
}
