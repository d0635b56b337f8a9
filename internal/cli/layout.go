package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bpcgraph/pkg/graph"
	"github.com/matzehuels/bpcgraph/pkg/layout"
	"github.com/matzehuels/bpcgraph/pkg/pipeline"
)

// layoutCommand creates the layout command for positioning boxes.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		refresh bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout [graph.json]",
		Short: "Position floating boxes with the force simulation",
		Long: `Position the floating boxes of a graph with a spring-repulsion simulation.

Pins that share a network pull their boxes together and every pair of
boxes pushes apart. Fixed boxes never move. The output is a layout.json
file holding the moved graph, the final positions and the effective
configuration. Render it with 'render'.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], opts, output, noCache, refresh)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore cached results and recompute")

	cfg := &opts.Layout
	cmd.Flags().IntVar(&cfg.Iterations, "iterations", 0, fmt.Sprintf("maximum simulation steps (default %d)", layout.DefaultIterations))
	cmd.Flags().Float64Var(&cfg.SpringStiffness, "stiffness", 0, fmt.Sprintf("spring stiffness (default %g)", layout.DefaultSpringStiffness))
	cmd.Flags().Float64Var(&cfg.TargetLength, "target-length", 0, fmt.Sprintf("spring rest length (default %g)", layout.DefaultTargetLength))
	cmd.Flags().Float64Var(&cfg.Repulsion, "repulsion", 0, fmt.Sprintf("repulsion strength (default %g)", layout.DefaultRepulsion))
	cmd.Flags().Float64Var(&cfg.Damping, "damping", 0, fmt.Sprintf("velocity damping in (0,1] (default %g)", layout.DefaultDamping))
	cmd.Flags().Float64Var(&cfg.StepSize, "step-size", 0, fmt.Sprintf("force to velocity factor (default %g)", layout.DefaultStepSize))
	cmd.Flags().Float64Var(&cfg.ConvergenceThreshold, "threshold", 0, fmt.Sprintf("convergence threshold (default %g)", layout.DefaultConvergenceThreshold))
	cmd.Flags().Float64Var(&cfg.MaxStep, "max-step", 0, fmt.Sprintf("largest move per step (default %g)", layout.DefaultMaxStep))

	return cmd
}

// runLayout loads the graph, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache, refresh bool) error {
	g, err := graph.ReadGraphFile(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	opts.Refresh = refresh

	spinner := newSpinner(ctx, fmt.Sprintf("Laying out %d boxes...", len(g.Boxes)))
	spinner.Start()

	l, cacheHit, err := runner.LayoutWithCacheInfo(ctx, g, opts)
	if err != nil {
		spinner.Fail("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		outputPath = derivedPath(input, ".layout.json")
	}
	if err := graph.WriteLayoutFile(l, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	if l.Converged {
		printSuccess("Layout converged after %d iterations", l.Iterations)
	} else {
		printWarning("Layout stopped after %d iterations without converging", l.Iterations)
	}
	printFile(outputPath)
	printStats(len(g.Boxes), len(g.Pins), -1, cacheHit)
	printNewline()
	printNextStep("Render", appName+" render "+outputPath)

	return nil
}
