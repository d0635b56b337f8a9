package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/bpcgraph/pkg/cost"
	apperr "github.com/matzehuels/bpcgraph/pkg/errors"
	"github.com/matzehuels/bpcgraph/pkg/graph"
	"github.com/matzehuels/bpcgraph/pkg/ops"
	"github.com/matzehuels/bpcgraph/pkg/pipeline"
	"github.com/matzehuels/bpcgraph/pkg/similarity"
	"github.com/matzehuels/bpcgraph/pkg/transformer"
)

// transformOpts holds the command-line flags for the transform command.
type transformOpts struct {
	initial       string // initial graph file, used without a problem file
	target        string // target graph file, used without a problem file
	costFile      string // cost configuration file (TOML, YAML or JSON)
	operations    string // comma-separated operation kinds
	networkMode   string // labels or partition
	maxExpansions int    // search budget
	targetIDs     bool   // relabel the final graph with target ids
	output        string // solution output path
	formats       string // when set, lay out and render the final graph
	noCache       bool
	refresh       bool
	interactive   bool
}

// transformCommand creates the transform command.
func (c *CLI) transformCommand() *cobra.Command {
	var o transformOpts

	cmd := &cobra.Command{
		Use:   "transform [problem.json]",
		Short: "Search for the cheapest edit chain between two graphs",
		Long: `Search for the cheapest chain of operations that turns an initial
box-pin-color graph into a graph equivalent to the target.

The input is either a problem file holding both graphs and the cost
configuration, or two graph files passed with --initial and --target.
The solution (final graph, operation chain, costs) is written as JSON.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			p, err := loadProblem(input, o, cmd)
			if err != nil {
				return err
			}
			if input == "" {
				input = o.initial
			}
			return c.runTransform(cmd.Context(), input, p, o)
		},
	}

	cmd.Flags().StringVar(&o.initial, "initial", "", "initial graph file (instead of a problem file)")
	cmd.Flags().StringVar(&o.target, "target", "", "target graph file (instead of a problem file)")
	cmd.Flags().StringVarP(&o.costFile, "cost", "c", "", "cost configuration file (.toml, .yaml or .json)")
	cmd.Flags().StringVar(&o.operations, "operations", "", "allowed operation kinds (comma-separated, default all)")
	cmd.Flags().StringVar(&o.networkMode, "network-mode", "", "network equivalence: labels (default), partition")
	cmd.Flags().IntVar(&o.maxExpansions, "max-expansions", 0, "search budget in node expansions (0 = default)")
	cmd.Flags().BoolVar(&o.targetIDs, "target-ids", false, "relabel the solved graph with the target's ids")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "output file (default: <input>.solution.json)")
	cmd.Flags().StringVarP(&o.formats, "format", "f", "", "also lay out and render the final graph: svg, png, pdf, dot, json (comma-separated)")
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&o.refresh, "refresh", false, "ignore cached results and recompute")
	cmd.Flags().BoolVarP(&o.interactive, "interactive", "i", false, "browse the operation chain after solving")

	return cmd
}

// loadProblem builds a problem from a problem file or from --initial and
// --target. Explicitly set flags override the fields of a problem file.
func loadProblem(input string, o transformOpts, cmd *cobra.Command) (graph.Problem, error) {
	var p graph.Problem
	switch {
	case input != "" && (o.initial != "" || o.target != ""):
		return p, apperr.New(apperr.ErrCodeInvalidInput, "pass either a problem file or --initial/--target, not both")
	case input != "":
		loaded, err := graph.ReadProblemFile(input)
		if err != nil {
			return p, fmt.Errorf("load problem %s: %w", input, err)
		}
		p = loaded
	case o.initial != "" && o.target != "":
		initial, err := graph.ReadGraphFile(o.initial)
		if err != nil {
			return p, fmt.Errorf("load initial graph %s: %w", o.initial, err)
		}
		target, err := graph.ReadGraphFile(o.target)
		if err != nil {
			return p, fmt.Errorf("load target graph %s: %w", o.target, err)
		}
		p.InitialGraph, p.TargetGraph = initial, target
	default:
		return p, apperr.New(apperr.ErrCodeInvalidInput, "a problem file or both --initial and --target are required")
	}

	if o.costFile != "" {
		partial, err := cost.LoadFile(o.costFile)
		if err != nil {
			return p, fmt.Errorf("load cost configuration %s: %w", o.costFile, err)
		}
		p.CostConfiguration = partial
	}
	if o.operations != "" {
		p.Operations = parseKinds(o.operations)
	}
	if flagChanged(cmd, "network-mode") {
		p.NetworkMode = o.networkMode
	}
	if flagChanged(cmd, "max-expansions") {
		p.MaxExpansions = o.maxExpansions
	}
	return p, p.Validate()
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

// parseKinds parses a comma-separated list of operation kinds.
func parseKinds(s string) []ops.Kind {
	var kinds []ops.Kind
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			kinds = append(kinds, ops.Kind(part))
		}
	}
	return kinds
}

// runTransform solves the problem, writes the solution and optionally
// renders the final graph or opens the chain browser.
func (c *CLI) runTransform(ctx context.Context, input string, p graph.Problem, o transformOpts) error {
	runner, err := c.newRunner(o.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := pipeline.Options{
		Problem:        p,
		AdoptTargetIDs: o.targetIDs,
		Refresh:        o.refresh,
		Logger:         c.Logger,
	}
	render := o.formats != ""
	if render {
		opts.Formats = parseFormats(o.formats)
		if err := pipeline.ValidateFormats(opts.Formats); err != nil {
			return err
		}
	}

	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, fmt.Sprintf("Searching (%d boxes, %d pins)...",
		len(p.InitialGraph.Boxes), len(p.InitialGraph.Pins)))
	spinner.Start()

	var (
		sol       graph.Solution
		artifacts map[string][]byte
		cacheHit  bool
	)
	if render {
		var res *pipeline.Result
		res, err = runner.Execute(ctx, opts)
		if res != nil {
			sol, artifacts, cacheHit = res.Solution, res.Artifacts, res.CacheInfo.TransformHit
		}
	} else {
		sol, cacheHit, err = runner.TransformWithCacheInfo(ctx, opts)
	}
	if err != nil {
		if pipeline.IsCancelled(err) {
			spinner.Stop()
			printWarning("Search cancelled after %d expansions", sol.Expansions)
			return err
		}
		spinner.Fail("Transform failed")
		return fmt.Errorf("transform: %w", err)
	}
	spinner.Stop()
	prog.done("search finished", "solved", sol.Solved, "expansions", sol.Expansions, "cached", cacheHit)

	if o.targetIDs && sol.Solved {
		mode, _ := similarity.ParseNetworkMode(p.NetworkMode)
		relabeled, err := transformer.AdoptTargetIDs(sol.FinalGraph, p.TargetGraph, similarity.WithNetworkMode(mode))
		if err != nil {
			return fmt.Errorf("adopt target ids: %w", err)
		}
		sol.FinalGraph = relabeled
	}

	outputPath := o.output
	if outputPath == "" {
		outputPath = derivedPath(input, ".solution.json")
	}
	if err := graph.WriteSolutionFile(sol, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	if sol.Solved {
		printSuccess("Solved with cost %s", fmtCost(sol.GCost))
	} else {
		reason := "search stopped"
		if sol.Error != nil {
			reason = sol.Error.Message
		}
		printWarning("No equivalent graph found: %s", reason)
		printDetail("Closest graph is %s away", fmtCost(sol.HCost))
	}
	printFile(outputPath)
	printKeyValue("expansions", fmt.Sprint(sol.Expansions))
	if render {
		paths, err := writeArtifacts(artifacts, opts.Formats, input, "")
		if err != nil {
			return err
		}
		for _, path := range paths {
			printFile(path)
		}
	}
	printStats(len(sol.FinalGraph.Boxes), len(sol.FinalGraph.Pins), len(sol.Operations), cacheHit)

	if o.interactive && len(sol.Operations) > 0 {
		return browseChain(p, sol)
	}

	if !render {
		printNewline()
		printNextStep("Render", appName+" render "+outputPath)
	}
	if !sol.Solved {
		return errUnsolved
	}
	return nil
}

// errUnsolved makes the command exit non-zero after writing a failed
// solution.
var errUnsolved = errors.New("target not reached")

// browseChain opens the interactive chain browser.
func browseChain(p graph.Problem, sol graph.Solution) error {
	cfg, err := cost.Resolve(p.CostConfiguration)
	if err != nil {
		return err
	}
	m, err := NewChainModel(p.InitialGraph, sol.Operations, cfg)
	if err != nil {
		return err
	}
	printNewline()
	_, err = tea.NewProgram(m).Run()
	return err
}
