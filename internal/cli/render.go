package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bpcgraph/pkg/bpc"
	apperr "github.com/matzehuels/bpcgraph/pkg/errors"
	"github.com/matzehuels/bpcgraph/pkg/graph"
	"github.com/matzehuels/bpcgraph/pkg/ops"
	"github.com/matzehuels/bpcgraph/pkg/pipeline"
)

// Input kinds accepted by the render command.
const (
	inputGraph    = "graph"
	inputLayout   = "layout"
	inputSolution = "solution"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output    string  // output file (single format) or base path (multiple)
	formats   string  // comma-separated output formats
	scale     float64 // graph units to inches in DOT output
	pinLabels bool    // draw box/pin labels
	layout    bool    // run the force layout before drawing
	noCache   bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var o renderOpts

	cmd := &cobra.Command{
		Use:   "render [graph.json | layout.json | solution.json]",
		Short: "Draw a graph for inspection",
		Long: `Draw a graph as DOT, SVG, PNG, PDF or a JSON graphics description.

The input may be a graph, a layout (produced by 'layout') or a solution
(produced by 'transform'). For solutions the final graph is drawn and the
operation chain is listed above it in the JSON graphics output.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats := parseFormats(o.formats)
			if err := pipeline.ValidateFormats(formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], formats, o)
		},
	}

	cmd.Flags().StringVarP(&o.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&o.formats, "format", "f", "", "output format(s): svg (default), png, pdf, dot, json (comma-separated)")
	cmd.Flags().Float64Var(&o.scale, "scale", 0, "inches per graph unit (default 1)")
	cmd.Flags().BoolVar(&o.pinLabels, "pin-labels", false, "label every pin with box/pin")
	cmd.Flags().BoolVar(&o.layout, "layout", false, "run the force layout before drawing")
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "disable caching")

	return cmd
}

// renderInput is a graph to draw together with the chain that produced it.
type renderInput struct {
	kind  string
	graph bpc.Graph
	chain []ops.Operation
}

// readRenderInput loads a graph, layout or solution file, telling them
// apart by their top-level keys.
func readRenderInput(path string) (renderInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return renderInput{}, apperr.Wrap(apperr.ErrCodeFileNotFound, err, "%s", path)
		}
		return renderInput{}, err
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return renderInput{}, apperr.Wrap(apperr.ErrCodeInvalidFormat, err, "decode %s", path)
	}

	has := func(key string) bool {
		_, ok := keys[key]
		return ok
	}
	switch {
	case has("positions"):
		l, err := graph.UnmarshalLayout(data)
		if err != nil {
			return renderInput{}, err
		}
		return renderInput{kind: inputLayout, graph: l.Graph}, nil
	case has("finalGraph"):
		s, err := graph.UnmarshalSolution(data)
		if err != nil {
			return renderInput{}, err
		}
		if err := s.FinalGraph.Validate(); err != nil {
			return renderInput{}, apperr.Wrap(apperr.ErrCodeInvalidGraph, err, "final graph")
		}
		return renderInput{kind: inputSolution, graph: s.FinalGraph, chain: s.Operations}, nil
	case has("boxes") || has("pins"):
		g, err := graph.UnmarshalGraph(data)
		if err != nil {
			return renderInput{}, err
		}
		return renderInput{kind: inputGraph, graph: g}, nil
	}
	return renderInput{}, apperr.New(apperr.ErrCodeInvalidFormat, "%s is not a graph, layout or solution", path)
}

// runRender loads the input and writes one artifact per format.
func (c *CLI) runRender(ctx context.Context, input string, formats []string, o renderOpts) error {
	in, err := readRenderInput(input)
	if err != nil {
		return fmt.Errorf("load %s: %w", input, err)
	}
	c.Logger.Debug("loaded render input", "kind", in.kind, "boxes", len(in.graph.Boxes), "pins", len(in.graph.Pins))

	runner, err := c.newRunner(o.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := pipeline.Options{
		Formats:   formats,
		Scale:     o.scale,
		PinLabels: o.pinLabels,
		Logger:    c.Logger,
	}

	spinner := newSpinner(ctx, fmt.Sprintf("Rendering %s...", in.kind))
	spinner.Start()

	g := in.graph
	if o.layout && in.kind != inputLayout {
		spinner.Update("Computing layout...")
		l, err := runner.LayoutGraph(ctx, g, opts)
		if err != nil {
			spinner.Fail("Layout failed")
			return fmt.Errorf("layout: %w", err)
		}
		g = l.Graph
		spinner.Update(fmt.Sprintf("Rendering %s...", in.kind))
	}

	artifacts, cacheHit, err := runner.RenderWithCacheInfo(ctx, g, in.chain, opts)
	if err != nil {
		spinner.Fail("Render failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()

	paths, err := writeArtifacts(artifacts, formats, input, o.output)
	if err != nil {
		return err
	}
	printSuccess("Rendered %s", in.kind)
	for _, path := range paths {
		printFile(path)
	}
	opCount := -1
	if in.kind == inputSolution {
		opCount = len(in.chain)
	}
	printStats(len(g.Boxes), len(g.Pins), opCount, cacheHit)
	return nil
}

// basePath derives the base output path from the output and input paths.
// A known format extension on output is stripped.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// writeArtifacts writes each format to <base>.<format> and returns the
// written paths in format order. A single format with an explicit output
// path is written to that path as is. JSON graphics go to
// <base>.graphics.json so they never overwrite a JSON input.
func writeArtifacts(artifacts map[string][]byte, formats []string, input, output string) ([]string, error) {
	var unique []string
	for _, f := range formats {
		if !slices.Contains(unique, f) {
			unique = append(unique, f)
		}
	}
	base := basePath(output, input)

	var paths []string
	for _, format := range unique {
		data, ok := artifacts[format]
		if !ok {
			return paths, apperr.New(apperr.ErrCodeInternal, "renderer produced no %s output", format)
		}
		path := base + "." + format
		if format == pipeline.FormatJSON {
			path = base + ".graphics.json"
		}
		if len(unique) == 1 && output != "" {
			path = output
		}
		if slices.Contains(paths, path) {
			continue
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
