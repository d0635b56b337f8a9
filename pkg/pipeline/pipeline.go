// Package pipeline provides the transform → layout → render pipeline for
// bpcgraph.
//
// This package implements the complete pipeline used by both the CLI and
// the HTTP server. By centralizing this logic, both entry points share
// caching, logging and instrumentation.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Transform: Search for an operation chain from the initial graph to
//     the target graph
//  2. Layout: Position the boxes of the resulting graph with the force
//     simulation
//  3. Render: Generate debug output (DOT, SVG, PNG, PDF, JSON graphics)
//
// Each stage can be run independently or as part of the complete pipeline.
// A transform that fails to reach the target is not a pipeline error: the
// closest graph found is laid out and rendered so it can be inspected.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Problem: problem,
//	    Formats: []string{pipeline.FormatSVG},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	sol, err := runner.Transform(ctx, opts)
//	l, err := runner.LayoutGraph(ctx, g, opts)
//	artifacts, err := runner.Render(ctx, g, chain, opts)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/bpcgraph/pkg/cache"
	apperr "github.com/matzehuels/bpcgraph/pkg/errors"
	"github.com/matzehuels/bpcgraph/pkg/graph"
	"github.com/matzehuels/bpcgraph/pkg/layout"
	"github.com/matzehuels/bpcgraph/pkg/render"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

// Format constants for output formats.
const (
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
)

// DefaultPNGScale is the resolution multiplier for PNG output.
const DefaultPNGScale = 2.0

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Transform options
	Problem        graph.Problem `json:"problem"`
	AdoptTargetIDs bool          `json:"adoptTargetIds,omitempty"` // Relabel a solved graph with the target's ids
	Refresh        bool          `json:"refresh,omitempty"`        // Ignore cached results

	// Layout options
	SkipLayout bool          `json:"skipLayout,omitempty"`
	Layout     layout.Config `json:"layout,omitzero"`

	// Render options
	Formats   []string `json:"formats,omitempty"`
	Scale     float64  `json:"scale,omitempty"`
	PinLabels bool     `json:"pinLabels,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies this run in logs and API responses.
	RunID string

	// Solution is the transformer outcome.
	Solution graph.Solution

	// Layout is the solved layout of the final graph, relabelled with the
	// target's ids when AdoptTargetIDs is set. Zero when SkipLayout is set.
	Layout graph.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Boxes         int
	Pins          int
	Operations    int
	TransformTime time.Duration
	LayoutTime    time.Duration
	RenderTime    time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	TransformHit bool `json:"transformHit"` // Whether the solution came from cache
	LayoutHit    bool `json:"layoutHit"`    // Whether the layout came from cache
	RenderHit    bool `json:"renderHit"`    // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return apperr.New(apperr.ErrCodeInvalidInput, "invalid format: %q (must be one of: dot, svg, png, pdf, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForTransform(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForTransform checks the problem.
func (o *Options) ValidateForTransform() error {
	o.setLogger()
	return o.Problem.Validate()
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	o.Layout.SetDefaults()
	o.setLogger()
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	return o.Layout.Validate()
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale == 0 {
		o.Scale = render.DefaultScale
	}
	o.setLogger()
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if o.Scale < 0 {
		return apperr.New(apperr.ErrCodeInvalidInput, "scale must be positive, got %v", o.Scale)
	}
	return ValidateFormats(o.Formats)
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	c := o.Layout
	return cache.LayoutKeyOpts{
		Iterations:           c.Iterations,
		SpringStiffness:      c.SpringStiffness,
		TargetLength:         c.TargetLength,
		Repulsion:            c.Repulsion,
		Damping:              c.Damping,
		StepSize:             c.StepSize,
		ConvergenceThreshold: c.ConvergenceThreshold,
		MinDistance:          c.MinDistance,
		MaxStep:              c.MaxStep,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format, chainHash string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:    format,
		Scale:     o.Scale,
		PinLabels: o.PinLabels,
		ChainHash: chainHash,
	}
}

// RenderOptions returns the DOT options for this run.
func (o *Options) RenderOptions() render.Options {
	return render.Options{Scale: o.Scale, PinLabels: o.PinLabels}
}
