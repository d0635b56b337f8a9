package graph

import (
	"bytes"
	"io"
	"slices"

	"github.com/matzehuels/bpcgraph/pkg/bpc"
	"github.com/matzehuels/bpcgraph/pkg/cost"
	apperr "github.com/matzehuels/bpcgraph/pkg/errors"
	"github.com/matzehuels/bpcgraph/pkg/ops"
	"github.com/matzehuels/bpcgraph/pkg/similarity"
	"github.com/matzehuels/bpcgraph/pkg/transformer"
)

// =============================================================================
// Problem - Transformer Input
// =============================================================================

// Problem is a serialized transformer input.
type Problem struct {
	InitialGraph      bpc.Graph    `json:"initialGraph"`
	TargetGraph       bpc.Graph    `json:"targetGraph"`
	CostConfiguration cost.Partial `json:"costConfiguration,omitzero"`

	// Operations restricts the catalog to these kinds. Empty means all
	// built-in kinds.
	Operations []ops.Kind `json:"operations,omitempty"`
	// NetworkMode is "labels" (default) or "partition".
	NetworkMode string `json:"networkMode,omitempty"`
	// MaxExpansions bounds the search. Zero means the transformer default.
	MaxExpansions int `json:"maxExpansions,omitempty"`
}

// Validate checks both graphs, the cost configuration and the search
// settings.
func (p Problem) Validate() error {
	if err := p.InitialGraph.Validate(); err != nil {
		return apperr.Wrap(apperr.ErrCodeInvalidGraph, err, "initial graph")
	}
	if err := p.TargetGraph.Validate(); err != nil {
		return apperr.Wrap(apperr.ErrCodeInvalidGraph, err, "target graph")
	}
	if _, err := cost.Resolve(p.CostConfiguration); err != nil {
		return err
	}
	for _, k := range p.Operations {
		if !slices.Contains(ops.Kinds, k) {
			return apperr.New(apperr.ErrCodeInvalidInput, "unknown operation %q", k)
		}
	}
	if _, ok := similarity.ParseNetworkMode(p.NetworkMode); !ok {
		return apperr.New(apperr.ErrCodeInvalidInput, "unknown network mode %q", p.NetworkMode)
	}
	if p.MaxExpansions < 0 {
		return apperr.New(apperr.ErrCodeInvalidInput, "maxExpansions must be >= 0, got %d", p.MaxExpansions)
	}
	return nil
}

// Options converts the problem into transformer options. Call Validate
// first; unknown network modes fall back to labels.
func (p Problem) Options() transformer.Options {
	mode, _ := similarity.ParseNetworkMode(p.NetworkMode)
	opts := transformer.Options{
		InitialGraph:      p.InitialGraph,
		TargetGraph:       p.TargetGraph,
		CostConfiguration: p.CostConfiguration,
		NetworkMode:       mode,
		MaxExpansions:     p.MaxExpansions,
	}
	if len(p.Operations) > 0 {
		opts.Catalog = ops.DefaultCatalog().Only(p.Operations...)
	}
	return opts
}

// MarshalProblem converts a problem to indented JSON bytes.
func MarshalProblem(p Problem) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadProblem decodes and validates a problem.
func ReadProblem(r io.Reader) (Problem, error) {
	var p Problem
	if err := readJSON(r, &p, "problem"); err != nil {
		return Problem{}, err
	}
	if err := p.Validate(); err != nil {
		return Problem{}, err
	}
	return p, nil
}

// UnmarshalProblem decodes and validates a problem.
func UnmarshalProblem(data []byte) (Problem, error) {
	return ReadProblem(bytes.NewReader(data))
}

// ReadProblemFile reads a problem from a JSON file.
func ReadProblemFile(path string) (Problem, error) {
	f, err := openFile(path)
	if err != nil {
		return Problem{}, err
	}
	defer f.Close()
	return ReadProblem(f)
}

// WriteProblemFile writes a problem to a JSON file.
func WriteProblemFile(p Problem, path string) error {
	return writeFile(path, p)
}
