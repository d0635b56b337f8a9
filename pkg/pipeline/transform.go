package pipeline

import (
	"context"

	apperr "github.com/matzehuels/bpcgraph/pkg/errors"
	"github.com/matzehuels/bpcgraph/pkg/graph"
	"github.com/matzehuels/bpcgraph/pkg/transformer"
)

// Transform runs the search described by opts.Problem without caching.
//
// A run that stops short of the target is reported through the returned
// solution (Failed and Error set), not as an error. Only invalid problems
// and cancellation are returned as errors; a cancelled run still yields the
// closest graph it reached.
func Transform(ctx context.Context, opts Options) (graph.Solution, error) {
	if err := opts.ValidateForTransform(); err != nil {
		return graph.Solution{}, err
	}

	topts := opts.Problem.Options()
	topts.Logger = opts.Logger
	tr, err := transformer.New(topts)
	if err != nil {
		return graph.Solution{}, err
	}

	err = tr.SolveContext(ctx)
	sol := graph.FromTransformer(tr)
	if apperr.Is(err, apperr.ErrCodeCancelled) {
		return sol, err
	}
	return sol, nil
}
