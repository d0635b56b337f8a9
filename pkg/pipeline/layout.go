package pipeline

import (
	"context"

	"github.com/matzehuels/bpcgraph/pkg/bpc"
	"github.com/matzehuels/bpcgraph/pkg/graph"
	"github.com/matzehuels/bpcgraph/pkg/layout"
)

// Layout positions the boxes of g with the force simulation configured by
// opts.Layout.
func Layout(ctx context.Context, g bpc.Graph, opts Options) (graph.Layout, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return graph.Layout{}, err
	}

	s, err := layout.New(g, opts.Layout, layout.WithLogger(opts.Logger))
	if err != nil {
		return graph.Layout{}, err
	}
	res, err := s.SolveContext(ctx)
	if err != nil {
		return graph.Layout{}, err
	}

	if !res.Converged {
		opts.Logger.Warn("layout did not converge",
			"iterations", res.Iterations,
			"displacement", res.TotalDisplacement)
	}
	return graph.FromLayout(res, s.Config()), nil
}
