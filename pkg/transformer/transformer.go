// Package transformer finds a low-cost chain of edit operations that turns one
// BPC graph into another.
//
// The search is A* over graphs. Each node holds a graph, the operation chain
// that produced it from the initial graph, the accumulated cost g and the
// [similarity.Distance] estimate h to the target. The frontier is ordered by
// f = g + h, ties broken by lower h and then by creation order, so runs are
// fully reproducible.
//
// Successors are not drawn from the whole operation space, which is infinite
// because pins may move to any offset. Instead the estimator's matching
// tells the search which attributes still differ from the target, and only
// operations that close one of those gaps are proposed:
//
//   - color mismatch: change_pin_color to the target color
//   - offset mismatch: move_pin to the target offset
//   - network mismatch: change_pin_network to the target network
//   - missing or extra pins and boxes: add_pin, remove_pin, add_box, remove_box
//
// Proposals whose kind is not registered in the [ops.Catalog] are dropped,
// which is how restricted catalogs make targets unreachable.
//
// The heuristic is not proven admissible, so a solved chain is the cheapest
// one found, not necessarily the cheapest one possible.
//
// # Usage
//
//	tr, err := transformer.New(transformer.Options{
//	    InitialGraph: initial,
//	    TargetGraph:  target,
//	    CostConfiguration: cost.Partial{
//	        CostPerUnitDistanceMovingPin: cost.Float(0.1),
//	    },
//	})
//	if err != nil {
//	    return err // malformed input
//	}
//	if err := tr.Solve(); err != nil {
//	    // tr.Failed() is true; tr.Stats() holds the closest graph reached
//	}
//	chain := tr.Stats().FinalOperationChain
package transformer

import (
	"context"
	"errors"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/bpcgraph/pkg/bpc"
	"github.com/matzehuels/bpcgraph/pkg/cost"
	apperr "github.com/matzehuels/bpcgraph/pkg/errors"
	"github.com/matzehuels/bpcgraph/pkg/observability"
	"github.com/matzehuels/bpcgraph/pkg/ops"
	"github.com/matzehuels/bpcgraph/pkg/similarity"
)

// DefaultMaxExpansions bounds the number of nodes a run may expand.
const DefaultMaxExpansions = 10000

// progressInterval is how often, in expansions, progress is logged at debug
// level.
const progressInterval = 1000

var (
	// ErrUnreachable means the frontier ran empty before the target was
	// reached. This happens when the catalog lacks an operation the target
	// needs.
	ErrUnreachable = errors.New("target unreachable")

	// ErrBudgetExceeded means the run expanded MaxExpansions nodes without
	// reaching the target.
	ErrBudgetExceeded = errors.New("expansion budget exceeded")
)

// Options configures a [Transformer].
type Options struct {
	// InitialGraph is the graph to transform. Required to be valid.
	InitialGraph bpc.Graph
	// TargetGraph is the graph to reach. Required to be valid.
	TargetGraph bpc.Graph
	// CostConfiguration is merged over the defaults by [cost.Resolve].
	CostConfiguration cost.Partial
	// Catalog supplies the operations. Nil means [ops.DefaultCatalog].
	Catalog *ops.Catalog
	// NetworkMode selects how networks are compared. The zero value compares
	// network ids literally.
	NetworkMode similarity.NetworkMode
	// MaxExpansions bounds the search. Zero means DefaultMaxExpansions.
	MaxExpansions int
	// Logger receives progress messages. Nil discards them.
	Logger *log.Logger
}

// Stats describes the outcome of a run.
//
// After a successful run FinalGraph is equivalent to the target and
// FinalOperationChain turns the initial graph into FinalGraph at cost GCost.
// After a failed run they describe the best node reached: the one with the
// lowest estimate, then the lowest cost, then the earliest.
type Stats struct {
	FinalGraph          bpc.Graph
	FinalOperationChain []ops.Operation
	GCost               float64
	// HCost is the estimate left at the final node; zero when solved.
	HCost      float64
	Expansions int
	Generated  int
	Duration   time.Duration
}

type status int

const (
	pending status = iota
	solved
	failed
)

// Transformer searches for an operation chain from an initial graph to a
// target graph.
//
// A Transformer moves from pending to exactly one terminal state (solved or
// failed) during its first Solve call and is immutable afterwards. It is not
// safe for concurrent use.
type Transformer struct {
	initial       bpc.Graph
	target        bpc.Graph
	cfg           cost.Config
	catalog       *ops.Catalog
	mode          similarity.NetworkMode
	maxExpansions int
	logger        *log.Logger

	status status
	err    error
	stats  Stats
}

// New validates the inputs and returns a pending Transformer. Malformed
// graphs yield INVALID_GRAPH errors and bad costs INVALID_CONFIG errors.
func New(opts Options) (*Transformer, error) {
	if err := opts.InitialGraph.Validate(); err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidGraph, err, "initial graph")
	}
	if err := opts.TargetGraph.Validate(); err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidGraph, err, "target graph")
	}
	cfg, err := cost.Resolve(opts.CostConfiguration)
	if err != nil {
		return nil, err
	}
	if opts.MaxExpansions < 0 {
		return nil, apperr.New(apperr.ErrCodeInvalidConfig, "max expansions must be >= 0, got %d", opts.MaxExpansions)
	}
	if opts.NetworkMode != similarity.NetworkLabels && opts.NetworkMode != similarity.NetworkPartition {
		return nil, apperr.New(apperr.ErrCodeInvalidConfig, "unknown network mode %d", opts.NetworkMode)
	}

	t := &Transformer{
		initial:       opts.InitialGraph.Clone(),
		target:        opts.TargetGraph.Clone(),
		cfg:           cfg,
		catalog:       opts.Catalog,
		mode:          opts.NetworkMode,
		maxExpansions: opts.MaxExpansions,
		logger:        opts.Logger,
	}
	if t.catalog == nil {
		t.catalog = ops.DefaultCatalog()
	}
	if t.maxExpansions == 0 {
		t.maxExpansions = DefaultMaxExpansions
	}
	if t.logger == nil {
		t.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return t, nil
}

// Solved reports whether the run reached the target.
func (t *Transformer) Solved() bool { return t.status == solved }

// Failed reports whether the run ended without reaching the target.
func (t *Transformer) Failed() bool { return t.status == failed }

// Err returns the failure reason, or nil unless Failed.
func (t *Transformer) Err() error { return t.err }

// CostConfiguration returns the resolved cost configuration.
func (t *Transformer) CostConfiguration() cost.Config { return t.cfg }

// Stats returns the run statistics. The chain is a copy.
func (t *Transformer) Stats() Stats {
	s := t.stats
	s.FinalOperationChain = slices.Clone(t.stats.FinalOperationChain)
	return s
}

// Solve runs the search to completion. It is equivalent to
// SolveContext(context.Background()).
func (t *Transformer) Solve() error {
	return t.SolveContext(context.Background())
}

// SolveContext runs the search until the target is reached, the frontier is
// exhausted, the expansion budget is spent or ctx is done. It returns the
// failure reason, which is also available from Err.
//
// Calling SolveContext after the run has finished does nothing and returns
// the same result.
func (t *Transformer) SolveContext(ctx context.Context) error {
	if t.status != pending {
		return t.err
	}

	start := time.Now()
	observability.Search().OnSearchStart(ctx, len(t.initial.Boxes), len(t.initial.Pins))
	t.search(ctx)
	t.stats.Duration = time.Since(start)

	observability.Search().OnSearchComplete(ctx, observability.SearchOutcome{
		Solved:     t.Solved(),
		Expansions: t.stats.Expansions,
		Generated:  t.stats.Generated,
		GCost:      t.stats.GCost,
		ChainLen:   len(t.stats.FinalOperationChain),
		Duration:   t.stats.Duration,
		Err:        t.err,
	})

	if t.Solved() {
		t.logger.Info("transform solved",
			"operations", len(t.stats.FinalOperationChain),
			"gcost", t.stats.GCost,
			"expansions", t.stats.Expansions,
			"duration", t.stats.Duration)
	} else {
		t.logger.Warn("transform failed",
			"err", t.err,
			"hcost", t.stats.HCost,
			"expansions", t.stats.Expansions,
			"duration", t.stats.Duration)
	}
	return t.err
}

func (t *Transformer) estimate(g bpc.Graph) similarity.Result {
	return similarity.Distance(g, t.target, t.cfg, similarity.WithNetworkMode(t.mode))
}

func (t *Transformer) search(ctx context.Context) {
	est := t.estimate(t.initial)
	root := &node{
		graph: t.initial,
		sig:   t.initial.Signature(),
		h:     est.Distance,
		est:   est,
	}

	var (
		open  frontier
		best  = map[string]float64{root.sig: 0}
		seq   = 1
		found *node
	)
	open.push(root)

	for open.Len() > 0 {
		if err := ctx.Err(); err != nil {
			t.fail(found, apperr.Wrap(apperr.ErrCodeCancelled, err, "search cancelled after %d expansions", t.stats.Expansions))
			return
		}

		n := open.pop()
		if n.g > best[n.sig]+epsilon {
			continue // superseded by a cheaper path
		}
		if better(n, found) {
			found = n
		}
		if n.est.Equivalent() {
			t.succeed(n)
			return
		}
		if t.stats.Expansions >= t.maxExpansions {
			t.fail(found, apperr.Wrap(apperr.ErrCodeBudgetExceeded, ErrBudgetExceeded, "%d expansions", t.maxExpansions))
			return
		}

		t.stats.Expansions++
		if t.stats.Expansions%progressInterval == 0 {
			t.logger.Debug("searching",
				"expansions", t.stats.Expansions,
				"frontier", open.Len(),
				"best_h", found.h)
		}

		for _, op := range t.propose(n.graph, n.est) {
			if !t.catalog.Applicable(n.graph, op) {
				continue
			}
			g := n.g + t.catalog.Cost(n.graph, op, t.cfg)
			next := t.catalog.Apply(n.graph, op)
			sig := next.Signature()
			if prev, seen := best[sig]; seen && g >= prev-epsilon {
				continue
			}
			best[sig] = g
			open.push(n.child(next, sig, op, g, t.estimate(next), seq))
			seq++
			t.stats.Generated++
		}
	}

	t.fail(found, apperr.Wrap(apperr.ErrCodeUnreachable, ErrUnreachable, "frontier exhausted after %d expansions", t.stats.Expansions))
}

func (t *Transformer) succeed(n *node) {
	t.status = solved
	t.record(n)
}

func (t *Transformer) fail(n *node, err error) {
	t.status = failed
	t.err = err
	if n != nil {
		t.record(n)
	} else {
		t.stats.FinalGraph = t.initial
	}
}

func (t *Transformer) record(n *node) {
	t.stats.FinalGraph = n.graph
	t.stats.FinalOperationChain = n.chain
	t.stats.GCost = n.g
	t.stats.HCost = n.h
}
