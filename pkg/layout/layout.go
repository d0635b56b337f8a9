package layout

import (
	"context"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/bpcgraph/pkg/bpc"
	apperr "github.com/matzehuels/bpcgraph/pkg/errors"
	"github.com/matzehuels/bpcgraph/pkg/observability"
)

// goldenAngle spreads coincident box pairs over distinct directions.
const goldenAngle = 2.399963229728653

// BoxPosition is the solved center of one box.
type BoxPosition struct {
	BoxID  string    `json:"boxId"`
	Center bpc.Point `json:"center"`
	Fixed  bool      `json:"fixed,omitempty"`
}

// Result is the outcome of a layout run.
type Result struct {
	// Graph is the input graph with updated box centers. Pins are unchanged.
	Graph bpc.Graph `json:"graph"`
	// Positions lists every box in graph order.
	Positions []BoxPosition `json:"positions"`
	// Iterations is the number of steps performed.
	Iterations int `json:"iterations"`
	// Converged is true when the run stopped below the convergence threshold.
	Converged bool `json:"converged"`
	// TotalDisplacement is the summed displacement of the last step.
	TotalDisplacement float64 `json:"totalDisplacement"`
}

// spring connects two pins of one network that sit on different boxes.
type spring struct {
	a, b       int
	offA, offB bpc.Point
}

// Option configures a Solver.
type Option func(*Solver)

// WithLogger sets the logger used for progress output.
func WithLogger(l *log.Logger) Option {
	return func(s *Solver) {
		if l != nil {
			s.logger = l
		}
	}
}

// Solver positions floating boxes with a spring-repulsion simulation.
//
// Pins sharing a network pull their boxes together; every pair of boxes
// pushes apart. Fixed boxes take part in the force computation but never
// move. The simulation is deterministic for a given graph and Config.
type Solver struct {
	graph   bpc.Graph
	cfg     Config
	springs []spring
	logger  *log.Logger
}

// New validates g and cfg and prepares a solver. Zero config fields take
// their defaults. The graph is copied; later changes to g do not affect the
// solver.
func New(g bpc.Graph, cfg Config, opts ...Option) (*Solver, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Solver{
		graph:  g.Clone(),
		cfg:    cfg,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.springs = buildSprings(s.graph)
	return s, nil
}

// Config returns the effective configuration.
func (s *Solver) Config() Config { return s.cfg }

func buildSprings(g bpc.Graph) []spring {
	index := make(map[string]int, len(g.Boxes))
	for i, b := range g.Boxes {
		index[b.BoxID] = i
	}
	var springs []spring
	for _, net := range g.Networks() {
		for i := 0; i < len(net.Pins); i++ {
			for j := i + 1; j < len(net.Pins); j++ {
				p, q := net.Pins[i], net.Pins[j]
				if p.BoxID == q.BoxID {
					continue
				}
				springs = append(springs, spring{
					a: index[p.BoxID], b: index[q.BoxID],
					offA: p.Offset, offB: q.Offset,
				})
			}
		}
	}
	return springs
}

// Solve runs the simulation to completion.
func (s *Solver) Solve() Result {
	r, _ := s.SolveContext(context.Background())
	return r
}

// SolveContext runs the simulation, checking ctx between steps. On
// cancellation it returns the positions reached so far together with a
// CANCELLED error.
func (s *Solver) SolveContext(ctx context.Context) (Result, error) {
	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, len(s.graph.Boxes))
	start := time.Now()

	n := len(s.graph.Boxes)
	pos := make([]bpc.Point, n)
	vel := make([]bpc.Point, n)
	for i, b := range s.graph.Boxes {
		pos[i] = b.Center
	}

	var (
		res Result
		err error
	)
	if n == 0 {
		res.Converged = true
	}
	for res.Iterations < s.cfg.Iterations && !res.Converged && n > 0 {
		if cerr := ctx.Err(); cerr != nil {
			err = apperr.Wrap(apperr.ErrCodeCancelled, cerr, "layout cancelled after %d iterations", res.Iterations)
			break
		}
		res.TotalDisplacement = s.step(pos, vel)
		res.Iterations++
		if res.TotalDisplacement < s.cfg.ConvergenceThreshold {
			res.Converged = true
		}
	}

	res.Graph = bpc.Graph{Boxes: make([]bpc.Box, n), Pins: s.graph.Clone().Pins}
	res.Positions = make([]BoxPosition, n)
	for i, b := range s.graph.Boxes {
		b.Center = pos[i]
		res.Graph.Boxes[i] = b
		res.Positions[i] = BoxPosition{BoxID: b.BoxID, Center: pos[i], Fixed: b.IsFixed()}
	}

	s.logger.Debug("layout finished", "boxes", n, "iterations", res.Iterations, "converged", res.Converged)
	hooks.OnLayoutComplete(ctx, res.Iterations, res.Converged, time.Since(start), err)
	return res, err
}

// step advances the simulation once and returns the summed displacement.
func (s *Solver) step(pos, vel []bpc.Point) float64 {
	boxes := s.graph.Boxes
	force := make([]bpc.Point, len(pos))

	for _, sp := range s.springs {
		pa := pos[sp.a].Add(sp.offA)
		pb := pos[sp.b].Add(sp.offB)
		d := pb.Sub(pa)
		dist := d.Len()
		if dist == 0 {
			continue
		}
		f := d.Scale(s.cfg.SpringStiffness * (dist - s.cfg.TargetLength) / dist)
		force[sp.a] = force[sp.a].Add(f)
		force[sp.b] = force[sp.b].Sub(f)
	}

	for i := range pos {
		for j := i + 1; j < len(pos); j++ {
			d := pos[i].Sub(pos[j])
			dist := d.Len()
			var dir bpc.Point
			if dist == 0 {
				theta := float64(i*len(pos)+j) * goldenAngle
				dir = bpc.Point{X: math.Cos(theta), Y: math.Sin(theta)}
			} else {
				dir = d.Scale(1 / dist)
			}
			eff := math.Max(dist, s.cfg.MinDistance)
			if eff == 0 {
				continue
			}
			f := dir.Scale(s.cfg.Repulsion / (eff * eff))
			force[i] = force[i].Add(f)
			force[j] = force[j].Sub(f)
		}
	}

	var total float64
	for i, b := range boxes {
		if b.IsFixed() {
			continue
		}
		v := vel[i].Add(force[i].Scale(s.cfg.StepSize)).Scale(s.cfg.Damping)
		if l := v.Len(); l > s.cfg.MaxStep {
			v = v.Scale(s.cfg.MaxStep / l)
		}
		vel[i] = v
		pos[i] = pos[i].Add(v)
		total += v.Len()
	}
	return total
}
