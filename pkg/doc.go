// Package pkg provides the core libraries for bpcgraph, an edit-distance
// search and inspection toolkit for box-pin-color graphs.
//
// # Overview
//
// A box-pin-color (BPC) graph is a set of boxes carrying colored pins, with
// pins grouped into networks. bpcgraph searches for the cheapest chain of
// edit operations that turns one such graph into a graph equivalent to a
// target, lays graphs out with a spring model, and draws them for
// inspection. The pkg directory is organized into three areas:
//
//  1. Domain logic: [bpc], [ops], [cost], [similarity], [transformer], [layout], [render]
//  2. Orchestration and wire formats: [pipeline], [graph]
//  3. Infrastructure: [cache], [observability], [errors], [buildinfo]
//
// # Architecture
//
// The typical data flow:
//
//	problem.json (initial graph, target graph, costs)
//	         ↓
//	    [transformer] A* over [ops] edits, guided by [similarity]
//	         ↓
//	    solution.json (final graph + operation chain)
//	         ↓
//	    [layout] force-directed placement of floating boxes
//	         ↓
//	    [render] DOT, SVG, PNG, PDF or JSON graphics
//
// # Quick Start
//
//	import (
//	    "context"
//
//	    "github.com/matzehuels/bpcgraph/pkg/graph"
//	    "github.com/matzehuels/bpcgraph/pkg/pipeline"
//	)
//
//	p, _ := graph.ReadProblemFile("problem.json")
//	runner := pipeline.NewRunner(nil, nil, nil)
//	defer runner.Close()
//
//	res, _ := runner.Execute(context.Background(), pipeline.Options{
//	    Problem: p,
//	    Formats: []string{pipeline.FormatSVG},
//	})
//	_ = res.Artifacts[pipeline.FormatSVG]
//
// # Main Packages
//
// [bpc] defines boxes, pins, networks and graph validation. Graphs are values;
// every edit returns a new graph.
//
// [ops] is the operation catalog: adding and removing boxes and pins, moving
// pins, and changing a pin's color or network. The catalog prices each
// operation under a [cost] configuration.
//
// [similarity] matches two graphs and estimates the cost left to make them
// equivalent. The transformer uses it both as its heuristic and as its
// goal test.
//
// [transformer] runs the budgeted A* search and reports either a solved
// chain or the best graph it reached.
//
// [layout] relaxes floating box positions under spring forces until the
// total displacement falls below a threshold.
//
// [render] turns a graph into Graphviz DOT, SVG (go-graphviz), PNG and PDF
// (rsvg-convert) and a JSON graphics description.
//
// [pipeline] wires transform, layout and render behind a cache, and
// [cache] provides file, Redis, MongoDB and no-op backends.
//
// [bpc]: https://pkg.go.dev/github.com/matzehuels/bpcgraph/pkg/bpc
// [ops]: https://pkg.go.dev/github.com/matzehuels/bpcgraph/pkg/ops
// [cost]: https://pkg.go.dev/github.com/matzehuels/bpcgraph/pkg/cost
// [similarity]: https://pkg.go.dev/github.com/matzehuels/bpcgraph/pkg/similarity
// [transformer]: https://pkg.go.dev/github.com/matzehuels/bpcgraph/pkg/transformer
// [layout]: https://pkg.go.dev/github.com/matzehuels/bpcgraph/pkg/layout
// [render]: https://pkg.go.dev/github.com/matzehuels/bpcgraph/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/bpcgraph/pkg/pipeline
// [graph]: https://pkg.go.dev/github.com/matzehuels/bpcgraph/pkg/graph
// [cache]: https://pkg.go.dev/github.com/matzehuels/bpcgraph/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/bpcgraph/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/bpcgraph/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/bpcgraph/pkg/buildinfo
package pkg
