// Package graph provides the JSON wire format for BPC graphs, transform
// problems and their solutions.
//
// This package defines the canonical serialization used for files, API
// requests and responses, and cache entries.
//
// # Architecture
//
// The package sits at the serialization boundary between the in-memory
// types and external formats:
//
//   - pkg/bpc.Graph: the graph itself (serialized as-is)
//   - [Problem]: an initial graph, a target graph and a cost configuration
//   - [Solution]: the outcome of a transformer run
//   - [Layout]: the outcome of a layout run
//
// # Graph Serialization
//
// Graphs use the field names of the data model:
//
//	{
//	  "boxes": [{"boxId": "U1", "kind": "floating", "center": {"x": 0, "y": 0}}],
//	  "pins": [{"boxId": "U1", "pinId": "1", "offset": {"x": -1, "y": 0},
//	            "color": "red", "networkId": "VCC"}]
//	}
//
// Common operations:
//
//	g, _ := graph.ReadGraphFile("board.json")   // File → Graph
//	graph.WriteGraphFile(g, "output.json")      // Graph → File
//	data, _ := graph.MarshalGraph(g)            // Graph → []byte
//	parsed, _ := graph.UnmarshalGraph(data)     // []byte → Graph
//
// Every read validates the decoded graph. Decoding failures carry the
// INVALID_FORMAT code, validation failures INVALID_GRAPH and missing files
// FILE_NOT_FOUND.
//
// # Problems and Solutions
//
//	p, _ := graph.ReadProblemFile("problem.json")
//	tr, _ := transformer.New(p.Options())
//	_ = tr.Solve()
//	data, _ := graph.MarshalSolution(graph.FromTransformer(tr))
//
// # Concurrency
//
// All functions are safe for concurrent use.
package graph
