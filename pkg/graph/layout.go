package graph

import (
	"bytes"
	"io"

	"github.com/matzehuels/bpcgraph/pkg/bpc"
	"github.com/matzehuels/bpcgraph/pkg/layout"
)

// =============================================================================
// Layout - Layout Solver Output
// =============================================================================

// Layout is a serialized layout run: the effective configuration and the
// result.
type Layout struct {
	RunID             string               `json:"runId,omitempty"`
	Config            layout.Config        `json:"config"`
	Graph             bpc.Graph            `json:"graph"`
	Positions         []layout.BoxPosition `json:"positions"`
	Iterations        int                  `json:"iterations"`
	Converged         bool                 `json:"converged"`
	TotalDisplacement float64              `json:"totalDisplacement"`
}

// FromLayout captures a layout result together with the configuration that
// produced it.
func FromLayout(res layout.Result, cfg layout.Config) Layout {
	return Layout{
		Config:            cfg,
		Graph:             res.Graph,
		Positions:         res.Positions,
		Iterations:        res.Iterations,
		Converged:         res.Converged,
		TotalDisplacement: res.TotalDisplacement,
	}
}

// Result converts back to a layout result.
func (l Layout) Result() layout.Result {
	return layout.Result{
		Graph:             l.Graph,
		Positions:         l.Positions,
		Iterations:        l.Iterations,
		Converged:         l.Converged,
		TotalDisplacement: l.TotalDisplacement,
	}
}

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, l); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalLayout deserializes JSON bytes into a Layout and validates its
// graph.
func UnmarshalLayout(data []byte) (Layout, error) {
	return ReadLayout(bytes.NewReader(data))
}

// ReadLayout decodes a Layout from an io.Reader and validates its graph.
func ReadLayout(r io.Reader) (Layout, error) {
	var l Layout
	if err := readJSON(r, &l, "layout"); err != nil {
		return Layout{}, err
	}
	if err := l.Graph.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	return writeFile(path, l)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	f, err := openFile(path)
	if err != nil {
		return Layout{}, err
	}
	defer f.Close()
	return ReadLayout(f)
}
