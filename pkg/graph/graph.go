package graph

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/matzehuels/bpcgraph/pkg/bpc"
	apperr "github.com/matzehuels/bpcgraph/pkg/errors"
)

// =============================================================================
// Graph Serialization API
// =============================================================================

// MarshalGraph converts a graph to indented JSON bytes.
func MarshalGraph(g bpc.Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteGraphFile writes a graph to a JSON file.
// The file is created with 0644 permissions.
func WriteGraphFile(g bpc.Graph, path string) error {
	return writeFile(path, g)
}

// WriteGraph writes a graph as JSON to an io.Writer.
// Use MarshalGraph for in-memory serialization or WriteGraphFile for files.
func WriteGraph(g bpc.Graph, w io.Writer) error {
	return writeJSON(w, g)
}

// ReadGraphFile reads a JSON file and returns the decoded graph.
func ReadGraphFile(path string) (bpc.Graph, error) {
	f, err := openFile(path)
	if err != nil {
		return bpc.Graph{}, err
	}
	defer f.Close()
	return ReadGraph(f)
}

// ReadGraph decodes and validates a JSON graph from an io.Reader.
func ReadGraph(r io.Reader) (bpc.Graph, error) {
	var g bpc.Graph
	if err := readJSON(r, &g, "graph"); err != nil {
		return bpc.Graph{}, err
	}
	if err := g.Validate(); err != nil {
		return bpc.Graph{}, err
	}
	return g, nil
}

// UnmarshalGraph decodes and validates a JSON graph.
func UnmarshalGraph(data []byte) (bpc.Graph, error) {
	return ReadGraph(bytes.NewReader(data))
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return apperr.Wrap(apperr.ErrCodeInternal, err, "encode")
	}
	return nil
}

func readJSON(r io.Reader, v any, what string) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Wrap(apperr.ErrCodeInvalidFormat, err, "decode %s", what)
	}
	return nil
}

func writeFile(path string, v any) error {
	if err := apperr.ValidatePath(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return apperr.Wrap(apperr.ErrCodeInvalidPath, err, "create %s", path)
	}
	defer f.Close()
	return writeJSON(f, v)
}

func openFile(path string) (*os.File, error) {
	if err := apperr.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperr.Wrap(apperr.ErrCodeFileNotFound, err, "%s", path)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidPath, err, "open %s", path)
	}
	return f, nil
}
