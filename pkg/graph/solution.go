package graph

import (
	"bytes"
	"io"

	"github.com/matzehuels/bpcgraph/pkg/bpc"
	apperr "github.com/matzehuels/bpcgraph/pkg/errors"
	"github.com/matzehuels/bpcgraph/pkg/ops"
	"github.com/matzehuels/bpcgraph/pkg/transformer"
)

// =============================================================================
// Solution - Transformer Output
// =============================================================================

// ErrorInfo is the serialized form of an error.
type ErrorInfo struct {
	Code    apperr.Code `json:"code"`
	Message string      `json:"message"`
}

// NewErrorInfo converts err. Errors without a code get INTERNAL_ERROR.
func NewErrorInfo(err error) *ErrorInfo {
	if err == nil {
		return nil
	}
	code := apperr.GetCode(err)
	if code == "" {
		code = apperr.ErrCodeInternal
	}
	return &ErrorInfo{Code: code, Message: apperr.UserMessage(err)}
}

// Solution is a serialized transformer outcome.
//
// When Failed is set, FinalGraph and Operations describe the closest graph
// the search reached and Error explains why it stopped.
type Solution struct {
	RunID      string          `json:"runId,omitempty"`
	Solved     bool            `json:"solved"`
	Failed     bool            `json:"failed"`
	Error      *ErrorInfo      `json:"error,omitempty"`
	GCost      float64         `json:"gCost"`
	HCost      float64         `json:"hCost"`
	Expansions int             `json:"expansions"`
	FinalGraph bpc.Graph       `json:"finalGraph"`
	Operations []ops.Operation `json:"operations"`
}

// FromTransformer captures the state of a finished transformer.
func FromTransformer(tr *transformer.Transformer) Solution {
	stats := tr.Stats()
	chain := stats.FinalOperationChain
	if chain == nil {
		chain = []ops.Operation{}
	}
	return Solution{
		Solved:     tr.Solved(),
		Failed:     tr.Failed(),
		Error:      NewErrorInfo(tr.Err()),
		GCost:      stats.GCost,
		HCost:      stats.HCost,
		Expansions: stats.Expansions,
		FinalGraph: stats.FinalGraph,
		Operations: chain,
	}
}

// MarshalSolution converts a solution to indented JSON bytes.
func MarshalSolution(s Solution) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadSolution decodes a solution.
func ReadSolution(r io.Reader) (Solution, error) {
	var s Solution
	if err := readJSON(r, &s, "solution"); err != nil {
		return Solution{}, err
	}
	if s.Solved == s.Failed {
		return Solution{}, apperr.New(apperr.ErrCodeInvalidFormat, "solution must be either solved or failed")
	}
	return s, nil
}

// UnmarshalSolution decodes a solution.
func UnmarshalSolution(data []byte) (Solution, error) {
	return ReadSolution(bytes.NewReader(data))
}

// WriteSolutionFile writes a solution to a JSON file.
func WriteSolutionFile(s Solution, path string) error {
	return writeFile(path, s)
}
