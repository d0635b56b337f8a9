package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/matzehuels/bpcgraph/pkg/bpc"
	"github.com/matzehuels/bpcgraph/pkg/buildinfo"
	apperr "github.com/matzehuels/bpcgraph/pkg/errors"
	"github.com/matzehuels/bpcgraph/pkg/graph"
	"github.com/matzehuels/bpcgraph/pkg/layout"
	"github.com/matzehuels/bpcgraph/pkg/ops"
	"github.com/matzehuels/bpcgraph/pkg/pipeline"
)

// LayoutRequest is the body of POST /v1/layout.
type LayoutRequest struct {
	Graph  bpc.Graph     `json:"graph"`
	Config layout.Config `json:"config,omitzero"`
}

// RenderRequest is the body of POST /v1/render.
type RenderRequest struct {
	Graph      bpc.Graph       `json:"graph"`
	Operations []ops.Operation `json:"operations,omitempty"`
	Scale      float64         `json:"scale,omitempty"`
	PinLabels  bool            `json:"pinLabels,omitempty"`
}

// PipelineResponse is the body returned by POST /v1/pipeline. Artifacts are
// base64 encoded.
type PipelineResponse struct {
	RunID     string             `json:"runId"`
	Solution  graph.Solution     `json:"solution"`
	Layout    *graph.Layout      `json:"layout,omitempty"`
	Artifacts map[string][]byte  `json:"artifacts"`
	Cache     pipeline.CacheInfo `json:"cache"`
}

// HealthResponse is the body returned by GET /healthz.
type HealthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

var contentTypes = map[string]string{
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatJSON: "application/json",
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{Status: "ok", Build: buildinfo.Get()})
}

func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	p, err := graph.ReadProblem(r.Body)
	if err != nil {
		respondError(w, err)
		return
	}
	refresh, err := refreshParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	runID := uuid.NewString()
	opts := pipeline.Options{Problem: p, Refresh: refresh, Logger: s.logger.With("run", runID)}
	sol, hit, err := s.runner.TransformWithCacheInfo(r.Context(), opts)
	if err != nil {
		respondError(w, err)
		return
	}
	sol.RunID = runID

	setCacheHeader(w, hit)
	respondJSON(w, http.StatusOK, sol)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req LayoutRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := req.Graph.Validate(); err != nil {
		respondError(w, apperr.Wrap(apperr.ErrCodeInvalidGraph, err, "graph"))
		return
	}
	refresh, err := refreshParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	runID := uuid.NewString()
	opts := pipeline.Options{Layout: req.Config, Refresh: refresh, Logger: s.logger.With("run", runID)}
	l, hit, err := s.runner.LayoutWithCacheInfo(r.Context(), req.Graph, opts)
	if err != nil {
		respondError(w, err)
		return
	}
	l.RunID = runID

	setCacheHeader(w, hit)
	respondJSON(w, http.StatusOK, l)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		respondError(w, err)
		return
	}

	var req RenderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := req.Graph.Validate(); err != nil {
		respondError(w, apperr.Wrap(apperr.ErrCodeInvalidGraph, err, "graph"))
		return
	}

	opts := pipeline.Options{
		Formats:   []string{format},
		Scale:     req.Scale,
		PinLabels: req.PinLabels,
		Logger:    s.logger,
	}
	artifacts, hit, err := s.runner.RenderWithCacheInfo(r.Context(), req.Graph, req.Operations, opts)
	if err != nil {
		respondError(w, err)
		return
	}

	setCacheHeader(w, hit)
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

func (s *Server) handlePipeline(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	if err := decodeJSON(r, &opts); err != nil {
		respondError(w, err)
		return
	}
	opts.Logger = s.logger

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := PipelineResponse{
		RunID:     res.RunID,
		Solution:  res.Solution,
		Artifacts: res.Artifacts,
		Cache:     res.CacheInfo,
	}
	if !opts.SkipLayout {
		resp.Layout = &res.Layout
	}
	respondJSON(w, http.StatusOK, resp)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Wrap(apperr.ErrCodeInvalidFormat, err, "decode request body")
	}
	return nil
}

func refreshParam(r *http.Request) (bool, error) {
	v := r.URL.Query().Get("refresh")
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, apperr.New(apperr.ErrCodeInvalidInput, "refresh must be a boolean, got %q", v)
	}
	return b, nil
}
