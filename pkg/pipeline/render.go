package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/bpcgraph/pkg/bpc"
	"github.com/matzehuels/bpcgraph/pkg/ops"
	"github.com/matzehuels/bpcgraph/pkg/render"
)

// Render generates output artifacts in the requested formats. The chain is
// listed next to the graph in the JSON graphics format and ignored by the
// others.
//
// SVG is rendered at most once; PNG and PDF are converted from it.
func Render(ctx context.Context, g bpc.Graph, chain []ops.Operation, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	dot := render.ToDOT(g, opts.RenderOptions())
	var svg []byte
	renderSVG := func() ([]byte, error) {
		if svg != nil {
			return svg, nil
		}
		var err error
		svg, err = render.RenderSVG(ctx, dot)
		return svg, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		if _, done := artifacts[format]; done {
			continue
		}

		var data []byte
		var err error

		switch format {
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = renderSVG()
		case FormatPNG:
			if data, err = renderSVG(); err == nil {
				data, err = render.ToPNG(ctx, data, DefaultPNGScale)
			}
		case FormatPDF:
			if data, err = renderSVG(); err == nil {
				data, err = render.ToPDF(ctx, data)
			}
		case FormatJSON:
			data, err = json.MarshalIndent(render.Graphics(g, chain), "", "  ")
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
