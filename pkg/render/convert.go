package render

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	apperr "github.com/matzehuels/bpcgraph/pkg/errors"
)

// rsvgBinary is the librsvg converter used for PNG and PDF output.
const rsvgBinary = "rsvg-convert"

// ToPDF converts an SVG drawing to PDF.
func ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	return convert(ctx, svg, "pdf")
}

// ToPNG converts an SVG drawing to PNG. A zoom of 2 doubles the pixel size;
// zero or less means 1.
func ToPNG(ctx context.Context, svg []byte, zoom float64) ([]byte, error) {
	if zoom <= 0 {
		zoom = 1
	}
	return convert(ctx, svg, "png", "--zoom", strconv.FormatFloat(zoom, 'f', 2, 64))
}

// convert pipes svg through rsvg-convert. The process is killed when ctx is
// done.
func convert(ctx context.Context, svg []byte, format string, extra ...string) ([]byte, error) {
	bin, err := exec.LookPath(rsvgBinary)
	if err != nil {
		return nil, apperr.New(apperr.ErrCodeUnsupported,
			"%s output needs %s from librsvg (brew install librsvg, apt install librsvg2-bin)", format, rsvgBinary)
	}

	cmd := exec.CommandContext(ctx, bin, append([]string{"--format", format}, extra...)...)
	cmd.Stdin = bytes.NewReader(svg)
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, apperr.Wrap(apperr.ErrCodeCancelled, ctx.Err(), "convert to %s", format)
		}
		return nil, apperr.Wrap(apperr.ErrCodeInternal, err, "%s: %s", rsvgBinary, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
