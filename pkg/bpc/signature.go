package bpc

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// Signature returns a canonical string for the graph. Two graphs have the same
// signature iff they have the same boxes and pins with the same attributes,
// regardless of slice order. Box centers are included; floats are written in
// their shortest round-trip form.
//
// The transformer uses signatures to deduplicate search states and the
// pipeline hashes them for cache keys.
func (g Graph) Signature() string {
	boxes := slices.Clone(g.Boxes)
	slices.SortFunc(boxes, func(a, b Box) int { return cmp.Compare(a.BoxID, b.BoxID) })
	pins := slices.Clone(g.Pins)
	slices.SortFunc(pins, func(a, b Pin) int {
		if c := cmp.Compare(a.BoxID, b.BoxID); c != 0 {
			return c
		}
		return cmp.Compare(a.PinID, b.PinID)
	})

	var sb strings.Builder
	for _, b := range boxes {
		sb.WriteString("B|")
		sb.WriteString(strconv.Quote(b.BoxID))
		sb.WriteByte('|')
		sb.WriteString(string(b.Kind))
		sb.WriteByte('|')
		writePoint(&sb, b.Center)
		sb.WriteByte('\n')
	}
	for _, p := range pins {
		sb.WriteString("P|")
		sb.WriteString(strconv.Quote(p.BoxID))
		sb.WriteByte('|')
		sb.WriteString(strconv.Quote(p.PinID))
		sb.WriteByte('|')
		writePoint(&sb, p.Offset)
		sb.WriteByte('|')
		sb.WriteString(strconv.Quote(p.Color))
		sb.WriteByte('|')
		sb.WriteString(strconv.Quote(p.NetworkID))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func writePoint(sb *strings.Builder, p Point) {
	sb.WriteString(strconv.FormatFloat(p.X, 'g', -1, 64))
	sb.WriteByte(',')
	sb.WriteString(strconv.FormatFloat(p.Y, 'g', -1, 64))
}
