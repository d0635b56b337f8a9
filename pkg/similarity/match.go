package similarity

import (
	"cmp"
	"slices"

	"github.com/matzehuels/bpcgraph/pkg/bpc"
	"github.com/matzehuels/bpcgraph/pkg/cost"
)

type estimator struct {
	a, b  bpc.Graph
	cfg   cost.Config
	mode  NetworkMode
	aPins map[string][]int
	bPins map[string][]int
}

// pinMatch is the cheapest pairing of the pins of one box pair.
type pinMatch struct {
	pairs   []Pair
	extra   []int
	missing []int
	cost    float64
	diffs   int
}

func (m pinMatch) weight() weight { return weight{m.cost, m.diffs} }

func newEstimator(a, b bpc.Graph, cfg cost.Config, mode NetworkMode) *estimator {
	return &estimator{
		a: a, b: b, cfg: cfg, mode: mode,
		aPins: pinsByBox(a),
		bPins: pinsByBox(b),
	}
}

func pinsByBox(g bpc.Graph) map[string][]int {
	m := make(map[string][]int, len(g.Boxes))
	for i, p := range g.Pins {
		m[p.BoxID] = append(m[p.BoxID], i)
	}
	return m
}

// pairCost prices the attribute differences that the pairing can see and
// counts them. In partition mode networks are settled after pairing.
func (e *estimator) pairCost(pa, pb bpc.Pin) (float64, int) {
	c, n := 0.0, 0
	if pa.Color != pb.Color {
		c += e.cfg.ColorChangeCost(pa.Color, pb.Color)
		n++
	}
	if pa.Offset.Dist(pb.Offset) > OffsetTolerance {
		c += e.cfg.MovePinCost(pa.Offset, pb.Offset)
		n++
	}
	if e.mode == NetworkLabels && pa.NetworkID != pb.NetworkID {
		c += e.cfg.NetworkChangeCost()
		n++
	}
	return c, n
}

// matchPins pairs the pins of two boxes at minimum cost. The matrix has a
// row per source pin plus one per target pin and a column per target pin
// plus one per source pin: a source pin placed in a filler column is
// removed, a filler row placed on a target pin means adding it. A pair
// dearer than remove plus add always loses to the filler entries.
func (e *estimator) matchPins(boxA, boxB string) pinMatch {
	as, bs := e.aPins[boxA], e.bPins[boxB]
	n, m := len(as), len(bs)
	alone := weight{e.cfg.StructuralCost(), 1}

	w := squareWeights(n + m)
	for r := range w {
		for c := range w[r] {
			switch {
			case r < n && c < m:
				cost, diffs := e.pairCost(e.a.Pins[as[r]], e.b.Pins[bs[c]])
				w[r][c] = weight{cost, diffs}
			case r < n, c < m:
				w[r][c] = alone
			}
		}
	}

	var pm pinMatch
	for r, c := range minAssign(w) {
		switch {
		case r < n && c < m:
			pm.pairs = append(pm.pairs, Pair{A: as[r], B: bs[c]})
		case r < n:
			pm.extra = append(pm.extra, as[r])
		case c < m:
			pm.missing = append(pm.missing, bs[c])
		}
		pm.cost += w[r][c].cost
		pm.diffs += w[r][c].diffs
	}
	slices.Sort(pm.missing)
	return pm
}

// run pairs boxes at minimum total cost with the same filler construction
// as matchPins. Boxes of different kinds are priced above removing one and
// adding the other, so they are never paired. Every entry is a minimum over
// pairings of costs that only grow with the differences, which keeps the
// distance monotonic in them.
func (e *estimator) run() Result {
	if e.mode == NetworkPartition {
		if mt, ok := e.partitionWitness(); ok {
			return Result{Matching: mt}
		}
	}

	base := e.cfg.StructuralCost()
	na, nb := len(e.a.Boxes), len(e.b.Boxes)
	extraBox := weight{base, 1}
	missingBox := func(j int) weight {
		n := len(e.bPins[e.b.Boxes[j].BoxID])
		return weight{base * float64(1+n), 1 + n}
	}

	type key struct{ a, b int }
	pinMatches := make(map[key]pinMatch)
	w := squareWeights(na + nb)
	for r := range w {
		for c := range w[r] {
			switch {
			case r < na && c < nb:
				ba, bb := e.a.Boxes[r], e.b.Boxes[c]
				if ba.Kind != bb.Kind {
					w[r][c] = extraBox.add(missingBox(c)).add(extraBox)
					continue
				}
				m := e.matchPins(ba.BoxID, bb.BoxID)
				pinMatches[key{r, c}] = m
				w[r][c] = m.weight()
			case r < na:
				w[r][c] = extraBox
			case c < nb:
				w[r][c] = missingBox(c)
			}
		}
	}

	var res Result
	mt := &res.Matching
	pairedA := make(map[int]bool)
	pairedB := make(map[int]bool)
	for r, c := range minAssign(w) {
		if r >= na || c >= nb || e.a.Boxes[r].Kind != e.b.Boxes[c].Kind {
			continue
		}
		pairedA[r], pairedB[c] = true, true
		mt.Boxes = append(mt.Boxes, Pair{A: r, B: c})
	}

	for _, bp := range mt.Boxes {
		m := pinMatches[key{bp.A, bp.B}]
		mt.Pins = append(mt.Pins, m.pairs...)
		mt.ExtraPins = append(mt.ExtraPins, m.extra...)
		for _, j := range m.missing {
			mt.MissingPins = append(mt.MissingPins, Pair{A: bp.A, B: j})
		}
		res.Mismatches += len(m.extra) + len(m.missing)
		res.Breakdown.Structural += base * float64(len(m.extra)+len(m.missing))
	}
	slices.SortFunc(mt.Pins, func(x, y Pair) int { return cmp.Compare(x.A, y.A) })

	for i := range e.a.Boxes {
		if !pairedA[i] {
			mt.ExtraBoxes = append(mt.ExtraBoxes, i)
			res.Mismatches++
			res.Breakdown.Structural += base
		}
	}
	for j, bb := range e.b.Boxes {
		if !pairedB[j] {
			n := len(e.bPins[bb.BoxID])
			mt.MissingBoxes = append(mt.MissingBoxes, j)
			res.Mismatches += 1 + n
			res.Breakdown.Structural += base * float64(1+n)
		}
	}

	mt.Networks = e.networkAliases(mt.Pins)
	for _, pp := range mt.Pins {
		pa, pb := e.a.Pins[pp.A], e.b.Pins[pp.B]
		if pa.Color != pb.Color {
			res.Mismatches++
			res.Breakdown.Color += e.cfg.ColorChangeCost(pa.Color, pb.Color)
		}
		if pa.Offset.Dist(pb.Offset) > OffsetTolerance {
			res.Mismatches++
			res.Breakdown.Move += e.cfg.MovePinCost(pa.Offset, pb.Offset)
		}
		if pa.NetworkID != e.alias(mt.Networks, pb.NetworkID) {
			res.Mismatches++
			res.Breakdown.Network += e.cfg.NetworkChangeCost()
		}
	}

	bd := res.Breakdown
	res.Distance = bd.Color + bd.Move + bd.Network + bd.Structural
	return res
}

// alias returns the source-side id for a target network id. Unconnected
// stays unconnected.
func (e *estimator) alias(networks map[string]string, target string) string {
	if target == "" {
		return ""
	}
	return networks[target]
}
