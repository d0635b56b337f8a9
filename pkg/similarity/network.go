package similarity

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/matzehuels/bpcgraph/pkg/bpc"
)

// networkAliases maps every target network id to the id source pins should
// carry. In partition mode, source networks are assigned to target networks
// greedily by the number of paired pins they share; target networks left
// over get an id not used by the source graph.
func (e *estimator) networkAliases(pins []Pair) map[string]string {
	targets := e.b.NetworkIDs()
	aliases := make(map[string]string, len(targets))
	if e.mode == NetworkLabels {
		for _, t := range targets {
			aliases[t] = t
		}
		return aliases
	}

	type link struct{ src, dst string }
	counts := make(map[link]int)
	for _, pp := range pins {
		src, dst := e.a.Pins[pp.A].NetworkID, e.b.Pins[pp.B].NetworkID
		if src != "" && dst != "" {
			counts[link{src, dst}]++
		}
	}
	links := make([]link, 0, len(counts))
	for l := range counts {
		links = append(links, l)
	}
	slices.SortFunc(links, func(x, y link) int {
		if c := cmp.Compare(counts[y], counts[x]); c != 0 {
			return c
		}
		if c := cmp.Compare(x.src, y.src); c != 0 {
			return c
		}
		return cmp.Compare(x.dst, y.dst)
	})

	usedSrc := make(map[string]bool)
	for _, l := range links {
		if usedSrc[l.src] {
			continue
		}
		if _, done := aliases[l.dst]; done {
			continue
		}
		aliases[l.dst] = l.src
		usedSrc[l.src] = true
	}

	taken := make(map[string]bool)
	for _, id := range e.a.NetworkIDs() {
		taken[id] = true
	}
	for _, id := range aliases {
		taken[id] = true
	}
	for _, t := range targets {
		if _, ok := aliases[t]; ok {
			continue
		}
		id := t
		for n := 2; taken[id]; n++ {
			id = fmt.Sprintf("%s_%d", t, n)
		}
		aliases[t] = id
		taken[id] = true
	}
	return aliases
}

// maxWitnessSteps bounds the equivalence search in partition mode. Past it
// the estimator falls back to the pairing above.
const maxWitnessSteps = 1 << 16

// witness searches for a pairing of boxes and pins under which a equals b up
// to box ids, centers and network names. Source networks are bound to
// target networks one-to-one as pins are paired, and a pairing that would
// break the binding is abandoned.
type witness struct {
	e       *estimator
	boxes   []Pair
	pins    []Pair
	usedBox []bool
	usedPin []bool
	fwd     map[string]string // source network to target network
	back    map[string]string // target network to source network
	steps   int
}

// partitionWitness returns a zero-difference matching of a onto b in
// partition mode, or false when there is none or the search gave up.
func (e *estimator) partitionWitness() (Matching, bool) {
	a, b := e.a, e.b
	if len(a.Boxes) != len(b.Boxes) || len(a.Pins) != len(b.Pins) ||
		!slices.Equal(networkSizes(a), networkSizes(b)) {
		return Matching{}, false
	}
	w := &witness{
		e:       e,
		usedBox: make([]bool, len(b.Boxes)),
		usedPin: make([]bool, len(b.Pins)),
		fwd:     make(map[string]string),
		back:    make(map[string]string),
	}
	if !w.box(0) {
		return Matching{}, false
	}
	slices.SortFunc(w.pins, func(x, y Pair) int { return cmp.Compare(x.A, y.A) })
	return Matching{Boxes: w.boxes, Pins: w.pins, Networks: w.back}, true
}

func networkSizes(g bpc.Graph) []int {
	nets := g.Networks()
	sizes := make([]int, len(nets))
	for i, n := range nets {
		sizes[i] = len(n.Pins)
	}
	slices.Sort(sizes)
	return sizes
}

func (w *witness) tick() bool {
	w.steps++
	return w.steps <= maxWitnessSteps
}

func (w *witness) box(i int) bool {
	a, b := w.e.a, w.e.b
	if i == len(a.Boxes) {
		return true
	}
	ba := a.Boxes[i]
	for j, bb := range b.Boxes {
		if w.usedBox[j] || ba.Kind != bb.Kind ||
			len(w.e.aPins[ba.BoxID]) != len(w.e.bPins[bb.BoxID]) {
			continue
		}
		if !w.tick() {
			return false
		}
		w.usedBox[j] = true
		w.boxes = append(w.boxes, Pair{A: i, B: j})
		if w.pin(i, j, 0) {
			return true
		}
		w.boxes = w.boxes[:len(w.boxes)-1]
		w.usedBox[j] = false
	}
	return false
}

// pin pairs the k-th pin of source box i and moves on to the next box once
// all of them are placed.
func (w *witness) pin(i, j, k int) bool {
	as := w.e.aPins[w.e.a.Boxes[i].BoxID]
	if k == len(as) {
		return w.box(i + 1)
	}
	pa := w.e.a.Pins[as[k]]
	for _, q := range w.e.bPins[w.e.b.Boxes[j].BoxID] {
		pb := w.e.b.Pins[q]
		if w.usedPin[q] || pa.Color != pb.Color || pa.Offset.Dist(pb.Offset) > OffsetTolerance {
			continue
		}
		bound, ok := w.bind(pa.NetworkID, pb.NetworkID)
		if !ok {
			continue
		}
		if !w.tick() {
			return false
		}
		w.usedPin[q] = true
		w.pins = append(w.pins, Pair{A: as[k], B: q})
		if w.pin(i, j, k+1) {
			return true
		}
		w.pins = w.pins[:len(w.pins)-1]
		w.usedPin[q] = false
		if bound {
			delete(w.fwd, pa.NetworkID)
			delete(w.back, pb.NetworkID)
		}
	}
	return false
}

// bind records src ↔ dst. ok reports whether the pair is consistent with
// earlier bindings; bound reports whether a new binding was made.
func (w *witness) bind(src, dst string) (bound, ok bool) {
	if src == "" || dst == "" {
		return false, src == dst
	}
	if cur, seen := w.fwd[src]; seen {
		return false, cur == dst
	}
	if _, seen := w.back[dst]; seen {
		return false, false
	}
	w.fwd[src], w.back[dst] = dst, src
	return true, true
}
