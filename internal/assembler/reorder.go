package assembler

import (
	"sort"

	"github.com/tracelens/agent/internal/bus"
)

type node struct {
	enter    *bus.Event
	exit     *bus.Event
	children []*node
	order    int // original emission index of the enter, for child sort
	depth    int // tree depth, assigned during serialization
}

// reorder rebuilds the span tree from enter/exit pairs keyed by span id
// with parent-id edges, sorts children by first-emission order, and
// re-serializes by depth-first traversal: for each span emit its enter,
// recurse into its children, then emit its exit. Depths are rewritten to
// tree depth. Events carrying no span id are preserved at their original
// relative position, anchored to the nearest preceding spanned event.
func reorder(events []bus.Event) []bus.Event {
	nodes := make(map[string]*node)
	var roots []*node
	var unspanned []bus.Event
	unspannedAnchor := make(map[int]string) // index into unspanned -> "spanID|phase" of preceding spanned event

	lastAnchor := ""
	for i, e := range events {
		if e.SpanID == "" {
			unspannedAnchor[len(unspanned)] = lastAnchor
			unspanned = append(unspanned, e)
			continue
		}
		lastAnchor = string(e.SpanID) + "|" + string(e.Phase)

		n, ok := nodes[string(e.SpanID)]
		if !ok {
			n = &node{order: i}
			nodes[string(e.SpanID)] = n
		}
		ev := e
		if e.Phase == bus.PhaseEnter {
			n.enter = &ev
			n.order = i
		} else {
			n.exit = &ev
		}
	}

	for id, n := range nodes {
		if n.enter == nil {
			// an exit with no matching enter in this batch; treat as a root
			// with no further ordering information.
			roots = append(roots, n)
			continue
		}
		parentID := string(n.enter.ParentSpanID)
		if parentID == "" || parentID == id {
			roots = append(roots, n)
			continue
		}
		parent, ok := nodes[parentID]
		if !ok {
			roots = append(roots, n)
			continue
		}
		parent.children = append(parent.children, n)
	}

	sort.SliceStable(roots, func(i, j int) bool { return roots[i].order < roots[j].order })
	for _, n := range nodes {
		sort.SliceStable(n.children, func(i, j int) bool { return n.children[i].order < n.children[j].order })
	}

	var out []bus.Event
	positionOf := make(map[string]int)
	var walk func(n *node, depth int)
	walk = func(n *node, depth int) {
		if n.enter != nil {
			ev := *n.enter
			ev.Depth = depth
			positionOf[string(ev.SpanID)+"|"+string(ev.Phase)] = len(out)
			out = append(out, ev)
		}
		for _, c := range n.children {
			walk(c, depth+1)
		}
		if n.exit != nil {
			ev := *n.exit
			ev.Depth = depth
			positionOf[string(ev.SpanID)+"|"+string(ev.Phase)] = len(out)
			out = append(out, ev)
		}
	}
	for _, r := range roots {
		walk(r, 1)
	}

	return spliceUnspanned(out, unspanned, unspannedAnchor, positionOf)
}

func spliceUnspanned(out []bus.Event, unspanned []bus.Event, anchor map[int]string, positionOf map[string]int) []bus.Event {
	if len(unspanned) == 0 {
		return out
	}
	insertAfter := make(map[int][]bus.Event) // position in out -> events to insert right after
	var leading []bus.Event
	for i, e := range unspanned {
		anchorID := anchor[i]
		if anchorID == "" {
			leading = append(leading, e)
			continue
		}
		pos, ok := positionOf[anchorID]
		if !ok {
			leading = append(leading, e)
			continue
		}
		insertAfter[pos] = append(insertAfter[pos], e)
	}

	final := make([]bus.Event, 0, len(out)+len(unspanned))
	final = append(final, leading...)
	for i, e := range out {
		final = append(final, e)
		final = append(final, insertAfter[i]...)
	}
	return final
}
