package expr

// Children returns the direct children of n in trace order:
// lambda parameters then body; left then right; test, true, false;
// receiver then arguments; operand. Constants, parameters and
// extensions have none.
func Children(n Node) []Node {
	switch n := n.(type) {
	case *Lambda:
		out := make([]Node, 0, len(n.Params)+1)
		for _, p := range n.Params {
			out = append(out, p)
		}
		return append(out, n.Body)
	case *Binary:
		return []Node{n.Left, n.Right}
	case *Unary:
		return []Node{n.Operand}
	case *Conditional:
		return []Node{n.Test, n.IfTrue, n.IfFalse}
	case *Call:
		out := make([]Node, 0, len(n.Args)+1)
		if n.Object != nil {
			out = append(out, n.Object)
		}
		return append(out, n.Args...)
	default:
		return nil
	}
}

// Inspect traverses the tree rooted at n in pre-order, calling fn for
// each node. If fn returns false, the children of that node are skipped.
func Inspect(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, fn)
	}
}

// Count returns the number of node occurrences in the tree. A parameter
// referenced twice counts twice.
func Count(n Node) int {
	count := 0
	Inspect(n, func(Node) bool {
		count++
		return true
	})
	return count
}

// CountKinds tallies node occurrences by kind.
func CountKinds(n Node) map[Kind]int {
	counts := make(map[Kind]int)
	Inspect(n, func(c Node) bool {
		counts[c.Kind()]++
		return true
	})
	return counts
}
