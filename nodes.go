package formula

import (
	"math"
	"strings"
)

// Node is a node in the tree of a parsed formula. Nodes are shared between
// identical subexpressions, so a tree is really a DAG; nodes must not be
// modified.
type Node struct {
	Kind NodeKind
	// Value is the value of a NodeConst.
	Value float64
	// Name is the name of a NodeParam or the canonical operator or function
	// name of a NodeCall.
	Name string
	// Args are the operands of a NodeCall.
	Args []*Node

	fn Func
}

// NodeKind identifies the kind of a Node.
type NodeKind int8

const (
	nodeNone NodeKind = iota

	NodeConst // Value
	NodeParam // lookup(Name)
	NodeCall  // Name(Args...)
)

func (k NodeKind) String() string {
	switch k {
	case NodeConst:
		return "Const"
	case NodeParam:
		return "Param"
	case NodeCall:
		return "Call"
	default:
		return "None"
	}
}

// String renders the node in canonical form using the default numeral format.
func (n *Node) String() string {
	var b strings.Builder
	n.fmt(&b, DefaultFormat)
	return b.String()
}

// fmt writes n fully parenthesized, so that parsing the result with the same
// numeral format yields an equivalent tree.
func (n *Node) fmt(b *strings.Builder, f NumeralFormat) {
	switch n.Kind {
	case NodeConst:
		if math.Signbit(n.Value) {
			// Parsing never produces a negative constant, but a provider can.
			b.WriteByte('(')
			b.WriteString(f.format(n.Value))
			b.WriteByte(')')
			return
		}
		b.WriteString(f.format(n.Value))
	case NodeParam:
		b.WriteString(n.Name)
	case NodeCall:
		sym, op := symbols[n.Name]
		switch {
		case op && sym.tier != TierNone && len(n.Args) == 2:
			b.WriteByte('(')
			n.Args[0].fmt(b, f)
			b.WriteByte(' ')
			b.WriteString(n.Name)
			b.WriteByte(' ')
			n.Args[1].fmt(b, f)
			b.WriteByte(')')
		case op && sym.prefix && len(n.Args) == 1:
			b.WriteByte('(')
			b.WriteString(n.Name)
			if isident(n.Name) {
				b.WriteByte(' ')
			}
			n.Args[0].fmt(b, f)
			b.WriteByte(')')
		default:
			b.WriteString(n.Name)
			b.WriteByte('(')
			for i, arg := range n.Args {
				if i > 0 {
					b.WriteRune(f.Separator)
					b.WriteByte(' ')
				}
				arg.fmt(b, f)
			}
			b.WriteByte(')')
		}
	default:
		// Invalid nodes use invalid characters.
		b.WriteString("$" + n.Kind.String() + "$")
	}
}

// walk calls f on n and then on each of its descendants, visiting shared
// nodes once.
func (n *Node) walk(seen map[*Node]bool, f func(*Node)) {
	if seen[n] {
		return
	}
	seen[n] = true
	f(n)
	for _, arg := range n.Args {
		arg.walk(seen, f)
	}
}
