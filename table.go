package formula

import (
	"math"
	"strconv"
	"strings"
)

// table memoizes the nodes created during one parse. Each distinct constant,
// parameter, and structurally distinct call has exactly one node. The parser
// refers to nodes through key tokens of the form #n, where n indexes nodes.
type table struct {
	sigs  map[string]int
	nodes []*Node
}

func newTable() *table {
	return &table{sigs: make(map[string]int)}
}

// iskey returns whether a token text is a table key.
func iskey(s string) bool {
	return strings.HasPrefix(s, "#")
}

// node returns the node for a key.
func (t *table) node(key string) *Node {
	i, err := strconv.Atoi(key[1:])
	if err != nil {
		panic("formula: invalid table key " + strconv.Quote(key))
	}
	return t.nodes[i]
}

// intern returns the key for sig, creating its node with mk if needed.
func (t *table) intern(sig string, mk func() *Node) string {
	i, ok := t.sigs[sig]
	if !ok {
		i = len(t.nodes)
		t.nodes = append(t.nodes, mk())
		t.sigs[sig] = i
	}
	return "#" + strconv.Itoa(i)
}

// constant returns the key for a constant. Constants are identified by their
// bits, so 2 and 2.0 share a node but 0 and -0 do not.
func (t *table) constant(v float64) string {
	sig := "c" + strconv.FormatUint(math.Float64bits(v), 16)
	return t.intern(sig, func() *Node {
		return &Node{Kind: NodeConst, Value: v}
	})
}

// param returns the key for a named parameter.
func (t *table) param(name string) string {
	return t.intern("p"+name, func() *Node {
		return &Node{Kind: NodeParam, Name: name}
	})
}

// call returns the key for a call of a resolved function on operand keys.
func (t *table) call(name string, fn Func, args []string) string {
	sig := name + "(" + strings.Join(args, ",") + ")"
	return t.intern(sig, func() *Node {
		n := Node{Kind: NodeCall, Name: name, Args: make([]*Node, len(args)), fn: fn}
		for i, arg := range args {
			n.Args[i] = t.node(arg)
		}
		return &n
	})
}

// params returns the names of all parameters in the table.
func (t *table) params() []string {
	var names []string
	for _, n := range t.nodes {
		if n.Kind == NodeParam {
			names = append(names, n.Name)
		}
	}
	sortstrs(names)
	return names
}

// sortstrs sorts a string slice without using package sort because that has
// reflection and allocation problems.
func sortstrs(names []string) {
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j] < names[j-1]; j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
}
