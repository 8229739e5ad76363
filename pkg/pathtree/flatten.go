package pathtree

import "github.com/aretw0/questscribe/pkg/domain"

// Leaf is a scalar together with its full dotted path.
type Leaf struct {
	Path  string
	Value domain.Value
}

// Flatten lists every leaf depth-first in key insertion order. Empty objects produce nothing.
func (t *Tree) Flatten() []Leaf {
	var out []Leaf
	t.Walk(func(path []string, n *Node) {
		if v, ok := n.Value(); ok {
			out = append(out, Leaf{Path: Join(path), Value: v})
		}
	})
	return out
}

// Walk visits every node below the root depth-first in key insertion order.
// The path slice is only valid for the duration of the call.
func (t *Tree) Walk(fn func(path []string, n *Node)) {
	walk(t.root, nil, fn)
}

func walk(n *Node, path []string, fn func([]string, *Node)) {
	for _, k := range n.keys {
		child := n.children[k]
		p := append(path, k)
		fn(p, child)
		if !child.leaf {
			walk(child, p, fn)
		}
	}
}
