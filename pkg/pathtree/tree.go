package pathtree

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/aretw0/questscribe/pkg/domain"
)

// Node is either a leaf holding a scalar or an object holding ordered children.
type Node struct {
	leaf     bool
	value    domain.Value
	keys     []string
	children map[string]*Node
}

func newObject() *Node {
	return &Node{children: make(map[string]*Node)}
}

func newLeaf(v domain.Value) *Node {
	return &Node{leaf: true, value: v}
}

// IsLeaf reports whether the node holds a scalar.
func (n *Node) IsLeaf() bool { return n.leaf }

// Value returns the scalar of a leaf node.
func (n *Node) Value() (domain.Value, bool) {
	if !n.leaf {
		return domain.Value{}, false
	}
	return n.value, true
}

// Keys returns the child keys of an object in insertion order.
func (n *Node) Keys() []string {
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

// Child returns the direct child stored under key.
func (n *Node) Child(key string) (*Node, bool) {
	if n.leaf {
		return nil, false
	}
	c, ok := n.children[key]
	return c, ok
}

func (n *Node) put(key string, child *Node) {
	if _, exists := n.children[key]; !exists {
		n.keys = append(n.keys, key)
	}
	n.children[key] = child
}

func (n *Node) del(key string) {
	if _, exists := n.children[key]; !exists {
		return
	}
	delete(n.children, key)
	for i, k := range n.keys {
		if k == key {
			n.keys = append(n.keys[:i], n.keys[i+1:]...)
			break
		}
	}
}

func (n *Node) clone() *Node {
	if n.leaf {
		return newLeaf(n.value)
	}
	out := newObject()
	for _, k := range n.keys {
		out.put(k, n.children[k].clone())
	}
	return out
}

func (n *Node) equal(o *Node) bool {
	if n.leaf != o.leaf {
		return false
	}
	if n.leaf {
		return n.value == o.value
	}
	if len(n.keys) != len(o.keys) {
		return false
	}
	for i, k := range n.keys {
		if o.keys[i] != k || !n.children[k].equal(o.children[k]) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes leaves as bare scalars and objects with their key order preserved.
func (n *Node) MarshalJSON() ([]byte, error) {
	if n.leaf {
		return json.Marshal(n.value)
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range n.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		child, err := n.children[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(child)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Any converts the node to plain Go values: map[string]any for objects, scalars for leaves.
func (n *Node) Any() any {
	if n.leaf {
		return n.value.Any()
	}
	out := make(map[string]any, len(n.keys))
	for _, k := range n.keys {
		out[k] = n.children[k].Any()
	}
	return out
}

// Tree is an attribute tree rooted at an object.
type Tree struct {
	root *Node
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{root: newObject()}
}

// Split turns a dotted path into its segments.
func Split(path string) []string {
	return strings.Split(path, domain.PathSeparator)
}

// Join is the inverse of Split.
func Join(segments []string) string {
	return strings.Join(segments, domain.PathSeparator)
}

// Root returns the root object.
func (t *Tree) Root() *Node { return t.root }

// Lookup returns the node stored at path, leaf or object.
func (t *Tree) Lookup(path string) (*Node, bool) {
	cur := t.root
	for _, seg := range Split(path) {
		next, ok := cur.Child(seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Get returns the scalar stored at path. Missing segments, non-object intermediates
// and object targets all report false.
func (t *Tree) Get(path string) (domain.Value, bool) {
	n, ok := t.Lookup(path)
	if !ok {
		return domain.Value{}, false
	}
	return n.Value()
}

// Set stores v at path, creating intermediate objects. Scalars found on the way are
// replaced by objects; an object at the final segment is replaced by the scalar.
func (t *Tree) Set(path string, v domain.Value) {
	segs := Split(path)
	cur := t.root
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur.children[seg]
		if !ok || next.leaf {
			next = newObject()
			cur.put(seg, next)
		}
		cur = next
	}
	cur.put(segs[len(segs)-1], newLeaf(v))
}

// Remove deletes the final segment of path from its parent. A missing path is a no-op
// and emptied parents are kept.
func (t *Tree) Remove(path string) {
	segs := Split(path)
	cur := t.root
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur.Child(seg)
		if !ok || next.leaf {
			return
		}
		cur = next
	}
	cur.del(segs[len(segs)-1])
}

// Len returns the number of leaves.
func (t *Tree) Len() int {
	return len(t.Flatten())
}

// IsEmpty reports whether the root object has no keys.
func (t *Tree) IsEmpty() bool {
	return len(t.root.keys) == 0
}

// Clone returns an independent deep copy.
func (t *Tree) Clone() *Tree {
	return &Tree{root: t.root.clone()}
}

// Equal reports whether both trees hold the same keys, in the same order, with equal leaves.
func (t *Tree) Equal(o *Tree) bool {
	return t.root.equal(o.root)
}

// MarshalJSON encodes the tree as a nested JSON object.
func (t *Tree) MarshalJSON() ([]byte, error) {
	return t.root.MarshalJSON()
}

// Map converts the tree to nested map[string]any values.
func (t *Tree) Map() map[string]any {
	return t.root.Any().(map[string]any)
}
