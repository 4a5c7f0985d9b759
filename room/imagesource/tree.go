// Package imagesource finds specular reflection paths between a source and a receiver by
// mirroring the source in the surfaces a path visits.
package imagesource

import "sort"

// PathElement is one reflection along a path: the triangle reflected from and whether the
// receiver could be seen from the reflection point.
type PathElement struct {
	Index   int
	Visible bool
}

func (p PathElement) less(o PathElement) bool {
	if p.Index != o.Index {
		return p.Index < o.Index
	}
	return !p.Visible && o.Visible
}

type treeNode struct {
	element  PathElement
	children []int32
}

// Tree stores reflection paths with shared prefixes stored once. Nodes live in an arena and
// refer to their children by index; siblings are kept sorted.
type Tree struct {
	nodes []treeNode
	roots []int32
}

func NewTree() *Tree {
	return &Tree{}
}

// AddPath inserts path, reusing any existing prefix
func (t *Tree) AddPath(path []PathElement) {
	parent := int32(-1)
	for _, e := range path {
		parent = t.child(parent, e)
	}
}

func (t *Tree) siblings(parent int32) []int32 {
	if parent < 0 {
		return t.roots
	}
	return t.nodes[parent].children
}

// child finds or inserts the node holding e among the children of parent (-1 for the roots)
func (t *Tree) child(parent int32, e PathElement) int32 {
	siblings := t.siblings(parent)
	i := sort.Search(len(siblings), func(i int) bool {
		return !t.nodes[siblings[i]].element.less(e)
	})
	if i < len(siblings) && t.nodes[siblings[i]].element == e {
		return siblings[i]
	}
	idx := int32(len(t.nodes))
	t.nodes = append(t.nodes, treeNode{element: e})
	siblings = append(siblings, 0)
	copy(siblings[i+1:], siblings[i:])
	siblings[i] = idx
	if parent < 0 {
		t.roots = siblings
	} else {
		t.nodes[parent].children = siblings
	}
	return idx
}

// Len is the number of distinct path prefixes stored
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Walk visits every node depth first, parents before children and siblings in sorted order,
// passing the path from the root to the node. The slice is reused between calls.
func (t *Tree) Walk(fn func(path []PathElement)) {
	path := make([]PathElement, 0, 16)
	var visit func(idx int32)
	visit = func(idx int32) {
		n := &t.nodes[idx]
		path = append(path, n.element)
		fn(path)
		for _, c := range n.children {
			visit(c)
		}
		path = path[:len(path)-1]
	}
	for _, r := range t.roots {
		visit(r)
	}
}
