package voxel

import (
	"math"
	"sort"

	"github.com/fogleman/pt/pt"

	"github.com/jdginn/go-acoustic-raytracer/room/geo"
	"github.com/jdginn/go-acoustic-raytracer/room/scene"
)

const noChildren = -1

// Node is one octree cell. Nodes live in the Octree arena and refer to each other by index.
type Node struct {
	Bounds    pt.Box
	Triangles []int
	// Children is the arena index of the first of eight consecutive children, or -1 for a leaf.
	// Child i covers the half of the node with x from bit 0, y from bit 1 and z from bit 2.
	Children int32

	// position of the node in leaf-cell units, and its width in leaf cells
	cell [3]int
	size int
}

func (n *Node) Leaf() bool {
	return n.Children == noChildren
}

// Octree is an arena of nodes; Nodes[0] is the root
type Octree struct {
	Nodes []Node
	Depth int
	data  *scene.Data
}

// NewOctree builds an octree of depth levels below the root over the bounding box of data grown
// by padding
func NewOctree(data *scene.Data, depth int, padding float64) (*Octree, error) {
	return NewOctreeWithBounds(data, depth, geo.PadBox(data.BoundingBox(), padding))
}

func NewOctreeWithBounds(data *scene.Data, depth int, bounds pt.Box) (*Octree, error) {
	if depth < 0 {
		return nil, ErrZeroDivisions
	}
	if err := checkBounds(bounds); err != nil {
		return nil, err
	}
	all := make([]int, len(data.Triangles))
	for i := range all {
		all[i] = i
	}
	o := &Octree{Depth: depth, data: data}
	o.Nodes = append(o.Nodes, Node{
		Bounds:    bounds,
		Triangles: all,
		Children:  noChildren,
		size:      1 << depth,
	})
	o.split(0, bounds, 1<<depth)
	return o, nil
}

func (o *Octree) split(node int, root pt.Box, side int) {
	parent := o.Nodes[node]
	if parent.size == 1 {
		return
	}
	half := parent.size / 2
	first := len(o.Nodes)
	o.Nodes[node].Children = int32(first)
	for i := 0; i < 8; i++ {
		cell := [3]int{
			parent.cell[0] + half*(i&1),
			parent.cell[1] + half*((i>>1)&1),
			parent.cell[2] + half*((i>>2)&1),
		}
		bounds := cellRangeBounds(root, side, cell[0], cell[1], cell[2], half)
		padded := geo.PadBox(bounds, overlapPad)
		var tris []int
		for _, t := range parent.Triangles {
			if geo.TriangleBoxOverlap(o.data.TriangleVerts(t), padded) == geo.Inside {
				tris = append(tris, t)
			}
		}
		o.Nodes = append(o.Nodes, Node{
			Bounds:    bounds,
			Triangles: tris,
			Children:  noChildren,
			cell:      cell,
			size:      half,
		})
	}
	for i := 0; i < 8; i++ {
		o.split(first+i, root, side)
	}
}

// FromOctree produces the uniform grid made of the octree's leaves
func FromOctree(o *Octree) *Collection {
	side := 1 << o.Depth
	c := &Collection{
		Bounds: o.Nodes[0].Bounds,
		Side:   side,
		cells:  make([][]int, side*side*side),
	}
	for i := range o.Nodes {
		n := &o.Nodes[i]
		if n.Leaf() && n.size == 1 {
			c.cells[c.index(n.cell[0], n.cell[1], n.cell[2])] = n.Triangles
		}
	}
	return c
}

// Intersect finds the nearest triangle hit by visiting nodes front to back, pruning any node
// the ray enters beyond the best hit found so far
func (o *Octree) Intersect(ray geo.Ray, ignore int) (geo.Hit, bool) {
	best := geo.Hit{T: math.Inf(1), Index: geo.NoTriangle}
	o.intersect(0, ray, ignore, &best)
	return best, best.Index != geo.NoTriangle
}

func (o *Octree) intersect(node int, ray geo.Ray, ignore int, best *geo.Hit) {
	n := &o.Nodes[node]
	if len(n.Triangles) == 0 {
		return
	}
	if n.Leaf() {
		hit, ok := geo.NearestIntersection(ray, n.Triangles, o.data.Triangles, o.data.Vertices, ignore)
		if ok && hit.T < best.T {
			*best = hit
		}
		return
	}
	type entry struct {
		node int
		t    float64
	}
	var order []entry
	for i := 0; i < 8; i++ {
		child := int(n.Children) + i
		if tmin, _, ok := geo.IntersectBox(o.Nodes[child].Bounds, ray, 0, math.Inf(1)); ok {
			order = append(order, entry{child, tmin})
		}
	}
	sort.Slice(order, func(i, j int) bool { return order[i].t < order[j].t })
	for _, e := range order {
		if e.t > best.T {
			return
		}
		o.intersect(e.node, ray, ignore, best)
	}
}
