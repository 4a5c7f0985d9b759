package voxel

import (
	"github.com/fogleman/pt/pt"

	"github.com/jdginn/go-acoustic-raytracer/room/geo"
	"github.com/jdginn/go-acoustic-raytracer/room/scene"
)

// Buffers is the read-only view of a voxelised scene that ray workers share. The grid is held in
// its flattened form so every query reads one contiguous table.
type Buffers struct {
	Table     []uint32
	Bounds    pt.Box
	Side      int
	Triangles []geo.Triangle
	Vertices  []pt.Vector
	Surfaces  []scene.Surface
}

func NewBuffers(s *Scene) *Buffers {
	return &Buffers{
		Table:     s.Voxels.Flatten(),
		Bounds:    s.Voxels.Bounds,
		Side:      s.Voxels.Side,
		Triangles: s.Data.Triangles,
		Vertices:  s.Data.Vertices,
		Surfaces:  s.Data.Surfaces,
	}
}

func (b *Buffers) cellWalker() cellWalker[uint32] {
	return func(ray geo.Ray, fn func(tris []uint32, tEntry, tExit float64) bool) {
		walk(b.Bounds, b.Side, ray, func(cell int, tEntry, tExit float64) bool {
			offset := b.Table[cell]
			count := b.Table[offset]
			if count == 0 {
				return false
			}
			return fn(b.Table[offset+1:offset+1+count], tEntry, tExit)
		})
	}
}

func (b *Buffers) Intersects(ray geo.Ray, ignore int) (geo.Hit, bool) {
	return firstHit(b.cellWalker(), ray, b.Triangles, b.Vertices, ignore)
}

func (b *Buffers) PointIntersection(begin, target pt.Vector, ignore int) bool {
	return visible(b.cellWalker(), begin, target, b.Triangles, b.Vertices, ignore)
}

func (b *Buffers) Inside(p pt.Vector) bool {
	return inside(b.cellWalker(), p, b.Triangles, b.Vertices)
}

// Surface is the surface of triangle i
func (b *Buffers) Surface(i int) scene.Surface {
	return b.Surfaces[b.Triangles[i].Surface]
}

// TriangleVerts returns the corners of triangle i
func (b *Buffers) TriangleVerts(i int) geo.TriangleVerts {
	return b.Triangles[i].Verts(b.Vertices)
}
