package voxel

import (
	"github.com/fogleman/pt/pt"

	"github.com/jdginn/go-acoustic-raytracer/room/geo"
	"github.com/jdginn/go-acoustic-raytracer/room/scene"
)

// Scene pairs scene data with the voxel grid built over it. The grid lists triangle indices of
// Data, so the geometry must not change afterwards; surfaces may.
type Scene struct {
	Data   *scene.Data
	Voxels *Collection
}

// NewScene voxelises data with an octree of the given depth, giving a 2^depth sided grid
func NewScene(data *scene.Data, depth int, padding float64) (*Scene, error) {
	o, err := NewOctree(data, depth, padding)
	if err != nil {
		return nil, err
	}
	return &Scene{Data: data, Voxels: FromOctree(o)}, nil
}

// cellWalker feeds the triangle list and interval of each non-empty cell along a ray to fn
type cellWalker[I geo.Index] func(ray geo.Ray, fn func(tris []I, tEntry, tExit float64) bool)

func (c *Collection) cellWalker() cellWalker[int] {
	return func(ray geo.Ray, fn func(tris []int, tEntry, tExit float64) bool) {
		c.Traverse(ray, func(_ geo.Ray, tris []int, tEntry, tExit float64) bool {
			return fn(tris, tEntry, tExit)
		})
	}
}

func firstHit[I geo.Index](cells cellWalker[I], ray geo.Ray, tris []geo.Triangle, verts []pt.Vector, ignore int) (geo.Hit, bool) {
	var (
		ret   geo.Hit
		found bool
	)
	cells(ray, func(cell []I, _, tExit float64) bool {
		hit, ok := geo.NearestIntersection(ray, cell, tris, verts, ignore)
		// a hit beyond the cell may be blocked by a triangle in a later cell
		if ok && hit.T <= tExit {
			ret, found = hit, true
			return true
		}
		return false
	})
	return ret, found
}

func visible[I geo.Index](cells cellWalker[I], begin, target pt.Vector, tris []geo.Triangle, verts []pt.Vector, ignore int) bool {
	ray, ok := geo.RayBetween(begin, target)
	if !ok {
		return true
	}
	hit, ok := firstHit(cells, ray, tris, verts, ignore)
	return !ok || target.Sub(begin).Length() < hit.T
}

// countHits counts every crossing along the ray. Each crossing is counted only in the cell it
// lies in, so triangles listed in several cells are not counted twice. A hit near an edge or
// vertex makes the count unreliable and reports false.
func countHits[I geo.Index](cells cellWalker[I], ray geo.Ray, tris []geo.Triangle, verts []pt.Vector) (int, bool) {
	count := 0
	degenerate := false
	cells(ray, func(cell []I, tEntry, tExit float64) bool {
		for _, idx := range cell {
			hit, ok := geo.IntersectTriangle(tris[idx].Verts(verts), ray)
			if !ok {
				continue
			}
			if hit.Degenerate() {
				degenerate = true
				return true
			}
			if tEntry < hit.T && hit.T <= tExit {
				count++
			}
		}
		return false
	})
	return count, !degenerate
}

// insideDirections is a fixed table of unit directions tried in turn by Inside
var insideDirections = [...]pt.Vector{
	{X: -0.427602, Y: 0.791267, Z: -0.437096},
	{X: -0.832527, Y: -0.545442, Z: 0.0969113},
	{X: 0.633363, Y: 0.413131, Z: 0.65435},
	{X: 0.985873, Y: 0.140209, Z: 0.0916325},
	{X: 0.384519, Y: 0.0309011, Z: -0.9226},
	{X: -0.532584, Y: -0.0244727, Z: 0.846023},
	{X: 0.844848, Y: 0.230031, Z: -0.483029},
	{X: -0.186143, Y: -0.291698, Z: -0.938223},
	{X: -0.108511, Y: -0.861706, Z: 0.495669},
	{X: 0.0951741, Y: 0.959367, Z: -0.265625},
	{X: 0.407194, Y: 0.907127, Z: -0.106369},
	{X: 0.521731, Y: -0.00522727, Z: -0.853094},
	{X: 0.369627, Y: 0.218276, Z: 0.903179},
	{X: -0.518837, Y: 0.815586, Z: -0.25618},
	{X: -0.954901, Y: 0.105507, Z: 0.277548},
	{X: 0.63419, Y: 0.768703, Z: 0.0830607},
	{X: -0.0258027, Y: 0.998294, Z: 0.052379},
	{X: -0.868361, Y: 0.473347, Z: 0.147958},
	{X: 0.346294, Y: -0.131168, Z: 0.928911},
	{X: -0.635896, Y: 0.649019, Z: 0.417624},
	{X: 0.293121, Y: 0.235495, Z: -0.926619},
	{X: -0.55088, Y: -0.0237137, Z: -0.834247},
	{X: -0.661022, Y: -0.653122, Z: -0.369434},
	{X: 0.224176, Y: -0.351092, Z: 0.909109},
	{X: 0.456587, Y: 0.736627, Z: -0.498907},
	{X: 0.965231, Y: 0.154753, Z: 0.210667},
	{X: 0.626034, Y: -0.245898, Z: 0.740011},
	{X: 0.435825, Y: 0.794758, Z: -0.422393},
	{X: 0.662049, Y: 0.713267, Z: 0.23009},
	{X: 0.261843, Y: -0.620862, Z: 0.738897},
	{X: 0.23673, Y: 0.714889, Z: 0.657946},
	{X: -0.404007, Y: 0.699316, Z: 0.589691},
}

func inside[I geo.Index](cells cellWalker[I], p pt.Vector, tris []geo.Triangle, verts []pt.Vector) bool {
	for _, d := range insideDirections {
		ray, ok := geo.NewRay(p, d)
		if !ok {
			continue
		}
		if n, ok := countHits(cells, ray, tris, verts); ok {
			return n%2 == 1
		}
	}
	// every direction grazed an edge
	return false
}

// Intersects finds the nearest triangle hit by ray, skipping triangle ignore
func (s *Scene) Intersects(ray geo.Ray, ignore int) (geo.Hit, bool) {
	return firstHit(s.Voxels.cellWalker(), ray, s.Data.Triangles, s.Data.Vertices, ignore)
}

// PointIntersection reports whether target is visible from begin
func (s *Scene) PointIntersection(begin, target pt.Vector, ignore int) bool {
	return visible(s.Voxels.cellWalker(), begin, target, s.Data.Triangles, s.Data.Vertices, ignore)
}

// CountIntersections counts the surfaces crossed by ray. The count is unreliable, and ok false,
// when the ray grazes an edge or vertex.
func (s *Scene) CountIntersections(ray geo.Ray) (count int, ok bool) {
	return countHits(s.Voxels.cellWalker(), ray, s.Data.Triangles, s.Data.Vertices)
}

// Inside reports whether p is enclosed by the scene's mesh, by parity of crossings
func (s *Scene) Inside(p pt.Vector) bool {
	return inside(s.Voxels.cellWalker(), p, s.Data.Triangles, s.Data.Vertices)
}

// Contains reports whether p lies within the voxel grid's bounds
func (s *Scene) Contains(p pt.Vector) bool {
	return geo.BoxContains(s.Voxels.Bounds, p)
}

// TriangleVerts is the corners of triangle i
func (s *Scene) TriangleVerts(i int) geo.TriangleVerts {
	return s.Data.TriangleVerts(i)
}

// Surface is the surface of triangle i
func (s *Scene) Surface(i int) scene.Surface {
	return s.Data.Surface(i)
}
