package geo

import (
	"math"

	"github.com/fogleman/pt/pt"
)

// Epsilon is the tolerance used by the intersection tests
const Epsilon = 1e-4

// NoTriangle is the triangle index meaning "none"
const NoTriangle = -1

// Triangle indexes three vertices of a shared vertex array and a surface of a shared surface array
type Triangle struct {
	V0, V1, V2 int
	Surface    int
}

// TriangleVerts holds the positions of a triangle's corners
type TriangleVerts [3]pt.Vector

func (t Triangle) Verts(vertices []pt.Vector) TriangleVerts {
	return TriangleVerts{vertices[t.V0], vertices[t.V1], vertices[t.V2]}
}

// Normal is the unit normal given by the right-hand winding V0, V1, V2
func (t TriangleVerts) Normal() pt.Vector {
	return t[1].Sub(t[0]).Cross(t[2].Sub(t[0])).Normalize()
}

func (t TriangleVerts) Area() float64 {
	return t[1].Sub(t[0]).Cross(t[2].Sub(t[0])).Length() / 2
}

func (t TriangleVerts) BoundingBox() pt.Box {
	return pt.Box{
		Min: t[0].Min(t[1]).Min(t[2]),
		Max: t[0].Max(t[1]).Max(t[2]),
	}
}

// Mirror reflects p in the plane of the triangle
func (t TriangleVerts) Mirror(p pt.Vector) pt.Vector {
	n := t.Normal()
	return p.Sub(n.MulScalar(n.Dot(p.Sub(t[0])) * 2))
}

// MirrorTriangle reflects every vertex of o in the plane of t
func (t TriangleVerts) MirrorTriangle(o TriangleVerts) TriangleVerts {
	return TriangleVerts{t.Mirror(o[0]), t.Mirror(o[1]), t.Mirror(o[2])}
}

// TriangleHit is a ray parameter plus the barycentric coordinates of the hit
type TriangleHit struct {
	T, U, V float64
}

// Degenerate reports whether the hit lies within Epsilon of an edge or vertex, where parity
// counting cannot be trusted.
func (h TriangleHit) Degenerate() bool {
	return h.U < Epsilon || h.V < Epsilon || 1-(h.U+h.V) < Epsilon
}

// IntersectTriangle is the Möller–Trumbore ray/triangle test
func IntersectTriangle(tri TriangleVerts, ray Ray) (TriangleHit, bool) {
	return intersectTriangle(tri, ray, 0)
}

// TouchTriangle is IntersectTriangle with edges widened by Epsilon and hits up to Epsilon behind
// the origin accepted, clamped to zero. A ray starting on a triangle, or grazing its edge,
// touches it.
func TouchTriangle(tri TriangleVerts, ray Ray) (TriangleHit, bool) {
	hit, ok := intersectTriangle(tri, ray, Epsilon)
	hit.T = math.Max(hit.T, 0)
	return hit, ok
}

func intersectTriangle(tri TriangleVerts, ray Ray, tol float64) (TriangleHit, bool) {
	e0 := tri[1].Sub(tri[0])
	e1 := tri[2].Sub(tri[0])
	pvec := ray.Direction.Cross(e1)
	det := e0.Dot(pvec)
	if -Epsilon < det && det < Epsilon {
		return TriangleHit{}, false
	}
	invdet := 1 / det
	tvec := ray.Origin.Sub(tri[0])
	u := invdet * tvec.Dot(pvec)
	if u < -tol || 1+tol < u {
		return TriangleHit{}, false
	}
	qvec := tvec.Cross(e0)
	v := invdet * ray.Direction.Dot(qvec)
	if v < -tol || 1+tol < u+v {
		return TriangleHit{}, false
	}
	t := invdet * e1.Dot(qvec)
	if t < -tol || math.IsNaN(t) {
		return TriangleHit{}, false
	}
	return TriangleHit{T: t, U: u, V: v}, true
}

// Hit is the nearest intersection of a ray with a set of triangles
type Hit struct {
	T     float64
	Index int
}

// Index is the type of a triangle index list; voxel cells use int, flattened tables use uint32
type Index interface {
	~int | ~int32 | ~uint32
}

// NearestIntersection scans the listed triangles and returns the hit with the smallest distance
// greater than Epsilon. The triangle ignore is skipped, which stops a ray leaving a surface from
// immediately hitting that surface again.
func NearestIntersection[I Index](ray Ray, indices []I, tris []Triangle, vertices []pt.Vector, ignore int) (Hit, bool) {
	best := Hit{T: math.Inf(1), Index: NoTriangle}
	for _, idx := range indices {
		i := int(idx)
		if i == ignore {
			continue
		}
		hit, ok := IntersectTriangle(tris[i].Verts(vertices), ray)
		if ok && Epsilon < hit.T && hit.T < best.T {
			best = Hit{T: hit.T, Index: i}
		}
	}
	return best, best.Index != NoTriangle
}

// NearestIntersectionAll is NearestIntersection over every triangle
func NearestIntersectionAll(ray Ray, tris []Triangle, vertices []pt.Vector, ignore int) (Hit, bool) {
	best := Hit{T: math.Inf(1), Index: NoTriangle}
	for i, tri := range tris {
		if i == ignore {
			continue
		}
		hit, ok := IntersectTriangle(tri.Verts(vertices), ray)
		if ok && Epsilon < hit.T && hit.T < best.T {
			best = Hit{T: hit.T, Index: i}
		}
	}
	return best, best.Index != NoTriangle
}

// PointInSolid reports whether target can be seen from begin: true when nothing is hit on the
// way or the nearest hit is beyond the target.
func PointInSolid(begin, target pt.Vector, tris []Triangle, vertices []pt.Vector) bool {
	ray, ok := RayBetween(begin, target)
	if !ok {
		return true
	}
	hit, ok := NearestIntersectionAll(ray, tris, vertices, NoTriangle)
	return !ok || hit.T > target.Sub(begin).Length()
}
