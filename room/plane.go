package room

import (
	"math"

	"github.com/fogleman/pt/pt"

	"github.com/jdginn/go-acoustic-raytracer/room/geo"
	"github.com/jdginn/go-acoustic-raytracer/room/scene"
)

// Slicing follows https://github.com/fogleman/choppy/tree/master with some modifications

type Point2D struct {
	X, Y float64
}

// To2D drops the Z component of a projected vector
func To2D(v pt.Vector) Point2D {
	return Point2D{v.X, v.Y}
}

func (p Point2D) Translate(x, y float64) Point2D {
	return Point2D{p.X + x, p.Y + y}
}

func (p Point2D) Scale(s float64) Point2D {
	return Point2D{p.X * s, p.Y * s}
}

type Path2D []Point2D

// BoundingBox of the path. An empty path gives an inverted box.
func (p Path2D) BoundingBox() (XMin, XMax, YMin, YMax float64) {
	XMin, YMin = math.Inf(1), math.Inf(1)
	XMax, YMax = math.Inf(-1), math.Inf(-1)
	for _, p := range p {
		XMin = math.Min(XMin, p.X)
		XMax = math.Max(XMax, p.X)
		YMin = math.Min(YMin, p.Y)
		YMax = math.Max(YMax, p.Y)
	}
	return
}

// Plane is a section plane with an orthonormal basis U, V for projecting onto it
type Plane struct {
	Point  pt.Vector
	Normal pt.Vector
	U, V   pt.Vector
}

func MakePlane(point, normal pt.Vector) Plane {
	normal = normal.Normalize()
	u := perpendicular(normal).Normalize()
	v := u.Cross(normal).Normalize()
	return Plane{point, normal, u, v}
}

// Project gives the plane coordinates of point in X and Y and its height above the plane in Z
func (p Plane) Project(point pt.Vector) pt.Vector {
	d := point.Sub(p.Point)
	return geo.V(d.Dot(p.U), d.Dot(p.V), d.Dot(p.Normal))
}

func perpendicular(a pt.Vector) pt.Vector {
	if a.X == 0 && a.Y == 0 {
		if a.Z == 0 {
			return pt.Vector{}
		}
		return geo.V(0, 1, 0)
	}
	return geo.V(-a.Y, a.X, 0).Normalize()
}

type Path []pt.Vector

func joinPaths(paths []Path) []Path {
	frontLookup := make(map[pt.Vector]Path, len(paths))
	for _, path := range paths {
		frontLookup[path[0]] = path
	}
	var result []Path
	for len(frontLookup) > 0 {
		var v pt.Vector
		for v = range frontLookup {
			break
		}
		var path Path
	outer:
		for {
			path = append(path, v)
			if p, ok := frontLookup[v]; ok {
				delete(frontLookup, v)
				v = p[len(p)-1]
			} else {
				for k, thisPath := range frontLookup {
					if thisPath[len(thisPath)-1] == v {
						delete(frontLookup, k)
						v = k
						continue outer
					}
				}
				break
			}
		}
		result = append(result, path)
	}
	return result
}

// Slice cuts every triangle of d with the plane and joins the cuts into paths
func (p Plane) Slice(d *scene.Data) []Path {
	var paths []Path
	for i := range d.Triangles {
		if v1, v2, ok := p.IntersectTriangle(d.TriangleVerts(i)); ok {
			paths = append(paths, Path{v1, v2})
		}
	}
	return joinPaths(paths)
}

// Section slices d and projects the paths onto the plane
func (p Plane) Section(d *scene.Data) []Path2D {
	result := []Path2D{}
	for _, path := range p.Slice(d) {
		thisPath := make(Path2D, len(path))
		for i, v := range path {
			thisPath[i] = To2D(p.Project(v))
		}
		result = append(result, thisPath)
	}
	return result
}

func vectorLess(a, b pt.Vector) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Z < b.Z
}

func (p Plane) intersectSegment(v0, v1 pt.Vector) (pt.Vector, bool) {
	// neighbouring triangles cut a shared edge at exactly the same point
	if vectorLess(v1, v0) {
		v0, v1 = v1, v0
	}
	u := v1.Sub(v0)
	w := v0.Sub(p.Point)
	d := p.Normal.Dot(u)
	if d > -1e-9 && d < 1e-9 {
		return pt.Vector{}, false
	}
	n := -p.Normal.Dot(w)
	t := n / d
	if t < 0 || t > 1 {
		return pt.Vector{}, false
	}
	return v0.Add(u.MulScalar(t)), true
}

// IntersectTriangle returns the segment where the plane cuts t, ordered by the triangle's
// winding
func (p Plane) IntersectTriangle(t geo.TriangleVerts) (pt.Vector, pt.Vector, bool) {
	v1, ok1 := p.intersectSegment(t[0], t[1])
	v2, ok2 := p.intersectSegment(t[1], t[2])
	v3, ok3 := p.intersectSegment(t[2], t[0])
	var p1, p2 pt.Vector
	if ok1 && ok2 {
		p1, p2 = v1, v2
	} else if ok1 && ok3 {
		p1, p2 = v1, v3
	} else if ok2 && ok3 {
		p1, p2 = v2, v3
	} else {
		return pt.Vector{}, pt.Vector{}, false
	}
	if p1 == p2 {
		return pt.Vector{}, pt.Vector{}, false
	}
	n := p2.Sub(p1).Cross(p.Normal)
	if n.Dot(t.Normal()) < 0 {
		return p1, p2, true
	}
	return p2, p1, true
}
