package geo

import (
	"math"

	"github.com/fogleman/pt/pt"
)

// Where classifies a triangle against a cube
type Where int

const (
	Outside Where = iota
	Inside
)

func (w Where) String() string {
	if w == Inside {
		return "inside"
	}
	return "outside"
}

const cubeHalf = 0.5

// TriangleCubeOverlap is the separating axis test of a triangle against the cube centred on the
// origin with half-extent 0.5. Axes tested: the nine edge/axis cross products, the three cube
// face normals and the triangle normal.
// From tomas akenine-möller, "Fast 3D Triangle-Box Overlap Testing".
func TriangleCubeOverlap(t TriangleVerts) Where {
	f := [3]pt.Vector{t[1].Sub(t[0]), t[2].Sub(t[1]), t[0].Sub(t[2])}

	axes := [9]pt.Vector{
		V(0, -f[0].Z, f[0].Y), V(0, -f[1].Z, f[1].Y), V(0, -f[2].Z, f[2].Y),
		V(f[0].Z, 0, -f[0].X), V(f[1].Z, 0, -f[1].X), V(f[2].Z, 0, -f[2].X),
		V(-f[0].Y, f[0].X, 0), V(-f[1].Y, f[1].X, 0), V(-f[2].Y, f[2].X, 0),
	}
	for _, a := range axes {
		p0, p1, p2 := a.Dot(t[0]), a.Dot(t[1]), a.Dot(t[2])
		r := absVec(a).Dot(V(cubeHalf, cubeHalf, cubeHalf))
		lo := math.Min(p0, math.Min(p1, p2))
		hi := math.Max(p0, math.Max(p1, p2))
		if math.Max(-hi, lo) > r {
			return Outside
		}
	}

	bounds := t.BoundingBox()
	if bounds.Max.X < -cubeHalf || bounds.Max.Y < -cubeHalf || bounds.Max.Z < -cubeHalf {
		return Outside
	}
	if cubeHalf < bounds.Min.X || cubeHalf < bounds.Min.Y || cubeHalf < bounds.Min.Z {
		return Outside
	}

	cross := f[0].Cross(f[2])
	if cross.Length() == 0 {
		// zero area, nothing left to separate it by
		return Inside
	}
	normal := cross.Normalize()
	dist := normal.Dot(t[0])
	r := absVec(normal).Dot(V(cubeHalf, cubeHalf, cubeHalf))
	if math.Abs(dist) <= r {
		return Inside
	}
	return Outside
}

// TriangleBoxOverlap maps the box onto the unit cube and runs TriangleCubeOverlap
func TriangleBoxOverlap(t TriangleVerts, box pt.Box) Where {
	centre := box.Min.Add(box.Max).MulScalar(0.5)
	size := box.Max.Sub(box.Min)
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return Outside
	}
	var unit TriangleVerts
	for i, v := range t {
		unit[i] = v.Sub(centre).Div(size)
	}
	return TriangleCubeOverlap(unit)
}
