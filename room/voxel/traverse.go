package voxel

import (
	"math"

	"github.com/fogleman/pt/pt"

	"github.com/jdginn/go-acoustic-raytracer/room/geo"
)

// TraversalFunc is called for every non-empty cell along a ray with the cell's triangles and the
// parameter interval (tEntry, tExit] the ray spends inside it. Returning true stops traversal.
type TraversalFunc func(ray geo.Ray, tris []int, tEntry, tExit float64) bool

// Traverse walks the cells pierced by ray in order of increasing distance. A ray starting
// outside the grid is first clipped against it; a ray that misses the grid visits nothing.
func (c *Collection) Traverse(ray geo.Ray, fn TraversalFunc) {
	walk(c.Bounds, c.Side, ray, func(cell int, tEntry, tExit float64) bool {
		tris := c.cells[cell]
		if len(tris) == 0 {
			return false
		}
		return fn(ray, tris, tEntry, tExit)
	})
}

// walk is the Amanatides-Woo grid walk over a side³ grid spanning bounds. It visits every
// cell, empty or not; visit returns true to stop.
func walk(bounds pt.Box, side int, ray geo.Ray, visit func(cell int, tEntry, tExit float64) bool) {
	start := 0.0
	pos := ray.Origin
	if !geo.BoxContains(bounds, pos) {
		tmin, _, ok := geo.IntersectBox(bounds, ray, 0, math.Inf(1))
		if !ok {
			return
		}
		start = tmin
		pos = ray.Position(tmin)
	}

	dims := bounds.Max.Sub(bounds.Min).DivScalar(float64(side))
	var (
		ind, step, justOut [3]int
		tMax, tDelta       [3]float64
	)
	for a := 0; a < 3; a++ {
		lo := geo.Component(bounds.Min, a)
		dim := geo.Component(dims, a)
		d := geo.Component(ray.Direction, a)

		ind[a] = clampIndex(int(math.Floor((geo.Component(pos, a)-lo)/dim)), side)
		var boundary float64
		if d >= 0 {
			step[a], justOut[a] = 1, side
			boundary = lo + float64(ind[a]+1)*dim
		} else {
			step[a], justOut[a] = -1, -1
			boundary = lo + float64(ind[a])*dim
		}
		// a zero component gives an infinite (or NaN, for 0/0) crossing distance: never step
		// along that axis
		t := math.Abs((boundary - geo.Component(ray.Origin, a)) / d)
		if math.IsNaN(t) {
			t = math.Inf(1)
		}
		tMax[a] = t
		tDelta[a] = math.Abs(dim / d)
	}

	prev := start
	for {
		m := minAxis(tMax)
		if visit((ind[0]*side+ind[1])*side+ind[2], prev, tMax[m]) {
			return
		}
		ind[m] += step[m]
		if ind[m] == justOut[m] {
			return
		}
		prev = tMax[m]
		tMax[m] += tDelta[m]
	}
}

func minAxis(v [3]float64) int {
	ret := 0
	for i := 1; i < 3; i++ {
		if v[i] < v[ret] {
			ret = i
		}
	}
	return ret
}
