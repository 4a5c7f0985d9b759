package geo

import (
	"math"

	"github.com/fogleman/pt/pt"
)

// Ray is an origin and a unit-length direction. Rays are values: a new ray is built rather than
// an existing one being turned.
type Ray struct {
	Origin    pt.Vector
	Direction pt.Vector
}

// NewRay normalises direction. A zero direction cannot be normalised and reports false.
func NewRay(origin, direction pt.Vector) (Ray, bool) {
	l := direction.Length()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return Ray{}, false
	}
	return Ray{Origin: origin, Direction: direction.DivScalar(l)}, true
}

// RayBetween builds the ray from a pointing at b
func RayBetween(a, b pt.Vector) (Ray, bool) {
	return NewRay(a, b.Sub(a))
}

func (r Ray) Position(t float64) pt.Vector {
	return r.Origin.Add(r.Direction.MulScalar(t))
}

// NewBox orders the corners of a box componentwise
func NewBox(a, b pt.Vector) pt.Box {
	return pt.Box{Min: a.Min(b), Max: a.Max(b)}
}

// PadBox grows a box by pad on every side
func PadBox(b pt.Box, pad float64) pt.Box {
	p := V(pad, pad, pad)
	return pt.Box{Min: b.Min.Sub(p), Max: b.Max.Add(p)}
}

func BoxContains(b pt.Box, p pt.Vector) bool {
	return b.Min.X <= p.X && p.X <= b.Max.X &&
		b.Min.Y <= p.Y && p.Y <= b.Max.Y &&
		b.Min.Z <= p.Z && p.Z <= b.Max.Z
}

func BoxVolume(b pt.Box) float64 {
	s := b.Max.Sub(b.Min)
	return s.X * s.Y * s.Z
}

// IntersectBox clips the parameter interval [t0, t1] of ray against box using the slab method.
// Each axis branches on the sign of the inverse direction; an axis the ray runs parallel to
// either rejects outright or leaves the interval untouched, so zero components never reach
// an Inf*0 product.
func IntersectBox(box pt.Box, ray Ray, t0, t1 float64) (tmin, tmax float64, ok bool) {
	tmin, tmax = t0, t1
	for axis := 0; axis < 3; axis++ {
		o := Component(ray.Origin, axis)
		d := Component(ray.Direction, axis)
		lo := Component(box.Min, axis)
		hi := Component(box.Max, axis)
		if d == 0 {
			if o < lo || hi < o {
				return 0, 0, false
			}
			continue
		}
		inv := 1 / d
		var near, far float64
		if inv >= 0 {
			near = (lo - o) * inv
			far = (hi - o) * inv
		} else {
			near = (hi - o) * inv
			far = (lo - o) * inv
		}
		tmin = math.Max(tmin, near)
		tmax = math.Min(tmax, far)
		if tmax < tmin {
			return 0, 0, false
		}
	}
	return tmin, tmax, true
}
